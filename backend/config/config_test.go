package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("DB_DRIVER", "sqlite")
	t.Setenv("JWT_TTL", "not-a-duration")
	t.Setenv("TUTOR_RATE_LIMIT", "")

	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)

	assert.Equal(t, "sqlite", cfg.DBDriver)
	assert.Equal(t, 72*time.Hour, cfg.JWTTTL)
	assert.Equal(t, 10, cfg.TutorRateLimit)
	assert.False(t, cfg.MailEnabled())
}

func TestLoadConfigFromEnvFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.env")
	content := "SERVER_PORT=9999\nCONTACT_INBOX=team@example.com\nSMTP_HOST=smtp.example.com\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	t.Cleanup(func() {
		os.Unsetenv("SERVER_PORT")
		os.Unsetenv("CONTACT_INBOX")
		os.Unsetenv("SMTP_HOST")
	})

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "9999", cfg.ServerPort)
	assert.True(t, cfg.MailEnabled())
}

func TestAllowedOrigins(t *testing.T) {
	cfg := &Config{CORSOrigins: " http://a.test , ,http://b.test"}
	assert.Equal(t, "http://a.test,http://b.test", cfg.AllowedOrigins())
}
