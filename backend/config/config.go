package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	DBDriver   string // postgres, sqlite
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	SQLitePath string
	JWTSecret  string
	JWTTTL     time.Duration
	ServerPort string
	LogFormat  string // text, plain

	CORSOrigins string

	GoogleClientID     string
	GoogleClientSecret string
	GoogleRedirectURL  string

	SMTPHost     string
	SMTPPort     int
	SMTPUser     string
	SMTPPassword string
	SMTPTimeout  time.Duration
	MailFrom     string
	ContactInbox string

	TutorRateLimit int // requests per minute per user
	// RedisURL, when set, shares rate limit counters between instances.
	RedisURL string
}

// LoadConfig reads an optional .env file (or the given paths) and then the
// process environment.
func LoadConfig(envFiles ...string) (*Config, error) {
	err := godotenv.Load(envFiles...)
	if err != nil {
		log.Println("Error loading .env file, using environment variables")
	}

	return &Config{
		DBDriver:   getEnv("DB_DRIVER", "postgres"),
		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnv("DB_PORT", "5432"),
		DBUser:     getEnv("DB_USER", "postgres"),
		DBPassword: getEnv("DB_PASSWORD", "postgres"),
		DBName:     getEnv("DB_NAME", "ai_tutor"),
		SQLitePath: getEnv("SQLITE_PATH", "tutor.db"),
		JWTSecret:  getEnv("JWT_SECRET", "secret"),
		JWTTTL:     getDuration("JWT_TTL", 72*time.Hour),
		ServerPort: getEnv("SERVER_PORT", "8080"),
		LogFormat:  getEnv("LOG_FORMAT", "text"),

		CORSOrigins: getEnv("CORS_ORIGINS", "http://localhost:5173,http://127.0.0.1:5173"),

		GoogleClientID:     getEnv("GOOGLE_CLIENT_ID", ""),
		GoogleClientSecret: getEnv("GOOGLE_CLIENT_SECRET", ""),
		GoogleRedirectURL:  getEnv("GOOGLE_REDIRECT_URL", "postmessage"),

		SMTPHost:     getEnv("SMTP_HOST", ""),
		SMTPPort:     getInt("SMTP_PORT", 587),
		SMTPUser:     getEnv("SMTP_USER", ""),
		SMTPPassword: getEnv("SMTP_PASSWORD", ""),
		SMTPTimeout:  getDuration("SMTP_TIMEOUT", 10*time.Second),
		MailFrom:     getEnv("MAIL_FROM", ""),
		ContactInbox: getEnv("CONTACT_INBOX", ""),

		TutorRateLimit: getInt("TUTOR_RATE_LIMIT", 10),
		RedisURL:       getEnv("REDIS_URL", ""),
	}, nil
}

// MailEnabled reports whether enough SMTP settings are present to send mail.
func (c *Config) MailEnabled() bool {
	return c.SMTPHost != "" && c.ContactInbox != ""
}

// AllowedOrigins returns the CORS origins as a comma separated list with
// whitespace removed, the form fiber's cors middleware expects.
func (c *Config) AllowedOrigins() string {
	parts := strings.Split(c.CORSOrigins, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return strings.Join(out, ",")
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getInt(key string, defaultValue int) int {
	v, err := strconv.Atoi(getEnv(key, ""))
	if err != nil {
		return defaultValue
	}
	return v
}

func getDuration(key string, defaultValue time.Duration) time.Duration {
	d, err := time.ParseDuration(getEnv(key, ""))
	if err != nil {
		return defaultValue
	}
	return d
}
