package llm

import (
	"context"
	"errors"
	"testing"
	"time"

	"aitutor/backend/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigFromEnv(t *testing.T) {
	t.Setenv("TUTOR_LLM_PROVIDER", "openai")
	t.Setenv("TUTOR_OPENAI_API_KEY", "sk-test")
	t.Setenv("TUTOR_OPENAI_BASE_URL", "http://localhost:1234/v1")
	t.Setenv("TUTOR_GEMINI_API_KEY", "")
	t.Setenv("GOOGLE_GEMINI_API_KEY", "g-key")
	t.Setenv("TUTOR_LLM_TIMEOUT", "5s")
	t.Setenv("TUTOR_MAX_TOKENS", "abc")

	cfg := ConfigFromEnv()
	assert.Equal(t, "openai", cfg.Provider)
	assert.Equal(t, "sk-test", cfg.OpenAI.APIKey)
	assert.Equal(t, "http://localhost:1234/v1", cfg.OpenAI.BaseURL)
	assert.Equal(t, "g-key", cfg.Gemini.APIKey)
	assert.Equal(t, "gemini-2.5-flash", cfg.Gemini.Model)
	assert.Equal(t, 5*time.Second, cfg.Timeout)
	assert.Equal(t, 1024, cfg.MaxTokens)
	assert.NoError(t, cfg.Validate())
}

func TestValidate(t *testing.T) {
	cfg := DefaultConfig()
	err := cfg.Validate()
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMissingAPIKey)
	assert.Equal(t, "Gemini API Key is missing.", err.Error())

	cfg.Provider = "mock"
	assert.NoError(t, cfg.Validate())

	cfg.Provider = "palm"
	err = cfg.Validate()
	var unknown *UnknownProviderError
	assert.ErrorAs(t, err, &unknown)
}

func TestNewProviderMissingKey(t *testing.T) {
	p, err := NewProvider(context.Background(), DefaultConfig(), utils.DiscardLogger())
	require.NoError(t, err)

	_, err = p.Generate(context.Background(), UserPrompt("hi", 10))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMissingAPIKey)
	var unavailable *ErrProviderUnavailable
	assert.ErrorAs(t, err, &unavailable)
	assert.Equal(t, "Gemini API Key is missing.", err.Error())
}

func TestNewProviderUnknown(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Provider = "palm"
	_, err := NewProvider(context.Background(), cfg, utils.DiscardLogger())
	assert.Error(t, err)
}

func TestNewProviderMock(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Provider = "mock"
	p, err := NewProvider(context.Background(), cfg, utils.DiscardLogger())
	require.NoError(t, err)
	assert.Equal(t, "mock", p.ModelID())

	resp, err := p.Generate(context.Background(), UserPrompt("hi", 10))
	require.NoError(t, err)
	assert.NotEmpty(t, resp.Text)
}

func TestMockProviderFIFO(t *testing.T) {
	boom := errors.New("boom")
	m := NewMockProvider(MockResponse{Text: "first"}, MockResponse{Err: boom})
	m.AddResponse(MockResponse{Text: "third"})

	r, err := m.Generate(context.Background(), UserPrompt("1", 0))
	require.NoError(t, err)
	assert.Equal(t, "first", r.Text)

	_, err = m.Generate(context.Background(), UserPrompt("2", 0))
	assert.ErrorIs(t, err, boom)

	r, err = m.Generate(context.Background(), UserPrompt("3", 0))
	require.NoError(t, err)
	assert.Equal(t, "third", r.Text)
	assert.Equal(t, 3, m.CallCount())
	assert.Equal(t, "2", m.Calls[1].Messages[0].Content)
}

type blockingProvider struct{}

func (blockingProvider) Generate(ctx context.Context, _ Request) (*Response, error) {
	<-ctx.Done()
	return nil, &ErrProviderUnavailable{Err: ctx.Err()}
}

func (blockingProvider) ModelID() string { return "blocking" }

func TestWithTimeout(t *testing.T) {
	p := WithTimeout(WithLogging(blockingProvider{}, utils.DiscardLogger()), 20*time.Millisecond)

	start := time.Now()
	_, err := p.Generate(context.Background(), UserPrompt("hi", 10))
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), 2*time.Second)
	assert.Equal(t, "blocking", p.ModelID())

	assert.Equal(t, blockingProvider{}, WithTimeout(blockingProvider{}, 0))
}

func TestResolveModel(t *testing.T) {
	assert.Equal(t, "gemini-2.5-flash", resolveModel("gemini-flash", geminiModels))
	assert.Equal(t, "gemini-2.0-flash", resolveModel("gemini-2.0-flash", geminiModels))
	assert.Equal(t, "claude-haiku-4-5-20251001", resolveModel("claude-haiku", anthropicModels))
}
