package llm

import (
	"os"
	"strconv"
	"time"
)

// Config selects and configures the tutor's text provider.
type Config struct {
	// Provider is one of "gemini", "openai", "anthropic" or "mock".
	Provider string

	Gemini    GeminiConfig
	OpenAI    OpenAIConfig
	Anthropic AnthropicConfig

	// Timeout bounds a single request. Zero disables it.
	Timeout time.Duration

	MaxTokens int
}

type GeminiConfig struct {
	APIKey string
	Model  string // Default: "gemini-2.5-flash"
	// BaseURL overrides the API endpoint; used by tests.
	BaseURL string
}

type OpenAIConfig struct {
	APIKey  string
	Model   string // Default: "gpt-4o-mini"
	BaseURL string // Optional, for OpenAI-compatible APIs.
}

type AnthropicConfig struct {
	APIKey  string
	Model   string // Default: "claude-haiku"
	BaseURL string
}

func DefaultConfig() Config {
	return Config{
		Provider:  "gemini",
		Gemini:    GeminiConfig{Model: "gemini-2.5-flash"},
		OpenAI:    OpenAIConfig{Model: "gpt-4o-mini"},
		Anthropic: AnthropicConfig{Model: "claude-haiku"},
		Timeout:   30 * time.Second,
		MaxTokens: 1024,
	}
}

// ConfigFromEnv builds a Config from TUTOR_* environment variables,
// falling back to defaults for unset values. GOOGLE_GEMINI_API_KEY is
// accepted as an alias for the Gemini key.
func ConfigFromEnv() Config {
	cfg := DefaultConfig()

	if p := os.Getenv("TUTOR_LLM_PROVIDER"); p != "" {
		cfg.Provider = p
	}

	if k := os.Getenv("TUTOR_GEMINI_API_KEY"); k != "" {
		cfg.Gemini.APIKey = k
	} else if k := os.Getenv("GOOGLE_GEMINI_API_KEY"); k != "" {
		cfg.Gemini.APIKey = k
	}
	if m := os.Getenv("TUTOR_GEMINI_MODEL"); m != "" {
		cfg.Gemini.Model = m
	}

	if k := os.Getenv("TUTOR_OPENAI_API_KEY"); k != "" {
		cfg.OpenAI.APIKey = k
	}
	if m := os.Getenv("TUTOR_OPENAI_MODEL"); m != "" {
		cfg.OpenAI.Model = m
	}
	if u := os.Getenv("TUTOR_OPENAI_BASE_URL"); u != "" {
		cfg.OpenAI.BaseURL = u
	}

	if k := os.Getenv("TUTOR_ANTHROPIC_API_KEY"); k != "" {
		cfg.Anthropic.APIKey = k
	}
	if m := os.Getenv("TUTOR_ANTHROPIC_MODEL"); m != "" {
		cfg.Anthropic.Model = m
	}

	if d, err := time.ParseDuration(os.Getenv("TUTOR_LLM_TIMEOUT")); err == nil {
		cfg.Timeout = d
	}
	if n, err := strconv.Atoi(os.Getenv("TUTOR_MAX_TOKENS")); err == nil && n > 0 {
		cfg.MaxTokens = n
	}

	return cfg
}

// Validate checks that the selected provider is known and has its API key.
func (c Config) Validate() error {
	switch c.Provider {
	case "gemini":
		if c.Gemini.APIKey == "" {
			return &MissingKeyError{Provider: c.Provider}
		}
	case "openai":
		if c.OpenAI.APIKey == "" {
			return &MissingKeyError{Provider: c.Provider}
		}
	case "anthropic":
		if c.Anthropic.APIKey == "" {
			return &MissingKeyError{Provider: c.Provider}
		}
	case "mock":
	default:
		return &UnknownProviderError{Provider: c.Provider}
	}
	return nil
}

type UnknownProviderError struct {
	Provider string
}

func (e *UnknownProviderError) Error() string {
	return "unknown LLM provider: " + strconv.Quote(e.Provider)
}
