package llm

import (
	"context"
	"errors"
	"fmt"
	"log"
)

// NewProvider creates a Provider from configuration, wrapped as
// caller → timeout → logging → base. Missing credentials do not fail
// construction; the returned provider reports them on every call.
func NewProvider(ctx context.Context, cfg Config, logger *log.Logger) (Provider, error) {
	if err := cfg.Validate(); err != nil {
		if errors.Is(err, ErrMissingAPIKey) {
			logger.Printf("llm: %v; tutor requests will fail", err)
			return WithLogging(unavailableProvider{model: cfg.Provider, err: err}, logger), nil
		}
		return nil, err
	}

	var base Provider
	var err error
	switch cfg.Provider {
	case "gemini":
		base, err = NewGeminiProvider(ctx, cfg.Gemini)
	case "openai":
		base, err = NewOpenAIProvider(cfg.OpenAI)
	case "anthropic":
		base, err = NewAnthropicProvider(cfg.Anthropic)
	case "mock":
		base = NewMockProvider()
	}
	if err != nil {
		return nil, fmt.Errorf("initializing %s provider: %w", cfg.Provider, err)
	}

	return WithTimeout(WithLogging(base, logger), cfg.Timeout), nil
}
