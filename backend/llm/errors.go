package llm

import (
	"errors"
	"fmt"
)

// ErrRateLimit indicates the provider returned a rate limit error (429).
type ErrRateLimit struct {
	Err error
}

func (e *ErrRateLimit) Error() string {
	return fmt.Sprintf("rate limited: %v", e.Err)
}

func (e *ErrRateLimit) Unwrap() error { return e.Err }

// ErrInvalidResponse indicates the provider answered without usable text.
type ErrInvalidResponse struct {
	Err error
}

func (e *ErrInvalidResponse) Error() string {
	return fmt.Sprintf("invalid response: %v", e.Err)
}

func (e *ErrInvalidResponse) Unwrap() error { return e.Err }

// ErrProviderUnavailable indicates the provider is down, unreachable or
// rejected the request.
type ErrProviderUnavailable struct {
	Err error
}

func (e *ErrProviderUnavailable) Error() string {
	if e.Err != nil {
		return e.Err.Error()
	}
	return "provider unavailable"
}

func (e *ErrProviderUnavailable) Unwrap() error { return e.Err }

// ErrMissingAPIKey is wrapped by every missing-credentials failure.
var ErrMissingAPIKey = errors.New("API key is missing")

// MissingKeyError names the provider whose credentials are absent.
type MissingKeyError struct {
	Provider string
}

func (e *MissingKeyError) Error() string {
	return displayName(e.Provider) + " API Key is missing."
}

func (e *MissingKeyError) Unwrap() error { return ErrMissingAPIKey }

func displayName(provider string) string {
	switch provider {
	case "gemini":
		return "Gemini"
	case "openai":
		return "OpenAI"
	case "anthropic":
		return "Anthropic"
	}
	return provider
}
