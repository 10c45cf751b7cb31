package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestOpenAIProvider(t *testing.T, handler http.HandlerFunc) *OpenAIProvider {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	p, err := NewOpenAIProvider(OpenAIConfig{APIKey: "test-key", Model: "gpt-4o-mini", BaseURL: server.URL + "/v1"})
	require.NoError(t, err)
	return p
}

func TestOpenAIProviderHappyPath(t *testing.T) {
	var got map[string]any
	p := newTestOpenAIProvider(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"id":      "chatcmpl-test",
			"object":  "chat.completion",
			"created": 1234567890,
			"model":   "gpt-4o-mini",
			"choices": []map[string]any{{
				"index":         0,
				"message":       map[string]any{"role": "assistant", "content": "Photosynthesis turns light into sugar."},
				"finish_reason": "stop",
			}},
			"usage": map[string]any{"prompt_tokens": 40, "completion_tokens": 25, "total_tokens": 65},
		})
	})

	resp, err := p.Generate(context.Background(), Request{
		System:    "Be brief.",
		Messages:  []Message{{Role: RoleUser, Content: "What is photosynthesis?"}},
		MaxTokens: 256,
	})
	require.NoError(t, err)
	assert.Equal(t, "Photosynthesis turns light into sugar.", resp.Text)
	assert.Equal(t, 40, resp.Usage.InputTokens)
	assert.Equal(t, 25, resp.Usage.OutputTokens)
	assert.Equal(t, "end", resp.StopReason)

	msgs := got["messages"].([]any)
	require.Len(t, msgs, 2)
	assert.Equal(t, "system", msgs[0].(map[string]any)["role"])
	assert.Equal(t, "What is photosynthesis?", msgs[1].(map[string]any)["content"])
}

func TestOpenAIProviderRateLimit(t *testing.T) {
	p := newTestOpenAIProvider(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusTooManyRequests)
		json.NewEncoder(w).Encode(map[string]any{
			"error": map[string]any{"message": "Rate limit exceeded", "type": "rate_limit_error"},
		})
	})

	_, err := p.Generate(context.Background(), UserPrompt("hi", 10))
	var rl *ErrRateLimit
	assert.ErrorAs(t, err, &rl)
}

func TestOpenAIProviderServerError(t *testing.T) {
	p := newTestOpenAIProvider(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		json.NewEncoder(w).Encode(map[string]any{
			"error": map[string]any{"message": "internal error", "type": "server_error"},
		})
	})

	_, err := p.Generate(context.Background(), UserPrompt("hi", 10))
	var unavailable *ErrProviderUnavailable
	require.ErrorAs(t, err, &unavailable)
	assert.Contains(t, err.Error(), "internal error")
}

func TestOpenAIProviderNoChoices(t *testing.T) {
	p := newTestOpenAIProvider(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{"id": "x", "model": "gpt-4o-mini", "choices": []any{}})
	})

	_, err := p.Generate(context.Background(), UserPrompt("hi", 10))
	var invalid *ErrInvalidResponse
	assert.ErrorAs(t, err, &invalid)
}

func TestOpenAIProviderRequiresKey(t *testing.T) {
	_, err := NewOpenAIProvider(OpenAIConfig{})
	assert.ErrorIs(t, err, ErrMissingAPIKey)
}
