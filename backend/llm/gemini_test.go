package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestGeminiProvider(t *testing.T, handler http.HandlerFunc) *GeminiProvider {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	p, err := NewGeminiProvider(context.Background(), GeminiConfig{
		APIKey:  "test-key",
		Model:   "gemini-flash",
		BaseURL: server.URL + "/",
	})
	require.NoError(t, err)
	return p
}

func TestGeminiProviderHappyPath(t *testing.T) {
	p := newTestGeminiProvider(t, func(w http.ResponseWriter, r *http.Request) {
		assert.True(t, strings.HasSuffix(r.URL.Path, "models/gemini-2.5-flash:generateContent"), r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"candidates": []map[string]any{{
				"content": map[string]any{
					"role":  "model",
					"parts": []map[string]any{{"text": "A noun names a thing."}},
				},
				"finishReason": "STOP",
			}},
			"usageMetadata": map[string]any{
				"promptTokenCount":     12,
				"candidatesTokenCount": 6,
				"totalTokenCount":      18,
			},
		})
	})

	resp, err := p.Generate(context.Background(), UserPrompt("What is a noun?", 64))
	require.NoError(t, err)
	assert.Equal(t, "A noun names a thing.", resp.Text)
	assert.Equal(t, 18, resp.Usage.TotalTokens)
	assert.Equal(t, "gemini-2.5-flash", resp.Model)
}

func TestGeminiProviderRateLimit(t *testing.T) {
	p := newTestGeminiProvider(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"error":{"code":429,"message":"quota","status":"RESOURCE_EXHAUSTED"}}`))
	})

	_, err := p.Generate(context.Background(), UserPrompt("hi", 10))
	var rl *ErrRateLimit
	assert.ErrorAs(t, err, &rl)
}

func TestGeminiProviderRequiresKey(t *testing.T) {
	_, err := NewGeminiProvider(context.Background(), GeminiConfig{})
	assert.ErrorIs(t, err, ErrMissingAPIKey)
}
