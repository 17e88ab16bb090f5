package anthropic

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clodoaldo29/AzureBridge-sub002/internal/core/domain"
	"github.com/clodoaldo29/AzureBridge-sub002/internal/core/ports/driven"
)

func newTestProvider(t *testing.T, handler http.HandlerFunc) *Provider {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	p, err := New(Config{APIKey: "ak-test", BaseURL: srv.URL})
	require.NoError(t, err)
	return p
}

func writeText(w http.ResponseWriter, blocks ...string) {
	content := make([]any, 0, len(blocks))
	for _, b := range blocks {
		content = append(content, map[string]any{"type": "text", "text": b})
	}
	_ = json.NewEncoder(w).Encode(map[string]any{
		"content": content,
		"usage":   map[string]any{"input_tokens": 10, "output_tokens": 5},
	})
}

func TestNew_RequiresAPIKey(t *testing.T) {
	_, err := New(Config{})
	require.Error(t, err)

	p, err := New(Config{APIKey: "k", Model: "claude-3-haiku"})
	require.NoError(t, err)
	assert.Equal(t, "claude-3-haiku", p.ModelName())
}

func TestComplete(t *testing.T) {
	var got messagesRequest
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/messages", r.URL.Path)
		assert.Equal(t, "ak-test", r.Header.Get("x-api-key"))
		assert.Equal(t, anthropicVersion, r.Header.Get("anthropic-version"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		writeText(w, "Parte 1. ", "Parte 2.")
	})

	out, err := p.Complete(context.Background(), "Resuma", driven.CompletionOptions{SystemPrompt: "sys"})
	require.NoError(t, err)
	assert.Equal(t, "Parte 1. Parte 2.", out.Text)
	assert.Equal(t, 15, out.TokensUsed)
	assert.Equal(t, DefaultMaxTokens, got.MaxTokens)
	assert.Equal(t, "sys", got.System)
}

func TestCompleteJSON_ExtractsFromText(t *testing.T) {
	p := newTestProvider(t, func(w http.ResponseWriter, _ *http.Request) {
		writeText(w, "Claro:\n```json\n{\"proximos_passos\": \"Homologar\"}\n```")
	})

	out, err := p.CompleteJSON(context.Background(), "x", `{"type":"object"}`, driven.CompletionOptions{MaxTokens: 50})
	require.NoError(t, err)
	assert.Equal(t, "Homologar", out.Data["proximos_passos"])
}

func TestComplete_Overloaded(t *testing.T) {
	p := newTestProvider(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(529)
		_, _ = w.Write([]byte(`{"type":"error","error":{"type":"overloaded_error","message":"Overloaded"}}`))
	})

	_, err := p.Complete(context.Background(), "x", driven.CompletionOptions{})
	assert.ErrorIs(t, err, domain.ErrTransient)
	assert.Contains(t, err.Error(), "Overloaded")
}

func TestComplete_NoText(t *testing.T) {
	p := newTestProvider(t, func(w http.ResponseWriter, _ *http.Request) {
		writeText(w)
	})
	_, err := p.Complete(context.Background(), "x", driven.CompletionOptions{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no text content")
}

func TestPing(t *testing.T) {
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/models", r.URL.Path)
		w.WriteHeader(http.StatusUnauthorized)
	})
	err := p.Ping(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 401")
}
