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

func TestAnthropicClient_Complete(t *testing.T) {
	var got anthropicRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "test-key", r.Header.Get("x-api-key"))
		assert.Equal(t, anthropicVersion, r.Header.Get("anthropic-version"))
		assert.Equal(t, "jungclaude/dev", r.Header.Get("User-Agent"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"content": [{"type": "text", "text": "  {\"fragments\": []}  "}]}`))
	}))
	defer srv.Close()

	c := NewAnthropicClient("test-key", "")
	c.url = srv.URL

	out, err := c.Complete(context.Background(), Request{Prompt: "hello", MaxTokens: 100, Temperature: 0.3})
	require.NoError(t, err)
	assert.Equal(t, `{"fragments": []}`, out)
	assert.Equal(t, anthropicModel, got.Model)
	assert.Equal(t, 100, got.MaxTokens)
	require.Len(t, got.Messages, 1)
	assert.Equal(t, "hello", got.Messages[0].Content)
}

func TestAnthropicClient_StatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error": {"message": "slow down"}}`))
	}))
	defer srv.Close()

	c := NewAnthropicClient("k", "")
	c.url = srv.URL

	_, err := c.Complete(context.Background(), Request{Prompt: "x", MaxTokens: 10})
	var se *StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusTooManyRequests, se.Code)
	assert.True(t, se.Temporary())
}

func TestAnthropicClient_NoContent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"content": []}`))
	}))
	defer srv.Close()

	c := NewAnthropicClient("k", "")
	c.url = srv.URL

	_, err := c.Complete(context.Background(), Request{Prompt: "x", MaxTokens: 10})
	assert.ErrorIs(t, err, ErrEmptyResponse)
}

func TestNewCompleter_RequiresKey(t *testing.T) {
	_, err := NewCompleter(Options{Provider: ProviderAnthropic})
	assert.Error(t, err)

	_, err = NewCompleter(Options{Provider: "bogus", APIKey: "x"})
	assert.Error(t, err)

	c, err := NewCompleter(Options{Provider: ProviderOpenRouter, APIKey: "x", BaseURL: "http://localhost"})
	require.NoError(t, err)
	assert.IsType(t, &OpenRouterClient{}, c)
}
