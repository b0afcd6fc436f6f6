package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lueurxax/claim-bench/internal/platform/config"
)

func TestOpenAIProviderComplete(t *testing.T) {
	var got struct {
		Model     string `json:"model"`
		MaxTokens int    `json:"max_tokens"`
		Messages  []struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"messages"`
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"1","object":"chat.completion","choices":[{"index":0,"message":{"role":"assistant","content":"{\"score\": 0.8}"},"finish_reason":"stop"}]}`))
	}))
	defer srv.Close()

	logger := zerolog.Nop()
	p := NewOpenAIProvider(&config.Config{LLMAPIKey: "sk-test", LLMBaseURL: srv.URL + "/", RateLimitRPS: 100}, &logger)
	require.True(t, p.IsAvailable())

	text, err := p.Complete(context.Background(), Request{
		Model:     "gpt-4o",
		MaxTokens: 20,
		Messages: []Message{
			{Role: RoleSystem, Content: "sys"},
			{Role: RoleUser, Content: "claim"},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, `{"score": 0.8}`, text)

	assert.Equal(t, "gpt-4o", got.Model)
	assert.Equal(t, 20, got.MaxTokens)
	require.Len(t, got.Messages, 2)
	assert.Equal(t, "system", got.Messages[0].Role)
	assert.Equal(t, "user", got.Messages[1].Role)
}

func TestOpenAIProviderServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":{"message":"boom","type":"server_error"}}`))
	}))
	defer srv.Close()

	logger := zerolog.Nop()
	p := NewOpenAIProvider(&config.Config{LLMAPIKey: "sk-test", LLMBaseURL: srv.URL}, &logger)

	_, err := p.Complete(context.Background(), Request{Model: "gpt-4o", Messages: []Message{{Role: RoleUser, Content: "x"}}})
	require.Error(t, err)
}

func TestOpenAIProviderMockKeyIsUnavailable(t *testing.T) {
	logger := zerolog.Nop()
	assert.False(t, NewOpenAIProvider(&config.Config{LLMAPIKey: llmAPIKeyMock}, &logger).IsAvailable())
}
