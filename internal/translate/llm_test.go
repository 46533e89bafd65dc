package translate

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/docmigrate/internal/config"
	"git.home.luguber.info/inful/docmigrate/internal/retry"
)

func TestChatEndpoint(t *testing.T) {
	assert.Equal(t,
		"https://res.openai.azure.com/openai/deployments/gpt4o/chat/completions?api-version=2024-02-01",
		chatEndpoint(config.LLMConfig{Endpoint: "https://res.openai.azure.com/", Deployment: "gpt4o", APIVersion: "2024-02-01"}))

	full := "https://res.openai.azure.com/openai/deployments/x/chat/completions?api-version=1"
	assert.Equal(t, full, chatEndpoint(config.LLMConfig{Endpoint: full, Deployment: "ignored"}))
}

func TestLLMTranslate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "secret", r.Header.Get("api-key"))
		var req chatRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Len(t, req.Messages, 2)
		assert.Equal(t, "system", req.Messages[0].Role)
		assert.Contains(t, req.Messages[0].Content, "Japanese")
		assert.Equal(t, "你好", req.Messages[1].Content)
		assert.Equal(t, llmMaxTokens, req.MaxTokens)

		_ = json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{{"message": map[string]string{"role": "assistant", "content": "```\nこんにちは\n```"}}},
		})
	}))
	defer srv.Close()

	l := NewLLM(config.LLMConfig{Endpoint: srv.URL + "/chat/completions", APIKey: "secret"}, zh, srv.Client())
	ja := config.Language{Code: "ja", LocaleDir: "ja", APICode: "jp"}
	out, err := l.Translate(context.Background(), "你好", ja)
	require.NoError(t, err)
	assert.Equal(t, "こんにちは", out)
}

func TestLLMErrorBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"error": map[string]string{"code": "content_filter", "message": "blocked"}})
	}))
	defer srv.Close()

	l := NewLLM(config.LLMConfig{Endpoint: srv.URL + "/chat/completions"}, zh, srv.Client())
	_, err := l.Translate(context.Background(), "你好", en)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "blocked")
}

func TestLLMServerErrorIsRetryable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	l := NewLLM(config.LLMConfig{Endpoint: srv.URL + "/chat/completions"}, zh, srv.Client())
	_, err := l.Translate(context.Background(), "你好", en)
	require.Error(t, err)
	assert.True(t, retry.Retryable(err))
}

func TestStripCodeBlock(t *testing.T) {
	assert.Equal(t, "plain", stripCodeBlock("  plain \n"))
	assert.Equal(t, "inner", stripCodeBlock("```markdown\ninner\n```"))
}
