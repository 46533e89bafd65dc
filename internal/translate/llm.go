package translate

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"git.home.luguber.info/inful/docmigrate/internal/config"
	foundationerrors "git.home.luguber.info/inful/docmigrate/internal/foundation/errors"
)

const (
	llmMaxTokens = 4000
	llmTopP      = 0.95
)

// LLM translates through an Azure OpenAI chat completions deployment.
type LLM struct {
	endpoint    string
	apiKey      string
	temperature float64
	source      config.Language
	httpClient  *http.Client
}

// NewLLM creates an LLM client. A nil httpClient uses a client with a 30s timeout.
func NewLLM(cfg config.LLMConfig, source config.Language, httpClient *http.Client) *LLM {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &LLM{
		endpoint:    chatEndpoint(cfg),
		apiKey:      cfg.APIKey,
		temperature: cfg.Temperature,
		source:      source,
		httpClient:  httpClient,
	}
}

// chatEndpoint accepts either a full chat completions URL or a resource
// endpoint plus deployment name.
func chatEndpoint(cfg config.LLMConfig) string {
	endpoint := strings.TrimRight(cfg.Endpoint, "/")
	if strings.Contains(endpoint, "/chat/completions") || cfg.Deployment == "" {
		return endpoint
	}
	u := endpoint + "/openai/deployments/" + url.PathEscape(cfg.Deployment) + "/chat/completions"
	if cfg.APIVersion != "" {
		u += "?api-version=" + url.QueryEscape(cfg.APIVersion)
	}
	return u
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens"`
	TopP        float64       `json:"top_p"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Error *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// systemPrompt instructs the model for one target language.
func systemPrompt(source, target config.Language) string {
	return fmt.Sprintf(`You are a professional translator of technical and specialist documentation.
Translate the user's text from %s to %s.
Return only the translated text without explanations or quotes.
Keep numbers, punctuation style, and any Markdown markers exactly where they are.
For specialist Chinese terms without a precise equivalent, give a pinyin transliteration followed by the original term in parentheses.`,
		source.DisplayName(), target.DisplayName())
}

// Translate implements Translator.
func (l *LLM) Translate(ctx context.Context, text string, lang config.Language) (string, error) {
	if strings.TrimSpace(text) == "" {
		return text, nil
	}
	reqBody := chatRequest{
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt(l.source, lang)},
			{Role: "user", Content: text},
		},
		Temperature: l.temperature,
		MaxTokens:   llmMaxTokens,
		TopP:        llmTopP,
	}
	body, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, l.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("api-key", l.apiKey)

	resp, err := l.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("llm translate: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", statusError("llm", resp)
	}

	var out chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}
	if out.Error != nil {
		return "", foundationerrors.TranslationError("llm translate failed: "+out.Error.Message).
			WithContext("code", out.Error.Code).
			WithContext("language", lang.Code).
			Build()
	}
	if len(out.Choices) == 0 {
		return "", foundationerrors.TranslationError("llm returned no choices").
			WithContext("language", lang.Code).
			Build()
	}
	return stripCodeBlock(out.Choices[0].Message.Content), nil
}

// stripCodeBlock removes a fenced wrapper the model sometimes adds.
func stripCodeBlock(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	if idx := strings.Index(s, "\n"); idx != -1 {
		s = s[idx+1:]
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
