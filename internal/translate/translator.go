// Package translate provides the translation backends and the Markdown-aware
// document translator built on top of them.
package translate

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"git.home.luguber.info/inful/docmigrate/internal/config"
	foundationerrors "git.home.luguber.info/inful/docmigrate/internal/foundation/errors"
	"git.home.luguber.info/inful/docmigrate/internal/retry"
)

// Translator translates plain text into the target language.
// Implementations must be safe to retry with the same input.
type Translator interface {
	Translate(ctx context.Context, text string, lang config.Language) (string, error)
}

// Func adapts a function to the Translator interface.
type Func func(ctx context.Context, text string, lang config.Language) (string, error)

// Translate implements Translator.
func (f Func) Translate(ctx context.Context, text string, lang config.Language) (string, error) {
	return f(ctx, text, lang)
}

// Identity returns every text unchanged. It backs the "none" provider.
type Identity struct{}

// Translate implements Translator.
func (Identity) Translate(_ context.Context, text string, _ config.Language) (string, error) {
	return text, nil
}

// NewBackend builds the configured backend without retry or caching.
func NewBackend(cfg config.TranslationConfig, httpClient *http.Client) (Translator, error) {
	switch cfg.Provider {
	case config.ProviderBaidu:
		return NewBaidu(cfg.Baidu, cfg.SourceLanguage, httpClient), nil
	case config.ProviderLLM:
		return NewLLM(cfg.LLM, cfg.SourceLanguage, httpClient), nil
	case config.ProviderNone, "":
		return Identity{}, nil
	default:
		return nil, foundationerrors.ConfigError("unknown translation provider").
			WithContext("provider", string(cfg.Provider)).
			Build()
	}
}

// statusError classifies a non-2xx HTTP response of a translation backend.
func statusError(backend string, resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
	msg := fmt.Sprintf("%s returned status %d", backend, resp.StatusCode)
	var b *foundationerrors.ErrorBuilder
	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		b = foundationerrors.AuthError(msg)
	case resp.StatusCode == http.StatusTooManyRequests:
		b = foundationerrors.NetworkError(msg).RateLimit()
	case resp.StatusCode >= 500:
		b = foundationerrors.NetworkError(msg)
	default:
		b = foundationerrors.TranslationError(msg).WithRetry(foundationerrors.RetryNever)
	}
	return b.WithContext("backend", backend).
		WithContext("status", resp.StatusCode).
		WithContext("body", truncate(strings.TrimSpace(string(body)), 200)).
		Build()
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

// New builds the translator stack for cfg: the backend behind pacing and
// retries, and the translation memory in front when memory is non-nil.
func New(cfg config.TranslationConfig, memory Memory, logger *slog.Logger) (Translator, error) {
	if logger == nil {
		logger = slog.Default()
	}
	httpClient := &http.Client{Timeout: cfg.Timeout.Std()}
	backend, err := NewBackend(cfg, httpClient)
	if err != nil {
		return nil, err
	}
	if _, ok := backend.(Identity); ok {
		return backend, nil
	}
	var tr Translator = NewResilient(backend, cfg.MinInterval.Std(), retry.FromConfig(cfg.Retry),
		WithLogger(logger),
		WithBackendName(string(cfg.Provider)))
	if memory != nil {
		tr = NewCached(tr, memory, logger)
	}
	return tr, nil
}
