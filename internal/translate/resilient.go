package translate

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"git.home.luguber.info/inful/docmigrate/internal/config"
	foundationerrors "git.home.luguber.info/inful/docmigrate/internal/foundation/errors"
	"git.home.luguber.info/inful/docmigrate/internal/logfields"
	"git.home.luguber.info/inful/docmigrate/internal/retry"
)

// Resilient paces, retries and degrades calls to another Translator.
//
// Calls are spaced at least minInterval apart across all goroutines. A call
// that still fails after the retry policy is exhausted returns the original
// text together with a translation error, so callers always get usable text.
type Resilient struct {
	next    Translator
	limiter *rate.Limiter
	policy  retry.Policy
	sleep   retry.Sleeper
	backend string
	logger  *slog.Logger
}

// ResilientOption configures a Resilient translator.
type ResilientOption func(*Resilient)

// WithSleeper replaces the wait between retries. Tests use it to avoid real delays.
func WithSleeper(s retry.Sleeper) ResilientOption {
	return func(r *Resilient) { r.sleep = s }
}

// WithLogger sets the logger used for retry and failure messages.
func WithLogger(l *slog.Logger) ResilientOption {
	return func(r *Resilient) {
		if l != nil {
			r.logger = l
		}
	}
}

// WithBackendName labels log lines and errors with the backend name.
func WithBackendName(name string) ResilientOption {
	return func(r *Resilient) { r.backend = name }
}

// NewResilient wraps next. A minInterval of zero disables pacing.
func NewResilient(next Translator, minInterval time.Duration, policy retry.Policy, opts ...ResilientOption) *Resilient {
	limit := rate.Inf
	if minInterval > 0 {
		limit = rate.Every(minInterval)
	}
	r := &Resilient{
		next:    next,
		limiter: rate.NewLimiter(limit, 1),
		policy:  policy,
		sleep:   retry.SleepContext,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Translate implements Translator.
func (r *Resilient) Translate(ctx context.Context, text string, lang config.Language) (string, error) {
	if strings.TrimSpace(text) == "" {
		return text, nil
	}
	var out string
	onRetry := func(attempt int, delay time.Duration, err error) {
		r.logger.Debug("Retrying translation",
			logfields.Backend(r.backend),
			logfields.Language(lang.Code),
			logfields.Attempt(attempt),
			slog.Duration("delay", delay),
			logfields.Error(err))
	}
	err := r.policy.Do(ctx, r.sleep, retry.Retryable, onRetry, func(ctx context.Context) error {
		if err := r.limiter.Wait(ctx); err != nil {
			return err
		}
		res, err := r.next.Translate(ctx, text, lang)
		if err != nil {
			return err
		}
		out = res
		return nil
	})
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return text, ctxErr
		}
		r.logger.Warn("Translation failed, keeping original text",
			logfields.Backend(r.backend),
			logfields.Language(lang.Code),
			logfields.Error(err))
		return text, foundationerrors.WrapError(err, foundationerrors.CategoryTranslation, "translation failed").
			Warning().
			WithContext("backend", r.backend).
			WithContext("language", lang.Code).
			Build()
	}
	if strings.TrimSpace(out) == "" {
		return text, nil
	}
	return out, nil
}
