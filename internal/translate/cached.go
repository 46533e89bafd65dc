package translate

import (
	"context"
	"log/slog"
	"sync/atomic"

	"git.home.luguber.info/inful/docmigrate/internal/config"
	"git.home.luguber.info/inful/docmigrate/internal/logfields"
)

// Memory stores translations of individual text segments per locale.
type Memory interface {
	Lookup(ctx context.Context, lang, text string) (string, bool, error)
	Store(ctx context.Context, lang, text, translated string) error
}

// Cached serves repeated segments from a translation memory and records
// every successful backend result in it. Memory failures are logged and
// otherwise ignored.
type Cached struct {
	next   Translator
	memory Memory
	logger *slog.Logger

	hits   atomic.Int64
	misses atomic.Int64
}

// NewCached wraps next with memory. A nil logger uses slog.Default.
func NewCached(next Translator, memory Memory, logger *slog.Logger) *Cached {
	if logger == nil {
		logger = slog.Default()
	}
	return &Cached{next: next, memory: memory, logger: logger}
}

// Translate implements Translator.
func (c *Cached) Translate(ctx context.Context, text string, lang config.Language) (string, error) {
	if out, ok, err := c.memory.Lookup(ctx, lang.Code, text); err != nil {
		c.logger.Warn("Translation memory lookup failed", logfields.Language(lang.Code), logfields.Error(err))
	} else if ok {
		c.hits.Add(1)
		return out, nil
	}
	c.misses.Add(1)

	out, err := c.next.Translate(ctx, text, lang)
	if err != nil {
		return out, err
	}
	if out != "" && out != text {
		if serr := c.memory.Store(ctx, lang.Code, text, out); serr != nil {
			c.logger.Warn("Translation memory store failed", logfields.Language(lang.Code), logfields.Error(serr))
		}
	}
	return out, nil
}

// Stats returns the number of memory hits and misses since creation.
func (c *Cached) Stats() (hits, misses int64) {
	return c.hits.Load(), c.misses.Load()
}
