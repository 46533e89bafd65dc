package translate

import (
	"context"
	"log/slog"
	"strings"
	"sync/atomic"

	"git.home.luguber.info/inful/docmigrate/internal/config"
	"git.home.luguber.info/inful/docmigrate/internal/frontmatter"
	"git.home.luguber.info/inful/docmigrate/internal/logfields"
	"git.home.luguber.info/inful/docmigrate/internal/markdown"
)

// Result is the outcome of translating one Markdown document.
type Result struct {
	Content string
	// Segments is the number of segments sent to the translator.
	Segments int
	// Failures counts segments that kept their original text because of an error.
	Failures int
	// FirstError is the first segment error, if any.
	FirstError error
	// OutlineMismatch is set when the heading level sequence changed.
	OutlineMismatch bool
}

// Degraded reports whether any part of the document could not be translated.
func (r Result) Degraded() bool {
	return r.Failures > 0
}

// Document translates Markdown documents line by line, preserving front
// matter, fenced code, structural prefixes and inline markers.
type Document struct {
	tr     Translator
	logger *slog.Logger
}

// NewDocument creates a document translator over tr.
func NewDocument(tr Translator, logger *slog.Logger) *Document {
	if logger == nil {
		logger = slog.Default()
	}
	return &Document{tr: tr, logger: logger}
}

// TranslateMarkdown translates the body of doc into lang. Front matter is
// carried over unchanged and fenced code blocks are not translated. The
// returned error is non-nil only when ctx is cancelled.
func (d *Document) TranslateMarkdown(ctx context.Context, doc string, lang config.Language) (Result, error) {
	fm, body := frontmatter.Split(doc)

	var segments, failures atomic.Int64
	var res Result
	fn := func(ctx context.Context, text string) (string, error) {
		segments.Add(1)
		out, err := d.tr.Translate(ctx, text, lang)
		if err != nil {
			failures.Add(1)
		}
		return out, err
	}

	lines := strings.Split(body, "\n")
	inFence := false
	for i, line := range lines {
		if isFenceLine(line) {
			inFence = !inFence
			continue
		}
		if inFence || strings.TrimSpace(line) == "" {
			continue
		}
		out, err := markdown.TranslateLine(ctx, line, fn)
		if ctxErr := ctx.Err(); ctxErr != nil {
			return Result{}, ctxErr
		}
		if err != nil && res.FirstError == nil {
			res.FirstError = err
		}
		lines[i] = out
	}

	translated := markdown.Repair(strings.Join(lines, "\n"))
	res.Content = frontmatter.Join(fm, translated)
	res.Segments = int(segments.Load())
	res.Failures = int(failures.Load())
	if !markdown.SameOutline(body, translated) {
		res.OutlineMismatch = true
		d.logger.Warn("Heading outline changed during translation", logfields.Language(lang.Code))
	}
	return res, nil
}

// TranslateText translates a single short text such as a category label.
// On failure the original text is returned with the error.
func (d *Document) TranslateText(ctx context.Context, text string, lang config.Language) (string, error) {
	core := strings.TrimSpace(text)
	if core == "" {
		return text, nil
	}
	out, err := d.tr.Translate(ctx, core, lang)
	if err != nil || strings.TrimSpace(out) == "" {
		return text, err
	}
	return strings.TrimSpace(out), nil
}

func isFenceLine(line string) bool {
	t := strings.TrimSpace(line)
	return strings.HasPrefix(t, "```") || strings.HasPrefix(t, "~~~")
}
