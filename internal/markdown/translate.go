package markdown

import (
	"context"
	"strings"
	"unicode"
)

// TranslateFunc translates a piece of plain text.
type TranslateFunc func(ctx context.Context, text string) (string, error)

// TranslateLine segments line, translates every translatable segment in order
// and reassembles the result with the structural prefix normalised.
//
// Surrounding whitespace of a segment is kept and only its trimmed core is sent.
// On a translation error the segment keeps its original text, the remaining
// segments are still translated, and the first error is returned.
func TranslateLine(ctx context.Context, line string, fn TranslateFunc) (string, error) {
	parsed := Parse(line).Normalize()
	var firstErr error
	for i, seg := range parsed.Segments {
		if !seg.Translatable() {
			continue
		}
		if err := ctx.Err(); err != nil {
			return line, err
		}
		translated, err := translateCore(ctx, seg.Inner(), fn)
		if err != nil {
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		d := seg.Delimiter()
		parsed.Segments[i].Text = d + translated + d
	}
	return parsed.String(), firstErr
}

func translateCore(ctx context.Context, text string, fn TranslateFunc) (string, error) {
	core := strings.TrimSpace(text)
	lead := text[:strings.Index(text, core)]
	trail := text[len(lead)+len(core):]

	out, err := fn(ctx, core)
	if err != nil {
		return text, err
	}
	out = strings.TrimSpace(out)
	if out == "" {
		return text, nil
	}
	return lead + out + trail, nil
}

func isLetter(r rune) bool {
	return unicode.IsLetter(r)
}
