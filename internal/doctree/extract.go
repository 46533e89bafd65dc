package doctree

import (
	"log/slog"
	"strings"

	"git.home.luguber.info/inful/docmigrate/internal/blocks"
	foundationerrors "git.home.luguber.info/inful/docmigrate/internal/foundation/errors"
	"git.home.luguber.info/inful/docmigrate/internal/logfields"
)

// DefaultIntroSuffix names the bucket for content directly under a top-level title.
const DefaultIntroSuffix = "介绍"

// Option configures an Extractor.
type Option func(*Extractor)

// WithIntroSuffix overrides the intro bucket suffix.
func WithIntroSuffix(suffix string) Option {
	return func(e *Extractor) {
		if suffix != "" {
			e.introSuffix = suffix
		}
	}
}

// WithLogger sets the logger used for dropped blocks.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Extractor) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// Extractor turns a block list into a Structure.
type Extractor struct {
	introSuffix string
	logger      *slog.Logger
}

// NewExtractor creates an Extractor.
func NewExtractor(opts ...Option) *Extractor {
	e := &Extractor{introSuffix: DefaultIntroSuffix, logger: slog.Default()}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Extract builds a Structure using default options.
func Extract(list []blocks.Block, opts ...Option) (*Structure, error) {
	return NewExtractor(opts...).Extract(list)
}

// Extract builds the title hierarchy in two passes. The first pass registers
// top-level titles and indexes heading-2 and code text by block id; the second
// walks the sequence with a top-level and a second-level cursor and attaches content.
func (e *Extractor) Extract(list []blocks.Block) (*Structure, error) {
	arena := blocks.NewArena(list)
	roots := arena.Roots()
	if len(roots) != 1 {
		return nil, foundationerrors.StructureError("document must have exactly one root block").
			WithContext("roots", len(roots)).
			WithContext("blocks", len(list)).
			Build()
	}
	root := roots[0]
	children := arena.ChildrenOf(root.ID)

	out := NewStructure(e.introSuffix)
	headings := map[string]string{}
	code := map[string]string{}

	for _, b := range children {
		switch b.Type {
		case blocks.TypeHeading1:
			if title := cleanTitle(b.Text()); title != "" {
				out.AddSection(title)
			}
		case blocks.TypeHeading2:
			headings[b.ID] = cleanTitle(b.Text())
		case blocks.TypeCode:
			code[b.ID] = b.Text()
		}
	}

	var top, second string
	for _, b := range children {
		switch b.Type {
		case blocks.TypeHeading1:
			title := cleanTitle(b.Text())
			if title == "" {
				continue
			}
			top, second = title, ""
		case blocks.TypeHeading2:
			title := headings[b.ID]
			if title == "" {
				continue
			}
			if top == "" {
				e.dropped(b, "heading2 before any heading1")
				continue
			}
			second = title
			sec, _ := out.Section(top)
			sec.Set(second, "", false)
		case blocks.TypeCode, blocks.TypeParagraph:
			text := b.Text()
			if b.Type == blocks.TypeCode {
				text = code[b.ID]
			}
			if strings.TrimSpace(text) == "" {
				continue
			}
			if top == "" {
				e.dropped(b, "content before any heading1")
				continue
			}
			sec, _ := out.Section(top)
			if second != "" {
				sec.Append(second, text, false)
			} else {
				sec.Append(out.IntroKey(top), text, true)
			}
		}
	}
	return out, nil
}

func (e *Extractor) dropped(b blocks.Block, reason string) {
	e.logger.Debug("Dropping block outside the title hierarchy",
		logfields.BlockID(b.ID),
		logfields.BlockType(b.RawType),
		slog.String("reason", reason))
}

func cleanTitle(s string) string {
	return strings.TrimSpace(s)
}

// IsStructureError reports whether err is a malformed block tree error.
func IsStructureError(err error) bool {
	return foundationerrors.HasCategory(err, foundationerrors.CategoryStructure)
}

// DegradedDump renders the first n blocks as plain Markdown for manual recovery
// when extraction fails. n <= 0 dumps every block.
func DegradedDump(list []blocks.Block, n int) string {
	if n <= 0 || n > len(list) {
		n = len(list)
	}
	parts := make([]string, 0, n)
	for _, b := range list[:n] {
		text := strings.TrimSpace(b.Text())
		if text == "" {
			continue
		}
		switch b.Type {
		case blocks.TypeRoot, blocks.TypeHeading1:
			parts = append(parts, "# "+text)
		case blocks.TypeHeading2:
			parts = append(parts, "## "+text)
		case blocks.TypeCode:
			parts = append(parts, "```\n"+text+"\n```")
		default:
			parts = append(parts, text)
		}
	}
	if len(parts) == 0 {
		return ""
	}
	return strings.Join(parts, "\n\n") + "\n"
}
