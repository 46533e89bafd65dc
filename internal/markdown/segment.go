package markdown

import (
	"regexp"
	"strings"
)

// Kind classifies a segment of a line.
type Kind int

const (
	KindPlain Kind = iota
	KindBold
	KindItalic
	KindCode
	KindPrefix
)

func (k Kind) String() string {
	switch k {
	case KindBold:
		return "bold"
	case KindItalic:
		return "italic"
	case KindCode:
		return "code"
	case KindPrefix:
		return "prefix"
	default:
		return "plain"
	}
}

// Segment is a contiguous piece of a line. Text includes any format delimiters.
type Segment struct {
	Text string
	Kind Kind
}

// Delimiter returns the markers wrapping the inner text of bold and italic spans.
func (s Segment) Delimiter() string {
	switch s.Kind {
	case KindBold:
		return "**"
	case KindItalic:
		return "*"
	default:
		return ""
	}
}

// Inner returns the text without its format delimiters.
func (s Segment) Inner() string {
	d := s.Delimiter()
	if d == "" || len(s.Text) < 2*len(d) {
		return s.Text
	}
	return s.Text[len(d) : len(s.Text)-len(d)]
}

// Translatable reports whether the segment carries human text. Code spans and
// structural prefixes never do; neither do spans without any letter.
func (s Segment) Translatable() bool {
	switch s.Kind {
	case KindCode, KindPrefix:
		return false
	}
	return hasLetter(s.Inner())
}

// Line is a parsed Markdown line: leading indentation plus ordered segments.
type Line struct {
	Indent   string
	Segments []Segment
}

var (
	prefixRe = regexp.MustCompile(`^(?:#+|[-*+]|\d+\.|>)[ \t]+`)
	inlineRe = regexp.MustCompile("\\*\\*.*?\\*\\*|\\*.*?\\*|`.*?`")
)

// Parse splits a single line (without its trailing newline) into segments.
// Concatenating Indent and every segment's Text reproduces the input exactly.
func Parse(line string) Line {
	rest := strings.TrimLeft(line, " \t")
	out := Line{Indent: line[:len(line)-len(rest)]}

	if loc := prefixRe.FindStringIndex(rest); loc != nil {
		out.Segments = append(out.Segments, Segment{Text: rest[:loc[1]], Kind: KindPrefix})
		rest = rest[loc[1]:]
	}

	last := 0
	for _, m := range inlineRe.FindAllStringIndex(rest, -1) {
		if m[0] > last {
			out.Segments = append(out.Segments, Segment{Text: rest[last:m[0]], Kind: KindPlain})
		}
		out.Segments = append(out.Segments, Segment{Text: rest[m[0]:m[1]], Kind: spanKind(rest[m[0]:m[1]])})
		last = m[1]
	}
	if last < len(rest) {
		out.Segments = append(out.Segments, Segment{Text: rest[last:], Kind: KindPlain})
	}
	return out
}

func spanKind(span string) Kind {
	switch {
	case strings.HasPrefix(span, "`"):
		return KindCode
	case len(span) >= 4 && strings.HasPrefix(span, "**") && strings.HasSuffix(span, "**"):
		return KindBold
	default:
		return KindItalic
	}
}

// String reassembles the line.
func (l Line) String() string {
	var sb strings.Builder
	sb.WriteString(l.Indent)
	for _, s := range l.Segments {
		sb.WriteString(s.Text)
	}
	return sb.String()
}

// Reassemble concatenates the indentation and segments of l.
func Reassemble(l Line) string { return l.String() }

// Prefix returns the structural prefix segment, if any.
func (l Line) Prefix() (Segment, bool) {
	if len(l.Segments) > 0 && l.Segments[0].Kind == KindPrefix {
		return l.Segments[0], true
	}
	return Segment{}, false
}

// Normalize returns a copy whose structural prefix is re-derived as the literal
// marker followed by exactly one space.
func (l Line) Normalize() Line {
	p, ok := l.Prefix()
	if !ok {
		return l
	}
	segs := make([]Segment, len(l.Segments))
	copy(segs, l.Segments)
	segs[0] = Segment{Text: strings.TrimRight(p.Text, " \t") + " ", Kind: KindPrefix}
	return Line{Indent: l.Indent, Segments: segs}
}

func hasLetter(s string) bool {
	for _, r := range s {
		if isLetter(r) {
			return true
		}
	}
	return false
}
