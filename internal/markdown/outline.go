package markdown

import (
	"slices"
	"strings"

	"github.com/yuin/goldmark"
	gmast "github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// Heading is a heading found by the CommonMark parser.
type Heading struct {
	Level int
	Text  string
}

// Headings parses a Markdown body (front matter already removed) and returns
// its headings in document order. Headings inside code blocks are ignored.
func Headings(body []byte) []Heading {
	root := goldmark.New().Parser().Parse(text.NewReader(body))
	var out []Heading
	_ = gmast.Walk(root, func(n gmast.Node, entering bool) (gmast.WalkStatus, error) {
		if !entering {
			return gmast.WalkContinue, nil
		}
		if h, ok := n.(*gmast.Heading); ok {
			out = append(out, Heading{Level: h.Level, Text: inlineText(h, body)})
			return gmast.WalkSkipChildren, nil
		}
		return gmast.WalkContinue, nil
	})
	return out
}

// Outline returns the heading level sequence of a body.
func Outline(body string) []int {
	hs := Headings([]byte(body))
	levels := make([]int, len(hs))
	for i, h := range hs {
		levels[i] = h.Level
	}
	return levels
}

// SameOutline reports whether two bodies have the same heading level sequence.
func SameOutline(a, b string) bool {
	return slices.Equal(Outline(a), Outline(b))
}

// FirstHeading returns the text of the first heading, or "".
func FirstHeading(body string) string {
	hs := Headings([]byte(body))
	if len(hs) == 0 {
		return ""
	}
	return hs[0].Text
}

func inlineText(n gmast.Node, src []byte) string {
	var sb strings.Builder
	_ = gmast.Walk(n, func(c gmast.Node, entering bool) (gmast.WalkStatus, error) {
		if !entering {
			return gmast.WalkContinue, nil
		}
		switch t := c.(type) {
		case *gmast.Text:
			sb.Write(t.Segment.Value(src))
			if t.SoftLineBreak() || t.HardLineBreak() {
				sb.WriteByte(' ')
			}
		case *gmast.String:
			sb.Write(t.Value)
		}
		return gmast.WalkContinue, nil
	})
	return strings.TrimSpace(sb.String())
}
