package frontmatter

import (
	"bytes"
	"errors"

	"gopkg.in/yaml.v3"
)

// Style captures the newline shape of a document so it can be rewritten stably.
// It does not attempt to preserve original YAML formatting.
type Style struct {
	Newline            string
	HasTrailingNewline bool
}

// ErrMissingClosingDelimiter indicates the document started with a front matter
// fence but never closed it.
var ErrMissingClosingDelimiter = errors.New("front matter start delimiter found but closing delimiter is missing")

// Parse is the strict counterpart of Split working on raw bytes. fm excludes the
// fences and keeps its trailing newline; had reports whether a block was present.
func Parse(content []byte) (fm []byte, body []byte, had bool, style Style, err error) {
	style = detectStyle(content)
	nl := []byte(style.Newline)
	fence := append([]byte(Fence), nl...)

	if !bytes.HasPrefix(content, fence) {
		return nil, content, false, style, nil
	}
	rest := content[len(fence):]
	if bytes.HasPrefix(rest, fence) {
		return []byte{}, rest[len(fence):], true, style, nil
	}

	closing := append(append([]byte{}, nl...), fence...)
	idx := bytes.Index(rest, closing)
	if idx < 0 {
		return nil, nil, false, style, ErrMissingClosingDelimiter
	}
	return rest[:idx+len(nl)], rest[idx+len(closing):], true, style, nil
}

// Assemble reverses Parse. When had is false the body is returned unchanged.
func Assemble(fm []byte, body []byte, had bool, style Style) []byte {
	if !had {
		return body
	}
	nl := style.Newline
	if nl == "" {
		nl = "\n"
	}
	var buf bytes.Buffer
	buf.Grow(len(fm) + len(body) + 2*(len(Fence)+len(nl)))
	buf.WriteString(Fence + nl)
	buf.Write(fm)
	buf.WriteString(Fence + nl)
	buf.Write(body)
	return buf.Bytes()
}

// ParseYAML parses raw YAML (without fences) into a map. Empty input yields an empty map.
func ParseYAML(fm []byte) (map[string]any, error) {
	fields := map[string]any{}
	if len(bytes.TrimSpace(fm)) == 0 {
		return fields, nil
	}
	if err := yaml.Unmarshal(fm, &fields); err != nil {
		return nil, err
	}
	if fields == nil {
		fields = map[string]any{}
	}
	return fields, nil
}

func detectStyle(content []byte) Style {
	style := Style{Newline: "\n"}
	if i := bytes.IndexByte(content, '\n'); i > 0 && content[i-1] == '\r' {
		style.Newline = "\r\n"
	}
	style.HasTrailingNewline = len(content) > 0 && content[len(content)-1] == '\n'
	return style
}
