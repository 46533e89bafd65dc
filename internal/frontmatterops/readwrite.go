package frontmatterops

import (
	"reflect"
	"strings"

	"git.home.luguber.info/inful/docmigrate/internal/frontmatter"
)

// Read splits a markdown document into YAML front matter fields and body.
//
// Contract:
// - If the input doesn't start with a delimiter, had=false and body is the full input.
// - A missing closing delimiter returns frontmatter.ErrMissingClosingDelimiter.
// - Present but empty front matter yields an empty map.
func Read(content []byte) (fields map[string]any, body []byte, had bool, style frontmatter.Style, err error) {
	raw, body, had, style, err := frontmatter.Parse(content)
	if err != nil {
		return nil, nil, false, style, err
	}
	fields, err = frontmatter.ParseYAML(raw)
	if err != nil {
		return nil, nil, had, style, err
	}
	return fields, body, had, style, nil
}

// Write serializes fields with sorted keys and joins them with body.
// If had is false, Write returns body as-is.
func Write(fields map[string]any, body []byte, had bool, style frontmatter.Style) ([]byte, error) {
	if !had {
		return body, nil
	}
	raw, err := frontmatter.SerializeYAML(fields, style)
	if err != nil {
		return nil, err
	}
	return frontmatter.Assemble(raw, body, true, style), nil
}

// Update sets the given keys in a document's front matter, keeping every other
// key in place, and returns the rewritten document. A document without front
// matter gains a block. changed is false when every value was already equal.
func Update(content []byte, updates map[string]any) (out []byte, changed bool, err error) {
	raw, body, had, style, err := frontmatter.Parse(content)
	if err != nil {
		return nil, false, err
	}
	current, err := frontmatter.ParseYAML(raw)
	if err != nil {
		return nil, false, err
	}
	for k, v := range updates {
		if old, ok := current[k]; !ok || !reflect.DeepEqual(old, v) {
			changed = true
			break
		}
	}
	if !changed {
		return content, false, nil
	}

	updated, err := frontmatter.UpdateYAML(raw, updates)
	if err != nil {
		return nil, false, err
	}
	if !had {
		body = append([]byte(style.Newline), body...)
	}
	if style.Newline != "\n" {
		updated = []byte(strings.ReplaceAll(string(updated), "\n", style.Newline))
	}
	return frontmatter.Assemble(updated, body, true, style), true, nil
}
