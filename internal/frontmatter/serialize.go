package frontmatter

import (
	"bytes"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Field is one front matter key with its value. A nil Value renders as null.
type Field struct {
	Key   string
	Value any
}

// Fields is an ordered list of front matter keys.
type Fields []Field

// Get returns the value stored under key.
func (f Fields) Get(key string) (any, bool) {
	for _, field := range f {
		if field.Key == key {
			return field.Value, true
		}
	}
	return nil, false
}

// Render returns the fields as a fenced block "---\n...\n---" in declaration order.
func (f Fields) Render() (string, error) {
	node := &yaml.Node{Kind: yaml.MappingNode}
	for _, field := range f {
		val, err := nodeFromAny(field.Value)
		if err != nil {
			return "", fmt.Errorf("field %s: %w", field.Key, err)
		}
		node.Content = append(node.Content, strNode(field.Key), val)
	}
	out, err := encodeNode(node)
	if err != nil {
		return "", err
	}
	return Fence + "\n" + strings.TrimRight(string(out), "\n") + "\n" + Fence, nil
}

// SerializeYAML serializes a map into YAML bytes (without fences). Keys are
// sorted recursively so output is deterministic. Empty input yields an empty slice.
func SerializeYAML(fields map[string]any, style Style) ([]byte, error) {
	if len(fields) == 0 {
		return []byte{}, nil
	}
	node, err := nodeFromMap(fields)
	if err != nil {
		return nil, err
	}
	out, err := encodeNode(node)
	if err != nil {
		return nil, err
	}
	if nl := style.Newline; nl != "" && nl != "\n" {
		out = bytes.ReplaceAll(out, []byte("\n"), []byte(nl))
	}
	return out, nil
}

// UpdateYAML sets keys in raw YAML while keeping the order and formatting of
// every other key. Missing keys are appended in sorted order.
func UpdateYAML(fm []byte, updates map[string]any) ([]byte, error) {
	var doc yaml.Node
	if len(bytes.TrimSpace(fm)) > 0 {
		if err := yaml.Unmarshal(fm, &doc); err != nil {
			return nil, err
		}
	}
	var mapping *yaml.Node
	switch {
	case len(doc.Content) == 0:
		mapping = &yaml.Node{Kind: yaml.MappingNode}
	case doc.Content[0].Kind == yaml.MappingNode:
		mapping = doc.Content[0]
	default:
		return nil, fmt.Errorf("front matter is not a mapping")
	}

	keys := make([]string, 0, len(updates))
	for k := range updates {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, key := range keys {
		val, err := nodeFromAny(updates[key])
		if err != nil {
			return nil, fmt.Errorf("field %s: %w", key, err)
		}
		replaced := false
		for i := 0; i+1 < len(mapping.Content); i += 2 {
			if mapping.Content[i].Value == key {
				mapping.Content[i+1] = val
				replaced = true
				break
			}
		}
		if !replaced {
			mapping.Content = append(mapping.Content, strNode(key), val)
		}
	}
	return encodeNode(mapping)
}

func encodeNode(node *yaml.Node) ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(node); err != nil {
		_ = enc.Close()
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func strNode(v string) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: v}
}

func scalar(tag, v string) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: tag, Value: v}
}

func nodeFromMap(m map[string]any) (*yaml.Node, error) {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	n := &yaml.Node{Kind: yaml.MappingNode}
	for _, k := range keys {
		val, err := nodeFromAny(m[k])
		if err != nil {
			return nil, err
		}
		n.Content = append(n.Content, strNode(k), val)
	}
	return n, nil
}

func nodeFromAny(v any) (*yaml.Node, error) {
	switch vv := v.(type) {
	case nil:
		return scalar("!!null", "null"), nil
	case string:
		return strNode(vv), nil
	case bool:
		return scalar("!!bool", strconv.FormatBool(vv)), nil
	case int:
		return scalar("!!int", strconv.Itoa(vv)), nil
	case int64:
		return scalar("!!int", strconv.FormatInt(vv, 10)), nil
	case float64:
		return scalar("!!float", strconv.FormatFloat(vv, 'g', -1, 64)), nil
	case map[string]any:
		return nodeFromMap(vv)
	case []any:
		seq := &yaml.Node{Kind: yaml.SequenceNode}
		for _, item := range vv {
			node, err := nodeFromAny(item)
			if err != nil {
				return nil, err
			}
			seq.Content = append(seq.Content, node)
		}
		return seq, nil
	case []string:
		seq := &yaml.Node{Kind: yaml.SequenceNode}
		for _, item := range vv {
			seq.Content = append(seq.Content, strNode(item))
		}
		return seq, nil
	default:
		var node yaml.Node
		if err := node.Encode(v); err != nil {
			return nil, err
		}
		return &node, nil
	}
}
