// Package normalization maps loosely written configuration values onto typed enums.
package normalization

import (
	"sort"
	"strings"
)

// Normalizer resolves case-insensitive, whitespace-tolerant input to one of a
// closed set of string enum values.
type Normalizer[T ~string] struct {
	values map[string]T
	keys   []string
}

// New creates a normalizer accepting exactly the given values.
func New[T ~string](values ...T) *Normalizer[T] {
	n := &Normalizer[T]{values: make(map[string]T, len(values))}
	for _, v := range values {
		key := Clean(string(v))
		n.values[key] = v
		n.keys = append(n.keys, key)
	}
	sort.Strings(n.keys)
	return n
}

// Normalize returns the value matching raw and whether there was one.
func (n *Normalizer[T]) Normalize(raw string) (T, bool) {
	v, ok := n.values[Clean(raw)]
	return v, ok
}

// Keys returns the accepted spellings, sorted.
func (n *Normalizer[T]) Keys() []string {
	out := make([]string, len(n.keys))
	copy(out, n.keys)
	return out
}

// Valid lists the accepted spellings for error messages.
func (n *Normalizer[T]) Valid() string {
	return strings.Join(n.keys, ", ")
}

// Clean lower-cases and trims s.
func Clean(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
