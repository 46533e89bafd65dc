package normalization

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type mode string

const (
	modeFast mode = "fast"
	modeSafe mode = "safe"
)

func TestNormalize(t *testing.T) {
	n := New(modeSafe, modeFast)

	tests := []struct {
		input string
		want  mode
		ok    bool
	}{
		{"fast", modeFast, true},
		{"  SAFE ", modeSafe, true},
		{"Fast", modeFast, true},
		{"slow", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, ok := n.Normalize(tt.input)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestKeysAreSortedCopies(t *testing.T) {
	n := New(modeSafe, modeFast)
	keys := n.Keys()
	assert.Equal(t, []string{"fast", "safe"}, keys)
	keys[0] = "changed"
	assert.Equal(t, "fast, safe", n.Valid())
}
