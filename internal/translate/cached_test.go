package translate

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mapMemory map[string]string

func (m mapMemory) Lookup(_ context.Context, lang, text string) (string, bool, error) {
	v, ok := m[lang+"\x00"+text]
	return v, ok, nil
}

func (m mapMemory) Store(_ context.Context, lang, text, translated string) error {
	m[lang+"\x00"+text] = translated
	return nil
}

func TestCachedServesRepeatedSegments(t *testing.T) {
	backend := &flaky{}
	c := NewCached(backend, mapMemory{}, quietLogger())

	for range 2 {
		out, err := c.Translate(context.Background(), "你好", en)
		require.NoError(t, err)
		assert.Equal(t, "en:你好", out)
	}
	assert.Equal(t, 1, backend.calls)
	hits, misses := c.Stats()
	assert.Equal(t, int64(1), hits)
	assert.Equal(t, int64(1), misses)
}

func TestCachedDoesNotStoreFailures(t *testing.T) {
	backend := &flaky{n: 1, err: assert.AnError}
	mem := mapMemory{}
	c := NewCached(backend, mem, quietLogger())

	_, err := c.Translate(context.Background(), "你好", en)
	require.Error(t, err)
	assert.Empty(t, mem)

	out, err := c.Translate(context.Background(), "你好", en)
	require.NoError(t, err)
	assert.Equal(t, "en:你好", out)
	assert.Len(t, mem, 1)
}
