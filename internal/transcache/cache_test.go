package transcache

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openMemory(t *testing.T) *Cache {
	t.Helper()
	c, err := Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func TestSegmentsRoundTrip(t *testing.T) {
	c := openMemory(t)
	ctx := context.Background()

	_, ok, err := c.Lookup(ctx, "en", "你好")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, c.Store(ctx, "en", "你好", "Hello"))
	require.NoError(t, c.Store(ctx, "ja", "你好", "こんにちは"))

	out, ok, err := c.Lookup(ctx, "en", "你好")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "Hello", out)

	require.NoError(t, c.Store(ctx, "en", "你好", "Hi"))
	out, _, err = c.Lookup(ctx, "en", "你好")
	require.NoError(t, err)
	assert.Equal(t, "Hi", out)

	n, err := c.Segments(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	n, err = c.Segments(ctx, "ja")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestFileFingerprints(t *testing.T) {
	c := openMemory(t)
	ctx := context.Background()

	_, ok, err := c.FileFingerprint(ctx, "en", "a/b.md")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, c.SetFileFingerprint(ctx, "en", "a/b.md", "fp1"))
	require.NoError(t, c.SetFileFingerprint(ctx, "en", "a/b.md", "fp2"))

	fp, ok, err := c.FileFingerprint(ctx, "en", "a/b.md")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "fp2", fp)

	_, ok, err = c.FileFingerprint(ctx, "ko", "a/b.md")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRunsNewestFirst(t *testing.T) {
	c := openMemory(t)
	ctx := context.Background()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	require.NoError(t, c.RecordRun(ctx, Run{ID: "r1", StartedAt: base, FinishedAt: base.Add(time.Minute), Status: "ok", Summary: []byte(`{}`)}))
	require.NoError(t, c.RecordRun(ctx, Run{ID: "r2", StartedAt: base.Add(time.Hour), FinishedAt: base.Add(2 * time.Hour), Status: "failed"}))

	runs, err := c.RecentRuns(ctx, 10)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, "r2", runs[0].ID)
	assert.Equal(t, "failed", runs[0].Status)
	assert.Equal(t, "r1", runs[1].ID)
	assert.True(t, runs[1].StartedAt.Equal(base))
	assert.Equal(t, []byte(`{}`), runs[1].Summary)

	runs, err = c.RecentRuns(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, runs, 1)
}

func TestOpenCreatesDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "cache.db")
	c, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, c.Store(context.Background(), "en", "a", "b"))
	require.NoError(t, c.Close())

	c, err = Open(path)
	require.NoError(t, err)
	defer func() { _ = c.Close() }()
	out, ok, err := c.Lookup(context.Background(), "en", "a")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "b", out)
}

func TestKeyIsStable(t *testing.T) {
	assert.Equal(t, Key("x"), Key("x"))
	assert.NotEqual(t, Key("x"), Key("y"))
	assert.Len(t, Key("x"), 64)
}
