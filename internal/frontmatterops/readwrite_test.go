package frontmatterops

import (
	"testing"

	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/docmigrate/internal/frontmatter"
)

func TestRead_NoFrontmatter(t *testing.T) {
	input := []byte("# Title\n\nHello\n")

	fields, body, had, style, err := Read(input)
	require.NoError(t, err)
	require.False(t, had)
	require.Empty(t, fields)
	require.Equal(t, input, body)
	require.Equal(t, "\n", style.Newline)
}

func TestRead_MissingClosingDelimiter(t *testing.T) {
	_, _, _, _, err := Read([]byte("---\nsidebar_position: 1\n# Title\n"))
	require.ErrorIs(t, err, frontmatter.ErrMissingClosingDelimiter)
}

func TestReadWrite_RoundTripSortsKeys(t *testing.T) {
	fields, body, had, style, err := Read([]byte("---\nsidebar_position: 1\nhide_title: true\n---\n# Title\n"))
	require.NoError(t, err)
	require.Equal(t, 1, fields["sidebar_position"])

	out, err := Write(fields, body, had, style)
	require.NoError(t, err)
	require.Equal(t, "---\nhide_title: true\nsidebar_position: 1\n---\n# Title\n", string(out))

	plain, err := Write(map[string]any{"x": 1}, []byte("body"), false, style)
	require.NoError(t, err)
	require.Equal(t, "body", string(plain))
}

func TestUpdate_ChangesOnlyRequestedKeys(t *testing.T) {
	in := []byte("---\nsidebar_position: 3\nhide_title: true\npagination_prev: null\n---\n\n# 甲\n")

	out, changed, err := Update(in, map[string]any{"sidebar_position": 1})
	require.NoError(t, err)
	require.True(t, changed)
	require.Equal(t, "---\nsidebar_position: 1\nhide_title: true\npagination_prev: null\n---\n\n# 甲\n", string(out))

	same, changed, err := Update(out, map[string]any{"sidebar_position": 1})
	require.NoError(t, err)
	require.False(t, changed)
	require.Equal(t, out, same)
}

func TestUpdate_AddsFrontmatterWhenMissing(t *testing.T) {
	out, changed, err := Update([]byte("# Title\n"), map[string]any{"sidebar_position": 2})
	require.NoError(t, err)
	require.True(t, changed)
	require.Equal(t, "---\nsidebar_position: 2\n---\n\n# Title\n", string(out))
}

func TestUpdate_CRLF(t *testing.T) {
	out, changed, err := Update([]byte("---\r\nsidebar_position: 3\r\n---\r\nbody\r\n"), map[string]any{"sidebar_position": 4})
	require.NoError(t, err)
	require.True(t, changed)
	require.Equal(t, "---\r\nsidebar_position: 4\r\n---\r\nbody\r\n", string(out))
}
