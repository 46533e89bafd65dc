package frontmatter

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSerializeYAML_EmptyMap_ReturnsEmpty(t *testing.T) {
	out, err := SerializeYAML(map[string]any{}, Style{Newline: "\n"})
	require.NoError(t, err)
	require.Equal(t, "", string(out))
}

func TestSerializeYAML_DeterministicOrderAndTrailingNewline(t *testing.T) {
	fields := map[string]any{
		"b": "two",
		"a": "one",
		"c": 3,
	}

	out1, err := SerializeYAML(fields, Style{Newline: "\n"})
	require.NoError(t, err)
	out2, err := SerializeYAML(fields, Style{Newline: "\n"})
	require.NoError(t, err)
	// Must be stable across runs.
	require.Equal(t, string(out1), string(out2))

	// Deterministic key ordering and trailing newline.
	require.Equal(t, "a: one\nb: two\nc: 3\n", string(out1))
}

func TestSerializeYAML_NewlineStyle_CRLF(t *testing.T) {
	fields := map[string]any{"a": "one"}
	out, err := SerializeYAML(fields, Style{Newline: "\r\n"})
	require.NoError(t, err)
	require.Equal(t, "a: one\r\n", string(out))
}

func TestSerializeYAML_NestedMap_SortsKeysRecursively(t *testing.T) {
	fields := map[string]any{
		"outer": map[string]any{
			"b": 2,
			"a": 1,
		},
	}

	out, err := SerializeYAML(fields, Style{Newline: "\n"})
	require.NoError(t, err)
	require.Equal(t, "outer:\n  a: 1\n  b: 2\n", string(out))
}

func TestFieldsRender_KeepsOrderAndNull(t *testing.T) {
	fields := Fields{
		{Key: "sidebar_position", Value: 1},
		{Key: "hide_table_of_contents", Value: true},
		{Key: "pagination_prev", Value: nil},
		{Key: "title", Value: "甲"},
	}
	out, err := fields.Render()
	require.NoError(t, err)
	require.Equal(t, "---\nsidebar_position: 1\nhide_table_of_contents: true\npagination_prev: null\ntitle: 甲\n---", out)

	v, ok := fields.Get("pagination_prev")
	require.True(t, ok)
	require.Nil(t, v)
	_, ok = fields.Get("missing")
	require.False(t, ok)
}

func TestFieldsRender_SplitRoundTrip(t *testing.T) {
	fm, err := Fields{{Key: "sidebar_position", Value: 3}}.Render()
	require.NoError(t, err)
	doc := Join(fm, "# 标题\n\n正文\n")

	gotFM, body := Split(doc)
	require.Equal(t, fm, gotFM)
	require.Equal(t, "# 标题\n\n正文\n", body)
}

func TestUpdateYAML_PreservesOtherKeys(t *testing.T) {
	in := []byte("title: Intro\nsidebar_position: 4\nhide_title: true\n")
	out, err := UpdateYAML(in, map[string]any{"sidebar_position": 2, "pagination_next": nil})
	require.NoError(t, err)
	require.Equal(t, "title: Intro\nsidebar_position: 2\nhide_title: true\npagination_next: null\n", string(out))
}

func TestUpdateYAML_EmptyAndInvalid(t *testing.T) {
	out, err := UpdateYAML(nil, map[string]any{"sidebar_position": 1})
	require.NoError(t, err)
	require.Equal(t, "sidebar_position: 1\n", string(out))

	_, err = UpdateYAML([]byte("- a\n- b\n"), map[string]any{"x": 1})
	require.Error(t, err)
}
