package blocks

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const samplePayload = `{
  "code": 0,
  "msg": "success",
  "data": {
    "has_more": false,
    "items": [
      {"block_id": "root", "block_type": 1, "parent_id": "", "page": {"elements": [{"text_run": {"content": "文档"}}]}},
      {"block_id": "h1", "block_type": 3, "parent_id": "root", "heading1": {"elements": [{"text_run": {"content": "天干"}}]}},
      {"block_id": "h2", "block_type": 4, "parent_id": "root", "heading2": {"elements": [{"text_run": {"content": "甲"}}]}},
      {"block_id": "p1", "block_type": 2, "parent_id": "root", "text": {"elements": [
        {"text_run": {"content": "E = "}},
        {"equation": {"content": "mc^2"}},
        {"mention_user": {"user_id": "u1"}}
      ]}},
      {"block_id": "c1", "block_type": 14, "parent_id": "root", "code": {"elements": [{"text_run": {"content": "fmt.Println()"}}]}},
      {"block_id": "img", "block_type": 27, "parent_id": "root", "image": {"token": "x"}}
    ]
  }
}`

func TestDecodeResponse(t *testing.T) {
	list, err := Decode([]byte(samplePayload))
	require.NoError(t, err)
	require.Len(t, list, 6)

	assert.Equal(t, TypeRoot, list[0].Type)
	assert.True(t, list[0].IsRoot())
	assert.Equal(t, TypeHeading1, list[1].Type)
	assert.Equal(t, "天干", list[1].Text())
	assert.Equal(t, TypeHeading2, list[2].Type)
	assert.Equal(t, "root", list[2].ParentID)

	p := list[3]
	assert.Equal(t, TypeParagraph, p.Type)
	require.Len(t, p.Runs, 3)
	assert.Equal(t, "", p.Runs[2].Text)
	assert.Equal(t, "E = mc^2", p.Text())

	assert.Equal(t, TypeCode, list[4].Type)
	assert.Equal(t, "fmt.Println()", list[4].Text())

	assert.Equal(t, TypeOther, list[5].Type)
	assert.Equal(t, 27, list[5].RawType)
	assert.Empty(t, list[5].Text())
}

func TestDecodeBareArray(t *testing.T) {
	list, err := Decode([]byte(`  [{"block_id":"r","block_type":1}]`))
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, TypeRoot, list[0].Type)
	assert.Empty(t, list[0].Runs)
}

func TestDecodeErrors(t *testing.T) {
	_, err := Decode([]byte(`{"code": 99991663, "msg": "token invalid"}`))
	assert.ErrorContains(t, err, "99991663")

	_, err = Decode([]byte(`[{"block_type": 2}]`))
	assert.ErrorContains(t, err, "missing block_id")

	_, err = Decode([]byte(`not json`))
	assert.Error(t, err)
}

func TestTypeString(t *testing.T) {
	assert.Equal(t, "heading2", TypeHeading2.String())
	assert.Equal(t, "other", Type(42).String())
}

func TestArena(t *testing.T) {
	list := []Block{
		{ID: "r", Type: TypeRoot},
		{ID: "a", Type: TypeHeading1, ParentID: "r"},
		{ID: "b", Type: TypeParagraph, ParentID: "a"},
		{ID: "c", Type: TypeParagraph, ParentID: "r"},
	}
	a := NewArena(list)

	assert.Equal(t, 4, a.Len())
	assert.Equal(t, list, a.Blocks())

	b, ok := a.Get("b")
	require.True(t, ok)
	parent, ok := a.Parent(b)
	require.True(t, ok)
	assert.Equal(t, "a", parent.ID)

	_, ok = a.Parent(list[0])
	assert.False(t, ok)
	_, ok = a.Get("missing")
	assert.False(t, ok)

	assert.Len(t, a.Roots(), 1)
	children := a.ChildrenOf("r")
	require.Len(t, children, 2)
	assert.Equal(t, "a", children[0].ID)
	assert.Equal(t, "c", children[1].ID)
}
