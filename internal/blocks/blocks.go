// Package blocks models the flat, parent-referenced block list returned by the
// Feishu docx API as typed values.
package blocks

import "strings"

// Type is the kind of a block after decoding.
type Type int

const (
	TypeOther Type = iota
	TypeRoot
	TypeHeading1
	TypeHeading2
	TypeParagraph
	TypeCode
)

func (t Type) String() string {
	switch t {
	case TypeRoot:
		return "root"
	case TypeHeading1:
		return "heading1"
	case TypeHeading2:
		return "heading2"
	case TypeParagraph:
		return "paragraph"
	case TypeCode:
		return "code"
	default:
		return "other"
	}
}

// Run is one inline text run. Text is empty for runs that carry no text (mentions, images).
type Run struct {
	Text string
}

// Block is a single content block. ParentID is empty for the page root.
type Block struct {
	ID       string
	Type     Type
	ParentID string
	Runs     []Run
	// RawType is the numeric block_type reported by the API.
	RawType int
}

// Text concatenates the text of every run in order.
func (b Block) Text() string {
	if len(b.Runs) == 1 {
		return b.Runs[0].Text
	}
	var sb strings.Builder
	for _, r := range b.Runs {
		sb.WriteString(r.Text)
	}
	return sb.String()
}

// IsRoot reports whether the block has no parent.
func (b Block) IsRoot() bool { return b.ParentID == "" }
