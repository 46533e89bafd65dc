package blocks

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Feishu docx block_type values the extractor understands.
const (
	feishuPage     = 1
	feishuText     = 2
	feishuHeading1 = 3
	feishuHeading2 = 4
	feishuCode     = 14
)

// payloadKeys maps a block_type to the JSON field that holds its text elements.
var payloadKeys = map[int]string{
	feishuPage:     "page",
	feishuText:     "text",
	feishuHeading1: "heading1",
	feishuHeading2: "heading2",
	feishuCode:     "code",
}

type rawBlock struct {
	BlockID   string `json:"block_id"`
	BlockType int    `json:"block_type"`
	ParentID  string `json:"parent_id"`
}

type rawText struct {
	Elements []rawElement `json:"elements"`
}

type rawElement struct {
	TextRun  *rawContent `json:"text_run,omitempty"`
	Equation *rawContent `json:"equation,omitempty"`
}

type rawContent struct {
	Content string `json:"content"`
}

// Page is one page of the docx blocks endpoint.
type Page struct {
	Items     []json.RawMessage `json:"items"`
	HasMore   bool              `json:"has_more"`
	PageToken string            `json:"page_token"`
}

// Response is the envelope returned by the blocks endpoint and stored in api_response.json.
type Response struct {
	Code int    `json:"code"`
	Msg  string `json:"msg"`
	Data Page   `json:"data"`
}

// MapType converts a Feishu block_type into a Type.
func MapType(blockType int) Type {
	switch blockType {
	case feishuPage:
		return TypeRoot
	case feishuText:
		return TypeParagraph
	case feishuHeading1:
		return TypeHeading1
	case feishuHeading2:
		return TypeHeading2
	case feishuCode:
		return TypeCode
	default:
		return TypeOther
	}
}

// DecodeItem decodes a single raw block item.
func DecodeItem(item json.RawMessage) (Block, error) {
	var rb rawBlock
	if err := json.Unmarshal(item, &rb); err != nil {
		return Block{}, fmt.Errorf("decode block: %w", err)
	}
	if rb.BlockID == "" {
		return Block{}, fmt.Errorf("decode block: missing block_id")
	}
	b := Block{ID: rb.BlockID, Type: MapType(rb.BlockType), ParentID: rb.ParentID, RawType: rb.BlockType}

	key, ok := payloadKeys[rb.BlockType]
	if !ok {
		return b, nil
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(item, &fields); err != nil {
		return Block{}, fmt.Errorf("decode block %s: %w", rb.BlockID, err)
	}
	body, ok := fields[key]
	if !ok || len(body) == 0 || string(body) == "null" {
		return b, nil
	}
	var txt rawText
	if err := json.Unmarshal(body, &txt); err != nil {
		return Block{}, fmt.Errorf("decode block %s %s: %w", rb.BlockID, key, err)
	}
	b.Runs = make([]Run, 0, len(txt.Elements))
	for _, el := range txt.Elements {
		switch {
		case el.TextRun != nil:
			b.Runs = append(b.Runs, Run{Text: el.TextRun.Content})
		case el.Equation != nil:
			b.Runs = append(b.Runs, Run{Text: el.Equation.Content})
		default:
			b.Runs = append(b.Runs, Run{})
		}
	}
	return b, nil
}

// DecodeItems decodes a list of raw items, keeping their order.
func DecodeItems(items []json.RawMessage) ([]Block, error) {
	out := make([]Block, 0, len(items))
	for i, item := range items {
		b, err := DecodeItem(item)
		if err != nil {
			return nil, fmt.Errorf("item %d: %w", i, err)
		}
		out = append(out, b)
	}
	return out, nil
}

// Decode parses a full blocks response (as saved in api_response.json) or a bare
// JSON array of items.
func Decode(data []byte) ([]Block, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		var items []json.RawMessage
		if err := json.Unmarshal(data, &items); err != nil {
			return nil, fmt.Errorf("decode payload: %w", err)
		}
		return DecodeItems(items)
	}
	var resp Response
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, fmt.Errorf("decode payload: %w", err)
	}
	if resp.Code != 0 {
		return nil, fmt.Errorf("decode payload: api code %d: %s", resp.Code, resp.Msg)
	}
	return DecodeItems(resp.Data.Items)
}
