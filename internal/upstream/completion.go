package upstream

import (
	"bytes"
	"encoding/json"
)

// Completion is a generation response reduced to one of two shapes: free
// text, or a JSON array of items. Exactly one of Text and Items is set for a
// non-empty body.
type Completion struct {
	Text  string
	Items []json.RawMessage
}

// IsArray reports whether the upstream answered with a JSON array.
func (c Completion) IsArray() bool { return c.Items != nil }

type chatCompletion struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// DecodeCompletion accepts a chat-completion envelope, a JSON string, a JSON
// array or a plain text body.
func DecodeCompletion(body []byte) Completion {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return Completion{}
	}
	switch trimmed[0] {
	case '{':
		var cc chatCompletion
		if err := json.Unmarshal(trimmed, &cc); err == nil && len(cc.Choices) > 0 {
			return Completion{Text: cc.Choices[0].Message.Content}
		}
		var wrapped struct {
			Content string `json:"content"`
			Text    string `json:"text"`
		}
		if err := json.Unmarshal(trimmed, &wrapped); err == nil {
			if wrapped.Content != "" {
				return Completion{Text: wrapped.Content}
			}
			if wrapped.Text != "" {
				return Completion{Text: wrapped.Text}
			}
		}
	case '"':
		var s string
		if err := json.Unmarshal(trimmed, &s); err == nil {
			return Completion{Text: s}
		}
	case '[':
		var items []json.RawMessage
		if err := json.Unmarshal(trimmed, &items); err == nil {
			if items == nil {
				items = []json.RawMessage{}
			}
			return Completion{Items: items}
		}
	}
	return Completion{Text: string(body)}
}
