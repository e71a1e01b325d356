// Package quiz holds the structured quiz model produced by the parsers and
// consumed by scoring, presentation and export.
package quiz

import (
	"encoding/json"
	"fmt"
)

type Kind string

const (
	KindTrueFalse      Kind = "truefalse"
	KindMatching       Kind = "matching"
	KindMultipleChoice Kind = "multiplechoice"
	KindFillBlank      Kind = "fillblank"
)

// Kinds lists the question kinds in extraction order.
var Kinds = []Kind{KindTrueFalse, KindMatching, KindMultipleChoice, KindFillBlank}

func (k Kind) Valid() bool {
	switch k {
	case KindTrueFalse, KindMatching, KindMultipleChoice, KindFillBlank:
		return true
	}
	return false
}

// Variant selects the quiz flavour a question list was generated for.
type Variant string

const (
	VariantObjective Variant = "objective"
	VariantGrid      Variant = "grid"
	VariantFreeText  Variant = "freetext"
)

// Question is implemented by *TrueFalse, *Matching, *MultipleChoice and
// *FillBlank only.
type Question interface {
	QuestionID() string
	Kind() Kind
	sealed()
}

type TrueFalse struct {
	ID       string `json:"id"`
	Question string `json:"question"`
	Correct  bool   `json:"correct"`
}

type MatchingItem struct {
	ID    string `json:"id"`
	Left  string `json:"left"`
	Right string `json:"right"`
}

type Matching struct {
	ID    string         `json:"id"`
	Title string         `json:"title"`
	Items []MatchingItem `json:"items"`
}

type Option struct {
	ID      string `json:"id"`
	Text    string `json:"text"`
	Correct bool   `json:"isCorrect"`
}

type MultipleChoice struct {
	ID          string   `json:"id"`
	Question    string   `json:"question"`
	Options     []Option `json:"options"`
	Explanation string   `json:"explanation,omitempty"`
}

// CorrectIDs returns the ids of the correct options in declaration order.
func (q *MultipleChoice) CorrectIDs() []string {
	var ids []string
	for _, o := range q.Options {
		if o.Correct {
			ids = append(ids, o.ID)
		}
	}
	return ids
}

type FillBlank struct {
	ID     string `json:"id"`
	Prompt string `json:"prompt"`
	Answer string `json:"answer"`
}

func (q *TrueFalse) QuestionID() string      { return q.ID }
func (q *Matching) QuestionID() string       { return q.ID }
func (q *MultipleChoice) QuestionID() string { return q.ID }
func (q *FillBlank) QuestionID() string      { return q.ID }

func (*TrueFalse) Kind() Kind      { return KindTrueFalse }
func (*Matching) Kind() Kind       { return KindMatching }
func (*MultipleChoice) Kind() Kind { return KindMultipleChoice }
func (*FillBlank) Kind() Kind      { return KindFillBlank }

func (*TrueFalse) sealed()      {}
func (*Matching) sealed()       {}
func (*MultipleChoice) sealed() {}
func (*FillBlank) sealed()      {}

// List is an ordered question list. It round-trips through JSON with a
// "type" discriminator on every element.
type List []Question

// Count returns the number of questions of each kind.
func (l List) Count() map[Kind]int {
	out := make(map[Kind]int, len(Kinds))
	for _, q := range l {
		out[q.Kind()]++
	}
	return out
}

// Find returns the question with the given id.
func (l List) Find(id string) (Question, bool) {
	for _, q := range l {
		if q.QuestionID() == id {
			return q, true
		}
	}
	return nil, false
}

func (l List) MarshalJSON() ([]byte, error) {
	out := make([]json.RawMessage, 0, len(l))
	for _, q := range l {
		b, err := marshalTagged(q)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return json.Marshal(out)
}

func (l *List) UnmarshalJSON(data []byte) error {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	out := make(List, 0, len(raw))
	for i, r := range raw {
		q, err := unmarshalTagged(r)
		if err != nil {
			return fmt.Errorf("question %d: %w", i, err)
		}
		out = append(out, q)
	}
	*l = out
	return nil
}

func marshalTagged(q Question) ([]byte, error) {
	var body any
	switch v := q.(type) {
	case *TrueFalse:
		body = struct {
			Type Kind `json:"type"`
			*TrueFalse
		}{KindTrueFalse, v}
	case *Matching:
		body = struct {
			Type Kind `json:"type"`
			*Matching
		}{KindMatching, v}
	case *MultipleChoice:
		body = struct {
			Type Kind `json:"type"`
			*MultipleChoice
		}{KindMultipleChoice, v}
	case *FillBlank:
		body = struct {
			Type Kind `json:"type"`
			*FillBlank
		}{KindFillBlank, v}
	default:
		return nil, fmt.Errorf("unknown question type %T", q)
	}
	return json.Marshal(body)
}

func unmarshalTagged(data []byte) (Question, error) {
	var head struct {
		Type Kind `json:"type"`
	}
	if err := json.Unmarshal(data, &head); err != nil {
		return nil, err
	}
	var q Question
	switch head.Type {
	case KindTrueFalse:
		q = &TrueFalse{}
	case KindMatching:
		q = &Matching{}
	case KindMultipleChoice:
		q = &MultipleChoice{}
	case KindFillBlank:
		q = &FillBlank{}
	default:
		return nil, fmt.Errorf("unknown question type %q", head.Type)
	}
	if err := json.Unmarshal(data, q); err != nil {
		return nil, err
	}
	return q, nil
}
