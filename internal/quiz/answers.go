package quiz

import "strings"

// Answers is the learner's in-progress answer state for one quiz.
// Matching answers are keyed by question id, then item id, and hold the
// chosen right-column text. Multiple choice answers hold option ids.
type Answers struct {
	TrueFalse      map[string]bool              `json:"truefalse,omitempty"`
	Matching       map[string]map[string]string `json:"matching,omitempty"`
	MultipleChoice map[string][]string          `json:"multiplechoice,omitempty"`
	FillBlank      map[string]string            `json:"fillblank,omitempty"`
}

// Merge overlays b onto a. A matching entry with an empty text and a
// multiple choice entry with no ids clear the stored answer.
func (a *Answers) Merge(b Answers) {
	for id, v := range b.TrueFalse {
		if a.TrueFalse == nil {
			a.TrueFalse = map[string]bool{}
		}
		a.TrueFalse[id] = v
	}
	for id, items := range b.Matching {
		if a.Matching == nil {
			a.Matching = map[string]map[string]string{}
		}
		cur := a.Matching[id]
		if cur == nil {
			cur = map[string]string{}
			a.Matching[id] = cur
		}
		for item, right := range items {
			if right == "" {
				delete(cur, item)
				continue
			}
			cur[item] = right
		}
	}
	for id, ids := range b.MultipleChoice {
		if a.MultipleChoice == nil {
			a.MultipleChoice = map[string][]string{}
		}
		if len(ids) == 0 {
			delete(a.MultipleChoice, id)
			continue
		}
		a.MultipleChoice[id] = append([]string(nil), ids...)
	}
	for id, v := range b.FillBlank {
		if a.FillBlank == nil {
			a.FillBlank = map[string]string{}
		}
		a.FillBlank[id] = v
	}
}

// Progress counts answered units against the total. Each matching item is
// its own unit.
func (a Answers) Progress(qs List) (answered, total int) {
	for _, q := range qs {
		switch v := q.(type) {
		case *TrueFalse:
			total++
			if _, ok := a.TrueFalse[v.ID]; ok {
				answered++
			}
		case *Matching:
			total += len(v.Items)
			for _, it := range v.Items {
				if a.Matching[v.ID][it.ID] != "" {
					answered++
				}
			}
		case *MultipleChoice:
			total++
			if len(a.MultipleChoice[v.ID]) > 0 {
				answered++
			}
		case *FillBlank:
			total++
			if strings.TrimSpace(a.FillBlank[v.ID]) != "" {
				answered++
			}
		}
	}
	return answered, total
}

// Unit is the scoring outcome of one question, or one matching item.
type Unit struct {
	QuestionID string `json:"questionId"`
	ItemID     string `json:"itemId,omitempty"`
	Correct    bool   `json:"correct"`
}

// Result is the outcome of scoring an Answers against a List.
type Result struct {
	Score   float64 `json:"score"`
	Correct int     `json:"correct"`
	Total   int     `json:"total"`
	Units   []Unit  `json:"units"`
}

// Unit looks up the outcome for a question, or for an item when itemID is set.
func (r Result) Unit(questionID, itemID string) (Unit, bool) {
	for _, u := range r.Units {
		if u.QuestionID == questionID && u.ItemID == itemID {
			return u, true
		}
	}
	return Unit{}, false
}
