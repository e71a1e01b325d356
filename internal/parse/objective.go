package parse

import (
	"encoding/json"
	"fmt"
	"slices"
	"strings"

	"github.com/mind-engage/lessonquiz/internal/quiz"
)

// Objective parses a generated objective quiz into questions ordered true/false,
// matching, multiple choice, fill in the blank. When kinds is non-empty
// only those kinds are extracted. A JSON array of typed questions is
// accepted, with ids filled in and multiple choice answers repaired.
func Objective(raw string, kinds ...quiz.Kind) quiz.List {
	want := func(k quiz.Kind) bool { return len(kinds) == 0 || slices.Contains(kinds, k) }

	if qs, ok := decodeObjectiveJSON(raw); ok {
		var out quiz.List
		for _, q := range qs {
			if want(q.Kind()) {
				out = append(out, q)
			}
		}
		return out
	}

	text := Normalize(raw)
	sections := SplitSections(text, ObjectiveHeaders)

	var out quiz.List
	for _, k := range quiz.Kinds {
		body, ok := sections[k]
		if !ok || !want(k) {
			continue
		}
		switch k {
		case quiz.KindTrueFalse:
			for _, q := range TrueFalse(body) {
				out = append(out, q)
			}
		case quiz.KindMatching:
			for _, q := range Matching(body) {
				out = append(out, q)
			}
		case quiz.KindMultipleChoice:
			for _, q := range MultipleChoice(body, false) {
				out = append(out, q)
			}
		case quiz.KindFillBlank:
			for _, q := range FillBlank(body) {
				out = append(out, q)
			}
		}
	}
	return out
}

// Grid parses a generated single-answer quiz. The section runs from the
// first grid header to end of text. A JSON array of multiple choice
// questions is accepted, with ids filled in and single-answer repair applied.
func Grid(raw string) quiz.List {
	if qs, ok := decodeGridJSON(raw); ok {
		return qs
	}
	body, ok := SplitSections(Normalize(raw), GridHeaders)[quiz.KindMultipleChoice]
	if !ok {
		return nil
	}
	var out quiz.List
	for _, q := range MultipleChoice(body, true) {
		out = append(out, q)
	}
	return out
}

func decodeObjectiveJSON(raw string) (quiz.List, bool) {
	if !strings.HasPrefix(strings.TrimSpace(raw), "[") {
		return nil, false
	}
	var qs quiz.List
	if err := json.Unmarshal([]byte(raw), &qs); err != nil || len(qs) == 0 {
		return nil, false
	}
	return repairJSON(qs), true
}

var idPrefix = map[quiz.Kind]string{
	quiz.KindTrueFalse:      "tf",
	quiz.KindMatching:       "matching",
	quiz.KindMultipleChoice: "mc",
	quiz.KindFillBlank:      "fillblank",
}

// repairJSON holds decoded questions to the same rules as the text
// extractors: empty questions are dropped, missing or repeated ids are
// renumbered per kind and every multiple choice question has a correct
// option.
func repairJSON(qs quiz.List) quiz.List {
	seen := map[string]bool{}
	next := map[quiz.Kind]int{}
	uniqueID := func(k quiz.Kind, id string) string {
		id = strings.TrimSpace(id)
		for id == "" || seen[id] {
			id = fmt.Sprintf("%s-%d", idPrefix[k], next[k])
			next[k]++
		}
		seen[id] = true
		return id
	}

	var out quiz.List
	for _, q := range qs {
		switch v := q.(type) {
		case *quiz.TrueFalse:
			if strings.TrimSpace(v.Question) == "" {
				continue
			}
			v.ID = uniqueID(quiz.KindTrueFalse, v.ID)
		case *quiz.Matching:
			if len(v.Items) == 0 {
				continue
			}
			v.ID = uniqueID(quiz.KindMatching, v.ID)
			fillIDs(len(v.Items), "item", func(i int) *string { return &v.Items[i].ID })
		case *quiz.MultipleChoice:
			if len(v.Options) < 2 {
				continue
			}
			v.ID = uniqueID(quiz.KindMultipleChoice, v.ID)
			fillIDs(len(v.Options), "option", func(i int) *string { return &v.Options[i].ID })
			repairCorrect(v.Options, false)
		case *quiz.FillBlank:
			if strings.TrimSpace(v.Prompt) == "" {
				continue
			}
			v.ID = uniqueID(quiz.KindFillBlank, v.ID)
		}
		out = append(out, q)
	}
	return out
}

// fillIDs gives lettered ids to entries whose id is missing or repeated
// within the question.
func fillIDs(n int, prefix string, id func(i int) *string) {
	seen := map[string]bool{}
	for i := 0; i < n; i++ {
		p := id(i)
		if *p == "" || seen[*p] {
			*p = fmt.Sprintf("%s-%c", prefix, 'A'+i)
			for j := 0; seen[*p]; j++ {
				*p = fmt.Sprintf("%s-%c%d", prefix, 'A'+i, j)
			}
		}
		seen[*p] = true
	}
}

func decodeGridJSON(raw string) (quiz.List, bool) {
	if !strings.HasPrefix(strings.TrimSpace(raw), "[") {
		return nil, false
	}
	var items []quiz.MultipleChoice
	if err := json.Unmarshal([]byte(raw), &items); err != nil || len(items) == 0 || items[0].Question == "" {
		return nil, false
	}
	var out quiz.List
	for i := range items {
		q := &items[i]
		if len(q.Options) <= 1 {
			continue
		}
		if q.ID == "" {
			q.ID = fmt.Sprintf("mc-%d", i)
		}
		for j := range q.Options {
			if q.Options[j].ID == "" {
				q.Options[j].ID = fmt.Sprintf("option-%c", 'A'+j)
			}
		}
		repairCorrect(q.Options, true)
		out = append(out, q)
	}
	return out, len(out) > 0
}
