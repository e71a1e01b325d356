// Package grading scores learner answers against a parsed question list.
package grading

import "github.com/mind-engage/lessonquiz/internal/quiz"

// Score grades a against qs. Every true/false, multiple choice and fill in
// the blank question is one unit; every matching item is its own unit.
// Missing answers are incorrect. The score is the percentage of correct
// units, 0 when there are none.
func Score(qs quiz.List, a quiz.Answers) quiz.Result {
	var res quiz.Result
	add := func(qid, item string, ok bool) {
		res.Units = append(res.Units, quiz.Unit{QuestionID: qid, ItemID: item, Correct: ok})
		res.Total++
		if ok {
			res.Correct++
		}
	}

	for _, q := range qs {
		switch q := q.(type) {
		case *quiz.TrueFalse:
			got, ok := a.TrueFalse[q.ID]
			add(q.ID, "", ok && got == q.Correct)
		case *quiz.Matching:
			chosen := a.Matching[q.ID]
			for _, it := range q.Items {
				got, ok := chosen[it.ID]
				add(q.ID, it.ID, ok && got == it.Right)
			}
		case *quiz.MultipleChoice:
			got, ok := a.MultipleChoice[q.ID]
			add(q.ID, "", ok && setEqual(toSet(got), toSet(q.CorrectIDs())))
		case *quiz.FillBlank:
			got, ok := a.FillBlank[q.ID]
			add(q.ID, "", ok && AnswersMatch(got, q.Answer))
		}
	}

	if res.Total > 0 {
		res.Score = 100 * float64(res.Correct) / float64(res.Total)
	}
	return res
}

func toSet(arr []string) map[string]struct{} {
	m := make(map[string]struct{}, len(arr))
	for _, s := range arr {
		m[s] = struct{}{}
	}
	return m
}

func setEqual(a, b map[string]struct{}) bool {
	if len(a) != len(b) {
		return false
	}
	for k := range a {
		if _, ok := b[k]; !ok {
			return false
		}
	}
	return true
}
