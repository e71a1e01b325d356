package session

import (
	"github.com/mind-engage/lessonquiz/internal/freetext"
	"github.com/mind-engage/lessonquiz/internal/quiz"
)

// Presentation is what a learner sees of a session. Correct answers are
// only filled in once the quiz is submitted.
type Presentation struct {
	ID        string              `json:"id"`
	Variant   quiz.Variant        `json:"variant"`
	Kind      quiz.Kind           `json:"kind,omitempty"`
	Version   uint64              `json:"version"`
	Counts    map[quiz.Kind]int   `json:"counts,omitempty"`
	Answered  int                 `json:"answered"`
	Total     int                 `json:"total"`
	Submitted bool                `json:"submitted"`
	Questions []PresentedQuestion `json:"questions,omitempty"`
	Answers   *quiz.Answers       `json:"answers,omitempty"`
	Result    *quiz.Result        `json:"result,omitempty"`

	FreeText   []freetext.Question `json:"freetext,omitempty"`
	TotalScore *int                `json:"totalScore,omitempty"`
	EvalError  string              `json:"evalError,omitempty"`
}

type PresentedQuestion struct {
	ID   string    `json:"id"`
	Type quiz.Kind `json:"type"`
	Text string    `json:"text"`

	Options []PresentedOption `json:"options,omitempty"`
	Items   []PresentedItem   `json:"items,omitempty"`
	Rights  []string          `json:"rights,omitempty"`

	Correct     *bool  `json:"correct,omitempty"`
	Answer      string `json:"answer,omitempty"`
	Explanation string `json:"explanation,omitempty"`
}

type PresentedOption struct {
	ID      string `json:"id"`
	Text    string `json:"text"`
	Correct *bool  `json:"correct,omitempty"`
}

type PresentedItem struct {
	ID    string `json:"id"`
	Left  string `json:"left"`
	Right string `json:"right,omitempty"`
}

// Present builds the learner view of sess. Options and right-column texts
// come from the session view, so every render shows the same order.
func Present(sess *Session) Presentation {
	p := Presentation{
		ID:        sess.ID,
		Variant:   sess.Variant,
		Kind:      sess.Kind,
		Version:   sess.Version,
		Submitted: sess.Submitted,
	}
	if sess.Variant == quiz.VariantFreeText {
		return presentFreeText(p, sess)
	}

	reveal := sess.Submitted
	p.Counts = sess.Questions.Count()
	p.Answered, p.Total = sess.Answers.Progress(sess.Questions)
	answers := sess.Answers
	p.Answers = &answers
	p.Result = sess.Result

	for _, q := range sess.Questions {
		pq := PresentedQuestion{ID: q.QuestionID(), Type: q.Kind()}
		switch v := q.(type) {
		case *quiz.TrueFalse:
			pq.Text = v.Question
			if reveal {
				pq.Correct = boolPtr(v.Correct)
			}
		case *quiz.Matching:
			pq.Text = v.Title
			pq.Rights = sess.View.RightsFor(v)
			for _, it := range v.Items {
				item := PresentedItem{ID: it.ID, Left: it.Left}
				if reveal {
					item.Right = it.Right
				}
				pq.Items = append(pq.Items, item)
			}
		case *quiz.MultipleChoice:
			pq.Text = v.Question
			for _, o := range sess.View.OptionsFor(v) {
				po := PresentedOption{ID: o.ID, Text: o.Text}
				if reveal {
					po.Correct = boolPtr(o.Correct)
				}
				pq.Options = append(pq.Options, po)
			}
			if reveal {
				pq.Explanation = v.Explanation
			}
		case *quiz.FillBlank:
			pq.Text = v.Prompt
			if reveal {
				pq.Answer = v.Answer
			}
		}
		p.Questions = append(p.Questions, pq)
	}
	return p
}

func presentFreeText(p Presentation, sess *Session) Presentation {
	p.FreeText = make([]freetext.Question, len(sess.FreeText))
	copy(p.FreeText, sess.FreeText)
	p.Total = len(sess.FreeText)
	for i := range p.FreeText {
		if p.FreeText[i].StudentAnswer != "" {
			p.Answered++
		}
		if !sess.Submitted {
			p.FreeText[i].CorrectAnswer = ""
		}
	}
	if sess.Submitted {
		total := freetext.Total(sess.FreeText)
		p.TotalScore = &total
		p.EvalError = sess.EvalError
	}
	return p
}

func boolPtr(b bool) *bool { return &b }
