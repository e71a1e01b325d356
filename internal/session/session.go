// Package session holds the state of one generated quiz between requests:
// its questions, shuffled view, answers and result.
package session

import (
	"errors"
	"math/rand/v2"
	"time"

	"github.com/mind-engage/lessonquiz/internal/freetext"
	"github.com/mind-engage/lessonquiz/internal/quiz"
)

var (
	ErrEmptyLesson    = errors.New("lesson text is empty")
	ErrNoQuestions    = errors.New("no questions could be parsed from the generated text")
	ErrNotFound       = errors.New("quiz session not found")
	ErrSubmitted      = errors.New("quiz already submitted")
	ErrWrongVariant   = errors.New("operation not available for this quiz variant")
	ErrInvalidRequest = errors.New("invalid quiz request")
	ErrInvalidAnswers = errors.New("answers do not match the quiz")
	ErrUnknownFormat  = errors.New("unknown export format")
)

const (
	evalParseFailed = "Could not parse evaluation results properly"
	evalCallFailed  = "Failed to evaluate answers"
)

type Session struct {
	ID      string       `json:"id"`
	Owner   string       `json:"owner"`
	Variant quiz.Variant `json:"variant"`
	Kind    quiz.Kind    `json:"kind,omitempty"`

	// Version counts generations; View is recomputed when it falls behind.
	Version   uint64       `json:"version"`
	Questions quiz.List    `json:"questions,omitempty"`
	View      quiz.View    `json:"view"`
	Answers   quiz.Answers `json:"answers"`
	Result    *quiz.Result `json:"result,omitempty"`

	FreeText  []freetext.Question `json:"freetext,omitempty"`
	EvalError string              `json:"evalError,omitempty"`

	Submitted bool      `json:"submitted"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// SetQuestions installs a freshly parsed question list: the version is
// bumped and any answers or result from the previous list are dropped.
func (s *Session) SetQuestions(qs quiz.List) {
	s.Version++
	s.Questions = qs
	s.reset()
}

// EnsureView returns the shuffled view for the current version, computing
// it only when the stored one is from an older generation.
func (s *Session) EnsureView(r *rand.Rand) quiz.View {
	if s.View.Version != s.Version {
		s.View = quiz.NewView(s.Questions, s.Version, r)
	}
	return s.View
}

// Retake clears answers and results but keeps questions and view.
func (s *Session) Retake() {
	s.reset()
	for i := range s.FreeText {
		s.FreeText[i].StudentAnswer = ""
		s.FreeText[i].Score = 0
	}
}

func (s *Session) reset() {
	s.Answers = quiz.Answers{}
	s.Result = nil
	s.Submitted = false
	s.EvalError = ""
}

func (s *Session) objective() bool {
	return s.Variant == quiz.VariantObjective || s.Variant == quiz.VariantGrid
}

// checkAnswers rejects answers naming questions, items or options that are
// not part of the quiz, and multi-selection in the grid variant.
func (s *Session) checkAnswers(a quiz.Answers) error {
	lookup := func(id string, k quiz.Kind) (quiz.Question, bool) {
		q, ok := s.Questions.Find(id)
		if !ok || q.Kind() != k {
			return nil, false
		}
		return q, true
	}
	for id := range a.TrueFalse {
		if _, ok := lookup(id, quiz.KindTrueFalse); !ok {
			return ErrInvalidAnswers
		}
	}
	for id, items := range a.Matching {
		q, ok := lookup(id, quiz.KindMatching)
		if !ok {
			return ErrInvalidAnswers
		}
		m := q.(*quiz.Matching)
		for itemID := range items {
			if !hasItem(m, itemID) {
				return ErrInvalidAnswers
			}
		}
	}
	for id, opts := range a.MultipleChoice {
		q, ok := lookup(id, quiz.KindMultipleChoice)
		if !ok {
			return ErrInvalidAnswers
		}
		if s.Variant == quiz.VariantGrid && len(opts) > 1 {
			return ErrInvalidAnswers
		}
		mc := q.(*quiz.MultipleChoice)
		for _, o := range opts {
			if !hasOption(mc, o) {
				return ErrInvalidAnswers
			}
		}
	}
	for id := range a.FillBlank {
		if _, ok := lookup(id, quiz.KindFillBlank); !ok {
			return ErrInvalidAnswers
		}
	}
	return nil
}

func hasItem(q *quiz.Matching, id string) bool {
	for _, it := range q.Items {
		if it.ID == id {
			return true
		}
	}
	return false
}

func hasOption(q *quiz.MultipleChoice, id string) bool {
	for _, o := range q.Options {
		if o.ID == id {
			return true
		}
	}
	return false
}
