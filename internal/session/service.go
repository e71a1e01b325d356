package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand/v2"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/mind-engage/lessonquiz/internal/export"
	"github.com/mind-engage/lessonquiz/internal/freetext"
	"github.com/mind-engage/lessonquiz/internal/grading"
	"github.com/mind-engage/lessonquiz/internal/logger"
	"github.com/mind-engage/lessonquiz/internal/parse"
	"github.com/mind-engage/lessonquiz/internal/prompts"
	"github.com/mind-engage/lessonquiz/internal/quiz"
	"github.com/mind-engage/lessonquiz/internal/upstream"
)

// Generator is the subset of the upstream client the service calls.
type Generator interface {
	Generate(ctx context.Context, token, text string, count int) (upstream.Completion, error)
	GenerateAnswers(ctx context.Context, token string, questions []string, lesson string) (upstream.Completion, error)
	Evaluate(ctx context.Context, token string, items []upstream.EvaluationItem) (upstream.Completion, error)
}

type Request struct {
	Variant quiz.Variant `json:"variant"`
	// Kind limits an objective quiz to one question kind; empty or "mixed"
	// asks for all four.
	Kind   quiz.Kind `json:"kind,omitempty"`
	Lesson string    `json:"lesson"`
}

type Service struct {
	store Store
	gen   Generator
	log   *logger.Logger
	now   func() time.Time

	freeMin, freeMax int

	mu  sync.Mutex // guards rng
	rng *rand.Rand
}

type Option func(*Service)

// WithRand makes shuffles and question counts reproducible.
func WithRand(r *rand.Rand) Option { return func(s *Service) { s.rng = r } }

func WithClock(now func() time.Time) Option { return func(s *Service) { s.now = now } }

// WithFreeTextRange sets how many free-text questions are requested and kept.
func WithFreeTextRange(lo, hi int) Option {
	return func(s *Service) { s.freeMin, s.freeMax = lo, hi }
}

func NewService(store Store, gen Generator, log *logger.Logger, opts ...Option) *Service {
	if log == nil {
		log = logger.Nop()
	}
	s := &Service{
		store:   store,
		gen:     gen,
		log:     log,
		now:     time.Now,
		freeMin: 5,
		freeMax: freetext.DefaultMax,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

func (s *Service) Ping(ctx context.Context) error { return s.store.Ping(ctx) }

// Prune drops sessions idle for longer than ttl when the store supports it.
func (s *Service) Prune(ctx context.Context, ttl time.Duration) (int64, error) {
	p, ok := s.store.(Pruner)
	if !ok {
		return 0, nil
	}
	return p.PruneBefore(ctx, s.now().Add(-ttl))
}

func (s *Service) withRand(fn func(r *rand.Rand)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(s.rng)
}

// Generate creates a quiz session from lesson text: one upstream call, then
// parsing, then a single shuffle.
func (s *Service) Generate(ctx context.Context, owner, token string, req Request) (*Session, error) {
	if strings.TrimSpace(req.Lesson) == "" {
		return nil, ErrEmptyLesson
	}
	if req.Variant == "" {
		req.Variant = quiz.VariantObjective
	}
	if req.Kind == prompts.Mixed {
		req.Kind = ""
	}
	switch req.Variant {
	case quiz.VariantFreeText:
		return s.GenerateFreeText(ctx, owner, token, req.Lesson)
	case quiz.VariantObjective:
		if req.Kind != "" && !req.Kind.Valid() {
			return nil, fmt.Errorf("%w: unknown kind %q", ErrInvalidRequest, req.Kind)
		}
	case quiz.VariantGrid:
		req.Kind = ""
	default:
		return nil, fmt.Errorf("%w: unknown variant %q", ErrInvalidRequest, req.Variant)
	}

	qs, err := s.generateObjective(ctx, token, req)
	if err != nil {
		return nil, err
	}
	now := s.now()
	sess := &Session{
		ID:        uuid.NewString(),
		Owner:     owner,
		Variant:   req.Variant,
		Kind:      req.Kind,
		CreatedAt: now,
		UpdatedAt: now,
	}
	sess.SetQuestions(qs)
	s.withRand(func(r *rand.Rand) { sess.EnsureView(r) })
	if err := s.store.Put(ctx, sess); err != nil {
		return nil, fmt.Errorf("store session: %w", err)
	}
	s.log.Info("quiz generated", "session", sess.ID, "variant", sess.Variant, "kind", sess.Kind, "counts", sess.Questions.Count())
	return sess, nil
}

// Regenerate replaces the questions of an objective or grid session with a
// new generation from lesson. The view is reshuffled for the new version.
func (s *Service) Regenerate(ctx context.Context, owner, token, id, lesson string) (*Session, error) {
	if strings.TrimSpace(lesson) == "" {
		return nil, ErrEmptyLesson
	}
	sess, err := s.get(ctx, owner, id)
	if err != nil {
		return nil, err
	}
	if !sess.objective() {
		return nil, ErrWrongVariant
	}
	qs, err := s.generateObjective(ctx, token, Request{Variant: sess.Variant, Kind: sess.Kind, Lesson: lesson})
	if err != nil {
		return nil, err
	}
	sess.SetQuestions(qs)
	s.withRand(func(r *rand.Rand) { sess.EnsureView(r) })
	return sess, s.put(ctx, sess)
}

func (s *Service) generateObjective(ctx context.Context, token string, req Request) (quiz.List, error) {
	var prompt string
	if req.Variant == quiz.VariantGrid {
		prompt = prompts.Grid(req.Lesson)
	} else {
		prompt = prompts.Objective(req.Kind, req.Lesson)
	}
	comp, err := s.gen.Generate(ctx, token, prompt, 0)
	if err != nil {
		s.log.Warn("generation failed", "variant", req.Variant, "error", err)
		return nil, err
	}
	text := comp.Text
	if comp.IsArray() {
		raw, _ := json.Marshal(comp.Items)
		text = string(raw)
	}

	var qs quiz.List
	switch {
	case req.Variant == quiz.VariantGrid:
		qs = parse.Grid(text)
	case req.Kind != "":
		qs = parse.Objective(text, req.Kind)
	default:
		qs = parse.Objective(text)
	}
	if len(qs) == 0 {
		s.log.Warn("no questions parsed", "variant", req.Variant, "kind", req.Kind, "bytes", len(text))
		return nil, ErrNoQuestions
	}
	return qs, nil
}

// Questions asks for a list of open questions about lesson without
// creating a session. The generator picks how many.
func (s *Service) Questions(ctx context.Context, token, lesson string) ([]freetext.Question, error) {
	return s.questions(ctx, token, lesson, 0)
}

// questions requests open questions. A positive count is sent to the
// generator and also caps the result at freeMax.
func (s *Service) questions(ctx context.Context, token, lesson string, count int) ([]freetext.Question, error) {
	if strings.TrimSpace(lesson) == "" {
		return nil, ErrEmptyLesson
	}
	comp, err := s.gen.Generate(ctx, token, lesson, count)
	if err != nil {
		return nil, err
	}
	var qs []freetext.Question
	if comp.IsArray() {
		qs = freetext.FromItems(comp.Items)
	} else {
		qs = freetext.ParseQuestions(comp.Text)
	}
	if count > 0 {
		s.withRand(func(r *rand.Rand) { qs = freetext.Limit(qs, s.freeMax, r) })
	}
	if len(qs) == 0 {
		return nil, ErrNoQuestions
	}
	return qs, nil
}

// GenerateFreeText creates an open-answer session. A failed answer
// generation does not fail the session: every reference answer is marked
// as unavailable instead.
func (s *Service) GenerateFreeText(ctx context.Context, owner, token, lesson string) (*Session, error) {
	var count int
	s.withRand(func(r *rand.Rand) { count = freetext.QuestionCount(s.freeMin, s.freeMax, r) })
	qs, err := s.questions(ctx, token, lesson, count)
	if err != nil {
		return nil, err
	}
	texts := make([]string, len(qs))
	for i, q := range qs {
		texts[i] = q.Question
	}
	comp, err := s.gen.GenerateAnswers(ctx, token, texts, lesson)
	switch {
	case errors.Is(err, upstream.ErrUnauthenticated):
		return nil, err
	case err != nil:
		s.log.Warn("answer generation failed", "questions", len(qs), "error", err)
		freetext.FailAnswers(qs)
	default:
		freetext.AttachAnswers(qs, comp.Text)
	}

	now := s.now()
	sess := &Session{
		ID:        uuid.NewString(),
		Owner:     owner,
		Variant:   quiz.VariantFreeText,
		Version:   1,
		FreeText:  qs,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.store.Put(ctx, sess); err != nil {
		return nil, fmt.Errorf("store session: %w", err)
	}
	s.log.Info("free-text quiz generated", "session", sess.ID, "questions", len(qs))
	return sess, nil
}

// Get returns the caller's session. Sessions of other owners are reported
// as not found.
func (s *Service) Get(ctx context.Context, owner, id string) (*Session, error) {
	return s.get(ctx, owner, id)
}

func (s *Service) get(ctx context.Context, owner, id string) (*Session, error) {
	sess, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if sess.Owner != owner {
		return nil, ErrNotFound
	}
	return sess, nil
}

func (s *Service) put(ctx context.Context, sess *Session) error {
	sess.UpdatedAt = s.now()
	if err := s.store.Put(ctx, sess); err != nil {
		return fmt.Errorf("store session: %w", err)
	}
	return nil
}

// Answer merges a into the stored answers of an objective or grid quiz.
func (s *Service) Answer(ctx context.Context, owner, id string, a quiz.Answers) (*Session, error) {
	sess, err := s.get(ctx, owner, id)
	if err != nil {
		return nil, err
	}
	if !sess.objective() {
		return nil, ErrWrongVariant
	}
	if sess.Submitted {
		return nil, ErrSubmitted
	}
	if err := sess.checkAnswers(a); err != nil {
		return nil, err
	}
	sess.Answers.Merge(a)
	return sess, s.put(ctx, sess)
}

// AnswerFreeText records student answers keyed by question id.
func (s *Service) AnswerFreeText(ctx context.Context, owner, id string, answers map[string]string) (*Session, error) {
	sess, err := s.get(ctx, owner, id)
	if err != nil {
		return nil, err
	}
	if sess.Variant != quiz.VariantFreeText {
		return nil, ErrWrongVariant
	}
	if sess.Submitted {
		return nil, ErrSubmitted
	}
	for qid, text := range answers {
		i := freeTextIndex(sess.FreeText, qid)
		if i < 0 {
			return nil, ErrInvalidAnswers
		}
		sess.FreeText[i].StudentAnswer = text
	}
	return sess, s.put(ctx, sess)
}

func freeTextIndex(qs []freetext.Question, id string) int {
	for i, q := range qs {
		if q.ID == id {
			return i
		}
	}
	return -1
}

// Submit scores the quiz. Objective and grid quizzes are scored locally;
// free-text quizzes are sent to the upstream evaluator.
func (s *Service) Submit(ctx context.Context, owner, token, id string) (*Session, error) {
	sess, err := s.get(ctx, owner, id)
	if err != nil {
		return nil, err
	}
	if sess.Submitted {
		return nil, ErrSubmitted
	}
	if sess.Variant == quiz.VariantFreeText {
		return s.submitFreeText(ctx, token, sess)
	}
	res := grading.Score(sess.Questions, sess.Answers)
	sess.Result = &res
	sess.Submitted = true
	if err := s.put(ctx, sess); err != nil {
		return nil, err
	}
	s.log.Info("quiz submitted", "session", sess.ID, "score", res.Score, "correct", res.Correct, "total", res.Total)
	return sess, nil
}

// SubmitFreeText is Submit restricted to free-text sessions.
func (s *Service) SubmitFreeText(ctx context.Context, owner, token, id string) (*Session, error) {
	sess, err := s.get(ctx, owner, id)
	if err != nil {
		return nil, err
	}
	if sess.Variant != quiz.VariantFreeText {
		return nil, ErrWrongVariant
	}
	if sess.Submitted {
		return nil, ErrSubmitted
	}
	return s.submitFreeText(ctx, token, sess)
}

func (s *Service) submitFreeText(ctx context.Context, token string, sess *Session) (*Session, error) {
	items := make([]upstream.EvaluationItem, len(sess.FreeText))
	for i, q := range sess.FreeText {
		items[i] = upstream.EvaluationItem{
			Question:      q.Question,
			CorrectAnswer: q.CorrectAnswer,
			StudentAnswer: q.StudentAnswer,
		}
	}
	comp, err := s.gen.Evaluate(ctx, token, items)
	var scores []int
	switch {
	case errors.Is(err, upstream.ErrUnauthenticated):
		return nil, err
	case err != nil:
		s.log.Warn("evaluation failed", "session", sess.ID, "error", err)
		sess.EvalError = evalCallFailed
	case comp.IsArray():
		scores = freetext.ApplyScores(sess.FreeText, comp.Items)
	case strings.TrimSpace(comp.Text) != "":
		scores = freetext.ParseEvaluation(comp.Text, sess.FreeText)
	default:
		sess.EvalError = evalParseFailed
	}
	for i := range sess.FreeText {
		sess.FreeText[i].Score = 0
		if i < len(scores) {
			sess.FreeText[i].Score = scores[i]
		}
	}
	sess.Submitted = true
	if err := s.put(ctx, sess); err != nil {
		return nil, err
	}
	s.log.Info("free-text quiz evaluated", "session", sess.ID, "total", freetext.Total(sess.FreeText))
	return sess, nil
}

// Retake clears answers and result, keeping the questions and their order.
func (s *Service) Retake(ctx context.Context, owner, id string) (*Session, error) {
	sess, err := s.get(ctx, owner, id)
	if err != nil {
		return nil, err
	}
	sess.Retake()
	return sess, s.put(ctx, sess)
}

// Discard deletes the session.
func (s *Service) Discard(ctx context.Context, owner, id string) error {
	if _, err := s.get(ctx, owner, id); err != nil {
		return err
	}
	return s.store.Delete(ctx, id)
}

// Artifact is an exported file.
type Artifact struct {
	Name        string
	ContentType string
	Data        []byte
}

// Export renders the session's questions in their shuffled order as plain
// text ("txt") or a QTI package ("qti").
func (s *Service) Export(ctx context.Context, owner, id, format string) (Artifact, error) {
	sess, err := s.get(ctx, owner, id)
	if err != nil {
		return Artifact{}, err
	}
	if !sess.objective() {
		return Artifact{}, ErrWrongVariant
	}
	view := sess.View
	switch format {
	case "", "txt", "text":
		return Artifact{
			Name:        export.FileName(sess.Variant),
			ContentType: "text/plain; charset=utf-8",
			Data:        export.Text(sess.Variant, sess.Questions, view),
		}, nil
	case "qti":
		data, err := export.QTI(sess.Questions, view)
		if err != nil {
			return Artifact{}, fmt.Errorf("qti export: %w", err)
		}
		return Artifact{Name: sess.ID + ".zip", ContentType: "application/zip", Data: data}, nil
	default:
		return Artifact{}, fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
}
