package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"math/rand/v2"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mind-engage/lessonquiz/internal/apierr"
	auth "github.com/mind-engage/lessonquiz/internal/auth/middleware"
	"github.com/mind-engage/lessonquiz/internal/logger"
	"github.com/mind-engage/lessonquiz/internal/rbac"
	"github.com/mind-engage/lessonquiz/internal/session"
	"github.com/mind-engage/lessonquiz/internal/upstream"
)

const mixedText = `True/False Questions:
1. Sky is blue - True
2. Grass is red - False

Matching Questions:
Matching set 1: Capitals
A. France
B. Italy
1. Rome
2. Paris
Answer Key: A=2, B=1

Multiple Choice Questions:
Question 1: 2+2?
A) 3
B) 4
C) 5
D) 6
✅ Answer corect: B

Fill in the Blank:
1. Capitala României este ____ (raspuns: București)
`

type fakeGen struct {
	text    string
	err     error
	answers string
	counts  []int
}

func (f *fakeGen) Generate(_ context.Context, _ string, _ string, count int) (upstream.Completion, error) {
	f.counts = append(f.counts, count)
	return upstream.Completion{Text: f.text}, f.err
}

func (f *fakeGen) GenerateAnswers(context.Context, string, []string, string) (upstream.Completion, error) {
	return upstream.Completion{Text: f.answers}, nil
}

func (f *fakeGen) Evaluate(context.Context, string, []upstream.EvaluationItem) (upstream.Completion, error) {
	return upstream.Completion{Text: "Întrebare: q\nScor: 1"}, nil
}

type fakeUsers struct{ list []upstream.User }

func (f fakeUsers) ListUsers(context.Context, string) ([]upstream.User, error) { return f.list, nil }

type harness struct {
	h       http.Handler
	authSvc *auth.AuthService
	gen     *fakeGen
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	log := logger.Nop()
	gen := &fakeGen{text: mixedText}
	svc := session.NewService(session.NewMemoryStore(), gen, log,
		session.WithRand(rand.New(rand.NewPCG(3, 5))), session.WithFreeTextRange(1, 3))
	authSvc := auth.NewAuthService("test-key", time.Hour)
	users := fakeUsers{list: []upstream.User{
		{ID: "1", FullName: "Ana Pop", Email: "ana@x.ro", Role: "user"},
		{ID: "2", Name: "prof", Email: "prof@x.ro", Role: "TEACHER"},
	}}

	r := chi.NewRouter()
	r.Use(RequestLogger(log))
	r.Get("/healthz", HealthzHandler)
	r.Get("/readyz", ReadyzHandler(svc, log))
	r.Group(func(pr chi.Router) {
		pr.Use(auth.JWTMiddleware(authSvc))
		pr.With(rbac.Require("lesson:extract")).Post("/lessons/extract", ExtractLessonHandler(1<<20, log))
		pr.With(rbac.Require("questions:generate")).Post("/questions", QuestionsHandler(svc, log))
		pr.With(rbac.Require("users:list")).Get("/users", ListUsersHandler(users, log))
		pr.Route("/quizzes", func(qr chi.Router) { MountQuizzes(qr, svc, log) })
	})
	return &harness{h: r, authSvc: authSvc, gen: gen}
}

func (h *harness) token(t *testing.T, sub, role string) string {
	t.Helper()
	tok, err := h.authSvc.IssueJWT(auth.Identity{Sub: sub, Role: role}, "up-"+sub)
	require.NoError(t, err)
	return tok
}

func (h *harness) do(t *testing.T, method, path, tok string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		rd = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, rd)
	if tok != "" {
		req.Header.Set("Authorization", "Bearer "+tok)
	}
	rec := httptest.NewRecorder()
	h.h.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&v), rec.Body.String())
	return v
}

func errorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	return decode[map[string]string](t, rec)["error"]
}

func TestQuizLifecycle(t *testing.T) {
	h := newHarness(t)
	tok := h.token(t, "u1", rbac.RoleUser)

	rec := h.do(t, http.MethodPost, "/quizzes", tok, map[string]string{"lesson": "Geografie"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	p := decode[session.Presentation](t, rec)
	assert.Equal(t, 5, len(p.Questions))
	assert.Equal(t, 6, p.Total)
	assert.False(t, p.Submitted)
	for _, q := range p.Questions {
		assert.Nil(t, q.Correct, q.ID)
		assert.Empty(t, q.Answer, q.ID)
		for _, o := range q.Options {
			assert.Nil(t, o.Correct, q.ID)
		}
	}

	answers := map[string]any{
		"truefalse":      map[string]bool{"tf-0": true, "tf-1": false},
		"matching":       map[string]map[string]string{"matching-0": {"item-A": "Paris", "item-B": "Rome"}},
		"multiplechoice": map[string][]string{"mc-0": {"option-B"}},
		"fillblank":      map[string]string{"fillblank-0": "bucuresti"},
	}
	rec = h.do(t, http.MethodPut, "/quizzes/"+p.ID+"/answers", tok, answers)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, 6, decode[session.Presentation](t, rec).Answered)

	rec = h.do(t, http.MethodPost, "/quizzes/"+p.ID+"/submit", tok, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	done := decode[session.Presentation](t, rec)
	require.NotNil(t, done.Result)
	assert.Equal(t, float64(100), done.Result.Score)

	rec = h.do(t, http.MethodPut, "/quizzes/"+p.ID+"/answers", tok, answers)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = h.do(t, http.MethodGet, "/quizzes/"+p.ID+"/export?format=txt", tok, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "attachment")
	assert.Contains(t, rec.Body.String(), "2+2?")

	rec = h.do(t, http.MethodGet, "/quizzes/"+p.ID+"/export?format=pdf", tok, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "unknown_format", errorCode(t, rec))

	rec = h.do(t, http.MethodPost, "/quizzes/"+p.ID+"/retake", tok, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	again := decode[session.Presentation](t, rec)
	assert.Nil(t, again.Result)
	assert.Equal(t, 0, again.Answered)

	other := h.token(t, "u2", rbac.RoleUser)
	rec = h.do(t, http.MethodGet, "/quizzes/"+p.ID, other, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = h.do(t, http.MethodDelete, "/quizzes/"+p.ID, tok, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec = h.do(t, http.MethodGet, "/quizzes/"+p.ID, tok, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGenerateErrors(t *testing.T) {
	cases := []struct {
		name   string
		text   string
		err    error
		body   any
		status int
		code   string
	}{
		{"blank lesson", mixedText, nil, map[string]string{"lesson": "  "}, http.StatusBadRequest, "empty_lesson"},
		{"unknown variant", mixedText, nil, map[string]string{"lesson": "x", "variant": "essay"}, http.StatusBadRequest, "invalid_request"},
		{"nothing parsed", "no sections here", nil, map[string]string{"lesson": "x"}, http.StatusUnprocessableEntity, "no_questions"},
		{"expired upstream token", "", upstream.ErrUnauthenticated, map[string]string{"lesson": "x"}, http.StatusUnauthorized, "unauthenticated"},
		{"upstream failure", "", apierr.New(http.StatusBadGateway, "upstream_failed", errors.New("stack trace")), map[string]string{"lesson": "x"}, http.StatusBadGateway, "upstream_failed"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			h := newHarness(t)
			h.gen.text, h.gen.err = tc.text, tc.err
			rec := h.do(t, http.MethodPost, "/quizzes", h.token(t, "u1", rbac.RoleUser), tc.body)
			assert.Equal(t, tc.status, rec.Code)
			body := decode[map[string]string](t, rec)
			assert.Equal(t, tc.code, body["error"])
			assert.NotContains(t, body["message"], "stack trace")
		})
	}
}

func TestRequiresAuthAndPermission(t *testing.T) {
	h := newHarness(t)

	rec := h.do(t, http.MethodPost, "/quizzes", "", map[string]string{"lesson": "x"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = h.do(t, http.MethodGet, "/users", h.token(t, "u1", rbac.RoleUser), nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestListUsersFiltersByRole(t *testing.T) {
	h := newHarness(t)

	rec := h.do(t, http.MethodGet, "/users?role=USER", h.token(t, "t1", rbac.RoleTeacher), nil)

	require.Equal(t, http.StatusOK, rec.Code)
	users := decode[[]userOut](t, rec)
	assert.Equal(t, []userOut{{ID: "1", Name: "Ana Pop", Email: "ana@x.ro", Role: rbac.RoleUser}}, users)
}

func TestFreeTextFlow(t *testing.T) {
	h := newHarness(t)
	h.gen.text = "1. Ce este apa?\n2. Ce este focul?"
	h.gen.answers = "Întrebare: Ce este apa?\nRăspuns: Un lichid"
	tok := h.token(t, "u1", rbac.RoleUser)

	rec := h.do(t, http.MethodPost, "/quizzes", tok, map[string]string{"lesson": "x", "variant": "freetext"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	p := decode[session.Presentation](t, rec)
	require.NotEmpty(t, p.FreeText)
	for _, q := range p.FreeText {
		assert.Empty(t, q.CorrectAnswer)
	}

	rec = h.do(t, http.MethodPut, "/quizzes/"+p.ID+"/answers", tok, map[string]string{p.FreeText[0].ID: "lichid"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = h.do(t, http.MethodPut, "/quizzes/"+p.ID+"/answers", tok, map[string]any{"truefalse": map[string]bool{"tf-0": true}})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = h.do(t, http.MethodGet, "/quizzes/"+p.ID+"/export", tok, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "wrong_variant", errorCode(t, rec))
}

func TestQuestions(t *testing.T) {
	h := newHarness(t)
	h.gen.text = "1. Ce este apa?\n2. Ce este focul?"

	rec := h.do(t, http.MethodPost, "/questions", h.token(t, "u1", rbac.RoleUser), map[string]string{"lesson": "x"})

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	qs := decode[[]questionOut](t, rec)
	assert.Len(t, qs, 2)
	assert.Equal(t, []int{0}, h.gen.counts)
}

func TestOversizedJSONBody(t *testing.T) {
	h := newHarness(t)
	tok := h.token(t, "u1", rbac.RoleUser)
	big := map[string]string{"lesson": strings.Repeat("a", maxJSONBody)}

	rec := h.do(t, http.MethodPost, "/quizzes", tok, big)
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
	assert.Equal(t, "body_too_large", errorCode(t, rec))
	assert.Empty(t, h.gen.counts)

	rec = h.do(t, http.MethodPost, "/quizzes", tok, map[string]string{"lesson": mixedText})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	id := decode[map[string]any](t, rec)["id"].(string)
	rec = h.do(t, http.MethodPut, "/quizzes/"+id+"/answers", tok, map[string]string{"pad": strings.Repeat("b", maxJSONBody)})
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
}

func upload(t *testing.T, h *harness, name string, content []byte) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if name != "" {
		fw, err := mw.CreateFormFile("file", name)
		require.NoError(t, err)
		_, err = fw.Write(content)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())
	req := httptest.NewRequest(http.MethodPost, "/lessons/extract", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+h.token(t, "u1", rbac.RoleUser))
	rec := httptest.NewRecorder()
	h.h.ServeHTTP(rec, req)
	return rec
}

func TestExtractLesson(t *testing.T) {
	h := newHarness(t)

	rec := upload(t, h, "lectia.txt", []byte("Apa fierbe la 100 de grade."))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	out := decode[map[string]string](t, rec)
	assert.Equal(t, "lectia.txt", out["filename"])
	assert.Contains(t, out["text"], "Apa fierbe")

	rec = upload(t, h, "lectia.doc", []byte{0xD0, 0xCF, 0x11, 0xE0, 0xA1, 0xB1, 0x1A, 0xE1})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, "legacy_doc", errorCode(t, rec))

	rec = upload(t, h, "", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = upload(t, h, "big.txt", []byte(strings.Repeat("a", 2<<20)))
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
}

func TestHealth(t *testing.T) {
	h := newHarness(t)
	assert.Equal(t, http.StatusOK, h.do(t, http.MethodGet, "/healthz", "", nil).Code)
	assert.Equal(t, http.StatusOK, h.do(t, http.MethodGet, "/readyz", "", nil).Code)
}
