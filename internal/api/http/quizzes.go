package http

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/mind-engage/lessonquiz/internal/apierr"
	auth "github.com/mind-engage/lessonquiz/internal/auth/middleware"
	"github.com/mind-engage/lessonquiz/internal/logger"
	"github.com/mind-engage/lessonquiz/internal/quiz"
	"github.com/mind-engage/lessonquiz/internal/rbac"
	"github.com/mind-engage/lessonquiz/internal/session"
)

// MountQuizzes registers the quiz session routes under r. The caller
// installs JWT authentication in front.
func MountQuizzes(r chi.Router, svc *session.Service, log *logger.Logger) {
	r.With(rbac.Require("quiz:generate")).Post("/", GenerateQuizHandler(svc, log))
	r.With(rbac.Require("quiz:take")).Get("/{id}", GetQuizHandler(svc, log))
	r.With(rbac.Require("quiz:take")).Put("/{id}/answers", SaveAnswersHandler(svc, log))
	r.With(rbac.Require("quiz:take")).Post("/{id}/submit", SubmitQuizHandler(svc, log))
	r.With(rbac.Require("quiz:take")).Post("/{id}/retake", RetakeQuizHandler(svc, log))
	r.With(rbac.Require("quiz:generate")).Post("/{id}/regenerate", RegenerateQuizHandler(svc, log))
	r.With(rbac.Require("quiz:take")).Delete("/{id}", DiscardQuizHandler(svc, log))
	r.With(rbac.Require("quiz:export")).Get("/{id}/export", ExportQuizHandler(svc, log))
}

func caller(r *http.Request) (owner, token string) {
	return auth.SubjectFromContext(r.Context()), auth.UpstreamToken(r.Context())
}

// GenerateQuizHandler handles POST /quizzes {variant, kind, lesson}.
func GenerateQuizHandler(svc *session.Service, log *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req session.Request
		if err := decodeJSON(w, r, &req); err != nil {
			apierr.Write(w, err)
			return
		}
		owner, token := caller(r)
		sess, err := svc.Generate(r.Context(), owner, token, req)
		if err != nil {
			writeError(w, log, err)
			return
		}
		writeJSON(w, http.StatusCreated, session.Present(sess))
	}
}

func GetQuizHandler(svc *session.Service, log *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		owner, _ := caller(r)
		sess, err := svc.Get(r.Context(), owner, chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, log, err)
			return
		}
		writeJSON(w, http.StatusOK, session.Present(sess))
	}
}

// SaveAnswersHandler handles PUT /quizzes/{id}/answers. Objective and grid
// quizzes take an answers object keyed by question kind; free-text quizzes
// take a map of question id to answer text.
func SaveAnswersHandler(svc *session.Service, log *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		owner, _ := caller(r)
		id := chi.URLParam(r, "id")
		limitBody(w, r)
		body, err := io.ReadAll(r.Body)
		if err != nil {
			apierr.Write(w, bodyError(err))
			return
		}
		sess, err := svc.Get(r.Context(), owner, id)
		if err != nil {
			writeError(w, log, err)
			return
		}

		dec := json.NewDecoder(bytes.NewReader(body))
		dec.DisallowUnknownFields()
		if sess.Variant == quiz.VariantFreeText {
			var answers map[string]string
			if err := dec.Decode(&answers); err != nil {
				apierr.Write(w, apierr.New(http.StatusBadRequest, "bad_json", fmt.Errorf("free-text answers: %w", err)))
				return
			}
			sess, err = svc.AnswerFreeText(r.Context(), owner, id, answers)
		} else {
			var answers quiz.Answers
			if err := dec.Decode(&answers); err != nil {
				apierr.Write(w, apierr.New(http.StatusBadRequest, "bad_json", fmt.Errorf("answers: %w", err)))
				return
			}
			sess, err = svc.Answer(r.Context(), owner, id, answers)
		}
		if err != nil {
			writeError(w, log, err)
			return
		}
		writeJSON(w, http.StatusOK, session.Present(sess))
	}
}

func SubmitQuizHandler(svc *session.Service, log *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		owner, token := caller(r)
		sess, err := svc.Submit(r.Context(), owner, token, chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, log, err)
			return
		}
		writeJSON(w, http.StatusOK, session.Present(sess))
	}
}

func RetakeQuizHandler(svc *session.Service, log *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		owner, _ := caller(r)
		sess, err := svc.Retake(r.Context(), owner, chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, log, err)
			return
		}
		writeJSON(w, http.StatusOK, session.Present(sess))
	}
}

// RegenerateQuizHandler handles POST /quizzes/{id}/regenerate {lesson}.
func RegenerateQuizHandler(svc *session.Service, log *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Lesson string `json:"lesson"`
		}
		if err := decodeJSON(w, r, &req); err != nil {
			apierr.Write(w, err)
			return
		}
		owner, token := caller(r)
		sess, err := svc.Regenerate(r.Context(), owner, token, chi.URLParam(r, "id"), req.Lesson)
		if err != nil {
			writeError(w, log, err)
			return
		}
		writeJSON(w, http.StatusOK, session.Present(sess))
	}
}

func DiscardQuizHandler(svc *session.Service, log *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		owner, _ := caller(r)
		if err := svc.Discard(r.Context(), owner, chi.URLParam(r, "id")); err != nil {
			writeError(w, log, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// ExportQuizHandler handles GET /quizzes/{id}/export?format=txt|qti and
// serves the artifact as a download.
func ExportQuizHandler(svc *session.Service, log *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		owner, _ := caller(r)
		art, err := svc.Export(r.Context(), owner, chi.URLParam(r, "id"), r.URL.Query().Get("format"))
		if err != nil {
			writeError(w, log, err)
			return
		}
		w.Header().Set("Content-Type", art.ContentType)
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", art.Name))
		_, _ = w.Write(art.Data)
	}
}

type questionOut struct {
	ID       string `json:"id"`
	Question string `json:"question"`
}

// QuestionsHandler handles POST /questions {lesson} and returns a list of
// open questions without creating a quiz.
func QuestionsHandler(svc *session.Service, log *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Lesson string `json:"lesson"`
		}
		if err := decodeJSON(w, r, &req); err != nil {
			apierr.Write(w, err)
			return
		}
		_, token := caller(r)
		qs, err := svc.Questions(r.Context(), token, req.Lesson)
		if err != nil {
			writeError(w, log, err)
			return
		}
		out := make([]questionOut, len(qs))
		for i, q := range qs {
			out[i] = questionOut{ID: q.ID, Question: q.Question}
		}
		writeJSON(w, http.StatusOK, out)
	}
}
