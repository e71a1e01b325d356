package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/mind-engage/lessonquiz/internal/apierr"
	"github.com/mind-engage/lessonquiz/internal/extract"
	"github.com/mind-engage/lessonquiz/internal/logger"
	"github.com/mind-engage/lessonquiz/internal/session"
	"github.com/mind-engage/lessonquiz/internal/upstream"
)

var errUpstreamGeneric = errors.New("the quiz service is unavailable, please try again later")

var errorCodes = []struct {
	err    error
	status int
	code   string
}{
	{session.ErrEmptyLesson, http.StatusBadRequest, "empty_lesson"},
	{session.ErrNoQuestions, http.StatusUnprocessableEntity, "no_questions"},
	{session.ErrNotFound, http.StatusNotFound, "not_found"},
	{session.ErrSubmitted, http.StatusConflict, "already_submitted"},
	{session.ErrWrongVariant, http.StatusBadRequest, "wrong_variant"},
	{session.ErrInvalidRequest, http.StatusBadRequest, "invalid_request"},
	{session.ErrInvalidAnswers, http.StatusBadRequest, "invalid_answers"},
	{session.ErrUnknownFormat, http.StatusBadRequest, "unknown_format"},
	{extract.ErrLegacyDoc, http.StatusUnprocessableEntity, "legacy_doc"},
	{extract.ErrUnsupported, http.StatusUnprocessableEntity, "unsupported_file"},
	{extract.ErrEmpty, http.StatusUnprocessableEntity, "empty_file"},
	{upstream.ErrUnauthenticated, http.StatusUnauthorized, "unauthenticated"},
}

// writeError maps service and upstream errors to API errors. Upstream
// server failures are logged in full and reported with a generic message.
func writeError(w http.ResponseWriter, log *logger.Logger, err error) {
	for _, e := range errorCodes {
		if errors.Is(err, e.err) {
			apierr.Write(w, apierr.New(e.status, e.code, err))
			return
		}
	}
	var ae *apierr.Error
	if errors.As(err, &ae) {
		if ae.Status >= http.StatusInternalServerError {
			log.Error("upstream request failed", "code", ae.Code, "error", err)
			apierr.Write(w, apierr.New(http.StatusBadGateway, ae.Code, errUpstreamGeneric))
			return
		}
		apierr.Write(w, ae)
		return
	}
	log.Error("request failed", "error", err)
	apierr.Write(w, err)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// maxJSONBody caps every JSON request body, lesson text included.
const maxJSONBody = 1 << 20

func limitBody(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBody)
}

func bodyError(err error) error {
	var tooBig *http.MaxBytesError
	if errors.As(err, &tooBig) {
		return apierr.New(http.StatusRequestEntityTooLarge, "body_too_large", errors.New("request body is too large"))
	}
	return apierr.New(http.StatusBadRequest, "bad_json", errors.New("request body is not valid JSON"))
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	limitBody(w, r)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return bodyError(err)
	}
	return nil
}
