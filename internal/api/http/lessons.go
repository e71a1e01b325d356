package http

import (
	"errors"
	"io"
	"net/http"

	"github.com/mind-engage/lessonquiz/internal/apierr"
	"github.com/mind-engage/lessonquiz/internal/extract"
	"github.com/mind-engage/lessonquiz/internal/logger"
)

// ExtractLessonHandler handles POST /lessons/extract with a multipart
// file= field and returns the plain text of the lesson.
func ExtractLessonHandler(maxBytes int64, log *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.ContentLength > maxBytes {
			apierr.Write(w, apierr.New(http.StatusRequestEntityTooLarge, "file_too_large", errors.New("file is too large")))
			return
		}
		r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
		if err := r.ParseMultipartForm(maxBytes); err != nil {
			var tooBig *http.MaxBytesError
			if errors.As(err, &tooBig) {
				apierr.Write(w, apierr.New(http.StatusRequestEntityTooLarge, "file_too_large", err))
				return
			}
			apierr.Write(w, apierr.New(http.StatusBadRequest, "file_required", errors.New("multipart file is required")))
			return
		}
		f, hdr, err := r.FormFile("file")
		if err != nil {
			apierr.Write(w, apierr.New(http.StatusBadRequest, "file_required", errors.New("multipart file is required")))
			return
		}
		defer f.Close()

		data, err := io.ReadAll(f)
		if err != nil {
			apierr.Write(w, apierr.New(http.StatusBadRequest, "file_required", err))
			return
		}
		text, err := extract.Text(hdr.Filename, hdr.Header.Get("Content-Type"), data)
		if err != nil {
			log.Warn("lesson extraction failed", "file", hdr.Filename, "size", len(data), "error", err)
			if errors.Is(err, extract.ErrUnsupported) || errors.Is(err, extract.ErrLegacyDoc) || errors.Is(err, extract.ErrEmpty) {
				writeError(w, log, err)
				return
			}
			apierr.Write(w, apierr.New(http.StatusUnprocessableEntity, "extraction_failed", err))
			return
		}
		log.Info("lesson extracted", "file", hdr.Filename, "chars", len(text))
		writeJSON(w, http.StatusOK, map[string]string{"text": text, "filename": hdr.Filename})
	}
}
