package http

import (
	"context"
	"net/http"
	"strings"

	auth "github.com/mind-engage/lessonquiz/internal/auth/middleware"
	"github.com/mind-engage/lessonquiz/internal/logger"
	"github.com/mind-engage/lessonquiz/internal/rbac"
	"github.com/mind-engage/lessonquiz/internal/upstream"
)

type UserLister interface {
	ListUsers(ctx context.Context, token string) ([]upstream.User, error)
}

type userOut struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

// ListUsersHandler handles GET /users?role=USER. Local accounts have no
// platform token and get an empty list.
func ListUsersHandler(users UserLister, log *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		out := []userOut{}
		token := auth.UpstreamToken(r.Context())
		if token == "" {
			writeJSON(w, http.StatusOK, out)
			return
		}
		list, err := users.ListUsers(r.Context(), token)
		if err != nil {
			writeError(w, log, err)
			return
		}
		role := strings.TrimSpace(r.URL.Query().Get("role"))
		for _, u := range list {
			ur := rbac.NormalizeRole(u.Role)
			if role != "" && ur != rbac.NormalizeRole(role) {
				continue
			}
			out = append(out, userOut{ID: string(u.ID), Name: u.DisplayName(), Email: u.Email, Role: ur})
		}
		writeJSON(w, http.StatusOK, out)
	}
}
