package auth

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/mail"
	"strings"
	"unicode/utf8"

	"golang.org/x/crypto/bcrypt"

	"github.com/mind-engage/lessonquiz/internal/apierr"
	"github.com/mind-engage/lessonquiz/internal/logger"
	"github.com/mind-engage/lessonquiz/internal/rbac"
	"github.com/mind-engage/lessonquiz/internal/upstream"
)

// Accounts is the platform API surface used for sign-in.
type Accounts interface {
	Login(ctx context.Context, email, password string) (upstream.Login, error)
	Register(ctx context.Context, r upstream.Registration) error
	Logout(ctx context.Context, token string) error
	CurrentUser(ctx context.Context, token string) (upstream.User, error)
}

// LocalAdmin is an offline account checked against a bcrypt hash.
type LocalAdmin struct {
	User     string
	PassHash string
}

type Handlers struct {
	Auth     *AuthService
	Accounts Accounts
	Admin    *LocalAdmin // nil disables local sign-in
	Log      *logger.Logger
}

type loginResponse struct {
	AccessToken string   `json:"access_token"`
	User        Identity `json:"user"`
}

var errBadJSON = apierr.New(http.StatusBadRequest, "bad_json", errors.New("bad json"))

// Login handles POST /auth/login {"email","password"}.
func (h *Handlers) Login(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apierr.Write(w, errBadJSON)
		return
	}
	req.Email = strings.TrimSpace(req.Email)
	if req.Email == "" || req.Password == "" {
		apierr.Write(w, apierr.New(http.StatusBadRequest, "missing_credentials", errors.New("email and password are required")))
		return
	}

	if h.Admin != nil && req.Email == h.Admin.User {
		if bcrypt.CompareHashAndPassword([]byte(h.Admin.PassHash), []byte(req.Password)) != nil {
			h.Log.Warn("local login rejected", "user", req.Email)
			apierr.Write(w, invalidCredentials())
			return
		}
		h.issue(w, Identity{Sub: "local|" + h.Admin.User, Name: h.Admin.User, Role: rbac.RoleAdmin}, "")
		return
	}

	res, err := h.Accounts.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, upstream.ErrUnauthenticated) {
			apierr.Write(w, invalidCredentials())
			return
		}
		h.Log.Error("upstream login failed", "error", err)
		apierr.Write(w, err)
		return
	}
	h.issue(w, identityOf(res.User), res.Token)
}

func (h *Handlers) issue(w http.ResponseWriter, id Identity, upstreamToken string) {
	tok, err := h.Auth.IssueJWT(id, upstreamToken)
	if err != nil {
		h.Log.Error("issue token", "error", err)
		apierr.Write(w, err)
		return
	}
	writeJSON(w, http.StatusOK, loginResponse{AccessToken: tok, User: id})
}

func identityOf(u upstream.User) Identity {
	sub := string(u.ID)
	if sub == "" {
		sub = u.Email
	}
	return Identity{Sub: sub, Name: u.DisplayName(), Email: u.Email, Role: rbac.NormalizeRole(u.Role)}
}

func invalidCredentials() error {
	return apierr.New(http.StatusUnauthorized, "invalid_credentials", errors.New("invalid email or password"))
}

// Register handles POST /auth/register {"email","password","name"}.
func (h *Handlers) Register(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
		Name     string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apierr.Write(w, errBadJSON)
		return
	}
	reg := upstream.Registration{
		Email:    strings.TrimSpace(req.Email),
		Password: req.Password,
		FullName: strings.TrimSpace(req.Name),
	}
	if err := ValidateRegistration(reg); err != nil {
		apierr.Write(w, apierr.New(http.StatusBadRequest, "invalid_registration", err))
		return
	}
	if err := h.Accounts.Register(r.Context(), reg); err != nil {
		h.Log.Warn("upstream register failed", "error", err)
		apierr.Write(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"status": "registered"})
}

// ValidateRegistration requires a name of at least two characters, a valid
// email address and a password of at least six characters.
func ValidateRegistration(r upstream.Registration) error {
	if utf8.RuneCountInString(r.FullName) < 2 {
		return errors.New("name must be at least 2 characters")
	}
	if a, err := mail.ParseAddress(r.Email); err != nil || a.Address != r.Email {
		return errors.New("email address is not valid")
	}
	if utf8.RuneCountInString(r.Password) < 6 {
		return errors.New("password must be at least 6 characters")
	}
	return nil
}

// Logout handles POST /auth/logout. Upstream failures are logged and
// otherwise ignored.
func (h *Handlers) Logout(w http.ResponseWriter, r *http.Request) {
	if tok := UpstreamToken(r.Context()); tok != "" {
		if err := h.Accounts.Logout(r.Context(), tok); err != nil {
			h.Log.Warn("upstream logout failed", "error", err)
		}
	}
	w.WriteHeader(http.StatusNoContent)
}

// Me handles GET /auth/me. Platform users are refreshed from the platform
// API, local accounts are served from their token.
func (h *Handlers) Me(w http.ResponseWriter, r *http.Request) {
	c := ClaimsFromContext(r.Context())
	if c == nil {
		apierr.Write(w, apierr.New(http.StatusUnauthorized, "unauthenticated", ErrInvalidToken))
		return
	}
	if c.Upstream == "" {
		writeJSON(w, http.StatusOK, c.Identity())
		return
	}
	u, err := h.Accounts.CurrentUser(r.Context(), c.Upstream)
	if err != nil {
		if errors.Is(err, upstream.ErrUnauthenticated) {
			apierr.Write(w, apierr.New(http.StatusUnauthorized, "unauthenticated", err))
			return
		}
		h.Log.Warn("current user lookup failed", "error", err)
		apierr.Write(w, err)
		return
	}
	writeJSON(w, http.StatusOK, identityOf(u))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
