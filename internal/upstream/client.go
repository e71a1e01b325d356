// Package upstream is the HTTP client for the platform API that owns user
// accounts and the text-generation endpoints.
package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/mind-engage/lessonquiz/internal/apierr"
)

// ErrUnauthenticated is returned for any 401 from the platform API.
var ErrUnauthenticated = errors.New("upstream: not authenticated")

type Client struct {
	base string
	http *http.Client
}

func New(baseURL string, timeout time.Duration) *Client {
	return NewWithHTTP(baseURL, &http.Client{Timeout: timeout})
}

func NewWithHTTP(baseURL string, hc *http.Client) *Client {
	if hc == nil {
		hc = http.DefaultClient
	}
	return &Client{base: strings.TrimSuffix(baseURL, "/"), http: hc}
}

// ID accepts both numeric and string user ids.
type ID string

func (id *ID) UnmarshalJSON(b []byte) error {
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*id = ID(s)
		return nil
	}
	if string(b) == "null" {
		*id = ""
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*id = ID(n.String())
	return nil
}

type User struct {
	ID       ID     `json:"id"`
	Email    string `json:"email"`
	Name     string `json:"name,omitempty"`
	FullName string `json:"fullName,omitempty"`
	Role     string `json:"role"`
}

// DisplayName prefers the full name, then the short name, then the email.
func (u User) DisplayName() string {
	switch {
	case u.FullName != "":
		return u.FullName
	case u.Name != "":
		return u.Name
	}
	return u.Email
}

// Login is the outcome of a successful sign-in.
type Login struct {
	Token string
	User  User
}

func (c *Client) Login(ctx context.Context, email, password string) (Login, error) {
	var body struct {
		Token string `json:"token"`
		User
		Nested *User `json:"user"`
	}
	if err := c.doJSON(ctx, http.MethodPost, "/api/auth/login", "", map[string]string{
		"email": email, "password": password,
	}, &body); err != nil {
		return Login{}, fmt.Errorf("login: %w", err)
	}
	if body.Token == "" {
		return Login{}, fmt.Errorf("login: %w", ErrUnauthenticated)
	}
	u := body.User
	if body.Nested != nil {
		u = *body.Nested
	}
	if u.Email == "" {
		u.Email = email
	}
	return Login{Token: body.Token, User: u}, nil
}

type Registration struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	FullName string `json:"fullName"`
}

func (c *Client) Register(ctx context.Context, r Registration) error {
	if err := c.doJSON(ctx, http.MethodPost, "/api/auth/register", "", r, nil); err != nil {
		return fmt.Errorf("register: %w", err)
	}
	return nil
}

func (c *Client) Logout(ctx context.Context, token string) error {
	if err := c.doJSON(ctx, http.MethodPost, "/api/auth/logout", token, nil, nil); err != nil {
		return fmt.Errorf("logout: %w", err)
	}
	return nil
}

func (c *Client) CurrentUser(ctx context.Context, token string) (User, error) {
	var u User
	if err := c.doJSON(ctx, http.MethodGet, "/api/auth/current-user", token, nil, &u); err != nil {
		return User{}, fmt.Errorf("current user: %w", err)
	}
	return u, nil
}

func (c *Client) ListUsers(ctx context.Context, token string) ([]User, error) {
	var raw json.RawMessage
	if err := c.doJSON(ctx, http.MethodGet, "/api/users", token, nil, &raw); err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	var users []User
	if err := json.Unmarshal(raw, &users); err != nil {
		// a non-array body means no users
		return []User{}, nil
	}
	return users, nil
}

// Generate posts text to the generation endpoint. count is sent only when
// positive.
func (c *Client) Generate(ctx context.Context, token, text string, count int) (Completion, error) {
	req := map[string]any{"text": text}
	if count > 0 {
		req["count"] = count
	}
	body, err := c.do(ctx, http.MethodPost, "/api/questions/generate", token, req)
	if err != nil {
		return Completion{}, fmt.Errorf("generate: %w", err)
	}
	return DecodeCompletion(body), nil
}

func (c *Client) GenerateAnswers(ctx context.Context, token string, questions []string, lesson string) (Completion, error) {
	body, err := c.do(ctx, http.MethodPost, "/api/answers/generate", token, map[string]any{
		"questions":     questions,
		"lessonContent": lesson,
	})
	if err != nil {
		return Completion{}, fmt.Errorf("generate answers: %w", err)
	}
	return DecodeCompletion(body), nil
}

type EvaluationItem struct {
	Question      string `json:"question"`
	CorrectAnswer string `json:"correctAnswer"`
	StudentAnswer string `json:"studentAnswer"`
}

func (c *Client) Evaluate(ctx context.Context, token string, items []EvaluationItem) (Completion, error) {
	body, err := c.do(ctx, http.MethodPost, "/api/evaluation/score", token, items)
	if err != nil {
		return Completion{}, fmt.Errorf("evaluate: %w", err)
	}
	return DecodeCompletion(body), nil
}

func (c *Client) doJSON(ctx context.Context, method, path, token string, in, out any) error {
	body, err := c.do(ctx, method, path, token, in)
	if err != nil {
		return err
	}
	if out == nil || len(bytes.TrimSpace(body)) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return apierr.New(http.StatusBadGateway, "upstream_bad_response", fmt.Errorf("decode %s: %w", path, err))
	}
	return nil
}

func (c *Client) do(ctx context.Context, method, path, token string, in any) ([]byte, error) {
	var rd io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return nil, err
		}
		rd = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.base+path, rd)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	res, err := c.http.Do(req)
	if err != nil {
		return nil, apierr.New(http.StatusBadGateway, "upstream_unreachable", err)
	}
	defer res.Body.Close()
	body, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, apierr.New(http.StatusBadGateway, "upstream_unreachable", err)
	}
	if res.StatusCode == http.StatusUnauthorized {
		return nil, ErrUnauthenticated
	}
	if res.StatusCode/100 != 2 {
		return nil, apierr.New(statusFor(res.StatusCode), "upstream_failed",
			fmt.Errorf("%s %s: %s: %s", method, path, res.Status, snippet(body)))
	}
	return body, nil
}

// statusFor maps upstream client errors through and everything else to 502.
func statusFor(code int) int {
	if code >= 400 && code < 500 {
		return code
	}
	return http.StatusBadGateway
}

func snippet(b []byte) string {
	s := strings.TrimSpace(string(b))
	if len(s) > 200 {
		s = s[:200] + "…"
	}
	return strconv.Quote(s)
}
