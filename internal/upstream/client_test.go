package upstream

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mind-engage/lessonquiz/internal/apierr"
)

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return New(srv.URL+"/", 5*time.Second)
}

func TestLoginFlatUser(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/auth/login", r.URL.Path)
		var in map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&in))
		assert.Equal(t, "ana@school.ro", in["email"])
		assert.Equal(t, "secret1", in["password"])
		_, _ = io.WriteString(w, `{"token":"tok-1","id":42,"name":"Ana","email":"ana@school.ro","role":"TEACHER"}`)
	})

	got, err := c.Login(context.Background(), "ana@school.ro", "secret1")

	require.NoError(t, err)
	assert.Equal(t, "tok-1", got.Token)
	assert.Equal(t, ID("42"), got.User.ID)
	assert.Equal(t, "Ana", got.User.DisplayName())
	assert.Equal(t, "TEACHER", got.User.Role)
}

func TestLoginNestedUser(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"token":"t","user":{"id":"u-7","fullName":"Ion Pop","email":"ion@x.ro","role":"USER"}}`)
	})

	got, err := c.Login(context.Background(), "ion@x.ro", "pw")

	require.NoError(t, err)
	assert.Equal(t, ID("u-7"), got.User.ID)
	assert.Equal(t, "Ion Pop", got.User.DisplayName())
}

func TestLoginWithoutTokenIsUnauthenticated(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"message":"bad credentials"}`)
	})
	_, err := c.Login(context.Background(), "a@b.c", "x")
	assert.ErrorIs(t, err, ErrUnauthenticated)
}

func TestStatusMapping(t *testing.T) {
	cases := []struct {
		name   string
		status int
		want   int
	}{
		{"bad request passes through", http.StatusBadRequest, http.StatusBadRequest},
		{"conflict passes through", http.StatusConflict, http.StatusConflict},
		{"server error becomes bad gateway", http.StatusInternalServerError, http.StatusBadGateway},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
				_, _ = io.WriteString(w, `{"message":"nope"}`)
			})
			err := c.Register(context.Background(), Registration{Email: "a@b.c", Password: "secret", FullName: "Ab"})
			var ae *apierr.Error
			require.True(t, errors.As(err, &ae))
			assert.Equal(t, tc.want, ae.Status)
		})
	}
}

func TestUnauthorizedMapsToSentinel(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer expired", r.Header.Get("Authorization"))
		w.WriteHeader(http.StatusUnauthorized)
	})
	_, err := c.Generate(context.Background(), "expired", "lesson", 0)
	assert.ErrorIs(t, err, ErrUnauthenticated)
}

func TestGenerateSendsCountOnlyWhenPositive(t *testing.T) {
	var bodies []map[string]any
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		var in map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&in))
		bodies = append(bodies, in)
		_, _ = io.WriteString(w, `{"choices":[{"message":{"role":"assistant","content":"1. Ce este?"}}]}`)
	})

	got, err := c.Generate(context.Background(), "t", "lesson", 7)
	require.NoError(t, err)
	assert.Equal(t, "1. Ce este?", got.Text)
	_, err = c.Generate(context.Background(), "t", "lesson", 0)
	require.NoError(t, err)

	require.Len(t, bodies, 2)
	assert.EqualValues(t, 7, bodies[0]["count"])
	assert.NotContains(t, bodies[1], "count")
}

func TestListUsersNonArrayIsEmpty(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"users":null}`)
	})
	users, err := c.ListUsers(context.Background(), "t")
	require.NoError(t, err)
	assert.Empty(t, users)
}

func TestUnreachableIsBadGateway(t *testing.T) {
	c := New("http://127.0.0.1:1", time.Second)
	_, err := c.CurrentUser(context.Background(), "t")
	var ae *apierr.Error
	require.True(t, errors.As(err, &ae))
	assert.Equal(t, http.StatusBadGateway, ae.Status)
}

func TestDecodeCompletion(t *testing.T) {
	cases := []struct {
		name  string
		body  string
		text  string
		items int
	}{
		{"chat envelope", `{"choices":[{"message":{"content":"hello"}}]}`, "hello", -1},
		{"json string", `"Întrebare: x"`, "Întrebare: x", -1},
		{"array", `[{"score":3},{"score":-1}]`, "", 2},
		{"empty array", `[]`, "", 0},
		{"raw text", "Întrebare: a\nScor: 4", "Întrebare: a\nScor: 4", -1},
		{"content object", `{"content":"c"}`, "c", -1},
		{"empty", "  ", "", -1},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := DecodeCompletion([]byte(tc.body))
			assert.Equal(t, tc.text, got.Text)
			if tc.items < 0 {
				assert.False(t, got.IsArray())
			} else {
				assert.True(t, got.IsArray())
				assert.Len(t, got.Items, tc.items)
			}
		})
	}
}
