package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestRedaction(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	l := &Logger{SugaredLogger: zap.New(core).Sugar()}

	l.Info("login",
		"email", "a@b.c",
		"access_token", "abc",
		"status", 200,
		"bearer", "eyJhbGciOiJIUzI1NiJ9.eyJzdWIiOiJhQGIuYyJ9.sig",
	)

	entries := logs.All()
	if assert.Len(t, entries, 1) {
		ctx := entries[0].ContextMap()
		assert.Equal(t, redacted, ctx["email"])
		assert.Equal(t, redacted, ctx["access_token"])
		assert.Equal(t, redacted, ctx["bearer"])
		assert.EqualValues(t, 200, ctx["status"])
	}
}

func TestOddKeyValuesKept(t *testing.T) {
	out := sanitizeKVs([]interface{}{"a", 1, "dangling"})
	assert.Equal(t, []interface{}{"a", 1, "dangling"}, out)
}

func TestNopAndWith(t *testing.T) {
	l := Nop().With("request_id", "r1")
	l.Debug("ignored")
	l.Sync()
}
