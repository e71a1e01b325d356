package session

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mind-engage/lessonquiz/internal/db"
	"github.com/mind-engage/lessonquiz/internal/quiz"
)

func sampleSession() *Session {
	s := &Session{
		ID:      "s-1",
		Owner:   "u1",
		Variant: quiz.VariantObjective,
	}
	s.SetQuestions(quiz.List{
		&quiz.TrueFalse{ID: "tf-0", Question: "Sky is blue", Correct: true},
		&quiz.MultipleChoice{ID: "mc-0", Question: "2+2?", Options: []quiz.Option{
			{ID: "option-A", Text: "3"},
			{ID: "option-B", Text: "4", Correct: true},
		}},
	})
	s.EnsureView(nil)
	s.Answers.Merge(quiz.Answers{TrueFalse: map[string]bool{"tf-0": true}})
	return s
}

func storeContract(t *testing.T, store Store) {
	ctx := context.Background()
	require.NoError(t, store.Ping(ctx))

	_, err := store.Get(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)

	in := sampleSession()
	require.NoError(t, store.Put(ctx, in))
	got, err := store.Get(ctx, in.ID)
	require.NoError(t, err)
	assert.Equal(t, in.Questions, got.Questions)
	assert.Equal(t, in.View, got.View)
	assert.Equal(t, in.Answers, got.Answers)

	got.Answers.Merge(quiz.Answers{TrueFalse: map[string]bool{"tf-0": false}})
	again, err := store.Get(ctx, in.ID)
	require.NoError(t, err)
	assert.True(t, again.Answers.TrueFalse["tf-0"], "stored copy is not aliased")

	require.NoError(t, store.Put(ctx, got))
	again, err = store.Get(ctx, in.ID)
	require.NoError(t, err)
	assert.False(t, again.Answers.TrueFalse["tf-0"])

	require.NoError(t, store.Delete(ctx, in.ID))
	_, err = store.Get(ctx, in.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStore(t *testing.T) {
	storeContract(t, NewMemoryStore())
}

func TestSQLStoreSQLite(t *testing.T) {
	ctx := context.Background()
	conn, err := db.Open(ctx, db.DriverSQLite, "file:session_store_test?mode=memory&cache=shared")
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	store := NewSQLStore(conn)
	storeContract(t, store)

	require.NoError(t, store.Put(ctx, sampleSession()))
	n, err := store.PruneBefore(ctx, time.Now().Add(time.Hour))
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	old := sampleSession()
	old.UpdatedAt = time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, store.Put(ctx, old))
	n, err = store.PruneBefore(ctx, old.UpdatedAt.Add(-time.Minute))
	require.NoError(t, err)
	assert.Zero(t, n)
	n, err = store.PruneBefore(ctx, old.UpdatedAt.Add(time.Minute))
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)
}

func TestEnsureViewIsMemoizedByVersion(t *testing.T) {
	s := sampleSession()
	first := s.EnsureView(nil)
	for i := 0; i < 5; i++ {
		assert.Equal(t, first, s.EnsureView(nil))
	}
	s.SetQuestions(s.Questions)
	assert.Equal(t, uint64(2), s.EnsureView(nil).Version)
}
