package db

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenSQLiteCreatesSchema(t *testing.T) {
	ctx := context.Background()
	dbh, err := Open(ctx, DriverSQLite, "file:connect_test?mode=memory&cache=shared")
	require.NoError(t, err)
	defer dbh.Close()

	_, err = dbh.ExecContext(ctx,
		`INSERT INTO quiz_sessions (id, owner, variant, payload, updated_at) VALUES ($1, $2, $3, $4, $5)`,
		"s1", "u1", "objective", "{}", 1)
	require.NoError(t, err)

	var n int
	require.NoError(t, dbh.QueryRowContext(ctx, `SELECT COUNT(*) FROM quiz_sessions WHERE owner = $1`, "u1").Scan(&n))
	assert.Equal(t, 1, n)
}

func TestOpenIsIdempotent(t *testing.T) {
	ctx := context.Background()
	dsn := "file:connect_twice?mode=memory&cache=shared"
	first, err := Open(ctx, DriverSQLite, dsn)
	require.NoError(t, err)
	defer first.Close()

	second, err := Open(ctx, DriverSQLite, dsn)
	require.NoError(t, err)
	assert.NoError(t, second.Close())
}

func TestOpenRejectsUnknownDriver(t *testing.T) {
	_, err := Open(context.Background(), Driver("mysql"), "")
	assert.ErrorContains(t, err, "unsupported driver")
}
