package storage

import (
	"context"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
)

type stubConn struct{ name string }

func (stubConn) Exec(context.Context, string, ...any) (pgconn.CommandTag, error) {
	return pgconn.CommandTag{}, nil
}

func (stubConn) Query(context.Context, string, ...any) (pgx.Rows, error) { return nil, nil }

func (stubConn) QueryRow(context.Context, string, ...any) pgx.Row { return nil }

func TestConnFallsBackOutsideSession(t *testing.T) {
	pool := stubConn{name: "pool"}
	assert.Equal(t, pool, Conn(context.Background(), pool))
}

func TestConnPrefersRequestSession(t *testing.T) {
	pool := stubConn{name: "pool"}
	session := stubConn{name: "session"}

	ctx := WithConn(context.Background(), session)
	assert.Equal(t, session, Conn(ctx, pool))
}
