package storage

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// DBTX is the query surface shared by *pgxpool.Pool and *pgxpool.Conn.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type sessionKey struct{}

// WithConn binds a store handle to ctx for the remainder of a request.
func WithConn(ctx context.Context, conn DBTX) context.Context {
	return context.WithValue(ctx, sessionKey{}, conn)
}

// Conn returns the handle bound by Session, or fallback when the call is not
// running inside a request session.
func Conn(ctx context.Context, fallback DBTX) DBTX {
	if conn, ok := ctx.Value(sessionKey{}).(DBTX); ok && conn != nil {
		return conn
	}
	return fallback
}

// Session acquires one pooled connection per request and releases it once the
// handler chain returns, on success, error, and panic alike.
func Session(pool *pgxpool.Pool) gin.HandlerFunc {
	return func(c *gin.Context) {
		conn, err := pool.Acquire(c.Request.Context())
		if err != nil {
			c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"error": "database unavailable"})
			return
		}
		defer conn.Release()

		c.Request = c.Request.WithContext(WithConn(c.Request.Context(), conn))
		c.Next()
	}
}
