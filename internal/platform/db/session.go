package db

import (
	"context"
	"net/http"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
)

type contextKey string

const (
	connKey contextKey = "db_conn"
	txKey   contextKey = "db_tx"
)

// SessionMiddleware acquires a pooled connection for the lifetime of the
// request and stores it in the request context. Repositories pick it up via
// ConnFromContext, so a request never hops between pool connections.
func SessionMiddleware(pool *pgxpool.Pool) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ctx := c.Request().Context()
			conn, err := pool.Acquire(ctx)
			if err != nil {
				return echo.NewHTTPError(http.StatusServiceUnavailable, "database unavailable")
			}
			defer conn.Release()

			ctx = context.WithValue(ctx, connKey, conn)
			c.SetRequest(c.Request().WithContext(ctx))

			return next(c)
		}
	}
}

// ConnFromContext retrieves the request-scoped database connection, if any.
func ConnFromContext(ctx context.Context) *pgxpool.Conn {
	conn, _ := ctx.Value(connKey).(*pgxpool.Conn)
	return conn
}

// TxFromContext retrieves the active transaction, if any.
func TxFromContext(ctx context.Context) pgx.Tx {
	tx, _ := ctx.Value(txKey).(pgx.Tx)
	return tx
}

// WithTxContext returns a context carrying the given transaction so that
// repository calls made inside a WithTx callback join it.
func WithTxContext(ctx context.Context, tx pgx.Tx) context.Context {
	return context.WithValue(ctx, txKey, tx)
}

// Runner executes functions inside database transactions.
type Runner struct {
	pool *pgxpool.Pool
}

// NewRunner creates a transaction runner over the pool.
func NewRunner(pool *pgxpool.Pool) *Runner {
	return &Runner{pool: pool}
}

// WithTx runs fn inside a transaction. The transaction is placed in the
// context passed to fn; repositories that check TxFromContext participate
// automatically. Rollback on error, commit otherwise.
func (r *Runner) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return r.run(ctx, pgx.TxOptions{}, fn)
}

// WithSerializableTx is WithTx at SERIALIZABLE isolation. Used where a
// read-then-write decision must not race with concurrent writers.
func (r *Runner) WithSerializableTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return r.run(ctx, pgx.TxOptions{IsoLevel: pgx.Serializable}, fn)
}

func (r *Runner) run(ctx context.Context, opts pgx.TxOptions, fn func(ctx context.Context) error) error {
	var tx pgx.Tx
	var err error
	if conn := ConnFromContext(ctx); conn != nil {
		tx, err = conn.BeginTx(ctx, opts)
	} else {
		tx, err = r.pool.BeginTx(ctx, opts)
	}
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if err := fn(WithTxContext(ctx, tx)); err != nil {
		return err
	}
	return tx.Commit(ctx)
}
