// Package bulk loads large row sets with chunked multi-row inserts so a
// single oversized statement never hits the server.
package bulk

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

// DefaultBatchSize is used when the loader is constructed with a
// non-positive batch size.
const DefaultBatchSize = 500

// Result summarizes a completed bulk load.
type Result struct {
	Inserted int `json:"inserted"`
	Batches  int `json:"batches"`
}

// BatchError reports which batch failed and how many rows preceded it.
// The whole load runs in one transaction, so on error nothing is kept.
type BatchError struct {
	Batch  int // zero-based batch index
	Offset int // row offset of the first row in the failing batch
	Err    error
}

func (e *BatchError) Error() string {
	return fmt.Sprintf("bulk insert batch %d (rows from offset %d): %v", e.Batch, e.Offset, e.Err)
}

func (e *BatchError) Unwrap() error { return e.Err }

// Loader inserts rows in batches inside a single transaction.
type Loader struct {
	pool      *pgxpool.Pool
	batchSize int
	logger    zerolog.Logger
}

// NewLoader creates a Loader with the given batch size.
func NewLoader(pool *pgxpool.Pool, batchSize int, logger zerolog.Logger) *Loader {
	if batchSize < 1 {
		batchSize = DefaultBatchSize
	}
	return &Loader{pool: pool, batchSize: batchSize, logger: logger}
}

// Insert loads all rows into table in batchSize chunks. Every chunk becomes
// one multi-row INSERT; all chunks share one transaction, so a failure rolls
// the whole load back. Each row must have exactly len(columns) values.
func (l *Loader) Insert(ctx context.Context, table string, columns []string, rows [][]interface{}) (Result, error) {
	if len(rows) == 0 {
		return Result{}, nil
	}
	for i, row := range rows {
		if len(row) != len(columns) {
			return Result{}, fmt.Errorf("row %d has %d values, expected %d", i, len(row), len(columns))
		}
	}

	tx, err := l.pool.Begin(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("begin bulk transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var res Result
	for batch, chunk := range chunkRows(rows, l.batchSize) {
		sql := buildInsert(table, columns, len(chunk))
		args := flatten(chunk)
		if _, err := tx.Exec(ctx, sql, args...); err != nil {
			return Result{}, &BatchError{Batch: batch, Offset: batch * l.batchSize, Err: err}
		}
		res.Inserted += len(chunk)
		res.Batches++
	}

	if err := tx.Commit(ctx); err != nil {
		return Result{}, fmt.Errorf("commit bulk transaction: %w", err)
	}

	l.logger.Info().
		Str("table", table).
		Int("rows", res.Inserted).
		Int("batches", res.Batches).
		Msg("bulk load complete")

	return res, nil
}

// chunkRows splits rows into consecutive slices of at most size rows.
func chunkRows(rows [][]interface{}, size int) [][][]interface{} {
	var chunks [][][]interface{}
	for start := 0; start < len(rows); start += size {
		end := start + size
		if end > len(rows) {
			end = len(rows)
		}
		chunks = append(chunks, rows[start:end])
	}
	return chunks
}

// buildInsert renders a multi-row INSERT with numbered placeholders.
func buildInsert(table string, columns []string, rowCount int) string {
	var b strings.Builder
	b.WriteString("INSERT INTO ")
	b.WriteString(table)
	b.WriteString(" (")
	b.WriteString(strings.Join(columns, ", "))
	b.WriteString(") VALUES ")

	idx := 1
	for r := 0; r < rowCount; r++ {
		if r > 0 {
			b.WriteString(", ")
		}
		b.WriteString("(")
		for c := range columns {
			if c > 0 {
				b.WriteString(", ")
			}
			fmt.Fprintf(&b, "$%d", idx)
			idx++
		}
		b.WriteString(")")
	}
	return b.String()
}

func flatten(rows [][]interface{}) []interface{} {
	if len(rows) == 0 {
		return nil
	}
	out := make([]interface{}, 0, len(rows)*len(rows[0]))
	for _, row := range rows {
		out = append(out, row...)
	}
	return out
}
