package patient

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/medneed/medneed/internal/platform/apperr"
	"github.com/medneed/medneed/internal/platform/db"
	"github.com/medneed/medneed/internal/platform/query"
)

type queryable interface {
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
}

type repoPG struct{ pool *pgxpool.Pool }

func NewRepoPG(pool *pgxpool.Pool) Repository {
	return &repoPG{pool: pool}
}

func (r *repoPG) conn(ctx context.Context) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	if c := db.ConnFromContext(ctx); c != nil {
		return c
	}
	return r.pool
}

const cols = `id, fio, birth_year, diagnosis, attending_doctor, created_at, updated_at`

func scanPatient(row pgx.Row) (*Patient, error) {
	var p Patient
	err := row.Scan(&p.ID, &p.FullName, &p.BirthYear, &p.Diagnosis, &p.AttendingDoctor,
		&p.CreatedAt, &p.UpdatedAt)
	return &p, err
}

func (r *repoPG) Create(ctx context.Context, p *Patient) error {
	return r.conn(ctx).QueryRow(ctx, `
		INSERT INTO patients (fio, birth_year, diagnosis, attending_doctor)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at, updated_at`,
		p.FullName, p.BirthYear, p.Diagnosis, p.AttendingDoctor,
	).Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt)
}

func (r *repoPG) GetByID(ctx context.Context, id int64) (*Patient, error) {
	p, err := scanPatient(r.conn(ctx).QueryRow(ctx,
		`SELECT `+cols+` FROM patients WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("patient %d: %w", id, apperr.ErrNotFound)
	}
	return p, err
}

func (r *repoPG) Update(ctx context.Context, p *Patient) error {
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE patients SET fio=$2, birth_year=$3, diagnosis=$4, attending_doctor=$5,
			updated_at=NOW()
		WHERE id = $1`,
		p.ID, p.FullName, p.BirthYear, p.Diagnosis, p.AttendingDoctor)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("patient %d: %w", p.ID, apperr.ErrNotFound)
	}
	return nil
}

func (r *repoPG) Delete(ctx context.Context, id int64) error {
	tag, err := r.conn(ctx).Exec(ctx, `DELETE FROM patients WHERE id = $1`, id)
	if err != nil {
		var pgErr *pgconn.PgError
		// 23503: foreign_key_violation. Prescriptions or dispensings still
		// reference this patient.
		if errors.As(err, &pgErr) && pgErr.Code == "23503" {
			return fmt.Errorf("patient %d is referenced by ledger records: %w", id, apperr.ErrConflict)
		}
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("patient %d: %w", id, apperr.ErrNotFound)
	}
	return nil
}

var sortKeys = map[string]query.SortKey{
	"name":       {Column: "fio"},
	"birth_year": {Column: "birth_year"},
	"created_at": {Column: "created_at"},
}

func (r *repoPG) List(ctx context.Context, opts ListOptions) ([]*Patient, int64, error) {
	qb := query.NewListQuery("patients", cols)
	qb.Search(opts.Search, "fio", "diagnosis", "attending_doctor")
	qb.ApplySort(opts.Sort, "fio ASC", sortKeys)

	var total int64
	if err := r.conn(ctx).QueryRow(ctx, qb.CountSQL(), qb.CountArgs()...).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.conn(ctx).Query(ctx, qb.DataSQL(), qb.DataArgs(opts.Page.Limit(), opts.Page.Offset())...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var items []*Patient
	for rows.Next() {
		p, err := scanPatient(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, p)
	}
	return items, total, rows.Err()
}

func (r *repoPG) Exists(ctx context.Context, id int64) (bool, error) {
	var exists bool
	err := r.conn(ctx).QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM patients WHERE id = $1)`, id).Scan(&exists)
	return exists, err
}
