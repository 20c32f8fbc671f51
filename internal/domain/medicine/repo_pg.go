package medicine

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

const cols = `id, smmn_node_code, section, standardized_mnn, trade_name_vk,
	standardized_dosage_form, standardized_dosage, characteristic, packaging, price,
	created_at, updated_at`

func scanMedicine(row pgx.Row) (*Medicine, error) {
	var m Medicine
	err := row.Scan(&m.ID, &m.Code, &m.Section, &m.MNN, &m.TradeName,
		&m.DosageForm, &m.Dosage, &m.Characteristic, &m.Packaging, &m.Price,
		&m.CreatedAt, &m.UpdatedAt)
	return &m, err
}

func (r *repoPG) Create(ctx context.Context, m *Medicine) error {
	return r.conn(ctx).QueryRow(ctx, `
		INSERT INTO medicines (smmn_node_code, section, standardized_mnn, trade_name_vk,
			standardized_dosage_form, standardized_dosage, characteristic, packaging, price)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, created_at, updated_at`,
		m.Code, m.Section, m.MNN, m.TradeName,
		m.DosageForm, m.Dosage, m.Characteristic, m.Packaging, m.Price,
	).Scan(&m.ID, &m.CreatedAt, &m.UpdatedAt)
}

func (r *repoPG) GetByID(ctx context.Context, id int64) (*Medicine, error) {
	m, err := scanMedicine(r.conn(ctx).QueryRow(ctx,
		`SELECT `+cols+` FROM medicines WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("medicine %d: %w", id, apperr.ErrNotFound)
	}
	return m, err
}

func (r *repoPG) Update(ctx context.Context, m *Medicine) error {
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE medicines SET smmn_node_code=$2, section=$3, standardized_mnn=$4,
			trade_name_vk=$5, standardized_dosage_form=$6, standardized_dosage=$7,
			characteristic=$8, packaging=$9, price=$10, updated_at=NOW()
		WHERE id = $1`,
		m.ID, m.Code, m.Section, m.MNN,
		m.TradeName, m.DosageForm, m.Dosage,
		m.Characteristic, m.Packaging, m.Price)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("medicine %d: %w", m.ID, apperr.ErrNotFound)
	}
	return nil
}

func (r *repoPG) Delete(ctx context.Context, id int64) error {
	tag, err := r.conn(ctx).Exec(ctx, `DELETE FROM medicines WHERE id = $1`, id)
	if err != nil {
		var pgErr *pgconn.PgError
		// 23503: foreign_key_violation
		if errors.As(err, &pgErr) && pgErr.Code == "23503" {
			return fmt.Errorf("medicine %d is referenced by ledger records: %w", id, apperr.ErrConflict)
		}
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("medicine %d: %w", id, apperr.ErrNotFound)
	}
	return nil
}

var sortKeys = map[string]query.SortKey{
	"mnn":        {Column: "standardized_mnn"},
	"trade_name": {Column: "trade_name_vk"},
	"price":      {Column: "price"},
	"created_at": {Column: "created_at"},
}

func (r *repoPG) List(ctx context.Context, opts ListOptions) ([]*Medicine, int64, error) {
	qb := query.NewListQuery("medicines", cols)
	qb.Search(opts.Search, "trade_name_vk", "standardized_mnn", "section")
	if opts.MinPrice != nil {
		qb.Add(fmt.Sprintf("price >= $%d", qb.Idx()), *opts.MinPrice)
	}
	if opts.MaxPrice != nil {
		qb.Add(fmt.Sprintf("price <= $%d", qb.Idx()), *opts.MaxPrice)
	}
	qb.ApplySort(opts.Sort, "standardized_mnn ASC", sortKeys)

	var total int64
	if err := r.conn(ctx).QueryRow(ctx, qb.CountSQL(), qb.CountArgs()...).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.conn(ctx).Query(ctx, qb.DataSQL(), qb.DataArgs(opts.Page.Limit(), opts.Page.Offset())...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var items []*Medicine
	for rows.Next() {
		m, err := scanMedicine(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, m)
	}
	return items, total, rows.Err()
}

func (r *repoPG) Exists(ctx context.Context, id int64) (bool, error) {
	var exists bool
	err := r.conn(ctx).QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM medicines WHERE id = $1)`, id).Scan(&exists)
	return exists, err
}
