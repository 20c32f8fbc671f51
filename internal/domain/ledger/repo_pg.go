package ledger

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

func conn(ctx context.Context, pool *pgxpool.Pool) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	if c := db.ConnFromContext(ctx); c != nil {
		return c
	}
	return pool
}

// =========== Prescription Repository ===========

type prescriptionRepoPG struct{ pool *pgxpool.Pool }

func NewPrescriptionRepoPG(pool *pgxpool.Pool) PrescriptionRepository {
	return &prescriptionRepoPG{pool: pool}
}

const prescriptionCols = `id, patient_id, medicine_id, prescription_date, quantity_packs,
	daily_dose, treatment_days, created_at`

func scanPrescription(row pgx.Row) (*Prescription, error) {
	var p Prescription
	err := row.Scan(&p.ID, &p.PatientID, &p.MedicineID, &p.Date, &p.QuantityPacks,
		&p.DailyDose, &p.TreatmentDays, &p.CreatedAt)
	return &p, err
}

func (r *prescriptionRepoPG) Create(ctx context.Context, p *Prescription) error {
	return conn(ctx, r.pool).QueryRow(ctx, `
		INSERT INTO prescriptions (patient_id, medicine_id, prescription_date, quantity_packs,
			daily_dose, treatment_days)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at`,
		p.PatientID, p.MedicineID, p.Date, p.QuantityPacks,
		p.DailyDose, p.TreatmentDays,
	).Scan(&p.ID, &p.CreatedAt)
}

func (r *prescriptionRepoPG) GetByID(ctx context.Context, id int64) (*Prescription, error) {
	p, err := scanPrescription(conn(ctx, r.pool).QueryRow(ctx,
		`SELECT `+prescriptionCols+` FROM prescriptions WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("prescription %d: %w", id, apperr.ErrNotFound)
	}
	return p, err
}

func (r *prescriptionRepoPG) Update(ctx context.Context, p *Prescription) error {
	tag, err := conn(ctx, r.pool).Exec(ctx, `
		UPDATE prescriptions
		SET patient_id = $1, medicine_id = $2, prescription_date = $3, quantity_packs = $4,
			daily_dose = $5, treatment_days = $6
		WHERE id = $7`,
		p.PatientID, p.MedicineID, p.Date, p.QuantityPacks,
		p.DailyDose, p.TreatmentDays, p.ID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("prescription %d: %w", p.ID, apperr.ErrNotFound)
	}
	return nil
}

func (r *prescriptionRepoPG) Delete(ctx context.Context, id int64) error {
	tag, err := conn(ctx, r.pool).Exec(ctx, `DELETE FROM prescriptions WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("prescription %d: %w", id, apperr.ErrNotFound)
	}
	return nil
}

func (r *prescriptionRepoPG) List(ctx context.Context, opts ListOptions) ([]*Prescription, int64, error) {
	qb := query.NewListQuery("prescriptions", prescriptionCols)
	if opts.PatientID != nil {
		qb.Filter("patient_id", *opts.PatientID)
	}
	if opts.MedicineID != nil {
		qb.Filter("medicine_id", *opts.MedicineID)
	}
	qb.DateRange("prescription_date", opts.DateFrom, opts.DateTo)
	qb.ApplySort(opts.Sort, "prescription_date DESC, id DESC",
		map[string]query.SortKey{"date": {Column: "prescription_date"}, "quantity": {Column: "quantity_packs"}})

	var total int64
	if err := conn(ctx, r.pool).QueryRow(ctx, qb.CountSQL(), qb.CountArgs()...).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := conn(ctx, r.pool).Query(ctx, qb.DataSQL(), qb.DataArgs(opts.Page.Limit(), opts.Page.Offset())...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var items []*Prescription
	for rows.Next() {
		p, err := scanPrescription(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, p)
	}
	return items, total, rows.Err()
}

func (r *prescriptionRepoPG) SumForPair(ctx context.Context, patientID, medicineID int64) (float64, error) {
	var sum float64
	err := conn(ctx, r.pool).QueryRow(ctx, `
		SELECT COALESCE(SUM(quantity_packs), 0) FROM prescriptions
		WHERE patient_id = $1 AND medicine_id = $2`,
		patientID, medicineID).Scan(&sum)
	return sum, err
}

func (r *prescriptionRepoPG) LastForPair(ctx context.Context, patientID, medicineID int64) (*Prescription, error) {
	p, err := scanPrescription(conn(ctx, r.pool).QueryRow(ctx, `
		SELECT `+prescriptionCols+` FROM prescriptions
		WHERE patient_id = $1 AND medicine_id = $2
		ORDER BY prescription_date DESC, id DESC LIMIT 1`,
		patientID, medicineID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return p, err
}

func (r *prescriptionRepoPG) PrescribedMedicines(ctx context.Context, patientID int64) ([]PrescribedMedicine, error) {
	rows, err := conn(ctx, r.pool).Query(ctx, `
		SELECT DISTINCT m.id, m.standardized_mnn, m.trade_name_vk, m.standardized_dosage, m.price
		FROM prescriptions p
		JOIN medicines m ON m.id = p.medicine_id
		WHERE p.patient_id = $1
		ORDER BY m.standardized_mnn`, patientID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []PrescribedMedicine
	for rows.Next() {
		var pm PrescribedMedicine
		if err := rows.Scan(&pm.MedicineID, &pm.MNN, &pm.TradeName, &pm.Dosage, &pm.Price); err != nil {
			return nil, err
		}
		items = append(items, pm)
	}
	return items, rows.Err()
}

func (r *prescriptionRepoPG) HistoryForPatient(ctx context.Context, patientID int64) ([]HistoryRow, error) {
	return historyRows(ctx, conn(ctx, r.pool), `
		SELECT p.id, m.id, m.standardized_mnn, m.trade_name_vk, p.prescription_date, p.quantity_packs
		FROM prescriptions p
		JOIN medicines m ON m.id = p.medicine_id
		WHERE p.patient_id = $1
		ORDER BY p.prescription_date DESC, p.id DESC`, patientID)
}

// =========== Dispensing Repository ===========

type dispensingRepoPG struct{ pool *pgxpool.Pool }

func NewDispensingRepoPG(pool *pgxpool.Pool) DispensingRepository {
	return &dispensingRepoPG{pool: pool}
}

const dispensingCols = `id, patient_id, medicine_id, dispensing_date, quantity_packs, created_at`

func scanDispensing(row pgx.Row) (*Dispensing, error) {
	var d Dispensing
	err := row.Scan(&d.ID, &d.PatientID, &d.MedicineID, &d.Date, &d.QuantityPacks, &d.CreatedAt)
	return &d, err
}

func (r *dispensingRepoPG) Create(ctx context.Context, d *Dispensing) error {
	return conn(ctx, r.pool).QueryRow(ctx, `
		INSERT INTO dispensings (patient_id, medicine_id, dispensing_date, quantity_packs)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at`,
		d.PatientID, d.MedicineID, d.Date, d.QuantityPacks,
	).Scan(&d.ID, &d.CreatedAt)
}

func (r *dispensingRepoPG) GetByID(ctx context.Context, id int64) (*Dispensing, error) {
	d, err := scanDispensing(conn(ctx, r.pool).QueryRow(ctx,
		`SELECT `+dispensingCols+` FROM dispensings WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("dispensing %d: %w", id, apperr.ErrNotFound)
	}
	return d, err
}

func (r *dispensingRepoPG) Update(ctx context.Context, d *Dispensing) error {
	tag, err := conn(ctx, r.pool).Exec(ctx, `
		UPDATE dispensings
		SET patient_id = $1, medicine_id = $2, dispensing_date = $3, quantity_packs = $4
		WHERE id = $5`,
		d.PatientID, d.MedicineID, d.Date, d.QuantityPacks, d.ID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("dispensing %d: %w", d.ID, apperr.ErrNotFound)
	}
	return nil
}

func (r *dispensingRepoPG) Delete(ctx context.Context, id int64) error {
	tag, err := conn(ctx, r.pool).Exec(ctx, `DELETE FROM dispensings WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("dispensing %d: %w", id, apperr.ErrNotFound)
	}
	return nil
}

func (r *dispensingRepoPG) List(ctx context.Context, opts ListOptions) ([]*Dispensing, int64, error) {
	qb := query.NewListQuery("dispensings", dispensingCols)
	if opts.PatientID != nil {
		qb.Filter("patient_id", *opts.PatientID)
	}
	if opts.MedicineID != nil {
		qb.Filter("medicine_id", *opts.MedicineID)
	}
	qb.DateRange("dispensing_date", opts.DateFrom, opts.DateTo)
	qb.ApplySort(opts.Sort, "dispensing_date DESC, id DESC",
		map[string]query.SortKey{"date": {Column: "dispensing_date"}, "quantity": {Column: "quantity_packs"}})

	var total int64
	if err := conn(ctx, r.pool).QueryRow(ctx, qb.CountSQL(), qb.CountArgs()...).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := conn(ctx, r.pool).Query(ctx, qb.DataSQL(), qb.DataArgs(opts.Page.Limit(), opts.Page.Offset())...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var items []*Dispensing
	for rows.Next() {
		d, err := scanDispensing(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, d)
	}
	return items, total, rows.Err()
}

func (r *dispensingRepoPG) SumForPair(ctx context.Context, patientID, medicineID int64) (float64, error) {
	var sum float64
	err := conn(ctx, r.pool).QueryRow(ctx, `
		SELECT COALESCE(SUM(quantity_packs), 0) FROM dispensings
		WHERE patient_id = $1 AND medicine_id = $2`,
		patientID, medicineID).Scan(&sum)
	return sum, err
}

func (r *dispensingRepoPG) LastForPair(ctx context.Context, patientID, medicineID int64) (*Dispensing, error) {
	d, err := scanDispensing(conn(ctx, r.pool).QueryRow(ctx, `
		SELECT `+dispensingCols+` FROM dispensings
		WHERE patient_id = $1 AND medicine_id = $2
		ORDER BY dispensing_date DESC, id DESC LIMIT 1`,
		patientID, medicineID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return d, err
}

func (r *dispensingRepoPG) HistoryForPatient(ctx context.Context, patientID int64) ([]HistoryRow, error) {
	return historyRows(ctx, conn(ctx, r.pool), `
		SELECT d.id, m.id, m.standardized_mnn, m.trade_name_vk, d.dispensing_date, d.quantity_packs
		FROM dispensings d
		JOIN medicines m ON m.id = d.medicine_id
		WHERE d.patient_id = $1
		ORDER BY d.dispensing_date DESC, d.id DESC`, patientID)
}

func historyRows(ctx context.Context, q queryable, sql string, patientID int64) ([]HistoryRow, error) {
	rows, err := q.Query(ctx, sql, patientID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []HistoryRow
	for rows.Next() {
		var h HistoryRow
		if err := rows.Scan(&h.ID, &h.MedicineID, &h.MNN, &h.TradeName, &h.Date, &h.QuantityPacks); err != nil {
			return nil, err
		}
		items = append(items, h)
	}
	return items, rows.Err()
}
