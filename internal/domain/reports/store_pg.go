package reports

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/medneed/medneed/internal/platform/db"
)

type queryable interface {
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
}

type storePG struct{ pool *pgxpool.Pool }

func NewStorePG(pool *pgxpool.Pool) Store {
	return &storePG{pool: pool}
}

func (s *storePG) conn(ctx context.Context) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	if c := db.ConnFromContext(ctx); c != nil {
		return c
	}
	return s.pool
}

// nullable maps an empty date bound to SQL NULL so the fixed
// ($n::date IS NULL OR ...) placeholders skip the check.
func nullable(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

func (s *storePG) MedicineNeedRows(ctx context.Context) ([]MedicineReportRow, error) {
	rows, err := s.conn(ctx).Query(ctx, `
		WITH pair_prescribed AS (
			SELECT patient_id, medicine_id, SUM(quantity_packs) AS qty
			FROM prescriptions GROUP BY patient_id, medicine_id
		), pair_dispensed AS (
			SELECT patient_id, medicine_id, SUM(quantity_packs) AS qty
			FROM dispensings GROUP BY patient_id, medicine_id
		), needs AS (
			SELECT pp.medicine_id,
			       GREATEST(pp.qty - COALESCE(pd.qty, 0), 0) AS need
			FROM pair_prescribed pp
			LEFT JOIN pair_dispensed pd
			  ON pd.patient_id = pp.patient_id AND pd.medicine_id = pp.medicine_id
		)
		SELECT m.id, m.standardized_mnn, m.trade_name_vk, m.standardized_dosage,
		       m.packaging, m.price,
		       COUNT(*) FILTER (WHERE n.need > 0) AS patients_count,
		       COALESCE(SUM(n.need) FILTER (WHERE n.need > 0), 0) AS total_need
		FROM needs n
		JOIN medicines m ON m.id = n.medicine_id
		GROUP BY m.id, m.standardized_mnn, m.trade_name_vk, m.standardized_dosage,
		         m.packaging, m.price
		HAVING COUNT(*) FILTER (WHERE n.need > 0) > 0
		ORDER BY COALESCE(SUM(n.need) FILTER (WHERE n.need > 0), 0) * COALESCE(m.price, 0) DESC,
		         m.id ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []MedicineReportRow
	for rows.Next() {
		var r MedicineReportRow
		if err := rows.Scan(&r.MedicineID, &r.MNN, &r.TradeName, &r.Dosage,
			&r.Packaging, &r.Price, &r.PatientsCount, &r.TotalNeed); err != nil {
			return nil, err
		}
		items = append(items, r)
	}
	return items, rows.Err()
}

func (s *storePG) PatientRows(ctx context.Context, r DateRange, patientID *int64) ([]PatientReportRow, error) {
	rows, err := s.conn(ctx).Query(ctx, `
		SELECT p.id, p.fio, p.birth_year, p.diagnosis, p.attending_doctor,
		       COALESCE(pr.cnt, 0), COALESCE(d.cnt, 0),
		       COALESCE(pr.qty, 0), COALESCE(d.qty, 0)
		FROM patients p
		LEFT JOIN (
			SELECT patient_id, COUNT(*) AS cnt, SUM(quantity_packs) AS qty
			FROM prescriptions
			WHERE ($1::date IS NULL OR prescription_date >= $1)
			  AND ($2::date IS NULL OR prescription_date <= $2)
			GROUP BY patient_id
		) pr ON pr.patient_id = p.id
		LEFT JOIN (
			SELECT patient_id, COUNT(*) AS cnt, SUM(quantity_packs) AS qty
			FROM dispensings
			WHERE ($1::date IS NULL OR dispensing_date >= $1)
			  AND ($2::date IS NULL OR dispensing_date <= $2)
			GROUP BY patient_id
		) d ON d.patient_id = p.id
		WHERE ($3::bigint IS NULL OR p.id = $3)
		ORDER BY p.fio ASC, p.id ASC`,
		nullable(r.From), nullable(r.To), patientID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []PatientReportRow
	for rows.Next() {
		var row PatientReportRow
		if err := rows.Scan(&row.PatientID, &row.FullName, &row.BirthYear, &row.Diagnosis,
			&row.AttendingDoctor, &row.PrescriptionsCount, &row.DispensingsCount,
			&row.TotalPrescribed, &row.TotalDispensed); err != nil {
			return nil, err
		}
		items = append(items, row)
	}
	return items, rows.Err()
}

func (s *storePG) DispensingRows(ctx context.Context, r DateRange, medicineID *int64) ([]DispensingRow, error) {
	rows, err := s.conn(ctx).Query(ctx, `
		SELECT d.id, d.dispensing_date, p.fio, m.standardized_mnn, m.trade_name_vk,
		       d.quantity_packs, d.quantity_packs * COALESCE(m.price, 0) AS revenue
		FROM dispensings d
		JOIN patients p ON p.id = d.patient_id
		JOIN medicines m ON m.id = d.medicine_id
		WHERE ($1::date IS NULL OR d.dispensing_date >= $1)
		  AND ($2::date IS NULL OR d.dispensing_date <= $2)
		  AND ($3::bigint IS NULL OR d.medicine_id = $3)
		ORDER BY d.dispensing_date DESC, d.id DESC`,
		nullable(r.From), nullable(r.To), medicineID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []DispensingRow
	for rows.Next() {
		var row DispensingRow
		if err := rows.Scan(&row.DispensingID, &row.Date, &row.PatientName, &row.MNN,
			&row.TradeName, &row.QuantityPacks, &row.Revenue); err != nil {
			return nil, err
		}
		items = append(items, row)
	}
	return items, rows.Err()
}

func (s *storePG) DispensingMedicineStats(ctx context.Context, r DateRange, medicineID *int64) ([]DispensingMedicineStat, error) {
	rows, err := s.conn(ctx).Query(ctx, `
		SELECT m.id, m.standardized_mnn, m.trade_name_vk,
		       COUNT(*) AS dispensings,
		       COALESCE(SUM(d.quantity_packs), 0) AS packs,
		       COALESCE(SUM(d.quantity_packs * COALESCE(m.price, 0)), 0) AS revenue
		FROM dispensings d
		JOIN medicines m ON m.id = d.medicine_id
		WHERE ($1::date IS NULL OR d.dispensing_date >= $1)
		  AND ($2::date IS NULL OR d.dispensing_date <= $2)
		  AND ($3::bigint IS NULL OR d.medicine_id = $3)
		GROUP BY m.id, m.standardized_mnn, m.trade_name_vk
		ORDER BY revenue DESC, m.id ASC`,
		nullable(r.From), nullable(r.To), medicineID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []DispensingMedicineStat
	for rows.Next() {
		var row DispensingMedicineStat
		if err := rows.Scan(&row.MedicineID, &row.MNN, &row.TradeName,
			&row.Dispensings, &row.QuantityPacks, &row.Revenue); err != nil {
			return nil, err
		}
		items = append(items, row)
	}
	return items, rows.Err()
}

func (s *storePG) DailyRevenue(ctx context.Context, r DateRange) ([]DailyRevenue, error) {
	rows, err := s.conn(ctx).Query(ctx, `
		SELECT d.dispensing_date, COUNT(*),
		       COALESCE(SUM(d.quantity_packs * COALESCE(m.price, 0)), 0) AS revenue
		FROM dispensings d
		JOIN medicines m ON m.id = d.medicine_id
		WHERE ($1::date IS NULL OR d.dispensing_date >= $1)
		  AND ($2::date IS NULL OR d.dispensing_date <= $2)
		GROUP BY d.dispensing_date
		ORDER BY d.dispensing_date ASC`,
		nullable(r.From), nullable(r.To))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []DailyRevenue
	for rows.Next() {
		var row DailyRevenue
		if err := rows.Scan(&row.Date, &row.Dispensings, &row.Revenue); err != nil {
			return nil, err
		}
		items = append(items, row)
	}
	return items, rows.Err()
}

func (s *storePG) TopMedicinesByRevenue(ctx context.Context, r DateRange, limit int) ([]MedicineRevenue, error) {
	rows, err := s.conn(ctx).Query(ctx, `
		SELECT m.id, m.standardized_mnn, m.trade_name_vk,
		       COALESCE(SUM(d.quantity_packs * COALESCE(m.price, 0)), 0) AS revenue
		FROM dispensings d
		JOIN medicines m ON m.id = d.medicine_id
		WHERE ($1::date IS NULL OR d.dispensing_date >= $1)
		  AND ($2::date IS NULL OR d.dispensing_date <= $2)
		GROUP BY m.id, m.standardized_mnn, m.trade_name_vk
		ORDER BY revenue DESC, m.id ASC
		LIMIT $3`,
		nullable(r.From), nullable(r.To), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []MedicineRevenue
	for rows.Next() {
		var row MedicineRevenue
		if err := rows.Scan(&row.MedicineID, &row.MNN, &row.TradeName, &row.Revenue); err != nil {
			return nil, err
		}
		items = append(items, row)
	}
	return items, rows.Err()
}

func (s *storePG) DoctorStats(ctx context.Context, r DateRange) ([]DoctorStat, error) {
	rows, err := s.conn(ctx).Query(ctx, `
		SELECT p.attending_doctor,
		       COUNT(DISTINCT p.id) AS patients,
		       COUNT(pr.id) AS prescriptions
		FROM patients p
		JOIN prescriptions pr ON pr.patient_id = p.id
		WHERE ($1::date IS NULL OR pr.prescription_date >= $1)
		  AND ($2::date IS NULL OR pr.prescription_date <= $2)
		GROUP BY p.attending_doctor
		ORDER BY prescriptions DESC, p.attending_doctor ASC`,
		nullable(r.From), nullable(r.To))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []DoctorStat
	for rows.Next() {
		var row DoctorStat
		if err := rows.Scan(&row.Doctor, &row.Patients, &row.PrescriptionsCount); err != nil {
			return nil, err
		}
		items = append(items, row)
	}
	return items, rows.Err()
}

func (s *storePG) TopPrescribed(ctx context.Context, limit int) ([]UsageRow, error) {
	return s.usageRows(ctx, `
		SELECT m.id, m.standardized_mnn, m.trade_name_vk,
		       COUNT(*) AS records, COALESCE(SUM(pr.quantity_packs), 0) AS packs
		FROM prescriptions pr
		JOIN medicines m ON m.id = pr.medicine_id
		GROUP BY m.id, m.standardized_mnn, m.trade_name_vk
		ORDER BY packs DESC, m.id ASC
		LIMIT $1`, limit)
}

func (s *storePG) TopDispensed(ctx context.Context, limit int) ([]UsageRow, error) {
	return s.usageRows(ctx, `
		SELECT m.id, m.standardized_mnn, m.trade_name_vk,
		       COUNT(*) AS records, COALESCE(SUM(d.quantity_packs), 0) AS packs
		FROM dispensings d
		JOIN medicines m ON m.id = d.medicine_id
		GROUP BY m.id, m.standardized_mnn, m.trade_name_vk
		ORDER BY packs DESC, m.id ASC
		LIMIT $1`, limit)
}

func (s *storePG) usageRows(ctx context.Context, sql string, limit int) ([]UsageRow, error) {
	rows, err := s.conn(ctx).Query(ctx, sql, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []UsageRow
	for rows.Next() {
		var row UsageRow
		if err := rows.Scan(&row.MedicineID, &row.MNN, &row.TradeName,
			&row.Records, &row.QuantityPacks); err != nil {
			return nil, err
		}
		items = append(items, row)
	}
	return items, rows.Err()
}

func (s *storePG) Counts(ctx context.Context) (Totals, error) {
	var t Totals
	err := s.conn(ctx).QueryRow(ctx, `
		SELECT (SELECT COUNT(*) FROM patients),
		       (SELECT COUNT(*) FROM medicines),
		       (SELECT COUNT(*) FROM prescriptions),
		       (SELECT COUNT(*) FROM dispensings)`,
	).Scan(&t.Patients, &t.Medicines, &t.Prescriptions, &t.Dispensings)
	return t, err
}
