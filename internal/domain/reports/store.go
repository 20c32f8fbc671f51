package reports

import "context"

// Store exposes the aggregate queries the report builders run. Revenue and
// cost columns already fold unknown prices to 0 at the SQL level.
type Store interface {
	MedicineNeedRows(ctx context.Context) ([]MedicineReportRow, error)
	PatientRows(ctx context.Context, r DateRange, patientID *int64) ([]PatientReportRow, error)
	DispensingRows(ctx context.Context, r DateRange, medicineID *int64) ([]DispensingRow, error)
	DispensingMedicineStats(ctx context.Context, r DateRange, medicineID *int64) ([]DispensingMedicineStat, error)
	DailyRevenue(ctx context.Context, r DateRange) ([]DailyRevenue, error)
	TopMedicinesByRevenue(ctx context.Context, r DateRange, limit int) ([]MedicineRevenue, error)
	DoctorStats(ctx context.Context, r DateRange) ([]DoctorStat, error)
	TopPrescribed(ctx context.Context, limit int) ([]UsageRow, error)
	TopDispensed(ctx context.Context, limit int) ([]UsageRow, error)
	Counts(ctx context.Context) (Totals, error)
}
