package reports

import (
	"context"
	"time"

	"github.com/medneed/medneed/internal/platform/apperr"
)

const topLimit = 10

type Service struct {
	store Store
}

func NewService(store Store) *Service {
	return &Service{store: store}
}

func validateRange(r DateRange) error {
	var ve apperr.ValidationError
	from, errFrom := parseDate(r.From)
	to, errTo := parseDate(r.To)
	if errFrom != nil {
		ve.Add("date_from", "must be a YYYY-MM-DD date")
	}
	if errTo != nil {
		ve.Add("date_to", "must be a YYYY-MM-DD date")
	}
	if errFrom == nil && errTo == nil && r.From != "" && r.To != "" && from.After(to) {
		ve.Add("date_from", "must not be after date_to")
	}
	return ve.Err()
}

func parseDate(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	return time.Parse("2006-01-02", s)
}

// MedicineReport lists every medicine with open need, most expensive first.
// The date window never applies here: need is the all-time balance.
func (s *Service) MedicineReport(ctx context.Context) (*MedicineReport, error) {
	rows, err := s.store.MedicineNeedRows(ctx)
	if err != nil {
		return nil, err
	}
	report := &MedicineReport{Rows: rows, GeneratedAt: time.Now().UTC()}
	for i := range rows {
		price := 0.0
		if rows[i].Price != nil {
			price = *rows[i].Price
		}
		rows[i].TotalCost = rows[i].TotalNeed * price
		report.TotalCost += rows[i].TotalCost
		report.Patients += rows[i].PatientsCount
	}
	report.Medicines = int64(len(rows))
	return report, nil
}

func (s *Service) PatientReport(ctx context.Context, r DateRange, patientID *int64) (*PatientReport, error) {
	if err := validateRange(r); err != nil {
		return nil, err
	}
	rows, err := s.store.PatientRows(ctx, r, patientID)
	if err != nil {
		return nil, err
	}
	return &PatientReport{
		Rows:        rows,
		Patients:    int64(len(rows)),
		GeneratedAt: time.Now().UTC(),
	}, nil
}

func (s *Service) DispensingReport(ctx context.Context, r DateRange, medicineID *int64) (*DispensingReport, error) {
	if err := validateRange(r); err != nil {
		return nil, err
	}
	rows, err := s.store.DispensingRows(ctx, r, medicineID)
	if err != nil {
		return nil, err
	}
	stats, err := s.store.DispensingMedicineStats(ctx, r, medicineID)
	if err != nil {
		return nil, err
	}
	report := &DispensingReport{
		Rows:          rows,
		MedicineStats: stats,
		Dispensings:   int64(len(rows)),
		GeneratedAt:   time.Now().UTC(),
	}
	for _, row := range rows {
		report.TotalPacks += row.QuantityPacks
		report.TotalRevenue += row.Revenue
	}
	return report, nil
}

func (s *Service) FinancialReport(ctx context.Context, r DateRange) (*FinancialReport, error) {
	if err := validateRange(r); err != nil {
		return nil, err
	}
	daily, err := s.store.DailyRevenue(ctx, r)
	if err != nil {
		return nil, err
	}
	top, err := s.store.TopMedicinesByRevenue(ctx, r, topLimit)
	if err != nil {
		return nil, err
	}
	doctors, err := s.store.DoctorStats(ctx, r)
	if err != nil {
		return nil, err
	}
	report := &FinancialReport{
		DailyRevenue: daily,
		TopMedicines: top,
		DoctorStats:  doctors,
		GeneratedAt:  time.Now().UTC(),
	}
	for _, day := range daily {
		report.TotalRevenue += day.Revenue
		report.Dispensings += day.Dispensings
	}
	if report.Dispensings > 0 {
		report.AvgDispensingValue = report.TotalRevenue / float64(report.Dispensings)
	}
	if len(daily) > 0 {
		report.AvgDailyRevenue = report.TotalRevenue / float64(len(daily))
	}
	return report, nil
}

func (s *Service) UsageStatistics(ctx context.Context) (*UsageStatistics, error) {
	prescribed, err := s.store.TopPrescribed(ctx, topLimit)
	if err != nil {
		return nil, err
	}
	dispensed, err := s.store.TopDispensed(ctx, topLimit)
	if err != nil {
		return nil, err
	}
	totals, err := s.store.Counts(ctx)
	if err != nil {
		return nil, err
	}
	return &UsageStatistics{
		TopPrescribed: prescribed,
		TopDispensed:  dispensed,
		Totals:        totals,
		GeneratedAt:   time.Now().UTC(),
	}, nil
}
