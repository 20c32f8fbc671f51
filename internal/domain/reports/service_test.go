package reports

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/medneed/medneed/internal/platform/apperr"
)

type mockStore struct {
	needRows   []MedicineReportRow
	patients   []PatientReportRow
	dispRows   []DispensingRow
	dispStats  []DispensingMedicineStat
	daily      []DailyRevenue
	top        []MedicineRevenue
	doctors    []DoctorStat
	prescribed []UsageRow
	dispensed  []UsageRow
	totals     Totals
	err        error

	lastRange DateRange
	lastLimit int
}

func (m *mockStore) MedicineNeedRows(ctx context.Context) ([]MedicineReportRow, error) {
	return m.needRows, m.err
}

func (m *mockStore) PatientRows(ctx context.Context, r DateRange, patientID *int64) ([]PatientReportRow, error) {
	m.lastRange = r
	return m.patients, m.err
}

func (m *mockStore) DispensingRows(ctx context.Context, r DateRange, medicineID *int64) ([]DispensingRow, error) {
	m.lastRange = r
	return m.dispRows, m.err
}

func (m *mockStore) DispensingMedicineStats(ctx context.Context, r DateRange, medicineID *int64) ([]DispensingMedicineStat, error) {
	return m.dispStats, m.err
}

func (m *mockStore) DailyRevenue(ctx context.Context, r DateRange) ([]DailyRevenue, error) {
	m.lastRange = r
	return m.daily, m.err
}

func (m *mockStore) TopMedicinesByRevenue(ctx context.Context, r DateRange, limit int) ([]MedicineRevenue, error) {
	m.lastLimit = limit
	return m.top, m.err
}

func (m *mockStore) DoctorStats(ctx context.Context, r DateRange) ([]DoctorStat, error) {
	return m.doctors, m.err
}

func (m *mockStore) TopPrescribed(ctx context.Context, limit int) ([]UsageRow, error) {
	m.lastLimit = limit
	return m.prescribed, m.err
}

func (m *mockStore) TopDispensed(ctx context.Context, limit int) ([]UsageRow, error) {
	return m.dispensed, m.err
}

func (m *mockStore) Counts(ctx context.Context) (Totals, error) {
	return m.totals, m.err
}

func ptr(v float64) *float64 { return &v }

func almostEqual(a, b float64) bool { return math.Abs(a-b) < 1e-9 }

func TestMedicineReportTotals(t *testing.T) {
	store := &mockStore{needRows: []MedicineReportRow{
		{MedicineID: 1, MNN: "Парацетамол", Price: ptr(100), PatientsCount: 2, TotalNeed: 3},
		{MedicineID: 2, MNN: "Ибупрофен", Price: nil, PatientsCount: 1, TotalNeed: 5},
	}}
	svc := NewService(store)

	report, err := svc.MedicineReport(context.Background())
	if err != nil {
		t.Fatalf("MedicineReport: %v", err)
	}
	if report.Medicines != 2 {
		t.Fatalf("medicines = %d, want 2", report.Medicines)
	}
	if report.Patients != 3 {
		t.Fatalf("patients = %d, want 3", report.Patients)
	}
	// Unknown price folds to zero cost.
	if !almostEqual(report.Rows[0].TotalCost, 300) || !almostEqual(report.Rows[1].TotalCost, 0) {
		t.Fatalf("row costs = %v, %v", report.Rows[0].TotalCost, report.Rows[1].TotalCost)
	}
	if !almostEqual(report.TotalCost, 300) {
		t.Fatalf("total cost = %v, want 300", report.TotalCost)
	}
}

func TestMedicineReportEmpty(t *testing.T) {
	svc := NewService(&mockStore{})
	report, err := svc.MedicineReport(context.Background())
	if err != nil {
		t.Fatalf("MedicineReport: %v", err)
	}
	if report.Medicines != 0 || report.TotalCost != 0 {
		t.Fatalf("empty report got medicines=%d cost=%v", report.Medicines, report.TotalCost)
	}
}

func TestPatientReportRangeValidation(t *testing.T) {
	svc := NewService(&mockStore{})

	cases := []struct {
		name string
		r    DateRange
		ok   bool
	}{
		{"empty", DateRange{}, true},
		{"valid", DateRange{From: "2024-01-01", To: "2024-12-31"}, true},
		{"from only", DateRange{From: "2024-01-01"}, true},
		{"bad from", DateRange{From: "01.01.2024"}, false},
		{"bad to", DateRange{To: "not-a-date"}, false},
		{"inverted", DateRange{From: "2024-12-31", To: "2024-01-01"}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.PatientReport(context.Background(), tc.r, nil)
			if tc.ok && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !tc.ok {
				var ve *apperr.ValidationError
				if !errors.As(err, &ve) {
					t.Fatalf("want validation error, got %v", err)
				}
			}
		})
	}
}

func TestDispensingReportSums(t *testing.T) {
	store := &mockStore{dispRows: []DispensingRow{
		{DispensingID: 1, QuantityPacks: 2, Revenue: 200},
		{DispensingID: 2, QuantityPacks: 1.5, Revenue: 75.5},
	}}
	svc := NewService(store)

	report, err := svc.DispensingReport(context.Background(), DateRange{}, nil)
	if err != nil {
		t.Fatalf("DispensingReport: %v", err)
	}
	if report.Dispensings != 2 {
		t.Fatalf("dispensings = %d, want 2", report.Dispensings)
	}
	if !almostEqual(report.TotalPacks, 3.5) {
		t.Fatalf("total packs = %v, want 3.5", report.TotalPacks)
	}
	if !almostEqual(report.TotalRevenue, 275.5) {
		t.Fatalf("total revenue = %v, want 275.5", report.TotalRevenue)
	}
}

func TestFinancialReportAverages(t *testing.T) {
	store := &mockStore{daily: []DailyRevenue{
		{Dispensings: 2, Revenue: 100},
		{Dispensings: 3, Revenue: 200},
	}}
	svc := NewService(store)

	report, err := svc.FinancialReport(context.Background(), DateRange{})
	if err != nil {
		t.Fatalf("FinancialReport: %v", err)
	}
	if !almostEqual(report.TotalRevenue, 300) {
		t.Fatalf("total revenue = %v, want 300", report.TotalRevenue)
	}
	if !almostEqual(report.AvgDailyRevenue, 150) {
		t.Fatalf("avg daily = %v, want 150", report.AvgDailyRevenue)
	}
	if !almostEqual(report.AvgDispensingValue, 60) {
		t.Fatalf("avg dispensing = %v, want 60", report.AvgDispensingValue)
	}
	if store.lastLimit != topLimit {
		t.Fatalf("top limit = %d, want %d", store.lastLimit, topLimit)
	}
}

func TestFinancialReportEmptyAverages(t *testing.T) {
	svc := NewService(&mockStore{})
	report, err := svc.FinancialReport(context.Background(), DateRange{})
	if err != nil {
		t.Fatalf("FinancialReport: %v", err)
	}
	if report.AvgDailyRevenue != 0 || report.AvgDispensingValue != 0 {
		t.Fatalf("empty averages = %v, %v", report.AvgDailyRevenue, report.AvgDispensingValue)
	}
}

func TestUsageStatistics(t *testing.T) {
	store := &mockStore{
		prescribed: []UsageRow{{MedicineID: 1, Records: 4, QuantityPacks: 8}},
		dispensed:  []UsageRow{{MedicineID: 1, Records: 3, QuantityPacks: 5}},
		totals:     Totals{Patients: 10, Medicines: 4, Prescriptions: 20, Dispensings: 15},
	}
	svc := NewService(store)

	stats, err := svc.UsageStatistics(context.Background())
	if err != nil {
		t.Fatalf("UsageStatistics: %v", err)
	}
	if len(stats.TopPrescribed) != 1 || len(stats.TopDispensed) != 1 {
		t.Fatalf("unexpected top lists: %+v", stats)
	}
	if stats.Totals.Patients != 10 || stats.Totals.Dispensings != 15 {
		t.Fatalf("totals = %+v", stats.Totals)
	}
	if store.lastLimit != topLimit {
		t.Fatalf("top limit = %d, want %d", store.lastLimit, topLimit)
	}
}

func TestStoreErrorPropagates(t *testing.T) {
	wantErr := errors.New("connection reset")
	svc := NewService(&mockStore{err: wantErr})
	if _, err := svc.MedicineReport(context.Background()); !errors.Is(err, wantErr) {
		t.Fatalf("want %v, got %v", wantErr, err)
	}
}
