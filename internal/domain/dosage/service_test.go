package dosage

import (
	"context"
	"errors"
	"testing"

	"github.com/medneed/medneed/internal/domain/medicine"
	"github.com/medneed/medneed/internal/platform/apperr"
)

type mockMedicines struct {
	items map[int64]*medicine.Medicine
}

func (m *mockMedicines) Get(ctx context.Context, id int64) (*medicine.Medicine, error) {
	med, ok := m.items[id]
	if !ok {
		return nil, apperr.ErrNotFound
	}
	return med, nil
}

func newService() *Service {
	return NewService(&mockMedicines{items: map[int64]*medicine.Medicine{
		1: {ID: 1, TradeName: "Панадол", DosageForm: "таблетки", Dosage: "500 мг", Packaging: "№10"},
		2: {ID: 2, TradeName: "Сальбутамол", DosageForm: "аэрозоль", Dosage: "100 мкг/доза", Packaging: "200 доз"},
		3: {ID: 3, TradeName: "Неизвестный", DosageForm: "капли", Dosage: "без числа", Packaging: "№1"},
	}})
}

func TestCalculate(t *testing.T) {
	svc := newService()
	calc, err := svc.Calculate(context.Background(), Input{MedicineID: 1, DailyDoseMg: 1000, TreatmentDays: 30})
	if err != nil {
		t.Fatalf("Calculate: %v", err)
	}
	if calc.PackagesNeeded != 6 {
		t.Fatalf("packages = %d, want 6", calc.PackagesNeeded)
	}
	if calc.MedicineName != "Панадол" || calc.DosageForm != "таблетки" {
		t.Fatalf("medicine info = %q %q", calc.MedicineName, calc.DosageForm)
	}
}

func TestCalculateValidation(t *testing.T) {
	svc := newService()
	cases := []struct {
		name string
		in   Input
	}{
		{"zero dose", Input{MedicineID: 1, DailyDoseMg: 0, TreatmentDays: 10}},
		{"negative dose", Input{MedicineID: 1, DailyDoseMg: -5, TreatmentDays: 10}},
		{"huge dose", Input{MedicineID: 1, DailyDoseMg: 10001, TreatmentDays: 10}},
		{"zero days", Input{MedicineID: 1, DailyDoseMg: 100, TreatmentDays: 0}},
		{"too many days", Input{MedicineID: 1, DailyDoseMg: 100, TreatmentDays: 366}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Calculate(context.Background(), tc.in)
			var ve *apperr.ValidationError
			if !errors.As(err, &ve) {
				t.Fatalf("want validation error, got %v", err)
			}
		})
	}
}

func TestCalculateUnknownMedicine(t *testing.T) {
	svc := newService()
	_, err := svc.Calculate(context.Background(), Input{MedicineID: 99, DailyDoseMg: 100, TreatmentDays: 10})
	if !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("want ErrNotFound, got %v", err)
	}
}

func TestCalculateUndeterminableDosage(t *testing.T) {
	svc := newService()
	_, err := svc.Calculate(context.Background(), Input{MedicineID: 3, DailyDoseMg: 100, TreatmentDays: 10})
	var ve *apperr.ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("want validation error, got %v", err)
	}
}

func TestRecommendTablets(t *testing.T) {
	svc := newService()
	rec, err := svc.Recommend(context.Background(), 1)
	if err != nil {
		t.Fatalf("Recommend: %v", err)
	}
	if len(rec.SuggestedDoses) != 3 {
		t.Fatalf("suggestions = %d, want 3", len(rec.SuggestedDoses))
	}
	if rec.SuggestedDoses[1].DoseMg != 1000 {
		t.Fatalf("second suggestion = %v, want 1000", rec.SuggestedDoses[1].DoseMg)
	}
	if rec.UnitsPerPackage != 10 {
		t.Fatalf("units per package = %v, want 10", rec.UnitsPerPackage)
	}
}

func TestRecommendAerosol(t *testing.T) {
	svc := newService()
	rec, err := svc.Recommend(context.Background(), 2)
	if err != nil {
		t.Fatalf("Recommend: %v", err)
	}
	if len(rec.SuggestedDoses) != 3 {
		t.Fatalf("suggestions = %d, want 3", len(rec.SuggestedDoses))
	}
	// 100 мкг per inhalation is 0.1 mg, two a day is 0.2 mg.
	if rec.SuggestedDoses[0].DoseMg != 0.2 {
		t.Fatalf("first suggestion = %v, want 0.2", rec.SuggestedDoses[0].DoseMg)
	}
}
