package dosage

import (
	"context"
	"strings"

	"github.com/medneed/medneed/internal/platform/apperr"

	"github.com/medneed/medneed/internal/domain/medicine"
)

const (
	maxTreatmentDays = 365
	maxDailyDoseMg   = 10000
)

// MedicineGetter resolves the medicine the calculation runs against.
// Satisfied by medicine.Service.
type MedicineGetter interface {
	Get(ctx context.Context, id int64) (*medicine.Medicine, error)
}

type Service struct {
	medicines MedicineGetter
}

func NewService(medicines MedicineGetter) *Service {
	return &Service{medicines: medicines}
}

// Input is a calculation request. DailyDoseMg is in milligrams.
type Input struct {
	MedicineID    int64   `json:"medicine_id"`
	DailyDoseMg   float64 `json:"daily_dose_mg"`
	TreatmentDays int     `json:"treatment_days"`
}

func (in Input) validate() error {
	var ve apperr.ValidationError
	if in.DailyDoseMg <= 0 {
		ve.Add("daily_dose_mg", "must be greater than 0")
	} else if in.DailyDoseMg > maxDailyDoseMg {
		ve.Add("daily_dose_mg", "must not exceed %d mg", maxDailyDoseMg)
	}
	if in.TreatmentDays <= 0 {
		ve.Add("treatment_days", "must be greater than 0")
	} else if in.TreatmentDays > maxTreatmentDays {
		ve.Add("treatment_days", "must not exceed %d days", maxTreatmentDays)
	}
	return ve.Err()
}

// Calculate returns the whole-package count covering the requested course.
// Medicines whose dosage or packaging text carries no parseable number are
// rejected as a validation failure.
func (s *Service) Calculate(ctx context.Context, in Input) (*Calculation, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	med, err := s.medicines.Get(ctx, in.MedicineID)
	if err != nil {
		return nil, err
	}
	calc, ok := RequiredPackages(med.Dosage, med.UnitsPerPack(), in.DailyDoseMg, in.TreatmentDays)
	if !ok {
		var ve apperr.ValidationError
		ve.Add("medicine_id", "dosage cannot be determined for this medicine")
		return nil, ve.Err()
	}
	calc.MedicineName = med.TradeName
	calc.DosageForm = med.DosageForm
	return &calc, nil
}

// SuggestedDose is one typical daily dose for a medicine.
type SuggestedDose struct {
	DoseMg      float64 `json:"dose_mg"`
	Description string  `json:"description"`
}

// Recommendations carries typical daily doses derived from the dosage form.
type Recommendations struct {
	MedicineID      int64           `json:"medicine_id"`
	DosePerUnit     float64         `json:"dose_per_unit"`
	UnitsPerPackage float64         `json:"units_per_package"`
	SuggestedDoses  []SuggestedDose `json:"suggested_daily_doses"`
}

// Recommend lists typical daily doses for the medicine. Tablet forms get one
// to three units a day, aerosols two to six inhalations, anything else one
// or two units.
func (s *Service) Recommend(ctx context.Context, medicineID int64) (*Recommendations, error) {
	med, err := s.medicines.Get(ctx, medicineID)
	if err != nil {
		return nil, err
	}
	dosePerUnit := ExtractDosageValue(med.Dosage)
	rec := &Recommendations{
		MedicineID:      med.ID,
		DosePerUnit:     dosePerUnit,
		UnitsPerPackage: med.UnitsPerPack(),
	}
	form := strings.ToLower(med.DosageForm)
	switch {
	case strings.Contains(form, "таблетки"):
		rec.SuggestedDoses = []SuggestedDose{
			{DoseMg: dosePerUnit, Description: "1 таблетка в день"},
			{DoseMg: dosePerUnit * 2, Description: "2 таблетки в день"},
			{DoseMg: dosePerUnit * 3, Description: "3 таблетки в день"},
		}
	case strings.Contains(form, "аэрозоль"):
		rec.SuggestedDoses = []SuggestedDose{
			{DoseMg: dosePerUnit * 2, Description: "2 ингаляции в день"},
			{DoseMg: dosePerUnit * 4, Description: "4 ингаляции в день"},
			{DoseMg: dosePerUnit * 6, Description: "6 ингаляций в день"},
		}
	default:
		rec.SuggestedDoses = []SuggestedDose{
			{DoseMg: dosePerUnit, Description: "1 " + med.DosageForm + " в день"},
			{DoseMg: dosePerUnit * 2, Description: "2 " + med.DosageForm + " в день"},
		}
	}
	return rec, nil
}
