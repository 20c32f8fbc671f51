package ledger

import (
	"context"
	"fmt"

	"github.com/medneed/medneed/internal/platform/apperr"
	"github.com/medneed/medneed/pkg/pagination"
)

// MaxQuantityPacks bounds a single prescription or dispensing.
const MaxQuantityPacks = 1000

// Directory answers existence checks against another domain's store. The
// patient and medicine services both satisfy it.
type Directory interface {
	Exists(ctx context.Context, id int64) (bool, error)
}

// TxRunner runs a function inside a serializable store transaction.
// Dispensing registration reads the remaining need and inserts in the same
// transaction so two concurrent dispensings cannot both pass a stale check.
type TxRunner interface {
	WithSerializableTx(ctx context.Context, fn func(ctx context.Context) error) error
}

type Service struct {
	prescriptions PrescriptionRepository
	dispensings   DispensingRepository
	patients      Directory
	medicines     Directory
	tx            TxRunner
}

func NewService(
	prescriptions PrescriptionRepository,
	dispensings DispensingRepository,
	patients Directory,
	medicines Directory,
	tx TxRunner,
) *Service {
	return &Service{
		prescriptions: prescriptions,
		dispensings:   dispensings,
		patients:      patients,
		medicines:     medicines,
		tx:            tx,
	}
}

// validateRefs checks the patient and medicine exist and the quantity is in
// (0, MaxQuantityPacks].
func (s *Service) validateRefs(ctx context.Context, ve *apperr.ValidationError, patientID, medicineID int64, qty float64) error {
	exists, err := s.patients.Exists(ctx, patientID)
	if err != nil {
		return fmt.Errorf("check patient %d: %w", patientID, err)
	}
	if !exists {
		ve.Add("patient_id", "patient %d does not exist", patientID)
	}
	exists, err = s.medicines.Exists(ctx, medicineID)
	if err != nil {
		return fmt.Errorf("check medicine %d: %w", medicineID, err)
	}
	if !exists {
		ve.Add("medicine_id", "medicine %d does not exist", medicineID)
	}
	if qty <= 0 {
		ve.Add("quantity_packs", "must be positive, got %v", qty)
	} else if qty > MaxQuantityPacks {
		ve.Add("quantity_packs", "must not exceed %d, got %v", MaxQuantityPacks, qty)
	}
	return nil
}

func (s *Service) CreatePrescription(ctx context.Context, p *Prescription) error {
	var ve apperr.ValidationError
	if err := s.validateRefs(ctx, &ve, p.PatientID, p.MedicineID, p.QuantityPacks); err != nil {
		return err
	}
	if p.Date.IsZero() {
		ve.Add("prescription_date", "is required")
	}
	if p.DailyDose != nil && *p.DailyDose <= 0 {
		ve.Add("daily_dose", "must be positive, got %v", *p.DailyDose)
	}
	if p.TreatmentDays != nil && (*p.TreatmentDays < 1 || *p.TreatmentDays > 365) {
		ve.Add("treatment_days", "must be between 1 and 365, got %d", *p.TreatmentDays)
	}
	if err := ve.Err(); err != nil {
		return err
	}
	return s.prescriptions.Create(ctx, p)
}

// UpdatePrescription replaces a prescription record, applying the same
// validation as create.
func (s *Service) UpdatePrescription(ctx context.Context, p *Prescription) error {
	var ve apperr.ValidationError
	if err := s.validateRefs(ctx, &ve, p.PatientID, p.MedicineID, p.QuantityPacks); err != nil {
		return err
	}
	if p.Date.IsZero() {
		ve.Add("prescription_date", "is required")
	}
	if p.DailyDose != nil && *p.DailyDose <= 0 {
		ve.Add("daily_dose", "must be positive, got %v", *p.DailyDose)
	}
	if p.TreatmentDays != nil && (*p.TreatmentDays < 1 || *p.TreatmentDays > 365) {
		ve.Add("treatment_days", "must be between 1 and 365, got %d", *p.TreatmentDays)
	}
	if err := ve.Err(); err != nil {
		return err
	}
	return s.prescriptions.Update(ctx, p)
}

func (s *Service) GetPrescription(ctx context.Context, id int64) (*Prescription, error) {
	return s.prescriptions.GetByID(ctx, id)
}

func (s *Service) DeletePrescription(ctx context.Context, id int64) error {
	return s.prescriptions.Delete(ctx, id)
}

func (s *Service) ListPrescriptions(ctx context.Context, opts ListOptions) (pagination.Result[*Prescription], error) {
	items, total, err := s.prescriptions.List(ctx, opts)
	if err != nil {
		return pagination.Result[*Prescription]{}, err
	}
	return pagination.NewResult(items, total, opts.Page), nil
}

// RemainingNeed computes max(0, prescribed - dispensed) for a pair. Pairs
// with no ledger rows yield 0, never an error, and over-dispensed pairs are
// clamped at zero.
func (s *Service) RemainingNeed(ctx context.Context, patientID, medicineID int64) (float64, error) {
	prescribed, err := s.prescriptions.SumForPair(ctx, patientID, medicineID)
	if err != nil {
		return 0, fmt.Errorf("sum prescriptions: %w", err)
	}
	dispensed, err := s.dispensings.SumForPair(ctx, patientID, medicineID)
	if err != nil {
		return 0, fmt.Errorf("sum dispensings: %w", err)
	}
	need := prescribed - dispensed
	if need < 0 {
		need = 0
	}
	return need, nil
}

// RegisterDispensing validates the dispensing against the remaining need and
// inserts it, all inside one serializable transaction.
func (s *Service) RegisterDispensing(ctx context.Context, d *Dispensing) error {
	var ve apperr.ValidationError
	if err := s.validateRefs(ctx, &ve, d.PatientID, d.MedicineID, d.QuantityPacks); err != nil {
		return err
	}
	if d.Date.IsZero() {
		ve.Add("dispensing_date", "is required")
	}
	if err := ve.Err(); err != nil {
		return err
	}

	return s.tx.WithSerializableTx(ctx, func(ctx context.Context) error {
		need, err := s.RemainingNeed(ctx, d.PatientID, d.MedicineID)
		if err != nil {
			return err
		}
		var ve apperr.ValidationError
		if need <= 0 {
			ve.Add("quantity_packs", "remaining need is exhausted for this patient and medicine")
		} else if d.QuantityPacks > need {
			ve.Add("quantity_packs", "exceeds remaining need %v, got %v", need, d.QuantityPacks)
		}
		if err := ve.Err(); err != nil {
			return err
		}
		return s.dispensings.Create(ctx, d)
	})
}

// UpdateDispensing replaces a dispensing record. The remaining-need check
// runs in the same serializable transaction as the write and, when the
// patient/medicine pair is unchanged, counts the need net of the row being
// replaced.
func (s *Service) UpdateDispensing(ctx context.Context, d *Dispensing) error {
	var ve apperr.ValidationError
	if err := s.validateRefs(ctx, &ve, d.PatientID, d.MedicineID, d.QuantityPacks); err != nil {
		return err
	}
	if d.Date.IsZero() {
		ve.Add("dispensing_date", "is required")
	}
	if err := ve.Err(); err != nil {
		return err
	}

	return s.tx.WithSerializableTx(ctx, func(ctx context.Context) error {
		current, err := s.dispensings.GetByID(ctx, d.ID)
		if err != nil {
			return err
		}
		need, err := s.RemainingNeed(ctx, d.PatientID, d.MedicineID)
		if err != nil {
			return err
		}
		if current.PatientID == d.PatientID && current.MedicineID == d.MedicineID {
			need += current.QuantityPacks
		}
		var ve apperr.ValidationError
		if need <= 0 {
			ve.Add("quantity_packs", "remaining need is exhausted for this patient and medicine")
		} else if d.QuantityPacks > need {
			ve.Add("quantity_packs", "exceeds remaining need %v, got %v", need, d.QuantityPacks)
		}
		if err := ve.Err(); err != nil {
			return err
		}
		return s.dispensings.Update(ctx, d)
	})
}

func (s *Service) GetDispensing(ctx context.Context, id int64) (*Dispensing, error) {
	return s.dispensings.GetByID(ctx, id)
}

func (s *Service) DeleteDispensing(ctx context.Context, id int64) error {
	return s.dispensings.Delete(ctx, id)
}

func (s *Service) ListDispensings(ctx context.Context, opts ListOptions) (pagination.Result[*Dispensing], error) {
	items, total, err := s.dispensings.List(ctx, opts)
	if err != nil {
		return pagination.Result[*Dispensing]{}, err
	}
	return pagination.NewResult(items, total, opts.Page), nil
}

// Summary builds the per-medicine need overview for one patient, ordered by
// MNN. Remaining cost folds unknown prices to 0.
func (s *Service) Summary(ctx context.Context, patientID int64) ([]SummaryRow, error) {
	exists, err := s.patients.Exists(ctx, patientID)
	if err != nil {
		return nil, fmt.Errorf("check patient %d: %w", patientID, err)
	}
	if !exists {
		return nil, fmt.Errorf("patient %d: %w", patientID, apperr.ErrNotFound)
	}

	meds, err := s.prescriptions.PrescribedMedicines(ctx, patientID)
	if err != nil {
		return nil, fmt.Errorf("prescribed medicines: %w", err)
	}

	rows := make([]SummaryRow, 0, len(meds))
	for _, pm := range meds {
		need, err := s.RemainingNeed(ctx, patientID, pm.MedicineID)
		if err != nil {
			return nil, err
		}
		row := SummaryRow{PrescribedMedicine: pm, RemainingNeed: need}
		if pm.Price != nil {
			row.RemainingCost = need * *pm.Price
		}
		if row.LastPrescription, err = s.prescriptions.LastForPair(ctx, patientID, pm.MedicineID); err != nil {
			return nil, err
		}
		if row.LastDispensing, err = s.dispensings.LastForPair(ctx, patientID, pm.MedicineID); err != nil {
			return nil, err
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// History returns all ledger events of one patient, newest first.
func (s *Service) History(ctx context.Context, patientID int64) (*TreatmentHistory, error) {
	exists, err := s.patients.Exists(ctx, patientID)
	if err != nil {
		return nil, fmt.Errorf("check patient %d: %w", patientID, err)
	}
	if !exists {
		return nil, fmt.Errorf("patient %d: %w", patientID, apperr.ErrNotFound)
	}

	h := &TreatmentHistory{}
	if h.Prescriptions, err = s.prescriptions.HistoryForPatient(ctx, patientID); err != nil {
		return nil, err
	}
	if h.Dispensings, err = s.dispensings.HistoryForPatient(ctx, patientID); err != nil {
		return nil, err
	}
	if h.Prescriptions == nil {
		h.Prescriptions = []HistoryRow{}
	}
	if h.Dispensings == nil {
		h.Dispensings = []HistoryRow{}
	}
	return h, nil
}
