package ledger

import (
	"context"

	"github.com/medneed/medneed/pkg/pagination"
)

// ListOptions narrows a paginated ledger listing. PatientID/MedicineID are
// equality filters; the date bounds are inclusive "2006-01-02" strings.
type ListOptions struct {
	PatientID  *int64
	MedicineID *int64
	DateFrom   string
	DateTo     string
	Sort       string
	Page       pagination.Params
}

type PrescriptionRepository interface {
	Create(ctx context.Context, p *Prescription) error
	GetByID(ctx context.Context, id int64) (*Prescription, error)
	Update(ctx context.Context, p *Prescription) error
	Delete(ctx context.Context, id int64) error
	List(ctx context.Context, opts ListOptions) ([]*Prescription, int64, error)
	// SumForPair totals prescribed packages for a patient/medicine pair.
	// Pairs with no rows sum to 0.
	SumForPair(ctx context.Context, patientID, medicineID int64) (float64, error)
	// LastForPair returns the most recent prescription by date, ids breaking
	// date ties. Nil when the pair has none.
	LastForPair(ctx context.Context, patientID, medicineID int64) (*Prescription, error)
	// PrescribedMedicines lists the distinct medicines a patient has
	// prescriptions for, ordered by MNN.
	PrescribedMedicines(ctx context.Context, patientID int64) ([]PrescribedMedicine, error)
	HistoryForPatient(ctx context.Context, patientID int64) ([]HistoryRow, error)
}

type DispensingRepository interface {
	Create(ctx context.Context, d *Dispensing) error
	GetByID(ctx context.Context, id int64) (*Dispensing, error)
	Update(ctx context.Context, d *Dispensing) error
	Delete(ctx context.Context, id int64) error
	List(ctx context.Context, opts ListOptions) ([]*Dispensing, int64, error)
	SumForPair(ctx context.Context, patientID, medicineID int64) (float64, error)
	LastForPair(ctx context.Context, patientID, medicineID int64) (*Dispensing, error)
	HistoryForPatient(ctx context.Context, patientID int64) ([]HistoryRow, error)
}
