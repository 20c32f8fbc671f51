// Package ledger holds the prescription and dispensing records and the
// remaining-need arithmetic that reconciles them.
package ledger

import "time"

// Prescription maps to the prescriptions table. QuantityPacks is measured in
// whole or fractional packages. DailyDose (mg) and TreatmentDays are optional
// dosage-regimen fields used by the dosage calculator.
type Prescription struct {
	ID            int64     `db:"id" json:"id"`
	PatientID     int64     `db:"patient_id" json:"patient_id"`
	MedicineID    int64     `db:"medicine_id" json:"medicine_id"`
	Date          time.Time `db:"prescription_date" json:"prescription_date"`
	QuantityPacks float64   `db:"quantity_packs" json:"quantity_packs"`
	DailyDose     *float64  `db:"daily_dose" json:"daily_dose,omitempty"`
	TreatmentDays *int      `db:"treatment_days" json:"treatment_days,omitempty"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
}

// Dispensing maps to the dispensings table.
type Dispensing struct {
	ID            int64     `db:"id" json:"id"`
	PatientID     int64     `db:"patient_id" json:"patient_id"`
	MedicineID    int64     `db:"medicine_id" json:"medicine_id"`
	Date          time.Time `db:"dispensing_date" json:"dispensing_date"`
	QuantityPacks float64   `db:"quantity_packs" json:"quantity_packs"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
}

// PrescribedMedicine is a medicine that appears at least once in a patient's
// prescriptions, joined with its catalog attributes.
type PrescribedMedicine struct {
	MedicineID int64    `json:"medicine_id"`
	MNN        string   `json:"standardized_mnn"`
	TradeName  string   `json:"trade_name_vk"`
	Dosage     string   `json:"standardized_dosage"`
	Price      *float64 `json:"price,omitempty"`
}

// SummaryRow is one line of a patient's need summary.
type SummaryRow struct {
	PrescribedMedicine
	RemainingNeed    float64       `json:"remaining_need"`
	RemainingCost    float64       `json:"remaining_cost"`
	LastPrescription *Prescription `json:"last_prescription,omitempty"`
	LastDispensing   *Dispensing   `json:"last_dispensing,omitempty"`
}

// HistoryRow is one ledger event joined with medicine info for the treatment
// history view.
type HistoryRow struct {
	ID            int64     `json:"id"`
	MedicineID    int64     `json:"medicine_id"`
	MNN           string    `json:"standardized_mnn"`
	TradeName     string    `json:"trade_name_vk"`
	Date          time.Time `json:"date"`
	QuantityPacks float64   `json:"quantity_packs"`
}

// TreatmentHistory groups a patient's ledger events, newest first.
type TreatmentHistory struct {
	Prescriptions []HistoryRow `json:"prescriptions"`
	Dispensings   []HistoryRow `json:"dispensings"`
}
