// Package reports aggregates the ledger into medicine, patient, dispensing,
// financial and usage reports, with CSV export for each.
package reports

import "time"

// DateRange filters report rows by an inclusive [From, To] window on the
// relevant date column. Empty bounds are unbounded.
type DateRange struct {
	From string
	To   string
}

// MedicineReportRow is one medicine with open need across all patients.
type MedicineReportRow struct {
	MedicineID    int64    `json:"medicine_id"`
	MNN           string   `json:"standardized_mnn"`
	TradeName     string   `json:"trade_name_vk"`
	Dosage        string   `json:"standardized_dosage"`
	Packaging     string   `json:"packaging"`
	Price         *float64 `json:"price,omitempty"`
	PatientsCount int64    `json:"patients_count"`
	TotalNeed     float64  `json:"total_need"`
	TotalCost     float64  `json:"total_cost"`
}

// MedicineReport lists medicines that at least one patient still needs,
// most expensive need first.
type MedicineReport struct {
	Rows        []MedicineReportRow `json:"rows"`
	Medicines   int64               `json:"medicines_count"`
	Patients    int64               `json:"patients_count"`
	TotalCost   float64             `json:"total_cost"`
	GeneratedAt time.Time           `json:"generated_at"`
}

// PatientReportRow aggregates one patient's ledger activity.
type PatientReportRow struct {
	PatientID          int64   `json:"patient_id"`
	FullName           string  `json:"full_name"`
	BirthYear          int     `json:"birth_year"`
	Diagnosis          string  `json:"diagnosis"`
	AttendingDoctor    string  `json:"attending_doctor"`
	PrescriptionsCount int64   `json:"prescriptions_count"`
	DispensingsCount   int64   `json:"dispensings_count"`
	TotalPrescribed    float64 `json:"total_prescribed"`
	TotalDispensed     float64 `json:"total_dispensed"`
}

type PatientReport struct {
	Rows        []PatientReportRow `json:"rows"`
	Patients    int64              `json:"patients_count"`
	GeneratedAt time.Time          `json:"generated_at"`
}

// DispensingRow is one dispensing joined with patient and medicine info.
type DispensingRow struct {
	DispensingID  int64     `json:"dispensing_id"`
	Date          time.Time `json:"date"`
	PatientName   string    `json:"patient_name"`
	MNN           string    `json:"standardized_mnn"`
	TradeName     string    `json:"trade_name_vk"`
	QuantityPacks float64   `json:"quantity_packs"`
	Revenue       float64   `json:"revenue"`
}

// DispensingMedicineStat aggregates dispensings per medicine.
type DispensingMedicineStat struct {
	MedicineID    int64   `json:"medicine_id"`
	MNN           string  `json:"standardized_mnn"`
	TradeName     string  `json:"trade_name_vk"`
	Dispensings   int64   `json:"dispensings_count"`
	QuantityPacks float64 `json:"quantity_packs"`
	Revenue       float64 `json:"revenue"`
}

type DispensingReport struct {
	Rows          []DispensingRow          `json:"rows"`
	MedicineStats []DispensingMedicineStat `json:"medicine_stats"`
	Dispensings   int64                    `json:"dispensings_count"`
	TotalPacks    float64                  `json:"total_packs"`
	TotalRevenue  float64                  `json:"total_revenue"`
	GeneratedAt   time.Time                `json:"generated_at"`
}

// DailyRevenue is one day's dispensing revenue.
type DailyRevenue struct {
	Date        time.Time `json:"date"`
	Dispensings int64     `json:"dispensings_count"`
	Revenue     float64   `json:"revenue"`
}

// MedicineRevenue ranks a medicine by dispensing revenue.
type MedicineRevenue struct {
	MedicineID int64   `json:"medicine_id"`
	MNN        string  `json:"standardized_mnn"`
	TradeName  string  `json:"trade_name_vk"`
	Revenue    float64 `json:"revenue"`
}

// DoctorStat aggregates prescribing activity per attending doctor.
type DoctorStat struct {
	Doctor             string `json:"doctor"`
	Patients           int64  `json:"patients_count"`
	PrescriptionsCount int64  `json:"prescriptions_count"`
}

type FinancialReport struct {
	TotalRevenue       float64           `json:"total_revenue"`
	Dispensings        int64             `json:"dispensings_count"`
	AvgDispensingValue float64           `json:"avg_dispensing_value"`
	AvgDailyRevenue    float64           `json:"avg_daily_revenue"`
	DailyRevenue       []DailyRevenue    `json:"daily_revenue"`
	TopMedicines       []MedicineRevenue `json:"top_medicines"`
	DoctorStats        []DoctorStat      `json:"doctor_stats"`
	GeneratedAt        time.Time         `json:"generated_at"`
}

// UsageRow ranks a medicine by prescribed or dispensed volume.
type UsageRow struct {
	MedicineID    int64   `json:"medicine_id"`
	MNN           string  `json:"standardized_mnn"`
	TradeName     string  `json:"trade_name_vk"`
	Records       int64   `json:"records_count"`
	QuantityPacks float64 `json:"quantity_packs"`
}

// Totals carries the general counters of the usage statistics view.
type Totals struct {
	Patients      int64 `json:"patients"`
	Medicines     int64 `json:"medicines"`
	Prescriptions int64 `json:"prescriptions"`
	Dispensings   int64 `json:"dispensings"`
}

type UsageStatistics struct {
	TopPrescribed []UsageRow `json:"top_prescribed"`
	TopDispensed  []UsageRow `json:"top_dispensed"`
	Totals        Totals     `json:"totals"`
	GeneratedAt   time.Time  `json:"generated_at"`
}
