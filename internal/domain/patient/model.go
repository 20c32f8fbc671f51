package patient

import "time"

// Patient maps to the patients table.
type Patient struct {
	ID              int64     `db:"id" json:"id"`
	FullName        string    `db:"fio" json:"full_name"`
	BirthYear       int       `db:"birth_year" json:"birth_year"`
	Diagnosis       string    `db:"diagnosis" json:"diagnosis"`
	AttendingDoctor string    `db:"attending_doctor" json:"attending_doctor"`
	CreatedAt       time.Time `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time `db:"updated_at" json:"updated_at"`
}
