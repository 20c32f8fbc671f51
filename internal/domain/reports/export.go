package reports

import (
	"bytes"
	"encoding/csv"
	"fmt"
)

// CSV payloads are semicolon delimited so that spreadsheet imports in
// locales with a decimal comma split columns correctly.
const csvDelimiter = ';'

const generatedAtLayout = "2006-01-02 15:04:05"

func money(v float64) string { return fmt.Sprintf("%.2f", v) }
func packs(v float64) string { return fmt.Sprintf("%.1f", v) }

func priceCell(p *float64) string {
	if p == nil {
		return ""
	}
	return money(*p)
}

type csvBuilder struct {
	buf *bytes.Buffer
	w   *csv.Writer
}

func newCSVBuilder() *csvBuilder {
	buf := &bytes.Buffer{}
	w := csv.NewWriter(buf)
	w.Comma = csvDelimiter
	return &csvBuilder{buf: buf, w: w}
}

func (b *csvBuilder) row(cells ...string) {
	// csv.Writer errors surface on Flush.
	_ = b.w.Write(cells)
}

func (b *csvBuilder) blank() { b.row() }

func (b *csvBuilder) bytes() ([]byte, error) {
	b.w.Flush()
	if err := b.w.Error(); err != nil {
		return nil, err
	}
	return b.buf.Bytes(), nil
}

// ExportMedicineCSV renders the need report as a delimited text payload
// with a totals row appended after a blank separator.
func ExportMedicineCSV(r *MedicineReport) ([]byte, error) {
	b := newCSVBuilder()
	b.row("ID препарата", "Стандартизированное МНН", "Торговое наименование ВК",
		"Стандартизированная доза", "Фасовка", "Цена",
		"Количество пациентов", "Общая потребность", "Общая стоимость")
	for _, row := range r.Rows {
		b.row(
			fmt.Sprintf("%d", row.MedicineID),
			row.MNN,
			row.TradeName,
			row.Dosage,
			row.Packaging,
			priceCell(row.Price),
			fmt.Sprintf("%d", row.PatientsCount),
			packs(row.TotalNeed),
			money(row.TotalCost),
		)
	}
	b.blank()
	b.row("ИТОГО:", "", "", "", "", "",
		fmt.Sprintf("%d", r.Patients), "", money(r.TotalCost))
	b.blank()
	b.row("Отчёт сгенерирован:", r.GeneratedAt.Format(generatedAtLayout))
	return b.bytes()
}

func ExportPatientCSV(r *PatientReport) ([]byte, error) {
	b := newCSVBuilder()
	b.row("ФИО", "Год рождения", "Диагноз", "Лечащий врач",
		"Назначений", "Выдач", "Назначено упаковок", "Выдано упаковок")
	var prescribed, dispensed float64
	for _, row := range r.Rows {
		prescribed += row.TotalPrescribed
		dispensed += row.TotalDispensed
		b.row(
			row.FullName,
			fmt.Sprintf("%d", row.BirthYear),
			row.Diagnosis,
			row.AttendingDoctor,
			fmt.Sprintf("%d", row.PrescriptionsCount),
			fmt.Sprintf("%d", row.DispensingsCount),
			packs(row.TotalPrescribed),
			packs(row.TotalDispensed),
		)
	}
	b.blank()
	b.row("ИТОГО:", "", "", "", "", "", packs(prescribed), packs(dispensed))
	b.blank()
	b.row("Отчёт сгенерирован:", r.GeneratedAt.Format(generatedAtLayout))
	return b.bytes()
}

func ExportDispensingCSV(r *DispensingReport) ([]byte, error) {
	b := newCSVBuilder()
	b.row("Дата выдачи", "Пациент", "МНН", "Торговое наименование",
		"Количество упаковок", "Стоимость")
	for _, row := range r.Rows {
		b.row(
			row.Date.Format("2006-01-02"),
			row.PatientName,
			row.MNN,
			row.TradeName,
			packs(row.QuantityPacks),
			money(row.Revenue),
		)
	}
	b.blank()
	b.row("ИТОГО:", "", "", "", packs(r.TotalPacks), money(r.TotalRevenue))
	b.blank()
	b.row("Отчёт сгенерирован:", r.GeneratedAt.Format(generatedAtLayout))
	return b.bytes()
}

func ExportFinancialCSV(r *FinancialReport) ([]byte, error) {
	b := newCSVBuilder()
	b.row("Препарат", "МНН", "Общий доход")
	for _, row := range r.TopMedicines {
		b.row(row.TradeName, row.MNN, money(row.Revenue))
	}
	b.blank()
	b.row("ИТОГО:", "", money(r.TotalRevenue))
	b.blank()
	b.row("Отчёт сгенерирован:", r.GeneratedAt.Format(generatedAtLayout))
	return b.bytes()
}
