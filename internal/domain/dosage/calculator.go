// Package dosage converts free-text dosage strings into milligram values and
// calculates how many packages cover a course of treatment.
package dosage

import (
	"regexp"
	"strconv"
	"strings"
)

var doseNumber = regexp.MustCompile(`\d+(?:\.\d+)?`)

// ExtractDosageValue parses the first numeric token of a dosage string and
// normalizes it to milligrams. Micrograms divide by 1000, grams multiply by
// 1000. The microgram check runs first because "мкг" contains "г".
func ExtractDosageValue(dosage string) float64 {
	if dosage == "" {
		return 0
	}
	tok := doseNumber.FindString(dosage)
	if tok == "" {
		return 0
	}
	value, err := strconv.ParseFloat(tok, 64)
	if err != nil {
		return 0
	}
	lower := strings.ToLower(dosage)
	switch {
	case strings.Contains(lower, "мкг") || strings.Contains(lower, "mcg"):
		value /= 1000
	case strings.Contains(lower, "г") && !strings.Contains(lower, "мг"):
		value *= 1000
	}
	return value
}

// Calculation is the package count result for one course of treatment. All
// dose fields are in milligrams.
type Calculation struct {
	PackagesNeeded      int64   `json:"packages_needed"`
	PackagesNeededExact float64 `json:"packages_needed_exact"`
	TotalDoseNeeded     float64 `json:"total_dose_needed"`
	DosePerPackage      float64 `json:"dose_per_package"`
	DosePerUnit         float64 `json:"dose_per_unit"`
	UnitsPerPackage     float64 `json:"units_per_package"`
	MedicineName        string  `json:"medicine_name"`
	DosageForm          string  `json:"dosage_form"`
}

// RequiredPackages computes the whole-package count covering dailyDoseMg
// over treatmentDays. unitsPerPack and the parsed unit dose must both be
// positive, otherwise the dosage is undeterminable and ok is false.
func RequiredPackages(dosage string, unitsPerPack, dailyDoseMg float64, treatmentDays int) (Calculation, bool) {
	dosePerUnit := ExtractDosageValue(dosage)
	dosePerPackage := dosePerUnit * unitsPerPack
	if dosePerPackage <= 0 {
		return Calculation{}, false
	}
	total := dailyDoseMg * float64(treatmentDays)
	exact := total / dosePerPackage
	rounded := int64(exact)
	if exact > float64(rounded) {
		rounded++
	}
	return Calculation{
		PackagesNeeded:      rounded,
		PackagesNeededExact: exact,
		TotalDoseNeeded:     total,
		DosePerPackage:      dosePerPackage,
		DosePerUnit:         dosePerUnit,
		UnitsPerPackage:     unitsPerPack,
	}, true
}
