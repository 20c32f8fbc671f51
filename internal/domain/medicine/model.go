package medicine

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Medicine maps to the medicines table. Code is the SMNN node code from the
// standardized nomenclature; Price may be unknown for newly registered
// positions and is treated as zero in every cost computation.
type Medicine struct {
	ID             int64     `db:"id" json:"id"`
	Code           string    `db:"smmn_node_code" json:"smmn_node_code"`
	Section        string    `db:"section" json:"section"`
	MNN            string    `db:"standardized_mnn" json:"standardized_mnn"`
	TradeName      string    `db:"trade_name_vk" json:"trade_name_vk"`
	DosageForm     string    `db:"standardized_dosage_form" json:"standardized_dosage_form"`
	Dosage         string    `db:"standardized_dosage" json:"standardized_dosage"`
	Characteristic *string   `db:"characteristic" json:"characteristic,omitempty"`
	Packaging      string    `db:"packaging" json:"packaging"`
	Price          *float64  `db:"price" json:"price,omitempty"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time `db:"updated_at" json:"updated_at"`
}

var leadingNumber = regexp.MustCompile(`\d+(?:[.,]\d+)?`)

// UnitsPerPack parses the first numeric token out of the free-text packaging
// description ("№30", "10 ампул" and the like). Returns 0 when the text
// carries no number, which callers treat as undeterminable.
func (m *Medicine) UnitsPerPack() float64 {
	tok := leadingNumber.FindString(m.Packaging)
	if tok == "" {
		return 0
	}
	v, err := strconv.ParseFloat(strings.ReplaceAll(tok, ",", "."), 64)
	if err != nil {
		return 0
	}
	return v
}

// PriceOrZero folds an unknown price into 0 for cost aggregation.
func (m *Medicine) PriceOrZero() float64 {
	if m.Price == nil {
		return 0
	}
	return *m.Price
}
