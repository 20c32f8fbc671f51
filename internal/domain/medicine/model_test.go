package medicine

import "testing"

func TestUnitsPerPack(t *testing.T) {
	cases := []struct {
		packaging string
		want      float64
	}{
		{"№30", 30},
		{"10 ампул", 10},
		{"упаковка 28 таблеток", 28},
		{"2,5 мл x 5", 2.5},
		{"7.5 доз", 7.5},
		{"флакон", 0},
		{"", 0},
	}
	for _, tc := range cases {
		m := &Medicine{Packaging: tc.packaging}
		if got := m.UnitsPerPack(); got != tc.want {
			t.Errorf("UnitsPerPack(%q) = %v, want %v", tc.packaging, got, tc.want)
		}
	}
}

func TestPriceOrZero(t *testing.T) {
	m := &Medicine{}
	if m.PriceOrZero() != 0 {
		t.Error("nil price should fold to 0")
	}
	price := 123.45
	m.Price = &price
	if m.PriceOrZero() != 123.45 {
		t.Errorf("expected 123.45, got %v", m.PriceOrZero())
	}
}
