package ledger

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
)

func listContext(t *testing.T, target string) echo.Context {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	return e.NewContext(req, httptest.NewRecorder())
}

func TestListOptions_ValidDates(t *testing.T) {
	opts, err := listOptions(listContext(t, "/prescriptions?date_from=2026-01-01&date_to=2026-03-31"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if opts.DateFrom != "2026-01-01" || opts.DateTo != "2026-03-31" {
		t.Errorf("dates not carried through: %+v", opts)
	}
}

func TestListOptions_MalformedDates(t *testing.T) {
	cases := []struct {
		name   string
		target string
	}{
		{"garbage from", "/prescriptions?date_from=not-a-date"},
		{"garbage to", "/dispensings?date_to=31.03.2026"},
		{"month out of range", "/prescriptions?date_from=2026-13-01"},
		{"truncated", "/dispensings?date_to=2026-03"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := listOptions(listContext(t, tc.target))
			var he *echo.HTTPError
			if !errors.As(err, &he) {
				t.Fatalf("expected HTTP error, got %v", err)
			}
			if he.Code != http.StatusBadRequest {
				t.Errorf("expected 400, got %d", he.Code)
			}
		})
	}
}

func TestListOptions_EmptyDatesAllowed(t *testing.T) {
	opts, err := listOptions(listContext(t, "/prescriptions?patient_id=1"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if opts.PatientID == nil || *opts.PatientID != 1 {
		t.Errorf("patient filter not parsed: %+v", opts)
	}
}
