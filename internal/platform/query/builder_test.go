package query

import (
	"reflect"
	"testing"
)

func TestListQuery_Plain(t *testing.T) {
	q := NewListQuery("patients", "id, fio")
	q.OrderBy("fio ASC")

	if got := q.CountSQL(); got != "SELECT COUNT(*) FROM patients WHERE 1=1" {
		t.Errorf("unexpected count SQL: %s", got)
	}
	want := "SELECT id, fio FROM patients WHERE 1=1 ORDER BY fio ASC LIMIT $1 OFFSET $2"
	if got := q.DataSQL(); got != want {
		t.Errorf("unexpected data SQL:\n got %s\nwant %s", got, want)
	}
	if got := q.DataArgs(20, 40); !reflect.DeepEqual(got, []interface{}{20, 40}) {
		t.Errorf("unexpected data args: %v", got)
	}
}

func TestListQuery_SearchMultiColumn(t *testing.T) {
	q := NewListQuery("patients", "id, fio")
	q.Search("иванов", "fio", "diagnosis", "attending_doctor")

	want := "SELECT COUNT(*) FROM patients WHERE 1=1 AND (fio ILIKE $1 OR diagnosis ILIKE $1 OR attending_doctor ILIKE $1)"
	if got := q.CountSQL(); got != want {
		t.Errorf("unexpected count SQL:\n got %s\nwant %s", got, want)
	}
	if got := q.CountArgs(); !reflect.DeepEqual(got, []interface{}{"%иванов%"}) {
		t.Errorf("unexpected count args: %v", got)
	}
}

func TestListQuery_SearchEmptyTermIsNoop(t *testing.T) {
	q := NewListQuery("patients", "id")
	q.Search("   ", "fio")

	if got := q.CountSQL(); got != "SELECT COUNT(*) FROM patients WHERE 1=1" {
		t.Errorf("empty term should not add a clause, got: %s", got)
	}
}

func TestListQuery_SearchEscapesWildcards(t *testing.T) {
	q := NewListQuery("medicines", "id")
	q.Search("50%_раствор", "trade_name_vk")

	if got := q.CountArgs(); !reflect.DeepEqual(got, []interface{}{`%50\%\_раствор%`}) {
		t.Errorf("wildcards not escaped: %v", got)
	}
}

func TestListQuery_FilterAndDateRange(t *testing.T) {
	q := NewListQuery("dispensings", "id")
	q.Filter("patient_id", int64(7))
	q.DateRange("dispensing_date", "2026-01-01", "2026-01-31")

	want := "SELECT COUNT(*) FROM dispensings WHERE 1=1 AND patient_id = $1 AND dispensing_date >= $2 AND dispensing_date <= $3"
	if got := q.CountSQL(); got != want {
		t.Errorf("unexpected count SQL:\n got %s\nwant %s", got, want)
	}
	if q.Idx() != 4 {
		t.Errorf("expected next index 4, got %d", q.Idx())
	}
}

func TestListQuery_DateRangeOpenEnded(t *testing.T) {
	q := NewListQuery("dispensings", "id")
	q.DateRange("dispensing_date", "", "2026-06-30")

	want := "SELECT COUNT(*) FROM dispensings WHERE 1=1 AND dispensing_date <= $1"
	if got := q.CountSQL(); got != want {
		t.Errorf("unexpected count SQL: %s", got)
	}
}

func TestListQuery_ApplySort(t *testing.T) {
	keys := map[string]SortKey{
		"name":  {Column: "fio"},
		"birth": {Column: "birth_year"},
	}

	q := NewListQuery("patients", "id")
	q.ApplySort("-birth,name", "fio ASC", keys)
	want := "SELECT id FROM patients WHERE 1=1 ORDER BY birth_year DESC, fio ASC LIMIT $1 OFFSET $2"
	if got := q.DataSQL(); got != want {
		t.Errorf("unexpected data SQL:\n got %s\nwant %s", got, want)
	}
}

func TestListQuery_ApplySortRejectsUnknownKeys(t *testing.T) {
	keys := map[string]SortKey{"name": {Column: "fio"}}

	q := NewListQuery("patients", "id")
	q.ApplySort("id; DROP TABLE patients", "fio ASC", keys)
	want := "SELECT id FROM patients WHERE 1=1 ORDER BY fio ASC LIMIT $1 OFFSET $2"
	if got := q.DataSQL(); got != want {
		t.Errorf("unknown sort key must fall back to default:\n got %s\nwant %s", got, want)
	}
}
