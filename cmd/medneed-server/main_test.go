package main

import (
	"strings"
	"testing"
)

func TestReadCSVSkipsHeader(t *testing.T) {
	in := "fio;birth_year;diagnosis;attending_doctor\n" +
		"Иванов Иван;1960;ХОБЛ;Петров\n" +
		"Сидорова Анна;1975;ИБС;Петров\n"

	records, err := readCSV(strings.NewReader(in), 4)
	if err != nil {
		t.Fatalf("readCSV: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("records = %d, want 2", len(records))
	}
	if records[0][0] != "Иванов Иван" || records[1][1] != "1975" {
		t.Fatalf("unexpected records: %v", records)
	}
}

func TestReadCSVWrongColumnCount(t *testing.T) {
	in := "fio;birth_year\nИванов Иван;1960;лишнее\n"
	if _, err := readCSV(strings.NewReader(in), 2); err == nil {
		t.Fatal("expected field count error")
	}
}

func TestReadCSVEmpty(t *testing.T) {
	if _, err := readCSV(strings.NewReader("fio;birth_year;diagnosis;attending_doctor\n"), 4); err == nil {
		t.Fatal("expected error for header-only file")
	}
}
