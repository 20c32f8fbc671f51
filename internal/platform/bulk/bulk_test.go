package bulk

import (
	"errors"
	"testing"
)

func TestChunkRows(t *testing.T) {
	rows := make([][]interface{}, 7)
	for i := range rows {
		rows[i] = []interface{}{i}
	}

	chunks := chunkRows(rows, 3)
	if len(chunks) != 3 {
		t.Fatalf("expected 3 chunks for 7 rows of 3, got %d", len(chunks))
	}
	if len(chunks[0]) != 3 || len(chunks[1]) != 3 || len(chunks[2]) != 1 {
		t.Errorf("unexpected chunk sizes: %d, %d, %d", len(chunks[0]), len(chunks[1]), len(chunks[2]))
	}
	if chunks[2][0][0] != 6 {
		t.Errorf("last chunk should hold the last row, got %v", chunks[2][0][0])
	}
}

func TestChunkRows_ExactMultiple(t *testing.T) {
	rows := make([][]interface{}, 6)
	chunks := chunkRows(rows, 3)
	if len(chunks) != 2 {
		t.Fatalf("expected 2 chunks for 6 rows of 3, got %d", len(chunks))
	}
}

func TestChunkRows_Empty(t *testing.T) {
	if chunks := chunkRows(nil, 3); len(chunks) != 0 {
		t.Errorf("expected no chunks for empty input, got %d", len(chunks))
	}
}

func TestBuildInsert(t *testing.T) {
	sql := buildInsert("patients", []string{"fio", "birth_year"}, 2)
	want := "INSERT INTO patients (fio, birth_year) VALUES ($1, $2), ($3, $4)"
	if sql != want {
		t.Errorf("unexpected SQL:\n got %s\nwant %s", sql, want)
	}
}

func TestBuildInsert_SingleRow(t *testing.T) {
	sql := buildInsert("medicines", []string{"smmn_node_code"}, 1)
	want := "INSERT INTO medicines (smmn_node_code) VALUES ($1)"
	if sql != want {
		t.Errorf("unexpected SQL: %s", sql)
	}
}

func TestFlatten(t *testing.T) {
	rows := [][]interface{}{{"a", 1}, {"b", 2}}
	flat := flatten(rows)
	if len(flat) != 4 {
		t.Fatalf("expected 4 args, got %d", len(flat))
	}
	if flat[0] != "a" || flat[3] != 2 {
		t.Errorf("unexpected arg order: %v", flat)
	}
}

func TestBatchError_Unwrap(t *testing.T) {
	inner := errors.New("duplicate key")
	err := &BatchError{Batch: 2, Offset: 1000, Err: inner}

	if !errors.Is(err, inner) {
		t.Error("BatchError should unwrap to the underlying error")
	}
	want := "bulk insert batch 2 (rows from offset 1000): duplicate key"
	if err.Error() != want {
		t.Errorf("unexpected message: %s", err.Error())
	}
}
