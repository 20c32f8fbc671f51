package patient

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/medneed/medneed/internal/platform/apperr"
	"github.com/medneed/medneed/pkg/pagination"
)

type mockRepo struct {
	patients map[int64]*Patient
	nextID   int64
	refs     map[int64]bool // ids referenced by ledger rows
}

func newMockRepo() *mockRepo {
	return &mockRepo{patients: map[int64]*Patient{}, nextID: 1, refs: map[int64]bool{}}
}

func (m *mockRepo) Create(_ context.Context, p *Patient) error {
	p.ID = m.nextID
	m.nextID++
	p.CreatedAt = time.Now()
	p.UpdatedAt = p.CreatedAt
	cp := *p
	m.patients[p.ID] = &cp
	return nil
}

func (m *mockRepo) GetByID(_ context.Context, id int64) (*Patient, error) {
	p, ok := m.patients[id]
	if !ok {
		return nil, apperr.ErrNotFound
	}
	return p, nil
}

func (m *mockRepo) Update(_ context.Context, p *Patient) error {
	if _, ok := m.patients[p.ID]; !ok {
		return apperr.ErrNotFound
	}
	cp := *p
	m.patients[p.ID] = &cp
	return nil
}

func (m *mockRepo) Delete(_ context.Context, id int64) error {
	if _, ok := m.patients[id]; !ok {
		return apperr.ErrNotFound
	}
	if m.refs[id] {
		return apperr.ErrConflict
	}
	delete(m.patients, id)
	return nil
}

func (m *mockRepo) List(_ context.Context, opts ListOptions) ([]*Patient, int64, error) {
	var items []*Patient
	for _, p := range m.patients {
		if opts.Search == "" || strings.Contains(p.FullName, opts.Search) ||
			strings.Contains(p.Diagnosis, opts.Search) ||
			strings.Contains(p.AttendingDoctor, opts.Search) {
			items = append(items, p)
		}
	}
	return items, int64(len(items)), nil
}

func (m *mockRepo) Exists(_ context.Context, id int64) (bool, error) {
	_, ok := m.patients[id]
	return ok, nil
}

func validPatient() *Patient {
	return &Patient{
		FullName:        "Иванов Иван Иванович",
		BirthYear:       1956,
		Diagnosis:       "Сахарный диабет 2 типа",
		AttendingDoctor: "Петрова А.С.",
	}
}

func TestCreate_Valid(t *testing.T) {
	svc := NewService(newMockRepo())
	p := validPatient()
	if err := svc.Create(context.Background(), p); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.ID == 0 {
		t.Error("expected assigned id")
	}
}

func TestCreate_TrimsFields(t *testing.T) {
	svc := NewService(newMockRepo())
	p := validPatient()
	p.FullName = "  Иванов Иван  "
	if err := svc.Create(context.Background(), p); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.FullName != "Иванов Иван" {
		t.Errorf("full name not trimmed: %q", p.FullName)
	}
}

func TestCreate_ValidationFailures(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Patient)
		field  string
	}{
		{"blank name", func(p *Patient) { p.FullName = "   " }, "full_name"},
		{"blank diagnosis", func(p *Patient) { p.Diagnosis = "" }, "diagnosis"},
		{"birth year too old", func(p *Patient) { p.BirthYear = 1850 }, "birth_year"},
		{"birth year in future", func(p *Patient) { p.BirthYear = time.Now().Year() + 1 }, "birth_year"},
	}
	svc := NewService(newMockRepo())
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			p := validPatient()
			tc.mutate(p)
			err := svc.Create(context.Background(), p)
			var ve *apperr.ValidationError
			if !errors.As(err, &ve) {
				t.Fatalf("expected validation error, got %v", err)
			}
			found := false
			for _, f := range ve.Fields {
				if f.Field == tc.field {
					found = true
				}
			}
			if !found {
				t.Errorf("expected failure on field %s, got %v", tc.field, ve.Fields)
			}
		})
	}
}

func TestCreate_CollectsAllFailures(t *testing.T) {
	svc := NewService(newMockRepo())
	err := svc.Create(context.Background(), &Patient{})
	var ve *apperr.ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if len(ve.Fields) != 3 {
		t.Errorf("expected 3 field failures, got %d: %v", len(ve.Fields), ve.Fields)
	}
}

func TestDelete_Referenced(t *testing.T) {
	repo := newMockRepo()
	svc := NewService(repo)
	p := validPatient()
	if err := svc.Create(context.Background(), p); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	repo.refs[p.ID] = true

	err := svc.Delete(context.Background(), p.ID)
	if !errors.Is(err, apperr.ErrConflict) {
		t.Errorf("expected conflict for referenced patient, got %v", err)
	}
}

func TestList_WrapsPagination(t *testing.T) {
	repo := newMockRepo()
	svc := NewService(repo)
	for i := 0; i < 3; i++ {
		if err := svc.Create(context.Background(), validPatient()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	res, err := svc.List(context.Background(), ListOptions{Page: pagination.Normalize(1, 2)})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Total != 3 {
		t.Errorf("expected total 3, got %d", res.Total)
	}
	if res.TotalPages != 2 {
		t.Errorf("expected 2 pages, got %d", res.TotalPages)
	}
}
