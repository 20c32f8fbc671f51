package patient

import (
	"context"
	"strings"
	"time"

	"github.com/medneed/medneed/internal/platform/apperr"
	"github.com/medneed/medneed/pkg/pagination"
)

const minBirthYear = 1900

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) validate(p *Patient) error {
	var ve apperr.ValidationError
	p.FullName = strings.TrimSpace(p.FullName)
	p.Diagnosis = strings.TrimSpace(p.Diagnosis)
	p.AttendingDoctor = strings.TrimSpace(p.AttendingDoctor)

	if p.FullName == "" {
		ve.Add("full_name", "is required")
	}
	if p.Diagnosis == "" {
		ve.Add("diagnosis", "is required")
	}
	if year := time.Now().Year(); p.BirthYear < minBirthYear || p.BirthYear > year {
		ve.Add("birth_year", "must be between %d and %d", minBirthYear, year)
	}
	return ve.Err()
}

func (s *Service) Create(ctx context.Context, p *Patient) error {
	if err := s.validate(p); err != nil {
		return err
	}
	return s.repo.Create(ctx, p)
}

func (s *Service) Get(ctx context.Context, id int64) (*Patient, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) Update(ctx context.Context, p *Patient) error {
	if err := s.validate(p); err != nil {
		return err
	}
	return s.repo.Update(ctx, p)
}

// Delete removes a patient. Patients referenced by prescriptions or
// dispensings are kept; the repo reports a conflict instead.
func (s *Service) Delete(ctx context.Context, id int64) error {
	return s.repo.Delete(ctx, id)
}

func (s *Service) List(ctx context.Context, opts ListOptions) (pagination.Result[*Patient], error) {
	items, total, err := s.repo.List(ctx, opts)
	if err != nil {
		return pagination.Result[*Patient]{}, err
	}
	return pagination.NewResult(items, total, opts.Page), nil
}

// Exists reports whether the patient id refers to a stored patient. The
// ledger service uses this through its directory interface.
func (s *Service) Exists(ctx context.Context, id int64) (bool, error) {
	return s.repo.Exists(ctx, id)
}
