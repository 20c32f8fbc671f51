package medicine

import (
	"context"
	"strings"

	"github.com/medneed/medneed/internal/platform/apperr"
	"github.com/medneed/medneed/pkg/pagination"
)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) validate(m *Medicine) error {
	var ve apperr.ValidationError
	m.Code = strings.TrimSpace(m.Code)
	m.MNN = strings.TrimSpace(m.MNN)
	m.TradeName = strings.TrimSpace(m.TradeName)

	if m.Code == "" {
		ve.Add("smmn_node_code", "is required")
	}
	if m.MNN == "" {
		ve.Add("standardized_mnn", "is required")
	}
	if m.Price != nil && *m.Price < 0 {
		ve.Add("price", "must not be negative, got %v", *m.Price)
	}
	return ve.Err()
}

func (s *Service) Create(ctx context.Context, m *Medicine) error {
	if err := s.validate(m); err != nil {
		return err
	}
	return s.repo.Create(ctx, m)
}

func (s *Service) Get(ctx context.Context, id int64) (*Medicine, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) Update(ctx context.Context, m *Medicine) error {
	if err := s.validate(m); err != nil {
		return err
	}
	return s.repo.Update(ctx, m)
}

// Delete removes a medicine unless ledger rows still reference it.
func (s *Service) Delete(ctx context.Context, id int64) error {
	return s.repo.Delete(ctx, id)
}

func (s *Service) List(ctx context.Context, opts ListOptions) (pagination.Result[*Medicine], error) {
	if opts.MinPrice != nil && opts.MaxPrice != nil && *opts.MinPrice > *opts.MaxPrice {
		var ve apperr.ValidationError
		ve.Add("price_range", "min price %v exceeds max price %v", *opts.MinPrice, *opts.MaxPrice)
		return pagination.Result[*Medicine]{}, ve.Err()
	}
	items, total, err := s.repo.List(ctx, opts)
	if err != nil {
		return pagination.Result[*Medicine]{}, err
	}
	return pagination.NewResult(items, total, opts.Page), nil
}

func (s *Service) Exists(ctx context.Context, id int64) (bool, error) {
	return s.repo.Exists(ctx, id)
}
