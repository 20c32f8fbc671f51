package medicine

import (
	"context"

	"github.com/medneed/medneed/pkg/pagination"
)

// ListOptions narrows a paginated medicine listing. Search matches trade
// name, MNN and section; the price bounds are inclusive and optional.
type ListOptions struct {
	Search   string
	MinPrice *float64
	MaxPrice *float64
	Sort     string
	Page     pagination.Params
}

type Repository interface {
	Create(ctx context.Context, m *Medicine) error
	GetByID(ctx context.Context, id int64) (*Medicine, error)
	Update(ctx context.Context, m *Medicine) error
	Delete(ctx context.Context, id int64) error
	List(ctx context.Context, opts ListOptions) ([]*Medicine, int64, error)
	Exists(ctx context.Context, id int64) (bool, error)
}
