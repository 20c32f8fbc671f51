package patient

import (
	"context"

	"github.com/medneed/medneed/pkg/pagination"
)

// ListOptions narrows a paginated patient listing. Search matches full name,
// diagnosis and attending doctor as substrings.
type ListOptions struct {
	Search string
	Sort   string
	Page   pagination.Params
}

type Repository interface {
	Create(ctx context.Context, p *Patient) error
	GetByID(ctx context.Context, id int64) (*Patient, error)
	Update(ctx context.Context, p *Patient) error
	Delete(ctx context.Context, id int64) error
	List(ctx context.Context, opts ListOptions) ([]*Patient, int64, error)
	Exists(ctx context.Context, id int64) (bool, error)
}
