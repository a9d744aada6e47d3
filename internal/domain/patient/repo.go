package patient

import "context"

// Filter narrows List. Empty fields match everything.
type Filter struct {
	LastName string
}

// Repository persists patients. GetByID, Update and Delete return an
// apperr NotFound error when the id does not exist.
type Repository interface {
	List(ctx context.Context, f Filter) ([]*Patient, error)
	GetByID(ctx context.Context, id string) (*Patient, error)
	Create(ctx context.Context, p *Patient) error
	Update(ctx context.Context, p *Patient) error
	Delete(ctx context.Context, id string) error
}
