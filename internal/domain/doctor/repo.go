package doctor

import "context"

// Filter narrows List. A nil Active matches both states.
type Filter struct {
	Active *bool
}

// Repository persists doctor profiles. Lookups by id, user id and license
// number return an apperr NotFound error when nothing matches; Update and
// Delete do the same for an absent id.
type Repository interface {
	List(ctx context.Context, f Filter) ([]*Doctor, error)
	GetByID(ctx context.Context, id string) (*Doctor, error)
	GetByUserID(ctx context.Context, userID string) (*Doctor, error)
	GetByLicense(ctx context.Context, license string) (*Doctor, error)
	Create(ctx context.Context, d *Doctor) error
	Update(ctx context.Context, d *Doctor) error
	Delete(ctx context.Context, id string) error
}
