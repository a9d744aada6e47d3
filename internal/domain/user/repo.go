package user

import "context"

// Filter narrows List. Empty fields match everything.
type Filter struct {
	Role string
}

// Repository persists user accounts. Email and username lookups are
// case-insensitive. Create and Update return an apperr Conflict error when
// the email or username is taken; GetByID, Update and Delete return
// NotFound for an absent id.
type Repository interface {
	List(ctx context.Context, f Filter) ([]*User, error)
	GetByID(ctx context.Context, id string) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	GetByUsername(ctx context.Context, username string) (*User, error)
	Create(ctx context.Context, u *User) error
	Update(ctx context.Context, u *User) error
	Delete(ctx context.Context, id string) error
}
