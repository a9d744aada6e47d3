package user

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/clinic/clinic/internal/platform/apperr"
	"github.com/clinic/clinic/internal/platform/memstore"
)

type memoryRepo struct {
	mu    sync.Mutex
	store *memstore.Store[*User]
}

func NewMemoryRepo() Repository {
	return &memoryRepo{store: memstore.New(cloneUser)}
}

func (r *memoryRepo) List(_ context.Context, f Filter) ([]*User, error) {
	return r.store.List(func(u *User) bool {
		return f.Role == "" || u.Role == f.Role
	}), nil
}

func (r *memoryRepo) GetByID(_ context.Context, id string) (*User, error) {
	u, ok := r.store.Get(id)
	if !ok {
		return nil, apperr.NotFound("User", id)
	}
	return u, nil
}

func (r *memoryRepo) GetByEmail(_ context.Context, email string) (*User, error) {
	u, ok := r.store.Find(func(u *User) bool { return strings.EqualFold(u.Email, email) })
	if !ok {
		return nil, apperr.NotFoundf("no user with email %s", email)
	}
	return u, nil
}

func (r *memoryRepo) GetByUsername(_ context.Context, username string) (*User, error) {
	u, ok := r.store.Find(func(u *User) bool { return strings.EqualFold(u.Username, username) })
	if !ok {
		return nil, apperr.NotFoundf("no user with username %s", username)
	}
	return u, nil
}

func (r *memoryRepo) conflict(u *User) error {
	if _, ok := r.store.Find(func(o *User) bool { return o.ID != u.ID && strings.EqualFold(o.Email, u.Email) }); ok {
		return apperr.Conflict("email %s is already in use", u.Email)
	}
	if _, ok := r.store.Find(func(o *User) bool { return o.ID != u.ID && strings.EqualFold(o.Username, u.Username) }); ok {
		return apperr.Conflict("username %s is already in use", u.Username)
	}
	return nil
}

func (r *memoryRepo) Create(_ context.Context, u *User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	if err := r.conflict(u); err != nil {
		return err
	}
	now := time.Now().UTC()
	u.CreatedAt, u.UpdatedAt = now, now
	if !r.store.Insert(u.ID, u) {
		return apperr.Conflict("user %s already exists", u.ID)
	}
	return nil
}

func (r *memoryRepo) Update(_ context.Context, u *User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.store.Get(u.ID); !ok {
		return apperr.NotFound("User", u.ID)
	}
	if err := r.conflict(u); err != nil {
		return err
	}
	u.UpdatedAt = time.Now().UTC()
	r.store.Replace(u.ID, u)
	return nil
}

func (r *memoryRepo) Delete(_ context.Context, id string) error {
	if !r.store.Delete(id) {
		return apperr.NotFound("User", id)
	}
	return nil
}
