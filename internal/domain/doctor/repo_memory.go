package doctor

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
	// serializes uniqueness checks with the writes they guard
	mu    sync.Mutex
	store *memstore.Store[*Doctor]
}

func NewMemoryRepo() Repository {
	return &memoryRepo{store: memstore.New(cloneDoctor)}
}

func (r *memoryRepo) List(_ context.Context, f Filter) ([]*Doctor, error) {
	return r.store.List(func(d *Doctor) bool {
		return f.Active == nil || d.Active == *f.Active
	}), nil
}

func (r *memoryRepo) GetByID(_ context.Context, id string) (*Doctor, error) {
	d, ok := r.store.Get(id)
	if !ok {
		return nil, apperr.NotFound("Doctor", id)
	}
	return d, nil
}

func (r *memoryRepo) GetByUserID(_ context.Context, userID string) (*Doctor, error) {
	d, ok := r.store.Find(func(d *Doctor) bool { return d.UserID == userID })
	if !ok {
		return nil, apperr.NotFoundf("no doctor profile for user %s", userID)
	}
	return d, nil
}

func (r *memoryRepo) GetByLicense(_ context.Context, license string) (*Doctor, error) {
	d, ok := r.store.Find(func(d *Doctor) bool { return strings.EqualFold(d.LicenseNumber, license) })
	if !ok {
		return nil, apperr.NotFoundf("no doctor with license number %s", license)
	}
	return d, nil
}

func (r *memoryRepo) conflict(d *Doctor) error {
	if _, ok := r.store.Find(func(o *Doctor) bool {
		return o.ID != d.ID && strings.EqualFold(o.LicenseNumber, d.LicenseNumber)
	}); ok {
		return apperr.Conflict("license number %s is already registered", d.LicenseNumber)
	}
	if _, ok := r.store.Find(func(o *Doctor) bool { return o.ID != d.ID && o.UserID == d.UserID }); ok {
		return apperr.Conflict("user %s already has a doctor profile", d.UserID)
	}
	return nil
}

func (r *memoryRepo) Create(_ context.Context, d *Doctor) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if d.ID == "" {
		d.ID = uuid.NewString()
	}
	if err := r.conflict(d); err != nil {
		return err
	}
	now := time.Now().UTC()
	d.CreatedAt, d.UpdatedAt = now, now
	if !r.store.Insert(d.ID, d) {
		return apperr.Conflict("doctor %s already exists", d.ID)
	}
	return nil
}

func (r *memoryRepo) Update(_ context.Context, d *Doctor) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.store.Get(d.ID); !ok {
		return apperr.NotFound("Doctor", d.ID)
	}
	if err := r.conflict(d); err != nil {
		return err
	}
	d.UpdatedAt = time.Now().UTC()
	r.store.Replace(d.ID, d)
	return nil
}

func (r *memoryRepo) Delete(_ context.Context, id string) error {
	if !r.store.Delete(id) {
		return apperr.NotFound("Doctor", id)
	}
	return nil
}
