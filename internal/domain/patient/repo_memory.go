package patient

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/clinic/clinic/internal/platform/apperr"
	"github.com/clinic/clinic/internal/platform/memstore"
)

type memoryRepo struct {
	store *memstore.Store[*Patient]
}

func NewMemoryRepo() Repository {
	return &memoryRepo{store: memstore.New(clonePatient)}
}

func (r *memoryRepo) List(_ context.Context, f Filter) ([]*Patient, error) {
	return r.store.List(func(p *Patient) bool {
		return f.LastName == "" || strings.EqualFold(p.LastName, f.LastName)
	}), nil
}

func (r *memoryRepo) GetByID(_ context.Context, id string) (*Patient, error) {
	p, ok := r.store.Get(id)
	if !ok {
		return nil, apperr.NotFound("Patient", id)
	}
	return p, nil
}

func (r *memoryRepo) Create(_ context.Context, p *Patient) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	p.CreatedAt, p.UpdatedAt = now, now
	if !r.store.Insert(p.ID, p) {
		return apperr.Conflict("patient %s already exists", p.ID)
	}
	return nil
}

func (r *memoryRepo) Update(_ context.Context, p *Patient) error {
	p.UpdatedAt = time.Now().UTC()
	if !r.store.Replace(p.ID, p) {
		return apperr.NotFound("Patient", p.ID)
	}
	return nil
}

func (r *memoryRepo) Delete(_ context.Context, id string) error {
	if !r.store.Delete(id) {
		return apperr.NotFound("Patient", id)
	}
	return nil
}
