package labrequest

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/clinic/clinic/internal/platform/apperr"
	"github.com/clinic/clinic/internal/platform/memstore"
)

type memoryRepo struct {
	store *memstore.Store[*LabRequest]
}

func NewMemoryRepo() Repository {
	return &memoryRepo{store: memstore.New(cloneLabRequest)}
}

func (r *memoryRepo) List(_ context.Context, f Filter) ([]*LabRequest, error) {
	return r.store.List(func(l *LabRequest) bool {
		return (f.PatientID == "" || l.PatientID == f.PatientID) &&
			(f.Status == "" || l.Status == f.Status) &&
			(f.DateRequested == "" || l.DateRequested == f.DateRequested)
	}), nil
}

func (r *memoryRepo) GetByID(_ context.Context, id string) (*LabRequest, error) {
	l, ok := r.store.Get(id)
	if !ok {
		return nil, apperr.NotFound("Lab request", id)
	}
	return l, nil
}

func (r *memoryRepo) Create(_ context.Context, l *LabRequest) error {
	if l.ID == "" {
		l.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	l.CreatedAt, l.UpdatedAt = now, now
	if !r.store.Insert(l.ID, l) {
		return apperr.Conflict("lab request %s already exists", l.ID)
	}
	return nil
}

func (r *memoryRepo) Update(_ context.Context, l *LabRequest) error {
	l.UpdatedAt = time.Now().UTC()
	if !r.store.Replace(l.ID, l) {
		return apperr.NotFound("Lab request", l.ID)
	}
	return nil
}

func (r *memoryRepo) Delete(_ context.Context, id string) error {
	if !r.store.Delete(id) {
		return apperr.NotFound("Lab request", id)
	}
	return nil
}

func (r *memoryRepo) DeletePatient(_ context.Context, patientID string) (int, error) {
	return r.store.DeleteWhere(func(l *LabRequest) bool { return l.PatientID == patientID }), nil
}

func (r *memoryRepo) UnlinkDoctor(_ context.Context, doctorID string) (int, error) {
	now := time.Now().UTC()
	return r.store.UpdateWhere(
		func(l *LabRequest) bool { return doctorID != "" && l.RequestedBy == doctorID },
		func(l *LabRequest) *LabRequest { l.RequestedBy, l.UpdatedAt = "", now; return l },
	), nil
}
