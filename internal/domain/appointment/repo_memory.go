package appointment

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/clinic/clinic/internal/platform/apperr"
	"github.com/clinic/clinic/internal/platform/memstore"
)

type memoryRepo struct {
	store *memstore.Store[*Appointment]
}

func NewMemoryRepo() Repository {
	return &memoryRepo{store: memstore.New(cloneAppointment)}
}

func (f Filter) matches(a *Appointment) bool {
	return (f.PatientID == "" || a.PatientID == f.PatientID) &&
		(f.DoctorID == "" || a.DoctorID == f.DoctorID) &&
		(f.Status == "" || a.Status == f.Status) &&
		(f.Date == "" || a.Date == f.Date)
}

func (r *memoryRepo) List(_ context.Context, f Filter) ([]*Appointment, error) {
	items := r.store.List(f.matches)
	sort.SliceStable(items, func(i, j int) bool {
		if items[i].Date != items[j].Date {
			return items[i].Date < items[j].Date
		}
		return items[i].Time < items[j].Time
	})
	return items, nil
}

func (r *memoryRepo) GetByID(_ context.Context, id string) (*Appointment, error) {
	a, ok := r.store.Get(id)
	if !ok {
		return nil, apperr.NotFound("Appointment", id)
	}
	return a, nil
}

func (r *memoryRepo) Create(_ context.Context, a *Appointment) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	a.CreatedAt, a.UpdatedAt = now, now
	if !r.store.Insert(a.ID, a) {
		return apperr.Conflict("appointment %s already exists", a.ID)
	}
	return nil
}

func (r *memoryRepo) Update(_ context.Context, a *Appointment) error {
	a.UpdatedAt = time.Now().UTC()
	if !r.store.Replace(a.ID, a) {
		return apperr.NotFound("Appointment", a.ID)
	}
	return nil
}

func (r *memoryRepo) Delete(_ context.Context, id string) error {
	if !r.store.Delete(id) {
		return apperr.NotFound("Appointment", id)
	}
	return nil
}

func (r *memoryRepo) DeletePatient(_ context.Context, patientID string) (int, error) {
	return r.store.DeleteWhere(func(a *Appointment) bool { return a.PatientID == patientID }), nil
}

func (r *memoryRepo) UnlinkDoctor(_ context.Context, doctorID string) (int, error) {
	now := time.Now().UTC()
	return r.store.UpdateWhere(
		func(a *Appointment) bool { return doctorID != "" && a.DoctorID == doctorID },
		func(a *Appointment) *Appointment { a.DoctorID, a.UpdatedAt = "", now; return a },
	), nil
}
