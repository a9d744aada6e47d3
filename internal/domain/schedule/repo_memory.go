package schedule

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/clinic/clinic/internal/platform/apperr"
	"github.com/clinic/clinic/internal/platform/memstore"
)

type memoryRepo struct {
	store *memstore.Store[*Schedule]
}

func NewMemoryRepo() Repository {
	return &memoryRepo{store: memstore.New(cloneSchedule)}
}

func (r *memoryRepo) List(_ context.Context, f Filter) ([]*Schedule, error) {
	items := r.store.List(func(s *Schedule) bool {
		return (f.DoctorName == "" || strings.EqualFold(s.DoctorName, f.DoctorName)) &&
			(f.Date == "" || s.Date == f.Date)
	})
	sort.SliceStable(items, func(i, j int) bool {
		if items[i].Date != items[j].Date {
			return items[i].Date < items[j].Date
		}
		return items[i].Time < items[j].Time
	})
	return items, nil
}

func (r *memoryRepo) GetByID(_ context.Context, id string) (*Schedule, error) {
	s, ok := r.store.Get(id)
	if !ok {
		return nil, apperr.NotFound("Schedule", id)
	}
	return s, nil
}

func (r *memoryRepo) Create(_ context.Context, s *Schedule) error {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	s.CreatedAt, s.UpdatedAt = now, now
	if !r.store.Insert(s.ID, s) {
		return apperr.Conflict("schedule %s already exists", s.ID)
	}
	return nil
}

func (r *memoryRepo) Delete(_ context.Context, id string) error {
	if !r.store.Delete(id) {
		return apperr.NotFound("Schedule", id)
	}
	return nil
}

func (r *memoryRepo) UnlinkDoctor(_ context.Context, doctorID string) (int, error) {
	now := time.Now().UTC()
	return r.store.UpdateWhere(
		func(s *Schedule) bool { return doctorID != "" && s.DoctorID == doctorID },
		func(s *Schedule) *Schedule { s.DoctorID, s.UpdatedAt = "", now; return s },
	), nil
}
