package schedule

import (
	"context"

	"github.com/clinic/clinic/internal/domain/doctor"
	"github.com/clinic/clinic/internal/platform/apperr"
)

// Doctors resolves the doctor a schedule belongs to.
type Doctors interface {
	Get(ctx context.Context, id string) (*doctor.Doctor, error)
}

type Service struct {
	repo    Repository
	doctors Doctors
}

func NewService(repo Repository, doctors Doctors) *Service {
	return &Service{repo: repo, doctors: doctors}
}

func (s *Service) List(ctx context.Context, f Filter) ([]*Schedule, error) {
	return s.repo.List(ctx, f)
}

func (s *Service) Get(ctx context.Context, id string) (*Schedule, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) Create(ctx context.Context, in Schedule) (*Schedule, error) {
	in.ID = ""
	sch, err := NewSchedule(in)
	if err != nil {
		return nil, apperr.Invalid("%s", err.Error())
	}
	if sch.DoctorID != "" {
		if _, err := s.doctors.Get(ctx, sch.DoctorID); err != nil {
			if apperr.KindOf(err) == apperr.KindNotFound {
				return nil, apperr.Invalid("%s", err.Error())
			}
			return nil, err
		}
	}
	if err := s.repo.Create(ctx, sch); err != nil {
		return nil, err
	}
	return sch, nil
}

func (s *Service) Delete(ctx context.Context, id string) error {
	return s.repo.Delete(ctx, id)
}

// UnlinkDoctor clears the doctor reference on their schedules. It
// implements doctor.Referrers.
func (s *Service) UnlinkDoctor(ctx context.Context, doctorID string) error {
	_, err := s.repo.UnlinkDoctor(ctx, doctorID)
	return err
}
