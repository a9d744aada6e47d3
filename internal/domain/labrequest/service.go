package labrequest

import (
	"context"
	"time"

	"github.com/clinic/clinic/internal/domain/doctor"
	"github.com/clinic/clinic/internal/domain/patient"
	"github.com/clinic/clinic/internal/platform/apperr"
	"github.com/clinic/clinic/internal/platform/events"
)

// Patients resolves the patient a request is for.
type Patients interface {
	Get(ctx context.Context, id string) (*patient.Patient, error)
}

// Doctors resolves the doctor who ordered a request.
type Doctors interface {
	Get(ctx context.Context, id string) (*doctor.Doctor, error)
}

type Service struct {
	repo      Repository
	patients  Patients
	doctors   Doctors
	publisher events.Publisher
	now       func() time.Time
}

func NewService(repo Repository, patients Patients, doctors Doctors, publisher events.Publisher) *Service {
	return &Service{repo: repo, patients: patients, doctors: doctors, publisher: publisher, now: time.Now}
}

func (s *Service) List(ctx context.Context, f Filter) ([]*LabRequest, error) {
	if f.Status != "" {
		st, ok := ParseStatus(f.Status)
		if !ok {
			return nil, apperr.Invalid("invalid lab request status: %s", f.Status)
		}
		f.Status = st
	}
	return s.repo.List(ctx, f)
}

func (s *Service) Get(ctx context.Context, id string) (*LabRequest, error) {
	return s.repo.GetByID(ctx, id)
}

// Create stores a new pending request. A caller-supplied id is kept;
// otherwise one is generated.
func (s *Service) Create(ctx context.Context, in LabRequest) (*LabRequest, error) {
	l, err := NewLabRequest(in, s.now().Format("2006-01-02"))
	if err != nil {
		return nil, apperr.Invalid("%s", err.Error())
	}
	if _, err := s.patients.Get(ctx, l.PatientID); err != nil {
		if apperr.KindOf(err) == apperr.KindNotFound {
			return nil, apperr.Invalid("%s", err.Error())
		}
		return nil, err
	}
	if l.RequestedBy != "" {
		if _, err := s.doctors.Get(ctx, l.RequestedBy); err != nil {
			if apperr.KindOf(err) == apperr.KindNotFound {
				return nil, apperr.Invalid("%s", err.Error())
			}
			return nil, err
		}
	}
	if err := s.repo.Create(ctx, l); err != nil {
		return nil, err
	}
	return l, nil
}

// DeleteForPatient removes the patient's lab requests. It implements
// patient.Dependents.
func (s *Service) DeleteForPatient(ctx context.Context, patientID string) error {
	_, err := s.repo.DeletePatient(ctx, patientID)
	return err
}

// UnlinkDoctor clears RequestedBy on the doctor's requests. It implements
// doctor.Referrers.
func (s *Service) UnlinkDoctor(ctx context.Context, doctorID string) error {
	_, err := s.repo.UnlinkDoctor(ctx, doctorID)
	return err
}

// UpdateResults records results for the request made for patientID on
// date. When several requests match, the most recent one is updated. A
// status in the update is applied through the lifecycle: only pending
// requests change, and completing requires a date taken and at least one
// result.
func (s *Service) UpdateResults(ctx context.Context, patientID, date string, u ResultsUpdate) (*LabRequest, error) {
	var next string
	if u.Status != nil {
		st, ok := ParseStatus(*u.Status)
		if !ok {
			return nil, apperr.Invalid("invalid lab request status: %s", *u.Status)
		}
		next = st
	}

	matches, err := s.repo.List(ctx, Filter{PatientID: patientID, DateRequested: date})
	if err != nil {
		return nil, err
	}
	if len(matches) == 0 {
		return nil, apperr.NotFoundf("Lab request for patient %s on %s not found", patientID, date)
	}
	l := matches[len(matches)-1]

	if l.Status != StatusPending {
		return nil, apperr.Conflict("lab request %s is %s and can no longer be updated", l.ID, l.Status)
	}
	if err := l.merge(u); err != nil {
		return nil, apperr.Invalid("%s", err.Error())
	}
	if next != "" && next != l.Status {
		if !CanTransition(l.Status, next) {
			return nil, apperr.Conflict("cannot change lab request status from %s to %s", l.Status, next)
		}
		if next == StatusComplete {
			if err := l.readyToComplete(); err != nil {
				return nil, apperr.Invalid("%s", err.Error())
			}
		}
		l.Status = next
	}

	if err := s.repo.Update(ctx, l); err != nil {
		return nil, err
	}
	s.publishStatus(ctx, l)
	return l, nil
}

// Cancel withdraws a pending request.
func (s *Service) Cancel(ctx context.Context, id string) (*LabRequest, error) {
	l, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !CanTransition(l.Status, StatusCancelled) {
		return nil, apperr.Conflict("cannot change lab request status from %s to %s", l.Status, StatusCancelled)
	}
	l.Status = StatusCancelled
	if err := s.repo.Update(ctx, l); err != nil {
		return nil, err
	}
	s.publishStatus(ctx, l)
	return l, nil
}

func (s *Service) Delete(ctx context.Context, id string) error {
	return s.repo.Delete(ctx, id)
}

func (s *Service) publishStatus(ctx context.Context, l *LabRequest) {
	var eventType string
	switch l.Status {
	case StatusComplete:
		eventType = events.LabRequestCompleted
	case StatusCancelled:
		eventType = events.LabRequestCancelled
	default:
		return
	}
	if s.publisher == nil {
		return
	}
	_ = s.publisher.Publish(ctx, events.New(eventType, l.ID, map[string]string{
		"patient_id":     l.PatientID,
		"date_requested": l.DateRequested,
		"date_taken":     l.DateTaken,
	}))
}
