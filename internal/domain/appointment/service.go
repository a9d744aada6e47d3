package appointment

import (
	"context"
	"time"

	"github.com/clinic/clinic/internal/domain/doctor"
	"github.com/clinic/clinic/internal/domain/patient"
	"github.com/clinic/clinic/internal/platform/apperr"
	"github.com/clinic/clinic/internal/platform/events"
	"github.com/clinic/clinic/internal/platform/reminder"
)

// Patients resolves the patient an appointment is booked for.
type Patients interface {
	Get(ctx context.Context, id string) (*patient.Patient, error)
}

// Doctors resolves the doctor an appointment is assigned to.
type Doctors interface {
	Get(ctx context.Context, id string) (*doctor.Doctor, error)
}

type Service struct {
	repo      Repository
	patients  Patients
	doctors   Doctors
	publisher events.Publisher
}

func NewService(repo Repository, patients Patients, doctors Doctors, publisher events.Publisher) *Service {
	return &Service{repo: repo, patients: patients, doctors: doctors, publisher: publisher}
}

func (s *Service) List(ctx context.Context, f Filter) ([]*Appointment, error) {
	if f.Status != "" && !validStatuses[f.Status] {
		return nil, apperr.Invalid("invalid appointment status: %s", f.Status)
	}
	return s.repo.List(ctx, f)
}

func (s *Service) Get(ctx context.Context, id string) (*Appointment, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) Create(ctx context.Context, in Appointment) (*Appointment, error) {
	in.ID = ""
	a, err := NewAppointment(in)
	if err != nil {
		return nil, apperr.Invalid("%s", err.Error())
	}
	if _, err := s.patients.Get(ctx, a.PatientID); err != nil {
		if apperr.KindOf(err) == apperr.KindNotFound {
			return nil, apperr.Invalid("%s", err.Error())
		}
		return nil, err
	}
	if err := s.checkDoctor(ctx, a.DoctorID); err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, a); err != nil {
		return nil, err
	}
	s.publish(ctx, events.AppointmentScheduled, a)
	return a, nil
}

// Update changes the booking details of an open appointment.
func (s *Service) Update(ctx context.Context, id string, patch Patch) (*Appointment, error) {
	a, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !a.Open() {
		return nil, apperr.Conflict("appointment %s is %s and can no longer be changed", a.ID, a.Status)
	}
	if err := a.Update(patch); err != nil {
		return nil, apperr.Invalid("%s", err.Error())
	}
	if patch.DoctorID != nil {
		if err := s.checkDoctor(ctx, a.DoctorID); err != nil {
			return nil, err
		}
	}
	if err := s.repo.Update(ctx, a); err != nil {
		return nil, err
	}
	return a, nil
}

// UpdateStatus moves the appointment to status if the lifecycle allows it.
func (s *Service) UpdateStatus(ctx context.Context, id, status string) (*Appointment, error) {
	if !validStatuses[status] {
		return nil, apperr.Invalid("invalid appointment status: %s", status)
	}
	a, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !CanTransition(a.Status, status) {
		return nil, apperr.Conflict("cannot change appointment status from %s to %s", a.Status, status)
	}
	a.Status = status
	if err := s.repo.Update(ctx, a); err != nil {
		return nil, err
	}
	s.publish(ctx, statusEvents[status], a)
	return a, nil
}

func (s *Service) Cancel(ctx context.Context, id string) (*Appointment, error) {
	return s.UpdateStatus(ctx, id, StatusCancelled)
}

func (s *Service) Confirm(ctx context.Context, id string) (*Appointment, error) {
	return s.UpdateStatus(ctx, id, StatusConfirmed)
}

func (s *Service) Delete(ctx context.Context, id string) error {
	return s.repo.Delete(ctx, id)
}

// DeleteForPatient removes the patient's appointments. It implements
// patient.Dependents.
func (s *Service) DeleteForPatient(ctx context.Context, patientID string) error {
	_, err := s.repo.DeletePatient(ctx, patientID)
	return err
}

// UnlinkDoctor clears the doctor on their appointments. It implements
// doctor.Referrers.
func (s *Service) UnlinkDoctor(ctx context.Context, doctorID string) error {
	_, err := s.repo.UnlinkDoctor(ctx, doctorID)
	return err
}

func (s *Service) checkDoctor(ctx context.Context, doctorID string) error {
	if doctorID == "" {
		return nil
	}
	if _, err := s.doctors.Get(ctx, doctorID); err != nil {
		if apperr.KindOf(err) == apperr.KindNotFound {
			return apperr.Invalid("%s", err.Error())
		}
		return err
	}
	return nil
}

// Upcoming returns the open appointments on date (YYYY-MM-DD).
func (s *Service) Upcoming(ctx context.Context, date string) ([]*Appointment, error) {
	if _, err := time.Parse("2006-01-02", date); err != nil {
		return nil, apperr.Invalid("date must be a date in YYYY-MM-DD format")
	}
	items, err := s.repo.List(ctx, Filter{Date: date})
	if err != nil {
		return nil, err
	}
	open := items[:0]
	for _, a := range items {
		if a.Open() {
			open = append(open, a)
		}
	}
	return open, nil
}

// DueOn implements reminder.Source.
func (s *Service) DueOn(ctx context.Context, date string) ([]reminder.Due, error) {
	items, err := s.Upcoming(ctx, date)
	if err != nil {
		return nil, err
	}
	due := make([]reminder.Due, 0, len(items))
	for _, a := range items {
		due = append(due, reminder.Due{
			AppointmentID: a.ID, PatientID: a.PatientID, DoctorID: a.DoctorID,
			Date: a.Date, Time: a.Time,
		})
	}
	return due, nil
}

var statusEvents = map[string]string{
	StatusScheduled: events.AppointmentScheduled,
	StatusConfirmed: events.AppointmentConfirmed,
	StatusCancelled: events.AppointmentCancelled,
	StatusCompleted: events.AppointmentCompleted,
	StatusNoShow:    events.AppointmentNoShow,
}

func (s *Service) publish(ctx context.Context, eventType string, a *Appointment) {
	if s.publisher == nil {
		return
	}
	_ = s.publisher.Publish(ctx, events.New(eventType, a.ID, map[string]string{
		"patient_id": a.PatientID,
		"doctor_id":  a.DoctorID,
		"date":       a.Date,
		"time":       a.Time,
		"status":     a.Status,
	}))
}
