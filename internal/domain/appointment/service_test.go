package appointment

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"

	"github.com/clinic/clinic/internal/domain/doctor"
	"github.com/clinic/clinic/internal/domain/patient"
	"github.com/clinic/clinic/internal/platform/apperr"
	"github.com/clinic/clinic/internal/platform/events"
)

type fixture struct {
	svc       *Service
	patients  *patient.Service
	doctors   *doctor.Service
	recorder  *events.Recorder
	patientID string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	patients := patient.NewService(patient.NewMemoryRepo(), nil)
	p, err := patients.Create(context.Background(), patient.Patient{
		FirstName: "Juan", LastName: "Dela Cruz", Sex: "male", BirthDate: "1990-01-15",
	})
	if err != nil {
		t.Fatalf("create patient: %v", err)
	}
	doctors := doctor.NewService(doctor.NewMemoryRepo(), nil)
	rec := events.NewRecorder()
	svc := NewService(NewMemoryRepo(), patients, doctors, rec)
	patients.OnDelete(svc)
	doctors.OnDelete(svc)
	return &fixture{svc: svc, patients: patients, doctors: doctors, recorder: rec, patientID: p.ID}
}

func (f *fixture) hire(t *testing.T) *doctor.Doctor {
	t.Helper()
	d, err := f.doctors.Create(context.Background(), uuid.NewString(), doctor.Profile{
		Specialization: "Internal Medicine", LicenseNumber: "PRC-" + uuid.NewString()[:8], YearsOfExperience: 10,
	})
	if err != nil {
		t.Fatalf("create doctor: %v", err)
	}
	return d
}

func (f *fixture) book(t *testing.T, date, tm string) *Appointment {
	t.Helper()
	a, err := f.svc.Create(context.Background(), Appointment{PatientID: f.patientID, Reason: "Check-up", Date: date, Time: tm})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	return a
}

func TestService_Create(t *testing.T) {
	f := newFixture(t)
	a := f.book(t, "2024-06-01", "09:00")
	if a.ID == "" || a.Status != StatusScheduled {
		t.Errorf("unexpected appointment: %+v", a)
	}
	if types := f.recorder.Types(); len(types) != 1 || types[0] != events.AppointmentScheduled {
		t.Errorf("unexpected events: %v", types)
	}
}

func TestService_Create_UnknownPatient(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.Create(context.Background(), Appointment{PatientID: "ghost", Reason: "x", Date: "2024-06-01", Time: "09:00"})
	if !errors.Is(err, apperr.ErrInvalid) {
		t.Fatalf("expected invalid, got %v", err)
	}
	if len(f.recorder.Events()) != 0 {
		t.Error("no event expected for failed create")
	}
}

func TestService_UpdateStatus(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.book(t, "2024-06-01", "09:00")

	if _, err := f.svc.Confirm(ctx, a.ID); err != nil {
		t.Fatalf("Confirm: %v", err)
	}
	if _, err := f.svc.Confirm(ctx, a.ID); !errors.Is(err, apperr.ErrConflict) {
		t.Errorf("expected conflict confirming twice, got %v", err)
	}
	done, err := f.svc.UpdateStatus(ctx, a.ID, StatusCompleted)
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if done.Status != StatusCompleted {
		t.Errorf("expected completed, got %s", done.Status)
	}
	if _, err := f.svc.Cancel(ctx, a.ID); !errors.Is(err, apperr.ErrConflict) {
		t.Errorf("expected conflict cancelling completed appointment, got %v", err)
	}

	want := []string{events.AppointmentScheduled, events.AppointmentConfirmed, events.AppointmentCompleted}
	got := f.recorder.Types()
	if len(got) != len(want) {
		t.Fatalf("events = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("event %d = %s, want %s", i, got[i], want[i])
		}
	}
}

func TestService_UpdateStatus_Errors(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.book(t, "2024-06-01", "09:00")

	if _, err := f.svc.UpdateStatus(ctx, a.ID, "postponed"); !errors.Is(err, apperr.ErrInvalid) {
		t.Errorf("expected invalid, got %v", err)
	}
	if _, err := f.svc.UpdateStatus(ctx, "missing", StatusConfirmed); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("expected not found, got %v", err)
	}
	if _, err := f.svc.UpdateStatus(ctx, a.ID, StatusScheduled); !errors.Is(err, apperr.ErrConflict) {
		t.Errorf("expected conflict for scheduled->scheduled, got %v", err)
	}
}

func TestService_Update(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.book(t, "2024-06-01", "09:00")

	reason := "Follow-up"
	got, err := f.svc.Update(ctx, a.ID, Patch{Reason: &reason})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if got.Reason != "Follow-up" || got.Status != StatusScheduled {
		t.Errorf("unexpected appointment: %+v", got)
	}

	f.svc.Cancel(ctx, a.ID)
	if _, err := f.svc.Update(ctx, a.ID, Patch{Reason: &reason}); !errors.Is(err, apperr.ErrConflict) {
		t.Errorf("expected conflict updating cancelled appointment, got %v", err)
	}
	if _, err := f.svc.Update(ctx, "missing", Patch{Reason: &reason}); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("expected not found, got %v", err)
	}
}

func TestService_List_Filters(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	late := f.book(t, "2024-06-01", "15:00")
	early := f.book(t, "2024-06-01", "08:00")
	f.book(t, "2024-06-02", "08:00")
	f.svc.Cancel(ctx, late.ID)

	items, err := f.svc.List(ctx, Filter{Date: "2024-06-01"})
	if err != nil {
		t.Fatal(err)
	}
	if len(items) != 2 || items[0].ID != early.ID {
		t.Errorf("expected 2 items ordered by time, got %+v", items)
	}

	items, _ = f.svc.List(ctx, Filter{Status: StatusCancelled})
	if len(items) != 1 || items[0].ID != late.ID {
		t.Errorf("expected cancelled appointment, got %+v", items)
	}

	if _, err := f.svc.List(ctx, Filter{Status: "bogus"}); !errors.Is(err, apperr.ErrInvalid) {
		t.Errorf("expected invalid status filter, got %v", err)
	}
}

func TestService_Upcoming(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	open := f.book(t, "2024-06-01", "09:00")
	confirmed := f.book(t, "2024-06-01", "10:00")
	cancelled := f.book(t, "2024-06-01", "11:00")
	f.book(t, "2024-06-02", "09:00")
	f.svc.Confirm(ctx, confirmed.ID)
	f.svc.Cancel(ctx, cancelled.ID)

	due, err := f.svc.DueOn(ctx, "2024-06-01")
	if err != nil {
		t.Fatalf("DueOn: %v", err)
	}
	if len(due) != 2 || due[0].AppointmentID != open.ID || due[1].AppointmentID != confirmed.ID {
		t.Errorf("unexpected due list: %+v", due)
	}
	if due[0].PatientID != f.patientID || due[0].Time != "09:00" {
		t.Errorf("unexpected due entry: %+v", due[0])
	}

	if _, err := f.svc.Upcoming(ctx, "tomorrow"); !errors.Is(err, apperr.ErrInvalid) {
		t.Errorf("expected invalid date, got %v", err)
	}
}

func TestService_Delete(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.book(t, "2024-06-01", "09:00")

	if err := f.svc.Delete(ctx, a.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	err := f.svc.Delete(ctx, a.ID)
	if !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if err.Error() != "Appointment with ID "+a.ID+" not found" {
		t.Errorf("unexpected message: %s", err.Error())
	}
}

func TestService_Create_DoctorMustExist(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.Create(ctx, Appointment{PatientID: f.patientID, DoctorID: uuid.NewString(), Reason: "Check-up", Date: "2024-06-03", Time: "09:00"})
	if !errors.Is(err, apperr.ErrInvalid) {
		t.Fatalf("expected invalid for unknown doctor, got %v", err)
	}

	d := f.hire(t)
	a, err := f.svc.Create(ctx, Appointment{PatientID: f.patientID, DoctorID: d.ID, Reason: "Check-up", Date: "2024-06-03", Time: "09:00"})
	if err != nil || a.DoctorID != d.ID {
		t.Fatalf("expected booking with doctor, got %+v, %v", a, err)
	}
}

func TestService_Update_DoctorMustExist(t *testing.T) {
	f := newFixture(t)
	a := f.book(t, "2024-06-03", "09:00")

	missing := uuid.NewString()
	if _, err := f.svc.Update(context.Background(), a.ID, Patch{DoctorID: &missing}); !errors.Is(err, apperr.ErrInvalid) {
		t.Errorf("expected invalid for unknown doctor, got %v", err)
	}
}

func TestService_PatientDeleteRemovesAppointments(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.book(t, "2024-06-03", "09:00")

	other, err := f.patients.Create(ctx, patient.Patient{FirstName: "Rosa", LastName: "Santos", Sex: "female", BirthDate: "1970-02-02"})
	if err != nil {
		t.Fatalf("create patient: %v", err)
	}
	kept, err := f.svc.Create(ctx, Appointment{PatientID: other.ID, Reason: "Follow-up", Date: "2024-06-03", Time: "10:00"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if err := f.patients.Delete(ctx, f.patientID); err != nil {
		t.Fatalf("delete patient: %v", err)
	}
	if _, err := f.svc.Get(ctx, a.ID); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("expected appointment removed with its patient, got %v", err)
	}
	if _, err := f.svc.Get(ctx, kept.ID); err != nil {
		t.Errorf("other patient's appointment removed: %v", err)
	}
}

func TestService_DoctorDeleteUnlinksAppointments(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	d := f.hire(t)
	a, err := f.svc.Create(ctx, Appointment{PatientID: f.patientID, DoctorID: d.ID, Reason: "Check-up", Date: "2024-06-03", Time: "09:00"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if err := f.doctors.Delete(ctx, d.ID); err != nil {
		t.Fatalf("delete doctor: %v", err)
	}
	got, err := f.svc.Get(ctx, a.ID)
	if err != nil {
		t.Fatalf("appointment should survive its doctor: %v", err)
	}
	if got.DoctorID != "" {
		t.Errorf("expected doctor cleared, got %q", got.DoctorID)
	}
}
