package appointment

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	StatusScheduled = "scheduled"
	StatusConfirmed = "confirmed"
	StatusCancelled = "cancelled"
	StatusCompleted = "completed"
	StatusNoShow    = "no-show"
)

var validStatuses = map[string]bool{
	StatusScheduled: true,
	StatusConfirmed: true,
	StatusCancelled: true,
	StatusCompleted: true,
	StatusNoShow:    true,
}

// transitions lists the statuses reachable from each status. Cancelled,
// completed and no-show are terminal.
var transitions = map[string]map[string]bool{
	StatusScheduled: {StatusConfirmed: true, StatusCancelled: true, StatusCompleted: true, StatusNoShow: true},
	StatusConfirmed: {StatusCancelled: true, StatusCompleted: true, StatusNoShow: true},
}

// ValidStatus reports whether s is a known appointment status.
func ValidStatus(s string) bool { return validStatuses[s] }

// CanTransition reports whether an appointment may move from one status to
// another.
func CanTransition(from, to string) bool {
	return transitions[from][to]
}

// Open reports whether the appointment can still take place.
func (a *Appointment) Open() bool {
	return a.Status == StatusScheduled || a.Status == StatusConfirmed
}

type Appointment struct {
	ID        string    `json:"id"`
	PatientID string    `json:"patient_id"`
	DoctorID  string    `json:"doctor_id,omitempty"`
	Reason    string    `json:"reason"`
	Date      string    `json:"date"`
	Time      string    `json:"time"`
	Status    string    `json:"status"`
	Notes     string    `json:"notes,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Patch carries a partial update. Status changes go through
// Service.UpdateStatus instead.
type Patch struct {
	DoctorID *string `json:"doctor_id" validate:"omitempty,uuid"`
	Reason   *string `json:"reason" validate:"omitempty,max=500"`
	Date     *string `json:"date" validate:"omitempty,date"`
	Time     *string `json:"time" validate:"omitempty,clock"`
	Notes    *string `json:"notes" validate:"omitempty,max=2000"`
}

// NewAppointment builds a scheduled appointment.
func NewAppointment(a Appointment) (*Appointment, error) {
	a.PatientID = strings.TrimSpace(a.PatientID)
	a.DoctorID = strings.TrimSpace(a.DoctorID)
	a.Reason = strings.TrimSpace(a.Reason)
	a.Status = StatusScheduled
	if err := a.check(); err != nil {
		return nil, err
	}
	return &a, nil
}

func (a *Appointment) check() error {
	if a.PatientID == "" {
		return fmt.Errorf("patient_id is required")
	}
	if a.DoctorID != "" {
		if _, err := uuid.Parse(a.DoctorID); err != nil {
			return fmt.Errorf("doctor_id must be a valid UUID")
		}
	}
	if a.Reason == "" {
		return fmt.Errorf("reason is required")
	}
	if _, err := time.Parse("2006-01-02", a.Date); err != nil {
		return fmt.Errorf("date must be a date in YYYY-MM-DD format")
	}
	if _, err := time.Parse("15:04", a.Time); err != nil {
		return fmt.Errorf("time must be a time in HH:MM format")
	}
	if !validStatuses[a.Status] {
		return fmt.Errorf("invalid appointment status: %s", a.Status)
	}
	return nil
}

// Update applies the non-nil fields of patch and re-checks the result.
func (a *Appointment) Update(patch Patch) error {
	next := *a
	if patch.DoctorID != nil {
		next.DoctorID = strings.TrimSpace(*patch.DoctorID)
	}
	if patch.Reason != nil {
		next.Reason = strings.TrimSpace(*patch.Reason)
	}
	if patch.Date != nil {
		next.Date = *patch.Date
	}
	if patch.Time != nil {
		next.Time = *patch.Time
	}
	if patch.Notes != nil {
		next.Notes = *patch.Notes
	}
	if err := next.check(); err != nil {
		return err
	}
	*a = next
	return nil
}

func cloneAppointment(a *Appointment) *Appointment {
	c := *a
	return &c
}
