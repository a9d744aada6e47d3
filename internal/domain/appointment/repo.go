package appointment

import "context"

// Filter narrows List. Empty fields match everything.
type Filter struct {
	PatientID string
	DoctorID  string
	Status    string
	Date      string
}

// Repository persists appointments. Lists are ordered by date and time.
type Repository interface {
	List(ctx context.Context, f Filter) ([]*Appointment, error)
	GetByID(ctx context.Context, id string) (*Appointment, error)
	Create(ctx context.Context, a *Appointment) error
	Update(ctx context.Context, a *Appointment) error
	Delete(ctx context.Context, id string) error

	// DeletePatient removes every appointment of the patient.
	DeletePatient(ctx context.Context, patientID string) (int, error)
	// UnlinkDoctor clears the doctor on every appointment assigned to them.
	UnlinkDoctor(ctx context.Context, doctorID string) (int, error)
}
