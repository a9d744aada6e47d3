package labrequest

import "context"

// Filter narrows List. Empty fields match everything.
type Filter struct {
	PatientID     string
	Status        string
	DateRequested string
}

// Repository persists lab requests in creation order.
type Repository interface {
	List(ctx context.Context, f Filter) ([]*LabRequest, error)
	GetByID(ctx context.Context, id string) (*LabRequest, error)
	Create(ctx context.Context, l *LabRequest) error
	Update(ctx context.Context, l *LabRequest) error
	Delete(ctx context.Context, id string) error

	// DeletePatient removes every lab request of the patient.
	DeletePatient(ctx context.Context, patientID string) (int, error)
	// UnlinkDoctor clears RequestedBy on the doctor's lab requests.
	UnlinkDoctor(ctx context.Context, doctorID string) (int, error)
}
