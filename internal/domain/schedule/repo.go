package schedule

import "context"

// Filter narrows List. DoctorName matches case-insensitively.
type Filter struct {
	DoctorName string
	Date       string
}

type Repository interface {
	List(ctx context.Context, f Filter) ([]*Schedule, error)
	GetByID(ctx context.Context, id string) (*Schedule, error)
	Create(ctx context.Context, s *Schedule) error
	Delete(ctx context.Context, id string) error
	// UnlinkDoctor clears DoctorID on the doctor's schedules; the doctor
	// name stays.
	UnlinkDoctor(ctx context.Context, doctorID string) (int, error)
}
