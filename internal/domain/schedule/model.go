package schedule

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Schedule is a doctor's availability slot.
type Schedule struct {
	ID         string    `json:"id"`
	DoctorID   string    `json:"doctor_id,omitempty"`
	DoctorName string    `json:"doctor_name"`
	Date       string    `json:"date"`
	Time       string    `json:"time"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

func NewSchedule(s Schedule) (*Schedule, error) {
	s.DoctorID = strings.TrimSpace(s.DoctorID)
	s.DoctorName = strings.Join(strings.Fields(s.DoctorName), " ")
	if s.DoctorName == "" {
		return nil, fmt.Errorf("doctor_name is required")
	}
	if s.DoctorID != "" {
		if _, err := uuid.Parse(s.DoctorID); err != nil {
			return nil, fmt.Errorf("doctor_id must be a valid UUID")
		}
	}
	if _, err := time.Parse("2006-01-02", s.Date); err != nil {
		return nil, fmt.Errorf("date must be a date in YYYY-MM-DD format")
	}
	if _, err := time.Parse("15:04", s.Time); err != nil {
		return nil, fmt.Errorf("time must be a time in HH:MM format")
	}
	return &s, nil
}

func cloneSchedule(s *Schedule) *Schedule {
	c := *s
	return &c
}
