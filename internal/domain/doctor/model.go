package doctor

import (
	"fmt"
	"strings"
	"time"
)

const MaxYearsOfExperience = 80

type Doctor struct {
	ID                string    `json:"id"`
	UserID            string    `json:"user_id"`
	Specialization    string    `json:"specialization"`
	LicenseNumber     string    `json:"license_number"`
	YearsOfExperience int       `json:"years_of_experience"`
	Active            bool      `json:"active"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// Profile is the doctor-specific part of a registration.
type Profile struct {
	Specialization    string `json:"specialization" validate:"required,max=100"`
	LicenseNumber     string `json:"license_number" validate:"required,max=50"`
	YearsOfExperience int    `json:"years_of_experience" validate:"min=0,max=80"`
}

// Patch carries a partial update. Nil fields are left unchanged.
type Patch struct {
	Specialization    *string `json:"specialization" validate:"omitempty,max=100"`
	LicenseNumber     *string `json:"license_number" validate:"omitempty,max=50"`
	YearsOfExperience *int    `json:"years_of_experience" validate:"omitempty,min=0,max=80"`
	Active            *bool   `json:"active"`
}

func (p *Profile) normalize() {
	p.Specialization = strings.TrimSpace(p.Specialization)
	p.LicenseNumber = strings.ToUpper(strings.TrimSpace(p.LicenseNumber))
}

func (p Profile) check() error {
	if p.Specialization == "" {
		return fmt.Errorf("specialization is required")
	}
	if p.LicenseNumber == "" {
		return fmt.Errorf("license_number is required")
	}
	if p.YearsOfExperience < 0 || p.YearsOfExperience > MaxYearsOfExperience {
		return fmt.Errorf("years_of_experience must be between 0 and %d", MaxYearsOfExperience)
	}
	return nil
}

// NewDoctor builds an active doctor for userID from a checked profile.
func NewDoctor(userID string, p Profile) (*Doctor, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, fmt.Errorf("user_id is required")
	}
	p.normalize()
	if err := p.check(); err != nil {
		return nil, err
	}
	return &Doctor{
		UserID:            userID,
		Specialization:    p.Specialization,
		LicenseNumber:     p.LicenseNumber,
		YearsOfExperience: p.YearsOfExperience,
		Active:            true,
	}, nil
}

// Update applies the non-nil fields of patch and re-checks the profile.
func (d *Doctor) Update(patch Patch) error {
	p := d.profile()
	if patch.Specialization != nil {
		p.Specialization = *patch.Specialization
	}
	if patch.LicenseNumber != nil {
		p.LicenseNumber = *patch.LicenseNumber
	}
	if patch.YearsOfExperience != nil {
		p.YearsOfExperience = *patch.YearsOfExperience
	}
	p.normalize()
	if err := p.check(); err != nil {
		return err
	}
	d.Specialization, d.LicenseNumber, d.YearsOfExperience = p.Specialization, p.LicenseNumber, p.YearsOfExperience
	if patch.Active != nil {
		d.Active = *patch.Active
	}
	return nil
}

func (d *Doctor) profile() Profile {
	return Profile{Specialization: d.Specialization, LicenseNumber: d.LicenseNumber, YearsOfExperience: d.YearsOfExperience}
}

func cloneDoctor(d *Doctor) *Doctor {
	c := *d
	return &c
}
