package patient

import (
	"fmt"
	"strings"
	"time"
)

const (
	SexMale   = "male"
	SexFemale = "female"
)

var validSexes = map[string]bool{SexMale: true, SexFemale: true}

type Guardian struct {
	Name          string `json:"name" bson:"name"`
	Relationship  string `json:"relationship" bson:"relationship"`
	ContactNumber string `json:"contact_number" bson:"contact_number"`
}

// Address references the address directory by code.
type Address struct {
	ProvinceCode string `json:"province_code" bson:"province_code"`
	CityCode     string `json:"city_code" bson:"city_code"`
	BarangayCode string `json:"barangay_code,omitempty" bson:"barangay_code,omitempty"`
	Street       string `json:"street,omitempty" bson:"street,omitempty"`
}

type Patient struct {
	ID            string    `json:"id"`
	FirstName     string    `json:"first_name"`
	MiddleName    string    `json:"middle_name,omitempty"`
	LastName      string    `json:"last_name"`
	Sex           string    `json:"sex"`
	BirthDate     string    `json:"birth_date"`
	CivilStatus   string    `json:"civil_status,omitempty"`
	ContactNumber string    `json:"contact_number,omitempty"`
	Email         string    `json:"email,omitempty"`
	Occupation    string    `json:"occupation,omitempty"`
	Guardian      *Guardian `json:"guardian,omitempty"`
	Address       *Address  `json:"address,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// Patch carries a partial update. Nil fields are left unchanged.
type Patch struct {
	FirstName     *string   `json:"first_name" validate:"omitempty,max=100"`
	MiddleName    *string   `json:"middle_name" validate:"omitempty,max=100"`
	LastName      *string   `json:"last_name" validate:"omitempty,max=100"`
	Sex           *string   `json:"sex" validate:"omitempty,oneof=male female"`
	BirthDate     *string   `json:"birth_date" validate:"omitempty,date"`
	CivilStatus   *string   `json:"civil_status" validate:"omitempty,max=20"`
	ContactNumber *string   `json:"contact_number" validate:"omitempty,max=30"`
	Email         *string   `json:"email" validate:"omitempty,email"`
	Occupation    *string   `json:"occupation" validate:"omitempty,max=100"`
	Guardian      *Guardian `json:"guardian"`
	Address       *Address  `json:"address"`
}

// NewPatient builds a patient and checks the fields every record needs.
func NewPatient(p Patient) (*Patient, error) {
	p.FirstName = strings.TrimSpace(p.FirstName)
	p.LastName = strings.TrimSpace(p.LastName)
	p.Sex = strings.ToLower(strings.TrimSpace(p.Sex))
	if err := p.check(); err != nil {
		return nil, err
	}
	return &p, nil
}

func (p *Patient) check() error {
	if p.FirstName == "" {
		return fmt.Errorf("first_name is required")
	}
	if p.LastName == "" {
		return fmt.Errorf("last_name is required")
	}
	if !validSexes[p.Sex] {
		return fmt.Errorf("sex must be male or female")
	}
	bd, err := time.Parse("2006-01-02", p.BirthDate)
	if err != nil {
		return fmt.Errorf("birth_date must be a date in YYYY-MM-DD format")
	}
	if bd.After(time.Now()) {
		return fmt.Errorf("birth_date cannot be in the future")
	}
	return nil
}

// Update applies the non-nil fields of patch and re-checks the result.
func (p *Patient) Update(patch Patch) error {
	next := *p
	if patch.FirstName != nil {
		next.FirstName = strings.TrimSpace(*patch.FirstName)
	}
	if patch.MiddleName != nil {
		next.MiddleName = *patch.MiddleName
	}
	if patch.LastName != nil {
		next.LastName = strings.TrimSpace(*patch.LastName)
	}
	if patch.Sex != nil {
		next.Sex = strings.ToLower(strings.TrimSpace(*patch.Sex))
	}
	if patch.BirthDate != nil {
		next.BirthDate = *patch.BirthDate
	}
	if patch.CivilStatus != nil {
		next.CivilStatus = *patch.CivilStatus
	}
	if patch.ContactNumber != nil {
		next.ContactNumber = *patch.ContactNumber
	}
	if patch.Email != nil {
		next.Email = *patch.Email
	}
	if patch.Occupation != nil {
		next.Occupation = *patch.Occupation
	}
	if patch.Guardian != nil {
		g := *patch.Guardian
		next.Guardian = &g
	}
	if patch.Address != nil {
		a := *patch.Address
		next.Address = &a
	}
	if err := next.check(); err != nil {
		return err
	}
	*p = next
	return nil
}

// FullName joins the name parts that are set.
func (p *Patient) FullName() string {
	parts := []string{p.FirstName}
	if p.MiddleName != "" {
		parts = append(parts, p.MiddleName)
	}
	parts = append(parts, p.LastName)
	return strings.Join(parts, " ")
}

func clonePatient(p *Patient) *Patient {
	c := *p
	if p.Guardian != nil {
		g := *p.Guardian
		c.Guardian = &g
	}
	if p.Address != nil {
		a := *p.Address
		c.Address = &a
	}
	return &c
}
