package user

import (
	"fmt"
	"net/mail"
	"strings"
	"time"
)

const (
	RoleAdmin        = "admin"
	RoleDoctor       = "doctor"
	RoleReceptionist = "receptionist"
)

var validRoles = map[string]bool{RoleAdmin: true, RoleDoctor: true, RoleReceptionist: true}

// MinPasswordLength applies to new passwords. bcrypt ignores input past
// 72 bytes, so longer passwords are rejected.
const (
	MinPasswordLength = 8
	MaxPasswordLength = 72
)

type User struct {
	ID            string    `json:"id"`
	Username      string    `json:"username"`
	Email         string    `json:"email"`
	PasswordHash  string    `json:"-"`
	Role          string    `json:"role"`
	FirstName     string    `json:"first_name,omitempty"`
	LastName      string    `json:"last_name,omitempty"`
	ContactNumber string    `json:"contact_number,omitempty"`
	Active        bool      `json:"active"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// Patch carries a partial profile update. Role and Active are admin-only.
type Patch struct {
	Email         *string `json:"email" validate:"omitempty,email"`
	FirstName     *string `json:"first_name" validate:"omitempty,max=100"`
	LastName      *string `json:"last_name" validate:"omitempty,max=100"`
	ContactNumber *string `json:"contact_number" validate:"omitempty,max=30"`
	Role          *string `json:"role" validate:"omitempty,oneof=admin doctor receptionist"`
	Active        *bool   `json:"active"`
}

// NewUser checks identity fields and normalizes username and email. The
// password hash is set by the caller.
func NewUser(username, email, role string) (*User, error) {
	u := &User{
		Username: strings.TrimSpace(username),
		Email:    strings.ToLower(strings.TrimSpace(email)),
		Role:     strings.ToLower(strings.TrimSpace(role)),
		Active:   true,
	}
	if err := u.check(); err != nil {
		return nil, err
	}
	return u, nil
}

func (u *User) check() error {
	if len(u.Username) < 3 {
		return fmt.Errorf("username must be at least 3 characters")
	}
	if strings.ContainsAny(u.Username, " \t@") {
		return fmt.Errorf("username must not contain spaces or @")
	}
	if _, err := mail.ParseAddress(u.Email); err != nil || strings.Contains(u.Email, " ") {
		return fmt.Errorf("email must be a valid email address")
	}
	if !validRoles[u.Role] {
		return fmt.Errorf("role must be one of admin, doctor, receptionist")
	}
	return nil
}

// Update applies the non-nil fields of patch and re-checks the result.
func (u *User) Update(patch Patch) error {
	next := *u
	if patch.Email != nil {
		next.Email = strings.ToLower(strings.TrimSpace(*patch.Email))
	}
	if patch.FirstName != nil {
		next.FirstName = *patch.FirstName
	}
	if patch.LastName != nil {
		next.LastName = *patch.LastName
	}
	if patch.ContactNumber != nil {
		next.ContactNumber = *patch.ContactNumber
	}
	if patch.Role != nil {
		next.Role = strings.ToLower(*patch.Role)
	}
	if patch.Active != nil {
		next.Active = *patch.Active
	}
	if err := next.check(); err != nil {
		return err
	}
	*u = next
	return nil
}

func checkPassword(pw string) error {
	if len(pw) < MinPasswordLength {
		return fmt.Errorf("password must be at least %d characters", MinPasswordLength)
	}
	if len(pw) > MaxPasswordLength {
		return fmt.Errorf("password must be at most %d bytes", MaxPasswordLength)
	}
	return nil
}

func cloneUser(u *User) *User {
	c := *u
	return &c
}
