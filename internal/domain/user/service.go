package user

import (
	"context"
	"fmt"
	"strings"

	"github.com/clinic/clinic/internal/domain/doctor"
	"github.com/clinic/clinic/internal/platform/apperr"
	"github.com/clinic/clinic/internal/platform/auth"
)

// DoctorProfiles is the part of the doctor service registration needs.
type DoctorProfiles interface {
	ValidateProfile(ctx context.Context, p doctor.Profile) error
	Create(ctx context.Context, userID string, p doctor.Profile) (*doctor.Doctor, error)
	GetByUserID(ctx context.Context, userID string) (*doctor.Doctor, error)
	Delete(ctx context.Context, id string) error
}

type Service struct {
	repo    Repository
	doctors DoctorProfiles
	tokens  *auth.TokenIssuer
}

func NewService(repo Repository, doctors DoctorProfiles, tokens *auth.TokenIssuer) *Service {
	return &Service{repo: repo, doctors: doctors, tokens: tokens}
}

// RegisterInput is a new account, plus a doctor profile when Role is doctor.
type RegisterInput struct {
	Username      string
	Email         string
	Password      string
	Role          string
	FirstName     string
	LastName      string
	ContactNumber string
	Doctor        *doctor.Profile
}

// Registration is the result of Register.
type Registration struct {
	User   *User          `json:"user"`
	Doctor *doctor.Doctor `json:"doctor,omitempty"`
}

// Register creates an account. For doctors the profile is validated in
// full before the user is stored, and the user is removed again if the
// profile still fails to save.
func (s *Service) Register(ctx context.Context, in RegisterInput) (*Registration, error) {
	u, err := NewUser(in.Username, in.Email, in.Role)
	if err != nil {
		return nil, apperr.Invalid("%s", err.Error())
	}
	if err := checkPassword(in.Password); err != nil {
		return nil, apperr.Invalid("%s", err.Error())
	}
	u.FirstName, u.LastName, u.ContactNumber = in.FirstName, in.LastName, in.ContactNumber

	if u.Role == RoleDoctor {
		if in.Doctor == nil {
			return nil, apperr.Invalid("doctor profile is required for role doctor")
		}
		if err := s.doctors.ValidateProfile(ctx, *in.Doctor); err != nil {
			return nil, err
		}
	} else if in.Doctor != nil {
		return nil, apperr.Invalid("doctor profile is only allowed for role doctor")
	}

	if err := s.checkUnique(ctx, u); err != nil {
		return nil, err
	}
	if u.PasswordHash, err = auth.HashPassword(in.Password); err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	if err := s.repo.Create(ctx, u); err != nil {
		return nil, err
	}

	reg := &Registration{User: u}
	if u.Role == RoleDoctor {
		d, err := s.doctors.Create(ctx, u.ID, *in.Doctor)
		if err != nil {
			if derr := s.repo.Delete(ctx, u.ID); derr != nil {
				return nil, fmt.Errorf("create doctor profile: %w (removing user %s: %v)", err, u.ID, derr)
			}
			return nil, err
		}
		reg.Doctor = d
	}
	return reg, nil
}

func (s *Service) checkUnique(ctx context.Context, u *User) error {
	if other, err := s.repo.GetByEmail(ctx, u.Email); err == nil && other.ID != u.ID {
		return apperr.Conflict("email %s is already in use", u.Email)
	} else if err != nil && apperr.KindOf(err) != apperr.KindNotFound {
		return err
	}
	if other, err := s.repo.GetByUsername(ctx, u.Username); err == nil && other.ID != u.ID {
		return apperr.Conflict("username %s is already in use", u.Username)
	} else if err != nil && apperr.KindOf(err) != apperr.KindNotFound {
		return err
	}
	return nil
}

// LoginResult is returned by Login.
type LoginResult struct {
	*auth.Token
	User *User `json:"user"`
}

// Login authenticates by email or username.
func (s *Service) Login(ctx context.Context, identifier, password string) (*LoginResult, error) {
	invalid := apperr.Unauthorized("invalid email/username or password")

	identifier = strings.TrimSpace(identifier)
	var u *User
	var err error
	if strings.Contains(identifier, "@") {
		u, err = s.repo.GetByEmail(ctx, identifier)
	} else {
		u, err = s.repo.GetByUsername(ctx, identifier)
	}
	if err != nil {
		if apperr.KindOf(err) == apperr.KindNotFound {
			return nil, invalid
		}
		return nil, err
	}
	if !auth.CheckPassword(u.PasswordHash, password) {
		return nil, invalid
	}
	if !u.Active {
		return nil, apperr.Unauthorized("account is disabled")
	}

	tok, err := s.tokens.Issue(u.ID, u.Username, u.Role)
	if err != nil {
		return nil, err
	}
	return &LoginResult{Token: tok, User: u}, nil
}

func (s *Service) List(ctx context.Context, f Filter) ([]*User, error) {
	return s.repo.List(ctx, f)
}

func (s *Service) Get(ctx context.Context, id string) (*User, error) {
	return s.repo.GetByID(ctx, id)
}

// Profile is a user together with the doctor profile, if any.
type Profile struct {
	User   *User          `json:"user"`
	Doctor *doctor.Doctor `json:"doctor,omitempty"`
}

// Me returns the caller's account and doctor profile.
func (s *Service) Me(ctx context.Context, id string) (*Profile, error) {
	u, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	p := &Profile{User: u}
	if u.Role == RoleDoctor && s.doctors != nil {
		d, err := s.doctors.GetByUserID(ctx, u.ID)
		if err != nil && apperr.KindOf(err) != apperr.KindNotFound {
			return nil, err
		}
		p.Doctor = d
	}
	return p, nil
}

// Update changes profile fields. Only admins may change role or active, and
// a role change never adds or removes the doctor role, since a doctor
// account is tied to its profile.
func (s *Service) Update(ctx context.Context, id string, patch Patch, asAdmin bool) (*User, error) {
	if !asAdmin && (patch.Role != nil || patch.Active != nil) {
		return nil, apperr.Forbidden("only admins can change role or active")
	}
	u, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if patch.Role != nil && *patch.Role != u.Role && (*patch.Role == RoleDoctor || u.Role == RoleDoctor) {
		return nil, apperr.Conflict("role cannot be changed to or from %s; register a new doctor account or delete this one", RoleDoctor)
	}
	if err := u.Update(patch); err != nil {
		return nil, apperr.Invalid("%s", err.Error())
	}
	if patch.Email != nil {
		if err := s.checkUnique(ctx, u); err != nil {
			return nil, err
		}
	}
	if err := s.repo.Update(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

// ChangePassword sets a new password. Non-admins must supply the current
// one.
func (s *Service) ChangePassword(ctx context.Context, id, current, next string, asAdmin bool) error {
	if err := checkPassword(next); err != nil {
		return apperr.Invalid("%s", err.Error())
	}
	u, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if !asAdmin && !auth.CheckPassword(u.PasswordHash, current) {
		return apperr.Unauthorized("current password is incorrect")
	}
	if u.PasswordHash, err = auth.HashPassword(next); err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	return s.repo.Update(ctx, u)
}

// Delete removes the account and its doctor profile.
func (s *Service) Delete(ctx context.Context, id string) error {
	if _, err := s.repo.GetByID(ctx, id); err != nil {
		return err
	}
	if s.doctors != nil {
		d, err := s.doctors.GetByUserID(ctx, id)
		switch {
		case err == nil:
			if err := s.doctors.Delete(ctx, d.ID); err != nil && apperr.KindOf(err) != apperr.KindNotFound {
				return err
			}
		case apperr.KindOf(err) != apperr.KindNotFound:
			return err
		}
	}
	return s.repo.Delete(ctx, id)
}
