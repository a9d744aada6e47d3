package doctor

import (
	"context"
	"strings"

	"github.com/clinic/clinic/internal/platform/apperr"
)

// UserLookup reports whether a user account exists.
type UserLookup interface {
	UserExists(ctx context.Context, id string) (bool, error)
}

// Referrers hold optional references to a doctor. Deleting a doctor
// clears them, so nothing points at a removed profile.
type Referrers interface {
	UnlinkDoctor(ctx context.Context, doctorID string) error
}

type Service struct {
	repo      Repository
	users     UserLookup
	referrers []Referrers
}

func NewService(repo Repository, users UserLookup) *Service {
	return &Service{repo: repo, users: users}
}

// OnDelete registers records whose doctor reference is cleared when a
// doctor is deleted.
func (s *Service) OnDelete(refs ...Referrers) {
	s.referrers = append(s.referrers, refs...)
}

func (s *Service) List(ctx context.Context, f Filter) ([]*Doctor, error) {
	return s.repo.List(ctx, f)
}

func (s *Service) Get(ctx context.Context, id string) (*Doctor, error) {
	return s.repo.GetByID(ctx, id)
}

// GetByUserID returns the profile attached to a user account.
func (s *Service) GetByUserID(ctx context.Context, userID string) (*Doctor, error) {
	return s.repo.GetByUserID(ctx, userID)
}

// ValidateProfile runs every check Create would run on p, without
// persisting anything and without needing the user to exist yet.
func (s *Service) ValidateProfile(ctx context.Context, p Profile) error {
	p.normalize()
	if err := p.check(); err != nil {
		return apperr.Invalid("%s", err.Error())
	}
	return s.checkLicenseFree(ctx, p.LicenseNumber, "")
}

func (s *Service) checkLicenseFree(ctx context.Context, license, selfID string) error {
	existing, err := s.repo.GetByLicense(ctx, license)
	if err == nil && existing.ID != selfID {
		return apperr.Conflict("license number %s is already registered", license)
	}
	if err != nil && apperr.KindOf(err) != apperr.KindNotFound {
		return err
	}
	return nil
}

// Create attaches a doctor profile to an existing user.
func (s *Service) Create(ctx context.Context, userID string, p Profile) (*Doctor, error) {
	d, err := NewDoctor(userID, p)
	if err != nil {
		return nil, apperr.Invalid("%s", err.Error())
	}
	if s.users != nil {
		ok, err := s.users.UserExists(ctx, userID)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, apperr.Invalid("user %s does not exist", userID)
		}
	}
	if _, err := s.repo.GetByUserID(ctx, userID); err == nil {
		return nil, apperr.Conflict("user %s already has a doctor profile", userID)
	} else if apperr.KindOf(err) != apperr.KindNotFound {
		return nil, err
	}
	if err := s.checkLicenseFree(ctx, d.LicenseNumber, ""); err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, d); err != nil {
		return nil, err
	}
	return d, nil
}

func (s *Service) Update(ctx context.Context, id string, patch Patch) (*Doctor, error) {
	d, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	before := d.LicenseNumber
	if err := d.Update(patch); err != nil {
		return nil, apperr.Invalid("%s", err.Error())
	}
	if !strings.EqualFold(before, d.LicenseNumber) {
		if err := s.checkLicenseFree(ctx, d.LicenseNumber, d.ID); err != nil {
			return nil, err
		}
	}
	if err := s.repo.Update(ctx, d); err != nil {
		return nil, err
	}
	return d, nil
}

func (s *Service) Delete(ctx context.Context, id string) error {
	if _, err := s.repo.GetByID(ctx, id); err != nil {
		return err
	}
	for _, r := range s.referrers {
		if err := r.UnlinkDoctor(ctx, id); err != nil {
			return err
		}
	}
	return s.repo.Delete(ctx, id)
}
