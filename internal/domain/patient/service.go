package patient

import (
	"context"

	"github.com/clinic/clinic/internal/domain/address"
	"github.com/clinic/clinic/internal/platform/apperr"
)

// AddressResolver checks address codes against the directory.
type AddressResolver interface {
	Resolve(provinceCode, cityCode, barangayCode string) (*address.Resolved, error)
}

// Dependents removes the records that belong to a patient. Deleting a
// patient deletes them first, on every store.
type Dependents interface {
	DeleteForPatient(ctx context.Context, patientID string) error
}

type Service struct {
	repo       Repository
	addresses  AddressResolver
	dependents []Dependents
}

func NewService(repo Repository, addresses AddressResolver) *Service {
	return &Service{repo: repo, addresses: addresses}
}

// OnDelete registers records that are removed together with a patient.
func (s *Service) OnDelete(deps ...Dependents) {
	s.dependents = append(s.dependents, deps...)
}

func (s *Service) List(ctx context.Context, f Filter) ([]*Patient, error) {
	return s.repo.List(ctx, f)
}

func (s *Service) Get(ctx context.Context, id string) (*Patient, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) Create(ctx context.Context, in Patient) (*Patient, error) {
	in.ID = ""
	p, err := NewPatient(in)
	if err != nil {
		return nil, apperr.Invalid("%s", err.Error())
	}
	if err := s.checkAddress(p.Address); err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *Service) Update(ctx context.Context, id string, patch Patch) (*Patient, error) {
	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := p.Update(patch); err != nil {
		return nil, apperr.Invalid("%s", err.Error())
	}
	if patch.Address != nil {
		if err := s.checkAddress(p.Address); err != nil {
			return nil, err
		}
	}
	if err := s.repo.Update(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *Service) Delete(ctx context.Context, id string) error {
	if _, err := s.repo.GetByID(ctx, id); err != nil {
		return err
	}
	for _, d := range s.dependents {
		if err := d.DeleteForPatient(ctx, id); err != nil {
			return err
		}
	}
	return s.repo.Delete(ctx, id)
}

func (s *Service) checkAddress(a *Address) error {
	if a == nil || s.addresses == nil {
		return nil
	}
	if a.ProvinceCode == "" || a.CityCode == "" {
		return apperr.Invalid("address requires province_code and city_code")
	}
	if _, err := s.addresses.Resolve(a.ProvinceCode, a.CityCode, a.BarangayCode); err != nil {
		if apperr.KindOf(err) == apperr.KindNotFound {
			return apperr.Invalid("invalid address: %s", err.Error())
		}
		return err
	}
	return nil
}
