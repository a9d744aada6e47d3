package user

import (
	"context"

	"github.com/clinic/clinic/internal/domain/doctor"
	"github.com/clinic/clinic/internal/platform/apperr"
)

type lookup struct {
	repo Repository
}

// Lookup adapts a Repository to doctor.UserLookup, so the doctor service
// can be built before the user service that depends on it.
func Lookup(repo Repository) doctor.UserLookup {
	return lookup{repo: repo}
}

func (l lookup) UserExists(ctx context.Context, id string) (bool, error) {
	_, err := l.repo.GetByID(ctx, id)
	if err == nil {
		return true, nil
	}
	if apperr.KindOf(err) == apperr.KindNotFound {
		return false, nil
	}
	return false, err
}
