package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/Singh4599/techno-sapiens/internal/model"
)

// ErrEmailExists is returned by Create when the profile's email address is
// already registered; the unique index on lower(email) is the authority, so
// concurrent signups for the same address resolve here, not at the
// look-before-create check.
var ErrEmailExists = errors.New("email already exists")

type ProfileRepository interface {
	Create(ctx context.Context, profile *model.Profile) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.Profile, error)
	GetByEmail(ctx context.Context, email string) (*model.Profile, error)
	Update(ctx context.Context, profile *model.Profile) error
}
