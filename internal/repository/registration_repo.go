package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/Singh4599/techno-sapiens/internal/model"
)

// Conflict errors surfaced by the registration write path. They are produced
// inside the insert transaction, against live data, so callers can trust
// them even under concurrent attempts.
var (
	ErrEventClosed       = errors.New("event is not open for registration")
	ErrEventFull         = errors.New("event has no remaining capacity")
	ErrAlreadyRegistered = errors.New("caller already has an active registration for this event")
	ErrStaleTransition   = errors.New("registration changed concurrently, transition not applied")
)

type RegistrationRepository interface {
	// Register atomically validates the open flag, the duplicate rule and
	// the capacity rule against the current database state and inserts the
	// registration plus its team members. Returns ErrNotFound,
	// ErrEventClosed, ErrAlreadyRegistered or ErrEventFull on conflict.
	Register(ctx context.Context, reg *model.Registration, members []model.TeamMember) error

	// CountActive counts non-cancelled registrations for an event.
	CountActive(ctx context.Context, eventID uuid.UUID) (int, error)
	// ActiveForUser reports whether the caller holds a non-cancelled
	// registration for the event.
	ActiveForUser(ctx context.Context, eventID, userID uuid.UUID) (bool, error)

	GetByID(ctx context.Context, id uuid.UUID) (*model.Registration, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]model.Registration, error)
	ListByEvent(ctx context.Context, eventID uuid.UUID) ([]model.Registration, error)

	// UpdateStatus and UpdatePaymentStatus are compare-and-swap writes: the
	// update applies only if the row still holds the expected current value,
	// otherwise ErrStaleTransition is returned.
	UpdateStatus(ctx context.Context, id uuid.UUID, from, to model.RegistrationStatus) error
	UpdatePaymentStatus(ctx context.Context, id uuid.UUID, from, to model.PaymentStatus) error

	// Delete hard-removes a registration. Administrative override only;
	// normal cancellation is a status change.
	Delete(ctx context.Context, id uuid.UUID) error
}
