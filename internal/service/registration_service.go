package service

import (
	"context"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Singh4599/techno-sapiens/internal/livesync"
	"github.com/Singh4599/techno-sapiens/internal/model"
	"github.com/Singh4599/techno-sapiens/internal/repository"
)

// Caller is the authenticated identity performing a registration, resolved
// by the identity gate before the engine runs.
type Caller struct {
	ID       uuid.UUID
	Email    string
	FullName string
	Phone    string
}

type TeamMemberInput struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
}

type RegisterInput struct {
	TeamSize int               `json:"team_size"`
	TeamName string            `json:"team_name"`
	Members  []TeamMemberInput `json:"members"`
	// IdempotencyKey, when set, makes a retried call return the
	// registration created by the first attempt instead of a conflict.
	IdempotencyKey string `json:"-"`
}

type RegistrationService interface {
	// Register runs the validation sequence in order (closed, team size,
	// team data, duplicate, capacity; first failure wins) and persists the
	// registration with its team members atomically.
	Register(ctx context.Context, eventID uuid.UUID, caller Caller, in RegisterInput) (*model.Registration, error)
	MyRegistrations(ctx context.Context, userID uuid.UUID) ([]model.Registration, error)
	ListByEvent(ctx context.Context, eventID uuid.UUID) ([]model.Registration, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, to model.RegistrationStatus) (*model.Registration, error)
	UpdatePaymentStatus(ctx context.Context, id uuid.UUID, to model.PaymentStatus) (*model.Registration, error)
	// Delete hard-removes a registration; administrative override only.
	Delete(ctx context.Context, id uuid.UUID) error
}

const idempotencyTTL = 24 * time.Hour

type registrationService struct {
	events repository.EventRepository
	regs   repository.RegistrationRepository
	state  repository.StateStore
	bus    livesync.Bus
}

func NewRegistrationService(
	events repository.EventRepository,
	regs repository.RegistrationRepository,
	state repository.StateStore,
	bus livesync.Bus,
) RegistrationService {
	return &registrationService{events: events, regs: regs, state: state, bus: bus}
}

func (s *registrationService) Register(ctx context.Context, eventID uuid.UUID, caller Caller, in RegisterInput) (*model.Registration, error) {
	if in.IdempotencyKey != "" {
		if reg, err := s.replay(ctx, eventID, caller.ID, in.IdempotencyKey); err == nil && reg != nil {
			return reg, nil
		}
	}

	event, err := s.events.GetByID(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if !event.RegistrationOpen {
		return nil, repository.ErrEventClosed
	}

	if !event.AllowsTeamSize(in.TeamSize) {
		return nil, ErrInvalidTeamSize
	}

	var members []model.TeamMember
	if in.TeamSize > 1 {
		members, err = validateTeam(in)
		if err != nil {
			return nil, err
		}
	}

	// Fast-fail probes so the common duplicate/full cases are reported
	// without opening a write transaction. The repository re-checks both
	// inside the insert transaction; these reads are never authoritative.
	if taken, err := s.regs.ActiveForUser(ctx, eventID, caller.ID); err != nil {
		return nil, fmt.Errorf("check duplicate: %w", err)
	} else if taken {
		return nil, repository.ErrAlreadyRegistered
	}
	if filled, err := s.regs.CountActive(ctx, eventID); err != nil {
		return nil, fmt.Errorf("count registrations: %w", err)
	} else if filled >= event.MaxParticipants {
		return nil, repository.ErrEventFull
	}

	reg := &model.Registration{
		EventID:       event.ID,
		UserID:        caller.ID,
		TeamSize:      in.TeamSize,
		Status:        model.RegistrationConfirmed,
		PaymentStatus: model.PaymentPending,
		Amount:        event.RegistrationFee,
	}
	if event.RegistrationFee == 0 {
		reg.PaymentStatus = model.PaymentFree
	}
	if in.TeamSize > 1 {
		name := strings.TrimSpace(in.TeamName)
		reg.TeamName = &name
	}

	if err := s.regs.Register(ctx, reg, members); err != nil {
		return nil, err
	}

	if in.IdempotencyKey != "" {
		_, _ = s.state.SetNX(ctx, idempotencyCacheKey(caller.ID, event.ID, in.IdempotencyKey),
			[]byte(reg.ID.String()), idempotencyTTL)
	}

	s.invalidate(ctx, event.ID)
	return reg, nil
}

// replay returns the registration recorded under an idempotency token, or
// nil when the token is unused. Tokens are scoped per (caller, event); a
// key reused against another event never replays across it.
func (s *registrationService) replay(ctx context.Context, eventID, userID uuid.UUID, key string) (*model.Registration, error) {
	b, err := s.state.Get(ctx, idempotencyCacheKey(userID, eventID, key))
	if err != nil || len(b) == 0 {
		return nil, err
	}
	id, err := uuid.Parse(string(b))
	if err != nil {
		return nil, err
	}
	reg, err := s.regs.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if reg.EventID != eventID {
		return nil, nil
	}
	return reg, nil
}

func (s *registrationService) MyRegistrations(ctx context.Context, userID uuid.UUID) ([]model.Registration, error) {
	return s.regs.ListByUser(ctx, userID)
}

func (s *registrationService) ListByEvent(ctx context.Context, eventID uuid.UUID) ([]model.Registration, error) {
	if _, err := s.events.GetByID(ctx, eventID); err != nil {
		return nil, err
	}
	return s.regs.ListByEvent(ctx, eventID)
}

func (s *registrationService) UpdateStatus(ctx context.Context, id uuid.UUID, to model.RegistrationStatus) (*model.Registration, error) {
	reg, err := s.regs.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !reg.Status.CanTransitionTo(to) {
		return nil, ErrInvalidTransition
	}
	if err := s.regs.UpdateStatus(ctx, id, reg.Status, to); err != nil {
		return nil, err
	}
	reg.Status = to

	// Cancellation frees a seat; either way viewers should re-read.
	s.invalidate(ctx, reg.EventID)
	return reg, nil
}

func (s *registrationService) UpdatePaymentStatus(ctx context.Context, id uuid.UUID, to model.PaymentStatus) (*model.Registration, error) {
	reg, err := s.regs.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !reg.PaymentStatus.CanTransitionTo(to) {
		return nil, ErrInvalidTransition
	}
	if err := s.regs.UpdatePaymentStatus(ctx, id, reg.PaymentStatus, to); err != nil {
		return nil, err
	}
	reg.PaymentStatus = to

	_ = s.bus.Publish(ctx, livesync.TopicEventRegistrations(reg.EventID))
	return reg, nil
}

func (s *registrationService) Delete(ctx context.Context, id uuid.UUID) error {
	reg, err := s.regs.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.regs.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete registration: %w", err)
	}
	s.invalidate(ctx, reg.EventID)
	return nil
}

// invalidate drops the cached capacity for the event and broadcasts the
// change so subscribed viewers recompute.
func (s *registrationService) invalidate(ctx context.Context, eventID uuid.UUID) {
	_ = s.state.Delete(ctx, capacityCacheKey(eventID))
	_ = s.bus.Publish(ctx, livesync.TopicEventRegistrations(eventID))
	_ = s.bus.Publish(ctx, livesync.TopicEvents)
}

func validateTeam(in RegisterInput) ([]model.TeamMember, error) {
	if strings.TrimSpace(in.TeamName) == "" {
		return nil, ErrInvalidTeamData
	}
	if len(in.Members) != in.TeamSize {
		return nil, ErrInvalidTeamData
	}
	members := make([]model.TeamMember, 0, len(in.Members))
	for _, m := range in.Members {
		name := strings.TrimSpace(m.Name)
		email := strings.TrimSpace(strings.ToLower(m.Email))
		if name == "" {
			return nil, ErrInvalidTeamData
		}
		if _, err := mail.ParseAddress(email); err != nil {
			return nil, ErrInvalidTeamData
		}
		members = append(members, model.TeamMember{
			Name:  name,
			Email: email,
			Phone: strings.TrimSpace(m.Phone),
		})
	}
	return members, nil
}

func idempotencyCacheKey(userID, eventID uuid.UUID, key string) string {
	return "idemp:" + userID.String() + ":" + eventID.String() + ":" + key
}
