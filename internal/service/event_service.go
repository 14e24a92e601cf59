package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/Singh4599/techno-sapiens/internal/livesync"
	"github.com/Singh4599/techno-sapiens/internal/model"
	"github.com/Singh4599/techno-sapiens/internal/repository"
)

type EventInput struct {
	Slug             string `json:"slug"`
	Name             string `json:"name"`
	Description      string `json:"description"`
	Category         string `json:"category"`
	Date             string `json:"date"`
	Time             string `json:"time"`
	Venue            string `json:"venue"`
	PrizePool        int64  `json:"prize_pool"`
	TeamSizeMin      int    `json:"team_size_min"`
	TeamSizeMax      int    `json:"team_size_max"`
	RegistrationFee  int64  `json:"registration_fee"`
	MaxParticipants  int    `json:"max_participants"`
	RegistrationOpen bool   `json:"registration_open"`
	Status           string `json:"status"`
}

type EventService interface {
	Create(ctx context.Context, in EventInput) (*model.Event, error)
	Update(ctx context.Context, id uuid.UUID, in EventInput) (*model.Event, error)
	Delete(ctx context.Context, id uuid.UUID) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.Event, error)
	// PublishedBySlug returns a published event for public callers.
	PublishedBySlug(ctx context.Context, slug string) (*model.Event, error)
	ListPublished(ctx context.Context, category string) ([]model.Event, error)
	ListAll(ctx context.Context) ([]model.Event, error)
}

type eventService struct {
	events repository.EventRepository
	state  repository.StateStore
	bus    livesync.Bus
}

func NewEventService(events repository.EventRepository, state repository.StateStore, bus livesync.Bus) EventService {
	return &eventService{events: events, state: state, bus: bus}
}

func (s *eventService) Create(ctx context.Context, in EventInput) (*model.Event, error) {
	event, err := eventFromInput(in)
	if err != nil {
		return nil, err
	}
	if err := s.events.Create(ctx, event); err != nil {
		return nil, fmt.Errorf("create event: %w", err)
	}
	_ = s.bus.Publish(ctx, livesync.TopicEvents)
	return event, nil
}

func (s *eventService) Update(ctx context.Context, id uuid.UUID, in EventInput) (*model.Event, error) {
	current, err := s.events.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	updated, err := eventFromInput(in)
	if err != nil {
		return nil, err
	}
	updated.ID = current.ID
	updated.CreatedAt = current.CreatedAt

	if err := s.events.Update(ctx, updated); err != nil {
		return nil, fmt.Errorf("update event: %w", err)
	}

	// Capacity or the open flag may have changed under in-flight
	// registrations; drop the cached snapshot and let viewers re-read.
	_ = s.state.Delete(ctx, capacityCacheKey(id))
	_ = s.bus.Publish(ctx, livesync.TopicEvents)
	_ = s.bus.Publish(ctx, livesync.TopicEventRegistrations(id))
	return updated, nil
}

func (s *eventService) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := s.events.GetByID(ctx, id); err != nil {
		return err
	}
	if err := s.events.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete event: %w", err)
	}
	_ = s.state.Delete(ctx, capacityCacheKey(id))
	_ = s.bus.Publish(ctx, livesync.TopicEvents)
	return nil
}

func (s *eventService) GetByID(ctx context.Context, id uuid.UUID) (*model.Event, error) {
	return s.events.GetByID(ctx, id)
}

func (s *eventService) PublishedBySlug(ctx context.Context, slug string) (*model.Event, error) {
	event, err := s.events.GetBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	if event.Status != model.EventStatusPublished {
		return nil, repository.ErrNotFound
	}
	return event, nil
}

func (s *eventService) ListPublished(ctx context.Context, category string) ([]model.Event, error) {
	return s.events.ListPublished(ctx, category)
}

func (s *eventService) ListAll(ctx context.Context) ([]model.Event, error) {
	return s.events.ListAll(ctx)
}

func eventFromInput(in EventInput) (*model.Event, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, fmt.Errorf("%w: name is required", ErrInvalidEvent)
	}
	slug := strings.TrimSpace(strings.ToLower(in.Slug))
	if slug == "" {
		slug = strings.ReplaceAll(strings.ToLower(name), " ", "-")
	}
	if in.MaxParticipants <= 0 {
		return nil, fmt.Errorf("%w: max_participants must be positive", ErrInvalidEvent)
	}
	if in.TeamSizeMin < 1 || in.TeamSizeMax < in.TeamSizeMin {
		return nil, fmt.Errorf("%w: team size bounds must satisfy 1 <= min <= max", ErrInvalidEvent)
	}
	if in.RegistrationFee < 0 || in.PrizePool < 0 {
		return nil, fmt.Errorf("%w: fee and prize pool cannot be negative", ErrInvalidEvent)
	}

	status := model.EventStatus(in.Status)
	if status == "" {
		status = model.EventStatusDraft
	}
	if status != model.EventStatusDraft && status != model.EventStatusPublished {
		return nil, fmt.Errorf("%w: unknown status %q", ErrInvalidEvent, in.Status)
	}

	return &model.Event{
		Slug:             slug,
		Name:             name,
		Description:      in.Description,
		Category:         in.Category,
		Date:             in.Date,
		Time:             in.Time,
		Venue:            in.Venue,
		PrizePool:        in.PrizePool,
		TeamSizeMin:      in.TeamSizeMin,
		TeamSizeMax:      in.TeamSizeMax,
		RegistrationFee:  in.RegistrationFee,
		MaxParticipants:  in.MaxParticipants,
		RegistrationOpen: in.RegistrationOpen,
		Status:           status,
	}, nil
}
