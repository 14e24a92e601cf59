package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/Singh4599/techno-sapiens/internal/livesync"
	"github.com/Singh4599/techno-sapiens/internal/model"
	"github.com/Singh4599/techno-sapiens/internal/repository"
)

// capacityCacheTTL bounds staleness if an invalidation is ever missed; the
// mutation paths delete the key explicitly.
const capacityCacheTTL = 30 * time.Second

type CapacityService interface {
	// CapacityOf derives the live seat picture for an event: a read-through
	// cache in front of a fresh count. The cache serves displays only; the
	// registration engine never consults it.
	CapacityOf(ctx context.Context, eventID uuid.UUID) (model.Capacity, error)
	// Watch streams capacity snapshots: one immediately, then one per
	// change notification, until ctx is cancelled.
	Watch(ctx context.Context, eventID uuid.UUID) (<-chan model.Capacity, error)
}

type capacityService struct {
	events repository.EventRepository
	regs   repository.RegistrationRepository
	state  repository.StateStore
	bus    livesync.Bus
}

func NewCapacityService(
	events repository.EventRepository,
	regs repository.RegistrationRepository,
	state repository.StateStore,
	bus livesync.Bus,
) CapacityService {
	return &capacityService{events: events, regs: regs, state: state, bus: bus}
}

func (s *capacityService) CapacityOf(ctx context.Context, eventID uuid.UUID) (model.Capacity, error) {
	if b, err := s.state.Get(ctx, capacityCacheKey(eventID)); err == nil && len(b) > 0 {
		var snapshot model.Capacity
		if err := json.Unmarshal(b, &snapshot); err == nil {
			return snapshot, nil
		}
	}
	return s.recompute(ctx, eventID)
}

// recompute performs a fresh read against the database and refreshes the
// cache. Every change notification funnels here; nothing is patched
// incrementally from stale state.
func (s *capacityService) recompute(ctx context.Context, eventID uuid.UUID) (model.Capacity, error) {
	event, err := s.events.GetByID(ctx, eventID)
	if err != nil {
		return model.Capacity{}, err
	}
	filled, err := s.regs.CountActive(ctx, eventID)
	if err != nil {
		return model.Capacity{}, fmt.Errorf("count registrations: %w", err)
	}

	snapshot := model.NewCapacity(event.ID, event.MaxParticipants, filled)
	if b, err := json.Marshal(snapshot); err == nil {
		_ = s.state.Set(ctx, capacityCacheKey(eventID), b, capacityCacheTTL)
	}
	return snapshot, nil
}

func (s *capacityService) Watch(ctx context.Context, eventID uuid.UUID) (<-chan model.Capacity, error) {
	// Subscribe before the initial read so a change landing between the
	// two is picked up as a pending notification instead of being lost.
	regSub := s.bus.Subscribe(livesync.TopicEventRegistrations(eventID))
	eventSub := s.bus.Subscribe(livesync.TopicEvents)

	initial, err := s.recompute(ctx, eventID)
	if err != nil {
		regSub.Close()
		eventSub.Close()
		return nil, err
	}

	out := make(chan model.Capacity, 1)
	out <- initial

	go func() {
		defer close(out)
		defer regSub.Close()
		defer eventSub.Close()

		for {
			select {
			case <-ctx.Done():
				return
			case <-regSub.Notify():
			case <-eventSub.Notify():
			}

			snapshot, err := s.recompute(ctx, eventID)
			if err != nil {
				continue
			}
			select {
			case out <- snapshot:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, nil
}

func capacityCacheKey(eventID uuid.UUID) string {
	return "capacity:" + eventID.String()
}
