// Package livesync delivers coarse-grained change notifications so cached
// reads (capacity counts, registration listings) can be invalidated without
// polling. A notification carries no payload beyond "something changed,
// re-read"; it is never a correctness mechanism, only a cache refresh cue.
package livesync

import (
	"context"

	"github.com/google/uuid"
)

// TopicEvents is published whenever any event row changes.
const TopicEvents = "events"

// TopicEventRegistrations names the per-event registration change feed.
func TopicEventRegistrations(eventID uuid.UUID) string {
	return "registrations:" + eventID.String()
}

type Bus interface {
	// Publish wakes every live subscription on the topic. Slow consumers
	// coalesce: at most one wakeup is buffered per subscription.
	Publish(ctx context.Context, topic string) error
	Subscribe(topic string) *Subscription
	Close() error
}

// Subscription is one consumer's handle on a topic. After Close returns no
// further notifications are delivered; Close is idempotent so repeated
// subscribe/teardown cycles do not leak.
type Subscription struct {
	ch   chan struct{}
	stop func()
}

// Notify returns the wakeup channel. A receive means the topic changed at
// least once since the last receive.
func (s *Subscription) Notify() <-chan struct{} { return s.ch }

func (s *Subscription) Close() { s.stop() }

// notify performs the coalescing non-blocking send.
func (s *Subscription) notify() {
	select {
	case s.ch <- struct{}{}:
	default:
	}
}
