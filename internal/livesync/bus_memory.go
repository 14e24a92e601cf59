package livesync

import (
	"context"
	"sync"
)

type memoryBus struct {
	mu     sync.RWMutex
	subs   map[string]map[*Subscription]struct{}
	closed bool
}

// NewMemoryBus returns an in-process Bus for single-instance deployments
// and tests.
func NewMemoryBus() Bus {
	return &memoryBus{subs: make(map[string]map[*Subscription]struct{})}
}

func (b *memoryBus) Publish(_ context.Context, topic string) error {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for sub := range b.subs[topic] {
		sub.notify()
	}
	return nil
}

func (b *memoryBus) Subscribe(topic string) *Subscription {
	sub := &Subscription{ch: make(chan struct{}, 1)}
	sub.stop = sync.OnceFunc(func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		if set, ok := b.subs[topic]; ok {
			delete(set, sub)
			if len(set) == 0 {
				delete(b.subs, topic)
			}
		}
	})

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return sub
	}
	if b.subs[topic] == nil {
		b.subs[topic] = make(map[*Subscription]struct{})
	}
	b.subs[topic][sub] = struct{}{}
	return sub
}

func (b *memoryBus) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed = true
	b.subs = make(map[string]map[*Subscription]struct{})
	return nil
}
