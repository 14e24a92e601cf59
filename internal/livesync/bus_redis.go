package livesync

import (
	"context"
	"sync"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

type redisBus struct {
	client *redis.Client
	logger *zap.Logger

	mu     sync.Mutex
	cancel map[*Subscription]context.CancelFunc
	closed bool
}

// NewRedisBus returns a Bus backed by Redis pub/sub, so change
// notifications fan out across every running instance.
func NewRedisBus(client *redis.Client, logger *zap.Logger) Bus {
	return &redisBus{
		client: client,
		logger: logger,
		cancel: make(map[*Subscription]context.CancelFunc),
	}
}

func (b *redisBus) Publish(ctx context.Context, topic string) error {
	return b.client.Publish(ctx, topic, "1").Err()
}

func (b *redisBus) Subscribe(topic string) *Subscription {
	sub := &Subscription{ch: make(chan struct{}, 1)}

	ctx, cancel := context.WithCancel(context.Background())
	// Closing the subscription removes its bookkeeping entry too, so
	// repeated subscribe/teardown cycles do not accumulate.
	sub.stop = sync.OnceFunc(func() {
		cancel()
		b.mu.Lock()
		delete(b.cancel, sub)
		b.mu.Unlock()
	})

	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		cancel()
		return sub
	}
	b.cancel[sub] = cancel
	b.mu.Unlock()

	pubsub := b.client.Subscribe(ctx, topic)
	go func() {
		defer pubsub.Close()
		ch := pubsub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case _, ok := <-ch:
				if !ok {
					b.logger.Warn("livesync channel closed", zap.String("topic", topic))
					return
				}
				sub.notify()
			}
		}
	}()
	return sub
}

func (b *redisBus) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed = true
	for _, cancel := range b.cancel {
		cancel()
	}
	b.cancel = make(map[*Subscription]context.CancelFunc)
	return nil
}
