package repository

import (
	"context"
	"time"
)

// StateStore abstracts ephemeral key-value state: the capacity read-through
// cache and idempotency tokens for registration retries.
// Implementations: Redis (production) or in-memory (local dev / tests).
type StateStore interface {
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	// SetNX stores the value only if the key is absent; reports whether the
	// write happened. Used to claim an idempotency token exactly once.
	SetNX(ctx context.Context, key string, value []byte, ttl time.Duration) (bool, error)
	Get(ctx context.Context, key string) ([]byte, error)
	Delete(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
}
