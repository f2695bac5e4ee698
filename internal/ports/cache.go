package ports

import (
	"context"
	"time"
)

// Cache returns ("", nil) on a miss.
type Cache interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value string, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
}

// PoolLocker serializes operations on one pool across service instances.
// TryLock never waits: a held lock yields domain.ErrPoolBusy.
type PoolLocker interface {
	TryLock(ctx context.Context, poolID string) (unlock func(), err error)
}
