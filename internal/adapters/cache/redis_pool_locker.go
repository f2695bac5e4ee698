package cache

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/go-redsync/redsync/v4"
	"github.com/go-redsync/redsync/v4/redis/goredis/v9"
	"github.com/redis/go-redis/v9"
	"github.com/viralforge/trender/internal/domain"
	"github.com/viralforge/trender/internal/ports"
)

const (
	poolLockPrefix    = "trender:lock:pool:"
	defaultLockExpiry = 10 * time.Second
	unlockTimeout     = 2 * time.Second
)

// RedisPoolLocker holds a redsync mutex per pool for the length of one unit
// of work. Acquisition is a single attempt.
type RedisPoolLocker struct {
	rs     *redsync.Redsync
	expiry time.Duration
}

func NewRedisPoolLocker(client *redis.Client, expiry time.Duration) *RedisPoolLocker {
	if expiry <= 0 {
		expiry = defaultLockExpiry
	}
	return &RedisPoolLocker{rs: redsync.New(goredis.NewPool(client)), expiry: expiry}
}

func (l *RedisPoolLocker) TryLock(ctx context.Context, poolID string) (func(), error) {
	mutex := l.rs.NewMutex(
		poolLockPrefix+poolID,
		redsync.WithExpiry(l.expiry),
		redsync.WithTries(1),
	)
	if err := mutex.LockContext(ctx); err != nil {
		if isLockContention(err) {
			return nil, domain.ErrPoolBusy
		}
		return nil, fmt.Errorf("acquire pool lock: %w", err)
	}
	return func() {
		unlockCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), unlockTimeout)
		defer cancel()
		if ok, err := mutex.UnlockContext(unlockCtx); err != nil || !ok {
			slog.Default().Warn("pool lock release failed",
				"module", "hype-ledger",
				"layer", "adapter",
				"operation", "pool_lock.unlock",
				"outcome", "failure",
				"pool_id", poolID,
				"error", err,
			)
		}
	}, nil
}

func isLockContention(err error) bool {
	msg := err.Error()
	return errors.Is(err, redsync.ErrFailed) ||
		strings.Contains(msg, "lock already taken") ||
		strings.Contains(msg, "failed to acquire lock")
}

var _ ports.PoolLocker = (*RedisPoolLocker)(nil)
