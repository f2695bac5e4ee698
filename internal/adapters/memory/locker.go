package memory

import (
	"context"
	"sync"

	"github.com/viralforge/trender/internal/domain"
)

// PoolLocker is the single-process stand-in for the Redis pool lock.
type PoolLocker struct {
	mu   sync.Mutex
	held map[string]struct{}
}

func NewPoolLocker() *PoolLocker {
	return &PoolLocker{held: map[string]struct{}{}}
}

func (l *PoolLocker) TryLock(_ context.Context, poolID string) (func(), error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, busy := l.held[poolID]; busy {
		return nil, domain.ErrPoolBusy
	}
	l.held[poolID] = struct{}{}
	var once sync.Once
	return func() {
		once.Do(func() {
			l.mu.Lock()
			delete(l.held, poolID)
			l.mu.Unlock()
		})
	}, nil
}
