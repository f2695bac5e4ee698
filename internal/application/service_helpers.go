package application

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/viralforge/trender/internal/domain"
	"github.com/viralforge/trender/internal/ports"
)

const (
	idempotencyStatusCompleted = "completed"
	poolCachePrefix            = "trender:pool:"
)

func hashJSON(v any) string {
	raw, _ := json.Marshal(v)
	sum := sha256.Sum256(raw)
	return hex.EncodeToString(sum[:])
}

// runIdempotent replays the stored result for a completed key and rejects a
// key reused with a different request. Failed attempts release the key.
func runIdempotent[T any](ctx context.Context, s *Service, actor Actor, request any, fn func() (T, error)) (T, error) {
	var zero T
	key := strings.TrimSpace(actor.IdempotencyKey)
	if s.idempotency == nil || key == "" {
		return fn()
	}
	key = actor.SubjectID + ":" + key
	requestHash := hashJSON(request)

	rec, err := s.idempotency.Get(ctx, key, s.nowFn())
	if err != nil {
		return zero, err
	}
	if rec != nil {
		if rec.RequestHash != requestHash {
			return zero, domain.ErrIdempotencyConflict
		}
		if rec.Status != idempotencyStatusCompleted || len(rec.ResponseBody) == 0 {
			return zero, fmt.Errorf("%w: request still in progress", domain.ErrIdempotencyConflict)
		}
		var out T
		if err := json.Unmarshal(rec.ResponseBody, &out); err != nil {
			return zero, fmt.Errorf("decode idempotent response: %w", err)
		}
		return out, nil
	}

	if err := s.idempotency.Reserve(ctx, key, requestHash, s.nowFn().Add(s.cfg.IdempotencyTTL)); err != nil {
		return zero, fmt.Errorf("%w: %v", domain.ErrIdempotencyConflict, err)
	}
	out, err := fn()
	if err != nil {
		_ = s.idempotency.Release(ctx, key)
		return zero, err
	}
	// The ledger write already committed; a failed Complete leaves the key
	// reserved until it expires.
	body, err := json.Marshal(out)
	if err == nil {
		err = s.idempotency.Complete(context.WithoutCancel(ctx), key, 200, body, s.nowFn())
	}
	if err != nil {
		slog.Default().WarnContext(ctx, "failed to complete idempotency record",
			"service", s.cfg.ServiceName,
			"module", "application",
			"layer", "application",
			"operation", "idempotency_complete",
			"outcome", "failure",
			"error", err,
		)
	}
	return out, nil
}

// withPool holds the per-pool lock for the whole unit of work.
func (s *Service) withPool(ctx context.Context, poolID string, fn func(ctx context.Context, tx ports.LedgerTx) error) error {
	if s.locker != nil {
		unlock, err := s.locker.TryLock(ctx, poolID)
		if err != nil {
			return err
		}
		defer unlock()
	}
	if err := s.uow.WithinTx(ctx, fn); err != nil {
		return err
	}
	s.invalidatePool(ctx, poolID)
	return nil
}

func applyTransfers(ctx context.Context, custody ports.CustodyLedger, transfers []domain.Transfer) error {
	for _, leg := range transfers {
		if err := custody.Transfer(ctx, leg.From, leg.To, leg.Amount); err != nil {
			return fmt.Errorf("transfer %s -> %s: %w", leg.From, leg.To, err)
		}
	}
	return nil
}

func (s *Service) cachedPool(ctx context.Context, poolID string) (domain.Pool, bool) {
	if s.cache == nil {
		return domain.Pool{}, false
	}
	raw, err := s.cache.Get(ctx, poolCachePrefix+poolID)
	if err != nil || raw == "" {
		return domain.Pool{}, false
	}
	var pool domain.Pool
	if err := json.Unmarshal([]byte(raw), &pool); err != nil {
		return domain.Pool{}, false
	}
	return pool, true
}

func (s *Service) storePool(ctx context.Context, pool domain.Pool) {
	if s.cache == nil {
		return
	}
	raw, err := json.Marshal(pool)
	if err != nil {
		return
	}
	_ = s.cache.Set(ctx, poolCachePrefix+pool.PoolID, string(raw), s.cfg.PoolCacheTTL)
}

func (s *Service) invalidatePool(ctx context.Context, poolID string) {
	if s.cache == nil {
		return
	}
	_ = s.cache.Delete(ctx, poolCachePrefix+poolID)
}

func requireActor(actor Actor) (string, error) {
	return domain.NormalizeIdentity(actor.SubjectID)
}

func requirePoolID(raw string) (string, error) {
	poolID := strings.TrimSpace(raw)
	if poolID == "" {
		return "", fmt.Errorf("%w: pool_id is required", domain.ErrInvalidInput)
	}
	return poolID, nil
}

func isNotFound(err error) bool {
	return errors.Is(err, domain.ErrNotFound)
}
