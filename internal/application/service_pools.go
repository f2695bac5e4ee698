package application

import (
	"context"
	"fmt"
	"strings"

	"github.com/viralforge/trender/internal/domain"
	"github.com/viralforge/trender/internal/ports"
)

// CreatePool opens the pool for (caller, PostID) with the caller's deposit.
func (s *Service) CreatePool(ctx context.Context, actor Actor, input CreatePoolInput) (domain.Pool, error) {
	creator, err := requireActor(actor)
	if err != nil {
		return domain.Pool{}, err
	}
	return runIdempotent(ctx, s, actor, input, func() (domain.Pool, error) {
		now := s.nowFn()
		tr, err := domain.OpenPool(domain.OpenPoolInput{
			Creator: creator,
			PostID:  input.PostID,
			Deposit: input.Deposit,
			Now:     now,
		})
		if err != nil {
			return domain.Pool{}, err
		}
		var post *domain.Post
		if input.Title != "" || input.Content != "" {
			p, err := domain.NewPost(creator, input.PostID, input.Title, input.Content, now)
			if err != nil {
				return domain.Pool{}, err
			}
			post = &p
		}
		pool := tr.Pool
		err = s.withPool(ctx, pool.PoolID, func(ctx context.Context, tx ports.LedgerTx) error {
			if _, err := tx.Treasury().Get(ctx); err != nil {
				return err
			}
			exists, err := tx.Pools().Exists(ctx, pool.PoolID)
			if err != nil {
				return err
			}
			if exists {
				return domain.ErrPoolExists
			}
			if post != nil {
				if err := tx.Posts().Create(ctx, *post); err != nil {
					return err
				}
			}
			if err := applyTransfers(ctx, tx.Custody(), tr.Transfers); err != nil {
				return err
			}
			if err := tx.Pools().Create(ctx, pool); err != nil {
				return err
			}
			return s.enqueuePoolCreated(ctx, tx.Outbox(), pool, tr.Fee, actor.RequestID)
		})
		if err != nil {
			return domain.Pool{}, err
		}
		return pool, nil
	})
}

func (s *Service) GetPool(ctx context.Context, poolID string) (domain.Pool, error) {
	poolID, err := requirePoolID(poolID)
	if err != nil {
		return domain.Pool{}, err
	}
	if pool, ok := s.cachedPool(ctx, poolID); ok {
		return pool, nil
	}
	pool, err := s.reads.GetPool(ctx, poolID)
	if err != nil {
		return domain.Pool{}, err
	}
	s.storePool(ctx, pool)
	return pool, nil
}

func (s *Service) ListPools(ctx context.Context, input ListPoolsInput) ([]domain.Pool, error) {
	query := ports.PoolQuery{
		Creator: strings.TrimSpace(input.Creator),
		Sort:    ports.PoolSortRecent,
		Limit:   input.Limit,
		Offset:  input.Offset,
	}
	switch strings.ToLower(strings.TrimSpace(input.Sort)) {
	case "", string(ports.PoolSortRecent):
	case string(ports.PoolSortTrending):
		query.Sort = ports.PoolSortTrending
	default:
		return nil, fmt.Errorf("%w: unknown sort %q", domain.ErrInvalidInput, input.Sort)
	}
	if query.Limit <= 0 {
		query.Limit = s.cfg.DefaultPageSize
	}
	if query.Limit > s.cfg.MaxPageSize {
		query.Limit = s.cfg.MaxPageSize
	}
	if query.Offset < 0 {
		query.Offset = 0
	}
	return s.reads.ListPools(ctx, query)
}

// Quote prices a trade against the current pool state without reserving it.
func (s *Service) Quote(ctx context.Context, poolID string, side domain.TradeSide, amount domain.Amount) (domain.Quote, error) {
	pool, err := s.GetPool(ctx, poolID)
	if err != nil {
		return domain.Quote{}, err
	}
	switch side {
	case domain.SideBuy:
		return domain.QuoteBuy(pool, amount)
	case domain.SideSell:
		return domain.QuoteSell(pool, amount)
	case domain.SideRelease:
		return domain.QuoteRelease(pool, amount)
	default:
		return domain.Quote{}, fmt.Errorf("%w: unknown side %q", domain.ErrInvalidInput, side)
	}
}
