package memory

import (
	"context"
	"sort"

	"github.com/viralforge/trender/internal/domain"
	"github.com/viralforge/trender/internal/ports"
)

func (s *Store) ListPosts(_ context.Context, query ports.PostQuery) ([]domain.Post, error) {
	s.mu.Lock()
	out := make([]domain.Post, 0, len(s.state.posts))
	for _, post := range s.state.posts {
		if query.Creator != "" && post.Creator != query.Creator {
			continue
		}
		out = append(out, post)
	}
	s.mu.Unlock()

	sort.Slice(out, func(i, j int) bool {
		if !out[i].PublishedAt.Equal(out[j].PublishedAt) {
			return out[i].PublishedAt.After(out[j].PublishedAt)
		}
		if out[i].PostID != out[j].PostID {
			return out[i].PostID > out[j].PostID
		}
		return out[i].Creator < out[j].Creator
	})
	return page(out, query.Offset, query.Limit), nil
}

func (s *Store) PostsFor(_ context.Context, keys []domain.PostKey) (map[domain.PostKey]domain.Post, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[domain.PostKey]domain.Post, len(keys))
	for _, key := range keys {
		if post, ok := s.state.posts[key]; ok {
			out[key] = post
		}
	}
	return out, nil
}

func (s *Store) GetPool(_ context.Context, poolID string) (domain.Pool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	pool, ok := s.state.pools[poolID]
	if !ok {
		return domain.Pool{}, domain.ErrNotFound
	}
	return pool, nil
}

func (s *Store) ListPools(_ context.Context, query ports.PoolQuery) ([]domain.Pool, error) {
	s.mu.Lock()
	out := make([]domain.Pool, 0, len(s.state.pools))
	for _, pool := range s.state.pools {
		if query.Creator != "" && pool.Creator != query.Creator {
			continue
		}
		out = append(out, pool)
	}
	s.mu.Unlock()

	sort.Slice(out, func(i, j int) bool {
		if query.Sort == ports.PoolSortTrending {
			if c := out[i].TotalHype.Cmp(out[j].TotalHype); c != 0 {
				return c > 0
			}
		}
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].PoolID < out[j].PoolID
	})
	return page(out, query.Offset, query.Limit), nil
}

func (s *Store) GetHolding(_ context.Context, holdingID string) (domain.Holding, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	h, ok := s.state.holdings[holdingID]
	if !ok {
		return domain.Holding{}, domain.ErrNotFound
	}
	return h, nil
}

func (s *Store) ListHoldingsByUser(_ context.Context, user string) ([]domain.Holding, error) {
	s.mu.Lock()
	out := make([]domain.Holding, 0)
	for _, h := range s.state.holdings {
		if h.User == user {
			out = append(out, h)
		}
	}
	s.mu.Unlock()
	sort.Slice(out, func(i, j int) bool { return out[i].UpdatedAt.After(out[j].UpdatedAt) })
	return out, nil
}

func (s *Store) GetTreasury(_ context.Context) (domain.Treasury, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state.treasury == nil {
		return domain.Treasury{}, domain.ErrTreasuryNotInitialized
	}
	return *s.state.treasury, nil
}

func (s *Store) Balance(_ context.Context, account string) (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.balances[account], nil
}

func page[T any](rows []T, offset, limit int) []T {
	if offset >= len(rows) {
		return []T{}
	}
	rows = rows[offset:]
	if limit > 0 && len(rows) > limit {
		rows = rows[:limit]
	}
	return rows
}

var _ ports.LedgerReader = (*Store)(nil)
var _ ports.UnitOfWork = (*Store)(nil)
