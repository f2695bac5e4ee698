package memory

import (
	"context"
	"fmt"
	"maps"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/viralforge/trender/internal/domain"
	"github.com/viralforge/trender/internal/ports"
)

// Store keeps the whole ledger in process. Units of work are serialized on a
// single mutex and rolled back by restoring a snapshot taken at the start.
type Store struct {
	mu    sync.Mutex
	state ledgerState
}

type outboxRow struct {
	record ports.OutboxRecord
	seq    int
}

type ledgerState struct {
	posts     map[domain.PostKey]domain.Post
	pools     map[string]domain.Pool
	holdings  map[string]domain.Holding
	treasury  *domain.Treasury
	balances  map[string]uint64
	outbox    map[string]outboxRow
	outboxSeq int
}

func NewStore() *Store {
	return &Store{state: ledgerState{
		posts:    map[domain.PostKey]domain.Post{},
		pools:    map[string]domain.Pool{},
		holdings: map[string]domain.Holding{},
		balances: map[string]uint64{},
		outbox:   map[string]outboxRow{},
	}}
}

func (s ledgerState) clone() ledgerState {
	out := s
	out.posts = maps.Clone(s.posts)
	out.pools = maps.Clone(s.pools)
	out.holdings = maps.Clone(s.holdings)
	out.balances = maps.Clone(s.balances)
	out.outbox = maps.Clone(s.outbox)
	if s.treasury != nil {
		t := *s.treasury
		out.treasury = &t
	}
	return out
}

func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context, tx ports.LedgerTx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	snapshot := s.state.clone()
	if err := fn(ctx, &memTx{state: &s.state}); err != nil {
		s.state = snapshot
		return err
	}
	return nil
}

// memTx runs with Store.mu held.
type memTx struct {
	state *ledgerState
}

func (t *memTx) Posts() ports.PostRepository        { return postRepo{t.state} }
func (t *memTx) Pools() ports.PoolRepository        { return poolRepo{t.state} }
func (t *memTx) Holdings() ports.HoldingRepository  { return holdingRepo{t.state} }
func (t *memTx) Treasury() ports.TreasuryRepository { return treasuryRepo{t.state} }
func (t *memTx) Custody() ports.CustodyLedger       { return custodyRepo{t.state} }
func (t *memTx) Outbox() ports.OutboxRepository     { return txOutbox{t.state} }

type postRepo struct{ st *ledgerState }

func (r postRepo) Get(_ context.Context, creator string, postID uint64) (domain.Post, error) {
	post, ok := r.st.posts[domain.PostKey{Creator: creator, PostID: postID}]
	if !ok {
		return domain.Post{}, domain.ErrNotFound
	}
	return post, nil
}

func (r postRepo) NextID(_ context.Context, creator string) (uint64, error) {
	var last uint64
	for key := range r.st.posts {
		if key.Creator == creator && key.PostID > last {
			last = key.PostID
		}
	}
	for _, pool := range r.st.pools {
		if pool.Creator == creator && pool.PostID > last {
			last = pool.PostID
		}
	}
	if last == math.MaxUint64 {
		return 0, domain.ErrArithmeticOverflow
	}
	return last + 1, nil
}

func (r postRepo) Create(_ context.Context, post domain.Post) error {
	if _, ok := r.st.posts[post.Key()]; ok {
		return fmt.Errorf("%w: post already exists", domain.ErrConflict)
	}
	r.st.posts[post.Key()] = post
	return nil
}

type poolRepo struct{ st *ledgerState }

func (r poolRepo) GetForUpdate(_ context.Context, poolID string) (domain.Pool, error) {
	pool, ok := r.st.pools[poolID]
	if !ok {
		return domain.Pool{}, domain.ErrNotFound
	}
	return pool, nil
}

func (r poolRepo) Exists(_ context.Context, poolID string) (bool, error) {
	_, ok := r.st.pools[poolID]
	return ok, nil
}

func (r poolRepo) Create(_ context.Context, pool domain.Pool) error {
	if _, ok := r.st.pools[pool.PoolID]; ok {
		return domain.ErrPoolExists
	}
	r.st.pools[pool.PoolID] = pool
	return nil
}

func (r poolRepo) Update(_ context.Context, pool domain.Pool) error {
	if _, ok := r.st.pools[pool.PoolID]; !ok {
		return domain.ErrNotFound
	}
	r.st.pools[pool.PoolID] = pool
	return nil
}

type holdingRepo struct{ st *ledgerState }

func (r holdingRepo) Get(_ context.Context, holdingID string) (domain.Holding, error) {
	h, ok := r.st.holdings[holdingID]
	if !ok {
		return domain.Holding{}, domain.ErrNotFound
	}
	return h, nil
}

func (r holdingRepo) Save(_ context.Context, holding domain.Holding) error {
	r.st.holdings[holding.HoldingID] = holding
	return nil
}

type treasuryRepo struct{ st *ledgerState }

func (r treasuryRepo) Get(_ context.Context) (domain.Treasury, error) {
	if r.st.treasury == nil {
		return domain.Treasury{}, domain.ErrTreasuryNotInitialized
	}
	return *r.st.treasury, nil
}

func (r treasuryRepo) Create(_ context.Context, treasury domain.Treasury) error {
	if r.st.treasury != nil {
		return domain.ErrConflict
	}
	r.st.treasury = &treasury
	return nil
}

type custodyRepo struct{ st *ledgerState }

func (r custodyRepo) Transfer(_ context.Context, from, to string, amount uint64) error {
	if from == to {
		return fmt.Errorf("%w: transfer to same account", domain.ErrInvalidInput)
	}
	if r.st.balances[from] < amount {
		return fmt.Errorf("%w: %s holds %d, needs %d", domain.ErrInsufficientFunds, from, r.st.balances[from], amount)
	}
	if r.st.balances[to] > math.MaxUint64-amount {
		return fmt.Errorf("%w: balance of %s", domain.ErrArithmeticOverflow, to)
	}
	r.st.balances[from] -= amount
	r.st.balances[to] += amount
	return nil
}

func (r custodyRepo) Credit(_ context.Context, account string, amount uint64) error {
	if r.st.balances[account] > math.MaxUint64-amount {
		return fmt.Errorf("%w: balance of %s", domain.ErrArithmeticOverflow, account)
	}
	r.st.balances[account] += amount
	return nil
}

func (r custodyRepo) Balance(_ context.Context, account string) (uint64, error) {
	return r.st.balances[account], nil
}

type txOutbox struct{ st *ledgerState }

func (r txOutbox) Enqueue(_ context.Context, event ports.OutboxEvent) error {
	return r.st.enqueue(event)
}

func (r txOutbox) FetchUnpublished(_ context.Context, limit int) ([]ports.OutboxRecord, error) {
	return r.st.unpublished(limit), nil
}

func (r txOutbox) MarkPublished(_ context.Context, outboxID string, at time.Time) error {
	return r.st.markPublished(outboxID, at)
}

func (r txOutbox) MarkFailed(_ context.Context, outboxID string, errMsg string, at time.Time) error {
	return r.st.markFailed(outboxID, errMsg, at)
}

func (s *ledgerState) enqueue(event ports.OutboxEvent) error {
	if _, ok := s.outbox[event.EventID]; ok {
		return domain.ErrConflict
	}
	s.outboxSeq++
	s.outbox[event.EventID] = outboxRow{
		seq: s.outboxSeq,
		record: ports.OutboxRecord{
			OutboxID:     event.EventID,
			EventType:    event.EventType,
			PartitionKey: event.PartitionKey,
			Payload:      append([]byte(nil), event.Payload...),
			FirstSeenAt:  event.OccurredAt,
		},
	}
	return nil
}

func (s *ledgerState) unpublished(limit int) []ports.OutboxRecord {
	if limit <= 0 {
		limit = 100
	}
	rows := make([]outboxRow, 0)
	for _, row := range s.outbox {
		if row.record.PublishedAt == nil {
			rows = append(rows, row)
		}
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].seq < rows[j].seq })
	if len(rows) > limit {
		rows = rows[:limit]
	}
	out := make([]ports.OutboxRecord, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.record)
	}
	return out
}

func (s *ledgerState) markPublished(outboxID string, at time.Time) error {
	row, ok := s.outbox[outboxID]
	if !ok {
		return domain.ErrNotFound
	}
	row.record.PublishedAt = &at
	s.outbox[outboxID] = row
	return nil
}

func (s *ledgerState) markFailed(outboxID, errMsg string, at time.Time) error {
	row, ok := s.outbox[outboxID]
	if !ok {
		return domain.ErrNotFound
	}
	row.record.RetryCount++
	row.record.LastError = &errMsg
	row.record.LastErrorAt = &at
	s.outbox[outboxID] = row
	return nil
}

// Outbox exposes the committed outbox to the publishing worker.
func (s *Store) Outbox() ports.OutboxRepository {
	return storeOutbox{s}
}

type storeOutbox struct{ s *Store }

func (o storeOutbox) Enqueue(_ context.Context, event ports.OutboxEvent) error {
	o.s.mu.Lock()
	defer o.s.mu.Unlock()
	return o.s.state.enqueue(event)
}

func (o storeOutbox) FetchUnpublished(_ context.Context, limit int) ([]ports.OutboxRecord, error) {
	o.s.mu.Lock()
	defer o.s.mu.Unlock()
	return o.s.state.unpublished(limit), nil
}

func (o storeOutbox) MarkPublished(_ context.Context, outboxID string, at time.Time) error {
	o.s.mu.Lock()
	defer o.s.mu.Unlock()
	return o.s.state.markPublished(outboxID, at)
}

func (o storeOutbox) MarkFailed(_ context.Context, outboxID string, errMsg string, at time.Time) error {
	o.s.mu.Lock()
	defer o.s.mu.Unlock()
	return o.s.state.markFailed(outboxID, errMsg, at)
}
