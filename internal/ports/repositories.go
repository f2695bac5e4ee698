package ports

import (
	"context"
	"time"

	"github.com/viralforge/trender/internal/domain"
)

type PoolRepository interface {
	// GetForUpdate loads the pool under a row lock held until the unit of
	// work ends. A lock held by another transaction yields domain.ErrPoolBusy.
	GetForUpdate(ctx context.Context, poolID string) (domain.Pool, error)
	Exists(ctx context.Context, poolID string) (bool, error)
	Create(ctx context.Context, pool domain.Pool) error
	Update(ctx context.Context, pool domain.Pool) error
}

type HoldingRepository interface {
	Get(ctx context.Context, holdingID string) (domain.Holding, error)
	Save(ctx context.Context, holding domain.Holding) error
}

type TreasuryRepository interface {
	Get(ctx context.Context) (domain.Treasury, error)
	Create(ctx context.Context, treasury domain.Treasury) error
}

type PostRepository interface {
	Get(ctx context.Context, creator string, postID uint64) (domain.Post, error)
	// NextID returns one past the highest post id the creator has used for
	// a post or a pool.
	NextID(ctx context.Context, creator string) (uint64, error)
	// Create yields domain.ErrConflict when (creator, post id) is taken.
	Create(ctx context.Context, post domain.Post) error
}

// CustodyLedger moves base units between custody handles. Each call is one
// leg; a short balance yields domain.ErrInsufficientFunds.
type CustodyLedger interface {
	Transfer(ctx context.Context, from, to string, amount uint64) error
	Credit(ctx context.Context, account string, amount uint64) error
	Balance(ctx context.Context, account string) (uint64, error)
}

type OutboxEvent struct {
	EventID          string
	EventType        string
	PartitionKey     string
	PartitionKeyPath string
	Payload          []byte
	SchemaVersion    string
	TraceID          string
	OccurredAt       time.Time
}

type OutboxRecord struct {
	OutboxID     string
	EventType    string
	PartitionKey string
	Payload      []byte
	RetryCount   int
	PublishedAt  *time.Time
	LastError    *string
	LastErrorAt  *time.Time
	FirstSeenAt  time.Time
}

type OutboxRepository interface {
	Enqueue(ctx context.Context, event OutboxEvent) error
	FetchUnpublished(ctx context.Context, limit int) ([]OutboxRecord, error)
	MarkPublished(ctx context.Context, outboxID string, at time.Time) error
	MarkFailed(ctx context.Context, outboxID string, errMsg string, at time.Time) error
}

// LedgerTx exposes the repositories bound to one unit of work.
type LedgerTx interface {
	Posts() PostRepository
	Pools() PoolRepository
	Holdings() HoldingRepository
	Treasury() TreasuryRepository
	Custody() CustodyLedger
	Outbox() OutboxRepository
}

// UnitOfWork runs fn atomically. Any error returned by fn discards every
// write made through tx, custody legs included.
type UnitOfWork interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context, tx LedgerTx) error) error
}

type PoolSort string

const (
	PoolSortRecent   PoolSort = "recent"
	PoolSortTrending PoolSort = "trending"
)

type PoolQuery struct {
	Creator string
	Sort    PoolSort
	Limit   int
	Offset  int
}

// PostQuery lists posts newest first by published_at.
type PostQuery struct {
	Creator string
	Limit   int
	Offset  int
}

type LedgerReader interface {
	ListPosts(ctx context.Context, query PostQuery) ([]domain.Post, error)
	// PostsFor returns the posts that exist among keys.
	PostsFor(ctx context.Context, keys []domain.PostKey) (map[domain.PostKey]domain.Post, error)
	GetPool(ctx context.Context, poolID string) (domain.Pool, error)
	ListPools(ctx context.Context, query PoolQuery) ([]domain.Pool, error)
	GetHolding(ctx context.Context, holdingID string) (domain.Holding, error)
	ListHoldingsByUser(ctx context.Context, user string) ([]domain.Holding, error)
	GetTreasury(ctx context.Context) (domain.Treasury, error)
	Balance(ctx context.Context, account string) (uint64, error)
}

type TradeRepository interface {
	// Insert ignores a trade whose event id is already stored.
	Insert(ctx context.Context, trade domain.Trade) error
	ListByPool(ctx context.Context, poolID string, limit int) ([]domain.Trade, error)
	ListByPoolSince(ctx context.Context, poolID string, since time.Time) ([]domain.Trade, error)
}

type IdempotencyRecord struct {
	Key          string
	RequestHash  string
	Status       string
	ResponseCode int
	ResponseBody []byte
	ExpiresAt    time.Time
}

type IdempotencyRepository interface {
	Get(ctx context.Context, key string, now time.Time) (*IdempotencyRecord, error)
	Reserve(ctx context.Context, key, requestHash string, expiresAt time.Time) error
	Complete(ctx context.Context, key string, responseCode int, responseBody []byte, at time.Time) error
	Release(ctx context.Context, key string) error
}

type EventDedupRepository interface {
	IsDuplicate(ctx context.Context, eventID string, now time.Time) (bool, error)
	MarkProcessed(ctx context.Context, eventID, eventType string, expiresAt time.Time) error
}

// TradeJournalTx binds the trade history and the consumed-event ledger to
// one transaction.
type TradeJournalTx interface {
	Trades() TradeRepository
	EventDedup() EventDedupRepository
}

// TradeJournal records consumed trade events. An error from fn discards
// both the trade row and its dedup mark.
type TradeJournal interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context, tx TradeJournalTx) error) error
}
