package application

import (
	"time"

	"github.com/viralforge/trender/internal/domain"
)

type Config struct {
	ServiceName     string
	PoolCacheTTL    time.Duration
	IdempotencyTTL  time.Duration
	EventDedupTTL   time.Duration
	CandleInterval  time.Duration
	CandleWindow    time.Duration
	DefaultPageSize int
	MaxPageSize     int
}

type Actor struct {
	SubjectID      string
	Role           string
	RequestID      string
	IdempotencyKey string
}

// CreatePoolInput publishes the post in the same unit of work when Title
// or Content is set. Otherwise the pool opens for PostID as is.
type CreatePoolInput struct {
	PostID  uint64
	Deposit domain.Amount
	Title   string
	Content string
}

type CreatePostInput struct {
	Title   string
	Content string
}

type ListPostsInput struct {
	Creator string
	Limit   int
	Offset  int
}

type BuyInput struct {
	PoolID             string
	Amount             domain.Amount
	MaxAcceptablePrice domain.Amount
}

// SellInput.HoldingID is optional; it defaults to the caller's holding in the pool.
type SellInput struct {
	PoolID              string
	HoldingID           string
	Amount              domain.Amount
	MinAcceptableRefund domain.Amount
}

type ReleaseInput struct {
	PoolID string
	Amount domain.Amount
}

type WithdrawInput struct {
	Recipient string
	Amount    uint64
}

type CreditInput struct {
	Subject string
	Amount  uint64
}

type ListPoolsInput struct {
	Creator string
	Sort    string
	Limit   int
	Offset  int
}

type CandlesInput struct {
	PoolID   string
	Interval time.Duration
	Window   time.Duration
}

// PoolView is a pool with its post, when one was published.
type PoolView struct {
	Pool domain.Pool
	Post *domain.Post
}

type TradeResult struct {
	Pool    domain.Pool
	Holding *domain.Holding
	Trade   domain.Trade
}

type WithdrawalResult struct {
	Withdrawal      domain.TreasuryWithdrawal
	TreasuryBalance uint64
}

type TreasuryView struct {
	Treasury domain.Treasury
	Balance  uint64
}

type CustodyBalance struct {
	Account string
	Balance uint64
}
