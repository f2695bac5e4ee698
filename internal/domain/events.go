package domain

import "time"

const (
	EventPoolCreated       = "pool.created"
	EventHypePurchased     = "hype.purchased"
	EventHypeSold          = "hype.sold"
	EventHypeReleased      = "hype.released"
	EventTreasuryWithdrawn = "treasury.withdrawn"
)

type TradeSide string

const (
	SideBuy     TradeSide = "buy"
	SideSell    TradeSide = "sell"
	SideRelease TradeSide = "release"
)

// EventType maps a trade side to the event it emits.
func (s TradeSide) EventType() string {
	switch s {
	case SideBuy:
		return EventHypePurchased
	case SideSell:
		return EventHypeSold
	case SideRelease:
		return EventHypeReleased
	default:
		return ""
	}
}

func SideForEvent(eventType string) (TradeSide, bool) {
	switch eventType {
	case EventHypePurchased:
		return SideBuy, true
	case EventHypeSold:
		return SideSell, true
	case EventHypeReleased:
		return SideRelease, true
	default:
		return "", false
	}
}

// Trade is the event data of a buy, sell or release. All amounts are at the
// 64-bit transfer boundary. TotalValue is the gross AMM value before fees.
type Trade struct {
	EventID      string
	Side         TradeSide
	PoolID       string
	PostID       uint64
	User         string
	Amount       uint64
	PerUnitPrice uint64
	TotalValue   uint64
	Fee          uint64
	OccurredAt   time.Time
}

type TreasuryWithdrawal struct {
	Admin      string
	Recipient  string
	Amount     uint64
	OccurredAt time.Time
}

func IsCanonicalEmittedEvent(eventType string) bool {
	switch eventType {
	case EventPoolCreated, EventHypePurchased, EventHypeSold, EventHypeReleased, EventTreasuryWithdrawn:
		return true
	default:
		return false
	}
}

// CanonicalPartitionKeyPath keeps every event of one pool on one partition.
func CanonicalPartitionKeyPath(eventType string) string {
	switch eventType {
	case EventPoolCreated, EventHypePurchased, EventHypeSold, EventHypeReleased:
		return "data.pool_id"
	case EventTreasuryWithdrawn:
		return "data.recipient"
	default:
		return ""
	}
}
