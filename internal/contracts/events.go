package contracts

import (
	"encoding/json"
	"time"
)

type EventEnvelope struct {
	EventID          string          `json:"event_id"`
	EventType        string          `json:"event_type"`
	OccurredAt       time.Time       `json:"occurred_at"`
	PartitionKeyPath string          `json:"partition_key_path"`
	PartitionKey     string          `json:"partition_key"`
	SourceService    string          `json:"source_service"`
	TraceID          string          `json:"trace_id"`
	SchemaVersion    string          `json:"schema_version"`
	Data             json.RawMessage `json:"data"`
}

// TradeEventPayload is shared by hype.purchased, hype.sold and hype.released.
type TradeEventPayload struct {
	PoolID       string `json:"pool_id"`
	PostID       uint64 `json:"post_id"`
	User         string `json:"user"`
	Amount       uint64 `json:"amount"`
	PerUnitPrice uint64 `json:"per_unit_price"`
	TotalValue   uint64 `json:"total_value"`
	Fee          uint64 `json:"fee"`
	Timestamp    int64  `json:"timestamp"`
}

type PoolCreatedPayload struct {
	PoolID       string `json:"pool_id"`
	PostID       uint64 `json:"post_id"`
	Creator      string `json:"creator"`
	VaultID      string `json:"vault_id"`
	Deposit      uint64 `json:"deposit"`
	Fee          uint64 `json:"fee"`
	ReservedHype string `json:"reserved_hype"`
	CreatedAt    string `json:"created_at"`
}

type TreasuryWithdrawnPayload struct {
	Admin       string `json:"admin"`
	Recipient   string `json:"recipient"`
	Amount      uint64 `json:"amount"`
	WithdrawnAt string `json:"withdrawn_at"`
}
