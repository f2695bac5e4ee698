package postgres

import (
	"time"

	"github.com/viralforge/trender/internal/domain"
)

type treasuryModel struct {
	Singleton bool      `gorm:"column:singleton;primaryKey"`
	Admin     string    `gorm:"column:admin"`
	Account   string    `gorm:"column:account"`
	CreatedAt time.Time `gorm:"column:created_at"`
}

func (treasuryModel) TableName() string { return "treasury" }

type postModel struct {
	Creator     string    `gorm:"column:creator;primaryKey"`
	PostID      uint64    `gorm:"column:post_id;type:numeric(20,0);primaryKey"`
	Title       string    `gorm:"column:title"`
	Content     string    `gorm:"column:content"`
	PublishedAt time.Time `gorm:"column:published_at"`
}

func (postModel) TableName() string { return "posts" }

type poolModel struct {
	PoolID             string        `gorm:"column:pool_id;type:uuid;primaryKey"`
	Creator            string        `gorm:"column:creator"`
	PostID             uint64        `gorm:"column:post_id;type:numeric(20,0)"`
	VaultID            string        `gorm:"column:vault_id;type:uuid"`
	ReservedBase       domain.Amount `gorm:"column:reserved_base;type:numeric(39,0)"`
	ReservedHype       domain.Amount `gorm:"column:reserved_hype;type:numeric(39,0)"`
	TotalHype          domain.Amount `gorm:"column:total_hype;type:numeric(39,0)"`
	CreatorHypeBalance domain.Amount `gorm:"column:creator_hype_balance;type:numeric(39,0)"`
	CreatedAt          time.Time     `gorm:"column:created_at"`
	UpdatedAt          time.Time     `gorm:"column:updated_at"`
}

func (poolModel) TableName() string { return "pools" }

type holdingModel struct {
	HoldingID string        `gorm:"column:holding_id;type:uuid;primaryKey"`
	UserID    string        `gorm:"column:user_id"`
	PoolID    string        `gorm:"column:pool_id;type:uuid"`
	Amount    domain.Amount `gorm:"column:amount;type:numeric(39,0)"`
	CreatedAt time.Time     `gorm:"column:created_at"`
	UpdatedAt time.Time     `gorm:"column:updated_at"`
}

func (holdingModel) TableName() string { return "holdings" }

type custodyAccountModel struct {
	Account   string    `gorm:"column:account;primaryKey"`
	Balance   uint64    `gorm:"column:balance;type:numeric(20,0)"`
	UpdatedAt time.Time `gorm:"column:updated_at"`
}

func (custodyAccountModel) TableName() string { return "custody_accounts" }

type ledgerOutboxModel struct {
	OutboxID         string     `gorm:"column:outbox_id;type:uuid;primaryKey"`
	EventType        string     `gorm:"column:event_type"`
	PartitionKey     string     `gorm:"column:partition_key"`
	PartitionKeyPath string     `gorm:"column:partition_key_path"`
	Payload          string     `gorm:"column:payload;type:jsonb"`
	SchemaVersion    string     `gorm:"column:schema_version"`
	TraceID          string     `gorm:"column:trace_id"`
	CreatedAt        time.Time  `gorm:"column:created_at"`
	FirstSeenAt      time.Time  `gorm:"column:first_seen_at"`
	PublishedAt      *time.Time `gorm:"column:published_at"`
	RetryCount       int        `gorm:"column:retry_count"`
	LastError        *string    `gorm:"column:last_error"`
	LastErrorAt      *time.Time `gorm:"column:last_error_at"`
}

func (ledgerOutboxModel) TableName() string { return "ledger_outbox" }

type tradeModel struct {
	EventID      string    `gorm:"column:event_id;type:uuid;primaryKey"`
	Side         string    `gorm:"column:side"`
	PoolID       string    `gorm:"column:pool_id;type:uuid"`
	PostID       uint64    `gorm:"column:post_id;type:numeric(20,0)"`
	UserID       string    `gorm:"column:user_id"`
	Amount       uint64    `gorm:"column:amount;type:numeric(20,0)"`
	PerUnitPrice uint64    `gorm:"column:per_unit_price;type:numeric(20,0)"`
	TotalValue   uint64    `gorm:"column:total_value;type:numeric(20,0)"`
	Fee          uint64    `gorm:"column:fee;type:numeric(20,0)"`
	OccurredAt   time.Time `gorm:"column:occurred_at"`
}

func (tradeModel) TableName() string { return "trades" }

type ledgerIdempotencyModel struct {
	IdempotencyKey string    `gorm:"column:idempotency_key;primaryKey"`
	RequestHash    string    `gorm:"column:request_hash"`
	Status         string    `gorm:"column:status"`
	ResponseCode   int       `gorm:"column:response_code"`
	ResponseBody   *string   `gorm:"column:response_body"`
	ExpiresAt      time.Time `gorm:"column:expires_at"`
	CreatedAt      time.Time `gorm:"column:created_at"`
	UpdatedAt      time.Time `gorm:"column:updated_at"`
}

func (ledgerIdempotencyModel) TableName() string { return "ledger_idempotency" }

type ledgerEventDedupModel struct {
	EventID     string    `gorm:"column:event_id;primaryKey"`
	EventType   string    `gorm:"column:event_type"`
	ProcessedAt time.Time `gorm:"column:processed_at"`
	ExpiresAt   time.Time `gorm:"column:expires_at"`
}

func (ledgerEventDedupModel) TableName() string { return "ledger_event_dedup" }
