package contracts

import "time"

// CreatePoolRequest publishes the post along with the pool when title and
// content are set.
type CreatePoolRequest struct {
	PostID  uint64 `json:"post_id"`
	Deposit string `json:"deposit"`
	Title   string `json:"title,omitempty"`
	Content string `json:"content,omitempty"`
}

type CreatePostRequest struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

type PostResponse struct {
	Creator     string    `json:"creator"`
	PostID      uint64    `json:"post_id"`
	PoolID      string    `json:"pool_id"`
	Title       string    `json:"title"`
	Content     string    `json:"content"`
	PublishedAt time.Time `json:"published_at"`
}

type BuyRequest struct {
	Amount             string `json:"amount"`
	MaxAcceptablePrice string `json:"max_acceptable_price"`
}

type SellRequest struct {
	HoldingID           string `json:"holding_id,omitempty"`
	Amount              string `json:"amount"`
	MinAcceptableRefund string `json:"min_acceptable_refund"`
}

type ReleaseRequest struct {
	Amount string `json:"amount"`
}

type WithdrawTreasuryRequest struct {
	Recipient string `json:"recipient"`
	Amount    uint64 `json:"amount"`
}

type CreditCustodyRequest struct {
	Subject string `json:"subject"`
	Amount  uint64 `json:"amount"`
}

type PoolResponse struct {
	PoolID             string        `json:"pool_id"`
	Creator            string        `json:"creator"`
	PostID             uint64        `json:"post_id"`
	VaultID            string        `json:"vault_id"`
	ReservedBase       string        `json:"reserved_base"`
	ReservedHype       string        `json:"reserved_hype"`
	TotalHype          string        `json:"total_hype"`
	CreatorHypeBalance string        `json:"creator_hype_balance"`
	SpotPrice          string        `json:"spot_price"`
	Post               *PostResponse `json:"post,omitempty"`
	CreatedAt          time.Time     `json:"created_at"`
	UpdatedAt          time.Time     `json:"updated_at"`
}

type HoldingResponse struct {
	HoldingID string    `json:"holding_id"`
	User      string    `json:"user"`
	PoolID    string    `json:"pool_id"`
	Amount    string    `json:"amount"`
	UpdatedAt time.Time `json:"updated_at"`
}

type TradeResponse struct {
	EventID      string    `json:"event_id,omitempty"`
	Side         string    `json:"side"`
	PoolID       string    `json:"pool_id"`
	PostID       uint64    `json:"post_id"`
	User         string    `json:"user"`
	Amount       uint64    `json:"amount"`
	PerUnitPrice uint64    `json:"per_unit_price"`
	TotalValue   uint64    `json:"total_value"`
	Fee          uint64    `json:"fee"`
	DisplayPrice string    `json:"display_price"`
	OccurredAt   time.Time `json:"occurred_at"`
}

type TradeResultResponse struct {
	Pool          PoolResponse     `json:"pool"`
	Holding       *HoldingResponse `json:"holding,omitempty"`
	Trade         TradeResponse    `json:"trade"`
	EventDelivery string           `json:"event_delivery,omitempty"`
}

type QuoteResponse struct {
	PoolID       string `json:"pool_id"`
	Side         string `json:"side"`
	Amount       string `json:"amount"`
	Value        string `json:"value"`
	Fee          string `json:"fee"`
	Net          string `json:"net"`
	PerUnitPrice string `json:"per_unit_price"`
}

type CandleResponse struct {
	Start  time.Time `json:"start"`
	Open   string    `json:"open"`
	High   string    `json:"high"`
	Low    string    `json:"low"`
	Close  string    `json:"close"`
	Volume string    `json:"volume"`
	Trades int       `json:"trades"`
}

type BalanceResponse struct {
	Account string `json:"account"`
	Balance uint64 `json:"balance"`
}

type TreasuryResponse struct {
	Admin   string `json:"admin"`
	Account string `json:"account"`
	Balance uint64 `json:"balance"`
}

type WithdrawalResponse struct {
	Recipient string `json:"recipient"`
	Amount    uint64 `json:"amount"`
	Balance   uint64 `json:"treasury_balance"`
}
