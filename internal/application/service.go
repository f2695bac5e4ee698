package application

import (
	"time"

	"github.com/viralforge/trender/internal/ports"
)

type Service struct {
	cfg         Config
	uow         ports.UnitOfWork
	reads       ports.LedgerReader
	trades      ports.TradeRepository
	journal     ports.TradeJournal
	idempotency ports.IdempotencyRepository
	locker      ports.PoolLocker
	cache       ports.Cache
	nowFn       func() time.Time
}

type Dependencies struct {
	Config      Config
	UnitOfWork  ports.UnitOfWork
	Reads       ports.LedgerReader
	Trades      ports.TradeRepository
	Journal     ports.TradeJournal
	Idempotency ports.IdempotencyRepository
	Locker      ports.PoolLocker
	Cache       ports.Cache
}

func NewService(deps Dependencies) *Service {
	cfg := deps.Config
	if cfg.ServiceName == "" {
		cfg.ServiceName = "trender-hype-ledger"
	}
	if cfg.PoolCacheTTL <= 0 {
		cfg.PoolCacheTTL = 30 * time.Second
	}
	if cfg.IdempotencyTTL <= 0 {
		cfg.IdempotencyTTL = 7 * 24 * time.Hour
	}
	if cfg.EventDedupTTL <= 0 {
		cfg.EventDedupTTL = 7 * 24 * time.Hour
	}
	if cfg.CandleInterval <= 0 {
		cfg.CandleInterval = 5 * time.Minute
	}
	if cfg.CandleWindow <= 0 {
		cfg.CandleWindow = 24 * time.Hour
	}
	if cfg.DefaultPageSize <= 0 {
		cfg.DefaultPageSize = 20
	}
	if cfg.MaxPageSize <= 0 {
		cfg.MaxPageSize = 100
	}

	return &Service{
		cfg:         cfg,
		uow:         deps.UnitOfWork,
		reads:       deps.Reads,
		trades:      deps.Trades,
		journal:     deps.Journal,
		idempotency: deps.Idempotency,
		locker:      deps.Locker,
		cache:       deps.Cache,
		nowFn:       func() time.Time { return time.Now().UTC() },
	}
}
