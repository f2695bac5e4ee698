package postgres

import (
	"github.com/viralforge/trender/internal/ports"
	"gorm.io/gorm"
)

type Repositories struct {
	UnitOfWork  ports.UnitOfWork
	Reads       ports.LedgerReader
	Trades      ports.TradeRepository
	Journal     ports.TradeJournal
	Outbox      ports.OutboxRepository
	Idempotency ports.IdempotencyRepository
}

func NewRepositories(db *gorm.DB) Repositories {
	return Repositories{
		UnitOfWork:  &unitOfWork{db: db},
		Reads:       &readRepository{db: db},
		Trades:      &tradeRepository{db: db},
		Journal:     &tradeJournal{db: db},
		Outbox:      &outboxRepository{db: db},
		Idempotency: &idempotencyRepository{db: db},
	}
}
