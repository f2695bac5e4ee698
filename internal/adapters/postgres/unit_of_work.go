package postgres

import (
	"context"

	"github.com/viralforge/trender/internal/ports"
	"gorm.io/gorm"
)

type unitOfWork struct {
	db *gorm.DB
}

// WithinTx runs fn in one database transaction. Custody balances live in the
// same database, so a failed leg rolls back the ledger writes with it.
func (u *unitOfWork) WithinTx(ctx context.Context, fn func(ctx context.Context, tx ports.LedgerTx) error) error {
	return u.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(ctx, &ledgerTx{db: tx})
	})
}

type ledgerTx struct {
	db *gorm.DB
}

func (t *ledgerTx) Posts() ports.PostRepository        { return &postRepository{db: t.db} }
func (t *ledgerTx) Pools() ports.PoolRepository        { return &poolRepository{db: t.db} }
func (t *ledgerTx) Holdings() ports.HoldingRepository  { return &holdingRepository{db: t.db} }
func (t *ledgerTx) Treasury() ports.TreasuryRepository { return &treasuryRepository{db: t.db} }
func (t *ledgerTx) Custody() ports.CustodyLedger       { return &custodyRepository{db: t.db} }
func (t *ledgerTx) Outbox() ports.OutboxRepository     { return &outboxRepository{db: t.db} }

var _ ports.UnitOfWork = (*unitOfWork)(nil)
