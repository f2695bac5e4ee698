package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/viralforge/trender/internal/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const custodyRangeConstraint = "custody_balance_range"

// custodyRepository changes balances only through in-place increments and
// guarded decrements.
type custodyRepository struct {
	db *gorm.DB
}

func (r *custodyRepository) Transfer(ctx context.Context, from, to string, amount uint64) error {
	if from == to {
		return fmt.Errorf("%w: transfer to same account", domain.ErrInvalidInput)
	}
	if amount == 0 {
		return nil
	}
	res := r.db.WithContext(ctx).Model(&custodyAccountModel{}).
		Where("account = ? AND balance >= ?", from, amount).
		Updates(map[string]any{
			"balance":    gorm.Expr("balance - ?", amount),
			"updated_at": time.Now().UTC(),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: %s cannot cover %d", domain.ErrInsufficientFunds, from, amount)
	}
	return r.Credit(ctx, to, amount)
}

func (r *custodyRepository) Credit(ctx context.Context, account string, amount uint64) error {
	row := custodyAccountModel{Account: account, Balance: amount, UpdatedAt: time.Now().UTC()}
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "account"}},
		DoUpdates: clause.Assignments(map[string]any{
			"balance":    gorm.Expr("custody_accounts.balance + EXCLUDED.balance"),
			"updated_at": gorm.Expr("EXCLUDED.updated_at"),
		}),
	}).Create(&row).Error
	if isCheckViolation(err, custodyRangeConstraint) {
		return fmt.Errorf("%w: balance of %s", domain.ErrArithmeticOverflow, account)
	}
	return err
}

func (r *custodyRepository) Balance(ctx context.Context, account string) (uint64, error) {
	return custodyBalance(ctx, r.db, account)
}

func custodyBalance(ctx context.Context, db *gorm.DB, account string) (uint64, error) {
	var row custodyAccountModel
	err := db.WithContext(ctx).Where("account = ?", account).Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return row.Balance, nil
}
