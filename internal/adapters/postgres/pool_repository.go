package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/viralforge/trender/internal/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type poolRepository struct {
	db *gorm.DB
}

func (r *poolRepository) GetForUpdate(ctx context.Context, poolID string) (domain.Pool, error) {
	var row poolModel
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE", Options: "NOWAIT"}).
		Where("pool_id = ?", poolID).
		Take(&row).Error
	switch {
	case err == nil:
		return fromPoolModel(row), nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return domain.Pool{}, domain.ErrNotFound
	case isLockNotAvailable(err):
		return domain.Pool{}, fmt.Errorf("%w: %v", domain.ErrPoolBusy, err)
	default:
		return domain.Pool{}, err
	}
}

func (r *poolRepository) Exists(ctx context.Context, poolID string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&poolModel{}).Where("pool_id = ?", poolID).Count(&count).Error
	return count > 0, err
}

func (r *poolRepository) Create(ctx context.Context, pool domain.Pool) error {
	row := toPoolModel(pool)
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		if isUniqueViolation(err) {
			return domain.ErrPoolExists
		}
		return err
	}
	return nil
}

func (r *poolRepository) Update(ctx context.Context, pool domain.Pool) error {
	res := r.db.WithContext(ctx).Model(&poolModel{}).Where("pool_id = ?", pool.PoolID).Updates(map[string]any{
		"reserved_base":        pool.ReservedBase,
		"reserved_hype":        pool.ReservedHype,
		"total_hype":           pool.TotalHype,
		"creator_hype_balance": pool.CreatorHypeBalance,
		"updated_at":           pool.UpdatedAt,
	})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

type holdingRepository struct {
	db *gorm.DB
}

func (r *holdingRepository) Get(ctx context.Context, holdingID string) (domain.Holding, error) {
	var row holdingModel
	err := r.db.WithContext(ctx).Where("holding_id = ?", holdingID).Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return domain.Holding{}, domain.ErrNotFound
	}
	if err != nil {
		return domain.Holding{}, err
	}
	return fromHoldingModel(row), nil
}

func (r *holdingRepository) Save(ctx context.Context, holding domain.Holding) error {
	row := toHoldingModel(holding)
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "holding_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"amount", "updated_at"}),
	}).Create(&row).Error
}

type treasuryRepository struct {
	db *gorm.DB
}

func (r *treasuryRepository) Get(ctx context.Context) (domain.Treasury, error) {
	return getTreasury(ctx, r.db)
}

func (r *treasuryRepository) Create(ctx context.Context, treasury domain.Treasury) error {
	row := treasuryModel{Singleton: true, Admin: treasury.Admin, Account: treasury.Account, CreatedAt: treasury.CreatedAt}
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		if isUniqueViolation(err) {
			return domain.ErrConflict
		}
		return err
	}
	return nil
}

func getTreasury(ctx context.Context, db *gorm.DB) (domain.Treasury, error) {
	var row treasuryModel
	err := db.WithContext(ctx).Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return domain.Treasury{}, domain.ErrTreasuryNotInitialized
	}
	if err != nil {
		return domain.Treasury{}, err
	}
	return fromTreasuryModel(row), nil
}
