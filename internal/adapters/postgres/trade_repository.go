package postgres

import (
	"context"
	"time"

	"github.com/viralforge/trender/internal/domain"
	"github.com/viralforge/trender/internal/ports"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type tradeRepository struct {
	db *gorm.DB
}

func (r *tradeRepository) Insert(ctx context.Context, trade domain.Trade) error {
	row := toTradeModel(trade)
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&row).Error
}

func (r *tradeRepository) ListByPool(ctx context.Context, poolID string, limit int) ([]domain.Trade, error) {
	var rows []tradeModel
	q := r.db.WithContext(ctx).Where("pool_id = ?", poolID).Order("occurred_at desc, event_id asc")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&rows).Error; err != nil {
		return nil, err
	}
	return mapTrades(rows), nil
}

func (r *tradeRepository) ListByPoolSince(ctx context.Context, poolID string, since time.Time) ([]domain.Trade, error) {
	var rows []tradeModel
	err := r.db.WithContext(ctx).
		Where("pool_id = ? AND occurred_at >= ?", poolID, since).
		Order("occurred_at asc, event_id asc").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return mapTrades(rows), nil
}

func mapTrades(rows []tradeModel) []domain.Trade {
	out := make([]domain.Trade, 0, len(rows))
	for _, row := range rows {
		out = append(out, fromTradeModel(row))
	}
	return out
}

var _ ports.TradeRepository = (*tradeRepository)(nil)
