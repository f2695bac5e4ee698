package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/viralforge/trender/internal/ports"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// eventDedupRepository tracks consumed trade events. It runs on the
// journal transaction so a mark commits together with its trade row.
type eventDedupRepository struct {
	db *gorm.DB
}

func (r *eventDedupRepository) IsDuplicate(ctx context.Context, eventID string, now time.Time) (bool, error) {
	var row ledgerEventDedupModel
	err := r.db.WithContext(ctx).
		Select("event_id").
		Where("event_id = ? AND expires_at > ?", eventID, now).
		Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// MarkProcessed refreshes an expired mark in place when an event is
// redelivered after its TTL.
func (r *eventDedupRepository) MarkProcessed(ctx context.Context, eventID, eventType string, expiresAt time.Time) error {
	row := ledgerEventDedupModel{
		EventID:     eventID,
		EventType:   eventType,
		ProcessedAt: time.Now().UTC(),
		ExpiresAt:   expiresAt,
	}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "event_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"event_type", "processed_at", "expires_at"}),
	}).Create(&row).Error
}

type tradeJournal struct {
	db *gorm.DB
}

func (j *tradeJournal) WithinTx(ctx context.Context, fn func(ctx context.Context, tx ports.TradeJournalTx) error) error {
	return j.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(ctx, journalTx{db: tx})
	})
}

type journalTx struct {
	db *gorm.DB
}

func (t journalTx) Trades() ports.TradeRepository          { return &tradeRepository{db: t.db} }
func (t journalTx) EventDedup() ports.EventDedupRepository { return &eventDedupRepository{db: t.db} }

var (
	_ ports.EventDedupRepository = (*eventDedupRepository)(nil)
	_ ports.TradeJournal         = (*tradeJournal)(nil)
)
