package memory

import (
	"context"
	"maps"
	"sort"
	"sync"
	"time"

	"github.com/viralforge/trender/internal/domain"
	"github.com/viralforge/trender/internal/ports"
)

type TradeRepository struct {
	mu   sync.Mutex
	rows map[string]domain.Trade
}

func NewTradeRepository() *TradeRepository {
	return &TradeRepository{rows: map[string]domain.Trade{}}
}

func (r *TradeRepository) Insert(_ context.Context, trade domain.Trade) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.rows[trade.EventID]; ok {
		return nil
	}
	r.rows[trade.EventID] = trade
	return nil
}

func (r *TradeRepository) ListByPool(_ context.Context, poolID string, limit int) ([]domain.Trade, error) {
	out := r.filter(func(t domain.Trade) bool { return t.PoolID == poolID })
	sort.SliceStable(out, func(i, j int) bool { return out[i].OccurredAt.After(out[j].OccurredAt) })
	return page(out, 0, limit), nil
}

func (r *TradeRepository) ListByPoolSince(_ context.Context, poolID string, since time.Time) ([]domain.Trade, error) {
	out := r.filter(func(t domain.Trade) bool { return t.PoolID == poolID && !t.OccurredAt.Before(since) })
	sort.SliceStable(out, func(i, j int) bool { return out[i].OccurredAt.Before(out[j].OccurredAt) })
	return out, nil
}

func (r *TradeRepository) snapshot() map[string]domain.Trade {
	r.mu.Lock()
	defer r.mu.Unlock()
	return maps.Clone(r.rows)
}

func (r *TradeRepository) restore(rows map[string]domain.Trade) {
	r.mu.Lock()
	r.rows = rows
	r.mu.Unlock()
}

func (r *TradeRepository) filter(keep func(domain.Trade) bool) []domain.Trade {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]domain.Trade, 0)
	for _, t := range r.rows {
		if keep(t) {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].EventID < out[j].EventID })
	return out
}

type IdempotencyRepository struct {
	mu   sync.Mutex
	rows map[string]ports.IdempotencyRecord
}

func NewIdempotencyRepository() *IdempotencyRepository {
	return &IdempotencyRepository{rows: map[string]ports.IdempotencyRecord{}}
}

func (r *IdempotencyRepository) Get(_ context.Context, key string, now time.Time) (*ports.IdempotencyRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	row, ok := r.rows[key]
	if !ok {
		return nil, nil
	}
	if now.After(row.ExpiresAt) {
		delete(r.rows, key)
		return nil, nil
	}
	c := row
	c.ResponseBody = append([]byte(nil), row.ResponseBody...)
	return &c, nil
}

func (r *IdempotencyRepository) Reserve(_ context.Context, key, requestHash string, expiresAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.rows[key]; ok {
		return domain.ErrConflict
	}
	r.rows[key] = ports.IdempotencyRecord{Key: key, RequestHash: requestHash, Status: "reserved", ExpiresAt: expiresAt}
	return nil
}

func (r *IdempotencyRepository) Complete(_ context.Context, key string, responseCode int, responseBody []byte, _ time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	row, ok := r.rows[key]
	if !ok {
		return domain.ErrNotFound
	}
	row.Status = "completed"
	row.ResponseCode = responseCode
	row.ResponseBody = append([]byte(nil), responseBody...)
	r.rows[key] = row
	return nil
}

func (r *IdempotencyRepository) Release(_ context.Context, key string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.rows, key)
	return nil
}

type eventDedupRow struct {
	eventType string
	expiresAt time.Time
}

type EventDedupRepository struct {
	mu   sync.Mutex
	rows map[string]eventDedupRow
}

func NewEventDedupRepository() *EventDedupRepository {
	return &EventDedupRepository{rows: map[string]eventDedupRow{}}
}

func (r *EventDedupRepository) IsDuplicate(_ context.Context, eventID string, now time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	row, ok := r.rows[eventID]
	if !ok {
		return false, nil
	}
	if now.After(row.expiresAt) {
		delete(r.rows, eventID)
		return false, nil
	}
	return true, nil
}

func (r *EventDedupRepository) MarkProcessed(_ context.Context, eventID, eventType string, expiresAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rows[eventID] = eventDedupRow{eventType: eventType, expiresAt: expiresAt}
	return nil
}

func (r *EventDedupRepository) snapshot() map[string]eventDedupRow {
	r.mu.Lock()
	defer r.mu.Unlock()
	return maps.Clone(r.rows)
}

func (r *EventDedupRepository) restore(rows map[string]eventDedupRow) {
	r.mu.Lock()
	r.rows = rows
	r.mu.Unlock()
}

// TradeJournal serializes journal transactions and restores both
// repositories when fn fails.
type TradeJournal struct {
	mu     sync.Mutex
	trades *TradeRepository
	dedup  *EventDedupRepository
}

func NewTradeJournal(trades *TradeRepository, dedup *EventDedupRepository) *TradeJournal {
	return &TradeJournal{trades: trades, dedup: dedup}
}

func (j *TradeJournal) WithinTx(ctx context.Context, fn func(ctx context.Context, tx ports.TradeJournalTx) error) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	trades, marks := j.trades.snapshot(), j.dedup.snapshot()
	if err := fn(ctx, journalTx{j}); err != nil {
		j.trades.restore(trades)
		j.dedup.restore(marks)
		return err
	}
	return nil
}

type journalTx struct{ j *TradeJournal }

func (t journalTx) Trades() ports.TradeRepository          { return t.j.trades }
func (t journalTx) EventDedup() ports.EventDedupRepository { return t.j.dedup }

var (
	_ ports.TradeJournal          = (*TradeJournal)(nil)
	_ ports.TradeRepository       = (*TradeRepository)(nil)
	_ ports.IdempotencyRepository = (*IdempotencyRepository)(nil)
	_ ports.EventDedupRepository  = (*EventDedupRepository)(nil)
)
