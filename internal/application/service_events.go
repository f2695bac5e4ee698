package application

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/viralforge/trender/internal/contracts"
	"github.com/viralforge/trender/internal/domain"
	"github.com/viralforge/trender/internal/ports"
)

const schemaVersion = "v1"

func (s *Service) enqueueEvent(ctx context.Context, outbox ports.OutboxRepository, eventType, traceID, partitionKey string, data any, now time.Time) (string, error) {
	if !domain.IsCanonicalEmittedEvent(eventType) {
		return "", domain.ErrUnsupportedEventType
	}
	raw, err := json.Marshal(data)
	if err != nil {
		return "", fmt.Errorf("%w: encode %s payload", domain.ErrInvalidInput, eventType)
	}
	if strings.TrimSpace(traceID) == "" {
		traceID = uuid.NewString()
	}
	env := contracts.EventEnvelope{
		EventID:          uuid.NewString(),
		EventType:        eventType,
		OccurredAt:       now,
		PartitionKeyPath: domain.CanonicalPartitionKeyPath(eventType),
		PartitionKey:     partitionKey,
		SourceService:    s.cfg.ServiceName,
		TraceID:          traceID,
		SchemaVersion:    schemaVersion,
		Data:             raw,
	}
	payload, err := json.Marshal(env)
	if err != nil {
		return "", err
	}
	err = outbox.Enqueue(ctx, ports.OutboxEvent{
		EventID:          env.EventID,
		EventType:        eventType,
		PartitionKey:     partitionKey,
		PartitionKeyPath: env.PartitionKeyPath,
		Payload:          payload,
		SchemaVersion:    schemaVersion,
		TraceID:          traceID,
		OccurredAt:       now,
	})
	if err != nil {
		return "", err
	}
	return env.EventID, nil
}

func (s *Service) enqueuePoolCreated(ctx context.Context, outbox ports.OutboxRepository, pool domain.Pool, fee uint64, traceID string) error {
	deposit, err := pool.ReservedBase.Uint64()
	if err != nil {
		return err
	}
	_, err = s.enqueueEvent(ctx, outbox, domain.EventPoolCreated, traceID, pool.PoolID, contracts.PoolCreatedPayload{
		PoolID:       pool.PoolID,
		PostID:       pool.PostID,
		Creator:      pool.Creator,
		VaultID:      pool.VaultID,
		Deposit:      deposit,
		Fee:          fee,
		ReservedHype: pool.ReservedHype.String(),
		CreatedAt:    pool.CreatedAt.UTC().Format(time.RFC3339),
	}, pool.CreatedAt)
	return err
}

func (s *Service) enqueueTrade(ctx context.Context, outbox ports.OutboxRepository, trade domain.Trade, traceID string) (string, error) {
	return s.enqueueEvent(ctx, outbox, trade.Side.EventType(), traceID, trade.PoolID, contracts.TradeEventPayload{
		PoolID:       trade.PoolID,
		PostID:       trade.PostID,
		User:         trade.User,
		Amount:       trade.Amount,
		PerUnitPrice: trade.PerUnitPrice,
		TotalValue:   trade.TotalValue,
		Fee:          trade.Fee,
		Timestamp:    trade.OccurredAt.Unix(),
	}, trade.OccurredAt)
}

func (s *Service) enqueueWithdrawal(ctx context.Context, outbox ports.OutboxRepository, w domain.TreasuryWithdrawal, traceID string) error {
	_, err := s.enqueueEvent(ctx, outbox, domain.EventTreasuryWithdrawn, traceID, w.Recipient, contracts.TreasuryWithdrawnPayload{
		Admin:       w.Admin,
		Recipient:   w.Recipient,
		Amount:      w.Amount,
		WithdrawnAt: w.OccurredAt.UTC().Format(time.RFC3339),
	}, w.OccurredAt)
	return err
}

// HandleTradeEvent records a consumed trade event in the trade history.
// The dedup check, the insert and the dedup mark share one journal
// transaction. trades.event_id is the primary key and Insert skips
// conflicts, so consumers racing on a redelivery still store one row.
func (s *Service) HandleTradeEvent(ctx context.Context, ev ports.ConsumedEvent) error {
	var env contracts.EventEnvelope
	if err := json.Unmarshal(ev.Payload, &env); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrInvalidEnvelope, err)
	}
	if err := validateEnvelope(env); err != nil {
		return err
	}
	if ev.EventType != "" && ev.EventType != env.EventType {
		return fmt.Errorf("%w: %s delivered on the %s topic", domain.ErrInvalidEnvelope, env.EventType, ev.EventType)
	}
	side, ok := domain.SideForEvent(env.EventType)
	if !ok {
		return fmt.Errorf("%w: %s", domain.ErrUnsupportedEventType, env.EventType)
	}
	var data contracts.TradeEventPayload
	if err := json.Unmarshal(env.Data, &data); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrInvalidEnvelope, err)
	}
	if strings.TrimSpace(data.PoolID) == "" || data.Amount == 0 {
		return domain.ErrInvalidEnvelope
	}
	for _, key := range []string{env.PartitionKey, ev.PartitionKey} {
		if key != "" && key != data.PoolID {
			return fmt.Errorf("%w: partition key %q does not match pool %s", domain.ErrInvalidEnvelope, key, data.PoolID)
		}
	}
	trade := domain.Trade{
		EventID:      env.EventID,
		Side:         side,
		PoolID:       data.PoolID,
		PostID:       data.PostID,
		User:         data.User,
		Amount:       data.Amount,
		PerUnitPrice: data.PerUnitPrice,
		TotalValue:   data.TotalValue,
		Fee:          data.Fee,
		OccurredAt:   time.Unix(data.Timestamp, 0).UTC(),
	}

	now := s.nowFn()
	return s.withJournal(ctx, func(ctx context.Context, tx ports.TradeJournalTx) error {
		dedup := tx.EventDedup()
		if dedup != nil {
			dup, err := dedup.IsDuplicate(ctx, env.EventID, now)
			if err != nil {
				return err
			}
			if dup {
				return nil
			}
		}
		if err := tx.Trades().Insert(ctx, trade); err != nil {
			return err
		}
		if dedup == nil {
			return nil
		}
		return dedup.MarkProcessed(ctx, env.EventID, env.EventType, now.Add(s.cfg.EventDedupTTL))
	})
}

func (s *Service) withJournal(ctx context.Context, fn func(ctx context.Context, tx ports.TradeJournalTx) error) error {
	if s.journal == nil {
		return fn(ctx, tradesOnly{trades: s.trades})
	}
	return s.journal.WithinTx(ctx, fn)
}

// tradesOnly journals without dedup when no journal is configured.
type tradesOnly struct {
	trades ports.TradeRepository
}

func (t tradesOnly) Trades() ports.TradeRepository          { return t.trades }
func (t tradesOnly) EventDedup() ports.EventDedupRepository { return nil }

func validateEnvelope(env contracts.EventEnvelope) error {
	if strings.TrimSpace(env.EventID) == "" || strings.TrimSpace(env.EventType) == "" || env.OccurredAt.IsZero() {
		return domain.ErrInvalidEnvelope
	}
	if strings.TrimSpace(env.SchemaVersion) == "" || len(env.Data) == 0 {
		return domain.ErrInvalidEnvelope
	}
	return nil
}

func (s *Service) ListTrades(ctx context.Context, poolID string, limit int) ([]domain.Trade, error) {
	poolID, err := requirePoolID(poolID)
	if err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = s.cfg.DefaultPageSize
	}
	if limit > s.cfg.MaxPageSize {
		limit = s.cfg.MaxPageSize
	}
	return s.trades.ListByPool(ctx, poolID, limit)
}

func (s *Service) Candles(ctx context.Context, input CandlesInput) ([]domain.Candle, error) {
	poolID, err := requirePoolID(input.PoolID)
	if err != nil {
		return nil, err
	}
	interval := input.Interval
	if interval == 0 {
		interval = s.cfg.CandleInterval
	}
	if interval < time.Minute || interval > 24*time.Hour {
		return nil, fmt.Errorf("%w: interval must be between 1m and 24h", domain.ErrInvalidInput)
	}
	window := input.Window
	if window <= 0 {
		window = s.cfg.CandleWindow
	}
	trades, err := s.trades.ListByPoolSince(ctx, poolID, s.nowFn().Add(-window))
	if err != nil {
		return nil, err
	}
	return domain.BuildCandles(trades, interval), nil
}
