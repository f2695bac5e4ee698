package application

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/viralforge/trender/internal/contracts"
	"github.com/viralforge/trender/internal/domain"
	"github.com/viralforge/trender/internal/ports"
)

var errStoreDown = errors.New("store down")

// failingMarkJournal fails the next `failures` MarkProcessed calls made
// inside its transactions.
type failingMarkJournal struct {
	ports.TradeJournal
	failures int
}

func (j *failingMarkJournal) WithinTx(ctx context.Context, fn func(ctx context.Context, tx ports.TradeJournalTx) error) error {
	return j.TradeJournal.WithinTx(ctx, func(ctx context.Context, tx ports.TradeJournalTx) error {
		return fn(ctx, failingMarkTx{TradeJournalTx: tx, j: j})
	})
}

type failingMarkTx struct {
	ports.TradeJournalTx
	j *failingMarkJournal
}

func (t failingMarkTx) EventDedup() ports.EventDedupRepository {
	return failingMark{EventDedupRepository: t.TradeJournalTx.EventDedup(), j: t.j}
}

type failingMark struct {
	ports.EventDedupRepository
	j *failingMarkJournal
}

func (m failingMark) MarkProcessed(ctx context.Context, eventID, eventType string, expiresAt time.Time) error {
	if m.j.failures > 0 {
		m.j.failures--
		return errStoreDown
	}
	return m.EventDedupRepository.MarkProcessed(ctx, eventID, eventType, expiresAt)
}

type failingComplete struct {
	ports.IdempotencyRepository
}

func (failingComplete) Complete(context.Context, string, int, []byte, time.Time) error {
	return errStoreDown
}

func (f *fixture) buyEvent(t *testing.T) (domain.Pool, ports.OutboxRecord) {
	t.Helper()
	ctx := context.Background()
	pool := f.openPool(t, 1_000_000)
	_, err := f.service.Buy(ctx, Actor{SubjectID: trader}, BuyInput{PoolID: pool.PoolID, Amount: domain.NewAmount(1_000_000), MaxAcceptablePrice: domain.NewAmount(200_000)})
	require.NoError(t, err)
	rows, err := f.store.Outbox().FetchUnpublished(ctx, 100)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	require.Equal(t, domain.EventHypePurchased, rows[1].EventType)
	return pool, rows[1]
}

func TestTradeEventIsNotStoredWhenDedupMarkFails(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()
	pool, row := f.buyEvent(t)
	f.service.journal = &failingMarkJournal{TradeJournal: f.service.journal, failures: 1}

	require.ErrorIs(t, f.service.HandleTradeEvent(ctx, delivered(row)), errStoreDown)
	trades, err := f.service.ListTrades(ctx, pool.PoolID, 0)
	require.NoError(t, err)
	assert.Empty(t, trades)

	require.NoError(t, f.service.HandleTradeEvent(ctx, delivered(row)))
	require.NoError(t, f.service.HandleTradeEvent(ctx, delivered(row)))
	trades, err = f.service.ListTrades(ctx, pool.PoolID, 0)
	require.NoError(t, err)
	require.Len(t, trades, 1)
	assert.Equal(t, uint64(111_111), trades[0].TotalValue)
}

func TestTradeEventRedeliveredAfterDedupExpiryIsStoredOnce(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()
	pool, row := f.buyEvent(t)

	require.NoError(t, f.service.HandleTradeEvent(ctx, delivered(row)))
	f.now = f.now.Add(f.service.cfg.EventDedupTTL + time.Hour)
	require.NoError(t, f.service.HandleTradeEvent(ctx, delivered(row)))

	trades, err := f.service.ListTrades(ctx, pool.PoolID, 0)
	require.NoError(t, err)
	assert.Len(t, trades, 1)
}

func TestTradeEventRoutingMustMatchPayload(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()
	pool, row := f.buyEvent(t)

	wrongKey := delivered(row)
	wrongKey.PartitionKey = domain.PoolAddress(creator, 2)
	require.ErrorIs(t, f.service.HandleTradeEvent(ctx, wrongKey), domain.ErrInvalidEnvelope)

	wrongTopic := delivered(row)
	wrongTopic.EventType = domain.EventHypeSold
	require.ErrorIs(t, f.service.HandleTradeEvent(ctx, wrongTopic), domain.ErrInvalidEnvelope)

	var env contracts.EventEnvelope
	require.NoError(t, json.Unmarshal(row.Payload, &env))
	env.PartitionKey = domain.PoolAddress(creator, 2)
	raw, err := json.Marshal(env)
	require.NoError(t, err)
	require.ErrorIs(t, f.service.HandleTradeEvent(ctx, ports.ConsumedEvent{Payload: raw}), domain.ErrInvalidEnvelope)

	trades, err := f.service.ListTrades(ctx, pool.PoolID, 0)
	require.NoError(t, err)
	assert.Empty(t, trades)

	require.NoError(t, f.service.HandleTradeEvent(ctx, ports.ConsumedEvent{Payload: row.Payload}))
	trades, err = f.service.ListTrades(ctx, pool.PoolID, 0)
	require.NoError(t, err)
	assert.Len(t, trades, 1)
}

func TestFailedIdempotencyCompletionIsLogged(t *testing.T) {
	var logs bytes.Buffer
	previous := slog.Default()
	slog.SetDefault(slog.New(slog.NewJSONHandler(&logs, nil)))
	t.Cleanup(func() { slog.SetDefault(previous) })

	f := newFixture(t)
	ctx := context.Background()
	pool := f.openPool(t, 1_000_000)
	f.service.idempotency = failingComplete{IdempotencyRepository: f.service.idempotency}
	actor := Actor{SubjectID: trader, IdempotencyKey: "buy-1"}
	input := BuyInput{PoolID: pool.PoolID, Amount: domain.NewAmount(1_000_000), MaxAcceptablePrice: domain.NewAmount(200_000)}

	out, err := f.service.Buy(ctx, actor, input)
	require.NoError(t, err)
	assert.Equal(t, uint64(111_111), out.Trade.TotalValue)
	assert.Contains(t, logs.String(), `"operation":"idempotency_complete"`)
	assert.Contains(t, logs.String(), `"layer":"application"`)
	assert.Contains(t, logs.String(), errStoreDown.Error())

	_, err = f.service.Buy(ctx, actor, input)
	require.ErrorIs(t, err, domain.ErrIdempotencyConflict)
	assert.Equal(t, uint64(funding-111_666), f.balance(t, domain.UserAccount(trader)))
}
