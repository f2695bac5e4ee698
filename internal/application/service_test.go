package application

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/viralforge/trender/internal/adapters/memory"
	"github.com/viralforge/trender/internal/domain"
	"github.com/viralforge/trender/internal/ports"
)

const (
	admin   = "admin"
	creator = "alice"
	trader  = "bob"
	funding = 1_000_000_000
)

type fixture struct {
	service *Service
	store   *memory.Store
	locker  *memory.PoolLocker
	now     time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		store:  memory.NewStore(),
		locker: memory.NewPoolLocker(),
		now:    time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC),
	}
	trades := memory.NewTradeRepository()
	f.service = NewService(Dependencies{
		UnitOfWork:  f.store,
		Reads:       f.store,
		Trades:      trades,
		Journal:     memory.NewTradeJournal(trades, memory.NewEventDedupRepository()),
		Idempotency: memory.NewIdempotencyRepository(),
		Locker:      f.locker,
	})
	f.service.nowFn = func() time.Time { return f.now }

	ctx := context.Background()
	_, err := f.service.EnsureTreasury(ctx, admin)
	require.NoError(t, err)
	for _, subject := range []string{creator, trader} {
		_, err := f.service.CreditCustody(ctx, Actor{SubjectID: admin}, CreditInput{Subject: subject, Amount: funding})
		require.NoError(t, err)
	}
	return f
}

func (f *fixture) balance(t *testing.T, account string) uint64 {
	t.Helper()
	b, err := f.store.Balance(context.Background(), account)
	require.NoError(t, err)
	return b
}

// delivered turns an outbox row into the event the bus would hand back.
func delivered(row ports.OutboxRecord) ports.ConsumedEvent {
	return ports.ConsumedEvent{Topic: row.EventType, EventType: row.EventType, PartitionKey: row.PartitionKey, Payload: row.Payload}
}

func (f *fixture) openPool(t *testing.T, deposit uint64) domain.Pool {
	t.Helper()
	pool, err := f.service.CreatePool(context.Background(), Actor{SubjectID: creator}, CreatePoolInput{PostID: 1, Deposit: domain.NewAmount(deposit)})
	require.NoError(t, err)
	return pool
}

func TestCreatePoolMovesDepositAndFee(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	pool := f.openPool(t, 1_000_000)

	assert.Equal(t, domain.PoolAddress(creator, 1), pool.PoolID)
	assert.Equal(t, "10000000", pool.ReservedHype.String())
	assert.Equal(t, "1000000", pool.TotalHype.String())
	assert.Equal(t, "1000000", pool.CreatorHypeBalance.String())

	assert.Equal(t, uint64(funding-1_000_000-20_000), f.balance(t, domain.UserAccount(creator)))
	assert.Equal(t, uint64(1_000_000), f.balance(t, pool.VaultAccount()))
	assert.Equal(t, uint64(20_000), f.balance(t, domain.TreasuryAccount))

	_, err := f.service.CreatePool(context.Background(), Actor{SubjectID: creator}, CreatePoolInput{PostID: 1, Deposit: domain.NewAmount(5)})
	require.ErrorIs(t, err, domain.ErrPoolExists)
}

func TestCreatePoolIsAtomicOnShortFunds(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()
	_, err := f.service.CreatePool(ctx, Actor{SubjectID: creator}, CreatePoolInput{PostID: 7, Deposit: domain.NewAmount(funding)})
	require.ErrorIs(t, err, domain.ErrInsufficientFunds)

	_, err = f.service.GetPool(ctx, domain.PoolAddress(creator, 7))
	require.ErrorIs(t, err, domain.ErrNotFound)
	assert.Equal(t, uint64(funding), f.balance(t, domain.UserAccount(creator)))
	assert.Zero(t, f.balance(t, domain.VaultAccount(domain.VaultAddress(creator, 7))))

	pending, err := f.store.Outbox().FetchUnpublished(ctx, 100)
	require.NoError(t, err)
	assert.Empty(t, pending)
}

func TestCreatePoolRequiresTreasury(t *testing.T) {
	t.Parallel()

	store := memory.NewStore()
	svc := NewService(Dependencies{UnitOfWork: store, Reads: store, Trades: memory.NewTradeRepository()})
	_, err := svc.CreatePool(context.Background(), Actor{SubjectID: creator}, CreatePoolInput{PostID: 1, Deposit: domain.NewAmount(10)})
	require.ErrorIs(t, err, domain.ErrTreasuryNotInitialized)
}

func TestBuySellRoundTrip(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()
	pool := f.openPool(t, 1_000_000)
	bob := Actor{SubjectID: trader}

	bought, err := f.service.Buy(ctx, bob, BuyInput{PoolID: pool.PoolID, Amount: domain.NewAmount(1_000_000), MaxAcceptablePrice: domain.NewAmount(200_000)})
	require.NoError(t, err)
	assert.Equal(t, uint64(111_111), bought.Trade.TotalValue)
	assert.Equal(t, uint64(555), bought.Trade.Fee)
	assert.NotEmpty(t, bought.Trade.EventID)
	require.NotNil(t, bought.Holding)
	assert.Equal(t, "1000000", bought.Holding.Amount.String())
	assert.Equal(t, "1111111", bought.Pool.ReservedBase.String())
	assert.Equal(t, "9000000", bought.Pool.ReservedHype.String())
	assert.Equal(t, "2000000", bought.Pool.TotalHype.String())
	assert.Equal(t, uint64(funding-111_666), f.balance(t, domain.UserAccount(trader)))

	sold, err := f.service.Sell(ctx, bob, SellInput{PoolID: pool.PoolID, Amount: domain.NewAmount(1_000_000)})
	require.NoError(t, err)
	assert.Equal(t, uint64(111_112), sold.Trade.TotalValue)
	assert.Equal(t, uint64(555), sold.Trade.Fee)
	assert.Equal(t, "0", sold.Holding.Amount.String())
	assert.Equal(t, "999999", sold.Pool.ReservedBase.String())
	assert.Equal(t, "1000000", sold.Pool.TotalHype.String())

	assert.Equal(t, uint64(funding-111_666+110_557), f.balance(t, domain.UserAccount(trader)))
	assert.Equal(t, uint64(20_000+555+555), f.balance(t, domain.TreasuryAccount))
	assert.Equal(t, uint64(999_999), f.balance(t, pool.VaultAccount()))

	holding, err := f.store.GetHolding(ctx, domain.HoldingAddress(trader, pool.PoolID))
	require.NoError(t, err)
	assert.True(t, holding.Amount.IsZero())
}

func TestBuyRejectsSlippageWithoutSideEffects(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()
	pool := f.openPool(t, 1_000_000)

	_, err := f.service.Buy(ctx, Actor{SubjectID: trader}, BuyInput{PoolID: pool.PoolID, Amount: domain.NewAmount(1_000_000), MaxAcceptablePrice: domain.NewAmount(111_110)})
	require.ErrorIs(t, err, domain.ErrSlippageExceeded)

	after, err := f.service.GetPool(ctx, pool.PoolID)
	require.NoError(t, err)
	assert.Equal(t, pool.ReservedBase.String(), after.ReservedBase.String())
	assert.Equal(t, uint64(funding), f.balance(t, domain.UserAccount(trader)))
}

func TestSellWithoutHolding(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()
	pool := f.openPool(t, 1_000_000)

	_, err := f.service.Sell(ctx, Actor{SubjectID: trader}, SellInput{PoolID: pool.PoolID, Amount: domain.NewAmount(1_000_000)})
	require.ErrorIs(t, err, domain.ErrInsufficientHypeBalance)

	_, err = f.service.Sell(ctx, Actor{SubjectID: trader}, SellInput{PoolID: pool.PoolID, HoldingID: "missing", Amount: domain.NewAmount(1_000_000)})
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestSellOfAnotherUsersHolding(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()
	pool := f.openPool(t, 1_000_000)
	bought, err := f.service.Buy(ctx, Actor{SubjectID: trader}, BuyInput{PoolID: pool.PoolID, Amount: domain.NewAmount(1_000_000), MaxAcceptablePrice: domain.NewAmount(200_000)})
	require.NoError(t, err)

	_, err = f.service.Sell(ctx, Actor{SubjectID: creator}, SellInput{PoolID: pool.PoolID, HoldingID: bought.Holding.HoldingID, Amount: domain.NewAmount(1_000_000)})
	require.ErrorIs(t, err, domain.ErrUnauthorized)
}

func TestCreatorRelease(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()
	pool := f.openPool(t, 1_000_000)
	before := f.balance(t, domain.UserAccount(creator))

	_, err := f.service.Release(ctx, Actor{SubjectID: trader}, ReleaseInput{PoolID: pool.PoolID, Amount: domain.NewAmount(1)})
	require.ErrorIs(t, err, domain.ErrUnauthorized)

	out, err := f.service.Release(ctx, Actor{SubjectID: creator}, ReleaseInput{PoolID: pool.PoolID, Amount: domain.NewAmount(1_000_000)})
	require.NoError(t, err)
	assert.Nil(t, out.Holding)
	assert.Equal(t, domain.SideRelease, out.Trade.Side)
	assert.Equal(t, uint64(111_111), out.Trade.TotalValue)
	assert.Zero(t, out.Trade.Fee)
	assert.True(t, out.Pool.CreatorHypeBalance.IsZero())
	assert.True(t, out.Pool.TotalHype.IsZero())
	assert.Equal(t, "888889", out.Pool.ReservedBase.String())
	assert.Equal(t, "11000000", out.Pool.ReservedHype.String())
	assert.Equal(t, before+111_111, f.balance(t, domain.UserAccount(creator)))
	assert.Equal(t, uint64(888_889), f.balance(t, pool.VaultAccount()))

	_, err = f.service.Release(ctx, Actor{SubjectID: creator}, ReleaseInput{PoolID: pool.PoolID, Amount: domain.NewAmount(1)})
	require.ErrorIs(t, err, domain.ErrInsufficientHypeBalance)
}

func TestBusyPoolIsRejected(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()
	pool := f.openPool(t, 1_000_000)

	unlock, err := f.locker.TryLock(ctx, pool.PoolID)
	require.NoError(t, err)
	_, err = f.service.Buy(ctx, Actor{SubjectID: trader}, BuyInput{PoolID: pool.PoolID, Amount: domain.NewAmount(1_000_000), MaxAcceptablePrice: domain.NewAmount(200_000)})
	require.ErrorIs(t, err, domain.ErrPoolBusy)
	unlock()

	_, err = f.service.Buy(ctx, Actor{SubjectID: trader}, BuyInput{PoolID: pool.PoolID, Amount: domain.NewAmount(1_000_000), MaxAcceptablePrice: domain.NewAmount(200_000)})
	require.NoError(t, err)
}

func TestIdempotentBuyReplaysResult(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()
	pool := f.openPool(t, 1_000_000)
	actor := Actor{SubjectID: trader, IdempotencyKey: "buy-1"}
	input := BuyInput{PoolID: pool.PoolID, Amount: domain.NewAmount(1_000_000), MaxAcceptablePrice: domain.NewAmount(200_000)}

	first, err := f.service.Buy(ctx, actor, input)
	require.NoError(t, err)
	second, err := f.service.Buy(ctx, actor, input)
	require.NoError(t, err)
	assert.Equal(t, first.Trade.EventID, second.Trade.EventID)
	assert.Equal(t, first.Pool.ReservedBase.String(), second.Pool.ReservedBase.String())
	assert.Equal(t, uint64(funding-111_666), f.balance(t, domain.UserAccount(trader)))

	input.Amount = domain.NewAmount(2_000_000)
	_, err = f.service.Buy(ctx, actor, input)
	require.ErrorIs(t, err, domain.ErrIdempotencyConflict)
}

func TestTreasuryWithdraw(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()
	f.openPool(t, 1_000_000)

	_, err := f.service.WithdrawTreasury(ctx, Actor{SubjectID: trader}, WithdrawInput{Recipient: trader, Amount: 1})
	require.ErrorIs(t, err, domain.ErrUnauthorized)

	_, err = f.service.WithdrawTreasury(ctx, Actor{SubjectID: admin}, WithdrawInput{Recipient: "ops", Amount: 20_001})
	require.ErrorIs(t, err, domain.ErrInsufficientFunds)

	out, err := f.service.WithdrawTreasury(ctx, Actor{SubjectID: admin}, WithdrawInput{Recipient: "ops", Amount: 15_000})
	require.NoError(t, err)
	assert.Equal(t, uint64(5_000), out.TreasuryBalance)
	assert.Equal(t, uint64(15_000), f.balance(t, domain.UserAccount("ops")))

	view, err := f.service.GetTreasury(ctx)
	require.NoError(t, err)
	assert.Equal(t, admin, view.Treasury.Admin)
	assert.Equal(t, uint64(5_000), view.Balance)

	again, err := f.service.EnsureTreasury(ctx, "someone-else")
	require.NoError(t, err)
	assert.Equal(t, admin, again.Admin)
}

func TestCreditCustodyIsAdminOnly(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	_, err := f.service.CreditCustody(context.Background(), Actor{SubjectID: trader}, CreditInput{Subject: trader, Amount: 10})
	require.ErrorIs(t, err, domain.ErrForbidden)
}

func TestTradeEventsFeedHistoryAndCandles(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()
	pool := f.openPool(t, 1_000_000)
	bob := Actor{SubjectID: trader}

	_, err := f.service.Buy(ctx, bob, BuyInput{PoolID: pool.PoolID, Amount: domain.NewAmount(1_000_000), MaxAcceptablePrice: domain.NewAmount(200_000)})
	require.NoError(t, err)
	f.now = f.now.Add(10 * time.Minute)
	_, err = f.service.Sell(ctx, bob, SellInput{PoolID: pool.PoolID, Amount: domain.NewAmount(1_000_000)})
	require.NoError(t, err)

	rows, err := f.store.Outbox().FetchUnpublished(ctx, 100)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, domain.EventPoolCreated, rows[0].EventType)
	require.ErrorIs(t, f.service.HandleTradeEvent(ctx, delivered(rows[0])), domain.ErrUnsupportedEventType)

	for _, row := range rows[1:] {
		require.NoError(t, f.service.HandleTradeEvent(ctx, delivered(row)))
		require.NoError(t, f.service.HandleTradeEvent(ctx, delivered(row)))
	}

	trades, err := f.service.ListTrades(ctx, pool.PoolID, 0)
	require.NoError(t, err)
	require.Len(t, trades, 2)
	assert.Equal(t, domain.SideSell, trades[0].Side)
	assert.Equal(t, domain.SideBuy, trades[1].Side)

	candles, err := f.service.Candles(ctx, CandlesInput{PoolID: pool.PoolID})
	require.NoError(t, err)
	require.Len(t, candles, 2)
	assert.Equal(t, 1, candles[0].Trades)

	_, err = f.service.Candles(ctx, CandlesInput{PoolID: pool.PoolID, Interval: time.Second})
	require.ErrorIs(t, err, domain.ErrInvalidInput)

	require.ErrorIs(t, f.service.HandleTradeEvent(ctx, ports.ConsumedEvent{Payload: []byte(`{"event_id":""}`)}), domain.ErrInvalidEnvelope)
}

func TestQuoteAndListings(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()
	pool := f.openPool(t, 1_000_000)

	q, err := f.service.Quote(ctx, pool.PoolID, domain.SideBuy, domain.NewAmount(1_000_000))
	require.NoError(t, err)
	assert.Equal(t, "111111", q.Value.String())
	assert.Equal(t, "111666", q.Net.String())

	_, err = f.service.Quote(ctx, pool.PoolID, domain.TradeSide("swap"), domain.NewAmount(1_000_000))
	require.ErrorIs(t, err, domain.ErrInvalidInput)

	pools, err := f.service.ListPools(ctx, ListPoolsInput{Sort: "trending"})
	require.NoError(t, err)
	require.Len(t, pools, 1)

	_, err = f.service.ListPools(ctx, ListPoolsInput{Sort: "oldest"})
	require.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = f.service.Buy(ctx, Actor{SubjectID: trader}, BuyInput{PoolID: pool.PoolID, Amount: domain.NewAmount(1_000_000), MaxAcceptablePrice: domain.NewAmount(200_000)})
	require.NoError(t, err)
	holdings, err := f.service.MyHoldings(ctx, Actor{SubjectID: trader})
	require.NoError(t, err)
	require.Len(t, holdings, 1)
	assert.Equal(t, pool.PoolID, holdings[0].PoolID)
}
