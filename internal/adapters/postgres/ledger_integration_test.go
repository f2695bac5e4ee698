//go:build integration

package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"github.com/viralforge/trender/internal/application"
	"github.com/viralforge/trender/internal/domain"
	"github.com/viralforge/trender/internal/ports"
	"gorm.io/gorm"
)

func setupDatabase(t *testing.T) *gorm.DB {
	t.Helper()
	ctx := context.Background()

	container, err := tcpostgres.Run(ctx,
		"postgres:16-alpine",
		tcpostgres.WithDatabase("trender"),
		tcpostgres.WithUsername("test"),
		tcpostgres.WithPassword("test"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	require.NoError(t, err)
	t.Cleanup(func() { require.NoError(t, container.Terminate(ctx)) })

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)
	db, err := Connect(ctx, dsn, 8)
	require.NoError(t, err)
	require.NoError(t, RunMigrations(ctx, db))
	require.NoError(t, RunMigrations(ctx, db))
	return db
}

func TestIntegration_LedgerLifecycle(t *testing.T) {
	db := setupDatabase(t)
	ctx := context.Background()
	repos := NewRepositories(db)
	svc := application.NewService(application.Dependencies{
		UnitOfWork:  repos.UnitOfWork,
		Reads:       repos.Reads,
		Trades:      repos.Trades,
		Journal:     repos.Journal,
		Idempotency: repos.Idempotency,
	})

	_, err := svc.EnsureTreasury(ctx, "admin")
	require.NoError(t, err)
	for _, subject := range []string{"alice", "bob"} {
		_, err := svc.CreditCustody(ctx, application.Actor{SubjectID: "admin"}, application.CreditInput{Subject: subject, Amount: 1_000_000_000})
		require.NoError(t, err)
	}

	pool, err := svc.CreatePool(ctx, application.Actor{SubjectID: "alice"}, application.CreatePoolInput{
		PostID: 42, Deposit: domain.NewAmount(1_000_000), Title: "launch", Content: "first pool",
	})
	require.NoError(t, err)
	_, err = svc.CreatePool(ctx, application.Actor{SubjectID: "alice"}, application.CreatePoolInput{PostID: 42, Deposit: domain.NewAmount(1_000_000)})
	require.ErrorIs(t, err, domain.ErrPoolExists)

	bought, err := svc.Buy(ctx, application.Actor{SubjectID: "bob", IdempotencyKey: "b1"}, application.BuyInput{
		PoolID: pool.PoolID, Amount: domain.NewAmount(1_000_000), MaxAcceptablePrice: domain.NewAmount(200_000),
	})
	require.NoError(t, err)
	assert.Equal(t, uint64(111_111), bought.Trade.TotalValue)

	stored, err := repos.Reads.GetPool(ctx, pool.PoolID)
	require.NoError(t, err)
	assert.Equal(t, "1111111", stored.ReservedBase.String())
	assert.Equal(t, "9000000", stored.ReservedHype.String())

	vault, err := repos.Reads.Balance(ctx, pool.VaultAccount())
	require.NoError(t, err)
	assert.Equal(t, uint64(1_111_111), vault)
	treasury, err := repos.Reads.Balance(ctx, domain.TreasuryAccount)
	require.NoError(t, err)
	assert.Equal(t, uint64(20_555), treasury)

	_, err = svc.WithdrawTreasury(ctx, application.Actor{SubjectID: "admin"}, application.WithdrawInput{Recipient: "ops", Amount: 30_000})
	require.ErrorIs(t, err, domain.ErrInsufficientFunds)
	treasury, err = repos.Reads.Balance(ctx, domain.TreasuryAccount)
	require.NoError(t, err)
	assert.Equal(t, uint64(20_555), treasury)

	pending, err := repos.Outbox.FetchUnpublished(ctx, 10)
	require.NoError(t, err)
	require.Len(t, pending, 2)
	assert.Equal(t, domain.EventPoolCreated, pending[0].EventType)
	assert.Equal(t, domain.EventHypePurchased, pending[1].EventType)

	delivery := ports.ConsumedEvent{EventType: pending[1].EventType, PartitionKey: pending[1].PartitionKey, Payload: pending[1].Payload}
	require.NoError(t, svc.HandleTradeEvent(ctx, delivery))
	require.NoError(t, svc.HandleTradeEvent(ctx, delivery))
	trades, err := svc.ListTrades(ctx, pool.PoolID, 10)
	require.NoError(t, err)
	require.Len(t, trades, 1)

	post, err := svc.CreatePost(ctx, application.Actor{SubjectID: "alice"}, application.CreatePostInput{Title: "next", Content: "after the pool"})
	require.NoError(t, err)
	assert.Equal(t, uint64(43), post.PostID)
	posts, err := svc.ListPosts(ctx, application.ListPostsInput{Creator: "alice"})
	require.NoError(t, err)
	require.Len(t, posts, 2)
	views, err := svc.PoolViews(ctx, []domain.Pool{pool})
	require.NoError(t, err)
	require.NotNil(t, views[0].Post)
	assert.Equal(t, "launch", views[0].Post.Title)
}

func TestIntegration_TradeJournalRollsBackTogether(t *testing.T) {
	db := setupDatabase(t)
	ctx := context.Background()
	repos := NewRepositories(db)
	now := time.Now().UTC()
	trade := domain.Trade{
		EventID: "0b8e7c52-5f0e-4c1a-9d43-2f7a3f9b6e10", Side: domain.SideBuy,
		PoolID: domain.PoolAddress("alice", 1), PostID: 1, User: "bob", Amount: 1_000_000, OccurredAt: now,
	}

	boom := errors.New("boom")
	err := repos.Journal.WithinTx(ctx, func(ctx context.Context, tx ports.TradeJournalTx) error {
		require.NoError(t, tx.Trades().Insert(ctx, trade))
		require.NoError(t, tx.EventDedup().MarkProcessed(ctx, trade.EventID, domain.EventHypePurchased, now.Add(time.Hour)))
		return boom
	})
	require.ErrorIs(t, err, boom)
	trades, err := repos.Trades.ListByPool(ctx, trade.PoolID, 10)
	require.NoError(t, err)
	assert.Empty(t, trades)

	require.NoError(t, repos.Journal.WithinTx(ctx, func(ctx context.Context, tx ports.TradeJournalTx) error {
		if err := tx.EventDedup().MarkProcessed(ctx, trade.EventID, domain.EventHypePurchased, now.Add(-time.Minute)); err != nil {
			return err
		}
		return tx.EventDedup().MarkProcessed(ctx, trade.EventID, domain.EventHypePurchased, now.Add(time.Hour))
	}))
	require.NoError(t, repos.Journal.WithinTx(ctx, func(ctx context.Context, tx ports.TradeJournalTx) error {
		dup, err := tx.EventDedup().IsDuplicate(ctx, trade.EventID, now)
		assert.True(t, dup)
		return err
	}))
}

func TestIntegration_MigrationsVerifyLedgerConstraints(t *testing.T) {
	db := setupDatabase(t)
	ctx := context.Background()

	var applied []string
	require.NoError(t, db.Model(&schemaMigrationModel{}).Order("name").Pluck("name", &applied).Error)
	assert.Equal(t, []string{"0001_init.sql", "0002_posts.sql"}, applied)

	require.NoError(t, db.Exec("ALTER TABLE custody_accounts DROP CONSTRAINT custody_balance_range").Error)
	err := RunMigrations(ctx, db)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "custody_balance_range")
}

func TestIntegration_PoolRowLockIsNoWait(t *testing.T) {
	db := setupDatabase(t)
	ctx := context.Background()
	repos := NewRepositories(db)
	pool := domain.Pool{
		PoolID:             domain.PoolAddress("alice", 1),
		Creator:            "alice",
		PostID:             1,
		VaultID:            domain.VaultAddress("alice", 1),
		ReservedBase:       domain.NewAmount(10),
		ReservedHype:       domain.NewAmount(100),
		TotalHype:          domain.NewAmount(10),
		CreatorHypeBalance: domain.NewAmount(10),
		CreatedAt:          time.Now().UTC(),
		UpdatedAt:          time.Now().UTC(),
	}
	require.NoError(t, repos.UnitOfWork.WithinTx(ctx, func(ctx context.Context, tx ports.LedgerTx) error {
		return tx.Pools().Create(ctx, pool)
	}))

	err := repos.UnitOfWork.WithinTx(ctx, func(ctx context.Context, tx ports.LedgerTx) error {
		if _, err := tx.Pools().GetForUpdate(ctx, pool.PoolID); err != nil {
			return err
		}
		return repos.UnitOfWork.WithinTx(ctx, func(ctx context.Context, other ports.LedgerTx) error {
			_, err := other.Pools().GetForUpdate(ctx, pool.PoolID)
			return err
		})
	})
	require.ErrorIs(t, err, domain.ErrPoolBusy)
}
