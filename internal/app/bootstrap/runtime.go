package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/viralforge/trender/internal/adapters/cache"
	eventadapter "github.com/viralforge/trender/internal/adapters/events"
	httpadapter "github.com/viralforge/trender/internal/adapters/http"
	"github.com/viralforge/trender/internal/adapters/memory"
	"github.com/viralforge/trender/internal/adapters/postgres"
	"github.com/viralforge/trender/internal/adapters/security"
	"github.com/viralforge/trender/internal/application"
	"github.com/viralforge/trender/internal/ports"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

type Runtime struct {
	cfg        Config
	logger     *slog.Logger
	httpServer *http.Server
	grpcServer *grpc.Server
	grpcLis    net.Listener
	outbox     *eventadapter.OutboxWorker
	consumer   *eventadapter.ConsumerWorker
	cleanupFn  func(context.Context)
}

// ledgerStore is the storage half of the runtime: either Postgres or the
// in-memory store.
type ledgerStore struct {
	uow         ports.UnitOfWork
	reads       ports.LedgerReader
	trades      ports.TradeRepository
	journal     ports.TradeJournal
	outbox      ports.OutboxRepository
	idempotency ports.IdempotencyRepository
	closers     []io.Closer
}

func NewRuntime(ctx context.Context, configPath string) (*Runtime, error) {
	cfg, err := LoadConfig(configPath)
	if err != nil {
		return nil, err
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo})).With("service", cfg.ServiceID)
	slog.SetDefault(logger)

	store, err := openStore(ctx, logger, cfg)
	if err != nil {
		return nil, err
	}
	closers := store.closers
	closeAll := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			_ = closers[i].Close()
		}
	}

	var (
		cacheStore ports.Cache
		locker     ports.PoolLocker = memory.NewPoolLocker()
	)
	if cfg.RedisURL != "" {
		redisClient, err := cache.Connect(ctx, cfg.RedisURL)
		if err != nil {
			closeAll()
			return nil, err
		}
		closers = append(closers, redisClient)
		cacheStore = cache.NewRedisCache(redisClient)
		locker = cache.NewRedisPoolLocker(redisClient, cfg.PoolLockExpiry)
	} else {
		logger.WarnContext(ctx, "redis not configured, pool locks are process-local")
	}

	verifier, err := security.NewJWTVerifier(cfg.JWTSecret, cfg.JWTIssuer)
	if err != nil {
		closeAll()
		return nil, err
	}

	service := application.NewService(application.Dependencies{
		Config: application.Config{
			ServiceName:    cfg.ServiceID,
			PoolCacheTTL:   cfg.PoolCacheTTL,
			IdempotencyTTL: cfg.IdempotencyTTL,
			EventDedupTTL:  cfg.EventDedupTTL,
			CandleInterval: cfg.CandleInterval,
			CandleWindow:   cfg.CandleWindow,
		},
		UnitOfWork:  store.uow,
		Reads:       store.reads,
		Trades:      store.trades,
		Journal:     store.journal,
		Idempotency: store.idempotency,
		Locker:      locker,
		Cache:       cacheStore,
	})
	treasury, err := service.EnsureTreasury(ctx, cfg.TreasuryAdmin)
	if err != nil {
		closeAll()
		return nil, fmt.Errorf("initialize treasury: %w", err)
	}
	if treasury.Admin != cfg.TreasuryAdmin {
		logger.WarnContext(ctx, "treasury already initialized with a different admin", "admin", treasury.Admin)
	}

	handler := httpadapter.NewHandler(service, verifier)
	router := httpadapter.NewRouter(handler)
	httpServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	grpcServer := grpc.NewServer()
	healthSrv := health.NewServer()
	healthpb.RegisterHealthServer(grpcServer, healthSrv)
	healthSrv.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	lis, err := net.Listen("tcp", fmt.Sprintf(":%d", cfg.GRPCPort))
	if err != nil {
		closeAll()
		return nil, err
	}

	var (
		publisher       ports.EventPublisher
		consumerAdapter eventadapter.Consumer
	)
	if len(cfg.KafkaBrokers) > 0 {
		kafkaPublisher, pubErr := eventadapter.NewKafkaPublisher(cfg.KafkaBrokers, cfg.topicByEvent())
		if pubErr != nil {
			_ = lis.Close()
			closeAll()
			return nil, pubErr
		}
		closers = append(closers, kafkaPublisher)
		publisher = eventadapter.NewBreakerPublisher(logger, kafkaPublisher, eventadapter.BreakerSettings{
			Timeout:             cfg.BreakerTimeout,
			ConsecutiveFailures: cfg.BreakerFailures,
		})

		kafkaConsumer, conErr := eventadapter.NewKafkaConsumer(
			cfg.KafkaBrokers,
			cfg.KafkaConsumerGroup,
			cfg.topicByEvent(),
		)
		if conErr != nil {
			_ = lis.Close()
			closeAll()
			return nil, conErr
		}
		closers = append(closers, kafkaConsumer)
		consumerAdapter = kafkaConsumer
	} else {
		bus := eventadapter.NewLocalBus(logger)
		publisher = bus
		consumerAdapter = bus
	}
	outbox := eventadapter.NewOutboxWorker(logger, store.outbox, publisher, cfg.OutboxPollInterval, cfg.OutboxBatchSize)
	consumer := eventadapter.NewConsumerWorker(logger, consumerAdapter, service, cfg.ConsumerPollInterval)

	return &Runtime{
		cfg:        cfg,
		logger:     logger,
		httpServer: httpServer,
		grpcServer: grpcServer,
		grpcLis:    lis,
		outbox:     outbox,
		consumer:   consumer,
		cleanupFn: func(context.Context) {
			for i := len(closers) - 1; i >= 0; i-- {
				_ = closers[i].Close()
			}
		},
	}, nil
}

func openStore(ctx context.Context, logger *slog.Logger, cfg Config) (ledgerStore, error) {
	if cfg.DatabaseURL == "" {
		logger.WarnContext(ctx, "DB_URL not set, using in-memory ledger store")
		mem := memory.NewStore()
		trades := memory.NewTradeRepository()
		return ledgerStore{
			uow:         mem,
			reads:       mem,
			trades:      trades,
			journal:     memory.NewTradeJournal(trades, memory.NewEventDedupRepository()),
			outbox:      mem.Outbox(),
			idempotency: memory.NewIdempotencyRepository(),
		}, nil
	}

	db, err := postgres.Connect(ctx, cfg.DatabaseURL, cfg.MaxDBConns)
	if err != nil {
		return ledgerStore{}, err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return ledgerStore{}, err
	}
	if err := postgres.RunMigrations(ctx, db); err != nil {
		_ = sqlDB.Close()
		return ledgerStore{}, err
	}
	repos := postgres.NewRepositories(db)
	return ledgerStore{
		uow:         repos.UnitOfWork,
		reads:       repos.Reads,
		trades:      repos.Trades,
		journal:     repos.Journal,
		outbox:      repos.Outbox,
		idempotency: repos.Idempotency,
		closers:     []io.Closer{sqlDB},
	}, nil
}

func Build(ctx context.Context, configPath string) (*Runtime, error) {
	return NewRuntime(ctx, configPath)
}

func (r *Runtime) RunAPI(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()
	errCh := make(chan error, 4)

	go func() {
		if err := r.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()
	go func() {
		if err := r.grpcServer.Serve(r.grpcLis); err != nil {
			errCh <- err
		}
	}()
	if r.cfg.InProcessWorkers {
		r.startWorkers(ctx, errCh)
	}
	r.logger.InfoContext(ctx, "api started", "http_port", r.cfg.HTTPPort, "grpc_port", r.cfg.GRPCPort, "in_process_workers", r.cfg.InProcessWorkers)

	select {
	case <-ctx.Done():
	case err := <-errCh:
		r.logger.ErrorContext(ctx, "runtime failure", "error", err)
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = r.httpServer.Shutdown(shutdownCtx)
	r.grpcServer.GracefulStop()
	r.cleanupFn(shutdownCtx)
	return nil
}

func (r *Runtime) RunWorker(ctx context.Context) error {
	if r.cfg.DatabaseURL == "" {
		return errors.New("worker requires DB_URL; the in-memory store runs its workers inside the api")
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()
	_ = r.grpcLis.Close()
	errCh := make(chan error, 2)
	r.startWorkers(ctx, errCh)

	select {
	case <-ctx.Done():
		r.cleanupFn(context.Background())
		return nil
	case err := <-errCh:
		r.cleanupFn(context.Background())
		return err
	}
}

func (r *Runtime) startWorkers(ctx context.Context, errCh chan<- error) {
	go func() {
		if err := r.outbox.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			errCh <- err
		}
	}()
	go func() {
		if err := r.consumer.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			errCh <- err
		}
	}()
}
