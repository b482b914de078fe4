package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	httpAdapter "github.com/iho/voucherledger/internal/adapter/http"
	"github.com/iho/voucherledger/internal/adapter/http/handler"
	apimiddleware "github.com/iho/voucherledger/internal/adapter/http/middleware"
	"github.com/iho/voucherledger/internal/adapter/repository/memory"
	postgresRepo "github.com/iho/voucherledger/internal/adapter/repository/postgres"
	redisRepo "github.com/iho/voucherledger/internal/adapter/repository/redis"
	"github.com/iho/voucherledger/internal/infrastructure/config"
	"github.com/iho/voucherledger/internal/infrastructure/logger"
	"github.com/iho/voucherledger/internal/infrastructure/metrics"
	"github.com/iho/voucherledger/internal/infrastructure/postgres"
	"github.com/iho/voucherledger/internal/infrastructure/redis"
	"github.com/iho/voucherledger/internal/usecase"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	logg := logger.New(logger.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})
	logger.Install(logg)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logg); err != nil {
		logg.Fatal().Err(err).Msg("server failed")
	}
}

func run(ctx context.Context, cfg *config.Config, logg zerolog.Logger) error {
	app, err := newApplication(ctx, cfg, logg, prometheus.NewRegistry())
	if err != nil {
		return err
	}
	defer app.Close()

	// Create server
	server := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.HTTPPort),
		Handler:      app.Handler,
		ReadTimeout:  cfg.HTTPReadTimeout,
		WriteTimeout: cfg.HTTPWriteTimeout,
		IdleTimeout:  cfg.HTTPIdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logg.Info().Str("port", cfg.HTTPPort).Str("store", cfg.Store).Msg("starting server")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	if app.RateLimiter != nil {
		go app.sweepLimiters(ctx)
	}

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logg.Info().Msg("shutting down server...")

	// Graceful shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTPShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	logg.Info().Msg("server stopped")
	return nil
}

// application is the wired HTTP service and the resources it holds.
type application struct {
	Handler     http.Handler
	RateLimiter *apimiddleware.RateLimiter
	closers     []func()
}

// Close releases pools and clients in reverse order of acquisition.
func (a *application) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
}

func (a *application) sweepLimiters(ctx context.Context) {
	ticker := time.NewTicker(10 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			a.RateLimiter.CleanupLimiters(time.Hour)
		}
	}
}

// repositories groups the ports of one store backend.
type repositories struct {
	txManager usecase.TransactionManager
	retrier   usecase.Retrier
	companies usecase.CompanyRepository
	vehicles  usecase.VehicleRepository
	vouchers  usecase.VoucherRepository
	audit     usecase.AuditRepository
}

func newApplication(ctx context.Context, cfg *config.Config, logg zerolog.Logger, reg *prometheus.Registry) (*application, error) {
	app := &application{}
	checks := map[string]handler.Pinger{}

	var repos repositories
	switch cfg.Store {
	case config.StoreMemory:
		store := memory.NewStore()
		repos = repositories{
			txManager: store.TxManager(),
			companies: store.Companies(),
			vehicles:  store.Vehicles(),
			vouchers:  store.Vouchers(),
			audit:     store.Audit(),
		}
		logg.Warn().Msg("using in-memory store; data is lost on restart")

	default:
		if cfg.RunMigrations {
			if err := postgres.RunMigrations(cfg.DatabaseURL, cfg.MigrationsPath, logger.WithComponent(logg, "migrate")); err != nil {
				return nil, err
			}
		}

		pool, err := postgres.NewPoolWithConfig(ctx, postgres.PoolConfig{
			DatabaseURL:    cfg.DatabaseURL,
			MaxConns:       cfg.DatabaseMaxConns,
			MinConns:       cfg.DatabaseMinConns,
			ConnectTimeout: cfg.DatabaseTimeout,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to connect to postgres: %w", err)
		}
		app.closers = append(app.closers, pool.Close)
		checks["postgres"] = pool
		logg.Info().Msg("connected to postgres")

		repos = repositories{
			txManager: postgresRepo.NewTxManager(pool),
			retrier:   postgresRepo.NewRetrier(postgresRepo.RetrierConfig{MaxRetries: uint64(cfg.TransactionMaxRetries)}),
			companies: postgresRepo.NewCompanyRepository(pool),
			vehicles:  postgresRepo.NewVehicleRepository(pool),
			vouchers:  postgresRepo.NewVoucherRepository(pool),
			audit:     postgresRepo.NewAuditRepository(pool),
		}
	}

	var idempotencyStore usecase.IdempotencyStore
	if cfg.RedisURL != "" {
		redisClient, err := redis.NewClient(ctx, redis.Config{URL: cfg.RedisURL, CommandTimeout: cfg.RedisTimeout})
		if err != nil {
			app.Close()
			return nil, fmt.Errorf("failed to connect to redis: %w", err)
		}
		app.closers = append(app.closers, func() { redisClient.Close() })
		checks["redis"] = handler.PingerFunc(func(ctx context.Context) error {
			return redisClient.Ping(ctx).Err()
		})
		idempotencyStore = redisRepo.NewIdempotencyStore(redisClient)
		logg.Info().Msg("connected to redis")
	}

	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	idGen := postgresRepo.NewULIDGenerator()
	uow := usecase.NewUnitOfWork(repos.txManager, repos.retrier, cfg.TransactionTimeout)

	// Initialize use cases
	sequencerUC := usecase.NewSequencerUseCase(uow, repos.companies, repos.vouchers)
	companyUC := usecase.NewCompanyUseCase(repos.companies, idGen)
	vehicleUC := usecase.NewVehicleUseCase(uow, repos.companies, repos.vehicles, repos.vouchers, repos.audit, idGen)
	voucherUC := usecase.NewVoucherUseCase(uow, sequencerUC, repos.companies, repos.vehicles, repos.vouchers, repos.audit, idGen, m)
	balanceUC := usecase.NewBalanceUseCase(repos.companies, repos.vehicles, repos.vouchers, m)
	mergeUC := usecase.NewMergeUseCase(uow, repos.vehicles, repos.vouchers, repos.audit, m)
	reconUC := usecase.NewReconciliationUseCase(repos.vehicles, repos.vouchers, m)
	recoveryUC := usecase.NewRecoveryUseCase(repos.companies, repos.vehicles, repos.vouchers, usecase.SystemClock{}, m)

	routerCfg := httpAdapter.RouterConfig{
		CompanyHandler:   handler.NewCompanyHandler(companyUC, sequencerUC),
		VehicleHandler:   handler.NewVehicleHandler(vehicleUC),
		VoucherHandler:   handler.NewVoucherHandler(voucherUC),
		ReportHandler:    handler.NewReportHandler(balanceUC, reconUC, recoveryUC, cfg.RecoveryMinDays),
		MergeHandler:     handler.NewMergeHandler(mergeUC),
		HealthHandler:    handler.NewHealthHandler(checks),
		Logger:           logger.WithComponent(logg, "http"),
		Metrics:          m,
		MetricsHandler:   promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}),
		IdempotencyStore: idempotencyStore,
		IdempotencyTTL:   cfg.IdempotencyTTL,
	}

	if cfg.RateLimitRPS > 0 {
		app.RateLimiter = apimiddleware.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst).
			OnReject(m.RateLimitHits.Inc)
		routerCfg.RateLimiter = app.RateLimiter
	}

	app.Handler = httpAdapter.NewRouter(routerCfg)

	return app, nil
}
