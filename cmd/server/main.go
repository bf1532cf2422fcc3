package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	httpAdapter "github.com/iho/bankledger/internal/adapter/http"
	"github.com/iho/bankledger/internal/adapter/http/handler"
	"github.com/iho/bankledger/internal/adapter/http/middleware"
	"github.com/iho/bankledger/internal/adapter/repository"
	"github.com/iho/bankledger/internal/adapter/repository/memory"
	postgresRepo "github.com/iho/bankledger/internal/adapter/repository/postgres"
	redisRepo "github.com/iho/bankledger/internal/adapter/repository/redis"
	"github.com/iho/bankledger/internal/infrastructure/config"
	"github.com/iho/bankledger/internal/infrastructure/logger"
	"github.com/iho/bankledger/internal/infrastructure/metrics"
	"github.com/iho/bankledger/internal/infrastructure/postgres"
	"github.com/iho/bankledger/internal/infrastructure/redis"
	"github.com/iho/bankledger/internal/usecase"
)

const limiterIdleTTL = time.Hour

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(logger.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(log.WithContext(ctx), cfg, log); err != nil {
		log.Error().Err(err).Msg("server exited with error")
		os.Exit(1)
	}
}

// store bundles the ports one backend provides.
type store struct {
	accounts usecase.AccountRepository
	ledger   usecase.LedgerRepository
	tx       usecase.TransactionManager
	pinger   handler.Pinger
	close    func()
}

func openStore(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*store, error) {
	switch cfg.StoreBackend {
	case config.StoreMemory:
		s := memory.NewStore()
		return &store{accounts: s, ledger: s, tx: s, pinger: s, close: func() {}}, nil

	case config.StorePostgres:
		connectCtx, cancel := context.WithTimeout(ctx, cfg.DatabaseTimeout)
		defer cancel()

		if cfg.RunMigrations {
			if err := postgres.RunMigrations(connectCtx, cfg.DatabaseURL, cfg.MigrationsPath); err != nil {
				return nil, err
			}
		}

		pool, err := postgres.NewPool(connectCtx, cfg.DatabaseURL, cfg.DatabaseMaxConns, cfg.DatabaseMinConns)
		if err != nil {
			return nil, err
		}
		log.Info().Msg("connected to postgres")

		accounts := postgresRepo.NewAccountRepository(pool)
		s := &store{
			accounts: accounts,
			ledger:   postgresRepo.NewLedgerRepository(pool),
			tx:       postgresRepo.NewTxManager(pool),
			pinger:   accounts,
			close:    pool.Close,
		}

		if cfg.SummaryCacheTTL > 0 {
			client, err := redis.NewClientWithConfig(ctx, redisConfig(cfg))
			if err != nil {
				pool.Close()
				return nil, fmt.Errorf("summary cache: %w", err)
			}
			s.ledger = redisRepo.NewSummaryCache(client, s.ledger, cfg.SummaryCacheTTL)
			s.close = func() {
				_ = client.Close()
				pool.Close()
			}
			log.Info().Dur("ttl", cfg.SummaryCacheTTL).Msg("ledger summary cached in redis")
		}
		return s, nil

	case config.StoreRedis:
		client, err := redis.NewClientWithConfig(ctx, redisConfig(cfg))
		if err != nil {
			return nil, err
		}
		log.Info().Msg("connected to redis")

		accounts := redisRepo.NewAccountRepository(client)
		s := &store{
			accounts: accounts,
			ledger:   accounts,
			tx:       redisRepo.NewTxManager(client),
			pinger:   accounts,
			close:    func() { _ = client.Close() },
		}

		if cfg.SummaryCacheTTL > 0 {
			s.ledger = redisRepo.NewSummaryCache(client, accounts, cfg.SummaryCacheTTL)
		}
		return s, nil

	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.StoreBackend)
	}
}

func redisConfig(cfg *config.Config) redis.ClientConfig {
	return redis.ClientConfig{
		URL:         cfg.RedisURL,
		PoolSize:    cfg.RedisPoolSize,
		DialTimeout: cfg.RedisDialTimeout,
	}
}

func newRouter(cfg *config.Config, s *store, log zerolog.Logger, reg prometheus.Registerer, gatherer prometheus.Gatherer) (http.Handler, *middleware.RateLimiter) {
	m := metrics.NewWithRegisterer(reg)

	// Initialize use cases
	accountUC := usecase.NewAccountUseCase(s.accounts, repository.NewULIDGenerator(), cfg.MinInitialBalance, m)
	ledgerUC := usecase.NewLedgerUseCase(s.tx, s.accounts, s.ledger, repository.NewRetrier(cfg.RetryMaxAttempts), m)

	var limiter *middleware.RateLimiter
	if cfg.RateLimitRPS > 0 {
		limiter = middleware.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst).OnReject(m.RateLimitHits.Inc)
	}

	router := httpAdapter.NewRouter(httpAdapter.RouterConfig{
		AccountHandler: handler.NewAccountHandler(accountUC),
		LedgerHandler:  handler.NewLedgerHandler(ledgerUC),
		HealthHandler:  handler.NewHealthHandler(s.pinger, cfg.StoreBackend),
		Logger:         log,
		Metrics:        m,
		Gatherer:       gatherer,
		RateLimiter:    limiter,
	})

	return router, limiter
}

func run(ctx context.Context, cfg *config.Config, log zerolog.Logger) error {
	s, err := openStore(ctx, cfg, log)
	if err != nil {
		return fmt.Errorf("open %s store: %w", cfg.StoreBackend, err)
	}
	defer s.close()

	router, limiter := newRouter(cfg, s, log, prometheus.DefaultRegisterer, prometheus.DefaultGatherer)
	if limiter != nil {
		go sweepLimiters(ctx, limiter)
	}

	// Create server
	server := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.HTTPPort),
		Handler:      router,
		ReadTimeout:  cfg.HTTPReadTimeout,
		WriteTimeout: cfg.HTTPWriteTimeout,
		IdleTimeout:  cfg.HTTPIdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("port", cfg.HTTPPort).Str("store", cfg.StoreBackend).Msg("starting server")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down server...")

	// Graceful shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTPShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	log.Info().Msg("server stopped")
	return nil
}

func sweepLimiters(ctx context.Context, limiter *middleware.RateLimiter) {
	ticker := time.NewTicker(limiterIdleTTL)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			removed := limiter.CleanupLimiters(limiterIdleTTL)
			zerolog.Ctx(ctx).Debug().Int("removed", removed).Msg("rate limiter sweep")
		}
	}
}
