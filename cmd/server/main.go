package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	httpAdapter "github.com/iho/txledger/internal/adapter/http"
	"github.com/iho/txledger/internal/adapter/http/handler"
	"github.com/iho/txledger/internal/adapter/http/middleware"
	"github.com/iho/txledger/internal/adapter/repository/memory"
	redisRepo "github.com/iho/txledger/internal/adapter/repository/redis"
	"github.com/iho/txledger/internal/infrastructure/auth"
	"github.com/iho/txledger/internal/infrastructure/config"
	"github.com/iho/txledger/internal/infrastructure/eventpublisher"
	"github.com/iho/txledger/internal/infrastructure/idgen"
	applogger "github.com/iho/txledger/internal/infrastructure/logger"
	"github.com/iho/txledger/internal/infrastructure/metrics"
	"github.com/iho/txledger/internal/infrastructure/redis"
	"github.com/iho/txledger/internal/usecase"
)

const (
	rateLimitCleanupInterval = 5 * time.Minute
	rateLimitMaxIdle         = 30 * time.Minute
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	logger := applogger.New(applogger.Config{
		Level:   cfg.LogLevel,
		Format:  cfg.LogFormat,
		Service: "txledger",
	})
	log.Logger = logger

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger, nil); err != nil {
		logger.Fatal().Err(err).Msg("server failed")
	}
}

// app holds the wired components of a running server.
type app struct {
	handler     http.Handler
	store       *memory.TransactionStore
	dispatcher  *eventpublisher.Dispatcher
	rateLimiter *middleware.RateLimiter
	redisClient *goredis.Client
}

func newApp(ctx context.Context, cfg *config.Config, logger zerolog.Logger, reg *prometheus.Registry) (*app, error) {
	a := &app{store: memory.NewTransactionStore()}

	var appMetrics *metrics.Metrics
	if cfg.MetricsEnabled {
		appMetrics = metrics.New(reg)
	}

	if cfg.RedisEnabled() {
		client, err := redis.NewClient(ctx, cfg.RedisURL, redis.DefaultRetryConfig(), logger)
		if err != nil {
			return nil, err
		}
		a.redisClient = client
	}

	var publisher usecase.EventPublisher
	var sink eventpublisher.Sink
	switch cfg.EventPublisher {
	case config.PublisherLog:
		sink = eventpublisher.NewLogPublisher(logger.With().Str("component", "events").Logger())
	case config.PublisherRedis:
		sink = eventpublisher.NewRedisPublisher(a.redisClient, cfg.EventChannel)
	}
	if sink != nil {
		a.dispatcher = eventpublisher.NewDispatcher(eventpublisher.Config{
			Sink:       sink,
			Logger:     logger,
			Metrics:    appMetrics,
			BufferSize: cfg.EventBufferSize,
		})
		publisher = a.dispatcher
	}

	transactionUC := usecase.NewTransactionUseCase(a.store, publisher, idgen.NewULIDGenerator(), appMetrics, logger)
	ledgerUC := usecase.NewLedgerUseCase(a.store)

	routerCfg := httpAdapter.RouterConfig{
		TransactionHandler: handler.NewTransactionHandler(transactionUC),
		LedgerHandler:      handler.NewLedgerHandler(ledgerUC),
		HealthHandler:      handler.NewHealthHandler(nil),
		Logger:             logger,
		IdempotencyTTL:     cfg.IdempotencyTTL,
	}

	if a.redisClient != nil {
		routerCfg.HealthHandler = handler.NewHealthHandler(a.redisClient)
		routerCfg.IdempotencyStore = redisRepo.NewIdempotencyStore(a.redisClient, "")
	}
	if cfg.MetricsEnabled {
		routerCfg.HTTPMetrics = middleware.NewHTTPMetrics(reg)
		routerCfg.MetricsHandler = promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg})
	}
	if cfg.RateLimitEnabled() {
		a.rateLimiter = middleware.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst)
		routerCfg.RateLimiter = a.rateLimiter
	}
	if cfg.AuthEnabled {
		routerCfg.TokenVerifier = auth.NewJWTManager(cfg.JWTSecret, cfg.JWTExpiration)
	}

	a.handler = httpAdapter.NewRouter(routerCfg)
	return a, nil
}

func (a *app) close() {
	if a.redisClient != nil {
		a.redisClient.Close()
	}
}

// run serves HTTP until ctx is cancelled. When ready is non-nil it receives
// the bound address once the listener is open.
func run(ctx context.Context, cfg *config.Config, logger zerolog.Logger, ready chan<- string) error {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	a, err := newApp(ctx, cfg, logger, reg)
	if err != nil {
		return fmt.Errorf("wire application: %w", err)
	}
	defer a.close()

	// Background workers outlive the HTTP server so late events still flush.
	workerCtx, stopWorkers := context.WithCancel(context.WithoutCancel(ctx))
	defer stopWorkers()

	dispatcherDone := make(chan struct{})
	if a.dispatcher != nil {
		go func() {
			defer close(dispatcherDone)
			_ = a.dispatcher.Start(workerCtx)
		}()
	} else {
		close(dispatcherDone)
	}
	if a.rateLimiter != nil {
		go a.rateLimiter.RunCleanup(workerCtx, rateLimitCleanupInterval, rateLimitMaxIdle)
	}

	listener, err := net.Listen("tcp", ":"+cfg.HTTPPort)
	if err != nil {
		return fmt.Errorf("listen on port %s: %w", cfg.HTTPPort, err)
	}

	server := &http.Server{
		Handler:      a.handler,
		ReadTimeout:  cfg.HTTPReadTimeout,
		WriteTimeout: cfg.HTTPWriteTimeout,
		IdleTimeout:  cfg.HTTPIdleTimeout,
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", listener.Addr().String()).Msg("starting server")
		serverErr <- server.Serve(listener)
	}()
	if ready != nil {
		ready <- listener.Addr().String()
	}

	select {
	case err := <-serverErr:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serve: %w", err)
		}
	case <-ctx.Done():
	}

	logger.Info().Msg("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTPShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	stopWorkers()
	<-dispatcherDone

	logger.Info().Msg("server stopped")
	return nil
}
