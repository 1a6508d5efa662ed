package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/streadway/amqp"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/dara-tech/flirty-sub005/internal/config"
	"github.com/dara-tech/flirty-sub005/internal/consumer"
	"github.com/dara-tech/flirty-sub005/internal/provider"
	"github.com/dara-tech/flirty-sub005/internal/repository"
	"github.com/dara-tech/flirty-sub005/internal/routes"
	"github.com/dara-tech/flirty-sub005/internal/services"
	"github.com/dara-tech/flirty-sub005/pkg/breaker"
	"github.com/dara-tech/flirty-sub005/pkg/logger"
	"github.com/dara-tech/flirty-sub005/pkg/metrics"
	"github.com/dara-tech/flirty-sub005/pkg/retry"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	logr := logger.New(cfg.LogLevel, cfg.AppName)
	logr.Info("starting push service")

	db, err := gorm.Open(postgres.Open(cfg.DatabaseURL), &gorm.Config{})
	if err != nil {
		logr.Error("failed to connect database", slog.Any("error", err))
		os.Exit(1)
	}

	tokenStore, err := repository.NewTokenStore(db, cfg.TokenTable)
	if err != nil {
		logr.Error("failed to prepare token store", slog.Any("error", err))
		os.Exit(1)
	}

	var cache services.SuppressionCache
	if cfg.RedisURL != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisURL})
		redisRepo := repository.NewRedisRepository(rdb, cfg.SuppressionTTL)
		defer redisRepo.Close()
		cache = redisRepo
	}

	gateway := provider.NewFCM(cfg.FCMServerKey, cfg.FCMEndpoint, cfg.SendTimeout, logr)
	brk := breaker.New(cfg.BreakerThreshold, cfg.BreakerOpenFor)
	metricsCollector := metrics.New()
	cleanup := services.NewCleanup(tokenStore, cache, logr)

	dispatcher := services.NewDispatcher(
		tokenStore,
		cache,
		gateway,
		brk,
		cleanup,
		metricsCollector,
		logr,
		services.DispatchConfig{
			LoadTimeout:     cfg.LoadTimeout,
			SendTimeout:     cfg.SendTimeout,
			CallSendTimeout: cfg.CallSendTimeout,
			MessageRetry: retry.Config{
				MaxAttempts: cfg.MessageRetryAttempts,
				BaseDelay:   cfg.MessageRetryBase,
			},
			CallRetry: retry.Config{
				MaxAttempts: cfg.CallRetryAttempts,
				BaseDelay:   cfg.CallRetryBase,
			},
		},
	)
	facade := services.NewFacade(dispatcher)

	conn, err := amqp.Dial(cfg.RabbitURL)
	if err != nil {
		logr.Error("failed to connect rabbitmq", slog.Any("error", err))
		os.Exit(1)
	}
	defer conn.Close()

	base := consumer.NewBaseConsumer(
		conn,
		cfg.PushQueue,
		cfg.DeadLetterQueue,
		cfg.PrefetchCount,
		cfg.WorkerCount,
		logr,
	)
	events := consumer.NewEventConsumer(base, facade, logr, cfg.MaxDeliveries)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	started := time.Now()
	httpSrv := startHTTPServer(cfg.HTTPPort, facade, metricsCollector, logr, started)

	if err := events.Start(ctx); err != nil {
		logr.Error("event consumer exited", slog.Any("error", err))
	}

	shutdownHTTP(httpSrv, logr)
	logr.Info("push service stopped")
}

func startHTTPServer(port string, facade routes.Notifier, m *metrics.Metrics, logr *slog.Logger, started time.Time) *http.Server {
	if port == "" {
		port = "8082"
	}
	srv := &http.Server{
		Addr:    ":" + port,
		Handler: routes.NewRouter(facade, m, logr, started),
	}
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logr.Error("http server error", slog.Any("error", err))
		}
	}()
	return srv
}

func shutdownHTTP(srv *http.Server, logr *slog.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logr.Error("failed to shutdown http server", slog.Any("error", err))
	}
}
