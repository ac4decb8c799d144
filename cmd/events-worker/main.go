package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"ratehub/database"
	"ratehub/internal/audit"
	"ratehub/internal/cache"
	"ratehub/internal/config"
	"ratehub/internal/events"
	"ratehub/internal/listeners"
	"ratehub/internal/metrics"
	"ratehub/internal/moderation"
	"ratehub/internal/notify"
	"ratehub/internal/queue"
	"ratehub/internal/repository"
	"ratehub/pkg/logger"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("could not load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid config: %v", err)
	}

	zlog, err := logger.New(logger.Config{
		Environment: cfg.GoEnv,
		LogLevel:    cfg.LogLevel,
		LogFormat:   cfg.LogFormat,
		ServiceName: "events-worker",
	})
	if err != nil {
		log.Fatalf("could not build logger: %v", err)
	}
	defer zlog.Sync()

	db, err := database.OpenGorm(cfg.DatabaseURL)
	if err != nil {
		zlog.Fatal("failed to connect to database", zap.Error(err))
	}
	zlog.Info("database connected")

	invalidator, err := cache.NewInvalidator(cfg.RedisAddr, cfg.RedisPassword, zlog)
	if err != nil {
		zlog.Fatal("failed to connect to redis", zap.Error(err))
	}
	defer invalidator.Close()

	// Repositories
	ratingRepo := repository.NewRatingRepository(db)
	providerRepo := repository.NewProviderRepository(db)
	userRepo := repository.NewUserRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)
	auditRepo := repository.NewAuditRepository(db)

	// Pipeline components
	classifier := moderation.NewClassifier(moderation.Config{
		Denylist:          cfg.ModerationDenylist,
		ShoutingMinLen:    cfg.ShoutingMinLen,
		RepeatRunLen:      cfg.RepeatRunLen,
		RejectedThreshold: int64(cfg.RejectedThreshold),
		SpamWindow:        cfg.SpamWindow,
		SpamMaxInWindow:   int64(cfg.SpamMaxInWindow),
	}, ratingRepo)
	aggregator := metrics.NewAggregator(ratingRepo)
	router := notify.NewRouter(
		notify.NewDBNotifier(notificationRepo),
		notify.NewDirectory(providerRepo, userRepo),
		zlog,
	)
	auditLogger := audit.NewLogger(auditRepo, zlog)

	dispatcher := events.NewDispatcher(cfg.ListenerTimeout, auditLogger, zlog)
	dispatcher.Register(listeners.NewStatusListener(classifier, ratingRepo, invalidator, zlog))
	dispatcher.Register(listeners.NewMetricsListener(aggregator, providerRepo, invalidator, zlog))
	dispatcher.Register(listeners.NewNotificationListener(router, zlog))

	pool := queue.NewWorkerPool(cfg.WorkerCount, zlog)
	pool.Start()

	consumer := queue.NewConsumer(queue.ConsumerConfig{
		URL:           cfg.AMQPURL,
		Queue:         cfg.EventQueue,
		ConsumerTag:   cfg.ConsumerTag,
		Prefetch:      cfg.Prefetch,
		RatePerSecond: cfg.RatePerSecond,
	}, dispatcher, pool, zlog)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		zlog.Info("shutdown signal received")
		cancel()
	}()

	if err := consumer.Run(ctx); err != nil {
		zlog.Error("consumer stopped", zap.Error(err))
	}
	consumer.Close()
	pool.Shutdown()
	zlog.Info("events worker stopped")
}
