package main

import (
	"context"
	"errors"
	"log"
	"os/signal"
	"syscall"

	"github.com/juju/clock"
	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"changewatch/triggerd/internal/config"
	"changewatch/triggerd/internal/model"
	"changewatch/triggerd/internal/producer"
	"changewatch/triggerd/internal/repository"
	"changewatch/triggerd/internal/scheduler"
	"changewatch/triggerd/internal/service"
)

func main() {
	configPath := pflag.StringP("config", "c", "config.yaml", "path to the YAML configuration file")
	pflag.Parse()

	// 1. Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	// 2. Initialize logger
	logger, err := newLogger(cfg.Log)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync()

	// 3. Initialize state store (memory, Redis or Postgres)
	var stateStore repository.StateStore
	switch cfg.State.Backend {
	case "redis":
		redisClient, err := config.NewRedisClient(cfg.Database.Redis)
		if err != nil {
			logger.Fatal("failed to connect to redis", zap.Error(err))
		}
		defer redisClient.Close()
		stateStore = repository.NewRedisStateStore(redisClient)
		logger.Info("using Redis state store")
	case "postgres":
		db, err := config.NewPostgresDB(cfg.Database.Postgres)
		if err != nil {
			logger.Fatal("failed to connect to postgres", zap.Error(err))
		}
		if cfg.Database.Postgres.AutoMigrate {
			if err := model.AutoMigrate(db); err != nil {
				logger.Fatal("failed to auto-migrate", zap.Error(err))
			}
			logger.Info("database migration completed")
		}
		stateStore = repository.NewPGStateStore(db)
		logger.Info("using Postgres state store")
	case "memory":
		stateStore = repository.NewMemoryStateStore()
		logger.Info("using in-memory state store")
	default:
		logger.Fatal("unknown state backend", zap.String("backend", cfg.State.Backend))
	}
	stateStore = repository.WithPrefix(stateStore, cfg.State.KeyPrefix)

	// 4. Initialize notifier
	triggerPath, err := service.TriggerPath(cfg.Trigger)
	if err != nil {
		logger.Fatal("invalid trigger path", zap.Error(err))
	}
	notifier, err := service.NewExecNotifier(cfg.Trigger, logger)
	if err != nil {
		logger.Fatal("failed to init notifier", zap.Error(err))
	}
	logger.Debug("will call trigger when a watched source changes", zap.String("path", triggerPath))

	// 5. Initialize detector and sources
	detector := service.NewChangeDetector(stateStore, notifier, logger)
	client := producer.NewClient(
		producer.WithTimeout(cfg.HTTP.Timeout),
		producer.WithUserAgent(cfg.HTTP.UserAgent),
		producer.WithMaxBodyBytes(cfg.HTTP.MaxBodyBytes),
	)
	sources := service.BuildSources(cfg.Sources, client, detector)
	if len(sources) == 0 {
		logger.Warn("no sources configured")
	}
	checks := make([]scheduler.Check, 0, len(sources))
	for _, src := range sources {
		logger.Info("watching source", zap.String("key", src.Key()), zap.String("name", src.Name()))
		checks = append(checks, src)
	}

	// 6. Initialize scheduler
	sched, err := scheduler.New(scheduler.Config{
		Interval:     cfg.Poll.Interval,
		CheckTimeout: cfg.Poll.CheckTimeout,
		Parallel:     cfg.Poll.Parallel,
		MaxParallel:  cfg.Poll.MaxParallel,
		Clock:        clock.WallClock,
		Logger:       logger,
	}, checks)
	if err != nil {
		logger.Fatal("failed to init scheduler", zap.Error(err))
	}

	// 7. Run until interrupted
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.Info("watcher starting", zap.Duration("interval", cfg.Poll.Interval), zap.Int("sources", len(checks)))
	if err := sched.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("scheduler stopped", zap.Error(err))
		return
	}
	logger.Info("watcher stopped")
}

func newLogger(cfg config.LogConfig) (*zap.Logger, error) {
	var zcfg zap.Config
	if cfg.Format == "json" {
		zcfg = zap.NewProductionConfig()
	} else {
		zcfg = zap.NewDevelopmentConfig()
	}
	if cfg.Level != "" {
		level, err := zap.ParseAtomicLevel(cfg.Level)
		if err != nil {
			return nil, err
		}
		zcfg.Level = level
	}
	return zcfg.Build()
}
