package main

import (
	"context"
	"fmt"
	"io"
	"time"

	"go.opentelemetry.io/otel"

	"github.com/learnhub/learnhub/internal/application/command"
	"github.com/learnhub/learnhub/internal/application/eventhandler"
	"github.com/learnhub/learnhub/internal/domain/shared"
	"github.com/learnhub/learnhub/internal/infrastructure/messaging"
	"github.com/learnhub/learnhub/internal/infrastructure/persistence/postgres"
	"github.com/learnhub/learnhub/internal/infrastructure/persistence/redis"
	"github.com/learnhub/learnhub/internal/infrastructure/scheduler"
	"github.com/learnhub/learnhub/internal/infrastructure/scheduler/jobs"
	platformotel "github.com/learnhub/learnhub/internal/platform/otel"
	"github.com/learnhub/learnhub/pkg/logger"
)

func run(ctx context.Context) error {
	// ─────────────────────────────────────────────────────────────────────────
	// 1. CONFIGURATION & LOGGING
	// ─────────────────────────────────────────────────────────────────────────
	cfg, log, err := bootstrap()
	if err != nil {
		return err
	}
	log.Info("starting learnhub worker", "env", cfg.App.Environment, "version", serviceVersion)

	// ─────────────────────────────────────────────────────────────────────────
	// 2. TRACING
	// ─────────────────────────────────────────────────────────────────────────
	shutdownTracing, err := platformotel.Setup(ctx, platformotel.Options{
		ServiceName:    cfg.App.Name + "-worker",
		ServiceVersion: serviceVersion,
		Enabled:        cfg.Observability.TracingEnabled,
		Endpoint:       cfg.Observability.TracingEndpoint,
	})
	if err != nil {
		return fmt.Errorf("failed to set up tracing: %w", err)
	}
	tracer := otel.Tracer("github.com/learnhub/learnhub")

	// ─────────────────────────────────────────────────────────────────────────
	// 3. DATABASE
	// ─────────────────────────────────────────────────────────────────────────
	dbConn, err := connectDatabase(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer func() {
		log.Info("closing database connection...")
		dbConn.Close()
	}()

	if !skipMigrations {
		applied, err := postgres.NewMigrator(dbConn).Migrate(ctx)
		if err != nil {
			return fmt.Errorf("failed to run migrations: %w", err)
		}
		log.Info("database schema is up to date", "applied", applied)
	}

	moduleRepo := postgres.NewModuleRepository(dbConn)
	userIssueRepo := postgres.NewUserIssueRepository(dbConn)

	// ─────────────────────────────────────────────────────────────────────────
	// 4. REDIS & EVENT BUS
	// ─────────────────────────────────────────────────────────────────────────
	busConfig := messaging.DefaultInMemoryEventBusConfig()
	busConfig.Logger = log

	var (
		bus         shared.EventBus
		busCloser   io.Closer
		invalidator eventhandler.CatalogInvalidator
	)

	if !cfg.Redis.Disabled {
		redisCfg := redis.DefaultConfig()
		redisCfg.Addr = cfg.Redis.Addr
		redisCfg.Password = cfg.Redis.Password
		redisCfg.DB = cfg.Redis.DB

		cache, err := redis.NewCache(ctx, redisCfg)
		if err != nil {
			log.Warn("failed to connect to Redis, running without cache", logger.Err(err))
		} else {
			defer func() { _ = cache.Close() }()

			catalog := redis.NewCachedIssueCatalog(postgres.NewIssueCatalog(dbConn), cache, cfg.Redis.CatalogTTL, log)
			invalidator = catalog

			redisBus, err := messaging.NewRedisEventBus(messaging.RedisEventBusConfig{
				Client:         messaging.NewGoRedisPubSub(cache.Client()),
				LocalBusConfig: busConfig,
				Logger:         log,
			})
			if err != nil {
				return fmt.Errorf("failed to start redis event bus: %w", err)
			}
			bus, busCloser = redisBus, redisBus
			log.Info("Redis connection established", "addr", redisCfg.Addr)
		}
	}
	if bus == nil {
		localBus := messaging.NewInMemoryEventBus(busConfig)
		bus, busCloser = localBus, localBus
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 5. EVENT HANDLERS
	// ─────────────────────────────────────────────────────────────────────────
	dispatcherCfg := messaging.DefaultDispatcherConfig(bus)
	dispatcherCfg.Logger = log
	dispatcher := messaging.NewDispatcher(dispatcherCfg)
	dispatcher.Use(messaging.RecoveryMiddleware(log))
	dispatcher.Use(messaging.LoggingMiddleware(log))

	statusSync := eventhandler.NewReviewStatusSyncHandler(userIssueRepo, time.Now, log)
	if err := dispatcher.Register("review_status_sync", statusSync.Handle, statusSync.EventTypes()...); err != nil {
		return fmt.Errorf("failed to register review status sync: %w", err)
	}
	if invalidator != nil {
		invalidation := eventhandler.NewCatalogInvalidationHandler(invalidator, 5*time.Second, log)
		if err := dispatcher.Register("catalog_invalidation", invalidation.Handle, invalidation.EventTypes()...); err != nil {
			return fmt.Errorf("failed to register catalog invalidation: %w", err)
		}
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 6. SCHEDULER
	// ─────────────────────────────────────────────────────────────────────────
	moduleWriter := command.NewModuleWriter(moduleRepo, bus, tracer, log, cfg.Domain.ConflictMaxAttempts)

	location, err := cfg.Scheduler.Location()
	if err != nil {
		return fmt.Errorf("failed to load scheduler timezone: %w", err)
	}
	schedCfg := scheduler.DefaultSchedulerConfig()
	schedCfg.Logger = log
	schedCfg.Timezone = location
	schedCfg.JobTimeout = cfg.Scheduler.JobTimeout
	sched := scheduler.NewScheduler(schedCfg)
	if cfg.Scheduler.Enabled {
		schedule, err := scheduler.ParseCronSchedule(cfg.Scheduler.PurgeCron)
		if err != nil {
			return fmt.Errorf("failed to parse purge schedule: %w", err)
		}
		purge := jobs.NewPurgeExpiredIssuesJob(moduleRepo, moduleWriter, time.Now, log)
		if err := sched.Register(purge, schedule); err != nil {
			return fmt.Errorf("failed to register purge job: %w", err)
		}
		if err := sched.Start(ctx); err != nil {
			return fmt.Errorf("failed to start scheduler: %w", err)
		}
	}

	log.Info("learnhub worker is running")

	// ─────────────────────────────────────────────────────────────────────────
	// 7. GRACEFUL SHUTDOWN
	// ─────────────────────────────────────────────────────────────────────────
	<-ctx.Done()
	log.Info("starting graceful shutdown...", "timeout", cfg.App.ShutdownTimeout.String())

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.App.ShutdownTimeout)
	defer cancel()

	if sched.IsRunning() {
		if err := sched.Stop(); err != nil {
			log.Warn("failed to stop scheduler", logger.Err(err))
		}
	}
	dispatcher.Stop()
	if err := busCloser.Close(); err != nil {
		log.Warn("failed to close event bus", logger.Err(err))
	}
	if size := dispatcher.DeadLetterQueue().Size(); size > 0 {
		log.Warn("events left in dead letter queue", "count", size)
	}
	if err := shutdownTracing(shutdownCtx); err != nil {
		log.Warn("failed to flush traces", logger.Err(err))
	}

	log.Info("shutdown completed successfully")
	return nil
}
