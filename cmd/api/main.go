package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	httptransport "github.com/launchlist/waitlist-service/internal/api/http"
	"github.com/launchlist/waitlist-service/internal/api/http/handlers"
	"github.com/launchlist/waitlist-service/internal/auth"
	"github.com/launchlist/waitlist-service/internal/config"
	"github.com/launchlist/waitlist-service/internal/events"
	"github.com/launchlist/waitlist-service/internal/observability"
	"github.com/launchlist/waitlist-service/internal/persistence"
	"github.com/launchlist/waitlist-service/internal/repository"
	"github.com/launchlist/waitlist-service/internal/service"
	"github.com/launchlist/waitlist-service/internal/worker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()

	if cfg.Postgres.RunMigrations {
		if err := persistence.RunMigrations(ctx, pg.PoolHandle(), cfg.Postgres.MigrationsDir, logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	redis := persistence.NewRedis(ctx, cfg.Redis, logger)
	defer redis.Close()

	var entries repository.EntryRepository
	if pool := pg.PoolHandle(); pool != nil {
		entries = repository.NewEntryRepository(pool)
	} else {
		entries = repository.NewMemoryEntryRepository()
	}

	metrics := observability.NewMetrics()
	dispatcher := events.NewInMemoryDispatcher()
	notificationService := service.NewNotificationService(logger, cfg.Notification)
	notifications := worker.NewNotificationWorker(dispatcher, notificationService, logger, cfg.Notification.QueueSize)
	workerDone := make(chan struct{})
	go func() {
		notifications.Run(ctx)
		close(workerDone)
	}()

	waitlistService := service.NewWaitlistService(service.WaitlistDependencies{
		Entries:    entries,
		Guard:      repository.NewJoinGuard(redis.Client, redis.KeyPrefix, cfg.RateLimit.JoinsPerWindow, cfg.RateLimit.Window()),
		Dispatcher: dispatcher,
		Metrics:    metrics,
		Logger:     logger,
	})
	authService := service.NewAuthService(cfg.Auth)
	authMiddleware := auth.NewAuthMiddleware(authService.TokenManager())

	app := httptransport.NewApp(cfg.App.Name)
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, redis),
		Waitlist:       handlers.NewWaitlistHandler(waitlistService),
		Admin:          handlers.NewAdminHandler(authService, metrics),
		AuthMiddleware: authMiddleware,
	})

	go func() {
		logger.Info("listening", zap.String("addr", cfg.App.Addr()))
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	_ = app.Shutdown()
	cancel()
	<-workerDone
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
