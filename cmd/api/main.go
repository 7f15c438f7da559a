package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/transit-rewards/internal/api/http"
	"github.com/spec-kit/transit-rewards/internal/api/http/handlers"
	"github.com/spec-kit/transit-rewards/internal/config"
	"github.com/spec-kit/transit-rewards/internal/events"
	"github.com/spec-kit/transit-rewards/internal/jobs"
	"github.com/spec-kit/transit-rewards/internal/observability"
	"github.com/spec-kit/transit-rewards/internal/persistence"
	"github.com/spec-kit/transit-rewards/internal/repository"
	"github.com/spec-kit/transit-rewards/internal/service"
	"github.com/spec-kit/transit-rewards/internal/worker"
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
		if err := persistence.RunMigrations(ctx, pg.PoolHandle(), logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	redis := persistence.NewRedis(cfg.Redis, logger)
	defer redis.Close()

	pool := pg.PoolHandle()
	userRepo := repository.NewUserRepository(pool)
	reportRepo := repository.NewReportRepository(pool)
	ticketRepo := repository.NewTicketRepository(pool)
	routeRepo := repository.NewRouteRepository(pool)

	dispatcher := events.NewInMemoryDispatcher()

	rewardService := service.NewRewardService(service.RewardDependencies{
		DB:         pool,
		UserRepo:   userRepo,
		ReportRepo: reportRepo,
		TicketRepo: ticketRepo,
		Dispatcher: dispatcher,
		Logger:     logger,
	})
	reportService := service.NewReportService(reportRepo, userRepo, dispatcher)
	userService := service.NewUserService(userRepo)
	statsService := service.NewStatsService(userRepo, redis.Client, logger)
	verifierService := service.NewVerifierService(reportRepo, routeRepo, rewardService, logger)
	notificationService := service.NewNotificationService(dispatcher, redis.Client, logger, cfg.Notification)

	worker.StartNotificationWorker(notificationService)

	scheduler := jobs.NewScheduler(rewardService, verifierService, cfg.Jobs, logger)
	if err := scheduler.Start(ctx); err != nil {
		logger.Fatal("failed to start scheduler", zap.Error(err))
	}
	defer scheduler.Stop()

	metrics := observability.NewMetrics()

	app := fiber.New()
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:  handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, redis),
		Users:   handlers.NewUsersHandler(userService, rewardService),
		Reports: handlers.NewReportsHandler(reportService, rewardService),
		Tickets: handlers.NewTicketsHandler(rewardService),
		Stats:   handlers.NewStatsHandler(statsService),
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	_ = app.Shutdown()
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
