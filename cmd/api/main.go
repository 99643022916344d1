package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/hvac-workflow/internal/api/http"
	"github.com/spec-kit/hvac-workflow/internal/api/http/handlers"
	"github.com/spec-kit/hvac-workflow/internal/auth"
	"github.com/spec-kit/hvac-workflow/internal/cache"
	"github.com/spec-kit/hvac-workflow/internal/config"
	"github.com/spec-kit/hvac-workflow/internal/events"
	"github.com/spec-kit/hvac-workflow/internal/observability"
	"github.com/spec-kit/hvac-workflow/internal/persistence"
	"github.com/spec-kit/hvac-workflow/internal/repository"
	"github.com/spec-kit/hvac-workflow/internal/service"
	"github.com/spec-kit/hvac-workflow/internal/worker"
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
	ticketRepo := repository.NewTicketRepository(pool)
	technicianRepo := repository.NewTechnicianRepository(pool)
	historyRepo := repository.NewTicketHistoryRepository(pool)
	accountRepo := repository.NewAccountRepository(pool)

	dispatcher := events.NewInMemoryDispatcher()
	metrics := observability.NewMetrics("hvac_workflow")
	metricsCache := cache.NewMetricsCache(redis.Client, cfg.Metrics.CacheTTL(), logger)

	workflowService := service.NewWorkflowService(service.WorkflowDependencies{
		TicketRepo:     ticketRepo,
		TechnicianRepo: technicianRepo,
		HistoryRepo:    historyRepo,
		Directory:      service.NewConfigDirectory(cfg.Escalation),
		Dispatcher:     dispatcher,
		MetricsCache:   metricsCache,
		Metrics:        metrics,
		Logger:         logger,
	})
	authService := service.NewAuthService(*cfg, accountRepo)
	authMiddleware := auth.NewAuthMiddleware(authService.TokenManager(), accountRepo)

	notificationService := service.NewNotificationService(dispatcher, logger)
	worker.StartNotificationWorker(notificationService)

	app := fiber.New()
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:          handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, redis),
		Auth:            handlers.NewAuthHandler(authService),
		Tickets:         handlers.NewTicketsHandler(workflowService),
		Technicians:     handlers.NewTechniciansHandler(technicianRepo),
		WorkflowMetrics: handlers.NewWorkflowMetricsHandler(workflowService),
		AuthMiddleware:  authMiddleware,
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
