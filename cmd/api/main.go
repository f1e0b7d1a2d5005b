package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/intervention-service/internal/api/http"
	"github.com/spec-kit/intervention-service/internal/api/http/handlers"
	"github.com/spec-kit/intervention-service/internal/auth"
	"github.com/spec-kit/intervention-service/internal/config"
	"github.com/spec-kit/intervention-service/internal/events"
	"github.com/spec-kit/intervention-service/internal/observability"
	"github.com/spec-kit/intervention-service/internal/persistence"
	"github.com/spec-kit/intervention-service/internal/repository"
	"github.com/spec-kit/intervention-service/internal/service"
	"github.com/spec-kit/intervention-service/internal/worker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger, cfg.App)
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

	redis := persistence.NewRedis(cfg.Redis, logger)
	defer redis.Close()

	pool := pg.PoolHandle()
	txManager := persistence.NewTxManager(pool, logger)
	sessionLock := persistence.NewSessionLock(redis.Client, cfg.Toggle.LockTTL(), cfg.Toggle.LockWait(), logger)

	userRepo := repository.NewUserRepository(pool)
	clientRepo := repository.NewClientRepository(pool)
	serviceRepo := repository.NewServiceRepository(pool)
	interventionRepo := repository.NewInterventionRepository(pool)

	metrics := observability.NewMetrics()
	dispatcher := events.NewInMemoryDispatcher(logger)
	worker.StartAuditWorker(service.NewAuditService(dispatcher, logger, metrics))

	if cfg.Scheduling.EnforceAssignments {
		logger.Info("scheduling restricted to assigned clients and services")
	}
	if cfg.Toggle.DefaultServiceID == "" || cfg.Toggle.DefaultClientID == "" {
		logger.Warn("toggle defaults not fully configured; scans must name a service and a client")
	}

	authService := service.NewAuthService(cfg.Auth, userRepo)
	sessionService := service.NewSessionService(cfg.Toggle, service.SessionDependencies{
		Tx:               txManager,
		InterventionRepo: interventionRepo,
		ClientRepo:       clientRepo,
		ServiceRepo:      serviceRepo,
		Lock:             sessionLock,
		Dispatcher:       dispatcher,
	})
	schedulingService := service.NewSchedulingService(cfg.Scheduling, service.SchedulingDependencies{
		Tx:               txManager,
		InterventionRepo: interventionRepo,
		UserRepo:         userRepo,
		ClientRepo:       clientRepo,
		ServiceRepo:      serviceRepo,
		Dispatcher:       dispatcher,
	})
	cancellationService := service.NewCancellationService(service.CancellationDependencies{
		Tx:               txManager,
		InterventionRepo: interventionRepo,
		Dispatcher:       dispatcher,
	})
	dashboardService := service.NewDashboardService(service.DashboardDependencies{
		InterventionRepo: interventionRepo,
		UserRepo:         userRepo,
		ClientRepo:       clientRepo,
		ServiceRepo:      serviceRepo,
	})
	rosterService := service.NewRosterService(cfg.Auth, service.RosterDependencies{
		Tx:               txManager,
		UserRepo:         userRepo,
		ClientRepo:       clientRepo,
		ServiceRepo:      serviceRepo,
		InterventionRepo: interventionRepo,
	})

	app := fiber.New(fiber.Config{AppName: cfg.App.Name})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health: handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, map[string]handlers.Pinger{
			"postgres": pg,
			"redis":    redis,
		}),
		Auth:           handlers.NewAuthHandler(authService),
		Intervenant:    handlers.NewIntervenantHandler(dashboardService, schedulingService, sessionService, cancellationService),
		Client:         handlers.NewClientHandler(dashboardService),
		Admin:          handlers.NewAdminHandler(dashboardService, schedulingService, cancellationService, rosterService),
		AuthMiddleware: auth.NewAuthMiddleware(authService.TokenManager(), userRepo),
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
