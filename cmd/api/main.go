package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/ivd-portal/inscription-service/internal/api/http"
	"github.com/ivd-portal/inscription-service/internal/api/http/handlers"
	"github.com/ivd-portal/inscription-service/internal/auth"
	"github.com/ivd-portal/inscription-service/internal/config"
	"github.com/ivd-portal/inscription-service/internal/events"
	"github.com/ivd-portal/inscription-service/internal/observability"
	"github.com/ivd-portal/inscription-service/internal/persistence"
	"github.com/ivd-portal/inscription-service/internal/repository"
	"github.com/ivd-portal/inscription-service/internal/service"
	"github.com/ivd-portal/inscription-service/internal/worker"
)

type repositories struct {
	athletes     repository.AthleteRepository
	events       repository.EventRepository
	inscriptions repository.InscriptionRepository
	accounts     repository.AccountRepository
}

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

	loc, err := cfg.App.Location()
	if err != nil {
		logger.Fatal("invalid timezone", zap.Error(err))
	}
	clock := service.NewClock(loc, time.Now)
	metrics := observability.NewMetrics()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()

	if pg.Enabled() && cfg.Postgres.RunMigrations {
		if err := persistence.RunMigrations(ctx, pg.PoolHandle(), cfg.Postgres.MigrationsDir, logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	redis := persistence.NewRedis(cfg.Redis, logger)
	defer redis.Close()

	broker, err := persistence.NewAMQP(cfg.AMQP, logger)
	if err != nil {
		logger.Fatal("failed to connect rabbitmq", zap.Error(err))
	}
	defer broker.Close()

	repos := buildRepositories(pg)
	repos.events = repository.NewCachedEventRepository(repos.events, redis.Client, cfg.Redis.CacheTTL(), logger, metrics)

	dispatcher := events.NewInMemoryDispatcher()
	worker.StartNotificationWorker(service.NewNotificationService(dispatcher, logger, cfg.Notification))
	if broker.Enabled() {
		worker.StartEventFanout(dispatcher, events.NewAMQPPublisher(broker.Channel, broker.Exchange, logger))
	}

	inscriptionService := service.NewInscriptionService(service.InscriptionDependencies{
		AthleteRepo:     repos.athletes,
		EventRepo:       repos.events,
		InscriptionRepo: repos.inscriptions,
		Dispatcher:      dispatcher,
		Metrics:         metrics,
		Logger:          logger,
		Clock:           clock,
	})
	reconcilerService := service.NewReconcilerService(service.ReconcilerDependencies{
		AthleteRepo:     repos.athletes,
		EventRepo:       repos.events,
		InscriptionRepo: repos.inscriptions,
		Dispatcher:      dispatcher,
		Metrics:         metrics,
		Logger:          logger,
		Clock:           clock,
		Concurrency:     cfg.Inscription.ReconcileConcurrency,
	})
	eventAdminService := service.NewEventAdminService(service.EventAdminDependencies{
		EventRepo:  repos.events,
		Reconciler: reconcilerService,
		Dispatcher: dispatcher,
		Logger:     logger,
		Clock:      clock,
	})
	athleteService := service.NewAthleteService(repos.athletes)
	authService := service.NewAuthService(cfg.Auth, repos.accounts, logger)

	if err := authService.EnsureBootstrapAdmin(ctx, cfg.Auth.BootstrapAdminEmail, cfg.Auth.BootstrapAdminPass); err != nil {
		logger.Fatal("failed to bootstrap admin account", zap.Error(err))
	}

	app := fiber.New(fiber.Config{
		AppName:               cfg.App.Name,
		DisableStartupMessage: true,
	})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health: handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, map[string]handlers.Pinger{
			"postgres": pg,
			"redis":    redis,
			"amqp":     broker,
		}),
		Auth:           handlers.NewAuthHandler(authService),
		Events:         handlers.NewEventsHandler(eventAdminService, reconcilerService, inscriptionService, clock),
		Inscriptions:   handlers.NewInscriptionsHandler(inscriptionService),
		Athletes:       handlers.NewAthletesHandler(athleteService),
		AuthMiddleware: auth.NewAuthMiddleware(authService.TokenManager(), repos.accounts),
		Metrics:        metrics,
	})

	go func() {
		logger.Info("listening", zap.String("addr", cfg.App.Addr()))
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		logger.Warn("shutdown", zap.Error(err))
	}
}

func buildRepositories(pg *persistence.Postgres) repositories {
	if !pg.Enabled() {
		store := repository.NewMemoryStore()
		return repositories{
			athletes:     store.Athletes(),
			events:       store.Events(),
			inscriptions: store.Inscriptions(),
			accounts:     store.Accounts(),
		}
	}
	pool := pg.PoolHandle()
	return repositories{
		athletes:     repository.NewAthleteRepository(pool),
		events:       repository.NewEventRepository(pool),
		inscriptions: repository.NewInscriptionRepository(pool),
		accounts:     repository.NewAccountRepository(pool),
	}
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
