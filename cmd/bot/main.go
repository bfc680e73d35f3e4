package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/coralises/guildflow/internal/api/http"
	"github.com/coralises/guildflow/internal/api/http/handlers"
	"github.com/coralises/guildflow/internal/auth"
	"github.com/coralises/guildflow/internal/collector"
	"github.com/coralises/guildflow/internal/config"
	"github.com/coralises/guildflow/internal/events"
	"github.com/coralises/guildflow/internal/observability"
	"github.com/coralises/guildflow/internal/persistence"
	"github.com/coralises/guildflow/internal/platform"
	"github.com/coralises/guildflow/internal/service"
	"github.com/coralises/guildflow/internal/worker"
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

	driver, cleanup, err := buildDriver(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("failed to init store driver", zap.Error(err))
	}
	defer cleanup()

	store := persistence.NewDocumentStore(driver)

	gateway := platform.NewRestClient(cfg.Platform, logger)
	registry := collector.NewRegistry(cfg.Collector.CancelKeyword, logger)
	dispatcher := events.NewInMemoryDispatcher(logger)
	metrics := observability.NewMetrics()

	sequence := service.NewSequenceAllocator(store)
	tickets := service.NewTicketService(service.TicketDependencies{
		Community:  cfg.Community,
		Collector:  cfg.Collector,
		Platform:   gateway,
		Store:      store,
		Sequence:   sequence,
		Dispatcher: dispatcher,
		Logger:     logger,
	})
	applications := service.NewApplicationService(service.ApplicationDependencies{
		Community:  cfg.Community,
		Collector:  cfg.Collector,
		Platform:   gateway,
		Store:      store,
		Sequence:   sequence,
		Registry:   registry,
		Tickets:    tickets,
		Dispatcher: dispatcher,
		Metrics:    metrics,
		Logger:     logger,
	})

	notifications := service.NewNotificationService(metrics, logger)
	notifications.Register(dispatcher)

	pruner := worker.NewPruneWorker(cfg.Prune, store, dispatcher, logger)
	pruner.Start(ctx)

	tokens := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTLMinutes)
	authMiddleware := auth.NewAuthMiddleware(tokens)

	app := fiber.New()
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, store),
		Events:         handlers.NewEventsHandler(tickets, applications, registry, logger),
		Admin:          handlers.NewAdminHandler(cfg.Auth, tokens, tickets, applications, pruner, metrics),
		AuthMiddleware: authMiddleware,
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)
	cancel()

	_ = app.Shutdown()
}

// buildDriver selects the document store backend. The file driver is the
// default; postgres and redis reuse the same document format.
func buildDriver(ctx context.Context, cfg *config.Config, logger *zap.Logger) (persistence.Driver, func(), error) {
	switch cfg.Store.Driver {
	case "postgres":
		pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
		if err != nil {
			return nil, nil, err
		}
		store := persistence.NewPostgresStore(pg, logger)
		if cfg.Postgres.RunMigrations {
			if err := store.EnsureSchema(ctx); err != nil {
				pg.Close()
				return nil, nil, err
			}
		}
		return store, pg.Close, nil
	case "redis":
		r := persistence.NewRedis(cfg.Redis, logger)
		return persistence.NewRedisStore(r, cfg.Store.RedisKey, logger), r.Close, nil
	default:
		return persistence.NewFileStore(cfg.Store.FilePath, logger), func() {}, nil
	}
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
