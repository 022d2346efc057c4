package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/dmferrer/stockpilot-backend/api/controllers"
	"github.com/dmferrer/stockpilot-backend/api/routes"
	"github.com/dmferrer/stockpilot-backend/internal/connectors"
	"github.com/dmferrer/stockpilot-backend/internal/inventory"
	"github.com/dmferrer/stockpilot-backend/internal/snapshots"
	"github.com/dmferrer/stockpilot-backend/internal/sources"
	"github.com/dmferrer/stockpilot-backend/pkg/config"
	"github.com/dmferrer/stockpilot-backend/pkg/db"
	"github.com/dmferrer/stockpilot-backend/pkg/logger"
	"github.com/dmferrer/stockpilot-backend/pkg/metrics"
	"github.com/dmferrer/stockpilot-backend/pkg/migrate"
	"github.com/dmferrer/stockpilot-backend/pkg/pubsub"
	"github.com/dmferrer/stockpilot-backend/pkg/redis"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	var events *inventory.EventPublisher
	var pubsubClient *pubsub.Client
	if cfg.GCP.ProjectID != "" && cfg.PubSub.InventoryTopic != "" {
		pubsubClient, err = pubsub.NewClient(context.Background(), cfg.GCP, cfg.PubSub, logg)
		if err != nil {
			logg.Error(context.Background(), "failed to bootstrap pubsub", err)
			os.Exit(1)
		}
		defer func() {
			if err := pubsubClient.Close(); err != nil {
				logg.Error(context.Background(), "error closing pubsub client", err)
			}
		}()
		events = inventory.NewEventPublisher(pubsubClient.InventoryPublisher(), logg)
	}

	snapshotRepo := snapshots.NewRepository(dbClient.DB())
	sourceRepo := sources.NewRepository(dbClient.DB())

	inventoryService, err := inventory.NewService(inventory.ServiceParams{
		Snapshots: snapshotRepo,
		Sources:   sourceRepo,
		Cache:     redisClient,
		CacheTTL:  cfg.Cache.UnifiedTTL,
		Metrics:   metrics.NewReconcileMetrics(registry),
		Events:    events,
		Logger:    logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create inventory service", err)
		os.Exit(1)
	}

	pingers := map[string]controllers.Pinger{
		"db":    dbClient,
		"redis": redisClient,
	}
	if pubsubClient != nil {
		pingers["pubsub"] = pubsubClient
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(routes.Deps{
			Config:          cfg,
			Logger:          logg,
			Inventory:       inventoryService,
			Connectors:      connectors.NewRegistry(cfg.Connectors),
			Snapshots:       snapshotRepo,
			Pingers:         pingers,
			MetricsGatherer: registry,
		}),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}
