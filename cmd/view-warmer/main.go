package main

import (
	"context"
	"errors"
	"os"
	"os/signal"

	"github.com/joho/godotenv"

	"github.com/dmferrer/stockpilot-backend/internal/inventory"
	"github.com/dmferrer/stockpilot-backend/internal/snapshots"
	"github.com/dmferrer/stockpilot-backend/internal/sources"
	"github.com/dmferrer/stockpilot-backend/pkg/config"
	"github.com/dmferrer/stockpilot-backend/pkg/db"
	"github.com/dmferrer/stockpilot-backend/pkg/logger"
	"github.com/dmferrer/stockpilot-backend/pkg/migrate"
	"github.com/dmferrer/stockpilot-backend/pkg/pubsub"
	"github.com/dmferrer/stockpilot-backend/pkg/redis"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "view-warmer"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "view-warmer",
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

	inventoryService, err := inventory.NewService(inventory.ServiceParams{
		Snapshots: snapshots.NewRepository(dbClient.DB()),
		Sources:   sources.NewRepository(dbClient.DB()),
		Cache:     redisClient,
		CacheTTL:  cfg.Cache.UnifiedTTL,
		Logger:    logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create inventory service", err)
		os.Exit(1)
	}

	params := ServiceParams{
		Config:    cfg,
		Logger:    logg,
		Inventory: inventoryService,
	}

	if cfg.GCP.ProjectID != "" && cfg.PubSub.InventorySubscription != "" {
		pubsubClient, err := pubsub.NewClient(context.Background(), cfg.GCP, cfg.PubSub, logg)
		if err != nil {
			logg.Error(context.Background(), "failed to bootstrap pubsub", err)
			os.Exit(1)
		}
		defer func() {
			if err := pubsubClient.Close(); err != nil {
				logg.Error(context.Background(), "error closing pubsub client", err)
			}
		}()
		params.Subscriber = pubsubClient.InventorySubscription()
	}

	service, err := NewService(params)
	if err != nil {
		logg.Error(context.Background(), "failed to create view warmer", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	ctx = logg.WithField(ctx, "env", cfg.App.Env)
	logg.Info(ctx, "starting view warmer")

	if err := service.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logg.Error(ctx, "view warmer stopped unexpectedly", err)
		os.Exit(1)
	}

	logg.Info(ctx, "view warmer shutting down gracefully")
}
