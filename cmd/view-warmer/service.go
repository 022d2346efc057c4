package main

import (
	"context"
	"errors"
	"time"

	"cloud.google.com/go/pubsub/v2"
	"golang.org/x/sync/errgroup"

	"github.com/dmferrer/stockpilot-backend/internal/inventory"
	"github.com/dmferrer/stockpilot-backend/pkg/config"
	"github.com/dmferrer/stockpilot-backend/pkg/logger"
)

type viewRefresher interface {
	GetUnifiedInventory(ctx context.Context) (*inventory.UnifiedInventoryResponse, error)
}

type subscriber interface {
	Receive(ctx context.Context, f func(context.Context, *pubsub.Message)) error
}

// ServiceParams collects the warmer dependencies. Subscriber is optional;
// without it the warmer runs on its refresh interval alone.
type ServiceParams struct {
	Config     *config.Config
	Logger     *logger.Logger
	Inventory  viewRefresher
	Subscriber subscriber
}

// Service keeps the cached unified view warm: it recomputes on every
// snapshots_ingested event and on a fixed interval, so dashboard reads
// rarely pay the recompute latency themselves.
type Service struct {
	logg       *logger.Logger
	inventory  viewRefresher
	subscriber subscriber
	interval   time.Duration
}

func NewService(params ServiceParams) (*Service, error) {
	if params.Inventory == nil {
		return nil, errors.New("inventory service required")
	}

	interval := 30 * time.Second
	if params.Config != nil && params.Config.Cache.UnifiedTTL > 0 {
		// Refresh at half the cache TTL so the entry never quite expires.
		interval = params.Config.Cache.UnifiedTTL / 2
	}

	return &Service{
		logg:       params.Logger,
		inventory:  params.Inventory,
		subscriber: params.Subscriber,
		interval:   interval,
	}, nil
}

func (s *Service) Run(ctx context.Context) error {
	group, ctx := errgroup.WithContext(ctx)

	group.Go(func() error {
		return s.runTicker(ctx)
	})

	if s.subscriber != nil {
		group.Go(func() error {
			return s.runSubscriber(ctx)
		})
	}

	return group.Wait()
}

func (s *Service) runTicker(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.refresh(ctx, "startup")

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			s.refresh(ctx, "interval")
		}
	}
}

func (s *Service) runSubscriber(ctx context.Context) error {
	err := s.subscriber.Receive(ctx, func(msgCtx context.Context, msg *pubsub.Message) {
		msg.Ack()
		if s.logg != nil {
			logCtx := s.logg.WithField(msgCtx, "event_type", msg.Attributes["type"])
			s.logg.Info(logCtx, "warmer.event_received")
		}
		s.refresh(msgCtx, "event")
	})
	if err != nil && ctx.Err() != nil {
		return ctx.Err()
	}
	return err
}

func (s *Service) refresh(ctx context.Context, trigger string) {
	if ctx.Err() != nil {
		return
	}
	view, err := s.inventory.GetUnifiedInventory(ctx)
	if err != nil {
		if s.logg != nil {
			logCtx := s.logg.WithField(ctx, "trigger", trigger)
			s.logg.Error(logCtx, "warmer.refresh_failed", err)
		}
		return
	}
	if s.logg != nil {
		logCtx := s.logg.WithFields(ctx, map[string]any{
			"trigger":         trigger,
			"total_skus":      view.TotalSKUs,
			"conflicted_skus": view.ConflictedSKUs,
		})
		s.logg.Info(logCtx, "warmer.refresh_complete")
	}
}
