package inventory

import (
	"context"
	"encoding/json"
	"time"

	"cloud.google.com/go/pubsub/v2"
	"github.com/dmferrer/stockpilot-backend/pkg/enums"
	"github.com/dmferrer/stockpilot-backend/pkg/logger"
	"github.com/google/uuid"
)

// snapshotsIngestedEvent announces that a connector run landed new snapshot
// rows, so downstream consumers can refresh their own views.
type snapshotsIngestedEvent struct {
	EventID    string    `json:"event_id"`
	Type       string    `json:"type"`
	Platform   string    `json:"platform"`
	Accepted   int       `json:"accepted"`
	Skipped    int       `json:"skipped"`
	OccurredAt time.Time `json:"occurred_at"`
}

const eventTypeSnapshotsIngested = "inventory.snapshots_ingested"

type messagePublisher interface {
	Publish(ctx context.Context, msg *pubsub.Message) *pubsub.PublishResult
}

// EventPublisher emits inventory lifecycle events. A nil publisher is a
// no-op, so deployments without Pub/Sub configured pay nothing.
type EventPublisher struct {
	publisher messagePublisher
	logg      *logger.Logger
}

func NewEventPublisher(publisher messagePublisher, logg *logger.Logger) *EventPublisher {
	if publisher == nil {
		return nil
	}
	return &EventPublisher{publisher: publisher, logg: logg}
}

// PublishSnapshotsIngested fires and forgets: ingest results are already
// durable in the store, so a failed publish is logged, not returned.
func (p *EventPublisher) PublishSnapshotsIngested(ctx context.Context, platform enums.CommercePlatform, accepted, skipped int) {
	if p == nil {
		return
	}

	payload, err := json.Marshal(snapshotsIngestedEvent{
		EventID:    uuid.NewString(),
		Type:       eventTypeSnapshotsIngested,
		Platform:   platform.String(),
		Accepted:   accepted,
		Skipped:    skipped,
		OccurredAt: time.Now().UTC(),
	})
	if err != nil {
		return
	}

	result := p.publisher.Publish(ctx, &pubsub.Message{
		Data: payload,
		Attributes: map[string]string{
			"type":     eventTypeSnapshotsIngested,
			"platform": platform.String(),
		},
	})
	if _, err := result.Get(ctx); err != nil && p.logg != nil {
		p.logg.Error(ctx, "pubsub.publish_snapshots_ingested", err)
	}
}
