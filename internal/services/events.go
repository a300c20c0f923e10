package services

import (
	"context"
	"log/slog"
	"time"

	"github.com/adoptly/apiserver/internal/events"
)

const publishTimeout = 5 * time.Second

// EventPublisher delivers domain events to the broker.
type EventPublisher interface {
	Publish(ctx context.Context, evt events.Event) error
}

// publish sends evt after the business write has committed. Failures are
// logged and never returned; the write already succeeded.
func publish(ctx context.Context, publisher EventPublisher, logger *slog.Logger, evt events.Event) {
	if publisher == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()

	if err := publisher.Publish(ctx, evt); err != nil {
		logger.WarnContext(ctx, "event publish failed", "event_type", string(evt.Type), "event_id", evt.ID, "error", err)
	}
}

// discardImage removes an object that is no longer referenced. Storage
// failures only leave an orphaned object behind, so they are logged.
func discardImage(ctx context.Context, images ImageStore, logger *slog.Logger, key string) {
	if images == nil || key == "" {
		return
	}
	if err := images.Delete(context.WithoutCancel(ctx), key); err != nil {
		logger.WarnContext(ctx, "image cleanup failed", "key", key, "error", err)
	}
}
