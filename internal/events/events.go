package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/adoptly/apiserver/internal/metrics"
	"github.com/adoptly/apiserver/internal/mq"
	"github.com/adoptly/apiserver/types"
)

// Type names a domain event. It is also sent as the "type" message attribute
// so consumers can filter without decoding the body.
type Type string

const (
	AdoptionCreated  Type = "adoption.created"
	AdoptionApproved Type = "adoption.approved"
	AdoptionRejected Type = "adoption.rejected"
	MessageReceived  Type = "message.received"
)

// TypeAttribute is the message attribute carrying the event type.
const TypeAttribute = "type"

// Event is the JSON payload published for adoption and inbox activity.
type Event struct {
	ID         string               `json:"id"`
	Type       Type                 `json:"type"`
	AdoptionID int                  `json:"adoption_id,omitempty"`
	PetID      int                  `json:"pet_id,omitempty"`
	UserID     int                  `json:"user_id,omitempty"`
	Status     types.AdoptionStatus `json:"status,omitempty"`
	MessageID  int                  `json:"message_id,omitempty"`
	Email      string               `json:"email,omitempty"`
	OccurredAt time.Time            `json:"occurred_at"`
}

// ForAdoption describes req entering its current status.
func ForAdoption(req types.AdoptionRequest) Event {
	t := AdoptionCreated
	switch req.Status {
	case types.AdoptionApproved:
		t = AdoptionApproved
	case types.AdoptionRejected:
		t = AdoptionRejected
	}
	return Event{
		ID:         uuid.NewString(),
		Type:       t,
		AdoptionID: req.ID,
		PetID:      req.PetID,
		UserID:     req.UserID,
		Status:     req.Status,
		OccurredAt: req.UpdatedAt.UTC(),
	}
}

// ForMessage describes a newly received contact message.
func ForMessage(msg types.Message) Event {
	return Event{
		ID:         uuid.NewString(),
		Type:       MessageReceived,
		MessageID:  msg.ID,
		Email:      msg.Email,
		OccurredAt: msg.CreatedAt.UTC(),
	}
}

// Decode parses a published payload.
func Decode(data []byte) (Event, error) {
	var evt Event
	if err := json.Unmarshal(data, &evt); err != nil {
		return Event{}, fmt.Errorf("decode event: %w", err)
	}
	if evt.Type == "" {
		return Event{}, fmt.Errorf("decode event: missing type")
	}
	return evt, nil
}

// Broker is the subset of *mq.MQ used to publish.
type Broker interface {
	Publish(ctx context.Context, channel string, data []byte, attrs map[string]string) (string, error)
}

// Publisher sends events to a single channel. A Publisher without a broker
// drops every event, which is how MQ_BACKEND=none is served.
type Publisher struct {
	broker  Broker
	channel string
}

func NewPublisher(broker Broker, channel string) *Publisher {
	return &Publisher{broker: broker, channel: channel}
}

// Noop returns a Publisher that discards events.
func Noop() *Publisher {
	return &Publisher{}
}

func (p *Publisher) Publish(ctx context.Context, evt Event) error {
	if p == nil || p.broker == nil {
		return nil
	}

	data, err := json.Marshal(evt)
	if err != nil {
		return err
	}

	_, err = p.broker.Publish(ctx, p.channel, data, map[string]string{TypeAttribute: string(evt.Type)})
	result := "ok"
	if err != nil {
		result = "error"
	}
	metrics.EventsPublished.WithLabelValues(string(evt.Type), result).Inc()
	if err != nil {
		return fmt.Errorf("publish %s: %w", evt.Type, err)
	}
	return nil
}

// LogHandler is the notification consumer run by the worker command. It
// turns each event into a log line addressed to the party that must act on
// it. Undecodable payloads are logged and acknowledged so they are not
// redelivered forever.
func LogHandler(logger *slog.Logger) mq.Handler {
	return func(ctx context.Context, msg mq.Message) error {
		evt, err := Decode(msg.Data)
		if err != nil {
			logger.ErrorContext(ctx, "dropping malformed event", "message_id", msg.ID, "error", err)
			return nil
		}

		log := logger.With("event_id", evt.ID, "event_type", string(evt.Type))
		switch evt.Type {
		case AdoptionCreated:
			log.InfoContext(ctx, "notify admins: new adoption request",
				"adoption_id", evt.AdoptionID, "pet_id", evt.PetID, "user_id", evt.UserID)
		case AdoptionApproved, AdoptionRejected:
			log.InfoContext(ctx, "notify adopter: adoption request decided",
				"adoption_id", evt.AdoptionID, "user_id", evt.UserID, "status", string(evt.Status))
		case MessageReceived:
			log.InfoContext(ctx, "notify admins: new contact message",
				"message_id", evt.MessageID, "email", evt.Email)
		default:
			log.WarnContext(ctx, "ignoring unknown event type")
		}
		return nil
	}
}
