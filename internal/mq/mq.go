package mq

import (
	"context"
	"fmt"
	"strings"

	"github.com/adoptly/apiserver/config"
	"github.com/adoptly/apiserver/internal/metrics"
)

// Message is a delivery from either broker.
type Message struct {
	ID         string
	Data       []byte
	Attributes map[string]string
	// Redelivered is set when the broker has handed this message out before.
	Redelivered bool
}

// Handler processes a message. A non-nil error asks the broker to redeliver.
type Handler func(ctx context.Context, msg Message) error

// Backend is implemented by the RabbitMQ and Pub/Sub brokers.
type Backend interface {
	Publish(ctx context.Context, channel string, data []byte, attrs map[string]string) (string, error)
	Subscribe(ctx context.Context, channel string, handler Handler) error
	Close() error
}

// MQ is the event bus shared by the API server and the worker.
type MQ struct {
	backend Backend
}

func New(backend Backend) *MQ {
	return &MQ{backend: backend}
}

// Open connects to the broker named by cfg.Backend. It returns (nil, nil)
// when events are disabled.
func Open(ctx context.Context, cfg config.QueueConfig) (*MQ, error) {
	var (
		backend Backend
		err     error
	)
	switch strings.ToLower(strings.TrimSpace(cfg.Backend)) {
	case "", "none":
		return nil, nil
	case "rabbitmq":
		backend, err = DialRabbitMQ(cfg.RabbitMQ)
	case "pubsub":
		backend, err = DialPubSub(ctx, cfg.PubSub)
	default:
		return nil, fmt.Errorf("unknown queue backend %q", cfg.Backend)
	}
	if err != nil {
		return nil, fmt.Errorf("connect %s: %w", cfg.Backend, err)
	}
	return New(backend), nil
}

func (m *MQ) Publish(ctx context.Context, channel string, data []byte, attrs map[string]string) (string, error) {
	return m.backend.Publish(ctx, channel, data, attrs)
}

// Subscribe blocks consuming channel until ctx is done. Every delivery is
// counted by outcome.
func (m *MQ) Subscribe(ctx context.Context, channel string, handler Handler) error {
	return m.backend.Subscribe(ctx, channel, func(ctx context.Context, msg Message) error {
		err := handler(ctx, msg)
		switch {
		case err == nil:
			metrics.EventsConsumed.WithLabelValues("ack").Inc()
		case msg.Redelivered:
			metrics.EventsConsumed.WithLabelValues("redelivery_failed").Inc()
		default:
			metrics.EventsConsumed.WithLabelValues("retry").Inc()
		}
		return err
	})
}

func (m *MQ) Close() error {
	return m.backend.Close()
}
