package mq

import (
	"context"
	"errors"
	"strings"
	"time"

	"cloud.google.com/go/pubsub"
	"google.golang.org/api/option"

	"github.com/adoptly/apiserver/config"
)

// Event subscriptions retry with backoff instead of immediate redelivery.
const (
	subscriptionAckDeadline = 30 * time.Second
	retryMinBackoff         = 10 * time.Second
	retryMaxBackoff         = 10 * time.Minute
)

// PubSub maps a channel to a topic and the worker to one subscription on it.
type PubSub struct {
	client *pubsub.Client
	suffix string
}

func DialPubSub(ctx context.Context, cfg config.PubSubConfig) (*PubSub, error) {
	if strings.TrimSpace(cfg.ProjectID) == "" {
		return nil, errors.New("pubsub project id is required")
	}

	var opts []option.ClientOption
	if cfg.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}
	client, err := pubsub.NewClient(ctx, cfg.ProjectID, opts...)
	if err != nil {
		return nil, err
	}

	suffix := cfg.SubscriptionSuffix
	if suffix == "" {
		suffix = "-sub"
	}
	return &PubSub{client: client, suffix: suffix}, nil
}

func (p *PubSub) Publish(ctx context.Context, channel string, data []byte, attrs map[string]string) (string, error) {
	topic, err := p.topic(ctx, channel)
	if err != nil {
		return "", err
	}
	defer topic.Stop()
	return topic.Publish(ctx, &pubsub.Message{Data: data, Attributes: attrs}).Get(ctx)
}

func (p *PubSub) Subscribe(ctx context.Context, channel string, handler Handler) error {
	topic, err := p.topic(ctx, channel)
	if err != nil {
		return err
	}

	sub := p.client.Subscription(channel + p.suffix)
	exists, err := sub.Exists(ctx)
	if err != nil {
		return err
	}
	if !exists {
		sub, err = p.client.CreateSubscription(ctx, channel+p.suffix, pubsub.SubscriptionConfig{
			Topic:       topic,
			AckDeadline: subscriptionAckDeadline,
			RetryPolicy: &pubsub.RetryPolicy{
				MinimumBackoff: retryMinBackoff,
				MaximumBackoff: retryMaxBackoff,
			},
		})
		if err != nil {
			return err
		}
	}

	return sub.Receive(ctx, func(ctx context.Context, m *pubsub.Message) {
		attempt := m.DeliveryAttempt
		err := handler(ctx, Message{
			ID:          m.ID,
			Data:        m.Data,
			Attributes:  m.Attributes,
			Redelivered: attempt != nil && *attempt > 1,
		})
		if err != nil {
			m.Nack()
			return
		}
		m.Ack()
	})
}

func (p *PubSub) Close() error {
	return p.client.Close()
}

func (p *PubSub) topic(ctx context.Context, name string) (*pubsub.Topic, error) {
	if strings.TrimSpace(name) == "" {
		return nil, errNoChannel
	}
	topic := p.client.Topic(name)
	exists, err := topic.Exists(ctx)
	if err != nil {
		return nil, err
	}
	if exists {
		return topic, nil
	}
	return p.client.CreateTopic(ctx, name)
}
