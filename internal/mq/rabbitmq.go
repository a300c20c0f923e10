package mq

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/adoptly/apiserver/config"
)

var errNoChannel = errors.New("channel name is required")

// RabbitMQ publishes events to a queue named after the channel through the
// default exchange. A failed delivery is requeued once and then dropped.
type RabbitMQ struct {
	conn *amqp.Connection
	ch   *amqp.Channel
	cfg  config.RabbitMQConfig
}

func DialRabbitMQ(cfg config.RabbitMQConfig) (*RabbitMQ, error) {
	if strings.TrimSpace(cfg.URL) == "" {
		return nil, errors.New("rabbitmq url is required")
	}

	conn, err := amqp.Dial(cfg.URL)
	if err != nil {
		return nil, err
	}
	ch, err := conn.Channel()
	if err == nil && cfg.PrefetchCount > 0 {
		err = ch.Qos(cfg.PrefetchCount, 0, false)
	}
	if err != nil {
		_ = conn.Close()
		return nil, err
	}
	return &RabbitMQ{conn: conn, ch: ch, cfg: cfg}, nil
}

func (r *RabbitMQ) Publish(ctx context.Context, channel string, data []byte, attrs map[string]string) (string, error) {
	if err := r.declare(channel); err != nil {
		return "", err
	}

	msg := amqp.Publishing{
		MessageId:    uuid.NewString(),
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Headers:      amqp.Table{},
		Body:         data,
	}
	for k, v := range attrs {
		msg.Headers[k] = v
	}
	if err := r.ch.PublishWithContext(ctx, "", channel, false, false, msg); err != nil {
		return "", err
	}
	return msg.MessageId, nil
}

func (r *RabbitMQ) Subscribe(ctx context.Context, channel string, handler Handler) error {
	if err := r.declare(channel); err != nil {
		return err
	}

	tag := "adoptly-worker-" + uuid.NewString()
	deliveries, err := r.ch.Consume(channel, tag, false, false, false, false, nil)
	if err != nil {
		return err
	}
	defer func() { _ = r.ch.Cancel(tag, false) }()

	for {
		var d amqp.Delivery
		var ok bool
		select {
		case <-ctx.Done():
			return ctx.Err()
		case d, ok = <-deliveries:
		}
		if !ok {
			return errors.New("rabbitmq deliveries closed")
		}

		err := handler(ctx, Message{
			ID:          d.MessageId,
			Data:        d.Body,
			Attributes:  headerStrings(d.Headers),
			Redelivered: d.Redelivered,
		})
		if err == nil {
			_ = d.Ack(false)
			continue
		}
		_ = d.Nack(false, !d.Redelivered)
	}
}

func (r *RabbitMQ) Close() error {
	return errors.Join(r.ch.Close(), r.conn.Close())
}

func (r *RabbitMQ) declare(queue string) error {
	if strings.TrimSpace(queue) == "" {
		return errNoChannel
	}
	_, err := r.ch.QueueDeclare(queue, r.cfg.QueueDurable, r.cfg.QueueAutoDelete, false, false, nil)
	return err
}

// headerStrings flattens AMQP headers into message attributes.
func headerStrings(headers amqp.Table) map[string]string {
	if len(headers) == 0 {
		return nil
	}
	out := make(map[string]string, len(headers))
	for k, v := range headers {
		if b, ok := v.([]byte); ok {
			out[k] = string(b)
			continue
		}
		out[k] = fmt.Sprint(v)
	}
	return out
}
