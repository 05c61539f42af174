package rabbitmq

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/goliatone/go-registration/pkg/types"
)

// Sender delivers a message immediately. *mailer.Mailer satisfies it.
type Sender interface {
	Send(ctx context.Context, msg *types.Message) ([]types.SentMessage, error)
}

// Consumer drains queued mail and hands each message to a Sender.
type Consumer struct {
	url      string
	opts     Options
	sender   Sender
	logger   types.Logger
	prefetch int
}

// NewConsumer builds a consumer. Run opens the connection.
func NewConsumer(url string, opts Options, sender Sender, logger types.Logger) (*Consumer, error) {
	if sender == nil {
		return nil, errors.New("rabbitmq: sender is required")
	}
	if logger == nil {
		logger = types.NopLogger{}
	}
	return &Consumer{
		url:      url,
		opts:     opts.withDefaults(),
		sender:   sender,
		logger:   logger,
		prefetch: 10,
	}, nil
}

// Run connects, declares the topology and consumes until ctx is done.
func (c *Consumer) Run(ctx context.Context) error {
	conn, err := amqp.Dial(c.url)
	if err != nil {
		return fmt.Errorf("rabbitmq dial: %w", err)
	}
	defer conn.Close()

	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("rabbitmq channel: %w", err)
	}
	defer ch.Close()

	if err := declareTopology(ch, c.opts); err != nil {
		return err
	}
	if err := ch.Qos(c.prefetch, 0, false); err != nil {
		return fmt.Errorf("qos: %w", err)
	}

	deliveries, err := ch.Consume(c.opts.Queue, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("consume: %w", err)
	}
	c.logger.Info("mail consumer started", "queue", c.opts.Queue, "exchange", c.opts.Exchange)
	return c.Consume(ctx, deliveries)
}

// Consume processes deliveries until ctx is done or the channel closes.
func (c *Consumer) Consume(ctx context.Context, deliveries <-chan amqp.Delivery) error {
	for {
		select {
		case <-ctx.Done():
			c.logger.Info("mail consumer shutting down")
			return nil
		case d, ok := <-deliveries:
			if !ok {
				return errors.New("rabbitmq: delivery channel closed")
			}
			c.handle(ctx, d)
		}
	}
}

// handle acks sent messages, drops malformed ones and requeues a failed
// send once.
func (c *Consumer) handle(ctx context.Context, d amqp.Delivery) {
	var msg types.Message
	if err := json.Unmarshal(d.Body, &msg); err != nil {
		c.logger.Error("mail consumer: malformed message", err, "delivery_tag", d.DeliveryTag)
		_ = d.Nack(false, false)
		return
	}

	sent, err := c.sender.Send(ctx, &msg)
	if err != nil {
		c.logger.Error("mail consumer: send failed", err,
			"template", msg.Template,
			"redelivered", d.Redelivered,
		)
		_ = d.Nack(false, !d.Redelivered)
		return
	}

	c.logger.Debug("mail consumer: delivered", "template", msg.Template, "sent", len(sent))
	_ = d.Ack(false)
}
