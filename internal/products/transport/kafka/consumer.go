package kafka

import (
	"context"
	"encoding/json"

	"github.com/IBM/sarama"
	"github.com/PedroFabrino/nameko-devex/internal/products/domain"
	"github.com/PedroFabrino/nameko-devex/internal/products/service"
	pkgkafka "github.com/PedroFabrino/nameko-devex/pkg/kafka"
	"github.com/PedroFabrino/nameko-devex/pkg/mylogger"
	"go.uber.org/zap"
)

const (
	orderEventsTopic = "order_events"
	consumerGroupID  = "products-service-group"

	eventTypeOrderCreated = "order_created"
)

type eventEnvelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type handlerFunc func(ctx context.Context, payload json.RawMessage) error

// Consumer routes order events to their handlers. The dispatch table is
// built once in NewConsumer and never mutated afterwards, so processMessage
// reads it without locking.
type Consumer struct {
	reconciler *service.StockReconciler
	logger     *zap.Logger
	handlers   map[string]handlerFunc
}

func NewConsumer(reconciler *service.StockReconciler, logger *zap.Logger) *Consumer {
	c := &Consumer{
		reconciler: reconciler,
		logger:     logger,
	}

	c.handlers = map[string]handlerFunc{
		eventTypeOrderCreated: c.handleOrderCreated,
	}

	return c
}

// Start blocks until ctx is cancelled.
func (c *Consumer) Start(ctx context.Context, brokers []string) {
	group := pkgkafka.NewConsumerGroup(
		brokers,
		consumerGroupID,
		[]string{orderEventsTopic},
		c.processMessage,
		c.logger,
	)

	group.Run(ctx)
}

// processMessage acknowledges messages it cannot act on. Malformed payloads
// and unknown event types would fail identically on every redelivery, so
// they are logged and dropped rather than retried forever.
func (c *Consumer) processMessage(ctx context.Context, msg *sarama.ConsumerMessage) error {
	var envelope eventEnvelope
	if err := json.Unmarshal(msg.Value, &envelope); err != nil {
		mylogger.Error(
			ctx,
			c.logger,
			"Failed to unmarshal event envelope",
			zap.String("topic", msg.Topic),
			zap.Int64("offset", msg.Offset),
			zap.Error(err),
		)

		return nil
	}

	handler, ok := c.handlers[envelope.Type]
	if !ok {
		mylogger.Warn(
			ctx,
			c.logger,
			"Unknown event type, skipping",
			zap.String("event_type", envelope.Type),
			zap.String("topic", msg.Topic),
		)

		return nil
	}

	return handler(ctx, envelope.Payload)
}

func (c *Consumer) handleOrderCreated(ctx context.Context, payload json.RawMessage) error {
	var event domain.OrderCreatedEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		mylogger.Error(
			ctx,
			c.logger,
			"Failed to unmarshal order created event",
			zap.Error(err),
		)

		return nil
	}

	if event.OrderID == 0 {
		mylogger.Warn(ctx, c.logger, "Order created event without order id, skipping")

		return nil
	}

	return c.reconciler.HandleOrderCreated(ctx, &event)
}
