package notify

import (
	"context"

	"github.com/leadhub/leadhub-backend/pkg/logger"
	"github.com/leadhub/leadhub-backend/pkg/messaging"
)

// QueueName is the durable queue the worker reads from.
const QueueName = "notify-worker.mail"

// Consumer feeds mail events from RabbitMQ into an EventHandler.
type Consumer struct {
	consumer *messaging.Consumer
	handler  *EventHandler
	logger   *logger.Logger
}

// NewConsumer declares the queue, binds every handled event type on exchange
// and registers the handlers.
func NewConsumer(rmq *messaging.RabbitMQ, exchange string, handler *EventHandler, log *logger.Logger) (*Consumer, error) {
	consumer, err := messaging.NewConsumer(rmq, QueueName, log)
	if err != nil {
		return nil, err
	}

	for eventType, fn := range handler.Handlers() {
		if err := consumer.Subscribe(exchange, eventType); err != nil {
			return nil, err
		}
		consumer.RegisterHandler(eventType, fn)
	}

	return &Consumer{consumer: consumer, handler: handler, logger: log}, nil
}

// Run consumes until ctx is cancelled.
func (c *Consumer) Run(ctx context.Context) error {
	return c.consumer.Run(ctx)
}
