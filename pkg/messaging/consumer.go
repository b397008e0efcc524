package messaging

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/leadhub/leadhub-backend/pkg/logger"
	amqp "github.com/rabbitmq/amqp091-go"
)

// RetryHeader counts redeliveries performed by the consumer itself.
const RetryHeader = "x-retry-count"

// MaxRetries is how often a failing message is retried before it is dead-lettered.
const MaxRetries = 3

// MessageHandler is a function that handles a message
type MessageHandler func(ctx context.Context, event *Event) error

// Outcome tells the consumer what to do with a delivery.
type Outcome int

const (
	OutcomeAck Outcome = iota
	OutcomeRetry
	OutcomeDeadLetter
)

// Consumer handles consuming events from RabbitMQ
type Consumer struct {
	rmq       *RabbitMQ
	queueName string
	router    *Router
	logger    *logger.Logger
}

// NewConsumer declares queueName and returns a consumer for it.
func NewConsumer(rmq *RabbitMQ, queueName string, log *logger.Logger) (*Consumer, error) {
	if _, err := rmq.DeclareQueue(queueName); err != nil {
		return nil, fmt.Errorf("failed to declare queue %s: %w", queueName, err)
	}

	return &Consumer{
		rmq:       rmq,
		queueName: queueName,
		router:    NewRouter(log),
		logger:    log,
	}, nil
}

// Subscribe binds the queue to an exchange with a routing key pattern
func (c *Consumer) Subscribe(exchange, routingKeyPattern string) error {
	if err := c.rmq.DeclareExchange(exchange); err != nil {
		return fmt.Errorf("failed to declare exchange: %w", err)
	}
	if err := c.rmq.BindQueue(c.queueName, exchange, routingKeyPattern); err != nil {
		return fmt.Errorf("failed to bind queue: %w", err)
	}

	c.logger.Info().
		Str("queue", c.queueName).
		Str("exchange", exchange).
		Str("routing_key", routingKeyPattern).
		Msg("subscribed to exchange")
	return nil
}

// RegisterHandler registers a handler for a specific event type
func (c *Consumer) RegisterHandler(eventType string, handler MessageHandler) {
	c.router.Handle(eventType, handler)
}

// Run consumes until ctx is cancelled or the delivery channel closes.
func (c *Consumer) Run(ctx context.Context) error {
	ch := c.rmq.Channel()
	msgs, err := ch.Consume(c.queueName, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("failed to start consuming: %w", err)
	}

	c.logger.Info().Str("queue", c.queueName).Msg("consumer started")

	for {
		select {
		case <-ctx.Done():
			c.logger.Info().Str("queue", c.queueName).Msg("consumer stopped")
			return nil
		case msg, ok := <-msgs:
			if !ok {
				return fmt.Errorf("delivery channel for %s closed", c.queueName)
			}
			c.settle(ctx, ch, msg)
		}
	}
}

func (c *Consumer) settle(ctx context.Context, ch *amqp.Channel, msg amqp.Delivery) {
	retries := retryCount(msg.Headers)

	switch c.router.Dispatch(ctx, msg.Body, retries) {
	case OutcomeAck:
		_ = msg.Ack(false)
	case OutcomeDeadLetter:
		_ = msg.Reject(false)
	case OutcomeRetry:
		headers := amqp.Table{}
		for k, v := range msg.Headers {
			headers[k] = v
		}
		headers[RetryHeader] = int32(retries + 1)

		err := ch.PublishWithContext(ctx, msg.Exchange, msg.RoutingKey, false, false, amqp.Publishing{
			ContentType:   msg.ContentType,
			DeliveryMode:  amqp.Persistent,
			CorrelationId: msg.CorrelationId,
			MessageId:     msg.MessageId,
			Headers:       headers,
			Body:          msg.Body,
		})
		if err != nil {
			c.logger.Error().Err(err).Msg("failed to republish for retry, requeueing")
			_ = msg.Nack(false, true)
			return
		}
		_ = msg.Ack(false)
	}
}

// Router maps event types to handlers and decides how a delivery is settled.
type Router struct {
	handlers map[string]MessageHandler
	logger   *logger.Logger
}

// NewRouter creates an empty router.
func NewRouter(log *logger.Logger) *Router {
	return &Router{handlers: make(map[string]MessageHandler), logger: log}
}

// Handle registers handler for eventType.
func (r *Router) Handle(eventType string, handler MessageHandler) {
	r.handlers[eventType] = handler
}

// Dispatch decodes body and runs the matching handler. Malformed bodies are
// dead-lettered; unknown types are acknowledged; failures are retried until
// MaxRetries is reached.
func (r *Router) Dispatch(ctx context.Context, body []byte, retries int) Outcome {
	var event Event
	if err := json.Unmarshal(body, &event); err != nil {
		r.logger.Error().Err(err).Msg("failed to unmarshal event")
		return OutcomeDeadLetter
	}

	handler, ok := r.handlers[event.Type]
	if !ok {
		r.logger.Debug().Str("event_type", event.Type).Msg("no handler registered for event type")
		return OutcomeAck
	}

	ctx = WithCorrelationID(ctx, event.CorrelationID)

	if err := handler(ctx, &event); err != nil {
		log := r.logger.Error().
			Err(err).
			Str("event_type", event.Type).
			Str("event_id", event.ID).
			Int("retry_count", retries)
		if retries >= MaxRetries {
			log.Msg("max retries exceeded, sending to DLQ")
			return OutcomeDeadLetter
		}
		log.Msg("failed to process event, retrying")
		return OutcomeRetry
	}
	return OutcomeAck
}

func retryCount(headers amqp.Table) int {
	switch v := headers[RetryHeader].(type) {
	case int32:
		return int(v)
	case int64:
		return int(v)
	case int:
		return v
	}
	return 0
}
