package events

import (
	"context"
	"encoding/json"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

// Channel is the subset of *amqp.Channel the publisher uses.
type Channel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
}

// AMQPPublisher forwards dispatched events to a RabbitMQ topic exchange,
// routed by event type.
type AMQPPublisher struct {
	channel  Channel
	exchange string
	logger   *zap.Logger
}

// NewAMQPPublisher returns a publisher for exchange.
func NewAMQPPublisher(channel Channel, exchange string, logger *zap.Logger) *AMQPPublisher {
	return &AMQPPublisher{channel: channel, exchange: exchange, logger: logger}
}

// Register subscribes the publisher to every event type on dispatcher.
func (p *AMQPPublisher) Register(dispatcher Dispatcher) {
	dispatcher.SubscribeAll(p.Handle)
}

// Handle publishes one event as a persistent JSON message.
func (p *AMQPPublisher) Handle(ctx context.Context, event Event) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encode event %s: %w", event.ID, err)
	}

	err = p.channel.PublishWithContext(ctx,
		p.exchange,
		string(event.Type),
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			MessageId:    event.ID,
			Timestamp:    event.Timestamp,
			Type:         string(event.Type),
			Body:         body,
		},
	)
	if err != nil {
		p.logger.Error("failed to publish event",
			zap.String("event_id", event.ID),
			zap.String("event_type", string(event.Type)),
			zap.Error(err))
		return err
	}
	p.logger.Debug("event published",
		zap.String("exchange", p.exchange),
		zap.String("event_type", string(event.Type)))
	return nil
}
