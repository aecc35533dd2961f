package persistence

import (
	"context"
	"errors"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"github.com/ivd-portal/inscription-service/internal/config"
)

// AMQP holds a RabbitMQ connection and channel with a declared topic exchange.
// Both are nil when AMQP_URL is unset.
type AMQP struct {
	Conn     *amqp.Connection
	Channel  *amqp.Channel
	Exchange string
}

// NewAMQP dials RabbitMQ and declares the exchange domain events are published to.
func NewAMQP(cfg config.AMQPConfig, logger *zap.Logger) (*AMQP, error) {
	if cfg.URL == "" {
		logger.Info("AMQP_URL not provided; event fan-out disabled")
		return &AMQP{Exchange: cfg.Exchange}, nil
	}

	conn, err := amqp.Dial(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("dial amqp: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("open amqp channel: %w", err)
	}

	if err := ch.ExchangeDeclare(
		cfg.Exchange,
		"topic",
		true,
		false,
		false,
		false,
		nil,
	); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("declare exchange %s: %w", cfg.Exchange, err)
	}

	logger.Info("connected to rabbitmq", zap.String("exchange", cfg.Exchange))
	return &AMQP{Conn: conn, Channel: ch, Exchange: cfg.Exchange}, nil
}

// Enabled reports whether a channel is open.
func (a *AMQP) Enabled() bool {
	return a != nil && a.Channel != nil
}

// Ping reports whether the broker connection is still open. An unconfigured
// broker reports ok.
func (a *AMQP) Ping(_ context.Context) error {
	if !a.Enabled() {
		return nil
	}
	if a.Conn.IsClosed() || a.Channel.IsClosed() {
		return errors.New("amqp connection closed")
	}
	return nil
}

// Close closes the channel and connection.
func (a *AMQP) Close() {
	if a == nil {
		return
	}
	if a.Channel != nil {
		_ = a.Channel.Close()
	}
	if a.Conn != nil {
		_ = a.Conn.Close()
	}
}
