// Package queue publishes communication events to an AMQP broker for
// downstream consumers (CRM sync, notification workers).
package queue

import (
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/streadway/amqp"
)

// Publisher sends communication events to interested consumers
type Publisher interface {
	Publish(event CommunicationEvent) error
	Close() error
}

// CommunicationEvent is the message shape pushed onto the queue
type CommunicationEvent struct {
	EventType       string `json:"event_type"`
	CompanyID       string `json:"company_id"`
	CommunicationID string `json:"communication_id"`
	Type            string `json:"communication_type"`
	Direction       string `json:"direction"`
	Category        string `json:"category"`
	OccurredAt      string `json:"occurred_at"`
}

// AMQPPublisher publishes events to a durable AMQP queue
type AMQPPublisher struct {
	conn    *amqp.Connection
	channel *amqp.Channel
	queue   string
	logger  *slog.Logger
}

// NewAMQPPublisher connects to the broker and declares the queue
func NewAMQPPublisher(url, queueName string, logger *slog.Logger) (*AMQPPublisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to AMQP broker: %w", err)
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open AMQP channel: %w", err)
	}

	_, err = channel.QueueDeclare(
		queueName,
		true,  // durable
		false, // auto-delete
		false, // exclusive
		false, // no-wait
		nil,
	)
	if err != nil {
		channel.Close()
		conn.Close()
		return nil, fmt.Errorf("failed to declare queue %q: %w", queueName, err)
	}

	return &AMQPPublisher{
		conn:    conn,
		channel: channel,
		queue:   queueName,
		logger:  logger,
	}, nil
}

// Publish sends one event as a persistent JSON message
func (p *AMQPPublisher) Publish(event CommunicationEvent) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	err = p.channel.Publish(
		"",      // default exchange
		p.queue, // routing key
		false,   // mandatory
		false,   // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Body:         body,
		},
	)
	if err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}

	if p.logger != nil {
		p.logger.Debug("event published",
			slog.String("event_type", event.EventType),
			slog.String("communication_id", event.CommunicationID))
	}
	return nil
}

// Close shuts down the channel and connection
func (p *AMQPPublisher) Close() error {
	if err := p.channel.Close(); err != nil {
		p.conn.Close()
		return err
	}
	return p.conn.Close()
}

// NoopPublisher drops events. Used when no broker is configured.
type NoopPublisher struct{}

// Publish discards the event
func (NoopPublisher) Publish(CommunicationEvent) error { return nil }

// Close is a no-op
func (NoopPublisher) Close() error { return nil }
