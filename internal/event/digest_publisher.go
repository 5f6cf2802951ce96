package event

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"smartharvester/internal/models"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
)

// DigestPublisher publishes per-user digest messages to a durable queue.
type DigestPublisher struct {
	conn              *RabbitMQConnection
	queue             string
	messagesPublished int64
	messagesFailed    int64
	lastPublishTime   time.Time
}

// NewDigestPublisher creates a publisher bound to the configured queue.
// A missing queue name is a configuration error discovered before any
// scan starts.
func NewDigestPublisher(conn *RabbitMQConnection, queue string) (*DigestPublisher, error) {
	if queue == "" {
		return nil, fmt.Errorf("%w: digest queue not configured", models.ErrConfigMissing)
	}
	return &DigestPublisher{
		conn:            conn,
		queue:           queue,
		lastPublishTime: time.Now(),
	}, nil
}

// Publish sends one digest message and returns its message id.
func (p *DigestPublisher) Publish(ctx context.Context, subject, message string) (string, error) {
	_, err := p.conn.Channel.QueueDeclare(
		p.queue, // queue name
		true,    // durable
		false,   // delete when unused
		false,   // exclusive
		false,   // no-wait
		nil,     // arguments
	)
	if err != nil {
		p.messagesFailed++
		return "", fmt.Errorf("%w: failed to declare queue: %w", models.ErrPublishFailure, err)
	}

	body, err := json.Marshal(DigestMessage{Subject: subject, Body: message})
	if err != nil {
		p.messagesFailed++
		return "", fmt.Errorf("%w: failed to marshal digest: %w", models.ErrPublishFailure, err)
	}

	messageID := uuid.NewString()
	err = p.conn.Channel.PublishWithContext(
		ctx,
		"",      // exchange
		p.queue, // routing key (queue name)
		false,   // mandatory
		false,   // immediate
		amqp.Publishing{
			DeliveryMode: amqp.Persistent,
			ContentType:  "application/json",
			MessageId:    messageID,
			Body:         body,
			Timestamp:    time.Now(),
		},
	)
	if err != nil {
		p.messagesFailed++
		return "", fmt.Errorf("%w: %w", models.ErrPublishFailure, err)
	}

	p.messagesPublished++
	p.lastPublishTime = time.Now()

	slog.Info("Digest published",
		"queue", p.queue,
		"subject", subject,
		"message_id", messageID,
	)
	return messageID, nil
}

// Metrics returns publisher counters for operators.
func (p *DigestPublisher) Metrics() map[string]any {
	return map[string]any{
		"messages_published": p.messagesPublished,
		"messages_failed":    p.messagesFailed,
		"last_publish_time":  p.lastPublishTime,
		"queue":              p.queue,
	}
}

// PublisherHealthStatus represents the health status of the publisher.
type PublisherHealthStatus struct {
	IsHealthy         bool      `json:"is_healthy"`
	MessagesPublished int64     `json:"messages_published"`
	MessagesFailed    int64     `json:"messages_failed"`
	LastPublishTime   time.Time `json:"last_publish_time"`
	Queue             string    `json:"queue"`
}

// HealthCheck returns the health status of the publisher.
func (p *DigestPublisher) HealthCheck() PublisherHealthStatus {
	isHealthy := p.conn != nil && p.conn.Connection != nil && !p.conn.Connection.IsClosed()

	return PublisherHealthStatus{
		IsHealthy:         isHealthy,
		MessagesPublished: p.messagesPublished,
		MessagesFailed:    p.messagesFailed,
		LastPublishTime:   p.lastPublishTime,
		Queue:             p.queue,
	}
}
