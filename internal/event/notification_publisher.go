package event

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"bantayani/internal/metrics"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
)

// amqpPublisher is the subset of *amqp.Channel the publisher needs.
type amqpPublisher interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
}

// NotificationPublisher publishes notification events to RabbitMQ.
type NotificationPublisher struct {
	ch                amqpPublisher
	isClosed          func() bool
	metrics           *metrics.Metrics
	messagesPublished atomic.Int64
	messagesFailed    atomic.Int64
	lastPublishUnix   atomic.Int64
}

func NewNotificationPublisher(conn *RabbitMQConnection, m *metrics.Metrics) (*NotificationPublisher, error) {
	if err := DeclareNotificationQueues(conn.Channel); err != nil {
		return nil, err
	}
	return &NotificationPublisher{ch: conn.Channel, isClosed: conn.IsClosed, metrics: m}, nil
}

func (p *NotificationPublisher) PublishNotification(ctx context.Context, event NotificationEvent) error {
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now()
	}

	body, err := json.Marshal(event)
	if err != nil {
		p.fail(event)
		return fmt.Errorf("failed to marshal notification event: %w", err)
	}

	err = p.ch.PublishWithContext(ctx, "", NotificationQueue, false, false, amqp.Publishing{
		DeliveryMode: amqp.Persistent,
		ContentType:  "application/json",
		MessageId:    event.ID,
		Body:         body,
		Timestamp:    event.CreatedAt,
	})
	if err != nil {
		p.fail(event)
		return fmt.Errorf("failed to publish notification event: %w", err)
	}

	p.messagesPublished.Add(1)
	p.lastPublishUnix.Store(time.Now().Unix())
	p.metrics.RecordNotificationQueued(string(event.Type), "ok")

	slog.Info("notification event published",
		"queue", NotificationQueue,
		"type", event.Type,
		"recipient_count", len(event.RecipientIDs),
	)
	return nil
}

func (p *NotificationPublisher) fail(event NotificationEvent) {
	p.messagesFailed.Add(1)
	p.metrics.RecordNotificationQueued(string(event.Type), "error")
}

type PublisherHealthStatus struct {
	IsHealthy         bool      `json:"is_healthy"`
	MessagesPublished int64     `json:"messages_published"`
	MessagesFailed    int64     `json:"messages_failed"`
	LastPublishTime   time.Time `json:"last_publish_time"`
	Queue             string    `json:"queue"`
}

func (p *NotificationPublisher) HealthCheck() PublisherHealthStatus {
	healthy := p.ch != nil && (p.isClosed == nil || !p.isClosed())
	var last time.Time
	if ts := p.lastPublishUnix.Load(); ts > 0 {
		last = time.Unix(ts, 0)
	}
	return PublisherHealthStatus{
		IsHealthy:         healthy,
		MessagesPublished: p.messagesPublished.Load(),
		MessagesFailed:    p.messagesFailed.Load(),
		LastPublishTime:   last,
		Queue:             NotificationQueue,
	}
}
