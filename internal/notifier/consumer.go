package notifier

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"bantayani/internal/event"
	"bantayani/internal/worker"

	amqp "github.com/rabbitmq/amqp091-go"
)

type amqpChannel interface {
	Qos(prefetchCount, prefetchSize int, global bool) error
	Consume(queue, consumer string, autoAck, exclusive, noLocal, noWait bool, args amqp.Table) (<-chan amqp.Delivery, error)
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
}

type Deliverer interface {
	Deliver(ctx context.Context, ev event.NotificationEvent) error
}

// QueueConsumer reads notification events with manual acks. A failed event is
// republished with an incremented retry header; after MaxDeliveryRetries it is
// rejected into the dead-letter queue.
type QueueConsumer struct {
	channel   amqpChannel
	deliverer Deliverer
	pool      *worker.WorkingPool
	prefetch  int
}

func NewQueueConsumer(ch amqpChannel, deliverer Deliverer, pool *worker.WorkingPool) *QueueConsumer {
	return &QueueConsumer{channel: ch, deliverer: deliverer, pool: pool, prefetch: pool.NumWorkers * 2}
}

func (q *QueueConsumer) StartConsuming(ctx context.Context) error {
	if err := q.channel.Qos(q.prefetch, 0, false); err != nil {
		return fmt.Errorf("failed to set QoS: %w", err)
	}
	msgs, err := q.channel.Consume(event.NotificationQueue, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("failed to register consumer: %w", err)
	}

	slog.Info("consuming notification events", "queue", event.NotificationQueue)
	for {
		select {
		case msg, ok := <-msgs:
			if !ok {
				return errors.New("delivery channel closed")
			}
			if err := q.pool.SubmitJob(ctx, func(ctx context.Context) error {
				return q.HandleDelivery(ctx, msg)
			}); err != nil {
				// unacked; the broker redelivers it after reconnect
				_ = msg.Nack(false, true)
				return nil
			}
		case <-ctx.Done():
			return nil
		}
	}
}

// HandleDelivery processes one message and settles it.
func (q *QueueConsumer) HandleDelivery(ctx context.Context, msg amqp.Delivery) error {
	var ev event.NotificationEvent
	if err := json.Unmarshal(msg.Body, &ev); err != nil {
		slog.Error("malformed notification event, dead-lettering", "error", err)
		return msg.Nack(false, false)
	}

	err := q.deliverer.Deliver(ctx, ev)
	if err == nil {
		return msg.Ack(false)
	}

	retryCount := RetryCount(msg.Headers)
	if retryCount >= event.MaxDeliveryRetries {
		slog.Error("notification dead-lettered", "id", ev.ID, "type", ev.Type, "retries", retryCount, "error", err)
		return msg.Nack(false, false)
	}

	if perr := q.requeue(ctx, msg, retryCount+1); perr != nil {
		slog.Error("failed to republish notification", "id", ev.ID, "error", perr)
		return msg.Nack(false, true)
	}
	slog.Warn("notification delivery failed, retrying", "id", ev.ID, "type", ev.Type, "retry", retryCount+1, "error", err)
	return msg.Ack(false)
}

func (q *QueueConsumer) requeue(ctx context.Context, msg amqp.Delivery, retryCount int) error {
	headers := amqp.Table{}
	for k, v := range msg.Headers {
		headers[k] = v
	}
	headers[event.RetryCountHeader] = int32(retryCount)

	return q.channel.PublishWithContext(ctx, "", event.NotificationQueue, false, false, amqp.Publishing{
		DeliveryMode: amqp.Persistent,
		ContentType:  msg.ContentType,
		MessageId:    msg.MessageId,
		Headers:      headers,
		Body:         msg.Body,
	})
}

// RetryCount reads the retry header, tolerating the integer widths brokers use.
func RetryCount(headers amqp.Table) int {
	switch v := headers[event.RetryCountHeader].(type) {
	case int32:
		return int(v)
	case int64:
		return int(v)
	case int:
		return v
	case int16:
		return int(v)
	case int8:
		return int(v)
	}
	return 0
}
