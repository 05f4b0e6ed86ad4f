package event

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"bantayani/internal/metrics"

	"github.com/redis/go-redis/v9"
)

// ChangeFeed publishes and relays table change events over Redis pub/sub.
type ChangeFeed struct {
	client  *redis.Client
	metrics *metrics.Metrics
}

func NewChangeFeed(client *redis.Client, m *metrics.Metrics) *ChangeFeed {
	return &ChangeFeed{client: client, metrics: m}
}

// Publish announces that table changed. Errors are returned but callers
// treat them as non-fatal.
func (f *ChangeFeed) Publish(ctx context.Context, table string) error {
	payload, err := json.Marshal(ChangeEvent{Table: table, Event: EventChanged, At: time.Now().UTC()})
	if err != nil {
		return fmt.Errorf("failed to marshal change event: %w", err)
	}
	if err := f.client.Publish(ctx, ChangeChannel, payload).Err(); err != nil {
		return fmt.Errorf("failed to publish change event: %w", err)
	}
	f.metrics.RecordChangeEvent(table)
	return nil
}

// Subscribe streams change events until ctx is done. The returned channel
// is closed when the subscription ends.
func (f *ChangeFeed) Subscribe(ctx context.Context) (<-chan ChangeEvent, error) {
	sub := f.client.Subscribe(ctx, ChangeChannel)
	if _, err := sub.Receive(ctx); err != nil {
		sub.Close()
		return nil, fmt.Errorf("failed to subscribe to %s: %w", ChangeChannel, err)
	}

	out := make(chan ChangeEvent, 16)
	go func() {
		defer close(out)
		defer sub.Close()

		msgs := sub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-msgs:
				if !ok {
					return
				}
				var ev ChangeEvent
				if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
					slog.Warn("dropping malformed change event", "payload", msg.Payload, "error", err)
					continue
				}
				select {
				case out <- ev:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out, nil
}
