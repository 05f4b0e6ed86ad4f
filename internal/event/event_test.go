package event

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"bantayani/internal/models"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeChannel struct {
	mu        sync.Mutex
	published []amqp.Publishing
	keys      []string
	err       error
}

func (f *fakeChannel) PublishWithContext(_ context.Context, _, key string, _, _ bool, msg amqp.Publishing) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.keys = append(f.keys, key)
	f.published = append(f.published, msg)
	return nil
}

func TestNotificationPublisher_Publish(t *testing.T) {
	ch := &fakeChannel{}
	p := &NotificationPublisher{ch: ch}

	err := p.PublishNotification(context.Background(), NotificationEvent{
		Type:         TypeDetectionReviewed,
		RecipientIDs: []string{"u1"},
		Title:        "t",
		Body:         "b",
	})

	require.NoError(t, err)
	require.Len(t, ch.published, 1)
	assert.Equal(t, NotificationQueue, ch.keys[0])
	assert.Equal(t, amqp.Persistent, ch.published[0].DeliveryMode)

	var got NotificationEvent
	require.NoError(t, json.Unmarshal(ch.published[0].Body, &got))
	assert.NotEmpty(t, got.ID)
	assert.Equal(t, []string{"u1"}, got.RecipientIDs)

	h := p.HealthCheck()
	assert.True(t, h.IsHealthy)
	assert.EqualValues(t, 1, h.MessagesPublished)
}

func TestNotificationPublisher_PublishFailure(t *testing.T) {
	p := &NotificationPublisher{ch: &fakeChannel{err: errors.New("channel closed")}}

	err := p.PublishNotification(context.Background(), NotificationEvent{Type: TypeAdvisory})

	assert.Error(t, err)
	assert.EqualValues(t, 1, p.HealthCheck().MessagesFailed)
}

type recordingPublisher struct {
	events []NotificationEvent
	err    error
}

func (r *recordingPublisher) PublishNotification(_ context.Context, ev NotificationEvent) error {
	r.events = append(r.events, ev)
	return r.err
}

func TestNotificationHelper_DetectionReviewed(t *testing.T) {
	pub := &recordingPublisher{}
	h := NewNotificationHelper(pub)
	note := "Apply neem extract"
	d := &models.Detection{
		ID: uuid.New(), FarmerID: uuid.New(), PestType: "Rice bug", CropType: "Rice",
		Status: models.StatusRejected, ReviewerNotes: &note,
	}

	h.NotifyDetectionReviewed(context.Background(), d)

	require.Len(t, pub.events, 1)
	ev := pub.events[0]
	assert.Equal(t, TypeDetectionReviewed, ev.Type)
	assert.Equal(t, []string{d.FarmerID.String()}, ev.RecipientIDs)
	assert.Equal(t, "Pest report rejected", ev.Title)
	assert.Contains(t, ev.Body, note)
	assert.Equal(t, "rejected", ev.Data["status"])
}

func TestNotificationHelper_SwallowsErrorsAndSkipsEmpty(t *testing.T) {
	pub := &recordingPublisher{err: errors.New("broker down")}
	h := NewNotificationHelper(pub)

	assert.NotPanics(t, func() {
		h.NotifyInfoRequested(context.Background(), uuid.New(), uuid.New(), "closer photo please")
	})
	h.NotifyAdvisory(context.Background(), nil, &models.Advisory{})
	assert.Len(t, pub.events, 1)

	var nilHelper *NotificationHelper
	assert.NotPanics(t, func() { nilHelper.NotifyNewMessage(context.Background(), &models.Message{}, "x") })
}

func TestChangeFeed_PublishSubscribe(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	feed := NewChangeFeed(client, nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	events, err := feed.Subscribe(ctx)
	require.NoError(t, err)

	require.NoError(t, feed.Publish(ctx, models.TableDetections))

	select {
	case ev := <-events:
		assert.Equal(t, models.TableDetections, ev.Table)
		assert.Equal(t, EventChanged, ev.Event)
		assert.False(t, ev.At.IsZero())
	case <-time.After(2 * time.Second):
		t.Fatal("change event not received")
	}

	cancel()
	require.Eventually(t, func() bool {
		_, ok := <-events
		return !ok
	}, 2*time.Second, 10*time.Millisecond)
}
