package notifier

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"bantayani/internal/event"
	"bantayani/internal/metrics"
	"bantayani/internal/models"

	"github.com/google/uuid"
)

type Push struct {
	Title string
	Body  string
	Data  map[string]string
}

type PushSender interface {
	SendToTokens(ctx context.Context, tokens []string, push Push) ([]string, error)
}

type Mailer interface {
	Send(to, subject, html string) error
}

type UserDirectory interface {
	ListByIDs(ctx context.Context, ids []uuid.UUID) ([]models.User, error)
}

type TokenDirectory interface {
	ListByUsers(ctx context.Context, userIDs []uuid.UUID) ([]models.DeviceToken, error)
	Delete(ctx context.Context, token string) error
}

// Dispatcher delivers one notification event over push and e-mail.
type Dispatcher struct {
	users   UserDirectory
	tokens  TokenDirectory
	push    PushSender
	mail    Mailer
	metrics *metrics.Metrics
}

func NewDispatcher(users UserDirectory, tokens TokenDirectory, push PushSender, mail Mailer, m *metrics.Metrics) *Dispatcher {
	return &Dispatcher{users: users, tokens: tokens, push: push, mail: mail, metrics: m}
}

// Deliver returns an error only when a retry could help: directory lookups or
// every channel failing.
func (d *Dispatcher) Deliver(ctx context.Context, ev event.NotificationEvent) error {
	ids := parseIDs(ev.RecipientIDs)
	if len(ids) == 0 {
		slog.Warn("notification has no valid recipients", "id", ev.ID, "type", ev.Type)
		return nil
	}

	var errs []error
	if err := d.deliverPush(ctx, ids, ev); err != nil {
		errs = append(errs, err)
	}
	if err := d.deliverEmail(ctx, ids, ev); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

func (d *Dispatcher) deliverPush(ctx context.Context, ids []uuid.UUID, ev event.NotificationEvent) error {
	if d.push == nil {
		return nil
	}
	devices, err := d.tokens.ListByUsers(ctx, ids)
	if err != nil {
		return fmt.Errorf("failed to load device tokens: %w", err)
	}
	if len(devices) == 0 {
		return nil
	}
	tokens := make([]string, len(devices))
	for i, dt := range devices {
		tokens[i] = dt.Token
	}

	data := map[string]string{"type": string(ev.Type), "notification_id": ev.ID}
	for k, v := range ev.Data {
		data[k] = v
	}

	stale, err := d.push.SendToTokens(ctx, tokens, Push{Title: ev.Title, Body: ev.Body, Data: data})
	for _, token := range stale {
		if derr := d.tokens.Delete(ctx, token); derr != nil {
			slog.Warn("failed to remove stale device token", "error", derr)
		}
	}
	if err != nil {
		d.metrics.RecordDelivery("push", "error")
		return fmt.Errorf("push delivery failed: %w", err)
	}
	d.metrics.RecordDelivery("push", "ok")
	slog.Info("push notification sent", "id", ev.ID, "type", ev.Type, "tokens", len(tokens), "stale", len(stale))
	return nil
}

func (d *Dispatcher) deliverEmail(ctx context.Context, ids []uuid.UUID, ev event.NotificationEvent) error {
	if d.mail == nil || !emailTypes[ev.Type] {
		return nil
	}
	users, err := d.users.ListByIDs(ctx, ids)
	if err != nil {
		return fmt.Errorf("failed to load recipients: %w", err)
	}

	failed := 0
	for _, u := range users {
		subject, body := EmailTemplate(u.DisplayName, ev)
		if err := d.mail.Send(u.Email, subject, body); err != nil {
			failed++
			slog.Warn("email delivery failed", "id", ev.ID, "user_id", u.ID, "error", err)
		}
	}
	if failed > 0 && failed == len(users) {
		d.metrics.RecordDelivery("email", "error")
		return fmt.Errorf("email delivery failed for all %d recipients", failed)
	}
	d.metrics.RecordDelivery("email", "ok")
	return nil
}

func parseIDs(raw []string) []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(raw))
	for _, s := range raw {
		id, err := uuid.Parse(s)
		if err != nil {
			continue
		}
		ids = append(ids, id)
	}
	return ids
}
