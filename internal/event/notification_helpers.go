package event

import (
	"context"
	"fmt"
	"log/slog"

	"bantayani/internal/models"

	"github.com/google/uuid"
)

// Publisher is implemented by NotificationPublisher.
type Publisher interface {
	PublishNotification(ctx context.Context, event NotificationEvent) error
}

// NotificationHelper builds the domain notifications. Publish failures are
// logged and never fail the calling mutation.
type NotificationHelper struct {
	publisher Publisher
}

func NewNotificationHelper(publisher Publisher) *NotificationHelper {
	return &NotificationHelper{publisher: publisher}
}

func (h *NotificationHelper) NotifyDetectionReviewed(ctx context.Context, d *models.Detection) {
	title := "Pest report verified"
	if d.Status == models.StatusRejected {
		title = "Pest report rejected"
	}
	body := fmt.Sprintf("Your %s report on %s was %s by the LGU.", d.PestType, d.CropType, d.Status)
	if d.ReviewerNotes != nil && *d.ReviewerNotes != "" {
		body += " Note: " + *d.ReviewerNotes
	}
	h.publish(ctx, NotificationEvent{
		Type:         TypeDetectionReviewed,
		RecipientIDs: []string{d.FarmerID.String()},
		Title:        title,
		Body:         body,
		Data:         map[string]string{"detection_id": d.ID.String(), "status": string(d.Status)},
	})
}

func (h *NotificationHelper) NotifyDetectionSubmitted(ctx context.Context, reviewers []uuid.UUID, d *models.Detection) {
	if len(reviewers) == 0 {
		return
	}
	h.publish(ctx, NotificationEvent{
		Type:         TypeDetectionSubmitted,
		RecipientIDs: idStrings(reviewers),
		Title:        "New pest report",
		Body:         fmt.Sprintf("A farmer reported %s on %s.", d.PestType, d.CropType),
		Data:         map[string]string{"detection_id": d.ID.String()},
	})
}

func (h *NotificationHelper) NotifyInfoRequested(ctx context.Context, farmerID, detectionID uuid.UUID, message string) {
	h.publish(ctx, NotificationEvent{
		Type:         TypeInfoRequested,
		RecipientIDs: []string{farmerID.String()},
		Title:        "More information needed",
		Body:         message,
		Data:         map[string]string{"detection_id": detectionID.String()},
	})
}

func (h *NotificationHelper) NotifyNewMessage(ctx context.Context, m *models.Message, senderName string) {
	data := map[string]string{"message_id": m.ID.String(), "sender_id": m.SenderID.String()}
	if m.DetectionID != nil {
		data["detection_id"] = m.DetectionID.String()
	}
	h.publish(ctx, NotificationEvent{
		Type:         TypeNewMessage,
		RecipientIDs: []string{m.RecipientID.String()},
		Title:        "New message from " + senderName,
		Body:         m.Body,
		Data:         data,
	})
}

func (h *NotificationHelper) NotifyAdvisory(ctx context.Context, recipients []uuid.UUID, a *models.Advisory) {
	if len(recipients) == 0 {
		return
	}
	h.publish(ctx, NotificationEvent{
		Type:         TypeAdvisory,
		RecipientIDs: idStrings(recipients),
		Title:        fmt.Sprintf("[%s] %s", a.Severity, a.Title),
		Body:         a.Body,
		Data:         map[string]string{"advisory_id": a.ID.String(), "severity": string(a.Severity)},
	})
}

func (h *NotificationHelper) publish(ctx context.Context, ev NotificationEvent) {
	if h == nil || h.publisher == nil {
		return
	}
	if err := h.publisher.PublishNotification(ctx, ev); err != nil {
		slog.Error("failed to publish notification", "type", ev.Type, "error", err)
	}
}

func idStrings(ids []uuid.UUID) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = id.String()
	}
	return out
}
