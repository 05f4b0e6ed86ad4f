package event

import "time"

type NotificationType string

const (
	TypeDetectionSubmitted NotificationType = "detection_submitted"
	TypeDetectionReviewed  NotificationType = "detection_reviewed"
	TypeInfoRequested      NotificationType = "info_requested"
	TypeNewMessage         NotificationType = "new_message"
	TypeAdvisory           NotificationType = "advisory"
)

// NotificationEvent is the message body on NotificationQueue.
type NotificationEvent struct {
	ID           string            `json:"id"`
	Type         NotificationType  `json:"type"`
	RecipientIDs []string          `json:"recipient_ids"`
	Title        string            `json:"title"`
	Body         string            `json:"body"`
	Data         map[string]string `json:"data,omitempty"`
	CreatedAt    time.Time         `json:"created_at"`
}

const (
	NotificationQueue  = "notification_events"
	NotificationDLQ    = "notification_events.dlq"
	RetryCountHeader   = "x-retry-count"
	MaxDeliveryRetries = 3
	ChangeChannel      = "bantayani:changes"
	EventChanged       = "changed"
)

// ChangeEvent announces that a table changed. It carries no diff.
type ChangeEvent struct {
	Table string    `json:"table"`
	Event string    `json:"event"`
	At    time.Time `json:"at"`
}
