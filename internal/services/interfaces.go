package services

import (
	"context"
	"time"

	"bantayani/internal/models"

	"github.com/google/uuid"
)

type DetectionStore interface {
	Create(ctx context.Context, d *models.Detection) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.DetectionView, error)
	List(ctx context.Context, farmerID *uuid.UUID, filter models.DetectionFilter) ([]models.DetectionView, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status models.DetectionStatus, reviewer uuid.UUID, note *string, at time.Time) (*models.Detection, error)
}

type UserStore interface {
	Create(ctx context.Context, user *models.User) error
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	ListIDsByRole(ctx context.Context, role models.Role) ([]uuid.UUID, error)
}

type FarmStore interface {
	ListByFarmer(ctx context.Context, farmerID uuid.UUID) ([]models.Farm, error)
	Upsert(ctx context.Context, farm *models.Farm) (*models.Farm, error)
	Delete(ctx context.Context, farmerID uuid.UUID, slot int) error
}

type AdvisoryStore interface {
	Create(ctx context.Context, a *models.Advisory) error
	List(ctx context.Context, activeOnly bool) ([]models.Advisory, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.Advisory, error)
	Update(ctx context.Context, a *models.Advisory) error
}

type MessageStore interface {
	Create(ctx context.Context, m *models.Message) error
	Conversation(ctx context.Context, a, b uuid.UUID) ([]models.Message, error)
	ListForUser(ctx context.Context, userID uuid.UUID) ([]models.Message, error)
	MarkRead(ctx context.Context, id, recipientID uuid.UUID) error
	UnreadCount(ctx context.Context, recipientID uuid.UUID) (int, error)
}

type SessionStore interface {
	Create(ctx context.Context, session *models.UserSession) error
	Get(ctx context.Context, sessionID string) (*models.UserSession, error)
	Delete(ctx context.Context, sessionID string) error
}

type DeviceTokenStore interface {
	Upsert(ctx context.Context, userID uuid.UUID, token string) error
}

// ImageStore persists a photo and returns its public reference.
type ImageStore interface {
	PutImage(ctx context.Context, objectName string, data []byte, contentType string) (string, error)
	DeleteImage(ctx context.Context, objectName string) error
}

// ChangePublisher announces that a table changed.
type ChangePublisher interface {
	Publish(ctx context.Context, table string) error
}

type Notifications interface {
	NotifyDetectionSubmitted(ctx context.Context, reviewers []uuid.UUID, d *models.Detection)
	NotifyDetectionReviewed(ctx context.Context, d *models.Detection)
	NotifyInfoRequested(ctx context.Context, farmerID, detectionID uuid.UUID, message string)
	NotifyNewMessage(ctx context.Context, m *models.Message, senderName string)
	NotifyAdvisory(ctx context.Context, recipients []uuid.UUID, a *models.Advisory)
}

// PestIdentifier returns the raw model answer for one photo.
type PestIdentifier interface {
	IdentifyPest(ctx context.Context, image []byte, cropType string) (map[string]any, error)
}
