package repository

import (
	"context"
	"fmt"
	"time"

	"bantayani/internal/models"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

const messageColumns = `id, sender_id, recipient_id, detection_id, body, is_read, created_at`

// MessageRepository is append-only apart from the read flag.
type MessageRepository struct {
	db *sqlx.DB
}

func NewMessageRepository(db *sqlx.DB) *MessageRepository {
	return &MessageRepository{db: db}
}

func (r *MessageRepository) Create(ctx context.Context, m *models.Message) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	m.CreatedAt = time.Now()

	query := `
		INSERT INTO messages (id, sender_id, recipient_id, detection_id, body, is_read, created_at)
		VALUES ($1, $2, $3, $4, $5, FALSE, $6)`
	if _, err := r.db.ExecContext(ctx, query, m.ID, m.SenderID, m.RecipientID, m.DetectionID, m.Body, m.CreatedAt); err != nil {
		return fmt.Errorf("failed to create message: %w", err)
	}
	return nil
}

// Conversation returns the messages exchanged between a and b, oldest first.
func (r *MessageRepository) Conversation(ctx context.Context, a, b uuid.UUID) ([]models.Message, error) {
	query := `SELECT ` + messageColumns + ` FROM messages
		WHERE (sender_id = $1 AND recipient_id = $2) OR (sender_id = $2 AND recipient_id = $1)
		ORDER BY created_at ASC`
	list := []models.Message{}
	if err := r.db.SelectContext(ctx, &list, query, a, b); err != nil {
		return nil, fmt.Errorf("failed to load conversation: %w", err)
	}
	return list, nil
}

// ListForUser returns every message the user sent or received, oldest first.
func (r *MessageRepository) ListForUser(ctx context.Context, userID uuid.UUID) ([]models.Message, error) {
	query := `SELECT ` + messageColumns + ` FROM messages
		WHERE sender_id = $1 OR recipient_id = $1
		ORDER BY created_at ASC`
	list := []models.Message{}
	if err := r.db.SelectContext(ctx, &list, query, userID); err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}
	return list, nil
}

// MarkRead flags a message as read. Only the recipient may do so.
func (r *MessageRepository) MarkRead(ctx context.Context, id, recipientID uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, `UPDATE messages SET is_read = TRUE WHERE id = $1 AND recipient_id = $2`, id, recipientID)
	if err != nil {
		return fmt.Errorf("failed to mark message read: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%w: message %s", models.ErrNotFound, id)
	}
	return nil
}

func (r *MessageRepository) UnreadCount(ctx context.Context, recipientID uuid.UUID) (int, error) {
	var count int
	if err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM messages WHERE recipient_id = $1 AND is_read = FALSE`, recipientID); err != nil {
		return 0, fmt.Errorf("failed to count unread messages: %w", err)
	}
	return count, nil
}
