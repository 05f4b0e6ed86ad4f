package repository

import (
	"context"
	"fmt"

	"bantayani/internal/models"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

type DeviceTokenRepository struct {
	db *sqlx.DB
}

func NewDeviceTokenRepository(db *sqlx.DB) *DeviceTokenRepository {
	return &DeviceTokenRepository{db: db}
}

func (r *DeviceTokenRepository) Upsert(ctx context.Context, userID uuid.UUID, token string) error {
	query := `
		INSERT INTO device_tokens (user_id, token, created_at) VALUES ($1, $2, now())
		ON CONFLICT (user_id, token) DO NOTHING`
	if _, err := r.db.ExecContext(ctx, query, userID, token); err != nil {
		return fmt.Errorf("failed to register device token: %w", err)
	}
	return nil
}

func (r *DeviceTokenRepository) ListByUsers(ctx context.Context, userIDs []uuid.UUID) ([]models.DeviceToken, error) {
	tokens := []models.DeviceToken{}
	if len(userIDs) == 0 {
		return tokens, nil
	}
	query := `SELECT user_id, token, created_at FROM device_tokens WHERE user_id = ANY($1)`
	if err := r.db.SelectContext(ctx, &tokens, query, pq.Array(uuidStrings(userIDs))); err != nil {
		return nil, fmt.Errorf("failed to list device tokens: %w", err)
	}
	return tokens, nil
}

// Delete drops a token FCM reported as unregistered.
func (r *DeviceTokenRepository) Delete(ctx context.Context, token string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM device_tokens WHERE token = $1`, token); err != nil {
		return fmt.Errorf("failed to delete device token: %w", err)
	}
	return nil
}
