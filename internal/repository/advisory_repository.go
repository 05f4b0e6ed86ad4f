package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"bantayani/internal/models"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

const advisoryColumns = `id, title, body, severity, affected_crops, affected_regions, is_active, created_by, created_at, updated_at`

type AdvisoryRepository struct {
	db *sqlx.DB
}

func NewAdvisoryRepository(db *sqlx.DB) *AdvisoryRepository {
	return &AdvisoryRepository{db: db}
}

func (r *AdvisoryRepository) Create(ctx context.Context, a *models.Advisory) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	a.CreatedAt = time.Now()
	a.UpdatedAt = a.CreatedAt

	query := `
		INSERT INTO advisories (` + advisoryColumns + `)
		VALUES (:id, :title, :body, :severity, :affected_crops, :affected_regions, :is_active, :created_by, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, a); err != nil {
		return fmt.Errorf("failed to create advisory: %w", err)
	}
	return nil
}

func (r *AdvisoryRepository) List(ctx context.Context, activeOnly bool) ([]models.Advisory, error) {
	query := `SELECT ` + advisoryColumns + ` FROM advisories`
	if activeOnly {
		query += ` WHERE is_active = TRUE`
	}
	query += ` ORDER BY created_at DESC`

	list := []models.Advisory{}
	if err := r.db.SelectContext(ctx, &list, query); err != nil {
		return nil, fmt.Errorf("failed to list advisories: %w", err)
	}
	return list, nil
}

func (r *AdvisoryRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Advisory, error) {
	var a models.Advisory
	if err := r.db.GetContext(ctx, &a, `SELECT `+advisoryColumns+` FROM advisories WHERE id = $1`, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: advisory %s", models.ErrNotFound, id)
		}
		return nil, fmt.Errorf("failed to get advisory: %w", err)
	}
	return &a, nil
}

func (r *AdvisoryRepository) Update(ctx context.Context, a *models.Advisory) error {
	a.UpdatedAt = time.Now()
	query := `
		UPDATE advisories SET title = :title, body = :body, severity = :severity,
			affected_crops = :affected_crops, affected_regions = :affected_regions,
			is_active = :is_active, updated_at = :updated_at
		WHERE id = :id`
	result, err := r.db.NamedExecContext(ctx, query, a)
	if err != nil {
		return fmt.Errorf("failed to update advisory: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%w: advisory %s", models.ErrNotFound, a.ID)
	}
	return nil
}
