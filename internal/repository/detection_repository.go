package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"bantayani/internal/models"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

const detectionColumns = `d.id, d.farmer_id, d.pest_type, d.scientific_name, d.confidence, d.crop_type,
	d.image_url, d.latitude, d.longitude, d.location_name, d.status, d.reviewed_by, d.reviewed_at,
	d.reviewer_notes, d.farm_id, d.farmer_notes, d.created_at, d.updated_at`

type DetectionRepository struct {
	db *sqlx.DB
}

func NewDetectionRepository(db *sqlx.DB) *DetectionRepository {
	return &DetectionRepository{db: db}
}

func (r *DetectionRepository) Create(ctx context.Context, d *models.Detection) error {
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	now := time.Now()
	d.CreatedAt = now
	d.UpdatedAt = now

	query := `
		INSERT INTO detections (
			id, farmer_id, pest_type, scientific_name, confidence, crop_type, image_url,
			latitude, longitude, location_name, status, farm_id, farmer_notes, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`

	_, err := r.db.ExecContext(ctx, query,
		d.ID, d.FarmerID, d.PestType, d.ScientificName, d.Confidence, d.CropType, d.ImageURL,
		d.Latitude, d.Longitude, d.LocationName, d.Status, d.FarmID, d.FarmerNotes, d.CreatedAt, d.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create detection: %w", err)
	}
	return nil
}

func (r *DetectionRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.DetectionView, error) {
	query := `SELECT ` + detectionColumns + `, u.display_name AS farmer_name, u.email AS farmer_email
		FROM detections d LEFT JOIN users u ON u.id = d.farmer_id
		WHERE d.id = $1`

	var view models.DetectionView
	if err := r.db.GetContext(ctx, &view, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: detection %s", models.ErrNotFound, id)
		}
		return nil, fmt.Errorf("failed to get detection: %w", err)
	}
	return &view, nil
}

// List returns detections newest first. A non-nil farmerID restricts the
// result to that farmer's own reports.
func (r *DetectionRepository) List(ctx context.Context, farmerID *uuid.UUID, filter models.DetectionFilter) ([]models.DetectionView, error) {
	var (
		conditions []string
		args       []any
	)
	if farmerID != nil {
		args = append(args, *farmerID)
		conditions = append(conditions, fmt.Sprintf("d.farmer_id = $%d", len(args)))
	}
	if filter.Status != "" {
		args = append(args, filter.Status)
		conditions = append(conditions, fmt.Sprintf("d.status = $%d", len(args)))
	}
	if filter.CropType != "" {
		args = append(args, filter.CropType)
		conditions = append(conditions, fmt.Sprintf("LOWER(d.crop_type) = LOWER($%d)", len(args)))
	}

	query := `SELECT ` + detectionColumns + `, u.display_name AS farmer_name, u.email AS farmer_email
		FROM detections d LEFT JOIN users u ON u.id = d.farmer_id`
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY d.created_at DESC"

	views := []models.DetectionView{}
	if err := r.db.SelectContext(ctx, &views, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list detections: %w", err)
	}
	return views, nil
}

// UpdateStatus records a review outcome. The write is unconditional, so a
// second review overwrites the first.
func (r *DetectionRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status models.DetectionStatus, reviewer uuid.UUID, note *string, at time.Time) (*models.Detection, error) {
	query := `
		UPDATE detections d
		SET status = $2, reviewed_by = $3, reviewed_at = $4, reviewer_notes = $5, updated_at = $4
		WHERE d.id = $1
		RETURNING ` + detectionColumns

	var d models.Detection
	if err := r.db.GetContext(ctx, &d, query, id, status, reviewer, at, note); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: detection %s", models.ErrNotFound, id)
		}
		return nil, fmt.Errorf("failed to update detection status: %w", err)
	}
	return &d, nil
}
