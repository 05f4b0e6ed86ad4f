package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"bantayani/internal/models"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

const farmColumns = `farmer_id, slot, name, landmark, address, latitude, longitude, created_at, updated_at`

type FarmRepository struct {
	db *sqlx.DB
}

func NewFarmRepository(db *sqlx.DB) *FarmRepository {
	return &FarmRepository{db: db}
}

func (r *FarmRepository) ListByFarmer(ctx context.Context, farmerID uuid.UUID) ([]models.Farm, error) {
	farms := []models.Farm{}
	query := `SELECT ` + farmColumns + ` FROM farms WHERE farmer_id = $1 ORDER BY slot`
	if err := r.db.SelectContext(ctx, &farms, query, farmerID); err != nil {
		return nil, fmt.Errorf("failed to list farms: %w", err)
	}
	return farms, nil
}

func (r *FarmRepository) Get(ctx context.Context, farmerID uuid.UUID, slot int) (*models.Farm, error) {
	var farm models.Farm
	query := `SELECT ` + farmColumns + ` FROM farms WHERE farmer_id = $1 AND slot = $2`
	if err := r.db.GetContext(ctx, &farm, query, farmerID, slot); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: farm slot %d", models.ErrNotFound, slot)
		}
		return nil, fmt.Errorf("failed to get farm: %w", err)
	}
	return &farm, nil
}

// Upsert writes the farm at (farmer_id, slot), creating it when the slot is empty.
func (r *FarmRepository) Upsert(ctx context.Context, farm *models.Farm) (*models.Farm, error) {
	query := `
		INSERT INTO farms (farmer_id, slot, name, landmark, address, latitude, longitude, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, now(), now())
		ON CONFLICT (farmer_id, slot) DO UPDATE SET
			name = EXCLUDED.name,
			landmark = EXCLUDED.landmark,
			address = EXCLUDED.address,
			latitude = EXCLUDED.latitude,
			longitude = EXCLUDED.longitude,
			updated_at = now()
		RETURNING ` + farmColumns

	var saved models.Farm
	err := r.db.GetContext(ctx, &saved, query,
		farm.FarmerID, farm.Slot, farm.Name, farm.Landmark, farm.Address, farm.Latitude, farm.Longitude)
	if err != nil {
		return nil, fmt.Errorf("failed to save farm: %w", err)
	}
	return &saved, nil
}

func (r *FarmRepository) Delete(ctx context.Context, farmerID uuid.UUID, slot int) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM farms WHERE farmer_id = $1 AND slot = $2`, farmerID, slot)
	if err != nil {
		return fmt.Errorf("failed to delete farm: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%w: farm slot %d", models.ErrNotFound, slot)
	}
	return nil
}
