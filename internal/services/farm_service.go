package services

import (
	"context"
	"fmt"

	"bantayani/internal/models"
	utils "bantayani/shared/utils"
)

type FarmService struct {
	repo    FarmStore
	changes ChangePublisher
}

func NewFarmService(repo FarmStore, changes ChangePublisher) *FarmService {
	return &FarmService{repo: repo, changes: changes}
}

func (s *FarmService) List(ctx context.Context, caller models.Caller) ([]models.Farm, error) {
	if err := requireRole(caller, models.RoleFarmer); err != nil {
		return nil, err
	}
	return s.repo.ListByFarmer(ctx, caller.UserID)
}

// Save writes the farm at slot, creating or replacing it.
func (s *FarmService) Save(ctx context.Context, caller models.Caller, slot int, req models.FarmUpsertRequest) (*models.Farm, error) {
	if err := requireRole(caller, models.RoleFarmer); err != nil {
		return nil, err
	}
	if !models.ValidSlot(slot) {
		return nil, fmt.Errorf("%w: slot must be between 1 and %d", models.ErrValidation, models.MaxFarmSlots)
	}
	if err := utils.ValidateCoordinates(req.Latitude, req.Longitude); err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrValidation, err)
	}

	farm, err := s.repo.Upsert(ctx, &models.Farm{
		FarmerID:  caller.UserID,
		Slot:      slot,
		Name:      utils.TrimPtr(req.Name),
		Landmark:  utils.TrimPtr(req.Landmark),
		Address:   utils.TrimPtr(req.Address),
		Latitude:  req.Latitude,
		Longitude: req.Longitude,
	})
	if err != nil {
		return nil, err
	}
	announce(ctx, s.changes, models.TableFarms)
	return farm, nil
}

func (s *FarmService) Delete(ctx context.Context, caller models.Caller, slot int) error {
	if err := requireRole(caller, models.RoleFarmer); err != nil {
		return err
	}
	if !models.ValidSlot(slot) {
		return fmt.Errorf("%w: slot must be between 1 and %d", models.ErrValidation, models.MaxFarmSlots)
	}
	if err := s.repo.Delete(ctx, caller.UserID, slot); err != nil {
		return err
	}
	announce(ctx, s.changes, models.TableFarms)
	return nil
}
