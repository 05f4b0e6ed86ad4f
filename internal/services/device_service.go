package services

import (
	"context"
	"fmt"
	"strings"

	"bantayani/internal/models"
)

type DeviceService struct {
	repo DeviceTokenStore
}

func NewDeviceService(repo DeviceTokenStore) *DeviceService {
	return &DeviceService{repo: repo}
}

// Register stores an FCM registration token for the caller.
func (s *DeviceService) Register(ctx context.Context, caller models.Caller, token string) error {
	if err := requireCaller(caller); err != nil {
		return err
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return fmt.Errorf("%w: token is required", models.ErrValidation)
	}
	return s.repo.Upsert(ctx, caller.UserID, token)
}
