package services

import (
	"context"
	"log/slog"

	"bantayani/internal/models"
	utils "bantayani/shared/utils"

	"github.com/google/uuid"
)

type AdvisoryService struct {
	repo     AdvisoryStore
	users    UserStore
	changes  ChangePublisher
	notifier Notifications
}

func NewAdvisoryService(repo AdvisoryStore, users UserStore, changes ChangePublisher, notifier Notifications) *AdvisoryService {
	return &AdvisoryService{repo: repo, users: users, changes: changes, notifier: notifier}
}

// Create publishes a new advisory and broadcasts it to every farmer.
func (s *AdvisoryService) Create(ctx context.Context, caller models.Caller, req models.AdvisoryRequest) (*models.Advisory, error) {
	if err := requireRole(caller, models.RoleLGUAdmin); err != nil {
		return nil, err
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}

	a := &models.Advisory{
		Title:           req.Title,
		Body:            req.Body,
		Severity:        req.Severity,
		AffectedCrops:   utils.NormalizeList(req.AffectedCrops),
		AffectedRegions: utils.NormalizeList(req.AffectedRegions),
		IsActive:        req.IsActive == nil || *req.IsActive,
		CreatedBy:       caller.UserID,
	}
	if err := s.repo.Create(ctx, a); err != nil {
		return nil, err
	}

	announce(ctx, s.changes, models.TableAdvisories)
	if a.IsActive && s.notifier != nil {
		farmers, err := s.users.ListIDsByRole(ctx, models.RoleFarmer)
		if err != nil {
			slog.Warn("failed to load farmers for advisory broadcast", "error", err)
		} else {
			s.notifier.NotifyAdvisory(ctx, farmers, a)
		}
	}
	return a, nil
}

// List returns advisories newest first. Farmers only see active ones.
func (s *AdvisoryService) List(ctx context.Context, caller models.Caller) ([]models.Advisory, error) {
	if err := requireCaller(caller); err != nil {
		return nil, err
	}
	return s.repo.List(ctx, !caller.Role.IsReviewer())
}

func (s *AdvisoryService) Update(ctx context.Context, caller models.Caller, id uuid.UUID, req models.AdvisoryRequest) (*models.Advisory, error) {
	if err := requireRole(caller, models.RoleLGUAdmin); err != nil {
		return nil, err
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}

	a, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	a.Title = req.Title
	a.Body = req.Body
	a.Severity = req.Severity
	a.AffectedCrops = utils.NormalizeList(req.AffectedCrops)
	a.AffectedRegions = utils.NormalizeList(req.AffectedRegions)
	if req.IsActive != nil {
		a.IsActive = *req.IsActive
	}

	if err := s.repo.Update(ctx, a); err != nil {
		return nil, err
	}
	announce(ctx, s.changes, models.TableAdvisories)
	return a, nil
}
