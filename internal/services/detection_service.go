package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"bantayani/internal/imageproc"
	"bantayani/internal/metrics"
	"bantayani/internal/models"

	"github.com/google/uuid"
)

type DetectionService struct {
	repo     DetectionStore
	users    UserStore
	messages MessageStore
	images   ImageStore
	changes  ChangePublisher
	notifier Notifications
	metrics  *metrics.Metrics
	now      func() time.Time
}

func NewDetectionService(repo DetectionStore, users UserStore, messages MessageStore, images ImageStore,
	changes ChangePublisher, notifier Notifications, m *metrics.Metrics,
) *DetectionService {
	return &DetectionService{
		repo:     repo,
		users:    users,
		messages: messages,
		images:   images,
		changes:  changes,
		notifier: notifier,
		metrics:  m,
		now:      time.Now,
	}
}

// Create stores a new pending detection for the calling farmer. The photo is
// uploaded before the row is written. An upload failure leaves no row and an
// insert failure removes the uploaded object.
func (s *DetectionService) Create(ctx context.Context, caller models.Caller, in models.CreateDetectionInput) (*models.Detection, error) {
	if err := requireRole(caller, models.RoleFarmer); err != nil {
		return nil, err
	}
	if err := in.Validate(); err != nil {
		return nil, err
	}

	normalized, err := imageproc.Normalize(in.Image)
	if err != nil {
		return nil, fmt.Errorf("%w: image could not be read: %v", models.ErrValidation, err)
	}

	detectionID := uuid.New()
	objectName := fmt.Sprintf("%s/%s.jpg", caller.UserID, detectionID)
	imageURL, err := s.images.PutImage(ctx, objectName, normalized, imageproc.ContentType)
	if err != nil {
		s.metrics.RecordUploadFailure()
		return nil, fmt.Errorf("%w: %v", models.ErrUpload, err)
	}

	d := &models.Detection{
		ID:             detectionID,
		FarmerID:       caller.UserID,
		PestType:       in.PestType,
		ScientificName: in.ScientificName,
		Confidence:     in.Confidence,
		CropType:       in.CropType,
		ImageURL:       imageURL,
		Latitude:       in.Latitude,
		Longitude:      in.Longitude,
		LocationName:   in.LocationName,
		Status:         models.StatusPending,
		FarmID:         in.FarmID,
		FarmerNotes:    in.FarmerNotes,
	}
	if err := s.repo.Create(ctx, d); err != nil {
		if delErr := s.images.DeleteImage(context.WithoutCancel(ctx), objectName); delErr != nil {
			slog.Warn("failed to remove orphaned image", "object", objectName, "error", delErr)
		}
		return nil, err
	}

	s.metrics.RecordDetectionCreated(d.CropType)
	announce(ctx, s.changes, models.TableDetections)
	s.notifyReviewers(ctx, d)

	slog.Info("detection created", "detection_id", d.ID, "farmer_id", d.FarmerID, "pest_type", d.PestType)
	return d, nil
}

func (s *DetectionService) notifyReviewers(ctx context.Context, d *models.Detection) {
	if s.notifier == nil || s.users == nil {
		return
	}
	reviewers, err := s.users.ListIDsByRole(ctx, models.RoleLGUAdmin)
	if err != nil {
		slog.Warn("failed to load reviewers for notification", "error", err)
		return
	}
	s.notifier.NotifyDetectionSubmitted(ctx, reviewers, d)
}

// Transition records a review outcome. Re-reviewing a terminal record
// overwrites the previous outcome.
func (s *DetectionService) Transition(ctx context.Context, caller models.Caller, id uuid.UUID, status models.DetectionStatus, note *string) (*models.Detection, error) {
	if err := requireRole(caller, models.RoleLGUAdmin); err != nil {
		return nil, err
	}
	if !status.IsTerminal() {
		return nil, fmt.Errorf("%w: status must be verified or rejected", models.ErrValidation)
	}
	if note != nil {
		trimmed := strings.TrimSpace(*note)
		note = &trimmed
		if trimmed == "" {
			note = nil
		}
	}

	d, err := s.repo.UpdateStatus(ctx, id, status, caller.UserID, note, s.now())
	if err != nil {
		return nil, err
	}

	s.metrics.RecordDetectionReviewed(string(status))
	announce(ctx, s.changes, models.TableDetections)
	if s.notifier != nil {
		s.notifier.NotifyDetectionReviewed(ctx, d)
	}

	slog.Info("detection reviewed", "detection_id", d.ID, "status", d.Status, "reviewer_id", caller.UserID)
	return d, nil
}

// List returns the caller's visible detections, newest first. Farmers only
// see their own; reviewers see everyone's with the owner's name and e-mail.
func (s *DetectionService) List(ctx context.Context, caller models.Caller, filter models.DetectionFilter) ([]models.DetectionView, error) {
	if err := requireCaller(caller); err != nil {
		return nil, err
	}
	if filter.Status != "" && !filter.Status.IsValid() {
		return nil, fmt.Errorf("%w: unknown status %q", models.ErrValidation, filter.Status)
	}

	if caller.Role.IsReviewer() {
		return s.repo.List(ctx, nil, filter)
	}

	views, err := s.repo.List(ctx, &caller.UserID, filter)
	if err != nil {
		return nil, err
	}
	for i := range views {
		views[i].FarmerName = nil
		views[i].FarmerEmail = nil
	}
	return views, nil
}

func (s *DetectionService) Get(ctx context.Context, caller models.Caller, id uuid.UUID) (*models.DetectionView, error) {
	if err := requireCaller(caller); err != nil {
		return nil, err
	}
	view, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !caller.Role.IsReviewer() {
		if view.FarmerID != caller.UserID {
			return nil, fmt.Errorf("%w: not your detection", models.ErrForbidden)
		}
		view.FarmerName, view.FarmerEmail = nil, nil
	}
	return view, nil
}

func (s *DetectionService) Stats(ctx context.Context, caller models.Caller, filter models.DetectionFilter) (models.Stats, error) {
	views, err := s.List(ctx, caller, filter)
	if err != nil {
		return models.Stats{}, err
	}
	return models.ComputeStats(models.Detections(views)), nil
}

// RequestInfo asks the owning farmer for more details. The detection stays
// pending; only a message is appended.
func (s *DetectionService) RequestInfo(ctx context.Context, caller models.Caller, id uuid.UUID, message string) (*models.Message, error) {
	if err := requireRole(caller, models.RoleLGUAdmin); err != nil {
		return nil, err
	}
	message = strings.TrimSpace(message)
	if message == "" {
		return nil, fmt.Errorf("%w: message is required", models.ErrValidation)
	}

	view, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	m := &models.Message{
		SenderID:    caller.UserID,
		RecipientID: view.FarmerID,
		DetectionID: &view.ID,
		Body:        message,
	}
	if err := s.messages.Create(ctx, m); err != nil {
		return nil, err
	}

	announce(ctx, s.changes, models.TableMessages)
	if s.notifier != nil {
		s.notifier.NotifyInfoRequested(ctx, view.FarmerID, view.ID, message)
	}
	return m, nil
}
