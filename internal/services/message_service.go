package services

import (
	"context"
	"fmt"
	"strings"

	"bantayani/internal/models"

	"github.com/google/uuid"
)

type MessageService struct {
	repo     MessageStore
	users    UserStore
	changes  ChangePublisher
	notifier Notifications
}

func NewMessageService(repo MessageStore, users UserStore, changes ChangePublisher, notifier Notifications) *MessageService {
	return &MessageService{repo: repo, users: users, changes: changes, notifier: notifier}
}

func (s *MessageService) Send(ctx context.Context, caller models.Caller, req models.SendMessageRequest) (*models.Message, error) {
	if err := requireCaller(caller); err != nil {
		return nil, err
	}
	body := strings.TrimSpace(req.Body)
	if body == "" {
		return nil, fmt.Errorf("%w: message body is required", models.ErrValidation)
	}
	if req.RecipientID == caller.UserID {
		return nil, fmt.Errorf("%w: cannot message yourself", models.ErrValidation)
	}

	sender, err := s.users.GetByID(ctx, caller.UserID)
	if err != nil {
		return nil, err
	}
	if _, err := s.users.GetByID(ctx, req.RecipientID); err != nil {
		return nil, err
	}

	m := &models.Message{
		SenderID:    caller.UserID,
		RecipientID: req.RecipientID,
		DetectionID: req.DetectionID,
		Body:        body,
	}
	if err := s.repo.Create(ctx, m); err != nil {
		return nil, err
	}

	announce(ctx, s.changes, models.TableMessages)
	if s.notifier != nil {
		s.notifier.NotifyNewMessage(ctx, m, sender.DisplayName)
	}
	return m, nil
}

// List returns the conversation with another user, or every message the
// caller is part of when with is nil. Oldest first.
func (s *MessageService) List(ctx context.Context, caller models.Caller, with *uuid.UUID) ([]models.Message, error) {
	if err := requireCaller(caller); err != nil {
		return nil, err
	}
	if with != nil {
		return s.repo.Conversation(ctx, caller.UserID, *with)
	}
	return s.repo.ListForUser(ctx, caller.UserID)
}

func (s *MessageService) MarkRead(ctx context.Context, caller models.Caller, id uuid.UUID) error {
	if err := requireCaller(caller); err != nil {
		return err
	}
	if err := s.repo.MarkRead(ctx, id, caller.UserID); err != nil {
		return err
	}
	announce(ctx, s.changes, models.TableMessages)
	return nil
}

func (s *MessageService) UnreadCount(ctx context.Context, caller models.Caller) (int, error) {
	if err := requireCaller(caller); err != nil {
		return 0, err
	}
	return s.repo.UnreadCount(ctx, caller.UserID)
}
