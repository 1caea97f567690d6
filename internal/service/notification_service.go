package service

import (
	"context"
	"errors"
	"fmt"

	"algobank/backend/internal/models"
	"algobank/backend/internal/repository"
	"algobank/backend/pkg/logger"
)

var ErrNotificationNotFound = errors.New("notification not found")

// NotificationService manages in-app notifications. Creation is best-effort
// from ledger flows; Notify never returns an error to its callers.
type NotificationService struct {
	notificationRepo repository.NotificationRepository
	logger           *logger.Logger
}

func NewNotificationService(notificationRepo repository.NotificationRepository, log *logger.Logger) *NotificationService {
	return &NotificationService{notificationRepo: notificationRepo, logger: log}
}

// Notify records a notification for the user. Failures are logged only; a
// missing notification must never fail the ledger operation that produced it.
func (s *NotificationService) Notify(ctx context.Context, userID uint64, title, message, category string) {
	n := &models.Notification{
		UserID:   userID,
		Title:    title,
		Message:  message,
		Category: category,
	}
	if err := s.notificationRepo.Create(ctx, n); err != nil {
		s.logger.WithUserID(userID).WithError(err).Warn("failed to create notification")
	}
}

func (s *NotificationService) List(ctx context.Context, userID uint64) ([]*models.Notification, error) {
	items, err := s.notificationRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}
	return items, nil
}

func (s *NotificationService) UnreadCount(ctx context.Context, userID uint64) (int64, error) {
	return s.notificationRepo.CountUnread(ctx, userID)
}

func (s *NotificationService) MarkRead(ctx context.Context, id, userID uint64) error {
	ok, err := s.notificationRepo.MarkRead(ctx, id, userID)
	if err != nil {
		return fmt.Errorf("failed to mark notification read: %w", err)
	}
	if !ok {
		return ErrNotificationNotFound
	}
	return nil
}

func (s *NotificationService) MarkAllRead(ctx context.Context, userID uint64) error {
	return s.notificationRepo.MarkAllRead(ctx, userID)
}
