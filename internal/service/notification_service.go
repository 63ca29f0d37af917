package service

import (
	"context"
	"time"

	"wayfare/internal/middleware"
	"wayfare/internal/models"
	"wayfare/internal/repository"
)

// notificationRetention is how long read notifications are kept.
const notificationRetention = 90 * 24 * time.Hour

// NotificationPusher delivers a stored notification to the user's open
// WebSocket connections. Implemented by the notification hub; nil disables
// realtime delivery.
type NotificationPusher interface {
	Push(ctx context.Context, userID uint, n *models.Notification)
}

type NotificationService struct {
	repo   repository.NotificationRepository
	pusher NotificationPusher
}

func NewNotificationService(repo repository.NotificationRepository, pusher NotificationPusher) *NotificationService {
	return &NotificationService{repo: repo, pusher: pusher}
}

// Notify stores a notification and pushes it to connected clients. Delivery
// is best effort; a failure is logged and never surfaces to the caller.
func (s *NotificationService) Notify(ctx context.Context, userID uint, kind models.NotificationType, title, body string, entityID uint) {
	n := &models.Notification{
		UserID:   userID,
		Type:     kind,
		Title:    title,
		Body:     body,
		EntityID: entityID,
	}
	if err := s.repo.Create(ctx, n); err != nil {
		middleware.Logger.ErrorContext(ctx, "failed to store notification",
			"user_id", userID, "type", kind, "error", err)
		return
	}
	if s.pusher != nil {
		s.pusher.Push(ctx, userID, n)
	}
}

func (s *NotificationService) List(ctx context.Context, userID uint, unreadOnly bool, limit, offset int) ([]*models.Notification, error) {
	return s.repo.ListByUser(ctx, userID, unreadOnly, limit, offset)
}

func (s *NotificationService) MarkRead(ctx context.Context, notificationID, userID uint) error {
	return s.repo.MarkRead(ctx, userID, notificationID)
}

func (s *NotificationService) MarkAllRead(ctx context.Context, userID uint) error {
	return s.repo.MarkAllRead(ctx, userID)
}

func (s *NotificationService) CountUnread(ctx context.Context, userID uint) (int64, error) {
	return s.repo.CountUnread(ctx, userID)
}

// PruneOld deletes read notifications past the retention window.
func (s *NotificationService) PruneOld(ctx context.Context) (int64, error) {
	return s.repo.DeleteOld(ctx, time.Now().UTC().Add(-notificationRetention))
}
