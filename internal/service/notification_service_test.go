package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"wayfare/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// notificationRepoStub is a stub for repository.NotificationRepository.
type notificationRepoStub struct {
	createFn      func(context.Context, *models.Notification) error
	listByUserFn  func(context.Context, uint, bool, int, int) ([]*models.Notification, error)
	markReadFn    func(context.Context, uint, uint) error
	markAllReadFn func(context.Context, uint) error
	countUnreadFn func(context.Context, uint) (int64, error)
	deleteOldFn   func(context.Context, time.Time) (int64, error)
}

func (s *notificationRepoStub) Create(ctx context.Context, n *models.Notification) error {
	return s.createFn(ctx, n)
}
func (s *notificationRepoStub) ListByUser(ctx context.Context, userID uint, unreadOnly bool, limit, offset int) ([]*models.Notification, error) {
	return s.listByUserFn(ctx, userID, unreadOnly, limit, offset)
}
func (s *notificationRepoStub) MarkRead(ctx context.Context, userID, notificationID uint) error {
	return s.markReadFn(ctx, userID, notificationID)
}
func (s *notificationRepoStub) MarkAllRead(ctx context.Context, userID uint) error {
	return s.markAllReadFn(ctx, userID)
}
func (s *notificationRepoStub) CountUnread(ctx context.Context, userID uint) (int64, error) {
	return s.countUnreadFn(ctx, userID)
}
func (s *notificationRepoStub) DeleteOld(ctx context.Context, before time.Time) (int64, error) {
	return s.deleteOldFn(ctx, before)
}

func noopNotificationRepo() *notificationRepoStub {
	return &notificationRepoStub{
		createFn: func(_ context.Context, n *models.Notification) error {
			n.ID = 1
			return nil
		},
		listByUserFn:  func(_ context.Context, _ uint, _ bool, _, _ int) ([]*models.Notification, error) { return nil, nil },
		markReadFn:    func(_ context.Context, _, _ uint) error { return nil },
		markAllReadFn: func(_ context.Context, _ uint) error { return nil },
		countUnreadFn: func(_ context.Context, _ uint) (int64, error) { return 0, nil },
		deleteOldFn:   func(_ context.Context, _ time.Time) (int64, error) { return 0, nil },
	}
}

// pushRecorder captures hub pushes.
type pushRecorder struct {
	pushed []*models.Notification
}

func (r *pushRecorder) Push(_ context.Context, _ uint, n *models.Notification) {
	r.pushed = append(r.pushed, n)
}

func TestNotificationService_Notify(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("stores and pushes", func(t *testing.T) {
		var stored *models.Notification
		repo := noopNotificationRepo()
		repo.createFn = func(_ context.Context, n *models.Notification) error {
			n.ID = 7
			stored = n
			return nil
		}
		recorder := &pushRecorder{}
		svc := NewNotificationService(repo, recorder)

		svc.Notify(ctx, 1, models.NotifyBookingConfirmed, "Booking confirmed", "See you soon", 5)

		require.NotNil(t, stored)
		assert.Equal(t, uint(1), stored.UserID)
		assert.Equal(t, models.NotifyBookingConfirmed, stored.Type)
		assert.Equal(t, uint(5), stored.EntityID)
		require.Len(t, recorder.pushed, 1)
		assert.Equal(t, stored, recorder.pushed[0])
	})

	t.Run("store failure skips push", func(t *testing.T) {
		repo := noopNotificationRepo()
		repo.createFn = func(_ context.Context, _ *models.Notification) error {
			return errors.New("db down")
		}
		recorder := &pushRecorder{}
		svc := NewNotificationService(repo, recorder)

		svc.Notify(ctx, 1, models.NotifyWelcome, "Welcome", "", 0)
		assert.Empty(t, recorder.pushed)
	})

	t.Run("nil pusher is fine", func(t *testing.T) {
		svc := NewNotificationService(noopNotificationRepo(), nil)
		svc.Notify(ctx, 1, models.NotifyWelcome, "Welcome", "", 0)
	})
}

func TestNotificationService_PruneOld(t *testing.T) {
	t.Parallel()

	var cutoff time.Time
	repo := noopNotificationRepo()
	repo.deleteOldFn = func(_ context.Context, before time.Time) (int64, error) {
		cutoff = before
		return 12, nil
	}
	svc := NewNotificationService(repo, nil)

	n, err := svc.PruneOld(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(12), n)
	// Retention is 90 days.
	assert.WithinDuration(t, time.Now().UTC().AddDate(0, 0, -90), cutoff, time.Minute)
}
