package service

import (
	"context"
	"testing"
	"time"

	"wayfare/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// eventRepoStub is a stub for repository.EventRepository.
type eventRepoStub struct {
	createFn           func(context.Context, *models.Event) error
	getByIDFn          func(context.Context, uint) (*models.Event, error)
	listUpcomingFn     func(context.Context, string, int, int) ([]*models.Event, error)
	listByOrganizerFn  func(context.Context, uint, int, int) ([]*models.Event, error)
	listByStatusFn     func(context.Context, models.ApprovalStatus, int, int) ([]*models.Event, error)
	updateFn           func(context.Context, *models.Event) error
	updateStatusFn     func(context.Context, uint, models.ApprovalStatus, uint) error
	deleteFn           func(context.Context, uint) error
	joinFn             func(context.Context, uint, uint) error
	leaveFn            func(context.Context, uint, uint) error
	isParticipantFn    func(context.Context, uint, uint) (bool, error)
	listParticipantsFn func(context.Context, uint, int, int) ([]models.EventParticipant, error)
}

func (s *eventRepoStub) Create(ctx context.Context, event *models.Event) error {
	return s.createFn(ctx, event)
}
func (s *eventRepoStub) GetByID(ctx context.Context, id uint) (*models.Event, error) {
	return s.getByIDFn(ctx, id)
}
func (s *eventRepoStub) ListUpcoming(ctx context.Context, city string, limit, offset int) ([]*models.Event, error) {
	return s.listUpcomingFn(ctx, city, limit, offset)
}
func (s *eventRepoStub) ListByOrganizer(ctx context.Context, organizerID uint, limit, offset int) ([]*models.Event, error) {
	return s.listByOrganizerFn(ctx, organizerID, limit, offset)
}
func (s *eventRepoStub) ListByStatus(ctx context.Context, status models.ApprovalStatus, limit, offset int) ([]*models.Event, error) {
	return s.listByStatusFn(ctx, status, limit, offset)
}
func (s *eventRepoStub) Update(ctx context.Context, event *models.Event) error {
	return s.updateFn(ctx, event)
}
func (s *eventRepoStub) UpdateStatus(ctx context.Context, id uint, status models.ApprovalStatus, reviewerID uint) error {
	return s.updateStatusFn(ctx, id, status, reviewerID)
}
func (s *eventRepoStub) Delete(ctx context.Context, id uint) error {
	return s.deleteFn(ctx, id)
}
func (s *eventRepoStub) Join(ctx context.Context, eventID, userID uint) error {
	return s.joinFn(ctx, eventID, userID)
}
func (s *eventRepoStub) Leave(ctx context.Context, eventID, userID uint) error {
	return s.leaveFn(ctx, eventID, userID)
}
func (s *eventRepoStub) IsParticipant(ctx context.Context, eventID, userID uint) (bool, error) {
	return s.isParticipantFn(ctx, eventID, userID)
}
func (s *eventRepoStub) ListParticipants(ctx context.Context, eventID uint, limit, offset int) ([]models.EventParticipant, error) {
	return s.listParticipantsFn(ctx, eventID, limit, offset)
}

func noopEventRepo() *eventRepoStub {
	return &eventRepoStub{
		createFn: func(_ context.Context, e *models.Event) error {
			e.ID = 1
			return nil
		},
		getByIDFn: func(_ context.Context, id uint) (*models.Event, error) {
			return &models.Event{ID: id, Status: models.ApprovalApproved}, nil
		},
		listUpcomingFn:    func(_ context.Context, _ string, _, _ int) ([]*models.Event, error) { return nil, nil },
		listByOrganizerFn: func(_ context.Context, _ uint, _, _ int) ([]*models.Event, error) { return nil, nil },
		listByStatusFn: func(_ context.Context, _ models.ApprovalStatus, _, _ int) ([]*models.Event, error) {
			return nil, nil
		},
		updateFn:        func(_ context.Context, _ *models.Event) error { return nil },
		updateStatusFn:  func(_ context.Context, _ uint, _ models.ApprovalStatus, _ uint) error { return nil },
		deleteFn:        func(_ context.Context, _ uint) error { return nil },
		joinFn:          func(_ context.Context, _, _ uint) error { return nil },
		leaveFn:         func(_ context.Context, _, _ uint) error { return nil },
		isParticipantFn: func(_ context.Context, _, _ uint) (bool, error) { return false, nil },
		listParticipantsFn: func(_ context.Context, _ uint, _, _ int) ([]models.EventParticipant, error) {
			return nil, nil
		},
	}
}

func validEventInput() CreateEventInput {
	starts := time.Now().UTC().AddDate(0, 0, 14)
	return CreateEventInput{
		OrganizerID: 1,
		Title:       "Old town walking tour",
		Description: "Two hours through the historic center.",
		Country:     "Portugal",
		City:        "Lisbon",
		StartsAt:    starts,
		EndsAt:      starts.Add(2 * time.Hour),
		Capacity:    25,
	}
}

func TestEventService_Create_RequiresManagerRole(t *testing.T) {
	t.Parallel()

	svc := NewEventService(noopEventRepo(), userRepoWithRole(models.RoleTraveler), nil)
	_, err := svc.Create(context.Background(), validEventInput())
	assertForbiddenError(t, err)

	svc = NewEventService(noopEventRepo(), userRepoWithRole(models.RoleAssociationManager), nil)
	event, err := svc.Create(context.Background(), validEventInput())
	require.NoError(t, err)
	assert.Equal(t, models.ApprovalPending, event.Status)
}

func TestEventService_Create_Validation(t *testing.T) {
	t.Parallel()

	svc := NewEventService(noopEventRepo(), userRepoWithRole(models.RoleAssociationManager), nil)
	ctx := context.Background()

	tests := []struct {
		name   string
		mutate func(*CreateEventInput)
	}{
		{name: "empty title", mutate: func(in *CreateEventInput) { in.Title = " " }},
		{name: "zero capacity", mutate: func(in *CreateEventInput) { in.Capacity = 0 }},
		{name: "negative price", mutate: func(in *CreateEventInput) { in.PriceCents = -1 }},
		{name: "starts in the past", mutate: func(in *CreateEventInput) {
			in.StartsAt = time.Now().UTC().AddDate(0, 0, -1)
		}},
		{name: "ends before start", mutate: func(in *CreateEventInput) {
			in.EndsAt = in.StartsAt.Add(-time.Hour)
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := validEventInput()
			tt.mutate(&in)
			_, err := svc.Create(ctx, in)
			assertValidationError(t, err)
		})
	}
}

func TestEventService_Join(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	upcomingEvent := func() *models.Event {
		return &models.Event{
			ID:          4,
			OrganizerID: 9,
			Title:       "Old town walking tour",
			Status:      models.ApprovalApproved,
			StartsAt:    time.Now().UTC().AddDate(0, 0, 7),
			Capacity:    25,
		}
	}

	t.Run("joins and notifies organizer", func(t *testing.T) {
		eventRepo := noopEventRepo()
		eventRepo.getByIDFn = func(_ context.Context, _ uint) (*models.Event, error) { return upcomingEvent(), nil }
		joined := false
		eventRepo.joinFn = func(_ context.Context, _, _ uint) error {
			joined = true
			return nil
		}
		recorder := &notifyRecorder{}
		svc := NewEventService(eventRepo, noopUserRepo(), recorder)

		require.NoError(t, svc.Join(ctx, 4, 1))
		assert.True(t, joined)
		assert.Equal(t, []models.NotificationType{models.NotifyEventReminder}, recorder.sent)
	})

	t.Run("unapproved event hidden", func(t *testing.T) {
		eventRepo := noopEventRepo()
		eventRepo.getByIDFn = func(_ context.Context, _ uint) (*models.Event, error) {
			e := upcomingEvent()
			e.Status = models.ApprovalPending
			return e, nil
		}
		svc := NewEventService(eventRepo, noopUserRepo(), nil)
		assertNotFoundError(t, svc.Join(ctx, 4, 1))
	})

	t.Run("started event rejected", func(t *testing.T) {
		eventRepo := noopEventRepo()
		eventRepo.getByIDFn = func(_ context.Context, _ uint) (*models.Event, error) {
			e := upcomingEvent()
			e.StartsAt = time.Now().UTC().Add(-time.Hour)
			return e, nil
		}
		svc := NewEventService(eventRepo, noopUserRepo(), nil)
		assertConflictError(t, svc.Join(ctx, 4, 1))
	})

	t.Run("organizer cannot join own event", func(t *testing.T) {
		eventRepo := noopEventRepo()
		eventRepo.getByIDFn = func(_ context.Context, _ uint) (*models.Event, error) { return upcomingEvent(), nil }
		svc := NewEventService(eventRepo, noopUserRepo(), nil)
		assertValidationError(t, svc.Join(ctx, 4, 9))
	})
}

func TestEventService_Update_CapacityGuard(t *testing.T) {
	t.Parallel()

	eventRepo := noopEventRepo()
	eventRepo.getByIDFn = func(_ context.Context, id uint) (*models.Event, error) {
		return &models.Event{
			ID:               id,
			OrganizerID:      1,
			Status:           models.ApprovalApproved,
			StartsAt:         time.Now().UTC().AddDate(0, 0, 7),
			EndsAt:           time.Now().UTC().AddDate(0, 0, 7).Add(2 * time.Hour),
			Capacity:         25,
			ParticipantCount: 20,
		}, nil
	}
	svc := NewEventService(eventRepo, noopUserRepo(), nil)

	smaller := 10
	_, err := svc.Update(context.Background(), UpdateEventInput{EventID: 4, OrganizerID: 1, Capacity: &smaller})
	assertConflictError(t, err)
}

func TestEventService_ListParticipants_OrganizerOnly(t *testing.T) {
	t.Parallel()

	eventRepo := noopEventRepo()
	eventRepo.getByIDFn = func(_ context.Context, id uint) (*models.Event, error) {
		return &models.Event{ID: id, OrganizerID: 9}, nil
	}
	svc := NewEventService(eventRepo, userRepoWithRole(models.RoleTraveler), nil)

	_, err := svc.ListParticipants(context.Background(), 4, 1, 20, 0)
	assertForbiddenError(t, err)
}
