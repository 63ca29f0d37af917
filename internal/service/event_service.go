package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"wayfare/internal/models"
	"wayfare/internal/repository"
)

const (
	maxEventTitleLen = 200
	maxEventCapacity = 10000
)

type EventService struct {
	eventRepo repository.EventRepository
	userRepo  repository.UserRepository
	notifier  Notify
}

type CreateEventInput struct {
	OrganizerID uint
	Title       string
	Description string
	Country     string
	City        string
	Venue       string
	StartsAt    time.Time
	EndsAt      time.Time
	Capacity    int
	PriceCents  int64
}

type UpdateEventInput struct {
	EventID     uint
	OrganizerID uint
	Title       *string
	Description *string
	Venue       *string
	StartsAt    *time.Time
	EndsAt      *time.Time
	Capacity    *int
	PriceCents  *int64
}

func NewEventService(eventRepo repository.EventRepository, userRepo repository.UserRepository, notifier Notify) *EventService {
	return &EventService{eventRepo: eventRepo, userRepo: userRepo, notifier: notifier}
}

func validateEventSchedule(startsAt, endsAt time.Time, now time.Time) error {
	if startsAt.Before(now) {
		return models.NewValidationError("Event cannot start in the past")
	}
	if !endsAt.After(startsAt) {
		return models.NewValidationError("Event must end after it starts")
	}
	return nil
}

// Create submits a new event for approval. Only association managers and
// admins can organize events.
func (s *EventService) Create(ctx context.Context, in CreateEventInput) (*models.Event, error) {
	organizer, err := s.userRepo.GetByID(ctx, in.OrganizerID)
	if err != nil {
		return nil, err
	}
	if !organizer.CanManageEvents() {
		return nil, models.NewForbiddenError("Your account cannot organize events")
	}

	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil, models.NewValidationError("Title is required")
	}
	if len(title) > maxEventTitleLen {
		return nil, models.NewValidationError(fmt.Sprintf("Title must be at most %d characters", maxEventTitleLen))
	}
	if in.Capacity < 1 || in.Capacity > maxEventCapacity {
		return nil, models.NewValidationError(fmt.Sprintf("Capacity must be between 1 and %d", maxEventCapacity))
	}
	if in.PriceCents < 0 {
		return nil, models.NewValidationError("Price cannot be negative")
	}
	if err := validateEventSchedule(in.StartsAt, in.EndsAt, time.Now().UTC()); err != nil {
		return nil, err
	}

	event := &models.Event{
		OrganizerID: in.OrganizerID,
		Title:       title,
		Description: strings.TrimSpace(in.Description),
		Country:     in.Country,
		City:        in.City,
		Venue:       in.Venue,
		StartsAt:    in.StartsAt,
		EndsAt:      in.EndsAt,
		Capacity:    in.Capacity,
		PriceCents:  in.PriceCents,
		Status:      models.ApprovalPending,
	}
	if err := s.eventRepo.Create(ctx, event); err != nil {
		return nil, err
	}
	return event, nil
}

// Get returns an event. Unapproved events are visible only to the organizer
// and admins.
func (s *EventService) Get(ctx context.Context, eventID, viewerID uint) (*models.Event, error) {
	event, err := s.eventRepo.GetByID(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if event.Status == models.ApprovalApproved {
		return event, nil
	}
	if viewerID == event.OrganizerID {
		return event, nil
	}
	if viewerID != 0 {
		viewer, err := s.userRepo.GetByID(ctx, viewerID)
		if err == nil && viewer.IsAdmin() {
			return event, nil
		}
	}
	return nil, models.NewNotFoundError("Event", eventID)
}

func (s *EventService) ListUpcoming(ctx context.Context, city string, limit, offset int) ([]*models.Event, error) {
	return s.eventRepo.ListUpcoming(ctx, city, limit, offset)
}

func (s *EventService) ListMine(ctx context.Context, organizerID uint, limit, offset int) ([]*models.Event, error) {
	return s.eventRepo.ListByOrganizer(ctx, organizerID, limit, offset)
}

// Update edits the organizer's own event. Schedule or capacity edits to an
// approved event send it back through moderation.
func (s *EventService) Update(ctx context.Context, in UpdateEventInput) (*models.Event, error) {
	event, err := s.eventRepo.GetByID(ctx, in.EventID)
	if err != nil {
		return nil, err
	}
	if event.OrganizerID != in.OrganizerID {
		return nil, models.NewForbiddenError("You can only edit your own events")
	}

	contentChanged := false
	if in.Title != nil {
		title := strings.TrimSpace(*in.Title)
		if title == "" || len(title) > maxEventTitleLen {
			return nil, models.NewValidationError(fmt.Sprintf("Title must be between 1 and %d characters", maxEventTitleLen))
		}
		event.Title = title
		contentChanged = true
	}
	if in.Description != nil {
		event.Description = strings.TrimSpace(*in.Description)
		contentChanged = true
	}
	if in.Venue != nil {
		event.Venue = *in.Venue
	}
	if in.StartsAt != nil {
		event.StartsAt = *in.StartsAt
		contentChanged = true
	}
	if in.EndsAt != nil {
		event.EndsAt = *in.EndsAt
		contentChanged = true
	}
	if in.StartsAt != nil || in.EndsAt != nil {
		if err := validateEventSchedule(event.StartsAt, event.EndsAt, time.Now().UTC()); err != nil {
			return nil, err
		}
	}
	if in.Capacity != nil {
		if *in.Capacity < 1 || *in.Capacity > maxEventCapacity {
			return nil, models.NewValidationError(fmt.Sprintf("Capacity must be between 1 and %d", maxEventCapacity))
		}
		if *in.Capacity < event.ParticipantCount {
			return nil, models.NewConflictError("Capacity cannot be lower than the current participant count")
		}
		event.Capacity = *in.Capacity
	}
	if in.PriceCents != nil {
		if *in.PriceCents < 0 {
			return nil, models.NewValidationError("Price cannot be negative")
		}
		event.PriceCents = *in.PriceCents
	}

	if contentChanged && event.Status == models.ApprovalApproved {
		event.Status = models.ApprovalPending
		event.ApprovedAt = nil
		event.ApprovedBy = nil
	}
	if err := s.eventRepo.Update(ctx, event); err != nil {
		return nil, err
	}
	return event, nil
}

func (s *EventService) Delete(ctx context.Context, eventID, requesterID uint) error {
	event, err := s.eventRepo.GetByID(ctx, eventID)
	if err != nil {
		return err
	}
	if event.OrganizerID != requesterID {
		requester, err := s.userRepo.GetByID(ctx, requesterID)
		if err != nil {
			return err
		}
		if !requester.IsAdmin() {
			return models.NewForbiddenError("You can only delete your own events")
		}
	}
	return s.eventRepo.Delete(ctx, eventID)
}

// Join registers the caller for an upcoming approved event. The repository
// enforces capacity under a row lock.
func (s *EventService) Join(ctx context.Context, eventID, userID uint) error {
	event, err := s.eventRepo.GetByID(ctx, eventID)
	if err != nil {
		return err
	}
	if event.Status != models.ApprovalApproved {
		return models.NewNotFoundError("Event", eventID)
	}
	if !event.StartsAt.After(time.Now().UTC()) {
		return models.NewConflictError("This event has already started")
	}
	if event.OrganizerID == userID {
		return models.NewValidationError("Organizers are already part of their own events")
	}
	if err := s.eventRepo.Join(ctx, eventID, userID); err != nil {
		return err
	}
	if s.notifier != nil {
		s.notifier.Notify(ctx, event.OrganizerID, models.NotifyEventReminder,
			"New participant",
			fmt.Sprintf("Someone joined your event %q", event.Title),
			event.ID)
	}
	return nil
}

func (s *EventService) Leave(ctx context.Context, eventID, userID uint) error {
	return s.eventRepo.Leave(ctx, eventID, userID)
}

func (s *EventService) ListParticipants(ctx context.Context, eventID, requesterID uint, limit, offset int) ([]models.EventParticipant, error) {
	event, err := s.eventRepo.GetByID(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if event.OrganizerID != requesterID {
		requester, err := s.userRepo.GetByID(ctx, requesterID)
		if err != nil {
			return nil, err
		}
		if !requester.IsAdmin() {
			return nil, models.NewForbiddenError("Only the organizer can list participants")
		}
	}
	return s.eventRepo.ListParticipants(ctx, eventID, limit, offset)
}
