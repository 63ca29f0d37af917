package repository

import (
	"context"
	"errors"
	"time"

	"wayfare/internal/models"

	"gorm.io/gorm"
)

// ErrEventFull is returned when a join would exceed the event capacity.
var ErrEventFull = models.NewConflictError("Event is at capacity")

// EventRepository defines persistence operations for events.
type EventRepository interface {
	Create(ctx context.Context, event *models.Event) error
	GetByID(ctx context.Context, id uint) (*models.Event, error)
	ListUpcoming(ctx context.Context, city string, limit, offset int) ([]*models.Event, error)
	ListByOrganizer(ctx context.Context, organizerID uint, limit, offset int) ([]*models.Event, error)
	ListByStatus(ctx context.Context, status models.ApprovalStatus, limit, offset int) ([]*models.Event, error)
	Update(ctx context.Context, event *models.Event) error
	UpdateStatus(ctx context.Context, id uint, status models.ApprovalStatus, reviewerID uint) error
	Delete(ctx context.Context, id uint) error
	Join(ctx context.Context, eventID, userID uint) error
	Leave(ctx context.Context, eventID, userID uint) error
	IsParticipant(ctx context.Context, eventID, userID uint) (bool, error)
	ListParticipants(ctx context.Context, eventID uint, limit, offset int) ([]models.EventParticipant, error)
}

type eventRepository struct {
	db *gorm.DB
}

// NewEventRepository returns a new EventRepository implementation.
func NewEventRepository(db *gorm.DB) EventRepository {
	return &eventRepository{db: db}
}

// applyEventDetails adds the participant count in a single query.
func (r *eventRepository) applyEventDetails(db *gorm.DB) *gorm.DB {
	return db.Select("events.*, " +
		"(SELECT COUNT(*) FROM event_participants WHERE event_participants.event_id = events.id) as participant_count")
}

func (r *eventRepository) Create(ctx context.Context, event *models.Event) error {
	if err := r.db.WithContext(ctx).Create(event).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *eventRepository) GetByID(ctx context.Context, id uint) (*models.Event, error) {
	var event models.Event
	err := r.applyEventDetails(readDB(r.db).WithContext(ctx)).
		Preload("Organizer").
		First(&event, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("Event", id)
		}
		return nil, models.NewInternalError(err)
	}
	return &event, nil
}

func (r *eventRepository) ListUpcoming(ctx context.Context, city string, limit, offset int) ([]*models.Event, error) {
	var events []*models.Event
	q := r.applyEventDetails(readDB(r.db).WithContext(ctx)).
		Preload("Organizer").
		Where("events.status = ?", models.ApprovalApproved).
		Where("events.starts_at > ?", time.Now().UTC())
	if city != "" {
		q = q.Where("events.city ILIKE ?", city)
	}
	err := q.Order("events.starts_at ASC").
		Limit(limit).
		Offset(offset).
		Find(&events).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return events, nil
}

func (r *eventRepository) ListByOrganizer(ctx context.Context, organizerID uint, limit, offset int) ([]*models.Event, error) {
	var events []*models.Event
	err := r.applyEventDetails(readDB(r.db).WithContext(ctx)).
		Where("events.organizer_id = ?", organizerID).
		Order("events.starts_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&events).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return events, nil
}

func (r *eventRepository) ListByStatus(ctx context.Context, status models.ApprovalStatus, limit, offset int) ([]*models.Event, error) {
	var events []*models.Event
	err := readDB(r.db).WithContext(ctx).
		Preload("Organizer").
		Where("status = ?", status).
		Order("created_at ASC").
		Limit(limit).
		Offset(offset).
		Find(&events).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return events, nil
}

func (r *eventRepository) Update(ctx context.Context, event *models.Event) error {
	if err := r.db.WithContext(ctx).Save(event).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *eventRepository) UpdateStatus(ctx context.Context, id uint, status models.ApprovalStatus, reviewerID uint) error {
	updates := map[string]interface{}{"status": status}
	if status == models.ApprovalApproved {
		now := time.Now().UTC()
		updates["approved_at"] = &now
		updates["approved_by"] = reviewerID
	}
	res := r.db.WithContext(ctx).Model(&models.Event{}).Where("id = ?", id).Updates(updates)
	if res.Error != nil {
		return models.NewInternalError(res.Error)
	}
	if res.RowsAffected == 0 {
		return models.NewNotFoundError("Event", id)
	}
	return nil
}

func (r *eventRepository) Delete(ctx context.Context, id uint) error {
	if err := r.db.WithContext(ctx).Delete(&models.Event{}, id).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

// Join registers a participant while enforcing the capacity limit. The insert
// and count run in one transaction to keep the check race-free.
func (r *eventRepository) Join(ctx context.Context, eventID, userID uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var event models.Event
		if err := tx.Clauses(lockingClause()).First(&event, eventID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return models.NewNotFoundError("Event", eventID)
			}
			return models.NewInternalError(err)
		}

		var count int64
		if err := tx.Model(&models.EventParticipant{}).
			Where("event_id = ?", eventID).
			Count(&count).Error; err != nil {
			return models.NewInternalError(err)
		}
		if event.Capacity > 0 && count >= int64(event.Capacity) {
			return ErrEventFull
		}

		participant := models.EventParticipant{EventID: eventID, UserID: userID}
		if err := tx.Create(&participant).Error; err != nil {
			if isUniqueConstraintError(err) {
				return models.NewConflictError("Already joined this event")
			}
			return models.NewInternalError(err)
		}
		return nil
	})
}

func (r *eventRepository) Leave(ctx context.Context, eventID, userID uint) error {
	res := r.db.WithContext(ctx).
		Where("event_id = ? AND user_id = ?", eventID, userID).
		Delete(&models.EventParticipant{})
	if res.Error != nil {
		return models.NewInternalError(res.Error)
	}
	if res.RowsAffected == 0 {
		return models.NewNotFoundError("Event participation", eventID)
	}
	return nil
}

func (r *eventRepository) IsParticipant(ctx context.Context, eventID, userID uint) (bool, error) {
	var count int64
	if err := readDB(r.db).WithContext(ctx).
		Model(&models.EventParticipant{}).
		Where("event_id = ? AND user_id = ?", eventID, userID).
		Count(&count).Error; err != nil {
		return false, models.NewInternalError(err)
	}
	return count > 0, nil
}

func (r *eventRepository) ListParticipants(ctx context.Context, eventID uint, limit, offset int) ([]models.EventParticipant, error) {
	var participants []models.EventParticipant
	if err := readDB(r.db).WithContext(ctx).
		Preload("User").
		Where("event_id = ?", eventID).
		Order("created_at ASC").
		Limit(limit).
		Offset(offset).
		Find(&participants).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return participants, nil
}
