package models

import (
	"time"

	"gorm.io/gorm"
)

// Event is an activity organized by an association manager that travelers
// can join up to its capacity.
type Event struct {
	ID          uint   `gorm:"primaryKey" json:"id"`
	OrganizerID uint   `gorm:"not null;index" json:"organizer_id"`
	Organizer   User   `gorm:"foreignKey:OrganizerID" json:"organizer"`
	Title       string `gorm:"not null" json:"title"`
	Description string `gorm:"type:text" json:"description"`
	Country     string `json:"country"`
	City        string `gorm:"index" json:"city"`
	Venue       string `json:"venue"`

	StartsAt time.Time `gorm:"not null;index" json:"starts_at"`
	EndsAt   time.Time `gorm:"not null" json:"ends_at"`

	Capacity   int   `gorm:"not null" json:"capacity"`
	PriceCents int64 `json:"price_cents"`

	Status     ApprovalStatus `gorm:"type:varchar(16);not null;default:'PENDING';index" json:"status"`
	ApprovedAt *time.Time     `json:"approved_at,omitempty"`
	ApprovedBy *uint          `json:"approved_by,omitempty"`

	// ParticipantCount is computed at query time, not persisted.
	ParticipantCount int `gorm:"->" json:"participant_count"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// EventParticipant links a traveler to an event they joined.
type EventParticipant struct {
	UserID    uint      `gorm:"primaryKey;autoIncrement:false" json:"user_id"`
	EventID   uint      `gorm:"primaryKey;autoIncrement:false" json:"event_id"`
	User      User      `gorm:"foreignKey:UserID" json:"user"`
	CreatedAt time.Time `json:"created_at"`
}
