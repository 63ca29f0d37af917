package models

import (
	"time"

	"gorm.io/gorm"
)

// Review is a traveler's rating of an accommodation, tied to a completed
// booking. One review per booking.
type Review struct {
	ID              uint          `gorm:"primaryKey" json:"id"`
	UserID          uint          `gorm:"not null;index" json:"user_id"`
	User            User          `gorm:"foreignKey:UserID" json:"user"`
	AccommodationID uint          `gorm:"not null;index" json:"accommodation_id"`
	Accommodation   Accommodation `gorm:"foreignKey:AccommodationID" json:"-"`
	BookingID       uint          `gorm:"not null;uniqueIndex" json:"booking_id"`

	Rating  int    `gorm:"not null" json:"rating"`
	Title   string `json:"title"`
	Comment string `gorm:"type:text" json:"comment"`

	Status ApprovalStatus `gorm:"type:varchar(16);not null;default:'PENDING';index" json:"status"`

	// HelpfulCount is computed at query time and not persisted.
	HelpfulCount int `gorm:"->" json:"helpful_count"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// ReviewHelpful is a "found this helpful" vote on a review.
type ReviewHelpful struct {
	UserID    uint      `gorm:"primaryKey;autoIncrement:false" json:"user_id"`
	ReviewID  uint      `gorm:"primaryKey;autoIncrement:false" json:"review_id"`
	CreatedAt time.Time `json:"created_at"`
}
