package models

import (
	"time"
)

// NotificationType identifies what a notification is about.
type NotificationType string

const (
	NotifyNewBooking            NotificationType = "NEW_BOOKING"
	NotifyBookingConfirmed      NotificationType = "BOOKING_CONFIRMED"
	NotifyBookingCancelled      NotificationType = "BOOKING_CANCELLED"
	NotifyPaymentReceived       NotificationType = "PAYMENT_RECEIVED"
	NotifyReelApproved          NotificationType = "REEL_APPROVED"
	NotifyReelLiked             NotificationType = "REEL_LIKED"
	NotifyNewComment            NotificationType = "NEW_COMMENT"
	NotifyNewReview             NotificationType = "NEW_REVIEW"
	NotifyNewMessage            NotificationType = "NEW_MESSAGE"
	NotifyEventReminder         NotificationType = "EVENT_REMINDER"
	NotifyAccommodationApproved NotificationType = "ACCOMMODATION_APPROVED"
	NotifyAccommodationRejected NotificationType = "ACCOMMODATION_REJECTED"
	NotifyWelcome               NotificationType = "WELCOME"
)

// Notification is an in-app message delivered to a single user. It is stored
// for the notification list endpoint and additionally pushed over the
// WebSocket hub when the recipient is connected.
type Notification struct {
	ID        uint             `gorm:"primaryKey" json:"id"`
	UserID    uint             `gorm:"not null;index" json:"user_id"`
	Type      NotificationType `gorm:"type:varchar(32);not null" json:"type"`
	Title     string           `gorm:"not null" json:"title"`
	Body      string           `json:"body"`
	EntityID  uint             `json:"entity_id,omitempty"`
	Read      bool             `gorm:"default:false;index" json:"read"`
	ReadAt    *time.Time       `json:"read_at,omitempty"`
	CreatedAt time.Time        `json:"created_at"`
}
