package models

import (
	"time"

	"gorm.io/gorm"
)

// BookingStatus tracks the lifecycle of a reservation.
type BookingStatus string

const (
	BookingPending   BookingStatus = "PENDING"
	BookingConfirmed BookingStatus = "CONFIRMED"
	BookingCancelled BookingStatus = "CANCELLED"
	BookingCompleted BookingStatus = "COMPLETED"
	BookingNoShow    BookingStatus = "NO_SHOW"
)

// CanTransitionTo reports whether a booking status transition is allowed.
func (s BookingStatus) CanTransitionTo(next BookingStatus) bool {
	switch s {
	case BookingPending:
		return next == BookingConfirmed || next == BookingCancelled
	case BookingConfirmed:
		return next == BookingCompleted || next == BookingCancelled || next == BookingNoShow
	default:
		return false
	}
}

// Blocks reports whether a booking in this status still occupies its dates.
func (s BookingStatus) Blocks() bool {
	return s != BookingCancelled && s != BookingNoShow
}

// Booking is a reservation of an accommodation for a date range.
// CheckIn is inclusive, CheckOut exclusive; all amounts are integer cents.
type Booking struct {
	ID              uint          `gorm:"primaryKey" json:"id"`
	UserID          uint          `gorm:"not null;index" json:"user_id"`
	User            User          `gorm:"foreignKey:UserID" json:"user"`
	AccommodationID uint          `gorm:"not null;index" json:"accommodation_id"`
	Accommodation   Accommodation `gorm:"foreignKey:AccommodationID" json:"accommodation"`

	CheckIn  time.Time `gorm:"not null;index" json:"check_in"`
	CheckOut time.Time `gorm:"not null;index" json:"check_out"`
	Nights   int       `gorm:"not null" json:"nights"`

	Guests   int `gorm:"not null" json:"guests"`
	Adults   int `json:"adults"`
	Children int `json:"children"`
	Infants  int `json:"infants"`

	BasePriceCents int64  `gorm:"not null" json:"base_price_cents"`
	ServiceFee     int64  `gorm:"not null" json:"service_fee_cents"`
	CleaningFee    int64  `gorm:"not null" json:"cleaning_fee_cents"`
	TaxAmount      int64  `gorm:"not null" json:"tax_cents"`
	DiscountAmount int64  `json:"discount_cents"`
	TotalPrice     int64  `gorm:"not null" json:"total_price_cents"`
	Currency       string `gorm:"type:varchar(3);not null" json:"currency"`

	Status        BookingStatus `gorm:"type:varchar(16);not null;default:'PENDING';index" json:"status"`
	PaymentStatus PaymentStatus `gorm:"type:varchar(24);not null;default:'UNPAID'" json:"payment_status"`

	SpecialRequests    string     `json:"special_requests,omitempty"`
	CancellationReason string     `json:"cancellation_reason,omitempty"`
	CancelledAt        *time.Time `json:"cancelled_at,omitempty"`
	CancelledBy        *uint      `json:"cancelled_by,omitempty"`
	ConfirmedAt        *time.Time `json:"confirmed_at,omitempty"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// Overlaps reports whether the booking's [CheckIn, CheckOut) range intersects
// the given range.
func (b *Booking) Overlaps(checkIn, checkOut time.Time) bool {
	return b.CheckIn.Before(checkOut) && checkIn.Before(b.CheckOut)
}

// BookingFeeConfig holds the platform fee schedule. Exactly one config is
// active at a time; superseded configs are kept for audit history.
type BookingFeeConfig struct {
	ID                 uint      `gorm:"primaryKey" json:"id"`
	ServiceFeePercent  float64   `gorm:"not null" json:"service_fee_percent"`
	ServiceFeeMinCents int64     `json:"service_fee_min_cents"`
	ServiceFeeMaxCents int64     `json:"service_fee_max_cents"`
	CleaningFeePercent float64   `gorm:"not null" json:"cleaning_fee_percent"`
	TaxRate            float64   `gorm:"not null" json:"tax_rate"`
	Active             bool      `gorm:"not null;default:true;index" json:"active"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}
