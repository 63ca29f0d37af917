package models

import (
	"time"
)

// PaymentStatus tracks a payment through the gateway.
type PaymentStatus string

const (
	PaymentUnpaid            PaymentStatus = "UNPAID"
	PaymentProcessing        PaymentStatus = "PROCESSING"
	PaymentPaid              PaymentStatus = "PAID"
	PaymentFailed            PaymentStatus = "FAILED"
	PaymentRefunded          PaymentStatus = "REFUNDED"
	PaymentPartiallyRefunded PaymentStatus = "PARTIALLY_REFUNDED"
)

// Payment is the gateway-side record for a booking. One payment per booking;
// a failed payment is retried by updating the same row with a fresh intent.
type Payment struct {
	ID        uint    `gorm:"primaryKey" json:"id"`
	BookingID uint    `gorm:"not null;uniqueIndex" json:"booking_id"`
	Booking   Booking `gorm:"foreignKey:BookingID" json:"booking,omitempty"`

	Provider       string `gorm:"type:varchar(32);not null" json:"provider"`
	IntentID       string `gorm:"index" json:"intent_id"`
	AmountCents    int64  `gorm:"not null" json:"amount_cents"`
	Currency       string `gorm:"type:varchar(3);not null" json:"currency"`
	PlatformFee    int64  `json:"platform_fee_cents"`
	SupplierPayout int64  `json:"supplier_payout_cents"`

	Status        PaymentStatus `gorm:"type:varchar(24);not null;default:'UNPAID';index" json:"status"`
	FailureReason string        `json:"failure_reason,omitempty"`

	RefundCents  int64      `json:"refund_cents"`
	RefundReason string     `json:"refund_reason,omitempty"`
	RefundedAt   *time.Time `json:"refunded_at,omitempty"`
	PaidAt       *time.Time `json:"paid_at,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// CanBeRefunded reports whether a refund may still be issued.
func (p *Payment) CanBeRefunded() bool {
	if p.Status != PaymentPaid && p.Status != PaymentPartiallyRefunded {
		return false
	}
	return p.RefundCents < p.AmountCents
}
