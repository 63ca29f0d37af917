package models

import (
	"time"
)

// Currency is a supported currency with its exchange rate against EUR.
// RateToEUR is the amount of this currency equal to one euro.
type Currency struct {
	Code      string    `gorm:"primaryKey;type:varchar(3)" json:"code"`
	Name      string    `gorm:"not null" json:"name"`
	Symbol    string    `gorm:"type:varchar(8)" json:"symbol"`
	RateToEUR float64   `gorm:"not null" json:"rate_to_eur"`
	Enabled   bool      `gorm:"not null;default:true" json:"enabled"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Convert converts an amount in cents of this currency into cents of the
// target currency, rounding half away from zero.
func (c *Currency) Convert(amountCents int64, to *Currency) int64 {
	if c.RateToEUR == 0 {
		return 0
	}
	eur := float64(amountCents) / c.RateToEUR
	out := eur * to.RateToEUR
	if out >= 0 {
		return int64(out + 0.5)
	}
	return int64(out - 0.5)
}
