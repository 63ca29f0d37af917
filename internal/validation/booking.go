package validation

import (
	"fmt"
	"time"
)

// MaxStayNights caps a single booking's length of stay.
const MaxStayNights = 90

// ValidateStayDates checks a check-in/check-out pair. Check-in is inclusive,
// check-out is exclusive, both are calendar dates at midnight UTC.
func ValidateStayDates(checkIn, checkOut time.Time, now time.Time) error {
	if !checkIn.Before(checkOut) {
		return fmt.Errorf("check-out must be after check-in")
	}

	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	if checkIn.Before(today) {
		return fmt.Errorf("check-in cannot be in the past")
	}

	nights := int(checkOut.Sub(checkIn).Hours() / 24)
	if nights > MaxStayNights {
		return fmt.Errorf("stay cannot exceed %d nights", MaxStayNights)
	}

	return nil
}

// ValidateRating checks a review or feedback star rating.
func ValidateRating(rating int) error {
	if rating < 1 || rating > 5 {
		return fmt.Errorf("rating must be between 1 and 5")
	}
	return nil
}

// ValidateGuests checks the guest headcount against an accommodation capacity.
func ValidateGuests(adults, children int, maxGuests int) error {
	if adults < 1 {
		return fmt.Errorf("at least one adult guest is required")
	}
	if children < 0 {
		return fmt.Errorf("children count cannot be negative")
	}
	if maxGuests > 0 && adults+children > maxGuests {
		return fmt.Errorf("guest count exceeds the maximum of %d", maxGuests)
	}
	return nil
}
