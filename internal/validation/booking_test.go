package validation

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestValidateStayDates(t *testing.T) {
	t.Parallel()
	now := day(2026, time.June, 1)
	tests := []struct {
		name     string
		checkIn  time.Time
		checkOut time.Time
		wantErr  bool
	}{
		{"Valid One Night", day(2026, time.June, 10), day(2026, time.June, 11), false},
		{"Check In Today", day(2026, time.June, 1), day(2026, time.June, 3), false},
		{"Check Out Before Check In", day(2026, time.June, 11), day(2026, time.June, 10), true},
		{"Zero Nights", day(2026, time.June, 10), day(2026, time.June, 10), true},
		{"Check In Past", day(2026, time.May, 30), day(2026, time.June, 2), true},
		{"Exactly Max Nights", day(2026, time.June, 10), day(2026, time.September, 8), false},
		{"Over Max Nights", day(2026, time.June, 10), day(2026, time.September, 9), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateStayDates(tt.checkIn, tt.checkOut, now)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidateRating(t *testing.T) {
	t.Parallel()
	assert.NoError(t, ValidateRating(1))
	assert.NoError(t, ValidateRating(5))
	assert.Error(t, ValidateRating(0))
	assert.Error(t, ValidateRating(6))
}

func TestValidateGuests(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name      string
		adults    int
		children  int
		maxGuests int
		wantErr   bool
	}{
		{"Valid", 2, 1, 4, false},
		{"At Capacity", 2, 2, 4, false},
		{"Over Capacity", 3, 2, 4, true},
		{"No Adults", 0, 2, 4, true},
		{"Negative Children", 1, -1, 4, true},
		{"Unlimited Capacity", 10, 5, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateGuests(tt.adults, tt.children, tt.maxGuests)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
