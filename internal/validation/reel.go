package validation

import "fmt"

const (
	MinReelDurationSeconds = 1
	MaxReelDurationSeconds = 90
)

// ValidateReelDuration checks a reel's length in seconds.
func ValidateReelDuration(seconds int) error {
	if seconds < MinReelDurationSeconds || seconds > MaxReelDurationSeconds {
		return fmt.Errorf("duration must be between %d and %d seconds", MinReelDurationSeconds, MaxReelDurationSeconds)
	}
	return nil
}
