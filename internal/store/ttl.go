package store

import (
	"errors"
	"fmt"
	"strconv"
	"time"
)

// DefaultTTL is the lifetime shared by every TTL-governed table (5 minutes).
const DefaultTTL = 300_000 * time.Millisecond

const (
	// minutesPerHour is used for duration formatting calculations.
	minutesPerHour = 60

	// hoursPerDay is used for duration formatting calculations.
	hoursPerDay = 24
)

// ErrInvalidTTL is returned when a TTL is zero, negative or unparseable.
var ErrInvalidTTL = errors.New("TTL must be a positive duration")

// ParseTTL parses a TTL string in either of two formats:
// - Integer seconds: "300".
// - Duration string: "5m", "1h30m", "300000ms".
func ParseTTL(s string) (time.Duration, error) {
	if seconds, err := strconv.Atoi(s); err == nil {
		if seconds <= 0 {
			return 0, fmt.Errorf("%w: got %d", ErrInvalidTTL, seconds)
		}
		return time.Duration(seconds) * time.Second, nil
	}

	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrInvalidTTL, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("%w: got %s", ErrInvalidTTL, d)
	}

	return d, nil
}

// FormatDuration formats a duration in a human-readable way.
// Examples: "45s", "5m", "2h30m", "3d2h".
func FormatDuration(d time.Duration) string {
	if d < time.Minute {
		return fmt.Sprintf("%.0fs", d.Seconds())
	}
	if d < time.Hour {
		return fmt.Sprintf("%.0fm", d.Minutes())
	}
	if d < hoursPerDay*time.Hour {
		hours := int(d.Hours())
		minutes := int(d.Minutes()) % minutesPerHour
		if minutes == 0 {
			return fmt.Sprintf("%dh", hours)
		}
		return fmt.Sprintf("%dh%dm", hours, minutes)
	}
	days := int(d.Hours()) / hoursPerDay
	hours := int(d.Hours()) % hoursPerDay
	if hours == 0 {
		return fmt.Sprintf("%dd", days)
	}
	return fmt.Sprintf("%dd%dh", days, hours)
}
