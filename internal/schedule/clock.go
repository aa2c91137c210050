// Package schedule holds the pure time arithmetic shared by the reservation
// and shift subsystems: clock parsing, interval overlap, capacity resolution
// and shift classification.
package schedule

import (
	"fmt"
	"time"
)

const minutesPerDay = 24 * 60

// ParseClock converts an "HH:MM" 24h string to minutes since midnight.
func ParseClock(clock string) (int, error) {
	t, err := time.Parse("15:04", clock)
	if err != nil {
		return 0, fmt.Errorf("invalid time %q: expected HH:MM", clock)
	}
	return t.Hour()*60 + t.Minute(), nil
}

// ParseDate validates a "YYYY-MM-DD" calendar date.
func ParseDate(date string) (time.Time, error) {
	t, err := time.Parse("2006-01-02", date)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: expected YYYY-MM-DD", date)
	}
	return t, nil
}

// FormatDate renders t as a "YYYY-MM-DD" calendar date.
func FormatDate(t time.Time) string {
	return t.Format("2006-01-02")
}

// FormatClock converts minutes since midnight back to "HH:MM", wrapping at
// midnight for overnight arithmetic.
func FormatClock(minutes int) string {
	minutes %= minutesPerDay
	if minutes < 0 {
		minutes += minutesPerDay
	}
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}
