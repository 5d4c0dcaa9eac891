// Package timeutil formats durations for display and computes calendar
// boundaries used by day and week reports.
package timeutil

import (
	"fmt"
	"time"
)

const (
	secondsInAMinute = 60
	secondsInAnHour  = 3600
)

// Clock renders d as HH:MM:SS. Hours are not wrapped at 24. Negative
// durations render as zero.
func Clock(d time.Duration) string {
	secs := wholeSeconds(d)

	return fmt.Sprintf("%02d:%02d:%02d",
		secs/secondsInAnHour,
		(secs%secondsInAnHour)/secondsInAMinute,
		secs%secondsInAMinute,
	)
}

// Compact renders d as "Xh Ym", "Ym Zs" or "Zs", dropping the smallest
// unit once hours are shown.
func Compact(d time.Duration) string {
	secs := wholeSeconds(d)
	hrs := secs / secondsInAnHour
	mins := (secs % secondsInAnHour) / secondsInAMinute
	s := secs % secondsInAMinute

	switch {
	case hrs > 0:
		return fmt.Sprintf("%dh %dm", hrs, mins)
	case mins > 0:
		return fmt.Sprintf("%dm %ds", mins, s)
	default:
		return fmt.Sprintf("%ds", s)
	}
}

// Hours renders d in decimal hours, e.g. "1.5h".
func Hours(d time.Duration) string {
	return fmt.Sprintf("%.1fh", d.Hours())
}

func wholeSeconds(d time.Duration) int64 {
	if d < 0 {
		return 0
	}
	return int64(d / time.Second)
}

// StartOfDay resets t to midnight in its own location.
func StartOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// StartOfWeek returns midnight of the Monday on or before t.
func StartOfWeek(t time.Time) time.Time {
	daysFromMonday := int(t.Weekday() - time.Monday)
	if t.Weekday() == time.Sunday {
		daysFromMonday = 6
	}
	return StartOfDay(t.AddDate(0, 0, -daysFromMonday))
}
