package utils

import (
	"time"
)

// SameCalendarDay reports whether two instants fall on the same calendar
// day. Withdrawal limits reset on day boundaries, not on a rolling 24h
// window.
func SameCalendarDay(a, b time.Time) bool {
	return a.Year() == b.Year() && a.YearDay() == b.YearDay()
}

// StartOfDay returns 00:00:00 of the given time in its location.
func StartOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// EndOfDay returns the first instant of the next day.
func EndOfDay(t time.Time) time.Time {
	return StartOfDay(t).AddDate(0, 0, 1)
}
