package gamification

import (
	"fmt"
	"time"
)

// DayLayout is the wire format for calendar days.
const DayLayout = "2006-01-02"

// DayKey returns midnight UTC of t's UTC calendar date. Every date that
// enters the engine goes through here.
func DayKey(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// IsDayKey reports whether t is the instant of a UTC midnight.
func IsDayKey(t time.Time) bool {
	return t.Equal(DayKey(t))
}

// DiffInDays returns the number of whole days from a to b.
func DiffInDays(a, b time.Time) int {
	// UTC has no DST, so every day is exactly 24h.
	return int(DayKey(b).Sub(DayKey(a)) / (24 * time.Hour))
}

// AddDays shifts a day key by n calendar days.
func AddDays(day time.Time, n int) time.Time {
	return DayKey(day).AddDate(0, 0, n)
}

// ParseDay parses a YYYY-MM-DD string into a day key.
func ParseDay(s string) (time.Time, error) {
	t, err := time.ParseInLocation(DayLayout, s, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse day %q: %w", s, err)
	}
	return t, nil
}

// FormatDay renders a day key as YYYY-MM-DD.
func FormatDay(t time.Time) string {
	return DayKey(t).Format(DayLayout)
}
