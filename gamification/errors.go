package gamification

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrInvalidLogEntry = errors.New("invalid log entry")
	ErrInvalidGoal     = errors.New("invalid daily goal")
)

const MaxHoursPerDay = 24

// Bounds for a goal a user may hold.
const (
	MinDailyGoalHours = 0.5
	MaxDailyGoalHours = 24
)

// ValidateEntry checks a single entry before it is stored.
func ValidateEntry(e LogEntry) error {
	if e.Hours < 0 || e.Hours > MaxHoursPerDay {
		return fmt.Errorf("%w: hours %v outside [0, %d]", ErrInvalidLogEntry, e.Hours, MaxHoursPerDay)
	}
	if !IsDayKey(e.Date) {
		return fmt.Errorf("%w: date %s is not a UTC day", ErrInvalidLogEntry, e.Date.Format(time.RFC3339))
	}
	return nil
}

// ValidateLogs checks every entry and the one-entry-per-day invariant.
func ValidateLogs(logs []LogEntry) error {
	seen := make(map[int64]struct{}, len(logs))
	for _, e := range logs {
		if err := ValidateEntry(e); err != nil {
			return err
		}
		key := e.Date.Unix()
		if _, dup := seen[key]; dup {
			return fmt.Errorf("%w: duplicate date %s", ErrInvalidLogEntry, FormatDay(e.Date))
		}
		seen[key] = struct{}{}
	}
	return nil
}

// ValidateGoal rejects non-positive goals. The engine still accepts them:
// with goal <= 0 every non-negative entry meets the goal.
func ValidateGoal(goal float64) error {
	if goal <= 0 {
		return fmt.Errorf("%w: %v must be positive", ErrInvalidGoal, goal)
	}
	return nil
}

// CheckGoalBounds rejects goals a user could not set for themselves.
func CheckGoalBounds(goal float64) error {
	if err := ValidateGoal(goal); err != nil {
		return err
	}
	if goal < MinDailyGoalHours || goal > MaxDailyGoalHours {
		return fmt.Errorf("%w: must be between %.1f and %d hours", ErrInvalidGoal, MinDailyGoalHours, MaxDailyGoalHours)
	}
	return nil
}
