package gamification

import "time"

// LogEntry is one day of study. Date is a day key, Hours is in [0, 24].
type LogEntry struct {
	Date  time.Time
	Hours float64
}

// Profile carries the user fields the engine reads.
type Profile struct {
	UserID         string
	DailyGoalHours float64
}

// Record is a per-user unlocked achievement.
type Record struct {
	ID                  string
	UserID              string
	AchievementID       string
	Achieved            bool
	DateAchieved        time.Time
	Notified            bool
	GoalValueOnAchieved *float64
}

// Outcome is the diff produced by Reconcile.
type Outcome struct {
	Unlocked []Record
	Revoked  []Record
}

// Empty reports whether the outcome changes nothing.
func (o Outcome) Empty() bool {
	return len(o.Unlocked) == 0 && len(o.Revoked) == 0
}
