package models

import (
	"time"
)

// UserProgress is a display cache of derived progression, refreshed by the
// nightly job. XP and level here are never read back as source of truth.
type UserProgress struct {
	UserID string `gorm:"primaryKey;type:uuid" json:"user_id"`

	XP    int `json:"xp" gorm:"default:0"`
	Level int `json:"level" gorm:"default:1"`

	CurrentConsistencyStreak int     `json:"current_consistency_streak" gorm:"default:0"`
	LongestConsistencyStreak int     `json:"longest_consistency_streak" gorm:"default:0"`
	CurrentGoalStreak        int     `json:"current_goal_streak" gorm:"default:0"`
	LongestGoalStreak        int     `json:"longest_goal_streak" gorm:"default:0"`
	TotalHours               float64 `json:"total_hours" gorm:"default:0"`
	AchievementCount         int     `json:"achievement_count" gorm:"default:0"`

	RefreshedAt time.Time `json:"refreshed_at"`

	Timestamps
}

// Timestamps adds GORM auto-times
type Timestamps struct {
	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}
