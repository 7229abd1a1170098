package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"study-tracker/gamification"
)

// Achievement is an unlocked catalog entry for a user. Rows are deleted
// when the user stops qualifying.
type Achievement struct {
	ID                  string    `gorm:"primaryKey;type:uuid" json:"id"`
	UserID              string    `gorm:"not null;uniqueIndex:idx_achievements_user_achievement" json:"user_id"`
	AchievementID       string    `gorm:"not null;uniqueIndex:idx_achievements_user_achievement" json:"achievement_id"`
	Name                string    `gorm:"not null" json:"name"`
	Description         string    `json:"description"`
	Type                string    `gorm:"type:varchar(16)" json:"type"`
	Achieved            bool      `gorm:"not null" json:"achieved"`
	DateAchieved        time.Time `json:"date_achieved"`
	Notified            bool      `gorm:"not null;default:false;index" json:"notified"`
	GoalValueOnAchieved *float64  `json:"goal_value_on_achieved,omitempty"`
	CreatedAt           time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (a *Achievement) BeforeCreate(tx *gorm.DB) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	return nil
}

func (a Achievement) Record() gamification.Record {
	return gamification.Record{
		ID:                  a.ID,
		UserID:              a.UserID,
		AchievementID:       a.AchievementID,
		Achieved:            a.Achieved,
		DateAchieved:        a.DateAchieved,
		Notified:            a.Notified,
		GoalValueOnAchieved: a.GoalValueOnAchieved,
	}
}

// ToRecords converts stored rows for the engine.
func ToRecords(rows []Achievement) []gamification.Record {
	out := make([]gamification.Record, len(rows))
	for i, a := range rows {
		out[i] = a.Record()
	}
	return out
}

// AchievementFromRecord denormalizes the catalog name and description so
// clients can render an unlock without the catalog.
func AchievementFromRecord(r gamification.Record) Achievement {
	a := Achievement{
		ID:                  r.ID,
		UserID:              r.UserID,
		AchievementID:       r.AchievementID,
		Achieved:            r.Achieved,
		DateAchieved:        r.DateAchieved,
		Notified:            r.Notified,
		GoalValueOnAchieved: r.GoalValueOnAchieved,
	}
	if def, ok := gamification.Lookup(r.AchievementID); ok {
		a.Name = def.Name
		a.Description = def.Description
		a.Type = string(def.Kind)
	}
	return a
}
