package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"study-tracker/gamification"
)

// StudyLog is one calendar day of study for a user. Date is midnight UTC
// and unique per user.
type StudyLog struct {
	ID     string    `gorm:"primaryKey;type:uuid" json:"id"`
	UserID string    `gorm:"not null;uniqueIndex:idx_study_logs_user_date" json:"user_id"`
	Date   time.Time `gorm:"not null;uniqueIndex:idx_study_logs_user_date" json:"date"`
	Hours  float64   `gorm:"not null" json:"hours"`

	Timestamps
}

func (l *StudyLog) BeforeCreate(tx *gorm.DB) error {
	if l.ID == "" {
		l.ID = uuid.NewString()
	}
	return nil
}

func (l StudyLog) Entry() gamification.LogEntry {
	return gamification.LogEntry{Date: gamification.DayKey(l.Date), Hours: l.Hours}
}

// ToEntries converts stored logs, keeping their order.
func ToEntries(logs []StudyLog) []gamification.LogEntry {
	out := make([]gamification.LogEntry, len(logs))
	for i, l := range logs {
		out[i] = l.Entry()
	}
	return out
}
