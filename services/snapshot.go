package services

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"study-tracker/gamification"
	"study-tracker/models"
)

// snapshot is a consistent view of one user's engine inputs.
type snapshot struct {
	User         models.User
	Logs         []models.StudyLog
	Achievements []models.Achievement
}

func (s snapshot) profile() gamification.Profile {
	return gamification.Profile{UserID: s.User.ID, DailyGoalHours: s.User.DailyGoalHours}
}

func (s snapshot) entries() []gamification.LogEntry {
	return models.ToEntries(s.Logs)
}

func (s snapshot) records() []gamification.Record {
	return models.ToRecords(s.Achievements)
}

// progress recomputes xp and level and stamps them on the user.
func (s *snapshot) progress() gamification.Progress {
	p := gamification.ComputeXP(s.User.DailyGoalHours, s.entries(), s.records())
	s.User.XP, s.User.Level = p.XP, p.Level
	return p
}

func findUser(db *gorm.DB, userID string, lock bool) (models.User, error) {
	var user models.User
	q := db
	if lock {
		// Serializes reconciliation per user.
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	if err := q.Where("id = ?", userID).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return user, ErrUserNotFound
		}
		return user, fmt.Errorf("load user %s: %w", userID, err)
	}
	return user, nil
}

func findLogs(db *gorm.DB, userID string) ([]models.StudyLog, error) {
	var logs []models.StudyLog
	if err := db.Where("user_id = ?", userID).Order("date ASC").Find(&logs).Error; err != nil {
		return nil, fmt.Errorf("load study logs: %w", err)
	}
	return logs, nil
}

// findLogsBetween loads logs with from <= date <= to, oldest first.
func findLogsBetween(db *gorm.DB, userID string, from, to time.Time) ([]models.StudyLog, error) {
	var logs []models.StudyLog
	if err := db.Where("user_id = ? AND date >= ? AND date <= ?", userID, from, to).
		Order("date ASC").
		Find(&logs).Error; err != nil {
		return nil, fmt.Errorf("load range logs: %w", err)
	}
	return logs, nil
}

func findAchievements(db *gorm.DB, userID string) ([]models.Achievement, error) {
	var rows []models.Achievement
	if err := db.Where("user_id = ?", userID).Order("date_achieved ASC").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("load achievements: %w", err)
	}
	return rows, nil
}

func loadSnapshot(db *gorm.DB, userID string, lock bool) (snapshot, error) {
	user, err := findUser(db, userID, lock)
	if err != nil {
		return snapshot{}, err
	}
	logs, err := findLogs(db, userID)
	if err != nil {
		return snapshot{}, err
	}
	rows, err := findAchievements(db, userID)
	if err != nil {
		return snapshot{}, err
	}
	return snapshot{User: user, Logs: logs, Achievements: rows}, nil
}
