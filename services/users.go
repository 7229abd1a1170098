package services

import (
	"context"
	"fmt"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"study-tracker/gamification"
	"study-tracker/logger"
	"study-tracker/models"
)

type UserService struct {
	DB           *gorm.DB
	Log          *logger.Logger
	Achievements *AchievementService
	DefaultGoal  float64
}

func NewUserService(db *gorm.DB, log *logger.Logger, achievements *AchievementService, defaultGoal float64) *UserService {
	return &UserService{DB: db, Log: log, Achievements: achievements, DefaultGoal: defaultGoal}
}

// EnsureUser returns the local user for a gateway identity, creating it on
// first sight.
func (s *UserService) EnsureUser(ctx context.Context, externalID string) (*models.User, error) {
	externalID = strings.TrimSpace(externalID)
	if externalID == "" {
		return nil, ErrMissingProfileID
	}
	db := s.DB.WithContext(ctx)

	user := models.User{ExternalUserID: externalID, DailyGoalHours: s.DefaultGoal}
	if err := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "external_user_id"}},
		DoNothing: true,
	}).Create(&user).Error; err != nil {
		return nil, fmt.Errorf("ensure user: %w", err)
	}

	var stored models.User
	if err := db.Where("external_user_id = ?", externalID).First(&stored).Error; err != nil {
		return nil, fmt.Errorf("load user: %w", err)
	}
	return &stored, nil
}

// UpdateGoal saves a new daily goal and reconciles achievements against it
// in the same transaction. Goal achievements may be revoked.
func (s *UserService) UpdateGoal(ctx context.Context, userID string, goal float64) (*models.User, gamification.Outcome, error) {
	if err := gamification.CheckGoalBounds(goal); err != nil {
		return nil, gamification.Outcome{}, err
	}

	var (
		user    models.User
		outcome gamification.Outcome
	)
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		if user, err = findUser(tx, userID, true); err != nil {
			return err
		}
		if err := tx.Model(&user).Update("daily_goal_hours", goal).Error; err != nil {
			return fmt.Errorf("save goal: %w", err)
		}
		outcome, err = s.Achievements.ReevaluateTx(tx, userID)
		return err
	})
	if err != nil {
		return nil, gamification.Outcome{}, err
	}
	user.DailyGoalHours = goal

	s.Log.Info("[GOAL] updated", "user_id", userID, "goal", goal, "revoked", len(outcome.Revoked))
	return &user, outcome, nil
}

// UpsertProfiles mirrors profile fields from the profile service. The goal
// column is never touched.
func (s *UserService) UpsertProfiles(ctx context.Context, profiles []models.RemoteProfile) (upserted, failed int) {
	db := s.DB.WithContext(ctx)
	for _, p := range profiles {
		if p.ExternalID == "" {
			failed++
			continue
		}
		local := models.User{
			ExternalUserID: p.ExternalID,
			Username:       p.Username,
			Email:          p.Email,
			FirstName:      p.FirstName,
			LastName:       p.LastName,
			DailyGoalHours: s.DefaultGoal,
		}
		if err := db.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "external_user_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"username", "email", "first_name", "last_name", "updated_at"}),
		}).Create(&local).Error; err != nil {
			failed++
			s.Log.Warn("[SYNC] failed to upsert user", "external_id", p.ExternalID, "username", p.Username, "error", err)
			continue
		}
		upserted++
	}
	return upserted, failed
}

// UserIDs lists every local user id, for batch jobs.
func (s *UserService) UserIDs(ctx context.Context) ([]string, error) {
	var ids []string
	if err := s.DB.WithContext(ctx).Model(&models.User{}).Order("created_at ASC").Pluck("id", &ids).Error; err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return ids, nil
}
