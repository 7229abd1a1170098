package services

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"study-tracker/analytics"
	"study-tracker/gamification"
	"study-tracker/logger"
	"study-tracker/models"
)

type AchievementService struct {
	DB  *gorm.DB
	Log *logger.Logger
	Now func() time.Time
}

func NewAchievementService(db *gorm.DB, log *logger.Logger) *AchievementService {
	return &AchievementService{DB: db, Log: log, Now: time.Now}
}

// Reevaluate reconciles the user's stored achievements with the catalog
// in one transaction. Safe to re-run after a failure.
func (s *AchievementService) Reevaluate(ctx context.Context, userID string) (gamification.Outcome, error) {
	var outcome gamification.Outcome
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		outcome, err = s.ReevaluateTx(tx, userID)
		return err
	})
	return outcome, err
}

// ReevaluateTx runs inside the caller's transaction so a log write or goal
// change and its reconciliation commit together.
func (s *AchievementService) ReevaluateTx(tx *gorm.DB, userID string) (gamification.Outcome, error) {
	snap, err := loadSnapshot(tx, userID, true)
	if err != nil {
		return gamification.Outcome{}, err
	}

	outcome := gamification.Reconcile(snap.profile(), snap.entries(), snap.records(), s.Now().UTC())

	if len(outcome.Unlocked) > 0 {
		rows := make([]models.Achievement, len(outcome.Unlocked))
		for i, r := range outcome.Unlocked {
			rows[i] = models.AchievementFromRecord(r)
		}
		if err := tx.Create(&rows).Error; err != nil {
			return gamification.Outcome{}, fmt.Errorf("insert unlocked achievements: %w", err)
		}
		for i := range rows {
			outcome.Unlocked[i].ID = rows[i].ID
		}
	}

	if len(outcome.Revoked) > 0 {
		ids := make([]string, len(outcome.Revoked))
		for i, r := range outcome.Revoked {
			ids[i] = r.AchievementID
		}
		if err := tx.Where("user_id = ? AND achievement_id IN ?", userID, ids).
			Delete(&models.Achievement{}).Error; err != nil {
			return gamification.Outcome{}, fmt.Errorf("delete revoked achievements: %w", err)
		}
	}

	if !outcome.Empty() {
		s.Log.Info("[ACHIEVEMENTS] reconciled",
			"user_id", userID,
			"unlocked", idsOf(outcome.Unlocked),
			"revoked", idsOf(outcome.Revoked),
		)
	}
	return outcome, nil
}

func idsOf(records []gamification.Record) []string {
	out := make([]string, len(records))
	for i, r := range records {
		out[i] = r.AchievementID
	}
	return out
}

// CheckNew returns the achievements the client has not been shown yet and
// marks them notified, so each unlock is surfaced exactly once.
func (s *AchievementService) CheckNew(ctx context.Context, userID string) ([]models.Achievement, error) {
	fresh, err := s.claimUnseen(ctx, userID)
	if err != nil {
		return nil, err
	}
	if fresh == nil {
		fresh = []models.Achievement{}
	}
	return fresh, nil
}

// claimUnseen locks the unseen rows, marks them notified and returns them
// in one transaction. A concurrent claim blocks on the row locks and then
// no longer matches notified = false, so a row is claimed by one caller.
func (s *AchievementService) claimUnseen(ctx context.Context, userID string) ([]models.Achievement, error) {
	var claimed []models.Achievement
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		rows, err := findUnseen(tx.Clauses(clause.Locking{Strength: "UPDATE"}), userID)
		if err != nil || len(rows) == 0 {
			return err
		}
		ids := make([]string, len(rows))
		for i := range rows {
			ids[i] = rows[i].ID
			rows[i].Notified = true
		}
		if err := s.MarkNotifiedTx(tx, userID, ids); err != nil {
			return err
		}
		claimed = rows
		return nil
	})
	if err != nil {
		return nil, err
	}
	return claimed, nil
}

// releaseClaim puts claimed rows back to unseen after a failed delivery.
func (s *AchievementService) releaseClaim(ctx context.Context, userID string, ids []string) error {
	if err := s.DB.WithContext(ctx).Model(&models.Achievement{}).
		Where("user_id = ? AND id IN ?", userID, ids).
		Update("notified", false).Error; err != nil {
		return fmt.Errorf("release notified: %w", err)
	}
	return nil
}

func findUnseen(db *gorm.DB, userID string) ([]models.Achievement, error) {
	var rows []models.Achievement
	if err := db.Where("user_id = ? AND achieved = ? AND notified = ?", userID, true, false).
		Order("date_achieved ASC").
		Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("load unseen achievements: %w", err)
	}
	return rows, nil
}

// MarkNotifiedTx flips notified for the given record ids in one update.
func (s *AchievementService) MarkNotifiedTx(tx *gorm.DB, userID string, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	if err := tx.Model(&models.Achievement{}).
		Where("user_id = ? AND id IN ? AND notified = ?", userID, ids, false).
		Update("notified", true).Error; err != nil {
		return fmt.Errorf("mark achievements notified: %w", err)
	}
	return nil
}

// BoardEntry is one catalog row with the user's unlock state.
type BoardEntry struct {
	gamification.Definition
	Achieved            bool       `json:"achieved"`
	DateAchieved        *time.Time `json:"date_achieved,omitempty"`
	GoalValueOnAchieved *float64   `json:"goal_value_on_achieved"`
}

type Board struct {
	User                     models.User               `json:"user"`
	Completed                []BoardEntry              `json:"completed"`
	YetToCompleteConsistency []BoardEntry              `json:"yet_to_complete_consistency"`
	YetToCompleteGoal        []BoardEntry              `json:"yet_to_complete_goal"`
	YetToCompleteHours       []BoardEntry              `json:"yet_to_complete_hours"`
	LongestConsistencyStreak int                       `json:"longest_consistency_streak"`
	LongestGoalStreak        int                       `json:"longest_goal_streak"`
	TotalStudyHours          float64                   `json:"total_study_hours"`
	Catalog                  []gamification.Definition `json:"achievements_list"`
}

// Board reconciles first, then lays out the catalog for the achievements page.
func (s *AchievementService) Board(ctx context.Context, userID string) (*Board, error) {
	var snap snapshot
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := s.ReevaluateTx(tx, userID); err != nil {
			return err
		}
		var err error
		snap, err = loadSnapshot(tx, userID, false)
		return err
	})
	if err != nil {
		return nil, err
	}
	snap.progress()

	byID := make(map[string]models.Achievement, len(snap.Achievements))
	for _, a := range snap.Achievements {
		byID[a.AchievementID] = a
	}

	entries := snap.entries()
	board := &Board{
		User:                     snap.User,
		Completed:                []BoardEntry{},
		YetToCompleteConsistency: []BoardEntry{},
		YetToCompleteGoal:        []BoardEntry{},
		YetToCompleteHours:       []BoardEntry{},
		LongestConsistencyStreak: gamification.LongestStreak(gamification.ConsistencyDays(entries)),
		LongestGoalStreak:        gamification.LongestStreak(gamification.GoalDays(entries, snap.User.DailyGoalHours)),
		TotalStudyHours:          analytics.Round2(gamification.TotalHours(entries)),
		Catalog:                  gamification.Catalog(),
	}
	for _, def := range board.Catalog {
		entry := BoardEntry{Definition: def}
		if a, ok := byID[def.ID]; ok && a.Achieved {
			when := a.DateAchieved
			entry.Achieved = true
			entry.DateAchieved = &when
			entry.GoalValueOnAchieved = a.GoalValueOnAchieved
			board.Completed = append(board.Completed, entry)
			continue
		}
		switch def.Kind {
		case gamification.KindConsistency:
			board.YetToCompleteConsistency = append(board.YetToCompleteConsistency, entry)
		case gamification.KindGoal:
			board.YetToCompleteGoal = append(board.YetToCompleteGoal, entry)
		case gamification.KindTotalHours:
			board.YetToCompleteHours = append(board.YetToCompleteHours, entry)
		}
	}
	return board, nil
}
