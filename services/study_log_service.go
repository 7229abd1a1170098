package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/gosimple/slug"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"study-tracker/gamification"
	"study-tracker/logger"
	"study-tracker/models"
)

// Archiver stores an export blob and returns where it landed.
type Archiver interface {
	Archive(ctx context.Context, key string, body []byte, contentType string) (string, error)
}

type StudyLogService struct {
	DB           *gorm.DB
	Log          *logger.Logger
	Achievements *AchievementService
	Archive      Archiver // nil disables export
	Now          func() time.Time
}

func NewStudyLogService(db *gorm.DB, log *logger.Logger, achievements *AchievementService, archive Archiver) *StudyLogService {
	return &StudyLogService{DB: db, Log: log, Achievements: achievements, Archive: archive, Now: time.Now}
}

// SubmitLog stores hours for one day, replacing any earlier entry for that
// day, and reconciles achievements in the same transaction.
func (s *StudyLogService) SubmitLog(ctx context.Context, userID string, day time.Time, hours float64) (*models.StudyLog, gamification.Outcome, error) {
	entry := gamification.LogEntry{Date: day, Hours: hours}
	if err := gamification.ValidateEntry(entry); err != nil {
		return nil, gamification.Outcome{}, err
	}

	row := models.StudyLog{UserID: userID, Date: day, Hours: hours}
	var outcome gamification.Outcome
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := findUser(tx, userID, true); err != nil {
			return err
		}
		if err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "date"}},
			DoUpdates: clause.AssignmentColumns([]string{"hours", "updated_at"}),
		}).Create(&row).Error; err != nil {
			return fmt.Errorf("save study log: %w", err)
		}
		// On conflict the hook-assigned id was discarded; read back the stored row.
		var stored models.StudyLog
		if err := tx.Where("user_id = ? AND date = ?", userID, day).First(&stored).Error; err != nil {
			return fmt.Errorf("reload study log: %w", err)
		}
		row = stored
		var err error
		outcome, err = s.Achievements.ReevaluateTx(tx, userID)
		return err
	})
	if err != nil {
		return nil, gamification.Outcome{}, err
	}

	s.Log.Info("[LOG] saved", "user_id", userID, "date", gamification.FormatDay(day), "hours", hours)
	return &row, outcome, nil
}

// ListLogs returns every log for the user, oldest first.
func (s *StudyLogService) ListLogs(ctx context.Context, userID string) ([]models.StudyLog, error) {
	return findLogs(s.DB.WithContext(ctx), userID)
}

// LogsInRange returns logs with from <= date <= to, oldest first.
func (s *StudyLogService) LogsInRange(ctx context.Context, userID string, from, to time.Time) ([]models.StudyLog, error) {
	if to.Before(from) {
		return nil, fmt.Errorf("%w: %s is after %s", ErrInvalidRange, gamification.FormatDay(from), gamification.FormatDay(to))
	}
	return findLogsBetween(s.DB.WithContext(ctx), userID, gamification.DayKey(from), gamification.DayKey(to))
}

// AccountExport is the archived shape of a user's data.
type AccountExport struct {
	User         models.User          `json:"user"`
	Logs         []models.StudyLog    `json:"logs"`
	Achievements []models.Achievement `json:"achievements"`
	ExportedAt   time.Time            `json:"exported_at"`
}

// ExportKey builds exports/<slug>/<timestamp>.json.
func ExportKey(user models.User, at time.Time) string {
	name := slug.Make(user.Username)
	if name == "" {
		name = user.ID
	}
	return fmt.Sprintf("exports/%s/%s.json", name, at.UTC().Format("20060102T150405Z"))
}

// Export archives the user's logs and achievements and returns the URL.
func (s *StudyLogService) Export(ctx context.Context, userID string) (string, error) {
	if s.Archive == nil {
		return "", ErrArchiveDisabled
	}
	snap, err := loadSnapshot(s.DB.WithContext(ctx), userID, false)
	if err != nil {
		return "", err
	}
	return s.archiveSnapshot(ctx, &snap)
}

func (s *StudyLogService) archiveSnapshot(ctx context.Context, snap *snapshot) (string, error) {
	snap.progress()
	now := s.Now().UTC()
	body, err := json.Marshal(AccountExport{
		User:         snap.User,
		Logs:         snap.Logs,
		Achievements: snap.Achievements,
		ExportedAt:   now,
	})
	if err != nil {
		return "", fmt.Errorf("encode export: %w", err)
	}
	url, err := s.Archive.Archive(ctx, ExportKey(snap.User, now), body, "application/json")
	if err != nil {
		return "", err
	}
	s.Log.Info("[EXPORT] archived", "user_id", snap.User.ID, "url", url)
	return url, nil
}

// ClearAccountData deletes all logs, achievements and the progress cache
// for the user. When an archive is configured the data is exported first,
// outside the transaction, and the clear aborts if that fails; only the
// archived rows are then deleted, so anything written during the upload
// survives. The user row and goal remain.
func (s *StudyLogService) ClearAccountData(ctx context.Context, userID string) (archiveURL string, err error) {
	db := s.DB.WithContext(ctx)

	var logIDs, achievementIDs []string
	scoped := s.Archive != nil
	if scoped {
		snap, err := loadSnapshot(db, userID, false)
		if err != nil {
			return "", err
		}
		if len(snap.Logs) > 0 || len(snap.Achievements) > 0 {
			if archiveURL, err = s.archiveSnapshot(ctx, &snap); err != nil {
				return "", err
			}
		}
		for _, l := range snap.Logs {
			logIDs = append(logIDs, l.ID)
		}
		for _, a := range snap.Achievements {
			achievementIDs = append(achievementIDs, a.ID)
		}
	}

	err = db.Transaction(func(tx *gorm.DB) error {
		if _, err := findUser(tx, userID, true); err != nil {
			return err
		}
		if err := deleteUserRows(tx, &models.StudyLog{}, userID, scoped, logIDs); err != nil {
			return fmt.Errorf("delete study logs: %w", err)
		}
		if err := deleteUserRows(tx, &models.Achievement{}, userID, scoped, achievementIDs); err != nil {
			return fmt.Errorf("delete achievements: %w", err)
		}
		if err := tx.Where("user_id = ?", userID).Delete(&models.UserProgress{}).Error; err != nil {
			return fmt.Errorf("delete progress snapshot: %w", err)
		}
		return nil
	})
	if err != nil {
		return "", err
	}
	s.Log.Info("[CLEAR] account data cleared", "user_id", userID, "archived", scoped)
	return archiveURL, nil
}

// deleteUserRows deletes every row of the user, or only ids when scoped.
func deleteUserRows(tx *gorm.DB, model interface{}, userID string, scoped bool, ids []string) error {
	q := tx.Where("user_id = ?", userID)
	if scoped {
		if len(ids) == 0 {
			return nil
		}
		q = q.Where("id IN ?", ids)
	}
	return q.Delete(model).Error
}
