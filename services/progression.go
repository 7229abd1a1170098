package services

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"study-tracker/analytics"
	"study-tracker/gamification"
	"study-tracker/logger"
	"study-tracker/models"
)

type ProgressionService struct {
	DB  *gorm.DB
	Log *logger.Logger
	Now func() time.Time
}

func NewProgressionService(db *gorm.DB, log *logger.Logger) *ProgressionService {
	return &ProgressionService{DB: db, Log: log, Now: time.Now}
}

// ProgressView is the XP bar shown on every page.
type ProgressView struct {
	XP             int `json:"xp"`
	Level          int `json:"level"`
	XPIntoLevel    int `json:"xp_into_level"`
	XPForNextLevel int `json:"xp_for_next_level"`
	MaxLevel       int `json:"max_level"`
}

func newProgressView(p gamification.Progress) ProgressView {
	return ProgressView{
		XP:             p.XP,
		Level:          p.Level,
		XPIntoLevel:    gamification.XPIntoLevel(p.XP),
		XPForNextLevel: gamification.XPForNextLevel(p.XP),
		MaxLevel:       gamification.MaxLevel,
	}
}

// Progress recomputes XP from stored logs and achievements. Nothing about
// XP is persisted as truth.
func (s *ProgressionService) Progress(ctx context.Context, userID string) (ProgressView, error) {
	snap, err := loadSnapshot(s.DB.WithContext(ctx), userID, false)
	if err != nil {
		return ProgressView{}, err
	}
	return newProgressView(snap.progress()), nil
}

// HistoryLine is one formatted XP history row.
type HistoryLine struct {
	Source gamification.XPSource `json:"source"`
	Amount int                   `json:"amount"`
	Date   string                `json:"date"`
	Text   string                `json:"text"`
}

type History struct {
	Progress     ProgressView  `json:"progress"`
	Achievements []HistoryLine `json:"achievements"`
	Study        []HistoryLine `json:"study"`
}

// History lists where the user's XP came from, newest first.
func (s *ProgressionService) History(ctx context.Context, userID string) (*History, error) {
	snap, err := loadSnapshot(s.DB.WithContext(ctx), userID, false)
	if err != nil {
		return nil, err
	}
	goal := snap.User.DailyGoalHours
	achievements, study := gamification.Breakdown(goal, snap.entries(), snap.records())

	p := message.NewPrinter(language.English)
	out := &History{
		Progress:     newProgressView(snap.progress()),
		Achievements: make([]HistoryLine, 0, len(achievements)),
		Study:        make([]HistoryLine, 0, len(study)),
	}
	for _, ev := range achievements {
		name := ev.AchievementID
		if def, ok := gamification.Lookup(ev.AchievementID); ok {
			name = def.Name
		}
		out.Achievements = append(out.Achievements, HistoryLine{
			Source: ev.Source,
			Amount: ev.Amount,
			Date:   gamification.FormatDay(ev.Date),
			Text:   p.Sprintf("+%d XP for unlocking %q", ev.Amount, name),
		})
	}
	for _, ev := range study {
		var text string
		switch ev.Source {
		case gamification.SourceGoal:
			text = p.Sprintf("+%d XP for meeting your %.1f hour goal", ev.Amount, goal)
		default:
			text = p.Sprintf("+%d XP for studying %.2f hours", ev.Amount, ev.Hours)
		}
		out.Study = append(out.Study, HistoryLine{
			Source: ev.Source,
			Amount: ev.Amount,
			Date:   gamification.FormatDay(ev.Date),
			Text:   text,
		})
	}
	return out, nil
}

// RefreshSnapshot writes the derived progression cache for one user.
func (s *ProgressionService) RefreshSnapshot(ctx context.Context, userID string, now time.Time) (*models.UserProgress, error) {
	db := s.DB.WithContext(ctx)
	snap, err := loadSnapshot(db, userID, false)
	if err != nil {
		return nil, err
	}
	row := buildProgressRow(&snap, now)
	if err := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		UpdateAll: true,
	}).Create(&row).Error; err != nil {
		return nil, fmt.Errorf("refresh progress snapshot: %w", err)
	}
	return &row, nil
}

func buildProgressRow(snap *snapshot, now time.Time) models.UserProgress {
	p := snap.progress()
	entries := snap.entries()
	consistency := gamification.ConsistencyDays(entries)
	goalDays := gamification.GoalDays(entries, snap.User.DailyGoalHours)

	achieved := 0
	for _, a := range snap.Achievements {
		if a.Achieved {
			achieved++
		}
	}
	return models.UserProgress{
		UserID:                   snap.User.ID,
		XP:                       p.XP,
		Level:                    p.Level,
		CurrentConsistencyStreak: gamification.CurrentStreak(consistency, now),
		LongestConsistencyStreak: gamification.LongestStreak(consistency),
		CurrentGoalStreak:        gamification.CurrentStreak(goalDays, now),
		LongestGoalStreak:        gamification.LongestStreak(goalDays),
		TotalHours:               analytics.Round2(gamification.TotalHours(entries)),
		AchievementCount:         achieved,
		RefreshedAt:              now.UTC(),
	}
}
