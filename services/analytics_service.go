package services

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"study-tracker/analytics"
	"study-tracker/gamification"
	"study-tracker/logger"
	"study-tracker/models"
)

const (
	ChartDateRange       = "dateRange"
	ChartMonthly         = "monthly"
	ChartDayOfWeek       = "dayOfWeek"
	ChartGoalAchievement = "goalAchievement"
	ChartDistribution    = "distribution"
	ChartMonthlyHistory  = "monthly_history"
)

type AnalyticsService struct {
	DB  *gorm.DB
	Log *logger.Logger
	Now func() time.Time
}

func NewAnalyticsService(db *gorm.DB, log *logger.Logger) *AnalyticsService {
	return &AnalyticsService{DB: db, Log: log, Now: time.Now}
}

func (s *AnalyticsService) today() time.Time {
	return gamification.DayKey(s.Now())
}

type Dashboard struct {
	User                     models.User       `json:"user"`
	Progress                 ProgressView      `json:"progress"`
	TodayHours               float64           `json:"today_hours"`
	RecentLogs               []models.StudyLog `json:"recent_logs"`
	TotalHours               float64           `json:"total_hours"`
	TotalHoursRange          string            `json:"total_hours_range"`
	AchievementCount         int               `json:"achievement_count"`
	CurrentConsistencyStreak int               `json:"current_consistency_streak"`
	CurrentGoalStreak        int               `json:"current_goal_streak"`
	MaxConsistencyStreak     int               `json:"max_consistency_streak"`
	MaxGoalStreak            int               `json:"max_goal_streak"`
}

// Dashboard assembles the landing page. AchievementCount counts unlocks the
// user has not been shown yet.
func (s *AnalyticsService) Dashboard(ctx context.Context, userID, totalHoursRange string) (*Dashboard, error) {
	snap, err := loadSnapshot(s.DB.WithContext(ctx), userID, false)
	if err != nil {
		return nil, err
	}
	if totalHoursRange == "" {
		totalHoursRange = "alltime"
	}
	today := s.today()
	entries := snap.entries()
	consistency := gamification.ConsistencyDays(entries)
	goalDays := gamification.GoalDays(entries, snap.User.DailyGoalHours)

	unseen := len(gamification.Unnotified(snap.records()))

	return &Dashboard{
		User:                     snap.User,
		Progress:                 newProgressView(snap.progress()),
		TodayHours:               analytics.HoursOn(entries, today),
		RecentLogs:               recentRows(snap.Logs, today),
		TotalHours:               analytics.Round2(analytics.TotalHoursFor(entries, totalHoursRange, today)),
		TotalHoursRange:          totalHoursRange,
		AchievementCount:         unseen,
		CurrentConsistencyStreak: gamification.CurrentStreak(consistency, today),
		CurrentGoalStreak:        gamification.CurrentStreak(goalDays, today),
		MaxConsistencyStreak:     gamification.LongestStreak(consistency),
		MaxGoalStreak:            gamification.LongestStreak(goalDays),
	}, nil
}

// recentRows keeps the stored rows of the last 30 days, newest first.
func recentRows(logs []models.StudyLog, today time.Time) []models.StudyLog {
	from := gamification.AddDays(today, -30)
	out := make([]models.StudyLog, 0)
	for i := len(logs) - 1; i >= 0; i-- {
		if !gamification.DayKey(logs[i].Date).Before(from) {
			out = append(out, logs[i])
		}
	}
	return out
}

type Calendar struct {
	Month string            `json:"month"`
	Goal  float64           `json:"daily_goal_hours"`
	Logs  []models.StudyLog `json:"logs"`
}

// Calendar returns the logs of month (YYYY-MM, default current month).
func (s *AnalyticsService) Calendar(ctx context.Context, userID, month string) (*Calendar, error) {
	first, err := s.monthOrCurrent(month)
	if err != nil {
		return nil, err
	}
	db := s.DB.WithContext(ctx)
	user, err := findUser(db, userID, false)
	if err != nil {
		return nil, err
	}
	logs, err := monthRows(db, userID, first)
	if err != nil {
		return nil, err
	}
	return &Calendar{Month: first.Format("2006-01"), Goal: user.DailyGoalHours, Logs: logs}, nil
}

func (s *AnalyticsService) monthOrCurrent(month string) (time.Time, error) {
	if month == "" {
		return analytics.MonthStart(s.Now()), nil
	}
	first, err := analytics.ParseMonth(month)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: month %q must be YYYY-MM", ErrInvalidRange, month)
	}
	return first, nil
}

func monthRows(db *gorm.DB, userID string, first time.Time) ([]models.StudyLog, error) {
	var logs []models.StudyLog
	if err := db.Where("user_id = ? AND date >= ? AND date < ?", userID, first, first.AddDate(0, 1, 0)).
		Order("date ASC").
		Find(&logs).Error; err != nil {
		return nil, fmt.Errorf("load month logs: %w", err)
	}
	return logs, nil
}

type Summary struct {
	User       models.User       `json:"user"`
	Progress   ProgressView      `json:"progress"`
	RecentLogs []models.StudyLog `json:"recent_logs"`
	analytics.MonthSummary
}

// Summary backs the analytics page header.
func (s *AnalyticsService) Summary(ctx context.Context, userID string) (*Summary, error) {
	snap, err := loadSnapshot(s.DB.WithContext(ctx), userID, false)
	if err != nil {
		return nil, err
	}
	today := s.today()
	return &Summary{
		User:         snap.User,
		Progress:     newProgressView(snap.progress()),
		RecentLogs:   recentRows(snap.Logs, today),
		MonthSummary: analytics.SummarizeMonth(snap.entries(), today),
	}, nil
}

// ChartQuery carries the chart parameters from the query string.
type ChartQuery struct {
	Chart     string `query:"chart" validate:"required,oneof=dateRange monthly dayOfWeek goalAchievement distribution monthly_history"`
	StartDate string `query:"startDate" validate:"required_if=Chart dateRange"`
	EndDate   string `query:"endDate" validate:"required_if=Chart dateRange"`
	Month     string `query:"month"`
	Range     string `query:"range"`
}

// Chart computes one analytics chart. Unknown charts and malformed dates
// return ErrInvalidRange.
func (s *AnalyticsService) Chart(ctx context.Context, userID string, q ChartQuery) (interface{}, error) {
	db := s.DB.WithContext(ctx)
	user, err := findUser(db, userID, false)
	if err != nil {
		return nil, err
	}

	switch q.Chart {
	case ChartDateRange:
		from, err := gamification.ParseDay(q.StartDate)
		if err != nil {
			return nil, fmt.Errorf("%w: startDate: %v", ErrInvalidRange, err)
		}
		to, err := gamification.ParseDay(q.EndDate)
		if err != nil {
			return nil, fmt.Errorf("%w: endDate: %v", ErrInvalidRange, err)
		}
		if to.Before(from) {
			return nil, fmt.Errorf("%w: endDate before startDate", ErrInvalidRange)
		}
		return findLogsBetween(db, userID, from, to)

	case ChartMonthly, ChartDayOfWeek, ChartGoalAchievement:
		first, err := s.monthOrCurrent(q.Month)
		if err != nil {
			return nil, err
		}
		logs, err := monthRows(db, userID, first)
		if err != nil {
			return nil, err
		}
		switch q.Chart {
		case ChartMonthly:
			return logs, nil
		case ChartDayOfWeek:
			out := analytics.DayOfWeekAverages(models.ToEntries(logs))
			if out == nil {
				out = []analytics.DayOfWeekAverage{}
			}
			return out, nil
		default:
			return analytics.CountGoalDays(models.ToEntries(logs), user.DailyGoalHours), nil
		}

	case ChartDistribution:
		logs, err := findLogs(db, userID)
		if err != nil {
			return nil, err
		}
		point := analytics.Distribution(models.ToEntries(logs), q.Range, s.today())
		return []analytics.DistributionPoint{point}, nil

	case ChartMonthlyHistory:
		logs, err := findLogs(db, userID)
		if err != nil {
			return nil, err
		}
		return analytics.MonthlyHistory(models.ToEntries(logs)), nil

	default:
		return nil, fmt.Errorf("%w: chart %q", ErrInvalidRange, q.Chart)
	}
}
