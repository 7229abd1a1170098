package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
	"time"

	"gorm.io/gorm"

	"study-tracker/gamification"
	"study-tracker/logger"
	"study-tracker/models"
)

const (
	NotEnoughDataMessage = "Not enough data to analyze yet. Log some study hours first!"
	coachWindowDays      = 30
	coachCacheTTL        = 24 * time.Hour
)

type CoachService struct {
	DB    *gorm.DB
	Log   *logger.Logger
	LLM   TextGenerator // nil disables the coach
	Cache AnswerCache   // optional
	Now   func() time.Time
}

func NewCoachService(db *gorm.DB, log *logger.Logger, llm TextGenerator, cache AnswerCache) *CoachService {
	return &CoachService{DB: db, Log: log, LLM: llm, Cache: cache, Now: time.Now}
}

type CoachAnswer struct {
	Analysis string `json:"analysis"`
	Cached   bool   `json:"cached"`
}

// Analyze asks the model for feedback on the last 30 days of study.
func (s *CoachService) Analyze(ctx context.Context, userID string) (*CoachAnswer, error) {
	if s.LLM == nil {
		return nil, ErrCoachDisabled
	}
	db := s.DB.WithContext(ctx)
	user, err := findUser(db, userID, false)
	if err != nil {
		return nil, err
	}

	today := gamification.DayKey(s.Now())
	var logs []models.StudyLog
	if err := db.Where("user_id = ? AND date >= ?", userID, gamification.AddDays(today, -coachWindowDays)).
		Order("date ASC").
		Find(&logs).Error; err != nil {
		return nil, fmt.Errorf("load recent logs: %w", err)
	}
	if len(logs) == 0 {
		return &CoachAnswer{Analysis: NotEnoughDataMessage}, nil
	}

	summary := logSummary(logs)
	key := coachCacheKey(userID, today, user.DailyGoalHours, summary)
	if s.Cache != nil {
		if hit, ok, err := s.Cache.Get(ctx, key); err != nil {
			s.Log.Warn("[COACH] cache read failed", "user_id", userID, "error", err)
		} else if ok {
			return &CoachAnswer{Analysis: hit, Cached: true}, nil
		}
	}

	text, err := s.LLM.GenerateText(ctx, coachPrompt(&user, summary))
	if err != nil {
		return nil, fmt.Errorf("generate analysis: %w", err)
	}

	if s.Cache != nil {
		if err := s.Cache.Set(ctx, key, text, coachCacheTTL); err != nil {
			s.Log.Warn("[COACH] cache write failed", "user_id", userID, "error", err)
		}
	}
	return &CoachAnswer{Analysis: text}, nil
}

func logSummary(logs []models.StudyLog) string {
	lines := make([]string, len(logs))
	for i, l := range logs {
		lines[i] = fmt.Sprintf("%s: %s hours", gamification.FormatDay(l.Date), strconv.FormatFloat(l.Hours, 'f', -1, 64))
	}
	return strings.Join(lines, "\n")
}

func coachCacheKey(userID string, today time.Time, goal float64, summary string) string {
	sum := sha256.Sum256([]byte(strconv.FormatFloat(goal, 'f', -1, 64) + "\n" + summary))
	return fmt.Sprintf("%s:%s:%s", userID, gamification.FormatDay(today), hex.EncodeToString(sum[:8]))
}

func coachPrompt(user *models.User, summary string) string {
	return fmt.Sprintf(`You are a friendly but strict productivity coach.
The user's name is %s.
Their daily study goal is %s hours.

Here is their study log for the last 30 days:
%s

Please provide a concise analysis (max 200 words) covering:
1. What they are doing right (strengths).
2. What they are doing wrong (patterns of skipping or low hours).
3. One specific actionable tip to improve next week.

Talk directly to them ("You..."). Use emojis. Format the output with HTML tags like <b> for bold and <br> for line breaks.`,
		user.DisplayName(), strconv.FormatFloat(user.DailyGoalHours, 'f', -1, 64), summary)
}
