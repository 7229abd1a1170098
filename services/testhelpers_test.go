package services

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"study-tracker/gamification"
	"study-tracker/logger"
	"study-tracker/models"
)

var testNow = time.Date(2026, 3, 15, 18, 30, 0, 0, time.UTC)

func fixedNow() time.Time { return testNow }

func day(offset int) time.Time {
	return gamification.AddDays(testNow, offset)
}

// newTestDB opens a private in-memory SQLite database. One connection keeps
// every statement on the same database.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", name)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, models.AutoMigrate(db))
	return db
}

type testServices struct {
	DB           *gorm.DB
	Users        *UserService
	Logs         *StudyLogService
	Achievements *AchievementService
	Progression  *ProgressionService
	Analytics    *AnalyticsService
}

func newTestServices(t *testing.T) *testServices {
	t.Helper()
	db := newTestDB(t)
	log := logger.NewNop()

	ach := NewAchievementService(db, log)
	ach.Now = fixedNow
	logs := NewStudyLogService(db, log, ach, nil)
	logs.Now = fixedNow
	prog := NewProgressionService(db, log)
	prog.Now = fixedNow
	an := NewAnalyticsService(db, log)
	an.Now = fixedNow

	return &testServices{
		DB:           db,
		Users:        NewUserService(db, log, ach, 2),
		Logs:         logs,
		Achievements: ach,
		Progression:  prog,
		Analytics:    an,
	}
}

func seedUser(t *testing.T, s *testServices, externalID string) *models.User {
	t.Helper()
	u, err := s.Users.EnsureUser(context.Background(), externalID)
	require.NoError(t, err)
	return u
}

// seedLogs writes rows directly, bypassing reconciliation.
func seedLogs(t *testing.T, db *gorm.DB, userID string, start time.Time, hours ...float64) {
	t.Helper()
	for i, h := range hours {
		row := models.StudyLog{UserID: userID, Date: gamification.AddDays(start, i), Hours: h}
		require.NoError(t, db.Create(&row).Error)
	}
}

func repeat(h float64, n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = h
	}
	return out
}

func achievementIDs(t *testing.T, db *gorm.DB, userID string) []string {
	t.Helper()
	var ids []string
	require.NoError(t, db.Model(&models.Achievement{}).
		Where("user_id = ?", userID).
		Order("achievement_id ASC").
		Pluck("achievement_id", &ids).Error)
	return ids
}

func recordIDs(records []gamification.Record) []string {
	out := make([]string, 0, len(records))
	for _, r := range records {
		out = append(out, r.AchievementID)
	}
	return out
}
