package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"study-tracker/gamification"
	"study-tracker/models"
)

func TestProgressRecomputesFromStoredData(t *testing.T) {
	s := newTestServices(t)
	ctx := context.Background()
	u := seedUser(t, s, "ext-1")

	view, err := s.Progression.Progress(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, ProgressView{XP: 0, Level: 1, XPIntoLevel: 0, XPForNextLevel: 1000, MaxLevel: 100}, view)

	// 7 days x 2h: 140 study + 350 goal + 200 for two achievements.
	seedLogs(t, s.DB, u.ID, day(-6), repeat(2, 7)...)
	_, err = s.Achievements.Reevaluate(ctx, u.ID)
	require.NoError(t, err)

	view, err = s.Progression.Progress(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, 690, view.XP)
	assert.Equal(t, 1, view.Level)
	assert.Equal(t, 310, view.XPForNextLevel)
}

func TestHistoryListsSourcesNewestFirst(t *testing.T) {
	s := newTestServices(t)
	ctx := context.Background()
	u := seedUser(t, s, "ext-1")
	seedLogs(t, s.DB, u.ID, day(-1), 1.5, 2.25)

	h, err := s.Progression.History(ctx, u.ID)
	require.NoError(t, err)
	assert.Empty(t, h.Achievements)
	require.Len(t, h.Study, 3)

	assert.Equal(t, gamification.SourceStudy, h.Study[0].Source)
	assert.Equal(t, "2026-03-15", h.Study[0].Date)
	assert.Equal(t, 23, h.Study[0].Amount)
	assert.Equal(t, "+23 XP for studying 2.25 hours", h.Study[0].Text)
	assert.Equal(t, gamification.SourceGoal, h.Study[1].Source)
	assert.Equal(t, "+50 XP for meeting your 2.0 hour goal", h.Study[1].Text)
	assert.Equal(t, "2026-03-14", h.Study[2].Date)
	assert.Equal(t, 15, h.Study[2].Amount)
}

func TestRefreshSnapshotUpserts(t *testing.T) {
	s := newTestServices(t)
	ctx := context.Background()
	u := seedUser(t, s, "ext-1")
	seedLogs(t, s.DB, u.ID, day(-6), repeat(2, 7)...)
	_, err := s.Achievements.Reevaluate(ctx, u.ID)
	require.NoError(t, err)

	row, err := s.Progression.RefreshSnapshot(ctx, u.ID, testNow)
	require.NoError(t, err)
	assert.Equal(t, 690, row.XP)
	assert.Equal(t, 7, row.CurrentConsistencyStreak)
	assert.Equal(t, 7, row.LongestGoalStreak)
	assert.Equal(t, 2, row.AchievementCount)

	// A day later without a new log the current streak still counts from yesterday.
	_, err = s.Progression.RefreshSnapshot(ctx, u.ID, testNow.AddDate(0, 0, 1))
	require.NoError(t, err)
	// Two days later it is broken.
	_, err = s.Progression.RefreshSnapshot(ctx, u.ID, testNow.AddDate(0, 0, 2))
	require.NoError(t, err)

	var rows []models.UserProgress
	require.NoError(t, s.DB.Find(&rows).Error)
	require.Len(t, rows, 1)
	assert.Equal(t, 0, rows[0].CurrentConsistencyStreak)
	assert.Equal(t, 7, rows[0].LongestConsistencyStreak)
}
