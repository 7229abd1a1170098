package services

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"study-tracker/gamification"
	"study-tracker/models"
)

func TestSubmitLogUnlocksOnSeventhDay(t *testing.T) {
	s := newTestServices(t)
	ctx := context.Background()
	u := seedUser(t, s, "ext-1")

	for i := -6; i < 0; i++ {
		_, outcome, err := s.Logs.SubmitLog(ctx, u.ID, day(i), 2)
		require.NoError(t, err)
		assert.True(t, outcome.Empty(), "day %d", i)
	}

	_, outcome, err := s.Logs.SubmitLog(ctx, u.ID, day(0), 2)
	require.NoError(t, err)
	assert.Equal(t, []string{"consistency-7", "goal-7"}, recordIDs(outcome.Unlocked))
	assert.Empty(t, outcome.Revoked)
	for _, r := range outcome.Unlocked {
		assert.NotEmpty(t, r.ID)
	}

	var rows []models.Achievement
	require.NoError(t, s.DB.Where("user_id = ?", u.ID).Order("achievement_id").Find(&rows).Error)
	require.Len(t, rows, 2)
	assert.Equal(t, "7-Day Streak", rows[0].Name)
	assert.Equal(t, "consistency", rows[0].Type)
	assert.Nil(t, rows[0].GoalValueOnAchieved)
	require.NotNil(t, rows[1].GoalValueOnAchieved)
	assert.Equal(t, 2.0, *rows[1].GoalValueOnAchieved)
	assert.False(t, rows[1].Notified)
}

func TestReevaluateIsIdempotent(t *testing.T) {
	s := newTestServices(t)
	ctx := context.Background()
	u := seedUser(t, s, "ext-1")
	seedLogs(t, s.DB, u.ID, day(-6), repeat(3, 7)...)

	first, err := s.Achievements.Reevaluate(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"consistency-7", "goal-7"}, recordIDs(first.Unlocked))

	second, err := s.Achievements.Reevaluate(ctx, u.ID)
	require.NoError(t, err)
	assert.True(t, second.Empty())
	assert.Len(t, achievementIDs(t, s.DB, u.ID), 2)
}

func TestReevaluateUnknownUser(t *testing.T) {
	s := newTestServices(t)
	_, err := s.Achievements.Reevaluate(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestRaisingGoalRevokesGoalAchievement(t *testing.T) {
	s := newTestServices(t)
	ctx := context.Background()
	u := seedUser(t, s, "ext-1")
	seedLogs(t, s.DB, u.ID, day(-6), repeat(2, 7)...)
	_, err := s.Achievements.Reevaluate(ctx, u.ID)
	require.NoError(t, err)

	updated, outcome, err := s.Users.UpdateGoal(ctx, u.ID, 3)
	require.NoError(t, err)
	assert.Equal(t, 3.0, updated.DailyGoalHours)
	assert.Equal(t, []string{"goal-7"}, recordIDs(outcome.Revoked))
	assert.Empty(t, outcome.Unlocked)
	assert.Equal(t, []string{"consistency-7"}, achievementIDs(t, s.DB, u.ID))

	// Lowering it back qualifies again and the record is re-created.
	_, outcome, err = s.Users.UpdateGoal(ctx, u.ID, 1.5)
	require.NoError(t, err)
	assert.Equal(t, []string{"goal-7"}, recordIDs(outcome.Unlocked))
	require.NotNil(t, outcome.Unlocked[0].GoalValueOnAchieved)
	assert.Equal(t, 1.5, *outcome.Unlocked[0].GoalValueOnAchieved)
}

func TestLoweringGoalKeepsAchievements(t *testing.T) {
	s := newTestServices(t)
	ctx := context.Background()
	u := seedUser(t, s, "ext-1")
	seedLogs(t, s.DB, u.ID, day(-6), repeat(2, 7)...)
	_, err := s.Achievements.Reevaluate(ctx, u.ID)
	require.NoError(t, err)

	_, outcome, err := s.Users.UpdateGoal(ctx, u.ID, 1)
	require.NoError(t, err)
	assert.True(t, outcome.Empty())
	assert.Equal(t, []string{"consistency-7", "goal-7"}, achievementIDs(t, s.DB, u.ID))
}

func TestCheckNewReturnsEachUnlockOnce(t *testing.T) {
	s := newTestServices(t)
	ctx := context.Background()
	u := seedUser(t, s, "ext-1")
	seedLogs(t, s.DB, u.ID, day(-6), repeat(2, 7)...)
	_, err := s.Achievements.Reevaluate(ctx, u.ID)
	require.NoError(t, err)

	fresh, err := s.Achievements.CheckNew(ctx, u.ID)
	require.NoError(t, err)
	require.Len(t, fresh, 2)
	for _, a := range fresh {
		assert.True(t, a.Notified)
	}

	again, err := s.Achievements.CheckNew(ctx, u.ID)
	require.NoError(t, err)
	assert.NotNil(t, again)
	assert.Empty(t, again)

	var unseen int64
	require.NoError(t, s.DB.Model(&models.Achievement{}).
		Where("user_id = ? AND notified = ?", u.ID, false).Count(&unseen).Error)
	assert.Zero(t, unseen)
}

func TestConcurrentChecksSurfaceEachUnlockOnce(t *testing.T) {
	s := newTestServices(t)
	ctx := context.Background()
	u := seedUser(t, s, "ext-1")
	seedLogs(t, s.DB, u.ID, day(-6), repeat(2, 7)...)
	_, err := s.Achievements.Reevaluate(ctx, u.ID)
	require.NoError(t, err)

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		seen []string
	)
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			got, err := s.Achievements.CheckNew(ctx, u.ID)
			assert.NoError(t, err)
			mu.Lock()
			defer mu.Unlock()
			for _, a := range got {
				seen = append(seen, a.AchievementID)
			}
		}()
	}
	wg.Wait()

	sort.Strings(seen)
	assert.Equal(t, []string{"consistency-7", "goal-7"}, seen)
}

func TestDeliverUnseenClaimsBeforeSending(t *testing.T) {
	s := newTestServices(t)
	ctx := context.Background()
	u := seedUser(t, s, "ext-1")
	seedLogs(t, s.DB, u.ID, day(-6), repeat(2, 7)...)
	_, err := s.Achievements.Reevaluate(ctx, u.ID)
	require.NoError(t, err)

	n, err := s.Achievements.DeliverUnseen(ctx, u.ID, func(batch []models.Achievement) error {
		// A poll racing the stream finds nothing left to show.
		polled, err := s.Achievements.CheckNew(ctx, u.ID)
		require.NoError(t, err)
		assert.Empty(t, polled)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestDeliverUnseenMarksOnlyAfterSend(t *testing.T) {
	s := newTestServices(t)
	ctx := context.Background()
	u := seedUser(t, s, "ext-1")
	seedLogs(t, s.DB, u.ID, day(-6), repeat(2, 7)...)
	_, err := s.Achievements.Reevaluate(ctx, u.ID)
	require.NoError(t, err)

	gone := errors.New("client gone")
	n, err := s.Achievements.DeliverUnseen(ctx, u.ID, func([]models.Achievement) error { return gone })
	assert.ErrorIs(t, err, gone)
	assert.Zero(t, n)

	var got []models.Achievement
	n, err = s.Achievements.DeliverUnseen(ctx, u.ID, func(batch []models.Achievement) error {
		got = append(got, batch...)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	require.Len(t, got, 2)
	assert.True(t, got[0].Notified)

	keepalives := 0
	n, err = s.Achievements.DeliverUnseen(ctx, u.ID, func(batch []models.Achievement) error {
		assert.Empty(t, batch)
		keepalives++
		return nil
	})
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Equal(t, 1, keepalives)
}

func TestBoardPartitionsCatalog(t *testing.T) {
	s := newTestServices(t)
	ctx := context.Background()
	u := seedUser(t, s, "ext-1")
	seedLogs(t, s.DB, u.ID, day(-6), repeat(2, 7)...)

	board, err := s.Achievements.Board(ctx, u.ID)
	require.NoError(t, err)

	require.Len(t, board.Completed, 2)
	assert.Equal(t, "consistency-7", board.Completed[0].ID)
	assert.True(t, board.Completed[0].Achieved)
	assert.NotNil(t, board.Completed[0].DateAchieved)
	assert.Len(t, board.YetToCompleteConsistency, 4)
	assert.Len(t, board.YetToCompleteGoal, 4)
	assert.Len(t, board.YetToCompleteHours, 7)
	assert.Len(t, board.Catalog, len(gamification.Catalog()))
	assert.Equal(t, 7, board.LongestConsistencyStreak)
	assert.Equal(t, 7, board.LongestGoalStreak)
	assert.Equal(t, 14.0, board.TotalStudyHours)
	assert.Equal(t, 2*gamification.XPForAchievement+7*20+7*gamification.XPForGoal, board.User.XP)
}
