package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"study-tracker/gamification"
	"study-tracker/models"
)

func TestEnsureUserIsIdempotent(t *testing.T) {
	s := newTestServices(t)
	ctx := context.Background()

	a, err := s.Users.EnsureUser(ctx, "ext-1")
	require.NoError(t, err)
	b, err := s.Users.EnsureUser(ctx, " ext-1 ")
	require.NoError(t, err)

	assert.Equal(t, a.ID, b.ID)
	assert.Equal(t, 2.0, a.DailyGoalHours)

	var count int64
	require.NoError(t, s.DB.Model(&models.User{}).Count(&count).Error)
	assert.EqualValues(t, 1, count)

	_, err = s.Users.EnsureUser(ctx, "  ")
	assert.ErrorIs(t, err, ErrMissingProfileID)
}

func TestUpdateGoalRejectsOutOfRange(t *testing.T) {
	s := newTestServices(t)
	ctx := context.Background()
	u := seedUser(t, s, "ext-1")

	for _, goal := range []float64{0, -1, 0.25, 24.5} {
		_, _, err := s.Users.UpdateGoal(ctx, u.ID, goal)
		assert.ErrorIs(t, err, gamification.ErrInvalidGoal, "goal %v", goal)
	}

	_, _, err := s.Users.UpdateGoal(ctx, "missing", 3)
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestUpsertProfilesKeepsGoal(t *testing.T) {
	s := newTestServices(t)
	ctx := context.Background()
	u := seedUser(t, s, "ext-1")
	_, _, err := s.Users.UpdateGoal(ctx, u.ID, 4)
	require.NoError(t, err)

	first := "Ana"
	upserted, failed := s.Users.UpsertProfiles(ctx, []models.RemoteProfile{
		{ExternalID: "ext-1", Username: "ana", Email: "ana@example.com", FirstName: &first},
		{ExternalID: "ext-2", Username: "bo"},
		{Username: "nobody"},
	})
	assert.Equal(t, 2, upserted)
	assert.Equal(t, 1, failed)

	var got models.User
	require.NoError(t, s.DB.Where("external_user_id = ?", "ext-1").First(&got).Error)
	assert.Equal(t, "ana", got.Username)
	assert.Equal(t, 4.0, got.DailyGoalHours)
	assert.Equal(t, "Ana", got.DisplayName())

	var bo models.User
	require.NoError(t, s.DB.Where("external_user_id = ?", "ext-2").First(&bo).Error)
	assert.Equal(t, 2.0, bo.DailyGoalHours)

	ids, err := s.Users.UserIDs(ctx)
	require.NoError(t, err)
	assert.Len(t, ids, 2)
}
