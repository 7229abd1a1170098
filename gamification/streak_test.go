package gamification

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLongestStreak(t *testing.T) {
	gapped := append(run(day(-20), 1, 1, 1, 1), run(day(-13), 1, 1, 1, 1, 1, 1)...)

	tests := []struct {
		name    string
		entries []LogEntry
		want    int
	}{
		{name: "empty", entries: nil, want: 0},
		{name: "single", entries: run(day(0), 2), want: 1},
		{name: "ten consecutive days", entries: run(day(-9), repeat(1, 10)...), want: 10},
		{name: "gap splits the run", entries: gapped, want: 6},
		{name: "duplicate day does not extend", entries: []LogEntry{{Date: day(-1), Hours: 1}, {Date: day(-1), Hours: 2}, {Date: day(0), Hours: 1}}, want: 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, LongestStreak(tt.entries))
		})
	}
}

func TestHasStreakOfAtLeast_MatchesLongestStreak(t *testing.T) {
	entries := append(run(day(-30), repeat(1, 5)...), run(day(-10), repeat(1, 8)...)...)
	longest := LongestStreak(entries)
	assert.Equal(t, 8, longest)

	for n := 0; n <= 12; n++ {
		assert.Equal(t, longest >= n, HasStreakOfAtLeast(entries, n), "n=%d", n)
	}
	assert.True(t, HasStreakOfAtLeast(nil, 0))
	assert.False(t, HasStreakOfAtLeast(nil, 1))
}

func TestCurrentStreak(t *testing.T) {
	tests := []struct {
		name    string
		entries []LogEntry
		want    int
	}{
		{name: "empty", entries: nil, want: 0},
		{name: "today and yesterday", entries: run(day(-1), 1, 1), want: 2},
		{name: "yesterday only keeps the streak alive", entries: run(day(-3), 1, 1, 1), want: 3},
		{name: "gap at yesterday", entries: run(day(-2), 1), want: 0},
		{name: "stops at the first missing day", entries: append(run(day(-6), 1, 1), run(day(-2), 1, 1, 1)...), want: 3},
		{
			name:    "order does not matter",
			entries: []LogEntry{{Date: day(0), Hours: 1}, {Date: day(-2), Hours: 1}, {Date: day(-1), Hours: 1}},
			want:    3,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CurrentStreak(tt.entries, testNow))
		})
	}
}

func TestFilters(t *testing.T) {
	logs := []LogEntry{
		{Date: day(-3), Hours: 0},
		{Date: day(-2), Hours: 1.5},
		{Date: day(-1), Hours: 3},
		{Date: day(0), Hours: -1},
	}

	assert.Len(t, ConsistencyDays(logs), 2)
	assert.Len(t, GoalDays(logs, 2), 1)
	assert.Equal(t, 4.5, TotalHours(logs))

	// A non-positive goal accepts every non-negative entry.
	assert.Len(t, GoalDays(logs, 0), 3)
}
