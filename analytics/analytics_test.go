package analytics

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"study-tracker/gamification"
)

// Sunday.
var today = time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC)

func entry(offset int, hours float64) gamification.LogEntry {
	return gamification.LogEntry{Date: gamification.AddDays(today, offset), Hours: hours}
}

func sampleLogs() []gamification.LogEntry {
	return []gamification.LogEntry{
		entry(-200, 5),
		entry(-40, 2),
		entry(-20, 3),
		entry(-7, 1),
		entry(-1, 4),
		entry(0, 2),
	}
}

func TestTotalHoursFor(t *testing.T) {
	logs := sampleLogs()

	assert.Equal(t, 17.0, TotalHoursFor(logs, "alltime", today))
	assert.Equal(t, 7.0, TotalHoursFor(logs, "7days", today))
	assert.Equal(t, 10.0, TotalHoursFor(logs, "1month", today))
	assert.Equal(t, 12.0, TotalHoursFor(logs, "6months", today))
	assert.Equal(t, 0.0, TotalHoursFor(logs, "fortnight", today))
}

func TestSinceAndHoursOn(t *testing.T) {
	recent := Since(sampleLogs(), gamification.AddDays(today, -30))

	require.Len(t, recent, 4)
	assert.Equal(t, gamification.AddDays(today, -20), recent[0].Date)
	assert.Equal(t, 2.0, HoursOn(recent, today))
	assert.Equal(t, 0.0, HoursOn(recent, gamification.AddDays(today, -2)))
}

func TestMonthHelpers(t *testing.T) {
	first, err := ParseMonth("2026-03")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC), first)

	month := InMonth(sampleLogs(), first)
	assert.Len(t, month, 3)

	s := SummarizeMonth(sampleLogs(), today)
	assert.Equal(t, MonthSummary{Total: 7, Average: 2.33, DaysLogged: 3}, s)

	_, err = ParseMonth("March")
	assert.Error(t, err)
}

func TestDayOfWeekAverages(t *testing.T) {
	logs := []gamification.LogEntry{
		entry(0, 2),  // Sunday
		entry(-7, 4), // Sunday
		entry(-1, 1), // Saturday
	}

	got := DayOfWeekAverages(logs)
	assert.Equal(t, []DayOfWeekAverage{
		{DayOfWeek: 1, AvgHours: 3},
		{DayOfWeek: 7, AvgHours: 1},
	}, got)
}

func TestCountGoalDays(t *testing.T) {
	assert.Equal(t, GoalAchievement{Met: 3, NotMet: 3}, CountGoalDays(sampleLogs(), 3))
}

func TestDistribution(t *testing.T) {
	logs := sampleLogs()

	tests := []struct {
		rangeName string
		want      DistributionPoint
	}{
		{"past_7_days", DistributionPoint{Label: "Total (7 Days)", Value: 7}},
		{"average_7_days", DistributionPoint{Label: "Avg (7 Days)", Value: 2.33}},
		{"recent_30_days", DistributionPoint{Label: "Total (30 Days)", Value: 10}},
		{"average_30_days", DistributionPoint{Label: "Avg (30 Days)", Value: 2.5}},
		{"past_6_months", DistributionPoint{Label: "Total (6 Months)", Value: 12}},
		{"all_time_hours", DistributionPoint{Label: "Total (All Time)", Value: 17}},
		{"average_all_time", DistributionPoint{Label: "Avg (All Time)", Value: 2.83}},
		{"", DistributionPoint{Label: "Total Hours", Value: 17}},
	}
	for _, tt := range tests {
		t.Run(tt.rangeName, func(t *testing.T) {
			assert.Equal(t, tt.want, Distribution(logs, tt.rangeName, today))
		})
	}

	assert.Equal(t, DistributionPoint{Label: "Avg (7 Days)", Value: 0}, Distribution(nil, "average_7_days", today))
}

func TestMonthlyHistory(t *testing.T) {
	got := MonthlyHistory(sampleLogs())

	require.Len(t, got, 3)
	assert.Equal(t, MonthTotal{Year: 2025, Month: 8, Total: 5}, got[0])
	assert.Equal(t, MonthTotal{Year: 2026, Month: 2, Total: 5}, got[1])
	assert.Equal(t, MonthTotal{Year: 2026, Month: 3, Total: 7}, got[2])
}
