package analytics

import (
	"sort"
	"strings"
	"time"

	"study-tracker/gamification"
)

// DayOfWeekAverage uses 1 = Sunday through 7 = Saturday.
type DayOfWeekAverage struct {
	DayOfWeek int     `json:"day_of_week"`
	AvgHours  float64 `json:"avg_hours"`
}

// DayOfWeekAverages averages hours per weekday over logs. Weekdays with no
// entries are omitted.
func DayOfWeekAverages(logs []gamification.LogEntry) []DayOfWeekAverage {
	var sums [7]float64
	var counts [7]int
	for _, e := range logs {
		wd := e.Date.UTC().Weekday()
		sums[wd] += e.Hours
		counts[wd]++
	}
	var out []DayOfWeekAverage
	for wd := 0; wd < 7; wd++ {
		if counts[wd] == 0 {
			continue
		}
		out = append(out, DayOfWeekAverage{DayOfWeek: wd + 1, AvgHours: sums[wd] / float64(counts[wd])})
	}
	return out
}

type GoalAchievement struct {
	Met    int `json:"met"`
	NotMet int `json:"notMet"`
}

// CountGoalDays splits logs into days that met goal and days that did not.
func CountGoalDays(logs []gamification.LogEntry, goal float64) GoalAchievement {
	met := len(gamification.GoalDays(logs, goal))
	return GoalAchievement{Met: met, NotMet: len(logs) - met}
}

type DistributionPoint struct {
	Label string  `json:"label"`
	Value float64 `json:"value"`
}

// Distribution computes the single-value distribution card. An empty or
// unrecognised range falls back to all-time total hours.
func Distribution(logs []gamification.LogEntry, rangeName string, today time.Time) DistributionPoint {
	today = gamification.DayKey(today)
	average := strings.Contains(rangeName, "average")
	label := "Total Hours"
	window := logs

	switch rangeName {
	case "past_7_days", "average_7_days":
		window = Since(logs, gamification.AddDays(today, -7))
		label = pick(average, "Avg (7 Days)", "Total (7 Days)")
	case "recent_30_days", "average_30_days":
		window = Since(logs, gamification.AddDays(today, -30))
		label = pick(average, "Avg (30 Days)", "Total (30 Days)")
	case "past_6_months":
		window = Since(logs, today.AddDate(0, -6, 0))
		label = "Total (6 Months)"
		average = false
	case "all_time_hours", "average_all_time":
		label = pick(average, "Avg (All Time)", "Total (All Time)")
	default:
		average = false
	}

	value := Sum(window)
	if average {
		value = 0
		if len(window) > 0 {
			value = Sum(window) / float64(len(window))
		}
	}
	return DistributionPoint{Label: label, Value: Round2(value)}
}

func pick(cond bool, a, b string) string {
	if cond {
		return a
	}
	return b
}

type MonthTotal struct {
	Year  int     `json:"year"`
	Month int     `json:"month"`
	Total float64 `json:"total"`
}

// MonthlyHistory totals hours per calendar month, oldest first.
func MonthlyHistory(logs []gamification.LogEntry) []MonthTotal {
	totals := map[[2]int]float64{}
	for _, e := range logs {
		d := e.Date.UTC()
		totals[[2]int{d.Year(), int(d.Month())}] += e.Hours
	}
	out := make([]MonthTotal, 0, len(totals))
	for k, v := range totals {
		out = append(out, MonthTotal{Year: k[0], Month: k[1], Total: v})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Year != out[j].Year {
			return out[i].Year < out[j].Year
		}
		return out[i].Month < out[j].Month
	})
	return out
}
