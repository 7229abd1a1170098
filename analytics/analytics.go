// Package analytics holds the chart and dashboard arithmetic over a user's
// study log. Every function takes day-keyed entries and a "today" so the
// results are reproducible.
package analytics

import (
	"math"
	"time"

	"study-tracker/gamification"
)

// Round2 rounds to two decimals for display.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// Since returns the entries on or after from.
func Since(logs []gamification.LogEntry, from time.Time) []gamification.LogEntry {
	from = gamification.DayKey(from)
	var out []gamification.LogEntry
	for _, e := range logs {
		if !e.Date.Before(from) {
			out = append(out, e)
		}
	}
	return out
}

// MonthStart returns the first day of t's UTC month.
func MonthStart(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}

// InMonth returns the entries inside the month starting at first.
func InMonth(logs []gamification.LogEntry, first time.Time) []gamification.LogEntry {
	first = MonthStart(first)
	next := first.AddDate(0, 1, 0)
	var out []gamification.LogEntry
	for _, e := range logs {
		if !e.Date.Before(first) && e.Date.Before(next) {
			out = append(out, e)
		}
	}
	return out
}

// ParseMonth parses YYYY-MM into the first day of that month.
func ParseMonth(s string) (time.Time, error) {
	t, err := time.ParseInLocation("2006-01", s, time.UTC)
	if err != nil {
		return time.Time{}, err
	}
	return t, nil
}

// HoursOn returns the hours logged on day, 0 when nothing was logged.
func HoursOn(logs []gamification.LogEntry, day time.Time) float64 {
	day = gamification.DayKey(day)
	for _, e := range logs {
		if e.Date.Equal(day) {
			return e.Hours
		}
	}
	return 0
}

// Sum adds up hours.
func Sum(logs []gamification.LogEntry) float64 {
	var total float64
	for _, e := range logs {
		total += e.Hours
	}
	return total
}

// TotalHoursFor sums the dashboard ranges: alltime, 7days, 1month and
// 6months. Unknown ranges yield 0.
func TotalHoursFor(logs []gamification.LogEntry, rangeName string, today time.Time) float64 {
	today = gamification.DayKey(today)
	switch rangeName {
	case "", "alltime":
		return Sum(logs)
	case "7days":
		return Sum(Since(logs, gamification.AddDays(today, -7)))
	case "1month":
		return Sum(Since(logs, today.AddDate(0, -1, 0)))
	case "6months":
		return Sum(Since(logs, today.AddDate(0, -6, 0)))
	default:
		return 0
	}
}

// MonthSummary is the current-month card on the analytics page.
type MonthSummary struct {
	Total      float64 `json:"current_month_total"`
	Average    float64 `json:"current_month_avg"`
	DaysLogged int     `json:"current_month_days_logged"`
}

// SummarizeMonth totals the month containing today.
func SummarizeMonth(logs []gamification.LogEntry, today time.Time) MonthSummary {
	month := InMonth(logs, today)
	s := MonthSummary{Total: Sum(month), DaysLogged: len(month)}
	if s.DaysLogged > 0 {
		s.Average = s.Total / float64(s.DaysLogged)
	}
	s.Total, s.Average = Round2(s.Total), Round2(s.Average)
	return s
}
