package gamification

import "time"

var testNow = time.Date(2026, 3, 15, 18, 30, 0, 0, time.UTC)

func day(offset int) time.Time {
	return AddDays(testNow, offset)
}

// run builds one entry per day from start for len(hours) days.
func run(start time.Time, hours ...float64) []LogEntry {
	out := make([]LogEntry, len(hours))
	for i, h := range hours {
		out[i] = LogEntry{Date: AddDays(start, i), Hours: h}
	}
	return out
}

func repeat(h float64, n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = h
	}
	return out
}

func ids(records []Record) []string {
	out := make([]string, 0, len(records))
	for _, r := range records {
		out = append(out, r.AchievementID)
	}
	return out
}
