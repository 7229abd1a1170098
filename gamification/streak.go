package gamification

import "time"

// ConsistencyDays keeps the entries with any study time.
func ConsistencyDays(logs []LogEntry) []LogEntry {
	out := make([]LogEntry, 0, len(logs))
	for _, e := range logs {
		if e.Hours > 0 {
			out = append(out, e)
		}
	}
	return out
}

// GoalDays keeps the entries that meet goal. Negative hours never qualify.
func GoalDays(logs []LogEntry, goal float64) []LogEntry {
	out := make([]LogEntry, 0, len(logs))
	for _, e := range logs {
		if e.Hours >= 0 && e.Hours >= goal {
			out = append(out, e)
		}
	}
	return out
}

// TotalHours sums the non-negative hours of logs.
func TotalHours(logs []LogEntry) float64 {
	var total float64
	for _, e := range logs {
		if e.Hours > 0 {
			total += e.Hours
		}
	}
	return total
}

// LongestStreak returns the longest run of consecutive days in entries,
// which must be sorted ascending by date.
func LongestStreak(entries []LogEntry) int {
	longest := 0
	walkRuns(entries, func(run int) bool {
		if run > longest {
			longest = run
		}
		return true
	})
	return longest
}

// HasStreakOfAtLeast reports whether entries ever form a run of n days.
func HasStreakOfAtLeast(entries []LogEntry, n int) bool {
	if n <= 0 {
		return true
	}
	if len(entries) < n {
		return false
	}
	found := false
	walkRuns(entries, func(run int) bool {
		found = run >= n
		return !found
	})
	return found
}

// walkRuns calls visit with the running streak length after each entry
// until visit returns false.
func walkRuns(entries []LogEntry, visit func(run int) bool) {
	run := 0
	for i, e := range entries {
		switch {
		case i == 0:
			run = 1
		default:
			switch diff := DiffInDays(entries[i-1].Date, e.Date); {
			case diff == 1:
				run++
			case diff == 0:
				// duplicate day, run unchanged
			default:
				run = 1
			}
		}
		if !visit(run) {
			return
		}
	}
}

// CurrentStreak counts consecutive days ending today (UTC day of now). A
// streak that reached yesterday is still alive when today has no entry.
func CurrentStreak(entries []LogEntry, now time.Time) int {
	if len(entries) == 0 {
		return 0
	}
	days := make(map[int64]struct{}, len(entries))
	for _, e := range entries {
		days[DayKey(e.Date).Unix()] = struct{}{}
	}
	has := func(t time.Time) bool {
		_, ok := days[t.Unix()]
		return ok
	}

	cursor := DayKey(now)
	if !has(cursor) {
		cursor = AddDays(cursor, -1)
	}
	streak := 0
	for has(cursor) {
		streak++
		cursor = AddDays(cursor, -1)
	}
	return streak
}
