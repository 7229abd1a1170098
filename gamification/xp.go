package gamification

import (
	"math"
	"sort"
	"time"
)

const (
	XPPerHour        = 10
	XPForGoal        = 50
	XPForAchievement = 100
	XPPerLevel       = 1000
	MaxLevel         = 100
)

// Progress is the derived XP state of a user.
type Progress struct {
	XP    int `json:"xp"`
	Level int `json:"level"`
}

// ComputeXP derives XP and level from plain data. Only records with
// Achieved set count; entries with negative hours earn nothing. Bonuses are
// whole numbers, so rounding the study part alone equals rounding the total.
func ComputeXP(goal float64, logs []LogEntry, records []Record) Progress {
	var study float64
	bonus := 0
	for _, e := range logs {
		if e.Hours < 0 {
			continue
		}
		study += e.Hours * XPPerHour
		if e.Hours >= goal {
			bonus += XPForGoal
		}
	}
	for _, r := range records {
		if r.Achieved {
			bonus += XPForAchievement
		}
	}
	xp := roundHalfUp(study) + bonus
	return Progress{XP: xp, Level: LevelForXP(xp)}
}

// LevelForXP maps XP to a level in [1, MaxLevel].
func LevelForXP(xp int) int {
	if xp < 0 {
		xp = 0
	}
	level := xp/XPPerLevel + 1
	if level > MaxLevel {
		return MaxLevel
	}
	return level
}

// XPIntoLevel is the XP earned since the current level started.
// At MaxLevel it keeps growing.
func XPIntoLevel(xp int) int {
	return xp - (LevelForXP(xp)-1)*XPPerLevel
}

// XPForNextLevel is the XP still missing for the next level, 0 at MaxLevel.
func XPForNextLevel(xp int) int {
	level := LevelForXP(xp)
	if level >= MaxLevel {
		return 0
	}
	return level*XPPerLevel - xp
}

func roundHalfUp(v float64) int {
	return int(math.Floor(v + 0.5))
}

// XPSource names where an XPEvent came from.
type XPSource string

const (
	SourceAchievement XPSource = "achievement"
	SourceStudy       XPSource = "study"
	SourceGoal        XPSource = "goal"
)

// XPEvent is one line of a user's XP history.
type XPEvent struct {
	Source        XPSource
	Amount        int
	Date          time.Time
	Hours         float64
	AchievementID string
}

// Breakdown lists the XP sources behind ComputeXP: achievements newest
// first, then study days newest first, each followed by its goal bonus.
// Study lines are rounded cumulatively in log order, so the amounts of both
// slices always add up to ComputeXP's XP.
func Breakdown(goal float64, logs []LogEntry, records []Record) (achievements, study []XPEvent) {
	for _, r := range records {
		if !r.Achieved {
			continue
		}
		achievements = append(achievements, XPEvent{
			Source:        SourceAchievement,
			Amount:        XPForAchievement,
			Date:          r.DateAchieved,
			AchievementID: r.AchievementID,
		})
	}
	sort.SliceStable(achievements, func(i, j int) bool {
		return achievements[i].Date.After(achievements[j].Date)
	})

	type studyDay struct {
		entry  LogEntry
		amount int
	}
	days := make([]studyDay, 0, len(logs))
	var raw float64
	credited := 0
	for _, e := range logs {
		if e.Hours < 0 {
			continue
		}
		raw += e.Hours * XPPerHour
		upTo := roundHalfUp(raw)
		days = append(days, studyDay{entry: e, amount: upTo - credited})
		credited = upTo
	}
	sort.SliceStable(days, func(i, j int) bool {
		return days[i].entry.Date.After(days[j].entry.Date)
	})
	for _, d := range days {
		e := d.entry
		study = append(study, XPEvent{
			Source: SourceStudy,
			Amount: d.amount,
			Date:   e.Date,
			Hours:  e.Hours,
		})
		if e.Hours >= goal {
			study = append(study, XPEvent{Source: SourceGoal, Amount: XPForGoal, Date: e.Date, Hours: e.Hours})
		}
	}
	return achievements, study
}
