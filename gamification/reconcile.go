package gamification

import "time"

// Reconcile recomputes every catalog predicate and diffs the result
// against existing. Achievements are derived state: a record whose
// predicate no longer holds is revoked. Records for ids outside the
// catalog are ignored.
func Reconcile(p Profile, logs []LogEntry, existing []Record, now time.Time) Outcome {
	held := make(map[string]Record, len(existing))
	for _, r := range existing {
		held[r.AchievementID] = r
	}

	var out Outcome
	for _, def := range catalog {
		rec, has := held[def.ID]
		ok := Qualifies(def, logs, p.DailyGoalHours)
		switch {
		case ok && !has:
			out.Unlocked = append(out.Unlocked, newRecord(p, def, now))
		case !ok && has:
			out.Revoked = append(out.Revoked, rec)
		}
	}
	return out
}

func newRecord(p Profile, def Definition, now time.Time) Record {
	r := Record{
		UserID:        p.UserID,
		AchievementID: def.ID,
		Achieved:      true,
		DateAchieved:  now,
		Notified:      false,
	}
	if def.Kind == KindGoal {
		goal := p.DailyGoalHours
		r.GoalValueOnAchieved = &goal
	}
	return r
}

// Apply returns the record set after persisting o on top of existing.
func Apply(existing []Record, o Outcome) []Record {
	revoked := make(map[string]struct{}, len(o.Revoked))
	for _, r := range o.Revoked {
		revoked[r.AchievementID] = struct{}{}
	}
	out := make([]Record, 0, len(existing)+len(o.Unlocked))
	for _, r := range existing {
		if _, gone := revoked[r.AchievementID]; !gone {
			out = append(out, r)
		}
	}
	return append(out, o.Unlocked...)
}

// Unnotified returns the achieved records the client has not been shown.
func Unnotified(records []Record) []Record {
	var out []Record
	for _, r := range records {
		if r.Achieved && !r.Notified {
			out = append(out, r)
		}
	}
	return out
}

// MarkNotified returns a copy of records with notified set for ids.
func MarkNotified(records []Record, ids []string) []Record {
	want := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		want[id] = struct{}{}
	}
	out := make([]Record, len(records))
	for i, r := range records {
		if _, ok := want[r.ID]; ok {
			r.Notified = true
		}
		out[i] = r
	}
	return out
}
