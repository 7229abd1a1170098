package gamification

// Kind tags an achievement family.
type Kind string

const (
	KindConsistency Kind = "consistency"
	KindGoal        Kind = "goal"
	KindTotalHours  Kind = "total_hours"
)

// Definition is an immutable catalog entry. RequiredDays applies to the
// consistency and goal kinds, RequiredHours to total_hours.
type Definition struct {
	ID            string  `json:"id"`
	Name          string  `json:"name"`
	Description   string  `json:"description"`
	Kind          Kind    `json:"type"`
	RequiredDays  int     `json:"required_days,omitempty"`
	RequiredHours float64 `json:"required_hours,omitempty"`
	Icon          string  `json:"icon"`
}

var catalog = [...]Definition{
	// Consistency
	{ID: "consistency-7", Name: "7-Day Streak", Description: "Study for 7 days in a row.", Kind: KindConsistency, RequiredDays: 7, Icon: "bi-fire"},
	{ID: "consistency-21", Name: "21-Day Habit", Description: "Study for 21 days in a row.", Kind: KindConsistency, RequiredDays: 21, Icon: "bi-calendar2-check"},
	{ID: "consistency-50", Name: "50-Day Commitment", Description: "Study for 50 days in a row.", Kind: KindConsistency, RequiredDays: 50, Icon: "bi-award"},
	{ID: "consistency-100", Name: "100-Day Club", Description: "Study for 100 days in a row.", Kind: KindConsistency, RequiredDays: 100, Icon: "bi-trophy"},
	{ID: "consistency-300", Name: "300-Day Milestone", Description: "Study for 300 days in a row.", Kind: KindConsistency, RequiredDays: 300, Icon: "bi-gem"},

	// Goal
	{ID: "goal-7", Name: "Goal Setter", Description: "Meet your daily goal for 7 days in a row.", Kind: KindGoal, RequiredDays: 7, Icon: "bi-flag"},
	{ID: "goal-21", Name: "Goal Achiever", Description: "Meet your daily goal for 21 days in a row.", Kind: KindGoal, RequiredDays: 21, Icon: "bi-bullseye"},
	{ID: "goal-50", Name: "Goal Master", Description: "Meet your daily goal for 50 days in a row.", Kind: KindGoal, RequiredDays: 50, Icon: "bi-shield-check"},
	{ID: "goal-100", Name: "Goal Legend", Description: "Meet your daily goal for 100 days in a row.", Kind: KindGoal, RequiredDays: 100, Icon: "bi-star-fill"},
	{ID: "goal-300", Name: "Goal Demigod", Description: "Meet your daily goal for 300 days in a row.", Kind: KindGoal, RequiredDays: 300, Icon: "bi-stars"},

	// Total hours
	{ID: "hours-100", Name: "Century Scholar", Description: "Study for 100 hours in total.", Kind: KindTotalHours, RequiredHours: 100, Icon: "bi-hourglass-bottom"},
	{ID: "hours-500", Name: "Dedicated Learner", Description: "Study for 500 hours in total.", Kind: KindTotalHours, RequiredHours: 500, Icon: "bi-hourglass-split"},
	{ID: "hours-1000", Name: "Master of Time", Description: "Study for 1,000 hours in total.", Kind: KindTotalHours, RequiredHours: 1000, Icon: "bi-hourglass-top"},
	{ID: "hours-1500", Name: "Productivity Pro", Description: "Study for 1,500 hours in total.", Kind: KindTotalHours, RequiredHours: 1500, Icon: "bi-clock-history"},
	{ID: "hours-2000", Name: "Focused Mind", Description: "Study for 2,000 hours in total.", Kind: KindTotalHours, RequiredHours: 2000, Icon: "bi-speedometer2"},
	{ID: "hours-3000", Name: "Scholar Elite", Description: "Study for 3,000 hours in total.", Kind: KindTotalHours, RequiredHours: 3000, Icon: "bi-rocket-takeoff"},
	{ID: "hours-5000", Name: "Legendary Sage", Description: "Study for 5,000 hours in total.", Kind: KindTotalHours, RequiredHours: 5000, Icon: "bi-infinity"},
}

// Catalog returns the achievement table in display order.
func Catalog() []Definition {
	out := make([]Definition, len(catalog))
	copy(out, catalog[:])
	return out
}

// Lookup finds a definition by id.
func Lookup(id string) (Definition, bool) {
	for _, d := range catalog {
		if d.ID == id {
			return d, true
		}
	}
	return Definition{}, false
}

// hoursTolerance absorbs float64 drift when many fractional days are summed;
// it is far below the 0.01h precision hours are shown with.
const hoursTolerance = 1e-6

// Qualifies evaluates def against the full log history (sorted ascending)
// and the current daily goal.
func Qualifies(def Definition, logs []LogEntry, goal float64) bool {
	switch def.Kind {
	case KindConsistency:
		return HasStreakOfAtLeast(ConsistencyDays(logs), def.RequiredDays)
	case KindGoal:
		return HasStreakOfAtLeast(GoalDays(logs, goal), def.RequiredDays)
	case KindTotalHours:
		return TotalHours(logs)+hoursTolerance >= def.RequiredHours
	default:
		return false
	}
}
