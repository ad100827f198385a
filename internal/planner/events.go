package planner

import (
	"math"
	"sort"

	"nebulacore/internal/events"
	"nebulacore/internal/simid"
)

const hoursPerDayForecast = 24

// ForecastItem :
// One entry a forecaster (research/colony/order/ground-battle) contributes
// to the merged timeline (spec.md §4.10.8). `EtaDays` is relative to the
// simulation's current wall clock; AggregateEvents fills in `AbsDay`/
// `AbsHour` from it.
type ForecastItem struct {
	Category events.Category
	Level    events.Level
	Title    string
	EtaDays  float64
	AbsDay   int64
	AbsHour  int
	ShipId   simid.Id
	ColonyId simid.Id
	Detail   string
}

// PlannerEventsResult :
type PlannerEventsResult struct {
	Result
	Items []ForecastItem
}

// levelRank orders level for the "-level" (higher severity first) sort key.
func levelRank(l events.Level) int {
	switch l {
	case events.Error:
		return 2
	case events.Warn:
		return 1
	default:
		return 0
	}
}

// AggregateEvents :
// Merges forecaster items onto one timeline, converting each item's
// relative `EtaDays` to an absolute `(day, hour)` against
// `(currentDay, currentHour)`, then sorts by `(abs_time asc, category,
// -level, title, ship_id, colony_id, detail)` and truncates to
// `opts.MaxItems` (spec.md §4.10.8).
func AggregateEvents(currentDay int64, currentHour int, items []ForecastItem, opts Options) PlannerEventsResult {
	maxItems := opts.MaxItems
	if maxItems <= 0 {
		maxItems = DefaultOptions().MaxItems
	}

	out := make([]ForecastItem, len(items))
	copy(out, items)
	for i := range out {
		totalHours := float64(currentDay)*hoursPerDayForecast + float64(currentHour) + out[i].EtaDays*hoursPerDayForecast
		absDay := int64(math.Floor(totalHours / hoursPerDayForecast))
		absHour := int(math.Floor(totalHours)) % hoursPerDayForecast
		if absHour < 0 {
			absHour += hoursPerDayForecast
		}
		out[i].AbsDay = absDay
		out[i].AbsHour = absHour
	}

	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.AbsDay != b.AbsDay {
			return a.AbsDay < b.AbsDay
		}
		if a.AbsHour != b.AbsHour {
			return a.AbsHour < b.AbsHour
		}
		if a.Category != b.Category {
			return a.Category < b.Category
		}
		if ra, rb := levelRank(a.Level), levelRank(b.Level); ra != rb {
			return ra > rb
		}
		if a.Title != b.Title {
			return a.Title < b.Title
		}
		if a.ShipId != b.ShipId {
			return a.ShipId < b.ShipId
		}
		if a.ColonyId != b.ColonyId {
			return a.ColonyId < b.ColonyId
		}
		return a.Detail < b.Detail
	})

	if len(out) > maxItems {
		return PlannerEventsResult{
			Result: truncated(ok(), "stopped after max_items forecast entries"),
			Items:  out[:maxItems],
		}
	}
	return PlannerEventsResult{Result: ok(), Items: out}
}
