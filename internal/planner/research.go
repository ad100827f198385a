package planner

import (
	"fmt"
	"strings"

	"nebulacore/internal/content"
	"nebulacore/internal/research"
	"nebulacore/internal/worldstate"
)

// ResearchScheduleItem :
// One completed tech in a research forecast (spec.md §4.10.1).
type ResearchScheduleItem struct {
	TechId           string
	StartDay         int // relative to the forecast's day 0, inclusive
	EndDay           int
	Cost             float64
	ProgressAtStart  float64
	WasActiveAtStart bool
}

// ResearchScheduleResult :
type ResearchScheduleResult struct {
	Result
	Items []ResearchScheduleItem
}

// ResearchSchedule :
// Forecasts a faction's research queue forward up to `opts.MaxDays`,
// mirroring internal/research's tick logic (queue promotion, RP spend,
// effect application) one day at a time against a cloned Faction so the
// live faction is never touched (spec.md §4.10.1). `rpGainPerDay` is the
// faction's current research output (already scaled by ResearchMultiplier),
// held constant across the forecast since colony installation counts are
// not part of the faction snapshot a planner works from.
func ResearchSchedule(fac *worldstate.Faction, db *content.DB, rpGainPerDay float64, opts Options) ResearchScheduleResult {
	work := worldstate.CloneFaction(fac)
	maxDays := opts.MaxDays
	if maxDays <= 0 {
		maxDays = DefaultOptions().MaxDays
	}
	maxItems := opts.MaxItems
	if maxItems <= 0 {
		maxItems = DefaultOptions().MaxItems
	}

	var items []ResearchScheduleItem
	truncatedItems := false

	for day := 0; day < maxDays; day++ {
		step := research.StepFactionDay(&work, db, rpGainPerDay)

		for _, def := range step.Completed {
			if len(items) >= maxItems {
				truncatedItems = true
				break
			}
			items = append(items, ResearchScheduleItem{
				TechId:           def.Id,
				StartDay:         day,
				EndDay:           day,
				Cost:             def.CostRP,
				ProgressAtStart:  step.ProgressAtStart,
				WasActiveAtStart: step.WasActiveAtStart,
			})
		}
		if truncatedItems {
			break
		}

		if step.Blocked && len(work.ResearchQueue) == 0 {
			reason := fmt.Sprintf("research queue empty on day %d", day)
			return ResearchScheduleResult{Result: stalled(KindNone, reason), Items: items}
		}
		if step.Blocked {
			reason := fmt.Sprintf("tech %s blocked by missing prereqs [%s]", step.BlockedTechId, strings.Join(step.BlockedOn, ", "))
			return ResearchScheduleResult{Result: stalled(KindQueueBlockedByPrereqs, reason), Items: items}
		}
	}

	if truncatedItems {
		return ResearchScheduleResult{
			Result: truncated(ok(), fmt.Sprintf("stopped after %d completed techs", maxItems)),
			Items:  items,
		}
	}
	if len(work.ResearchQueue) > 0 || work.ActiveResearchId != "" {
		return ResearchScheduleResult{
			Result: truncated(ok(), fmt.Sprintf("forecast window of %d days ended with research still in progress", maxDays)),
			Items:  items,
		}
	}

	return ResearchScheduleResult{Result: ok(), Items: items}
}
