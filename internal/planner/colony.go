package planner

import (
	"fmt"

	"nebulacore/internal/content"
	"nebulacore/internal/simid"
	"nebulacore/internal/worldstate"
)

// ColonyEventKind :
// The closed set of forecast events a colony schedule can emit (spec.md
// §4.10.2).
type ColonyEventKind string

const (
	EventShipyardComplete     ColonyEventKind = "ShipyardComplete"
	EventConstructionComplete ColonyEventKind = "ConstructionComplete"
)

// ColonyForecastEvent :
type ColonyForecastEvent struct {
	Day        int
	Kind       ColonyEventKind
	Detail     string // design id (shipyard) or installation id (construction)
	AutoQueued bool
}

// ColonyScheduleResult :
type ColonyScheduleResult struct {
	Result
	Events      []ColonyForecastEvent
	FinalColony worldstate.Colony
}

// ColonySchedule :
// Forecasts one colony's shipyard and construction queues forward up to
// `opts.MaxDays` (spec.md §4.10.2), mirroring internal/economy's
// TickShipyards/TickConstruction/autoQueueFromTargets day by day against a
// cloned Colony (and cloned Body, since colony-based mining consumes its
// deposits). `shipDocked` answers whether a refit's target ship is present
// at this colony; a refit whose ship never arrives hard-stalls the forecast
// (spec.md §4.10.2: refit-without-docked-ship is not skippable, unlike an
// auto-queued construction entry that simply waits on minerals).
func ColonySchedule(col *worldstate.Colony, body *worldstate.Body, db *content.DB, shipDocked func(shipId simid.Id) bool, opts Options) ColonyScheduleResult {
	work := worldstate.CloneColony(col)
	var bodyWork *worldstate.Body
	if body != nil {
		clone := *body
		clone.MineralDeposits = make(map[string]float64, len(body.MineralDeposits))
		for k, v := range body.MineralDeposits {
			clone.MineralDeposits[k] = v
		}
		bodyWork = &clone
	}

	maxDays := opts.MaxDays
	if maxDays <= 0 {
		maxDays = DefaultOptions().MaxDays
	}
	maxItems := opts.MaxItems
	if maxItems <= 0 {
		maxItems = DefaultOptions().MaxItems
	}

	var events []ColonyForecastEvent

	for day := 0; day < maxDays; day++ {
		tickColonyInstallationsOneDay(&work, bodyWork, db)

		shipyardEvents, stallRes, stalled := stepShipyardOneDay(&work, db, shipDocked, day)
		events = append(events, shipyardEvents...)
		if stalled {
			return ColonyScheduleResult{Result: stallRes, Events: truncateEvents(events, maxItems), FinalColony: work}
		}

		constructionEvents := stepConstructionOneDay(&work, db, day)
		events = append(events, constructionEvents...)

		if len(events) >= maxItems {
			return ColonyScheduleResult{
				Result:      truncated(ok(), fmt.Sprintf("stopped after %d forecast events", maxItems)),
				Events:      truncateEvents(events, maxItems),
				FinalColony: work,
			}
		}

		if len(work.ShipyardQueue) == 0 && len(work.ConstructionQueue) == 0 && noAutoTargetsOutstanding(&work) {
			return ColonyScheduleResult{Result: ok(), Events: events, FinalColony: work}
		}
	}

	return ColonyScheduleResult{
		Result:      truncated(ok(), fmt.Sprintf("forecast window of %d days ended with queues still active", maxDays)),
		Events:      events,
		FinalColony: work,
	}
}

func truncateEvents(events []ColonyForecastEvent, max int) []ColonyForecastEvent {
	if max <= 0 || len(events) <= max {
		return events
	}
	return events[:max]
}

func noAutoTargetsOutstanding(col *worldstate.Colony) bool {
	for instId, target := range col.InstallationTargets {
		if col.Installations[instId] < target {
			return false
		}
	}
	return true
}

// tickColonyInstallationsOneDay :
// Single-colony, single-day mirror of economy.TickColonyInstallations.
func tickColonyInstallationsOneDay(col *worldstate.Colony, body *worldstate.Body, db *content.DB) {
	for _, instId := range worldstate.SortedStringKeysInt(col.Installations) {
		count := col.Installations[instId]
		if count <= 0 {
			continue
		}
		def, ok := db.Installations[instId]
		if !ok {
			continue
		}
		n := float64(count)

		efficiency := 1.0
		for mineral, perDay := range def.ConsumesPerDay {
			need := perDay * n
			if need <= 0 {
				continue
			}
			have := col.Minerals[mineral]
			frac := 1.0
			if have < need {
				if need > 0 {
					frac = have / need
				} else {
					frac = 0
				}
			}
			if frac < efficiency {
				efficiency = frac
			}
		}

		for mineral, perDay := range def.ConsumesPerDay {
			need := perDay * n * efficiency
			col.Minerals[mineral] = worldstate.FloorTiny(col.Minerals[mineral] - need)
		}
		for mineral, perDay := range def.ProducesPerDay {
			col.Minerals[mineral] = worldstate.FloorTiny(col.Minerals[mineral] + perDay*n*efficiency)
		}

		if def.IsMining && body != nil {
			minerals := worldstate.SortedStringKeys(body.MineralDeposits)
			if len(minerals) > 0 {
				perMineralRate := def.MiningTonsPerDay * n * efficiency / float64(len(minerals))
				for _, mineral := range minerals {
					available := body.MineralDeposits[mineral]
					take := perMineralRate
					if take > available {
						take = available
					}
					if take <= 0 {
						continue
					}
					body.MineralDeposits[mineral] = worldstate.FloorTiny(available - take)
					col.Minerals[mineral] = worldstate.FloorTiny(col.Minerals[mineral] + take)
				}
			}
		}
	}
}

// stepShipyardOneDay :
// Single-colony, single-day mirror of economy.TickShipyards/applyTonsToHead/
// finishBuildOrder, except it never constructs a real Ship — completion is
// reported as a ShipyardComplete forecast event carrying the design id.
func stepShipyardOneDay(col *worldstate.Colony, db *content.DB, shipDocked func(simid.Id) bool, day int) ([]ColonyForecastEvent, Result, bool) {
	var events []ColonyForecastEvent
	budget := economyShipyardCapacity(col, db)
	if budget <= 0 {
		return events, Result{}, false
	}

	for budget > epsilon && len(col.ShipyardQueue) > 0 {
		head := &col.ShipyardQueue[0]

		if head.HasRefitTarget {
			docked := shipDocked != nil && shipDocked(head.RefitShipId)
			if !docked {
				reason := fmt.Sprintf("refit blocked on day %d: ship %d never docked at colony %d", day, head.RefitShipId, col.Id)
				return events, stalled(KindRefitShipNotDocked, reason), true
			}
		}

		applied := applyTonsToShipyardHead(col, head, budget)
		budget -= applied
		if head.TonsRemaining <= epsilon {
			events = append(events, ColonyForecastEvent{Day: day, Kind: EventShipyardComplete, Detail: head.DesignId})
			col.ShipyardQueue = col.ShipyardQueue[1:]
		} else if applied <= epsilon {
			break
		}
	}
	return events, Result{}, false
}

func applyTonsToShipyardHead(col *worldstate.Colony, head *worldstate.BuildOrder, budget float64) float64 {
	need := head.TonsRemaining
	take := budget
	if take > need {
		take = need
	}
	if take <= 0 {
		return 0
	}

	totalCostPerTon := 0.0
	for _, costPerTon := range head.CostPerTonMin {
		totalCostPerTon += costPerTon
	}
	if totalCostPerTon <= 0 {
		head.TonsRemaining -= take
		return take
	}

	affordable := take
	for mineral, costPerTon := range head.CostPerTonMin {
		if costPerTon <= 0 {
			continue
		}
		maxTons := col.Minerals[mineral] / costPerTon
		if maxTons < affordable {
			affordable = maxTons
		}
	}
	if affordable < 0 {
		affordable = 0
	}
	for mineral, costPerTon := range head.CostPerTonMin {
		col.Minerals[mineral] = worldstate.FloorTiny(col.Minerals[mineral] - costPerTon*affordable)
	}
	head.TonsRemaining -= affordable
	return affordable
}

// stepConstructionOneDay :
// Single-colony, single-day mirror of economy.TickConstruction/
// autoQueueFromTargets/payBuildCosts.
func stepConstructionOneDay(col *worldstate.Colony, db *content.DB, day int) []ColonyForecastEvent {
	autoQueueFromTargetsForecast(col, db)
	if len(col.ConstructionQueue) == 0 {
		return nil
	}

	var events []ColonyForecastEvent
	cpBudget := economyConstructionPoints(col, db)

	for cpBudget > epsilon && len(col.ConstructionQueue) > 0 {
		head := &col.ConstructionQueue[0]
		def, ok := db.Installations[head.InstallationId]
		if !ok {
			col.ConstructionQueue = col.ConstructionQueue[1:]
			continue
		}
		if head.CpRemaining <= 0 {
			head.CpRemaining = def.ConstructionCostCP
		}

		if !head.MineralsPaid {
			if !payConstructionCostsForecast(col, def.BuildCosts) {
				break
			}
			head.MineralsPaid = true
		}

		apply := cpBudget
		if apply > head.CpRemaining {
			apply = head.CpRemaining
		}
		head.CpRemaining -= apply
		cpBudget -= apply

		if head.CpRemaining <= epsilon {
			col.Installations[head.InstallationId]++
			events = append(events, ColonyForecastEvent{
				Day: day, Kind: EventConstructionComplete, Detail: head.InstallationId, AutoQueued: head.AutoQueued,
			})
			col.ConstructionQueue = col.ConstructionQueue[1:]
		} else {
			break
		}
	}
	return events
}

func autoQueueFromTargetsForecast(col *worldstate.Colony, db *content.DB) {
	queued := make(map[string]int)
	for _, q := range col.ConstructionQueue {
		queued[q.InstallationId]++
	}
	for _, instId := range worldstate.SortedStringKeysInt(col.InstallationTargets) {
		target := col.InstallationTargets[instId]
		have := col.Installations[instId] + queued[instId]
		if have >= target {
			continue
		}
		if _, ok := db.Installations[instId]; !ok {
			continue
		}
		for i := 0; i < target-have; i++ {
			col.ConstructionQueue = append(col.ConstructionQueue, worldstate.InstallationBuildOrder{
				InstallationId: instId,
				AutoQueued:     true,
			})
		}
	}
}

func payConstructionCostsForecast(col *worldstate.Colony, costs map[string]float64) bool {
	for mineral, need := range costs {
		if col.Minerals[mineral] < need {
			return false
		}
	}
	for mineral, need := range costs {
		col.Minerals[mineral] = worldstate.FloorTiny(col.Minerals[mineral] - need)
	}
	return true
}

func economyShipyardCapacity(col *worldstate.Colony, db *content.DB) float64 {
	total := 0.0
	for instId, count := range col.Installations {
		def, ok := db.Installations[instId]
		if ok && def.ShipyardBuildRateTons > 0 {
			total += def.ShipyardBuildRateTons * float64(count)
		}
	}
	return total
}

func economyConstructionPoints(col *worldstate.Colony, db *content.DB) float64 {
	total := 0.0
	for instId, count := range col.Installations {
		def, ok := db.Installations[instId]
		if ok && def.IsConstruction {
			total += def.ConstructionPointsDay * float64(count)
		}
	}
	return total
}

const epsilon = 1e-9
