// Package economy implements the colony economy (spec.md §4.6): shared
// mineral extraction, installation production/consumption, research point
// generation from labs, and the shipyard/construction queues.
package economy

import (
	"fmt"
	"sort"

	"nebulacore/internal/content"
	"nebulacore/internal/events"
	"nebulacore/internal/order"
	"nebulacore/internal/simconfig"
	"nebulacore/internal/simid"
	"nebulacore/internal/worldstate"
)

// MiningDemand :
// One ship's claim on a body's mineral deposits this sub-step, gathered by
// the caller (internal/sim, which knows which ships are orbiting/landed and
// have AutoMine set) and passed in so this package stays state-shape-only.
type MiningDemand struct {
	ShipId       simid.Id
	BodyId       simid.Id
	TonsPerDay   float64 // this ship's uncapped extraction rate
}

// TickMining :
// Distributes each body's deposits across the ships claiming it this
// sub-step, proportionally to their uncapped rate when the deposit cannot
// cover total demand (spec.md §4.6: "shared deposits split proportionally
// to nameplate rate, never first-come-first-served"). A missing deposit
// entry for a mineral is treated as infinite when
// cfg.TreatMissingDepositsAsInfinite is set (spec.md §9 open question,
// preserved verbatim from the source prototype).
func TickMining(state *worldstate.State, cfg simconfig.SimConfig, dtDays float64, demands []MiningDemand, mineralOf func(shipId simid.Id) string) {
	byBody := make(map[simid.Id][]MiningDemand)
	for _, d := range demands {
		byBody[d.BodyId] = append(byBody[d.BodyId], d)
	}

	bodyIds := make([]simid.Id, 0, len(byBody))
	for id := range byBody {
		bodyIds = append(bodyIds, id)
	}
	sort.Slice(bodyIds, func(i, j int) bool { return bodyIds[i] < bodyIds[j] })

	for _, bodyId := range bodyIds {
		body, ok := state.Bodies[bodyId]
		if !ok {
			continue
		}
		claims := byBody[bodyId]
		sort.Slice(claims, func(i, j int) bool { return claims[i].ShipId < claims[j].ShipId })

		byMineral := make(map[string][]MiningDemand)
		for _, c := range claims {
			m := mineralOf(c.ShipId)
			byMineral[m] = append(byMineral[m], c)
		}
		minerals := make([]string, 0, len(byMineral))
		for m := range byMineral {
			minerals = append(minerals, m)
		}
		sort.Strings(minerals)

		for _, mineral := range minerals {
			claimants := byMineral[mineral]
			totalDemandTons := 0.0
			for _, c := range claimants {
				totalDemandTons += c.TonsPerDay * dtDays
			}
			if totalDemandTons <= 0 {
				continue
			}

			available, hasDeposit := body.MineralDeposits[mineral]
			infinite := !hasDeposit && cfg.TreatMissingDepositsAsInfinite

			var shareFactor float64 = 1.0
			if !infinite && available < totalDemandTons {
				if totalDemandTons > 0 {
					shareFactor = available / totalDemandTons
				} else {
					shareFactor = 0
				}
			}

			extractedTotal := 0.0
			for _, c := range claimants {
				extracted := c.TonsPerDay * dtDays * shareFactor
				extractedTotal += extracted
				ship, ok := state.Ships[c.ShipId]
				if !ok {
					continue
				}
				if ship.Cargo == nil {
					ship.Cargo = make(map[string]float64)
				}
				ship.Cargo[mineral] = worldstate.FloorTiny(ship.Cargo[mineral] + extracted)
			}

			if !infinite {
				body.MineralDeposits[mineral] = worldstate.FloorTiny(available - extractedTotal)
			}
		}
	}
}

// colonyMiningDemand :
// One colony's uncapped per-mineral mining request this sub-step, gathered
// while running the non-mining installation effects so the mining pass can
// happen afterward with every co-located colony's demand already known.
type colonyMiningDemand struct {
	colonyId simid.Id
	tonsPerDay map[string]float64 // nameplate rate this colony would take per mineral, split evenly across the body's mineral list
}

// TickColonyInstallations :
// Runs every colony's installation production/consumption and research
// output for one sub-step (spec.md §4.6, §4.7). Consumption that cannot be
// fully paid is scaled down proportionally across all of that installation
// type's output this sub-step, rather than refusing production outright.
// Colony-based mining demand is gathered across every installation first and
// applied in a second pass (tickColonyMining) so that co-located colonies
// sharing a body split its deposits proportionally, the same contract
// TickMining already honors for ship-based mining (spec.md §4.6).
func TickColonyInstallations(state *worldstate.State, db *content.DB, dtDays float64) {
	byBody := make(map[simid.Id][]colonyMiningDemand)

	for _, colonyId := range state.SortedColonyIds() {
		col := state.Colonies[colonyId]
		_, hasBody := state.Bodies[col.BodyId]

		demand := colonyMiningDemand{colonyId: colonyId, tonsPerDay: make(map[string]float64)}
		hasMiningDemand := false

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
				need := perDay * n * dtDays
				if need <= 0 {
					continue
				}
				have := col.Minerals[mineral]
				if have < need {
					frac := 0.0
					if need > 0 {
						frac = have / need
					}
					if frac < efficiency {
						efficiency = frac
					}
				}
			}

			for mineral, perDay := range def.ConsumesPerDay {
				need := perDay * n * dtDays * efficiency
				col.Minerals[mineral] = worldstate.FloorTiny(col.Minerals[mineral] - need)
			}
			for mineral, perDay := range def.ProducesPerDay {
				produced := perDay * n * dtDays * efficiency
				col.Minerals[mineral] = worldstate.FloorTiny(col.Minerals[mineral] + produced)
			}

			if def.IsMining && hasBody {
				addColonyMiningDemand(state, col, demand.tonsPerDay, def.MiningTonsPerDay, n, efficiency)
				hasMiningDemand = true
			}

			if def.ResearchPointsPerDay > 0 {
				if fac, ok := state.Factions[col.FactionId]; ok {
					fac.ResearchBankRP += def.ResearchPointsPerDay * n * dtDays * efficiency * fac.ResearchMultiplier
				}
			}
		}

		if hasMiningDemand {
			byBody[col.BodyId] = append(byBody[col.BodyId], demand)
		}
	}

	tickColonyMining(state, byBody, dtDays)
}

// addColonyMiningDemand :
// A colony-based mining installation's nameplate rate is split evenly across
// every mineral the body currently has a deposit entry for (spec.md §4.6),
// same as the old per-colony behavior, but accumulated into the body-wide
// demand map instead of being applied immediately.
func addColonyMiningDemand(state *worldstate.State, col *worldstate.Colony, into map[string]float64, tonsPerDayPerInstallation, n, efficiency float64) {
	body := state.Bodies[col.BodyId]
	minerals := worldstate.SortedStringKeys(body.MineralDeposits)
	if len(minerals) == 0 {
		return
	}
	perMineralRate := tonsPerDayPerInstallation * n * efficiency / float64(len(minerals))
	for _, mineral := range minerals {
		into[mineral] += perMineralRate
	}
}

// tickColonyMining :
// Applies the shared-deposit contract (spec.md §4.6, same pattern as
// TickMining): for every body with at least one mining colony, aggregate
// each colony's per-mineral demand, let the deposit supply
// min(deposit, Σ requests), and serve each colony proportionally to its
// share of total demand — regardless of faction or colony id order.
func tickColonyMining(state *worldstate.State, byBody map[simid.Id][]colonyMiningDemand, dtDays float64) {
	bodyIds := make([]simid.Id, 0, len(byBody))
	for id := range byBody {
		bodyIds = append(bodyIds, id)
	}
	sort.Slice(bodyIds, func(i, j int) bool { return bodyIds[i] < bodyIds[j] })

	for _, bodyId := range bodyIds {
		body, ok := state.Bodies[bodyId]
		if !ok {
			continue
		}
		claimants := byBody[bodyId]
		sort.Slice(claimants, func(i, j int) bool { return claimants[i].colonyId < claimants[j].colonyId })

		minerals := make(map[string]bool)
		for _, c := range claimants {
			for mineral := range c.tonsPerDay {
				minerals[mineral] = true
			}
		}
		mineralIds := make([]string, 0, len(minerals))
		for m := range minerals {
			mineralIds = append(mineralIds, m)
		}
		sort.Strings(mineralIds)

		for _, mineral := range mineralIds {
			totalDemandTons := 0.0
			for _, c := range claimants {
				totalDemandTons += c.tonsPerDay[mineral] * dtDays
			}
			if totalDemandTons <= 0 {
				continue
			}

			available, hasDeposit := body.MineralDeposits[mineral]
			infinite := !hasDeposit

			var shareFactor float64 = 1.0
			if !infinite && available < totalDemandTons {
				shareFactor = available / totalDemandTons
			}

			extractedTotal := 0.0
			for _, c := range claimants {
				rate, claims := c.tonsPerDay[mineral]
				if !claims {
					continue
				}
				extracted := rate * dtDays * shareFactor
				extractedTotal += extracted
				col := state.Colonies[c.colonyId]
				col.Minerals[mineral] = worldstate.FloorTiny(col.Minerals[mineral] + extracted)
			}

			if !infinite {
				body.MineralDeposits[mineral] = worldstate.FloorTiny(available - extractedTotal)
			}
		}
	}
}

// TickShipyards :
// Advances each colony's shipyard build queue by its construction capacity
// for this sub-step (spec.md §4.6). A queue entry is a refit when
// `HasRefitTarget` is set: refits require the target ship to already be
// docked at this colony (spec.md §9 open question — over-capacity
// colonists/cargo after a refit are never forcibly jettisoned, preserved
// verbatim from the source prototype).
func TickShipyards(state *worldstate.State, db *content.DB, dtDays float64, shipAtColony func(shipId, colonyId simid.Id) bool) {
	for _, colonyId := range state.SortedColonyIds() {
		col := state.Colonies[colonyId]
		if len(col.ShipyardQueue) == 0 {
			continue
		}
		rate := shipyardRateTonsPerDay(col, db)
		if rate <= 0 {
			continue
		}
		budget := rate * dtDays

		for budget > Epsilon && len(col.ShipyardQueue) > 0 {
			head := &col.ShipyardQueue[0]

			if head.HasRefitTarget {
				if !shipAtColony(head.RefitShipId, colonyId) {
					state.Log.Append(events.SimEvent{
						Day: state.Day, Hour: state.HourOfDay, Level: events.Warn, Category: events.Shipyard,
						Kind: events.KindRefitShipNotDocked, ColonyId: colonyId,
						Message: fmt.Sprintf("refit blocked: ship %d not docked at colony %d", head.RefitShipId, colonyId),
					})
					break
				}
			}

			applied := applyTonsToHead(col, head, budget, db)
			budget -= applied
			if head.TonsRemaining <= Epsilon {
				finishBuildOrder(state, db, col, *head)
				col.ShipyardQueue = col.ShipyardQueue[1:]
			} else if applied <= Epsilon {
				break
			}
		}
	}
}

func applyTonsToHead(col *worldstate.Colony, head *worldstate.BuildOrder, budget float64, db *content.DB) float64 {
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
		maxTonsByMineral := col.Minerals[mineral] / costPerTon
		if maxTonsByMineral < affordable {
			affordable = maxTonsByMineral
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

func finishBuildOrder(state *worldstate.State, db *content.DB, col *worldstate.Colony, built worldstate.BuildOrder) {
	if built.HasRefitTarget {
		if ship, ok := state.Ships[built.RefitShipId]; ok {
			ship.DesignId = built.DesignId
		}
		return
	}
	design, ok := db.Designs[built.DesignId]
	if !ok {
		return
	}
	id := state.AllocateId()
	body := state.Bodies[col.BodyId]
	ship := &worldstate.Ship{
		Id:        id,
		FactionId: col.FactionId,
		Position:  body.Position,
		DesignId:  built.DesignId,
		Name:      fmt.Sprintf("%s #%d", design.Name, id),
		Hp:        design.MaxHp,
		Shields:   design.MaxShields,
		Integrity: worldstate.SubsystemIntegrity{Engines: 1, Sensors: 1, Weapons: 1, Shields: 1},
		FuelTons:  design.FuelCapacityTons,
		Cargo:     make(map[string]float64),
		MaintenanceCondition: 1,
		SensorMode:           worldstate.SensorNormal,
		MissileAmmo:          design.MissileAmmoCapacity,
	}
	state.Ships[id] = ship
	state.ShipOrders[id] = &order.ShipOrders{}
	state.AddShipToSystem(ship, body.SystemId)
	state.Log.Append(events.SimEvent{
		Day: state.Day, Hour: state.HourOfDay, Level: events.Info, Category: events.Shipyard,
		Message: fmt.Sprintf("colony %d completed ship %d (%s)", col.Id, id, design.Id), ColonyId: col.Id, ShipId: id,
	})
}

func shipyardRateTonsPerDay(col *worldstate.Colony, db *content.DB) float64 {
	return ShipyardCapacityTonsPerDay(col, db)
}

// ShipyardCapacityTonsPerDay :
// A colony's total shipyard build-rate capacity (spec.md §6
// `construction_points_per_day`-style query helper, shipyard variant),
// exported so internal/sim and internal/planner can compute repair/refit
// capacity without duplicating the per-installation sum.
func ShipyardCapacityTonsPerDay(col *worldstate.Colony, db *content.DB) float64 {
	total := 0.0
	for instId, count := range col.Installations {
		def, ok := db.Installations[instId]
		if ok && def.ShipyardBuildRateTons > 0 {
			total += def.ShipyardBuildRateTons * float64(count)
		}
	}
	return total
}

// TickConstruction :
// Advances each colony's installation construction queue by its total
// construction-point output for this sub-step (spec.md §4.6). Minerals for
// the head entry are paid once, up front, the first sub-step it has budget
// applied (`MineralsPaid` flips true); CP then accrues until the entry
// completes, at which point the colony's installation count increments.
func TickConstruction(state *worldstate.State, db *content.DB, dtDays float64) {
	for _, colonyId := range state.SortedColonyIds() {
		col := state.Colonies[colonyId]
		autoQueueFromTargets(col, db)
		if len(col.ConstructionQueue) == 0 {
			continue
		}
		cpBudget := constructionPointsPerDay(col, db) * dtDays

		for cpBudget > Epsilon && len(col.ConstructionQueue) > 0 {
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
				if !payBuildCosts(col, def.BuildCosts) {
					state.Log.Append(events.SimEvent{
						Day: state.Day, Hour: state.HourOfDay, Level: events.Warn, Category: events.Construction,
						Kind: events.KindInsufficientSupplies, ColonyId: colonyId,
						Message: fmt.Sprintf("colony %d cannot afford %s minerals", colonyId, head.InstallationId),
					})
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

			if head.CpRemaining <= Epsilon {
				col.Installations[head.InstallationId]++
				state.Log.Append(events.SimEvent{
					Day: state.Day, Hour: state.HourOfDay, Level: events.Info, Category: events.Construction,
					Message: fmt.Sprintf("colony %d completed installation %s", colonyId, head.InstallationId), ColonyId: colonyId,
				})
				col.ConstructionQueue = col.ConstructionQueue[1:]
			} else {
				break
			}
		}
	}
}

// autoQueueFromTargets :
// Reconciles InstallationTargets against current Installations plus what's
// already queued (spec.md §4.6 step 1): appends auto-queued entries for any
// shortfall, and trims excess auto-queued entries when a target has been
// lowered — but a committed entry (`MineralsPaid || CpRemaining > 0`) is
// never pruned, only entries that haven't started paying yet.
func autoQueueFromTargets(col *worldstate.Colony, db *content.DB) {
	queuedManual := make(map[string]int)
	queuedAuto := make(map[string]int)
	for _, q := range col.ConstructionQueue {
		if q.AutoQueued {
			queuedAuto[q.InstallationId]++
		} else {
			queuedManual[q.InstallationId]++
		}
	}

	for _, instId := range worldstate.SortedStringKeysInt(col.InstallationTargets) {
		target := col.InstallationTargets[instId]
		have := col.Installations[instId] + queuedManual[instId] + queuedAuto[instId]
		if have < target {
			if _, ok := db.Installations[instId]; !ok {
				continue
			}
			for i := 0; i < target-have; i++ {
				col.ConstructionQueue = append(col.ConstructionQueue, worldstate.InstallationBuildOrder{
					InstallationId: instId,
					AutoQueued:     true,
				})
			}
			continue
		}

		excess := col.Installations[instId] + queuedManual[instId] + queuedAuto[instId] - target
		if excess <= 0 {
			continue
		}
		col.ConstructionQueue = trimExcessAutoQueued(col.ConstructionQueue, instId, excess)
	}
}

// trimExcessAutoQueued :
// Removes up to `excess` not-yet-committed auto-queued entries for
// `instId`, scanning from the tail of the queue so the earliest (most
// likely to be committed soon) entries are preferred for survival.
// Committed entries (MineralsPaid or CpRemaining > 0) are never removed.
func trimExcessAutoQueued(queue []worldstate.InstallationBuildOrder, instId string, excess int) []worldstate.InstallationBuildOrder {
	remove := make([]bool, len(queue))
	for i := len(queue) - 1; i >= 0 && excess > 0; i-- {
		q := queue[i]
		if q.InstallationId != instId || !q.AutoQueued {
			continue
		}
		if q.MineralsPaid || q.CpRemaining > 0 {
			continue
		}
		remove[i] = true
		excess--
	}
	out := queue[:0:0]
	for i, q := range queue {
		if !remove[i] {
			out = append(out, q)
		}
	}
	return out
}

func payBuildCosts(col *worldstate.Colony, costs map[string]float64) bool {
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

func constructionPointsPerDay(col *worldstate.Colony, db *content.DB) float64 {
	return ConstructionPointsPerDay(col, db)
}

// ConstructionPointsPerDay :
// A colony's total construction-point output (spec.md §6 mutation API
// query helper `construction_points_per_day`), exported so the host and
// internal/planner can surface the same number the tick itself uses.
func ConstructionPointsPerDay(col *worldstate.Colony, db *content.DB) float64 {
	total := 0.0
	for instId, count := range col.Installations {
		def, ok := db.Installations[instId]
		if ok && def.IsConstruction {
			total += def.ConstructionPointsDay * float64(count)
		}
	}
	return total
}

const Epsilon = 1e-9
