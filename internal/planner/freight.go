package planner

import (
	"fmt"
	"sort"

	"nebulacore/internal/content"
	"nebulacore/internal/routing"
	"nebulacore/internal/simconfig"
	"nebulacore/internal/simid"
	"nebulacore/internal/worldstate"
)

// FreightAssignment :
// One ship's freight run (spec.md §4.10.4). `SourceColonyId` is
// simid.InvalidId when the ship already carries the cargo being delivered.
type FreightAssignment struct {
	ShipId         simid.Id
	SourceColonyId simid.Id
	DestColonyId   simid.Id
	Minerals       map[string]float64
	EtaDays        float64
	Efficiency     float64
}

// FreightPlanResult :
type FreightPlanResult struct {
	Result
	Assignments []FreightAssignment
}

// colonyNeed :
// missing_tons[colony][mineral] from an internal logistics_needs query
// (shipyard head cost, construction head cost, one day of installation
// input demand — spec.md §4.10.4), mirroring internal/sim's
// LogisticsNeedsForFaction without depending on internal/sim (planner and
// sim are siblings, neither imports the other).
func colonyNeed(state *worldstate.State, db *content.DB, colonyId simid.Id) map[string]float64 {
	col := state.Colonies[colonyId]
	need := make(map[string]float64)

	if len(col.ShipyardQueue) > 0 {
		head := col.ShipyardQueue[0]
		for mineral, costPerTon := range head.CostPerTonMin {
			need[mineral] += costPerTon * head.TonsRemaining
		}
	}
	if len(col.ConstructionQueue) > 0 {
		head := col.ConstructionQueue[0]
		if !head.MineralsPaid {
			if def, ok := db.Installations[head.InstallationId]; ok {
				for mineral, cost := range def.BuildCosts {
					need[mineral] += cost
				}
			}
		}
	}
	for _, instId := range worldstate.SortedStringKeysInt(col.Installations) {
		count := col.Installations[instId]
		if count <= 0 {
			continue
		}
		def, ok := db.Installations[instId]
		if !ok {
			continue
		}
		for mineral, perDay := range def.ConsumesPerDay {
			need[mineral] += perDay * float64(count)
		}
	}
	return need
}

func shipInAnyFleet(state *worldstate.State, shipId simid.Id) bool {
	for _, fleetId := range sortedFleetKeys(state) {
		fleet := state.Fleets[fleetId]
		for _, id := range fleet.ShipIds {
			if id == shipId {
				return true
			}
		}
	}
	return false
}

func sortedFleetKeys(state *worldstate.State) []simid.Id {
	out := make([]simid.Id, 0, len(state.Fleets))
	for id := range state.Fleets {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func etaDaysBetween(state *worldstate.State, fromSystem simid.Id, fromPos worldstate.Vec2, speed float64, toColonyId simid.Id) (float64, simid.Id, worldstate.Vec2, bool) {
	col, ok := state.Colonies[toColonyId]
	if !ok {
		return 0, simid.InvalidId, worldstate.Vec2{}, false
	}
	body, ok := state.Bodies[col.BodyId]
	if !ok {
		return 0, simid.InvalidId, worldstate.Vec2{}, false
	}
	route := routing.PlanRoute(state, fromSystem, fromPos, speed, body.SystemId, body.Position, false, nil)
	if !route.Ok {
		return 0, simid.InvalidId, worldstate.Vec2{}, false
	}
	return route.TotalEtaDays, body.SystemId, body.Position, true
}

// PlanFreight :
// Routes idle, auto-freight-flagged, non-fleet ships of `factionId` to
// cover colony mineral shortfalls (spec.md §4.10.4).
func PlanFreight(state *worldstate.State, db *content.DB, cfg simconfig.SimConfig, factionId simid.Id, opts Options) FreightPlanResult {
	missing := make(map[simid.Id]map[string]float64)
	exportable := make(map[simid.Id]map[string]float64)

	for _, colonyId := range state.SortedColonyIds() {
		col := state.Colonies[colonyId]
		if col.FactionId != factionId {
			continue
		}
		need := colonyNeed(state, db, colonyId)
		missing[colonyId] = make(map[string]float64)
		exportable[colonyId] = make(map[string]float64)
		for _, mineral := range worldstate.SortedStringKeys(col.Minerals) {
			have := col.Minerals[mineral]
			desired := need[mineral]
			if desired > have {
				missing[colonyId][mineral] = desired - have
			}
			reserve := col.MineralReserves[mineral]
			if desired > reserve {
				reserve = desired
			}
			if have > reserve {
				exportable[colonyId][mineral] = (have - reserve) * cfg.AutoFreightMaxTakeFractionOfSurplus
			}
		}
		for mineral, desired := range need {
			if _, seen := missing[colonyId][mineral]; seen {
				continue
			}
			have := col.Minerals[mineral]
			if desired > have {
				missing[colonyId][mineral] = desired - have
			}
		}
	}

	var assignments []FreightAssignment
	maxItems := opts.MaxItems
	if maxItems <= 0 {
		maxItems = DefaultOptions().MaxItems
	}

	for _, shipId := range state.SortedShipIds() {
		if len(assignments) >= maxItems {
			return FreightPlanResult{
				Result:      truncated(ok(), fmt.Sprintf("stopped after %d assignments", maxItems)),
				Assignments: assignments,
			}
		}
		ship := state.Ships[shipId]
		if ship.FactionId != factionId || !ship.Automation.AutoFreight {
			continue
		}
		if so, ok := state.ShipOrders[shipId]; ok && len(so.Queue) > 0 {
			continue
		}
		if shipInAnyFleet(state, shipId) {
			continue
		}
		design, hasDesign := db.Designs[ship.DesignId]
		if !hasDesign {
			continue
		}
		capacity := design.CargoCapacityTons
		used := 0.0
		for _, t := range ship.Cargo {
			used += t
		}
		free := capacity - used

		if used > epsilon {
			assignment, found := bestDeliveryForCarriedCargo(state, db, cfg, ship, missing)
			if found {
				assignments = append(assignments, assignment)
			}
			continue
		}
		if free <= epsilon {
			continue
		}
		assignment, found := bestPickupDelivery(state, db, cfg, ship, free, missing, exportable)
		if found {
			assignments = append(assignments, assignment)
		}
	}

	return FreightPlanResult{Result: ok(), Assignments: assignments}
}

func bestDeliveryForCarriedCargo(state *worldstate.State, db *content.DB, cfg simconfig.SimConfig, ship *worldstate.Ship, missing map[simid.Id]map[string]float64) (FreightAssignment, bool) {
	design := db.Designs[ship.DesignId]
	var best *FreightAssignment
	for _, destId := range state.SortedColonyIds() {
		need := missing[destId]
		if len(need) == 0 {
			continue
		}
		deliver := make(map[string]float64)
		total := 0.0
		for mineral, have := range ship.Cargo {
			want := need[mineral]
			if want <= 0 || have <= 0 {
				continue
			}
			take := have
			if take > want {
				take = want
			}
			if take > epsilon {
				deliver[mineral] = take
				total += take
			}
			if !cfg.AutoFreightMultiMineral {
				break
			}
		}
		if total <= epsilon {
			continue
		}
		eta, _, _, ok := etaDaysBetween(state, ship.SystemId, ship.Position, design.SpeedKmS, destId)
		if !ok {
			continue
		}
		efficiency := total / (eta + 1e-9)
		candidate := FreightAssignment{
			ShipId: ship.Id, SourceColonyId: simid.InvalidId, DestColonyId: destId,
			Minerals: deliver, EtaDays: eta, Efficiency: efficiency,
		}
		if betterFreightCandidate(candidate, total, best) {
			c := candidate
			best = &c
		}
	}
	if best == nil {
		return FreightAssignment{}, false
	}
	return *best, true
}

func bestPickupDelivery(state *worldstate.State, db *content.DB, cfg simconfig.SimConfig, ship *worldstate.Ship, freeCapacity float64, missing, exportable map[simid.Id]map[string]float64) (FreightAssignment, bool) {
	design := db.Designs[ship.DesignId]
	var best *FreightAssignment

	for _, sourceId := range state.SortedColonyIds() {
		src := exportable[sourceId]
		if len(src) == 0 {
			continue
		}
		etaToSource, _, _, ok := etaDaysBetween(state, ship.SystemId, ship.Position, design.SpeedKmS, sourceId)
		if !ok {
			continue
		}

		for _, destId := range state.SortedColonyIds() {
			if destId == sourceId {
				continue
			}
			need := missing[destId]
			if len(need) == 0 {
				continue
			}
			pickup := make(map[string]float64)
			total := 0.0
			for mineral, haveExport := range src {
				wantDest := need[mineral]
				if haveExport <= 0 || wantDest <= 0 {
					continue
				}
				take := haveExport
				if take > wantDest {
					take = wantDest
				}
				if total+take > freeCapacity {
					take = freeCapacity - total
				}
				if take > epsilon {
					pickup[mineral] = take
					total += take
				}
				if !cfg.AutoFreightMultiMineral {
					break
				}
			}
			if total <= epsilon {
				continue
			}
			legEta, _, _, legOk := etaDaysBetweenColonies(state, sourceId, destId, design.SpeedKmS)
			if !legOk {
				continue
			}
			totalEta := etaToSource + legEta
			efficiency := total / (totalEta + 1e-9)
			candidate := FreightAssignment{
				ShipId: ship.Id, SourceColonyId: sourceId, DestColonyId: destId,
				Minerals: pickup, EtaDays: totalEta, Efficiency: efficiency,
			}
			if betterFreightCandidate(candidate, total, best) {
				c := candidate
				best = &c
			}
		}
	}
	if best == nil {
		return FreightAssignment{}, false
	}
	return *best, true
}

func etaDaysBetweenColonies(state *worldstate.State, fromColonyId, toColonyId simid.Id, speed float64) (float64, simid.Id, worldstate.Vec2, bool) {
	fromCol, ok := state.Colonies[fromColonyId]
	if !ok {
		return 0, simid.InvalidId, worldstate.Vec2{}, false
	}
	fromBody, ok := state.Bodies[fromCol.BodyId]
	if !ok {
		return 0, simid.InvalidId, worldstate.Vec2{}, false
	}
	return etaDaysBetween(state, fromBody.SystemId, fromBody.Position, speed, toColonyId)
}

// betterFreightCandidate :
// Deterministic tie-break (spec.md §4.10.4): higher efficiency > shorter
// ETA > larger total > smaller dest id > smaller source id.
func betterFreightCandidate(candidate FreightAssignment, total float64, best *FreightAssignment) bool {
	if best == nil {
		return true
	}
	if candidate.Efficiency != best.Efficiency {
		return candidate.Efficiency > best.Efficiency
	}
	if candidate.EtaDays != best.EtaDays {
		return candidate.EtaDays < best.EtaDays
	}
	bestTotal := 0.0
	for _, t := range best.Minerals {
		bestTotal += t
	}
	if total != bestTotal {
		return total > bestTotal
	}
	if candidate.DestColonyId != best.DestColonyId {
		return candidate.DestColonyId < best.DestColonyId
	}
	return candidate.SourceColonyId < best.SourceColonyId
}
