package planner

import (
	"sort"

	"nebulacore/internal/content"
	"nebulacore/internal/diplomacy"
	"nebulacore/internal/maintenance"
	"nebulacore/internal/routing"
	"nebulacore/internal/simconfig"
	"nebulacore/internal/simid"
	"nebulacore/internal/worldstate"
)

// RepairAssignment :
// One ship's best repair-yard assignment (spec.md §4.10.6).
type RepairAssignment struct {
	ShipId           simid.Id
	ColonyId         simid.Id
	TravelEtaDays    float64
	QueueWaitDays    float64
	RepairDays       float64
	FinishRepairDays float64
	Backlog          int
	Owned            bool
}

// RepairPlanResult :
type RepairPlanResult struct {
	Result
	Assignments []RepairAssignment
}

// PlanRepairs :
// For each damaged ship of `factionId`, evaluates every repair-capable
// colony as a single-server queue and assigns the yard minimizing finish
// time (spec.md §4.10.6). Blockade pressure is treated as zero for the
// forecast (the planner has no cheap way to recompute "hostile ships in
// sensor range" without replaying internal/sensors, which would make this a
// second tick engine); the mineral affordability multiplier is a static
// snapshot of the colony's current Duranium/Neutronium stockpile rather
// than a day-by-day depletion simulation, both documented simplifications.
func PlanRepairs(state *worldstate.State, db *content.DB, cfg simconfig.SimConfig, factionId simid.Id, opts Options) RepairPlanResult {
	maxItems := opts.MaxItems
	if maxItems <= 0 {
		maxItems = DefaultOptions().MaxItems
	}

	type candidateColony struct {
		id       simid.Id
		owned    bool
		capacity float64
	}
	var colonies []candidateColony
	for _, colonyId := range state.SortedColonyIds() {
		col := state.Colonies[colonyId]
		count := shipyardCount(col, db)
		if count <= 0 {
			continue
		}
		owned := col.FactionId == factionId
		if !owned && !diplomacy.MutuallyFriendly(state, factionId, col.FactionId, nil) {
			continue
		}
		mult := maintenance.BlockadeOutputMultiplier(cfg, 0)
		mineralMult := mineralAffordabilityMultiplier(col, cfg, count)
		capacity := cfg.RepairHpPerDayPerShipyard * float64(count) * mult * mineralMult
		colonies = append(colonies, candidateColony{id: colonyId, owned: owned, capacity: capacity})
	}

	var assignments []RepairAssignment
	truncatedAssignments := false

	for _, shipId := range state.SortedShipIds() {
		if len(assignments) >= maxItems {
			truncatedAssignments = true
			break
		}
		ship := state.Ships[shipId]
		if ship.FactionId != factionId {
			continue
		}
		design, ok := db.Designs[ship.DesignId]
		if !ok {
			continue
		}
		needed := repairNeededHp(ship, design, cfg)
		if needed <= epsilon {
			continue
		}

		var best *RepairAssignment
		for _, c := range colonies {
			if c.capacity <= 0 {
				continue
			}
			travelEta, ok := travelEtaToColony(state, ship, design, c.id)
			if !ok {
				continue
			}

			queueWait, backlog := simulateRepairQueue(state, db, cfg, c.id, ship, travelEta, c.capacity)
			repairDays := needed / c.capacity
			finish := queueWait + repairDays

			candidate := RepairAssignment{
				ShipId: shipId, ColonyId: c.id, TravelEtaDays: travelEta, QueueWaitDays: queueWait,
				RepairDays: repairDays, FinishRepairDays: finish, Backlog: backlog, Owned: c.owned,
			}
			if betterRepairCandidate(candidate, c.capacity, best) {
				cc := candidate
				best = &cc
			}
		}
		if best != nil {
			assignments = append(assignments, *best)
		}
	}

	if truncatedAssignments {
		return RepairPlanResult{Result: truncated(ok(), "stopped after max_items assignments"), Assignments: assignments}
	}
	return RepairPlanResult{Result: ok(), Assignments: assignments}
}

func shipyardCount(col *worldstate.Colony, db *content.DB) int {
	total := 0
	for instId, count := range col.Installations {
		def, ok := db.Installations[instId]
		if ok && def.ShipyardBuildRateTons > 0 {
			total += count
		}
	}
	return total
}

func mineralAffordabilityMultiplier(col *worldstate.Colony, cfg simconfig.SimConfig, shipyards int) float64 {
	fullRateHp := cfg.RepairHpPerDayPerShipyard * float64(shipyards)
	if fullRateHp <= 0 {
		return 1
	}
	duraniumNeeded := fullRateHp * cfg.RepairDuraniumPerHp
	neutroniumNeeded := fullRateHp * cfg.RepairNeutroniumPerHp
	mult := 1.0
	if duraniumNeeded > 0 {
		if frac := col.Minerals["Duranium"] / duraniumNeeded; frac < mult {
			mult = frac
		}
	}
	if neutroniumNeeded > 0 {
		if frac := col.Minerals["Neutronium"] / neutroniumNeeded; frac < mult {
			mult = frac
		}
	}
	if mult < 0 {
		mult = 0
	}
	if mult > 1 {
		mult = 1
	}
	return mult
}

func repairNeededHp(ship *worldstate.Ship, design content.ShipDesign, cfg simconfig.SimConfig) float64 {
	hull := design.MaxHp - ship.Hp
	integrity := (4 - ship.Integrity.Engines - ship.Integrity.Sensors - ship.Integrity.Weapons - ship.Integrity.Shields) * cfg.ShipSubsystemRepairHpEquivPerIntegrity
	total := hull + integrity
	if total < 0 {
		return 0
	}
	return total
}

func travelEtaToColony(state *worldstate.State, ship *worldstate.Ship, design content.ShipDesign, colonyId simid.Id) (float64, bool) {
	col, ok := state.Colonies[colonyId]
	if !ok {
		return 0, false
	}
	body, ok := state.Bodies[col.BodyId]
	if !ok {
		return 0, false
	}
	route := routing.PlanRoute(state, ship.SystemId, ship.Position, design.SpeedKmS, body.SystemId, body.Position, false, nil)
	if !route.Ok {
		return 0, false
	}
	return route.TotalEtaDays, true
}

// simulateRepairQueue :
// Single-server FIFO simulation (spec.md §4.10.6): every other damaged ship
// of the colony's own faction already present is treated as released at
// time 0 ahead of the evaluated ship (whose release is its own travel ETA),
// ordered by damage fraction descending (priority), then release time, then
// id.
func simulateRepairQueue(state *worldstate.State, db *content.DB, cfg simconfig.SimConfig, colonyId simid.Id, ship *worldstate.Ship, shipRelease, capacity float64) (float64, int) {
	type member struct {
		id       simid.Id
		release  float64
		priority float64
		days     float64
	}
	var members []member
	col := state.Colonies[colonyId]
	body, hasBody := state.Bodies[col.BodyId]

	for _, otherId := range state.SortedShipIds() {
		if otherId == ship.Id {
			continue
		}
		other := state.Ships[otherId]
		if other.FactionId != col.FactionId {
			continue
		}
		if !hasBody || other.SystemId != body.SystemId {
			continue
		}
		otherDesign, ok := db.Designs[other.DesignId]
		if !ok {
			continue
		}
		needed := repairNeededHp(other, otherDesign, cfg)
		if needed <= epsilon {
			continue
		}
		members = append(members, member{id: otherId, release: 0, priority: needed / otherDesign.MaxHp, days: needed / capacity})
	}

	design := db.Designs[ship.DesignId]
	needed := repairNeededHp(ship, design, cfg)
	self := member{id: ship.Id, release: shipRelease, priority: needed / design.MaxHp, days: needed / capacity}
	members = append(members, self)

	sort.Slice(members, func(i, j int) bool {
		if members[i].priority != members[j].priority {
			return members[i].priority > members[j].priority
		}
		if members[i].release != members[j].release {
			return members[i].release < members[j].release
		}
		return members[i].id < members[j].id
	})

	timeSoFar := 0.0
	backlog := 0
	for _, m := range members {
		start := timeSoFar
		if m.release > start {
			start = m.release
		}
		finish := start + m.days
		timeSoFar = finish
		if m.id == ship.Id {
			return start - shipRelease, backlog
		}
		backlog++
	}
	return 0, backlog
}

// betterRepairCandidate :
// Minimize finish time; tie-break owned > partner, shorter travel, higher
// capacity (spec.md §4.10.6).
func betterRepairCandidate(candidate RepairAssignment, capacity float64, best *RepairAssignment) bool {
	if best == nil {
		return true
	}
	if candidate.FinishRepairDays != best.FinishRepairDays {
		return candidate.FinishRepairDays < best.FinishRepairDays
	}
	if candidate.Owned != best.Owned {
		return candidate.Owned
	}
	if candidate.TravelEtaDays != best.TravelEtaDays {
		return candidate.TravelEtaDays < best.TravelEtaDays
	}
	// Same ship, same repair need: shorter RepairDays means higher capacity.
	return candidate.RepairDays < best.RepairDays
}
