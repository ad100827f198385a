package planner

import (
	"nebulacore/internal/content"
	"nebulacore/internal/diplomacy"
	"nebulacore/internal/routing"
	"nebulacore/internal/simconfig"
	"nebulacore/internal/simid"
	"nebulacore/internal/worldstate"
)

// MaintenanceAssignment :
// A ship's recommended maintenance-supply resupply colony (spec.md
// §4.10.7).
type MaintenanceAssignment struct {
	ShipId          simid.Id
	ColonyId        simid.Id
	SuppliesNeeded  float64
	TravelEtaDays   float64
	Critical        bool
	Unplanned       bool
	UnplannedReason string
}

// MaintenancePlanResult :
type MaintenancePlanResult struct {
	Result
	Assignments []MaintenanceAssignment
}

type maintenanceColonyCandidate struct {
	id           simid.Id
	owned        bool
	hasShipyard  bool
	suppliesHave float64
}

// PlanMaintenance :
// For every ship of `factionId` below cfg.ShipMaintenanceBreakdownStartFraction
// (the "maintenance threshold"), computes the Supplies tonnage needed to
// recover to full condition and the best colony to fetch it from (spec.md
// §4.10.7).
func PlanMaintenance(state *worldstate.State, db *content.DB, cfg simconfig.SimConfig, factionId simid.Id, opts Options) MaintenancePlanResult {
	maxItems := opts.MaxItems
	if maxItems <= 0 {
		maxItems = DefaultOptions().MaxItems
	}

	var colonies []maintenanceColonyCandidate
	for _, colonyId := range state.SortedColonyIds() {
		col := state.Colonies[colonyId]
		owned := col.FactionId == factionId
		if !owned && !diplomacy.MutuallyFriendly(state, factionId, col.FactionId, nil) {
			continue
		}
		colonies = append(colonies, maintenanceColonyCandidate{
			id: colonyId, owned: owned, hasShipyard: shipyardCount(col, db) > 0,
			suppliesHave: col.Minerals[cfg.ShipMaintenanceResourceId],
		})
	}

	var assignments []MaintenanceAssignment
	hitCap := false

	for _, shipId := range state.SortedShipIds() {
		if len(assignments) >= maxItems {
			hitCap = true
			break
		}
		ship := state.Ships[shipId]
		if ship.FactionId != factionId {
			continue
		}
		if ship.MaintenanceCondition >= cfg.ShipMaintenanceBreakdownStartFraction {
			continue
		}
		design, ok := db.Designs[ship.DesignId]
		if !ok {
			continue
		}

		deficit := 1 - ship.MaintenanceCondition
		recovery := cfg.ShipMaintenanceRecoveryPerDay
		if recovery <= 0 {
			recovery = 0.05
		}
		suppliesNeeded := deficit / recovery * design.MassTons * cfg.ShipMaintenanceTonsPerDayPerMassTon
		critical := ship.MaintenanceCondition < cfg.ShipMaintenanceBreakdownStartFraction*0.5

		best, found := bestMaintenanceColony(state, ship, design, colonies, critical)
		if !found {
			assignments = append(assignments, MaintenanceAssignment{
				ShipId: shipId, ColonyId: simid.InvalidId, SuppliesNeeded: suppliesNeeded,
				Critical: critical, Unplanned: true, UnplannedReason: "no reachable friendly colony",
			})
			continue
		}

		assignments = append(assignments, MaintenanceAssignment{
			ShipId: shipId, ColonyId: best.id, SuppliesNeeded: suppliesNeeded,
			TravelEtaDays: best.eta, Critical: critical,
		})
	}

	if hitCap {
		return MaintenancePlanResult{Result: truncatedResultMaxItems(), Assignments: assignments}
	}
	return MaintenancePlanResult{Result: ok(), Assignments: assignments}
}

func truncatedResultMaxItems() Result {
	return truncated(ok(), "stopped after max_items assignments")
}

type maintenanceColonyPick struct {
	id  simid.Id
	eta float64
}

// bestMaintenanceColony :
// Lexicographic score (spec.md §4.10.7): travel ETA first, with a soft bias
// against non-shipyard colonies for critical ships, and a slight preference
// for owned colonies.
func bestMaintenanceColony(state *worldstate.State, ship *worldstate.Ship, design content.ShipDesign, colonies []maintenanceColonyCandidate, critical bool) (maintenanceColonyPick, bool) {
	var best *maintenanceColonyPick
	bestScore := 0.0

	for _, c := range colonies {
		col := state.Colonies[c.id]
		body, ok := state.Bodies[col.BodyId]
		if !ok {
			continue
		}
		route := routing.PlanRoute(state, ship.SystemId, ship.Position, design.SpeedKmS, body.SystemId, body.Position, false, nil)
		if !route.Ok {
			continue
		}

		score := route.TotalEtaDays
		if critical && !c.hasShipyard {
			score += 5
		}
		if !c.owned {
			score += 0.5
		}

		if best == nil || score < bestScore {
			pick := maintenanceColonyPick{id: c.id, eta: route.TotalEtaDays}
			best = &pick
			bestScore = score
		}
	}
	if best == nil {
		return maintenanceColonyPick{}, false
	}
	return *best, true
}
