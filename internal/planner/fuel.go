package planner

import (
	"fmt"

	"nebulacore/internal/content"
	"nebulacore/internal/order"
	"nebulacore/internal/simconfig"
	"nebulacore/internal/simid"
	"nebulacore/internal/worldstate"
)

const minFuelTransferTons = 1.0

// FuelAssignment :
// One tanker-to-target fuel transfer leg (spec.md §4.10.5).
type FuelAssignment struct {
	TankerId     simid.Id
	TargetShipId simid.Id
	Tons         float64
	EtaDays      float64
}

// FuelPlanResult :
type FuelPlanResult struct {
	Result
	Assignments []FuelAssignment
}

// PlanFuel :
// Routes auto-tanker ships to top off low-fuel ships of the same faction
// (spec.md §4.10.5). Both tanker and target must share a system for a leg
// to be planned — the fuel planner does not itself route tankers across
// jumps, since that's the order planner's job once an assignment is applied
// via TransferFuelToShip. `opts.MaxCandidatesPerShip` caps legs per tanker
// (there is no dedicated cap in Options, so this field stands in for it).
func PlanFuel(state *worldstate.State, db *content.DB, cfg simconfig.SimConfig, factionId simid.Id, opts Options) FuelPlanResult {
	maxLegsPerTanker := opts.MaxCandidatesPerShip
	if maxLegsPerTanker <= 0 {
		maxLegsPerTanker = DefaultOptions().MaxCandidatesPerShip
	}
	maxItems := opts.MaxItems
	if maxItems <= 0 {
		maxItems = DefaultOptions().MaxItems
	}

	served := make(map[simid.Id]bool)
	var assignments []FuelAssignment

	for _, tankerId := range state.SortedShipIds() {
		if len(assignments) >= maxItems {
			return FuelPlanResult{
				Result:      truncated(ok(), fmt.Sprintf("stopped after %d assignments", maxItems)),
				Assignments: assignments,
			}
		}
		tanker := state.Ships[tankerId]
		if tanker.FactionId != factionId || !tanker.Automation.AutoTanker {
			continue
		}
		design, hasDesign := db.Designs[tanker.DesignId]
		if !hasDesign {
			continue
		}
		ownReserve := design.FuelCapacityTons * cfg.AutoTankerFillTargetFraction
		available := tanker.FuelTons - ownReserve
		if available <= minFuelTransferTons {
			continue
		}

		currentPos := tanker.Position
		legs := 0

		for legs < maxLegsPerTanker && available > minFuelTransferTons {
			targetId, targetEta, found := mostUrgentFuelTarget(state, db, cfg, factionId, tanker.SystemId, currentPos, served, tankerId)
			if !found {
				break
			}
			target := state.Ships[targetId]
			targetDesign := db.Designs[target.DesignId]
			need := targetDesign.FuelCapacityTons*cfg.AutoTankerFillTargetFraction - target.FuelTons
			if need <= minFuelTransferTons {
				served[targetId] = true
				continue
			}
			transfer := available
			if transfer > need {
				transfer = need
			}
			if transfer <= minFuelTransferTons {
				break
			}

			assignments = append(assignments, FuelAssignment{
				TankerId: tankerId, TargetShipId: targetId, Tons: transfer, EtaDays: targetEta,
			})
			served[targetId] = true
			available -= transfer
			currentPos = target.Position
			legs++
		}
	}

	return FuelPlanResult{Result: ok(), Assignments: assignments}
}

// mostUrgentFuelTarget :
// Lowest fuel fraction first, then shortest ETA from the tanker's current
// position (spec.md §4.10.5).
func mostUrgentFuelTarget(state *worldstate.State, db *content.DB, cfg simconfig.SimConfig, factionId, systemId simid.Id, fromPos worldstate.Vec2, served map[simid.Id]bool, excludeId simid.Id) (simid.Id, float64, bool) {
	bestId := simid.InvalidId
	bestFrac := 1.0
	bestEta := 0.0
	found := false

	for _, shipId := range state.SortedShipIds() {
		if shipId == excludeId || served[shipId] {
			continue
		}
		ship := state.Ships[shipId]
		if ship.FactionId != factionId || ship.SystemId != systemId {
			continue
		}
		design, ok := db.Designs[ship.DesignId]
		if !ok || design.FuelCapacityTons <= 0 {
			continue
		}
		frac := ship.FuelTons / design.FuelCapacityTons
		if frac >= cfg.AutoTankerRequestThresholdFraction {
			continue
		}
		eta := order.Dist(fromPos, ship.Position)

		if !found || frac < bestFrac-1e-9 || (frac < bestFrac+1e-9 && eta < bestEta) {
			bestId, bestFrac, bestEta, found = shipId, frac, eta, true
		}
	}
	return bestId, bestEta, found
}
