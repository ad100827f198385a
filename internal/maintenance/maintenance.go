// Package maintenance implements ship upkeep, breakdown risk, repair at
// colonies, and blockade output penalties (spec.md §4.8).
package maintenance

import (
	"fmt"
	"math"

	"nebulacore/internal/content"
	"nebulacore/internal/events"
	"nebulacore/internal/simconfig"
	"nebulacore/internal/simid"
	"nebulacore/internal/worldstate"
)

// TickShipUpkeep :
// Consumes a ship's maintenance resource (default Supplies) from its own
// cargo for `dtDays` (the scheduler calls it once per day), and lets `MaintenanceCondition` decay when it
// cannot be paid (spec.md §4.8). Condition below
// `ShipMaintenanceBreakdownStartFraction` rolls a deterministic breakdown
// chance, driven by the state's own PRNG stream so re-running a save is
// reproducible (spec.md §5).
func TickShipUpkeep(state *worldstate.State, db *content.DB, cfg simconfig.SimConfig, dtDays float64) {
	if !cfg.EnableShipMaintenance {
		return
	}
	for _, shipId := range state.SortedShipIds() {
		ship := state.Ships[shipId]
		design, ok := db.Designs[ship.DesignId]
		if !ok {
			continue
		}
		need := cfg.ShipMaintenanceTonsPerDayPerMassTon * design.MassTons * dtDays
		have := ship.Cargo[cfg.ShipMaintenanceResourceId]

		if have >= need {
			ship.Cargo[cfg.ShipMaintenanceResourceId] = worldstate.FloorTiny(have - need)
			ship.MaintenanceCondition = math.Min(1, ship.MaintenanceCondition+cfg.ShipMaintenanceRecoveryPerDay*dtDays)
		} else if need > 0 {
			ship.Cargo[cfg.ShipMaintenanceResourceId] = 0
			paidFraction := 0.0
			if have > 0 {
				paidFraction = have / need
			}
			decay := (1 - paidFraction) * cfg.ShipMaintenanceRecoveryPerDay * dtDays
			ship.MaintenanceCondition = math.Max(0, ship.MaintenanceCondition-decay)
		}

		rollBreakdown(state, ship, cfg, dtDays)
	}
}

func rollBreakdown(state *worldstate.State, ship *worldstate.Ship, cfg simconfig.SimConfig, dtDays float64) {
	if ship.MaintenanceCondition >= cfg.ShipMaintenanceBreakdownStartFraction {
		return
	}
	deficit := cfg.ShipMaintenanceBreakdownStartFraction - ship.MaintenanceCondition
	norm := deficit / math.Max(cfg.ShipMaintenanceBreakdownStartFraction, worldstate.Epsilon)
	chance := cfg.ShipMaintenanceBreakdownRatePerDayAtZero * math.Pow(norm, cfg.ShipMaintenanceBreakdownExponent) * dtDays

	if state.Rng.Float64() >= chance {
		return
	}

	subsystems := []*float64{&ship.Integrity.Engines, &ship.Integrity.Sensors, &ship.Integrity.Weapons, &ship.Integrity.Shields}
	pick := subsystems[state.Rng.Intn(len(subsystems))]
	*pick = math.Max(0, *pick-0.25)

	state.Log.Append(events.SimEvent{
		Day: state.Day, Hour: state.HourOfDay, Level: events.Warn, Category: events.Maintenance,
		Message: fmt.Sprintf("ship %d suffered a breakdown (condition %.2f)", ship.Id, ship.MaintenanceCondition),
		ShipId:  ship.Id, FactionId: ship.FactionId,
	})
}

// TickRepairs :
// Restores hull HP and subsystem integrity for ships docked at a colony
// with shipyard capacity, spending Duranium/Neutronium per HP repaired
// (spec.md §4.8). Docked status and shipyard capacity are supplied by the
// caller so this package never depends on internal/economy;
// `shipyardCapacity` returns the colony's shipyard count already scaled by
// its blockade multiplier, and the HP budget is RepairHpPerDayPerShipyard
// times that figure.
func TickRepairs(state *worldstate.State, db *content.DB, cfg simconfig.SimConfig, dtDays float64, dockedShipsByColony map[simid.Id][]simid.Id, shipyardCapacity func(colonyId simid.Id) float64) {
	for _, colonyId := range sortedColonyIds(dockedShipsByColony) {
		col, ok := state.Colonies[colonyId]
		if !ok {
			continue
		}
		capacity := shipyardCapacity(colonyId)
		if capacity <= 0 {
			continue
		}
		hpBudget := cfg.RepairHpPerDayPerShipyard * capacity * dtDays

		for _, shipId := range dockedShipsByColony[colonyId] {
			if hpBudget <= 0 {
				break
			}
			ship, ok := state.Ships[shipId]
			if !ok {
				continue
			}
			design, ok := db.Designs[ship.DesignId]
			if !ok {
				continue
			}
			hpBudget -= repairShip(col, ship, design, cfg, hpBudget)
		}
	}
}

func repairShip(col *worldstate.Colony, ship *worldstate.Ship, design content.ShipDesign, cfg simconfig.SimConfig, budget float64) float64 {
	hullNeeded := design.MaxHp - ship.Hp
	integrityNeeded := (4 - ship.Integrity.Engines - ship.Integrity.Sensors - ship.Integrity.Weapons - ship.Integrity.Shields) * cfg.ShipSubsystemRepairHpEquivPerIntegrity
	totalNeeded := hullNeeded + integrityNeeded
	if totalNeeded <= worldstate.Epsilon {
		return 0
	}

	apply := math.Min(budget, totalNeeded)
	maxByDuranium := col.Minerals["Duranium"] / math.Max(cfg.RepairDuraniumPerHp, worldstate.Epsilon)
	maxByNeutronium := col.Minerals["Neutronium"] / math.Max(cfg.RepairNeutroniumPerHp, worldstate.Epsilon)
	apply = math.Min(apply, math.Min(maxByDuranium, maxByNeutronium))
	if apply <= 0 {
		return 0
	}

	col.Minerals["Duranium"] = worldstate.FloorTiny(col.Minerals["Duranium"] - apply*cfg.RepairDuraniumPerHp)
	col.Minerals["Neutronium"] = worldstate.FloorTiny(col.Minerals["Neutronium"] - apply*cfg.RepairNeutroniumPerHp)

	hullRepaired := math.Min(apply, hullNeeded)
	ship.Hp += hullRepaired
	remaining := apply - hullRepaired
	if remaining > 0 && integrityNeeded > 0 {
		fraction := remaining / integrityNeeded
		ship.Integrity.Engines = math.Min(1, ship.Integrity.Engines+(1-ship.Integrity.Engines)*fraction)
		ship.Integrity.Sensors = math.Min(1, ship.Integrity.Sensors+(1-ship.Integrity.Sensors)*fraction)
		ship.Integrity.Weapons = math.Min(1, ship.Integrity.Weapons+(1-ship.Integrity.Weapons)*fraction)
		ship.Integrity.Shields = math.Min(1, ship.Integrity.Shields+(1-ship.Integrity.Shields)*fraction)
	}
	return apply
}

// BlockadeOutputMultiplier :
// Returns cfg.BlockadeOutputMultiplier when the colony is blockaded
// (`hostileShipsInRange` at or above the configured threshold), else 1
// (spec.md §4.8).
func BlockadeOutputMultiplier(cfg simconfig.SimConfig, hostileShipsInRange int) float64 {
	if !cfg.EnableBlockades {
		return 1
	}
	if hostileShipsInRange >= cfg.BlockadeHostileShipThreshold {
		return cfg.BlockadeOutputMultiplier
	}
	return 1
}

func sortedColonyIds(m map[simid.Id][]simid.Id) []simid.Id {
	out := make([]simid.Id, 0, len(m))
	for id := range m {
		out = append(out, id)
	}
	for i := 1; i < len(out); i++ {
		for j := i; j > 0 && out[j] < out[j-1]; j-- {
			out[j], out[j-1] = out[j-1], out[j]
		}
	}
	return out
}
