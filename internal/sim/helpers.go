package sim

import (
	"nebulacore/internal/economy"
	"nebulacore/internal/maintenance"
	"nebulacore/internal/order"
	"nebulacore/internal/simid"
	"nebulacore/internal/worldstate"
)

// ShipDockedAtColony :
// A ship is "docked" at a colony when it shares the colony body's system and
// sits within docking range of the body's cached position (spec.md glossary
// "Docked"). Used by the shipyard refit gate and the repair/maintenance
// tick, and exposed for planners that need the same predicate.
func ShipDockedAtColony(g *GameState, shipId, colonyId simid.Id) bool {
	ship, ok := g.World.Ships[shipId]
	if !ok {
		return false
	}
	col, ok := g.World.Colonies[colonyId]
	if !ok {
		return false
	}
	body, ok := g.World.Bodies[col.BodyId]
	if !ok || ship.SystemId != body.SystemId {
		return false
	}
	return order.Dist(ship.Position, body.Position) <= g.Config.DockingRangeMkm
}

// DockedShipsByColony :
// Every ship currently docked at each colony, keyed by colony id, for the
// maintenance repair tick (spec.md §4.8).
func DockedShipsByColony(g *GameState) map[simid.Id][]simid.Id {
	out := make(map[simid.Id][]simid.Id)
	for _, colonyId := range g.World.SortedColonyIds() {
		for _, shipId := range g.World.SortedShipIds() {
			if ShipDockedAtColony(g, shipId, colonyId) {
				out[colonyId] = append(out[colonyId], shipId)
			}
		}
	}
	return out
}

// HostileShipsInBlockadeRange :
// Counts ships hostile to `colonyFactionId` within the colony's blockade
// range (spec.md §4.8).
func HostileShipsInBlockadeRange(g *GameState, colonyId simid.Id) int {
	col, ok := g.World.Colonies[colonyId]
	if !ok {
		return 0
	}
	body, ok := g.World.Bodies[col.BodyId]
	if !ok {
		return 0
	}
	count := 0
	for _, shipId := range g.World.SortedShipIds() {
		ship := g.World.Ships[shipId]
		if ship.SystemId != body.SystemId {
			continue
		}
		if order.Dist(ship.Position, body.Position) > g.Config.BlockadeRangeMkm {
			continue
		}
		if Hostile(g, ship.FactionId, col.FactionId) {
			count++
		}
	}
	return count
}

// BlockadeOutputMultiplierForColony :
// Mutation-API query helper (spec.md §6 `blockade_output_multiplier_for_colony`).
func BlockadeOutputMultiplierForColony(g *GameState, colonyId simid.Id) float64 {
	return maintenance.BlockadeOutputMultiplier(g.Config, HostileShipsInBlockadeRange(g, colonyId))
}

// ConstructionPointsPerDay :
// Mutation-API query helper (spec.md §6 `construction_points_per_day`).
func ConstructionPointsPerDay(g *GameState, colonyId simid.Id) float64 {
	col, ok := g.World.Colonies[colonyId]
	if !ok {
		return 0
	}
	return economy.ConstructionPointsPerDay(col, g.DB)
}

// ShipyardRepairCapacity :
// A colony's shipyard count (installations with a shipyard build rate) this
// tick, after the blockade multiplier (spec.md §4.8: "Blockades ...
// affecting shipyard and repair throughput"). TickRepairs multiplies it by
// RepairHpPerDayPerShipyard.
func ShipyardRepairCapacity(g *GameState, colonyId simid.Id) float64 {
	col, ok := g.World.Colonies[colonyId]
	if !ok {
		return 0
	}
	shipyards := 0
	for instId, count := range col.Installations {
		if def, ok := g.DB.Installations[instId]; ok && def.ShipyardBuildRateTons > 0 {
			shipyards += count
		}
	}
	return float64(shipyards) * BlockadeOutputMultiplierForColony(g, colonyId)
}

// FleetForShip :
// Mutation-API query helper (spec.md §6 `fleet_for_ship`): the fleet a ship
// belongs to, if any.
func FleetForShip(g *GameState, shipId simid.Id) (*worldstate.Fleet, bool) {
	for _, fleetId := range sortedFleetIds(g.World.Fleets) {
		fleet := g.World.Fleets[fleetId]
		for _, id := range fleet.ShipIds {
			if id == shipId {
				return fleet, true
			}
		}
	}
	return nil, false
}

func sortedFleetIds(m map[simid.Id]*worldstate.Fleet) []simid.Id {
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

// SystemSensorEnvironmentMultiplier :
// Mutation-API query helper (spec.md §6 `system_sensor_environment_multiplier`):
// nebula density attenuates sensor range in that system.
func SystemSensorEnvironmentMultiplier(g *GameState, systemId simid.Id) float64 {
	sys, ok := g.World.Systems[systemId]
	if !ok {
		return 1
	}
	mult := 1 - sys.NebulaDensity
	if mult < 0.1 {
		mult = 0.1
	}
	return mult
}
