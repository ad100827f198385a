package sim

import (
	"nebulacore/internal/simid"
	"nebulacore/internal/worldstate"
)

// LogisticsNeedsForFaction :
// Mutation-API query helper (spec.md §6 `logistics_needs_for_faction`, used
// by the freight planner, spec.md §4.10.4): for every colony owned by
// `factionId`, the desired tons of each mineral that shipyard, construction,
// and one day of industry input demand — the freight planner derives both
// `missing_tons` (desired minus on-hand) and each colony's effective export
// reserve (`max(existing_reserve, desired)`) from this.
func LogisticsNeedsForFaction(g *GameState, factionId simid.Id) map[simid.Id]map[string]float64 {
	out := make(map[simid.Id]map[string]float64)

	for _, colonyId := range g.World.SortedColonyIds() {
		col := g.World.Colonies[colonyId]
		if col.FactionId != factionId {
			continue
		}
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
				if def, ok := g.DB.Installations[head.InstallationId]; ok {
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
			def, ok := g.DB.Installations[instId]
			if !ok {
				continue
			}
			for mineral, perDay := range def.ConsumesPerDay {
				need[mineral] += perDay * float64(count)
			}
		}

		if len(need) > 0 {
			out[colonyId] = need
		}
	}

	return out
}
