package worldstate

import (
	"fmt"

	"nebulacore/internal/simconfig"
)

// CheckInvariants :
// Verifies the invariants spec.md §3 requires hold after every sub-step.
// Returns a human-readable violation per problem found; an empty slice
// means the state is consistent. Intended for use in tests (spec.md §8),
// not on the hot path of a tick.
func CheckInvariants(s *State, cfg simconfig.SimConfig) []string {
	var problems []string

	for _, id := range s.SortedShipIds() {
		ship := s.Ships[id]
		if ship.FuelTons < 0 {
			problems = append(problems, fmt.Sprintf("ship %d has negative fuel %.6f", id, ship.FuelTons))
		}
		if ship.Hp < 0 {
			problems = append(problems, fmt.Sprintf("ship %d has negative hp %.6f", id, ship.Hp))
		}
		for _, m := range []float64{ship.Integrity.Engines, ship.Integrity.Sensors, ship.Integrity.Weapons, ship.Integrity.Shields} {
			if m < 0 || m > 1 {
				problems = append(problems, fmt.Sprintf("ship %d has out-of-range subsystem integrity %.6f", id, m))
			}
		}
		for mineral, tons := range ship.Cargo {
			if tons < 0 {
				problems = append(problems, fmt.Sprintf("ship %d has negative cargo %s=%.6f", id, mineral, tons))
			}
		}
		if _, ok := s.Systems[ship.SystemId]; !ok {
			problems = append(problems, fmt.Sprintf("ship %d references missing system %d", id, ship.SystemId))
		}
		if _, ok := s.ShipOrders[id]; !ok {
			problems = append(problems, fmt.Sprintf("ship %d has no ShipOrders entry", id))
		}
	}

	for _, id := range s.SortedColonyIds() {
		col := s.Colonies[id]
		if _, ok := s.Bodies[col.BodyId]; !ok {
			problems = append(problems, fmt.Sprintf("colony %d references missing body %d", id, col.BodyId))
		}
		for name, count := range col.Installations {
			if count < 0 {
				problems = append(problems, fmt.Sprintf("colony %d has negative installation count %s=%d", id, name, count))
			}
		}
		for mineral, tons := range col.Minerals {
			if tons < 0 {
				problems = append(problems, fmt.Sprintf("colony %d has negative minerals %s=%.6f", id, mineral, tons))
			}
		}
		if len(col.ConstructionQueue) > 0 {
			head := col.ConstructionQueue[0]
			if head.MineralsPaid && head.CpRemaining < -Epsilon {
				problems = append(problems, fmt.Sprintf("colony %d construction head has negative cp_remaining", id))
			}
		}
	}

	for _, id := range s.SortedBodyIds() {
		body := s.Bodies[id]
		if _, ok := s.Systems[body.SystemId]; !ok {
			problems = append(problems, fmt.Sprintf("body %d references missing system %d", id, body.SystemId))
		}
		for mineral, tons := range body.MineralDeposits {
			if tons < 0 {
				problems = append(problems, fmt.Sprintf("body %d has negative deposit %s=%.6f", id, mineral, tons))
			}
		}
	}

	for _, id := range s.SortedSystemIds() {
		sys := s.Systems[id]
		for _, shipId := range sys.ShipIds {
			ship, ok := s.Ships[shipId]
			if !ok || ship.SystemId != id {
				problems = append(problems, fmt.Sprintf("system %d lists ship %d which does not point back", id, shipId))
			}
		}
	}

	for _, id := range s.SortedFactionIds() {
		fac := s.Factions[id]
		if fac.ActiveResearchId != "" && fac.KnownTechs[fac.ActiveResearchId] {
			problems = append(problems, fmt.Sprintf("faction %d has already-known tech active %s", id, fac.ActiveResearchId))
		}
	}

	return problems
}
