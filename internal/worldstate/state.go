package worldstate

import (
	"sort"

	"nebulacore/internal/events"
	"nebulacore/internal/order"
	"nebulacore/internal/simid"
)

// Epsilon :
// Quantities below this are floored to zero (spec.md §3 invariants).
const Epsilon = 1e-9

// State :
// The single source of truth for a running game (spec.md §3). Every field
// is exported so the scheduler's subsystems (which live in sibling
// packages, to keep each subsystem's file small and independently
// testable) can mutate it directly; nothing outside internal/sim ever
// holds a *State for longer than one call.
type State struct {
	Day        int64
	HourOfDay  int

	Systems    map[simid.Id]*StarSystem
	Bodies     map[simid.Id]*Body
	Ships      map[simid.Id]*Ship
	Colonies   map[simid.Id]*Colony
	Factions   map[simid.Id]*Faction
	JumpPoints map[simid.Id]*JumpPoint
	Wrecks     map[simid.Id]*Wreck
	Anomalies  map[simid.Id]*Anomaly
	GroundBattles map[simid.Id]*GroundBattle
	Fleets     map[simid.Id]*Fleet
	Regions    map[simid.Id]*Region
	Treaties   map[simid.Id]*Treaty
	Offers     map[simid.Id]*DiplomaticOffer

	ShipOrders map[simid.Id]*order.ShipOrders

	Ids   *simid.Allocator
	Log   *events.Log
	Rng   *Prng
	RngSeed int64

	SaveVersion int
}

// New :
// Builds an empty world state at day 0, hour 0, seeded from `seed`.
func New(seed int64) *State {
	return &State{
		Systems:       make(map[simid.Id]*StarSystem),
		Bodies:        make(map[simid.Id]*Body),
		Ships:         make(map[simid.Id]*Ship),
		Colonies:      make(map[simid.Id]*Colony),
		Factions:      make(map[simid.Id]*Faction),
		JumpPoints:    make(map[simid.Id]*JumpPoint),
		Wrecks:        make(map[simid.Id]*Wreck),
		Anomalies:     make(map[simid.Id]*Anomaly),
		GroundBattles: make(map[simid.Id]*GroundBattle),
		Fleets:        make(map[simid.Id]*Fleet),
		Regions:       make(map[simid.Id]*Region),
		Treaties:      make(map[simid.Id]*Treaty),
		Offers:        make(map[simid.Id]*DiplomaticOffer),
		ShipOrders:    make(map[simid.Id]*order.ShipOrders),
		Ids:           simid.NewAllocator(),
		Log:           events.NewLog(),
		Rng:           NewPrng(seed),
		RngSeed:       seed,
		SaveVersion:   1,
	}
}

// AllocateId :
// Mints a new id from the state's allocator.
func (s *State) AllocateId() simid.Id {
	return s.Ids.Next()
}

// --- Deterministic sorted-key iteration (spec.md §5/§9) ---

func SortedIds(m map[simid.Id]*Ship) []simid.Id {
	out := make([]simid.Id, 0, len(m))
	for id := range m {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// SortedColonyIds, SortedSystemIds, SortedBodyIds, SortedFactionIds,
// SortedJumpPointIds, SortedWreckIds : the same sorted-key snapshot
// pattern, one accessor per map so callers never range a map directly.
func (s *State) SortedColonyIds() []simid.Id    { return sortedKeys(s.Colonies) }
func (s *State) SortedSystemIds() []simid.Id    { return sortedKeys(s.Systems) }
func (s *State) SortedBodyIds() []simid.Id      { return sortedKeys(s.Bodies) }
func (s *State) SortedShipIds() []simid.Id      { return sortedKeys(s.Ships) }
func (s *State) SortedFactionIds() []simid.Id   { return sortedKeys(s.Factions) }
func (s *State) SortedJumpPointIds() []simid.Id { return sortedKeys(s.JumpPoints) }
func (s *State) SortedWreckIds() []simid.Id     { return sortedKeys(s.Wrecks) }
func (s *State) SortedTreatyIds() []simid.Id    { return sortedKeys(s.Treaties) }
func (s *State) SortedOfferIds() []simid.Id     { return sortedKeys(s.Offers) }

func sortedKeys[V any](m map[simid.Id]V) []simid.Id {
	out := make([]simid.Id, 0, len(m))
	for id := range m {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// SortedStringKeys :
// The string-keyed equivalent of sortedKeys, used for mineral/installation
// maps on bodies and colonies.
func SortedStringKeys(m map[string]float64) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// SortedStringKeysInt :
// Same as SortedStringKeys but for int-valued maps (installation counts).
func SortedStringKeysInt(m map[string]int) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// FloorTiny :
// Floors a quantity below Epsilon to exactly zero (spec.md §3 invariant).
func FloorTiny(v float64) float64 {
	if v < 0 {
		if v > -Epsilon {
			return 0
		}
		return v
	}
	if v < Epsilon {
		return 0
	}
	return v
}

// RemoveShip :
// Deletes a ship and its order queue, and removes it from its system's
// ship list (spec.md §3 lifecycle).
func (s *State) RemoveShip(id simid.Id) {
	ship, ok := s.Ships[id]
	if !ok {
		return
	}
	if sys, ok := s.Systems[ship.SystemId]; ok {
		sys.ShipIds = removeId(sys.ShipIds, id)
	}
	delete(s.Ships, id)
	delete(s.ShipOrders, id)
}

// AddShipToSystem :
// Inserts a ship into a system's ship list, keeping the `Ship.SystemId`
// back-reference (the id list) consistent (spec.md §3 invariant: "a
// system's ships/bodies/jump_points lists contain exactly the ids whose
// entities point back at the system").
func (s *State) AddShipToSystem(ship *Ship, systemId simid.Id) {
	if old, ok := s.Systems[ship.SystemId]; ok && ship.SystemId != simid.InvalidId {
		old.ShipIds = removeId(old.ShipIds, ship.Id)
	}
	ship.SystemId = systemId
	if sys, ok := s.Systems[systemId]; ok {
		sys.ShipIds = appendUnique(sys.ShipIds, ship.Id)
	}
}

func removeId(ids []simid.Id, target simid.Id) []simid.Id {
	out := ids[:0]
	for _, id := range ids {
		if id != target {
			out = append(out, id)
		}
	}
	return out
}

func appendUnique(ids []simid.Id, target simid.Id) []simid.Id {
	for _, id := range ids {
		if id == target {
			return ids
		}
	}
	return append(ids, target)
}

// RemoveColony :
// Deletes a colony (spec.md §3 lifecycle: zero-population abandonment).
func (s *State) RemoveColony(id simid.Id) {
	delete(s.Colonies, id)
}
