// Package sim is the top-level package that wires every subsystem into the
// tick scheduler and exposes the mutation/query API a host calls (spec.md
// §5: advance_hours/advance_days as the only entry points that mutate a
// running game). It is the only package that imports the entire module —
// every other package stays leaf-shaped specifically so this one can sit on
// top without cycles.
package sim

import (
	"github.com/google/uuid"

	"nebulacore/internal/content"
	"nebulacore/internal/simconfig"
	"nebulacore/internal/simid"
	"nebulacore/internal/worldstate"
)

// GameState :
// A complete running game: the mutable world state, the read-only content
// database it was built against, and the tunables governing this run
// (spec.md §3). `SaveID` identifies this save lineage across autosaves —
// generated once at creation, carried unchanged across every subsequent
// save (spec.md §2 ambient stack: google/uuid).
type GameState struct {
	World  *worldstate.State
	DB     *content.DB
	Config simconfig.SimConfig
	SaveID uuid.UUID

	// ExplicitHostile marks faction pairs at war absent any treaty saying
	// otherwise (spec.md §4.9: Hostile is the only status that must be
	// asserted explicitly — Neutral is the default for an untouched pair).
	ExplicitHostile map[[2]simid.Id]bool
}

// New :
// Starts a new game at day 0 with a fresh random seed lineage.
func New(db *content.DB, cfg simconfig.SimConfig, seed int64) *GameState {
	return &GameState{
		World:           worldstate.New(seed),
		DB:              db,
		Config:          cfg,
		SaveID:          uuid.New(),
		ExplicitHostile: make(map[[2]simid.Id]bool),
	}
}

// SetHostile :
// Marks (or unmarks) a faction pair as explicitly at war (spec.md §4.9
// mutation API).
func (g *GameState) SetHostile(a, b simid.Id, hostile bool) {
	lo, hi := a, b
	if lo > hi {
		lo, hi = hi, lo
	}
	if hostile {
		g.ExplicitHostile[[2]simid.Id{lo, hi}] = true
	} else {
		delete(g.ExplicitHostile, [2]simid.Id{lo, hi})
	}
}

func (g *GameState) hostilePair(a, b simid.Id) bool {
	lo, hi := a, b
	if lo > hi {
		lo, hi = hi, lo
	}
	return g.ExplicitHostile[[2]simid.Id{lo, hi}]
}
