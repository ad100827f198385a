// Package simid provides the identity primitives shared across the
// simulation core: the monotonic entity id counter and the day-granular
// clock used by the tick scheduler and every planner.
package simid

import "encoding/json"

// Id :
// The identifier type shared by every entity stored in the world state
// (systems, bodies, ships, colonies, factions, jump points, wrecks, ...).
// Ids are allocated once from the game's own counter and are never reused
// within a game, even after the entity they named is deleted.
type Id int64

// InvalidId :
// Reserved value indicating the absence of an entity. No entity is ever
// allocated this id.
const InvalidId Id = 0

// Allocator :
// Hands out monotonically increasing ids. It is the only component allowed
// to mint a fresh `Id`; everything else receives ids already attached to an
// entity. The counter is part of the persisted `GameState` so that loading
// a save resumes allocation exactly where it left off.
type Allocator struct {
	next Id
}

// NewAllocator :
// Builds an allocator that will hand out `InvalidId+1` as its first id.
func NewAllocator() *Allocator {
	return &Allocator{next: InvalidId + 1}
}

// RestoreAllocator :
// Rebuilds an allocator from a persisted `next_id` counter, for example when
// loading a `GameState`. `next` must be strictly greater than any id still
// referenced by the restored state.
func RestoreAllocator(next Id) *Allocator {
	if next <= InvalidId {
		next = InvalidId + 1
	}
	return &Allocator{next: next}
}

// Next :
// Allocates and returns a fresh id, advancing the internal counter.
func (a *Allocator) Next() Id {
	id := a.next
	a.next++
	return id
}

// Peek :
// Returns the id that would be returned by the next call to `Next` without
// allocating it. Used when persisting `next_id` in a `GameState`.
func (a *Allocator) Peek() Id {
	return a.next
}

// MarshalJSON :
// Persists the allocator as its bare `next_id` counter.
func (a *Allocator) MarshalJSON() ([]byte, error) {
	return json.Marshal(a.next)
}

// UnmarshalJSON :
func (a *Allocator) UnmarshalJSON(b []byte) error {
	var next Id
	if err := json.Unmarshal(b, &next); err != nil {
		return err
	}
	a.next = next
	return nil
}
