// Package diplomacy implements inter-faction relationship state: standing
// treaties with expiry, pending offers with accept/decline/expiry, and the
// status/mutual-friendliness queries combat and sensors read (spec.md
// §4.9).
package diplomacy

import (
	"fmt"
	"sort"

	"nebulacore/internal/events"
	"nebulacore/internal/simid"
	"nebulacore/internal/worldstate"
)

func pairKey(a, b simid.Id) (simid.Id, simid.Id) {
	if a <= b {
		return a, b
	}
	return b, a
}

// StatusOf :
// Derives the DiplomacyStatus for a faction pair from the state's active
// treaties (spec.md §4.9): an Alliance or NonAggressionPact/Ceasefire
// implies Friendly/Neutral respectively; absence of any treaty defaults to
// Hostile only if the pair was explicitly marked so, else Neutral.
func StatusOf(state *worldstate.State, a, b simid.Id, explicitHostile map[[2]simid.Id]bool) worldstate.DiplomacyStatus {
	if a == b {
		return worldstate.Friendly
	}
	lo, hi := pairKey(a, b)

	best := worldstate.Neutral
	hasTreaty := false
	for _, id := range state.SortedTreatyIds() {
		t := state.Treaties[id]
		tlo, thi := pairKey(t.FactionA, t.FactionB)
		if tlo != lo || thi != hi {
			continue
		}
		switch t.Type {
		case worldstate.Alliance:
			return worldstate.Friendly
		case worldstate.NonAggressionPact, worldstate.Ceasefire:
			best = worldstate.Neutral
			hasTreaty = true
		}
	}
	if !hasTreaty && explicitHostile != nil && explicitHostile[[2]simid.Id{lo, hi}] {
		return worldstate.Hostile
	}
	return best
}

// MutuallyFriendly :
// True iff both factions currently hold Friendly status with each other
// (spec.md §4.3 shared sensor coverage, §4.5 non-engagement).
func MutuallyFriendly(state *worldstate.State, a, b simid.Id, explicitHostile map[[2]simid.Id]bool) bool {
	return StatusOf(state, a, b, explicitHostile) == worldstate.Friendly
}

// Hostile :
// True iff the pair's status is Hostile (spec.md §4.5: combat only
// resolves between hostile factions).
func Hostile(state *worldstate.State, a, b simid.Id, explicitHostile map[[2]simid.Id]bool) bool {
	return StatusOf(state, a, b, explicitHostile) == worldstate.Hostile
}

// TickExpirations :
// Removes treaties past their duration and offers past their expiry day
// (spec.md §4.9). `DurationDays == -1` treaties never expire.
func TickExpirations(state *worldstate.State) {
	for _, id := range state.SortedTreatyIds() {
		t := state.Treaties[id]
		if t.DurationDays < 0 {
			continue
		}
		if state.Day >= t.StartDay+t.DurationDays {
			delete(state.Treaties, id)
			state.Log.Append(events.SimEvent{
				Day: state.Day, Hour: state.HourOfDay, Level: events.Info, Category: events.Diplomacy,
				Message: fmt.Sprintf("treaty %d (%s) expired", id, t.Type),
			})
		}
	}
	for _, id := range state.SortedOfferIds() {
		o := state.Offers[id]
		if state.Day >= o.ExpireDay {
			delete(state.Offers, id)
			state.Log.Append(events.SimEvent{
				Day: state.Day, Hour: state.HourOfDay, Level: events.Info, Category: events.Diplomacy,
				Message: fmt.Sprintf("offer %d (%s) expired unanswered", id, o.Type),
			})
		}
	}
}

// ProposeOffer :
// Creates a pending offer from one faction to another (spec.md §4.9
// mutation API).
func ProposeOffer(state *worldstate.State, from, to simid.Id, t worldstate.TreatyType, expireDay int64) simid.Id {
	id := state.AllocateId()
	state.Offers[id] = &worldstate.DiplomaticOffer{Id: id, FromFaction: from, ToFaction: to, Type: t, ExpireDay: expireDay}
	return id
}

// AcceptOffer :
// Converts a pending offer into an active treaty (spec.md §4.9 mutation
// API). Returns InvalidId if the offer does not exist.
func AcceptOffer(state *worldstate.State, offerId simid.Id, durationDays int64) simid.Id {
	offer, ok := state.Offers[offerId]
	if !ok {
		return simid.InvalidId
	}
	delete(state.Offers, offerId)

	treatyId := state.AllocateId()
	state.Treaties[treatyId] = &worldstate.Treaty{
		Id: treatyId, FactionA: offer.FromFaction, FactionB: offer.ToFaction,
		Type: offer.Type, StartDay: state.Day, DurationDays: durationDays,
	}
	state.Log.Append(events.SimEvent{
		Day: state.Day, Hour: state.HourOfDay, Level: events.Info, Category: events.Diplomacy,
		Message: fmt.Sprintf("treaty %d (%s) formed between %d and %d", treatyId, offer.Type, offer.FromFaction, offer.ToFaction),
	})
	return treatyId
}

// DeclineOffer :
// Drops a pending offer without creating a treaty (spec.md §4.9 mutation
// API).
func DeclineOffer(state *worldstate.State, offerId simid.Id) {
	delete(state.Offers, offerId)
}

// OffersFor :
// Pending offers addressed to `factionId`, sorted by id for deterministic
// iteration (spec.md §5).
func OffersFor(state *worldstate.State, factionId simid.Id) []*worldstate.DiplomaticOffer {
	var out []*worldstate.DiplomaticOffer
	for _, id := range state.SortedOfferIds() {
		o := state.Offers[id]
		if o.ToFaction == factionId {
			out = append(out, o)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Id < out[j].Id })
	return out
}
