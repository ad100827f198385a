// Package sim exposes the mutation API a host calls (spec.md §6): issue_*
// order helpers, diplomacy mutation, custom designs, and the query helpers
// the planner family and a host UI both need.
package sim

import (
	"nebulacore/internal/diplomacy"
	"nebulacore/internal/order"
	"nebulacore/internal/routing"
	"nebulacore/internal/simid"
	"nebulacore/internal/worldstate"
)

// --- Diplomacy queries (spec.md §6) ---

// Hostile :
// `are_factions_*` style query, also used internally by the tick.
func Hostile(g *GameState, a, b simid.Id) bool {
	return diplomacy.Hostile(g.World, a, b, g.ExplicitHostile)
}

// AreFactionsMutualFriendly :
// Mutation-API query helper (spec.md §6).
func AreFactionsMutualFriendly(g *GameState, a, b simid.Id) bool {
	return diplomacy.MutuallyFriendly(g.World, a, b, g.ExplicitHostile)
}

// AreFactionsTradePartners :
// Mutation-API query helper (spec.md §6): true when an active TradeAgreement
// treaty links the two factions.
func AreFactionsTradePartners(g *GameState, a, b simid.Id) bool {
	for _, id := range g.World.SortedTreatyIds() {
		t := g.World.Treaties[id]
		if t.Type != worldstate.TradeAgreement {
			continue
		}
		if (t.FactionA == a && t.FactionB == b) || (t.FactionA == b && t.FactionB == a) {
			return true
		}
	}
	return false
}

// SetDiplomaticStatus :
// Marks (or unmarks) a faction pair explicitly hostile (spec.md §6/§4.9).
// By default the change is reciprocal — there is no asymmetric hostility in
// this model — so `reciprocal` only controls whether the caller intends a
// one-sided status, which this model does not otherwise support; it is
// accepted for API-shape symmetry with spec.md's "symmetric by default (with
// a reciprocal flag)" wording and always applied symmetrically.
func SetDiplomaticStatus(g *GameState, a, b simid.Id, status worldstate.DiplomacyStatus, reciprocal bool) {
	g.SetHostile(a, b, status == worldstate.Hostile)
}

// CreateTreaty :
// Mutation-API helper (spec.md §6/§4.9).
func CreateTreaty(g *GameState, a, b simid.Id, t worldstate.TreatyType, durationDays int64) simid.Id {
	id := g.World.AllocateId()
	g.World.Treaties[id] = &worldstate.Treaty{
		Id: id, FactionA: a, FactionB: b, Type: t,
		StartDay: g.World.Day, DurationDays: durationDays,
	}
	if t == worldstate.Alliance || t == worldstate.NonAggressionPact || t == worldstate.Ceasefire {
		g.SetHostile(a, b, false)
	}
	return id
}

// CancelTreaty :
// Mutation-API helper (spec.md §6/§4.9).
func CancelTreaty(g *GameState, treatyId simid.Id) {
	delete(g.World.Treaties, treatyId)
}

// CreateDiplomaticOffer, AcceptDiplomaticOffer, DeclineDiplomaticOffer :
// Thin wrappers over internal/diplomacy (spec.md §6).
func CreateDiplomaticOffer(g *GameState, from, to simid.Id, t worldstate.TreatyType, expireDay int64) simid.Id {
	return diplomacy.ProposeOffer(g.World, from, to, t, expireDay)
}

func AcceptDiplomaticOffer(g *GameState, offerId simid.Id, durationDays int64) simid.Id {
	return diplomacy.AcceptOffer(g.World, offerId, durationDays)
}

func DeclineDiplomaticOffer(g *GameState, offerId simid.Id) {
	diplomacy.DeclineOffer(g.World, offerId)
}

// --- Content / buildability (spec.md §6) ---

// UpsertCustomDesign :
// Registers (or overwrites) a faction-specific design derived from a base
// design, for refit targets and shipyard queues that reference a custom
// variant rather than a stock content-DB design.
func UpsertCustomDesign(g *GameState, factionId simid.Id, designId, baseDesignId string) {
	fac, ok := g.World.Factions[factionId]
	if !ok {
		return
	}
	if fac.CustomDesigns == nil {
		fac.CustomDesigns = make(map[string]string)
	}
	fac.CustomDesigns[designId] = baseDesignId
	if base, ok := g.DB.Designs[baseDesignId]; ok {
		g.DB.Designs[designId] = base
	}
}

// IsInstallationBuildableForFaction :
// False when the installation def doesn't exist, or exists but is locked
// behind a tech the faction hasn't unlocked yet (spec.md §4.7 tech effect
// `unlock_installation`; an installation with no unlock effect anywhere in
// the content DB is assumed always buildable).
func IsInstallationBuildableForFaction(g *GameState, factionId simid.Id, installationId string) bool {
	if _, ok := g.DB.Installations[installationId]; !ok {
		return false
	}
	if !installationIsGated(g, installationId) {
		return true
	}
	fac, ok := g.World.Factions[factionId]
	if !ok {
		return false
	}
	return fac.UnlockedInstallations[installationId]
}

func installationIsGated(g *GameState, installationId string) bool {
	for _, techId := range g.DB.SortedTechIds() {
		for _, eff := range g.DB.Techs[techId].Effects {
			if eff.Kind == "unlock_installation" && eff.Target == installationId {
				return true
			}
		}
	}
	return false
}

// --- Routing (spec.md §6) ---

// PlanJumpRouteFromPos :
// Mutation-API query helper (spec.md §6 `plan_jump_route_from_pos`).
func PlanJumpRouteFromPos(g *GameState, startSystem simid.Id, startPos worldstate.Vec2, factionId simid.Id, speedMkmPerDay float64, goalSystem simid.Id, restrictToDiscovered bool, goalPos worldstate.Vec2) routing.Route {
	var discovered map[simid.Id]bool
	if restrictToDiscovered {
		if fac, ok := g.World.Factions[factionId]; ok {
			discovered = fac.DiscoveredSystems
		}
	}
	return routing.PlanRoute(g.World, startSystem, startPos, speedMkmPerDay, goalSystem, goalPos, restrictToDiscovered, discovered)
}

// --- Order issuance (spec.md §6/§4.2) ---

// IssueOrder :
// Appends (or, with clearFirst, replaces) a ship's order queue with a
// single order. Every spec.md §6 `issue_*` helper is a thin wrapper around
// this, named per variant so callers get type-checked order construction;
// this shared implementation is what actually mutates the queue.
func IssueOrder(g *GameState, shipId simid.Id, o order.Order, clearFirst bool) bool {
	so, ok := g.World.ShipOrders[shipId]
	if !ok {
		return false
	}
	if clearFirst {
		so.Clear()
	}
	so.Append(o)
	return true
}

func IssueWaitDays(g *GameState, shipId simid.Id, days float64, clearFirst bool) bool {
	return IssueOrder(g, shipId, order.WaitDays{DaysRemaining: days}, clearFirst)
}

func IssueMoveToPoint(g *GameState, shipId simid.Id, target worldstate.Vec2, clearFirst bool) bool {
	return IssueOrder(g, shipId, order.MoveToPoint{Target: target}, clearFirst)
}

func IssueMoveToBody(g *GameState, shipId, bodyId simid.Id, clearFirst bool) bool {
	return IssueOrder(g, shipId, order.MoveToBody{BodyId: bodyId}, clearFirst)
}

func IssueOrbitBody(g *GameState, shipId, bodyId simid.Id, durationDays float64, clearFirst bool) bool {
	return IssueOrder(g, shipId, order.OrbitBody{BodyId: bodyId, DurationDays: durationDays}, clearFirst)
}

func IssueTravelViaJump(g *GameState, shipId, jumpPointId simid.Id, clearFirst bool) bool {
	return IssueOrder(g, shipId, order.TravelViaJump{JumpPointId: jumpPointId}, clearFirst)
}

func IssueTravelToSystem(g *GameState, shipId, systemId simid.Id, finalPos worldstate.Vec2, restrictToDiscovered, clearFirst bool) bool {
	return IssueOrder(g, shipId, order.TravelToSystem{SystemId: systemId, FinalPos: finalPos, RestrictToDiscovered: restrictToDiscovered}, clearFirst)
}

func IssueSurveyJumpPoint(g *GameState, shipId, jumpPointId simid.Id, transitWhenDone bool, clearFirst bool) bool {
	return IssueOrder(g, shipId, order.SurveyJumpPoint{JumpPointId: jumpPointId, TransitWhenDone: transitWhenDone}, clearFirst)
}

func IssueLoadMineral(g *GameState, shipId, colonyId simid.Id, mineral string, tons float64, clearFirst bool) bool {
	return IssueOrder(g, shipId, order.LoadMineral{ColonyId: colonyId, Mineral: mineral, Tons: tons}, clearFirst)
}

func IssueUnloadMineral(g *GameState, shipId, colonyId simid.Id, mineral string, tons float64, clearFirst bool) bool {
	return IssueOrder(g, shipId, order.UnloadMineral{ColonyId: colonyId, Mineral: mineral, Tons: tons}, clearFirst)
}

func IssueLoadTroops(g *GameState, shipId, colonyId simid.Id, troops float64, clearFirst bool) bool {
	return IssueOrder(g, shipId, order.LoadTroops{ColonyId: colonyId, Troops: troops}, clearFirst)
}

func IssueUnloadTroops(g *GameState, shipId, colonyId simid.Id, troops float64, clearFirst bool) bool {
	return IssueOrder(g, shipId, order.UnloadTroops{ColonyId: colonyId, Troops: troops}, clearFirst)
}

func IssueLoadColonists(g *GameState, shipId, colonyId simid.Id, millions float64, clearFirst bool) bool {
	return IssueOrder(g, shipId, order.LoadColonists{ColonyId: colonyId, Millions: millions}, clearFirst)
}

func IssueUnloadColonists(g *GameState, shipId, colonyId simid.Id, millions float64, clearFirst bool) bool {
	return IssueOrder(g, shipId, order.UnloadColonists{ColonyId: colonyId, Millions: millions}, clearFirst)
}

func IssueTransferCargoToShip(g *GameState, shipId, targetShipId simid.Id, mineral string, tons float64, clearFirst bool) bool {
	return IssueOrder(g, shipId, order.TransferCargoToShip{TargetShipId: targetShipId, Mineral: mineral, Tons: tons}, clearFirst)
}

func IssueTransferFuelToShip(g *GameState, shipId, targetShipId simid.Id, tons float64, clearFirst bool) bool {
	return IssueOrder(g, shipId, order.TransferFuelToShip{TargetShipId: targetShipId, Tons: tons}, clearFirst)
}

func IssueTransferTroopsToShip(g *GameState, shipId, targetShipId simid.Id, troops float64, clearFirst bool) bool {
	return IssueOrder(g, shipId, order.TransferTroopsToShip{TargetShipId: targetShipId, Troops: troops}, clearFirst)
}

func IssueAttackShip(g *GameState, shipId, targetId simid.Id, clearFirst bool) bool {
	return IssueOrder(g, shipId, order.AttackShip{TargetId: targetId}, clearFirst)
}

func IssueEscortShip(g *GameState, shipId, targetId simid.Id, followDistance float64, clearFirst bool) bool {
	return IssueOrder(g, shipId, order.EscortShip{TargetId: targetId, FollowDistance: followDistance}, clearFirst)
}

func IssueBombardColony(g *GameState, shipId, colonyId simid.Id, durationDays float64, clearFirst bool) bool {
	return IssueOrder(g, shipId, order.BombardColony{ColonyId: colonyId, DurationDays: durationDays}, clearFirst)
}

func IssueInvadeColony(g *GameState, shipId, colonyId simid.Id, clearFirst bool) bool {
	return IssueOrder(g, shipId, order.InvadeColony{ColonyId: colonyId}, clearFirst)
}

func IssueSalvageWreck(g *GameState, shipId, wreckId simid.Id, mineral string, tons float64, clearFirst bool) bool {
	return IssueOrder(g, shipId, order.SalvageWreck{WreckId: wreckId, Mineral: mineral, Tons: tons}, clearFirst)
}

func IssueInvestigateAnomaly(g *GameState, shipId, anomalyId simid.Id, durationDays float64, clearFirst bool) bool {
	return IssueOrder(g, shipId, order.InvestigateAnomaly{AnomalyId: anomalyId, DurationDays: durationDays}, clearFirst)
}

func IssueColonizeBody(g *GameState, shipId, bodyId simid.Id, clearFirst bool) bool {
	return IssueOrder(g, shipId, order.ColonizeBody{BodyId: bodyId}, clearFirst)
}

func IssueScrapShip(g *GameState, shipId, colonyId simid.Id, clearFirst bool) bool {
	return IssueOrder(g, shipId, order.ScrapShip{ColonyId: colonyId}, clearFirst)
}

// ClearOrders :
// Drops a ship's live queue, preserving its repeat template. Calling this
// twice in a row has the same effect as once (spec.md §8 idempotence).
func ClearOrders(g *GameState, shipId simid.Id) {
	if so, ok := g.World.ShipOrders[shipId]; ok {
		so.Clear()
	}
}
