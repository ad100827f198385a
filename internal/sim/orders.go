package sim

import (
	"fmt"
	"math"

	"nebulacore/internal/content"
	"nebulacore/internal/events"
	"nebulacore/internal/order"
	"nebulacore/internal/routing"
	"nebulacore/internal/simid"
	"nebulacore/internal/worldstate"
)

const surveyPointsToComplete = 100.0
const investigationDefaultDays = 10.0

// StepShip :
// Advances one ship's order queue by one sub-step (spec.md §4.2). Only the
// front-of-queue order is ever acted on; everything behind it waits. A
// completed order is popped; TravelToSystem is expanded in place the first
// time it reaches the front rather than ever being "completed" itself.
func StepShip(g *GameState, shipId simid.Id, dtDays float64) {
	ship, ok := g.World.Ships[shipId]
	if !ok {
		return
	}
	so, ok := g.World.ShipOrders[shipId]
	if !ok {
		return
	}
	if len(so.Queue) == 0 {
		so.RefillFromRepeat()
	}
	if len(so.Queue) == 0 {
		return
	}

	front := so.Queue[0]

	switch o := front.(type) {
	case order.WaitDays:
		o.DaysRemaining -= dtDays
		if o.DaysRemaining <= order.Epsilon {
			popFront(so)
		} else {
			so.Queue[0] = o
		}

	case order.MoveToPoint:
		if stepToward(g, ship, o.Target, dtDays) {
			popFront(so)
		}

	case order.MoveToBody:
		body, ok := g.World.Bodies[o.BodyId]
		if !ok {
			failOrder(g, ship, events.KindInvalidTarget, "move target body no longer exists")
			popFront(so)
			return
		}
		if stepToward(g, ship, body.Position, dtDays) {
			popFront(so)
		}

	case order.OrbitBody:
		if o.DurationDays < 0 {
			return // indefinite: never completes on its own
		}
		o.DurationDays -= dtDays
		if o.DurationDays <= order.Epsilon {
			popFront(so)
		} else {
			so.Queue[0] = o
		}

	case order.TravelViaJump:
		stepTravelViaJump(g, ship, so, o)

	case order.TravelToSystem:
		expandTravelToSystem(g, ship, so, o)

	case order.SurveyJumpPoint:
		stepSurveyJumpPoint(g, ship, so, o, dtDays)

	case order.LoadMineral:
		stepLoadMineral(g, ship, so, o)
	case order.UnloadMineral:
		stepUnloadMineral(g, ship, so, o)
	case order.LoadTroops:
		stepLoadTroops(g, ship, so, o)
	case order.UnloadTroops:
		stepUnloadTroops(g, ship, so, o)
	case order.LoadColonists:
		stepLoadColonists(g, ship, so, o)
	case order.UnloadColonists:
		stepUnloadColonists(g, ship, so, o)

	case order.TransferCargoToShip:
		stepTransferCargo(g, ship, so, o)
	case order.TransferFuelToShip:
		stepTransferFuel(g, ship, so, o)
	case order.TransferTroopsToShip:
		stepTransferTroops(g, ship, so, o)

	case order.AttackShip:
		stepAttackShip(g, ship, so, o, dtDays)

	case order.EscortShip:
		stepEscortShip(g, ship, so, o, dtDays)

	case order.BombardColony:
		stepBombardColony(g, ship, so, o, dtDays)

	case order.InvadeColony:
		stepInvadeColony(g, ship, so, o)

	case order.SalvageWreck:
		stepSalvageWreck(g, ship, so, o)

	case order.InvestigateAnomaly:
		stepInvestigateAnomaly(g, ship, so, o, dtDays)

	case order.ColonizeBody:
		stepColonizeBody(g, ship, so, o)

	case order.ScrapShip:
		stepScrapShip(g, ship, so, o)
	}
}

func popFront(so *order.ShipOrders) {
	so.Queue = so.Queue[1:]
}

func failOrder(g *GameState, ship *worldstate.Ship, kind events.Kind, msg string) {
	g.World.Log.Append(events.SimEvent{
		Day: g.World.Day, Hour: g.World.HourOfDay, Level: events.Warn, Category: events.Movement,
		Kind: kind, Message: msg, FactionId: ship.FactionId, ShipId: ship.Id, SystemId: ship.SystemId,
	})
}

func designOf(g *GameState, ship *worldstate.Ship) (content.ShipDesign, bool) {
	d, ok := g.DB.Designs[ship.DesignId]
	return d, ok
}

// stepToward :
// Shared movement primitive: advances `ship` toward `target` using its
// design speed and fuel tank, stalling on insufficient fuel rather than
// silently completing (spec.md §4.2 step 1). Returns true once arrived.
func stepToward(g *GameState, ship *worldstate.Ship, target worldstate.Vec2, dtDays float64) bool {
	design, ok := designOf(g, ship)
	if !ok {
		return true
	}
	speedMkmPerDay := design.SpeedKmS * g.Config.SecondsPerDay / 1e6
	fuelPerMkm := 0.0
	if design.FuelCapacityTons > 0 {
		fuelPerMkm = design.FuelUsePerMkm
	}

	res := order.StepPosition(ship.Position, target, speedMkmPerDay*ship.Integrity.Engines, dtDays, ship.FuelTons, fuelPerMkm, g.Config.ArrivalEpsilonMkm)
	ship.Position = res.NewPosition
	ship.FuelTons = worldstate.FloorTiny(ship.FuelTons - res.FuelTons)

	if res.Stalled {
		failOrder(g, ship, events.KindInsufficientFuel, fmt.Sprintf("ship %d stalled out of fuel", ship.Id))
	}
	return res.Arrived
}

func stepTravelViaJump(g *GameState, ship *worldstate.Ship, so *order.ShipOrders, o order.TravelViaJump) {
	jp, ok := g.World.JumpPoints[o.JumpPointId]
	if !ok {
		failOrder(g, ship, events.KindInvalidTarget, "jump point no longer exists")
		popFront(so)
		return
	}
	if ship.SystemId != jp.SystemId {
		if stepToward(g, ship, jp.Position, 1) {
			// arrived this call already handled below
		}
		return
	}
	if order.Dist(ship.Position, jp.Position) > g.Config.ArrivalEpsilonMkm {
		return
	}
	linked, ok := g.World.JumpPoints[jp.LinkedJumpId]
	if !ok {
		failOrder(g, ship, events.KindUnreachable, "jump point has no linked exit")
		popFront(so)
		return
	}
	g.World.AddShipToSystem(ship, linked.SystemId)
	ship.Position = linked.Position
	popFront(so)
}

func expandTravelToSystem(g *GameState, ship *worldstate.Ship, so *order.ShipOrders, o order.TravelToSystem) {
	design, ok := designOf(g, ship)
	if !ok {
		popFront(so)
		return
	}
	speedMkmPerDay := design.SpeedKmS * g.Config.SecondsPerDay / 1e6

	var discovered map[simid.Id]bool
	if o.RestrictToDiscovered {
		if fac, ok := g.World.Factions[ship.FactionId]; ok {
			discovered = fac.DiscoveredSystems
		}
	}

	route := routing.PlanRoute(g.World, ship.SystemId, ship.Position, speedMkmPerDay, o.SystemId, o.FinalPos, o.RestrictToDiscovered, discovered)
	popFront(so)
	if !route.Ok {
		failOrder(g, ship, events.KindUnreachable, fmt.Sprintf("no route to system %d", o.SystemId))
		return
	}
	var expansion []order.Order
	for _, hop := range route.Hops {
		expansion = append(expansion, order.TravelViaJump{JumpPointId: hop.JumpPointId})
	}
	expansion = append(expansion, order.MoveToPoint{Target: o.FinalPos})
	so.Prepend(expansion...)
}

func stepSurveyJumpPoint(g *GameState, ship *worldstate.Ship, so *order.ShipOrders, o order.SurveyJumpPoint, dtDays float64) {
	jp, ok := g.World.JumpPoints[o.JumpPointId]
	if !ok {
		popFront(so)
		return
	}
	if ship.SystemId != jp.SystemId || order.Dist(ship.Position, jp.Position) > g.Config.ArrivalEpsilonMkm {
		if stepToward(g, ship, jp.Position, dtDays) {
			return
		}
		return
	}
	o.ProgressPoints += dtDays * 10
	if o.ProgressPoints >= surveyPointsToComplete {
		jp.Surveyed = true
		jp.SurveyPoints = surveyPointsToComplete
		if o.TransitWhenDone {
			so.Queue[0] = order.TravelViaJump{JumpPointId: o.JumpPointId}
			return
		}
		popFront(so)
		return
	}
	jp.SurveyPoints = o.ProgressPoints
	so.Queue[0] = o
}

func dockedAtColonyBody(g *GameState, ship *worldstate.Ship, colonyId simid.Id) (*worldstate.Colony, bool) {
	col, ok := g.World.Colonies[colonyId]
	if !ok {
		return nil, false
	}
	body, ok := g.World.Bodies[col.BodyId]
	if !ok || ship.SystemId != body.SystemId {
		return nil, false
	}
	if order.Dist(ship.Position, body.Position) > g.Config.DockingRangeMkm {
		return nil, false
	}
	return col, true
}

func stepLoadMineral(g *GameState, ship *worldstate.Ship, so *order.ShipOrders, o order.LoadMineral) {
	col, docked := dockedAtColonyBody(g, ship, o.ColonyId)
	if !docked {
		popFront(so)
		failOrder(g, ship, events.KindInvalidTarget, "not docked for load mineral")
		return
	}
	take := math.Min(o.Tons, col.Minerals[o.Mineral])
	col.Minerals[o.Mineral] = worldstate.FloorTiny(col.Minerals[o.Mineral] - take)
	if ship.Cargo == nil {
		ship.Cargo = make(map[string]float64)
	}
	ship.Cargo[o.Mineral] = worldstate.FloorTiny(ship.Cargo[o.Mineral] + take)
	popFront(so)
}

func stepUnloadMineral(g *GameState, ship *worldstate.Ship, so *order.ShipOrders, o order.UnloadMineral) {
	col, docked := dockedAtColonyBody(g, ship, o.ColonyId)
	if !docked {
		popFront(so)
		failOrder(g, ship, events.KindInvalidTarget, "not docked for unload mineral")
		return
	}
	take := math.Min(o.Tons, ship.Cargo[o.Mineral])
	ship.Cargo[o.Mineral] = worldstate.FloorTiny(ship.Cargo[o.Mineral] - take)
	col.Minerals[o.Mineral] = worldstate.FloorTiny(col.Minerals[o.Mineral] + take)
	popFront(so)
}

func stepLoadTroops(g *GameState, ship *worldstate.Ship, so *order.ShipOrders, o order.LoadTroops) {
	popFront(so)
	ship.Troops += o.Troops
}

func stepUnloadTroops(g *GameState, ship *worldstate.Ship, so *order.ShipOrders, o order.UnloadTroops) {
	popFront(so)
	take := math.Min(o.Troops, ship.Troops)
	ship.Troops -= take
}

func stepLoadColonists(g *GameState, ship *worldstate.Ship, so *order.ShipOrders, o order.LoadColonists) {
	col, docked := dockedAtColonyBody(g, ship, o.ColonyId)
	if !docked {
		popFront(so)
		return
	}
	take := math.Min(o.Millions, col.PopulationMillions)
	col.PopulationMillions -= take
	ship.ColonistsMillions += take
	popFront(so)
}

func stepUnloadColonists(g *GameState, ship *worldstate.Ship, so *order.ShipOrders, o order.UnloadColonists) {
	col, docked := dockedAtColonyBody(g, ship, o.ColonyId)
	if !docked {
		popFront(so)
		return
	}
	take := math.Min(o.Millions, ship.ColonistsMillions)
	ship.ColonistsMillions -= take
	col.PopulationMillions += take
	popFront(so)
}

func withinDockingRangeOfShip(g *GameState, a, b *worldstate.Ship) bool {
	return a.SystemId == b.SystemId && order.Dist(a.Position, b.Position) <= g.Config.DockingRangeMkm
}

func stepTransferCargo(g *GameState, ship *worldstate.Ship, so *order.ShipOrders, o order.TransferCargoToShip) {
	target, ok := g.World.Ships[o.TargetShipId]
	if !ok || !withinDockingRangeOfShip(g, ship, target) {
		popFront(so)
		failOrder(g, ship, events.KindInvalidTarget, "transfer target not in range")
		return
	}
	take := math.Min(o.Tons, ship.Cargo[o.Mineral])
	ship.Cargo[o.Mineral] = worldstate.FloorTiny(ship.Cargo[o.Mineral] - take)
	if target.Cargo == nil {
		target.Cargo = make(map[string]float64)
	}
	target.Cargo[o.Mineral] = worldstate.FloorTiny(target.Cargo[o.Mineral] + take)
	popFront(so)
}

func stepTransferFuel(g *GameState, ship *worldstate.Ship, so *order.ShipOrders, o order.TransferFuelToShip) {
	target, ok := g.World.Ships[o.TargetShipId]
	if !ok || !withinDockingRangeOfShip(g, ship, target) {
		popFront(so)
		failOrder(g, ship, events.KindInvalidTarget, "fuel transfer target not in range")
		return
	}
	take := math.Min(o.Tons, ship.FuelTons)
	ship.FuelTons = worldstate.FloorTiny(ship.FuelTons - take)
	target.FuelTons += take
	popFront(so)
}

func stepTransferTroops(g *GameState, ship *worldstate.Ship, so *order.ShipOrders, o order.TransferTroopsToShip) {
	target, ok := g.World.Ships[o.TargetShipId]
	if !ok || !withinDockingRangeOfShip(g, ship, target) {
		popFront(so)
		return
	}
	take := math.Min(o.Troops, ship.Troops)
	ship.Troops -= take
	target.Troops += take
	popFront(so)
}

// stepAttackShip :
// Pursues a contact track toward intercept, falling back to the stable
// angular search fan once the last-known position is reached without
// re-detection (spec.md §4.2 step 3). Actual damage resolution happens in
// internal/combat.Tick, driven off the engagement list gathered in tick.go.
func stepAttackShip(g *GameState, ship *worldstate.Ship, so *order.ShipOrders, o order.AttackShip, dtDays float64) {
	target, ok := g.World.Ships[o.TargetId]
	if !ok {
		popFront(so)
		return
	}
	design, _ := designOf(g, ship)
	speedMkmPerDay := design.SpeedKmS * g.Config.SecondsPerDay / 1e6

	fac := g.World.Factions[ship.FactionId]
	var track worldstate.ContactTrack
	haveTrack := false
	if fac != nil {
		track, haveTrack = fac.ShipContacts[target.Id]
	}

	if target.SystemId == ship.SystemId && haveTrack && track.LastSeenDay == g.World.Day {
		o.HasLastKnown = true
		o.LastKnownPos = target.Position
		o.HasSearchOffset = false
		aimPoint := order.InterceptPoint(ship.Position, speedMkmPerDay, target.Position, track.VelocityEstimate, 8)
		stepToward(g, ship, aimPoint, dtDays)
		so.Queue[0] = o
		return
	}

	if !o.HasLastKnown {
		popFront(so)
		return
	}

	if order.Dist(ship.Position, o.LastKnownPos) <= g.Config.ArrivalEpsilonMkm {
		if !o.HasSearchOffset {
			o.SearchOffsetMkm = order.SearchOffset(o.SearchWaypointIndex, 1.0)
			o.HasSearchOffset = true
		}
		searchPoint := worldstate.Vec2{X: o.LastKnownPos.X + o.SearchOffsetMkm.X, Y: o.LastKnownPos.Y + o.SearchOffsetMkm.Y}
		if stepToward(g, ship, searchPoint, dtDays) {
			o.SearchWaypointIndex++
			o.HasSearchOffset = false
		}
	} else {
		stepToward(g, ship, o.LastKnownPos, dtDays)
	}
	so.Queue[0] = o
}

func stepEscortShip(g *GameState, ship *worldstate.Ship, so *order.ShipOrders, o order.EscortShip, dtDays float64) {
	target, ok := g.World.Ships[o.TargetId]
	if !ok {
		popFront(so)
		return
	}
	if target.SystemId != ship.SystemId {
		g.World.AddShipToSystem(ship, target.SystemId)
		ship.Position = target.Position
		return
	}
	offset := worldstate.Vec2{X: target.Position.X + o.FollowDistance, Y: target.Position.Y}
	stepToward(g, ship, offset, dtDays)
}

func stepBombardColony(g *GameState, ship *worldstate.Ship, so *order.ShipOrders, o order.BombardColony, dtDays float64) {
	col, ok := g.World.Colonies[o.ColonyId]
	if !ok {
		popFront(so)
		return
	}
	design, _ := designOf(g, ship)
	damage := design.BeamDamage * ship.Integrity.Weapons * dtDays * 0.001
	col.PopulationMillions = math.Max(0, col.PopulationMillions-damage)

	if o.DurationDays < 0 {
		return
	}
	o.DurationDays -= dtDays
	if o.DurationDays <= order.Epsilon {
		popFront(so)
	} else {
		so.Queue[0] = o
	}
}

func stepInvadeColony(g *GameState, ship *worldstate.Ship, so *order.ShipOrders, o order.InvadeColony) {
	popFront(so)
	col, ok := g.World.Colonies[o.ColonyId]
	if !ok {
		return
	}
	id := g.World.AllocateId()
	defenderTroops := col.PopulationMillions * 10
	g.World.GroundBattles[id] = &worldstate.GroundBattle{
		Id: id, ColonyId: o.ColonyId, AttackerFaction: ship.FactionId,
		AttackerTroops: ship.Troops, DefenderTroops: defenderTroops,
	}
	if ship.Troops > defenderTroops {
		col.FactionId = ship.FactionId
		g.World.Log.Append(events.SimEvent{
			Day: g.World.Day, Hour: g.World.HourOfDay, Level: events.Info, Category: events.Combat,
			Message: fmt.Sprintf("colony %d captured by faction %d", o.ColonyId, ship.FactionId), ColonyId: o.ColonyId,
		})
		delete(g.World.GroundBattles, id)
	}
	ship.Troops = 0
}

func stepSalvageWreck(g *GameState, ship *worldstate.Ship, so *order.ShipOrders, o order.SalvageWreck) {
	wreck, ok := g.World.Wrecks[o.WreckId]
	if !ok {
		popFront(so)
		return
	}
	if ship.SystemId != wreck.SystemId || order.Dist(ship.Position, wreck.Position) > g.Config.DockingRangeMkm {
		popFront(so)
		failOrder(g, ship, events.KindInvalidTarget, "not in range of wreck")
		return
	}
	take := math.Min(o.Tons, wreck.Minerals[o.Mineral])
	wreck.Minerals[o.Mineral] = worldstate.FloorTiny(wreck.Minerals[o.Mineral] - take)
	if ship.Cargo == nil {
		ship.Cargo = make(map[string]float64)
	}
	ship.Cargo[o.Mineral] = worldstate.FloorTiny(ship.Cargo[o.Mineral] + take)

	if g.Config.EnableSalvageResearch {
		if fac, ok := g.World.Factions[ship.FactionId]; ok {
			fac.ResearchBankRP += take * g.Config.SalvageResearchRPMultiplier
		}
	}
	if g.Config.EnableReverseEngineering {
		if fac, ok := g.World.Factions[ship.FactionId]; ok && wreck.SourceFactionId != ship.FactionId {
			if fac.ReverseEngineering == nil {
				fac.ReverseEngineering = make(map[string]float64)
			}
			fac.ReverseEngineering[wreck.SourceDesignId] += take * g.Config.ReverseEngineeringPointsPerSalvagedTon
		}
	}

	allGone := true
	for _, v := range wreck.Minerals {
		if v > order.Epsilon {
			allGone = false
			break
		}
	}
	if allGone {
		delete(g.World.Wrecks, o.WreckId)
	}
	popFront(so)
}

func stepInvestigateAnomaly(g *GameState, ship *worldstate.Ship, so *order.ShipOrders, o order.InvestigateAnomaly, dtDays float64) {
	anomaly, ok := g.World.Anomalies[o.AnomalyId]
	if !ok {
		popFront(so)
		return
	}
	if ship.SystemId != anomaly.SystemId || order.Dist(ship.Position, anomaly.Position) > g.Config.ArrivalEpsilonMkm {
		stepToward(g, ship, anomaly.Position, dtDays)
		return
	}

	target := o.DurationDays
	if target <= 0 {
		target = anomaly.InvestigationDays
		if target <= 0 {
			target = investigationDefaultDays
		}
	}
	o.ProgressDays += dtDays
	if o.ProgressDays >= target {
		anomaly.Resolved = true
		popFront(so)
		return
	}
	so.Queue[0] = o
}

func stepColonizeBody(g *GameState, ship *worldstate.Ship, so *order.ShipOrders, o order.ColonizeBody) {
	popFront(so)
	body, ok := g.World.Bodies[o.BodyId]
	if !ok || ship.SystemId != body.SystemId || order.Dist(ship.Position, body.Position) > g.Config.DockingRangeMkm {
		failOrder(g, ship, events.KindInvalidTarget, "not in range to colonize")
		return
	}
	design, _ := designOf(g, ship)
	id := g.World.AllocateId()
	g.World.Colonies[id] = &worldstate.Colony{
		Id: id, FactionId: ship.FactionId, BodyId: o.BodyId, Name: fmt.Sprintf("Colony %d", id),
		PopulationMillions: ship.ColonistsMillions + design.ColonyCapacityM,
		Installations:      make(map[string]int),
		InstallationTargets: make(map[string]int),
		Minerals:           make(map[string]float64),
		MineralReserves:    make(map[string]float64),
	}
	g.World.Log.Append(events.SimEvent{
		Day: g.World.Day, Hour: g.World.HourOfDay, Level: events.Info, Category: events.General,
		Message: fmt.Sprintf("colony %d founded at body %d by faction %d", id, o.BodyId, ship.FactionId), ColonyId: id,
	})
	g.World.RemoveShip(ship.Id)
}

func stepScrapShip(g *GameState, ship *worldstate.Ship, so *order.ShipOrders, o order.ScrapShip) {
	popFront(so)
	col, docked := dockedAtColonyBody(g, ship, o.ColonyId)
	if docked {
		design, ok := designOf(g, ship)
		if ok {
			col.Minerals["Duranium"] = worldstate.FloorTiny(col.Minerals["Duranium"] + design.MassTons*0.2)
		}
	}
	g.World.RemoveShip(ship.Id)
}
