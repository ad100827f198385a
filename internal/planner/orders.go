package planner

import (
	"fmt"

	"nebulacore/internal/content"
	"nebulacore/internal/order"
	"nebulacore/internal/routing"
	"nebulacore/internal/simid"
	"nebulacore/internal/worldstate"
)

// OrderStep :
// One queued order's forecast contribution (spec.md §4.10.3).
type OrderStep struct {
	OrderIndex        int
	Kind              order.Kind
	DeltaEtaDays      float64
	CumulativeEtaDays float64
	EndSystemId       simid.Id
	EndPosition       worldstate.Vec2
	FuelBefore        float64
	FuelAfter         float64
	Indefinite        bool // order has no natural completion; forecast stops here
}

// OrderPlanResult :
type OrderPlanResult struct {
	Result
	Steps        []OrderStep
	AutoRefueled bool
}

const surveyPointsPerDay = 10.0
const defaultInvestigationDays = 10.0

// PlanOrders :
// Walks a hypothetical order queue for `ship` up to `opts.MaxOrders`,
// reporting per-step ETA deltas/cumulative totals, end system/position, and
// fuel before/after (spec.md §4.10.3). Orders with no natural completion
// (AttackShip, EscortShip, OrbitBody/BombardColony with DurationDays==-1,
// InvadeColony) are reported as a truncated, indefinite final step rather
// than forecast indefinitely. When `autoRefuel` is set and the ship runs dry
// mid-leg, the plan assumes a refuel stop costs no additional transit time —
// a deliberate simplification since the planner has no fuel-depot routing of
// its own (spec.md §4.10.5 is where that belongs); this plan only flags that
// a refuel was assumed via `AutoRefueled`.
func PlanOrders(state *worldstate.State, db *content.DB, ship *worldstate.Ship, orders []order.Order, autoRefuel bool, opts Options) OrderPlanResult {
	work := worldstate.CloneShip(ship)
	design, hasDesign := db.Designs[work.DesignId]

	maxOrders := opts.MaxOrders
	if maxOrders <= 0 {
		maxOrders = DefaultOptions().MaxOrders
	}

	var steps []OrderStep
	cumulative := 0.0
	autoRefueled := false

	n := len(orders)
	if n > maxOrders {
		n = maxOrders
	}

	for i := 0; i < n; i++ {
		o := orders[i]
		fuelBefore := work.FuelTons

		delta, endSystem, endPos, indefinite, res, fuelUsed := planOneOrder(state, db, &work, design, hasDesign, o)
		if !res.Ok {
			return OrderPlanResult{Result: res, Steps: steps}
		}

		if fuelUsed > work.FuelTons {
			if autoRefuel {
				work.FuelTons = design.FuelCapacityTons
				autoRefueled = true
				fuelUsed = fuelUsed
			} else {
				reason := fmt.Sprintf("order %d (%s): insufficient fuel, needs %.2f has %.2f", i, o.OrderKind(), fuelUsed, work.FuelTons)
				return OrderPlanResult{
					Result: stalled(KindInsufficientSupplies, reason),
					Steps:  steps, AutoRefueled: autoRefueled,
				}
			}
		}
		work.FuelTons -= fuelUsed
		if work.FuelTons < 0 {
			work.FuelTons = 0
		}

		cumulative += delta
		work.SystemId = endSystem
		work.Position = endPos

		steps = append(steps, OrderStep{
			OrderIndex: i, Kind: o.OrderKind(), DeltaEtaDays: delta, CumulativeEtaDays: cumulative,
			EndSystemId: endSystem, EndPosition: endPos, FuelBefore: fuelBefore, FuelAfter: work.FuelTons,
			Indefinite: indefinite,
		})

		if indefinite {
			return OrderPlanResult{
				Result:       truncated(ok(), fmt.Sprintf("order %d (%s) has no natural completion", i, o.OrderKind())),
				Steps:        steps,
				AutoRefueled: autoRefueled,
			}
		}
	}

	if len(orders) > maxOrders {
		return OrderPlanResult{
			Result:       truncated(ok(), fmt.Sprintf("stopped after %d of %d queued orders", maxOrders, len(orders))),
			Steps:        steps,
			AutoRefueled: autoRefueled,
		}
	}

	return OrderPlanResult{Result: ok(), Steps: steps, AutoRefueled: autoRefueled}
}

func planOneOrder(state *worldstate.State, db *content.DB, work *worldstate.Ship, design content.ShipDesign, hasDesign bool, o order.Order) (delta float64, endSystem simid.Id, endPos worldstate.Vec2, indefinite bool, res Result, fuelUsed float64) {
	endSystem = work.SystemId
	endPos = work.Position
	res = ok()

	speed := 0.0
	fuelPerMkm := 0.0
	if hasDesign {
		speed = design.SpeedKmS
		fuelPerMkm = design.FuelUsePerMkm
	}

	switch v := o.(type) {
	case order.WaitDays:
		delta = v.DaysRemaining

	case order.MoveToPoint:
		d := order.Dist(work.Position, v.Target)
		delta, fuelUsed = travelTime(d, speed, fuelPerMkm)
		endPos = v.Target

	case order.MoveToBody:
		body, okBody := state.Bodies[v.BodyId]
		if !okBody {
			res = stalled(KindInvalidTarget, fmt.Sprintf("body %d does not exist", v.BodyId))
			return
		}
		d := order.Dist(work.Position, body.Position)
		delta, fuelUsed = travelTime(d, speed, fuelPerMkm)
		endSystem = body.SystemId
		endPos = body.Position

	case order.OrbitBody:
		if v.DurationDays < 0 {
			indefinite = true
			return
		}
		body, okBody := state.Bodies[v.BodyId]
		if okBody {
			endSystem = body.SystemId
			endPos = body.Position
		}
		delta = v.DurationDays

	case order.TravelViaJump:
		jp, okJp := state.JumpPoints[v.JumpPointId]
		if !okJp {
			res = stalled(KindInvalidTarget, fmt.Sprintf("jump point %d does not exist", v.JumpPointId))
			return
		}
		legDays, legFuel := travelTime(order.Dist(work.Position, jp.Position), speed, fuelPerMkm)
		linked, okLinked := state.JumpPoints[jp.LinkedJumpId]
		if !okLinked {
			res = stalled(KindUnreachable, fmt.Sprintf("jump point %d has no linked endpoint", v.JumpPointId))
			return
		}
		delta = legDays
		fuelUsed = legFuel
		endSystem = linked.SystemId
		endPos = linked.Position

	case order.TravelToSystem:
		discovered := map[simid.Id]bool{}
		if fac, okFac := state.Factions[work.FactionId]; okFac {
			discovered = fac.DiscoveredSystems
		}
		route := routing.PlanRoute(state, work.SystemId, work.Position, speed, v.SystemId, v.FinalPos, v.RestrictToDiscovered, discovered)
		if !route.Ok {
			res = stalled(KindUnreachable, fmt.Sprintf("no route from system %d to system %d", work.SystemId, v.SystemId))
			return
		}
		delta = route.TotalEtaDays
		fuelUsed = delta * speed * fuelPerMkm
		endSystem = v.SystemId
		endPos = v.FinalPos

	case order.SurveyJumpPoint:
		jp, okJp := state.JumpPoints[v.JumpPointId]
		if !okJp {
			res = stalled(KindInvalidTarget, fmt.Sprintf("jump point %d does not exist", v.JumpPointId))
			return
		}
		travelDays, legFuel := travelTime(order.Dist(work.Position, jp.Position), speed, fuelPerMkm)
		remainingPoints := 100.0 - v.ProgressPoints
		if remainingPoints < 0 {
			remainingPoints = 0
		}
		delta = travelDays + remainingPoints/surveyPointsPerDay
		fuelUsed = legFuel
		endSystem = jp.SystemId
		endPos = jp.Position

	case order.LoadMineral, order.UnloadMineral, order.LoadTroops, order.UnloadTroops,
		order.LoadColonists, order.UnloadColonists, order.TransferCargoToShip,
		order.TransferFuelToShip, order.TransferTroopsToShip, order.ColonizeBody, order.ScrapShip:
		// Dockside/rendezvous actions complete within the sub-step they
		// become eligible, assuming the ship is already positioned
		// correctly by a preceding move order (spec.md §4.2 steps 4-6).
		delta = 0

	case order.SalvageWreck:
		wreck, okWreck := state.Wrecks[v.WreckId]
		if !okWreck {
			res = stalled(KindInvalidTarget, fmt.Sprintf("wreck %d does not exist", v.WreckId))
			return
		}
		d := order.Dist(work.Position, wreck.Position)
		delta, fuelUsed = travelTime(d, speed, fuelPerMkm)
		endSystem = wreck.SystemId
		endPos = wreck.Position

	case order.InvestigateAnomaly:
		anomaly, okAnomaly := state.Anomalies[v.AnomalyId]
		if !okAnomaly {
			res = stalled(KindInvalidTarget, fmt.Sprintf("anomaly %d does not exist", v.AnomalyId))
			return
		}
		travelDays, legFuel := travelTime(order.Dist(work.Position, anomaly.Position), speed, fuelPerMkm)
		target := v.DurationDays
		if target <= 0 {
			target = anomaly.InvestigationDays
			if target <= 0 {
				target = defaultInvestigationDays
			}
		}
		remaining := target - v.ProgressDays
		if remaining < 0 {
			remaining = 0
		}
		delta = travelDays + remaining
		fuelUsed = legFuel
		endSystem = anomaly.SystemId
		endPos = anomaly.Position

	case order.AttackShip, order.EscortShip:
		indefinite = true

	case order.BombardColony:
		if v.DurationDays < 0 {
			indefinite = true
			return
		}
		delta = v.DurationDays

	case order.InvadeColony:
		indefinite = true

	default:
		res = stalled(KindInvalidTarget, fmt.Sprintf("unrecognized order kind %s", o.OrderKind()))
	}

	return
}

func travelTime(distMkm, speedMkmPerDay, fuelPerMkm float64) (days, fuel float64) {
	if speedMkmPerDay <= 0 {
		return 0, 0
	}
	return distMkm / speedMkmPerDay, distMkm * fuelPerMkm
}
