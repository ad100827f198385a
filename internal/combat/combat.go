// Package combat implements ship-to-ship combat resolution (spec.md §4.5):
// beam weapons, missile salvos with point-defense interception, boarding,
// and doctrine-driven standoff/targeting behavior.
package combat

import (
	"fmt"
	"math"

	"nebulacore/internal/content"
	"nebulacore/internal/events"
	"nebulacore/internal/simconfig"
	"nebulacore/internal/simid"
	"nebulacore/internal/worldstate"
)

func dist(a, b worldstate.Vec2) float64 {
	dx := a.X - b.X
	dy := a.Y - b.Y
	return math.Sqrt(dx*dx + dy*dy)
}

// Engagement :
// A resolved attacker/defender pair for this sub-step, derived from live
// AttackShip orders and diplomacy status — combat never free-for-alls
// ships that merely share a system (spec.md §4.5).
type Engagement struct {
	AttackerId simid.Id
	DefenderId simid.Id
}

// Hostile :
// Supplied by the caller (usually internal/sim, which owns diplomacy
// lookups) so this package never needs to import internal/diplomacy.
type Hostile func(a, b simid.Id) bool

// Tick :
// Resolves one sub-step of combat across every system with at least one
// active engagement. Engagements are supplied by the caller; internal/sim
// derives them from ships currently executing an AttackShip order against a
// target in weapons range (spec.md §4.5, §4.2). BombardColony orders are not
// engagements here; their damage is applied by internal/sim's order step.
func Tick(state *worldstate.State, db *content.DB, cfg simconfig.SimConfig, dtDays float64, hostile Hostile, engagements []Engagement) {
	if !cfg.EnableCombat {
		return
	}

	for _, eng := range engagements {
		attacker, ok := state.Ships[eng.AttackerId]
		if !ok {
			continue
		}
		defender, ok := state.Ships[eng.DefenderId]
		if !ok {
			continue
		}
		if attacker.SystemId != defender.SystemId {
			continue
		}
		if !hostile(attacker.FactionId, defender.FactionId) {
			continue
		}
		resolvePair(state, db, cfg, dtDays, attacker, defender)
		if defender.Hp > 0 {
			attemptBoarding(state, db, cfg, attacker, defender)
		}
		if defender.Hp <= 0 {
			destroyShip(state, db, defender)
		}
		if attacker.Hp <= 0 {
			destroyShip(state, db, attacker)
		}
	}
}

// attemptBoarding :
// Invokes ResolveBoarding when the pair is within boarding range this
// sub-step (spec.md §4.5: boarding is available "at ≤ boarding_range_mkm",
// independent of which weapon mode the attacker's doctrine picked).
func attemptBoarding(state *worldstate.State, db *content.DB, cfg simconfig.SimConfig, attacker, defender *worldstate.Ship) {
	if !cfg.EnableBoarding {
		return
	}
	if dist(attacker.Position, defender.Position) > cfg.BoardingRangeMkm {
		return
	}
	ResolveBoarding(state, db, cfg, attacker, defender)
}

func resolvePair(state *worldstate.State, db *content.DB, cfg simconfig.SimConfig, dtDays float64, attacker, defender *worldstate.Ship) {
	adesign, aok := db.Designs[attacker.DesignId]
	ddesign, dok := db.Designs[defender.DesignId]
	if !aok || !dok {
		return
	}

	r := dist(attacker.Position, defender.Position)
	mode := attacker.Doctrine.WeaponMode

	useBeam := mode == worldstate.WeaponBeam || (mode == worldstate.WeaponAuto && r <= ddesign.BeamRangeMkm)
	useMissile := mode == worldstate.WeaponMissile || (mode == worldstate.WeaponAuto && r > adesign.BeamRangeMkm && r <= adesign.MissileRangeMkm)

	if useBeam && r <= adesign.BeamRangeMkm {
		fireBeam(state, attacker, defender, adesign, dtDays)
	} else if useMissile && r <= adesign.MissileRangeMkm && attacker.MissileAmmo > 0 {
		fireMissile(state, db, cfg, attacker, defender, adesign, ddesign, dtDays)
	}
}

func fireBeam(state *worldstate.State, attacker, defender *worldstate.Ship, adesign content.ShipDesign, dtDays float64) {
	damage := adesign.BeamDamage * attacker.Integrity.Weapons * dtDays
	if damage <= 0 {
		return
	}
	applyDamage(state, defender, damage)
	state.Log.Append(events.SimEvent{
		Day: state.Day, Hour: state.HourOfDay, Level: events.Info, Category: events.Combat,
		Message:   fmt.Sprintf("ship %d beam hit ship %d for %.2f", attacker.Id, defender.Id, damage),
		FactionId: attacker.FactionId, ShipId: attacker.Id,
	})
}

func fireMissile(state *worldstate.State, db *content.DB, cfg simconfig.SimConfig, attacker, defender *worldstate.Ship, adesign, ddesign content.ShipDesign, dtDays float64) {
	salvoSize := int(math.Max(1, math.Floor(dtDays/math.Max(adesign.MissileReloadDays, Epsilon))))
	if salvoSize > attacker.MissileAmmo {
		salvoSize = attacker.MissileAmmo
	}
	if salvoSize <= 0 {
		return
	}
	attacker.MissileAmmo -= salvoSize

	survivors := salvoSize
	if ddesign.PointDefenseDamage > 0 {
		intercepted := int(math.Min(float64(salvoSize), ddesign.PointDefenseDamage*defender.Integrity.Weapons*dtDays))
		survivors -= intercepted
	}
	if survivors <= 0 {
		return
	}
	survivors = colonyPointDefenseIntercept(state, db, defender, survivors, dtDays)
	if survivors <= 0 {
		return
	}

	hitChance := 1.0
	if cfg.EnableMissileHitChance {
		hitChance = 0.8
	}
	effectiveHits := float64(survivors) * hitChance
	damage := effectiveHits * adesign.MissilePayload

	applyDamage(state, defender, damage)
	state.Log.Append(events.SimEvent{
		Day: state.Day, Hour: state.HourOfDay, Level: events.Info, Category: events.Combat,
		Message:   fmt.Sprintf("ship %d missile salvo (%d/%d survived PD) hit ship %d for %.2f", attacker.Id, survivors, salvoSize, defender.Id, damage),
		FactionId: attacker.FactionId, ShipId: attacker.Id,
	})
}

// colonyPointDefenseIntercept :
// Stage two of missile interception (spec.md §4.5): colonies friendly to the
// defender add their installations' point-defense to the ship-PD already
// applied in fireMissile, for any colony within its installations'
// PointDefenseRangeMkm of the defender's current position. Unlike ship PD
// this never scales by subsystem integrity — a colony has no weapons
// subsystem of its own.
func colonyPointDefenseIntercept(state *worldstate.State, db *content.DB, defender *worldstate.Ship, survivors int, dtDays float64) int {
	pdCapacity := 0.0
	for _, colonyId := range state.SortedColonyIds() {
		col := state.Colonies[colonyId]
		if col.FactionId != defender.FactionId {
			continue
		}
		body, ok := state.Bodies[col.BodyId]
		if !ok || body.SystemId != defender.SystemId {
			continue
		}
		r := dist(body.Position, defender.Position)
		for _, instId := range worldstate.SortedStringKeysInt(col.Installations) {
			count := col.Installations[instId]
			if count <= 0 {
				continue
			}
			def, ok := db.Installations[instId]
			if !ok || def.PointDefenseDamage <= 0 || r > def.PointDefenseRangeMkm {
				continue
			}
			pdCapacity += def.PointDefenseDamage * float64(count)
		}
	}
	if pdCapacity <= 0 {
		return survivors
	}
	intercepted := int(math.Min(float64(survivors), pdCapacity*dtDays))
	if intercepted <= 0 {
		return survivors
	}
	state.Log.Append(events.SimEvent{
		Day: state.Day, Hour: state.HourOfDay, Level: events.Info, Category: events.Combat,
		Message:   fmt.Sprintf("Colony point defense intercepted %d/%d missiles bound for ship %d", intercepted, survivors, defender.Id),
		FactionId: defender.FactionId, ShipId: defender.Id,
	})
	return survivors - intercepted
}

const Epsilon = 1e-9

func applyDamage(state *worldstate.State, target *worldstate.Ship, damage float64) {
	if target.Shields > 0 {
		absorbed := math.Min(target.Shields, damage)
		target.Shields -= absorbed
		damage -= absorbed
	}
	if damage <= 0 {
		return
	}
	target.Hp -= damage
	degradeSubsystem(&target.Integrity.Weapons, damage, target)
	degradeSubsystem(&target.Integrity.Engines, damage, target)
	degradeSubsystem(&target.Integrity.Sensors, damage, target)
	degradeSubsystem(&target.Integrity.Shields, damage, target)
}

// degradeSubsystem :
// Cumulative damage chips away subsystem integrity proportionally to the
// fraction of the ship's pre-hit HP lost this hit, scaled by 0.25; a ship
// left at or below 0 HP has the subsystem zeroed (spec.md §4.5: subsystem damage is a
// side effect of hull damage, not a separately targeted hit location).
func degradeSubsystem(integrity *float64, damage float64, target *worldstate.Ship) {
	if target.Hp <= 0 {
		*integrity = 0
		return
	}
	frac := damage / math.Max(target.Hp+damage, Epsilon)
	*integrity -= *integrity * frac * 0.25
	if *integrity < 0 {
		*integrity = 0
	}
}

func destroyShip(state *worldstate.State, db *content.DB, ship *worldstate.Ship) {
	design, ok := db.Designs[ship.DesignId]
	wreckMinerals := make(map[string]float64)
	if ok {
		wreckMinerals["Duranium"] = design.MassTons * 0.1
	}
	id := state.AllocateId()
	state.Wrecks[id] = &worldstate.Wreck{
		Id:              id,
		SystemId:        ship.SystemId,
		Position:        ship.Position,
		Minerals:        wreckMinerals,
		SourceDesignId:  ship.DesignId,
		SourceFactionId: ship.FactionId,
	}
	state.Log.Append(events.SimEvent{
		Day: state.Day, Hour: state.HourOfDay, Level: events.Info, Category: events.Combat,
		Message:   fmt.Sprintf("ship %d destroyed, wreck %d created", ship.Id, id),
		FactionId: ship.FactionId, ShipId: ship.Id,
	})
	state.RemoveShip(ship.Id)
}

// ResolveBoarding :
// Applies a single boarding attempt from `attacker` against `defender`
// (spec.md §4.5): gated on the target already being below
// `cfg.BoardingTargetHpFraction` hp (and, when `cfg.BoardingRequireShieldsDown`
// is set, having no shields left) and the attacker meeting
// `cfg.BoardingMinAttackerTroops`. Capture is a single PRNG draw against
// `attacker_troops / (attacker_troops + defender_troops *
// boarding_defense_hp_factor)`, exactly the odds spec.md §4.5 gives — not a
// deterministic troop-count comparison, since the spec calls this out as a
// probability. Both sides take a casualty fraction regardless of outcome.
func ResolveBoarding(state *worldstate.State, db *content.DB, cfg simconfig.SimConfig, attacker, defender *worldstate.Ship) bool {
	if !cfg.EnableBoarding {
		return false
	}
	if attacker.Troops < cfg.BoardingMinAttackerTroops {
		return false
	}
	design, ok := db.Designs[defender.DesignId]
	hpFraction := 1.0
	if ok && design.MaxHp > 0 {
		hpFraction = defender.Hp / design.MaxHp
	}
	if hpFraction > cfg.BoardingTargetHpFraction {
		return false
	}
	if cfg.BoardingRequireShieldsDown && defender.Shields > 0 {
		return false
	}

	defenderEffective := defender.Troops * cfg.BoardingDefenseHpFactor
	oddsDenominator := attacker.Troops + defenderEffective
	captureChance := 0.0
	if oddsDenominator > Epsilon {
		captureChance = attacker.Troops / oddsDenominator
	}
	captured := state.Rng.Float64() < captureChance

	attackerCasualties := attacker.Troops * cfg.BoardingCasualtyFraction
	defenderCasualties := defender.Troops * cfg.BoardingCasualtyFraction
	attacker.Troops = math.Max(0, attacker.Troops-attackerCasualties)
	defender.Troops = math.Max(0, defender.Troops-defenderCasualties)

	if captured {
		state.Log.Append(events.SimEvent{
			Day: state.Day, Hour: state.HourOfDay, Level: events.Info, Category: events.Combat,
			Message:   fmt.Sprintf("ship %d boarded and captured by faction %d", defender.Id, attacker.FactionId),
			FactionId: attacker.FactionId, ShipId: defender.Id,
		})
		defender.FactionId = attacker.FactionId
		defender.Troops = attacker.Troops
		attacker.Troops = 0
	}
	return captured
}
