package combat

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nebulacore/internal/content"
	"nebulacore/internal/simconfig"
	"nebulacore/internal/simid"
	"nebulacore/internal/worldstate"
)

func alwaysHostile(a, b simid.Id) bool { return true }

func newTestShip(state *worldstate.State, designId string, faction simid.Id, pos worldstate.Vec2) *worldstate.Ship {
	id := state.AllocateId()
	ship := &worldstate.Ship{
		Id:        id,
		FactionId: faction,
		Position:  pos,
		DesignId:  designId,
		Hp:        100,
		Integrity: worldstate.SubsystemIntegrity{Engines: 1, Sensors: 1, Weapons: 1, Shields: 1},
		Doctrine:  worldstate.CombatDoctrine{WeaponMode: worldstate.WeaponAuto},
	}
	state.Ships[id] = ship
	return ship
}

// TestMissileSalvoFullyInterceptedByShipPointDefense: a defender whose own
// point-defense mount can stop more missiles than the salvo holds shoots
// the whole salvo down, so no damage lands while the ammo is still spent.
func TestMissileSalvoFullyInterceptedByShipPointDefense(t *testing.T) {
	state := worldstate.New(1)
	db := content.New()

	db.Designs["Missiler"] = content.ShipDesign{
		Id:                "Missiler",
		MissileRangeMkm:   50,
		MissileReloadDays: 1,
		MissilePayload:    10,
		BeamRangeMkm:      0,
	}
	db.Designs["PDDefender"] = content.ShipDesign{
		Id:                   "PDDefender",
		BeamRangeMkm:         0,
		PointDefenseDamage:   3,
		PointDefenseRangeMkm: 50,
	}

	facA := state.AllocateId()
	facB := state.AllocateId()

	attacker := newTestShip(state, "Missiler", facA, worldstate.Vec2{X: 0, Y: 0})
	attacker.MissileAmmo = 5
	defender := newTestShip(state, "PDDefender", facB, worldstate.Vec2{X: 10, Y: 0})

	cfg := simconfig.Default()
	Tick(state, db, cfg, 1.0, alwaysHostile, []Engagement{{AttackerId: attacker.Id, DefenderId: defender.Id}})

	// salvoSize = floor(1/1) = 1, PD can intercept floor(min(1, 3*1*1)) = 1, so 0 survive.
	assert.Equal(t, 100.0, defender.Hp, "a single-missile salvo should be fully intercepted by point defense")
	assert.Equal(t, 4, attacker.MissileAmmo, "firing consumes ammo even when the salvo is fully intercepted")
}

func TestMissileSalvoDamagesThroughWeakPointDefense(t *testing.T) {
	state := worldstate.New(1)
	db := content.New()

	db.Designs["Missiler"] = content.ShipDesign{
		Id:                "Missiler",
		MissileRangeMkm:   50,
		MissileReloadDays: 0.1,
		MissilePayload:    10,
	}
	db.Designs["Weakling"] = content.ShipDesign{
		Id:                 "Weakling",
		PointDefenseDamage: 0,
	}

	facA := state.AllocateId()
	facB := state.AllocateId()

	attacker := newTestShip(state, "Missiler", facA, worldstate.Vec2{X: 0, Y: 0})
	attacker.MissileAmmo = 20
	defender := newTestShip(state, "Weakling", facB, worldstate.Vec2{X: 10, Y: 0})

	cfg := simconfig.Default()
	Tick(state, db, cfg, 1.0, alwaysHostile, []Engagement{{AttackerId: attacker.Id, DefenderId: defender.Id}})

	// salvoSize = floor(1/0.1) = 10, no point defense, hitChance forced to 1 (EnableMissileHitChance=false).
	require.Less(t, defender.Hp, 100.0)
	assert.InDelta(t, 0.0, defender.Hp, 1e-6)
	assert.Equal(t, 10, attacker.MissileAmmo)
}

// TestMissileSalvoFullyInterceptedByColonyPointDefense mirrors spec.md §8
// scenario 5: a target docked at a colony with a strong point-defense
// installation survives a missile salvo untouched, and the colony PD
// interception is visible in the log.
func TestMissileSalvoFullyInterceptedByColonyPointDefense(t *testing.T) {
	state := worldstate.New(1)
	db := content.New()

	db.Designs["Missiler"] = content.ShipDesign{
		Id:                "Missiler",
		MissileRangeMkm:   50,
		MissileReloadDays: 1,
		MissilePayload:    10,
	}
	db.Designs["Freighter"] = content.ShipDesign{
		Id:     "Freighter",
		MaxHp:  100,
	}
	db.Installations["PDBattery"] = content.InstallationDef{
		Id:                   "PDBattery",
		PointDefenseDamage:   1000,
		PointDefenseRangeMkm: 1000,
	}

	facA := state.AllocateId()
	facB := state.AllocateId()

	bodyId := state.AllocateId()
	systemId := state.AllocateId()
	state.Bodies[bodyId] = &worldstate.Body{Id: bodyId, SystemId: systemId, Position: worldstate.Vec2{X: 10, Y: 0}}

	colonyId := state.AllocateId()
	state.Colonies[colonyId] = &worldstate.Colony{
		Id: colonyId, FactionId: facB, BodyId: bodyId,
		Installations: map[string]int{"PDBattery": 1},
		Minerals:      make(map[string]float64),
	}

	attacker := newTestShip(state, "Missiler", facA, worldstate.Vec2{X: 0, Y: 0})
	attacker.SystemId = systemId
	attacker.MissileAmmo = 5
	defender := newTestShip(state, "Freighter", facB, worldstate.Vec2{X: 10, Y: 0})
	defender.SystemId = systemId
	defender.Hp = 100

	cfg := simconfig.Default()
	Tick(state, db, cfg, 2.0, alwaysHostile, []Engagement{{AttackerId: attacker.Id, DefenderId: defender.Id}})

	assert.Equal(t, 100.0, defender.Hp, "colony point defense should fully intercept the salvo")

	found := false
	for _, e := range state.Log.Entries() {
		if strings.Contains(e.Message, "Colony point defense") {
			found = true
		}
	}
	assert.True(t, found, "expected a Colony point defense log event")
}

func TestDestroyShipLeavesASalvageableWreck(t *testing.T) {
	state := worldstate.New(1)
	db := content.New()
	db.Designs["Frigate"] = content.ShipDesign{Id: "Frigate", MassTons: 500, BeamDamage: 1000, BeamRangeMkm: 50}

	facA := state.AllocateId()
	facB := state.AllocateId()
	attacker := newTestShip(state, "Frigate", facA, worldstate.Vec2{X: 0, Y: 0})
	defender := newTestShip(state, "Frigate", facB, worldstate.Vec2{X: 1, Y: 0})
	defender.Hp = 1

	cfg := simconfig.Default()
	Tick(state, db, cfg, 1.0, alwaysHostile, []Engagement{{AttackerId: attacker.Id, DefenderId: defender.Id}})

	_, stillExists := state.Ships[defender.Id]
	assert.False(t, stillExists)
	require.Len(t, state.Wrecks, 1)
	for _, w := range state.Wrecks {
		assert.InDelta(t, 50.0, w.Minerals["Duranium"], 1e-9)
		assert.Equal(t, facB, w.SourceFactionId)
	}
}

func TestCombatTickNoopWhenDisabled(t *testing.T) {
	state := worldstate.New(1)
	db := content.New()
	db.Designs["Frigate"] = content.ShipDesign{Id: "Frigate", BeamDamage: 1000, BeamRangeMkm: 50}

	facA := state.AllocateId()
	facB := state.AllocateId()
	attacker := newTestShip(state, "Frigate", facA, worldstate.Vec2{X: 0, Y: 0})
	defender := newTestShip(state, "Frigate", facB, worldstate.Vec2{X: 1, Y: 0})

	cfg := simconfig.Default()
	cfg.EnableCombat = false
	Tick(state, db, cfg, 1.0, alwaysHostile, []Engagement{{AttackerId: attacker.Id, DefenderId: defender.Id}})

	assert.Equal(t, 100.0, defender.Hp)
}
