package sensors

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nebulacore/internal/content"
	"nebulacore/internal/simconfig"
	"nebulacore/internal/simid"
	"nebulacore/internal/worldstate"
)

func noFriends(a, b simid.Id) bool { return false }

func TestTickDetectsShipWithinSensorRange(t *testing.T) {
	state := worldstate.New(1)
	db := content.New()
	db.Designs["Scout"] = content.ShipDesign{Id: "Scout", SensorRangeMkm: 20, SignatureMultiplier: 1}
	db.Designs["Target"] = content.ShipDesign{Id: "Target", SignatureMultiplier: 1}

	sysId := state.AllocateId()
	state.Systems[sysId] = &worldstate.StarSystem{Id: sysId}

	facA := state.AllocateId()
	facB := state.AllocateId()
	state.Factions[facA] = &worldstate.Faction{Id: facA}
	state.Factions[facB] = &worldstate.Faction{Id: facB}

	scoutId := state.AllocateId()
	state.Ships[scoutId] = &worldstate.Ship{
		Id: scoutId, FactionId: facA, SystemId: sysId,
		DesignId: "Scout", Position: worldstate.Vec2{X: 0, Y: 0},
		SensorMode: worldstate.SensorNormal,
		Integrity:  worldstate.SubsystemIntegrity{Sensors: 1},
	}

	targetId := state.AllocateId()
	state.Ships[targetId] = &worldstate.Ship{
		Id: targetId, FactionId: facB, SystemId: sysId,
		DesignId: "Target", Position: worldstate.Vec2{X: 10, Y: 0},
		SensorMode: worldstate.SensorNormal,
		Integrity:  worldstate.SubsystemIntegrity{Sensors: 1},
	}

	cfg := simconfig.Default()
	Tick(state, db, cfg, noFriends)

	fac := state.Factions[facA]
	require.Contains(t, fac.ShipContacts, targetId)
	track := fac.ShipContacts[targetId]
	assert.Equal(t, int64(0), track.LastSeenDay)
	assert.False(t, track.HasTwoSamples, "first sighting has no velocity estimate yet")
}

func TestTickMissesShipOutsideSensorRange(t *testing.T) {
	state := worldstate.New(1)
	db := content.New()
	db.Designs["Scout"] = content.ShipDesign{Id: "Scout", SensorRangeMkm: 5, SignatureMultiplier: 1}
	db.Designs["Target"] = content.ShipDesign{Id: "Target", SignatureMultiplier: 1}

	sysId := state.AllocateId()
	state.Systems[sysId] = &worldstate.StarSystem{Id: sysId}
	facA := state.AllocateId()
	facB := state.AllocateId()
	state.Factions[facA] = &worldstate.Faction{Id: facA}
	state.Factions[facB] = &worldstate.Faction{Id: facB}

	scoutId := state.AllocateId()
	state.Ships[scoutId] = &worldstate.Ship{
		Id: scoutId, FactionId: facA, SystemId: sysId, DesignId: "Scout",
		SensorMode: worldstate.SensorNormal, Integrity: worldstate.SubsystemIntegrity{Sensors: 1},
	}
	targetId := state.AllocateId()
	state.Ships[targetId] = &worldstate.Ship{
		Id: targetId, FactionId: facB, SystemId: sysId, DesignId: "Target",
		Position:   worldstate.Vec2{X: 100, Y: 0},
		SensorMode: worldstate.SensorNormal, Integrity: worldstate.SubsystemIntegrity{Sensors: 1},
	}

	Tick(state, db, simconfig.Default(), noFriends)

	fac := state.Factions[facA]
	assert.NotContains(t, fac.ShipContacts, targetId)
}

// TestLeadPursuitUsesTwoSampleVelocityEstimate mirrors the sensors/lead
// pursuit scenario from spec.md §8: a second sighting a day later yields a
// velocity estimate, and PredictPosition extrapolates from it.
func TestLeadPursuitUsesTwoSampleVelocityEstimate(t *testing.T) {
	state := worldstate.New(1)
	db := content.New()
	db.Designs["Scout"] = content.ShipDesign{Id: "Scout", SensorRangeMkm: 50, SignatureMultiplier: 1}
	db.Designs["Target"] = content.ShipDesign{Id: "Target", SignatureMultiplier: 1}

	sysId := state.AllocateId()
	state.Systems[sysId] = &worldstate.StarSystem{Id: sysId}
	facA := state.AllocateId()
	facB := state.AllocateId()
	state.Factions[facA] = &worldstate.Faction{Id: facA}
	state.Factions[facB] = &worldstate.Faction{Id: facB}

	scoutId := state.AllocateId()
	state.Ships[scoutId] = &worldstate.Ship{
		Id: scoutId, FactionId: facA, SystemId: sysId, DesignId: "Scout",
		SensorMode: worldstate.SensorNormal, Integrity: worldstate.SubsystemIntegrity{Sensors: 1},
	}
	targetId := state.AllocateId()
	target := &worldstate.Ship{
		Id: targetId, FactionId: facB, SystemId: sysId, DesignId: "Target",
		Position:   worldstate.Vec2{X: 0, Y: 0},
		SensorMode: worldstate.SensorNormal, Integrity: worldstate.SubsystemIntegrity{Sensors: 1},
	}
	state.Ships[targetId] = target

	cfg := simconfig.Default()
	Tick(state, db, cfg, noFriends)

	state.Day = 1
	target.Position = worldstate.Vec2{X: 5, Y: 0}
	Tick(state, db, cfg, noFriends)

	fac := state.Factions[facA]
	track := fac.ShipContacts[targetId]
	require.True(t, track.HasTwoSamples)
	assert.InDelta(t, 5.0, track.VelocityEstimate.X, 1e-9)

	predicted := PredictPosition(track, 2)
	assert.InDelta(t, 15.0, predicted.X, 1e-9)
	assert.InDelta(t, 0.0, predicted.Y, 1e-9)
}
