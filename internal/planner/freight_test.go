package planner

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nebulacore/internal/content"
	"nebulacore/internal/order"
	"nebulacore/internal/simconfig"
	"nebulacore/internal/simid"
	"nebulacore/internal/worldstate"
)

// buildTwoColonyFreightWorld sets up a single-system world with a surplus
// colony, a shortfall colony and one idle, auto-freight-flagged ship docked
// at the surplus colony's body, mirroring the freight scenario from spec.md
// §8 ("auto-freight bundles a shortfall and picks the most efficient
// pickup, possibly a partial load when supply or cargo space falls short").
func buildTwoColonyFreightWorld(surplus, shortfall, capacity float64) (*worldstate.State, *content.DB, simid.Id, simid.Id, simid.Id) {
	state := worldstate.New(1)
	db := content.New()

	db.Designs["Freighter"] = content.ShipDesign{
		Id:                "Freighter",
		SpeedKmS:          10,
		CargoCapacityTons: capacity,
	}

	facId := state.AllocateId()
	state.Factions[facId] = &worldstate.Faction{Id: facId}

	sysId := state.AllocateId()
	state.Systems[sysId] = &worldstate.StarSystem{Id: sysId}

	srcBodyId := state.AllocateId()
	state.Bodies[srcBodyId] = &worldstate.Body{Id: srcBodyId, SystemId: sysId, Position: worldstate.Vec2{X: 0, Y: 0}}

	dstBodyId := state.AllocateId()
	state.Bodies[dstBodyId] = &worldstate.Body{Id: dstBodyId, SystemId: sysId, Position: worldstate.Vec2{X: 100, Y: 0}}

	srcColonyId := state.AllocateId()
	state.Colonies[srcColonyId] = &worldstate.Colony{
		Id:              srcColonyId,
		FactionId:       facId,
		BodyId:          srcBodyId,
		Minerals:        map[string]float64{"Duranium": surplus},
		MineralReserves: map[string]float64{},
	}

	dstColonyId := state.AllocateId()
	state.Colonies[dstColonyId] = &worldstate.Colony{
		Id:                  dstColonyId,
		FactionId:           facId,
		BodyId:              dstBodyId,
		Minerals:            map[string]float64{},
		Installations:       map[string]int{},
		InstallationTargets: map[string]int{},
		MineralReserves:     map[string]float64{},
		ShipyardQueue: []worldstate.BuildOrder{
			{DesignId: "Freighter", TonsRemaining: shortfall, CostPerTonMin: map[string]float64{"Duranium": 1}},
		},
	}

	shipId := state.AllocateId()
	state.Ships[shipId] = &worldstate.Ship{
		Id:         shipId,
		FactionId:  facId,
		SystemId:   sysId,
		Position:   worldstate.Vec2{X: 0, Y: 0},
		DesignId:   "Freighter",
		Cargo:      map[string]float64{},
		Automation: worldstate.AutomationFlags{AutoFreight: true},
	}
	state.ShipOrders[shipId] = &order.ShipOrders{}

	return state, db, facId, srcColonyId, dstColonyId
}

func TestPlanFreightPicksUpFullShortfallWhenSupplyAndCapacityAllow(t *testing.T) {
	state, db, facId, srcColonyId, dstColonyId := buildTwoColonyFreightWorld(100, 40, 200)

	result := PlanFreight(state, db, simconfig.Default(), facId, DefaultOptions())

	require.True(t, result.Ok)
	require.Len(t, result.Assignments, 1)
	a := result.Assignments[0]
	assert.Equal(t, srcColonyId, a.SourceColonyId)
	assert.Equal(t, dstColonyId, a.DestColonyId)
	assert.InDelta(t, 40, a.Minerals["Duranium"], 1e-9)
}

func TestPlanFreightPartialLoadWhenCargoCapacityIsTheBottleneck(t *testing.T) {
	state, db, facId, srcColonyId, dstColonyId := buildTwoColonyFreightWorld(100, 40, 15)

	result := PlanFreight(state, db, simconfig.Default(), facId, DefaultOptions())

	require.True(t, result.Ok)
	require.Len(t, result.Assignments, 1)
	a := result.Assignments[0]
	assert.Equal(t, srcColonyId, a.SourceColonyId)
	assert.Equal(t, dstColonyId, a.DestColonyId)
	assert.InDelta(t, 15, a.Minerals["Duranium"], 1e-9)
}

func TestPlanFreightSkipsShipsAlreadyUnderOrders(t *testing.T) {
	state, db, facId, _, _ := buildTwoColonyFreightWorld(100, 40, 200)
	for _, so := range state.ShipOrders {
		so.Append(order.WaitDays{DaysRemaining: 1})
	}

	result := PlanFreight(state, db, simconfig.Default(), facId, DefaultOptions())

	assert.True(t, result.Ok)
	assert.Empty(t, result.Assignments)
}

func TestPlanFreightNoAssignmentWithoutSurplus(t *testing.T) {
	state, db, facId, _, _ := buildTwoColonyFreightWorld(0, 40, 200)

	result := PlanFreight(state, db, simconfig.Default(), facId, DefaultOptions())

	assert.True(t, result.Ok)
	assert.Empty(t, result.Assignments)
}
