package economy

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"nebulacore/internal/content"
	"nebulacore/internal/simconfig"
	"nebulacore/internal/simid"
	"nebulacore/internal/worldstate"
)

// TestColonyMiningSharesDepositAcrossCoLocatedColonies mirrors spec.md §4.6's
// shared-deposit contract for colony-based mining, the same rule already
// covered for ship-based mining by TickMining: two colonies on the same body
// (different factions) each running a mining installation must split a
// deposit too small to satisfy both proportionally to their nameplate rate,
// never first-come-first-served by colony id.
func TestColonyMiningSharesDepositAcrossCoLocatedColonies(t *testing.T) {
	state := worldstate.New(1)
	db := content.New()

	db.Installations["Mine"] = content.InstallationDef{
		Id:               "Mine",
		IsMining:         true,
		MiningTonsPerDay: 100,
	}

	bodyId := state.AllocateId()
	state.Bodies[bodyId] = &worldstate.Body{
		Id:              bodyId,
		MineralDeposits: map[string]float64{"Duranium": 90},
	}

	facA := state.AllocateId()
	facB := state.AllocateId()

	colA := state.AllocateId()
	state.Colonies[colA] = &worldstate.Colony{
		Id: colA, FactionId: facA, BodyId: bodyId,
		Installations: map[string]int{"Mine": 1},
		Minerals:      make(map[string]float64),
	}
	colB := state.AllocateId()
	state.Colonies[colB] = &worldstate.Colony{
		Id: colB, FactionId: facB, BodyId: bodyId,
		Installations: map[string]int{"Mine": 1},
		Minerals:      make(map[string]float64),
	}

	// Demand: 100 tons/day each, 1 day => 100 each, 200 total, deposit only
	// 90 => shareFactor 0.45, each colony gets 45, colony id order irrelevant.
	TickColonyInstallations(state, db, 1.0)

	assert.InDelta(t, 45.0, state.Colonies[colA].Minerals["Duranium"], 1e-6)
	assert.InDelta(t, 45.0, state.Colonies[colB].Minerals["Duranium"], 1e-6)
	assert.InDelta(t, 0.0, state.Bodies[bodyId].MineralDeposits["Duranium"], 1e-6)
}

// TestColonyMiningSplitsNameplateAcrossMinerals mirrors the legacy single-
// colony behavior: a mining installation's nameplate rate is divided evenly
// across every mineral the body has deposits for, not aggregated into one.
func TestColonyMiningSplitsNameplateAcrossMinerals(t *testing.T) {
	state := worldstate.New(1)
	db := content.New()

	db.Installations["Mine"] = content.InstallationDef{
		Id:               "Mine",
		IsMining:         true,
		MiningTonsPerDay: 20,
	}

	bodyId := state.AllocateId()
	state.Bodies[bodyId] = &worldstate.Body{
		Id:              bodyId,
		MineralDeposits: map[string]float64{"Duranium": 1000, "Corundium": 1000},
	}

	colId := state.AllocateId()
	state.Colonies[colId] = &worldstate.Colony{
		Id: colId, FactionId: state.AllocateId(), BodyId: bodyId,
		Installations: map[string]int{"Mine": 1},
		Minerals:      make(map[string]float64),
	}

	TickColonyInstallations(state, db, 1.0)

	col := state.Colonies[colId]
	assert.InDelta(t, 10.0, col.Minerals["Duranium"], 1e-6)
	assert.InDelta(t, 10.0, col.Minerals["Corundium"], 1e-6)
}

func TestTickColonyInstallationsScalesConsumptionWhenShort(t *testing.T) {
	state := worldstate.New(1)
	db := content.New()

	db.Installations["Factory"] = content.InstallationDef{
		Id:             "Factory",
		ConsumesPerDay: map[string]float64{"Duranium": 10},
		ProducesPerDay: map[string]float64{"Widgets": 5},
	}

	facId := state.AllocateId()
	colId := state.AllocateId()
	bodyId := state.AllocateId()
	state.Bodies[bodyId] = &worldstate.Body{Id: bodyId}
	state.Colonies[colId] = &worldstate.Colony{
		Id: colId, FactionId: facId, BodyId: bodyId,
		Installations: map[string]int{"Factory": 1},
		Minerals:      map[string]float64{"Duranium": 5},
	}

	TickColonyInstallations(state, db, 1.0)

	col := state.Colonies[colId]
	assert.InDelta(t, 0.0, col.Minerals["Duranium"], 1e-6)
	assert.InDelta(t, 2.5, col.Minerals["Widgets"], 1e-6, "output scales down with the 0.5 efficiency the mineral shortfall caused")
}

func TestTickMiningSharesDepositAcrossShipClaimants(t *testing.T) {
	state := worldstate.New(1)
	cfg := simconfig.Default()

	bodyId := state.AllocateId()
	state.Bodies[bodyId] = &worldstate.Body{
		Id:              bodyId,
		MineralDeposits: map[string]float64{"Duranium": 90},
	}

	shipA := state.AllocateId()
	state.Ships[shipA] = &worldstate.Ship{Id: shipA, Cargo: make(map[string]float64)}
	shipB := state.AllocateId()
	state.Ships[shipB] = &worldstate.Ship{Id: shipB, Cargo: make(map[string]float64)}

	demands := []MiningDemand{
		{ShipId: shipA, BodyId: bodyId, TonsPerDay: 100},
		{ShipId: shipB, BodyId: bodyId, TonsPerDay: 100},
	}
	TickMining(state, cfg, 1.0, demands, func(simid.Id) string { return "Duranium" })

	assert.InDelta(t, 45.0, state.Ships[shipA].Cargo["Duranium"], 1e-6)
	assert.InDelta(t, 45.0, state.Ships[shipB].Cargo["Duranium"], 1e-6)
}
