package planner

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nebulacore/internal/content"
	"nebulacore/internal/simid"
	"nebulacore/internal/worldstate"
)

// TestColonyScheduleShipyardThenConstruction: the shipyard and construction
// queues advance side by side and both entries complete on day index 1; the
// shipyard event is listed first because the shipyard is stepped before
// construction within each forecast day. Each completion is forecast as a
// dated event rather than a mutation of live state.
func TestColonyScheduleShipyardThenConstruction(t *testing.T) {
	db := content.New()
	db.Installations["Shipyard"] = content.InstallationDef{Id: "Shipyard", ShipyardBuildRateTons: 10}
	db.Installations["ConstructionYard"] = content.InstallationDef{Id: "ConstructionYard", IsConstruction: true, ConstructionPointsDay: 5}
	db.Installations["ResearchLab"] = content.InstallationDef{Id: "ResearchLab", ConstructionCostCP: 10}

	col := &worldstate.Colony{
		Installations:       map[string]int{"Shipyard": 1, "ConstructionYard": 1},
		InstallationTargets: map[string]int{},
		Minerals:            map[string]float64{},
		MineralReserves:     map[string]float64{},
		ShipyardQueue: []worldstate.BuildOrder{
			{DesignId: "Scout", TonsRemaining: 20, CostPerTonMin: map[string]float64{}},
		},
		ConstructionQueue: []worldstate.InstallationBuildOrder{
			{InstallationId: "ResearchLab"},
		},
	}

	result := ColonySchedule(col, nil, db, nil, DefaultOptions())

	require.True(t, result.Ok)
	require.Len(t, result.Events, 2)
	assert.Equal(t, EventShipyardComplete, result.Events[0].Kind)
	assert.Equal(t, "Scout", result.Events[0].Detail)
	assert.Equal(t, 1, result.Events[0].Day, "20 tons at 10/day finishes on day index 1 (0-indexed)")

	assert.Equal(t, EventConstructionComplete, result.Events[1].Kind)
	assert.Equal(t, "ResearchLab", result.Events[1].Detail)
}

func TestColonyScheduleStallsOnUndockedRefit(t *testing.T) {
	db := content.New()
	db.Installations["Shipyard"] = content.InstallationDef{Id: "Shipyard", ShipyardBuildRateTons: 10}

	col := &worldstate.Colony{
		Installations:       map[string]int{"Shipyard": 1},
		InstallationTargets: map[string]int{},
		Minerals:            map[string]float64{},
		MineralReserves:     map[string]float64{},
		ShipyardQueue: []worldstate.BuildOrder{
			{DesignId: "Scout", TonsRemaining: 20, CostPerTonMin: map[string]float64{}, RefitShipId: 99, HasRefitTarget: true},
		},
	}

	neverDocked := func(shipId simid.Id) bool { return false }

	result := ColonySchedule(col, nil, db, neverDocked, DefaultOptions())

	require.True(t, result.Ok)
	assert.True(t, result.Stalled)
	assert.Equal(t, KindRefitShipNotDocked, result.StallKind)
}
