// Command simcore is the thin CLI host around the simulation core: it
// loads configuration, builds a demo game, advances it a requested number
// of days, and prints the resulting event log. It owns no game logic of
// its own — every line of behavior lives in internal/sim and below,
// exactly like the teacher's cmd/oglike_server/main.go owns no OGame
// rules, only wiring (SPEC_FULL.md §4).
package main

import (
	"flag"
	"fmt"
	"runtime/debug"

	"nebulacore/internal/content"
	"nebulacore/internal/events"
	"nebulacore/internal/order"
	"nebulacore/internal/sim"
	"nebulacore/internal/simid"
	"nebulacore/internal/worldstate"
	"nebulacore/pkg/config"
	"nebulacore/pkg/logger"
)

func usage() {
	fmt.Println("Usage:")
	fmt.Println("./simcore -config=[file] -days=[n] -seed=[n] to advance a fresh demo game n days and print its event log")
}

func main() {
	help := flag.Bool("h", false, "Print usage")
	conf := flag.String("config", "", "Configuration file to customize app behavior (development/production)")
	days := flag.Int("days", 30, "Number of days to advance before reporting")
	seed := flag.Int64("seed", 1, "PRNG seed for the new game (spec.md §5: all randomness is seeded and saved)")

	flag.Parse()

	if *help {
		usage()
		return
	}

	meta, cfg, _, err := config.Load(*conf)
	if err != nil {
		panic(err)
	}

	log := logger.NewStdLogger()
	std, _ := log.(*logger.StdLogger)
	defer func() {
		if r := recover(); r != nil {
			log.Trace(logger.Fatal, "simcore", fmt.Sprintf("crashed: %v (stack: %s)", r, string(debug.Stack())))
		}
		if std != nil {
			std.Release()
		}
	}()

	log.Trace(logger.Info, "simcore", fmt.Sprintf("instance %s environment %q", meta.InstanceID, meta.Environment))

	db := demoContentDB()
	gs := sim.New(db, cfg, *seed)
	seedDemoGame(gs)

	log.Trace(logger.Info, "simcore", fmt.Sprintf("advancing %d day(s) from day %d", *days, gs.World.Day))
	sim.AdvanceDays(gs, *days)

	for _, e := range gs.World.Log.Since(0) {
		level := logger.Info
		switch e.Level {
		case events.Warn:
			level = logger.Warning
		case events.Error:
			level = logger.Error
		}
		log.Trace(level, string(e.Category), fmt.Sprintf("day %d hour %d: %s", e.Day, e.Hour, e.Message))
	}

	log.Trace(logger.Info, "simcore", fmt.Sprintf("done at day %d hour %d, save id %s", gs.World.Day, gs.World.HourOfDay, gs.SaveID))
}

// demoContentDB :
// Builds a minimal content database inline so this binary is runnable
// without an external asset pipeline (content/asset loading is explicit
// spec.md §1 Non-goals — a real host supplies its own loader). This is not
// a general-purpose loader, just enough defs to drive the demo colony and
// scout ship `seedDemoGame` creates.
func demoContentDB() *content.DB {
	db := content.New()

	db.Resources["Duranium"] = content.ResourceDef{Id: "Duranium", Mineable: true, Category: "Mineral"}

	db.Installations["Mine"] = content.InstallationDef{
		Id:               "Mine",
		IsMining:         true,
		MiningTonsPerDay: 20,
	}
	db.Installations["ConstructionYard"] = content.InstallationDef{
		Id:                    "ConstructionYard",
		IsConstruction:        true,
		ConstructionPointsDay: 10,
	}

	db.Designs["Scout"] = content.ShipDesign{
		Id:                  "Scout",
		Name:                "Scout",
		MassTons:            100,
		SpeedKmS:            5,
		FuelCapacityTons:    50,
		FuelUsePerMkm:       0.05,
		CargoCapacityTons:   20,
		SensorRangeMkm:      20,
		SignatureMultiplier: 1,
		MaxHp:               50,
		BuildRateTonsPerDay: 20,
		Role:                "Scout",
	}

	return db
}

// seedDemoGame :
// Populates `gs` with one system, one body, one faction, one colony and
// one idle scout ship, so `advance_days` has something to tick.
func seedDemoGame(gs *sim.GameState) {
	w := gs.World

	sysId := w.AllocateId()
	w.Systems[sysId] = &worldstate.StarSystem{Id: sysId, Name: "Sol"}

	bodyId := w.AllocateId()
	w.Bodies[bodyId] = &worldstate.Body{
		Id:              bodyId,
		SystemId:        sysId,
		Type:            worldstate.BodyPlanet,
		MineralDeposits: map[string]float64{"Duranium": 1_000_000},
	}
	w.Systems[sysId].BodyIds = append(w.Systems[sysId].BodyIds, bodyId)

	facId := w.AllocateId()
	w.Factions[facId] = &worldstate.Faction{
		Id:                     facId,
		Name:                   "Demo Faction",
		KnownTechs:             map[string]bool{},
		OutputBonuses:          map[string]float64{},
		MiningMultiplier:       1,
		IndustryMultiplier:     1,
		ConstructionMultiplier: 1,
		ShipyardMultiplier:     1,
		ResearchMultiplier:     1,
		DiscoveredSystems:      map[simid.Id]bool{sysId: true},
		ShipContacts:           map[simid.Id]worldstate.ContactTrack{},
		CustomDesigns:          map[string]string{},
		ReverseEngineering:     map[string]float64{},
		UnlockedComponents:     map[string]bool{},
		UnlockedInstallations:  map[string]bool{},
	}

	colonyId := w.AllocateId()
	w.Colonies[colonyId] = &worldstate.Colony{
		Id:                  colonyId,
		FactionId:           facId,
		BodyId:              bodyId,
		Name:                "Sol Prime",
		PopulationMillions:  1,
		Installations:       map[string]int{"Mine": 1, "ConstructionYard": 1},
		InstallationTargets: map[string]int{},
		Minerals:            map[string]float64{},
		MineralReserves:     map[string]float64{},
	}

	ship := &worldstate.Ship{
		Id:                   w.AllocateId(),
		FactionId:            facId,
		DesignId:             "Scout",
		Name:                 "SCS Pathfinder",
		Hp:                   50,
		Integrity:            worldstate.SubsystemIntegrity{Engines: 1, Sensors: 1, Weapons: 1, Shields: 1},
		FuelTons:             50,
		Cargo:                map[string]float64{},
		MaintenanceCondition: 1,
		SensorMode:           worldstate.SensorNormal,
	}
	w.Ships[ship.Id] = ship
	w.AddShipToSystem(ship, sysId)
	w.ShipOrders[ship.Id] = &order.ShipOrders{}
}
