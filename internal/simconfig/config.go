// Package simconfig defines SimConfig, the tunable knobs every subsystem and
// planner reads from (spec.md §6). It is a leaf package (no dependency on
// worldstate/content/order) so it can be imported by every tick subsystem
// and every planner without creating import cycles.
package simconfig

// SimConfig :
// Recognized simulation options (spec.md §6). Every field has the default
// noted in spec.md; `Default()` builds a config with all of them set so a
// caller only needs to override what it cares about.
type SimConfig struct {
	// Time
	SecondsPerDay     float64
	ArrivalEpsilonMkm float64
	DockingRangeMkm   float64

	// Sensors
	SensorModePassiveRangeMultiplier float64
	SensorModeNormalRangeMultiplier  float64
	SensorModeActiveRangeMultiplier  float64

	SensorModePassiveSignatureMultiplier float64
	SensorModeNormalSignatureMultiplier  float64
	SensorModeActiveSignatureMultiplier  float64

	MaxActiveSignatureMultiplier float64
	MinSignatureMultiplier       float64

	ContactUncertaintyGrowthFractionOfSpeed float64
	ContactUncertaintyMinMkmPerDay          float64
	ContactPredictionMaxDays                float64

	// Economy / transport
	AutoFreightMinTransferTons            float64
	AutoFreightMaxTakeFractionOfSurplus    float64
	AutoFreightMultiMineral                bool
	AutoTankerRequestThresholdFraction     float64
	AutoTankerFillTargetFraction           float64
	AutoTankerMinTransferTons              float64
	ColonistTransferMillionsPerDayPerCap   float64
	ColonistTransferMillionsPerDayMin      float64

	// Combat
	EnableCombat                 bool
	EnableMissileHitChance        bool
	BombardStandoffRangeFraction  float64
	EnableBoarding                bool
	BoardingRangeMkm              float64
	BoardingTargetHpFraction      float64
	BoardingMinAttackerTroops     float64
	BoardingDefenseHpFactor       float64
	BoardingCasualtyFraction      float64
	BoardingRequireShieldsDown    bool

	// Maintenance / repair
	EnableShipMaintenance                       bool
	ShipMaintenanceResourceId                   string
	ShipMaintenanceTonsPerDayPerMassTon          float64
	ShipMaintenanceRecoveryPerDay                float64
	ShipMaintenanceBreakdownStartFraction        float64
	ShipMaintenanceBreakdownRatePerDayAtZero     float64
	ShipMaintenanceBreakdownExponent             float64

	RepairHpPerDayPerShipyard              float64
	RepairDuraniumPerHp                    float64
	RepairNeutroniumPerHp                  float64
	ShipSubsystemRepairHpEquivPerIntegrity float64

	// Blockades
	EnableBlockades                  bool
	BlockadeHostileShipThreshold     int
	BlockadeRangeMkm                 float64
	BlockadeOutputMultiplier         float64

	// Salvage / reverse-engineering
	EnableSalvageResearch                        bool
	SalvageResearchRPMultiplier                  float64
	EnableReverseEngineering                     bool
	ReverseEngineeringPointsPerSalvagedTon       float64
	ReverseEngineeringPointsRequiredPerComponentTon float64
	ReverseEngineeringUnlockCapPerTick           int

	// Legacy / prototype behavior preserved verbatim from the source this
	// spec traces to (spec.md §9 open question): missing deposit entries
	// are treated as infinite unless this is turned off.
	TreatMissingDepositsAsInfinite bool
}

// Default :
// Builds the default SimConfig, matching every default called out in
// spec.md §6 (and conservative, explicitly-chosen values for options the
// spec leaves to the implementation).
func Default() SimConfig {
	return SimConfig{
		SecondsPerDay:     86400,
		ArrivalEpsilonMkm: 1e-3,
		DockingRangeMkm:   0.05,

		SensorModePassiveRangeMultiplier: 0.5,
		SensorModeNormalRangeMultiplier:  1.0,
		SensorModeActiveRangeMultiplier:  1.5,

		SensorModePassiveSignatureMultiplier: 0.3,
		SensorModeNormalSignatureMultiplier:  1.0,
		SensorModeActiveSignatureMultiplier:  2.0,

		MaxActiveSignatureMultiplier: 3.0,
		MinSignatureMultiplier:       0.05,

		ContactUncertaintyGrowthFractionOfSpeed: 0.1,
		ContactUncertaintyMinMkmPerDay:          0.01,
		ContactPredictionMaxDays:                14,

		AutoFreightMinTransferTons:          1,
		AutoFreightMaxTakeFractionOfSurplus: 1.0,
		AutoFreightMultiMineral:             true,
		AutoTankerRequestThresholdFraction:  0.5,
		AutoTankerFillTargetFraction:        1.0,
		AutoTankerMinTransferTons:           1,

		ColonistTransferMillionsPerDayPerCap: 0.1,
		ColonistTransferMillionsPerDayMin:    0.01,

		EnableCombat:                 true,
		EnableMissileHitChance:       false,
		BombardStandoffRangeFraction: 0.9,
		EnableBoarding:               true,
		BoardingRangeMkm:             0.05,
		BoardingTargetHpFraction:     0.2,
		BoardingMinAttackerTroops:    1,
		BoardingDefenseHpFactor:      1.0,
		BoardingCasualtyFraction:     0.1,
		BoardingRequireShieldsDown:   false,

		EnableShipMaintenance:                   true,
		ShipMaintenanceResourceId:               "Supplies",
		ShipMaintenanceTonsPerDayPerMassTon:      0.001,
		ShipMaintenanceRecoveryPerDay:            0.05,
		ShipMaintenanceBreakdownStartFraction:    0.5,
		ShipMaintenanceBreakdownRatePerDayAtZero: 0.2,
		ShipMaintenanceBreakdownExponent:         2.0,

		RepairHpPerDayPerShipyard:              50,
		RepairDuraniumPerHp:                    0.1,
		RepairNeutroniumPerHp:                  0.02,
		ShipSubsystemRepairHpEquivPerIntegrity: 10,

		EnableBlockades:              true,
		BlockadeHostileShipThreshold: 1,
		BlockadeRangeMkm:             5,
		BlockadeOutputMultiplier:     0.25,

		EnableSalvageResearch:                           true,
		SalvageResearchRPMultiplier:                     1.0,
		EnableReverseEngineering:                        true,
		ReverseEngineeringPointsPerSalvagedTon:           1.0,
		ReverseEngineeringPointsRequiredPerComponentTon: 50,
		ReverseEngineeringUnlockCapPerTick:              1,

		TreatMissingDepositsAsInfinite: true,
	}
}

// SensorModeRangeMultiplier, SensorModeSignatureMultiplier :
// Dispatch helpers keyed by an EMCON mode name, used by internal/sensors.
func (c SimConfig) SensorModeRangeMultiplier(mode string) float64 {
	switch mode {
	case "Passive":
		return c.SensorModePassiveRangeMultiplier
	case "Active":
		return c.SensorModeActiveRangeMultiplier
	default:
		return c.SensorModeNormalRangeMultiplier
	}
}

func (c SimConfig) SensorModeSignatureMultiplier(mode string) float64 {
	switch mode {
	case "Passive":
		return c.SensorModePassiveSignatureMultiplier
	case "Active":
		return c.SensorModeActiveSignatureMultiplier
	default:
		return c.SensorModeNormalSignatureMultiplier
	}
}
