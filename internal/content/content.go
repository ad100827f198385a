// Package content holds the read-only content database the simulation core
// consumes: ship designs, components, installations, techs and resources
// (spec.md §6). Loading these definitions from whatever asset format the
// host uses is explicitly out of scope (spec.md §1 Non-goals); this package
// only owns the in-memory shape and the lookups the core performs against it.
package content

import "sort"

// ComponentType :
// The closed set of component kinds a ship design can be built from.
type ComponentType string

const (
	ComponentEngine      ComponentType = "Engine"
	ComponentReactor     ComponentType = "Reactor"
	ComponentFuelTank    ComponentType = "FuelTank"
	ComponentCargo       ComponentType = "Cargo"
	ComponentMining      ComponentType = "Mining"
	ComponentSensor      ComponentType = "Sensor"
	ComponentWeapon      ComponentType = "Weapon"
	ComponentArmor       ComponentType = "Armor"
	ComponentShield      ComponentType = "Shield"
	ComponentColonyMod   ComponentType = "ColonyModule"
	ComponentTroopBay    ComponentType = "TroopBay"
)

// ComponentDef :
// Definition of a single ship component. Only the fields relevant to the
// component's `Type` are meaningful; the rest are left at their zero value.
type ComponentDef struct {
	Id               string
	Type             ComponentType
	MassTons         float64
	EnginePowerMkmD  float64 // engine: mkm/day contribution at full power
	ReactorPower     float64 // reactor: power generated
	FuelTons         float64 // fuel tank: capacity contributed
	CargoTons        float64 // cargo: capacity contributed
	MiningTonsPerDay float64 // mining: base extraction rate
	SensorRangeMkm   float64 // sensor: detection range contributed
	WeaponDamage     float64 // weapon: beam damage per day or missile payload
	WeaponRangeMkm   float64
	IsMissile        bool
	MissileSpeedMkmD float64
	ArmorHp          float64
	ShieldHp         float64
	ColonyCapacityM  float64 // colony module: millions of colonists carried
	TroopCapacity    float64
}

// ShipDesign :
// Definition of a buildable/flyable ship design (spec.md §6).
type ShipDesign struct {
	Id                   string
	Name                 string
	MassTons             float64
	SpeedKmS             float64
	FuelCapacityTons     float64
	FuelUsePerMkm        float64
	CargoCapacityTons    float64
	SensorRangeMkm       float64
	SignatureMultiplier  float64
	ECM                  float64
	ECCM                 float64
	PowerGeneration      float64
	PowerUse             float64
	MaxHp                float64
	MaxShields           float64
	BeamDamage           float64
	BeamRangeMkm         float64
	MissileAmmoCapacity  int
	MissileReloadDays    float64
	MissileSpeedMkmD     float64
	MissileRangeMkm      float64
	MissilePayload       float64
	PointDefenseDamage   float64
	PointDefenseRangeMkm float64
	ColonyCapacityM      float64
	TroopCapacity        float64
	BuildRateTonsPerDay  float64
	Role                 string
	ComponentIds         []string
}

// InstallationDef :
// Definition of a colony installation (mine, factory, shipyard, research
// lab, construction yard, sensor station, point-defense battery, ...).
type InstallationDef struct {
	Id                     string
	BuildCosts             map[string]float64 // minerals paid once, when the queued unit is first worked at the head of the construction queue (shipyards/ships use per-ton costs instead)
	ConstructionCostCP     float64
	ConstructionPointsDay  float64 // contributed to a colony's construction capacity when this IS a construction installation
	ConsumesPerDay         map[string]float64
	ProducesPerDay         map[string]float64
	ResearchPointsPerDay   float64
	ShipyardBuildRateTons  float64
	MiningTonsPerDay       float64
	IsMining               bool
	IsConstruction         bool
	SensorRangeMkm         float64
	PointDefenseDamage     float64
	PointDefenseRangeMkm   float64
}

// TechEffectKind :
// The closed set of effects a completed tech can apply.
type TechEffectKind string

const (
	EffectUnlockComponent    TechEffectKind = "unlock_component"
	EffectUnlockInstallation TechEffectKind = "unlock_installation"
	EffectOutputBonus        TechEffectKind = "faction_output_bonus"
)

// TechEffect :
// A single effect applied when a tech completes.
type TechEffect struct {
	Kind      TechEffectKind
	Target    string  // component id / installation id / output-bonus key
	Amount    float64 // relative amount, only meaningful for EffectOutputBonus
}

// TechDef :
// Definition of a research project.
type TechDef struct {
	Id       string
	CostRP   float64
	Prereqs  []string
	Effects  []TechEffect
}

// ResourceDef :
// Definition of a raw/refined resource (mineral) tracked on bodies and in
// colony/ship cargo.
type ResourceDef struct {
	Id                string
	Mineable          bool
	SalvageRPCoeff    float64
	Category          string
}

// DB :
// The read-only content database. Set once at init from whatever the host
// loads (spec.md §1 Non-goals excludes the asset format itself), then never
// mutated for the lifetime of the process — the only global mutable state
// permitted by spec.md §9 is this content DB, and it is read-only once built.
type DB struct {
	Designs       map[string]ShipDesign
	Components    map[string]ComponentDef
	Installations map[string]InstallationDef
	Techs         map[string]TechDef
	Resources     map[string]ResourceDef
}

// New :
// Builds an empty content DB ready to be populated by a host-specific
// loader (JSON, embedded data, etc.).
func New() *DB {
	return &DB{
		Designs:       make(map[string]ShipDesign),
		Components:    make(map[string]ComponentDef),
		Installations: make(map[string]InstallationDef),
		Techs:         make(map[string]TechDef),
		Resources:     make(map[string]ResourceDef),
	}
}

// SortedDesignIds, SortedInstallationIds, SortedTechIds, SortedResourceIds :
// Deterministic key snapshots (spec.md §5: "iteration over hash maps must
// be replaced with sort-by-key snapshots at every use site where output
// order matters").
func (d *DB) SortedDesignIds() []string       { return sortedKeysSD(d.Designs) }
func (d *DB) SortedInstallationIds() []string { return sortedKeysID(d.Installations) }
func (d *DB) SortedTechIds() []string         { return sortedKeysTD(d.Techs) }
func (d *DB) SortedResourceIds() []string     { return sortedKeysRD(d.Resources) }

func sortedKeysSD(m map[string]ShipDesign) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func sortedKeysID(m map[string]InstallationDef) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func sortedKeysTD(m map[string]TechDef) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func sortedKeysRD(m map[string]ResourceDef) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// DesignMiningTonsPerDay :
// Sums the mining rate of every Mining-type component fitted to a design
// (spec.md §4.6 ship-based mining).
func (d *DB) DesignMiningTonsPerDay(design ShipDesign) float64 {
	total := 0.0
	for _, compId := range design.ComponentIds {
		comp, ok := d.Components[compId]
		if ok && comp.Type == ComponentMining {
			total += comp.MiningTonsPerDay
		}
	}
	return total
}

// PrereqsSatisfied :
// Returns true iff every prereq of `tech` is present in `known`.
func (d *DB) PrereqsSatisfied(techID string, known map[string]bool) bool {
	t, ok := d.Techs[techID]
	if !ok {
		return false
	}
	for _, p := range t.Prereqs {
		if !known[p] {
			return false
		}
	}
	return true
}

// MissingPrereqs :
// Returns the prereqs of `tech` not present in `known`, sorted, for use in
// stall-reason messages (spec.md §4.10.1).
func (d *DB) MissingPrereqs(techID string, known map[string]bool) []string {
	t, ok := d.Techs[techID]
	if !ok {
		return []string{techID}
	}
	missing := make([]string, 0)
	for _, p := range t.Prereqs {
		if !known[p] {
			missing = append(missing, p)
		}
	}
	sort.Strings(missing)
	return missing
}
