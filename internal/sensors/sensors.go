// Package sensors implements detection and per-faction contact tracks
// (spec.md §4.3): which sensor sources see which foreign ships, and the
// remembered sightings combat, lead pursuit and the UI read from.
package sensors

import (
	"math"

	"nebulacore/internal/content"
	"nebulacore/internal/simconfig"
	"nebulacore/internal/simid"
	"nebulacore/internal/worldstate"
)

func dist(a, b worldstate.Vec2) float64 {
	dx := a.X - b.X
	dy := a.Y - b.Y
	return math.Sqrt(dx*dx + dy*dy)
}

// EffectiveSensorRange :
// `design.sensor_range_mkm * mode_range_multiplier * power_availability_flag`
// (spec.md §4.3).
func EffectiveSensorRange(design content.ShipDesign, mode worldstate.SensorMode, cfg simconfig.SimConfig, powerAvailable bool) float64 {
	if !powerAvailable {
		return 0
	}
	return design.SensorRangeMkm * cfg.SensorModeRangeMultiplier(string(mode))
}

// SignatureMultiplier :
// Base design stealth times the EMCON mode multiplier, clamped to
// [MinSignatureMultiplier, MaxActiveSignatureMultiplier] (spec.md §3
// invariant, §4.3).
func SignatureMultiplier(design content.ShipDesign, mode worldstate.SensorMode, cfg simconfig.SimConfig) float64 {
	sig := design.SignatureMultiplier * cfg.SensorModeSignatureMultiplier(string(mode))
	if sig < cfg.MinSignatureMultiplier {
		sig = cfg.MinSignatureMultiplier
	}
	if sig > cfg.MaxActiveSignatureMultiplier {
		sig = cfg.MaxActiveSignatureMultiplier
	}
	return sig
}

// Detects :
// `|T - S| <= R * sigma` (spec.md §4.3).
func Detects(sourcePos worldstate.Vec2, rangeMkm float64, targetPos worldstate.Vec2, sigMultiplier float64) bool {
	return dist(sourcePos, targetPos) <= rangeMkm*sigMultiplier
}

// ColonySensorRange :
// The max sensor range across a colony's installations; ranges do not
// stack (spec.md §4.3).
func ColonySensorRange(colony *worldstate.Colony, db *content.DB) float64 {
	best := 0.0
	for _, instId := range worldstate.SortedStringKeysInt(colony.Installations) {
		count := colony.Installations[instId]
		if count <= 0 {
			continue
		}
		def, ok := db.Installations[instId]
		if !ok || def.SensorRangeMkm <= 0 {
			continue
		}
		if def.SensorRangeMkm > best {
			best = def.SensorRangeMkm
		}
	}
	return best
}

// MutualFriendly :
// Called by Tick to decide whether faction a's sensor coverage should be
// shared with faction b (spec.md §4.3: "mutual-friendly factions share
// sensor coverage"). Implemented as a callback so this package never needs
// to import internal/diplomacy.
type MutualFriendly func(a, b simid.Id) bool

// Tick :
// Recomputes detection for every sensor source each sub-step and refreshes
// contact tracks. Iteration is over sorted id snapshots throughout for
// determinism (spec.md §5).
func Tick(state *worldstate.State, db *content.DB, cfg simconfig.SimConfig, friendly MutualFriendly) {
	type source struct {
		factionId simid.Id
		systemId  simid.Id
		pos       worldstate.Vec2
		rangeMkm  float64
	}

	sourcesBySystem := make(map[simid.Id][]source)

	for _, shipId := range state.SortedShipIds() {
		ship := state.Ships[shipId]
		design, ok := db.Designs[ship.DesignId]
		if !ok {
			continue
		}
		powerAvailable := ship.Integrity.Sensors > 0
		r := EffectiveSensorRange(design, ship.SensorMode, cfg, powerAvailable) * ship.Integrity.Sensors
		if r <= 0 {
			continue
		}
		sourcesBySystem[ship.SystemId] = append(sourcesBySystem[ship.SystemId], source{ship.FactionId, ship.SystemId, ship.Position, r})
	}

	for _, colonyId := range state.SortedColonyIds() {
		col := state.Colonies[colonyId]
		body, ok := state.Bodies[col.BodyId]
		if !ok {
			continue
		}
		r := ColonySensorRange(col, db)
		if r <= 0 {
			continue
		}
		sourcesBySystem[body.SystemId] = append(sourcesBySystem[body.SystemId], source{col.FactionId, body.SystemId, body.Position, r})
	}

	// Faction -> set of factions whose coverage it can see through (itself + mutual friends).
	factionIds := state.SortedFactionIds()

	for _, targetId := range state.SortedShipIds() {
		target := state.Ships[targetId]
		design, ok := db.Designs[target.DesignId]
		if !ok {
			continue
		}
		sig := SignatureMultiplier(design, target.SensorMode, cfg)

		for _, viewerId := range factionIds {
			if viewerId == target.FactionId {
				continue
			}
			detected := false
			for _, src := range sourcesBySystem[target.SystemId] {
				if src.factionId != viewerId && !friendly(src.factionId, viewerId) {
					continue
				}
				if Detects(src.pos, src.rangeMkm, target.Position, sig) {
					detected = true
					break
				}
			}
			if detected {
				updateContact(state, viewerId, target)
			}
		}
	}

	pruneStaleContacts(state, cfg)
}

func updateContact(state *worldstate.State, viewerId simid.Id, target *worldstate.Ship) {
	fac, ok := state.Factions[viewerId]
	if !ok {
		return
	}
	if fac.ShipContacts == nil {
		fac.ShipContacts = make(map[simid.Id]worldstate.ContactTrack)
	}
	prev, had := fac.ShipContacts[target.Id]

	track := worldstate.ContactTrack{
		TargetShipId:  target.Id,
		LastSeenDay:   state.Day,
		Position:      target.Position,
		DesignId:      target.DesignId,
		FactionId:     target.FactionId,
		HasTwoSamples: false,
	}

	if had {
		track.PrevPosition = prev.Position
		track.PrevSeenDay = prev.LastSeenDay
		dt := float64(state.Day - prev.LastSeenDay)
		if dt > 0 {
			track.VelocityEstimate = worldstate.Vec2{
				X: (target.Position.X - prev.Position.X) / dt,
				Y: (target.Position.Y - prev.Position.Y) / dt,
			}
			track.HasTwoSamples = true
		} else {
			track.VelocityEstimate = prev.VelocityEstimate
			track.HasTwoSamples = prev.HasTwoSamples
		}
	}

	speed := math.Hypot(track.VelocityEstimate.X, track.VelocityEstimate.Y)
	track.UncertaintyMkm = 0 // freshly seen this step: no uncertainty yet.
	_ = speed

	fac.ShipContacts[target.Id] = track
}

func pruneStaleContacts(state *worldstate.State, cfg simconfig.SimConfig) {
	for _, facId := range state.SortedFactionIds() {
		fac := state.Factions[facId]
		for _, targetId := range sortedContactKeys(fac.ShipContacts) {
			track := fac.ShipContacts[targetId]
			age := float64(state.Day - track.LastSeenDay)
			if age > cfg.ContactPredictionMaxDays {
				delete(fac.ShipContacts, targetId)
				continue
			}
			speed := math.Hypot(track.VelocityEstimate.X, track.VelocityEstimate.Y)
			track.UncertaintyMkm = age * (cfg.ContactUncertaintyGrowthFractionOfSpeed*speed + cfg.ContactUncertaintyMinMkmPerDay)
			fac.ShipContacts[targetId] = track
		}
	}
}

func sortedContactKeys(m map[simid.Id]worldstate.ContactTrack) []simid.Id {
	out := make([]simid.Id, 0, len(m))
	for id := range m {
		out = append(out, id)
	}
	for i := 1; i < len(out); i++ {
		for j := i; j > 0 && out[j] < out[j-1]; j-- {
			out[j], out[j-1] = out[j-1], out[j]
		}
	}
	return out
}

// PredictPosition :
// Linear extrapolation of a contact track `dt` days after `LastSeenDay`,
// used by lead-pursuit intercept solving (spec.md §4.2 step 3).
func PredictPosition(track worldstate.ContactTrack, dt float64) worldstate.Vec2 {
	return worldstate.Vec2{
		X: track.Position.X + track.VelocityEstimate.X*dt,
		Y: track.Position.Y + track.VelocityEstimate.Y*dt,
	}
}
