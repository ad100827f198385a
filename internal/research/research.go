// Package research implements faction research: RP accrual, queue
// promotion, and applying a completed tech's effects (spec.md §4.7).
package research

import (
	"fmt"

	"nebulacore/internal/content"
	"nebulacore/internal/events"
	"nebulacore/internal/simid"
	"nebulacore/internal/worldstate"
)

// Tick :
// Promotes the next eligible queued tech into `ActiveResearchId` if none is
// active, spends banked RP against it, and applies its effects on
// completion (spec.md §4.7), repeating within the same call while banked RP
// remains. A queued tech whose prereqs are not satisfied is skipped — it
// stays in the queue, logged once per call (the scheduler calls Tick once
// per day) in which it blocks progress, rather than discarded (spec.md §4.7
// edge case).
func Tick(state *worldstate.State, db *content.DB) {
	for _, facId := range state.SortedFactionIds() {
		fac := state.Factions[facId]
		tickFaction(state, db, facId, fac)
	}
}

func tickFaction(state *worldstate.State, db *content.DB, facId simid.Id, fac *worldstate.Faction) {
	for {
		if fac.ActiveResearchId == "" {
			techId, blockedOn, promoted := promoteQuiet(db, fac)
			if !promoted && len(blockedOn) > 0 {
				state.Log.Append(events.SimEvent{
					Day: state.Day, Hour: state.HourOfDay, Level: events.Warn, Category: events.Research,
					Kind: events.KindQueueBlockedByPrereqs, FactionId: facId,
					Message: fmt.Sprintf("tech %s blocked by missing prereqs %v", techId, blockedOn),
				})
			}
		}
		if fac.ActiveResearchId == "" {
			return
		}

		def, ok := db.Techs[fac.ActiveResearchId]
		if !ok {
			fac.ActiveResearchId = ""
			return
		}

		if !spendOneTech(fac, def) {
			return
		}
		state.Log.Append(events.SimEvent{
			Day: state.Day, Hour: state.HourOfDay, Level: events.Info, Category: events.Research,
			Message: fmt.Sprintf("faction %d completed tech %s", facId, def.Id), FactionId: facId,
		})
	}
}

// promoteQuiet :
// Scans the queue in order for the first tech whose prereqs are already
// satisfied, promotes it to active, and removes it from the queue. Returns
// the id and missing-prereq list of the first blocked entry encountered
// (spec.md §4.10.1: "stall reasons naming the missing prereqs of the
// blocking queue head") even when a later entry is promotable, since the
// head is still what's visibly stuck.
func promoteQuiet(db *content.DB, fac *worldstate.Faction) (blockedTechId string, blockedOn []string, promoted bool) {
	for i, techId := range fac.ResearchQueue {
		if fac.KnownTechs[techId] {
			continue
		}
		if !db.PrereqsSatisfied(techId, fac.KnownTechs) {
			if blockedTechId == "" {
				blockedTechId = techId
				blockedOn = db.MissingPrereqs(techId, fac.KnownTechs)
			}
			continue
		}
		fac.ActiveResearchId = techId
		fac.ResearchProgressRP = 0
		fac.ResearchQueue = append(append([]string{}, fac.ResearchQueue[:i]...), fac.ResearchQueue[i+1:]...)
		return "", nil, true
	}
	return blockedTechId, blockedOn, false
}

// spendOneTech :
// Spends as much of the bank as needed/available against the active tech,
// completing it (applying effects, clearing Active) when progress reaches
// cost. Returns true iff the tech completed this call.
func spendOneTech(fac *worldstate.Faction, def content.TechDef) bool {
	take := fac.ResearchBankRP
	need := def.CostRP - fac.ResearchProgressRP
	if take > need {
		take = need
	}
	if take < 0 {
		take = 0
	}
	fac.ResearchProgressRP += take
	fac.ResearchBankRP -= take

	if fac.ResearchProgressRP < def.CostRP-worldstate.Epsilon {
		return false
	}

	completeTech(fac, def)
	return true
}

func completeTech(fac *worldstate.Faction, def content.TechDef) {
	if fac.KnownTechs == nil {
		fac.KnownTechs = make(map[string]bool)
	}
	fac.KnownTechs[def.Id] = true
	fac.ActiveResearchId = ""
	fac.ResearchProgressRP = 0

	for _, eff := range def.Effects {
		switch eff.Kind {
		case content.EffectUnlockComponent:
			if fac.UnlockedComponents == nil {
				fac.UnlockedComponents = make(map[string]bool)
			}
			fac.UnlockedComponents[eff.Target] = true
		case content.EffectUnlockInstallation:
			if fac.UnlockedInstallations == nil {
				fac.UnlockedInstallations = make(map[string]bool)
			}
			fac.UnlockedInstallations[eff.Target] = true
		case content.EffectOutputBonus:
			if fac.OutputBonuses == nil {
				fac.OutputBonuses = make(map[string]float64)
			}
			fac.OutputBonuses[eff.Target] += eff.Amount
			applyOutputBonus(fac, eff.Target)
		}
	}
}

// applyOutputBonus :
// Refreshes the cached multiplier fields on Faction from OutputBonuses
// (spec.md §4.7: "effective multiplier = 1 + sum of additive bonuses").
func applyOutputBonus(fac *worldstate.Faction, key string) {
	mult := 1 + fac.OutputBonuses[key]
	switch key {
	case "mining":
		fac.MiningMultiplier = mult
	case "industry":
		fac.IndustryMultiplier = mult
	case "construction":
		fac.ConstructionMultiplier = mult
	case "shipyard":
		fac.ShipyardMultiplier = mult
	case "research":
		fac.ResearchMultiplier = mult
	}
}

// DayStepResult :
// What happened advancing a faction's research by one simulated day
// (spec.md §4.10.1 research schedule planner).
type DayStepResult struct {
	Completed     []content.TechDef
	Blocked       bool
	BlockedTechId string
	BlockedOn     []string
	WasActiveAtStart bool
	ActiveAtStart string
	ProgressAtStart float64
}

// StepFactionDay :
// The research planner's day-granular mirror of Tick (spec.md §4.10.1): adds
// one day of RP at `rpGainPerDay` (the caller's already-multiplied figure,
// held constant for the forecast since colony installation counts aren't
// part of the faction copy a planner works against), then promotes/spends/
// completes exactly like the tick, repeating completions within the same
// day while RP remains (spec.md §4.7 "repeat within the same day if RP
// remains"). Operates entirely on the caller's *worldstate.Faction, which
// must already be a working copy (worldstate.CloneFaction), never live
// state.
func StepFactionDay(fac *worldstate.Faction, db *content.DB, rpGainPerDay float64) DayStepResult {
	result := DayStepResult{
		WasActiveAtStart: fac.ActiveResearchId != "",
		ActiveAtStart:    fac.ActiveResearchId,
		ProgressAtStart:  fac.ResearchProgressRP,
	}
	fac.ResearchBankRP += rpGainPerDay

	for {
		if fac.ActiveResearchId == "" {
			blockedTechId, blockedOn, promoted := promoteQuiet(db, fac)
			if !promoted {
				if blockedTechId != "" {
					result.Blocked = true
					result.BlockedTechId = blockedTechId
					result.BlockedOn = blockedOn
				}
				return result
			}
		}
		def, ok := db.Techs[fac.ActiveResearchId]
		if !ok {
			fac.ActiveResearchId = ""
			continue
		}
		if !spendOneTech(fac, def) {
			return result
		}
		result.Completed = append(result.Completed, def)
	}
}
