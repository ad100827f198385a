package order

import "math"

// Epsilon :
// Arrival/zero-quantity tolerance, matching worldstate.Epsilon (kept as a
// private constant here so this package has no dependency on worldstate).
const Epsilon = 1e-9

// MoveResult :
// What StepPosition decided for this sub-step.
type MoveResult struct {
	NewPosition  Vec2
	Arrived      bool
	DistanceMkm  float64
	FuelTons     float64 // fuel consumed this sub-step
	Stalled      bool    // true if the ship could not move at all (no fuel)
}

func dist(a, b Vec2) float64 {
	return Dist(a, b)
}

// Dist :
// Euclidean distance between two positions, exported so sibling packages
// (internal/sim) don't each reimplement it.
func Dist(a, b Vec2) float64 {
	dx := a.X - b.X
	dy := a.Y - b.Y
	return math.Sqrt(dx*dx + dy*dy)
}

func normalize(v Vec2) Vec2 {
	m := math.Sqrt(v.X*v.X + v.Y*v.Y)
	if m < Epsilon {
		return Vec2{}
	}
	return Vec2{X: v.X / m, Y: v.Y / m}
}

// StepPosition :
// Advances `pos` toward `target` by at most `speedMkmPerDay*dtDays`, clamped
// so it never overshoots (spec.md §4.2 step 1). `fuelTons`/`fuelPerMkm`
// determine how far the ship can actually travel this sub-step: a ship with
// insufficient fuel moves as far as it can afford and reports Stalled only
// if it could not move at all.
func StepPosition(pos, target Vec2, speedMkmPerDay, dtDays, fuelTons, fuelPerMkm, arrivalEpsilonMkm float64) MoveResult {
	remaining := dist(pos, target)
	if remaining <= arrivalEpsilonMkm {
		return MoveResult{NewPosition: target, Arrived: true}
	}

	maxMkm := speedMkmPerDay * dtDays
	if fuelPerMkm > Epsilon {
		fuelLimitMkm := fuelTons / fuelPerMkm
		if fuelLimitMkm < maxMkm {
			maxMkm = fuelLimitMkm
		}
	}

	if maxMkm <= Epsilon {
		return MoveResult{NewPosition: pos, Stalled: true}
	}

	travel := maxMkm
	arrived := false
	if travel >= remaining {
		travel = remaining
		arrived = true
	}

	dir := normalize(Vec2{X: target.X - pos.X, Y: target.Y - pos.Y})
	newPos := Vec2{X: pos.X + dir.X*travel, Y: pos.Y + dir.Y*travel}
	fuelUsed := travel * fuelPerMkm

	return MoveResult{NewPosition: newPos, Arrived: arrived, DistanceMkm: travel, FuelTons: fuelUsed}
}

// InterceptPoint :
// Lead-pursuit fixed-point solve (spec.md §4.2 step 3): finds the point
// `shooterSpeed` can reach in the same time the target, moving at constant
// `targetVelocity` from `targetPos`, would take to reach it. Converges in a
// handful of iterations since the correction shrinks geometrically; capped
// at `maxIterations` (8 per spec.md) so a degenerate case (target faster
// than shooter) still terminates.
func InterceptPoint(shooterPos Vec2, shooterSpeed float64, targetPos, targetVelocity Vec2, maxIterations int) Vec2 {
	if shooterSpeed <= Epsilon {
		return targetPos
	}
	estimate := targetPos
	for i := 0; i < maxIterations; i++ {
		d := dist(shooterPos, estimate)
		t := d / shooterSpeed
		next := Vec2{X: targetPos.X + targetVelocity.X*t, Y: targetPos.Y + targetVelocity.Y*t}
		if dist(next, estimate) < Epsilon {
			estimate = next
			break
		}
		estimate = next
	}
	return estimate
}

// SearchOffset :
// Deterministic angular fan offset used once a pursued target is lost and
// its last-known position has been reached without re-detection (spec.md
// §4.2 step 3). `waypointIndex` selects one of 8 equally spaced compass
// points at `radiusMkm`, seeded once per loss so repeated calls within the
// same search don't jitter.
func SearchOffset(waypointIndex int, radiusMkm float64) Vec2 {
	const spokes = 8
	angle := 2 * math.Pi * float64(waypointIndex%spokes) / spokes
	return Vec2{X: radiusMkm * math.Cos(angle), Y: radiusMkm * math.Sin(angle)}
}
