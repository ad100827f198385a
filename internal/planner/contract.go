// Package planner implements the read-only forecast family (spec.md §4.10):
// research schedule, colony schedule, order planner, freight/fuel/repair/
// maintenance planners, and the planner-events aggregator. Every planner
// shares one contract (spec.md §4.10): a const borrow of world state plus
// content, explicit safety caps, and a result carrying `Ok`/`Stalled`/
// `Truncated` rather than a Go error — planners never abort partway, they
// stop forecasting and say why. None of them mutate the `*worldstate.State`
// they're handed; every entity they need to advance is copied first
// (worldstate.CloneShip/CloneColony), mirroring the "no aliasing" rule
// spec.md §3 states for planner working state.
package planner

// Kind :
// Tag for why a planner stopped forecasting before its cap was reached (spec.md §7:
// planners "set ok=true, stalled=true with a human-readable stall_reason and
// a kind hint" rather than skipping like a tick subsystem does).
type Kind string

const (
	KindNone                    Kind = ""
	KindInsufficientSupplies    Kind = "InsufficientSupplies"
	KindUnbuildableInstallation Kind = "UnbuildableInstallation"
	KindRefitShipNotDocked      Kind = "RefitShipNotDocked"
	KindQueueBlockedByPrereqs   Kind = "QueueBlockedByPrereqs"
	KindUnreachable             Kind = "Unreachable"
	KindInvalidTarget           Kind = "InvalidTarget"
	KindNoProgress              Kind = "NoProgress"
)

// Result :
// The shared envelope every planner result embeds (spec.md §4.10).
type Result struct {
	Ok                bool
	Stalled           bool
	StallReason       string
	StallKind         Kind
	Truncated         bool
	TruncatedReason   string
}

func ok() Result { return Result{Ok: true} }

func stalled(kind Kind, reason string) Result {
	return Result{Ok: true, Stalled: true, StallKind: kind, StallReason: reason}
}

func truncated(r Result, reason string) Result {
	r.Truncated = true
	r.TruncatedReason = reason
	return r
}

// Options :
// Safety caps shared by every planner (spec.md §5 "planners carry explicit
// safety caps").
type Options struct {
	MaxDays             int
	MaxItems            int
	MaxOrders           int
	MaxShips            int
	MaxCandidatesPerShip int
}

// DefaultOptions :
// Conservative caps suitable for a UI forecast call.
func DefaultOptions() Options {
	return Options{
		MaxDays:              365,
		MaxItems:             200,
		MaxOrders:            50,
		MaxShips:             500,
		MaxCandidatesPerShip: 20,
	}
}

func clampItems(n, max int) int {
	if max <= 0 || n <= max {
		return n
	}
	return max
}
