// Package events implements the simulation's append-only diagnostic log
// (spec.md §7): every SimEvent is the canonical surface a host uses to
// understand what the tick scheduler did, since subsystems never propagate
// errors up as Go errors — they record an event and move on.
package events

import (
	"encoding/json"

	"nebulacore/internal/simid"
)

// Level :
// Severity of a SimEvent.
type Level string

const (
	Info  Level = "Info"
	Warn  Level = "Warn"
	Error Level = "Error"
)

// Category :
// The subsystem that produced a SimEvent.
type Category string

const (
	General      Category = "General"
	Combat       Category = "Combat"
	Shipyard     Category = "Shipyard"
	Construction Category = "Construction"
	Research     Category = "Research"
	Diplomacy    Category = "Diplomacy"
	Movement     Category = "Movement"
	Maintenance  Category = "Maintenance"
)

// Kind :
// Tagged error kind (spec.md §7), carried alongside the human-readable
// `Message` so a host can branch on the failure without string-matching.
type Kind string

const (
	KindNone                   Kind = ""
	KindInvalidTarget          Kind = "InvalidTarget"
	KindInsufficientFuel       Kind = "InsufficientFuel"
	KindInsufficientSupplies   Kind = "InsufficientSupplies"
	KindUnreachable            Kind = "Unreachable"
	KindUnbuildableInstallation Kind = "UnbuildableInstallation"
	KindRefitShipNotDocked     Kind = "RefitShipNotDocked"
	KindQueueBlockedByPrereqs  Kind = "QueueBlockedByPrereqs"
	KindNoProgress             Kind = "NoProgress"
)

// SimEvent :
// One entry in the event log. `Seq` is monotonically increasing across the
// entire log regardless of category, guaranteeing a total order even when
// several subsystems append events within the same sub-step.
type SimEvent struct {
	Day       int64
	Hour      int
	Seq       int64
	Level     Level
	Category  Category
	Kind      Kind
	Message   string
	FactionId simid.Id
	SystemId  simid.Id
	ShipId    simid.Id
	ColonyId  simid.Id
}

// Log :
// The append-only event log. Owned exclusively by the world state; never
// truncated by the core itself (a host may decide to archive/trim it
// out-of-band between saves).
type Log struct {
	entries []SimEvent
	nextSeq int64
}

// NewLog :
// Builds an empty log.
func NewLog() *Log {
	return &Log{}
}

// RestoreLog :
// Rebuilds a log from persisted entries and the persisted `next_event_seq`
// counter (spec.md §3).
func RestoreLog(entries []SimEvent, nextSeq int64) *Log {
	return &Log{entries: entries, nextSeq: nextSeq}
}

// Append :
// Appends a new event, stamping it with the next sequence number. The
// caller supplies everything but `Seq`.
func (l *Log) Append(e SimEvent) SimEvent {
	e.Seq = l.nextSeq
	l.nextSeq++
	l.entries = append(l.entries, e)
	return e
}

// Entries :
// Returns the full log in append (and therefore seq) order. The returned
// slice must not be mutated by the caller.
func (l *Log) Entries() []SimEvent {
	return l.entries
}

// NextSeq :
// Returns the sequence number that would be assigned to the next appended
// event, for persistence.
func (l *Log) NextSeq() int64 {
	return l.nextSeq
}

// Since :
// Returns the suffix of the log with Seq >= fromSeq, useful for a host that
// wants to display only new events since it last polled.
func (l *Log) Since(fromSeq int64) []SimEvent {
	out := make([]SimEvent, 0)
	for _, e := range l.entries {
		if e.Seq >= fromSeq {
			out = append(out, e)
		}
	}
	return out
}

// logDTO mirrors Log's unexported fields for JSON round-tripping.
type logDTO struct {
	Entries []SimEvent `json:"entries"`
	NextSeq int64      `json:"next_seq"`
}

// MarshalJSON :
func (l *Log) MarshalJSON() ([]byte, error) {
	return json.Marshal(logDTO{Entries: l.entries, NextSeq: l.nextSeq})
}

// UnmarshalJSON :
func (l *Log) UnmarshalJSON(b []byte) error {
	var dto logDTO
	if err := json.Unmarshal(b, &dto); err != nil {
		return err
	}
	l.entries = dto.Entries
	l.nextSeq = dto.NextSeq
	return nil
}
