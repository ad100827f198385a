package store

import (
	"errors"
	"strings"
)

// Sentinel errors (spec.md §7's "tagged variant, never a type hierarchy"
// idiom carried to this package's own error surface, mirroring the
// teacher's `ErrInvalidPlanetForAction`-style declarations).
var (
	ErrNotConnected  = errors.New("store: not connected to save-game database")
	ErrSaveNotFound  = errors.New("store: save not found")
	ErrDuplicateSave = errors.New("store: a save with this id already exists")
)

// ErrorType :
// Convenience named values for common SQL errors, used to translate a raw
// Postgres error string into something `SaveGameRepository` callers can
// branch on without string-matching.
type ErrorType int

const (
	DuplicatedElement ErrorType = iota
	ForeignKeyViolation
	Unknown
)

func getDuplicatedElementErrorKey() string    { return "SQLSTATE 23505" }
func getForeignKeyViolationErrorKey() string  { return "SQLSTATE 23503" }

// ClassifySQLError :
// Maps a raw Postgres error string to a named ErrorType.
//
// Returns the classified error type, or Unknown if nothing matches.
func ClassifySQLError(errStr string) ErrorType {
	if strings.Contains(errStr, getDuplicatedElementErrorKey()) {
		return DuplicatedElement
	}
	if strings.Contains(errStr, getForeignKeyViolationErrorKey()) {
		return ForeignKeyViolation
	}
	return Unknown
}

// formatDBError :
// Replaces a raw DB error carrying the duplicate-key SQLSTATE with
// `ErrDuplicateSave`, so callers can use `errors.Is` instead of matching
// driver-specific text. Every other error, including a foreign-key
// violation, is returned unchanged.
func formatDBError(err error) error {
	if err == nil {
		return nil
	}
	if ClassifySQLError(err.Error()) == DuplicatedElement {
		return ErrDuplicateSave
	}
	return err
}
