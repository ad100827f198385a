package simid

import (
	"fmt"
)

// Date :
// Days since a fixed epoch (2200-01-01), the wall-clock half of the
// simulation's `(date, hour_of_day)` pair (spec.md §3). All arithmetic here
// is pure integer math over the proleptic Gregorian calendar (Howard
// Hinnant's civil_from_days / days_from_civil algorithms) — no wall-clock
// reads, so two runs from the same seed stay byte-identical.
type Date struct {
	days int64
}

// epochCivilDays is days_from_civil(2200, 1, 1) relative to 1970-01-01,
// used only to translate between the simulation epoch and the Gregorian
// calendar; it is never compared against an actual wall clock.
var epochCivilDays = daysFromCivil(2200, 1, 1)

// FromDaysSinceEpoch :
// Builds a Date directly from a day offset relative to 2200-01-01.
func FromDaysSinceEpoch(days int64) Date {
	return Date{days: days}
}

// FromYMD :
// Builds the Date corresponding to the given Gregorian calendar date.
// Panics on an out-of-range month/day, matching the source's throwing
// behavior (callers are expected to validate user input before this call).
func FromYMD(year, month, day int) Date {
	if month < 1 || month > 12 {
		panic(fmt.Errorf("month out of range: %d", month))
	}
	if day < 1 || day > 31 {
		panic(fmt.Errorf("day out of range: %d", day))
	}
	d := daysFromCivil(int64(year), month, day)
	return Date{days: d - epochCivilDays}
}

// ParseISO :
// Parses a "YYYY-MM-DD" string into a Date. Panics on malformed input.
func ParseISO(iso string) Date {
	if len(iso) != 10 || iso[4] != '-' || iso[7] != '-' {
		panic(fmt.Errorf("invalid date format, expected YYYY-MM-DD: %s", iso))
	}
	var y, m, d int
	if _, err := fmt.Sscanf(iso, "%04d-%02d-%02d", &y, &m, &d); err != nil {
		panic(fmt.Errorf("invalid date format, expected YYYY-MM-DD: %s (%v)", iso, err))
	}
	return FromYMD(y, m, d)
}

// DaysSinceEpoch :
// Returns the raw day offset relative to 2200-01-01.
func (d Date) DaysSinceEpoch() int64 {
	return d.days
}

// AddDays :
// Returns the Date `delta` days after (or before, if negative) `d`.
func (d Date) AddDays(delta int64) Date {
	return Date{days: d.days + delta}
}

// YMD :
// The year/month/day breakdown of a Date.
type YMD struct {
	Year, Month, Day int
}

// ToYMD :
// Converts the Date back to a Gregorian calendar YMD triple.
func (d Date) ToYMD() YMD {
	y, m, day := civilFromDays(d.days + epochCivilDays)
	return YMD{Year: int(y), Month: m, Day: day}
}

// String :
// Renders the Date as "YYYY-MM-DD".
func (d Date) String() string {
	ymd := d.ToYMD()
	return fmt.Sprintf("%04d-%02d-%02d", ymd.Year, ymd.Month, ymd.Day)
}

// Before, After, Equal provide the handful of comparisons the scheduler and
// planners need without exposing the raw day count as a public field.
func (d Date) Before(o Date) bool { return d.days < o.days }
func (d Date) After(o Date) bool  { return d.days > o.days }
func (d Date) Equal(o Date) bool  { return d.days == o.days }

// daysFromCivil implements Howard Hinnant's days-since-1970-01-01 algorithm.
func daysFromCivil(y int64, m, d int) int64 {
	yy := y
	if m <= 2 {
		yy--
	}
	var era int64
	if yy >= 0 {
		era = yy / 400
	} else {
		era = (yy - 399) / 400
	}
	yoe := yy - era*400
	mShift := int64(m) + 9
	if m > 2 {
		mShift = int64(m) - 3
	}
	doy := (153*mShift+2)/5 + int64(d) - 1
	doe := yoe*365 + yoe/4 - yoe/100 + doy
	return era*146097 + doe - 719468
}

// civilFromDays implements the inverse of daysFromCivil.
func civilFromDays(z int64) (year int64, month, day int) {
	z += 719468
	var era int64
	if z >= 0 {
		era = z / 146097
	} else {
		era = (z - 146096) / 146097
	}
	doe := z - era*146097
	yoe := (doe - doe/1460 + doe/36524 - doe/146096) / 365
	y := yoe + era*400
	doy := doe - (365*yoe + yoe/4 - yoe/100)
	mp := (5*doy + 2) / 153
	d := doy - (153*mp+2)/5 + 1
	var m int64
	if mp < 10 {
		m = mp + 3
	} else {
		m = mp - 9
	}
	if m <= 2 {
		y++
	}
	return y, int(m), int(d)
}
