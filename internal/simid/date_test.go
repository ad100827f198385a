package simid

import "testing"

func TestFromYMDEpoch(t *testing.T) {
	d := FromYMD(2200, 1, 1)
	if d.DaysSinceEpoch() != 0 {
		t.Fatalf("expected 0 days since epoch, got %d", d.DaysSinceEpoch())
	}
}

func TestParseISORoundTrip(t *testing.T) {
	d := ParseISO("2200-12-31")
	ymd := d.ToYMD()
	if ymd.Year != 2200 || ymd.Month != 12 || ymd.Day != 31 {
		t.Fatalf("unexpected round trip: %+v", ymd)
	}
}

func TestAddDaysCrossesYear(t *testing.T) {
	d := FromYMD(2200, 12, 31).AddDays(1)
	ymd := d.ToYMD()
	if ymd.Year != 2201 || ymd.Month != 1 || ymd.Day != 1 {
		t.Fatalf("expected 2201-01-01, got %+v", ymd)
	}
}

func TestAllocatorMonotonic(t *testing.T) {
	a := NewAllocator()
	ids := make(map[Id]bool)
	for i := 0; i < 10; i++ {
		id := a.Next()
		if id == InvalidId {
			t.Fatalf("allocator must never hand out InvalidId")
		}
		if ids[id] {
			t.Fatalf("duplicate id %d", id)
		}
		ids[id] = true
	}
}

func TestRestoreAllocatorResumes(t *testing.T) {
	a := RestoreAllocator(42)
	if got := a.Next(); got != 42 {
		t.Fatalf("expected resumed id 42, got %d", got)
	}
}
