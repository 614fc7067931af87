package models

import (
	"testing"
	"time"
)

// TestNewGymScheduleLabels verifies both date-range labels span start..start+13
// and every day slot starts with non-nil empty buckets.
func TestNewGymScheduleLabels(t *testing.T) {
	start := time.Date(2025, 9, 28, 0, 0, 0, 0, time.UTC)
	s := NewGymSchedule("DSN", start)

	if s.DateRangeLabel != "9/28-10/11" {
		t.Errorf("DateRangeLabel = %q, want %q", s.DateRangeLabel, "9/28-10/11")
	}
	if s.FileDateRange != "20250928-20251011" {
		t.Errorf("FileDateRange = %q, want %q", s.FileDateRange, "20250928-20251011")
	}
	for i, d := range s.Days {
		if d.Routes == nil || d.Boulders == nil {
			t.Fatalf("day %d has nil bucket", i)
		}
	}
	if got := s.DateKey(13); got != "2025-10-11" {
		t.Errorf("DateKey(13) = %q, want 2025-10-11", got)
	}
}

// TestParseDiscipline verifies plural and route spellings normalize to the
// canonical disciplines used by learned wall mappings.
func TestParseDiscipline(t *testing.T) {
	cases := map[string]Discipline{
		"rope": Rope, "Routes": Rope, "boulders": Boulder, " ignored ": Ignored,
	}
	for in, want := range cases {
		got, err := ParseDiscipline(in)
		if err != nil {
			t.Fatalf("ParseDiscipline(%q): %v", in, err)
		}
		if got != want {
			t.Errorf("ParseDiscipline(%q) = %q, want %q", in, got, want)
		}
	}
	if _, err := ParseDiscipline("slab"); err == nil {
		t.Error("expected error for unknown discipline")
	}
}
