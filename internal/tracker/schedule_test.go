package tracker

import (
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestBuildScheduleExpansion(t *testing.T) {
	courseID := uuid.New()
	start := NewDate(2025, time.January, 1)
	slots := []TimeSlot{SlotMorning, SlotNight}
	now := time.Now().UTC()

	entries := BuildSchedule(courseID, start, 3, slots, now)

	if len(entries) != 6 {
		t.Fatalf("expected 6 entries (3 days x 2 slots), got %d", len(entries))
	}

	perDay := make(map[Date]int)
	seen := make(map[string]bool)
	for _, e := range entries {
		if e.CourseID != courseID {
			t.Errorf("entry %s has wrong course id", e.ID)
		}
		if e.Status != StatusPending {
			t.Errorf("entry %s should start pending, got %s", e.ID, e.Status)
		}
		if e.ID == uuid.Nil {
			t.Error("entry has nil id")
		}

		key := e.Date.String() + "/" + string(e.TimeSlot)
		if seen[key] {
			t.Errorf("duplicate (date, slot) pair %s", key)
		}
		seen[key] = true
		perDay[e.Date]++
	}

	for day := 0; day < 3; day++ {
		date := start.AddDays(day)
		if perDay[date] != 2 {
			t.Errorf("expected 2 entries on %s, got %d", date, perDay[date])
		}
	}
}

func TestBuildScheduleEntryCount(t *testing.T) {
	tests := []struct {
		days  int
		slots []TimeSlot
		want  int
	}{
		{7, []TimeSlot{SlotMorning, SlotAfternoon, SlotNight}, 21},
		{1, []TimeSlot{SlotMorning}, 1},
		{30, []TimeSlot{SlotNight}, 30},
	}

	for _, tt := range tests {
		entries := BuildSchedule(uuid.New(), NewDate(2025, time.June, 15), tt.days, tt.slots, time.Now())
		if len(entries) != tt.want {
			t.Errorf("%d days x %d slots: got %d entries, want %d",
				tt.days, len(tt.slots), len(entries), tt.want)
		}
	}
}

func TestBuildScheduleDegenerate(t *testing.T) {
	start := NewDate(2025, time.January, 1)
	now := time.Now()

	if got := BuildSchedule(uuid.New(), start, 0, []TimeSlot{SlotMorning}, now); len(got) != 0 {
		t.Errorf("zero duration: expected no entries, got %d", len(got))
	}
	if got := BuildSchedule(uuid.New(), start, -5, []TimeSlot{SlotMorning}, now); len(got) != 0 {
		t.Errorf("negative duration: expected no entries, got %d", len(got))
	}
	if got := BuildSchedule(uuid.New(), start, 10, nil, now); len(got) != 0 {
		t.Errorf("empty slot set: expected no entries, got %d", len(got))
	}
}
