package tracker

import (
	"time"

	"github.com/google/uuid"
)

// BuildSchedule expands a course into its schedule: one pending entry per
// (day, slot) pair for durationDays days starting at start. A non-positive
// duration or an empty slot set yields no entries; a course with an empty
// schedule is valid.
func BuildSchedule(courseID uuid.UUID, start Date, durationDays int, slots []TimeSlot, now time.Time) []ScheduleEntry {
	if durationDays <= 0 || len(slots) == 0 {
		return nil
	}

	entries := make([]ScheduleEntry, 0, durationDays*len(slots))
	for day := 0; day < durationDays; day++ {
		date := start.AddDays(day)
		for _, slot := range slots {
			entries = append(entries, ScheduleEntry{
				ID:        uuid.New(),
				CourseID:  courseID,
				Date:      date,
				TimeSlot:  slot,
				Status:    StatusPending,
				UpdatedAt: now,
			})
		}
	}
	return entries
}
