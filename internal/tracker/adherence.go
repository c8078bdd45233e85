package tracker

import (
	"math"

	"github.com/google/uuid"
)

// DoseCounts is a tally of schedule entries by status.
// Total == Taken + Missed + Pending.
type DoseCounts struct {
	Total   int
	Taken   int
	Missed  int
	Pending int
}

func TallyDoses(entries []ScheduleEntry) DoseCounts {
	var c DoseCounts
	for _, e := range entries {
		c.Total++
		switch e.Status {
		case StatusTaken:
			c.Taken++
		case StatusMissed:
			c.Missed++
		default:
			c.Pending++
		}
	}
	return c
}

// CourseProgress reports how far a course has progressed and how well it was
// adhered to. Progress counts pending doses in its denominator; adherence
// only counts doses that are resolved (taken or missed).
type CourseProgress struct {
	CourseID            uuid.UUID
	TotalPills          int
	TakenPills          int
	MissedPills         int
	PendingPills        int
	ProgressPercentage  float64
	AdherencePercentage float64
}

func ProgressFor(courseID uuid.UUID, counts DoseCounts) CourseProgress {
	return CourseProgress{
		CourseID:            courseID,
		TotalPills:          counts.Total,
		TakenPills:          counts.Taken,
		MissedPills:         counts.Missed,
		PendingPills:        counts.Pending,
		ProgressPercentage:  round1(percentage(counts.Taken, counts.Total)),
		AdherencePercentage: round1(percentage(counts.Taken, counts.Taken+counts.Missed)),
	}
}

// WindowStats are resolved-dose counts within a date window. Total is
// Taken + Missed; pending doses do not count against adherence.
type WindowStats struct {
	Taken  int
	Missed int
	Total  int
}

// TallyWindow counts resolved doses with from <= date <= to.
func TallyWindow(entries []ScheduleEntry, from, to Date) WindowStats {
	var s WindowStats
	for _, e := range entries {
		if e.Date.Before(from) || e.Date.After(to) {
			continue
		}
		switch e.Status {
		case StatusTaken:
			s.Taken++
		case StatusMissed:
			s.Missed++
		}
	}
	s.Total = s.Taken + s.Missed
	return s
}

func (s WindowStats) Adherence() float64 {
	return round1(percentage(s.Taken, s.Total))
}

// Overview is the dashboard summary: rolling adherence over the last 7 and
// 30 calendar days (today inclusive), plus entity counts.
type Overview struct {
	WeeklyAdherence      float64
	MonthlyAdherence     float64
	ActiveCourses        int
	UpcomingAppointments int
	WeeklyStats          WindowStats
	MonthlyStats         WindowStats
}

// percentage is 0 when the denominator is 0, never an error.
func percentage(part, whole int) float64 {
	if whole == 0 {
		return 0
	}
	return float64(part) / float64(whole) * 100
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
