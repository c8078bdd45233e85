package tracker

import (
	"time"

	"github.com/google/uuid"
)

type TimeSlot string

const (
	SlotMorning   TimeSlot = "Morning"
	SlotAfternoon TimeSlot = "Afternoon"
	SlotNight     TimeSlot = "Night"
)

func ParseTimeSlot(s string) (TimeSlot, bool) {
	slot := TimeSlot(s)
	return slot, slot.Valid()
}

func (s TimeSlot) Valid() bool {
	switch s {
	case SlotMorning, SlotAfternoon, SlotNight:
		return true
	}
	return false
}

type DoseStatus string

const (
	StatusPending DoseStatus = "pending"
	StatusTaken   DoseStatus = "taken"
	StatusMissed  DoseStatus = "missed"
)

func ParseDoseStatus(s string) (DoseStatus, bool) {
	status := DoseStatus(s)
	return status, status.Valid()
}

func (s DoseStatus) Valid() bool {
	switch s {
	case StatusPending, StatusTaken, StatusMissed:
		return true
	}
	return false
}

// Course is a prescribed pill regimen. Immutable after creation; the only
// mutation is deletion, which cascades to its schedule entries.
type Course struct {
	ID           uuid.UUID
	CourseName   string
	PillName     string
	TimeSlots    []TimeSlot
	StartDate    Date
	DurationDays int
	CreatedAt    time.Time
}

// ScheduleEntry is one scheduled dose of a course on a specific date and
// time slot. Entries are created in bulk when the course is created.
type ScheduleEntry struct {
	ID        uuid.UUID
	CourseID  uuid.UUID
	Date      Date
	TimeSlot  TimeSlot
	Status    DoseStatus
	UpdatedAt time.Time
}

// Appointment is a doctor visit. Independent of courses.
type Appointment struct {
	ID         uuid.UUID
	DoctorName string
	Date       Date
	Time       Clock
	Purpose    string
	Notes      string
	Completed  bool
	CreatedAt  time.Time
}

// ScheduleWithCourse pairs a schedule entry with its owning course for the
// day-view and reminder endpoints.
type ScheduleWithCourse struct {
	Schedule ScheduleEntry
	Course   Course
}
