package tracker

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrCourseNotFound      = errors.New("course not found")
	ErrScheduleNotFound    = errors.New("schedule entry not found")
	ErrAppointmentNotFound = errors.New("appointment not found")
)

// Repository contains all store interactions needed by the service. List
// methods are bounded: implementations apply an explicit fetch cap rather
// than retrieving unbounded result sets.
type Repository interface {
	// Courses. InsertCourseWithSchedule persists the course and its
	// generated entries in one transaction: all or nothing.
	InsertCourseWithSchedule(ctx context.Context, course *Course, entries []ScheduleEntry) error
	ListCourses(ctx context.Context) ([]Course, error)
	GetCourseByID(ctx context.Context, id uuid.UUID) (*Course, error)
	// DeleteCourseCascade removes the course and every schedule entry that
	// references it.
	DeleteCourseCascade(ctx context.Context, id uuid.UUID) error
	CountCourses(ctx context.Context) (int, error)

	// Schedule entries.
	ListSchedulesByCourse(ctx context.Context, courseID uuid.UUID) ([]ScheduleEntry, error)
	ListSchedulesForDate(ctx context.Context, date Date) ([]ScheduleWithCourse, error)
	ListPendingForDate(ctx context.Context, date Date) ([]ScheduleWithCourse, error)
	ListSchedulesInRange(ctx context.Context, from, to Date) ([]ScheduleEntry, error)
	UpdateScheduleStatus(ctx context.Context, id uuid.UUID, status DoseStatus, now time.Time) error
	// MarkMissedBefore flips every pending entry dated strictly before
	// cutoff to missed and returns how many rows changed.
	MarkMissedBefore(ctx context.Context, cutoff Date, now time.Time) (int64, error)

	// Appointments.
	InsertAppointment(ctx context.Context, a *Appointment) error
	ListAppointments(ctx context.Context) ([]Appointment, error)
	ListUpcomingAppointments(ctx context.Context, from Date) ([]Appointment, error)
	SetAppointmentCompleted(ctx context.Context, id uuid.UUID, completed bool) error
	DeleteAppointment(ctx context.Context, id uuid.UUID) error
	CountUpcomingAppointments(ctx context.Context, from Date) (int, error)
}
