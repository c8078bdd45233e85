package tracker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	redisclient "github.com/pillbox/medication-adherence-tracker/internal/redis"
)

var (
	ErrInvalidTimeSlot = errors.New("invalid time slot")
	ErrStatusReverted  = errors.New("dose status cannot revert to pending")
	ErrInvalidStatus   = errors.New("invalid dose status")
	ErrSweepInProgress = errors.New("a sweep is already running")
)

const sweepLockName = "schedule-sweep"

type Service struct {
	repo   Repository
	locker redisclient.Locker
}

func NewService(repo Repository, locker redisclient.Locker) *Service {
	return &Service{
		repo:   repo,
		locker: locker,
	}
}

type CreateCourseInput struct {
	CourseName   string
	PillName     string
	TimeSlots    []TimeSlot
	StartDate    Date
	DurationDays int
}

// CreateCourse stores the course and generates its daily schedule in one
// transactional write. A duration of zero or an empty slot set creates a
// course with no schedule entries.
func (s *Service) CreateCourse(ctx context.Context, in CreateCourseInput) (*Course, error) {
	for _, slot := range in.TimeSlots {
		if !slot.Valid() {
			return nil, fmt.Errorf("%w: %q", ErrInvalidTimeSlot, slot)
		}
	}

	now := time.Now().UTC()
	course := &Course{
		ID:           uuid.New(),
		CourseName:   in.CourseName,
		PillName:     in.PillName,
		TimeSlots:    in.TimeSlots,
		StartDate:    in.StartDate,
		DurationDays: in.DurationDays,
		CreatedAt:    now,
	}

	entries := BuildSchedule(course.ID, course.StartDate, course.DurationDays, course.TimeSlots, now)

	if err := s.repo.InsertCourseWithSchedule(ctx, course, entries); err != nil {
		return nil, fmt.Errorf("insert course with schedule: %w", err)
	}

	return course, nil
}

func (s *Service) Courses(ctx context.Context) ([]Course, error) {
	courses, err := s.repo.ListCourses(ctx)
	if err != nil {
		return nil, fmt.Errorf("list courses: %w", err)
	}
	return courses, nil
}

func (s *Service) Course(ctx context.Context, id uuid.UUID) (*Course, error) {
	course, err := s.repo.GetCourseByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrCourseNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("load course: %w", err)
	}
	return course, nil
}

func (s *Service) DeleteCourse(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.DeleteCourseCascade(ctx, id); err != nil {
		if errors.Is(err, ErrCourseNotFound) {
			return err
		}
		return fmt.Errorf("delete course: %w", err)
	}
	return nil
}

// Progress tallies every schedule entry of a course. An unknown or deleted
// course reports zero totals rather than a not-found error.
func (s *Service) Progress(ctx context.Context, courseID uuid.UUID) (*CourseProgress, error) {
	entries, err := s.repo.ListSchedulesByCourse(ctx, courseID)
	if err != nil {
		return nil, fmt.Errorf("list schedules for course: %w", err)
	}
	progress := ProgressFor(courseID, TallyDoses(entries))
	return &progress, nil
}

func (s *Service) SchedulesForDate(ctx context.Context, date Date) ([]ScheduleWithCourse, error) {
	items, err := s.repo.ListSchedulesForDate(ctx, date)
	if err != nil {
		return nil, fmt.Errorf("list schedules for date: %w", err)
	}
	return items, nil
}

func (s *Service) TodaySchedules(ctx context.Context) ([]ScheduleWithCourse, error) {
	return s.SchedulesForDate(ctx, Today())
}

// PendingReminders returns today's still-pending doses with their course.
func (s *Service) PendingReminders(ctx context.Context) ([]ScheduleWithCourse, error) {
	items, err := s.repo.ListPendingForDate(ctx, Today())
	if err != nil {
		return nil, fmt.Errorf("list pending reminders: %w", err)
	}
	return items, nil
}

// MarkDose records a dose as taken or missed. Reverting to pending is not
// allowed: resolved or not, an entry never goes back.
func (s *Service) MarkDose(ctx context.Context, id uuid.UUID, status DoseStatus) error {
	if !status.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidStatus, status)
	}
	if status == StatusPending {
		return ErrStatusReverted
	}

	if err := s.repo.UpdateScheduleStatus(ctx, id, status, time.Now().UTC()); err != nil {
		if errors.Is(err, ErrScheduleNotFound) {
			return err
		}
		return fmt.Errorf("update schedule status: %w", err)
	}
	return nil
}

// SweepMissed marks every pending entry dated before today as missed and
// returns the number of entries changed. The sweep runs under a distributed
// lock so the worker and the HTTP trigger cannot overlap; a held lock
// surfaces as ErrSweepInProgress. Re-running after a full sweep changes
// nothing.
func (s *Service) SweepMissed(ctx context.Context) (int64, error) {
	var updated int64

	err := s.locker.WithLock(ctx, sweepLockName, func(lockCtx context.Context) error {
		n, err := s.repo.MarkMissedBefore(lockCtx, Today(), time.Now().UTC())
		if err != nil {
			return fmt.Errorf("mark missed before today: %w", err)
		}
		updated = n
		return nil
	})
	if err != nil {
		if errors.Is(err, redisclient.ErrLockNotAcquired) {
			return 0, ErrSweepInProgress
		}
		return 0, err
	}

	return updated, nil
}

type CreateAppointmentInput struct {
	DoctorName string
	Date       Date
	Time       Clock
	Purpose    string
	Notes      string
}

func (s *Service) CreateAppointment(ctx context.Context, in CreateAppointmentInput) (*Appointment, error) {
	appt := &Appointment{
		ID:         uuid.New(),
		DoctorName: in.DoctorName,
		Date:       in.Date,
		Time:       in.Time,
		Purpose:    in.Purpose,
		Notes:      in.Notes,
		Completed:  false,
		CreatedAt:  time.Now().UTC(),
	}

	if err := s.repo.InsertAppointment(ctx, appt); err != nil {
		return nil, fmt.Errorf("insert appointment: %w", err)
	}
	return appt, nil
}

func (s *Service) Appointments(ctx context.Context) ([]Appointment, error) {
	appts, err := s.repo.ListAppointments(ctx)
	if err != nil {
		return nil, fmt.Errorf("list appointments: %w", err)
	}
	return appts, nil
}

// UpcomingAppointments lists incomplete appointments dated today or later,
// soonest first.
func (s *Service) UpcomingAppointments(ctx context.Context) ([]Appointment, error) {
	appts, err := s.repo.ListUpcomingAppointments(ctx, Today())
	if err != nil {
		return nil, fmt.Errorf("list upcoming appointments: %w", err)
	}
	return appts, nil
}

func (s *Service) CompleteAppointment(ctx context.Context, id uuid.UUID, completed bool) error {
	if err := s.repo.SetAppointmentCompleted(ctx, id, completed); err != nil {
		if errors.Is(err, ErrAppointmentNotFound) {
			return err
		}
		return fmt.Errorf("set appointment completed: %w", err)
	}
	return nil
}

func (s *Service) DeleteAppointment(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.DeleteAppointment(ctx, id); err != nil {
		if errors.Is(err, ErrAppointmentNotFound) {
			return err
		}
		return fmt.Errorf("delete appointment: %w", err)
	}
	return nil
}

// Overview computes rolling 7- and 30-day adherence, both windows ending
// today inclusive, plus course and upcoming-appointment counts.
func (s *Service) Overview(ctx context.Context) (*Overview, error) {
	today := Today()
	weekFrom := today.AddDays(-6)
	monthFrom := today.AddDays(-29)

	// The monthly window is a superset of the weekly one; fetch once.
	entries, err := s.repo.ListSchedulesInRange(ctx, monthFrom, today)
	if err != nil {
		return nil, fmt.Errorf("list schedules in range: %w", err)
	}

	weekly := TallyWindow(entries, weekFrom, today)
	monthly := TallyWindow(entries, monthFrom, today)

	courses, err := s.repo.CountCourses(ctx)
	if err != nil {
		return nil, fmt.Errorf("count courses: %w", err)
	}

	upcoming, err := s.repo.CountUpcomingAppointments(ctx, today)
	if err != nil {
		return nil, fmt.Errorf("count upcoming appointments: %w", err)
	}

	return &Overview{
		WeeklyAdherence:      weekly.Adherence(),
		MonthlyAdherence:     monthly.Adherence(),
		ActiveCourses:        courses,
		UpcomingAppointments: upcoming,
		WeeklyStats:          weekly,
		MonthlyStats:         monthly,
	}, nil
}
