package tracker

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	redisclient "github.com/pillbox/medication-adherence-tracker/internal/redis"
)

type passLocker struct{}

func (passLocker) WithLock(ctx context.Context, _ string, fn func(context.Context) error) error {
	return fn(ctx)
}

type heldLocker struct{}

func (heldLocker) WithLock(context.Context, string, func(context.Context) error) error {
	return redisclient.ErrLockNotAcquired
}

func newTestService(t *testing.T) (*Service, *MemoryRepository) {
	t.Helper()
	repo := NewMemoryRepository()
	return NewService(repo, passLocker{}), repo
}

func createTestCourse(t *testing.T, svc *Service, start Date, days int, slots ...TimeSlot) *Course {
	t.Helper()
	course, err := svc.CreateCourse(context.Background(), CreateCourseInput{
		CourseName:   "Test course",
		PillName:     "Testopril",
		TimeSlots:    slots,
		StartDate:    start,
		DurationDays: days,
	})
	if err != nil {
		t.Fatalf("create course: %v", err)
	}
	return course
}

func TestCreateCourseGeneratesSchedule(t *testing.T) {
	svc, repo := newTestService(t)
	ctx := context.Background()

	start := NewDate(2025, time.January, 1)
	course := createTestCourse(t, svc, start, 3, SlotMorning, SlotNight)

	entries, err := repo.ListSchedulesByCourse(ctx, course.ID)
	if err != nil {
		t.Fatalf("list schedules: %v", err)
	}
	if len(entries) != 6 {
		t.Fatalf("expected 6 entries, got %d", len(entries))
	}

	seen := make(map[string]bool)
	for _, e := range entries {
		if e.Status != StatusPending {
			t.Errorf("entry should start pending, got %s", e.Status)
		}
		key := e.Date.String() + "/" + string(e.TimeSlot)
		if seen[key] {
			t.Errorf("duplicate (date, slot) pair %s", key)
		}
		seen[key] = true
	}
	for day := 0; day < 3; day++ {
		for _, slot := range []TimeSlot{SlotMorning, SlotNight} {
			key := start.AddDays(day).String() + "/" + string(slot)
			if !seen[key] {
				t.Errorf("missing entry for %s", key)
			}
		}
	}
}

func TestCreateCourseDegenerate(t *testing.T) {
	svc, repo := newTestService(t)
	ctx := context.Background()

	course := createTestCourse(t, svc, Today(), 0, SlotMorning)

	entries, err := repo.ListSchedulesByCourse(ctx, course.ID)
	if err != nil {
		t.Fatalf("list schedules: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("zero-duration course should have no entries, got %d", len(entries))
	}

	// Course itself still exists.
	if _, err := svc.Course(ctx, course.ID); err != nil {
		t.Errorf("course should exist: %v", err)
	}
}

func TestCreateCourseInvalidSlot(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.CreateCourse(context.Background(), CreateCourseInput{
		CourseName:   "Bad",
		PillName:     "Bad",
		TimeSlots:    []TimeSlot{"Midnight"},
		StartDate:    Today(),
		DurationDays: 3,
	})
	if !errors.Is(err, ErrInvalidTimeSlot) {
		t.Fatalf("expected ErrInvalidTimeSlot, got %v", err)
	}
}

func TestDeleteCourseCascades(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	course := createTestCourse(t, svc, NewDate(2025, time.January, 1), 5, SlotMorning)

	if err := svc.DeleteCourse(ctx, course.ID); err != nil {
		t.Fatalf("delete course: %v", err)
	}

	if _, err := svc.Course(ctx, course.ID); !errors.Is(err, ErrCourseNotFound) {
		t.Errorf("expected ErrCourseNotFound after delete, got %v", err)
	}

	progress, err := svc.Progress(ctx, course.ID)
	if err != nil {
		t.Fatalf("progress: %v", err)
	}
	if progress.TotalPills != 0 {
		t.Errorf("deleted course should report total=0, got %d", progress.TotalPills)
	}
}

func TestDeleteCourseNotFound(t *testing.T) {
	svc, _ := newTestService(t)

	if err := svc.DeleteCourse(context.Background(), uuid.New()); !errors.Is(err, ErrCourseNotFound) {
		t.Fatalf("expected ErrCourseNotFound, got %v", err)
	}
}

func TestMarkDose(t *testing.T) {
	svc, repo := newTestService(t)
	ctx := context.Background()

	course := createTestCourse(t, svc, Today(), 1, SlotMorning)
	entries, _ := repo.ListSchedulesByCourse(ctx, course.ID)
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}

	if err := svc.MarkDose(ctx, entries[0].ID, StatusTaken); err != nil {
		t.Fatalf("mark taken: %v", err)
	}

	entries, _ = repo.ListSchedulesByCourse(ctx, course.ID)
	if entries[0].Status != StatusTaken {
		t.Errorf("expected taken, got %s", entries[0].Status)
	}
}

func TestMarkDoseNeverReverts(t *testing.T) {
	svc, repo := newTestService(t)
	ctx := context.Background()

	course := createTestCourse(t, svc, Today(), 1, SlotMorning)
	entries, _ := repo.ListSchedulesByCourse(ctx, course.ID)

	if err := svc.MarkDose(ctx, entries[0].ID, StatusPending); !errors.Is(err, ErrStatusReverted) {
		t.Fatalf("expected ErrStatusReverted, got %v", err)
	}
	if err := svc.MarkDose(ctx, entries[0].ID, "snoozed"); !errors.Is(err, ErrInvalidStatus) {
		t.Fatalf("expected ErrInvalidStatus, got %v", err)
	}
}

func TestMarkDoseNotFound(t *testing.T) {
	svc, _ := newTestService(t)

	err := svc.MarkDose(context.Background(), uuid.New(), StatusTaken)
	if !errors.Is(err, ErrScheduleNotFound) {
		t.Fatalf("expected ErrScheduleNotFound, got %v", err)
	}
}

func TestProgress(t *testing.T) {
	svc, repo := newTestService(t)
	ctx := context.Background()

	course := createTestCourse(t, svc, NewDate(2025, time.January, 1), 3, SlotMorning, SlotNight)
	entries, _ := repo.ListSchedulesByCourse(ctx, course.ID)

	// 2 taken, 1 missed, 3 pending out of 6.
	svc.MarkDose(ctx, entries[0].ID, StatusTaken)
	svc.MarkDose(ctx, entries[1].ID, StatusTaken)
	svc.MarkDose(ctx, entries[2].ID, StatusMissed)

	p, err := svc.Progress(ctx, course.ID)
	if err != nil {
		t.Fatalf("progress: %v", err)
	}

	if p.TotalPills != 6 || p.TakenPills != 2 || p.MissedPills != 1 || p.PendingPills != 3 {
		t.Fatalf("unexpected counts: %+v", p)
	}
	if p.TakenPills+p.MissedPills+p.PendingPills != p.TotalPills {
		t.Error("taken + missed + pending must equal total")
	}
	if p.ProgressPercentage != 33.3 {
		t.Errorf("progress: got %v, want 33.3", p.ProgressPercentage)
	}
	if p.AdherencePercentage != 66.7 {
		t.Errorf("adherence: got %v, want 66.7", p.AdherencePercentage)
	}
}

func TestSweepMissed(t *testing.T) {
	svc, repo := newTestService(t)
	ctx := context.Background()

	// Two days fully in the past, none today or later.
	past := createTestCourse(t, svc, Today().AddDays(-2), 2, SlotMorning)
	// Starts today, so nothing is strictly past.
	current := createTestCourse(t, svc, Today(), 2, SlotMorning)

	pastEntries, _ := repo.ListSchedulesByCourse(ctx, past.ID)
	if len(pastEntries) != 2 {
		t.Fatalf("expected 2 past entries, got %d", len(pastEntries))
	}

	// One past dose was taken on time; the sweeper must not touch it.
	if err := svc.MarkDose(ctx, pastEntries[0].ID, StatusTaken); err != nil {
		t.Fatalf("mark taken: %v", err)
	}

	count, err := svc.SweepMissed(ctx)
	if err != nil {
		t.Fatalf("sweep: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected 1 swept entry, got %d", count)
	}

	pastEntries, _ = repo.ListSchedulesByCourse(ctx, past.ID)
	var taken, missed int
	for _, e := range pastEntries {
		switch e.Status {
		case StatusTaken:
			taken++
		case StatusMissed:
			missed++
		}
	}
	if taken != 1 || missed != 1 {
		t.Errorf("past course: want 1 taken and 1 missed, got %d/%d", taken, missed)
	}

	currentEntries, _ := repo.ListSchedulesByCourse(ctx, current.ID)
	for _, e := range currentEntries {
		if e.Status != StatusPending {
			t.Errorf("entry on %s should stay pending, got %s", e.Date, e.Status)
		}
	}

	// Idempotent: nothing left to sweep.
	count, err = svc.SweepMissed(ctx)
	if err != nil {
		t.Fatalf("second sweep: %v", err)
	}
	if count != 0 {
		t.Errorf("second sweep should update 0 entries, got %d", count)
	}
}

func TestSweepMissedLockHeld(t *testing.T) {
	repo := NewMemoryRepository()
	svc := NewService(repo, heldLocker{})

	_, err := svc.SweepMissed(context.Background())
	if !errors.Is(err, ErrSweepInProgress) {
		t.Fatalf("expected ErrSweepInProgress, got %v", err)
	}
}

func createTestAppointment(t *testing.T, svc *Service, date Date) *Appointment {
	t.Helper()
	appt, err := svc.CreateAppointment(context.Background(), CreateAppointmentInput{
		DoctorName: "Dr. House",
		Date:       date,
		Time:       Clock{Hour: 10, Minute: 30},
		Purpose:    "Checkup",
	})
	if err != nil {
		t.Fatalf("create appointment: %v", err)
	}
	return appt
}

func TestUpcomingAppointments(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	past := createTestAppointment(t, svc, Today().AddDays(-1))
	todayAppt := createTestAppointment(t, svc, Today())
	future := createTestAppointment(t, svc, Today().AddDays(14))
	done := createTestAppointment(t, svc, Today().AddDays(7))

	if err := svc.CompleteAppointment(ctx, done.ID, true); err != nil {
		t.Fatalf("complete: %v", err)
	}

	upcoming, err := svc.UpcomingAppointments(ctx)
	if err != nil {
		t.Fatalf("upcoming: %v", err)
	}

	if len(upcoming) != 2 {
		t.Fatalf("expected 2 upcoming, got %d", len(upcoming))
	}
	if upcoming[0].ID != todayAppt.ID || upcoming[1].ID != future.ID {
		t.Error("upcoming should be sorted by date ascending and exclude past/completed")
	}
	for _, a := range upcoming {
		if a.ID == past.ID {
			t.Error("past appointment should not be upcoming")
		}
	}
}

func TestDeleteAppointment(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	appt := createTestAppointment(t, svc, Today())

	if err := svc.DeleteAppointment(ctx, appt.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := svc.DeleteAppointment(ctx, appt.ID); !errors.Is(err, ErrAppointmentNotFound) {
		t.Fatalf("expected ErrAppointmentNotFound, got %v", err)
	}
	if err := svc.CompleteAppointment(ctx, appt.ID, true); !errors.Is(err, ErrAppointmentNotFound) {
		t.Fatalf("expected ErrAppointmentNotFound, got %v", err)
	}
}

func TestOverview(t *testing.T) {
	svc, repo := newTestService(t)
	ctx := context.Background()

	today := Today()
	courseID := uuid.New()
	now := time.Now().UTC()

	course := &Course{
		ID:         courseID,
		CourseName: "Overview course",
		PillName:   "Overviewol",
		TimeSlots:  []TimeSlot{SlotMorning},
		StartDate:  today.AddDays(-40),
		CreatedAt:  now,
	}
	entries := []ScheduleEntry{
		{ID: uuid.New(), CourseID: courseID, Date: today, TimeSlot: SlotMorning, Status: StatusTaken, UpdatedAt: now},
		{ID: uuid.New(), CourseID: courseID, Date: today.AddDays(-3), TimeSlot: SlotMorning, Status: StatusMissed, UpdatedAt: now},
		{ID: uuid.New(), CourseID: courseID, Date: today.AddDays(-8), TimeSlot: SlotMorning, Status: StatusTaken, UpdatedAt: now},
		{ID: uuid.New(), CourseID: courseID, Date: today.AddDays(-40), TimeSlot: SlotMorning, Status: StatusMissed, UpdatedAt: now},
		{ID: uuid.New(), CourseID: courseID, Date: today.AddDays(-2), TimeSlot: SlotMorning, Status: StatusPending, UpdatedAt: now},
	}
	if err := repo.InsertCourseWithSchedule(ctx, course, entries); err != nil {
		t.Fatalf("insert: %v", err)
	}

	createTestAppointment(t, svc, today.AddDays(3))

	o, err := svc.Overview(ctx)
	if err != nil {
		t.Fatalf("overview: %v", err)
	}

	// Last 7 days: 1 taken, 1 missed. Last 30 days adds one more taken.
	if o.WeeklyStats.Taken != 1 || o.WeeklyStats.Missed != 1 || o.WeeklyStats.Total != 2 {
		t.Errorf("weekly stats: %+v", o.WeeklyStats)
	}
	if o.WeeklyAdherence != 50.0 {
		t.Errorf("weekly adherence: got %v, want 50.0", o.WeeklyAdherence)
	}
	if o.MonthlyStats.Taken != 2 || o.MonthlyStats.Missed != 1 || o.MonthlyStats.Total != 3 {
		t.Errorf("monthly stats: %+v", o.MonthlyStats)
	}
	if o.MonthlyAdherence != 66.7 {
		t.Errorf("monthly adherence: got %v, want 66.7", o.MonthlyAdherence)
	}
	if o.ActiveCourses != 1 {
		t.Errorf("active courses: got %d, want 1", o.ActiveCourses)
	}
	if o.UpcomingAppointments != 1 {
		t.Errorf("upcoming appointments: got %d, want 1", o.UpcomingAppointments)
	}
}

func TestOverviewEmpty(t *testing.T) {
	svc, _ := newTestService(t)

	o, err := svc.Overview(context.Background())
	if err != nil {
		t.Fatalf("overview: %v", err)
	}
	if o.WeeklyAdherence != 0 || o.MonthlyAdherence != 0 {
		t.Errorf("empty store should report 0 adherence, got %v/%v", o.WeeklyAdherence, o.MonthlyAdherence)
	}
	if o.ActiveCourses != 0 || o.UpcomingAppointments != 0 {
		t.Errorf("empty store should report 0 counts, got %d/%d", o.ActiveCourses, o.UpcomingAppointments)
	}
}
