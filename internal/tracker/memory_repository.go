package tracker

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryRepository is an in-process Repository with the same ordering, caps
// and not-found semantics as PgRepository. It backs tests and local demos;
// each instance is fully isolated.
type MemoryRepository struct {
	mu           sync.RWMutex
	courses      map[uuid.UUID]Course
	schedules    map[uuid.UUID]ScheduleEntry
	appointments map[uuid.UUID]Appointment
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		courses:      make(map[uuid.UUID]Course),
		schedules:    make(map[uuid.UUID]ScheduleEntry),
		appointments: make(map[uuid.UUID]Appointment),
	}
}

// Courses

func (r *MemoryRepository) InsertCourseWithSchedule(_ context.Context, course *Course, entries []ScheduleEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.courses[course.ID] = *course
	for _, e := range entries {
		r.schedules[e.ID] = e
	}
	return nil
}

func (r *MemoryRepository) ListCourses(_ context.Context) ([]Course, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]Course, 0, len(r.courses))
	for _, c := range r.courses {
		result = append(result, c)
	}
	sort.Slice(result, func(i, j int) bool {
		if !result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].CreatedAt.Before(result[j].CreatedAt)
		}
		return result[i].ID.String() < result[j].ID.String()
	})
	return cap1000(result), nil
}

func (r *MemoryRepository) GetCourseByID(_ context.Context, id uuid.UUID) (*Course, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	c, ok := r.courses[id]
	if !ok {
		return nil, ErrCourseNotFound
	}
	return &c, nil
}

func (r *MemoryRepository) DeleteCourseCascade(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.courses[id]; !ok {
		return ErrCourseNotFound
	}
	delete(r.courses, id)
	for sid, e := range r.schedules {
		if e.CourseID == id {
			delete(r.schedules, sid)
		}
	}
	return nil
}

func (r *MemoryRepository) CountCourses(_ context.Context) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.courses), nil
}

// Schedule entries

func (r *MemoryRepository) ListSchedulesByCourse(_ context.Context, courseID uuid.UUID) ([]ScheduleEntry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var result []ScheduleEntry
	for _, e := range r.schedules {
		if e.CourseID == courseID {
			result = append(result, e)
		}
	}
	sortEntries(result)
	return cap1000(result), nil
}

func (r *MemoryRepository) ListSchedulesForDate(_ context.Context, date Date) ([]ScheduleWithCourse, error) {
	return r.joinForDate(date, false)
}

func (r *MemoryRepository) ListPendingForDate(_ context.Context, date Date) ([]ScheduleWithCourse, error) {
	return r.joinForDate(date, true)
}

func (r *MemoryRepository) joinForDate(date Date, pendingOnly bool) ([]ScheduleWithCourse, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var result []ScheduleWithCourse
	for _, e := range r.schedules {
		if e.Date != date {
			continue
		}
		if pendingOnly && e.Status != StatusPending {
			continue
		}
		course, ok := r.courses[e.CourseID]
		if !ok {
			continue
		}
		result = append(result, ScheduleWithCourse{Schedule: e, Course: course})
	}
	sort.Slice(result, func(i, j int) bool {
		a, b := result[i].Schedule, result[j].Schedule
		if a.TimeSlot != b.TimeSlot {
			return a.TimeSlot < b.TimeSlot
		}
		return a.ID.String() < b.ID.String()
	})
	return cap1000(result), nil
}

func (r *MemoryRepository) ListSchedulesInRange(_ context.Context, from, to Date) ([]ScheduleEntry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var result []ScheduleEntry
	for _, e := range r.schedules {
		if e.Date.Before(from) || e.Date.After(to) {
			continue
		}
		result = append(result, e)
	}
	sortEntries(result)
	return cap1000(result), nil
}

func (r *MemoryRepository) UpdateScheduleStatus(_ context.Context, id uuid.UUID, status DoseStatus, now time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.schedules[id]
	if !ok {
		return ErrScheduleNotFound
	}
	e.Status = status
	e.UpdatedAt = now
	r.schedules[id] = e
	return nil
}

func (r *MemoryRepository) MarkMissedBefore(_ context.Context, cutoff Date, now time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var updated int64
	for id, e := range r.schedules {
		if e.Status == StatusPending && e.Date.Before(cutoff) {
			e.Status = StatusMissed
			e.UpdatedAt = now
			r.schedules[id] = e
			updated++
		}
	}
	return updated, nil
}

// Appointments

func (r *MemoryRepository) InsertAppointment(_ context.Context, a *Appointment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.appointments[a.ID] = *a
	return nil
}

func (r *MemoryRepository) ListAppointments(_ context.Context) ([]Appointment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]Appointment, 0, len(r.appointments))
	for _, a := range r.appointments {
		result = append(result, a)
	}
	sortAppointments(result)
	return cap1000(result), nil
}

func (r *MemoryRepository) ListUpcomingAppointments(_ context.Context, from Date) ([]Appointment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var result []Appointment
	for _, a := range r.appointments {
		if a.Completed || a.Date.Before(from) {
			continue
		}
		result = append(result, a)
	}
	sortAppointments(result)
	if len(result) > upcomingCap {
		result = result[:upcomingCap]
	}
	return result, nil
}

func (r *MemoryRepository) SetAppointmentCompleted(_ context.Context, id uuid.UUID, completed bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	a, ok := r.appointments[id]
	if !ok {
		return ErrAppointmentNotFound
	}
	a.Completed = completed
	r.appointments[id] = a
	return nil
}

func (r *MemoryRepository) DeleteAppointment(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.appointments[id]; !ok {
		return ErrAppointmentNotFound
	}
	delete(r.appointments, id)
	return nil
}

func (r *MemoryRepository) CountUpcomingAppointments(_ context.Context, from Date) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	n := 0
	for _, a := range r.appointments {
		if !a.Completed && !a.Date.Before(from) {
			n++
		}
	}
	return n, nil
}

func sortEntries(entries []ScheduleEntry) {
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Date != entries[j].Date {
			return entries[i].Date.Before(entries[j].Date)
		}
		if entries[i].TimeSlot != entries[j].TimeSlot {
			return entries[i].TimeSlot < entries[j].TimeSlot
		}
		return entries[i].ID.String() < entries[j].ID.String()
	})
}

func sortAppointments(appts []Appointment) {
	sort.Slice(appts, func(i, j int) bool {
		if appts[i].Date != appts[j].Date {
			return appts[i].Date.Before(appts[j].Date)
		}
		if appts[i].Time != appts[j].Time {
			return appts[i].Time.Before(appts[j].Time)
		}
		return appts[i].ID.String() < appts[j].ID.String()
	})
}

func cap1000[T any](s []T) []T {
	if len(s) > listCap {
		return s[:listCap]
	}
	return s
}
