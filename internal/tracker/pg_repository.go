package tracker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Fetch caps. Reads are bounded; nothing retrieves an unbounded result set.
const (
	listCap     = 1000
	upcomingCap = 100
)

// PgRepository stores courses, schedule entries and appointments in
// Postgres. Dates and clock times live in TEXT columns in their canonical
// forms ("2006-01-02", "15:04:05") so that values round-trip exactly and
// string range comparisons order the same way the values do.
type PgRepository struct {
	pool *pgxpool.Pool
}

func NewPgRepository(pool *pgxpool.Pool) *PgRepository {
	return &PgRepository{pool: pool}
}

// Helpers

func slotsToStrings(slots []TimeSlot) []string {
	out := make([]string, len(slots))
	for i, s := range slots {
		out[i] = string(s)
	}
	return out
}

func scanCourse(row pgx.Row) (*Course, error) {
	var (
		c         Course
		slots     []string
		startDate string
	)

	err := row.Scan(
		&c.ID,
		&c.CourseName,
		&c.PillName,
		&slots,
		&startDate,
		&c.DurationDays,
		&c.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrCourseNotFound
		}
		return nil, err
	}

	c.TimeSlots = make([]TimeSlot, len(slots))
	for i, s := range slots {
		c.TimeSlots[i] = TimeSlot(s)
	}

	c.StartDate, err = ParseDate(startDate)
	if err != nil {
		return nil, fmt.Errorf("course %s: %w", c.ID, err)
	}

	return &c, nil
}

func scanScheduleEntry(row pgx.Row) (*ScheduleEntry, error) {
	var (
		e    ScheduleEntry
		date string
		slot string
	)

	err := row.Scan(
		&e.ID,
		&e.CourseID,
		&date,
		&slot,
		&e.Status,
		&e.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrScheduleNotFound
		}
		return nil, err
	}

	e.TimeSlot = TimeSlot(slot)
	e.Date, err = ParseDate(date)
	if err != nil {
		return nil, fmt.Errorf("schedule entry %s: %w", e.ID, err)
	}

	return &e, nil
}

func scanAppointment(row pgx.Row) (*Appointment, error) {
	var (
		a     Appointment
		date  string
		clock string
	)

	err := row.Scan(
		&a.ID,
		&a.DoctorName,
		&date,
		&clock,
		&a.Purpose,
		&a.Notes,
		&a.Completed,
		&a.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAppointmentNotFound
		}
		return nil, err
	}

	a.Date, err = ParseDate(date)
	if err != nil {
		return nil, fmt.Errorf("appointment %s: %w", a.ID, err)
	}
	a.Time, err = ParseClock(clock)
	if err != nil {
		return nil, fmt.Errorf("appointment %s: %w", a.ID, err)
	}

	return &a, nil
}

// Courses

func (r *PgRepository) InsertCourseWithSchedule(ctx context.Context, course *Course, entries []ScheduleEntry) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `
		INSERT INTO pill_courses (id, course_name, pill_name, time_slots, start_date, duration_days, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, course.ID, course.CourseName, course.PillName, slotsToStrings(course.TimeSlots),
		course.StartDate.String(), course.DurationDays, course.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert course: %w", err)
	}

	for _, e := range entries {
		_, err = tx.Exec(ctx, `
			INSERT INTO daily_schedules (id, course_id, date, time_slot, status, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6)
		`, e.ID, e.CourseID, e.Date.String(), string(e.TimeSlot), string(e.Status), e.UpdatedAt)
		if err != nil {
			return fmt.Errorf("insert schedule entry: %w", err)
		}
	}

	return tx.Commit(ctx)
}

func (r *PgRepository) ListCourses(ctx context.Context) ([]Course, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, course_name, pill_name, time_slots, start_date, duration_days, created_at
		FROM pill_courses
		ORDER BY created_at
		LIMIT $1
	`, listCap)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []Course
	for rows.Next() {
		c, err := scanCourse(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *c)
	}
	return result, rows.Err()
}

func (r *PgRepository) GetCourseByID(ctx context.Context, id uuid.UUID) (*Course, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, course_name, pill_name, time_slots, start_date, duration_days, created_at
		FROM pill_courses
		WHERE id = $1
	`, id)
	return scanCourse(row)
}

func (r *PgRepository) DeleteCourseCascade(ctx context.Context, id uuid.UUID) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM daily_schedules WHERE course_id = $1`, id); err != nil {
		return fmt.Errorf("delete schedules: %w", err)
	}

	tag, err := tx.Exec(ctx, `DELETE FROM pill_courses WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete course: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrCourseNotFound
	}

	return tx.Commit(ctx)
}

func (r *PgRepository) CountCourses(ctx context.Context) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx, `SELECT count(*) FROM pill_courses`).Scan(&n)
	return n, err
}

// Schedule entries

func (r *PgRepository) ListSchedulesByCourse(ctx context.Context, courseID uuid.UUID) ([]ScheduleEntry, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, course_id, date, time_slot, status, updated_at
		FROM daily_schedules
		WHERE course_id = $1
		ORDER BY date, time_slot
		LIMIT $2
	`, courseID, listCap)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectEntries(rows)
}

func (r *PgRepository) ListSchedulesInRange(ctx context.Context, from, to Date) ([]ScheduleEntry, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, course_id, date, time_slot, status, updated_at
		FROM daily_schedules
		WHERE date >= $1 AND date <= $2
		ORDER BY date
		LIMIT $3
	`, from.String(), to.String(), listCap)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectEntries(rows)
}

func collectEntries(rows pgx.Rows) ([]ScheduleEntry, error) {
	var result []ScheduleEntry
	for rows.Next() {
		e, err := scanScheduleEntry(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *e)
	}
	return result, rows.Err()
}

// The inner join drops entries whose course is gone, matching the cascade
// semantics: orphans are never shown.
const scheduleWithCourseQuery = `
	SELECT s.id, s.course_id, s.date, s.time_slot, s.status, s.updated_at,
	       c.id, c.course_name, c.pill_name, c.time_slots, c.start_date, c.duration_days, c.created_at
	FROM daily_schedules s
	JOIN pill_courses c ON c.id = s.course_id
`

func (r *PgRepository) ListSchedulesForDate(ctx context.Context, date Date) ([]ScheduleWithCourse, error) {
	rows, err := r.pool.Query(ctx,
		scheduleWithCourseQuery+`WHERE s.date = $1 ORDER BY s.time_slot LIMIT $2`,
		date.String(), listCap)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectScheduleWithCourse(rows)
}

func (r *PgRepository) ListPendingForDate(ctx context.Context, date Date) ([]ScheduleWithCourse, error) {
	rows, err := r.pool.Query(ctx,
		scheduleWithCourseQuery+`WHERE s.date = $1 AND s.status = 'pending' ORDER BY s.time_slot LIMIT $2`,
		date.String(), listCap)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectScheduleWithCourse(rows)
}

func collectScheduleWithCourse(rows pgx.Rows) ([]ScheduleWithCourse, error) {
	var result []ScheduleWithCourse
	for rows.Next() {
		var (
			item       ScheduleWithCourse
			entryDate  string
			slot       string
			slots      []string
			startDate  string
		)

		err := rows.Scan(
			&item.Schedule.ID,
			&item.Schedule.CourseID,
			&entryDate,
			&slot,
			&item.Schedule.Status,
			&item.Schedule.UpdatedAt,
			&item.Course.ID,
			&item.Course.CourseName,
			&item.Course.PillName,
			&slots,
			&startDate,
			&item.Course.DurationDays,
			&item.Course.CreatedAt,
		)
		if err != nil {
			return nil, err
		}

		item.Schedule.TimeSlot = TimeSlot(slot)
		if item.Schedule.Date, err = ParseDate(entryDate); err != nil {
			return nil, fmt.Errorf("schedule entry %s: %w", item.Schedule.ID, err)
		}

		item.Course.TimeSlots = make([]TimeSlot, len(slots))
		for i, s := range slots {
			item.Course.TimeSlots[i] = TimeSlot(s)
		}
		if item.Course.StartDate, err = ParseDate(startDate); err != nil {
			return nil, fmt.Errorf("course %s: %w", item.Course.ID, err)
		}

		result = append(result, item)
	}
	return result, rows.Err()
}

func (r *PgRepository) UpdateScheduleStatus(ctx context.Context, id uuid.UUID, status DoseStatus, now time.Time) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE daily_schedules
		SET status = $2, updated_at = $3
		WHERE id = $1
	`, id, string(status), now)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrScheduleNotFound
	}
	return nil
}

func (r *PgRepository) MarkMissedBefore(ctx context.Context, cutoff Date, now time.Time) (int64, error) {
	tag, err := r.pool.Exec(ctx, `
		UPDATE daily_schedules
		SET status = 'missed', updated_at = $2
		WHERE date < $1 AND status = 'pending'
	`, cutoff.String(), now)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

// Appointments

func (r *PgRepository) InsertAppointment(ctx context.Context, a *Appointment) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO appointments (id, doctor_name, appointment_date, appointment_time, purpose, notes, completed, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, a.ID, a.DoctorName, a.Date.String(), a.Time.String(), a.Purpose, a.Notes, a.Completed, a.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert appointment: %w", err)
	}
	return nil
}

func (r *PgRepository) ListAppointments(ctx context.Context) ([]Appointment, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, doctor_name, appointment_date, appointment_time, purpose, notes, completed, created_at
		FROM appointments
		ORDER BY appointment_date, appointment_time
		LIMIT $1
	`, listCap)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectAppointments(rows)
}

func (r *PgRepository) ListUpcomingAppointments(ctx context.Context, from Date) ([]Appointment, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, doctor_name, appointment_date, appointment_time, purpose, notes, completed, created_at
		FROM appointments
		WHERE appointment_date >= $1 AND completed = false
		ORDER BY appointment_date, appointment_time
		LIMIT $2
	`, from.String(), upcomingCap)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectAppointments(rows)
}

func collectAppointments(rows pgx.Rows) ([]Appointment, error) {
	var result []Appointment
	for rows.Next() {
		a, err := scanAppointment(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *a)
	}
	return result, rows.Err()
}

func (r *PgRepository) SetAppointmentCompleted(ctx context.Context, id uuid.UUID, completed bool) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE appointments SET completed = $2 WHERE id = $1
	`, id, completed)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrAppointmentNotFound
	}
	return nil
}

func (r *PgRepository) DeleteAppointment(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM appointments WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrAppointmentNotFound
	}
	return nil
}

func (r *PgRepository) CountUpcomingAppointments(ctx context.Context, from Date) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx, `
		SELECT count(*) FROM appointments
		WHERE appointment_date >= $1 AND completed = false
	`, from.String()).Scan(&n)
	return n, err
}
