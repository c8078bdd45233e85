package api

import (
	"time"

	"github.com/google/uuid"

	"github.com/pillbox/medication-adherence-tracker/internal/tracker"
)

// Request bodies carry dates and enums as plain strings and are validated
// explicitly so a malformed value gets a specific error, not a generic
// decode failure.

type CreateCourseRequest struct {
	CourseName   string   `json:"course_name"`
	PillName     string   `json:"pill_name"`
	TimeSlots    []string `json:"time_slots"`
	StartDate    string   `json:"start_date"`
	DurationDays *int     `json:"duration_days"`
}

type UpdateScheduleRequest struct {
	Status string `json:"status"`
}

type CreateAppointmentRequest struct {
	DoctorName      string `json:"doctor_name"`
	AppointmentDate string `json:"appointment_date"`
	AppointmentTime string `json:"appointment_time"`
	Purpose         string `json:"purpose"`
	Notes           string `json:"notes"`
}

type UpdateAppointmentRequest struct {
	Completed *bool `json:"completed"`
}

type CourseResponse struct {
	ID           uuid.UUID          `json:"id"`
	CourseName   string             `json:"course_name"`
	PillName     string             `json:"pill_name"`
	TimeSlots    []tracker.TimeSlot `json:"time_slots"`
	StartDate    tracker.Date       `json:"start_date"`
	DurationDays int                `json:"duration_days"`
	CreatedAt    time.Time          `json:"created_at"`
}

type ScheduleResponse struct {
	ID        uuid.UUID          `json:"id"`
	CourseID  uuid.UUID          `json:"course_id"`
	Date      tracker.Date       `json:"date"`
	TimeSlot  tracker.TimeSlot   `json:"time_slot"`
	Status    tracker.DoseStatus `json:"status"`
	UpdatedAt time.Time          `json:"updated_at"`
}

type ScheduleWithCourseResponse struct {
	Schedule ScheduleResponse `json:"schedule"`
	Course   CourseResponse   `json:"course"`
}

type ProgressResponse struct {
	CourseID            uuid.UUID `json:"course_id"`
	TotalPills          int       `json:"total_pills"`
	TakenPills          int       `json:"taken_pills"`
	MissedPills         int       `json:"missed_pills"`
	PendingPills        int       `json:"pending_pills"`
	ProgressPercentage  float64   `json:"progress_percentage"`
	AdherencePercentage float64   `json:"adherence_percentage"`
}

type AppointmentResponse struct {
	ID              uuid.UUID     `json:"id"`
	DoctorName      string        `json:"doctor_name"`
	AppointmentDate tracker.Date  `json:"appointment_date"`
	AppointmentTime tracker.Clock `json:"appointment_time"`
	Purpose         string        `json:"purpose"`
	Notes           string        `json:"notes"`
	Completed       bool          `json:"completed"`
	CreatedAt       time.Time     `json:"created_at"`
}

type SweepResponse struct {
	Message      string `json:"message"`
	UpdatedCount int64  `json:"updated_count"`
}

type WindowStatsResponse struct {
	Taken  int `json:"taken"`
	Missed int `json:"missed"`
	Total  int `json:"total"`
}

type OverviewResponse struct {
	WeeklyAdherence      float64             `json:"weekly_adherence"`
	MonthlyAdherence     float64             `json:"monthly_adherence"`
	ActiveCourses        int                 `json:"active_courses"`
	UpcomingAppointments int                 `json:"upcoming_appointments"`
	WeeklyStats          WindowStatsResponse `json:"weekly_stats"`
	MonthlyStats         WindowStatsResponse `json:"monthly_stats"`
}

func toCourseResponse(c *tracker.Course) CourseResponse {
	return CourseResponse{
		ID:           c.ID,
		CourseName:   c.CourseName,
		PillName:     c.PillName,
		TimeSlots:    c.TimeSlots,
		StartDate:    c.StartDate,
		DurationDays: c.DurationDays,
		CreatedAt:    c.CreatedAt,
	}
}

func toScheduleResponse(e *tracker.ScheduleEntry) ScheduleResponse {
	return ScheduleResponse{
		ID:        e.ID,
		CourseID:  e.CourseID,
		Date:      e.Date,
		TimeSlot:  e.TimeSlot,
		Status:    e.Status,
		UpdatedAt: e.UpdatedAt,
	}
}

func toScheduleWithCourseResponses(items []tracker.ScheduleWithCourse) []ScheduleWithCourseResponse {
	result := make([]ScheduleWithCourseResponse, 0, len(items))
	for i := range items {
		result = append(result, ScheduleWithCourseResponse{
			Schedule: toScheduleResponse(&items[i].Schedule),
			Course:   toCourseResponse(&items[i].Course),
		})
	}
	return result
}

func toAppointmentResponse(a *tracker.Appointment) AppointmentResponse {
	return AppointmentResponse{
		ID:              a.ID,
		DoctorName:      a.DoctorName,
		AppointmentDate: a.Date,
		AppointmentTime: a.Time,
		Purpose:         a.Purpose,
		Notes:           a.Notes,
		Completed:       a.Completed,
		CreatedAt:       a.CreatedAt,
	}
}
