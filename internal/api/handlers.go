package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/pillbox/medication-adherence-tracker/internal/tracker"
)

func createCourseHandler(svc *tracker.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req CreateCourseRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		if req.CourseName == "" {
			writeError(w, http.StatusBadRequest, "validation_error", "course_name is required")
			return
		}
		if req.PillName == "" {
			writeError(w, http.StatusBadRequest, "validation_error", "pill_name is required")
			return
		}
		if req.DurationDays == nil {
			writeError(w, http.StatusBadRequest, "validation_error", "duration_days is required")
			return
		}

		startDate, err := tracker.ParseDate(req.StartDate)
		if err != nil {
			writeError(w, http.StatusBadRequest, "validation_error", "start_date must be a YYYY-MM-DD date")
			return
		}

		slots := make([]tracker.TimeSlot, 0, len(req.TimeSlots))
		for _, s := range req.TimeSlots {
			slot, ok := tracker.ParseTimeSlot(s)
			if !ok {
				writeError(w, http.StatusBadRequest, "validation_error",
					"time_slots entries must be one of Morning, Afternoon, Night")
				return
			}
			slots = append(slots, slot)
		}

		course, err := svc.CreateCourse(r.Context(), tracker.CreateCourseInput{
			CourseName:   req.CourseName,
			PillName:     req.PillName,
			TimeSlots:    slots,
			StartDate:    startDate,
			DurationDays: *req.DurationDays,
		})
		if err != nil {
			handleDomainError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, toCourseResponse(course))
	}
}

func listCoursesHandler(svc *tracker.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		courses, err := svc.Courses(r.Context())
		if err != nil {
			handleDomainError(w, err)
			return
		}

		resp := make([]CourseResponse, 0, len(courses))
		for i := range courses {
			resp = append(resp, toCourseResponse(&courses[i]))
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

func getCourseHandler(svc *tracker.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := parseIDParam(w, r)
		if !ok {
			return
		}

		course, err := svc.Course(r.Context(), id)
		if err != nil {
			handleDomainError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, toCourseResponse(course))
	}
}

func deleteCourseHandler(svc *tracker.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := parseIDParam(w, r)
		if !ok {
			return
		}

		if err := svc.DeleteCourse(r.Context(), id); err != nil {
			handleDomainError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, MessageResponse{Message: "Course deleted successfully"})
	}
}

func courseProgressHandler(svc *tracker.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := parseIDParam(w, r)
		if !ok {
			return
		}

		progress, err := svc.Progress(r.Context(), id)
		if err != nil {
			handleDomainError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, ProgressResponse{
			CourseID:            progress.CourseID,
			TotalPills:          progress.TotalPills,
			TakenPills:          progress.TakenPills,
			MissedPills:         progress.MissedPills,
			PendingPills:        progress.PendingPills,
			ProgressPercentage:  progress.ProgressPercentage,
			AdherencePercentage: progress.AdherencePercentage,
		})
	}
}

func todaySchedulesHandler(svc *tracker.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		items, err := svc.TodaySchedules(r.Context())
		if err != nil {
			handleDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toScheduleWithCourseResponses(items))
	}
}

func schedulesByDateHandler(svc *tracker.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		date, err := tracker.ParseDate(chi.URLParam(r, "date"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "validation_error", "date must be a YYYY-MM-DD date")
			return
		}

		items, err := svc.SchedulesForDate(r.Context(), date)
		if err != nil {
			handleDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toScheduleWithCourseResponses(items))
	}
}

func updateScheduleHandler(svc *tracker.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := parseIDParam(w, r)
		if !ok {
			return
		}

		var req UpdateScheduleRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		status, valid := tracker.ParseDoseStatus(req.Status)
		if !valid {
			writeError(w, http.StatusBadRequest, "validation_error", "status must be taken or missed")
			return
		}

		if err := svc.MarkDose(r.Context(), id, status); err != nil {
			handleDomainError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, MessageResponse{Message: "Schedule updated successfully"})
	}
}

func pendingRemindersHandler(svc *tracker.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		items, err := svc.PendingReminders(r.Context())
		if err != nil {
			handleDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toScheduleWithCourseResponses(items))
	}
}

func sweepHandler(svc *tracker.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		count, err := svc.SweepMissed(r.Context())
		if err != nil {
			handleDomainError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, SweepResponse{
			Message:      "Marked pending pills as missed",
			UpdatedCount: count,
		})
	}
}

func analyticsOverviewHandler(svc *tracker.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		overview, err := svc.Overview(r.Context())
		if err != nil {
			handleDomainError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, OverviewResponse{
			WeeklyAdherence:      overview.WeeklyAdherence,
			MonthlyAdherence:     overview.MonthlyAdherence,
			ActiveCourses:        overview.ActiveCourses,
			UpcomingAppointments: overview.UpcomingAppointments,
			WeeklyStats:          toWindowStatsResponse(overview.WeeklyStats),
			MonthlyStats:         toWindowStatsResponse(overview.MonthlyStats),
		})
	}
}

func toWindowStatsResponse(s tracker.WindowStats) WindowStatsResponse {
	return WindowStatsResponse{Taken: s.Taken, Missed: s.Missed, Total: s.Total}
}

func parseIDParam(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_id", "id must be a valid UUID")
		return uuid.Nil, false
	}
	return id, true
}

func handleDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, tracker.ErrCourseNotFound):
		writeError(w, http.StatusNotFound, "course_not_found", err.Error())
	case errors.Is(err, tracker.ErrScheduleNotFound):
		writeError(w, http.StatusNotFound, "schedule_not_found", err.Error())
	case errors.Is(err, tracker.ErrAppointmentNotFound):
		writeError(w, http.StatusNotFound, "appointment_not_found", err.Error())
	case errors.Is(err, tracker.ErrInvalidTimeSlot),
		errors.Is(err, tracker.ErrInvalidStatus),
		errors.Is(err, tracker.ErrStatusReverted):
		writeError(w, http.StatusBadRequest, "validation_error", err.Error())
	case errors.Is(err, tracker.ErrSweepInProgress):
		writeError(w, http.StatusConflict, "sweep_in_progress", "a sweep is already running, please retry shortly")
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
	}
}
