package api

import (
	"encoding/json"
	"net/http"

	"github.com/pillbox/medication-adherence-tracker/internal/tracker"
)

func createAppointmentHandler(svc *tracker.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req CreateAppointmentRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		if req.DoctorName == "" {
			writeError(w, http.StatusBadRequest, "validation_error", "doctor_name is required")
			return
		}
		if req.Purpose == "" {
			writeError(w, http.StatusBadRequest, "validation_error", "purpose is required")
			return
		}

		date, err := tracker.ParseDate(req.AppointmentDate)
		if err != nil {
			writeError(w, http.StatusBadRequest, "validation_error", "appointment_date must be a YYYY-MM-DD date")
			return
		}

		clock, err := tracker.ParseClock(req.AppointmentTime)
		if err != nil {
			writeError(w, http.StatusBadRequest, "validation_error", "appointment_time must be a HH:MM:SS time")
			return
		}

		appt, err := svc.CreateAppointment(r.Context(), tracker.CreateAppointmentInput{
			DoctorName: req.DoctorName,
			Date:       date,
			Time:       clock,
			Purpose:    req.Purpose,
			Notes:      req.Notes,
		})
		if err != nil {
			handleDomainError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, toAppointmentResponse(appt))
	}
}

func listAppointmentsHandler(svc *tracker.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		appts, err := svc.Appointments(r.Context())
		if err != nil {
			handleDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toAppointmentResponses(appts))
	}
}

func upcomingAppointmentsHandler(svc *tracker.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		appts, err := svc.UpcomingAppointments(r.Context())
		if err != nil {
			handleDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toAppointmentResponses(appts))
	}
}

func updateAppointmentHandler(svc *tracker.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := parseIDParam(w, r)
		if !ok {
			return
		}

		var req UpdateAppointmentRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}
		if req.Completed == nil {
			writeError(w, http.StatusBadRequest, "validation_error", "completed is required")
			return
		}

		if err := svc.CompleteAppointment(r.Context(), id, *req.Completed); err != nil {
			handleDomainError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, MessageResponse{Message: "Appointment updated successfully"})
	}
}

func deleteAppointmentHandler(svc *tracker.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := parseIDParam(w, r)
		if !ok {
			return
		}

		if err := svc.DeleteAppointment(r.Context(), id); err != nil {
			handleDomainError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, MessageResponse{Message: "Appointment deleted successfully"})
	}
}

func toAppointmentResponses(appts []tracker.Appointment) []AppointmentResponse {
	result := make([]AppointmentResponse, 0, len(appts))
	for i := range appts {
		result = append(result, toAppointmentResponse(&appts[i]))
	}
	return result
}
