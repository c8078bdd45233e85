package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/pillbox/medication-adherence-tracker/internal/tracker"
)

type RouterConfig struct {
	Service     *tracker.Service
	PgPool      *pgxpool.Pool
	Redis       *redis.Client
	Env         string
	Version     string
	CORSOrigins []string
}

func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(RequestIDMiddleware)
	r.Use(LoggingMiddleware)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
	}))

	health := NewHealthHandler(cfg.PgPool, cfg.Redis, cfg.Env, cfg.Version)
	r.Get("/health/live", health.Liveness)
	r.Get("/health/ready", health.Readiness)

	svc := cfg.Service

	r.Route("/courses", func(r chi.Router) {
		r.Post("/", createCourseHandler(svc))
		r.Get("/", listCoursesHandler(svc))
		r.Get("/{id}", getCourseHandler(svc))
		r.Delete("/{id}", deleteCourseHandler(svc))
		r.Get("/{id}/progress", courseProgressHandler(svc))
	})

	r.Route("/schedules", func(r chi.Router) {
		r.Get("/today", todaySchedulesHandler(svc))
		r.Get("/date/{date}", schedulesByDateHandler(svc))
		r.Get("/pending-reminders", pendingRemindersHandler(svc))
		r.Put("/{id}", updateScheduleHandler(svc))
		r.Post("/auto-mark-missed", sweepHandler(svc))
	})

	r.Route("/appointments", func(r chi.Router) {
		r.Post("/", createAppointmentHandler(svc))
		r.Get("/", listAppointmentsHandler(svc))
		r.Get("/upcoming", upcomingAppointmentsHandler(svc))
		r.Put("/{id}", updateAppointmentHandler(svc))
		r.Delete("/{id}", deleteAppointmentHandler(svc))
	})

	r.Get("/analytics/overview", analyticsOverviewHandler(svc))

	return r
}
