package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/hackgods/clinic-operations/internal/appointment"
	"github.com/hackgods/clinic-operations/internal/directory"
	"github.com/hackgods/clinic-operations/internal/visit"
)

type RouterConfig struct {
	Appointments *appointment.Service
	Visits       *visit.Service
	Directory    directory.Directory
	Dependencies []Dependency
	Logger       zerolog.Logger
	Env          string
	Version      string
}

func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	// Apply middleware
	r.Use(RequestIDMiddleware)
	r.Use(LoggingMiddleware(cfg.Logger))
	r.Use(middleware.Recoverer)

	// Health endpoints
	health := NewHealthHandler(cfg.Dependencies, cfg.Env, cfg.Version)
	r.Get("/health/live", health.Liveness)
	r.Get("/health/ready", health.Readiness)

	// Appointment endpoints
	r.Post("/appointments", bookAppointmentHandler(cfg.Appointments))
	r.Get("/appointments/{day}", listDayAppointmentsHandler(cfg.Appointments))
	r.Get("/appointments/{day}/availability", availabilityHandler(cfg.Appointments))
	r.Delete("/appointments/{id}", cancelAppointmentHandler(cfg.Appointments))

	// Visit queue endpoints
	r.Post("/visits", checkInHandler(cfg.Visits, cfg.Directory))
	r.Get("/visits", listVisitsHandler(cfg.Visits))
	r.Get("/visits/today", todayQueueHandler(cfg.Visits))
	r.Patch("/visits/motif", updateMotifHandler(cfg.Visits))
	r.Delete("/visits", removeVisitByNameHandler(cfg.Visits))
	r.Delete("/visits/{id}", removeVisitByIDHandler(cfg.Visits))

	if cfg.Directory != nil {
		r.Get("/patients/lookup", patientLookupHandler(cfg.Directory))
	}

	// Paths used by the existing front end
	r.Route("/api", func(r chi.Router) {
		r.Post("/addVisit", checkInHandler(cfg.Visits, cfg.Directory))
		r.Get("/visits", listVisitsHandler(cfg.Visits))
		r.Patch("/updateMotif", updateMotifHandler(cfg.Visits))
		r.Delete("/removeVisit", removeVisitByNameHandler(cfg.Visits))
		if cfg.Directory != nil {
			r.Get("/users/getPatientId", patientLookupHandler(cfg.Directory))
		}
	})

	return r
}
