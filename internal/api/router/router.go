package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/clinicflow/clinicflow/internal/http/handlers"
	httpmiddleware "github.com/clinicflow/clinicflow/internal/http/middleware"
	"github.com/clinicflow/clinicflow/internal/observability/metrics"
	"github.com/clinicflow/clinicflow/internal/stats"
	"github.com/clinicflow/clinicflow/pkg/logging"
)

// Config holds router configuration.
type Config struct {
	Logger             *logging.Logger
	Appointments       *handlers.AppointmentsHandler
	Schedule           *handlers.ScheduleHandler
	Session            *handlers.SessionHandler
	Nudge              *handlers.NudgeHandler
	Voice              *handlers.VoiceHandler
	Dashboard          *stats.DashboardHandler
	Metrics            *metrics.APIMetrics
	MetricsHandler     http.Handler
	AuthSecret         string
	CORSAllowedOrigins []string
}

// New creates a Chi router with all routes configured.
func New(cfg *Config) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))
	if len(cfg.CORSAllowedOrigins) > 0 {
		r.Use(httpmiddleware.CORS(cfg.CORSAllowedOrigins))
	}
	if cfg.Logger != nil {
		r.Use(httpmiddleware.RequestLogger(cfg.Logger))
	}
	if cfg.Metrics != nil {
		r.Use(cfg.Metrics.Instrument)
	}

	// Public endpoints.
	r.Group(func(public chi.Router) {
		public.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"status":"ok"}`))
		})
		if cfg.MetricsHandler != nil {
			public.Handle("/metrics", cfg.MetricsHandler)
		}
		if cfg.Voice != nil {
			public.Post("/webhooks/voice", cfg.Voice.HandleEvent)
		}
	})

	// Role-scoped API.
	r.Group(func(api chi.Router) {
		api.Use(httpmiddleware.RoleJWT(cfg.AuthSecret))

		if cfg.Appointments != nil {
			api.Route("/appointments", func(r chi.Router) {
				r.Get("/", cfg.Appointments.List)
				r.Post("/", cfg.Appointments.Create)
				r.Get("/cancelled", cfg.Appointments.ListCancelled)
				r.Get("/attention", cfg.Appointments.Attention)
				r.Route("/{id}", func(r chi.Router) {
					r.Get("/", cfg.Appointments.Get)
					r.Patch("/", cfg.Appointments.Patch)
					r.Post("/confirm", cfg.Appointments.Confirm)
					r.Post("/intake/complete", cfg.Appointments.CompleteIntake)
					r.Post("/intake/summary", cfg.Appointments.SetIntakeSummary)
					r.Post("/arrive", cfg.Appointments.MarkArrived)
					r.Post("/reschedule", cfg.Appointments.Reschedule)
					r.Post("/cancel", cfg.Appointments.Cancel)
					r.Get("/notes", cfg.Appointments.Notes)
					r.Post("/notes", cfg.Appointments.AddNote)
					r.Put("/notes/{noteID}", cfg.Appointments.UpdateNote)
					r.Post("/follow-up", cfg.Appointments.SetFollowUp)
					if cfg.Nudge != nil {
						r.Post("/nudge", cfg.Nudge.Send)
					}
				})
			})
		}
		if cfg.Schedule != nil {
			api.Get("/schedule", cfg.Schedule.GetSchedule)
		}
		if cfg.Dashboard != nil {
			api.Get("/dashboard", cfg.Dashboard.GetDashboard)
		}
		if cfg.Voice != nil {
			api.Get("/voice/calls/{callID}", cfg.Voice.GetCall)
		}
		if cfg.Session != nil {
			api.Get("/session", cfg.Session.Get)
			api.Put("/session", cfg.Session.Put)
		}
	})

	return r
}
