package router

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"go-timeclock/internal/config"
	"go-timeclock/internal/handler"
	"go-timeclock/internal/metrics"
	"go-timeclock/internal/middleware"
)

type Handlers struct {
	Auth     *handler.AuthHandler
	Employee *handler.EmployeeHandler
	Events   *handler.EventsHandler
	Health   func(context.Context) error
}

func New(cfg *config.Config, authMiddleware *middleware.AuthMiddleware, h Handlers, m *metrics.Metrics) http.Handler {
	r := chi.NewRouter()
	rateLimitMiddleware := middleware.NewRateLimitMiddleware(cfg.RateLimitRPM, cfg.AuthRateLimitRPM)

	r.Use(middleware.Recovery)
	r.Use(middleware.Logging)
	r.Use(middleware.Instrument(m))
	r.Use(middleware.CORS(cfg.CORSOrigins))
	r.Use(middleware.SecurityHeaders)

	r.Get("/health", func(w http.ResponseWriter, req *http.Request) {
		if h.Health != nil {
			if err := h.Health(req.Context()); err != nil {
				slog.Error("health check failed", "error", err)
				http.Error(w, "unavailable", http.StatusServiceUnavailable)
				return
			}
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Method(http.MethodGet, "/metrics", m.Handler())

	r.Route("/api", func(api chi.Router) {
		api.Use(rateLimitMiddleware.Handler)

		// http.TimeoutHandler cannot be hijacked, so the event stream sits
		// outside the timeout group.
		api.With(authMiddleware.RequireAuth, authMiddleware.RequireManager).Get("/events", h.Events.Stream)

		api.Group(func(api chi.Router) {
			api.Use(middleware.Timeout(cfg.RequestTimeout))

			api.Route("/auth", func(auth chi.Router) {
				auth.Post("/register", h.Auth.Register)
				auth.Post("/login", h.Auth.Login)
				auth.Post("/refreshToken", h.Auth.RefreshToken)
				auth.Post("/logout", h.Auth.Logout)
				auth.Get("/managers", h.Auth.Managers)
				auth.With(authMiddleware.RequireAuth).Get("/me", h.Auth.Me)
			})

			api.Route("/employees", func(emp chi.Router) {
				emp.Get("/managers", h.Employee.Managers)

				emp.Group(func(protected chi.Router) {
					protected.Use(authMiddleware.RequireAuth)

					protected.Post("/clock-in", h.Employee.ClockIn)
					protected.Post("/clock-out", h.Employee.ClockOut)
					protected.Get("/status", h.Employee.Status)
					protected.Get("/records", h.Employee.Records)
					protected.With(authMiddleware.RequireManager).Get("/team-records", h.Employee.TeamRecords)
					protected.Put("/records/{id}/approve", h.Employee.Approve)
					protected.Put("/records/{id}/reject", h.Employee.Reject)
				})
			})
		})
	})

	return r
}
