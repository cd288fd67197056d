package http

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/cmlabs-hris/hris-timesheet-go/internal/domain/user"
	"github.com/cmlabs-hris/hris-timesheet-go/internal/handler/http/middleware"
	"github.com/cmlabs-hris/hris-timesheet-go/internal/handler/http/response"
	"github.com/cmlabs-hris/hris-timesheet-go/internal/pkg/jwt"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httplog/v3"
	"github.com/go-chi/jwtauth/v5"
)

// HealthCheck reports whether a backing dependency is reachable.
type HealthCheck func(ctx context.Context) error

type RouterConfig struct {
	Logger       *slog.Logger
	CORSOrigins  []string
	HealthChecks map[string]HealthCheck
}

func NewRouter(cfg RouterConfig, JWTService jwt.Service, geofenceHandler GeofenceHandler, timesheetHandler TimesheetHandler) *chi.Mux {
	r := chi.NewRouter()

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowCredentials: true,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link"},
		MaxAge:           300,
	}))

	if cfg.Logger != nil {
		r.Use(httplog.RequestLogger(cfg.Logger, &httplog.Options{
			Level:  slog.LevelDebug,
			Schema: httplog.SchemaECS,
		}))
	}

	r.Use(chiMiddleware.CleanPath)
	r.Use(chiMiddleware.Recoverer)

	r.Get("/health", healthHandler(cfg.HealthChecks))

	r.Route("/api/v1", func(r chi.Router) {
		// Requires authentication. EventSource cannot set headers, so the
		// stream also accepts ?jwt=.
		r.Group(func(r chi.Router) {
			r.Use(jwtauth.Verify(JWTService.JWTAuth(), jwtauth.TokenFromHeader, jwtauth.TokenFromQuery))
			r.Use(middleware.AuthRequired(JWTService.JWTAuth()))

			r.Route("/geofence", func(r chi.Router) {
				r.Group(func(r chi.Router) {
					r.Use(middleware.RequirePermission(user.PermissionGeofenceView))
					r.Get("/zones", geofenceHandler.ListZones)
					r.Get("/zones/{id}", geofenceHandler.GetZone)
					r.Post("/validate", geofenceHandler.ValidateLocation)
					r.Get("/statistics", geofenceHandler.Statistics)
					r.Get("/coverage", geofenceHandler.Coverage)
					r.Get("/violations", geofenceHandler.ListViolations)
					r.Get("/violations/stream", geofenceHandler.StreamViolations)
				})

				r.Group(func(r chi.Router) {
					r.Use(middleware.RequirePermission(user.PermissionGeofenceManage))
					r.Post("/zones", geofenceHandler.CreateZone)
					r.Put("/zones/{id}", geofenceHandler.UpdateZone)
					r.Delete("/zones/{id}", geofenceHandler.DeleteZone)
					r.Patch("/zones/{id}/toggle", geofenceHandler.ToggleZone)
					r.Post("/violations/{id}/acknowledge", geofenceHandler.AcknowledgeViolation)
				})
			})

			r.Route("/timesheets", func(r chi.Router) {
				r.Use(middleware.RequirePermission(user.PermissionTimesheetWrite))
				r.Post("/", timesheetHandler.Create)
				r.Post("/bulk", timesheetHandler.BulkCreate)
				r.Get("/check-duplicate", timesheetHandler.CheckDuplicate)
				r.Get("/{id}", timesheetHandler.Get)
				r.Put("/{id}", timesheetHandler.Update)
			})
		})
	})
	return r
}

func healthHandler(checks map[string]HealthCheck) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		status := map[string]string{"status": "ok"}
		healthy := true
		for name, check := range checks {
			if err := check(ctx); err != nil {
				slog.Error("health check failed", "dependency", name, "error", err)
				status[name] = "unavailable"
				healthy = false
				continue
			}
			status[name] = "ok"
		}

		if !healthy {
			status["status"] = "degraded"
			response.ServiceUnavailable(w, status)
			return
		}
		response.Success(w, status)
	}
}
