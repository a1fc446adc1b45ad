package httpserver

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"water-app-go/internal/config"
	"water-app-go/internal/transport/httpserver/handler"
	authmw "water-app-go/internal/transport/httpserver/middleware"
	"water-app-go/pkg/logger"
)

// NewRouter mounts the API. metrics may be nil when no registry is wired.
func NewRouter(cfg config.Config, handlers *handler.Handlers, metrics http.Handler, log logger.Logger) http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(requestLogger(log))
	r.Use(chimw.Recoverer)
	r.Use(chimw.Timeout(30 * time.Second))
	r.Use(authmw.NewCORS(cfg.CORS.AllowedOrigins))

	if metrics != nil {
		r.Method(http.MethodGet, "/metrics", metrics)
	}

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", handlers.Health)
		r.Post("/users", handlers.CreateUser)

		auth := authmw.NewJWTAuth(cfg.Auth, log)
		r.Group(func(r chi.Router) {
			r.Use(auth.Middleware)

			r.Get("/users/me", handlers.GetMe)

			r.Get("/properties", handlers.ListProperties)
			r.Post("/properties", handlers.CreateProperty)
			r.Delete("/properties/{root_id}", handlers.DeleteProperty)

			r.Get("/properties/{property_id}/tenants", handlers.ListTenants)
			r.Post("/properties/{property_id}/tenants", handlers.AddTenant)
			r.Delete("/properties/{property_id}/tenants/{user_id}", handlers.RemoveTenant)

			r.Post("/invitations", handlers.RegisterInvitation)
			r.Get("/invitations", handlers.ListInvitations)
			r.Patch("/invitations/{invitation_id}", handlers.UpdateInvitation)

			r.Post("/water/{water_id}/registrations", handlers.RegisterWater)
			r.Get("/water/{water_id}/registrations", handlers.GetWaterRegistration)
			r.Post("/water/{water_id}/usage", handlers.RecordUsage)

			r.Get("/dashboard", handlers.Dashboard)
		})
	})

	return r
}

func requestLogger(log logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)
			log.Info("http: request",
				"request_id", chimw.GetReqID(r.Context()),
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"duration_ms", time.Since(start).Milliseconds(),
			)
		})
	}
}
