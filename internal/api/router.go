package api

import (
	"net/http"

	"github.com/cognisync/cognisync-api/internal/api/handlers"
	"github.com/cognisync/cognisync-api/internal/api/middleware"
	"github.com/cognisync/cognisync-api/internal/config"
	"github.com/cognisync/cognisync-api/internal/service"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
)

func NewRouter(services *service.Services, cfg *config.Config) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chiMiddleware.Logger)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.RequestID)
	r.Use(middleware.CORS)

	// Health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("OK"))
	})

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(services.Auth)
	sessionHandler := handlers.NewSessionHandler(services.Session, cfg)
	adminHandler := handlers.NewAdminHandler(services.Auth, services.Audit, services.Retention)

	// API v1 routes
	r.Route("/api/v1", func(r chi.Router) {
		// Public auth routes
		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", authHandler.Register)
			r.Post("/login", authHandler.Login)

			// Protected auth routes
			r.Group(func(r chi.Router) {
				r.Use(middleware.Auth(services.Auth))
				r.Get("/me", authHandler.Me)
				r.Post("/mfa/setup", authHandler.SetupMFA)
				r.Post("/mfa/verify", authHandler.VerifyMFA)
			})
		})

		// Protected routes
		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(services.Auth))

			// Session routes
			r.Route("/sessions", func(r chi.Router) {
				r.Post("/", sessionHandler.Create)
				r.Get("/", sessionHandler.List)
				r.Get("/{sessionId}", sessionHandler.Get)
				r.Delete("/{sessionId}", sessionHandler.Delete)
				r.Get("/{sessionId}/download", sessionHandler.Download)
				r.Get("/{sessionId}/export/{format}", sessionHandler.Export)
			})

			// Admin routes
			r.Route("/admin", func(r chi.Router) {
				r.Use(middleware.RequireAdmin)
				r.Get("/audit", adminHandler.ListAudit)
				r.Post("/users/{userId}/approve", adminHandler.ApproveUser)
				r.Get("/retention/stats", adminHandler.RetentionStats)
				r.Post("/retention/cleanup", adminHandler.RunCleanup)
			})
		})
	})

	return r
}
