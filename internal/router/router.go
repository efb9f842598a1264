package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/nuv-canteen/api/internal/config"
	"github.com/nuv-canteen/api/internal/database"
	"github.com/nuv-canteen/api/internal/enum"
	"github.com/nuv-canteen/api/internal/handler"
	mw "github.com/nuv-canteen/api/internal/middleware"
	"github.com/nuv-canteen/api/internal/service"
	"github.com/nuv-canteen/api/internal/ws"
)

// New creates a Chi router with all application routes wired up.
func New(cfg *config.Config, queries *database.Queries, sessions *service.SessionManager, hub *ws.Hub) chi.Router {
	r := chi.NewRouter()

	// Standard middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// CORS configuration
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:5173"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300, // 5 minutes
	}))

	// Public routes
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok","version":"1.0.0"}`))
	})

	// Auth routes (public)
	authHandler := handler.NewAuthHandler(queries, cfg.JWTSecret)
	authHandler.RegisterRoutes(r)

	// Menu catalog is readable without login, like the counter display
	menuHandler := handler.NewMenuHandler(queries)
	r.Route("/menu", menuHandler.RegisterRoutes)

	// WebSocket route (handles auth internally via query param)
	r.Get("/ws/orders", func(w http.ResponseWriter, r *http.Request) {
		ws.ServeWS(hub, cfg.JWTSecret, w, r)
	})

	// Protected routes (require authentication)
	r.Group(func(r chi.Router) {
		r.Use(mw.Authenticate(cfg.JWTSecret))

		sessionHandler := handler.NewSessionHandler(sessions, queries, service.NewReceiptFormatter(), hub)
		r.Route("/session", sessionHandler.RegisterRoutes)

		orderHandler := handler.NewOrderHandler(queries)
		r.Route("/orders", orderHandler.RegisterRoutes)

		// Staff-only routes
		r.Group(func(r chi.Router) {
			r.Use(mw.RequireRole(enum.UserRoleAdmin))
			r.Route("/admin/menu", menuHandler.RegisterAdminRoutes)
			r.Route("/admin/orders", orderHandler.RegisterAdminRoutes)
		})
	})

	return r
}
