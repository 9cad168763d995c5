package web

import (
	"io/fs"
	"net/http"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/threadline-io/threadline/internal/auth"
	"github.com/threadline-io/threadline/internal/ratelimit"
	"github.com/threadline-io/threadline/internal/web/handlers"
	"github.com/threadline-io/threadline/internal/web/middleware"
)

// RouterDeps holds all dependencies needed to build the router.
type RouterDeps struct {
	AuthHandler   *handlers.AuthHandler
	ThreadHandler *handlers.ThreadHandler
	PublicHandler *handlers.PublicHandler
	APIHandler    *handlers.APIHandler
	AuthService   *auth.Service
	Limiter       *ratelimit.Limiter
	StaticFS      fs.FS
}

// NewRouter wires all routes into a Chi router.
func NewRouter(deps RouterDeps) *chi.Mux {
	r := chi.NewRouter()

	r.Use(chiMiddleware.Logger)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.RealIP)

	fileServer := http.FileServer(http.FS(deps.StaticFS))
	r.Handle("/static/*", http.StripPrefix("/static/", fileServer))

	// Admin auth routes (with CSRF)
	r.Group(func(r chi.Router) {
		r.Use(middleware.CSRF)
		r.Use(middleware.OptionalAuth(deps.AuthService))

		r.Get("/login", deps.AuthHandler.ShowLogin)
		r.Post("/login", deps.AuthHandler.HandleLogin)
		r.Get("/signup", deps.AuthHandler.ShowSignup)
		r.Post("/signup", deps.AuthHandler.HandleSignup)
		r.Post("/logout", deps.AuthHandler.HandleLogout)
	})

	// Authenticated admin routes (with CSRF + RequireAuth)
	r.Group(func(r chi.Router) {
		r.Use(middleware.CSRF)
		r.Use(middleware.RequireAuth(deps.AuthService))

		r.Get("/", deps.ThreadHandler.ShowDashboard)
		r.Get("/threads/{threadID}", deps.ThreadHandler.ShowThreadDetail)
		r.Post("/threads/cleanup", deps.ThreadHandler.HandleCleanup)
	})

	// Public thread pages (rate limited, no auth)
	r.Group(func(r chi.Router) {
		r.Use(middleware.RateLimit(deps.Limiter))

		r.Get("/email-thread/{threadID}", deps.PublicHandler.ShowThread)
		r.Get("/email-thread/{threadID}/embed", deps.PublicHandler.ShowEmbed)
	})

	// Internal ingest API (rate limited, no CSRF)
	r.Group(func(r chi.Router) {
		r.Use(middleware.RateLimit(deps.Limiter))

		r.Post("/api/v1/send-events", deps.APIHandler.HandleSendEvent)
	})

	return r
}
