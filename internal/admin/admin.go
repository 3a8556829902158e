// Package admin serves the operational endpoints on a separate listener:
// a health check and the pprof handlers.
package admin

import (
	"encoding/json"
	"net/http"
	"time"

	"molintel/internal"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// HealthReporter reports when the compound table was last loaded
type HealthReporter interface {
	FetchedAt() (time.Time, bool)
}

// App is the admin HTTP application
type App struct {
	router *chi.Mux
	health HealthReporter
	logger *internal.Logger
}

// NewApp creates the admin router. health may be nil.
func NewApp(health HealthReporter) *App {
	a := &App{
		router: chi.NewRouter(),
		health: health,
		logger: internal.DefaultLogger.With("Admin"),
	}
	a.setupMiddleware()
	a.setupRoutes()
	return a
}

func (a *App) setupMiddleware() {
	a.router.Use(middleware.RequestID)
	a.router.Use(middleware.Logger)
	a.router.Use(middleware.Recoverer)
}

func (a *App) setupRoutes() {
	a.router.Get("/healthz", a.handleHealth)
	a.router.Mount("/debug", middleware.Profiler())
}

// Handler exposes the router, for tests and custom listeners
func (a *App) Handler() http.Handler {
	return a.router
}

// Start listens on addr until the server fails
func (a *App) Start(addr string) error {
	a.logger.Info("profiling server starting on %s", addr)
	a.logger.Info("view profiles: go tool pprof -http=:8081 http://localhost%s/debug/pprof/profile?seconds=30", addr)
	return http.ListenAndServe(addr, a.router)
}

func (a *App) handleHealth(w http.ResponseWriter, r *http.Request) {
	body := map[string]interface{}{"status": "ok"}
	if a.health != nil {
		if at, ok := a.health.FetchedAt(); ok {
			body["last_load"] = at.UTC().Format(time.RFC3339)
		}
	}
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(body); err != nil {
		a.logger.Warn("failed to write health response: %v", err)
	}
}
