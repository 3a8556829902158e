package ui

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"strings"
	"time"

	"molintel/internal"
	"molintel/internal/dashboard"

	"github.com/gin-gonic/gin"
)

//go:embed templates/*.html static/*
var embeddedFiles embed.FS

const shutdownTimeout = 10 * time.Second

// Options configures the dashboard page
type Options struct {
	Title string
	// Caption is markdown rendered in the page footer
	Caption         string
	RefreshInterval time.Duration
}

// Server is the dashboard web server
type Server struct {
	router    *gin.Engine
	service   *dashboard.Service
	templates *template.Template
	options   Options
	caption   template.HTML
	logger    *internal.Logger
}

// NewServer creates the server and registers its routes. gin's mode is
// global and is expected to be set by the caller.
func NewServer(service *dashboard.Service, options Options) (*Server, error) {
	if options.RefreshInterval <= 0 {
		options.RefreshInterval = time.Minute
	}

	s := &Server{
		router:  gin.Default(),
		service: service,
		options: options,
		caption: renderMarkdown(options.Caption),
		logger:  internal.DefaultLogger.With("UI"),
	}

	funcMap := template.FuncMap{
		"upper": strings.ToUpper,
		"cell":  cellValue,
	}
	templates, err := template.New("").Funcs(funcMap).ParseFS(embeddedFiles, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}
	s.templates = templates

	if err := s.setupMiddleware(); err != nil {
		return nil, err
	}
	s.setupRoutes()
	return s, nil
}

func (s *Server) setupMiddleware() error {
	staticFS, err := fs.Sub(embeddedFiles, "static")
	if err != nil {
		return fmt.Errorf("failed to create static filesystem: %w", err)
	}
	s.router.StaticFS("/static", http.FS(staticFS))
	return nil
}

func (s *Server) setupRoutes() {
	s.router.GET("/", s.handleIndex)
	s.router.GET("/export.csv", s.handleExportCSV)
	s.router.GET("/export.xlsx", s.handleExportXLSX)

	api := s.router.Group("/api")
	{
		api.GET("/dashboard", s.handleDashboardJSON)
		api.POST("/refresh", s.handleRefresh)
	}
}

// Handler exposes the router, for tests
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start serves on addr until ctx is cancelled, then drains in-flight
// requests. A clean shutdown returns nil.
func (s *Server) Start(ctx context.Context, addr string) error {
	srv := &http.Server{Addr: addr, Handler: s.router}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("dashboard listening on %s (auto-refresh every %s)", addr, s.options.RefreshInterval)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("dashboard shutdown: %w", err)
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	s.logger.Info("dashboard stopped")
	return nil
}
