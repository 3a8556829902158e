package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"molintel/internal/admin"
	"molintel/internal/config"
	"molintel/internal/container"
	"molintel/internal/dashboard"
	"molintel/ui"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
)

func main() {
	// Load environment variables from .env file
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	if err := run(); err != nil {
		log.Fatal(err)
	}
}

// run owns every resource so deferred cleanup happens before main exits
func run() error {
	appConfig, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	appContainer, err := container.New(ctx, appConfig)
	if err != nil {
		return fmt.Errorf("failed to create application container: %w", err)
	}
	defer func() {
		if err := appContainer.Shutdown(context.Background()); err != nil {
			log.Printf("[Shutdown] %v", err)
		}
	}()

	// Warm the memo so the first page view is served from cache
	warm := appContainer.Dashboard.Run(ctx, dashboard.Request{})
	log.Printf("[Startup] initial load: %d compounds, status %s", warm.Load.Total, warm.Outcome.Status)

	gin.SetMode(appConfig.Server.GinMode)
	server, err := ui.NewServer(appContainer.Dashboard, ui.Options{
		Title:           appConfig.Dashboard.Title,
		Caption:         appConfig.Dashboard.Caption,
		RefreshInterval: appConfig.Dashboard.RefreshInterval,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize server: %w", err)
	}

	// Start pprof and health server
	if appConfig.Profiling.Enabled {
		adminApp := admin.NewApp(appContainer.Memo)
		go func() {
			if err := adminApp.Start(":" + appConfig.Profiling.Port); err != nil {
				log.Printf("[Admin] server failed: %v", err)
			}
		}()
	}

	log.Printf("Starting Molecular Intelligence dashboard on port %s", appConfig.Server.Port)
	return server.Start(ctx, ":"+appConfig.Server.Port)
}
