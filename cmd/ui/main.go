package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"

	"molintel/internal/cache"
	"molintel/internal/dashboard"
	"molintel/internal/loader"
	"molintel/internal/testkit"
	"molintel/ui"

	"github.com/gin-gonic/gin"
)

// Serves the dashboard over generated demo compounds, without a database
func main() {
	port := flag.String("port", "8080", "Port to listen on")
	count := flag.Int("count", 90, "Number of synthetic compounds")
	flag.Parse()

	genConfig := testkit.DefaultCompoundConfig()
	genConfig.SyntheticCount = *count
	source := testkit.NewStaticSource("demo compounds", testkit.NewCompoundGenerator(genConfig).GenerateTable())

	service := dashboard.NewService(cache.NewMemo(loader.New(source, true), 0))

	gin.SetMode(gin.DebugMode)
	server, err := ui.NewServer(service, ui.Options{
		Title:   "Molecular Intelligence Pro (demo)",
		Caption: "Synthetic data generated by `molintel-ui`",
	})
	if err != nil {
		log.Fatal("Failed to create UI server:", err)
	}

	log.Printf("Starting Molecular Intelligence demo UI on http://localhost:%s", *port)
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if err := server.Start(ctx, ":"+*port); err != nil {
		log.Fatal(err)
	}
}
