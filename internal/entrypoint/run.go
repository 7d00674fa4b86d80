package entrypoint

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/viixen/nix-client/internal/config"
)

// Run starts the client in daemon mode: health polling and background
// override sync stay active until SIGINT/SIGTERM.
func Run(cfg *config.Config, version string) {
	app, err := New(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize client: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := app.Start(ctx); err != nil {
		log.Fatalf("Failed to start background loops: %v", err)
	}

	log.Printf("nix-client %s connected to %s", version, cfg.API.BaseURL)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	app.Stop(shutdownCtx)

	if err := app.Close(); err != nil {
		log.Printf("Failed to close client state: %v", err)
	}
}
