package cli

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/viixen/nix-client/internal/health"
)

// HealthCommand performs a single health probe against the backend.
type HealthCommand struct {
	BaseURL      string
	DatabasePath string
}

func NewHealthCommand() *HealthCommand {
	return &HealthCommand{}
}

func (cmd *HealthCommand) ParseFlags(args []string) error {
	fs := flag.NewFlagSet("health", flag.ExitOnError)

	fs.StringVar(&cmd.BaseURL, "url", "", "API base URL (overrides API_BASE_URL)")
	fs.StringVar(&cmd.DatabasePath, "db", "", "Path to the local state database")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s health [options]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Probe the backend health endpoint once and report the result.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		fs.PrintDefaults()
	}

	return fs.Parse(args)
}

func (cmd *HealthCommand) Run() error {
	app, err := buildApp(cmd.BaseURL, cmd.DatabasePath)
	if err != nil {
		return err
	}
	defer app.Close()

	status := app.Health.Check(context.Background())

	fmt.Printf("State:   %s\n", status.State)
	fmt.Printf("Latency: %s\n", status.Latency)
	if status.Message != "" {
		fmt.Printf("Message: %s\n", status.Message)
	}

	if status.State != health.StateHealthy {
		os.Exit(1)
	}
	return nil
}
