package cli

import (
	"fmt"

	"github.com/viixen/nix-client/internal/config"
	"github.com/viixen/nix-client/internal/entrypoint"
)

// buildApp assembles the client for a one-shot CLI invocation. Commands
// do not start the background loops; they use the services directly.
func buildApp(baseURL, databasePath string) (*entrypoint.App, error) {
	cfg := config.NewConfig()
	if baseURL != "" {
		cfg.API.BaseURL = baseURL
	}
	if databasePath != "" {
		cfg.Database.Path = databasePath
	}
	// One-shot commands never push overrides in the background.
	cfg.Sync.Enabled = false

	app, err := entrypoint.New(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize client: %w", err)
	}
	return app, nil
}
