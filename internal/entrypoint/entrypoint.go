// Package entrypoint wires the full client stack: state database, token
// store, request executor, domain services, health poller and the
// background override sync.
package entrypoint

import (
	"context"
	"fmt"
	"log"
	"path/filepath"

	"github.com/robfig/cron/v3"

	"github.com/viixen/nix-client/internal/api"
	"github.com/viixen/nix-client/internal/cache"
	"github.com/viixen/nix-client/internal/config"
	"github.com/viixen/nix-client/internal/database"
	"github.com/viixen/nix-client/internal/events"
	"github.com/viixen/nix-client/internal/health"
	"github.com/viixen/nix-client/internal/media"
	"github.com/viixen/nix-client/internal/overrides"
	"github.com/viixen/nix-client/internal/services"
	"github.com/viixen/nix-client/internal/tasks"
	"github.com/viixen/nix-client/internal/tokenstore"
)

// App is the assembled client. Domain services share one executor, one
// override store and one cache; nothing here is process-global, so tests
// and multiple profiles can hold independent instances.
type App struct {
	Config *config.Config

	DB        *database.Database
	Bus       *events.Bus
	Tokens    *tokenstore.Store
	Client    *api.Client
	Overrides *overrides.Store
	Cache     *cache.Cache
	Media     *media.Cache

	Auth       *services.AuthService
	Articles   *services.ArticleService
	Books      *services.BookService
	Mangas     *services.MangaService
	Categories *services.CategoryService
	Users      *services.UserService
	Stats      *services.StatisticsService

	Health *health.Poller
	Sync   *tasks.Client

	maintenance *cron.Cron
}

// New assembles the client from configuration. Call Start to begin the
// background loops and Close when done.
func New(cfg *config.Config) (*App, error) {
	db, err := database.NewDatabase(cfg.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("open client state database: %w", err)
	}

	bus := events.NewBus()

	keyFile := filepath.Join(filepath.Dir(cfg.Database.Path), ".nix-token-key")
	tokens, err := tokenstore.New(db, keyFile)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("open token store: %w", err)
	}

	normalizer := api.NewNormalizer(bus, tokens, api.InterfaceOfflineProbe)
	client := api.NewClient(cfg.API.BaseURL, cfg.API.Timeout, tokens, normalizer)

	overrideStore := overrides.New(db)
	cacheStore := cache.New(db)

	mediaCache, err := media.NewCache(cfg.Media.CacheDir)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("open media cache: %w", err)
	}

	deps := services.Deps{
		Client:    client,
		Overrides: overrideStore,
		Cache:     cacheStore,
		CacheTTL:  cfg.Cache.TTL,
	}

	app := &App{
		Config:     cfg,
		DB:         db,
		Bus:        bus,
		Tokens:     tokens,
		Client:     client,
		Overrides:  overrideStore,
		Cache:      cacheStore,
		Media:      mediaCache,
		Auth:       services.NewAuthService(client, tokens, cfg.Auth.RefreshMargin),
		Articles:   services.NewArticleService(deps),
		Books:      services.NewBookService(deps),
		Mangas:     services.NewMangaService(deps),
		Categories: services.NewCategoryService(deps),
		Users:      services.NewUserService(deps),
		Stats:      services.NewStatisticsService(deps),
		Health:     health.NewPoller(client, bus, cfg.Health.Interval),
	}

	if cfg.Sync.Enabled {
		syncClient, err := tasks.NewClient(cfg.Database.Path, tasks.Config{
			Workers:           cfg.Sync.Workers,
			MaxRetries:        cfg.Sync.MaxRetries,
			RetryDelay:        cfg.Sync.RetryDelay,
			TaskTimeout:       cfg.Sync.TaskTimeout,
			ReleaseAfter:      cfg.Sync.ReleaseAfter,
			CleanupInterval:   cfg.Sync.CleanupInterval,
			RetentionDuration: cfg.Sync.RetentionDuration,
		})
		if err != nil {
			db.Close()
			return nil, fmt.Errorf("open sync queue: %w", err)
		}
		syncClient.Register(tasks.NewSyncOverrideQueue(app.overrideSyncers()))
		app.Sync = syncClient
	}

	return app, nil
}

func (a *App) overrideSyncers() []tasks.OverrideSyncer {
	return []tasks.OverrideSyncer{
		a.Articles.Resilient,
		a.Books.Resilient,
		a.Mangas.Resilient,
		a.Categories.Resilient,
		a.Users.Resilient,
	}
}

// Start launches the health poller, override sync workers and the cache
// maintenance schedule.
func (a *App) Start(ctx context.Context) error {
	if a.Config.Health.Enabled {
		if err := a.Health.Start(); err != nil {
			return err
		}
	}

	if a.Sync != nil {
		a.Sync.Start(ctx)
		a.enqueuePendingOverrides(ctx)
	}

	a.maintenance = cron.New()
	_, err := a.maintenance.AddFunc(a.Config.Cache.PruneSchedule, func() {
		a.Cache.Prune(a.Config.Cache.TTL)
		if a.Sync != nil {
			// Overrides whose pushes ran out of retries get another round.
			a.enqueuePendingOverrides(ctx)
		}
	})
	if err != nil {
		return fmt.Errorf("schedule cache pruning: %w", err)
	}
	a.maintenance.Start()

	return nil
}

// enqueuePendingOverrides requeues every override left from a previous
// session, so edits made while the server was down are retried on start.
func (a *App) enqueuePendingOverrides(ctx context.Context) {
	for _, syncer := range a.overrideSyncers() {
		entityType := syncer.EntityType()
		for _, slug := range a.Overrides.Slugs(entityType) {
			task := tasks.SyncOverrideTask{EntityType: entityType, Slug: slug}
			if _, err := a.Sync.Add(task).Ctx(ctx).Save(); err != nil {
				log.Printf("Failed to enqueue pending override %s/%s: %v", entityType, slug, err)
			}
		}
	}
}

// Stop halts background loops, waiting for in-flight sync pushes until the
// context deadline.
func (a *App) Stop(ctx context.Context) {
	if a.maintenance != nil {
		a.maintenance.Stop()
	}
	a.Health.Stop()
	if a.Sync != nil {
		a.Sync.Stop(ctx)
	}
}

// Close releases the databases. Call after Stop.
func (a *App) Close() error {
	if a.Sync != nil {
		if err := a.Sync.Close(); err != nil {
			log.Printf("Failed to close sync queue: %v", err)
		}
	}
	return a.DB.Close()
}
