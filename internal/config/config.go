package config

import (
	"time"

	"github.com/spf13/viper"
)

type (
	Config struct {
		API
		Database
		Cache
		Health
		Auth
		Media
		Sync
	}

	API struct {
		BaseURL string
		Timeout time.Duration
	}
	Database struct {
		Path string
	}
	Cache struct {
		TTL           time.Duration
		PruneSchedule string // Cron format: "0 * * * *" = hourly
	}
	Health struct {
		Enabled  bool
		Interval time.Duration
	}
	Auth struct {
		// RefreshMargin controls how close to expiry an access token may get
		// before a refresh is attempted.
		RefreshMargin time.Duration
	}
	Media struct {
		CacheDir string
	}
	Sync struct {
		Enabled           bool
		Workers           int
		MaxRetries        int
		RetryDelay        time.Duration
		TaskTimeout       time.Duration
		ReleaseAfter      time.Duration
		CleanupInterval   time.Duration
		RetentionDuration time.Duration
	}
)

func NewConfig() *Config {
	v := viper.New()
	v.AutomaticEnv()
	v.SetDefault("api_base_url", "http://localhost:8000")
	v.SetDefault("api_timeout", "30s")
	v.SetDefault("database_path", DefaultDatabasePath)
	v.SetDefault("cache_ttl", "5m")
	v.SetDefault("cache_prune_schedule", "0 * * * *") // Hourly at :00
	v.SetDefault("health_enabled", true)
	v.SetDefault("health_interval", "15s")
	v.SetDefault("auth_refresh_margin", "1m")
	v.SetDefault("media_cache_dir", DefaultMediaCacheDir)

	// Background override sync defaults
	v.SetDefault("sync_enabled", true)
	v.SetDefault("sync_workers", 2)
	v.SetDefault("sync_max_retries", 3)
	v.SetDefault("sync_retry_delay", "1m")
	v.SetDefault("sync_task_timeout", "2m")
	v.SetDefault("sync_release_after", "15m")
	v.SetDefault("sync_cleanup_interval", "1h")
	v.SetDefault("sync_retention_duration", "24h")

	return &Config{
		API: API{
			BaseURL: v.GetString("API_BASE_URL"),
			Timeout: v.GetDuration("API_TIMEOUT"),
		},
		Database: Database{
			Path: v.GetString("DATABASE_PATH"),
		},
		Cache: Cache{
			TTL:           v.GetDuration("CACHE_TTL"),
			PruneSchedule: v.GetString("CACHE_PRUNE_SCHEDULE"),
		},
		Health: Health{
			Enabled:  v.GetBool("HEALTH_ENABLED"),
			Interval: v.GetDuration("HEALTH_INTERVAL"),
		},
		Auth: Auth{
			RefreshMargin: v.GetDuration("AUTH_REFRESH_MARGIN"),
		},
		Media: Media{
			CacheDir: v.GetString("MEDIA_CACHE_DIR"),
		},
		Sync: Sync{
			Enabled:           v.GetBool("SYNC_ENABLED"),
			Workers:           v.GetInt("SYNC_WORKERS"),
			MaxRetries:        v.GetInt("SYNC_MAX_RETRIES"),
			RetryDelay:        v.GetDuration("SYNC_RETRY_DELAY"),
			TaskTimeout:       v.GetDuration("SYNC_TASK_TIMEOUT"),
			ReleaseAfter:      v.GetDuration("SYNC_RELEASE_AFTER"),
			CleanupInterval:   v.GetDuration("SYNC_CLEANUP_INTERVAL"),
			RetentionDuration: v.GetDuration("SYNC_RETENTION_DURATION"),
		},
	}
}
