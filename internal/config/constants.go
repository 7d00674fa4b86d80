package config

// Default paths for client-side state
const (
	// DefaultDatabasePath is the default path for the client state database
	DefaultDatabasePath = "./nix-client.db"

	// DefaultMediaCacheDir is the default directory for cached cover images
	DefaultMediaCacheDir = "./media-cache"
)
