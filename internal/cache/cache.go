// Package cache provides a TTL-memoizing decorator for read operations,
// backed by the client state database so cached reads survive restarts.
package cache

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"gorm.io/gorm"

	"github.com/viixen/nix-client/internal/database"
	"github.com/viixen/nix-client/internal/entities"
)

type Cache struct {
	db *database.Database
}

func New(db *database.Database) *Cache {
	return &Cache{db: db}
}

// Wrap decorates fn with read-through caching. The key is derived from the
// argument; an entry younger than ttl short-circuits fn entirely.
// Concurrent calls with the same key before the first resolves each invoke
// fn; that is accepted because fn is a pure idempotent read.
func Wrap[A any, T any](c *Cache, keyFn func(A) string, ttl time.Duration, fn func(context.Context, A) (T, error)) func(context.Context, A) (T, error) {
	return func(ctx context.Context, arg A) (T, error) {
		key := keyFn(arg)

		if payload, ok := c.lookup(key, ttl); ok {
			var cached T
			if err := json.Unmarshal(payload, &cached); err == nil {
				return cached, nil
			}
			log.Printf("Cache: discarding undecodable entry %q", key)
		}

		result, err := fn(ctx, arg)
		if err != nil {
			var zero T
			return zero, err
		}
		c.store(key, result)
		return result, nil
	}
}

// Invalidate removes an entry unconditionally. Domain writes call this for
// the matching read key to guarantee read-after-write visibility.
func (c *Cache) Invalidate(key string) {
	err := c.db.DB.Where("key = ?", key).Delete(&entities.CacheEntry{}).Error
	if err != nil {
		log.Printf("Cache: failed to invalidate %q: %v", key, err)
	}
}

// Prune removes entries older than maxAge. Scheduled periodically so the
// backing table does not grow without bound.
func (c *Cache) Prune(maxAge time.Duration) {
	cutoff := time.Now().Add(-maxAge)
	result := c.db.DB.Where("timestamp < ?", cutoff).Delete(&entities.CacheEntry{})
	if result.Error != nil {
		log.Printf("Cache: prune failed: %v", result.Error)
		return
	}
	if result.RowsAffected > 0 {
		log.Printf("Cache: pruned %d expired entries", result.RowsAffected)
	}
}

func (c *Cache) lookup(key string, ttl time.Duration) ([]byte, bool) {
	var entry entities.CacheEntry
	err := c.db.DB.Where("key = ?", key).First(&entry).Error
	if err != nil {
		if err != gorm.ErrRecordNotFound {
			log.Printf("Cache: failed to read %q: %v", key, err)
		}
		return nil, false
	}
	if time.Since(entry.Timestamp) >= ttl {
		return nil, false
	}
	return []byte(entry.Payload), true
}

func (c *Cache) store(key string, value any) {
	payload, err := json.Marshal(value)
	if err != nil {
		log.Printf("Cache: failed to encode %q: %v", key, err)
		return
	}

	var existing entities.CacheEntry
	result := c.db.DB.Where("key = ?", key).First(&existing)
	if result.Error == gorm.ErrRecordNotFound {
		entry := entities.CacheEntry{Key: key, Payload: string(payload), Timestamp: time.Now()}
		if err := c.db.DB.Create(&entry).Error; err != nil {
			log.Printf("Cache: failed to store %q: %v", key, err)
		}
		return
	}
	if result.Error != nil {
		log.Printf("Cache: failed to read %q: %v", key, result.Error)
		return
	}

	existing.Payload = string(payload)
	existing.Timestamp = time.Now()
	if err := c.db.DB.Save(&existing).Error; err != nil {
		log.Printf("Cache: failed to store %q: %v", key, err)
	}
}
