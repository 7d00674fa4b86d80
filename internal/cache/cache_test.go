package cache

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/viixen/nix-client/internal/database"
)

func setupTestCache(t *testing.T) *Cache {
	t.Helper()

	db, err := database.NewDatabase(filepath.Join(t.TempDir(), "state.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	return New(db)
}

func TestWrap_ServesFromCacheWithinTTL(t *testing.T) {
	c := setupTestCache(t)

	calls := 0
	fetch := Wrap(c, func(slug string) string { return "articles:get:" + slug },
		time.Minute,
		func(ctx context.Context, slug string) (map[string]string, error) {
			calls++
			return map[string]string{"slug": slug, "title": "Cached"}, nil
		})

	first, err := fetch(context.Background(), "hello")
	require.NoError(t, err)
	second, err := fetch(context.Background(), "hello")
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 1, calls, "second read must not invoke the fetcher")
}

func TestWrap_ExpiredEntryRefetches(t *testing.T) {
	c := setupTestCache(t)

	calls := 0
	fetch := Wrap(c, func(slug string) string { return "articles:get:" + slug },
		time.Nanosecond,
		func(ctx context.Context, slug string) (string, error) {
			calls++
			return "value", nil
		})

	_, err := fetch(context.Background(), "hello")
	require.NoError(t, err)
	time.Sleep(time.Millisecond)
	_, err = fetch(context.Background(), "hello")
	require.NoError(t, err)

	assert.Equal(t, 2, calls)
}

func TestWrap_ErrorsAreNotCached(t *testing.T) {
	c := setupTestCache(t)

	calls := 0
	fetch := Wrap(c, func(slug string) string { return "articles:get:" + slug },
		time.Minute,
		func(ctx context.Context, slug string) (string, error) {
			calls++
			if calls == 1 {
				return "", errors.New("server down")
			}
			return "recovered", nil
		})

	_, err := fetch(context.Background(), "hello")
	require.Error(t, err)

	value, err := fetch(context.Background(), "hello")
	require.NoError(t, err)
	assert.Equal(t, "recovered", value)
	assert.Equal(t, 2, calls)
}

func TestWrap_DistinctKeysAreIndependent(t *testing.T) {
	c := setupTestCache(t)

	fetch := Wrap(c, func(slug string) string { return "articles:get:" + slug },
		time.Minute,
		func(ctx context.Context, slug string) (string, error) {
			return "value of " + slug, nil
		})

	a, err := fetch(context.Background(), "first")
	require.NoError(t, err)
	b, err := fetch(context.Background(), "second")
	require.NoError(t, err)

	assert.Equal(t, "value of first", a)
	assert.Equal(t, "value of second", b)
}

func TestInvalidate_ForcesRefetch(t *testing.T) {
	c := setupTestCache(t)

	calls := 0
	fetch := Wrap(c, func(slug string) string { return "articles:get:" + slug },
		time.Minute,
		func(ctx context.Context, slug string) (string, error) {
			calls++
			return "value", nil
		})

	_, err := fetch(context.Background(), "hello")
	require.NoError(t, err)

	c.Invalidate("articles:get:hello")

	_, err = fetch(context.Background(), "hello")
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
}

func TestPrune_RemovesOnlyExpiredEntries(t *testing.T) {
	c := setupTestCache(t)

	c.store("old", "stale")
	c.store("fresh", "current")

	// Backdate the old entry past the prune horizon.
	err := c.db.DB.Exec("UPDATE cache_entries SET timestamp = ? WHERE key = ?",
		time.Now().Add(-2*time.Hour), "old").Error
	require.NoError(t, err)

	c.Prune(time.Hour)

	_, oldPresent := c.lookup("old", time.Hour)
	_, freshPresent := c.lookup("fresh", time.Hour)
	assert.False(t, oldPresent)
	assert.True(t, freshPresent)
}
