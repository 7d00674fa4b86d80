package tokenstore

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/viixen/nix-client/internal/database"
	"github.com/viixen/nix-client/internal/entities"
)

func setupTestStore(t *testing.T) (*Store, *database.Database, string) {
	t.Helper()
	t.Setenv(EnvEncryptionKey, "")

	dir := t.TempDir()
	db, err := database.NewDatabase(filepath.Join(dir, "state.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	keyPath := filepath.Join(dir, "token.key")
	store, err := New(db, keyPath)
	require.NoError(t, err)
	return store, db, keyPath
}

func TestStore_SaveAndReadBack(t *testing.T) {
	store, _, _ := setupTestStore(t)

	require.NoError(t, store.Save("access-token", "refresh-token"))

	access, ok := store.AccessToken()
	require.True(t, ok)
	assert.Equal(t, "access-token", access)

	refresh, ok := store.RefreshToken()
	require.True(t, ok)
	assert.Equal(t, "refresh-token", refresh)
}

func TestStore_SaveReplacesPreviousSession(t *testing.T) {
	store, _, _ := setupTestStore(t)

	require.NoError(t, store.Save("old-access", "old-refresh"))
	require.NoError(t, store.Save("new-access", "new-refresh"))

	access, ok := store.AccessToken()
	require.True(t, ok)
	assert.Equal(t, "new-access", access)
}

func TestStore_Clear(t *testing.T) {
	store, _, _ := setupTestStore(t)

	require.NoError(t, store.Save("access", "refresh"))
	require.NoError(t, store.Clear())

	_, ok := store.AccessToken()
	assert.False(t, ok)
	_, ok = store.RefreshToken()
	assert.False(t, ok)
}

func TestStore_TokensEncryptedAtRest(t *testing.T) {
	store, db, _ := setupTestStore(t)

	require.NoError(t, store.Save("secret-access", "secret-refresh"))

	var rows []entities.StoredToken
	require.NoError(t, db.DB.Find(&rows).Error)
	require.Len(t, rows, 2)
	for _, row := range rows {
		assert.NotContains(t, row.Value, "secret", "plaintext must not reach the database")
	}
}

func TestStore_KeyFilePersistsAcrossInstances(t *testing.T) {
	store, db, keyPath := setupTestStore(t)

	require.NoError(t, store.Save("access", "refresh"))

	info, err := os.Stat(keyPath)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	// A second store over the same database and key file can decrypt.
	reopened, err := New(db, keyPath)
	require.NoError(t, err)

	access, ok := reopened.AccessToken()
	require.True(t, ok)
	assert.Equal(t, "access", access)
}

func TestStore_AccessExpiresWithin(t *testing.T) {
	store, _, _ := setupTestStore(t)

	makeToken := func(exp time.Time) string {
		token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
			"sub": "1",
			"exp": exp.Unix(),
		})
		signed, err := token.SignedString([]byte("test-key"))
		require.NoError(t, err)
		return signed
	}

	t.Run("expiring soon", func(t *testing.T) {
		require.NoError(t, store.Save(makeToken(time.Now().Add(30*time.Second)), "refresh"))
		assert.True(t, store.AccessExpiresWithin(time.Minute))
	})

	t.Run("plenty of time left", func(t *testing.T) {
		require.NoError(t, store.Save(makeToken(time.Now().Add(time.Hour)), "refresh"))
		assert.False(t, store.AccessExpiresWithin(time.Minute))
	})

	t.Run("no stored token", func(t *testing.T) {
		require.NoError(t, store.Clear())
		assert.False(t, store.AccessExpiresWithin(time.Minute))
	})

	t.Run("opaque token", func(t *testing.T) {
		require.NoError(t, store.Save("not-a-jwt", "refresh"))
		assert.False(t, store.AccessExpiresWithin(time.Minute))
	})
}
