package overrides

import (
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/viixen/nix-client/internal/database"
)

type testArticle struct {
	Slug  string `json:"slug"`
	Title string `json:"title"`
}

func setupTestStore(t *testing.T) *Store {
	t.Helper()

	db, err := database.NewDatabase(filepath.Join(t.TempDir(), "state.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	return New(db)
}

func TestStore_PutGetRoundtrip(t *testing.T) {
	s := setupTestStore(t)

	s.Put("articles", "hello", testArticle{Slug: "hello", Title: "Hello"})

	var got testArticle
	require.True(t, s.Get("articles", "hello", &got))
	assert.Equal(t, "Hello", got.Title)

	// Put replaces the previous copy.
	s.Put("articles", "hello", testArticle{Slug: "hello", Title: "Hello v2"})
	require.True(t, s.Get("articles", "hello", &got))
	assert.Equal(t, "Hello v2", got.Title)
}

func TestStore_GetMissReturnsFalse(t *testing.T) {
	s := setupTestStore(t)

	var got testArticle
	assert.False(t, s.Get("articles", "absent", &got))
}

func TestStore_TypesAreIsolated(t *testing.T) {
	s := setupTestStore(t)

	s.Put("articles", "shared-slug", testArticle{Slug: "shared-slug", Title: "Article"})

	var got testArticle
	assert.False(t, s.Get("books", "shared-slug", &got))
}

func TestStore_ListPreservesInsertionOrder(t *testing.T) {
	s := setupTestStore(t)

	s.Put("articles", "first", testArticle{Slug: "first"})
	s.Put("articles", "second", testArticle{Slug: "second"})
	s.Put("articles", "third", testArticle{Slug: "third"})
	// Rewriting an existing slug must not move it to the back.
	s.Put("articles", "first", testArticle{Slug: "first", Title: "edited"})

	records := s.List("articles")
	require.Len(t, records, 3)
	assert.Equal(t, "first", records[0].Slug)
	assert.Equal(t, "second", records[1].Slug)
	assert.Equal(t, "third", records[2].Slug)

	assert.Equal(t, []string{"first", "second", "third"}, s.Slugs("articles"))
}

func TestStore_Tombstones(t *testing.T) {
	s := setupTestStore(t)

	s.Put("articles", "doomed", testArticle{Slug: "doomed"})
	s.MarkDeleted("articles", "doomed")

	var got testArticle
	assert.False(t, s.Get("articles", "doomed", &got), "a tombstoned slug reads as absent")
	assert.True(t, s.IsDeleted("articles", "doomed"))
	assert.Empty(t, s.List("articles"))
	assert.True(t, s.DeletedSlugs("articles")["doomed"])

	// A fresh write through Put revives the slug.
	s.Put("articles", "doomed", testArticle{Slug: "doomed", Title: "Back"})
	require.True(t, s.Get("articles", "doomed", &got))
	assert.False(t, s.IsDeleted("articles", "doomed"))
}

func TestStore_MarkDeletedWithoutPriorRecord(t *testing.T) {
	s := setupTestStore(t)

	s.MarkDeleted("articles", "never-existed")
	assert.True(t, s.IsDeleted("articles", "never-existed"))
}

func TestStore_ClearRemovesRecordEntirely(t *testing.T) {
	s := setupTestStore(t)

	s.Put("articles", "confirmed", testArticle{Slug: "confirmed"})
	s.Clear("articles", "confirmed")

	var got testArticle
	assert.False(t, s.Get("articles", "confirmed", &got))
	assert.False(t, s.IsDeleted("articles", "confirmed"))
}

func TestMergeList_ServerWinsOnConflict(t *testing.T) {
	server := []testArticle{
		{Slug: "a", Title: "Server A"},
		{Slug: "b", Title: "Server B"},
	}
	records := []Record{
		{Slug: "b", Data: mustJSON(t, testArticle{Slug: "b", Title: "Local B"})},
		{Slug: "c", Data: mustJSON(t, testArticle{Slug: "c", Title: "Local C"})},
	}

	merged := MergeList(server, records, nil, func(a testArticle) string { return a.Slug })

	require.Len(t, merged, 3)
	assert.Equal(t, "Server A", merged[0].Title)
	assert.Equal(t, "Server B", merged[1].Title, "server copy wins over the override")
	assert.Equal(t, "Local C", merged[2].Title, "unmatched override is appended")
}

func TestMergeList_TombstonesNeverResurface(t *testing.T) {
	server := []testArticle{
		{Slug: "kept"},
		{Slug: "deleted-locally"},
	}
	deleted := map[string]bool{"deleted-locally": true}

	merged := MergeList(server, nil, deleted, func(a testArticle) string { return a.Slug })

	require.Len(t, merged, 1)
	assert.Equal(t, "kept", merged[0].Slug)
}

func TestMergeList_UndecodableOverrideSkipped(t *testing.T) {
	records := []Record{
		{Slug: "bad", Data: json.RawMessage(`{broken`)},
		{Slug: "good", Data: mustJSON(t, testArticle{Slug: "good"})},
	}

	merged := MergeList(nil, records, nil, func(a testArticle) string { return a.Slug })

	require.Len(t, merged, 1)
	assert.Equal(t, "good", merged[0].Slug)
}

func mustJSON(t *testing.T, v any) json.RawMessage {
	t.Helper()
	data, err := json.Marshal(v)
	require.NoError(t, err)
	return data
}
