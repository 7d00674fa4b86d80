package tasks

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSyncer struct {
	entityType string
	pushed     []string
	err        error
}

func (f *fakeSyncer) EntityType() string { return f.entityType }

func (f *fakeSyncer) PushOverride(ctx context.Context, slug string) error {
	f.pushed = append(f.pushed, slug)
	return f.err
}

func TestSyncOverrideProcessor_DispatchesByEntityType(t *testing.T) {
	articles := &fakeSyncer{entityType: "articles"}
	books := &fakeSyncer{entityType: "books"}

	process := SyncOverrideProcessor(map[string]OverrideSyncer{
		"articles": articles,
		"books":    books,
	})

	err := process(context.Background(), SyncOverrideTask{EntityType: "books", Slug: "dune"})
	require.NoError(t, err)

	assert.Empty(t, articles.pushed)
	assert.Equal(t, []string{"dune"}, books.pushed)
}

func TestSyncOverrideProcessor_UnknownEntityType(t *testing.T) {
	process := SyncOverrideProcessor(map[string]OverrideSyncer{})

	err := process(context.Background(), SyncOverrideTask{EntityType: "widgets", Slug: "x"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "widgets")
}

func TestSyncOverrideProcessor_PushFailurePropagatesForRetry(t *testing.T) {
	failing := &fakeSyncer{entityType: "articles", err: errors.New("server still down")}

	process := SyncOverrideProcessor(map[string]OverrideSyncer{"articles": failing})

	err := process(context.Background(), SyncOverrideTask{EntityType: "articles", Slug: "draft"})
	require.Error(t, err)
	assert.Equal(t, []string{"draft"}, failing.pushed)
}

func TestSyncOverrideTask_QueueConfig(t *testing.T) {
	cfg := SyncOverrideTask{}.Config()

	assert.Equal(t, "sync_override", cfg.Name)
	assert.Equal(t, 3, cfg.MaxAttempts)
	require.NotNil(t, cfg.Retention)
}
