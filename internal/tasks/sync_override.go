package tasks

import (
	"context"
	"fmt"
	"time"

	"github.com/mikestefanello/backlite"
)

// OverrideSyncer pushes one pending local override to the server. Each
// domain service implements it for its own entity type.
type OverrideSyncer interface {
	EntityType() string
	PushOverride(ctx context.Context, slug string) error
}

// SyncOverrideTask pushes the override for one (entity type, slug) pair.
type SyncOverrideTask struct {
	EntityType string `json:"entity_type"`
	Slug       string `json:"slug"`
}

// Config returns the queue configuration for override pushes.
func (t SyncOverrideTask) Config() backlite.QueueConfig {
	return backlite.QueueConfig{
		Name:        "sync_override",
		MaxAttempts: 3,
		Backoff:     1 * time.Minute,
		Timeout:     2 * time.Minute,
		Retention: &backlite.Retention{
			Duration:   24 * time.Hour,
			OnlyFailed: false,
			Data:       &backlite.RetainData{OnlyFailed: true},
		},
	}
}

// SyncOverrideProcessor creates the processor dispatching pushes to the
// service registered for the task's entity type.
func SyncOverrideProcessor(syncers map[string]OverrideSyncer) backlite.QueueProcessor[SyncOverrideTask] {
	return func(ctx context.Context, task SyncOverrideTask) error {
		syncer, ok := syncers[task.EntityType]
		if !ok {
			return fmt.Errorf("no syncer registered for entity type %q", task.EntityType)
		}
		if err := syncer.PushOverride(ctx, task.Slug); err != nil {
			return fmt.Errorf("sync %s/%s: %w", task.EntityType, task.Slug, err)
		}
		return nil
	}
}

// NewSyncOverrideQueue creates the backlite queue for override pushes.
func NewSyncOverrideQueue(syncers []OverrideSyncer) backlite.Queue {
	byType := make(map[string]OverrideSyncer, len(syncers))
	for _, s := range syncers {
		byType[s.EntityType()] = s
	}
	return backlite.NewQueue(SyncOverrideProcessor(byType))
}
