package tasks

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/mikestefanello/backlite"
)

// SyncEventCleaner deletes sync audit events older than the retention.
type SyncEventCleaner interface {
	DeleteOldEvents(retention time.Duration) (int64, error)
}

// CleanupSyncEventsTask trims the sync audit trail. The daemon enqueues
// one per day; the queue survives restarts so a missed run catches up.
type CleanupSyncEventsTask struct {
	RetentionDays int `json:"retention_days"`
}

func (t CleanupSyncEventsTask) Config() backlite.QueueConfig {
	return backlite.QueueConfig{
		Name:        "cleanup_sync_events",
		MaxAttempts: 3,
		Backoff:     5 * time.Minute,
		Timeout:     2 * time.Minute,
		Retention: &backlite.Retention{
			Duration:   24 * time.Hour,
			OnlyFailed: false,
			Data:       &backlite.RetainData{OnlyFailed: true},
		},
	}
}

// CleanupSyncEventsProcessor builds the processor for the cleanup queue.
func CleanupSyncEventsProcessor(cleaner SyncEventCleaner) backlite.QueueProcessor[CleanupSyncEventsTask] {
	return func(ctx context.Context, task CleanupSyncEventsTask) error {
		if cleaner == nil {
			return fmt.Errorf("sync event cleaner not configured")
		}

		retentionDays := task.RetentionDays
		if retentionDays <= 0 {
			retentionDays = 30
		}

		deleted, err := cleaner.DeleteOldEvents(time.Duration(retentionDays) * 24 * time.Hour)
		if err != nil {
			return fmt.Errorf("cleanup sync events: %w", err)
		}

		log.Printf("tasks: removed %d sync events older than %d days", deleted, retentionDays)
		return nil
	}
}

// NewCleanupSyncEventsQueue creates the cleanup queue.
func NewCleanupSyncEventsQueue(cleaner SyncEventCleaner) backlite.Queue {
	return backlite.NewQueue(CleanupSyncEventsProcessor(cleaner))
}
