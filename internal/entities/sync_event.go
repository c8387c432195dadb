package entities

import (
	"time"
)

type SyncStatus string

const (
	SyncStatusSuccess SyncStatus = "success"
	SyncStatusFailed  SyncStatus = "failed"
	SyncStatusSkipped SyncStatus = "skipped"
)

// SyncEvent records the outcome of one sync batch for diagnostics.
type SyncEvent struct {
	ID         string     `gorm:"primaryKey;size:36" json:"id"`
	Feature    string     `gorm:"index;size:50" json:"feature"` // e.g. "learning", "friends"
	BatchID    string     `gorm:"size:36" json:"batch_id"`
	Status     SyncStatus `gorm:"size:20" json:"status"`
	Message    string     `gorm:"type:text" json:"message,omitempty"`
	DurationMS int64      `json:"duration_ms"`
	CreatedAt  time.Time  `gorm:"index" json:"created_at"`
}

func (SyncEvent) TableName() string {
	return "sync_events"
}
