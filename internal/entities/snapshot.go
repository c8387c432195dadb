package entities

import (
	"time"
)

// Snapshot is a last-known-good JSON copy of a fetch batch, kept for
// offline fallback reads. No TTL and no version field; staleness is
// unbounded and callers must tolerate it.
type Snapshot struct {
	Key       string    `gorm:"primaryKey;size:100" json:"key"` // e.g. "learning_home_cache"
	Value     string    `gorm:"type:text" json:"value"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Snapshot) TableName() string {
	return "snapshots"
}

// Known snapshot keys
const (
	SnapshotKeyLearningHome = "learning_home_cache"
	SnapshotKeyFriendsList  = "friends_list_cache"
)
