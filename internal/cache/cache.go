// Package cache persists last-known-good fetch snapshots for offline
// fallback reads. A snapshot is written after every successful fetch and
// read only when the network is unreachable. There is no TTL and no
// version field: staleness is unbounded and callers must tolerate it.
package cache

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/vnioa/studymate-sync/internal/entities"
)

// ErrNoSnapshot indicates no snapshot was ever written for a key.
var ErrNoSnapshot = errors.New("no snapshot for key")

// SnapshotStore is a JSON key-value store over the local database.
type SnapshotStore struct {
	db *gorm.DB
}

// New creates a SnapshotStore over an already opened database.
func New(db *gorm.DB) (*SnapshotStore, error) {
	if err := db.AutoMigrate(&entities.Snapshot{}); err != nil {
		return nil, fmt.Errorf("failed to migrate schema: %w", err)
	}
	return &SnapshotStore{db: db}, nil
}

// Put serializes v and upserts it under key.
func (s *SnapshotStore) Put(key string, v any) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode snapshot %s: %w", key, err)
	}

	record := &entities.Snapshot{Key: key, Value: string(payload)}
	result := s.db.Where("key = ?", key).
		Assign(map[string]interface{}{
			"value":      string(payload),
			"updated_at": time.Now(),
		}).
		FirstOrCreate(record)
	if result.Error != nil {
		return fmt.Errorf("failed to save snapshot %s: %w", key, result.Error)
	}
	return nil
}

// Get decodes the snapshot stored under key into out. Returns ErrNoSnapshot
// when the key was never written.
func (s *SnapshotStore) Get(key string, out any) error {
	var record entities.Snapshot
	result := s.db.Where("key = ?", key).First(&record)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return ErrNoSnapshot
		}
		return fmt.Errorf("failed to load snapshot %s: %w", key, result.Error)
	}

	if err := json.Unmarshal([]byte(record.Value), out); err != nil {
		return fmt.Errorf("failed to decode snapshot %s: %w", key, err)
	}
	return nil
}

// UpdatedAt returns when the snapshot under key was last written.
func (s *SnapshotStore) UpdatedAt(key string) (*time.Time, error) {
	var record entities.Snapshot
	result := s.db.Where("key = ?", key).First(&record)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrNoSnapshot
		}
		return nil, fmt.Errorf("failed to load snapshot %s: %w", key, result.Error)
	}
	return &record.UpdatedAt, nil
}

// Delete removes the snapshot under key. Missing keys are a no-op.
func (s *SnapshotStore) Delete(key string) error {
	result := s.db.Where("key = ?", key).Delete(&entities.Snapshot{})
	if result.Error != nil {
		return fmt.Errorf("failed to delete snapshot %s: %w", key, result.Error)
	}
	return nil
}
