// Package audit keeps a local log of sync batch outcomes so failed or
// skipped batches can be diagnosed after the fact. Events are pruned past
// a retention window by a background task.
package audit

import (
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/vnioa/studymate-sync/internal/entities"
)

// Service records and queries sync events.
type Service struct {
	db *gorm.DB
}

// NewService creates an audit service over an already opened database.
func NewService(db *gorm.DB) (*Service, error) {
	if err := db.AutoMigrate(&entities.SyncEvent{}); err != nil {
		return nil, fmt.Errorf("failed to migrate schema: %w", err)
	}
	return &Service{db: db}, nil
}

// RecordSync stores one batch outcome. Implements syncer.Observer.
// Recording is best-effort: a storage failure is logged, never propagated
// into the sync path.
func (s *Service) RecordSync(feature, batchID, status, message string, duration time.Duration) {
	event := entities.SyncEvent{
		ID:         uuid.NewString(),
		Feature:    feature,
		BatchID:    batchID,
		Status:     entities.SyncStatus(status),
		Message:    message,
		DurationMS: duration.Milliseconds(),
		CreatedAt:  time.Now(),
	}

	if err := s.db.Create(&event).Error; err != nil {
		log.Printf("audit: failed to record sync event for %s: %v", feature, err)
	}
}

// Recent returns the latest events, newest first.
func (s *Service) Recent(limit int) ([]entities.SyncEvent, error) {
	if limit <= 0 {
		limit = 20
	}

	var events []entities.SyncEvent
	err := s.db.Order("created_at DESC").Limit(limit).Find(&events).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list sync events: %w", err)
	}
	return events, nil
}

// RecentByFeature returns the latest events for one feature, newest first.
func (s *Service) RecentByFeature(feature string, limit int) ([]entities.SyncEvent, error) {
	if limit <= 0 {
		limit = 20
	}

	var events []entities.SyncEvent
	err := s.db.Where("feature = ?", feature).
		Order("created_at DESC").Limit(limit).Find(&events).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list sync events: %w", err)
	}
	return events, nil
}

// DeleteOldEvents removes events older than retention and returns how many
// were deleted.
func (s *Service) DeleteOldEvents(retention time.Duration) (int64, error) {
	cutoff := time.Now().Add(-retention)
	result := s.db.Where("created_at < ?", cutoff).Delete(&entities.SyncEvent{})
	if result.Error != nil {
		return 0, fmt.Errorf("failed to delete old sync events: %w", result.Error)
	}
	return result.RowsAffected, nil
}
