package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/yukikurage/taskboard/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormStore keeps documents in the storage_entries table, one row per key.
type GormStore struct {
	db  *gorm.DB
	now func() time.Time
}

// NewGormStore creates a GormStore on db. The storage_entries table must
// already be migrated.
func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db, now: time.Now}
}

// Get decodes the document under key into dst.
func (s *GormStore) Get(ctx context.Context, key string, dst any) (bool, error) {
	if key == "" {
		return false, ErrEmptyKey
	}

	var entry models.StorageEntry
	err := s.db.WithContext(ctx).Where(&models.StorageEntry{Key: key}).First(&entry).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("storage: load %q: %w", key, err)
	}

	if err := json.Unmarshal([]byte(entry.Value), dst); err != nil {
		return false, fmt.Errorf("storage: decode %q: %w", key, err)
	}
	return true, nil
}

// Set upserts the document under key.
func (s *GormStore) Set(ctx context.Context, key string, v any) error {
	if key == "" {
		return ErrEmptyKey
	}

	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("storage: encode %q: %w", key, err)
	}

	entry := models.StorageEntry{
		Key:       key,
		Value:     string(raw),
		UpdatedAt: s.now(),
	}
	err = s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&entry).Error
	if err != nil {
		return fmt.Errorf("storage: save %q: %w", key, err)
	}
	return nil
}

// Delete removes the row for key.
func (s *GormStore) Delete(ctx context.Context, key string) error {
	if key == "" {
		return ErrEmptyKey
	}

	if err := s.db.WithContext(ctx).Delete(&models.StorageEntry{Key: key}).Error; err != nil {
		return fmt.Errorf("storage: delete %q: %w", key, err)
	}
	return nil
}
