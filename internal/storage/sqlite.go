package storage

import (
	"context"
	"errors"
	"fmt"

	"driveauth/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SQLiteStore keeps items in the kv_items table. The table is created by db.Open.
type SQLiteStore struct {
	db *gorm.DB
}

var _ Store = (*SQLiteStore)(nil)

func NewSQLiteStore(db *gorm.DB) (*SQLiteStore, error) {
	if db == nil {
		return nil, fmt.Errorf("missing database")
	}

	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) GetItem(ctx context.Context, key string) (string, bool, error) {
	var item model.Item
	err := s.db.WithContext(ctx).Where("item_key = ?", key).Take(&item).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to read item %s: %w", key, err)
	}

	return item.Value, true, nil
}

func (s *SQLiteStore) SetItem(ctx context.Context, key, value string) error {
	item := model.Item{Key: key, Value: value}
	err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "item_key"}},
			DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
		}).
		Create(&item).Error
	if err != nil {
		return fmt.Errorf("failed to write item %s: %w", key, err)
	}

	return nil
}
