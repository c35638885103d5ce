package repository

import (
	"context"
	"time"

	"driveauth/internal/model"

	"gorm.io/gorm"
)

type HistoryRepository struct {
	db *gorm.DB
}

func NewHistoryRepository(db *gorm.DB) *HistoryRepository {
	return &HistoryRepository{db: db}
}

// Record saves one sign-in attempt. A nil signInErr is recorded as a success.
func (r *HistoryRepository) Record(ctx context.Context, provider model.Provider, signInErr error) error {
	status := model.StatusSuccess
	errMsg := ""
	if signInErr != nil {
		status = model.StatusFailed
		errMsg = signInErr.Error()
	}

	history := model.History{
		Provider:   provider,
		Status:     status,
		ErrMsg:     errMsg,
		SignedInAt: time.Now(),
	}

	return r.db.WithContext(ctx).Create(&history).Error
}

type Stats struct {
	Total   int64
	Success int64
	Failed  int64
}

func (r *HistoryRepository) GetStats(ctx context.Context) (Stats, error) {
	var stats Stats
	db := r.db.WithContext(ctx)
	if err := db.Model(&model.History{}).Count(&stats.Total).Error; err != nil {
		return stats, err
	}

	if err := db.Model(&model.History{}).
		Where("status = ?", model.StatusSuccess).
		Count(&stats.Success).Error; err != nil {
		return stats, err
	}

	stats.Failed = stats.Total - stats.Success
	return stats, nil
}

func (r *HistoryRepository) GetRecent(ctx context.Context, limit int) ([]model.History, error) {
	var histories []model.History
	result := r.db.WithContext(ctx).
		Order("signed_in_at desc").
		Order("id desc").
		Limit(limit).
		Find(&histories)

	return histories, result.Error
}

func (r *HistoryRepository) GetByProvider(ctx context.Context, provider model.Provider, limit int) ([]model.History, error) {
	var histories []model.History
	result := r.db.WithContext(ctx).
		Where("provider = ?", provider).
		Order("signed_in_at desc").
		Order("id desc").
		Limit(limit).
		Find(&histories)

	return histories, result.Error
}
