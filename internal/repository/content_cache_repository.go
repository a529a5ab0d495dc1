package repository

import (
	"context"
	"errors"
	"time"

	"github.com/andrewyy141/market-intel-bot/internal/entity"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ContentCacheRepository defines the interface for the durable dedup index.
type ContentCacheRepository interface {
	Exists(ctx context.Context, hash string) (bool, error)
	Add(ctx context.Context, hash, ticker, source string) error
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

// NewContentCacheRepository creates a new instance of ContentCacheRepository.
func NewContentCacheRepository(db *gorm.DB) ContentCacheRepository {
	return &contentCacheRepository{db: db}
}

type contentCacheRepository struct {
	db *gorm.DB
}

func (r *contentCacheRepository) Exists(ctx context.Context, hash string) (bool, error) {
	var cached entity.ContentCache
	err := r.db.WithContext(ctx).
		Where("content_hash = ?", hash).
		First(&cached).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// Add records a content hash. Inserting a hash that already exists is a no-op
// so concurrent writers do not conflict.
func (r *contentCacheRepository) Add(ctx context.Context, hash, ticker, source string) error {
	cached := entity.ContentCache{
		ContentHash: hash,
		Ticker:      ticker,
		Source:      source,
		CreatedAt:   time.Now(),
	}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "content_hash"}},
			DoNothing: true,
		}).
		Create(&cached).Error
}

// DeleteOlderThan purges cache rows created before the cutoff and returns the
// number of rows removed.
func (r *contentCacheRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	tx := r.db.WithContext(ctx).
		Where("created_at < ?", cutoff).
		Delete(&entity.ContentCache{})
	return tx.RowsAffected, tx.Error
}
