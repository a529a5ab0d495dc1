package repository

import (
	"context"
	"time"

	"github.com/andrewyy141/market-intel-bot/internal/entity"

	"gorm.io/gorm"
)

// AlertHistoryRepository defines the interface for the dispatched-alert log.
type AlertHistoryRepository interface {
	Log(ctx context.Context, signalID int64, ticker string) error
	CountToday(ctx context.Context) (int64, error)
}

// NewAlertHistoryRepository creates a new instance of AlertHistoryRepository.
func NewAlertHistoryRepository(db *gorm.DB) AlertHistoryRepository {
	return &alertHistoryRepository{db: db}
}

type alertHistoryRepository struct {
	db *gorm.DB
}

func (r *alertHistoryRepository) Log(ctx context.Context, signalID int64, ticker string) error {
	record := entity.AlertHistory{
		SignalID:  signalID,
		Ticker:    ticker,
		Timestamp: time.Now(),
	}
	return r.db.WithContext(ctx).Create(&record).Error
}

// CountToday counts alerts dispatched since local midnight, the window the
// daily cap is measured against.
func (r *alertHistoryRepository) CountToday(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&entity.AlertHistory{}).
		Where("timestamp >= ?", startOfDay(time.Now())).
		Count(&count).Error
	return count, err
}

// startOfDay returns midnight of now's calendar day, where the daily alert
// window resets.
func startOfDay(now time.Time) time.Time {
	year, month, day := now.Date()
	return time.Date(year, month, day, 0, 0, 0, 0, now.Location())
}
