package repository

import (
	"context"
	"errors"
	"time"

	"github.com/andrewyy141/market-intel-bot/internal/entity"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// CooldownRepository defines the interface for per-ticker alert cooldowns.
type CooldownRepository interface {
	IsOnCooldown(ctx context.Context, ticker string, window time.Duration) (bool, error)
	Update(ctx context.Context, ticker string) error
}

// NewCooldownRepository creates a new instance of CooldownRepository.
func NewCooldownRepository(db *gorm.DB) CooldownRepository {
	return &cooldownRepository{db: db}
}

type cooldownRepository struct {
	db *gorm.DB
}

// IsOnCooldown reports whether the ticker alerted within the window. A ticker
// whose cooldown expires exactly now is eligible again.
func (r *cooldownRepository) IsOnCooldown(ctx context.Context, ticker string, window time.Duration) (bool, error) {
	var record entity.TickerCooldown
	err := r.db.WithContext(ctx).
		Where("ticker = ?", ticker).
		First(&record).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return cooldownActive(record.LastAlert, window, time.Now()), nil
}

// cooldownActive reports whether a cooldown that started at lastAlert is
// still in effect at now. A cooldown that expires exactly at now has lapsed
// and the ticker is eligible again.
func cooldownActive(lastAlert time.Time, window time.Duration, now time.Time) bool {
	return lastAlert.Add(window).After(now)
}

// Update stamps the ticker's last alert time, inserting the row on first use.
func (r *cooldownRepository) Update(ctx context.Context, ticker string) error {
	record := entity.TickerCooldown{
		Ticker:    ticker,
		LastAlert: time.Now(),
	}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "ticker"}},
			DoUpdates: clause.AssignmentColumns([]string{"last_alert"}),
		}).
		Create(&record).Error
}
