package repository

import (
	"context"

	"github.com/andrewyy141/market-intel-bot/internal/entity"

	"gorm.io/gorm"
)

// SignalRepository defines the interface for interacting with accepted signals.
type SignalRepository interface {
	Create(ctx context.Context, signal *entity.Signal) error
	FindRecent(ctx context.Context, limit int) ([]entity.Signal, error)
}

// NewSignalRepository creates a new instance of SignalRepository.
func NewSignalRepository(db *gorm.DB) SignalRepository {
	return &signalRepository{db: db}
}

type signalRepository struct {
	db *gorm.DB
}

func (r *signalRepository) Create(ctx context.Context, signal *entity.Signal) error {
	return r.db.WithContext(ctx).Create(signal).Error
}

// FindRecent returns the most recently created signals, newest first.
func (r *signalRepository) FindRecent(ctx context.Context, limit int) ([]entity.Signal, error) {
	var signals []entity.Signal
	err := r.db.WithContext(ctx).
		Order("created_at DESC").
		Limit(limit).
		Find(&signals).Error
	if err != nil {
		return nil, err
	}
	return signals, nil
}
