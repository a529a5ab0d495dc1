package entity

import (
	"time"

	"gorm.io/datatypes"
)

// Signal is an accepted, gated, confidence-scored notification candidate.
// Rows are written only after a candidate clears the confidence, cooldown and
// daily-cap gates, and are never updated afterwards.
type Signal struct {
	ID         int64          `gorm:"primaryKey" json:"id"`
	Ticker     string         `gorm:"not null" json:"ticker"`
	SignalType string         `gorm:"not null" json:"signal_type"`
	Category   string         `gorm:"not null" json:"category"`
	Headline   string         `gorm:"not null" json:"headline"`
	Details    string         `json:"details"`
	Confidence float64        `gorm:"not null" json:"confidence"`
	Sentiment  string         `json:"sentiment"`
	Timestamp  time.Time      `gorm:"not null" json:"timestamp"`
	SourceURL  string         `json:"source_url"`
	IsOpinion  bool           `gorm:"default:false" json:"is_opinion"`
	Alerted    bool           `gorm:"default:false" json:"alerted"`
	Data       datatypes.JSON `gorm:"type:jsonb" json:"data,omitempty"`
	CreatedAt  time.Time      `gorm:"autoCreateTime" json:"created_at"`
}

// TableName specifies the table name for the Signal model.
func (Signal) TableName() string {
	return "signals"
}
