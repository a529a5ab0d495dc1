package entity

import "time"

// TickerCooldown holds the last dispatch time per ticker, one row per ticker,
// upserted on every dispatched alert. It defines a sliding exclusion window
// that suppresses further alerts for the same symbol.
type TickerCooldown struct {
	Ticker    string    `gorm:"primaryKey" json:"ticker"`
	LastAlert time.Time `gorm:"not null" json:"last_alert"`
}

// TableName specifies the table name for the TickerCooldown model.
func (TickerCooldown) TableName() string {
	return "ticker_cooldowns"
}
