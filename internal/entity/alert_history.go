package entity

import "time"

// AlertHistory is an append-only record of every alert dispatched. The daily
// cap counts rows whose timestamp falls on the current calendar day.
type AlertHistory struct {
	ID        int64     `gorm:"primaryKey" json:"id"`
	SignalID  int64     `json:"signal_id"`
	Ticker    string    `gorm:"not null" json:"ticker"`
	Timestamp time.Time `gorm:"not null" json:"timestamp"`
}

// TableName specifies the table name for the AlertHistory model.
func (AlertHistory) TableName() string {
	return "alert_history"
}
