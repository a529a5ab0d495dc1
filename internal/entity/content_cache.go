package entity

import "time"

// ContentCache records the hash of every piece of content that passed
// validation. Membership here means identical text is rejected on
// re-ingestion. Rows older than the retention window are purged daily.
type ContentCache struct {
	ContentHash string    `gorm:"primaryKey" json:"content_hash"`
	Ticker      string    `json:"ticker"`
	Source      string    `json:"source"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"created_at"`
}

// TableName specifies the table name for the ContentCache model.
func (ContentCache) TableName() string {
	return "content_cache"
}
