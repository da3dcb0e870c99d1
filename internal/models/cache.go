package models

import (
	"time"
)

// MetricCacheEntry holds one serialized computed view per (account, metric, range) key.
// Upsert semantics: at most one row per key triple.
type MetricCacheEntry struct {
	AccountID  string    `gorm:"primaryKey;type:varchar(64);column:account_id"`
	MetricType string    `gorm:"primaryKey;type:varchar(32);column:metric_type"`
	DateRange  string    `gorm:"primaryKey;type:varchar(32);column:date_range"`
	Payload    []byte    `gorm:"type:jsonb;not null;column:payload"`
	FetchedAt  time.Time `gorm:"not null;column:fetched_at"`
}

// TableName specifies the table name for MetricCacheEntry
func (MetricCacheEntry) TableName() string {
	return "metric_cache"
}

// AgeAt returns how long before the given instant the entry was fetched
func (e *MetricCacheEntry) AgeAt(now time.Time) time.Duration {
	return now.Sub(e.FetchedAt)
}
