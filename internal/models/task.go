package models

import "time"

// TaskLog records one agent's time spent on one record. It is opened when
// work starts and closed when work finishes; completed rows drive
// handle-time metrics.
type TaskLog struct {
	ID          uint  `gorm:"primaryKey;autoIncrement"`
	AgentID     uint  `gorm:"index;not null"`
	SourceID    uint  `gorm:"index;not null"`
	RecordID    int64 `gorm:"not null"`
	StartedAt   time.Time
	CompletedAt *time.Time `gorm:"index"`
}
