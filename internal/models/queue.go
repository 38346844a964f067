package models

import "time"

// QueueStatus enumerates the distribution lifecycle of a queue entry.
type QueueStatus string

const (
	StatusPending   QueueStatus = "pending"
	StatusAssigned  QueueStatus = "assigned"
	StatusCompleted QueueStatus = "completed"
	StatusSkipped   QueueStatus = "skipped"
)

// AllStatuses returns every queue status, used to zero-fill stats.
func AllStatuses() []QueueStatus {
	return []QueueStatus{StatusPending, StatusAssigned, StatusCompleted, StatusSkipped}
}

// QueueEntry is one unit of work awaiting (or past) distribution.
// (SourceID, RecordID) is unique; AssignedTo/AssignedAt are set iff the
// entry is assigned, CompletedAt iff it is completed. Rows are never
// physically deleted.
type QueueEntry struct {
	ID          uint        `gorm:"primaryKey;autoIncrement"`
	SourceID    uint        `gorm:"uniqueIndex:idx_queue_source_record;not null"`
	RecordID    int64       `gorm:"uniqueIndex:idx_queue_source_record;not null"`
	Status      QueueStatus `gorm:"size:16;default:pending;index"`
	Priority    int         `gorm:"default:0"`
	AssignedTo  *uint       `gorm:"index"`
	AssignedAt  *time.Time
	CompletedAt *time.Time
	CreatedAt   time.Time
}
