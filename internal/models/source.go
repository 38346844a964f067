// Package models defines the GORM persistence models for dialdesk.
package models

import "time"

// Source is an externally provisioned dataset whose records are the unit of
// work. The records themselves live with the data-source collaborator; the
// core only keys queue entries and task logs by SourceID.
type Source struct {
	ID          uint   `gorm:"primaryKey;autoIncrement"`
	Name        string `gorm:"size:255;uniqueIndex;not null"`
	ExternalRef string `gorm:"size:255"`
	CreatedAt   time.Time
}
