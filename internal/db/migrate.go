package db

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/calldesk/dialdesk/internal/models"
)

// AllModels returns the list of all GORM models for migration.
func AllModels() []interface{} {
	return []interface{}{
		&models.Source{},
		&models.Agent{},
		&models.AgentStateLog{},
		&models.QueueEntry{},
		&models.TaskLog{},
	}
}

// AutoMigrate creates or updates all tables.
func AutoMigrate(db *gorm.DB) error {
	if err := db.AutoMigrate(AllModels()...); err != nil {
		return fmt.Errorf("db: auto-migrate: %w", err)
	}
	return nil
}
