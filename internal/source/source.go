// Package source manages the registry of provisioned data sources. The
// records themselves live with the external data-source collaborator; the
// registry only gives queue entries and metrics something to key on.
package source

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/calldesk/dialdesk/internal/models"
)

// ErrNotFound is returned for an unknown source ID.
var ErrNotFound = errors.New("source not found")

// Create registers a new source. Name must be unique.
func Create(db *gorm.DB, name, externalRef string) (*models.Source, error) {
	if name == "" {
		return nil, fmt.Errorf("source: name is required")
	}
	src := models.Source{Name: name, ExternalRef: externalRef}
	if err := db.Create(&src).Error; err != nil {
		return nil, fmt.Errorf("source: create %q: %w", name, err)
	}
	return &src, nil
}

// Get retrieves a source by ID.
func Get(db *gorm.DB, sourceID uint) (*models.Source, error) {
	var src models.Source
	if err := db.First(&src, sourceID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("source: %d: %w", sourceID, ErrNotFound)
		}
		return nil, fmt.Errorf("source: get %d: %w", sourceID, err)
	}
	return &src, nil
}

// List returns all sources ordered by name.
func List(db *gorm.DB) ([]models.Source, error) {
	var sources []models.Source
	if err := db.Order("name ASC").Find(&sources).Error; err != nil {
		return nil, fmt.Errorf("source: list: %w", err)
	}
	return sources, nil
}
