// Package db provides database connection and schema migration helpers.
package db

import (
	"fmt"
	"strings"

	"gorm.io/driver/mysql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/calldesk/dialdesk/internal/config"
)

// DSN builds a MySQL DSN from database settings.
func DSN(dc config.DatabaseConfig) string {
	cred := dc.User
	if dc.Password != "" {
		cred += ":" + dc.Password
	}
	return fmt.Sprintf("%s@tcp(%s:%d)/%s?parseTime=true", cred, dc.Host, dc.Port, dc.Name)
}

// Connect opens a GORM connection for the configured driver.
func Connect(dc config.DatabaseConfig) (*gorm.DB, error) {
	gc := &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	}

	switch dc.Driver {
	case "sqlite":
		path := dc.Path
		if path != ":memory:" && !strings.Contains(path, "?") {
			// Concurrent writers briefly queue instead of failing
			// with SQLITE_BUSY.
			path += "?_busy_timeout=5000"
		}
		db, err := gorm.Open(sqlite.Open(path), gc)
		if err != nil {
			return nil, fmt.Errorf("db: open sqlite %s: %w", dc.Path, err)
		}
		return db, nil
	case "mysql":
		db, err := gorm.Open(mysql.Open(DSN(dc)), gc)
		if err != nil {
			return nil, fmt.Errorf("db: connect to %s:%d/%s: %w", dc.Host, dc.Port, dc.Name, err)
		}
		return db, nil
	default:
		return nil, fmt.Errorf("db: unsupported driver %q", dc.Driver)
	}
}
