package db

import (
	"fmt"

	"github.com/neume/monitor/internal/config"
	"github.com/neume/monitor/internal/models"
	"gorm.io/gorm"
)

// AllModels returns the list of all GORM models for migration.
func AllModels() []interface{} {
	return []interface{}{
		&models.Session{},
		&models.FocusLog{},
		&models.Event{},
	}
}

// AutoMigrate creates any missing tables and indexes. Safe to run on every
// startup.
func AutoMigrate(db *gorm.DB) error {
	if err := db.AutoMigrate(AllModels()...); err != nil {
		return fmt.Errorf("db: auto-migrate: %w", err)
	}
	return nil
}

// Open connects to the configured store and migrates it.
func Open(sc config.StoreConfig) (*gorm.DB, error) {
	gormDB, err := Connect(sc)
	if err != nil {
		return nil, err
	}
	if err := AutoMigrate(gormDB); err != nil {
		Close(gormDB)
		return nil, err
	}
	return gormDB, nil
}
