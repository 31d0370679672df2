// Package store is the spatial store: the persistent repository of
// listings, transactions, regions, and grid aggregates, exposing the
// range/k-NN/point-in-polygon queries the valuation packages build on.
package store

import (
	"fmt"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"chrisgross-ctrl-project/internal/models"
)

// Open connects to Postgres using dsn and runs AutoMigrate for every model.
func Open(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("connect to spatial store: %w", err)
	}
	if err := db.AutoMigrate(models.AllModels()...); err != nil {
		return nil, fmt.Errorf("migrate spatial store schema: %w", err)
	}
	return db, nil
}

// OpenSQLite opens an in-process SQLite database, used by repository tests
// and local development where a live Postgres/PostGIS instance is not
// available. Geometry/array columns degrade to their portable GORM
// equivalents; callers relying on PostGIS functions should use Open.
func OpenSQLite(path string) (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("connect to sqlite spatial store: %w", err)
	}
	if err := db.AutoMigrate(models.AllModels()...); err != nil {
		return nil, fmt.Errorf("migrate sqlite spatial store schema: %w", err)
	}
	return db, nil
}
