// Package database provides helpers for opening the GORM connection and keeping the schema
// up to date.
//
// Postgres (production) gets its schema from the versioned SQL files in migrations/, applied
// with golang-migrate. SQLite (tests and quick local runs) gets it from GORM's AutoMigrate,
// because the SQL files use postgres-only features.
package database

import (
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	// Registers the postgres database driver for migrate.
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	// Registers the "file://" source driver so migrate can read .sql files from disk.
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/trentd187/championship-league/internal/models"
)

// Connect opens a connection for the given driver ("postgres" or "sqlite") and DSN.
// For sqlite, foreign keys are switched on so deletes behave like they do on postgres.
func Connect(driver, dsn string) (*gorm.DB, error) {
	cfg := &gorm.Config{Logger: gormlogger.Default.LogMode(gormlogger.Warn)}

	switch driver {
	case "postgres":
		return gorm.Open(postgres.Open(dsn), cfg)
	case "sqlite":
		db, err := gorm.Open(sqlite.Open(dsn), cfg)
		if err != nil {
			return nil, err
		}
		if err := db.Exec("PRAGMA foreign_keys = ON").Error; err != nil {
			return nil, fmt.Errorf("enabling sqlite foreign keys: %w", err)
		}
		return db, nil
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}
}

// Prepare brings the schema up to date for the given driver.
func Prepare(db *gorm.DB, driver, migrationsPath, dsn string) error {
	if driver == "sqlite" {
		return AutoMigrate(db)
	}
	return RunMigrations(migrationsPath, dsn)
}

// RunMigrations applies any pending "up" migrations from sourceURL (e.g. "file://migrations").
// migrate tracks applied versions in the schema_migrations table, so each file runs once.
func RunMigrations(sourceURL, dsn string) error {
	m, err := migrate.New(sourceURL, dsn)
	if err != nil {
		return err
	}
	defer m.Close()

	// ErrNoChange only means the schema is already current.
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return err
	}
	return nil
}

// AutoMigrate creates or updates every table from the GORM models.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(models.All()...)
}

// OpenInMemory returns a fresh, migrated in-memory sqlite database. Each call gets its own
// isolated database; the pool is pinned to one connection because every new connection
// to ":memory:" would otherwise see an empty database.
func OpenInMemory() (*gorm.DB, error) {
	db, err := Connect("sqlite", "file::memory:")
	if err != nil {
		return nil, err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(1)
	if err := AutoMigrate(db); err != nil {
		return nil, err
	}
	return db, nil
}
