package db

import (
	"context"
	"fmt"
	"strings"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"infinite-experiment/flightlog/internal/logging"
	gormModels "infinite-experiment/flightlog/internal/models/gorm"
)

// Open connects to the flight log. postgres:// DSNs use the Postgres
// driver; anything else is treated as a SQLite file path (":memory:" works
// for tests).
func Open(dsn string) (*Store, error) {
	var (
		db  *gorm.DB
		err error
	)
	cfg := &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)}

	if isPostgresDSN(dsn) {
		db, err = gorm.Open(postgres.Open(dsn), cfg)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to postgres: %w", err)
		}
		logging.Info("Connected to Postgres via GORM")
	} else {
		db, err = gorm.Open(sqlite.Open(dsn), cfg)
		if err != nil {
			return nil, fmt.Errorf("failed to open sqlite log %q: %w", dsn, err)
		}
		sqlDB, err := db.DB()
		if err != nil {
			return nil, err
		}
		// One connection keeps ":memory:" databases alive and serialises file access.
		sqlDB.SetMaxOpenConns(1)
		logging.Info("Opened SQLite flight log", "path", dsn)
	}

	return NewStore(db), nil
}

func isPostgresDSN(dsn string) bool {
	return strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://")
}

// Migrate creates or updates the flight log tables.
func (s *Store) Migrate(ctx context.Context) error {
	return s.db.WithContext(ctx).AutoMigrate(
		&gormModels.Airport{},
		&gormModels.Airline{},
		&gormModels.Flight{},
		&gormModels.Route{},
	)
}
