package database

import (
	"database/sql"
	"fmt"
	"path/filepath"

	"github.com/pressly/goose/v3"
	"go.uber.org/zap"
)

// RunMigrations applies pending account migrations and returns the resulting schema version
func RunMigrations(db *sql.DB, migrationsDir string, logger *zap.Logger) (int64, error) {
	if err := goose.SetDialect("postgres"); err != nil {
		return 0, fmt.Errorf("failed to set goose dialect: %w", err)
	}

	logger.Info("Applying account migrations", zap.String("dir", migrationsDir))

	if err := goose.Up(db, migrationsDir); err != nil {
		return 0, fmt.Errorf("failed to run migrations: %w", err)
	}

	version, err := goose.GetDBVersion(db)
	if err != nil {
		return 0, fmt.Errorf("failed to read migration version: %w", err)
	}
	return version, nil
}

// MigrationState is one migration file and whether the schema already includes it
type MigrationState struct {
	Version int64
	File    string
	Applied bool
}

// MigrationStatus lists the migrations found in migrationsDir against the applied version.
// It needs no database connection, so the caller reads the version first.
func MigrationStatus(migrationsDir string, current int64) ([]MigrationState, error) {
	migrations, err := goose.CollectMigrations(migrationsDir, 0, goose.MaxVersion)
	if err != nil {
		return nil, fmt.Errorf("failed to collect migrations: %w", err)
	}

	states := make([]MigrationState, 0, len(migrations))
	for _, m := range migrations {
		states = append(states, MigrationState{
			Version: m.Version,
			File:    filepath.Base(m.Source),
			Applied: m.Version <= current,
		})
	}
	return states, nil
}

// LogMigrationStatus logs each known migration at debug level and a pending count at info
func LogMigrationStatus(migrationsDir string, current int64, logger *zap.Logger) error {
	states, err := MigrationStatus(migrationsDir, current)
	if err != nil {
		return err
	}

	pending := 0
	for _, s := range states {
		if !s.Applied {
			pending++
		}
		logger.Debug("Migration",
			zap.Int64("version", s.Version),
			zap.String("file", s.File),
			zap.Bool("applied", s.Applied),
		)
	}

	logger.Info("Account schema status",
		zap.Int64("version", current),
		zap.Int("known", len(states)),
		zap.Int("pending", pending),
	)
	return nil
}
