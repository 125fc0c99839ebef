package database

import (
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"go.uber.org/zap"

	"github.com/laurelqa/laurel/config"
)

// Migrate applies database migrations from the configured folder. A zero
// migration version means "latest".
func Migrate(cfg config.Config, logger *zap.Logger) error {
	dsn := fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
		cfg.DatabaseUserName, cfg.DatabasePassword, cfg.DatabaseHost, cfg.DatabasePort,
		cfg.DatabaseName, cfg.DatabaseSSLMode)

	m, err := migrate.New("file://"+cfg.DatabaseMigrationFolderPath, dsn)
	if err != nil {
		return fmt.Errorf("failed to create migrator: %w", err)
	}
	defer m.Close()

	if cfg.DatabaseMigrationForce > 0 {
		if err := m.Force(cfg.DatabaseMigrationForce); err != nil {
			return fmt.Errorf("failed to force migration version %d: %w", cfg.DatabaseMigrationForce, err)
		}
	}

	if cfg.DatabaseMigrationVersion > 0 {
		err = m.Migrate(uint(cfg.DatabaseMigrationVersion))
	} else {
		err = m.Up()
	}

	if err != nil && !errors.Is(err, migrate.ErrNoChange) {
		if cfg.DatabaseMigrationAutoRollback {
			logger.Error("Migration failed, rolling back", zap.Error(err))
			if dErr := m.Down(); dErr != nil && !errors.Is(dErr, migrate.ErrNoChange) {
				return fmt.Errorf("migration failed (%v) and rollback failed: %w", err, dErr)
			}
		}
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	version, dirty, _ := m.Version()
	logger.Info("Database migrations applied",
		zap.Uint("version", version),
		zap.Bool("dirty", dirty))
	return nil
}
