// Package database provides the SQL access layer shared by all repositories.
package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/laurelqa/laurel/config"
)

// DB is the query surface repositories depend on. *sqlx.DB satisfies it; tests
// may substitute an in-memory implementation.
type DB interface {
	GetContext(ctx context.Context, dest any, query string, args ...any) error
	SelectContext(ctx context.Context, dest any, query string, args ...any) error
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// ConnectionString builds the postgres DSN from config.
func ConnectionString(cfg config.Config) string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		cfg.DatabaseHost, cfg.DatabasePort, cfg.DatabaseUserName, cfg.DatabasePassword,
		cfg.DatabaseName, cfg.DatabaseSSLMode)
}

// Connect opens a postgres connection pool, retrying per config before giving up.
func Connect(ctx context.Context, cfg config.Config, logger *zap.Logger) (*sqlx.DB, error) {
	var db *sqlx.DB
	var err error

	attempts := cfg.DatabaseReconnectRetryCount
	if attempts < 1 {
		attempts = 1
	}

	for attempt := 1; attempt <= attempts; attempt++ {
		db, err = sqlx.ConnectContext(ctx, cfg.DatabaseDriver, ConnectionString(cfg))
		if err == nil {
			break
		}
		logger.Warn("Failed to connect to database",
			zap.Int("attempt", attempt),
			zap.Int("max_attempts", attempts),
			zap.Error(err))
		time.Sleep(time.Duration(attempt) * time.Second)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database after %d attempts: %w", attempts, err)
	}

	db.SetMaxOpenConns(cfg.DatabaseMaxOpenConns)
	db.SetMaxIdleConns(cfg.DatabaseMaxIdleConns)
	db.SetConnMaxLifetime(cfg.DatabaseConnMaxLifetime)

	logger.Info("Connected to database",
		zap.String("host", cfg.DatabaseHost),
		zap.String("database", cfg.DatabaseName))
	return db, nil
}

// IsNotFound reports whether err is the database/sql sentinel for an empty result.
func IsNotFound(err error) bool {
	return err == sql.ErrNoRows || (err != nil && err.Error() == "sql: no rows in result set")
}
