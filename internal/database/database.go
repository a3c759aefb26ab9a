// Package database opens and migrates the relational store.
package database

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/propstack/listings/internal/config"
	"github.com/propstack/listings/pkg/property"
)

// Open initialises a gorm handle for the configured driver and verifies
// connectivity, retrying with backoff so the server survives a database
// that comes up a little later than it does.
func Open(ctx context.Context, cfg config.DatabaseConfig, log zerolog.Logger) (*gorm.DB, error) {
	var (
		db  *gorm.DB
		err error
	)

	gormCfg := &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)}

	switch strings.ToLower(cfg.Driver) {
	case "postgres":
		db, err = gorm.Open(postgres.Open(buildPostgresDSN(cfg)), gormCfg)
	case "sqlite", "":
		db, err = gorm.Open(sqlite.Open(cfg.Path), gormCfg)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if err := pingWithRetry(ctx, db, log); err != nil {
		return nil, err
	}

	return db, nil
}

// AutoMigrate applies the schema for the property model.
func AutoMigrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&property.Property{}); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	return nil
}

// buildPostgresDSN assembles a DSN from the host fields unless an explicit
// DSN override is configured.
func buildPostgresDSN(cfg config.DatabaseConfig) string {
	if cfg.DSN != "" {
		return cfg.DSN
	}

	params := []string{
		fmt.Sprintf("host=%s", cfg.Host),
		fmt.Sprintf("port=%d", cfg.Port),
		fmt.Sprintf("user=%s", cfg.User),
		fmt.Sprintf("dbname=%s", cfg.Name),
		fmt.Sprintf("sslmode=%s", cfg.SSLMode),
	}
	if cfg.Password != "" {
		params = append(params, fmt.Sprintf("password=%s", cfg.Password))
	}

	return strings.Join(params, " ")
}

const (
	pingAttempts       = 5
	pingInitialBackoff = time.Second
)

// pingWithRetry verifies connectivity with exponential backoff, respecting
// context cancellation.
func pingWithRetry(ctx context.Context, db *gorm.DB, log zerolog.Logger) error {
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("database handle: %w", err)
	}

	backoff := pingInitialBackoff
	var lastErr error

	for attempt := 1; attempt <= pingAttempts; attempt++ {
		if lastErr = sqlDB.PingContext(ctx); lastErr == nil {
			if attempt > 1 {
				log.Info().Int("attempt", attempt).Msg("database reachable after retry")
			}
			return nil
		}

		if attempt >= pingAttempts {
			break
		}

		log.Warn().Err(lastErr).
			Int("attempt", attempt).
			Dur("backoff", backoff).
			Msg("database not reachable, retrying")

		select {
		case <-ctx.Done():
			return fmt.Errorf("database ping cancelled: %w", ctx.Err())
		case <-time.After(backoff):
		}
		backoff *= 2
	}

	return fmt.Errorf("database ping after %d attempts: %w", pingAttempts, lastErr)
}
