package db

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"ibis-route-manager/config"
	"ibis-route-manager/internal/logging"
)

// Open connects to the route database. Schema migrations are not run here;
// the store does that in Initialize.
func Open(cfg *config.DatabaseConfig, log *logrus.Logger) (*gorm.DB, error) {
	dialector, err := dialectorFor(cfg)
	if err != nil {
		return nil, err
	}

	db, err := gorm.Open(dialector, gormConfig(dialector, log))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get sql.DB: %w", err)
	}

	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	if cfg.ConnMaxLifetimeMinutes > 0 {
		sqlDB.SetConnMaxLifetime(time.Duration(cfg.ConnMaxLifetimeMinutes) * time.Minute)
	}

	if db.Dialector.Name() == "sqlite" && cfg.JournalMode != "" {
		// Readers keep working while a write is in flight, and a crash mid-write
		// leaves the main file intact.
		if err := db.Exec("PRAGMA journal_mode = " + cfg.JournalMode).Error; err != nil {
			return nil, fmt.Errorf("failed to set journal mode %s: %w", cfg.JournalMode, err)
		}
	}

	log.WithFields(logrus.Fields{"driver": cfg.Driver}).Info("database opened")
	return db, nil
}

// gormConfig enables error translation only for dialectors that provide it;
// sqlite constraint errors are classified by the store instead.
func gormConfig(dialector gorm.Dialector, log *logrus.Logger) *gorm.Config {
	_, translates := dialector.(gorm.ErrorTranslator)
	return &gorm.Config{
		Logger:         logging.Gorm(log),
		TranslateError: translates,
	}
}

func dialectorFor(cfg *config.DatabaseConfig) (gorm.Dialector, error) {
	switch strings.ToLower(cfg.Driver) {
	case "", "sqlite":
		if cfg.DSN == "" {
			return nil, fmt.Errorf("database.dsn is required")
		}
		if !strings.HasPrefix(cfg.DSN, "file:") && cfg.DSN != ":memory:" {
			if err := os.MkdirAll(filepath.Dir(cfg.DSN), 0o755); err != nil {
				return nil, fmt.Errorf("failed to create database directory: %w", err)
			}
		}
		return sqlite.Open(cfg.DSN), nil
	case "postgres":
		if cfg.DSN == "" {
			return nil, fmt.Errorf("database.dsn is required for postgres")
		}
		return postgres.Open(cfg.DSN), nil
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}
}
