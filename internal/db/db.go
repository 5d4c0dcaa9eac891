package db

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/balkashynov/trakr/internal/models"
)

// pragmas applied to every connection: cascades need foreign keys, and a
// busy timeout keeps concurrent writers from failing fast
const pragmas = "_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"

// Open sets up the database connection at path and runs migrations
func Open(path string) (*gorm.DB, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("database path is required")
	}

	// Ensure the directory exists
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := gorm.Open(sqlite.Open(dsn(path)), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent), // Quiet by default
		NowFunc:        func() time.Time { return time.Now().UTC() },
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// SQLite allows a single writer; one pooled connection serializes
	// transactions instead of surfacing SQLITE_BUSY to callers
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database handle: %w", err)
	}
	sqlDB.SetMaxOpenConns(1)

	if err := runMigrations(db); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return db, nil
}

func dsn(path string) string {
	if strings.Contains(path, "?") {
		return path + "&" + pragmas
	}
	return path + "?" + pragmas
}

// runMigrations creates/updates the database schema
func runMigrations(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&models.Tracker{},
		&models.Line{},
		&models.Session{},
	); err != nil {
		return err
	}

	// At most one open session per line, enforced by the store as well
	return db.Exec(
		"CREATE UNIQUE INDEX IF NOT EXISTS idx_sessions_one_open ON sessions(line_id) WHERE ended_at IS NULL",
	).Error
}

// Truncate deletes every session, line and tracker and resets the
// autoincrement counters. It must run inside the caller's transaction.
func Truncate(tx *gorm.DB) error {
	// Children first so foreign keys never dangle
	for _, table := range []string{"sessions", "lines", "trackers"} {
		if err := tx.Exec("DELETE FROM " + table).Error; err != nil {
			return fmt.Errorf("failed to clear %s: %w", table, err)
		}
	}

	var sequences int64
	if err := tx.Raw(
		"SELECT count(*) FROM sqlite_master WHERE type = 'table' AND name = 'sqlite_sequence'",
	).Scan(&sequences).Error; err != nil {
		return err
	}
	if sequences == 0 {
		return nil
	}

	return tx.Exec(
		"DELETE FROM sqlite_sequence WHERE name IN ('sessions', 'lines', 'trackers')",
	).Error
}

// Close closes the database connection
func Close(db *gorm.DB) error {
	if db == nil {
		return nil
	}
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
