// Package repo implements the data layer of the habit tracker. Habits live in
// HabitStore and never touch a database; the idempotency ledger is kept in
// SQLite through GORM and the pure Go glebarez driver.
package repo

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	sqlite "github.com/glebarez/sqlite"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	"gorm.io/plugin/opentelemetry/tracing"

	"github.com/tbourn/go-habit-backend/internal/domain"
)

// MemoryDSN is a shared-cache in-memory database; every pooled connection
// sees the same data for the lifetime of the process.
const MemoryDSN = "file::memory:?cache=shared"

const (
	maxOpenConns    = 10
	slowQuery       = 200 * time.Millisecond
	connMaxIdleTime = 5 * time.Minute
	connMaxLifetime = 30 * time.Minute
)

// filePragmas apply only to on-disk databases; WAL is meaningless in memory.
var (
	commonPragmas = []string{"PRAGMA busy_timeout=5000"}
	filePragmas   = []string{"PRAGMA journal_mode=WAL", "PRAGMA synchronous=NORMAL"}
)

// gormLog forwards GORM's slow-query and error lines to zerolog.
type gormLog struct{}

func (gormLog) Printf(format string, args ...any) {
	log.Warn().Str("component", "gorm").Msgf(format, args...)
}

// OpenSQLite opens the ledger database at dsn, applies the PRAGMAs and pool
// limits and installs the OpenTelemetry GORM plugin. A file DSN whose
// directory is missing fails up front.
func OpenSQLite(dsn string) (*gorm.DB, error) {
	memory := isMemoryDSN(dsn)
	if dir := dsnDir(dsn); dir != "" && dir != "." {
		if _, err := os.Stat(dir); err != nil {
			return nil, fmt.Errorf("ledger directory: %w", err)
		}
	}

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.New(gormLog{}, logger.Config{
			SlowThreshold:             slowQuery,
			LogLevel:                  logger.Warn,
			IgnoreRecordNotFoundError: true,
		}),
	})
	if err != nil {
		return nil, err
	}
	if err := db.Use(tracing.NewPlugin(tracing.WithoutMetrics())); err != nil {
		return nil, err
	}

	pragmas := commonPragmas
	if !memory {
		pragmas = append(append([]string{}, filePragmas...), commonPragmas...)
	}
	for _, p := range pragmas {
		if err := db.Exec(p).Error; err != nil {
			return nil, fmt.Errorf("%s: %w", p, err)
		}
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(maxOpenConns)
	sqlDB.SetMaxIdleConns(maxOpenConns)
	// An in-memory database disappears with its last connection.
	if !memory {
		sqlDB.SetConnMaxIdleTime(connMaxIdleTime)
		sqlDB.SetConnMaxLifetime(connMaxLifetime)
	}
	return db, nil
}

// AutoMigrate creates or updates the ledger schema.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(&domain.Idempotency{})
}

// dsnDir returns the directory of a file-backed DSN, or "" for in-memory ones.
func dsnDir(dsn string) string {
	if isMemoryDSN(dsn) {
		return ""
	}
	p, _, _ := strings.Cut(strings.TrimPrefix(dsn, "file:"), "?")
	return filepath.Dir(p)
}

func isMemoryDSN(dsn string) bool {
	return strings.Contains(dsn, ":memory:") || strings.Contains(dsn, "mode=memory")
}
