package sqlite

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"networth-tracker/internal/storage/gormstore"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

const MemoryPath = ":memory:"

func dsn(path string) string {
	pragmas := "_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
	if path == MemoryPath {
		return "file::memory:?" + pragmas
	}
	return path + "?" + pragmas + "&_pragma=journal_mode(WAL)"
}

// Open opens (creating if needed) a SQLite database and brings its schema up to date.
func Open(path string, log *slog.Logger) (*gorm.DB, error) {
	if path != MemoryPath && !strings.HasPrefix(path, "file:") {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("create sqlite dir: %w", err)
		}
	}

	db, err := gorm.Open(sqlite.Open(dsn(path)), gormstore.Config(log))
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("get sql db: %w", err)
	}
	// One writer; an in-memory database also lives and dies with its only connection.
	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetConnMaxLifetime(0)
	sqlDB.SetConnMaxIdleTime(0)

	if err := gormstore.AutoMigrate(db); err != nil {
		return nil, err
	}
	return db, nil
}

// New returns a ready storage over the SQLite database at path.
func New(path string, log *slog.Logger) (*gormstore.Storage, error) {
	db, err := Open(path, log)
	if err != nil {
		return nil, err
	}
	return gormstore.New(db), nil
}
