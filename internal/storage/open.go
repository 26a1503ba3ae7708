package storage

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"
	_ "modernc.org/sqlite"

	"github.com/runnerr0/nooze/internal/config"
)

// dsn returns the driver-specific connection string for path.
func dsn(driver, path string) string {
	if path == config.MemoryDB {
		return path
	}
	switch driver {
	case "sqlite3":
		return path + "?_foreign_keys=on&_busy_timeout=5000"
	default:
		return "file:" + path + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
	}
}

// Open opens the configured database, creating its directory if needed,
// runs migrations and returns a store that owns the connection.
func Open(cfg config.StorageConfig) (*SQLiteStore, error) {
	driver := cfg.Driver
	if driver == "" {
		driver = "sqlite"
	}

	path, err := cfg.DBPath()
	if err != nil {
		return nil, err
	}
	if path != config.MemoryDB {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}

	db, err := sql.Open(driver, dsn(driver, path))
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if path == config.MemoryDB {
		// Each connection to :memory: is a separate database.
		db.SetMaxOpenConns(1)
	}

	runner := NewMigrationRunner(db, cfg.SQLiteJournalMode)
	if err := runner.Run(); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	store, err := NewSQLiteStore(db)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("create store: %w", err)
	}
	store.ownsDB = true

	return store, nil
}
