// Package store provides the SQLite-backed persistence and dedup engine.
package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3" // SQLite driver

	"github.com/jonesrussell/jobscout/internal/config"
	"github.com/jonesrussell/jobscout/internal/logger"
)

const (
	// DefaultBusyTimeout is how long a writer waits on a locked database.
	// Concurrent source sessions write through one file; contention is
	// absorbed here rather than with application-level locking.
	DefaultBusyTimeout = 30 * time.Second
	// DefaultPingTimeout is the default timeout for ping operations.
	DefaultPingTimeout = 5 * time.Second

	// minFullDescription is the description length below which a record
	// still counts as needing a full description.
	minFullDescription = 500
)

// ErrNotFound is returned when a requested row does not exist.
var ErrNotFound = errors.New("not found")

// Store wraps the SQLite database and implements the dedup engine.
type Store struct {
	db  *sqlx.DB
	log logger.Interface
}

// Open connects to the SQLite database at cfg.Path, applying WAL journaling
// and the busy timeout, and verifies the connection.
func Open(cfg config.StoreConfig, log logger.Interface) (*Store, error) {
	if cfg.Path == "" {
		return nil, errors.New("store path is required")
	}
	busy := cfg.BusyTimeout
	if busy <= 0 {
		busy = DefaultBusyTimeout
	}

	dsn := fmt.Sprintf("file:%s?_journal_mode=WAL&_busy_timeout=%d&_foreign_keys=on",
		cfg.Path, busy.Milliseconds())

	db, err := sqlx.Connect("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if cfg.Path == ":memory:" {
		// A pooled :memory: DSN would open one database per connection.
		db.SetMaxOpenConns(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), DefaultPingTimeout)
	defer cancel()
	if pingErr := db.PingContext(ctx); pingErr != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", pingErr)
	}

	return &Store{db: db, log: log.With("component", "store")}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}
