package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3" // sqlite3 driver
	"github.com/rs/zerolog"
)

// ErrNotInitialized is returned by every operation invoked before Initialize
// (or after Close).
var ErrNotInitialized = errors.New("database not initialized")

// DB is the local item store backed by a single SQLite file.
type DB struct {
	path   string
	logger *zerolog.Logger
	clock  func() time.Time
	loc    *time.Location

	mu sync.RWMutex
	db *sql.DB
}

type Option func(*DB)

// WithClock replaces the wall clock used for timestamps and "today".
func WithClock(now func() time.Time) Option {
	return func(db *DB) {
		if now != nil {
			db.clock = now
		}
	}
}

// WithLocation makes the store compute timestamps and calendar dates in loc,
// whatever clock is set.
func WithLocation(loc *time.Location) Option {
	return func(db *DB) {
		db.loc = loc
	}
}

// New constructs a store for path. Nothing is opened until Initialize.
func New(path string, logger *zerolog.Logger, opts ...Option) *DB {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	db := &DB{path: path, logger: logger, clock: time.Now}
	for _, opt := range opts {
		opt(db)
	}
	return db
}

// Initialize opens the database and ensures the schema exists. Repeated calls
// are no-ops.
func (db *DB) Initialize(ctx context.Context) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	if db.db != nil {
		return nil
	}

	if db.path != ":memory:" {
		// Создаем директорию для БД, если её нет
		if err := os.MkdirAll(filepath.Dir(db.path), 0o755); err != nil {
			return fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	conn, err := sql.Open("sqlite3", db.path)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	// sqlite допускает одного писателя; для :memory: это еще и единственная копия БД
	conn.SetMaxOpenConns(1)

	if err := conn.PingContext(ctx); err != nil {
		_ = conn.Close()
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := createTables(ctx, conn); err != nil {
		_ = conn.Close()
		return fmt.Errorf("failed to create tables: %w", err)
	}

	db.db = conn
	db.logger.Info().Str("path", db.path).Msg("database initialized")
	return nil
}

func createTables(ctx context.Context, conn *sql.DB) error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS items (
            id INTEGER PRIMARY KEY AUTOINCREMENT,
            name TEXT NOT NULL,
            category TEXT NOT NULL,
            quantity INTEGER DEFAULT 1,
            unit TEXT DEFAULT 'pcs',
            expirationDate TEXT,
            notes TEXT,
            isChecked INTEGER DEFAULT 0,
            createdAt TEXT NOT NULL,
            updatedAt TEXT NOT NULL
        )`,
		`CREATE INDEX IF NOT EXISTS idx_items_category ON items(category)`,
		`CREATE INDEX IF NOT EXISTS idx_items_expiration ON items(expirationDate)`,
	}

	for _, query := range queries {
		if _, err := conn.ExecContext(ctx, query); err != nil {
			return fmt.Errorf("error executing query %s: %w", query, err)
		}
	}
	return nil
}

func (db *DB) conn() (*sql.DB, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()
	if db.db == nil {
		return nil, ErrNotInitialized
	}
	return db.db, nil
}

// Initialized reports whether Initialize has completed.
func (db *DB) Initialized() bool {
	_, err := db.conn()
	return err == nil
}

// PingContext checks the underlying connection.
func (db *DB) PingContext(ctx context.Context) error {
	conn, err := db.conn()
	if err != nil {
		return err
	}
	return conn.PingContext(ctx)
}

// Path returns the database file path.
func (db *DB) Path() string {
	return db.path
}

// Now returns the store clock reading.
func (db *DB) Now() time.Time {
	return db.now()
}

func (db *DB) now() time.Time {
	t := db.clock()
	if db.loc != nil {
		return t.In(db.loc)
	}
	return t
}

// Close releases the database. The store returns ErrNotInitialized afterwards.
func (db *DB) Close() error {
	db.mu.Lock()
	defer db.mu.Unlock()
	if db.db == nil {
		return nil
	}
	err := db.db.Close()
	db.db = nil
	return err
}
