package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

const (
	// walCheckpointInterval is how often we checkpoint the WAL file
	// to prevent unbounded growth during long TUI sessions.
	walCheckpointInterval = 5 * time.Minute

	// defaultResultLimit caps posts and files returned per fetch.
	defaultResultLimit = 100
)

var _ Store = (*SQLiteStore)(nil)

// SQLiteStore implements the Store interface using SQLite.
type SQLiteStore struct {
	db     *sql.DB
	logger *slog.Logger

	resultLimit    int
	includeDeleted bool

	stopCh    chan struct{} // signals background goroutines to stop
	stoppedCh chan struct{} // signals background goroutines have stopped
	closeOnce sync.Once     // ensures Close() is idempotent
	closeErr  error         // stores the error from Close()
}

// Option configures a SQLiteStore.
type Option func(*SQLiteStore)

// WithResultLimit caps the number of posts and files a fetch returns.
func WithResultLimit(n int) Option {
	return func(s *SQLiteStore) {
		if n > 0 {
			s.resultLimit = n
		}
	}
}

// WithDeletedChannels makes searches include posts and files from
// archived channels.
func WithDeletedChannels(include bool) Option {
	return func(s *SQLiteStore) {
		s.includeDeleted = include
	}
}

// WithLogger sets the logger used for background maintenance.
func WithLogger(logger *slog.Logger) Option {
	return func(s *SQLiteStore) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// DefaultDBPath returns the default database path
// (~/.local/share/teamseek/index.db).
func DefaultDBPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("storage: get home directory: %w", err)
	}
	return filepath.Join(home, ".local", "share", "teamseek", "index.db"), nil
}

// NewSQLiteStore creates a new SQLiteStore with the given database path.
// If the path is empty, it uses DefaultDBPath.
// The database is opened with WAL mode enabled for better concurrency.
func NewSQLiteStore(dbPath string, opts ...Option) (*SQLiteStore, error) {
	if dbPath == "" {
		var err error
		dbPath, err = DefaultDBPath()
		if err != nil {
			return nil, err
		}
	}

	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("storage: create database directory: %w", err)
	}

	// modernc.org/sqlite uses _pragma=name(value) syntax
	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)", dbPath)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("storage: open database: %w", err)
	}

	// SQLite handles concurrency better with a single writer
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("storage: connect to database: %w", err)
	}

	store := &SQLiteStore{
		db:          db,
		logger:      slog.New(slog.DiscardHandler),
		resultLimit: defaultResultLimit,
		stopCh:      make(chan struct{}),
		stoppedCh:   make(chan struct{}),
	}
	for _, opt := range opts {
		opt(store)
	}

	if err := store.migrate(context.Background()); err != nil {
		db.Close()
		return nil, fmt.Errorf("storage: run migrations: %w", err)
	}

	go store.walCheckpointLoop()

	return store, nil
}

// Close closes the database connection.
// It is safe to call Close multiple times.
func (s *SQLiteStore) Close() error {
	s.closeOnce.Do(func() {
		if s.stopCh != nil {
			close(s.stopCh)
			<-s.stoppedCh
		}

		if s.db != nil {
			// Final checkpoint merges the WAL into the main db
			_, _ = s.db.Exec("PRAGMA wal_checkpoint(TRUNCATE)")
			s.closeErr = s.db.Close()
		}
	})
	return s.closeErr
}

// DB returns the underlying database connection for advanced use cases.
func (s *SQLiteStore) DB() *sql.DB {
	return s.db
}

func (s *SQLiteStore) walCheckpointLoop() {
	defer close(s.stoppedCh)

	ticker := time.NewTicker(walCheckpointInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stopCh:
			return
		case <-ticker.C:
			if _, err := s.db.Exec("PRAGMA wal_checkpoint(TRUNCATE)"); err != nil {
				s.logger.Warn("WAL checkpoint failed", "error", err)
			}
		}
	}
}

// SchemaVersion returns the latest applied migration.
func (s *SQLiteStore) SchemaVersion(ctx context.Context) (int, error) {
	var v int
	err := s.db.QueryRowContext(ctx, `SELECT COALESCE(MAX(version), 0) FROM schema_meta`).Scan(&v)
	if err != nil {
		return 0, fmt.Errorf("storage: read schema version: %w", err)
	}
	return v, nil
}

// migrate runs database migrations to ensure the schema is up to date.
func (s *SQLiteStore) migrate(ctx context.Context) error {
	currentVersion := 0
	row := s.db.QueryRowContext(ctx, `
		SELECT version FROM schema_meta ORDER BY version DESC LIMIT 1
	`)
	if err := row.Scan(&currentVersion); err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows), isTableNotFoundError(err):
			currentVersion = 0
		default:
			return fmt.Errorf("read schema version: %w", err)
		}
	}

	migrations := []struct {
		version int
		sql     string
	}{
		{version: 1, sql: migrationV1},
		{version: 2, sql: migrationV2},
	}

	for _, m := range migrations {
		if m.version <= currentVersion {
			continue
		}

		if _, err := s.db.ExecContext(ctx, m.sql); err != nil {
			return fmt.Errorf("migration v%d failed: %w", m.version, err)
		}

		_, err := s.db.ExecContext(ctx, `
			INSERT OR REPLACE INTO schema_meta (version, applied_at_unix_ms)
			VALUES (?, ?)
		`, m.version, time.Now().UnixMilli())
		if err != nil {
			return fmt.Errorf("record migration v%d: %w", m.version, err)
		}
	}

	return nil
}

// isTableNotFoundError checks if the error indicates a missing table.
func isTableNotFoundError(err error) bool {
	if err == nil {
		return false
	}
	errStr := err.Error()
	return strings.Contains(errStr, "no such table") || strings.Contains(errStr, "does not exist")
}

// migrationV1 creates the workspace index.
const migrationV1 = `
-- Schema version tracking
CREATE TABLE IF NOT EXISTS schema_meta (
  version INTEGER PRIMARY KEY,
  applied_at_unix_ms INTEGER NOT NULL
);

-- Teams
CREATE TABLE IF NOT EXISTS teams (
  team_id TEXT PRIMARY KEY,
  name TEXT NOT NULL,
  display_name TEXT NOT NULL DEFAULT ''
);

-- Channels
CREATE TABLE IF NOT EXISTS channels (
  channel_id TEXT PRIMARY KEY,
  team_id TEXT NOT NULL REFERENCES teams(team_id),
  name TEXT NOT NULL,
  display_name TEXT NOT NULL DEFAULT '',
  deleted_at_unix_ms INTEGER NOT NULL DEFAULT 0
);

CREATE INDEX IF NOT EXISTS idx_channels_team ON channels(team_id, name);

-- Posts
CREATE TABLE IF NOT EXISTS posts (
  post_id TEXT PRIMARY KEY,
  channel_id TEXT NOT NULL REFERENCES channels(channel_id),
  author TEXT NOT NULL,
  message TEXT NOT NULL,
  message_norm TEXT NOT NULL,
  create_at_unix_ms INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_posts_channel ON posts(channel_id, create_at_unix_ms DESC);
CREATE INDEX IF NOT EXISTS idx_posts_author ON posts(author);

-- File attachments
CREATE TABLE IF NOT EXISTS files (
  file_id TEXT PRIMARY KEY,
  post_id TEXT REFERENCES posts(post_id),
  channel_id TEXT NOT NULL REFERENCES channels(channel_id),
  author TEXT NOT NULL DEFAULT '',
  name TEXT NOT NULL,
  name_norm TEXT NOT NULL,
  extension TEXT NOT NULL DEFAULT '',
  size INTEGER NOT NULL DEFAULT 0,
  mime_type TEXT NOT NULL DEFAULT '',
  create_at_unix_ms INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_files_channel ON files(channel_id, create_at_unix_ms DESC);
CREATE INDEX IF NOT EXISTS idx_files_extension ON files(extension);
`

// migrationV2 adds the recent-search log.
const migrationV2 = `
CREATE TABLE IF NOT EXISTS recent_searches (
  id TEXT PRIMARY KEY,
  team_id TEXT NOT NULL,
  term TEXT NOT NULL,
  searched_at_unix_ms INTEGER NOT NULL,
  UNIQUE (team_id, term)
);

CREATE INDEX IF NOT EXISTS idx_recent_searches_team ON recent_searches(team_id, searched_at_unix_ms DESC);
`
