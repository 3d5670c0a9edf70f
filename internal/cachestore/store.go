package cachestore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/sync/singleflight"
	_ "modernc.org/sqlite"

	"ansci/internal/logging"
)

// schemaVersion is bumped when the cache layout changes. A mismatched
// database is treated as invalid; callers clear and recreate it.
const schemaVersion = 1

// ErrSchemaMismatch indicates the cache database was written by a different
// schema version.
var ErrSchemaMismatch = errors.New("cache schema version mismatch")

const schemaSQL = `
CREATE TABLE IF NOT EXISTS schema_version (
    version INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS cache_entries (
    stage      TEXT NOT NULL,
    key        TEXT NOT NULL,
    payload    BLOB NOT NULL,
    created_at TEXT NOT NULL,
    PRIMARY KEY (stage, key)
);

CREATE INDEX IF NOT EXISTS idx_cache_entries_created_at ON cache_entries (created_at);
`

// Store is a SQLite-backed cache partitioned by pipeline stage.
type Store struct {
	db     *sql.DB
	path   string
	logger *slog.Logger
	group  singleflight.Group
}

// Open initializes or connects to the cache database at path.
func Open(path string, logger *slog.Logger) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("cachestore: path required")
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	logger = logging.NewComponentLogger(logger, "cache")

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("cachestore: create directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("cachestore: open database: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("cachestore: apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: path, logger: logger}
	if err := store.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Path returns the database file location.
func (s *Store) Path() string {
	return s.path
}

func (s *Store) initSchema(ctx context.Context) error {
	var tableExists int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(1) FROM sqlite_master WHERE type='table' AND name='schema_version'",
	).Scan(&tableExists)
	if err != nil {
		return fmt.Errorf("cachestore: check schema_version table: %w", err)
	}

	if tableExists == 0 {
		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("cachestore: begin schema tx: %w", err)
		}
		defer func() { _ = tx.Rollback() }()
		if _, err := tx.ExecContext(ctx, schemaSQL); err != nil {
			return fmt.Errorf("cachestore: create schema: %w", err)
		}
		if _, err := tx.ExecContext(ctx, "INSERT INTO schema_version (version) VALUES (?)", schemaVersion); err != nil {
			return fmt.Errorf("cachestore: record schema version: %w", err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("cachestore: commit schema: %w", err)
		}
		return nil
	}

	var version int
	if err := s.db.QueryRowContext(ctx, "SELECT version FROM schema_version LIMIT 1").Scan(&version); err != nil {
		return fmt.Errorf("cachestore: read schema version: %w", err)
	}
	if version != schemaVersion {
		return fmt.Errorf("%w: database has version %d, expected %d (run 'ansci cache clear')",
			ErrSchemaMismatch, version, schemaVersion)
	}
	return nil
}

// Get returns the cached payload for (stage, key) if present and younger
// than ttl. Expired entries are deleted on the read path; a ttl of zero
// disables expiry.
func (s *Store) Get(ctx context.Context, stage, key string, ttl time.Duration) ([]byte, bool, error) {
	var payload []byte
	var createdAt string
	err := s.db.QueryRowContext(ctx,
		"SELECT payload, created_at FROM cache_entries WHERE stage = ? AND key = ?",
		stage, key,
	).Scan(&payload, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("cachestore: get %s entry: %w", stage, err)
	}

	if ttl > 0 {
		created, parseErr := time.Parse(time.RFC3339Nano, createdAt)
		if parseErr != nil || time.Since(created) > ttl {
			if _, delErr := s.db.ExecContext(ctx,
				"DELETE FROM cache_entries WHERE stage = ? AND key = ?", stage, key,
			); delErr != nil {
				return nil, false, fmt.Errorf("cachestore: evict expired %s entry: %w", stage, delErr)
			}
			s.logger.Debug("cache entry expired",
				logging.String(logging.FieldEventType, "cache_expired"),
				logging.String("stage", stage),
				logging.String("key", shortKey(key)))
			return nil, false, nil
		}
	}
	return payload, true, nil
}

// Put stores payload under (stage, key), replacing any existing entry.
func (s *Store) Put(ctx context.Context, stage, key string, payload []byte) error {
	timestamp := time.Now().UTC().Format(time.RFC3339Nano)
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO cache_entries (stage, key, payload, created_at) VALUES (?, ?, ?, ?)
         ON CONFLICT (stage, key) DO UPDATE SET payload = excluded.payload, created_at = excluded.created_at`,
		stage, key, payload, timestamp,
	)
	if err != nil {
		return fmt.Errorf("cachestore: put %s entry: %w", stage, err)
	}
	return nil
}

// GetOrFill returns the cached payload for (stage, key) or invokes fill to
// produce it, storing the result. Concurrent callers for the same key share
// one fill.
func (s *Store) GetOrFill(ctx context.Context, stage, key string, ttl time.Duration, fill func(context.Context) ([]byte, error)) ([]byte, bool, error) {
	if payload, ok, err := s.Get(ctx, stage, key, ttl); err != nil || ok {
		return payload, ok, err
	}

	result, err, shared := s.group.Do(stage+"\x00"+key, func() (any, error) {
		// Re-check under the flight: another caller may have populated the
		// entry between the miss and the Do.
		if payload, ok, err := s.Get(ctx, stage, key, ttl); err != nil {
			return nil, err
		} else if ok {
			return payload, nil
		}
		payload, err := fill(ctx)
		if err != nil {
			return nil, err
		}
		if putErr := s.Put(ctx, stage, key, payload); putErr != nil {
			s.logger.Warn("cache write failed",
				logging.String(logging.FieldEventType, "cache_write_failed"),
				logging.String("stage", stage),
				logging.Error(putErr))
		}
		return payload, nil
	})
	if err != nil {
		return nil, false, err
	}
	if shared {
		s.logger.Debug("cache fill shared",
			logging.String(logging.FieldEventType, "cache_fill_shared"),
			logging.String("stage", stage),
			logging.String("key", shortKey(key)))
	}
	return result.([]byte), false, nil
}

// Delete removes a single entry.
func (s *Store) Delete(ctx context.Context, stage, key string) error {
	if _, err := s.db.ExecContext(ctx,
		"DELETE FROM cache_entries WHERE stage = ? AND key = ?", stage, key,
	); err != nil {
		return fmt.Errorf("cachestore: delete %s entry: %w", stage, err)
	}
	return nil
}

// Clear removes every entry for stage, or all entries when stage is empty.
func (s *Store) Clear(ctx context.Context, stage string) (int64, error) {
	var res sql.Result
	var err error
	if strings.TrimSpace(stage) == "" {
		res, err = s.db.ExecContext(ctx, "DELETE FROM cache_entries")
	} else {
		res, err = s.db.ExecContext(ctx, "DELETE FROM cache_entries WHERE stage = ?", stage)
	}
	if err != nil {
		return 0, fmt.Errorf("cachestore: clear: %w", err)
	}
	removed, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("cachestore: rows affected: %w", err)
	}
	return removed, nil
}

// StageStat summarizes one stage partition for status reporting.
type StageStat struct {
	Stage   string
	Entries int64
	Oldest  time.Time
	Newest  time.Time
}

// Stats returns per-stage entry counts and age bounds, ordered by stage name.
func (s *Store) Stats(ctx context.Context) ([]StageStat, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT stage, COUNT(1), MIN(created_at), MAX(created_at)
         FROM cache_entries GROUP BY stage ORDER BY stage`,
	)
	if err != nil {
		return nil, fmt.Errorf("cachestore: stats: %w", err)
	}
	defer rows.Close()

	var stats []StageStat
	for rows.Next() {
		var stat StageStat
		var oldest, newest string
		if err := rows.Scan(&stat.Stage, &stat.Entries, &oldest, &newest); err != nil {
			return nil, fmt.Errorf("cachestore: scan stats: %w", err)
		}
		stat.Oldest, _ = time.Parse(time.RFC3339Nano, oldest)
		stat.Newest, _ = time.Parse(time.RFC3339Nano, newest)
		stats = append(stats, stat)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("cachestore: iterate stats: %w", err)
	}
	return stats, nil
}

func shortKey(key string) string {
	if len(key) > 12 {
		return key[:12]
	}
	return key
}
