package cache

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3" // Import for side-effects only
)

// SQLiteStore is a durable tier backed by a local SQLite file.
// It serves single-host deployments that have no Redis.
type SQLiteStore struct {
	db  *sql.DB
	ttl time.Duration
	now func() time.Time
}

// OpenSQLiteStore opens (or creates) the database at path and ensures the
// schema exists. A non-positive ttl falls back to DefaultTTL.
func OpenSQLiteStore(path string, ttl time.Duration) (*SQLiteStore, error) {
	// WAL plus a busy timeout keeps concurrent readers from hitting "database locked".
	dsn := fmt.Sprintf("%s?_busy_timeout=5000&_journal_mode=WAL", path)

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open cache database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping cache database: %w", err)
	}

	if err := createSchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ensure cache schema: %w", err)
	}

	if ttl <= 0 {
		ttl = DefaultTTL
	}

	return &SQLiteStore{
		db:  db,
		ttl: ttl,
		now: time.Now,
	}, nil
}

func createSchema(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS cache_entries (
	  key TEXT PRIMARY KEY,
	  data BLOB NOT NULL,
	  cached_at INTEGER NOT NULL,
	  expires_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_cache_expires ON cache_entries(expires_at);
	`
	_, err := db.Exec(schema)
	return err
}

// Get retrieves a value. Expired rows are treated as misses and removed.
func (s *SQLiteStore) Get(ctx context.Context, key string) ([]byte, error) {
	entry, err := s.GetEntry(ctx, key)
	if err != nil {
		return nil, err
	}
	return entry.Data, nil
}

// GetEntry retrieves the stored row for key, with its timestamps.
func (s *SQLiteStore) GetEntry(ctx context.Context, key string) (*Entry, error) {
	var (
		data      []byte
		cachedAt  int64
		expiresAt int64
	)

	row := s.db.QueryRowContext(ctx,
		`SELECT data, cached_at, expires_at FROM cache_entries WHERE key = ?`, key)
	if err := row.Scan(&data, &cachedAt, &expiresAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			CacheMisses.WithLabelValues(s.Name()).Inc()
			return nil, ErrCacheMiss
		}
		CacheErrors.WithLabelValues(s.Name(), "get").Inc()
		return nil, fmt.Errorf("sqlite get: %w", err)
	}

	if s.now().UnixNano() >= expiresAt {
		_, _ = s.db.ExecContext(ctx, `DELETE FROM cache_entries WHERE key = ?`, key)
		CacheMisses.WithLabelValues(s.Name()).Inc()
		return nil, ErrCacheMiss
	}

	CacheHits.WithLabelValues(s.Name()).Inc()
	return &Entry{
		Data:     data,
		CachedAt: time.Unix(0, cachedAt),
		Expires:  time.Unix(0, expiresAt),
	}, nil
}

// Set upserts a value with the store TTL.
func (s *SQLiteStore) Set(ctx context.Context, key string, value []byte) error {
	entry := NewEntry(value, s.now(), s.ttl)

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO cache_entries (key, data, cached_at, expires_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET
		  data = excluded.data,
		  cached_at = excluded.cached_at,
		  expires_at = excluded.expires_at`,
		key, entry.Data, entry.CachedAt.UnixNano(), entry.Expires.UnixNano())
	if err != nil {
		CacheErrors.WithLabelValues(s.Name(), "set").Inc()
		return fmt.Errorf("sqlite set: %w", err)
	}

	CacheWrittenBytes.WithLabelValues(s.Name()).Add(float64(len(value)))
	return nil
}

// ListKeys returns unexpired keys in lexical order.
func (s *SQLiteStore) ListKeys(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT key FROM cache_entries WHERE expires_at > ? ORDER BY key`, s.now().UnixNano())
	if err != nil {
		CacheErrors.WithLabelValues(s.Name(), "list").Inc()
		return nil, fmt.Errorf("sqlite list: %w", err)
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			CacheErrors.WithLabelValues(s.Name(), "list").Inc()
			return nil, fmt.Errorf("sqlite list scan: %w", err)
		}
		keys = append(keys, key)
	}
	if err := rows.Err(); err != nil {
		CacheErrors.WithLabelValues(s.Name(), "list").Inc()
		return nil, fmt.Errorf("sqlite list: %w", err)
	}

	return keys, nil
}

// Ping checks that the database is reachable.
func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close releases the database handle.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Name returns "sqlite".
func (s *SQLiteStore) Name() string {
	return "sqlite"
}

// Ensure SQLiteStore implements Store
var (
	_ Store       = (*SQLiteStore)(nil)
	_ EntryReader = (*SQLiteStore)(nil)
)
