package cache

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	_ "modernc.org/sqlite"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS kv (
	key        TEXT PRIMARY KEY,
	value      BLOB NOT NULL,
	expires_at INTEGER -- unix milliseconds, NULL = no expiry
);

CREATE TABLE IF NOT EXISTS list_items (
	seq      INTEGER PRIMARY KEY AUTOINCREMENT,
	list_key TEXT NOT NULL,
	value    BLOB NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_list_items_key ON list_items(list_key, seq);
CREATE INDEX IF NOT EXISTS idx_kv_expires ON kv(expires_at) WHERE expires_at IS NOT NULL;
`

// SQLiteStore is a durable Store backed by an embedded SQLite database.
// The database runs in WAL mode with a single connection, which serializes
// writes without lock contention at this scale.
type SQLiteStore struct {
	db     *sql.DB
	logger *slog.Logger
	stopCh chan struct{}
	doneCh chan struct{}
}

// NewSQLiteStore opens (creating if necessary) the cache database at path
// and starts a background expiry sweep.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)", path)

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open cache database: %w", err)
	}
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to cache database: %w", err)
	}
	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize cache schema: %w", err)
	}

	s := &SQLiteStore{
		db:     db,
		logger: slog.Default().With("component", "cache_store"),
		stopCh: make(chan struct{}),
		doneCh: make(chan struct{}),
	}
	go s.sweep()
	return s, nil
}

// sweep periodically deletes expired rows so the database does not grow
// without bound between reads.
func (s *SQLiteStore) sweep() {
	defer close(s.doneCh)
	ticker := time.NewTicker(1 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-s.stopCh:
			return
		case <-ticker.C:
			res, err := s.db.Exec(
				"DELETE FROM kv WHERE expires_at IS NOT NULL AND expires_at <= ?",
				time.Now().UnixMilli(),
			)
			if err != nil {
				s.logger.Warn("expiry sweep failed", "error", err)
				continue
			}
			if n, _ := res.RowsAffected(); n > 0 {
				s.logger.Debug("expired cache rows removed", "rows", n)
			}
		}
	}
}

// Get returns the value at key, or ErrNotFound if absent or expired.
func (s *SQLiteStore) Get(ctx context.Context, key string) ([]byte, error) {
	var value []byte
	var expiresAt sql.NullInt64

	err := s.db.QueryRowContext(ctx,
		"SELECT value, expires_at FROM kv WHERE key = ?", key,
	).Scan(&value, &expiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read cache key: %w", err)
	}

	if expiresAt.Valid && expiresAt.Int64 <= time.Now().UnixMilli() {
		// Lazy delete; the sweep catches anything missed here.
		_, _ = s.db.ExecContext(ctx, "DELETE FROM kv WHERE key = ?", key)
		return nil, ErrNotFound
	}
	return value, nil
}

// Set writes value at key with the given TTL.
func (s *SQLiteStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	var expiresAt sql.NullInt64
	if ttl > 0 {
		expiresAt = sql.NullInt64{Int64: time.Now().Add(ttl).UnixMilli(), Valid: true}
	}

	_, err := s.db.ExecContext(ctx,
		"INSERT OR REPLACE INTO kv (key, value, expires_at) VALUES (?, ?, ?)",
		key, value, expiresAt,
	)
	if err != nil {
		return fmt.Errorf("failed to write cache key: %w", err)
	}
	return nil
}

// ListAppend appends value to the list at key.
func (s *SQLiteStore) ListAppend(ctx context.Context, key string, value []byte) error {
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO list_items (list_key, value) VALUES (?, ?)",
		key, value,
	)
	if err != nil {
		return fmt.Errorf("failed to append to cache list: %w", err)
	}
	return nil
}

// ListRange returns elements [start, stop] of the list at key, oldest first.
func (s *SQLiteStore) ListRange(ctx context.Context, key string, start, stop int) ([][]byte, error) {
	n, err := s.listLen(ctx, key)
	if err != nil {
		return nil, err
	}

	lo, hi, ok := normalizeRange(start, stop, n)
	if !ok {
		return nil, nil
	}

	rows, err := s.db.QueryContext(ctx,
		"SELECT value FROM list_items WHERE list_key = ? ORDER BY seq LIMIT ? OFFSET ?",
		key, hi-lo+1, lo,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to read cache list: %w", err)
	}
	defer rows.Close()

	var out [][]byte
	for rows.Next() {
		var v []byte
		if err := rows.Scan(&v); err != nil {
			return nil, fmt.Errorf("failed to scan cache list row: %w", err)
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

// ListTrim discards list elements outside [start, stop].
func (s *SQLiteStore) ListTrim(ctx context.Context, key string, start, stop int) error {
	n, err := s.listLen(ctx, key)
	if err != nil {
		return err
	}

	lo, hi, ok := normalizeRange(start, stop, n)
	if !ok {
		_, err := s.db.ExecContext(ctx, "DELETE FROM list_items WHERE list_key = ?", key)
		return err
	}

	_, err = s.db.ExecContext(ctx, `
		DELETE FROM list_items WHERE list_key = ? AND seq NOT IN (
			SELECT seq FROM list_items WHERE list_key = ? ORDER BY seq LIMIT ? OFFSET ?
		)`,
		key, key, hi-lo+1, lo,
	)
	if err != nil {
		return fmt.Errorf("failed to trim cache list: %w", err)
	}
	return nil
}

func (s *SQLiteStore) listLen(ctx context.Context, key string) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM list_items WHERE list_key = ?", key,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count cache list: %w", err)
	}
	return n, nil
}

// Len returns the number of live keys with the given prefix.
func (s *SQLiteStore) Len(ctx context.Context, prefix string) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM kv WHERE key LIKE ? || '%' AND (expires_at IS NULL OR expires_at > ?)",
		prefix, time.Now().UnixMilli(),
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count cache keys: %w", err)
	}
	return n, nil
}

// Clear removes all keys and lists.
func (s *SQLiteStore) Clear(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM kv"); err != nil {
		return fmt.Errorf("failed to clear cache keys: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, "DELETE FROM list_items"); err != nil {
		return fmt.Errorf("failed to clear cache lists: %w", err)
	}
	return nil
}

// Close stops the sweep and closes the database.
func (s *SQLiteStore) Close() error {
	close(s.stopCh)
	<-s.doneCh
	return s.db.Close()
}
