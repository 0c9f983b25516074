package usage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// Store persists usage records. Implementations must be safe for
// concurrent use.
type Store interface {
	// Insert writes one record.
	Insert(ctx context.Context, rec *Record) error

	// Summarize aggregates records with Timestamp >= since.
	Summarize(ctx context.Context, since time.Time) (*Summary, error)

	// DeleteBefore removes records older than cutoff and returns how many
	// were deleted.
	DeleteBefore(ctx context.Context, cutoff time.Time) (int64, error)

	// Close releases store resources.
	Close() error
}

const usageSchema = `
CREATE TABLE IF NOT EXISTS usage_records (
	id               TEXT PRIMARY KEY,
	request_id       TEXT NOT NULL,
	timestamp        INTEGER NOT NULL,
	model            TEXT NOT NULL,
	strategy         TEXT NOT NULL DEFAULT '',
	region           TEXT NOT NULL DEFAULT '',
	cache_outcome    TEXT NOT NULL,
	similarity       REAL NOT NULL DEFAULT 0,
	input_tokens     INTEGER NOT NULL DEFAULT 0,
	output_tokens    INTEGER NOT NULL DEFAULT 0,
	embedding_tokens INTEGER NOT NULL DEFAULT 0,
	cost_usd         REAL NOT NULL DEFAULT 0,
	gross_savings    REAL NOT NULL DEFAULT 0,
	net_savings      REAL NOT NULL DEFAULT 0,
	latency_ms       REAL NOT NULL DEFAULT 0,
	success          INTEGER NOT NULL DEFAULT 1,
	error_type       TEXT NOT NULL DEFAULT ''
);

CREATE INDEX IF NOT EXISTS idx_usage_timestamp ON usage_records(timestamp);
CREATE INDEX IF NOT EXISTS idx_usage_model ON usage_records(model, timestamp);
`

// SQLiteStore is the durable usage store.
type SQLiteStore struct {
	db         *sql.DB
	insertStmt *sql.Stmt
}

// NewSQLiteStore opens (creating if necessary) the usage database at path.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	// WAL keeps the async recorder's writes from blocking summary reads.
	dsn := fmt.Sprintf("%s?_journal_mode=WAL&_busy_timeout=5000&_synchronous=NORMAL", path)

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open usage database: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to usage database: %w", err)
	}
	if _, err := db.Exec(usageSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize usage schema: %w", err)
	}

	insertStmt, err := db.Prepare(`
		INSERT INTO usage_records (
			id, request_id, timestamp, model, strategy, region,
			cache_outcome, similarity, input_tokens, output_tokens,
			embedding_tokens, cost_usd, gross_savings, net_savings,
			latency_ms, success, error_type
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to prepare usage insert: %w", err)
	}

	return &SQLiteStore{db: db, insertStmt: insertStmt}, nil
}

// Insert writes one record.
func (s *SQLiteStore) Insert(ctx context.Context, rec *Record) error {
	success := 0
	if rec.Success {
		success = 1
	}

	_, err := s.insertStmt.ExecContext(ctx,
		rec.ID, rec.RequestID, rec.Timestamp.UnixMilli(), rec.Model,
		rec.Strategy, rec.Region, rec.CacheOutcome, rec.Similarity,
		rec.InputTokens, rec.OutputTokens, rec.EmbeddingTokens,
		rec.CostUSD, rec.GrossSavingsUSD, rec.NetSavingsUSD,
		rec.LatencyMs, success, rec.ErrorType,
	)
	if err != nil {
		return fmt.Errorf("failed to insert usage record: %w", err)
	}
	return nil
}

// Summarize aggregates records with Timestamp >= since.
func (s *SQLiteStore) Summarize(ctx context.Context, since time.Time) (*Summary, error) {
	summary := &Summary{Since: since}
	sinceMs := since.UnixMilli()

	err := s.db.QueryRowContext(ctx, `
		SELECT
			COUNT(*),
			COALESCE(SUM(CASE WHEN cache_outcome = 'exact' THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN cache_outcome = 'semantic' THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN cache_outcome = 'miss' THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(cost_usd), 0),
			COALESCE(SUM(net_savings), 0)
		FROM usage_records WHERE timestamp >= ?`, sinceMs,
	).Scan(
		&summary.Requests, &summary.ExactHits, &summary.SemanticHits,
		&summary.Misses, &summary.TotalCostUSD, &summary.TotalNetSavingsUSD,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to summarize usage: %w", err)
	}

	if summary.Requests > 0 {
		summary.HitRate = float64(summary.ExactHits+summary.SemanticHits) / float64(summary.Requests)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT
			model,
			COUNT(*),
			COALESCE(SUM(CASE WHEN cache_outcome != 'miss' THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(cost_usd), 0),
			COALESCE(SUM(net_savings), 0)
		FROM usage_records WHERE timestamp >= ?
		GROUP BY model ORDER BY COUNT(*) DESC, model`, sinceMs)
	if err != nil {
		return nil, fmt.Errorf("failed to summarize per-model usage: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var m ModelSummary
		if err := rows.Scan(&m.Model, &m.Requests, &m.CacheHits, &m.CostUSD, &m.NetSavingsUSD); err != nil {
			return nil, fmt.Errorf("failed to scan model summary: %w", err)
		}
		summary.Models = append(summary.Models, m)
	}
	return summary, rows.Err()
}

// DeleteBefore removes records older than cutoff.
func (s *SQLiteStore) DeleteBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		"DELETE FROM usage_records WHERE timestamp < ?", cutoff.UnixMilli())
	if err != nil {
		return 0, fmt.Errorf("failed to prune usage records: %w", err)
	}
	return res.RowsAffected()
}

// Close releases the prepared statement and database handle.
func (s *SQLiteStore) Close() error {
	s.insertStmt.Close()
	return s.db.Close()
}
