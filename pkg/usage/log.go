// Package usage persists the append-only accounting log of provider calls.
package usage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/inkwell-ai/inkgate/pkg/models"
)

// Log records and queries per-call usage. One row per attempted provider
// call; cache hits never reach it.
type Log struct {
	db *sql.DB
}

const createTable = `
CREATE TABLE IF NOT EXISTS usage_records (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	provider TEXT NOT NULL,
	model TEXT NOT NULL,
	fingerprint TEXT NOT NULL,
	input_tokens INTEGER NOT NULL,
	output_tokens INTEGER NOT NULL,
	total_tokens INTEGER NOT NULL,
	cost REAL NOT NULL,
	latency_ms INTEGER NOT NULL,
	success INTEGER NOT NULL,
	error_kind TEXT NOT NULL DEFAULT '',
	created_at DATETIME NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_usage_provider_time ON usage_records(provider, created_at);
`

// New opens (and migrates) the usage database.
func New(dbPath string) (*Log, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open usage db: %w", err)
	}

	if _, err := db.Exec(createTable); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate usage db: %w", err)
	}

	return &Log{db: db}, nil
}

// Append stores one usage record.
func (l *Log) Append(ctx context.Context, rec models.UsageRecord) error {
	_, err := l.db.ExecContext(ctx,
		`INSERT INTO usage_records
		 (provider, model, fingerprint, input_tokens, output_tokens, total_tokens, cost, latency_ms, success, error_kind, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.Provider, rec.Model, rec.Fingerprint, rec.InputTokens, rec.OutputTokens, rec.TotalTokens,
		rec.Cost, rec.Latency.Milliseconds(), rec.Success, rec.ErrorKind, rec.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("append usage: %w", err)
	}
	return nil
}

// Summary aggregates usage per provider and model since a given time.
func (l *Log) Summary(ctx context.Context, since time.Time) ([]models.UsageSummary, error) {
	rows, err := l.db.QueryContext(ctx,
		`SELECT provider, model, COUNT(*),
		        SUM(CASE WHEN success = 0 THEN 1 ELSE 0 END),
		        SUM(input_tokens), SUM(output_tokens), SUM(total_tokens), SUM(cost)
		 FROM usage_records WHERE created_at >= ?
		 GROUP BY provider, model ORDER BY provider, model`,
		since,
	)
	if err != nil {
		return nil, fmt.Errorf("usage summary: %w", err)
	}
	defer rows.Close()

	var summaries []models.UsageSummary
	for rows.Next() {
		var s models.UsageSummary
		if err := rows.Scan(&s.Provider, &s.Model, &s.RequestCount, &s.Failures,
			&s.InputTokens, &s.OutputTokens, &s.TotalTokens, &s.TotalCost); err != nil {
			return nil, fmt.Errorf("scan summary: %w", err)
		}
		summaries = append(summaries, s)
	}
	return summaries, rows.Err()
}

// Totals returns overall counters since a given time.
func (l *Log) Totals(ctx context.Context, since time.Time) (models.UsageTotals, error) {
	var t models.UsageTotals
	err := l.db.QueryRowContext(ctx,
		`SELECT COUNT(*),
		        COALESCE(SUM(CASE WHEN success = 0 THEN 1 ELSE 0 END), 0),
		        COALESCE(SUM(total_tokens), 0), COALESCE(SUM(cost), 0)
		 FROM usage_records WHERE created_at >= ?`,
		since,
	).Scan(&t.RequestCount, &t.Failures, &t.TotalTokens, &t.TotalCost)
	if err != nil {
		return models.UsageTotals{}, fmt.Errorf("usage totals: %w", err)
	}
	return t, nil
}

// Recent returns the newest records, capped at limit.
func (l *Log) Recent(ctx context.Context, limit int) ([]models.UsageRecord, error) {
	rows, err := l.db.QueryContext(ctx,
		`SELECT id, provider, model, fingerprint, input_tokens, output_tokens, total_tokens,
		        cost, latency_ms, success, error_kind, created_at
		 FROM usage_records ORDER BY created_at DESC, id DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("recent usage: %w", err)
	}
	defer rows.Close()

	var records []models.UsageRecord
	for rows.Next() {
		var r models.UsageRecord
		var latencyMS int64
		if err := rows.Scan(&r.ID, &r.Provider, &r.Model, &r.Fingerprint, &r.InputTokens,
			&r.OutputTokens, &r.TotalTokens, &r.Cost, &latencyMS, &r.Success, &r.ErrorKind, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan usage: %w", err)
		}
		r.Latency = time.Duration(latencyMS) * time.Millisecond
		records = append(records, r)
	}
	return records, rows.Err()
}

// PurgeOlderThan removes records past the retention horizon and reports how
// many were deleted.
func (l *Log) PurgeOlderThan(ctx context.Context, retention time.Duration) (int64, error) {
	res, err := l.db.ExecContext(ctx,
		`DELETE FROM usage_records WHERE created_at < ?`,
		time.Now().UTC().Add(-retention),
	)
	if err != nil {
		return 0, fmt.Errorf("purge usage: %w", err)
	}
	return res.RowsAffected()
}

// Close releases the database connection.
func (l *Log) Close() error {
	return l.db.Close()
}
