package sqlite

import (
	"bytes"
	"compress/gzip"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"sync/atomic"
	"time"

	_ "modernc.org/sqlite"

	"github.com/inkwell-ai/inkgate/pkg/models"
)

// ErrUnavailable wraps storage I/O failures. Callers treat it as a cache
// miss; the cache is an optimization, never a correctness dependency.
var ErrUnavailable = errors.New("cache unavailable")

// Store is a durable response cache backed by SQLite. Entries expire lazily
// on read; SweepExpired reclaims space for rows nobody asks for anymore.
type Store struct {
	db        *sql.DB
	threshold int
	hits      atomic.Int64
	misses    atomic.Int64
}

const createCacheTable = `
CREATE TABLE IF NOT EXISTS cache_entries (
	fingerprint TEXT PRIMARY KEY,
	payload BLOB NOT NULL,
	compressed INTEGER NOT NULL DEFAULT 0,
	created_at DATETIME NOT NULL,
	expires_at DATETIME NOT NULL,
	size_bytes INTEGER NOT NULL,
	access_count INTEGER NOT NULL DEFAULT 0,
	last_accessed_at DATETIME
);
CREATE INDEX IF NOT EXISTS idx_cache_expires ON cache_entries(expires_at);
`

// New opens (and migrates) the cache database. Payloads larger than
// compressionThreshold bytes are stored gzip-compressed.
func New(dbPath string, compressionThreshold int) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open cache db: %w", err)
	}

	if _, err := db.Exec(createCacheTable); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate cache db: %w", err)
	}

	return &Store{db: db, threshold: compressionThreshold}, nil
}

// Put stores a payload under a fingerprint with the given TTL. The write is
// durable before Put returns. An existing entry is replaced wholesale.
func (s *Store) Put(fingerprint string, payload []byte, ttl time.Duration) error {
	now := time.Now().UTC()
	stored := payload
	compressed := false

	if s.threshold > 0 && len(payload) > s.threshold {
		var buf bytes.Buffer
		zw := gzip.NewWriter(&buf)
		if _, err := zw.Write(payload); err == nil && zw.Close() == nil {
			stored = buf.Bytes()
			compressed = true
		}
	}

	_, err := s.db.Exec(
		`INSERT OR REPLACE INTO cache_entries
		 (fingerprint, payload, compressed, created_at, expires_at, size_bytes, access_count, last_accessed_at)
		 VALUES (?, ?, ?, ?, ?, ?, 0, NULL)`,
		fingerprint, stored, compressed, now, now.Add(ttl), int64(len(stored)),
	)
	if err != nil {
		return fmt.Errorf("%w: put: %v", ErrUnavailable, err)
	}
	return nil
}

// Get retrieves an entry. Payload comes back decompressed; Compressed
// records the stored form. Returns ok=false for missing and expired entries
// alike; only the statistics distinguish the two. A non-nil error means the
// store itself is unavailable.
func (s *Store) Get(fingerprint string) (*models.CacheEntry, bool, error) {
	var e models.CacheEntry
	var lastAccessed sql.NullTime

	err := s.db.QueryRow(
		`SELECT fingerprint, payload, compressed, created_at, expires_at, size_bytes, access_count, last_accessed_at
		 FROM cache_entries WHERE fingerprint = ?`,
		fingerprint,
	).Scan(&e.Fingerprint, &e.Payload, &e.Compressed, &e.CreatedAt, &e.ExpiresAt,
		&e.SizeBytes, &e.AccessCount, &lastAccessed)

	if errors.Is(err, sql.ErrNoRows) {
		s.misses.Add(1)
		return nil, false, nil
	}
	if err != nil {
		s.misses.Add(1)
		return nil, false, fmt.Errorf("%w: get: %v", ErrUnavailable, err)
	}
	if lastAccessed.Valid {
		e.LastAccessedAt = lastAccessed.Time
	}

	if !time.Now().UTC().Before(e.ExpiresAt) {
		// Lazy expiration: leave the row for the sweep.
		s.misses.Add(1)
		return nil, false, nil
	}

	if e.Compressed {
		zr, err := gzip.NewReader(bytes.NewReader(e.Payload))
		if err != nil {
			s.misses.Add(1)
			return nil, false, fmt.Errorf("%w: decompress: %v", ErrUnavailable, err)
		}
		e.Payload, err = io.ReadAll(zr)
		zr.Close()
		if err != nil {
			s.misses.Add(1)
			return nil, false, fmt.Errorf("%w: decompress: %v", ErrUnavailable, err)
		}
	}

	// Access bookkeeping is best-effort.
	_, _ = s.db.Exec(
		`UPDATE cache_entries SET access_count = access_count + 1, last_accessed_at = ? WHERE fingerprint = ?`,
		time.Now().UTC(), fingerprint,
	)

	s.hits.Add(1)
	return &e, true, nil
}

// SweepExpired removes physically expired rows and reports how many.
// Advisory only; correctness never depends on it running.
func (s *Store) SweepExpired() (int64, error) {
	res, err := s.db.Exec(`DELETE FROM cache_entries WHERE expires_at <= ?`, time.Now().UTC())
	if err != nil {
		return 0, fmt.Errorf("%w: sweep: %v", ErrUnavailable, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("sweep count: %w", err)
	}
	return n, nil
}

// Stats returns entry count, stored bytes, and hit/miss counters.
func (s *Store) Stats() (models.CacheStats, error) {
	var count, size int64
	err := s.db.QueryRow(`SELECT COUNT(*), COALESCE(SUM(size_bytes), 0) FROM cache_entries`).Scan(&count, &size)
	if err != nil {
		return models.CacheStats{}, fmt.Errorf("%w: stats: %v", ErrUnavailable, err)
	}
	stats := models.CacheStats{
		Entries:        count,
		TotalSizeBytes: size,
		Hits:           s.hits.Load(),
		Misses:         s.misses.Load(),
	}
	if total := stats.Hits + stats.Misses; total > 0 {
		stats.HitRate = float64(stats.Hits) / float64(total)
	}
	return stats, nil
}

// Clear removes all entries.
func (s *Store) Clear() error {
	if _, err := s.db.Exec(`DELETE FROM cache_entries`); err != nil {
		return fmt.Errorf("%w: clear: %v", ErrUnavailable, err)
	}
	return nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}
