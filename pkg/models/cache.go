package models

import "time"

// CacheEntry stores a cached provider response keyed by request fingerprint.
// Entries are immutable once written; a refresh replaces the row wholesale.
type CacheEntry struct {
	Fingerprint    string    `json:"fingerprint"`
	Payload        []byte    `json:"payload"`
	Compressed     bool      `json:"compressed"`
	CreatedAt      time.Time `json:"created_at"`
	ExpiresAt      time.Time `json:"expires_at"`
	SizeBytes      int64     `json:"size_bytes"`
	AccessCount    int64     `json:"access_count"`
	LastAccessedAt time.Time `json:"last_accessed_at"`
}

// CacheStats reports cache performance metrics.
type CacheStats struct {
	Entries        int64   `json:"entries"`
	TotalSizeBytes int64   `json:"total_size_bytes"`
	Hits           int64   `json:"hits"`
	Misses         int64   `json:"misses"`
	HitRate        float64 `json:"hit_rate"`
}
