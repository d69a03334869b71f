// Package cache ties the in-process LRU tier and the durable SQLite tier
// into a single two-tier response cache.
package cache

import (
	"log"
	"sync/atomic"
	"time"

	"github.com/inkwell-ai/inkgate/pkg/cache/memory"
	"github.com/inkwell-ai/inkgate/pkg/cache/sqlite"
	"github.com/inkwell-ai/inkgate/pkg/models"
)

// Tiered is a bounded memory cache in front of a durable store. A memory miss
// falls through to the store; a store hit backfills the memory tier. Store
// failures degrade to misses and never propagate to the caller.
type Tiered struct {
	mem    *memory.LRU
	store  *sqlite.Store
	ttl    time.Duration
	hits   atomic.Int64
	misses atomic.Int64
}

// NewTiered creates a two-tier cache. memLimitBytes bounds the memory tier;
// ttl applies to every Put.
func NewTiered(store *sqlite.Store, memLimitBytes int64, ttl time.Duration) *Tiered {
	return &Tiered{
		mem:   memory.New(memLimitBytes),
		store: store,
		ttl:   ttl,
	}
}

// Get looks up a fingerprint in both tiers.
func (t *Tiered) Get(fingerprint string) ([]byte, bool) {
	if payload, ok := t.mem.Get(fingerprint); ok {
		t.hits.Add(1)
		return payload, true
	}

	entry, ok, err := t.store.Get(fingerprint)
	if err != nil {
		log.Printf("cache store degraded to miss: %v", err)
		t.misses.Add(1)
		return nil, false
	}
	if !ok {
		t.misses.Add(1)
		return nil, false
	}

	// Backfill with the entry's remaining lifetime so the memory tier can
	// never outlive the durable expiry.
	if remaining := time.Until(entry.ExpiresAt); remaining > 0 {
		if remaining > t.ttl {
			remaining = t.ttl
		}
		t.mem.Put(fingerprint, entry.Payload, remaining)
	}
	t.hits.Add(1)
	return entry.Payload, true
}

// Put writes to both tiers. The durable write's error is returned so the
// orchestrator can log it, but callers must treat a failed Put as non-fatal.
func (t *Tiered) Put(fingerprint string, payload []byte) error {
	t.mem.Put(fingerprint, payload, t.ttl)
	return t.store.Put(fingerprint, payload, t.ttl)
}

// TTL returns the configured entry lifetime.
func (t *Tiered) TTL() time.Duration {
	return t.ttl
}

// Stats reports the durable tier's entry count and sizes together with the
// combined two-tier hit/miss counters.
func (t *Tiered) Stats() (models.CacheStats, error) {
	stats, err := t.store.Stats()
	if err != nil {
		return models.CacheStats{}, err
	}
	stats.Hits = t.hits.Load()
	stats.Misses = t.misses.Load()
	stats.HitRate = 0
	if total := stats.Hits + stats.Misses; total > 0 {
		stats.HitRate = float64(stats.Hits) / float64(total)
	}
	return stats, nil
}

// SweepExpired reclaims expired rows from the durable tier.
func (t *Tiered) SweepExpired() (int64, error) {
	return t.store.SweepExpired()
}

// Clear drops all entries from both tiers.
func (t *Tiered) Clear() error {
	t.mem.Purge()
	return t.store.Clear()
}

// Close releases the durable tier.
func (t *Tiered) Close() error {
	return t.store.Close()
}
