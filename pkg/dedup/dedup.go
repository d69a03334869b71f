// Package dedup guarantees at most one in-flight provider call per request
// fingerprint. Concurrent callers with the same fingerprint attach to the
// running flight and all receive its result, success or failure alike.
package dedup

import (
	"context"
	"log"

	"golang.org/x/sync/singleflight"

	"github.com/inkwell-ai/inkgate/pkg/cache"
)

// Deduplicator coordinates cache-first, single-flight execution. The cache
// may be nil, in which case every distinct flight executes the producer.
type Deduplicator struct {
	group singleflight.Group
	cache *cache.Tiered
}

// New creates a Deduplicator over the given cache.
func New(c *cache.Tiered) *Deduplicator {
	return &Deduplicator{cache: c}
}

// ExecuteOnce returns the payload for fingerprint. A valid cache entry is
// returned immediately (fromCache=true) without running produce. Otherwise
// exactly one caller executes produce; on success the result is written to
// both cache tiers before the flight resolves.
//
// Cancelling ctx releases only this caller's wait: the flight keeps running
// and still populates the cache for subsequent lookups.
func (d *Deduplicator) ExecuteOnce(ctx context.Context, fingerprint string, produce func() ([]byte, error)) ([]byte, bool, error) {
	if d.cache != nil {
		if payload, ok := d.cache.Get(fingerprint); ok {
			return payload, true, nil
		}
	}

	ch := d.group.DoChan(fingerprint, func() (any, error) {
		payload, err := produce()
		if err != nil {
			return nil, err
		}
		if d.cache != nil {
			if err := d.cache.Put(fingerprint, payload); err != nil {
				// Cache writes are best-effort; the response is still good.
				log.Printf("cache write failed for %.16s: %v", fingerprint, err)
			}
		}
		return payload, nil
	})

	select {
	case <-ctx.Done():
		return nil, false, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, false, res.Err
		}
		return res.Val.([]byte), false, nil
	}
}
