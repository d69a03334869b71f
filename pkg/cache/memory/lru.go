package memory

import (
	"container/list"
	"sync"
	"time"
)

// lruEntry links a fingerprint and its payload to the list element.
type lruEntry struct {
	fingerprint string
	payload     []byte
	expiresAt   time.Time
}

// LRU is an in-process accelerator in front of the durable store: a bounded
// byte-quota cache with least-recently-used eviction. Safe for concurrent use.
type LRU struct {
	mu           sync.Mutex
	order        *list.List
	entries      map[string]*list.Element
	maxBytes     int64
	currentBytes int64
}

// New creates an LRU with a hard memory limit in bytes.
func New(maxBytes int64) *LRU {
	return &LRU{
		order:    list.New(),
		entries:  make(map[string]*list.Element),
		maxBytes: maxBytes,
	}
}

// Get retrieves a payload and promotes it to most-recently-used. Expired
// entries are removed on sight.
func (c *LRU) Get(fingerprint string) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	elem, ok := c.entries[fingerprint]
	if !ok {
		return nil, false
	}
	entry := elem.Value.(*lruEntry)
	if !time.Now().Before(entry.expiresAt) {
		c.removeElement(elem)
		return nil, false
	}

	c.order.MoveToFront(elem)
	return entry.payload, true
}

// Put adds or replaces an entry, evicting from the LRU end until the quota
// holds. A payload larger than the whole quota is not admitted.
func (c *LRU) Put(fingerprint string, payload []byte, ttl time.Duration) {
	size := int64(len(payload))
	if size > c.maxBytes {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	expiresAt := time.Now().Add(ttl)
	if elem, ok := c.entries[fingerprint]; ok {
		entry := elem.Value.(*lruEntry)
		c.currentBytes += size - int64(len(entry.payload))
		entry.payload = payload
		entry.expiresAt = expiresAt
		c.order.MoveToFront(elem)
	} else {
		elem := c.order.PushFront(&lruEntry{fingerprint: fingerprint, payload: payload, expiresAt: expiresAt})
		c.entries[fingerprint] = elem
		c.currentBytes += size
	}

	for c.currentBytes > c.maxBytes {
		back := c.order.Back()
		if back == nil {
			break
		}
		c.removeElement(back)
	}
}

// Remove drops an entry if present.
func (c *LRU) Remove(fingerprint string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if elem, ok := c.entries[fingerprint]; ok {
		c.removeElement(elem)
	}
}

// Purge drops every entry.
func (c *LRU) Purge() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.order.Init()
	c.entries = make(map[string]*list.Element)
	c.currentBytes = 0
}

// Len returns the number of live entries.
func (c *LRU) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Bytes returns the current stored payload size.
func (c *LRU) Bytes() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.currentBytes
}

func (c *LRU) removeElement(elem *list.Element) {
	entry := c.order.Remove(elem).(*lruEntry)
	delete(c.entries, entry.fingerprint)
	c.currentBytes -= int64(len(entry.payload))
}
