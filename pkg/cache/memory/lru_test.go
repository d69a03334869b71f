package memory

import (
	"fmt"
	"sync"
	"testing"
	"time"
)

func TestGetPromotesEntry(t *testing.T) {
	c := New(30)

	c.Put("a", []byte("0123456789"), time.Hour)
	c.Put("b", []byte("0123456789"), time.Hour)
	c.Put("c", []byte("0123456789"), time.Hour)

	// Touch "a" so "b" becomes the LRU victim.
	if _, ok := c.Get("a"); !ok {
		t.Fatal("expected hit for a")
	}

	c.Put("d", []byte("0123456789"), time.Hour)

	if _, ok := c.Get("b"); ok {
		t.Error("expected b to be evicted")
	}
	if _, ok := c.Get("a"); !ok {
		t.Error("expected a to survive eviction")
	}
}

func TestEvictionHonorsQuota(t *testing.T) {
	c := New(25)

	for i := 0; i < 10; i++ {
		c.Put(fmt.Sprintf("k%d", i), []byte("0123456789"), time.Hour)
	}

	if c.Bytes() > 25 {
		t.Errorf("quota exceeded: %d bytes", c.Bytes())
	}
	if c.Len() != 2 {
		t.Errorf("expected 2 entries within quota, got %d", c.Len())
	}
}

func TestOversizedPayloadNotAdmitted(t *testing.T) {
	c := New(5)
	c.Put("big", []byte("0123456789"), time.Hour)
	if c.Len() != 0 {
		t.Error("payload larger than quota should not be admitted")
	}
}

func TestReplaceAdjustsBytes(t *testing.T) {
	c := New(100)
	c.Put("k", []byte("0123456789"), time.Hour)
	c.Put("k", []byte("01234"), time.Hour)
	if c.Bytes() != 5 {
		t.Errorf("expected 5 bytes after replace, got %d", c.Bytes())
	}
	if c.Len() != 1 {
		t.Errorf("expected 1 entry, got %d", c.Len())
	}
}

func TestExpiredEntryIsMiss(t *testing.T) {
	c := New(100)
	c.Put("k", []byte("data"), time.Millisecond)
	time.Sleep(10 * time.Millisecond)
	if _, ok := c.Get("k"); ok {
		t.Error("expected miss for expired entry")
	}
	if c.Len() != 0 {
		t.Error("expired entry should be dropped on read")
	}
}

func TestConcurrentAccess(t *testing.T) {
	c := New(1 << 20)
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			for j := 0; j < 200; j++ {
				key := fmt.Sprintf("k%d", j%20)
				c.Put(key, []byte("payload"), time.Hour)
				c.Get(key)
			}
		}(i)
	}
	wg.Wait()
}
