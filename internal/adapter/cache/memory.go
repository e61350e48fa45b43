// Package cache provides response-cache backends for raw feed bodies.
package cache

import (
	"context"
	"sync"

	"github.com/couchcryptid/dining-data-service/internal/domain"
)

// MemoryCache is a bounded, thread-safe LRU of feed responses.
type MemoryCache struct {
	maxEntries int
	mu         sync.Mutex
	entries    map[string]*entry
	head       *entry // most recently used
	tail       *entry // least recently used
}

type entry struct {
	key   string
	value domain.CachedResponse
	prev  *entry
	next  *entry
}

// NewMemoryCache creates an LRU holding at most maxEntries responses.
// Values below 1 are treated as 1.
func NewMemoryCache(maxEntries int) *MemoryCache {
	if maxEntries < 1 {
		maxEntries = 1
	}
	return &MemoryCache{
		maxEntries: maxEntries,
		entries:    make(map[string]*entry),
	}
}

// Get returns the stored response for key.
func (c *MemoryCache) Get(_ context.Context, key string) (domain.CachedResponse, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return domain.CachedResponse{}, false, nil
	}
	c.moveToFront(e)
	return e.value, true, nil
}

// Put stores resp under key, evicting the least recently used entry when full.
func (c *MemoryCache) Put(_ context.Context, key string, resp domain.CachedResponse) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if e, ok := c.entries[key]; ok {
		e.value = resp
		c.moveToFront(e)
		return nil
	}

	e := &entry{key: key, value: resp}
	c.entries[key] = e
	c.addToFront(e)

	if len(c.entries) > c.maxEntries {
		c.evictTail()
	}
	return nil
}

// Len reports the number of stored responses.
func (c *MemoryCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

func (c *MemoryCache) moveToFront(e *entry) {
	if e == c.head {
		return
	}
	c.unlink(e)
	c.addToFront(e)
}

func (c *MemoryCache) addToFront(e *entry) {
	e.next = c.head
	e.prev = nil
	if c.head != nil {
		c.head.prev = e
	}
	c.head = e
	if c.tail == nil {
		c.tail = e
	}
}

func (c *MemoryCache) unlink(e *entry) {
	if e.prev != nil {
		e.prev.next = e.next
	} else {
		c.head = e.next
	}
	if e.next != nil {
		e.next.prev = e.prev
	} else {
		c.tail = e.prev
	}
}

func (c *MemoryCache) evictTail() {
	if c.tail == nil {
		return
	}
	delete(c.entries, c.tail.key)
	c.unlink(c.tail)
}
