// Package cache provides an in-memory LRU cache with TTL, used to keep
// accepted per-company prompt rewrites for the lifetime of a run.
package cache

import (
	"container/list"
	"sync"
	"time"
)

// entry is a cached item with its LRU bookkeeping.
type entry struct {
	key       string
	value     string
	expiresAt time.Time
	element   *list.Element
}

// PromptCache maps a company name to its accepted prompt rewrite.
// Bounded by capacity with LRU eviction; safe for concurrent use since
// several workers may resolve the same company pool.
type PromptCache struct {
	mu       sync.Mutex
	capacity int
	items    map[string]*entry
	lruList  *list.List
}

// New creates a cache with the given capacity.
func New(capacity int) *PromptCache {
	if capacity <= 0 {
		capacity = 100
	}
	return &PromptCache{
		capacity: capacity,
		items:    make(map[string]*entry),
		lruList:  list.New(),
	}
}

// Get retrieves a cached prompt. A hit marks the entry recently used.
func (c *PromptCache) Get(key string) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, exists := c.items[key]
	if !exists {
		return "", false
	}
	if !e.expiresAt.IsZero() && time.Now().After(e.expiresAt) {
		c.deleteEntry(e)
		return "", false
	}

	c.lruList.MoveToFront(e.element)
	return e.value, true
}

// Set stores a prompt. ttl of 0 means no expiry.
func (c *PromptCache) Set(key, value string, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var expiresAt time.Time
	if ttl > 0 {
		expiresAt = time.Now().Add(ttl)
	}

	if existing, exists := c.items[key]; exists {
		existing.value = value
		existing.expiresAt = expiresAt
		c.lruList.MoveToFront(existing.element)
		return
	}

	if len(c.items) >= c.capacity {
		c.evictLRU()
	}

	e := &entry{key: key, value: value, expiresAt: expiresAt}
	e.element = c.lruList.PushFront(e)
	c.items[key] = e
}

// Delete removes a key.
func (c *PromptCache) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if e, exists := c.items[key]; exists {
		c.deleteEntry(e)
	}
}

// Clear drops every entry.
func (c *PromptCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.items = make(map[string]*entry)
	c.lruList.Init()
}

// Size returns the current number of entries.
func (c *PromptCache) Size() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}

// evictLRU removes the least recently used entry. Caller holds c.mu.
func (c *PromptCache) evictLRU() {
	element := c.lruList.Back()
	if element != nil {
		c.deleteEntry(element.Value.(*entry))
	}
}

// deleteEntry removes an entry. Caller holds c.mu.
func (c *PromptCache) deleteEntry(e *entry) {
	delete(c.items, e.key)
	c.lruList.Remove(e.element)
}
