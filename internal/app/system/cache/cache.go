// Package cache provides a small in-process memoization table with a fixed
// TTL and a bounded capacity. It is constructed once at startup and passed
// by reference to the components that need it, so the eviction policy stays
// testable and no package-level state is involved.
package cache

import (
	"container/list"
	"sync"
	"time"
)

// Cache is a TTL + capacity bounded memo table. When the capacity is
// exceeded the oldest-inserted entry is dropped. Safe for concurrent use.
type Cache[V any] struct {
	mu       sync.Mutex
	ttl      time.Duration
	capacity int
	entries  map[string]*list.Element
	order    *list.List // front = oldest inserted

	now func() time.Time // overridable in tests
}

type entry[V any] struct {
	key        string
	value      V
	insertedAt time.Time
}

// New creates a cache holding at most capacity entries for at most ttl each.
func New[V any](ttl time.Duration, capacity int) *Cache[V] {
	return &Cache[V]{
		ttl:      ttl,
		capacity: capacity,
		entries:  make(map[string]*list.Element),
		order:    list.New(),
		now:      time.Now,
	}
}

// Get returns the cached value for key if present and not expired.
func (c *Cache[V]) Get(key string) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var zero V
	el, ok := c.entries[key]
	if !ok {
		return zero, false
	}
	e := el.Value.(*entry[V])
	if c.now().Sub(e.insertedAt) > c.ttl {
		c.remove(el)
		return zero, false
	}
	return e.value, true
}

// Put stores value under key, replacing any previous entry. If the capacity
// is exceeded the oldest-inserted entry is evicted.
func (c *Cache[V]) Put(key string, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if el, ok := c.entries[key]; ok {
		c.remove(el)
	}
	el := c.order.PushBack(&entry[V]{key: key, value: value, insertedAt: c.now()})
	c.entries[key] = el

	for c.order.Len() > c.capacity {
		c.remove(c.order.Front())
	}
}

// Delete removes key from the cache if present.
func (c *Cache[V]) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if el, ok := c.entries[key]; ok {
		c.remove(el)
	}
}

// Sweep removes all expired entries and returns how many were dropped.
// Expired entries are also dropped lazily on Get; Sweep exists so a
// background job can keep the table small between lookups.
func (c *Cache[V]) Sweep() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	dropped := 0
	now := c.now()
	for el := c.order.Front(); el != nil; {
		next := el.Next()
		if now.Sub(el.Value.(*entry[V]).insertedAt) > c.ttl {
			c.remove(el)
			dropped++
		}
		el = next
	}
	return dropped
}

// Len returns the number of entries currently held, including any that have
// expired but not yet been swept.
func (c *Cache[V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order.Len()
}

func (c *Cache[V]) remove(el *list.Element) {
	delete(c.entries, el.Value.(*entry[V]).key)
	c.order.Remove(el)
}
