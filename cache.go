package safesql

import (
	"maps"
	"sync"
	"time"
)

// cacheEntry stores the rows returned for one statement.
type cacheEntry struct {
	rows      []Row
	expiresAt time.Time // zero means no expiry
}

// Cache stores read results keyed by the generated SQL text.
// It is safe for concurrent use from multiple goroutines.
//
// Only Select and Count consult the cache. A successful Insert, Update,
// Delete or Raw statement clears it, so readers never observe rows older than
// the last write made through the same Client.
type Cache interface {
	// Get returns the rows cached for sql. If found is false the entry
	// doesn't exist or is expired.
	Get(sql string) (rows []Row, found bool)

	// Set stores rows for sql.
	Set(sql string, rows []Row)

	// Clear drops every entry.
	Clear()
}

// CacheImpl is the default in-memory cache with optional TTL.
//
// Rows are copied on Set and on Get, so callers may modify what they
// receive.
type CacheImpl struct {
	mu    sync.RWMutex
	items map[string]cacheEntry
	ttl   time.Duration // 0 means no expiry
	now   func() time.Time
}

// CacheOption configures a Cache.
type CacheOption func(*CacheImpl)

// WithTTL sets the time-to-live for cache entries.
// A TTL of 0 (default) means entries live until the next write or Clear.
func WithTTL(ttl time.Duration) CacheOption {
	return func(c *CacheImpl) {
		c.ttl = ttl
	}
}

// NewCache creates a new read cache.
func NewCache(opts ...CacheOption) *CacheImpl {
	c := &CacheImpl{
		items: make(map[string]cacheEntry),
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get implements Cache.
func (c *CacheImpl) Get(sql string) ([]Row, bool) {
	c.mu.RLock()
	entry, ok := c.items[sql]
	c.mu.RUnlock()

	if !ok {
		return nil, false
	}

	if expired(entry, c.now()) {
		c.mu.Lock()
		// A concurrent Set may have refreshed the entry since RUnlock.
		if current, ok := c.items[sql]; ok && expired(current, c.now()) {
			delete(c.items, sql)
		}
		c.mu.Unlock()
		return nil, false
	}

	return cloneRows(entry.rows), true
}

func expired(e cacheEntry, now time.Time) bool {
	return !e.expiresAt.IsZero() && now.After(e.expiresAt)
}

func cloneRows(rows []Row) []Row {
	if rows == nil {
		return nil
	}
	out := make([]Row, len(rows))
	for i, r := range rows {
		out[i] = maps.Clone(r)
	}
	return out
}

// Set implements Cache.
func (c *CacheImpl) Set(sql string, rows []Row) {
	entry := cacheEntry{rows: cloneRows(rows)}
	if c.ttl > 0 {
		entry.expiresAt = c.now().Add(c.ttl)
	}

	c.mu.Lock()
	c.items[sql] = entry
	c.mu.Unlock()
}

// Size returns the number of entries in the cache.
func (c *CacheImpl) Size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}

// Clear implements Cache.
func (c *CacheImpl) Clear() {
	c.mu.Lock()
	c.items = make(map[string]cacheEntry)
	c.mu.Unlock()
}

// Ensure CacheImpl implements Cache.
var _ Cache = (*CacheImpl)(nil)
