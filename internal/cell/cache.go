package cell

import (
	"sync"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// Cache is a memoizing result cache shared by all in-flight actions.
//
// Reads and plain writes go straight to the underlying store, which is
// itself goroutine-safe. Memoize additionally serializes compute-then-store
// sections under a single mutex so that a value is computed at most once
// per key even when several workers ask for it concurrently.
type Cache struct {
	mu    sync.Mutex
	store *gocache.Cache
}

// NewCache creates a Cache whose entries live for ttl. A ttl <= 0 means
// entries never expire.
func NewCache(ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = gocache.NoExpiration
	}
	return &Cache{
		store: gocache.New(ttl, 10*time.Minute),
	}
}

// Get returns the cached value for key, if present and not expired.
func (c *Cache) Get(key string) (any, bool) {
	return c.store.Get(key)
}

// Put stores val under key with the cache's default expiration.
func (c *Cache) Put(key string, val any) {
	c.store.Set(key, val, gocache.DefaultExpiration)
}

// Delete removes key from the cache.
func (c *Cache) Delete(key string) {
	c.store.Delete(key)
}

// Memoize returns the cached value for key, computing and storing it via
// compute if absent. The check-compute-store sequence runs as one critical
// section: concurrent callers for the same cache observe exactly one
// compute invocation per key. A compute error is returned to the caller
// and nothing is stored.
func (c *Cache) Memoize(key string, compute func() (any, error)) (any, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if val, ok := c.store.Get(key); ok {
		return val, nil
	}

	val, err := compute()
	if err != nil {
		return nil, err
	}

	c.store.Set(key, val, gocache.DefaultExpiration)
	return val, nil
}

// Len returns the number of live entries.
func (c *Cache) Len() int {
	return c.store.ItemCount()
}
