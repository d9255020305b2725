package arangorest

import (
	"sync"
	"time"
)

// CacheConfig configures an ETag response cache.
type CacheConfig struct {
	MaxEntries int           // Maximum cache entries (0 = unlimited)
	TTL        time.Duration // How long an entry may be revalidated
}

// DefaultCacheConfig returns the default cache configuration.
func DefaultCacheConfig() CacheConfig {
	return CacheConfig{
		MaxEntries: 1000,
		TTL:        5 * time.Minute,
	}
}

// Cache stores responses by key for revalidation with If-None-Match.
// A cached entry is never served without asking the server.
type Cache interface {
	Get(key string) (*Response, bool)
	Set(key string, resp *Response)
	Delete(key string)
	Clear()
}

// memoryCache is an in-memory Cache.
type memoryCache struct {
	mu         sync.Mutex
	entries    map[string]*cacheEntry
	maxEntries int
	ttl        time.Duration
	now        func() time.Time
}

type cacheEntry struct {
	response  *Response
	expiresAt time.Time
	storedAt  time.Time
}

// NewMemoryCache creates an in-memory cache.
func NewMemoryCache(config CacheConfig) Cache {
	return &memoryCache{
		entries:    make(map[string]*cacheEntry),
		maxEntries: config.MaxEntries,
		ttl:        config.TTL,
		now:        time.Now,
	}
}

// Get retrieves a cached response that has not expired.
func (c *memoryCache) Get(key string) (*Response, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	if c.ttl > 0 && c.now().After(entry.expiresAt) {
		delete(c.entries, key)
		return nil, false
	}
	return entry.response, true
}

// Set stores a response. Responses without an ETag are not cached.
func (c *memoryCache) Set(key string, resp *Response) {
	if resp == nil || resp.ETag() == "" {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.entries[key]; !exists && c.maxEntries > 0 && len(c.entries) >= c.maxEntries {
		c.evict()
	}

	now := c.now()
	c.entries[key] = &cacheEntry{
		response:  resp,
		expiresAt: now.Add(c.ttl),
		storedAt:  now,
	}
}

// Delete removes a cached response.
func (c *memoryCache) Delete(key string) {
	c.mu.Lock()
	delete(c.entries, key)
	c.mu.Unlock()
}

// Clear removes all cached responses.
func (c *memoryCache) Clear() {
	c.mu.Lock()
	c.entries = make(map[string]*cacheEntry)
	c.mu.Unlock()
}

// evict drops expired entries, or the oldest one if none expired.
// Must be called with lock held.
func (c *memoryCache) evict() {
	now := c.now()
	var oldestKey string
	var oldest time.Time
	removed := false
	for key, entry := range c.entries {
		if c.ttl > 0 && now.After(entry.expiresAt) {
			delete(c.entries, key)
			removed = true
			continue
		}
		if oldestKey == "" || entry.storedAt.Before(oldest) {
			oldestKey, oldest = key, entry.storedAt
		}
	}
	if !removed && oldestKey != "" {
		delete(c.entries, oldestKey)
	}
}

// noopCache is used when caching is disabled.
type noopCache struct{}

// NoCache returns a Cache that stores nothing.
func NoCache() Cache { return noopCache{} }

func (noopCache) Get(string) (*Response, bool) { return nil, false }
func (noopCache) Set(string, *Response)        {}
func (noopCache) Delete(string)                {}
func (noopCache) Clear()                       {}
