// Package cache provides the process-local TTL cache used for chat
// transcripts, talent analyses, and user sessions.
//
// The cache is a single-process, in-memory store. There is no persistence
// across restarts and no cross-process sharing; deployments that need
// multi-instance consistency must replace this with a shared store, which is
// an explicit non-goal here.
package cache

import (
	"strings"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/talentdesk/talentchat/internal/log"
)

// Cache is a key/value store with per-entry expiry.
//
// Expired entries are removed by a full sweep at the start of every Set, Get,
// and Clear call rather than by a background janitor, so a Get never observes
// an entry whose deadline has passed. With at most thousands of entries the
// sweep cost is negligible.
//
// Cache is safe for concurrent use by multiple goroutines.
type Cache struct {
	store  *gocache.Cache
	logger log.Logger
}

// New creates an empty cache. logger may be nil.
func New(logger log.Logger) *Cache {
	if logger == nil {
		logger = log.NewNop()
	}
	// Cleanup interval 0 disables go-cache's janitor goroutine; expiry is
	// enforced by the explicit sweeps below.
	return &Cache{
		store:  gocache.New(gocache.NoExpiration, 0),
		logger: logger,
	}
}

// Set stores data under key, unconditionally overwriting any existing entry.
// The entry expires ttl from now.
func (c *Cache) Set(key string, data any, ttl time.Duration) {
	c.store.DeleteExpired()
	c.store.Set(key, data, ttl)
}

// Get returns the value stored under key. The second return value is false
// both for keys that were never set and for keys whose entry has expired;
// callers cannot (and must not) distinguish the two.
func (c *Cache) Get(key string) (any, bool) {
	c.store.DeleteExpired()
	return c.store.Get(key)
}

// Delete removes a single key. Removing an absent key is not an error.
func (c *Cache) Delete(key string) {
	c.store.Delete(key)
}

// Clear deletes every key whose string form contains pattern as a substring.
// A single trailing "*" is stripped first; this is a substring match, not a
// glob engine. Deleting zero matches is not an error.
func (c *Cache) Clear(pattern string) {
	pattern = strings.TrimSuffix(pattern, "*")
	c.store.DeleteExpired()

	deleted := 0
	for key := range c.store.Items() {
		if strings.Contains(key, pattern) {
			c.store.Delete(key)
			deleted++
		}
	}
	if deleted > 0 {
		c.logger.Debug("cleared cache entries", "pattern", pattern, "count", deleted)
	}
}

// Len returns the number of live (unexpired) entries.
func (c *Cache) Len() int {
	c.store.DeleteExpired()
	return c.store.ItemCount()
}
