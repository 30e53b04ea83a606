package fetch

import (
	"context"
	"sync"
	"time"

	"github.com/pfrederiksen/espn-tables/internal/logger"
)

// Cache is a Fetcher that remembers page bodies by URL for a TTL. Failed
// fetches are not cached. Safe for concurrent use.
type Cache struct {
	next Fetcher
	ttl  time.Duration
	now  func() time.Time

	mu       sync.Mutex
	pages    map[string]string
	cachedAt map[string]time.Time
}

// NewCache wraps next with a cache whose entries live for ttl.
func NewCache(next Fetcher, ttl time.Duration) *Cache {
	return &Cache{
		next:     next,
		ttl:      ttl,
		now:      time.Now,
		pages:    make(map[string]string),
		cachedAt: make(map[string]time.Time),
	}
}

// Fetch returns the cached body for url or fetches and stores it.
func (c *Cache) Fetch(ctx context.Context, url string) (string, error) {
	if body, ok := c.get(url); ok {
		logger.IncrCounter("cache.hit")
		return body, nil
	}
	logger.IncrCounter("cache.miss")

	body, err := c.next.Fetch(ctx, url)
	if err != nil {
		return "", err
	}
	c.mu.Lock()
	c.pages[url] = body
	c.cachedAt[url] = c.now()
	c.mu.Unlock()
	return body, nil
}

func (c *Cache) get(url string) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	body, ok := c.pages[url]
	if !ok {
		return "", false
	}
	if c.now().Sub(c.cachedAt[url]) > c.ttl {
		delete(c.pages, url)
		delete(c.cachedAt, url)
		return "", false
	}
	return body, true
}

// CleanExpired removes expired entries and returns how many were removed.
func (c *Cache) CleanExpired() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	removed := 0
	now := c.now()
	for url, at := range c.cachedAt {
		if now.Sub(at) > c.ttl {
			delete(c.pages, url)
			delete(c.cachedAt, url)
			removed++
		}
	}
	return removed
}

// Size returns the number of cached pages.
func (c *Cache) Size() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.pages)
}
