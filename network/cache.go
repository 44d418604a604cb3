package network

import (
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"
)

// DefaultCacheTTL is how long entries without explicit freshness live.
const DefaultCacheTTL = 5 * time.Minute

// CacheEntry is a cached resource with its freshness lifetime.
type CacheEntry struct {
	Resource *Resource
	CachedAt time.Time
	// Expires is zero for entries that never expire (data: and local files).
	Expires time.Time
}

// IsExpired reports whether the entry is stale at now.
func (e *CacheEntry) IsExpired(now time.Time) bool {
	return !e.Expires.IsZero() && !now.Before(e.Expires)
}

// Cache is an in-memory resource cache keyed by resolved URL. When full, the
// oldest entry is evicted.
type Cache struct {
	entries map[string]*CacheEntry
	maxSize int
	now     func() time.Time
	mu      sync.RWMutex
}

// NewCache creates a cache holding at most maxSize entries.
func NewCache(maxSize int) *Cache {
	if maxSize <= 0 {
		maxSize = 256
	}
	return &Cache{
		entries: make(map[string]*CacheEntry),
		maxSize: maxSize,
		now:     time.Now,
	}
}

// Get returns the fresh entry for url. Expired entries are dropped.
func (c *Cache) Get(url string) (*Resource, bool) {
	c.mu.RLock()
	entry, ok := c.entries[url]
	c.mu.RUnlock()
	if !ok {
		return nil, false
	}
	if entry.IsExpired(c.now()) {
		c.Delete(url)
		return nil, false
	}
	return entry.Resource, true
}

// Set stores res under url. HTTP headers, when given, control freshness:
// no-store skips caching and max-age or Expires set the lifetime. A nil
// header caches the resource without expiry.
func (c *Cache) Set(url string, res *Resource, headers http.Header) {
	now := c.now()
	entry := &CacheEntry{Resource: res, CachedAt: now}

	if headers != nil {
		directives := parseCacheControl(headers.Get("Cache-Control"))
		if _, ok := directives["no-store"]; ok {
			return
		}
		switch {
		case directives["max-age"] != "":
			secs, err := strconv.Atoi(directives["max-age"])
			if err != nil || secs <= 0 {
				return
			}
			entry.Expires = now.Add(time.Duration(secs) * time.Second)
		case headers.Get("Expires") != "":
			t, err := http.ParseTime(headers.Get("Expires"))
			if err != nil || !t.After(now) {
				return
			}
			entry.Expires = t
		default:
			entry.Expires = now.Add(DefaultCacheTTL)
		}
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if _, exists := c.entries[url]; !exists && len(c.entries) >= c.maxSize {
		c.evictOldest()
	}
	c.entries[url] = entry
}

// Delete removes url from the cache.
func (c *Cache) Delete(url string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, url)
}

// Size returns the number of entries.
func (c *Cache) Size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Must be called with c.mu held.
func (c *Cache) evictOldest() {
	var oldestURL string
	var oldest time.Time
	for url, entry := range c.entries {
		if oldestURL == "" || entry.CachedAt.Before(oldest) {
			oldestURL, oldest = url, entry.CachedAt
		}
	}
	if oldestURL != "" {
		delete(c.entries, oldestURL)
	}
}

// parseCacheControl maps each Cache-Control directive to its value, or to
// "" for directives without one.
func parseCacheControl(value string) map[string]string {
	directives := make(map[string]string)
	for _, d := range strings.Split(value, ",") {
		d = strings.TrimSpace(d)
		if d == "" {
			continue
		}
		name, val, _ := strings.Cut(d, "=")
		directives[strings.ToLower(strings.TrimSpace(name))] = strings.Trim(strings.TrimSpace(val), `"`)
	}
	return directives
}
