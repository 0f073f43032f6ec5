package usecase

import (
	"strings"
	"sync"
	"time"

	"pharmadash/internal/modules/datamanager/domain"
)

const cacheDelimiter = ":"

// MemoryListingCache is the in-process listing cache. Entries older than the TTL read as
// misses; a zero TTL keeps entries until they are invalidated.
type MemoryListingCache struct {
	mu      sync.RWMutex
	ttl     time.Duration
	now     func() time.Time
	entries map[string]map[string]*listingCacheEntry
}

type listingCacheEntry struct {
	scope     string
	key       string
	query     domain.ListingQuery
	listing   *domain.Listing
	fetchedAt time.Time
}

func NewMemoryListingCache(ttl time.Duration) *MemoryListingCache {
	if ttl < 0 {
		ttl = 0
	}
	return &MemoryListingCache{
		ttl:     ttl,
		now:     func() time.Time { return time.Now().UTC() },
		entries: make(map[string]map[string]*listingCacheEntry),
	}
}

func (c *MemoryListingCache) Set(scope string, query domain.ListingQuery, listing *domain.Listing) {
	if listing == nil {
		return
	}
	normalized := query.Normalize()
	endpoint := cacheEndpoint(normalized.Endpoint)
	if endpoint == "" {
		return
	}
	key := cacheEntryKey(scope, normalized)

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.entries[endpoint] == nil {
		c.entries[endpoint] = make(map[string]*listingCacheEntry)
	}
	c.pruneLocked(endpoint)
	c.entries[endpoint][key] = &listingCacheEntry{
		scope:     strings.TrimSpace(scope),
		key:       key,
		query:     normalized,
		listing:   listing.Clone(),
		fetchedAt: c.now(),
	}
}

func (c *MemoryListingCache) Get(scope string, query domain.ListingQuery) (*domain.Listing, bool) {
	normalized := query.Normalize()
	key := cacheEntryKey(scope, normalized)

	endpoint := cacheEndpoint(normalized.Endpoint)

	c.mu.RLock()
	entry, ok := c.entries[endpoint][key]
	if ok && !c.expired(entry) {
		listing := entry.listing.Clone()
		c.mu.RUnlock()
		return listing, true
	}
	c.mu.RUnlock()
	if ok {
		c.mu.Lock()
		if current, exists := c.entries[endpoint][key]; exists && c.expired(current) {
			c.removeLocked(endpoint, key)
		}
		c.mu.Unlock()
	}
	return nil, false
}

func (c *MemoryListingCache) Invalidate(endpoint string) int {
	endpoint = cacheEndpoint(endpoint)
	c.mu.Lock()
	defer c.mu.Unlock()
	removed := len(c.entries[endpoint])
	delete(c.entries, endpoint)
	return removed
}

// Endpoints lists the endpoints that currently hold at least one entry.
func (c *MemoryListingCache) Endpoints() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	results := make([]string, 0, len(c.entries))
	for endpoint, bucket := range c.entries {
		if len(bucket) == 0 {
			continue
		}
		results = append(results, endpoint)
	}
	return results
}

// pruneLocked drops the expired entries of endpoint.
func (c *MemoryListingCache) pruneLocked(endpoint string) {
	if c.ttl == 0 {
		return
	}
	for key, entry := range c.entries[endpoint] {
		if c.expired(entry) {
			delete(c.entries[endpoint], key)
		}
	}
}

func (c *MemoryListingCache) removeLocked(endpoint, key string) {
	bucket := c.entries[endpoint]
	delete(bucket, key)
	if len(bucket) == 0 {
		delete(c.entries, endpoint)
	}
}

func (c *MemoryListingCache) expired(entry *listingCacheEntry) bool {
	if c.ttl == 0 {
		return false
	}
	return c.now().Sub(entry.fetchedAt) > c.ttl
}

func cacheEndpoint(endpoint string) string {
	return strings.ToLower(strings.Trim(strings.TrimSpace(endpoint), "/"))
}

func cacheEntryKey(scope string, query domain.ListingQuery) string {
	return strings.ToLower(strings.TrimSpace(scope)) + cacheDelimiter + query.CanonicalKey()
}
