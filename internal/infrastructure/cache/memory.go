package cache

import (
	"context"
	"time"

	"progress-hub/internal/domain"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// DefaultTTL is how long a validated credential is trusted without asking
// Invidious again.
const DefaultTTL = 60 * time.Second

// MemoryCache is a bounded, thread-safe in-process auth cache with TTL.
// Implements domain.AuthCache.
type MemoryCache struct {
	entries *expirable.LRU[string, domain.Identity]
}

// NewMemoryCache creates an LRU cache holding at most size credentials,
// each for ttl.
func NewMemoryCache(size int, ttl time.Duration) *MemoryCache {
	return &MemoryCache{entries: expirable.NewLRU[string, domain.Identity](size, nil, ttl)}
}

// Get retrieves the identity cached for credential.
func (c *MemoryCache) Get(_ context.Context, credential string) (domain.Identity, bool, error) {
	id, found := c.entries.Get(credential)
	return id, found, nil
}

// Set caches identity for credential.
func (c *MemoryCache) Set(_ context.Context, credential string, id domain.Identity) error {
	c.entries.Add(credential, id)
	return nil
}

// Len reports the number of live entries.
func (c *MemoryCache) Len() int {
	return c.entries.Len()
}

// Close drops every entry.
func (c *MemoryCache) Close() error {
	c.entries.Purge()
	return nil
}
