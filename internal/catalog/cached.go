package catalog

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/huulo/storefront/internal/domain"
)

var _ Lister = (*CachedLister)(nil)

type cacheEntry struct {
	products  []domain.Product
	expiresAt time.Time
}

// CachedLister wraps a Lister with an in-process TTL cache. Concurrent misses
// for the same category collapse into a single backend call via singleflight.
type CachedLister struct {
	lister Lister
	ttl    time.Duration
	sfg    singleflight.Group

	mu      sync.Mutex
	entries map[string]cacheEntry
}

func NewCachedLister(lister Lister, ttl time.Duration) *CachedLister {
	return &CachedLister{
		lister:  lister,
		ttl:     ttl,
		entries: make(map[string]cacheEntry),
	}
}

func (c *CachedLister) ListByCategory(ctx context.Context, category string) ([]domain.Product, error) {
	c.mu.Lock()
	entry, ok := c.entries[category]
	c.mu.Unlock()
	if ok && time.Now().Before(entry.expiresAt) {
		return entry.products, nil
	}

	v, err, _ := c.sfg.Do(category, func() (interface{}, error) {
		products, err := c.lister.ListByCategory(ctx, category)
		if err != nil {
			return nil, err
		}

		c.mu.Lock()
		c.entries[category] = cacheEntry{products: products, expiresAt: time.Now().Add(c.ttl)}
		c.mu.Unlock()

		return products, nil
	})
	if err != nil {
		return nil, err
	}

	return v.([]domain.Product), nil
}
