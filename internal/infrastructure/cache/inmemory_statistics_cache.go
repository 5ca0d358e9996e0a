package cache

import (
	"context"
	"sync"
	"time"

	"github.com/invoicing/backend/internal/domain/invoice"
)

// InMemoryStatisticsCache keeps invoice statistics in process memory.
// It does not share state between instances, so with more than one
// replica an edit on one replica leaves the others stale until the TTL.
type InMemoryStatisticsCache struct {
	mu         sync.RWMutex
	entry      *statisticsEntry
	generation int64
	expiresAt  time.Time
	ttl       time.Duration
	now       func() time.Time
}

// NewInMemoryStatisticsCache creates an in-memory cache with ttl
func NewInMemoryStatisticsCache(ttl time.Duration) *InMemoryStatisticsCache {
	if ttl <= 0 {
		ttl = DefaultStatisticsTTL
	}
	return &InMemoryStatisticsCache{
		ttl: ttl,
		now: time.Now,
	}
}

// GetInvoiceStatistics returns the cached statistics for year
func (c *InMemoryStatisticsCache) GetInvoiceStatistics(_ context.Context, year int) (*invoice.Statistics, bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.entry == nil || c.entry.Year != year || !c.now().Before(c.expiresAt) {
		return nil, false, nil
	}
	return c.entry.statistics(), true, nil
}

// InvoiceStatisticsGeneration returns the number of invalidations so far
func (c *InMemoryStatisticsCache) InvoiceStatisticsGeneration(context.Context) (int64, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.generation, nil
}

// SetInvoiceStatistics caches stats for year unless an invalidation
// happened after generation was read
func (c *InMemoryStatisticsCache) SetInvoiceStatistics(_ context.Context, year int, generation int64, stats *invoice.Statistics) error {
	entry := newStatisticsEntry(year, stats)

	c.mu.Lock()
	defer c.mu.Unlock()
	if generation != c.generation {
		return nil
	}
	c.entry = &entry
	c.expiresAt = c.now().Add(c.ttl)
	return nil
}

// InvalidateInvoiceStatistics drops the cached entry and bumps the generation
func (c *InMemoryStatisticsCache) InvalidateInvoiceStatistics(_ context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entry = nil
	c.generation++
	return nil
}
