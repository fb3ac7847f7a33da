// Package cache holds the explicit cross-tab cache. It is passed by
// reference to every reader of company metrics, and every write path must
// invalidate the company it touched.
package cache

import (
	"sync"
	"time"

	"github.com/ridgelinevc/portfolio-backend/internal/metrics"
)

type crossTabEntry struct {
	ct      *metrics.CrossTab
	builtAt time.Time
}

// CrossTabCache memoizes built cross-tabs per company and variant. The
// variant distinguishes filtered builds of the same company, e.g. one per
// period type. Entries expire after the TTL as a safety net; the primary
// freshness mechanism is explicit invalidation on write, which always drops
// every variant of the company.
type CrossTabCache struct {
	mu      sync.RWMutex
	ttl     time.Duration
	entries map[string]map[string]crossTabEntry

	now func() time.Time
}

// NewCrossTabCache builds the cache. A non-positive TTL disables expiry and
// leaves invalidation as the only freshness mechanism.
func NewCrossTabCache(ttl time.Duration) *CrossTabCache {
	return &CrossTabCache{
		ttl:     ttl,
		entries: make(map[string]map[string]crossTabEntry),
		now:     time.Now,
	}
}

func (c *CrossTabCache) Get(companyID, variant string) (*metrics.CrossTab, bool) {
	c.mu.RLock()
	entry, ok := c.entries[companyID][variant]
	c.mu.RUnlock()
	if !ok {
		return nil, false
	}
	if c.ttl > 0 && c.now().Sub(entry.builtAt) > c.ttl {
		c.Invalidate(companyID)
		return nil, false
	}
	return entry.ct, true
}

func (c *CrossTabCache) Set(companyID, variant string, ct *metrics.CrossTab) {
	c.mu.Lock()
	defer c.mu.Unlock()
	variants, ok := c.entries[companyID]
	if !ok {
		variants = make(map[string]crossTabEntry)
		c.entries[companyID] = variants
	}
	variants[variant] = crossTabEntry{ct: ct, builtAt: c.now()}
}

// Invalidate drops every cached variant of one company.
func (c *CrossTabCache) Invalidate(companyID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, companyID)
}

func (c *CrossTabCache) InvalidateAll() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]map[string]crossTabEntry)
}
