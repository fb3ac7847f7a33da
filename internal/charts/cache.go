package charts

import (
	"sync"
	"time"
)

// RenderCache memoizes rendered chart markup for a TTL. Rendering a chart
// serializes the full option tree, which is wasteful to repeat while the
// underlying grid has not moved.
type RenderCache struct {
	ttl     time.Duration
	mu      sync.RWMutex
	entries map[string]renderEntry
}

type renderEntry struct {
	html    string
	expires time.Time
}

// NewRenderCache builds a cache with the provided TTL. A zero or negative
// TTL disables caching entirely.
func NewRenderCache(ttl time.Duration) *RenderCache {
	return &RenderCache{
		ttl:     ttl,
		entries: make(map[string]renderEntry),
	}
}

// GetOrRender returns a cached entry or renders and stores a new one.
func (c *RenderCache) GetOrRender(key string, render func() (string, error)) (string, error) {
	if html, ok := c.get(key); ok {
		return html, nil
	}
	html, err := render()
	if err != nil {
		return "", err
	}
	c.set(key, html)
	return html, nil
}

func (c *RenderCache) get(key string) (string, bool) {
	if c == nil || c.ttl <= 0 {
		return "", false
	}
	c.mu.RLock()
	entry, ok := c.entries[key]
	c.mu.RUnlock()
	if !ok || time.Now().After(entry.expires) {
		if ok {
			c.mu.Lock()
			delete(c.entries, key)
			c.mu.Unlock()
		}
		return "", false
	}
	return entry.html, true
}

func (c *RenderCache) set(key, html string) {
	if c == nil || c.ttl <= 0 {
		return
	}
	c.mu.Lock()
	c.entries[key] = renderEntry{html: html, expires: time.Now().Add(c.ttl)}
	c.mu.Unlock()
}
