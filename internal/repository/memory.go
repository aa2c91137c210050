package repository

import (
	"context"
	"sync"
	"time"

	"maitred/internal/models"
)

// MemorySettingsCache is the in-process fallback cache. A single entry with a
// TTL; expiry reads as a miss so callers fall through to the store.
type MemorySettingsCache struct {
	mu        sync.RWMutex
	settings  *models.CapacitySettings
	expiresAt time.Time
	ttl       time.Duration
}

func NewMemorySettingsCache(ttl time.Duration) *MemorySettingsCache {
	return &MemorySettingsCache{ttl: ttl}
}

func (c *MemorySettingsCache) Get(ctx context.Context) (*models.CapacitySettings, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.settings == nil || time.Now().After(c.expiresAt) {
		return nil, nil
	}
	// Hand out a copy: callers must not be able to mutate the cached entry.
	return c.settings.Clone(), nil
}

func (c *MemorySettingsCache) Set(ctx context.Context, settings *models.CapacitySettings) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.settings = settings.Clone()
	c.expiresAt = time.Now().Add(c.ttl)
	return nil
}

func (c *MemorySettingsCache) Invalidate(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.settings = nil
	return nil
}
