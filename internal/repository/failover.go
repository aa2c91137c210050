package repository

import (
	"context"
	"sync/atomic"
	"time"

	"maitred/internal/domain"
	"maitred/internal/models"

	"github.com/rs/zerolog"
)

// FailoverSettingsCache wraps a Redis cache with an in-memory fallback. After
// a primary failure it stays on the fallback and probes the primary again
// once a minute.
type FailoverSettingsCache struct {
	primary   domain.SettingsCache
	fallback  domain.SettingsCache
	logger    *zerolog.Logger
	isDown    atomic.Bool
	lastCheck time.Time
}

func NewFailoverSettingsCache(primary, fallback domain.SettingsCache, logger *zerolog.Logger) *FailoverSettingsCache {
	return &FailoverSettingsCache{
		primary:  primary,
		fallback: fallback,
		logger:   logger,
	}
}

func (c *FailoverSettingsCache) Get(ctx context.Context) (*models.CapacitySettings, error) {
	if !c.isDown.Load() {
		settings, err := c.primary.Get(ctx)
		if err == nil {
			return settings, nil
		}
		c.logger.Error().Err(err).Msg("Primary settings cache failed, falling back to memory")
		c.isDown.Store(true)
		c.lastCheck = time.Now()
	}

	// Try to recover after 1 minute
	if c.isDown.Load() && time.Since(c.lastCheck) > time.Minute {
		settings, err := c.primary.Get(ctx)
		if err == nil {
			c.isDown.Store(false)
			return settings, nil
		}
		c.lastCheck = time.Now()
	}

	return c.fallback.Get(ctx)
}

func (c *FailoverSettingsCache) Set(ctx context.Context, settings *models.CapacitySettings) error {
	if !c.isDown.Load() {
		err := c.primary.Set(ctx, settings)
		if err == nil {
			// Mirror into the fallback so a later failover still has data.
			_ = c.fallback.Set(ctx, settings)
			return nil
		}
		c.logger.Error().Err(err).Msg("Primary settings cache failed, falling back to memory")
		c.isDown.Store(true)
		c.lastCheck = time.Now()
	}

	return c.fallback.Set(ctx, settings)
}

func (c *FailoverSettingsCache) Invalidate(ctx context.Context) error {
	// Both sides drop the entry; a half-invalidated pair would serve stale
	// policy after recovery.
	var primaryErr error
	if !c.isDown.Load() {
		primaryErr = c.primary.Invalidate(ctx)
		if primaryErr != nil {
			c.logger.Error().Err(primaryErr).Msg("Primary settings cache failed, falling back to memory")
			c.isDown.Store(true)
			c.lastCheck = time.Now()
		}
	}

	if err := c.fallback.Invalidate(ctx); err != nil {
		return err
	}
	return primaryErr
}
