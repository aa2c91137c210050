package service

import (
	"context"
	"errors"
	"fmt"

	"maitred/internal/database"
	"maitred/internal/domain"
	"maitred/internal/models"
	"maitred/internal/schedule"

	"github.com/rs/zerolog"
)

// SettingsService owns the capacity policy singleton: a read-through cache in
// front of the store, with writes invalidating the cached copy.
type SettingsService struct {
	store  domain.SettingsStore
	cache  domain.SettingsCache
	logger *zerolog.Logger
}

func NewSettingsService(store domain.SettingsStore, cache domain.SettingsCache, logger *zerolog.Logger) *SettingsService {
	return &SettingsService{store: store, cache: cache, logger: logger}
}

// GetOrCreateDefaults returns the current policy, seeding the defaults on
// first use. Cache misses and cache errors both fall through to the store.
func (s *SettingsService) GetOrCreateDefaults(ctx context.Context) (*models.CapacitySettings, error) {
	if s.cache != nil {
		if cached, err := s.cache.Get(ctx); err == nil && cached != nil {
			return cached, nil
		}
	}

	settings, err := s.store.GetSettings(ctx)
	if errors.Is(err, database.ErrNotFound) {
		settings = models.DefaultCapacitySettings()
		if insErr := s.store.InsertSettings(ctx, settings); insErr != nil {
			// Lost the seed race to another instance; re-read theirs.
			settings, err = s.store.GetSettings(ctx)
			if err != nil {
				return nil, err
			}
		} else {
			s.logger.Info().Msg("seeded default capacity settings")
		}
	} else if err != nil {
		return nil, err
	}

	s.cacheSet(ctx, settings)
	return settings, nil
}

// Update replaces the whole policy after validating it.
func (s *SettingsService) Update(ctx context.Context, settings *models.CapacitySettings) error {
	if err := validateSettings(settings); err != nil {
		return err
	}
	if err := s.save(ctx, settings); err != nil {
		return err
	}
	s.logger.Info().Int("max_capacity", settings.MaxCapacity).
		Int("dining_duration", settings.DiningDuration).Msg("capacity settings updated")
	return nil
}

func validateSettings(settings *models.CapacitySettings) error {
	if settings.MaxCapacity <= 0 {
		return fmt.Errorf("max capacity must be positive")
	}
	if settings.DiningDuration <= 0 {
		return fmt.Errorf("dining duration must be positive")
	}
	for key, capacity := range settings.SlotCapacityOverrides {
		if capacity < 0 {
			return fmt.Errorf("slot override %q must not be negative", key)
		}
	}
	return nil
}

// BlockDate zeroes out a whole day. Idempotent.
func (s *SettingsService) BlockDate(ctx context.Context, date string) (*models.CapacitySettings, error) {
	if _, err := schedule.ParseDate(date); err != nil {
		return nil, err
	}
	return s.mutate(ctx, func(settings *models.CapacitySettings) {
		if !settings.IsDateBlocked(date) {
			settings.BlockedDates = append(settings.BlockedDates, date)
		}
	})
}

func (s *SettingsService) UnblockDate(ctx context.Context, date string) (*models.CapacitySettings, error) {
	return s.mutate(ctx, func(settings *models.CapacitySettings) {
		kept := settings.BlockedDates[:0]
		for _, d := range settings.BlockedDates {
			if d != date {
				kept = append(kept, d)
			}
		}
		settings.BlockedDates = kept
	})
}

// BlockSlot zeroes out one start time on one date. Idempotent.
func (s *SettingsService) BlockSlot(ctx context.Context, date, clock string) (*models.CapacitySettings, error) {
	if _, err := schedule.ParseDate(date); err != nil {
		return nil, err
	}
	if _, err := schedule.ParseClock(clock); err != nil {
		return nil, err
	}
	return s.mutate(ctx, func(settings *models.CapacitySettings) {
		if settings.IsSlotBlocked(date, clock) {
			return
		}
		if settings.BlockedSlots == nil {
			settings.BlockedSlots = map[string][]string{}
		}
		settings.BlockedSlots[date] = append(settings.BlockedSlots[date], clock)
	})
}

func (s *SettingsService) UnblockSlot(ctx context.Context, date, clock string) (*models.CapacitySettings, error) {
	return s.mutate(ctx, func(settings *models.CapacitySettings) {
		kept := settings.BlockedSlots[date][:0]
		for _, t := range settings.BlockedSlots[date] {
			if t != clock {
				kept = append(kept, t)
			}
		}
		if len(kept) == 0 {
			delete(settings.BlockedSlots, date)
		} else {
			settings.BlockedSlots[date] = kept
		}
	})
}

// SetSlotOverride pins one slot's capacity. A negative capacity clears the
// override back to the global default.
func (s *SettingsService) SetSlotOverride(ctx context.Context, date, clock string, capacity int) (*models.CapacitySettings, error) {
	if _, err := schedule.ParseDate(date); err != nil {
		return nil, err
	}
	if _, err := schedule.ParseClock(clock); err != nil {
		return nil, err
	}
	return s.mutate(ctx, func(settings *models.CapacitySettings) {
		key := models.SlotKey(date, clock)
		if capacity < 0 {
			delete(settings.SlotCapacityOverrides, key)
			return
		}
		if settings.SlotCapacityOverrides == nil {
			settings.SlotCapacityOverrides = map[string]int{}
		}
		settings.SlotCapacityOverrides[key] = capacity
	})
}

func (s *SettingsService) mutate(ctx context.Context, apply func(*models.CapacitySettings)) (*models.CapacitySettings, error) {
	current, err := s.GetOrCreateDefaults(ctx)
	if err != nil {
		return nil, err
	}

	// Work on a copy; readers keep seeing the last persisted policy until the
	// store accepts the change.
	settings := current.Clone()
	apply(settings)
	if err := s.save(ctx, settings); err != nil {
		return nil, err
	}
	return settings, nil
}

func (s *SettingsService) save(ctx context.Context, settings *models.CapacitySettings) error {
	err := s.store.SaveSettings(ctx, settings)
	// Drop the cached copy on failure too: a lost version race means the
	// cache is behind the store.
	s.dropCache(ctx)
	return err
}

func (s *SettingsService) dropCache(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx); err != nil {
		s.logger.Warn().Err(err).Msg("settings cache invalidation failed")
	}
}

func (s *SettingsService) cacheSet(ctx context.Context, settings *models.CapacitySettings) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Set(ctx, settings); err != nil {
		s.logger.Warn().Err(err).Msg("settings cache set failed")
	}
}
