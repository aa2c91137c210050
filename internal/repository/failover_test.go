package repository

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"maitred/internal/models"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type mockCache struct {
	mock.Mock
}

func (m *mockCache) Get(ctx context.Context) (*models.CapacitySettings, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.CapacitySettings), args.Error(1)
}

func (m *mockCache) Set(ctx context.Context, settings *models.CapacitySettings) error {
	return m.Called(ctx, settings).Error(0)
}

func (m *mockCache) Invalidate(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func TestFailoverSettingsCache(t *testing.T) {
	primary := new(mockCache)
	fallback := new(mockCache)
	logger := zerolog.New(io.Discard)
	cache := NewFailoverSettingsCache(primary, fallback, &logger)
	ctx := context.Background()

	settings := models.DefaultCapacitySettings()

	t.Run("PrimarySuccess", func(t *testing.T) {
		primary.On("Get", ctx).Return(settings, nil).Once()

		got, err := cache.Get(ctx)
		assert.NoError(t, err)
		assert.Equal(t, settings, got)
		primary.AssertExpectations(t)
	})

	t.Run("PrimaryFailFallbackSuccess", func(t *testing.T) {
		primary.On("Get", ctx).Return(nil, errors.New("fail")).Once()
		fallback.On("Get", ctx).Return(settings, nil).Once()

		got, err := cache.Get(ctx)
		assert.NoError(t, err)
		assert.Equal(t, settings, got)
		assert.True(t, cache.isDown.Load())
		primary.AssertExpectations(t)
		fallback.AssertExpectations(t)
	})

	t.Run("RecoveryAttempt", func(t *testing.T) {
		cache.isDown.Store(true)
		cache.lastCheck = time.Now().Add(-2 * time.Minute)

		primary.On("Get", ctx).Return(settings, nil).Once()

		got, err := cache.Get(ctx)
		assert.NoError(t, err)
		assert.Equal(t, settings, got)
		assert.False(t, cache.isDown.Load())
		primary.AssertExpectations(t)
	})

	t.Run("RecoveryAttemptFail", func(t *testing.T) {
		cache.isDown.Store(true)
		cache.lastCheck = time.Now().Add(-2 * time.Minute)

		primary.On("Get", ctx).Return(nil, errors.New("still fail")).Once()
		fallback.On("Get", ctx).Return(nil, nil).Once()

		_, err := cache.Get(ctx)
		assert.NoError(t, err)
		assert.True(t, cache.isDown.Load())
		primary.AssertExpectations(t)
		fallback.AssertExpectations(t)
	})

	t.Run("SetMirrorsToFallback", func(t *testing.T) {
		cache.isDown.Store(false)
		primary.On("Set", ctx, settings).Return(nil).Once()
		fallback.On("Set", ctx, settings).Return(nil).Once()

		err := cache.Set(ctx, settings)
		assert.NoError(t, err)
		primary.AssertExpectations(t)
		fallback.AssertExpectations(t)
	})

	t.Run("SetFailover", func(t *testing.T) {
		cache.isDown.Store(false)
		primary.On("Set", ctx, settings).Return(errors.New("fail")).Once()
		fallback.On("Set", ctx, settings).Return(nil).Once()

		err := cache.Set(ctx, settings)
		assert.NoError(t, err)
		assert.True(t, cache.isDown.Load())
		primary.AssertExpectations(t)
		fallback.AssertExpectations(t)
	})

	t.Run("SetAlreadyDown", func(t *testing.T) {
		cache.isDown.Store(true)
		fallback.On("Set", ctx, settings).Return(nil).Once()

		err := cache.Set(ctx, settings)
		assert.NoError(t, err)
		fallback.AssertExpectations(t)
	})

	t.Run("InvalidateBothSides", func(t *testing.T) {
		cache.isDown.Store(false)
		primary.On("Invalidate", ctx).Return(nil).Once()
		fallback.On("Invalidate", ctx).Return(nil).Once()

		err := cache.Invalidate(ctx)
		assert.NoError(t, err)
		primary.AssertExpectations(t)
		fallback.AssertExpectations(t)
	})

	t.Run("InvalidatePrimaryFailStillClearsFallback", func(t *testing.T) {
		cache.isDown.Store(false)
		primary.On("Invalidate", ctx).Return(errors.New("fail")).Once()
		fallback.On("Invalidate", ctx).Return(nil).Once()

		err := cache.Invalidate(ctx)
		assert.Error(t, err)
		assert.True(t, cache.isDown.Load())
		primary.AssertExpectations(t)
		fallback.AssertExpectations(t)
	})

	t.Run("InvalidateAlreadyDown", func(t *testing.T) {
		cache.isDown.Store(true)
		fallback.On("Invalidate", ctx).Return(nil).Once()

		err := cache.Invalidate(ctx)
		assert.NoError(t, err)
		fallback.AssertExpectations(t)
	})
}
