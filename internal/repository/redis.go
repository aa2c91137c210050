package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"maitred/internal/config"
	"maitred/internal/models"

	"github.com/redis/go-redis/v9"
)

const settingsKey = "capacity_settings"

// RedisSettingsCache keeps the capacity policy in Redis so every API instance
// sees a settings write without hitting sqlite on each availability check.
type RedisSettingsCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisClient(cfg config.RedisConfig) *redis.Client {
	options := &redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,
		PoolSize: cfg.PoolSize,
	}

	return redis.NewClient(options)
}

func NewRedisSettingsCache(client *redis.Client, ttl time.Duration) *RedisSettingsCache {
	return &RedisSettingsCache{
		client: client,
		ttl:    ttl,
	}
}

func (r *RedisSettingsCache) Get(ctx context.Context) (*models.CapacitySettings, error) {
	if r.client == nil {
		return nil, fmt.Errorf("redis client is nil")
	}
	val, err := r.client.Get(ctx, settingsKey).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get settings from redis: %w", err)
	}

	var settings models.CapacitySettings
	if err := json.Unmarshal([]byte(val), &settings); err != nil {
		return nil, fmt.Errorf("failed to unmarshal settings: %w", err)
	}

	return &settings, nil
}

func (r *RedisSettingsCache) Set(ctx context.Context, settings *models.CapacitySettings) error {
	if r.client == nil {
		return fmt.Errorf("redis client is nil")
	}
	data, err := json.Marshal(settings)
	if err != nil {
		return fmt.Errorf("failed to marshal settings: %w", err)
	}

	if err := r.client.Set(ctx, settingsKey, data, r.ttl).Err(); err != nil {
		return fmt.Errorf("failed to set settings in redis: %w", err)
	}

	return nil
}

func (r *RedisSettingsCache) Invalidate(ctx context.Context) error {
	if r.client == nil {
		return fmt.Errorf("redis client is nil")
	}
	if err := r.client.Del(ctx, settingsKey).Err(); err != nil {
		return fmt.Errorf("failed to delete settings from redis: %w", err)
	}
	return nil
}

// Ping verifies the Redis connection at startup.
func Ping(ctx context.Context, client *redis.Client) error {
	_, err := client.Ping(ctx).Result()
	if err != nil {
		return fmt.Errorf("failed to ping Redis: %w", err)
	}
	return nil
}

func Close(client *redis.Client) error {
	if client != nil {
		return client.Close()
	}
	return nil
}
