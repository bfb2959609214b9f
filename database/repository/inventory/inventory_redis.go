package inventoryRepo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"stayloom/models"
)

// ErrNotFound is returned on a cache miss.
var ErrNotFound = errors.New("inventory entry not found")

// InventoryStore persists availability cache entries keyed by
// (property, room type, check-in, check-out).
type InventoryStore interface {
	Get(ctx context.Context, key string) (*models.InventoryCacheEntry, error)
	Put(ctx context.Context, key string, entry *models.InventoryCacheEntry, retention time.Duration) error
	Delete(ctx context.Context, key string) error
}

const inventoryKeyPrefix = "inventory:"

// RedisInventoryStore is the Redis implementation of InventoryStore.
// Entries are retained past their freshness TTL so stale data can still be
// served while the circuit breaker is open; freshness is judged from the
// entry's CachedAt, not from key expiry.
type RedisInventoryStore struct {
	client *redis.Client
}

// NewRedisInventoryStore wraps the given Redis client.
func NewRedisInventoryStore(client *redis.Client) *RedisInventoryStore {
	return &RedisInventoryStore{client: client}
}

func (s *RedisInventoryStore) Get(ctx context.Context, key string) (*models.InventoryCacheEntry, error) {
	data, err := s.client.Get(ctx, inventoryKeyPrefix+key).Result()
	if err == redis.Nil {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch inventory entry %s: %w", key, err)
	}
	var entry models.InventoryCacheEntry
	if err := json.Unmarshal([]byte(data), &entry); err != nil {
		return nil, fmt.Errorf("failed to parse inventory entry %s: %w", key, err)
	}
	return &entry, nil
}

func (s *RedisInventoryStore) Put(ctx context.Context, key string, entry *models.InventoryCacheEntry, retention time.Duration) error {
	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to marshal inventory entry %s: %w", key, err)
	}
	if err := s.client.Set(ctx, inventoryKeyPrefix+key, data, retention).Err(); err != nil {
		return fmt.Errorf("failed to store inventory entry %s: %w", key, err)
	}
	return nil
}

func (s *RedisInventoryStore) Delete(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, inventoryKeyPrefix+key).Err(); err != nil {
		return fmt.Errorf("failed to delete inventory entry %s: %w", key, err)
	}
	return nil
}
