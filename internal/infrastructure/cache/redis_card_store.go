package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/vitaguide/backend/internal/domain/integration"
)

const (
	defaultCardKeyPrefix = "catalog:card:"
	clearScanBatch       = 200
)

// RedisCardStore keeps product cards in Redis so several instances share one warm cache
type RedisCardStore struct {
	client    redis.UniversalClient
	keyPrefix string
}

// NewRedisCardStore creates a card store on an existing Redis client
func NewRedisCardStore(client redis.UniversalClient, keyPrefix string) *RedisCardStore {
	if keyPrefix == "" {
		keyPrefix = defaultCardKeyPrefix
	}
	return &RedisCardStore{
		client:    client,
		keyPrefix: keyPrefix,
	}
}

func (s *RedisCardStore) key(vendorID string) string {
	return s.keyPrefix + vendorID
}

// Get returns the stored card and its remaining TTL, or nil when absent
func (s *RedisCardStore) Get(ctx context.Context, vendorID string) (*integration.VendorProductCard, time.Duration, error) {
	key := s.key(vendorID)
	pipe := s.client.Pipeline()
	getCmd := pipe.Get(ctx, key)
	ttlCmd := pipe.PTTL(ctx, key)
	if _, err := pipe.Exec(ctx); err != nil && !errors.Is(err, redis.Nil) {
		return nil, 0, fmt.Errorf("failed to read card %s: %w", vendorID, err)
	}

	data, err := getCmd.Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, 0, nil
		}
		return nil, 0, fmt.Errorf("failed to read card %s: %w", vendorID, err)
	}

	var card integration.VendorProductCard
	if err := json.Unmarshal(data, &card); err != nil {
		return nil, 0, fmt.Errorf("failed to decode card %s: %w", vendorID, err)
	}
	// PTTL reports -1 for keys without expiry; callers treat that as unknown
	return &card, ttlCmd.Val(), nil
}

// Set stores a card with the given TTL
func (s *RedisCardStore) Set(ctx context.Context, vendorID string, card *integration.VendorProductCard, ttl time.Duration) error {
	data, err := json.Marshal(card)
	if err != nil {
		return fmt.Errorf("failed to encode card %s: %w", vendorID, err)
	}
	if err := s.client.Set(ctx, s.key(vendorID), data, ttl).Err(); err != nil {
		return fmt.Errorf("failed to write card %s: %w", vendorID, err)
	}
	return nil
}

// Clear deletes every card under the key prefix and returns how many were removed
func (s *RedisCardStore) Clear(ctx context.Context) (int, error) {
	var (
		cursor  uint64
		removed int
	)
	for {
		keys, next, err := s.client.Scan(ctx, cursor, s.keyPrefix+"*", clearScanBatch).Result()
		if err != nil {
			return removed, fmt.Errorf("failed to scan card keys: %w", err)
		}
		if len(keys) > 0 {
			n, err := s.client.Del(ctx, keys...).Result()
			if err != nil {
				return removed, fmt.Errorf("failed to delete card keys: %w", err)
			}
			removed += int(n)
		}
		cursor = next
		if cursor == 0 {
			return removed, nil
		}
	}
}

var _ CardStore = (*RedisCardStore)(nil)
