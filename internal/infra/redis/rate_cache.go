package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/vietddude/shipbridge/internal/core/domain"
)

// Key helpers
func rateKey(hash string) string {
	return fmt.Sprintf("rates:%s", hash)
}

// RateCache stores merged rate lists as JSON under rates:<request hash>.
type RateCache struct {
	client *Client
}

// NewRateCache creates a rate cache on c.
func NewRateCache(c *Client) *RateCache {
	return &RateCache{client: c}
}

// Get returns the cached rates for key. A miss is (nil, false, nil).
func (rc *RateCache) Get(ctx context.Context, key string) ([]domain.Rate, bool, error) {
	data, err := rc.client.rdb.Get(ctx, rateKey(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("get rates: %w", err)
	}

	var rates []domain.Rate
	if err := json.Unmarshal(data, &rates); err != nil {
		// Corrupt entry: drop it and report a miss.
		_ = rc.client.rdb.Del(ctx, rateKey(key)).Err()
		return nil, false, nil
	}
	return rates, true, nil
}

// Set stores rates for key with ttl.
func (rc *RateCache) Set(ctx context.Context, key string, rates []domain.Rate, ttl time.Duration) error {
	data, err := json.Marshal(rates)
	if err != nil {
		return fmt.Errorf("marshal rates: %w", err)
	}
	if err := rc.client.rdb.Set(ctx, rateKey(key), data, ttl).Err(); err != nil {
		return fmt.Errorf("set rates: %w", err)
	}
	return nil
}
