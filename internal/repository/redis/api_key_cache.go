package redis

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"adOptimizer/business/account"
)

type APIKeyCache struct {
	client *redis.Client
}

var _ account.KeyCache = (*APIKeyCache)(nil)

func NewAPIKeyCache(client *redis.Client) *APIKeyCache {
	return &APIKeyCache{
		client: client,
	}
}

func apiKeyKey(digest string) string {
	// key format: "apikey:digest:{sha256 of key}"
	return fmt.Sprintf("apikey:digest:%s", digest)
}

// Get returns the user a verified key digest belongs to
func (c *APIKeyCache) Get(ctx context.Context, digest string) (uint, bool, error) {
	val, err := c.client.Get(ctx, apiKeyKey(digest)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, false, nil
		}
		return 0, false, fmt.Errorf("failed to get api key from Redis: %w", err)
	}

	id, err := strconv.ParseUint(val, 10, 64)
	if err != nil {
		return 0, false, fmt.Errorf("corrupt api key cache entry: %w", err)
	}

	return uint(id), true, nil
}

func (c *APIKeyCache) Set(ctx context.Context, digest string, userID uint, ttl time.Duration) error {
	err := c.client.Set(ctx, apiKeyKey(digest), strconv.FormatUint(uint64(userID), 10), ttl).Err()
	if err != nil {
		return fmt.Errorf("failed to store api key in Redis: %w", err)
	}

	return nil
}
