package redis

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

const responseKeyPrefix = "idempotency:"

// ResponseCache stores serialized HTTP responses for replay.
type ResponseCache struct {
	client *redis.Client
}

// NewResponseCache creates a new ResponseCache.
func NewResponseCache(client *redis.Client) *ResponseCache {
	return &ResponseCache{client: client}
}

// Get returns the cached response for key. found is false on a miss.
func (s *ResponseCache) Get(ctx context.Context, key string) (data []byte, found bool, err error) {
	data, err = s.client.Get(ctx, responseKeyPrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return data, true, nil
}

// Set stores a response under key for ttl.
func (s *ResponseCache) Set(ctx context.Context, key string, data []byte, ttl time.Duration) error {
	return s.client.Set(ctx, responseKeyPrefix+key, data, ttl).Err()
}
