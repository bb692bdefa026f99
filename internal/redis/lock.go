package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// LockStore handles short-lived per-driver locks in Redis.
type LockStore struct {
	client *redis.Client
}

// NewLockStore creates a new LockStore.
func NewLockStore(client *redis.Client) *LockStore {
	return &LockStore{client: client}
}

func driverLockKey(driverID string) string {
	return fmt.Sprintf("lock:driver:%s", driverID)
}

// AcquireDriverLock attempts to take the lock for driverID.
// Returns true if the lock was acquired, false if already held.
func (s *LockStore) AcquireDriverLock(ctx context.Context, driverID string, ttl time.Duration) (bool, error) {
	return s.client.SetNX(ctx, driverLockKey(driverID), "1", ttl).Result()
}

// ReleaseDriverLock releases the lock for driverID.
func (s *LockStore) ReleaseDriverLock(ctx context.Context, driverID string) error {
	return s.client.Del(ctx, driverLockKey(driverID)).Err()
}
