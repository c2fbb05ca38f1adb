package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/user/dsnval-service/internal/entity"
	"github.com/user/dsnval-service/internal/repository"
	"github.com/user/dsnval-service/pkg/utils"
)

const releaseCachePrefix = "dsnval:release:"

// CacheRepoImpl provides a concrete implementation for the CacheRepository interface using Redis.
// It lets several service replicas share one upstream fetch per TTL window.
type CacheRepoImpl struct {
	client *redis.Client
}

var _ repository.CacheRepository = (*CacheRepoImpl)(nil)

// NewCacheRepo creates a new instance of CacheRepoImpl.
func NewCacheRepo(client *redis.Client) *CacheRepoImpl {
	return &CacheRepoImpl{client: client}
}

// generateKey creates a consistent Redis key for a given cache key by hashing it.
func (r *CacheRepoImpl) generateKey(key string) string {
	return fmt.Sprintf("%s%s", releaseCachePrefix, utils.HashURL(key))
}

// Get reads the value and its remaining lifetime in one round trip.
func (r *CacheRepoImpl) Get(ctx context.Context, key string) (*entity.CacheEntry, bool, error) {
	k := r.generateKey(key)

	pipe := r.client.Pipeline()
	getCmd := pipe.Get(ctx, k)
	ttlCmd := pipe.PTTL(ctx, k)
	if _, err := pipe.Exec(ctx); err != nil && !errors.Is(err, redis.Nil) {
		return nil, false, err
	}

	value, err := getCmd.Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	// A key without a positive TTL was not written by Put; treat it as dead.
	ttl := ttlCmd.Val()
	if ttl <= 0 {
		return nil, false, nil
	}

	return &entity.CacheEntry{
		Key:       key,
		Value:     value,
		ExpiresAt: time.Now().Add(ttl),
	}, true, nil
}

// Put stores value with an expiry; SET with a TTL is atomic.
func (r *CacheRepoImpl) Put(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return r.client.Set(ctx, r.generateKey(key), value, ttl).Err()
}
