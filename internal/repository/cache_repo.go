package repository

import (
	"context"
	"time"

	"github.com/user/dsnval-service/internal/entity"
)

// CacheRepository defines the interface for short-lived storage of
// serialised pipeline results.
type CacheRepository interface {
	// Get returns the live entry for key. Expired entries are reported as a miss.
	Get(ctx context.Context, key string) (*entity.CacheEntry, bool, error)
	// Put stores value under key until now+ttl.
	Put(ctx context.Context, key string, value []byte, ttl time.Duration) error
}
