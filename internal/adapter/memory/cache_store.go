package memory

import (
	"context"
	"sync"
	"time"

	"github.com/user/dsnval-service/internal/entity"
	"github.com/user/dsnval-service/internal/repository"
)

// CacheStore is an in-process implementation of repository.CacheRepository.
// Entries are never evicted; an expired entry is simply ignored on lookup
// and replaced by the next Put for its key.
type CacheStore struct {
	mu      sync.RWMutex
	entries map[string]entity.CacheEntry
	now     func() time.Time
}

var _ repository.CacheRepository = (*CacheStore)(nil)

// NewCacheStore creates an empty store. now defaults to time.Now; tests
// pass a fake clock.
func NewCacheStore(now func() time.Time) *CacheStore {
	if now == nil {
		now = time.Now
	}
	return &CacheStore{
		entries: make(map[string]entity.CacheEntry),
		now:     now,
	}
}

// Get returns the live entry stored under key.
func (s *CacheStore) Get(_ context.Context, key string) (*entity.CacheEntry, bool, error) {
	s.mu.RLock()
	entry, ok := s.entries[key]
	s.mu.RUnlock()

	if !ok || entry.Expired(s.now()) {
		return nil, false, nil
	}
	entry.Value = append([]byte(nil), entry.Value...)
	return &entry, true, nil
}

// Put stores value under key until now+ttl.
func (s *CacheStore) Put(_ context.Context, key string, value []byte, ttl time.Duration) error {
	entry := entity.CacheEntry{
		Key:       key,
		Value:     append([]byte(nil), value...),
		ExpiresAt: s.now().Add(ttl),
	}

	s.mu.Lock()
	s.entries[key] = entry
	s.mu.Unlock()
	return nil
}
