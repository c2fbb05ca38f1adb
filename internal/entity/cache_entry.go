package entity

import "time"

// CacheEntry is a serialised pipeline result held for a bounded time.
type CacheEntry struct {
	Key       string
	Value     []byte
	ExpiresAt time.Time
}

// Expired reports whether the entry is dead at the given instant.
func (e *CacheEntry) Expired(now time.Time) bool {
	return !now.Before(e.ExpiresAt)
}
