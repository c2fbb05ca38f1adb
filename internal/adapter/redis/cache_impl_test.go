package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRepo(t *testing.T) (*CacheRepoImpl, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewCacheRepo(client), mr
}

func TestCacheRepoRoundTrip(t *testing.T) {
	repo, mr := newTestRepo(t)
	ctx := context.Background()
	key := "https://example.test/|latest|strict"

	_, ok, err := repo.Get(ctx, key)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, repo.Put(ctx, key, []byte(`{"version":"42"}`), time.Minute))
	assert.True(t, mr.Exists(repo.generateKey(key)))

	entry, ok, err := repo.Get(ctx, key)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, key, entry.Key)
	assert.Equal(t, `{"version":"42"}`, string(entry.Value))
	assert.WithinDuration(t, time.Now().Add(time.Minute), entry.ExpiresAt, 5*time.Second)

	mr.FastForward(time.Minute)
	_, ok, err = repo.Get(ctx, key)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCacheRepoIgnoresKeysWithoutTTL(t *testing.T) {
	repo, mr := newTestRepo(t)
	key := "https://example.test/|all|strict"
	require.NoError(t, mr.Set(repo.generateKey(key), "[]"))

	_, ok, err := repo.Get(context.Background(), key)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCacheRepoReportsConnectionErrors(t *testing.T) {
	repo, mr := newTestRepo(t)
	mr.Close()

	_, _, err := repo.Get(context.Background(), "k")
	assert.Error(t, err)
	assert.Error(t, repo.Put(context.Background(), "k", []byte("v"), time.Minute))
}
