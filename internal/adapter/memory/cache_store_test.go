package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCacheStore(t *testing.T) {
	now := time.Date(2024, 3, 15, 9, 0, 0, 0, time.UTC)
	store := NewCacheStore(func() time.Time { return now })
	ctx := context.Background()

	_, ok, err := store.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok)

	value := []byte(`{"version":"42"}`)
	require.NoError(t, store.Put(ctx, "k", value, time.Minute))
	value[0] = 'X'

	entry, ok, err := store.Get(ctx, "k")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, `{"version":"42"}`, string(entry.Value))
	assert.Equal(t, now.Add(time.Minute), entry.ExpiresAt)

	entry.Value[0] = 'Y'
	again, _, _ := store.Get(ctx, "k")
	assert.Equal(t, `{"version":"42"}`, string(again.Value))

	now = now.Add(time.Minute)
	_, ok, err = store.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok, "entry is dead at its expiry instant")
}
