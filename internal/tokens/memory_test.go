package tokens

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStoreGetSetRemove(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	_, err := store.Get(ctx, AccessToken)
	require.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, store.Set(ctx, AccessToken, "AT1"))
	value, err := store.Get(ctx, AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "AT1", value)

	require.NoError(t, store.Set(ctx, AccessToken, "AT2"))
	value, err = store.Get(ctx, AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "AT2", value)

	require.NoError(t, store.Remove(ctx, AccessToken))
	_, err = store.Get(ctx, AccessToken)
	assert.ErrorIs(t, err, ErrNotFound)
	require.NoError(t, store.Remove(ctx, AccessToken), "removing an absent key is not an error")
}

func TestMemoryStoreRejectsUnknownKey(t *testing.T) {
	err := NewMemoryStore().Set(context.Background(), Key("idToken"), "x")
	require.Error(t, err)
}

func TestMemoryStorePairOperations(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	require.NoError(t, store.SavePair(ctx, Pair{AccessToken: "AT1", RefreshToken: "RT1"}))
	pair, err := LoadPair(ctx, store)
	require.NoError(t, err)
	assert.Equal(t, Pair{AccessToken: "AT1", RefreshToken: "RT1"}, pair)

	require.NoError(t, store.Clear(ctx))
	for _, key := range []Key{AccessToken, RefreshToken} {
		_, err := store.Get(ctx, key)
		assert.ErrorIs(t, err, ErrNotFound, key)
	}

	pair, err = LoadPair(ctx, store)
	require.NoError(t, err)
	assert.Equal(t, Pair{}, pair)
}

func TestMemoryStoreConcurrentPairWritesNeverMix(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	pairs := []Pair{
		{AccessToken: "AT-a", RefreshToken: "RT-a"},
		{AccessToken: "AT-b", RefreshToken: "RT-b"},
	}

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(p Pair) {
			defer wg.Done()
			_ = store.SavePair(ctx, p)
		}(pairs[i%2])
	}
	wg.Wait()

	pair, err := LoadPair(ctx, store)
	require.NoError(t, err)
	assert.Contains(t, pairs, pair)
}
