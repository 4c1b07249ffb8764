package cache

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInMemoryIdempotencyStore_Lifecycle(t *testing.T) {
	store := NewInMemoryIdempotencyStore()
	defer store.Close()
	ctx := context.Background()

	t.Run("first acquire wins", func(t *testing.T) {
		ok, err := store.Acquire(ctx, "k1", time.Minute)
		require.NoError(t, err)
		assert.True(t, ok)

		ok, err = store.Acquire(ctx, "k1", time.Minute)
		require.NoError(t, err)
		assert.False(t, ok, "in-flight key must not be claimed twice")
	})

	t.Run("in-flight key has no response", func(t *testing.T) {
		_, found, err := store.Lookup(ctx, "k1")
		require.NoError(t, err)
		assert.False(t, found)
	})

	t.Run("completed key replays its response", func(t *testing.T) {
		require.NoError(t, store.Complete(ctx, "k1", []byte(`{"ncf":"B0200000001"}`), time.Hour))

		body, found, err := store.Lookup(ctx, "k1")
		require.NoError(t, err)
		assert.True(t, found)
		assert.JSONEq(t, `{"ncf":"B0200000001"}`, string(body))

		ok, err := store.Acquire(ctx, "k1", time.Minute)
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("release frees an in-flight claim only", func(t *testing.T) {
		ok, _ := store.Acquire(ctx, "k2", time.Minute)
		require.True(t, ok)
		require.NoError(t, store.Release(ctx, "k2"))

		ok, err := store.Acquire(ctx, "k2", time.Minute)
		require.NoError(t, err)
		assert.True(t, ok)

		require.NoError(t, store.Release(ctx, "k1"))
		_, found, _ := store.Lookup(ctx, "k1")
		assert.True(t, found, "release must not drop a completed response")
	})
}

func TestInMemoryIdempotencyStore_Expiry(t *testing.T) {
	store := NewInMemoryIdempotencyStore()
	defer store.Close()
	ctx := context.Background()

	ok, _ := store.Acquire(ctx, "short", 10*time.Millisecond)
	require.True(t, ok)
	time.Sleep(20 * time.Millisecond)

	ok, err := store.Acquire(ctx, "short", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok, "an expired claim may be taken again")

	require.NoError(t, store.Complete(ctx, "short", []byte("x"), 10*time.Millisecond))
	time.Sleep(20 * time.Millisecond)
	_, found, _ := store.Lookup(ctx, "short")
	assert.False(t, found)
}

func TestInMemoryIdempotencyStore_CompleteCopiesResponse(t *testing.T) {
	store := NewInMemoryIdempotencyStore()
	defer store.Close()
	ctx := context.Background()

	body := []byte("abc")
	require.NoError(t, store.Complete(ctx, "k", body, time.Minute))
	body[0] = 'z'

	got, _, _ := store.Lookup(ctx, "k")
	assert.Equal(t, "abc", string(got))
}

func TestInMemoryIdempotencyStore_ConcurrentAcquire(t *testing.T) {
	store := NewInMemoryIdempotencyStore()
	defer store.Close()
	ctx := context.Background()

	var winners atomic.Int32
	var wg sync.WaitGroup
	for range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if ok, _ := store.Acquire(ctx, "same-key", time.Minute); ok {
				winners.Add(1)
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, int32(1), winners.Load())
}

func TestInMemoryIdempotencyStore_Cleanup(t *testing.T) {
	store := newInMemoryIdempotencyStore(5 * time.Millisecond)
	defer store.Close()
	ctx := context.Background()

	_, _ = store.Acquire(ctx, "a", time.Millisecond)
	_, _ = store.Acquire(ctx, "b", time.Hour)

	assert.Eventually(t, func() bool { return store.Size() == 1 }, time.Second, 5*time.Millisecond)
}

func TestInMemoryIdempotencyStore_CloseIsIdempotent(t *testing.T) {
	store := NewInMemoryIdempotencyStore()
	require.NoError(t, store.Close())
	require.NoError(t, store.Close())
}
