//go:build integration

package cache

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

func startRedis(t *testing.T) *redis.Client {
	t.Helper()
	ctx := context.Background()
	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis:7-alpine",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor:   wait.ForListeningPort("6379/tcp"),
		},
		Started: true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(ctx) })

	endpoint, err := container.Endpoint(ctx, "")
	require.NoError(t, err)
	client := redis.NewClient(&redis.Options{Addr: endpoint})
	require.NoError(t, client.Ping(ctx).Err())
	return client
}

func TestRedisIdempotencyStore_Lifecycle(t *testing.T) {
	store := NewRedisIdempotencyStoreWithClient(startRedis(t), "test:")
	defer store.Close()
	ctx := context.Background()

	ok, err := store.Acquire(ctx, "sale-1", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = store.Acquire(ctx, "sale-1", time.Minute)
	require.NoError(t, err)
	assert.False(t, ok)

	_, found, err := store.Lookup(ctx, "sale-1")
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, store.Complete(ctx, "sale-1", []byte(`{"id":1}`), time.Minute))
	body, found, err := store.Lookup(ctx, "sale-1")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, `{"id":1}`, string(body))

	require.NoError(t, store.Release(ctx, "sale-1"))
	_, found, _ = store.Lookup(ctx, "sale-1")
	assert.True(t, found, "release keeps completed responses")

	ok, _ = store.Acquire(ctx, "sale-2", time.Minute)
	require.True(t, ok)
	require.NoError(t, store.Release(ctx, "sale-2"))
	ok, err = store.Acquire(ctx, "sale-2", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)
}
