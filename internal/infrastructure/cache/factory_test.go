package cache

import (
	"testing"

	"github.com/erp/pos/internal/infrastructure/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

// port 1 refuses connections, so the Redis ping fails fast
var unreachableRedis = config.RedisConfig{Host: "127.0.0.1", Port: 1}

func TestOpenIdempotencyStore(t *testing.T) {
	t.Run("memory when redis is not configured", func(t *testing.T) {
		store, err := OpenIdempotencyStore(config.RedisConfig{}, WithInMemoryFallback(false))
		require.NoError(t, err)
		defer store.Close()
		assert.IsType(t, &InMemoryIdempotencyStore{}, store)
	})

	t.Run("falls back to memory when redis is unreachable", func(t *testing.T) {
		core, logs := observer.New(zap.WarnLevel)

		store, err := OpenIdempotencyStore(unreachableRedis, WithLogger(zap.New(core)))
		require.NoError(t, err)
		defer store.Close()
		assert.IsType(t, &InMemoryIdempotencyStore{}, store)
		require.Equal(t, 1, logs.Len())
		assert.Equal(t, "127.0.0.1:1", logs.All()[0].ContextMap()["addr"])
	})

	t.Run("fails when fallback is disabled", func(t *testing.T) {
		_, err := OpenIdempotencyStore(unreachableRedis, WithInMemoryFallback(false))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "redis required")
	})
}
