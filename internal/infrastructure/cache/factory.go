package cache

import (
	"fmt"

	"github.com/erp/pos/internal/domain/shared"
	"github.com/erp/pos/internal/infrastructure/config"
	"go.uber.org/zap"
)

type storeOptions struct {
	logger        *zap.Logger
	allowFallback bool
}

// StoreOption configures OpenIdempotencyStore
type StoreOption func(*storeOptions)

// WithLogger logs which store was chosen
func WithLogger(logger *zap.Logger) StoreOption {
	return func(o *storeOptions) {
		o.logger = logger
	}
}

// WithInMemoryFallback controls whether an unreachable Redis degrades to the
// in-memory store. Production disables it: a sale retried against another
// instance would otherwise be processed twice.
func WithInMemoryFallback(allow bool) StoreOption {
	return func(o *storeOptions) {
		o.allowFallback = allow
	}
}

// OpenIdempotencyStore returns the Redis store when Redis is configured and
// reachable. An unconfigured Redis always yields the in-memory store.
func OpenIdempotencyStore(cfg config.RedisConfig, opts ...StoreOption) (shared.IdempotencyStore, error) {
	o := storeOptions{logger: zap.NewNop(), allowFallback: true}
	for _, opt := range opts {
		opt(&o)
	}

	addr := cfg.Addr()
	if addr == "" {
		o.logger.Info("Redis not configured, using in-memory idempotency store")
		return NewInMemoryIdempotencyStore(), nil
	}

	store, err := NewRedisIdempotencyStore(RedisConfig{
		Host:     cfg.Host,
		Port:     cfg.Port,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err == nil {
		o.logger.Info("Using Redis idempotency store", zap.String("addr", addr))
		return store, nil
	}
	if !o.allowFallback {
		return nil, fmt.Errorf("redis required for idempotency but unavailable at %s: %w", addr, err)
	}

	o.logger.Warn("Redis unavailable, using in-memory idempotency store; retries routed to another instance will not be recognized",
		zap.String("addr", addr),
		zap.Error(err),
	)
	return NewInMemoryIdempotencyStore(), nil
}
