package cache

import (
	"context"
	"errors"

	"github.com/ledgerly/backend/internal/domain/shared"
	"github.com/ledgerly/backend/internal/infrastructure/config"
	"github.com/ledgerly/backend/internal/infrastructure/lock"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Backend bundles the coordination primitives used by the ledger and the
// scheduler. With Redis enabled they are shared between replicas;
// otherwise they live in process memory.
type Backend struct {
	Client      *redis.Client // nil when Redis is disabled
	Idempotency shared.IdempotencyStore
	Locker      shared.Locker
}

// BackendOption configures NewBackend
type BackendOption func(*backendOptions)

type backendOptions struct {
	logger        *zap.Logger
	allowFallback bool
}

// WithLogger sets the logger used to report the chosen backend
func WithLogger(logger *zap.Logger) BackendOption {
	return func(o *backendOptions) {
		o.logger = logger
	}
}

// WithInMemoryFallback controls whether an unreachable Redis degrades to
// process memory instead of failing startup. Defaults to false.
func WithInMemoryFallback(allow bool) BackendOption {
	return func(o *backendOptions) {
		o.allowFallback = allow
	}
}

// NewBackend builds the coordination backend described by cfg
func NewBackend(ctx context.Context, redisCfg config.RedisConfig, ledgerCfg config.LedgerConfig, opts ...BackendOption) (*Backend, error) {
	o := backendOptions{logger: zap.NewNop()}
	for _, opt := range opts {
		opt(&o)
	}

	if !redisCfg.Enabled {
		o.logger.Info("redis disabled, using in-memory locks and guards")
		return NewMemoryBackend(ledgerCfg), nil
	}

	client, err := NewRedisClient(ctx, redisCfg)
	if err != nil {
		if !o.allowFallback {
			return nil, err
		}
		o.logger.Warn("redis unavailable, falling back to in-memory locks and guards; replicas will not coordinate",
			zap.Error(err),
		)
		return NewMemoryBackend(ledgerCfg), nil
	}

	o.logger.Info("using redis for locks and guards", zap.String("addr", redisCfg.Addr()))
	return &Backend{
		Client:      client,
		Idempotency: NewRedisIdempotencyStore(client, KeyPrefix),
		Locker:      lock.NewRedisLocker(client, ledgerCfg.LockWait),
	}, nil
}

// NewMemoryBackend builds a process-local backend
func NewMemoryBackend(ledgerCfg config.LedgerConfig) *Backend {
	return &Backend{
		Idempotency: NewInMemoryIdempotencyStore(),
		Locker:      lock.NewMemoryLocker(ledgerCfg.LockWait),
	}
}

// Close releases the store and the Redis connection
func (b *Backend) Close() error {
	var errs []error
	if b.Idempotency != nil {
		errs = append(errs, b.Idempotency.Close())
	}
	if b.Client != nil {
		errs = append(errs, b.Client.Close())
	}
	return errors.Join(errs...)
}
