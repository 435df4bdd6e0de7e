//go:build integration

package integration

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/ledgerly/backend/internal/domain/shared"
	"github.com/ledgerly/backend/internal/infrastructure/lock"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

// newRedisClient starts a throwaway Redis and returns a client for it
func newRedisClient(t *testing.T) *redis.Client {
	t.Helper()
	ctx := context.Background()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis:7-alpine",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor:   wait.ForLog("Ready to accept connections").WithStartupTimeout(60 * time.Second),
		},
		Started: true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	addr, err := container.Endpoint(ctx, "")
	require.NoError(t, err)

	client := redis.NewClient(&redis.Options{Addr: addr})
	t.Cleanup(func() { _ = client.Close() })
	require.NoError(t, client.Ping(ctx).Err())
	return client
}

func TestRedisLocker(t *testing.T) {
	ctx := context.Background()
	client := newRedisClient(t)
	locker := lock.NewRedisLocker(client, 100*time.Millisecond, lock.WithRetryInterval(10*time.Millisecond))

	t.Run("holds the key under a uuid token", func(t *testing.T) {
		key := "ledger:alloc:test:" + uuid.NewString()

		l, err := locker.Acquire(ctx, key, time.Minute)
		require.NoError(t, err)

		token, err := client.Get(ctx, key).Result()
		require.NoError(t, err)
		_, err = uuid.Parse(token)
		assert.NoError(t, err)

		_, err = locker.Acquire(ctx, key, time.Minute)
		assert.ErrorIs(t, err, shared.ErrLockNotAcquired)

		require.NoError(t, l.Release(ctx))
		assert.Zero(t, client.Exists(ctx, key).Val())
	})

	t.Run("expired holder cannot release the next holder", func(t *testing.T) {
		key := "ledger:alloc:test:" + uuid.NewString()

		first, err := locker.Acquire(ctx, key, 50*time.Millisecond)
		require.NoError(t, err)
		time.Sleep(100 * time.Millisecond)

		second, err := locker.Acquire(ctx, key, time.Minute)
		require.NoError(t, err)

		require.NoError(t, first.Release(ctx))
		assert.Equal(t, int64(1), client.Exists(ctx, key).Val())

		require.NoError(t, second.Release(ctx))
		assert.Zero(t, client.Exists(ctx, key).Val())
	})
}
