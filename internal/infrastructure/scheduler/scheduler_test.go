package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestScheduler_Register(t *testing.T) {
	s := New(time.UTC, nil)

	t.Run("accepts standard cron specs", func(t *testing.T) {
		require.NoError(t, s.Register("due-check", "0 8 * * *", func(context.Context) error { return nil }))
		require.NoError(t, s.Register("weekly-summary", "0 9 * * 1", func(context.Context) error { return nil }))
	})

	t.Run("rejects bad specs", func(t *testing.T) {
		err := s.Register("broken", "every morning", func(context.Context) error { return nil })
		require.Error(t, err)
		assert.Contains(t, err.Error(), "broken")
	})

	t.Run("rejects duplicate names", func(t *testing.T) {
		assert.Error(t, s.Register("due-check", "0 7 * * *", func(context.Context) error { return nil }))
	})
}

func TestScheduler_RunNow(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	s := New(time.UTC, zap.New(core), WithJobTimeout(50*time.Millisecond))

	var runs int32
	require.NoError(t, s.Register("count", "0 8 * * *", func(context.Context) error {
		atomic.AddInt32(&runs, 1)
		return nil
	}))
	require.NoError(t, s.Register("slow", "0 8 * * *", func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	}))

	t.Run("runs synchronously", func(t *testing.T) {
		require.NoError(t, s.RunNow(context.Background(), "count"))
		assert.Equal(t, int32(1), atomic.LoadInt32(&runs))
		assert.Equal(t, 1, logs.FilterMessage("job finished").Len())
	})

	t.Run("applies the job timeout", func(t *testing.T) {
		err := s.RunNow(context.Background(), "slow")
		assert.True(t, errors.Is(err, context.DeadlineExceeded))
		assert.Equal(t, 1, logs.FilterMessage("job failed").Len())
	})

	t.Run("unknown job", func(t *testing.T) {
		assert.ErrorIs(t, s.RunNow(context.Background(), "nope"), ErrUnknownJob)
	})
}

func TestScheduler_StartStop(t *testing.T) {
	berlin, err := time.LoadLocation("Europe/Berlin")
	require.NoError(t, err)
	s := New(berlin, nil)

	fired := make(chan struct{}, 1)
	require.NoError(t, s.Register("tick", "@every 1s", func(context.Context) error {
		select {
		case fired <- struct{}{}:
		default:
		}
		return nil
	}))
	require.NoError(t, s.Register("daily", "0 8 * * *", func(context.Context) error { return nil }))

	s.Start()
	next := s.Next("daily")
	assert.Equal(t, 8, next.In(berlin).Hour())
	assert.True(t, s.Next("missing").IsZero())

	select {
	case <-fired:
	case <-time.After(3 * time.Second):
		t.Fatal("job never fired")
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, s.Stop(ctx))
}
