package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/ledgerly/backend/internal/domain/ledger"
	"github.com/ledgerly/backend/internal/domain/shared"
	"github.com/ledgerly/backend/internal/infrastructure/logger"
	"github.com/ledgerly/backend/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

const (
	// DefaultAllocationRetries is how often a write is retried after a version conflict
	DefaultAllocationRetries = 3
	// DefaultLockTTL bounds how long a crashed holder can block a retailer,
	// and how long a guarded write may run
	DefaultLockTTL = 10 * time.Second
)

// AllocationLockKey is the lock serialising writes to one retailer's invoices
func AllocationLockKey(tenantID, retailerID uuid.UUID) string {
	return fmt.Sprintf("ledger:alloc:%s:%s", tenantID, retailerID)
}

// AllocationGuard runs writes that touch a retailer's paid amounts.
// Each write holds the retailer's lock, runs in one transaction and is
// retried when an optimistic version check fails.
//
// The lock is not renewed. The guarded work runs under a deadline at the
// lock's expiry, so a slow transaction is rolled back instead of committing
// after another writer could have taken the lock.
type AllocationGuard struct {
	tx      shared.TransactionManager
	locker  shared.Locker
	lockTTL time.Duration
	retries int
	metrics *telemetry.LedgerMetrics
}

// GuardOption configures an AllocationGuard
type GuardOption func(*AllocationGuard)

// WithRetries sets the number of retries after a version conflict
func WithRetries(n int) GuardOption {
	return func(g *AllocationGuard) {
		if n >= 0 {
			g.retries = n
		}
	}
}

// WithLockTTL sets the retailer lock expiry, which is also the deadline of the guarded work
func WithLockTTL(ttl time.Duration) GuardOption {
	return func(g *AllocationGuard) {
		if ttl > 0 {
			g.lockTTL = ttl
		}
	}
}

// WithMetrics records retries on m
func WithMetrics(m *telemetry.LedgerMetrics) GuardOption {
	return func(g *AllocationGuard) {
		g.metrics = m
	}
}

// NewAllocationGuard creates an AllocationGuard
func NewAllocationGuard(tx shared.TransactionManager, locker shared.Locker, opts ...GuardOption) *AllocationGuard {
	g := &AllocationGuard{
		tx:      tx,
		locker:  locker,
		lockTTL: DefaultLockTTL,
		retries: DefaultAllocationRetries,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Run executes fn under the retailer lock inside a transaction.
// fn must load everything it mutates, since it runs again on retry.
// Exhausted retries surface as shared.ErrConcurrencyConflict.
func (g *AllocationGuard) Run(ctx context.Context, tenantID, retailerID uuid.UUID, fn func(ctx context.Context) error) error {
	key := AllocationLockKey(tenantID, retailerID)
	expires := time.Now().Add(g.lockTTL)
	lock, err := g.locker.Acquire(ctx, key, g.lockTTL)
	if err != nil {
		return err
	}
	defer func() {
		if err := lock.Release(context.WithoutCancel(ctx)); err != nil {
			logger.L(ctx).Warn("failed to release allocation lock",
				zap.String("key", key), zap.Error(err))
		}
	}()

	lockCtx, cancel := context.WithDeadline(ctx, expires)
	defer cancel()

	for attempt := 0; ; attempt++ {
		err := g.tx.WithinTransaction(lockCtx, fn)
		if err != nil && errors.Is(lockCtx.Err(), context.DeadlineExceeded) && ctx.Err() == nil {
			logger.L(ctx).Warn("allocation lock expired before the write finished",
				zap.String("retailer_id", retailerID.String()),
				zap.Duration("lock_ttl", g.lockTTL))
			return shared.ErrConcurrencyConflict.Wrap(err)
		}
		if !errors.Is(err, ledger.ErrOptimisticLock) {
			return err
		}
		if attempt >= g.retries {
			logger.L(ctx).Warn("giving up after version conflicts",
				zap.String("retailer_id", retailerID.String()),
				zap.Int("attempts", attempt+1))
			return shared.ErrConcurrencyConflict
		}
		g.metrics.RecordRetry(ctx)
		logger.L(ctx).Debug("version conflict, retrying",
			zap.String("retailer_id", retailerID.String()),
			zap.Int("attempt", attempt+1))
	}
}

type eventSource interface {
	GetDomainEvents() []shared.DomainEvent
	ClearDomainEvents()
}

// publishEvents publishes and clears the pending events of each source.
// It runs after commit; publish failures are logged, not returned.
func publishEvents(ctx context.Context, publisher shared.EventPublisher, sources ...eventSource) {
	for _, src := range sources {
		if src == nil {
			continue
		}
		events := src.GetDomainEvents()
		src.ClearDomainEvents()
		if publisher == nil || len(events) == 0 {
			continue
		}
		if err := publisher.Publish(ctx, events...); err != nil {
			logger.L(ctx).Error("failed to publish domain events", zap.Error(err))
		}
	}
}
