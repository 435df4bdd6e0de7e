package event

import (
	"context"
	"time"

	"github.com/ledgerly/backend/internal/domain/shared"
	"github.com/ledgerly/backend/internal/infrastructure/logger"
	"go.uber.org/zap"
)

// DefaultDeliveryTTL is how long a delivered event id is remembered
const DefaultDeliveryTTL = 24 * time.Hour

// IdempotentHandler skips events whose id it has already handled, so a
// redelivered PaymentReceived does not produce a second notification.
type IdempotentHandler struct {
	handler shared.EventHandler
	store   shared.IdempotencyStore
	ttl     time.Duration
	logger  *zap.Logger
}

// NewIdempotentHandler wraps handler. ttl <= 0 selects DefaultDeliveryTTL.
func NewIdempotentHandler(handler shared.EventHandler, store shared.IdempotencyStore, ttl time.Duration, log *zap.Logger) *IdempotentHandler {
	if ttl <= 0 {
		ttl = DefaultDeliveryTTL
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &IdempotentHandler{handler: handler, store: store, ttl: ttl, logger: log}
}

// EventTypes delegates to the wrapped handler
func (h *IdempotentHandler) EventTypes() []string {
	return h.handler.EventTypes()
}

// Handle runs the wrapped handler at most once per event id.
// A failed run forgets the id so a redelivery is retried.
func (h *IdempotentHandler) Handle(ctx context.Context, evt shared.DomainEvent) error {
	key := "event:" + evt.EventID().String()
	log := logger.L(logger.Ensure(ctx, h.logger)).With(
		zap.String("event_id", evt.EventID().String()),
		zap.String("event_type", evt.EventType()),
	)

	fresh, err := h.store.MarkProcessed(ctx, key, h.ttl)
	if err != nil {
		// a duplicate notification is preferable to a lost one
		log.Warn("idempotency check failed, handling anyway", zap.Error(err))
		return h.handler.Handle(ctx, evt)
	}
	if !fresh {
		log.Debug("duplicate event skipped")
		return nil
	}

	if err := h.handler.Handle(ctx, evt); err != nil {
		if ferr := h.store.Forget(ctx, key); ferr != nil {
			log.Warn("failed to forget event after handler error", zap.Error(ferr))
		}
		return err
	}
	return nil
}

var _ shared.EventHandler = (*IdempotentHandler)(nil)
