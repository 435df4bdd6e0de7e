package telemetry

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Allocation outcomes recorded on ledger.allocations.
const (
	OutcomeAllocated   = "allocated"
	OutcomeOverpayment = "overpayment"
	OutcomeConflict    = "conflict"
	OutcomeFailed      = "failed"
)

// LedgerMetrics records payment allocation and reminder instruments.
// A nil *LedgerMetrics is valid and records nothing.
type LedgerMetrics struct {
	allocations       metric.Int64Counter
	allocatedAmount   metric.Float64Counter
	allocationRetries metric.Int64Counter
	allocationLatency metric.Float64Histogram
	notifications     metric.Int64Counter
	dueCheckRuns      metric.Int64Counter
}

// NewLedgerMetrics registers the ledger instruments on meter
func NewLedgerMetrics(meter metric.Meter) (*LedgerMetrics, error) {
	m := &LedgerMetrics{}
	var err error

	if m.allocations, err = meter.Int64Counter("ledger.allocations",
		metric.WithDescription("Payment allocation attempts by outcome"),
		metric.WithUnit("{allocation}")); err != nil {
		return nil, err
	}
	if m.allocatedAmount, err = meter.Float64Counter("ledger.allocated_amount",
		metric.WithDescription("Total amount applied to invoices"),
		metric.WithUnit("{currency}")); err != nil {
		return nil, err
	}
	if m.allocationRetries, err = meter.Int64Counter("ledger.allocation_retries",
		metric.WithDescription("Allocation retries after optimistic lock conflicts"),
		metric.WithUnit("{retry}")); err != nil {
		return nil, err
	}
	if m.allocationLatency, err = meter.Float64Histogram("ledger.allocation.duration",
		metric.WithDescription("Time spent allocating a payment"),
		metric.WithUnit("ms"),
		metric.WithExplicitBucketBoundaries(1, 5, 10, 25, 50, 100, 250, 500, 1000, 5000)); err != nil {
		return nil, err
	}
	if m.notifications, err = meter.Int64Counter("ledger.notifications",
		metric.WithDescription("Notifications created by type"),
		metric.WithUnit("{notification}")); err != nil {
		return nil, err
	}
	if m.dueCheckRuns, err = meter.Int64Counter("ledger.due_check.runs",
		metric.WithDescription("Due-check executions by result"),
		metric.WithUnit("{run}")); err != nil {
		return nil, err
	}
	return m, nil
}

// RecordAllocation records one allocation attempt
func (m *LedgerMetrics) RecordAllocation(ctx context.Context, outcome string, amount float64, d time.Duration) {
	if m == nil {
		return
	}
	attrs := metric.WithAttributes(attribute.String("outcome", outcome))
	m.allocations.Add(ctx, 1, attrs)
	m.allocationLatency.Record(ctx, float64(d.Microseconds())/1000, attrs)
	if outcome == OutcomeAllocated && amount > 0 {
		m.allocatedAmount.Add(ctx, amount)
	}
}

// RecordRetry counts an allocation retry
func (m *LedgerMetrics) RecordRetry(ctx context.Context) {
	if m == nil {
		return
	}
	m.allocationRetries.Add(ctx, 1)
}

// RecordNotifications counts created notifications of one type
func (m *LedgerMetrics) RecordNotifications(ctx context.Context, kind string, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.notifications.Add(ctx, int64(n), metric.WithAttributes(attribute.String("type", kind)))
}

// RecordDueCheck counts a due-check run; result is "ran", "skipped" or "failed"
func (m *LedgerMetrics) RecordDueCheck(ctx context.Context, result string) {
	if m == nil {
		return
	}
	m.dueCheckRuns.Add(ctx, 1, metric.WithAttributes(attribute.String("result", result)))
}
