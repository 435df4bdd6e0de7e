package notification

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/ledgerly/backend/internal/domain/ledger"
	"github.com/ledgerly/backend/internal/domain/notification"
	"github.com/ledgerly/backend/internal/domain/shared"
	"github.com/ledgerly/backend/internal/infrastructure/logger"
	"github.com/ledgerly/backend/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

const (
	// DefaultGuardTTL keeps a tenant's run marker past the end of its day in any zone
	DefaultGuardTTL = 36 * time.Hour
	// summaryPeriodDays is the look-back of the weekly summary
	summaryPeriodDays = 7
)

// DueCheckKey is the idempotency key of a tenant's due-check for one date
func DueCheckKey(tenantID uuid.UUID, date time.Time) string {
	return fmt.Sprintf("duecheck:%s:%s", tenantID, date.Format(time.DateOnly))
}

// WeeklySummaryKey is the idempotency key of a tenant's weekly summary for one date
func WeeklySummaryKey(tenantID uuid.UUID, date time.Time) string {
	return fmt.Sprintf("weeklysummary:%s:%s", tenantID, date.Format(time.DateOnly))
}

// DueCheckOptions selects what a due-check run covers
type DueCheckOptions struct {
	// TenantID limits the run to one tenant; nil means every tenant with unpaid invoices
	TenantID *uuid.UUID
	// Force runs even if the tenant was already checked today
	Force bool
}

// ReminderService produces due/overdue reminders and weekly summaries
type ReminderService struct {
	invoices      ledger.InvoiceRepository
	payments      ledger.PaymentRepository
	notifications notification.Repository
	guard         shared.IdempotencyStore
	planner       *notification.ReminderPlanner
	clock         shared.Clock
	windowDays    int
	guardTTL      time.Duration
	metrics       *telemetry.LedgerMetrics
}

// ReminderOption configures a ReminderService
type ReminderOption func(*ReminderService)

// WithClock overrides the clock that decides "today"
func WithClock(clock shared.Clock) ReminderOption {
	return func(s *ReminderService) {
		if clock != nil {
			s.clock = clock
		}
	}
}

// WithWindowDays also reminds about invoices due within n days
func WithWindowDays(n int) ReminderOption {
	return func(s *ReminderService) {
		if n >= 0 {
			s.windowDays = n
		}
	}
}

// WithGuardTTL sets how long a run marker is kept
func WithGuardTTL(ttl time.Duration) ReminderOption {
	return func(s *ReminderService) {
		if ttl > 0 {
			s.guardTTL = ttl
		}
	}
}

// WithMoneyFormatter sets how amounts are written in messages
func WithMoneyFormatter(money *ledger.MoneyFormatter) ReminderOption {
	return func(s *ReminderService) {
		s.planner = notification.NewReminderPlanner(money)
	}
}

// WithReminderMetrics records runs and created notifications on m
func WithReminderMetrics(m *telemetry.LedgerMetrics) ReminderOption {
	return func(s *ReminderService) {
		s.metrics = m
	}
}

// NewReminderService creates a new ReminderService
func NewReminderService(
	invoices ledger.InvoiceRepository,
	payments ledger.PaymentRepository,
	notifications notification.Repository,
	guard shared.IdempotencyStore,
	opts ...ReminderOption,
) *ReminderService {
	s := &ReminderService{
		invoices:      invoices,
		payments:      payments,
		notifications: notifications,
		guard:         guard,
		planner:       notification.NewReminderPlanner(nil),
		clock:         shared.NewSystemClock(nil),
		guardTTL:      DefaultGuardTTL,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *ReminderService) today() time.Time {
	return ledger.DateOf(s.clock.Now())
}

// RunDueCheck creates reminders for every selected tenant. A failing tenant
// does not stop the others; their errors are joined.
func (s *ReminderService) RunDueCheck(ctx context.Context, opts DueCheckOptions) (*DueCheckResult, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "reminder", "due_check")
	defer span.End()

	today := s.today()
	tenants, err := s.tenants(ctx, opts.TenantID, true)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	result := &DueCheckResult{Date: today, Tenants: len(tenants)}
	var errs []error
	for _, tenantID := range tenants {
		created, ran, err := s.checkTenant(ctx, tenantID, today, opts.Force)
		switch {
		case err != nil:
			s.metrics.RecordDueCheck(ctx, "failed")
			errs = append(errs, fmt.Errorf("tenant %s: %w", tenantID, err))
		case ran:
			s.metrics.RecordDueCheck(ctx, "ran")
			result.Ran++
			result.Notifications += created
		default:
			s.metrics.RecordDueCheck(ctx, "skipped")
			result.Skipped++
		}
	}

	logger.L(ctx).Info("due check finished",
		zap.String("date", today.Format(time.DateOnly)),
		zap.Int("tenants", result.Tenants),
		zap.Int("ran", result.Ran),
		zap.Int("skipped", result.Skipped),
		zap.Int("notifications", result.Notifications),
		zap.Bool("forced", opts.Force))

	if err := errors.Join(errs...); err != nil {
		telemetry.RecordError(span, err)
		return result, err
	}
	return result, nil
}

// checkTenant runs one tenant's due-check. ran is false when today's marker was already set.
func (s *ReminderService) checkTenant(ctx context.Context, tenantID uuid.UUID, today time.Time, force bool) (created int, ran bool, err error) {
	key := DueCheckKey(tenantID, today)
	fresh, err := s.guard.MarkProcessed(ctx, key, s.guardTTL)
	if err != nil {
		// Without the guard a repeated trigger could duplicate reminders, so skip the tenant.
		return 0, false, fmt.Errorf("due-check guard: %w", err)
	}
	if !fresh && !force {
		logger.L(ctx).Debug("due check already ran today", zap.String("tenant_id", tenantID.String()))
		return 0, false, nil
	}

	created, err = s.remind(ctx, tenantID, today)
	if err != nil {
		if ferr := s.guard.Forget(ctx, key); ferr != nil {
			logger.L(ctx).Warn("failed to clear due-check guard",
				zap.String("key", key), zap.Error(ferr))
		}
		return 0, false, err
	}
	return created, true, nil
}

func (s *ReminderService) remind(ctx context.Context, tenantID uuid.UUID, today time.Time) (int, error) {
	invoices, err := s.invoices.FindOutstandingDueBy(ctx, tenantID, today.AddDate(0, 0, s.windowDays))
	if err != nil {
		return 0, err
	}
	for _, inv := range invoices {
		inv.Refresh(today)
	}

	reminders, err := s.planner.Plan(tenantID, invoices, s.windowDays)
	if err != nil {
		return 0, err
	}
	if len(reminders) == 0 {
		return 0, nil
	}
	if err := s.notifications.SaveBatch(ctx, reminders); err != nil {
		return 0, err
	}

	counts := make(map[notification.Type]int)
	for _, n := range reminders {
		counts[n.Type]++
	}
	for kind, n := range counts {
		s.metrics.RecordNotifications(ctx, string(kind), n)
	}
	return len(reminders), nil
}

// SendWeeklySummaries creates one weekly summary per tenant that owns invoices
func (s *ReminderService) SendWeeklySummaries(ctx context.Context, tenantID *uuid.UUID) (*WeeklySummaryResult, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "reminder", "weekly_summary")
	defer span.End()

	today := s.today()
	tenants, err := s.tenants(ctx, tenantID, false)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	result := &WeeklySummaryResult{Date: today, Tenants: len(tenants)}
	var errs []error
	for _, id := range tenants {
		key := WeeklySummaryKey(id, today)
		fresh, err := s.guard.MarkProcessed(ctx, key, s.guardTTL)
		if err != nil {
			errs = append(errs, fmt.Errorf("tenant %s: %w", id, err))
			continue
		}
		if !fresh {
			result.Skipped++
			continue
		}
		if err := s.summarize(ctx, id, today); err != nil {
			_ = s.guard.Forget(ctx, key)
			errs = append(errs, fmt.Errorf("tenant %s: %w", id, err))
			continue
		}
		result.Sent++
	}

	logger.L(ctx).Info("weekly summaries sent",
		zap.Int("tenants", result.Tenants),
		zap.Int("sent", result.Sent),
		zap.Int("skipped", result.Skipped))
	return result, errors.Join(errs...)
}

func (s *ReminderService) summarize(ctx context.Context, tenantID uuid.UUID, today time.Time) error {
	summary, err := s.invoices.Summarize(ctx, tenantID, today)
	if err != nil {
		return err
	}
	from := today.AddDate(0, 0, -(summaryPeriodDays - 1))
	received, count, err := s.payments.SumReceived(ctx, tenantID, from, today)
	if err != nil {
		return err
	}

	n, err := s.planner.WeeklySummary(tenantID, notification.WeeklyFigures{
		Summary:      *summary,
		Received:     received,
		PaymentCount: count,
		PeriodInDays: summaryPeriodDays,
	})
	if err != nil {
		return err
	}
	if err := s.notifications.Save(ctx, n); err != nil {
		return err
	}
	s.metrics.RecordNotifications(ctx, string(n.Type), 1)
	return nil
}

func (s *ReminderService) tenants(ctx context.Context, only *uuid.UUID, outstandingOnly bool) ([]uuid.UUID, error) {
	if only != nil {
		return []uuid.UUID{*only}, nil
	}
	return s.invoices.TenantsWithInvoices(ctx, outstandingOnly)
}
