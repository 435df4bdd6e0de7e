// Package bootstrap wires repositories, services and handlers so that the
// server, the CLI and the end-to-end tests share one composition.
package bootstrap

import (
	"context"
	"errors"
	"fmt"

	ledgerapp "github.com/ledgerly/backend/internal/application/ledger"
	notificationapp "github.com/ledgerly/backend/internal/application/notification"
	"github.com/ledgerly/backend/internal/application/report"
	"github.com/ledgerly/backend/internal/domain/ledger"
	"github.com/ledgerly/backend/internal/domain/shared"
	"github.com/ledgerly/backend/internal/infrastructure/auth"
	"github.com/ledgerly/backend/internal/infrastructure/cache"
	"github.com/ledgerly/backend/internal/infrastructure/config"
	"github.com/ledgerly/backend/internal/infrastructure/event"
	"github.com/ledgerly/backend/internal/infrastructure/export"
	"github.com/ledgerly/backend/internal/infrastructure/persistence"
	"github.com/ledgerly/backend/internal/infrastructure/scheduler"
	"github.com/ledgerly/backend/internal/infrastructure/telemetry"
	"github.com/ledgerly/backend/internal/interfaces/http/handler"
	"github.com/ledgerly/backend/internal/interfaces/http/router"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Job names registered by RegisterJobs
const (
	JobDueCheck      = "due-check"
	JobWeeklySummary = "weekly-summary"
)

// Deps are the opened resources a Container is built from.
// Meter, PDF, Store and Clock are optional.
type Deps struct {
	Config *config.Config
	Logger *zap.Logger
	DB     *gorm.DB
	Cache  *cache.Backend
	Meter  metric.Meter
	PDF    report.PDFRenderer
	Store  report.ObjectStore
	Clock  shared.Clock
}

// Container holds the application services
type Container struct {
	Config        *config.Config
	Logger        *zap.Logger
	Bus           *event.InMemoryEventBus
	JWT           *auth.JWTService
	Metrics       *telemetry.LedgerMetrics
	Retailers     *ledgerapp.RetailerService
	Invoices      *ledgerapp.InvoiceService
	Payments      *ledgerapp.PaymentService
	Dashboard     *ledgerapp.DashboardService
	Notifications *notificationapp.NotificationService
	Reminders     *notificationapp.ReminderService
	Statements    *report.StatementService
}

// New builds every service over d
func New(d Deps) (*Container, error) {
	if d.Config == nil || d.DB == nil || d.Cache == nil {
		return nil, errors.New("bootstrap: config, database and cache are required")
	}
	cfg := d.Config
	log := d.Logger
	if log == nil {
		log = zap.NewNop()
	}
	clock := d.Clock
	if clock == nil {
		clock = shared.NewSystemClock(cfg.App.Location())
	}

	money, err := ledger.NewMoneyFormatter(cfg.App.Currency)
	if err != nil {
		return nil, fmt.Errorf("invalid app.currency: %w", err)
	}

	var metrics *telemetry.LedgerMetrics
	if d.Meter != nil {
		if metrics, err = telemetry.NewLedgerMetrics(d.Meter); err != nil {
			log.Warn("Failed to create ledger metrics, continuing without them", zap.Error(err))
			metrics = nil
		}
	}

	retailerRepo := persistence.NewGormRetailerRepository(d.DB)
	invoiceRepo := persistence.NewGormInvoiceRepository(d.DB)
	paymentRepo := persistence.NewGormPaymentRepository(d.DB)
	notificationRepo := persistence.NewGormNotificationRepository(d.DB)
	txManager := persistence.NewGormTransactionManager(d.DB)

	bus := event.NewInMemoryEventBus(log.Named("events"))
	ledgerEvents := notificationapp.NewLedgerEventHandler(notificationRepo, money, log.Named("notifications"))
	bus.Subscribe(event.NewIdempotentHandler(ledgerEvents, d.Cache.Idempotency, 0, log))

	guard := ledgerapp.NewAllocationGuard(txManager, d.Cache.Locker,
		ledgerapp.WithRetries(cfg.Ledger.AllocationRetries),
		ledgerapp.WithLockTTL(cfg.Ledger.LockTTL),
		ledgerapp.WithMetrics(metrics),
	)
	svcCfg := ledgerapp.ServiceConfig{
		Retailers: retailerRepo,
		Invoices:  invoiceRepo,
		Payments:  paymentRepo,
		Guard:     guard,
		Events:    bus,
		Clock:     clock,
	}

	return &Container{
		Config:    cfg,
		Logger:    log,
		Bus:       bus,
		JWT:       auth.NewJWTService(cfg.JWT),
		Metrics:   metrics,
		Retailers: ledgerapp.NewRetailerService(retailerRepo, invoiceRepo, paymentRepo, txManager),
		Invoices:  ledgerapp.NewInvoiceService(svcCfg),
		Payments:  ledgerapp.NewPaymentService(svcCfg, metrics),
		Dashboard: ledgerapp.NewDashboardService(invoiceRepo,
			ledgerapp.WithDashboardClock(clock),
			ledgerapp.WithCurrency(cfg.App.Currency)),
		Notifications: notificationapp.NewNotificationService(notificationRepo, metrics),
		Reminders: notificationapp.NewReminderService(invoiceRepo, paymentRepo, notificationRepo, d.Cache.Idempotency,
			notificationapp.WithClock(clock),
			notificationapp.WithWindowDays(cfg.Scheduler.DueWindowDays),
			notificationapp.WithGuardTTL(cfg.Scheduler.GuardTTL),
			notificationapp.WithMoneyFormatter(money),
			notificationapp.WithReminderMetrics(metrics)),
		Statements: report.NewStatementService(report.StatementServiceConfig{
			Retailers: retailerRepo,
			Invoices:  invoiceRepo,
			Payments:  paymentRepo,
			XLSX:      export.NewXLSXWriter(),
			PDF:       d.PDF,
			Store:     d.Store,
			Clock:     clock,
			Currency:  cfg.App.Currency,
		}),
	}, nil
}

// Handlers builds the HTTP handlers. checks feed the health endpoint.
func (c *Container) Handlers(version string, checks map[string]handler.HealthCheck) router.Handlers {
	return router.Handlers{
		System:        handler.NewSystemHandler(c.Config.App.Name, version, checks),
		Retailers:     handler.NewRetailerHandler(c.Retailers, c.Statements),
		Invoices:      handler.NewInvoiceHandler(c.Invoices),
		Payments:      handler.NewPaymentHandler(c.Payments),
		Notifications: handler.NewNotificationHandler(c.Notifications, c.Reminders),
		Dashboard:     handler.NewDashboardHandler(c.Dashboard),
	}
}

// RegisterJobs schedules the daily due check and the weekly summary for
// every tenant
func (c *Container) RegisterJobs(s *scheduler.Scheduler) error {
	if err := s.Register(JobDueCheck, c.Config.Scheduler.DueCheckCron, func(ctx context.Context) error {
		_, err := c.Reminders.RunDueCheck(ctx, notificationapp.DueCheckOptions{})
		return err
	}); err != nil {
		return err
	}
	return s.Register(JobWeeklySummary, c.Config.Scheduler.WeeklySummaryCron, func(ctx context.Context) error {
		_, err := c.Reminders.SendWeeklySummaries(ctx, nil)
		return err
	})
}
