package notification

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/ledgerly/backend/internal/domain/ledger"
	"github.com/ledgerly/backend/internal/domain/notification"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
)

// MockNotificationRepository is a mock implementation of notification.Repository
type MockNotificationRepository struct {
	mock.Mock
}

func (m *MockNotificationRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*notification.Notification, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*notification.Notification), args.Error(1)
}

func (m *MockNotificationRepository) FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter notification.Filter) ([]*notification.Notification, error) {
	args := m.Called(ctx, tenantID, filter)
	return args.Get(0).([]*notification.Notification), args.Error(1)
}

func (m *MockNotificationRepository) CountForTenant(ctx context.Context, tenantID uuid.UUID, filter notification.Filter) (int64, error) {
	args := m.Called(ctx, tenantID, filter)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockNotificationRepository) CountUnread(ctx context.Context, tenantID uuid.UUID) (int64, error) {
	args := m.Called(ctx, tenantID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockNotificationRepository) Save(ctx context.Context, n *notification.Notification) error {
	args := m.Called(ctx, n)
	return args.Error(0)
}

func (m *MockNotificationRepository) SaveBatch(ctx context.Context, notifications []*notification.Notification) error {
	args := m.Called(ctx, notifications)
	return args.Error(0)
}

func (m *MockNotificationRepository) MarkAllRead(ctx context.Context, tenantID uuid.UUID) (int64, error) {
	args := m.Called(ctx, tenantID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockNotificationRepository) DeleteForTenant(ctx context.Context, tenantID, id uuid.UUID) error {
	args := m.Called(ctx, tenantID, id)
	return args.Error(0)
}

// MockInvoiceReader mocks the invoice queries used by reminders.
// Other InvoiceRepository methods panic through the nil embedded interface.
type MockInvoiceReader struct {
	ledger.InvoiceRepository
	mock.Mock
}

func (m *MockInvoiceReader) FindOutstandingDueBy(ctx context.Context, tenantID uuid.UUID, dueBy time.Time) ([]*ledger.Invoice, error) {
	args := m.Called(ctx, tenantID, dueBy)
	return args.Get(0).([]*ledger.Invoice), args.Error(1)
}

func (m *MockInvoiceReader) Summarize(ctx context.Context, tenantID uuid.UUID, today time.Time) (*ledger.InvoiceSummary, error) {
	args := m.Called(ctx, tenantID, today)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ledger.InvoiceSummary), args.Error(1)
}

func (m *MockInvoiceReader) TenantsWithInvoices(ctx context.Context, outstandingOnly bool) ([]uuid.UUID, error) {
	args := m.Called(ctx, outstandingOnly)
	return args.Get(0).([]uuid.UUID), args.Error(1)
}

// MockPaymentReader mocks the payment queries used by the weekly summary
type MockPaymentReader struct {
	ledger.PaymentRepository
	mock.Mock
}

func (m *MockPaymentReader) SumReceived(ctx context.Context, tenantID uuid.UUID, from, to time.Time) (decimal.Decimal, int64, error) {
	args := m.Called(ctx, tenantID, from, to)
	return args.Get(0).(decimal.Decimal), args.Get(1).(int64), args.Error(2)
}

// failingGuard is an idempotency store whose MarkProcessed always fails
type failingGuard struct{}

func (failingGuard) MarkProcessed(context.Context, string, time.Duration) (bool, error) {
	return false, errors.New("redis: connection refused")
}

func (failingGuard) IsProcessed(context.Context, string) (bool, error) { return false, nil }

func (failingGuard) Forget(context.Context, string) error { return nil }

func (failingGuard) Close() error { return nil }
