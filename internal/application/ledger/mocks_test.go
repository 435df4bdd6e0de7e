package ledger

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/ledgerly/backend/internal/domain/ledger"
	"github.com/ledgerly/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
)

// MockRetailerRepository is a mock implementation of ledger.RetailerRepository
type MockRetailerRepository struct {
	mock.Mock
}

func (m *MockRetailerRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*ledger.Retailer, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ledger.Retailer), args.Error(1)
}

func (m *MockRetailerRepository) FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter ledger.RetailerFilter) ([]*ledger.Retailer, error) {
	args := m.Called(ctx, tenantID, filter)
	return args.Get(0).([]*ledger.Retailer), args.Error(1)
}

func (m *MockRetailerRepository) CountForTenant(ctx context.Context, tenantID uuid.UUID, filter ledger.RetailerFilter) (int64, error) {
	args := m.Called(ctx, tenantID, filter)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockRetailerRepository) Save(ctx context.Context, retailer *ledger.Retailer) error {
	args := m.Called(ctx, retailer)
	return args.Error(0)
}

func (m *MockRetailerRepository) DeleteForTenant(ctx context.Context, tenantID, id uuid.UUID) error {
	args := m.Called(ctx, tenantID, id)
	return args.Error(0)
}

// MockInvoiceRepository is a mock implementation of ledger.InvoiceRepository
type MockInvoiceRepository struct {
	mock.Mock
}

func (m *MockInvoiceRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*ledger.Invoice, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ledger.Invoice), args.Error(1)
}

func (m *MockInvoiceRepository) FindByIDsForTenant(ctx context.Context, tenantID uuid.UUID, ids []uuid.UUID) ([]*ledger.Invoice, error) {
	args := m.Called(ctx, tenantID, ids)
	return args.Get(0).([]*ledger.Invoice), args.Error(1)
}

func (m *MockInvoiceRepository) FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter ledger.InvoiceFilter) ([]*ledger.Invoice, error) {
	args := m.Called(ctx, tenantID, filter)
	return args.Get(0).([]*ledger.Invoice), args.Error(1)
}

func (m *MockInvoiceRepository) CountForTenant(ctx context.Context, tenantID uuid.UUID, filter ledger.InvoiceFilter) (int64, error) {
	args := m.Called(ctx, tenantID, filter)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockInvoiceRepository) FindOutstandingByRetailer(ctx context.Context, tenantID, retailerID uuid.UUID) ([]*ledger.Invoice, error) {
	args := m.Called(ctx, tenantID, retailerID)
	return args.Get(0).([]*ledger.Invoice), args.Error(1)
}

func (m *MockInvoiceRepository) FindOutstandingDueBy(ctx context.Context, tenantID uuid.UUID, dueBy time.Time) ([]*ledger.Invoice, error) {
	args := m.Called(ctx, tenantID, dueBy)
	return args.Get(0).([]*ledger.Invoice), args.Error(1)
}

func (m *MockInvoiceRepository) FindRecent(ctx context.Context, tenantID uuid.UUID, limit int) ([]*ledger.Invoice, error) {
	args := m.Called(ctx, tenantID, limit)
	return args.Get(0).([]*ledger.Invoice), args.Error(1)
}

func (m *MockInvoiceRepository) ExistsByRetailer(ctx context.Context, tenantID, retailerID uuid.UUID) (bool, error) {
	args := m.Called(ctx, tenantID, retailerID)
	return args.Bool(0), args.Error(1)
}

func (m *MockInvoiceRepository) UpdateRetailerName(ctx context.Context, tenantID, retailerID uuid.UUID, name string) error {
	args := m.Called(ctx, tenantID, retailerID, name)
	return args.Error(0)
}

func (m *MockInvoiceRepository) Summarize(ctx context.Context, tenantID uuid.UUID, today time.Time) (*ledger.InvoiceSummary, error) {
	args := m.Called(ctx, tenantID, today)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ledger.InvoiceSummary), args.Error(1)
}

func (m *MockInvoiceRepository) OutstandingByRetailer(ctx context.Context, tenantID uuid.UUID, limit int) ([]ledger.RetailerBalance, error) {
	args := m.Called(ctx, tenantID, limit)
	return args.Get(0).([]ledger.RetailerBalance), args.Error(1)
}

func (m *MockInvoiceRepository) TenantsWithInvoices(ctx context.Context, outstandingOnly bool) ([]uuid.UUID, error) {
	args := m.Called(ctx, outstandingOnly)
	return args.Get(0).([]uuid.UUID), args.Error(1)
}

func (m *MockInvoiceRepository) Save(ctx context.Context, invoice *ledger.Invoice) error {
	args := m.Called(ctx, invoice)
	return args.Error(0)
}

func (m *MockInvoiceRepository) SaveWithLock(ctx context.Context, invoice *ledger.Invoice) error {
	args := m.Called(ctx, invoice)
	return args.Error(0)
}

func (m *MockInvoiceRepository) DeleteForTenant(ctx context.Context, tenantID, id uuid.UUID) error {
	args := m.Called(ctx, tenantID, id)
	return args.Error(0)
}

// MockPaymentRepository is a mock implementation of ledger.PaymentRepository
type MockPaymentRepository struct {
	mock.Mock
}

func (m *MockPaymentRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*ledger.Payment, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ledger.Payment), args.Error(1)
}

func (m *MockPaymentRepository) FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter ledger.PaymentFilter) ([]*ledger.Payment, error) {
	args := m.Called(ctx, tenantID, filter)
	return args.Get(0).([]*ledger.Payment), args.Error(1)
}

func (m *MockPaymentRepository) CountForTenant(ctx context.Context, tenantID uuid.UUID, filter ledger.PaymentFilter) (int64, error) {
	args := m.Called(ctx, tenantID, filter)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockPaymentRepository) ExistsForInvoice(ctx context.Context, tenantID, invoiceID uuid.UUID) (bool, error) {
	args := m.Called(ctx, tenantID, invoiceID)
	return args.Bool(0), args.Error(1)
}

func (m *MockPaymentRepository) SumReceived(ctx context.Context, tenantID uuid.UUID, from, to time.Time) (decimal.Decimal, int64, error) {
	args := m.Called(ctx, tenantID, from, to)
	return args.Get(0).(decimal.Decimal), args.Get(1).(int64), args.Error(2)
}

func (m *MockPaymentRepository) UpdateRetailerName(ctx context.Context, tenantID, retailerID uuid.UUID, name string) error {
	args := m.Called(ctx, tenantID, retailerID, name)
	return args.Error(0)
}

func (m *MockPaymentRepository) Save(ctx context.Context, payment *ledger.Payment) error {
	args := m.Called(ctx, payment)
	return args.Error(0)
}

func (m *MockPaymentRepository) DeleteForTenant(ctx context.Context, tenantID, id uuid.UUID) error {
	args := m.Called(ctx, tenantID, id)
	return args.Error(0)
}

// fakeTx runs fn directly and counts transactions
type fakeTx struct {
	mu    sync.Mutex
	count int
}

func (f *fakeTx) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	f.mu.Lock()
	f.count++
	f.mu.Unlock()
	return fn(ctx)
}

func (f *fakeTx) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.count
}

// recordingPublisher collects published events
type recordingPublisher struct {
	mu     sync.Mutex
	events []shared.DomainEvent
}

func (p *recordingPublisher) Publish(ctx context.Context, events ...shared.DomainEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, events...)
	return nil
}

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.events))
	for i, e := range p.events {
		out[i] = e.EventType()
	}
	return out
}

// recordingLocker hands out locks and remembers the keys
type recordingLocker struct {
	mu       sync.Mutex
	keys     []string
	released int
	err      error
}

type recordingLock struct{ owner *recordingLocker }

func (l *recordingLocker) Acquire(ctx context.Context, key string, ttl time.Duration) (shared.Lock, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.err != nil {
		return nil, l.err
	}
	l.keys = append(l.keys, key)
	return recordingLock{owner: l}, nil
}

func (l recordingLock) Release(ctx context.Context) error {
	l.owner.mu.Lock()
	defer l.owner.mu.Unlock()
	l.owner.released++
	return nil
}
