package ledger

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/ledgerly/backend/internal/domain/ledger"
	"github.com/ledgerly/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

var fixtureToday = time.Date(2024, time.May, 20, 0, 0, 0, 0, time.UTC)

type ledgerFixture struct {
	tenantID  uuid.UUID
	retailer  *ledger.Retailer
	retailers *MockRetailerRepository
	invoices  *MockInvoiceRepository
	payments  *MockPaymentRepository
	tx        *fakeTx
	locker    *recordingLocker
	events    *recordingPublisher
}

func newLedgerFixture(t *testing.T) *ledgerFixture {
	t.Helper()
	tenantID := uuid.New()
	retailer, err := ledger.NewRetailer(tenantID, ledger.RetailerDetails{Name: "Acme Stores"})
	require.NoError(t, err)
	return &ledgerFixture{
		tenantID:  tenantID,
		retailer:  retailer,
		retailers: new(MockRetailerRepository),
		invoices:  new(MockInvoiceRepository),
		payments:  new(MockPaymentRepository),
		tx:        &fakeTx{},
		locker:    &recordingLocker{},
		events:    &recordingPublisher{},
	}
}

func (f *ledgerFixture) config(opts ...GuardOption) ServiceConfig {
	return ServiceConfig{
		Retailers: f.retailers,
		Invoices:  f.invoices,
		Payments:  f.payments,
		Guard:     NewAllocationGuard(f.tx, f.locker, opts...),
		Events:    f.events,
		Clock:     shared.FixedClock(fixtureToday.Add(9 * time.Hour)),
	}
}

// invoice builds an unpaid invoice of the fixture retailer due dueIn days from today
func (f *ledgerFixture) invoice(t *testing.T, name string, amount int64, dueIn int) *ledger.Invoice {
	t.Helper()
	due := fixtureToday.AddDate(0, 0, dueIn)
	inv, err := ledger.NewInvoice(f.tenantID, f.retailer, ledger.InvoiceDetails{
		InvoiceName: name,
		Amount:      decimal.NewFromInt(amount),
		InvoiceDate: due.AddDate(0, 0, -30),
		DueDate:     due,
	}, fixtureToday)
	require.NoError(t, err)
	inv.ClearDomainEvents()
	return inv
}

// paidInvoice builds an invoice with paid already applied
func (f *ledgerFixture) paidInvoice(t *testing.T, name string, amount, paid int64, dueIn int) *ledger.Invoice {
	t.Helper()
	inv := f.invoice(t, name, amount, dueIn)
	if paid > 0 {
		require.NoError(t, inv.ApplyPayment(decimal.NewFromInt(paid), fixtureToday))
	}
	return inv
}

func (f *ledgerFixture) payment(t *testing.T, allocations ledger.Allocations) *ledger.Payment {
	t.Helper()
	p, err := ledger.NewPayment(f.tenantID, f.retailer, allocations.Total(), fixtureToday, ledger.PaymentSourceManual, allocations)
	require.NoError(t, err)
	p.ClearDomainEvents()
	return p
}

func dec(v int64) decimal.Decimal {
	return decimal.NewFromInt(v)
}
