package ledger

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/ledgerly/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// DueOp compares an invoice's due-day offset with a number of days
type DueOp string

const (
	DueOpGreater DueOp = "gt"
	DueOpLess    DueOp = "lt"
	DueOpEqual   DueOp = "eq"
)

// IsValid checks if the operator is supported
func (o DueOp) IsValid() bool {
	switch o {
	case DueOpGreater, DueOpLess, DueOpEqual:
		return true
	}
	return false
}

// DueCondition selects invoices whose DueDays satisfies Op against Days.
// Because DueDays counts calendar days, "DueDays op N" is the same as
// "due_date op today + N days".
type DueCondition struct {
	Op   DueOp
	Days int
}

// Matches evaluates the condition for a single dueDays value
func (c DueCondition) Matches(dueDays int) bool {
	switch c.Op {
	case DueOpGreater:
		return dueDays > c.Days
	case DueOpLess:
		return dueDays < c.Days
	case DueOpEqual:
		return dueDays == c.Days
	}
	return true
}

// Boundary returns the due date that corresponds to Days from today
func (c DueCondition) Boundary(today time.Time) time.Time {
	return DateOf(today).AddDate(0, 0, c.Days)
}

// RetailerFilter narrows retailer listings. Search matches name, email or phone.
type RetailerFilter struct {
	shared.Filter
}

// InvoiceFilter narrows invoice listings.
// Status and Due are evaluated against Today, which must be set when either is used.
type InvoiceFilter struct {
	shared.Filter
	RetailerID *uuid.UUID
	Status     InvoiceStatus
	From       *time.Time
	To         *time.Time
	Due        *DueCondition
	Today      time.Time
}

// PaymentFilter narrows payment listings
type PaymentFilter struct {
	shared.Filter
	RetailerID *uuid.UUID
	InvoiceID  *uuid.UUID
	From       *time.Time
	To         *time.Time
}

// InvoiceSummary aggregates a tenant's invoices as of one day
type InvoiceSummary struct {
	TotalPending decimal.Decimal
	TotalOverdue decimal.Decimal
	TotalPaid    decimal.Decimal
	DueCount     int64
	OverdueCount int64
	PaidCount    int64
}

// RetailerBalance is the outstanding amount one retailer owes
type RetailerBalance struct {
	RetailerID   uuid.UUID
	RetailerName string
	Outstanding  decimal.Decimal
	InvoiceCount int64
}

// RetailerRepository defines the interface for retailer persistence
type RetailerRepository interface {
	// FindByIDForTenant finds a retailer by ID within a tenant
	FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*Retailer, error)

	// FindAllForTenant lists retailers for a tenant
	FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter RetailerFilter) ([]*Retailer, error)

	// CountForTenant counts retailers matching the filter
	CountForTenant(ctx context.Context, tenantID uuid.UUID, filter RetailerFilter) (int64, error)

	// Save creates or updates a retailer
	Save(ctx context.Context, retailer *Retailer) error

	// DeleteForTenant deletes a retailer within a tenant
	DeleteForTenant(ctx context.Context, tenantID, id uuid.UUID) error
}

// InvoiceRepository defines the interface for invoice persistence.
// Status and DueDays are not stored; loaded invoices must be Refreshed
// against the caller's today before they are read.
type InvoiceRepository interface {
	// FindByIDForTenant finds an invoice by ID within a tenant
	FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*Invoice, error)

	// FindByIDsForTenant returns the invoices that exist among ids; missing ids are skipped
	FindByIDsForTenant(ctx context.Context, tenantID uuid.UUID, ids []uuid.UUID) ([]*Invoice, error)

	// FindAllForTenant lists invoices matching the filter
	FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter InvoiceFilter) ([]*Invoice, error)

	// CountForTenant counts invoices matching the filter
	CountForTenant(ctx context.Context, tenantID uuid.UUID, filter InvoiceFilter) (int64, error)

	// FindOutstandingByRetailer returns unpaid invoices of a retailer ordered by due date, then id
	FindOutstandingByRetailer(ctx context.Context, tenantID, retailerID uuid.UUID) ([]*Invoice, error)

	// FindOutstandingDueBy returns unpaid invoices due on or before the given date
	FindOutstandingDueBy(ctx context.Context, tenantID uuid.UUID, dueBy time.Time) ([]*Invoice, error)

	// FindRecent returns the most recently created invoices
	FindRecent(ctx context.Context, tenantID uuid.UUID, limit int) ([]*Invoice, error)

	// ExistsByRetailer reports whether any invoice references the retailer
	ExistsByRetailer(ctx context.Context, tenantID, retailerID uuid.UUID) (bool, error)

	// UpdateRetailerName rewrites the denormalised retailer name
	UpdateRetailerName(ctx context.Context, tenantID, retailerID uuid.UUID, name string) error

	// Summarize totals invoices by derived status as of today
	Summarize(ctx context.Context, tenantID uuid.UUID, today time.Time) (*InvoiceSummary, error)

	// OutstandingByRetailer returns per-retailer outstanding balances, largest first
	OutstandingByRetailer(ctx context.Context, tenantID uuid.UUID, limit int) ([]RetailerBalance, error)

	// TenantsWithInvoices lists tenants that own invoices; outstandingOnly limits it to unpaid ones
	TenantsWithInvoices(ctx context.Context, outstandingOnly bool) ([]uuid.UUID, error)

	// Save creates or updates an invoice without a version check
	Save(ctx context.Context, invoice *Invoice) error

	// SaveWithLock updates an invoice only if its stored version is one behind.
	// Returns an OPTIMISTIC_LOCK error when another writer got there first.
	SaveWithLock(ctx context.Context, invoice *Invoice) error

	// DeleteForTenant deletes an invoice within a tenant
	DeleteForTenant(ctx context.Context, tenantID, id uuid.UUID) error
}

// PaymentRepository defines the interface for payment persistence.
// Allocations are stored and loaded with their payment.
type PaymentRepository interface {
	// FindByIDForTenant finds a payment with its allocations
	FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*Payment, error)

	// FindAllForTenant lists payments matching the filter
	FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter PaymentFilter) ([]*Payment, error)

	// CountForTenant counts payments matching the filter
	CountForTenant(ctx context.Context, tenantID uuid.UUID, filter PaymentFilter) (int64, error)

	// ExistsForInvoice reports whether any payment allocation references the invoice
	ExistsForInvoice(ctx context.Context, tenantID, invoiceID uuid.UUID) (bool, error)

	// SumReceived totals payment amounts with a payment date in [from, to]
	SumReceived(ctx context.Context, tenantID uuid.UUID, from, to time.Time) (decimal.Decimal, int64, error)

	// UpdateRetailerName rewrites the denormalised retailer name
	UpdateRetailerName(ctx context.Context, tenantID, retailerID uuid.UUID, name string) error

	// Save inserts a payment together with its allocations
	Save(ctx context.Context, payment *Payment) error

	// DeleteForTenant deletes a payment and its allocations
	DeleteForTenant(ctx context.Context, tenantID, id uuid.UUID) error
}
