package ledger

import (
	"time"

	"github.com/google/uuid"
	"github.com/ledgerly/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// PaymentSource records how a payment entered the ledger
type PaymentSource string

const (
	// PaymentSourceLumpSum is a single amount spread oldest-due-first
	PaymentSourceLumpSum PaymentSource = "lump_sum"
	// PaymentSourceManual carries an allocation chosen by the user
	PaymentSourceManual PaymentSource = "manual"
	// PaymentSourceMarkPaid settles one invoice in full
	PaymentSourceMarkPaid PaymentSource = "mark_paid"
)

// IsValid checks if the payment source is valid
func (s PaymentSource) IsValid() bool {
	switch s {
	case PaymentSourceLumpSum, PaymentSourceManual, PaymentSourceMarkPaid:
		return true
	}
	return false
}

// Allocation is the part of a payment applied to one invoice
type Allocation struct {
	InvoiceID     uuid.UUID
	AmountApplied decimal.Decimal
}

// Allocations is an ordered allocation list
type Allocations []Allocation

// Total sums every AmountApplied
func (a Allocations) Total() decimal.Decimal {
	total := decimal.Zero
	for _, entry := range a {
		total = total.Add(entry.AmountApplied)
	}
	return total
}

// InvoiceIDs returns the referenced invoice ids in allocation order
func (a Allocations) InvoiceIDs() []uuid.UUID {
	ids := make([]uuid.UUID, len(a))
	for i, entry := range a {
		ids[i] = entry.InvoiceID
	}
	return ids
}

// Validate checks that each entry is positive, invoices are unique, and the
// list sums to amount.
func (a Allocations) Validate(amount decimal.Decimal) error {
	if len(a) == 0 {
		return shared.NewDomainError(CodeInvalidAllocation, "Payment must be applied to at least one invoice")
	}
	seen := make(map[uuid.UUID]struct{}, len(a))
	for _, entry := range a {
		if entry.InvoiceID == uuid.Nil {
			return shared.NewDomainError(CodeInvalidAllocation, "Allocation invoice ID cannot be empty")
		}
		if !entry.AmountApplied.IsPositive() {
			return shared.NewDomainError(CodeInvalidAllocation, "Allocated amount must be positive")
		}
		if err := CheckAmount(entry.AmountApplied); err != nil {
			return err
		}
		if _, dup := seen[entry.InvoiceID]; dup {
			return shared.NewDomainError(CodeInvalidAllocation, "Invoice appears more than once in allocation")
		}
		seen[entry.InvoiceID] = struct{}{}
	}
	if !a.Total().Equal(amount) {
		return ErrAllocationMismatch
	}
	return nil
}

// Payment is money received from a retailer together with how it was applied.
// A payment is created with its full allocation and is never partially allocated.
type Payment struct {
	shared.TenantAggregateRoot
	RetailerID   uuid.UUID
	RetailerName string
	Amount       decimal.Decimal
	PaymentDate  time.Time
	Source       PaymentSource
	Note         string
	Allocations  Allocations
}

// NewPayment creates a payment whose allocations sum exactly to amount
func NewPayment(
	tenantID uuid.UUID,
	retailer *Retailer,
	amount decimal.Decimal,
	paymentDate time.Time,
	source PaymentSource,
	allocations Allocations,
) (*Payment, error) {
	if retailer == nil || !retailer.BelongsTo(tenantID) {
		return nil, ErrRetailerNotFound
	}
	if err := CheckAmount(amount); err != nil {
		return nil, err
	}
	if !source.IsValid() {
		return nil, shared.NewDomainError("INVALID_SOURCE", "Payment source is not valid")
	}
	if err := allocations.Validate(amount); err != nil {
		return nil, err
	}
	if paymentDate.IsZero() {
		paymentDate = time.Now()
	}

	entries := make(Allocations, len(allocations))
	copy(entries, allocations)

	p := &Payment{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		RetailerID:          retailer.ID,
		RetailerName:        retailer.Name,
		Amount:              amount,
		PaymentDate:         DateOf(paymentDate),
		Source:              source,
		Allocations:         entries,
	}
	p.AddDomainEvent(NewPaymentReceivedEvent(p))
	return p, nil
}

// AppliesTo reports whether the payment has an allocation on invoiceID
func (p *Payment) AppliesTo(invoiceID uuid.UUID) bool {
	for _, entry := range p.Allocations {
		if entry.InvoiceID == invoiceID {
			return true
		}
	}
	return false
}

// SetNote attaches a free-text note
func (p *Payment) SetNote(note string) {
	p.Note = note
}

// MarkDeleted raises the reversal event before the payment is removed
func (p *Payment) MarkDeleted() {
	p.AddDomainEvent(NewPaymentReversedEvent(p))
}
