package ledger

import (
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PaymentAllocator spreads payments across a retailer's outstanding invoices,
// oldest due date first, and undoes those allocations on reversal.
//
// It works on invoices that were already fetched and mutates them in place;
// fetching, locking and persisting belong to the caller.
type PaymentAllocator struct{}

// NewPaymentAllocator creates a PaymentAllocator
func NewPaymentAllocator() *PaymentAllocator {
	return &PaymentAllocator{}
}

// SortForAllocation returns a copy of invoices ordered by (DueDate, ID)
func SortForAllocation(invoices []*Invoice) []*Invoice {
	sorted := make([]*Invoice, len(invoices))
	copy(sorted, invoices)
	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := sorted[i], sorted[j]
		if !a.DueDate.Equal(b.DueDate) {
			return a.DueDate.Before(b.DueDate)
		}
		return a.ID.String() < b.ID.String()
	})
	return sorted
}

// Plan computes the allocation of amount across invoices without touching them.
// Paid invoices in the input are ignored. Fails with ErrInvalidAmount (also
// for fractions of a cent),
// ErrInsufficientInvoices or an overpayment error; on failure nothing is planned.
func (a *PaymentAllocator) Plan(invoices []*Invoice, amount decimal.Decimal) (Allocations, error) {
	if err := CheckAmount(amount); err != nil {
		return nil, err
	}

	candidates := make([]*Invoice, 0, len(invoices))
	owedTotal := decimal.Zero
	for _, inv := range invoices {
		if inv == nil || !inv.IsOutstanding() {
			continue
		}
		candidates = append(candidates, inv)
		owedTotal = owedTotal.Add(inv.RemainingAmount())
	}
	if len(candidates) == 0 {
		return nil, ErrInsufficientInvoices
	}
	if owedTotal.LessThan(amount) {
		return nil, NewOverpaymentError(amount, owedTotal)
	}

	remaining := amount
	plan := make(Allocations, 0, len(candidates))
	for _, inv := range SortForAllocation(candidates) {
		if !remaining.IsPositive() {
			break
		}
		applied := decimal.Min(remaining, inv.RemainingAmount())
		if !applied.IsPositive() {
			continue
		}
		plan = append(plan, Allocation{InvoiceID: inv.ID, AmountApplied: applied})
		remaining = remaining.Sub(applied)
	}
	return plan, nil
}

// Allocate plans the payment, applies it to the invoices and builds the
// Payment record. Invoices are only mutated once the full amount is known to fit.
func (a *PaymentAllocator) Allocate(
	retailer *Retailer,
	invoices []*Invoice,
	amount decimal.Decimal,
	today time.Time,
) (*Payment, error) {
	if retailer == nil {
		return nil, ErrRetailerNotFound
	}
	plan, err := a.Plan(invoices, amount)
	if err != nil {
		return nil, err
	}
	if err := a.Apply(invoices, plan, today); err != nil {
		return nil, err
	}
	return NewPayment(retailer.TenantID, retailer, amount, today, PaymentSourceLumpSum, plan)
}

// Apply applies a validated allocation list to the matching invoices.
// Every referenced invoice must be present and able to absorb its entry;
// this is checked for all entries before any invoice is changed.
func (a *PaymentAllocator) Apply(invoices []*Invoice, allocations Allocations, today time.Time) error {
	byID := indexInvoices(invoices)
	requested := make(map[uuid.UUID]decimal.Decimal, len(allocations))
	for _, entry := range allocations {
		inv, ok := byID[entry.InvoiceID]
		if !ok {
			return NewInvoiceNotFoundError(entry.InvoiceID)
		}
		if err := CheckAmount(entry.AmountApplied); err != nil {
			return err
		}
		total := requested[entry.InvoiceID].Add(entry.AmountApplied)
		if total.GreaterThan(inv.RemainingAmount()) {
			return NewOverpaymentError(total, inv.RemainingAmount())
		}
		requested[entry.InvoiceID] = total
	}
	for _, entry := range allocations {
		if err := byID[entry.InvoiceID].ApplyPayment(entry.AmountApplied, today); err != nil {
			return err
		}
	}
	return nil
}

// ReversalResult describes the outcome of reversing a payment
type ReversalResult struct {
	// Restored are the invoices whose paid amount was reduced
	Restored []*Invoice
	// Missing lists one InvoiceNotFound error per allocation whose invoice no longer exists
	Missing []error
	// Clamped lists invoices whose paid amount would have gone negative
	Clamped []uuid.UUID
}

// HasWarnings reports whether the reversal skipped or clamped anything
func (r *ReversalResult) HasWarnings() bool {
	return len(r.Missing) > 0 || len(r.Clamped) > 0
}

// Reverse undoes every allocation of payment against the supplied invoices.
// A missing invoice does not stop the reversal of the remaining entries.
func (a *PaymentAllocator) Reverse(payment *Payment, invoices []*Invoice, today time.Time) *ReversalResult {
	result := &ReversalResult{}
	if payment == nil {
		return result
	}
	byID := indexInvoices(invoices)
	for _, entry := range payment.Allocations {
		inv, ok := byID[entry.InvoiceID]
		if !ok {
			result.Missing = append(result.Missing, NewInvoiceNotFoundError(entry.InvoiceID))
			continue
		}
		if inv.RevertPayment(entry.AmountApplied, today) {
			result.Clamped = append(result.Clamped, inv.ID)
		}
		result.Restored = append(result.Restored, inv)
	}
	return result
}

func indexInvoices(invoices []*Invoice) map[uuid.UUID]*Invoice {
	byID := make(map[uuid.UUID]*Invoice, len(invoices))
	for _, inv := range invoices {
		if inv != nil {
			byID[inv.ID] = inv
		}
	}
	return byID
}
