package ledger

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/ledgerly/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

const maxInvoiceNameLength = 100

// Invoice is an amount a retailer owes, due on a calendar date.
//
// Only Amount, PaidAmount, InvoiceDate and DueDate are state. Status and
// DueDays are a snapshot of ComputeStatus taken by the last Refresh and are
// recomputed on every mutation and every load.
type Invoice struct {
	shared.TenantAggregateRoot
	RetailerID   uuid.UUID
	RetailerName string
	InvoiceName  string
	Amount       decimal.Decimal
	PaidAmount   decimal.Decimal
	InvoiceDate  time.Time
	DueDate      time.Time

	Status  InvoiceStatus
	DueDays int
}

// InvoiceDetails holds the editable fields of an invoice
type InvoiceDetails struct {
	InvoiceName string
	Amount      decimal.Decimal
	InvoiceDate time.Time
	DueDate     time.Time
}

func (d InvoiceDetails) normalize() (InvoiceDetails, error) {
	d.InvoiceName = strings.TrimSpace(d.InvoiceName)
	if d.InvoiceName == "" {
		return d, shared.NewDomainError("INVALID_INVOICE_NAME", "Invoice name cannot be empty")
	}
	if len(d.InvoiceName) > maxInvoiceNameLength {
		return d, shared.NewDomainError("INVALID_INVOICE_NAME", "Invoice name cannot exceed 100 characters")
	}
	if d.Amount.LessThanOrEqual(decimal.Zero) {
		return d, shared.NewDomainError(CodeInvalidAmount, "Invoice amount must be positive")
	}
	if d.InvoiceDate.IsZero() || d.DueDate.IsZero() {
		return d, shared.NewDomainError(CodeInvalidDates, "Invoice date and due date are required")
	}
	d.Amount = d.Amount.Round(MoneyScale)
	d.InvoiceDate = DateOf(d.InvoiceDate)
	d.DueDate = DateOf(d.DueDate)
	if d.DueDate.Before(d.InvoiceDate) {
		return d, shared.NewDomainError(CodeInvalidDates, "Due date cannot be before invoice date")
	}
	return d, nil
}

// NewInvoice issues a new unpaid invoice to a retailer
func NewInvoice(tenantID uuid.UUID, retailer *Retailer, details InvoiceDetails, today time.Time) (*Invoice, error) {
	if retailer == nil || retailer.ID == uuid.Nil {
		return nil, ErrRetailerNotFound
	}
	if !retailer.BelongsTo(tenantID) {
		return nil, ErrRetailerNotFound
	}
	d, err := details.normalize()
	if err != nil {
		return nil, err
	}

	inv := &Invoice{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		RetailerID:          retailer.ID,
		RetailerName:        retailer.Name,
		InvoiceName:         d.InvoiceName,
		Amount:              d.Amount,
		PaidAmount:          decimal.Zero,
		InvoiceDate:         d.InvoiceDate,
		DueDate:             d.DueDate,
	}
	inv.Refresh(today)
	inv.AddDomainEvent(NewInvoiceCreatedEvent(inv))
	return inv, nil
}

// Refresh recomputes Status and DueDays against today
func (i *Invoice) Refresh(today time.Time) {
	i.Status, i.DueDays = ComputeStatus(i.DueDate, i.Amount, i.PaidAmount, today)
}

// RemainingAmount is always Amount minus PaidAmount
func (i *Invoice) RemainingAmount() decimal.Decimal {
	return i.Amount.Sub(i.PaidAmount)
}

// IsOutstanding reports whether any amount is still owed
func (i *Invoice) IsOutstanding() bool {
	return i.PaidAmount.LessThan(i.Amount)
}

// ApplyPayment adds amount to the paid total. The amount must be positive
// and no larger than what is still owed.
func (i *Invoice) ApplyPayment(amount decimal.Decimal, today time.Time) error {
	if err := CheckAmount(amount); err != nil {
		return err
	}
	if remaining := i.RemainingAmount(); amount.GreaterThan(remaining) {
		return shared.NewDomainError(CodeOverpayment,
			fmt.Sprintf("Amount %s exceeds remaining %s on invoice %s",
				amount.StringFixed(2), remaining.StringFixed(2), i.InvoiceName))
	}
	i.PaidAmount = i.PaidAmount.Add(amount)
	i.touch(today)
	return nil
}

// RevertPayment subtracts a previously applied amount. PaidAmount never goes
// below zero; clamped is true when the subtraction had to be cut short, which
// means the stored paid total was already inconsistent.
func (i *Invoice) RevertPayment(amount decimal.Decimal, today time.Time) (clamped bool) {
	paid := i.PaidAmount.Sub(amount)
	if paid.IsNegative() {
		paid = decimal.Zero
		clamped = true
	}
	i.PaidAmount = paid
	i.touch(today)
	return clamped
}

// Update edits the invoice. The amount cannot drop below what has been paid.
func (i *Invoice) Update(details InvoiceDetails, today time.Time) error {
	d, err := details.normalize()
	if err != nil {
		return err
	}
	if d.Amount.LessThan(i.PaidAmount) {
		return shared.NewDomainError(CodeInvalidAmount,
			fmt.Sprintf("Invoice amount cannot be less than the paid amount %s", i.PaidAmount.StringFixed(2)))
	}
	i.InvoiceName = d.InvoiceName
	i.Amount = d.Amount
	i.InvoiceDate = d.InvoiceDate
	i.DueDate = d.DueDate
	i.touch(today)
	i.AddDomainEvent(NewInvoiceUpdatedEvent(i))
	return nil
}

// MarkAsPaid settles the remaining balance and returns the amount settled
func (i *Invoice) MarkAsPaid(today time.Time) (decimal.Decimal, error) {
	remaining := i.RemainingAmount()
	if !remaining.IsPositive() {
		return decimal.Zero, ErrAlreadyPaid
	}
	if err := i.ApplyPayment(remaining, today); err != nil {
		return decimal.Zero, err
	}
	return remaining, nil
}

// SetRetailerName refreshes the denormalised retailer name
func (i *Invoice) SetRetailerName(name string) {
	i.RetailerName = name
}

func (i *Invoice) touch(today time.Time) {
	i.Refresh(today)
	i.Changed(time.Now().UTC())
}
