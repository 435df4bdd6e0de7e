package ledger

import (
	"math"
	"time"

	"github.com/shopspring/decimal"
)

// InvoiceStatus represents the lifecycle status of an invoice.
// It is always derived from (amount, paidAmount, dueDate, today) and never
// trusted once any of those inputs change.
type InvoiceStatus string

const (
	InvoiceStatusDue     InvoiceStatus = "due"
	InvoiceStatusOverdue InvoiceStatus = "overdue"
	InvoiceStatusPaid    InvoiceStatus = "paid"
)

// IsValid checks if the status is a valid InvoiceStatus
func (s InvoiceStatus) IsValid() bool {
	switch s {
	case InvoiceStatusDue, InvoiceStatusOverdue, InvoiceStatusPaid:
		return true
	}
	return false
}

// String returns the string representation of InvoiceStatus
func (s InvoiceStatus) String() string {
	return string(s)
}

// IsOutstanding returns true for statuses that can still receive payments
func (s InvoiceStatus) IsOutstanding() bool {
	return s == InvoiceStatusDue || s == InvoiceStatusOverdue
}

const day = 24 * time.Hour

// DateOf truncates t to midnight UTC of its calendar date in t's own location.
// Comparing two DateOf values gives calendar-day granularity regardless of
// wall-clock time or DST shifts.
func DateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// DueDays returns the signed number of calendar days from today to dueDate.
// Positive means the due date is in the future, zero means due today.
func DueDays(dueDate, today time.Time) int {
	diff := DateOf(dueDate).Sub(DateOf(today))
	return int(math.Ceil(float64(diff) / float64(day)))
}

// ComputeStatus derives an invoice status and its due-day offset.
// A fully paid invoice is paid regardless of its due date; an unpaid one due
// today is still due, not overdue.
func ComputeStatus(dueDate time.Time, amount, paidAmount decimal.Decimal, today time.Time) (InvoiceStatus, int) {
	dueDays := DueDays(dueDate, today)
	switch {
	case paidAmount.GreaterThanOrEqual(amount):
		return InvoiceStatusPaid, dueDays
	case dueDays < 0:
		return InvoiceStatusOverdue, dueDays
	default:
		return InvoiceStatusDue, dueDays
	}
}
