package report

import (
	"time"

	"github.com/google/uuid"
	"github.com/ledgerly/backend/internal/domain/ledger"
	"github.com/shopspring/decimal"
)

// Format is the file type of an exported statement
type Format string

const (
	FormatXLSX Format = "xlsx"
	FormatPDF  Format = "pdf"
)

// ContentType returns the MIME type of the format
func (f Format) ContentType() string {
	switch f {
	case FormatXLSX:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	case FormatPDF:
		return "application/pdf"
	}
	return "application/octet-stream"
}

// IsValid checks if the format is supported
func (f Format) IsValid() bool {
	return f == FormatXLSX || f == FormatPDF
}

// StatementInvoice is one invoice line of a statement
type StatementInvoice struct {
	InvoiceName string
	InvoiceDate time.Time
	DueDate     time.Time
	Amount      decimal.Decimal
	Paid        decimal.Decimal
	Remaining   decimal.Decimal
	Status      ledger.InvoiceStatus
	DueDays     int
}

// StatementPayment is one payment line of a statement
type StatementPayment struct {
	PaymentDate  time.Time
	Amount       decimal.Decimal
	Source       ledger.PaymentSource
	InvoiceCount int
	Note         string
}

// StatementTotals sums a statement's lines
type StatementTotals struct {
	Invoiced    decimal.Decimal
	Paid        decimal.Decimal
	Outstanding decimal.Decimal
	Overdue     decimal.Decimal
	Received    decimal.Decimal
}

// Statement is everything a retailer statement shows, as of Today
type Statement struct {
	TenantID     uuid.UUID
	RetailerID   uuid.UUID
	RetailerName string
	Email        string
	Phone        string
	Address      string
	Currency     string
	Today        time.Time
	GeneratedAt  time.Time
	Invoices     []StatementInvoice
	Payments     []StatementPayment
	Totals       StatementTotals
}

// FileName is the download name of the statement in format f
func (s *Statement) FileName(f Format) string {
	return "statement-" + s.RetailerID.String() + "-" + s.Today.Format("20060102") + "." + string(f)
}

func newStatement(r *ledger.Retailer, currency string, today, now time.Time) *Statement {
	return &Statement{
		TenantID:     r.TenantID,
		RetailerID:   r.ID,
		RetailerName: r.Name,
		Email:        r.Email,
		Phone:        r.Phone,
		Address:      r.Address,
		Currency:     currency,
		Today:        today,
		GeneratedAt:  now,
		Totals: StatementTotals{
			Invoiced:    decimal.Zero,
			Paid:        decimal.Zero,
			Outstanding: decimal.Zero,
			Overdue:     decimal.Zero,
			Received:    decimal.Zero,
		},
	}
}

func (s *Statement) addInvoice(inv *ledger.Invoice) {
	remaining := inv.RemainingAmount()
	s.Invoices = append(s.Invoices, StatementInvoice{
		InvoiceName: inv.InvoiceName,
		InvoiceDate: inv.InvoiceDate,
		DueDate:     inv.DueDate,
		Amount:      inv.Amount,
		Paid:        inv.PaidAmount,
		Remaining:   remaining,
		Status:      inv.Status,
		DueDays:     inv.DueDays,
	})
	s.Totals.Invoiced = s.Totals.Invoiced.Add(inv.Amount)
	s.Totals.Paid = s.Totals.Paid.Add(inv.PaidAmount)
	s.Totals.Outstanding = s.Totals.Outstanding.Add(remaining)
	if inv.Status == ledger.InvoiceStatusOverdue {
		s.Totals.Overdue = s.Totals.Overdue.Add(remaining)
	}
}

func (s *Statement) addPayment(p *ledger.Payment) {
	s.Payments = append(s.Payments, StatementPayment{
		PaymentDate:  p.PaymentDate,
		Amount:       p.Amount,
		Source:       p.Source,
		InvoiceCount: len(p.Allocations),
		Note:         p.Note,
	})
	s.Totals.Received = s.Totals.Received.Add(p.Amount)
}
