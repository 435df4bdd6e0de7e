package ledger

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/ledgerly/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// Ledger error codes
const (
	CodeInvalidAmount         = "INVALID_AMOUNT"
	CodeNoOutstandingInvoices = "NO_OUTSTANDING_INVOICES"
	CodeOverpayment           = "OVERPAYMENT"
	CodeInvoiceNotFound       = "INVOICE_NOT_FOUND"
	CodeRetailerNotFound      = "RETAILER_NOT_FOUND"
	CodePaymentNotFound       = "PAYMENT_NOT_FOUND"
	CodeAllocationMismatch    = "ALLOCATION_MISMATCH"
	CodeInvalidAllocation     = "INVALID_ALLOCATION"
	CodeInvalidDates          = "INVALID_DATES"
	CodeRetailerHasInvoices   = "RETAILER_HAS_INVOICES"
	CodeInvoiceHasPayments    = "INVOICE_HAS_PAYMENTS"
	CodeAlreadyPaid           = "INVOICE_ALREADY_PAID"
	CodeOptimisticLock        = "OPTIMISTIC_LOCK"
)

// Sentinels for errors.Is; matching is by code only.
var (
	ErrInvalidAmount        = shared.NewDomainError(CodeInvalidAmount, "Payment amount must be positive")
	ErrInsufficientInvoices = shared.NewDomainError(CodeNoOutstandingInvoices, "No unpaid invoices found for this retailer")
	ErrOverpayment          = shared.NewDomainError(CodeOverpayment, "Payment amount exceeds total unpaid invoices")
	ErrInvoiceNotFound      = shared.NewDomainError(CodeInvoiceNotFound, "Invoice not found")
	ErrRetailerNotFound     = shared.NewDomainError(CodeRetailerNotFound, "Retailer not found")
	ErrPaymentNotFound      = shared.NewDomainError(CodePaymentNotFound, "Payment not found")
	ErrAllocationMismatch   = shared.NewDomainError(CodeAllocationMismatch, "Payment amount does not match sum of applied amounts")
	ErrRetailerHasInvoices  = shared.NewDomainError(CodeRetailerHasInvoices, "Cannot delete retailer with existing invoices")
	ErrInvoiceHasPayments   = shared.NewDomainError(CodeInvoiceHasPayments, "Cannot delete invoice with recorded payments")
	ErrAlreadyPaid          = shared.NewDomainError(CodeAlreadyPaid, "Invoice is already fully paid")
	ErrOptimisticLock       = shared.NewDomainError(CodeOptimisticLock, "Invoice was modified by another transaction")
)

// NewOverpaymentError reports how far a payment exceeds what is owed
func NewOverpaymentError(amount, owed decimal.Decimal) *shared.DomainError {
	return shared.NewDomainError(CodeOverpayment,
		fmt.Sprintf("Payment amount %s exceeds total unpaid invoices %s", amount.StringFixed(2), owed.StringFixed(2)))
}

// NewInvoiceNotFoundError names the missing invoice
func NewInvoiceNotFoundError(invoiceID uuid.UUID) *shared.DomainError {
	return shared.NewDomainError(CodeInvoiceNotFound, fmt.Sprintf("Invoice %s not found", invoiceID))
}
