package ledger

import (
	"time"

	"github.com/google/uuid"
	"github.com/ledgerly/backend/internal/domain/ledger"
	"github.com/shopspring/decimal"
)

// ===================== Retailers =====================

// RetailerResponse represents a retailer in API responses
type RetailerResponse struct {
	ID        uuid.UUID `json:"id"`
	TenantID  uuid.UUID `json:"tenant_id"`
	Name      string    `json:"name"`
	Email     string    `json:"email,omitempty"`
	Phone     string    `json:"phone,omitempty"`
	Address   string    `json:"address,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	Version   int       `json:"version"`
}

// CreateRetailerRequest holds the fields of a new retailer
type CreateRetailerRequest struct {
	Name      string     `json:"name" binding:"required,max=200"`
	Email     string     `json:"email" binding:"omitempty,email"`
	Phone     string     `json:"phone" binding:"omitempty,max=50"`
	Address   string     `json:"address" binding:"omitempty,max=500"`
	CreatedBy *uuid.UUID `json:"-"`
}

// UpdateRetailerRequest replaces a retailer's details
type UpdateRetailerRequest struct {
	Name    string `json:"name" binding:"required,max=200"`
	Email   string `json:"email" binding:"omitempty,email"`
	Phone   string `json:"phone" binding:"omitempty,max=50"`
	Address string `json:"address" binding:"omitempty,max=500"`
}

// RetailerListFilter defines filtering options for retailer list queries
type RetailerListFilter struct {
	Search   string `form:"search"`
	OrderBy  string `form:"order_by" binding:"omitempty,oneof=name created_at updated_at"`
	OrderDir string `form:"order_dir" binding:"omitempty,oneof=asc desc"`
	Page     int    `form:"page"`
	PageSize int    `form:"page_size"`
}

func toRetailerResponse(r *ledger.Retailer) *RetailerResponse {
	return &RetailerResponse{
		ID:        r.ID,
		TenantID:  r.TenantID,
		Name:      r.Name,
		Email:     r.Email,
		Phone:     r.Phone,
		Address:   r.Address,
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
		Version:   r.Version,
	}
}

// ===================== Invoices =====================

// InvoiceResponse represents an invoice with its derived status
type InvoiceResponse struct {
	ID              uuid.UUID       `json:"id"`
	TenantID        uuid.UUID       `json:"tenant_id"`
	RetailerID      uuid.UUID       `json:"retailer_id"`
	RetailerName    string          `json:"retailer_name"`
	InvoiceName     string          `json:"invoice_name"`
	Amount          decimal.Decimal `json:"amount"`
	PaidAmount      decimal.Decimal `json:"paid_amount"`
	RemainingAmount decimal.Decimal `json:"remaining_amount"`
	InvoiceDate     time.Time       `json:"invoice_date"`
	DueDate         time.Time       `json:"due_date"`
	Status          string          `json:"status"`
	DueDays         int             `json:"due_days"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
	Version         int             `json:"version"`
}

// CreateInvoiceRequest issues an invoice to a retailer
type CreateInvoiceRequest struct {
	RetailerID  uuid.UUID       `json:"retailer_id" binding:"required"`
	InvoiceName string          `json:"invoice_name" binding:"required,max=100"`
	Amount      decimal.Decimal `json:"amount" binding:"required"`
	InvoiceDate time.Time       `json:"invoice_date" binding:"required"`
	DueDate     time.Time       `json:"due_date" binding:"required"`
	CreatedBy   *uuid.UUID      `json:"-"`
}

// UpdateInvoiceRequest replaces an invoice's editable fields
type UpdateInvoiceRequest struct {
	InvoiceName string          `json:"invoice_name" binding:"required,max=100"`
	Amount      decimal.Decimal `json:"amount" binding:"required"`
	InvoiceDate time.Time       `json:"invoice_date" binding:"required"`
	DueDate     time.Time       `json:"due_date" binding:"required"`
}

// InvoiceListFilter defines filtering options for invoice list queries.
// DueOp and DueDays go together: "due_op=lt&due_days=0" lists overdue invoices.
type InvoiceListFilter struct {
	Search     string     `form:"search"`
	RetailerID *uuid.UUID `form:"retailer_id"`
	Status     string     `form:"status" binding:"omitempty,invoice_status"`
	From       *time.Time `form:"from" time_format:"2006-01-02"`
	To         *time.Time `form:"to" time_format:"2006-01-02"`
	DueOp      string     `form:"due_op" binding:"omitempty,due_op"`
	DueDays    *int       `form:"due_days"`
	OrderBy    string     `form:"order_by" binding:"omitempty,oneof=invoice_name amount invoice_date due_date created_at"`
	OrderDir   string     `form:"order_dir" binding:"omitempty,oneof=asc desc"`
	Page       int        `form:"page"`
	PageSize   int        `form:"page_size"`
}

func toInvoiceResponse(inv *ledger.Invoice) *InvoiceResponse {
	return &InvoiceResponse{
		ID:              inv.ID,
		TenantID:        inv.TenantID,
		RetailerID:      inv.RetailerID,
		RetailerName:    inv.RetailerName,
		InvoiceName:     inv.InvoiceName,
		Amount:          inv.Amount,
		PaidAmount:      inv.PaidAmount,
		RemainingAmount: inv.RemainingAmount(),
		InvoiceDate:     inv.InvoiceDate,
		DueDate:         inv.DueDate,
		Status:          inv.Status.String(),
		DueDays:         inv.DueDays,
		CreatedAt:       inv.CreatedAt,
		UpdatedAt:       inv.UpdatedAt,
		Version:         inv.Version,
	}
}

func toInvoiceResponses(invoices []*ledger.Invoice) []InvoiceResponse {
	out := make([]InvoiceResponse, len(invoices))
	for i, inv := range invoices {
		out[i] = *toInvoiceResponse(inv)
	}
	return out
}

// MarkPaidResponse is the settled invoice plus the payment that settled it
type MarkPaidResponse struct {
	Invoice InvoiceResponse `json:"invoice"`
	Payment PaymentResponse `json:"payment"`
}

// ===================== Payments =====================

// AllocationResponse is one entry of a payment's allocation list
type AllocationResponse struct {
	InvoiceID     uuid.UUID       `json:"invoice_id"`
	AmountApplied decimal.Decimal `json:"amount_applied"`
}

// PaymentResponse represents a payment with its allocation list
type PaymentResponse struct {
	ID           uuid.UUID            `json:"id"`
	TenantID     uuid.UUID            `json:"tenant_id"`
	RetailerID   uuid.UUID            `json:"retailer_id"`
	RetailerName string               `json:"retailer_name"`
	Amount       decimal.Decimal      `json:"amount"`
	PaymentDate  time.Time            `json:"payment_date"`
	Source       string               `json:"source"`
	Note         string               `json:"note,omitempty"`
	Allocations  []AllocationResponse `json:"allocations"`
	CreatedAt    time.Time            `json:"created_at"`
}

// AllocationRequest assigns part of a manual payment to one invoice
type AllocationRequest struct {
	InvoiceID     uuid.UUID       `json:"invoice_id" binding:"required"`
	AmountApplied decimal.Decimal `json:"amount_applied" binding:"required"`
}

// RecordPaymentRequest records a payment with a caller-chosen allocation
type RecordPaymentRequest struct {
	RetailerID  uuid.UUID           `json:"retailer_id" binding:"required"`
	Amount      decimal.Decimal     `json:"amount" binding:"required"`
	Note        string              `json:"note" binding:"omitempty,max=500"`
	Allocations []AllocationRequest `json:"allocations" binding:"required,min=1,dive"`
	CreatedBy   *uuid.UUID          `json:"-"`
}

// AllocatePaymentRequest spreads a lump sum over a retailer's unpaid invoices
type AllocatePaymentRequest struct {
	RetailerID uuid.UUID       `json:"retailer_id" binding:"required"`
	Amount     decimal.Decimal `json:"amount" binding:"required"`
	Note       string          `json:"note" binding:"omitempty,max=500"`
	CreatedBy  *uuid.UUID      `json:"-"`
}

// PaymentListFilter defines filtering options for payment list queries
type PaymentListFilter struct {
	RetailerID *uuid.UUID `form:"retailer_id"`
	InvoiceID  *uuid.UUID `form:"invoice_id"`
	From       *time.Time `form:"from" time_format:"2006-01-02"`
	To         *time.Time `form:"to" time_format:"2006-01-02"`
	OrderBy    string     `form:"order_by" binding:"omitempty,oneof=payment_date amount created_at"`
	OrderDir   string     `form:"order_dir" binding:"omitempty,oneof=asc desc"`
	Page       int        `form:"page"`
	PageSize   int        `form:"page_size"`
}

// ReversalWarning is a problem met while undoing a payment that did not stop it
type ReversalWarning struct {
	Code      string     `json:"code"`
	Message   string     `json:"message"`
	InvoiceID *uuid.UUID `json:"invoice_id,omitempty"`
}

// DeletePaymentResponse reports the reversal of a deleted payment
type DeletePaymentResponse struct {
	PaymentID        uuid.UUID         `json:"payment_id"`
	RestoredInvoices int               `json:"restored_invoices"`
	Warnings         []ReversalWarning `json:"warnings"`
}

func toPaymentResponse(p *ledger.Payment) *PaymentResponse {
	allocations := make([]AllocationResponse, len(p.Allocations))
	for i, entry := range p.Allocations {
		allocations[i] = AllocationResponse{
			InvoiceID:     entry.InvoiceID,
			AmountApplied: entry.AmountApplied,
		}
	}
	return &PaymentResponse{
		ID:           p.ID,
		TenantID:     p.TenantID,
		RetailerID:   p.RetailerID,
		RetailerName: p.RetailerName,
		Amount:       p.Amount,
		PaymentDate:  p.PaymentDate,
		Source:       string(p.Source),
		Note:         p.Note,
		Allocations:  allocations,
		CreatedAt:    p.CreatedAt,
	}
}

// ===================== Dashboard =====================

// RetailerBalanceResponse is the outstanding balance of one retailer
type RetailerBalanceResponse struct {
	RetailerID   uuid.UUID       `json:"retailer_id"`
	RetailerName string          `json:"retailer_name"`
	Outstanding  decimal.Decimal `json:"outstanding"`
	InvoiceCount int64           `json:"invoice_count"`
}

// StatusCounts counts invoices per derived status
type StatusCounts struct {
	Due     int64 `json:"due"`
	Overdue int64 `json:"overdue"`
	Paid    int64 `json:"paid"`
}

// DashboardSummaryResponse is the dashboard overview
type DashboardSummaryResponse struct {
	AsOf                time.Time                 `json:"as_of"`
	Currency            string                    `json:"currency"`
	TotalPending        decimal.Decimal           `json:"total_pending"`
	TotalOverdue        decimal.Decimal           `json:"total_overdue"`
	InvoiceCounts       StatusCounts              `json:"invoice_counts"`
	OutstandingBalances []RetailerBalanceResponse `json:"outstanding_balances"`
	RecentInvoices      []InvoiceResponse         `json:"recent_invoices"`
}
