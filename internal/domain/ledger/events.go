package ledger

import (
	"time"

	"github.com/google/uuid"
	"github.com/ledgerly/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// Event type names
const (
	EventTypeInvoiceCreated  = "InvoiceCreated"
	EventTypeInvoiceUpdated  = "InvoiceUpdated"
	EventTypePaymentReceived = "PaymentReceived"
	EventTypePaymentReversed = "PaymentReversed"
)

// InvoiceCreatedEvent is raised when an invoice is issued
type InvoiceCreatedEvent struct {
	shared.BaseDomainEvent
	InvoiceID    uuid.UUID       `json:"invoice_id"`
	InvoiceName  string          `json:"invoice_name"`
	RetailerID   uuid.UUID       `json:"retailer_id"`
	RetailerName string          `json:"retailer_name"`
	Amount       decimal.Decimal `json:"amount"`
	DueDate      time.Time       `json:"due_date"`
}

// NewInvoiceCreatedEvent creates a new InvoiceCreatedEvent
func NewInvoiceCreatedEvent(inv *Invoice) *InvoiceCreatedEvent {
	return &InvoiceCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeInvoiceCreated, "Invoice", inv.ID, inv.TenantID),
		InvoiceID:       inv.ID,
		InvoiceName:     inv.InvoiceName,
		RetailerID:      inv.RetailerID,
		RetailerName:    inv.RetailerName,
		Amount:          inv.Amount,
		DueDate:         inv.DueDate,
	}
}

// InvoiceUpdatedEvent is raised when an invoice is edited
type InvoiceUpdatedEvent struct {
	shared.BaseDomainEvent
	InvoiceID    uuid.UUID       `json:"invoice_id"`
	InvoiceName  string          `json:"invoice_name"`
	RetailerID   uuid.UUID       `json:"retailer_id"`
	RetailerName string          `json:"retailer_name"`
	Amount       decimal.Decimal `json:"amount"`
	DueDate      time.Time       `json:"due_date"`
	Status       InvoiceStatus   `json:"status"`
}

// NewInvoiceUpdatedEvent creates a new InvoiceUpdatedEvent
func NewInvoiceUpdatedEvent(inv *Invoice) *InvoiceUpdatedEvent {
	return &InvoiceUpdatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeInvoiceUpdated, "Invoice", inv.ID, inv.TenantID),
		InvoiceID:       inv.ID,
		InvoiceName:     inv.InvoiceName,
		RetailerID:      inv.RetailerID,
		RetailerName:    inv.RetailerName,
		Amount:          inv.Amount,
		DueDate:         inv.DueDate,
		Status:          inv.Status,
	}
}

// PaymentReceivedEvent is raised when a payment is recorded
type PaymentReceivedEvent struct {
	shared.BaseDomainEvent
	PaymentID    uuid.UUID       `json:"payment_id"`
	RetailerID   uuid.UUID       `json:"retailer_id"`
	RetailerName string          `json:"retailer_name"`
	Amount       decimal.Decimal `json:"amount"`
	Source       PaymentSource   `json:"source"`
	InvoiceCount int             `json:"invoice_count"`
}

// NewPaymentReceivedEvent creates a new PaymentReceivedEvent
func NewPaymentReceivedEvent(p *Payment) *PaymentReceivedEvent {
	return &PaymentReceivedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypePaymentReceived, "Payment", p.ID, p.TenantID),
		PaymentID:       p.ID,
		RetailerID:      p.RetailerID,
		RetailerName:    p.RetailerName,
		Amount:          p.Amount,
		Source:          p.Source,
		InvoiceCount:    len(p.Allocations),
	}
}

// PaymentReversedEvent is raised when a payment is deleted and its allocation undone
type PaymentReversedEvent struct {
	shared.BaseDomainEvent
	PaymentID  uuid.UUID       `json:"payment_id"`
	RetailerID uuid.UUID       `json:"retailer_id"`
	Amount     decimal.Decimal `json:"amount"`
}

// NewPaymentReversedEvent creates a new PaymentReversedEvent
func NewPaymentReversedEvent(p *Payment) *PaymentReversedEvent {
	return &PaymentReversedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypePaymentReversed, "Payment", p.ID, p.TenantID),
		PaymentID:       p.ID,
		RetailerID:      p.RetailerID,
		Amount:          p.Amount,
	}
}
