package notification

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/ledgerly/backend/internal/domain/shared"
)

// Type classifies a notification
type Type string

const (
	TypeInvoiceDue             Type = "invoice_due"
	TypeInvoiceOverdue         Type = "invoice_overdue"
	TypeMultipleInvoiceDue     Type = "multiple_invoice_due"
	TypeMultipleInvoiceOverdue Type = "multiple_invoice_overdue"
	TypePaymentReceived        Type = "payment_received"
	TypeInvoiceCreated         Type = "invoice_created"
	TypeInvoiceUpdated         Type = "invoice_updated"
	TypeWeeklySummary          Type = "weekly_summary"
)

var titles = map[Type]string{
	TypeInvoiceDue:             "Invoice Due",
	TypeInvoiceOverdue:         "Invoice Overdue",
	TypeMultipleInvoiceDue:     "Multiple Invoices Due",
	TypeMultipleInvoiceOverdue: "Multiple Invoices Overdue",
	TypePaymentReceived:        "Payment Received",
	TypeInvoiceCreated:         "New Invoice Created",
	TypeInvoiceUpdated:         "Invoice Updated",
	TypeWeeklySummary:          "Weekly Summary Report",
}

// IsValid checks if the type is known
func (t Type) IsValid() bool {
	_, ok := titles[t]
	return ok
}

// Title returns the default title shown for the type
func (t Type) Title() string {
	return titles[t]
}

// AllTypes returns every notification type
func AllTypes() []Type {
	return []Type{
		TypeInvoiceDue,
		TypeInvoiceOverdue,
		TypeMultipleInvoiceDue,
		TypeMultipleInvoiceOverdue,
		TypePaymentReceived,
		TypeInvoiceCreated,
		TypeInvoiceUpdated,
		TypeWeeklySummary,
	}
}

// Notification is an in-app message for a tenant's users
type Notification struct {
	shared.TenantAggregateRoot
	Type       Type
	Title      string
	Message    string
	Link       string
	Read       bool
	ReadAt     *time.Time
	RetailerID *uuid.UUID
	InvoiceID  *uuid.UUID
	PaymentID  *uuid.UUID
	Metadata   map[string]string
}

// New creates an unread notification with the type's default title
func New(tenantID uuid.UUID, notificationType Type, message string) (*Notification, error) {
	if tenantID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_TENANT", "Tenant ID cannot be empty")
	}
	if !notificationType.IsValid() {
		return nil, shared.NewDomainError("INVALID_NOTIFICATION_TYPE", "Notification type is not valid")
	}
	message = strings.TrimSpace(message)
	if message == "" {
		return nil, shared.NewDomainError("INVALID_MESSAGE", "Notification message cannot be empty")
	}
	return &Notification{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		Type:                notificationType,
		Title:               notificationType.Title(),
		Message:             message,
		Metadata:            map[string]string{},
	}, nil
}

// ForRetailer links the notification to a retailer page
func (n *Notification) ForRetailer(retailerID uuid.UUID) *Notification {
	n.RetailerID = &retailerID
	n.Link = "/retailers/" + retailerID.String()
	return n
}

// ForInvoice links the notification to an invoice page
func (n *Notification) ForInvoice(invoiceID uuid.UUID) *Notification {
	n.InvoiceID = &invoiceID
	n.Link = "/invoices/" + invoiceID.String()
	return n
}

// ForPayment links the notification to a payment page
func (n *Notification) ForPayment(paymentID uuid.UUID) *Notification {
	n.PaymentID = &paymentID
	n.Link = "/payments/" + paymentID.String()
	return n
}

// WithMeta adds a metadata entry
func (n *Notification) WithMeta(key, value string) *Notification {
	if n.Metadata == nil {
		n.Metadata = map[string]string{}
	}
	n.Metadata[key] = value
	return n
}

// MarkRead marks the notification as read. Marking twice is a no-op.
func (n *Notification) MarkRead() {
	if n.Read {
		return
	}
	now := time.Now()
	n.Read = true
	n.ReadAt = &now
	n.Changed(now)
}
