package notification

import (
	"context"
	"fmt"
	"strconv"

	"github.com/ledgerly/backend/internal/domain/ledger"
	"github.com/ledgerly/backend/internal/domain/notification"
	"github.com/ledgerly/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// LedgerEventHandler turns invoice and payment events into notifications
type LedgerEventHandler struct {
	repo   notification.Repository
	money  *ledger.MoneyFormatter
	logger *zap.Logger
}

// NewLedgerEventHandler creates a new handler for ledger events
func NewLedgerEventHandler(repo notification.Repository, money *ledger.MoneyFormatter, logger *zap.Logger) *LedgerEventHandler {
	if money == nil {
		money = ledger.DefaultMoneyFormatter()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LedgerEventHandler{repo: repo, money: money, logger: logger}
}

// EventTypes returns the event types this handler is interested in
func (h *LedgerEventHandler) EventTypes() []string {
	return []string{
		ledger.EventTypeInvoiceCreated,
		ledger.EventTypeInvoiceUpdated,
		ledger.EventTypePaymentReceived,
	}
}

// Handle stores one notification for the event
func (h *LedgerEventHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	var (
		n   *notification.Notification
		err error
	)
	switch e := event.(type) {
	case *ledger.InvoiceCreatedEvent:
		n, err = h.invoiceCreated(e)
	case *ledger.InvoiceUpdatedEvent:
		n, err = h.invoiceUpdated(e)
	case *ledger.PaymentReceivedEvent:
		n, err = h.paymentReceived(e)
	default:
		h.logger.Error("unexpected event type", zap.String("actual", event.EventType()))
		return fmt.Errorf("unexpected event type: %s", event.EventType())
	}
	if err != nil {
		return err
	}

	if err := h.repo.Save(ctx, n); err != nil {
		h.logger.Error("failed to store notification",
			zap.String("event_type", event.EventType()),
			zap.String("event_id", event.EventID().String()),
			zap.Error(err))
		return fmt.Errorf("failed to store notification: %w", err)
	}
	h.logger.Debug("notification stored",
		zap.String("type", string(n.Type)),
		zap.String("event_id", event.EventID().String()))
	return nil
}

func (h *LedgerEventHandler) invoiceCreated(e *ledger.InvoiceCreatedEvent) (*notification.Notification, error) {
	n, err := notification.New(e.TenantID(), notification.TypeInvoiceCreated,
		fmt.Sprintf("Invoice %s for %s was created (%s, due %s).",
			e.InvoiceName, e.RetailerName, h.money.Format(e.Amount), e.DueDate.Format("2006-01-02")))
	if err != nil {
		return nil, err
	}
	n.RetailerID = &e.RetailerID
	return n.ForInvoice(e.InvoiceID).
		WithMeta("amount", e.Amount.StringFixed(2)), nil
}

func (h *LedgerEventHandler) invoiceUpdated(e *ledger.InvoiceUpdatedEvent) (*notification.Notification, error) {
	n, err := notification.New(e.TenantID(), notification.TypeInvoiceUpdated,
		fmt.Sprintf("Invoice %s for %s was updated (%s, %s).",
			e.InvoiceName, e.RetailerName, h.money.Format(e.Amount), e.Status))
	if err != nil {
		return nil, err
	}
	n.RetailerID = &e.RetailerID
	return n.ForInvoice(e.InvoiceID).
		WithMeta("status", e.Status.String()), nil
}

func (h *LedgerEventHandler) paymentReceived(e *ledger.PaymentReceivedEvent) (*notification.Notification, error) {
	n, err := notification.New(e.TenantID(), notification.TypePaymentReceived,
		fmt.Sprintf("Payment of %s received from %s, applied to %d invoice(s).",
			h.money.Format(e.Amount), e.RetailerName, e.InvoiceCount))
	if err != nil {
		return nil, err
	}
	n.RetailerID = &e.RetailerID
	return n.ForPayment(e.PaymentID).
		WithMeta("amount", e.Amount.StringFixed(2)).
		WithMeta("source", string(e.Source)).
		WithMeta("invoice_count", strconv.Itoa(e.InvoiceCount)), nil
}
