package ledger

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/ledgerly/backend/internal/domain/ledger"
	"github.com/ledgerly/backend/internal/domain/shared"
	"github.com/ledgerly/backend/internal/infrastructure/logger"
	"go.uber.org/zap"
)

// ServiceConfig holds the collaborators shared by the invoice and payment services
type ServiceConfig struct {
	Retailers ledger.RetailerRepository
	Invoices  ledger.InvoiceRepository
	Payments  ledger.PaymentRepository
	Guard     *AllocationGuard
	Events    shared.EventPublisher
	Clock     shared.Clock
}

func (c ServiceConfig) clock() shared.Clock {
	if c.Clock == nil {
		return shared.NewSystemClock(nil)
	}
	return c.Clock
}

// InvoiceService manages invoices
type InvoiceService struct {
	retailers ledger.RetailerRepository
	invoices  ledger.InvoiceRepository
	payments  ledger.PaymentRepository
	guard     *AllocationGuard
	events    shared.EventPublisher
	clock     shared.Clock
}

// NewInvoiceService creates a new InvoiceService
func NewInvoiceService(cfg ServiceConfig) *InvoiceService {
	return &InvoiceService{
		retailers: cfg.Retailers,
		invoices:  cfg.Invoices,
		payments:  cfg.Payments,
		guard:     cfg.Guard,
		events:    cfg.Events,
		clock:     cfg.clock(),
	}
}

func (s *InvoiceService) today() time.Time {
	return ledger.DateOf(s.clock.Now())
}

// Create issues a new invoice
func (s *InvoiceService) Create(ctx context.Context, tenantID uuid.UUID, req CreateInvoiceRequest) (*InvoiceResponse, error) {
	retailer, err := s.retailers.FindByIDForTenant(ctx, tenantID, req.RetailerID)
	if err != nil {
		return nil, translateNotFound(err, ledger.ErrRetailerNotFound)
	}

	invoice, err := ledger.NewInvoice(tenantID, retailer, ledger.InvoiceDetails{
		InvoiceName: req.InvoiceName,
		Amount:      req.Amount,
		InvoiceDate: req.InvoiceDate,
		DueDate:     req.DueDate,
	}, s.today())
	if err != nil {
		return nil, err
	}
	if req.CreatedBy != nil {
		invoice.SetCreatedBy(*req.CreatedBy)
	}

	if err := s.invoices.Save(ctx, invoice); err != nil {
		return nil, err
	}
	publishEvents(ctx, s.events, invoice)
	return toInvoiceResponse(invoice), nil
}

// GetByID gets an invoice with its status as of today
func (s *InvoiceService) GetByID(ctx context.Context, tenantID, id uuid.UUID) (*InvoiceResponse, error) {
	invoice, err := s.find(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	return toInvoiceResponse(invoice), nil
}

// List lists invoices with filtering and pagination
func (s *InvoiceService) List(ctx context.Context, tenantID uuid.UUID, filter InvoiceListFilter) ([]InvoiceResponse, int64, error) {
	domainFilter, err := s.toDomainFilter(filter)
	if err != nil {
		return nil, 0, err
	}

	invoices, err := s.invoices.FindAllForTenant(ctx, tenantID, domainFilter)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.invoices.CountForTenant(ctx, tenantID, domainFilter)
	if err != nil {
		return nil, 0, err
	}

	for _, inv := range invoices {
		inv.Refresh(domainFilter.Today)
	}
	return toInvoiceResponses(invoices), total, nil
}

func (s *InvoiceService) toDomainFilter(filter InvoiceListFilter) (ledger.InvoiceFilter, error) {
	domainFilter := ledger.InvoiceFilter{
		Filter: shared.Filter{
			Page:     filter.Page,
			PageSize: filter.PageSize,
			OrderBy:  filter.OrderBy,
			OrderDir: filter.OrderDir,
			Search:   filter.Search,
		}.Normalize(),
		RetailerID: filter.RetailerID,
		From:       filter.From,
		To:         filter.To,
		Today:      s.today(),
	}
	if filter.Status != "" {
		status := ledger.InvoiceStatus(filter.Status)
		if !status.IsValid() {
			return domainFilter, shared.NewDomainError("INVALID_STATUS", "Status must be one of due, overdue, paid")
		}
		domainFilter.Status = status
	}
	if filter.DueOp != "" || filter.DueDays != nil {
		op := ledger.DueOp(filter.DueOp)
		if !op.IsValid() || filter.DueDays == nil {
			return domainFilter, shared.NewDomainError("INVALID_DUE_FILTER", "due_op (gt, lt, eq) and due_days must be given together")
		}
		domainFilter.Due = &ledger.DueCondition{Op: op, Days: *filter.DueDays}
	}
	return domainFilter, nil
}

// Update edits an invoice. The paid amount is untouched, so the amount
// cannot drop below it.
func (s *InvoiceService) Update(ctx context.Context, tenantID, id uuid.UUID, req UpdateInvoiceRequest) (*InvoiceResponse, error) {
	current, err := s.find(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}

	var updated *ledger.Invoice
	err = s.guard.Run(ctx, tenantID, current.RetailerID, func(ctx context.Context) error {
		invoice, err := s.find(ctx, tenantID, id)
		if err != nil {
			return err
		}
		if err := invoice.Update(ledger.InvoiceDetails{
			InvoiceName: req.InvoiceName,
			Amount:      req.Amount,
			InvoiceDate: req.InvoiceDate,
			DueDate:     req.DueDate,
		}, s.today()); err != nil {
			return err
		}
		if err := s.invoices.SaveWithLock(ctx, invoice); err != nil {
			return err
		}
		updated = invoice
		return nil
	})
	if err != nil {
		return nil, err
	}

	publishEvents(ctx, s.events, updated)
	return toInvoiceResponse(updated), nil
}

// MarkAsPaid settles the remaining balance and records a payment for it
func (s *InvoiceService) MarkAsPaid(ctx context.Context, tenantID, id uuid.UUID, createdBy *uuid.UUID) (*MarkPaidResponse, error) {
	current, err := s.find(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}

	var (
		settled *ledger.Invoice
		payment *ledger.Payment
	)
	err = s.guard.Run(ctx, tenantID, current.RetailerID, func(ctx context.Context) error {
		invoice, err := s.find(ctx, tenantID, id)
		if err != nil {
			return err
		}
		retailer, err := s.retailers.FindByIDForTenant(ctx, tenantID, invoice.RetailerID)
		if err != nil {
			return translateNotFound(err, ledger.ErrRetailerNotFound)
		}

		today := s.today()
		amount, err := invoice.MarkAsPaid(today)
		if err != nil {
			return err
		}
		p, err := ledger.NewPayment(tenantID, retailer, amount, today, ledger.PaymentSourceMarkPaid, ledger.Allocations{
			{InvoiceID: invoice.ID, AmountApplied: amount},
		})
		if err != nil {
			return err
		}
		if createdBy != nil {
			p.SetCreatedBy(*createdBy)
		}

		if err := s.invoices.SaveWithLock(ctx, invoice); err != nil {
			return err
		}
		if err := s.payments.Save(ctx, p); err != nil {
			return err
		}
		settled, payment = invoice, p
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.L(ctx).Info("invoice marked as paid",
		zap.String("invoice_id", id.String()),
		zap.String("amount", payment.Amount.StringFixed(2)))
	publishEvents(ctx, s.events, settled, payment)
	return &MarkPaidResponse{
		Invoice: *toInvoiceResponse(settled),
		Payment: *toPaymentResponse(payment),
	}, nil
}

// Delete deletes an invoice that no payment allocation references
func (s *InvoiceService) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	current, err := s.find(ctx, tenantID, id)
	if err != nil {
		return err
	}
	return s.guard.Run(ctx, tenantID, current.RetailerID, func(ctx context.Context) error {
		hasPayments, err := s.payments.ExistsForInvoice(ctx, tenantID, id)
		if err != nil {
			return err
		}
		if hasPayments {
			return ledger.ErrInvoiceHasPayments
		}
		return translateNotFound(s.invoices.DeleteForTenant(ctx, tenantID, id), ledger.ErrInvoiceNotFound)
	})
}

func (s *InvoiceService) find(ctx context.Context, tenantID, id uuid.UUID) (*ledger.Invoice, error) {
	invoice, err := s.invoices.FindByIDForTenant(ctx, tenantID, id)
	if err != nil {
		return nil, translateNotFound(err, ledger.ErrInvoiceNotFound)
	}
	invoice.Refresh(s.today())
	return invoice, nil
}
