package ledger

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/ledgerly/backend/internal/domain/ledger"
	"github.com/ledgerly/backend/internal/domain/shared"
	"github.com/ledgerly/backend/internal/infrastructure/logger"
	"github.com/ledgerly/backend/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// PaymentService records payments against invoices and reverses them
type PaymentService struct {
	retailers ledger.RetailerRepository
	invoices  ledger.InvoiceRepository
	payments  ledger.PaymentRepository
	guard     *AllocationGuard
	events    shared.EventPublisher
	clock     shared.Clock
	allocator *ledger.PaymentAllocator
	metrics   *telemetry.LedgerMetrics
}

// NewPaymentService creates a new PaymentService. metrics may be nil.
func NewPaymentService(cfg ServiceConfig, metrics *telemetry.LedgerMetrics) *PaymentService {
	return &PaymentService{
		retailers: cfg.Retailers,
		invoices:  cfg.Invoices,
		payments:  cfg.Payments,
		guard:     cfg.Guard,
		events:    cfg.Events,
		clock:     cfg.clock(),
		allocator: ledger.NewPaymentAllocator(),
		metrics:   metrics,
	}
}

func (s *PaymentService) today() time.Time {
	return ledger.DateOf(s.clock.Now())
}

// Allocate applies a lump sum to the retailer's unpaid invoices, oldest due
// date first. Either the whole amount is allocated or nothing changes.
func (s *PaymentService) Allocate(ctx context.Context, tenantID uuid.UUID, req AllocatePaymentRequest) (*PaymentResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "payment", "allocate")
	defer span.End()
	telemetry.SetAttributes(span,
		telemetry.AttrTenantID, tenantID.String(),
		telemetry.AttrRetailerID, req.RetailerID.String(),
		telemetry.AttrAmount, req.Amount.String(),
	)

	if err := ledger.CheckAmount(req.Amount); err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	started := time.Now()
	var payment *ledger.Payment
	var opErr error
	telemetry.WithProfilingLabels(ctx, "allocate_payment", func(ctx context.Context) {
		opErr = s.guard.Run(ctx, tenantID, req.RetailerID, func(ctx context.Context) error {
			retailer, err := s.retailers.FindByIDForTenant(ctx, tenantID, req.RetailerID)
			if err != nil {
				return translateNotFound(err, ledger.ErrRetailerNotFound)
			}
			invoices, err := s.invoices.FindOutstandingByRetailer(ctx, tenantID, req.RetailerID)
			if err != nil {
				return err
			}

			today := s.today()
			for _, inv := range invoices {
				inv.Refresh(today)
			}
			p, err := s.allocator.Allocate(retailer, invoices, req.Amount, today)
			if err != nil {
				return err
			}
			s.prepare(p, req.Note, req.CreatedBy)
			if err := s.persist(ctx, p, invoices); err != nil {
				return err
			}
			payment = p
			return nil
		})
	})
	s.record(ctx, opErr, req.Amount.InexactFloat64(), time.Since(started))
	if opErr != nil {
		telemetry.RecordError(span, opErr)
		return nil, opErr
	}

	logger.L(ctx).Info("payment allocated",
		zap.String("payment_id", payment.ID.String()),
		zap.String("retailer_id", payment.RetailerID.String()),
		zap.String("amount", payment.Amount.StringFixed(2)),
		zap.Int("invoices", len(payment.Allocations)))
	publishEvents(ctx, s.events, payment)
	return toPaymentResponse(payment), nil
}

// Record stores a payment with an allocation chosen by the caller.
// The allocation must sum to the amount and fit what each invoice still owes.
func (s *PaymentService) Record(ctx context.Context, tenantID uuid.UUID, req RecordPaymentRequest) (*PaymentResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "payment", "record")
	defer span.End()
	telemetry.SetAttributes(span,
		telemetry.AttrTenantID, tenantID.String(),
		telemetry.AttrRetailerID, req.RetailerID.String(),
		telemetry.AttrAmount, req.Amount.String(),
	)

	if err := ledger.CheckAmount(req.Amount); err != nil {
		return nil, err
	}
	allocations := make(ledger.Allocations, len(req.Allocations))
	for i, entry := range req.Allocations {
		allocations[i] = ledger.Allocation{InvoiceID: entry.InvoiceID, AmountApplied: entry.AmountApplied}
	}
	if err := allocations.Validate(req.Amount); err != nil {
		return nil, err
	}

	started := time.Now()
	var payment *ledger.Payment
	err := s.guard.Run(ctx, tenantID, req.RetailerID, func(ctx context.Context) error {
		retailer, err := s.retailers.FindByIDForTenant(ctx, tenantID, req.RetailerID)
		if err != nil {
			return translateNotFound(err, ledger.ErrRetailerNotFound)
		}
		invoices, err := s.invoices.FindByIDsForTenant(ctx, tenantID, allocations.InvoiceIDs())
		if err != nil {
			return err
		}
		today := s.today()
		for _, inv := range invoices {
			if inv.RetailerID != req.RetailerID {
				return shared.NewDomainError(ledger.CodeInvalidAllocation,
					fmt.Sprintf("Invoice %s does not belong to retailer %s", inv.InvoiceName, retailer.Name))
			}
			inv.Refresh(today)
		}

		if err := s.allocator.Apply(invoices, allocations, today); err != nil {
			return err
		}
		p, err := ledger.NewPayment(tenantID, retailer, req.Amount, today, ledger.PaymentSourceManual, allocations)
		if err != nil {
			return err
		}
		s.prepare(p, req.Note, req.CreatedBy)
		if err := s.persist(ctx, p, invoices); err != nil {
			return err
		}
		payment = p
		return nil
	})
	s.record(ctx, err, req.Amount.InexactFloat64(), time.Since(started))
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	publishEvents(ctx, s.events, payment)
	return toPaymentResponse(payment), nil
}

// GetByID gets a payment with its allocations
func (s *PaymentService) GetByID(ctx context.Context, tenantID, id uuid.UUID) (*PaymentResponse, error) {
	payment, err := s.payments.FindByIDForTenant(ctx, tenantID, id)
	if err != nil {
		return nil, translateNotFound(err, ledger.ErrPaymentNotFound)
	}
	return toPaymentResponse(payment), nil
}

// List lists payments with filtering and pagination
func (s *PaymentService) List(ctx context.Context, tenantID uuid.UUID, filter PaymentListFilter) ([]PaymentResponse, int64, error) {
	domainFilter := ledger.PaymentFilter{
		Filter: shared.Filter{
			Page:     filter.Page,
			PageSize: filter.PageSize,
			OrderBy:  filter.OrderBy,
			OrderDir: filter.OrderDir,
		}.Normalize(),
		RetailerID: filter.RetailerID,
		InvoiceID:  filter.InvoiceID,
		From:       filter.From,
		To:         filter.To,
	}

	payments, err := s.payments.FindAllForTenant(ctx, tenantID, domainFilter)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.payments.CountForTenant(ctx, tenantID, domainFilter)
	if err != nil {
		return nil, 0, err
	}

	out := make([]PaymentResponse, len(payments))
	for i, p := range payments {
		out[i] = *toPaymentResponse(p)
	}
	return out, total, nil
}

// Delete reverses a payment's allocations and removes it. Invoices that no
// longer exist are reported as warnings and do not stop the reversal.
func (s *PaymentService) Delete(ctx context.Context, tenantID, id uuid.UUID) (*DeletePaymentResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "payment", "delete")
	defer span.End()
	telemetry.SetAttributes(span, telemetry.AttrPaymentID, id.String())

	current, err := s.payments.FindByIDForTenant(ctx, tenantID, id)
	if err != nil {
		return nil, translateNotFound(err, ledger.ErrPaymentNotFound)
	}

	var (
		deleted *ledger.Payment
		result  *ledger.ReversalResult
	)
	err = s.guard.Run(ctx, tenantID, current.RetailerID, func(ctx context.Context) error {
		payment, err := s.payments.FindByIDForTenant(ctx, tenantID, id)
		if err != nil {
			return translateNotFound(err, ledger.ErrPaymentNotFound)
		}
		invoices, err := s.invoices.FindByIDsForTenant(ctx, tenantID, payment.Allocations.InvoiceIDs())
		if err != nil {
			return err
		}

		today := s.today()
		for _, inv := range invoices {
			inv.Refresh(today)
		}
		result = s.allocator.Reverse(payment, invoices, today)
		for _, inv := range result.Restored {
			if err := s.invoices.SaveWithLock(ctx, inv); err != nil {
				return err
			}
		}
		payment.MarkDeleted()
		if err := s.payments.DeleteForTenant(ctx, tenantID, id); err != nil {
			return translateNotFound(err, ledger.ErrPaymentNotFound)
		}
		deleted = payment
		return nil
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	log := logger.L(ctx)
	for _, invoiceID := range result.Clamped {
		log.Warn("paid amount would have gone negative on reversal; clamped to zero",
			zap.String("payment_id", id.String()),
			zap.String("invoice_id", invoiceID.String()))
	}
	for _, missing := range result.Missing {
		log.Warn("invoice missing during payment reversal",
			zap.String("payment_id", id.String()),
			zap.Error(missing))
	}

	publishEvents(ctx, s.events, deleted)
	return &DeletePaymentResponse{
		PaymentID:        id,
		RestoredInvoices: len(result.Restored),
		Warnings:         toReversalWarnings(deleted, result),
	}, nil
}

func (s *PaymentService) prepare(p *ledger.Payment, note string, createdBy *uuid.UUID) {
	if note != "" {
		p.SetNote(note)
	}
	if createdBy != nil {
		p.SetCreatedBy(*createdBy)
	}
}

// persist writes every invoice the payment touched, then the payment itself
func (s *PaymentService) persist(ctx context.Context, p *ledger.Payment, invoices []*ledger.Invoice) error {
	for _, inv := range invoices {
		if !p.AppliesTo(inv.ID) {
			continue
		}
		if err := s.invoices.SaveWithLock(ctx, inv); err != nil {
			return err
		}
	}
	return s.payments.Save(ctx, p)
}

func (s *PaymentService) record(ctx context.Context, err error, amount float64, elapsed time.Duration) {
	outcome := telemetry.OutcomeAllocated
	switch shared.ErrorCode(err) {
	case "":
		if err != nil {
			outcome = telemetry.OutcomeFailed
		}
	case ledger.CodeOverpayment:
		outcome = telemetry.OutcomeOverpayment
	case shared.ErrConcurrencyConflict.Code:
		outcome = telemetry.OutcomeConflict
	default:
		outcome = telemetry.OutcomeFailed
	}
	s.metrics.RecordAllocation(ctx, outcome, amount, elapsed)
}

func toReversalWarnings(p *ledger.Payment, result *ledger.ReversalResult) []ReversalWarning {
	warnings := make([]ReversalWarning, 0, len(result.Missing)+len(result.Clamped))
	missing := make(map[uuid.UUID]struct{})
	restored := make(map[uuid.UUID]struct{}, len(result.Restored))
	for _, inv := range result.Restored {
		restored[inv.ID] = struct{}{}
	}
	for _, entry := range p.Allocations {
		if _, ok := restored[entry.InvoiceID]; !ok {
			missing[entry.InvoiceID] = struct{}{}
		}
	}
	for _, entry := range p.Allocations {
		if _, ok := missing[entry.InvoiceID]; !ok {
			continue
		}
		invoiceID := entry.InvoiceID
		warnings = append(warnings, ReversalWarning{
			Code:      ledger.CodeInvoiceNotFound,
			Message:   ledger.NewInvoiceNotFoundError(invoiceID).Message,
			InvoiceID: &invoiceID,
		})
	}
	for _, invoiceID := range result.Clamped {
		id := invoiceID
		warnings = append(warnings, ReversalWarning{
			Code:      "PAID_AMOUNT_CLAMPED",
			Message:   "Paid amount was lower than the reversed allocation and was set to zero",
			InvoiceID: &id,
		})
	}
	return warnings
}
