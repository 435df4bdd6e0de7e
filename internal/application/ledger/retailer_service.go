package ledger

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/ledgerly/backend/internal/domain/ledger"
	"github.com/ledgerly/backend/internal/domain/shared"
	"github.com/ledgerly/backend/internal/infrastructure/logger"
	"go.uber.org/zap"
)

// RetailerService manages retailers
type RetailerService struct {
	retailers ledger.RetailerRepository
	invoices  ledger.InvoiceRepository
	payments  ledger.PaymentRepository
	tx        shared.TransactionManager
}

// NewRetailerService creates a new RetailerService
func NewRetailerService(
	retailers ledger.RetailerRepository,
	invoices ledger.InvoiceRepository,
	payments ledger.PaymentRepository,
	tx shared.TransactionManager,
) *RetailerService {
	return &RetailerService{
		retailers: retailers,
		invoices:  invoices,
		payments:  payments,
		tx:        tx,
	}
}

// Create creates a new retailer
func (s *RetailerService) Create(ctx context.Context, tenantID uuid.UUID, req CreateRetailerRequest) (*RetailerResponse, error) {
	retailer, err := ledger.NewRetailer(tenantID, ledger.RetailerDetails{
		Name:    req.Name,
		Email:   req.Email,
		Phone:   req.Phone,
		Address: req.Address,
	})
	if err != nil {
		return nil, err
	}
	if req.CreatedBy != nil {
		retailer.SetCreatedBy(*req.CreatedBy)
	}
	if err := s.retailers.Save(ctx, retailer); err != nil {
		return nil, err
	}
	return toRetailerResponse(retailer), nil
}

// GetByID gets a retailer by ID
func (s *RetailerService) GetByID(ctx context.Context, tenantID, id uuid.UUID) (*RetailerResponse, error) {
	retailer, err := s.find(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	return toRetailerResponse(retailer), nil
}

// List lists retailers with filtering and pagination
func (s *RetailerService) List(ctx context.Context, tenantID uuid.UUID, filter RetailerListFilter) ([]RetailerResponse, int64, error) {
	domainFilter := ledger.RetailerFilter{
		Filter: shared.Filter{
			Page:     filter.Page,
			PageSize: filter.PageSize,
			OrderBy:  filter.OrderBy,
			OrderDir: filter.OrderDir,
			Search:   filter.Search,
		}.Normalize(),
	}

	retailers, err := s.retailers.FindAllForTenant(ctx, tenantID, domainFilter)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.retailers.CountForTenant(ctx, tenantID, domainFilter)
	if err != nil {
		return nil, 0, err
	}

	out := make([]RetailerResponse, len(retailers))
	for i, r := range retailers {
		out[i] = *toRetailerResponse(r)
	}
	return out, total, nil
}

// Update replaces a retailer's details. A rename is copied onto the
// retailer's invoices and payments in the same transaction.
func (s *RetailerService) Update(ctx context.Context, tenantID, id uuid.UUID, req UpdateRetailerRequest) (*RetailerResponse, error) {
	var updated *ledger.Retailer
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		retailer, err := s.find(ctx, tenantID, id)
		if err != nil {
			return err
		}
		renamed, err := retailer.Update(ledger.RetailerDetails{
			Name:    req.Name,
			Email:   req.Email,
			Phone:   req.Phone,
			Address: req.Address,
		})
		if err != nil {
			return err
		}
		if err := s.retailers.Save(ctx, retailer); err != nil {
			return err
		}
		if renamed {
			if err := s.invoices.UpdateRetailerName(ctx, tenantID, id, retailer.Name); err != nil {
				return err
			}
			if err := s.payments.UpdateRetailerName(ctx, tenantID, id, retailer.Name); err != nil {
				return err
			}
			logger.L(ctx).Info("retailer renamed",
				zap.String("retailer_id", id.String()),
				zap.String("name", retailer.Name))
		}
		updated = retailer
		return nil
	})
	if err != nil {
		return nil, err
	}
	return toRetailerResponse(updated), nil
}

// Delete deletes a retailer that has no invoices
func (s *RetailerService) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	return s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		if _, err := s.find(ctx, tenantID, id); err != nil {
			return err
		}
		hasInvoices, err := s.invoices.ExistsByRetailer(ctx, tenantID, id)
		if err != nil {
			return err
		}
		if hasInvoices {
			return ledger.ErrRetailerHasInvoices
		}
		return s.retailers.DeleteForTenant(ctx, tenantID, id)
	})
}

func (s *RetailerService) find(ctx context.Context, tenantID, id uuid.UUID) (*ledger.Retailer, error) {
	retailer, err := s.retailers.FindByIDForTenant(ctx, tenantID, id)
	if err != nil {
		return nil, translateNotFound(err, ledger.ErrRetailerNotFound)
	}
	return retailer, nil
}

// translateNotFound replaces the generic repository NOT_FOUND with a
// resource-specific error so the API reports which record is missing.
func translateNotFound(err error, replacement error) error {
	if errors.Is(err, shared.ErrNotFound) {
		return replacement
	}
	return err
}
