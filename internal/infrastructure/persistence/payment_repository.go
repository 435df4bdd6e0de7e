package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/ledgerly/backend/internal/domain/ledger"
	"github.com/ledgerly/backend/internal/domain/shared"
	"github.com/ledgerly/backend/internal/infrastructure/persistence/models"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// GormPaymentRepository implements ledger.PaymentRepository using GORM.
// Allocation rows live in payment_allocations and are written and read with
// their payment.
type GormPaymentRepository struct {
	db *gorm.DB
}

// NewGormPaymentRepository creates a new GormPaymentRepository
func NewGormPaymentRepository(db *gorm.DB) *GormPaymentRepository {
	return &GormPaymentRepository{db: db}
}

func preloadAllocations(db *gorm.DB) *gorm.DB {
	return db.Order("position ASC")
}

// FindByIDForTenant finds a payment with its allocations
func (r *GormPaymentRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*ledger.Payment, error) {
	var model models.PaymentModel
	if err := conn(ctx, r.db).
		Preload("Allocations", preloadAllocations).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindAllForTenant lists payments matching the filter
func (r *GormPaymentRepository) FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter ledger.PaymentFilter) ([]*ledger.Payment, error) {
	var paymentModels []models.PaymentModel
	query := applyPage(r.filtered(ctx, tenantID, filter), filter.Filter, PaymentSortFields, "payment_date")
	if err := query.Preload("Allocations", preloadAllocations).Find(&paymentModels).Error; err != nil {
		return nil, err
	}

	payments := make([]*ledger.Payment, len(paymentModels))
	for i := range paymentModels {
		payments[i] = paymentModels[i].ToDomain()
	}
	return payments, nil
}

// CountForTenant counts payments matching the filter
func (r *GormPaymentRepository) CountForTenant(ctx context.Context, tenantID uuid.UUID, filter ledger.PaymentFilter) (int64, error) {
	var count int64
	if err := r.filtered(ctx, tenantID, filter).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *GormPaymentRepository) filtered(ctx context.Context, tenantID uuid.UUID, filter ledger.PaymentFilter) *gorm.DB {
	db := conn(ctx, r.db)
	query := db.Model(&models.PaymentModel{}).Where("tenant_id = ?", tenantID)
	if filter.RetailerID != nil {
		query = query.Where("retailer_id = ?", *filter.RetailerID)
	}
	if filter.InvoiceID != nil {
		query = query.Where("id IN (?)",
			db.Model(&models.PaymentAllocationModel{}).
				Select("payment_id").
				Where("tenant_id = ? AND invoice_id = ?", tenantID, *filter.InvoiceID))
	}
	if filter.From != nil {
		query = query.Where("payment_date >= ?", ledger.DateOf(*filter.From))
	}
	if filter.To != nil {
		query = query.Where("payment_date <= ?", ledger.DateOf(*filter.To))
	}
	if filter.Search != "" {
		pattern := likePattern(filter.Search)
		query = query.Where("(LOWER(retailer_name) LIKE ? ESCAPE '\\' OR LOWER(note) LIKE ? ESCAPE '\\')", pattern, pattern)
	}
	return query
}

// ExistsForInvoice reports whether any payment allocation references the invoice
func (r *GormPaymentRepository) ExistsForInvoice(ctx context.Context, tenantID, invoiceID uuid.UUID) (bool, error) {
	var count int64
	if err := conn(ctx, r.db).
		Model(&models.PaymentAllocationModel{}).
		Where("tenant_id = ? AND invoice_id = ?", tenantID, invoiceID).
		Limit(1).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

type receivedRow struct {
	Total decimal.Decimal
	Count int64
}

// SumReceived totals payment amounts with a payment date in [from, to]
func (r *GormPaymentRepository) SumReceived(ctx context.Context, tenantID uuid.UUID, from, to time.Time) (decimal.Decimal, int64, error) {
	var row receivedRow
	if err := conn(ctx, r.db).
		Model(&models.PaymentModel{}).
		Select("COALESCE(SUM(amount), 0) AS total, COUNT(*) AS count").
		Where("tenant_id = ? AND payment_date >= ? AND payment_date <= ?", tenantID, ledger.DateOf(from), ledger.DateOf(to)).
		Scan(&row).Error; err != nil {
		return decimal.Zero, 0, err
	}
	return row.Total.Round(2), row.Count, nil
}

// UpdateRetailerName rewrites the denormalised retailer name
func (r *GormPaymentRepository) UpdateRetailerName(ctx context.Context, tenantID, retailerID uuid.UUID, name string) error {
	return conn(ctx, r.db).
		Model(&models.PaymentModel{}).
		Where("tenant_id = ? AND retailer_id = ?", tenantID, retailerID).
		Update("retailer_name", name).Error
}

// Save inserts a payment together with its allocations
func (r *GormPaymentRepository) Save(ctx context.Context, payment *ledger.Payment) error {
	return conn(ctx, r.db).Create(models.PaymentModelFromDomain(payment)).Error
}

// DeleteForTenant deletes a payment and its allocations
func (r *GormPaymentRepository) DeleteForTenant(ctx context.Context, tenantID, id uuid.UUID) error {
	return conn(ctx, r.db).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("tenant_id = ? AND payment_id = ?", tenantID, id).
			Delete(&models.PaymentAllocationModel{}).Error; err != nil {
			return err
		}
		result := tx.Delete(&models.PaymentModel{}, "tenant_id = ? AND id = ?", tenantID, id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return shared.ErrNotFound
		}
		return nil
	})
}

var _ ledger.PaymentRepository = (*GormPaymentRepository)(nil)
