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

// Status predicates over stored columns. They mirror ledger.ComputeStatus:
// paid wins, then a due date before today means overdue.
const (
	sqlUnpaid  = "paid_amount < amount"
	sqlPaid    = "paid_amount >= amount"
	sqlOverdue = "paid_amount < amount AND due_date < ?"
	sqlDue     = "paid_amount < amount AND due_date >= ?"
)

// GormInvoiceRepository implements ledger.InvoiceRepository using GORM
type GormInvoiceRepository struct {
	db *gorm.DB
}

// NewGormInvoiceRepository creates a new GormInvoiceRepository
func NewGormInvoiceRepository(db *gorm.DB) *GormInvoiceRepository {
	return &GormInvoiceRepository{db: db}
}

// FindByIDForTenant finds an invoice by ID within a tenant
func (r *GormInvoiceRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*ledger.Invoice, error) {
	var model models.InvoiceModel
	if err := conn(ctx, r.db).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByIDsForTenant returns the invoices that exist among ids
func (r *GormInvoiceRepository) FindByIDsForTenant(ctx context.Context, tenantID uuid.UUID, ids []uuid.UUID) ([]*ledger.Invoice, error) {
	if len(ids) == 0 {
		return []*ledger.Invoice{}, nil
	}
	var invoiceModels []models.InvoiceModel
	if err := conn(ctx, r.db).
		Where("tenant_id = ? AND id IN ?", tenantID, ids).
		Order("due_date ASC, id ASC").
		Find(&invoiceModels).Error; err != nil {
		return nil, err
	}
	return toInvoices(invoiceModels), nil
}

// FindAllForTenant lists invoices matching the filter
func (r *GormInvoiceRepository) FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter ledger.InvoiceFilter) ([]*ledger.Invoice, error) {
	var invoiceModels []models.InvoiceModel
	query := applyPage(r.filtered(ctx, tenantID, filter), filter.Filter, InvoiceSortFields, "due_date")
	if err := query.Find(&invoiceModels).Error; err != nil {
		return nil, err
	}
	return toInvoices(invoiceModels), nil
}

// CountForTenant counts invoices matching the filter
func (r *GormInvoiceRepository) CountForTenant(ctx context.Context, tenantID uuid.UUID, filter ledger.InvoiceFilter) (int64, error) {
	var count int64
	if err := r.filtered(ctx, tenantID, filter).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *GormInvoiceRepository) filtered(ctx context.Context, tenantID uuid.UUID, filter ledger.InvoiceFilter) *gorm.DB {
	query := conn(ctx, r.db).Model(&models.InvoiceModel{}).Where("tenant_id = ?", tenantID)
	today := ledger.DateOf(filter.Today)

	if filter.RetailerID != nil {
		query = query.Where("retailer_id = ?", *filter.RetailerID)
	}
	switch filter.Status {
	case ledger.InvoiceStatusPaid:
		query = query.Where(sqlPaid)
	case ledger.InvoiceStatusOverdue:
		query = query.Where(sqlOverdue, today)
	case ledger.InvoiceStatusDue:
		query = query.Where(sqlDue, today)
	}
	if filter.From != nil {
		query = query.Where("invoice_date >= ?", ledger.DateOf(*filter.From))
	}
	if filter.To != nil {
		query = query.Where("invoice_date <= ?", ledger.DateOf(*filter.To))
	}
	if filter.Due != nil && filter.Due.Op.IsValid() {
		boundary := filter.Due.Boundary(today)
		switch filter.Due.Op {
		case ledger.DueOpGreater:
			query = query.Where("due_date > ?", boundary)
		case ledger.DueOpLess:
			query = query.Where("due_date < ?", boundary)
		case ledger.DueOpEqual:
			query = query.Where("due_date = ?", boundary)
		}
	}
	if filter.Search != "" {
		pattern := likePattern(filter.Search)
		query = query.Where("(LOWER(invoice_name) LIKE ? ESCAPE '\\' OR LOWER(retailer_name) LIKE ? ESCAPE '\\')", pattern, pattern)
	}
	return query
}

// FindOutstandingByRetailer returns unpaid invoices of a retailer ordered by due date, then id
func (r *GormInvoiceRepository) FindOutstandingByRetailer(ctx context.Context, tenantID, retailerID uuid.UUID) ([]*ledger.Invoice, error) {
	var invoiceModels []models.InvoiceModel
	if err := conn(ctx, r.db).
		Where("tenant_id = ? AND retailer_id = ?", tenantID, retailerID).
		Where(sqlUnpaid).
		Order("due_date ASC, id ASC").
		Find(&invoiceModels).Error; err != nil {
		return nil, err
	}
	return toInvoices(invoiceModels), nil
}

// FindOutstandingDueBy returns unpaid invoices due on or before dueBy
func (r *GormInvoiceRepository) FindOutstandingDueBy(ctx context.Context, tenantID uuid.UUID, dueBy time.Time) ([]*ledger.Invoice, error) {
	var invoiceModels []models.InvoiceModel
	if err := conn(ctx, r.db).
		Where("tenant_id = ? AND due_date <= ?", tenantID, ledger.DateOf(dueBy)).
		Where(sqlUnpaid).
		Order("retailer_name ASC, due_date ASC, id ASC").
		Find(&invoiceModels).Error; err != nil {
		return nil, err
	}
	return toInvoices(invoiceModels), nil
}

// FindRecent returns the most recently created invoices
func (r *GormInvoiceRepository) FindRecent(ctx context.Context, tenantID uuid.UUID, limit int) ([]*ledger.Invoice, error) {
	if limit <= 0 {
		limit = 5
	}
	var invoiceModels []models.InvoiceModel
	if err := conn(ctx, r.db).
		Where("tenant_id = ?", tenantID).
		Order("created_at DESC, id DESC").
		Limit(limit).
		Find(&invoiceModels).Error; err != nil {
		return nil, err
	}
	return toInvoices(invoiceModels), nil
}

// ExistsByRetailer reports whether any invoice references the retailer
func (r *GormInvoiceRepository) ExistsByRetailer(ctx context.Context, tenantID, retailerID uuid.UUID) (bool, error) {
	var count int64
	if err := conn(ctx, r.db).
		Model(&models.InvoiceModel{}).
		Where("tenant_id = ? AND retailer_id = ?", tenantID, retailerID).
		Limit(1).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// UpdateRetailerName rewrites the denormalised retailer name
func (r *GormInvoiceRepository) UpdateRetailerName(ctx context.Context, tenantID, retailerID uuid.UUID, name string) error {
	return conn(ctx, r.db).
		Model(&models.InvoiceModel{}).
		Where("tenant_id = ? AND retailer_id = ?", tenantID, retailerID).
		Update("retailer_name", name).Error
}

type summaryRow struct {
	TotalPending decimal.Decimal
	TotalOverdue decimal.Decimal
	TotalPaid    decimal.Decimal
	DueCount     int64
	OverdueCount int64
	PaidCount    int64
}

// Summarize totals invoices by derived status as of today
func (r *GormInvoiceRepository) Summarize(ctx context.Context, tenantID uuid.UUID, today time.Time) (*ledger.InvoiceSummary, error) {
	day := ledger.DateOf(today)
	var row summaryRow
	if err := conn(ctx, r.db).
		Model(&models.InvoiceModel{}).
		Select(`
			COALESCE(SUM(CASE WHEN paid_amount < amount AND due_date >= ? THEN amount - paid_amount ELSE 0 END), 0) AS total_pending,
			COALESCE(SUM(CASE WHEN paid_amount < amount AND due_date < ? THEN amount - paid_amount ELSE 0 END), 0) AS total_overdue,
			COALESCE(SUM(CASE WHEN paid_amount >= amount THEN amount ELSE 0 END), 0) AS total_paid,
			COUNT(CASE WHEN paid_amount < amount AND due_date >= ? THEN 1 END) AS due_count,
			COUNT(CASE WHEN paid_amount < amount AND due_date < ? THEN 1 END) AS overdue_count,
			COUNT(CASE WHEN paid_amount >= amount THEN 1 END) AS paid_count`,
			day, day, day, day).
		Where("tenant_id = ?", tenantID).
		Scan(&row).Error; err != nil {
		return nil, err
	}
	return &ledger.InvoiceSummary{
		TotalPending: row.TotalPending.Round(2),
		TotalOverdue: row.TotalOverdue.Round(2),
		TotalPaid:    row.TotalPaid.Round(2),
		DueCount:     row.DueCount,
		OverdueCount: row.OverdueCount,
		PaidCount:    row.PaidCount,
	}, nil
}

type balanceRow struct {
	RetailerID   uuid.UUID
	RetailerName string
	Outstanding  decimal.Decimal
	InvoiceCount int64
}

// OutstandingByRetailer returns per-retailer outstanding balances, largest first
func (r *GormInvoiceRepository) OutstandingByRetailer(ctx context.Context, tenantID uuid.UUID, limit int) ([]ledger.RetailerBalance, error) {
	var rows []balanceRow
	query := conn(ctx, r.db).
		Model(&models.InvoiceModel{}).
		Select("retailer_id, MAX(retailer_name) AS retailer_name, SUM(amount - paid_amount) AS outstanding, COUNT(*) AS invoice_count").
		Where("tenant_id = ?", tenantID).
		Where(sqlUnpaid).
		Group("retailer_id").
		Order("outstanding DESC, retailer_name ASC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Scan(&rows).Error; err != nil {
		return nil, err
	}

	balances := make([]ledger.RetailerBalance, len(rows))
	for i, row := range rows {
		balances[i] = ledger.RetailerBalance{
			RetailerID:   row.RetailerID,
			RetailerName: row.RetailerName,
			Outstanding:  row.Outstanding.Round(2),
			InvoiceCount: row.InvoiceCount,
		}
	}
	return balances, nil
}

// TenantsWithInvoices lists tenants that own invoices
func (r *GormInvoiceRepository) TenantsWithInvoices(ctx context.Context, outstandingOnly bool) ([]uuid.UUID, error) {
	query := conn(ctx, r.db).Model(&models.InvoiceModel{}).Distinct("tenant_id")
	if outstandingOnly {
		query = query.Where(sqlUnpaid)
	}
	var tenantIDs []uuid.UUID
	if err := query.Order("tenant_id").Pluck("tenant_id", &tenantIDs).Error; err != nil {
		return nil, err
	}
	return tenantIDs, nil
}

// Save creates or updates an invoice without a version check
func (r *GormInvoiceRepository) Save(ctx context.Context, invoice *ledger.Invoice) error {
	return conn(ctx, r.db).Save(models.InvoiceModelFromDomain(invoice)).Error
}

// SaveWithLock updates an invoice only if the stored version is Version-1
func (r *GormInvoiceRepository) SaveWithLock(ctx context.Context, invoice *ledger.Invoice) error {
	result := conn(ctx, r.db).
		Model(&models.InvoiceModel{}).
		Where("tenant_id = ? AND id = ? AND version = ?", invoice.TenantID, invoice.ID, invoice.Version-1).
		Updates(map[string]any{
			"invoice_name": invoice.InvoiceName,
			"amount":       invoice.Amount,
			"paid_amount":  invoice.PaidAmount,
			"invoice_date": ledger.DateOf(invoice.InvoiceDate),
			"due_date":     ledger.DateOf(invoice.DueDate),
			"version":      invoice.Version,
			"updated_at":   invoice.UpdatedAt,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ledger.ErrOptimisticLock
	}
	return nil
}

// DeleteForTenant deletes an invoice within a tenant
func (r *GormInvoiceRepository) DeleteForTenant(ctx context.Context, tenantID, id uuid.UUID) error {
	result := conn(ctx, r.db).Delete(&models.InvoiceModel{}, "tenant_id = ? AND id = ?", tenantID, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func toInvoices(invoiceModels []models.InvoiceModel) []*ledger.Invoice {
	invoices := make([]*ledger.Invoice, len(invoiceModels))
	for i := range invoiceModels {
		invoices[i] = invoiceModels[i].ToDomain()
	}
	return invoices
}

var _ ledger.InvoiceRepository = (*GormInvoiceRepository)(nil)
