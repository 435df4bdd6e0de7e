package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/ledgerly/backend/internal/domain/ledger"
	"github.com/ledgerly/backend/internal/domain/shared"
	"github.com/ledgerly/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormRetailerRepository implements ledger.RetailerRepository using GORM
type GormRetailerRepository struct {
	db *gorm.DB
}

// NewGormRetailerRepository creates a new GormRetailerRepository
func NewGormRetailerRepository(db *gorm.DB) *GormRetailerRepository {
	return &GormRetailerRepository{db: db}
}

// FindByIDForTenant finds a retailer by ID within a tenant
func (r *GormRetailerRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*ledger.Retailer, error) {
	var model models.RetailerModel
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

// FindAllForTenant lists retailers for a tenant
func (r *GormRetailerRepository) FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter ledger.RetailerFilter) ([]*ledger.Retailer, error) {
	var retailerModels []models.RetailerModel
	query := r.filtered(ctx, tenantID, filter)
	query = applyPage(query, filter.Filter, RetailerSortFields, "name")

	if err := query.Find(&retailerModels).Error; err != nil {
		return nil, err
	}

	retailers := make([]*ledger.Retailer, len(retailerModels))
	for i := range retailerModels {
		retailers[i] = retailerModels[i].ToDomain()
	}
	return retailers, nil
}

// CountForTenant counts retailers matching the filter
func (r *GormRetailerRepository) CountForTenant(ctx context.Context, tenantID uuid.UUID, filter ledger.RetailerFilter) (int64, error) {
	var count int64
	if err := r.filtered(ctx, tenantID, filter).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *GormRetailerRepository) filtered(ctx context.Context, tenantID uuid.UUID, filter ledger.RetailerFilter) *gorm.DB {
	query := conn(ctx, r.db).Model(&models.RetailerModel{}).Where("tenant_id = ?", tenantID)
	if filter.Search != "" {
		pattern := likePattern(filter.Search)
		query = query.Where(
			"(LOWER(name) LIKE ? ESCAPE '\\' OR LOWER(email) LIKE ? ESCAPE '\\' OR LOWER(phone) LIKE ? ESCAPE '\\')",
			pattern, pattern, pattern,
		)
	}
	return query
}

// Save creates or updates a retailer
func (r *GormRetailerRepository) Save(ctx context.Context, retailer *ledger.Retailer) error {
	return conn(ctx, r.db).Save(models.RetailerModelFromDomain(retailer)).Error
}

// DeleteForTenant deletes a retailer within a tenant
func (r *GormRetailerRepository) DeleteForTenant(ctx context.Context, tenantID, id uuid.UUID) error {
	result := conn(ctx, r.db).Delete(&models.RetailerModel{}, "tenant_id = ? AND id = ?", tenantID, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

var _ ledger.RetailerRepository = (*GormRetailerRepository)(nil)
