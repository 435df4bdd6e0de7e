package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/ledgerly/backend/internal/domain/notification"
	"github.com/ledgerly/backend/internal/domain/shared"
	"github.com/ledgerly/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormNotificationRepository implements notification.Repository using GORM
type GormNotificationRepository struct {
	db *gorm.DB
}

// NewGormNotificationRepository creates a new GormNotificationRepository
func NewGormNotificationRepository(db *gorm.DB) *GormNotificationRepository {
	return &GormNotificationRepository{db: db}
}

// FindByIDForTenant finds a notification by ID within a tenant
func (r *GormNotificationRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*notification.Notification, error) {
	var model models.NotificationModel
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

// FindAllForTenant lists notifications for a tenant, newest first by default
func (r *GormNotificationRepository) FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter notification.Filter) ([]*notification.Notification, error) {
	var rows []models.NotificationModel
	query := applyPage(r.filtered(ctx, tenantID, filter), filter.Filter, NotificationSortFields, "created_at")
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}

	result := make([]*notification.Notification, len(rows))
	for i := range rows {
		result[i] = rows[i].ToDomain()
	}
	return result, nil
}

// CountForTenant counts notifications matching the filter
func (r *GormNotificationRepository) CountForTenant(ctx context.Context, tenantID uuid.UUID, filter notification.Filter) (int64, error) {
	var count int64
	if err := r.filtered(ctx, tenantID, filter).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *GormNotificationRepository) filtered(ctx context.Context, tenantID uuid.UUID, filter notification.Filter) *gorm.DB {
	query := conn(ctx, r.db).Model(&models.NotificationModel{}).Where("tenant_id = ?", tenantID)
	if filter.UnreadOnly {
		query = query.Where("read = ?", false)
	}
	if filter.Type != "" {
		query = query.Where("type = ?", string(filter.Type))
	}
	return query
}

// CountUnread counts unread notifications for a tenant
func (r *GormNotificationRepository) CountUnread(ctx context.Context, tenantID uuid.UUID) (int64, error) {
	return r.CountForTenant(ctx, tenantID, notification.Filter{UnreadOnly: true})
}

// Save creates or updates a notification
func (r *GormNotificationRepository) Save(ctx context.Context, n *notification.Notification) error {
	return conn(ctx, r.db).Save(models.NotificationModelFromDomain(n)).Error
}

// SaveBatch creates multiple notifications
func (r *GormNotificationRepository) SaveBatch(ctx context.Context, notifications []*notification.Notification) error {
	if len(notifications) == 0 {
		return nil
	}
	rows := make([]*models.NotificationModel, len(notifications))
	for i, n := range notifications {
		rows[i] = models.NotificationModelFromDomain(n)
	}
	return conn(ctx, r.db).CreateInBatches(rows, 100).Error
}

// MarkAllRead marks every unread notification of a tenant as read
func (r *GormNotificationRepository) MarkAllRead(ctx context.Context, tenantID uuid.UUID) (int64, error) {
	now := time.Now()
	result := conn(ctx, r.db).
		Model(&models.NotificationModel{}).
		Where("tenant_id = ? AND read = ?", tenantID, false).
		Updates(map[string]any{
			"read":       true,
			"read_at":    now,
			"updated_at": now,
			"version":    gorm.Expr("version + 1"),
		})
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}

// DeleteForTenant deletes a notification within a tenant
func (r *GormNotificationRepository) DeleteForTenant(ctx context.Context, tenantID, id uuid.UUID) error {
	result := conn(ctx, r.db).Delete(&models.NotificationModel{}, "tenant_id = ? AND id = ?", tenantID, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

var _ notification.Repository = (*GormNotificationRepository)(nil)
