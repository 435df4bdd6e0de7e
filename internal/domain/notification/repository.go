package notification

import (
	"context"

	"github.com/google/uuid"
	"github.com/ledgerly/backend/internal/domain/shared"
)

// Filter narrows notification listings; results are newest first
type Filter struct {
	shared.Filter
	UnreadOnly bool
	Type       Type
}

// Repository defines the interface for notification persistence
type Repository interface {
	// FindByIDForTenant finds a notification by ID within a tenant
	FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*Notification, error)

	// FindAllForTenant lists notifications for a tenant
	FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter Filter) ([]*Notification, error)

	// CountForTenant counts notifications matching the filter
	CountForTenant(ctx context.Context, tenantID uuid.UUID, filter Filter) (int64, error)

	// CountUnread counts unread notifications for a tenant
	CountUnread(ctx context.Context, tenantID uuid.UUID) (int64, error)

	// Save creates or updates a notification
	Save(ctx context.Context, n *Notification) error

	// SaveBatch creates multiple notifications
	SaveBatch(ctx context.Context, notifications []*Notification) error

	// MarkAllRead marks every unread notification of a tenant as read and returns how many changed
	MarkAllRead(ctx context.Context, tenantID uuid.UUID) (int64, error)

	// DeleteForTenant deletes a notification within a tenant
	DeleteForTenant(ctx context.Context, tenantID, id uuid.UUID) error
}
