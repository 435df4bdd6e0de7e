package notification

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/ledgerly/backend/internal/domain/notification"
	"github.com/ledgerly/backend/internal/domain/shared"
	"github.com/ledgerly/backend/internal/infrastructure/telemetry"
)

// ErrNotificationNotFound is returned when a notification does not exist
var ErrNotificationNotFound = shared.NewDomainError("NOTIFICATION_NOT_FOUND", "Notification not found")

// NotificationService manages a tenant's notifications
type NotificationService struct {
	repo    notification.Repository
	metrics *telemetry.LedgerMetrics
}

// NewNotificationService creates a new NotificationService. metrics may be nil.
func NewNotificationService(repo notification.Repository, metrics *telemetry.LedgerMetrics) *NotificationService {
	return &NotificationService{repo: repo, metrics: metrics}
}

// Create stores a new unread notification
func (s *NotificationService) Create(ctx context.Context, tenantID uuid.UUID, req CreateNotificationRequest) (*NotificationResponse, error) {
	n, err := notification.New(tenantID, notification.Type(req.Type), req.Message)
	if err != nil {
		return nil, err
	}
	if title := strings.TrimSpace(req.Title); title != "" {
		n.Title = title
	}
	if req.RetailerID != nil {
		n.ForRetailer(*req.RetailerID)
	}
	if req.InvoiceID != nil {
		n.ForInvoice(*req.InvoiceID)
	}
	if req.PaymentID != nil {
		n.ForPayment(*req.PaymentID)
	}
	for k, v := range req.Metadata {
		n.WithMeta(k, v)
	}

	if err := s.repo.Save(ctx, n); err != nil {
		return nil, err
	}
	s.metrics.RecordNotifications(ctx, string(n.Type), 1)
	return toNotificationResponse(n), nil
}

// List lists notifications, newest first
func (s *NotificationService) List(ctx context.Context, tenantID uuid.UUID, filter NotificationListFilter) ([]NotificationResponse, int64, error) {
	domainFilter := notification.Filter{
		Filter: shared.Filter{
			Page:     filter.Page,
			PageSize: filter.PageSize,
			OrderBy:  "created_at",
			OrderDir: "desc",
		}.Normalize(),
		UnreadOnly: filter.UnreadOnly,
	}
	if filter.Type != "" {
		t := notification.Type(filter.Type)
		if !t.IsValid() {
			return nil, 0, shared.NewDomainError("INVALID_NOTIFICATION_TYPE", "Notification type is not valid")
		}
		domainFilter.Type = t
	}

	items, err := s.repo.FindAllForTenant(ctx, tenantID, domainFilter)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.repo.CountForTenant(ctx, tenantID, domainFilter)
	if err != nil {
		return nil, 0, err
	}

	out := make([]NotificationResponse, len(items))
	for i, n := range items {
		out[i] = *toNotificationResponse(n)
	}
	return out, total, nil
}

// MarkRead marks one notification as read. Already-read notifications are left as they are.
func (s *NotificationService) MarkRead(ctx context.Context, tenantID, id uuid.UUID) (*NotificationResponse, error) {
	n, err := s.repo.FindByIDForTenant(ctx, tenantID, id)
	if err != nil {
		return nil, notFound(err)
	}
	if n.Read {
		return toNotificationResponse(n), nil
	}
	n.MarkRead()
	if err := s.repo.Save(ctx, n); err != nil {
		return nil, err
	}
	return toNotificationResponse(n), nil
}

// MarkAllRead marks every unread notification as read and returns how many changed
func (s *NotificationService) MarkAllRead(ctx context.Context, tenantID uuid.UUID) (int64, error) {
	return s.repo.MarkAllRead(ctx, tenantID)
}

// UnreadCount counts unread notifications
func (s *NotificationService) UnreadCount(ctx context.Context, tenantID uuid.UUID) (int64, error) {
	return s.repo.CountUnread(ctx, tenantID)
}

// Delete removes a notification
func (s *NotificationService) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	return notFound(s.repo.DeleteForTenant(ctx, tenantID, id))
}

func notFound(err error) error {
	if errors.Is(err, shared.ErrNotFound) {
		return ErrNotificationNotFound
	}
	return err
}
