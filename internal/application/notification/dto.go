package notification

import (
	"time"

	"github.com/google/uuid"
	"github.com/ledgerly/backend/internal/domain/notification"
)

// NotificationResponse represents a notification in API responses
type NotificationResponse struct {
	ID         uuid.UUID         `json:"id"`
	Type       string            `json:"type"`
	Title      string            `json:"title"`
	Message    string            `json:"message"`
	Link       string            `json:"link,omitempty"`
	Read       bool              `json:"read"`
	ReadAt     *time.Time        `json:"read_at,omitempty"`
	RetailerID *uuid.UUID        `json:"retailer_id,omitempty"`
	InvoiceID  *uuid.UUID        `json:"invoice_id,omitempty"`
	PaymentID  *uuid.UUID        `json:"payment_id,omitempty"`
	Metadata   map[string]string `json:"metadata,omitempty"`
	CreatedAt  time.Time         `json:"created_at"`
}

// CreateNotificationRequest creates a notification by hand
type CreateNotificationRequest struct {
	Type       string            `json:"type" binding:"required"`
	Title      string            `json:"title" binding:"omitempty,max=200"`
	Message    string            `json:"message" binding:"required,max=1000"`
	RetailerID *uuid.UUID        `json:"retailer_id"`
	InvoiceID  *uuid.UUID        `json:"invoice_id"`
	PaymentID  *uuid.UUID        `json:"payment_id"`
	Metadata   map[string]string `json:"metadata"`
}

// NotificationListFilter defines filtering options for notification lists
type NotificationListFilter struct {
	UnreadOnly bool   `form:"unread_only"`
	Type       string `form:"type"`
	Page       int    `form:"page"`
	PageSize   int    `form:"page_size"`
}

// DueCheckResult summarises one due-check run
type DueCheckResult struct {
	Date          time.Time `json:"date"`
	Tenants       int       `json:"tenants"`
	Ran           int       `json:"ran"`
	Skipped       int       `json:"skipped"`
	Notifications int       `json:"notifications"`
}

// WeeklySummaryResult summarises one weekly summary run
type WeeklySummaryResult struct {
	Date    time.Time `json:"date"`
	Tenants int       `json:"tenants"`
	Sent    int       `json:"sent"`
	Skipped int       `json:"skipped"`
}

func toNotificationResponse(n *notification.Notification) *NotificationResponse {
	return &NotificationResponse{
		ID:         n.ID,
		Type:       string(n.Type),
		Title:      n.Title,
		Message:    n.Message,
		Link:       n.Link,
		Read:       n.Read,
		ReadAt:     n.ReadAt,
		RetailerID: n.RetailerID,
		InvoiceID:  n.InvoiceID,
		PaymentID:  n.PaymentID,
		Metadata:   n.Metadata,
		CreatedAt:  n.CreatedAt,
	}
}
