package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/ledgerly/backend/internal/domain/notification"
)

// NotificationModel is the persistence model for the Notification aggregate root
type NotificationModel struct {
	TenantAggregateModel
	Type       string     `gorm:"type:varchar(40);not null;index"`
	Title      string     `gorm:"type:varchar(100);not null"`
	Message    string     `gorm:"type:text;not null"`
	Link       string     `gorm:"type:varchar(255)"`
	Read       bool       `gorm:"not null;default:false;index"`
	ReadAt     *time.Time
	RetailerID *uuid.UUID `gorm:"type:uuid"`
	InvoiceID  *uuid.UUID `gorm:"type:uuid"`
	PaymentID  *uuid.UUID `gorm:"type:uuid"`
	Metadata   string     `gorm:"type:jsonb"`
}

// TableName returns the table name for GORM
func (NotificationModel) TableName() string {
	return "notifications"
}

// ToDomain converts the persistence model to a domain Notification
func (m *NotificationModel) ToDomain() *notification.Notification {
	n := &notification.Notification{
		Type:       notification.Type(m.Type),
		Title:      m.Title,
		Message:    m.Message,
		Link:       m.Link,
		Read:       m.Read,
		ReadAt:     m.ReadAt,
		RetailerID: m.RetailerID,
		InvoiceID:  m.InvoiceID,
		PaymentID:  m.PaymentID,
		Metadata:   map[string]string{},
	}
	m.PopulateTenantAggregateRoot(&n.TenantAggregateRoot)
	if m.Metadata != "" {
		_ = json.Unmarshal([]byte(m.Metadata), &n.Metadata)
	}
	return n
}

// NotificationModelFromDomain creates a persistence model from a domain Notification
func NotificationModelFromDomain(n *notification.Notification) *NotificationModel {
	m := &NotificationModel{
		Type:       string(n.Type),
		Title:      n.Title,
		Message:    n.Message,
		Link:       n.Link,
		Read:       n.Read,
		ReadAt:     n.ReadAt,
		RetailerID: n.RetailerID,
		InvoiceID:  n.InvoiceID,
		PaymentID:  n.PaymentID,
		Metadata:   "{}",
	}
	m.FromDomainTenantAggregateRoot(n.TenantAggregateRoot)
	if len(n.Metadata) > 0 {
		if data, err := json.Marshal(n.Metadata); err == nil {
			m.Metadata = string(data)
		}
	}
	return m
}
