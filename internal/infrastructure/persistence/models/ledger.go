package models

import (
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/ledgerly/backend/internal/domain/ledger"
	"github.com/shopspring/decimal"
)

// RetailerModel is the persistence model for the Retailer aggregate root.
type RetailerModel struct {
	TenantAggregateModel
	Name    string `gorm:"type:varchar(200);not null"`
	Email   string `gorm:"type:varchar(200)"`
	Phone   string `gorm:"type:varchar(50)"`
	Address string `gorm:"type:text"`
}

// TableName returns the table name for GORM
func (RetailerModel) TableName() string {
	return "retailers"
}

// ToDomain converts the persistence model to a domain Retailer
func (m *RetailerModel) ToDomain() *ledger.Retailer {
	r := &ledger.Retailer{
		Name:    m.Name,
		Email:   m.Email,
		Phone:   m.Phone,
		Address: m.Address,
	}
	m.PopulateTenantAggregateRoot(&r.TenantAggregateRoot)
	return r
}

// RetailerModelFromDomain creates a persistence model from a domain Retailer
func RetailerModelFromDomain(r *ledger.Retailer) *RetailerModel {
	m := &RetailerModel{
		Name:    r.Name,
		Email:   r.Email,
		Phone:   r.Phone,
		Address: r.Address,
	}
	m.FromDomainTenantAggregateRoot(r.TenantAggregateRoot)
	return m
}

// InvoiceModel is the persistence model for the Invoice aggregate root.
// Status and due days are derived on read and have no columns.
type InvoiceModel struct {
	TenantAggregateModel
	RetailerID   uuid.UUID       `gorm:"type:uuid;not null;index:idx_invoice_retailer_due,priority:1"`
	RetailerName string          `gorm:"type:varchar(200);not null"`
	InvoiceName  string          `gorm:"type:varchar(100);not null"`
	Amount       decimal.Decimal `gorm:"type:decimal(18,2);not null"`
	PaidAmount   decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0"`
	InvoiceDate  time.Time       `gorm:"type:date;not null"`
	DueDate      time.Time       `gorm:"type:date;not null;index:idx_invoice_retailer_due,priority:2"`
}

// TableName returns the table name for GORM
func (InvoiceModel) TableName() string {
	return "invoices"
}

// ToDomain converts the persistence model to a domain Invoice.
// The caller refreshes the derived status.
func (m *InvoiceModel) ToDomain() *ledger.Invoice {
	inv := &ledger.Invoice{
		RetailerID:   m.RetailerID,
		RetailerName: m.RetailerName,
		InvoiceName:  m.InvoiceName,
		Amount:       m.Amount,
		PaidAmount:   m.PaidAmount,
		InvoiceDate:  ledger.DateOf(m.InvoiceDate),
		DueDate:      ledger.DateOf(m.DueDate),
	}
	m.PopulateTenantAggregateRoot(&inv.TenantAggregateRoot)
	return inv
}

// InvoiceModelFromDomain creates a persistence model from a domain Invoice
func InvoiceModelFromDomain(inv *ledger.Invoice) *InvoiceModel {
	m := &InvoiceModel{
		RetailerID:   inv.RetailerID,
		RetailerName: inv.RetailerName,
		InvoiceName:  inv.InvoiceName,
		Amount:       inv.Amount,
		PaidAmount:   inv.PaidAmount,
		InvoiceDate:  ledger.DateOf(inv.InvoiceDate),
		DueDate:      ledger.DateOf(inv.DueDate),
	}
	m.FromDomainTenantAggregateRoot(inv.TenantAggregateRoot)
	return m
}

// PaymentModel is the persistence model for the Payment aggregate root
type PaymentModel struct {
	TenantAggregateModel
	RetailerID   uuid.UUID                `gorm:"type:uuid;not null;index"`
	RetailerName string                   `gorm:"type:varchar(200);not null"`
	Amount       decimal.Decimal          `gorm:"type:decimal(18,2);not null"`
	PaymentDate  time.Time                `gorm:"type:date;not null;index"`
	Source       string                   `gorm:"type:varchar(20);not null"`
	Note         string                   `gorm:"type:text"`
	Allocations  []PaymentAllocationModel `gorm:"foreignKey:PaymentID;constraint:OnDelete:CASCADE"`
}

// TableName returns the table name for GORM
func (PaymentModel) TableName() string {
	return "payments"
}

// PaymentAllocationModel is one row of a payment's allocation list.
// Position keeps the order in which the amounts were applied.
type PaymentAllocationModel struct {
	PaymentID     uuid.UUID       `gorm:"type:uuid;primaryKey"`
	InvoiceID     uuid.UUID       `gorm:"type:uuid;primaryKey;index"`
	TenantID      uuid.UUID       `gorm:"type:uuid;not null;index"`
	AmountApplied decimal.Decimal `gorm:"type:decimal(18,2);not null"`
	Position      int             `gorm:"not null"`
}

// TableName returns the table name for GORM
func (PaymentAllocationModel) TableName() string {
	return "payment_allocations"
}

// ToDomain converts the persistence model to a domain Payment
func (m *PaymentModel) ToDomain() *ledger.Payment {
	p := &ledger.Payment{
		RetailerID:   m.RetailerID,
		RetailerName: m.RetailerName,
		Amount:       m.Amount,
		PaymentDate:  ledger.DateOf(m.PaymentDate),
		Source:       ledger.PaymentSource(m.Source),
		Note:         m.Note,
		Allocations:  make(ledger.Allocations, 0, len(m.Allocations)),
	}
	m.PopulateTenantAggregateRoot(&p.TenantAggregateRoot)

	rows := make([]PaymentAllocationModel, len(m.Allocations))
	copy(rows, m.Allocations)
	sort.SliceStable(rows, func(i, j int) bool { return rows[i].Position < rows[j].Position })
	for _, row := range rows {
		p.Allocations = append(p.Allocations, ledger.Allocation{
			InvoiceID:     row.InvoiceID,
			AmountApplied: row.AmountApplied,
		})
	}
	return p
}

// PaymentModelFromDomain creates a persistence model from a domain Payment
func PaymentModelFromDomain(p *ledger.Payment) *PaymentModel {
	m := &PaymentModel{
		RetailerID:   p.RetailerID,
		RetailerName: p.RetailerName,
		Amount:       p.Amount,
		PaymentDate:  ledger.DateOf(p.PaymentDate),
		Source:       string(p.Source),
		Note:         p.Note,
		Allocations:  make([]PaymentAllocationModel, len(p.Allocations)),
	}
	m.FromDomainTenantAggregateRoot(p.TenantAggregateRoot)
	for i, entry := range p.Allocations {
		m.Allocations[i] = PaymentAllocationModel{
			PaymentID:     p.ID,
			InvoiceID:     entry.InvoiceID,
			TenantID:      p.TenantID,
			AmountApplied: entry.AmountApplied,
			Position:      i,
		}
	}
	return m
}

