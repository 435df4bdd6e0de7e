package ledger

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/ledgerly/backend/internal/domain/shared"
)

const maxRetailerNameLength = 200

// Retailer is a customer the tenant invoices. It groups invoices and payments
// and carries contact details only.
type Retailer struct {
	shared.TenantAggregateRoot
	Name    string
	Email   string
	Phone   string
	Address string
}

// RetailerDetails holds the mutable fields of a retailer
type RetailerDetails struct {
	Name    string
	Email   string
	Phone   string
	Address string
}

func (d RetailerDetails) normalize() (RetailerDetails, error) {
	d.Name = strings.TrimSpace(d.Name)
	d.Email = strings.TrimSpace(d.Email)
	d.Phone = strings.TrimSpace(d.Phone)
	d.Address = strings.TrimSpace(d.Address)
	if d.Name == "" {
		return d, shared.NewDomainError("INVALID_NAME", "Retailer name cannot be empty")
	}
	if len(d.Name) > maxRetailerNameLength {
		return d, shared.NewDomainError("INVALID_NAME", "Retailer name cannot exceed 200 characters")
	}
	return d, nil
}

// NewRetailer creates a new retailer for a tenant
func NewRetailer(tenantID uuid.UUID, details RetailerDetails) (*Retailer, error) {
	if tenantID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_TENANT", "Tenant ID cannot be empty")
	}
	d, err := details.normalize()
	if err != nil {
		return nil, err
	}
	return &Retailer{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		Name:                d.Name,
		Email:               d.Email,
		Phone:               d.Phone,
		Address:             d.Address,
	}, nil
}

// Update replaces the retailer's details. It reports whether the name changed,
// since invoices and payments carry a copy of it.
func (r *Retailer) Update(details RetailerDetails) (renamed bool, err error) {
	d, err := details.normalize()
	if err != nil {
		return false, err
	}
	renamed = d.Name != r.Name
	r.Name = d.Name
	r.Email = d.Email
	r.Phone = d.Phone
	r.Address = d.Address
	r.Changed(time.Now().UTC())
	return renamed, nil
}
