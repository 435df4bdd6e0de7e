package persistence

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateSortOrder(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"empty string returns DESC", "", "DESC"},
		{"asc lowercase returns ASC", "asc", "ASC"},
		{"invalid value returns DESC", "sideways", "DESC"},
		{"sql injection attempt returns DESC", "ASC; DROP TABLE invoices;--", "DESC"},
		{"whitespace around ASC returns ASC", "  asc  ", "ASC"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ValidateSortOrder(tt.input))
		})
	}
}

func TestValidateSortField(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"empty string returns default", "", "created_at"},
		{"valid field returns field", "due_date", "due_date"},
		{"derived status is not sortable", "status", "created_at"},
		{"sql injection attempt returns default", "due_date; DROP TABLE invoices;--", "created_at"},
		{"case sensitive", "DUE_DATE", "created_at"},
		{"whitespace around valid field returns field", "  amount  ", "amount"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ValidateSortField(tt.input, InvoiceSortFields, "created_at"))
		})
	}
}

func TestSortFieldsWhitelists(t *testing.T) {
	for name, whitelist := range map[string]map[string]bool{
		"RetailerSortFields":     RetailerSortFields,
		"InvoiceSortFields":      InvoiceSortFields,
		"PaymentSortFields":      PaymentSortFields,
		"NotificationSortFields": NotificationSortFields,
	} {
		t.Run(name, func(t *testing.T) {
			assert.True(t, whitelist["id"])
			assert.True(t, whitelist["created_at"])
		})
	}
}

func TestLikePattern(t *testing.T) {
	assert.Equal(t, "%acme%", likePattern("  ACME "))
	assert.Equal(t, `%50\%\_off%`, likePattern("50%_off"))
}
