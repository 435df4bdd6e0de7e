package ledger

import (
	"testing"

	"github.com/google/uuid"
	"github.com/ledgerly/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAllocations_Validate(t *testing.T) {
	a, b := uuid.New(), uuid.New()
	amount := decimal.NewFromInt(100)

	t.Run("accepts an exact split", func(t *testing.T) {
		allocs := Allocations{
			{InvoiceID: a, AmountApplied: decimal.NewFromInt(60)},
			{InvoiceID: b, AmountApplied: decimal.NewFromInt(40)},
		}
		assert.NoError(t, allocs.Validate(amount))
	})

	t.Run("sum mismatch", func(t *testing.T) {
		allocs := Allocations{{InvoiceID: a, AmountApplied: decimal.NewFromInt(99)}}
		assert.ErrorIs(t, allocs.Validate(amount), ErrAllocationMismatch)
	})

	t.Run("fraction of a cent", func(t *testing.T) {
		allocs := Allocations{
			{InvoiceID: a, AmountApplied: decimal.RequireFromString("99.995")},
			{InvoiceID: b, AmountApplied: decimal.RequireFromString("0.005")},
		}
		assert.ErrorIs(t, allocs.Validate(amount), ErrInvalidAmount)
	})

	t.Run("structural problems", func(t *testing.T) {
		cases := map[string]Allocations{
			"empty":     {},
			"nil id":    {{InvoiceID: uuid.Nil, AmountApplied: amount}},
			"zero part": {{InvoiceID: a, AmountApplied: amount}, {InvoiceID: b, AmountApplied: decimal.Zero}},
			"duplicate": {
				{InvoiceID: a, AmountApplied: decimal.NewFromInt(50)},
				{InvoiceID: a, AmountApplied: decimal.NewFromInt(50)},
			},
		}
		for name, allocs := range cases {
			t.Run(name, func(t *testing.T) {
				err := allocs.Validate(amount)
				require.Error(t, err)
				assert.Equal(t, CodeInvalidAllocation, shared.ErrorCode(err))
			})
		}
	})
}

func TestNewPayment(t *testing.T) {
	tenantID := uuid.New()
	r := newTestRetailer(t, tenantID)
	invoiceID := uuid.New()
	allocs := Allocations{{InvoiceID: invoiceID, AmountApplied: decimal.NewFromInt(25)}}

	t.Run("creates a payment and raises PaymentReceived", func(t *testing.T) {
		p, err := NewPayment(tenantID, r, decimal.NewFromInt(25), testToday, PaymentSourceManual, allocs)

		require.NoError(t, err)
		assert.Equal(t, r.ID, p.RetailerID)
		assert.Equal(t, r.Name, p.RetailerName)
		assert.True(t, p.AppliesTo(invoiceID))
		assert.False(t, p.AppliesTo(uuid.New()))

		events := p.GetDomainEvents()
		require.Len(t, events, 1)
		received, ok := events[0].(*PaymentReceivedEvent)
		require.True(t, ok)
		assert.Equal(t, 1, received.InvoiceCount)
		assert.Equal(t, PaymentSourceManual, received.Source)
	})

	t.Run("copies the allocation list", func(t *testing.T) {
		input := Allocations{{InvoiceID: invoiceID, AmountApplied: decimal.NewFromInt(25)}}
		p, err := NewPayment(tenantID, r, decimal.NewFromInt(25), testToday, PaymentSourceManual, input)
		require.NoError(t, err)

		input[0].AmountApplied = decimal.NewFromInt(1)
		assert.True(t, p.Allocations[0].AmountApplied.Equal(decimal.NewFromInt(25)))
	})

	t.Run("rejects invalid input", func(t *testing.T) {
		_, err := NewPayment(tenantID, r, decimal.Zero, testToday, PaymentSourceManual, allocs)
		assert.ErrorIs(t, err, ErrInvalidAmount)

		_, err = NewPayment(tenantID, r, decimal.NewFromInt(30), testToday, PaymentSourceManual, allocs)
		assert.ErrorIs(t, err, ErrAllocationMismatch)

		_, err = NewPayment(tenantID, r, decimal.RequireFromString("25.001"), testToday, PaymentSourceManual, allocs)
		assert.ErrorIs(t, err, ErrInvalidAmount)

		_, err = NewPayment(uuid.New(), r, decimal.NewFromInt(25), testToday, PaymentSourceManual, allocs)
		assert.ErrorIs(t, err, ErrRetailerNotFound)

		_, err = NewPayment(tenantID, r, decimal.NewFromInt(25), testToday, PaymentSource("cash"), allocs)
		assert.Error(t, err)
	})

	t.Run("deletion raises PaymentReversed", func(t *testing.T) {
		p, err := NewPayment(tenantID, r, decimal.NewFromInt(25), testToday, PaymentSourceLumpSum, allocs)
		require.NoError(t, err)
		p.ClearDomainEvents()

		p.MarkDeleted()

		require.Len(t, p.GetDomainEvents(), 1)
		assert.Equal(t, EventTypePaymentReversed, p.GetDomainEvents()[0].EventType())
	})
}

func TestRetailer(t *testing.T) {
	tenantID := uuid.New()

	t.Run("trims and validates", func(t *testing.T) {
		r, err := NewRetailer(tenantID, RetailerDetails{Name: "  Acme  ", Email: " a@acme.test "})
		require.NoError(t, err)
		assert.Equal(t, "Acme", r.Name)
		assert.Equal(t, "a@acme.test", r.Email)

		_, err = NewRetailer(tenantID, RetailerDetails{Name: "   "})
		assert.Error(t, err)

		_, err = NewRetailer(uuid.Nil, RetailerDetails{Name: "Acme"})
		assert.Error(t, err)
	})

	t.Run("update reports a rename", func(t *testing.T) {
		r, err := NewRetailer(tenantID, RetailerDetails{Name: "Acme"})
		require.NoError(t, err)

		renamed, err := r.Update(RetailerDetails{Name: "Acme", Phone: "555"})
		require.NoError(t, err)
		assert.False(t, renamed)

		renamed, err = r.Update(RetailerDetails{Name: "Acme Ltd"})
		require.NoError(t, err)
		assert.True(t, renamed)
		assert.Equal(t, 3, r.Version)
	})
}
