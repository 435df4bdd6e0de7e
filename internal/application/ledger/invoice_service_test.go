package ledger

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/ledgerly/backend/internal/domain/ledger"
	"github.com/ledgerly/backend/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestInvoiceService_Create(t *testing.T) {
	ctx := context.Background()

	t.Run("computes status and publishes creation", func(t *testing.T) {
		f := newLedgerFixture(t)
		userID := uuid.New()
		f.retailers.On("FindByIDForTenant", mock.Anything, f.tenantID, f.retailer.ID).Return(f.retailer, nil)
		f.invoices.On("Save", mock.Anything, mock.AnythingOfType("*ledger.Invoice")).Return(nil)

		svc := NewInvoiceService(f.config())
		resp, err := svc.Create(ctx, f.tenantID, CreateInvoiceRequest{
			RetailerID:  f.retailer.ID,
			InvoiceName: "INV-2024-001",
			Amount:      dec(120),
			InvoiceDate: fixtureToday.AddDate(0, 0, -40),
			DueDate:     fixtureToday.AddDate(0, 0, -2),
			CreatedBy:   &userID,
		})

		require.NoError(t, err)
		assert.Equal(t, "overdue", resp.Status)
		assert.Equal(t, -2, resp.DueDays)
		assert.Equal(t, "Acme Stores", resp.RetailerName)
		assert.True(t, dec(120).Equal(resp.RemainingAmount))
		assert.Equal(t, []string{ledger.EventTypeInvoiceCreated}, f.events.types())
	})

	t.Run("unknown retailer", func(t *testing.T) {
		f := newLedgerFixture(t)
		f.retailers.On("FindByIDForTenant", mock.Anything, f.tenantID, mock.Anything).Return(nil, shared.ErrNotFound)

		svc := NewInvoiceService(f.config())
		_, err := svc.Create(ctx, f.tenantID, CreateInvoiceRequest{
			RetailerID:  uuid.New(),
			InvoiceName: "INV-1",
			Amount:      dec(10),
			InvoiceDate: fixtureToday,
			DueDate:     fixtureToday,
		})

		assert.ErrorIs(t, err, ledger.ErrRetailerNotFound)
		f.invoices.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
	})

	t.Run("due date before invoice date", func(t *testing.T) {
		f := newLedgerFixture(t)
		f.retailers.On("FindByIDForTenant", mock.Anything, f.tenantID, f.retailer.ID).Return(f.retailer, nil)

		svc := NewInvoiceService(f.config())
		_, err := svc.Create(ctx, f.tenantID, CreateInvoiceRequest{
			RetailerID:  f.retailer.ID,
			InvoiceName: "INV-1",
			Amount:      dec(10),
			InvoiceDate: fixtureToday,
			DueDate:     fixtureToday.AddDate(0, 0, -1),
		})

		assert.Equal(t, ledger.CodeInvalidDates, shared.ErrorCode(err))
	})
}

func TestInvoiceService_List(t *testing.T) {
	ctx := context.Background()

	t.Run("passes derived filters with today", func(t *testing.T) {
		f := newLedgerFixture(t)
		inv := f.invoice(t, "INV-1", 100, -1)
		days := 0

		matchFilter := mock.MatchedBy(func(filter ledger.InvoiceFilter) bool {
			return filter.Status == ledger.InvoiceStatusOverdue &&
				filter.Due != nil && filter.Due.Op == ledger.DueOpLess && filter.Due.Days == 0 &&
				filter.Today.Equal(fixtureToday)
		})
		f.invoices.On("FindAllForTenant", mock.Anything, f.tenantID, matchFilter).Return([]*ledger.Invoice{inv}, nil)
		f.invoices.On("CountForTenant", mock.Anything, f.tenantID, matchFilter).Return(int64(1), nil)

		svc := NewInvoiceService(f.config())
		out, total, err := svc.List(ctx, f.tenantID, InvoiceListFilter{Status: "overdue", DueOp: "lt", DueDays: &days})

		require.NoError(t, err)
		assert.Equal(t, int64(1), total)
		require.Len(t, out, 1)
		assert.Equal(t, "overdue", out[0].Status)
	})

	t.Run("due_op needs due_days", func(t *testing.T) {
		f := newLedgerFixture(t)
		svc := NewInvoiceService(f.config())

		_, _, err := svc.List(ctx, f.tenantID, InvoiceListFilter{DueOp: "gt"})

		assert.Equal(t, "INVALID_DUE_FILTER", shared.ErrorCode(err))
	})

	t.Run("unknown status", func(t *testing.T) {
		f := newLedgerFixture(t)
		svc := NewInvoiceService(f.config())

		_, _, err := svc.List(ctx, f.tenantID, InvoiceListFilter{Status: "pending"})

		assert.Equal(t, "INVALID_STATUS", shared.ErrorCode(err))
	})
}

func TestInvoiceService_GetByID(t *testing.T) {
	f := newLedgerFixture(t)
	inv := f.invoice(t, "INV-1", 100, 0)
	// Loaded invoices carry a stale snapshot until refreshed.
	inv.Status, inv.DueDays = ledger.InvoiceStatusOverdue, -99

	f.invoices.On("FindByIDForTenant", mock.Anything, f.tenantID, inv.ID).Return(inv, nil)
	f.invoices.On("FindByIDForTenant", mock.Anything, f.tenantID, mock.Anything).Return(nil, shared.ErrNotFound)

	svc := NewInvoiceService(f.config())

	resp, err := svc.GetByID(context.Background(), f.tenantID, inv.ID)
	require.NoError(t, err)
	assert.Equal(t, "due", resp.Status)
	assert.Equal(t, 0, resp.DueDays)

	_, err = svc.GetByID(context.Background(), f.tenantID, uuid.New())
	assert.ErrorIs(t, err, ledger.ErrInvoiceNotFound)
}

func TestInvoiceService_Update(t *testing.T) {
	ctx := context.Background()

	t.Run("saves with version check under the retailer lock", func(t *testing.T) {
		f := newLedgerFixture(t)
		inv := f.invoice(t, "INV-1", 100, 2)
		f.invoices.On("FindByIDForTenant", mock.Anything, f.tenantID, inv.ID).Return(inv, nil)
		f.invoices.On("SaveWithLock", mock.Anything, inv).Return(nil)

		svc := NewInvoiceService(f.config())
		resp, err := svc.Update(ctx, f.tenantID, inv.ID, UpdateInvoiceRequest{
			InvoiceName: "INV-1b",
			Amount:      dec(150),
			InvoiceDate: fixtureToday.AddDate(0, 0, -10),
			DueDate:     fixtureToday.AddDate(0, 0, -1),
		})

		require.NoError(t, err)
		assert.Equal(t, "INV-1b", resp.InvoiceName)
		assert.Equal(t, "overdue", resp.Status)
		assert.Equal(t, []string{AllocationLockKey(f.tenantID, f.retailer.ID)}, f.locker.keys)
		assert.Equal(t, []string{ledger.EventTypeInvoiceUpdated}, f.events.types())
	})

	t.Run("amount cannot drop below paid", func(t *testing.T) {
		f := newLedgerFixture(t)
		inv := f.paidInvoice(t, "INV-1", 100, 70, 2)
		f.invoices.On("FindByIDForTenant", mock.Anything, f.tenantID, inv.ID).Return(inv, nil)

		svc := NewInvoiceService(f.config())
		_, err := svc.Update(ctx, f.tenantID, inv.ID, UpdateInvoiceRequest{
			InvoiceName: "INV-1",
			Amount:      dec(50),
			InvoiceDate: fixtureToday,
			DueDate:     fixtureToday,
		})

		assert.ErrorIs(t, err, ledger.ErrInvalidAmount)
		f.invoices.AssertNotCalled(t, "SaveWithLock", mock.Anything, mock.Anything)
	})
}

func TestInvoiceService_MarkAsPaid(t *testing.T) {
	ctx := context.Background()

	t.Run("records a payment for the remaining balance", func(t *testing.T) {
		f := newLedgerFixture(t)
		inv := f.paidInvoice(t, "INV-1", 100, 30, -4)
		f.invoices.On("FindByIDForTenant", mock.Anything, f.tenantID, inv.ID).Return(inv, nil)
		f.retailers.On("FindByIDForTenant", mock.Anything, f.tenantID, f.retailer.ID).Return(f.retailer, nil)
		f.invoices.On("SaveWithLock", mock.Anything, inv).Return(nil)

		var saved *ledger.Payment
		f.payments.On("Save", mock.Anything, mock.AnythingOfType("*ledger.Payment")).
			Run(func(args mock.Arguments) { saved = args.Get(1).(*ledger.Payment) }).
			Return(nil)

		svc := NewInvoiceService(f.config())
		resp, err := svc.MarkAsPaid(ctx, f.tenantID, inv.ID, nil)

		require.NoError(t, err)
		assert.Equal(t, "paid", resp.Invoice.Status)
		assert.True(t, resp.Invoice.RemainingAmount.IsZero())
		assert.True(t, dec(70).Equal(resp.Payment.Amount))
		assert.Equal(t, "mark_paid", resp.Payment.Source)
		require.NotNil(t, saved)
		assert.True(t, saved.AppliesTo(inv.ID))
		assert.Equal(t, []string{ledger.EventTypePaymentReceived}, f.events.types())
	})

	t.Run("already paid", func(t *testing.T) {
		f := newLedgerFixture(t)
		inv := f.paidInvoice(t, "INV-1", 100, 100, -4)
		f.invoices.On("FindByIDForTenant", mock.Anything, f.tenantID, inv.ID).Return(inv, nil)
		f.retailers.On("FindByIDForTenant", mock.Anything, f.tenantID, f.retailer.ID).Return(f.retailer, nil)

		svc := NewInvoiceService(f.config())
		_, err := svc.MarkAsPaid(ctx, f.tenantID, inv.ID, nil)

		assert.ErrorIs(t, err, ledger.ErrAlreadyPaid)
		f.payments.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
	})
}

func TestInvoiceService_Delete(t *testing.T) {
	ctx := context.Background()

	t.Run("blocked by payments", func(t *testing.T) {
		f := newLedgerFixture(t)
		inv := f.invoice(t, "INV-1", 100, 2)
		f.invoices.On("FindByIDForTenant", mock.Anything, f.tenantID, inv.ID).Return(inv, nil)
		f.payments.On("ExistsForInvoice", mock.Anything, f.tenantID, inv.ID).Return(true, nil)

		svc := NewInvoiceService(f.config())
		err := svc.Delete(ctx, f.tenantID, inv.ID)

		assert.ErrorIs(t, err, ledger.ErrInvoiceHasPayments)
		f.invoices.AssertNotCalled(t, "DeleteForTenant", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("deletes an unreferenced invoice", func(t *testing.T) {
		f := newLedgerFixture(t)
		inv := f.invoice(t, "INV-1", 100, 2)
		f.invoices.On("FindByIDForTenant", mock.Anything, f.tenantID, inv.ID).Return(inv, nil)
		f.payments.On("ExistsForInvoice", mock.Anything, f.tenantID, inv.ID).Return(false, nil)
		f.invoices.On("DeleteForTenant", mock.Anything, f.tenantID, inv.ID).Return(nil)

		svc := NewInvoiceService(f.config())
		require.NoError(t, svc.Delete(ctx, f.tenantID, inv.ID))
		f.invoices.AssertExpectations(t)
	})
}

func TestDashboardService_Summary(t *testing.T) {
	f := newLedgerFixture(t)
	recent := f.invoice(t, "INV-9", 40, -1)
	summary := &ledger.InvoiceSummary{
		TotalPending: dec(300),
		TotalOverdue: dec(40),
		TotalPaid:    dec(500),
		DueCount:     2,
		OverdueCount: 1,
		PaidCount:    4,
	}
	f.invoices.On("Summarize", mock.Anything, f.tenantID, fixtureToday).Return(summary, nil)
	f.invoices.On("OutstandingByRetailer", mock.Anything, f.tenantID, balanceRetailerLimit).Return([]ledger.RetailerBalance{
		{RetailerID: f.retailer.ID, RetailerName: "Acme Stores", Outstanding: dec(340), InvoiceCount: 3},
	}, nil)
	f.invoices.On("FindRecent", mock.Anything, f.tenantID, recentInvoiceLimit).Return([]*ledger.Invoice{recent}, nil)

	svc := NewDashboardService(f.invoices,
		WithDashboardClock(shared.FixedClock(fixtureToday.Add(23*time.Hour))),
		WithCurrency("EUR"),
	)
	resp, err := svc.Summary(context.Background(), f.tenantID)

	require.NoError(t, err)
	assert.Equal(t, "EUR", resp.Currency)
	assert.True(t, dec(300).Equal(resp.TotalPending))
	assert.True(t, dec(40).Equal(resp.TotalOverdue))
	assert.Equal(t, StatusCounts{Due: 2, Overdue: 1, Paid: 4}, resp.InvoiceCounts)
	require.Len(t, resp.OutstandingBalances, 1)
	assert.Equal(t, int64(3), resp.OutstandingBalances[0].InvoiceCount)
	require.Len(t, resp.RecentInvoices, 1)
	assert.Equal(t, "overdue", resp.RecentInvoices[0].Status)
}
