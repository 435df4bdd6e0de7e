package notification

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/ledgerly/backend/internal/domain/ledger"
	"github.com/ledgerly/backend/internal/domain/notification"
	"github.com/ledgerly/backend/internal/domain/shared"
	"github.com/ledgerly/backend/internal/infrastructure/cache"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var reminderToday = time.Date(2024, time.May, 20, 0, 0, 0, 0, time.UTC)

type reminderFixture struct {
	tenantID      uuid.UUID
	retailer      *ledger.Retailer
	invoices      *MockInvoiceReader
	payments      *MockPaymentReader
	notifications *MockNotificationRepository
	store         *cache.InMemoryIdempotencyStore
}

func newReminderFixture(t *testing.T) *reminderFixture {
	t.Helper()
	tenantID := uuid.New()
	retailer, err := ledger.NewRetailer(tenantID, ledger.RetailerDetails{Name: "Acme Stores"})
	require.NoError(t, err)
	store := cache.NewInMemoryIdempotencyStore()
	t.Cleanup(func() { _ = store.Close() })
	return &reminderFixture{
		tenantID:      tenantID,
		retailer:      retailer,
		invoices:      &MockInvoiceReader{},
		payments:      &MockPaymentReader{},
		notifications: new(MockNotificationRepository),
		store:         store,
	}
}

func (f *reminderFixture) service(opts ...ReminderOption) *ReminderService {
	opts = append([]ReminderOption{WithClock(shared.FixedClock(reminderToday.Add(7 * time.Hour)))}, opts...)
	return NewReminderService(f.invoices, f.payments, f.notifications, f.store, opts...)
}

func (f *reminderFixture) invoice(t *testing.T, name string, amount int64, dueIn int) *ledger.Invoice {
	t.Helper()
	due := reminderToday.AddDate(0, 0, dueIn)
	inv, err := ledger.NewInvoice(f.tenantID, f.retailer, ledger.InvoiceDetails{
		InvoiceName: name,
		Amount:      decimal.NewFromInt(amount),
		InvoiceDate: due.AddDate(0, 0, -30),
		DueDate:     due,
	}, reminderToday)
	require.NoError(t, err)
	inv.ClearDomainEvents()
	return inv
}

func TestReminderService_RunDueCheck(t *testing.T) {
	ctx := context.Background()

	t.Run("second run on the same day is skipped", func(t *testing.T) {
		f := newReminderFixture(t)
		overdue := f.invoice(t, "INV-1", 100, -3)
		f.invoices.On("FindOutstandingDueBy", mock.Anything, f.tenantID, reminderToday).
			Return([]*ledger.Invoice{overdue}, nil).Once()
		f.notifications.On("SaveBatch", mock.Anything, mock.MatchedBy(func(ns []*notification.Notification) bool {
			return len(ns) == 1 && ns[0].Type == notification.TypeInvoiceOverdue
		})).Return(nil).Once()

		opts := DueCheckOptions{TenantID: &f.tenantID}
		first, err := f.service().RunDueCheck(ctx, opts)
		require.NoError(t, err)
		assert.Equal(t, 1, first.Ran)
		assert.Equal(t, 1, first.Notifications)

		second, err := f.service().RunDueCheck(ctx, opts)
		require.NoError(t, err)
		assert.Equal(t, 0, second.Ran)
		assert.Equal(t, 1, second.Skipped)
		f.notifications.AssertNumberOfCalls(t, "SaveBatch", 1)
	})

	t.Run("force runs again", func(t *testing.T) {
		f := newReminderFixture(t)
		overdue := f.invoice(t, "INV-1", 100, -3)
		f.invoices.On("FindOutstandingDueBy", mock.Anything, f.tenantID, reminderToday).
			Return([]*ledger.Invoice{overdue}, nil)
		f.notifications.On("SaveBatch", mock.Anything, mock.Anything).Return(nil)

		_, err := f.service().RunDueCheck(ctx, DueCheckOptions{TenantID: &f.tenantID})
		require.NoError(t, err)
		result, err := f.service().RunDueCheck(ctx, DueCheckOptions{TenantID: &f.tenantID, Force: true})

		require.NoError(t, err)
		assert.Equal(t, 1, result.Ran)
		f.notifications.AssertNumberOfCalls(t, "SaveBatch", 2)
	})

	t.Run("window includes invoices due soon", func(t *testing.T) {
		f := newReminderFixture(t)
		soon := f.invoice(t, "INV-2", 80, 2)
		f.invoices.On("FindOutstandingDueBy", mock.Anything, f.tenantID, reminderToday.AddDate(0, 0, 3)).
			Return([]*ledger.Invoice{soon}, nil)
		var saved []*notification.Notification
		f.notifications.On("SaveBatch", mock.Anything, mock.Anything).
			Run(func(args mock.Arguments) { saved = args.Get(1).([]*notification.Notification) }).
			Return(nil)

		_, err := f.service(WithWindowDays(3)).RunDueCheck(ctx, DueCheckOptions{TenantID: &f.tenantID})

		require.NoError(t, err)
		require.Len(t, saved, 1)
		assert.Equal(t, notification.TypeInvoiceDue, saved[0].Type)
		assert.Contains(t, saved[0].Message, "due in 2 day(s)")
	})

	t.Run("nothing outstanding still marks the day", func(t *testing.T) {
		f := newReminderFixture(t)
		f.invoices.On("FindOutstandingDueBy", mock.Anything, f.tenantID, reminderToday).
			Return([]*ledger.Invoice{}, nil)

		result, err := f.service().RunDueCheck(ctx, DueCheckOptions{TenantID: &f.tenantID})

		require.NoError(t, err)
		assert.Equal(t, 1, result.Ran)
		assert.Zero(t, result.Notifications)
		f.notifications.AssertNotCalled(t, "SaveBatch", mock.Anything, mock.Anything)
		marked, _ := f.store.IsProcessed(ctx, DueCheckKey(f.tenantID, reminderToday))
		assert.True(t, marked)
	})

	t.Run("failure clears the marker", func(t *testing.T) {
		f := newReminderFixture(t)
		f.invoices.On("FindOutstandingDueBy", mock.Anything, f.tenantID, reminderToday).
			Return([]*ledger.Invoice{f.invoice(t, "INV-1", 100, -1)}, nil)
		f.notifications.On("SaveBatch", mock.Anything, mock.Anything).Return(errors.New("disk full"))

		_, err := f.service().RunDueCheck(ctx, DueCheckOptions{TenantID: &f.tenantID})

		assert.Error(t, err)
		marked, _ := f.store.IsProcessed(ctx, DueCheckKey(f.tenantID, reminderToday))
		assert.False(t, marked)
	})

	t.Run("one failing tenant does not stop the others", func(t *testing.T) {
		f := newReminderFixture(t)
		broken := uuid.New()
		f.invoices.On("TenantsWithInvoices", mock.Anything, true).Return([]uuid.UUID{broken, f.tenantID}, nil)
		f.invoices.On("FindOutstandingDueBy", mock.Anything, broken, reminderToday).
			Return([]*ledger.Invoice{}, errors.New("timeout"))
		f.invoices.On("FindOutstandingDueBy", mock.Anything, f.tenantID, reminderToday).
			Return([]*ledger.Invoice{f.invoice(t, "INV-1", 100, 0)}, nil)
		f.notifications.On("SaveBatch", mock.Anything, mock.Anything).Return(nil)

		result, err := f.service().RunDueCheck(ctx, DueCheckOptions{})

		require.Error(t, err)
		assert.Contains(t, err.Error(), broken.String())
		assert.Equal(t, 2, result.Tenants)
		assert.Equal(t, 1, result.Ran)
	})

	t.Run("guard outage skips the tenant", func(t *testing.T) {
		f := newReminderFixture(t)
		svc := NewReminderService(f.invoices, f.payments, f.notifications, failingGuard{},
			WithClock(shared.FixedClock(reminderToday)))

		result, err := svc.RunDueCheck(ctx, DueCheckOptions{TenantID: &f.tenantID})

		assert.Error(t, err)
		assert.Zero(t, result.Ran)
		f.invoices.AssertNotCalled(t, "FindOutstandingDueBy", mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestReminderService_SendWeeklySummaries(t *testing.T) {
	ctx := context.Background()
	f := newReminderFixture(t)
	f.invoices.On("Summarize", mock.Anything, f.tenantID, reminderToday).Return(&ledger.InvoiceSummary{
		TotalPending: decimal.NewFromInt(300),
		TotalOverdue: decimal.NewFromInt(120),
		DueCount:     2,
		OverdueCount: 1,
	}, nil)
	f.payments.On("SumReceived", mock.Anything, f.tenantID, reminderToday.AddDate(0, 0, -6), reminderToday).
		Return(decimal.NewFromInt(450), int64(3), nil)
	var saved *notification.Notification
	f.notifications.On("Save", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) { saved = args.Get(1).(*notification.Notification) }).
		Return(nil)

	result, err := f.service().SendWeeklySummaries(ctx, &f.tenantID)

	require.NoError(t, err)
	assert.Equal(t, 1, result.Sent)
	require.NotNil(t, saved)
	assert.Equal(t, notification.TypeWeeklySummary, saved.Type)
	assert.Contains(t, saved.Message, "300.00")
	assert.Contains(t, saved.Message, "from 3 payment(s)")

	again, err := f.service().SendWeeklySummaries(ctx, &f.tenantID)
	require.NoError(t, err)
	assert.Equal(t, 1, again.Skipped)
	f.notifications.AssertNumberOfCalls(t, "Save", 1)
}

func TestDueCheckKey(t *testing.T) {
	tenantID := uuid.MustParse("7a1c0b7e-8f1f-4c38-9f3e-0d6c2b1e4a55")
	assert.Equal(t, "duecheck:7a1c0b7e-8f1f-4c38-9f3e-0d6c2b1e4a55:2024-05-20", DueCheckKey(tenantID, reminderToday))
	assert.Equal(t, "weeklysummary:7a1c0b7e-8f1f-4c38-9f3e-0d6c2b1e4a55:2024-05-20", WeeklySummaryKey(tenantID, reminderToday))
}
