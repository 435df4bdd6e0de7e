package persistence

import (
	"context"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/ledgerly/backend/internal/domain/notification"
	"github.com/ledgerly/backend/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestNotification(t *testing.T, tenantID uuid.UUID, kind notification.Type, message string) *notification.Notification {
	t.Helper()
	n, err := notification.New(tenantID, kind, message)
	require.NoError(t, err)
	return n
}

func TestGormNotificationRepository(t *testing.T) {
	db := newTestDB(t)
	repo := NewGormNotificationRepository(db)
	ctx := context.Background()
	tenantID := uuid.New()

	invoiceID := uuid.New()
	due := newTestNotification(t, tenantID, notification.TypeInvoiceDue, "Invoice INV-1 is due today").
		ForInvoice(invoiceID).
		WithMeta("due_days", "0")
	require.NoError(t, repo.SaveBatch(ctx, []*notification.Notification{
		due,
		newTestNotification(t, tenantID, notification.TypePaymentReceived, "Payment received"),
		newTestNotification(t, uuid.New(), notification.TypeInvoiceDue, "other tenant"),
	}))

	t.Run("round trips links and metadata", func(t *testing.T) {
		found, err := repo.FindByIDForTenant(ctx, tenantID, due.ID)
		require.NoError(t, err)
		assert.Equal(t, notification.TypeInvoiceDue, found.Type)
		assert.Equal(t, "Invoice Due", found.Title)
		require.NotNil(t, found.InvoiceID)
		assert.Equal(t, invoiceID, *found.InvoiceID)
		assert.Equal(t, "0", found.Metadata["due_days"])
		assert.False(t, found.Read)
	})

	t.Run("counts unread and filters by type", func(t *testing.T) {
		unread, err := repo.CountUnread(ctx, tenantID)
		require.NoError(t, err)
		assert.Equal(t, int64(2), unread)

		list, err := repo.FindAllForTenant(ctx, tenantID, notification.Filter{Type: notification.TypePaymentReceived})
		require.NoError(t, err)
		require.Len(t, list, 1)
		assert.Equal(t, "Payment received", list[0].Message)
	})

	t.Run("mark read persists", func(t *testing.T) {
		found, err := repo.FindByIDForTenant(ctx, tenantID, due.ID)
		require.NoError(t, err)
		found.MarkRead()
		require.NoError(t, repo.Save(ctx, found))

		unread, err := repo.FindAllForTenant(ctx, tenantID, notification.Filter{UnreadOnly: true})
		require.NoError(t, err)
		require.Len(t, unread, 1)
		assert.Equal(t, notification.TypePaymentReceived, unread[0].Type)
	})

	t.Run("mark all read only touches the tenant", func(t *testing.T) {
		changed, err := repo.MarkAllRead(ctx, tenantID)
		require.NoError(t, err)
		assert.Equal(t, int64(1), changed)

		unread, err := repo.CountUnread(ctx, tenantID)
		require.NoError(t, err)
		assert.Zero(t, unread)
	})

	t.Run("delete", func(t *testing.T) {
		require.NoError(t, repo.DeleteForTenant(ctx, tenantID, due.ID))
		_, err := repo.FindByIDForTenant(ctx, tenantID, due.ID)
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})
}

func TestGormNotificationRepository_CountUnreadSQL(t *testing.T) {
	gormDB, mock, mockDB := newMockDB(t)
	defer mockDB.Close()
	repo := NewGormNotificationRepository(gormDB)
	tenantID := uuid.New()

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT count(*) FROM "notifications" WHERE tenant_id = $1 AND read = $2`)).
		WithArgs(tenantID, false).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(7))

	count, err := repo.CountUnread(context.Background(), tenantID)

	require.NoError(t, err)
	assert.Equal(t, int64(7), count)
	assert.NoError(t, mock.ExpectationsWereMet())
}
