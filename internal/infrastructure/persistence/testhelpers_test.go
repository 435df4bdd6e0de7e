package persistence

import (
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/ledgerly/backend/internal/domain/ledger"
	"github.com/ledgerly/backend/internal/infrastructure/config"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

var testToday = time.Date(2024, time.June, 10, 0, 0, 0, 0, time.UTC)

// newTestDB opens an in-memory sqlite database with the ledger schema
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	database, err := NewDatabase(&config.DatabaseConfig{Driver: "sqlite", Path: ":memory:"})
	require.NoError(t, err)
	require.NoError(t, AutoMigrate(database.DB))
	t.Cleanup(func() { _ = database.Close() })
	return database.DB
}

// newMockDB creates a postgres-dialect gorm DB backed by sqlmock
func newMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)

	gormDB, err := gorm.Open(postgres.New(postgres.Config{
		Conn:       mockDB,
		DriverName: "postgres",
	}), &gorm.Config{SkipDefaultTransaction: true})
	require.NoError(t, err)

	return gormDB, mock, mockDB
}

func seedRetailer(t *testing.T, repo *GormRetailerRepository, tenantID uuid.UUID, name string) *ledger.Retailer {
	t.Helper()
	r, err := ledger.NewRetailer(tenantID, ledger.RetailerDetails{
		Name:  name,
		Email: name + "@example.com",
		Phone: "555-0100",
	})
	require.NoError(t, err)
	require.NoError(t, repo.Save(t.Context(), r))
	return r
}

func seedInvoice(t *testing.T, repo *GormInvoiceRepository, r *ledger.Retailer, name string, amount, paid int64, dueIn int) *ledger.Invoice {
	t.Helper()
	due := testToday.AddDate(0, 0, dueIn)
	inv, err := ledger.NewInvoice(r.TenantID, r, ledger.InvoiceDetails{
		InvoiceName: name,
		Amount:      decimal.NewFromInt(amount),
		InvoiceDate: due.AddDate(0, 0, -30),
		DueDate:     due,
	}, testToday)
	require.NoError(t, err)
	inv.PaidAmount = decimal.NewFromInt(paid)
	require.NoError(t, repo.Save(t.Context(), inv))
	return inv
}
