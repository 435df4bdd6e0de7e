package ledger

import (
	"context"

	"github.com/google/uuid"
	"github.com/ledgerly/backend/internal/domain/ledger"
	"github.com/ledgerly/backend/internal/domain/shared"
)

const (
	recentInvoiceLimit   = 5
	balanceRetailerLimit = 10
)

// DashboardService computes the dashboard overview
type DashboardService struct {
	invoices ledger.InvoiceRepository
	clock    shared.Clock
	currency string
}

// DashboardOption configures a DashboardService
type DashboardOption func(*DashboardService)

// WithDashboardClock overrides the clock used to evaluate statuses
func WithDashboardClock(clock shared.Clock) DashboardOption {
	return func(s *DashboardService) {
		if clock != nil {
			s.clock = clock
		}
	}
}

// WithCurrency sets the ISO currency code reported with the totals
func WithCurrency(code string) DashboardOption {
	return func(s *DashboardService) {
		if code != "" {
			s.currency = code
		}
	}
}

// NewDashboardService creates a new DashboardService
func NewDashboardService(invoices ledger.InvoiceRepository, opts ...DashboardOption) *DashboardService {
	s := &DashboardService{
		invoices: invoices,
		clock:    shared.NewSystemClock(nil),
		currency: ledger.DefaultCurrency,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Summary returns totals by status, per-retailer balances and the latest invoices
func (s *DashboardService) Summary(ctx context.Context, tenantID uuid.UUID) (*DashboardSummaryResponse, error) {
	today := ledger.DateOf(s.clock.Now())

	summary, err := s.invoices.Summarize(ctx, tenantID, today)
	if err != nil {
		return nil, err
	}
	balances, err := s.invoices.OutstandingByRetailer(ctx, tenantID, balanceRetailerLimit)
	if err != nil {
		return nil, err
	}
	recent, err := s.invoices.FindRecent(ctx, tenantID, recentInvoiceLimit)
	if err != nil {
		return nil, err
	}
	for _, inv := range recent {
		inv.Refresh(today)
	}

	balanceResponses := make([]RetailerBalanceResponse, len(balances))
	for i, b := range balances {
		balanceResponses[i] = RetailerBalanceResponse{
			RetailerID:   b.RetailerID,
			RetailerName: b.RetailerName,
			Outstanding:  b.Outstanding,
			InvoiceCount: b.InvoiceCount,
		}
	}

	return &DashboardSummaryResponse{
		AsOf:         today,
		Currency:     s.currency,
		TotalPending: summary.TotalPending,
		TotalOverdue: summary.TotalOverdue,
		InvoiceCounts: StatusCounts{
			Due:     summary.DueCount,
			Overdue: summary.OverdueCount,
			Paid:    summary.PaidCount,
		},
		OutstandingBalances: balanceResponses,
		RecentInvoices:      toInvoiceResponses(recent),
	}, nil
}
