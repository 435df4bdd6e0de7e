package notification

import (
	"fmt"
	"sort"
	"strconv"

	"github.com/google/uuid"
	"github.com/ledgerly/backend/internal/domain/ledger"
	"github.com/shopspring/decimal"
)

// ReminderPlanner turns a tenant's outstanding invoices into due and overdue
// reminders, one notification per retailer.
type ReminderPlanner struct {
	money *ledger.MoneyFormatter
}

// NewReminderPlanner creates a planner that formats amounts with money
func NewReminderPlanner(money *ledger.MoneyFormatter) *ReminderPlanner {
	if money == nil {
		money = ledger.DefaultMoneyFormatter()
	}
	return &ReminderPlanner{money: money}
}

type retailerGroup struct {
	retailerID   uuid.UUID
	retailerName string
	invoices     []*ledger.Invoice
	dueCount     int
	overdueCount int
	outstanding  decimal.Decimal
}

// Plan builds reminders for invoices that are outstanding and have
// DueDays <= windowDays. Invoices must already be refreshed against the
// run's today. Output is ordered by retailer name.
func (p *ReminderPlanner) Plan(tenantID uuid.UUID, invoices []*ledger.Invoice, windowDays int) ([]*Notification, error) {
	groups := make(map[uuid.UUID]*retailerGroup)
	for _, inv := range invoices {
		if inv == nil || !inv.IsOutstanding() || inv.DueDays > windowDays {
			continue
		}
		g, ok := groups[inv.RetailerID]
		if !ok {
			g = &retailerGroup{
				retailerID:   inv.RetailerID,
				retailerName: inv.RetailerName,
				outstanding:  decimal.Zero,
			}
			groups[inv.RetailerID] = g
		}
		g.invoices = append(g.invoices, inv)
		g.outstanding = g.outstanding.Add(inv.RemainingAmount())
		if inv.DueDays < 0 {
			g.overdueCount++
		} else {
			g.dueCount++
		}
	}

	ordered := make([]*retailerGroup, 0, len(groups))
	for _, g := range groups {
		ordered = append(ordered, g)
	}
	sort.Slice(ordered, func(i, j int) bool {
		if ordered[i].retailerName != ordered[j].retailerName {
			return ordered[i].retailerName < ordered[j].retailerName
		}
		return ordered[i].retailerID.String() < ordered[j].retailerID.String()
	})

	result := make([]*Notification, 0, len(ordered))
	for _, g := range ordered {
		var (
			n   *Notification
			err error
		)
		if len(g.invoices) == 1 {
			n, err = p.single(tenantID, g.invoices[0])
		} else {
			n, err = p.multiple(tenantID, g)
		}
		if err != nil {
			return nil, err
		}
		result = append(result, n)
	}
	return result, nil
}

func (p *ReminderPlanner) single(tenantID uuid.UUID, inv *ledger.Invoice) (*Notification, error) {
	remaining := p.money.Format(inv.RemainingAmount())
	var (
		kind    Type
		message string
	)
	switch {
	case inv.DueDays < 0:
		kind = TypeInvoiceOverdue
		message = fmt.Sprintf("Invoice %s for %s is overdue by %d day(s) (%s outstanding).",
			inv.InvoiceName, inv.RetailerName, -inv.DueDays, remaining)
	case inv.DueDays == 0:
		kind = TypeInvoiceDue
		message = fmt.Sprintf("Invoice %s for %s is due today (%s outstanding).",
			inv.InvoiceName, inv.RetailerName, remaining)
	default:
		kind = TypeInvoiceDue
		message = fmt.Sprintf("Invoice %s for %s is due in %d day(s) (%s outstanding).",
			inv.InvoiceName, inv.RetailerName, inv.DueDays, remaining)
	}

	n, err := New(tenantID, kind, message)
	if err != nil {
		return nil, err
	}
	retailerID := inv.RetailerID
	n.RetailerID = &retailerID
	return n.ForInvoice(inv.ID).
		WithMeta("due_days", strconv.Itoa(inv.DueDays)).
		WithMeta("outstanding", inv.RemainingAmount().StringFixed(2)), nil
}

func (p *ReminderPlanner) multiple(tenantID uuid.UUID, g *retailerGroup) (*Notification, error) {
	total := p.money.Format(g.outstanding)
	var (
		kind    Type
		message string
	)
	switch {
	case g.overdueCount > 0 && g.dueCount > 0:
		kind = TypeMultipleInvoiceOverdue
		message = fmt.Sprintf("%s has %d invoice(s) due and %d overdue invoice(s), %s outstanding.",
			g.retailerName, g.dueCount, g.overdueCount, total)
	case g.overdueCount > 0:
		kind = TypeMultipleInvoiceOverdue
		message = fmt.Sprintf("You have %d invoice(s) from %s that are overdue, %s outstanding.",
			g.overdueCount, g.retailerName, total)
	default:
		kind = TypeMultipleInvoiceDue
		message = fmt.Sprintf("You have %d invoice(s) from %s due, %s outstanding.",
			g.dueCount, g.retailerName, total)
	}

	n, err := New(tenantID, kind, message)
	if err != nil {
		return nil, err
	}
	return n.ForRetailer(g.retailerID).
		WithMeta("invoice_count", strconv.Itoa(len(g.invoices))).
		WithMeta("overdue_count", strconv.Itoa(g.overdueCount)).
		WithMeta("outstanding", g.outstanding.StringFixed(2)), nil
}

// WeeklyFigures are the numbers reported in a weekly summary
type WeeklyFigures struct {
	Summary      ledger.InvoiceSummary
	Received     decimal.Decimal
	PaymentCount int64
	PeriodInDays int
}

// WeeklySummary builds the weekly summary notification
func (p *ReminderPlanner) WeeklySummary(tenantID uuid.UUID, figures WeeklyFigures) (*Notification, error) {
	s := figures.Summary
	message := fmt.Sprintf(
		"Pending: %s across %d invoice(s). Overdue: %s across %d invoice(s). Received in the last %d days: %s from %d payment(s).",
		p.money.Format(s.TotalPending), s.DueCount,
		p.money.Format(s.TotalOverdue), s.OverdueCount,
		figures.PeriodInDays, p.money.Format(figures.Received), figures.PaymentCount,
	)
	n, err := New(tenantID, TypeWeeklySummary, message)
	if err != nil {
		return nil, err
	}
	n.Link = "/dashboard"
	return n.
		WithMeta("total_pending", s.TotalPending.StringFixed(2)).
		WithMeta("total_overdue", s.TotalOverdue.StringFixed(2)).
		WithMeta("received", figures.Received.StringFixed(2)), nil
}
