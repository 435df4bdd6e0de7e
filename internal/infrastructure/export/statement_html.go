package export

import (
	"bytes"
	"fmt"
	"html/template"
	"time"

	"github.com/ledgerly/backend/internal/application/report"
	"github.com/ledgerly/backend/internal/domain/ledger"
	"github.com/shopspring/decimal"
)

const statementTemplate = `<!DOCTYPE html>
<html>
<head>
<meta charset="UTF-8">
<title>Statement {{.RetailerName}}</title>
<style>
  body { font-family: "Helvetica Neue", Arial, sans-serif; font-size: 11px; color: #222; }
  h1 { font-size: 18px; margin: 0 0 4px; }
  h2 { font-size: 13px; margin: 18px 0 6px; }
  .meta { color: #666; margin-bottom: 12px; }
  table { width: 100%; border-collapse: collapse; }
  th, td { padding: 4px 6px; border-bottom: 1px solid #ddd; text-align: left; }
  th { background: #f0f0f8; }
  td.num, th.num { text-align: right; }
  .overdue { color: #b00020; }
  .paid { color: #2e7d32; }
  .totals td { font-weight: bold; }
</style>
</head>
<body>
<h1>{{.RetailerName}}</h1>
<div class="meta">
  {{with .Email}}{{.}}<br>{{end}}{{with .Phone}}{{.}}<br>{{end}}{{with .Address}}{{.}}<br>{{end}}
  Statement as of {{date .Today}}
</div>

<table class="totals">
  <tr><td>Total invoiced</td><td class="num">{{money .Totals.Invoiced}}</td></tr>
  <tr><td>Total paid</td><td class="num">{{money .Totals.Paid}}</td></tr>
  <tr><td>Outstanding</td><td class="num">{{money .Totals.Outstanding}}</td></tr>
  <tr><td>Overdue</td><td class="num overdue">{{money .Totals.Overdue}}</td></tr>
</table>

<h2>Invoices</h2>
<table>
  <tr><th>Invoice</th><th>Date</th><th>Due</th><th class="num">Amount</th><th class="num">Paid</th><th class="num">Remaining</th><th>Status</th></tr>
  {{range .Invoices}}
  <tr>
    <td>{{.InvoiceName}}</td><td>{{date .InvoiceDate}}</td><td>{{date .DueDate}}</td>
    <td class="num">{{money .Amount}}</td><td class="num">{{money .Paid}}</td><td class="num">{{money .Remaining}}</td>
    <td class="{{.Status}}">{{statusLabel .Status .DueDays}}</td>
  </tr>
  {{else}}
  <tr><td colspan="7">No invoices</td></tr>
  {{end}}
</table>

<h2>Payments</h2>
<table>
  <tr><th>Date</th><th class="num">Amount</th><th>Source</th><th class="num">Invoices</th><th>Note</th></tr>
  {{range .Payments}}
  <tr>
    <td>{{date .PaymentDate}}</td><td class="num">{{money .Amount}}</td><td>{{.Source}}</td>
    <td class="num">{{.InvoiceCount}}</td><td>{{.Note}}</td>
  </tr>
  {{else}}
  <tr><td colspan="5">No payments</td></tr>
  {{end}}
</table>
</body>
</html>`

// StatementHTML renders statements to a printable HTML page
type StatementHTML struct {
	tmpl *template.Template
}

// NewStatementHTML parses the statement template. Amounts are written with money.
func NewStatementHTML(money *ledger.MoneyFormatter) (*StatementHTML, error) {
	if money == nil {
		money = ledger.DefaultMoneyFormatter()
	}
	tmpl, err := template.New("statement").Funcs(template.FuncMap{
		"money": func(d decimal.Decimal) string { return money.Format(d) },
		"date":  func(t time.Time) string { return t.Format(time.DateOnly) },
		"statusLabel": func(status ledger.InvoiceStatus, dueDays int) string {
			switch status {
			case ledger.InvoiceStatusOverdue:
				return fmt.Sprintf("overdue %dd", -dueDays)
			case ledger.InvoiceStatusDue:
				return fmt.Sprintf("due in %dd", dueDays)
			}
			return status.String()
		},
	}).Parse(statementTemplate)
	if err != nil {
		return nil, fmt.Errorf("failed to parse statement template: %w", err)
	}
	return &StatementHTML{tmpl: tmpl}, nil
}

// Render executes the template for s
func (h *StatementHTML) Render(s *report.Statement) (string, error) {
	var buf bytes.Buffer
	if err := h.tmpl.Execute(&buf, s); err != nil {
		return "", fmt.Errorf("failed to render statement: %w", err)
	}
	return buf.String(), nil
}
