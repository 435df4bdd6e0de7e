// Package export renders retailer statements as XLSX workbooks and PDF documents.
package export

import (
	"bytes"
	"fmt"

	"github.com/ledgerly/backend/internal/application/report"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

// Sheet names of a statement workbook
const (
	SheetSummary  = "Summary"
	SheetInvoices = "Invoices"
	SheetPayments = "Payments"
)

var (
	invoiceHeaders = []string{"Invoice", "Invoice Date", "Due Date", "Amount", "Paid", "Remaining", "Status", "Due Days"}
	paymentHeaders = []string{"Payment Date", "Amount", "Source", "Invoices", "Note"}
)

// XLSXWriter writes statements with excelize
type XLSXWriter struct{}

// NewXLSXWriter creates a new XLSXWriter
func NewXLSXWriter() *XLSXWriter {
	return &XLSXWriter{}
}

type workbookStyles struct {
	header int
	money  int
	date   int
	bold   int
}

// CurrencyNumberFormat is the custom number format used for amount cells
func CurrencyNumberFormat(currency string) string {
	return fmt.Sprintf(`#,##0.00 "%s"`, currency)
}

// WriteStatement encodes s as a workbook with summary, invoice and payment sheets
func (w *XLSXWriter) WriteStatement(s *report.Statement) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetSummary); err != nil {
		return nil, fmt.Errorf("error renaming sheet: %w", err)
	}
	for _, name := range []string{SheetInvoices, SheetPayments} {
		if _, err := f.NewSheet(name); err != nil {
			return nil, fmt.Errorf("error creating sheet %s: %w", name, err)
		}
	}

	styles, err := newWorkbookStyles(f, s.Currency)
	if err != nil {
		return nil, err
	}
	if err := writeSummary(f, s, styles); err != nil {
		return nil, err
	}
	if err := writeInvoices(f, s, styles); err != nil {
		return nil, err
	}
	if err := writePayments(f, s, styles); err != nil {
		return nil, err
	}
	f.SetActiveSheet(0)

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("error writing workbook: %w", err)
	}
	return buf.Bytes(), nil
}

func newWorkbookStyles(f *excelize.File, currency string) (*workbookStyles, error) {
	header, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#E6E6FA"}, Pattern: 1},
	})
	if err != nil {
		return nil, err
	}
	numFmt := CurrencyNumberFormat(currency)
	amount, err := f.NewStyle(&excelize.Style{CustomNumFmt: &numFmt})
	if err != nil {
		return nil, err
	}
	dateFmt := "yyyy-mm-dd"
	date, err := f.NewStyle(&excelize.Style{CustomNumFmt: &dateFmt})
	if err != nil {
		return nil, err
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, err
	}
	return &workbookStyles{header: header, money: amount, date: date, bold: bold}, nil
}

func writeSummary(f *excelize.File, s *report.Statement, st *workbookStyles) error {
	rows := [][]any{
		{"Retailer", s.RetailerName},
		{"Email", s.Email},
		{"Phone", s.Phone},
		{"Address", s.Address},
		{"Statement Date", s.Today},
		{"Currency", s.Currency},
		{},
		{"Total Invoiced", money(s.Totals.Invoiced)},
		{"Total Paid", money(s.Totals.Paid)},
		{"Outstanding", money(s.Totals.Outstanding)},
		{"Overdue", money(s.Totals.Overdue)},
		{"Payments Received", money(s.Totals.Received)},
	}
	for i, row := range rows {
		if len(row) == 0 {
			continue
		}
		cell, _ := excelize.CoordinatesToCellName(1, i+1)
		if err := f.SetSheetRow(SheetSummary, cell, &row); err != nil {
			return err
		}
	}
	if err := f.SetCellStyle(SheetSummary, "A1", fmt.Sprintf("A%d", len(rows)), st.bold); err != nil {
		return err
	}
	if err := f.SetCellStyle(SheetSummary, "B5", "B5", st.date); err != nil {
		return err
	}
	if err := f.SetCellStyle(SheetSummary, "B8", fmt.Sprintf("B%d", len(rows)), st.money); err != nil {
		return err
	}
	return f.SetColWidth(SheetSummary, "A", "B", 22)
}

func writeInvoices(f *excelize.File, s *report.Statement, st *workbookStyles) error {
	if err := writeHeader(f, SheetInvoices, invoiceHeaders, st); err != nil {
		return err
	}
	for i, inv := range s.Invoices {
		row := []any{
			inv.InvoiceName,
			inv.InvoiceDate,
			inv.DueDate,
			money(inv.Amount),
			money(inv.Paid),
			money(inv.Remaining),
			inv.Status.String(),
			inv.DueDays,
		}
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		if err := f.SetSheetRow(SheetInvoices, cell, &row); err != nil {
			return err
		}
	}
	if last := len(s.Invoices) + 1; last > 1 {
		if err := f.SetCellStyle(SheetInvoices, "B2", fmt.Sprintf("C%d", last), st.date); err != nil {
			return err
		}
		if err := f.SetCellStyle(SheetInvoices, "D2", fmt.Sprintf("F%d", last), st.money); err != nil {
			return err
		}
	}
	return f.SetColWidth(SheetInvoices, "A", "H", 15)
}

func writePayments(f *excelize.File, s *report.Statement, st *workbookStyles) error {
	if err := writeHeader(f, SheetPayments, paymentHeaders, st); err != nil {
		return err
	}
	for i, p := range s.Payments {
		row := []any{p.PaymentDate, money(p.Amount), string(p.Source), p.InvoiceCount, p.Note}
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		if err := f.SetSheetRow(SheetPayments, cell, &row); err != nil {
			return err
		}
	}
	if last := len(s.Payments) + 1; last > 1 {
		if err := f.SetCellStyle(SheetPayments, "A2", fmt.Sprintf("A%d", last), st.date); err != nil {
			return err
		}
		if err := f.SetCellStyle(SheetPayments, "B2", fmt.Sprintf("B%d", last), st.money); err != nil {
			return err
		}
	}
	if err := f.SetColWidth(SheetPayments, "A", "D", 15); err != nil {
		return err
	}
	return f.SetColWidth(SheetPayments, "E", "E", 40)
}

func writeHeader(f *excelize.File, sheet string, headers []string, st *workbookStyles) error {
	if err := f.SetSheetRow(sheet, "A1", &headers); err != nil {
		return err
	}
	if err := f.SetRowStyle(sheet, 1, 1, st.header); err != nil {
		return err
	}
	return f.SetPanes(sheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	})
}

// money converts an amount for a numeric cell
func money(d decimal.Decimal) float64 {
	v, _ := d.Round(2).Float64()
	return v
}

var _ report.SpreadsheetWriter = (*XLSXWriter)(nil)
