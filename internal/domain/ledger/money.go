package ledger

import (
	"github.com/shopspring/decimal"
	"golang.org/x/text/currency"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// DefaultCurrency is used when no currency is configured
const DefaultCurrency = "USD"

// MoneyScale is the number of decimal places amounts are stored with
const MoneyScale = 2

// CheckAmount accepts a positive amount in whole cents
func CheckAmount(amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return ErrInvalidAmount
	}
	if !amount.Equal(amount.Round(MoneyScale)) {
		return ErrInvalidAmount.Withf("Amount %s has more than %d decimal places", amount.String(), MoneyScale)
	}
	return nil
}

// MoneyFormatter renders amounts in the ledger's single currency for
// human-facing text such as notifications and statements.
type MoneyFormatter struct {
	unit    currency.Unit
	printer *message.Printer
}

// NewMoneyFormatter creates a formatter for an ISO 4217 code.
// An empty code selects DefaultCurrency.
func NewMoneyFormatter(code string) (*MoneyFormatter, error) {
	if code == "" {
		code = DefaultCurrency
	}
	unit, err := currency.ParseISO(code)
	if err != nil {
		return nil, err
	}
	return &MoneyFormatter{
		unit:    unit,
		printer: message.NewPrinter(language.English),
	}, nil
}

// DefaultMoneyFormatter formats in DefaultCurrency
func DefaultMoneyFormatter() *MoneyFormatter {
	f, _ := NewMoneyFormatter(DefaultCurrency)
	return f
}

// Currency returns the ISO code
func (f *MoneyFormatter) Currency() string {
	return f.unit.String()
}

// Format renders amount with the currency symbol and two decimals
func (f *MoneyFormatter) Format(amount decimal.Decimal) string {
	value, _ := amount.Round(MoneyScale).Float64()
	return f.printer.Sprint(currency.Symbol(f.unit.Amount(value)))
}
