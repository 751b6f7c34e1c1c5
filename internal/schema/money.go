package schema

import (
	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
)

// DefaultCurrency is the single accounting currency of the simulation.
const DefaultCurrency = money.USD

// FormatMoney renders an amount with the currency's grapheme and fraction digits, e.g. "$1,234.50".
func FormatMoney(amount decimal.Decimal, currency string) string {
	if currency == "" {
		currency = DefaultCurrency
	}
	c := money.GetCurrency(currency)
	if c == nil {
		return amount.StringFixed(2) + " " + currency
	}
	minor := amount.Shift(int32(c.Fraction)).Round(0).IntPart()
	return money.New(minor, c.Code).Display()
}

// KnownCurrency reports whether code is an ISO 4217 currency known to the formatter.
func KnownCurrency(code string) bool {
	return money.GetCurrency(code) != nil
}
