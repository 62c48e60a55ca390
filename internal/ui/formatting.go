package ui

import (
	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
)

// DefaultCurrency is used when a forecast does not name one.
const DefaultCurrency = money.USD

// Currency returns the ISO code of currency, or DefaultCurrency when the
// code is empty or unknown.
func Currency(code string) string {
	if code == "" || money.GetCurrency(code) == nil {
		return DefaultCurrency
	}
	return money.GetCurrency(code).Code
}

// FormatMoney renders val in the currency's own notation, e.g. $1,234.50.
func FormatMoney(val decimal.Decimal, code string) string {
	cur := *money.New(0, Currency(code)).Currency()
	minor := val.Round(int32(cur.Fraction)).Shift(int32(cur.Fraction))
	return cur.Formatter().Format(minor.IntPart())
}
