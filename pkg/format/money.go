package format

import (
	"github.com/leekchan/accounting"
	"github.com/shopspring/decimal"
)

const (
	currencySymbol = "$"
	moneyPrecision = 2
)

// Money renders an amount in accounting style, e.g. "$1,234.50".
func Money(amount decimal.Decimal) string {
	// Accounting initialises itself lazily on first use, so it is not shared.
	ac := accounting.DefaultAccounting(currencySymbol, moneyPrecision)
	return ac.FormatMoneyDecimal(amount.Round(moneyPrecision))
}
