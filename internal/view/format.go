package view

import (
	"github.com/nikolayk812/cartsync/internal/domain"
	"golang.org/x/text/currency"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var printer = message.NewPrinter(language.English)

// FormatMoney renders m with its currency symbol, e.g. "$ 24.90".
func FormatMoney(m domain.Money) string {
	unit := m.Currency
	if unit == (currency.Unit{}) {
		return m.Amount.StringFixed(2)
	}

	amount := unit.Amount(m.Amount.Round(2).InexactFloat64())
	return printer.Sprint(currency.Symbol(amount))
}
