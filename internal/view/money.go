package view

import (
	"github.com/fjod/go_cart/storefront/internal/domain"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

const currencySymbol = "₱"

var printer = message.NewPrinter(language.English)

// Money formats a as pesos with thousands separators, e.g. ₱1,234.50.
func Money(a domain.Amount) string {
	d := a.Decimal().Round(2)
	if d.IsNegative() {
		return "-" + currencySymbol + printer.Sprintf("%.2f", d.Neg().InexactFloat64())
	}
	return currencySymbol + printer.Sprintf("%.2f", d.InexactFloat64())
}
