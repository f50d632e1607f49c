package money

import (
	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

// BaseSymbol prefixes amounts in the base currency.
const BaseSymbol = "Rs"

var printer = message.NewPrinter(language.English)

// Format renders amount with thousands grouping and up to two fraction
// digits. The base symbol precedes the number; foreign codes follow it.
func Format(amount decimal.Decimal, code Currency, showSymbol bool) string {
	text := printer.Sprint(number.Decimal(amount.Round(2).InexactFloat64(), number.MinFractionDigits(0), number.MaxFractionDigits(2)))
	if !showSymbol {
		return text
	}
	if code.IsBase() || code == "" {
		return BaseSymbol + " " + text
	}
	return text + " " + string(code)
}

// DualDisplay shows the base amount alone for base-currency values, and
// "<original> <code> (Rs <base>)" otherwise.
func DualDisplay(original decimal.Decimal, code Currency, base decimal.Decimal) string {
	if code.IsBase() || code == "" {
		return Format(base, Base, true)
	}
	return Format(original, code, true) + " (" + Format(base, Base, true) + ")"
}
