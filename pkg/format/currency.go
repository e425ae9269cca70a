// Package format renders money and ratios for human-readable output.
package format

import (
	"math"

	"github.com/javaxhaskell/Real-Estate-Modelling/pkg/mathutil"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// CurrencySymbol prefixes formatted amounts.
const CurrencySymbol = "£"

var printer = message.NewPrinter(language.BritishEnglish)

// Currency returns a currency string with a pound sign and thousands separators (e.g., "-£1,234.56").
func Currency(amount float64) string {
	formatted := NumericCurrency(math.Abs(amount))
	if amount < 0 && formatted != "0.00" {
		return "-" + CurrencySymbol + formatted
	}
	return CurrencySymbol + formatted
}

// NumericCurrency returns a currency string without a currency symbol but with separators (e.g., "-1,234.56").
func NumericCurrency(amount float64) string {
	return printer.Sprintf("%.2f", amount)
}

// Percent formats a fraction as a percentage with two decimals (0.1234 -> "12.34%").
func Percent(fraction float64) string {
	if math.IsNaN(fraction) || math.IsInf(fraction, 0) {
		return "n/a"
	}
	return printer.Sprintf("%.2f%%", fraction*100)
}

// Multiple formats a ratio as a multiple ("1.85x"), or "n/a" when undefined.
func Multiple(r mathutil.Ratio) string {
	if !r.Defined() {
		return "n/a"
	}
	return printer.Sprintf("%.2fx", r.Float())
}

// RatioPercent formats a ratio as a percentage, or "n/a" when undefined.
func RatioPercent(r mathutil.Ratio) string {
	if !r.Defined() {
		return "n/a"
	}
	return Percent(r.Float())
}
