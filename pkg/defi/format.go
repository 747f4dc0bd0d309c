package defi

import (
	"fmt"
	"math"
	"strconv"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

var printer = message.NewPrinter(language.English)

// FormatAmount groups thousands and keeps at most maxFraction decimals.
func FormatAmount(v float64, maxFraction int) string {
	return printer.Sprint(number.Decimal(v, number.MaxFractionDigits(maxFraction)))
}

// FormatChange renders a percentage change with a trend emoji, e.g.
// "📈 +1.25%".
func FormatChange(pct float64) string {
	rounded := math.Round(pct*100) / 100
	value := strconv.FormatFloat(rounded, 'f', -1, 64)
	switch {
	case rounded > 0:
		return fmt.Sprintf("📈 +%s%%", value)
	case rounded < 0:
		return fmt.Sprintf("📉 %s%%", value)
	default:
		return "0%"
	}
}

// CurrencyPrefix is "$" for usd and empty otherwise.
func CurrencyPrefix(currency string) string {
	if currency == "usd" {
		return "$"
	}
	return ""
}
