package report

import (
	"fmt"
	"math"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// idPrinter formats numbers with Indonesian grouping (dots every three
// digits), matching how receipts and invoices are written locally.
var idPrinter = message.NewPrinter(language.Indonesian)

// Rupiah renders a whole-rupiah amount, e.g. 44000 becomes "Rp 44.000".
func Rupiah(amount int64) string {
	return idPrinter.Sprintf("Rp %d", amount)
}

// Millions renders an amount in millions with one decimal, e.g. "1,5M" style
// output used where table columns are too narrow for the full amount.
func Millions(amount int64) string {
	return fmt.Sprintf("%.1fM", float64(amount)/1_000_000)
}

// Thousands renders an amount rounded to the nearest thousand, e.g. "44K".
func Thousands(amount int64) string {
	return fmt.Sprintf("%dK", int64(math.Round(float64(amount)/1_000)))
}

// Ellipsis truncates s to max runes, appending "..." when it was cut.
func Ellipsis(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max]) + "..."
}
