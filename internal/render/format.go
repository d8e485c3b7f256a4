package render

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/comptes-dev/comptes/internal/model"
)

// DisplayDateLayout is the dd/mm/yyyy layout used in tables.
const DisplayDateLayout = "02/01/2006"

// FormatBalance formats d the French way: space-grouped thousands, a comma
// before two decimals, then the currency code.
func FormatBalance(d decimal.Decimal, currency string) string {
	d = d.Round(2)
	intPart, frac, _ := strings.Cut(d.Abs().StringFixed(2), ".")

	var b strings.Builder
	if d.IsNegative() {
		b.WriteByte('-')
	}
	for i, r := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte(' ')
		}
		b.WriteRune(r)
	}
	b.WriteByte(',')
	b.WriteString(frac)
	if currency != "" {
		b.WriteByte(' ')
		b.WriteString(currency)
	}
	return b.String()
}

// FormatDate returns the date as dd/mm/yyyy, or N/A when it is unset.
func FormatDate(d model.Date) string {
	if d.IsZero() {
		return "N/A"
	}
	return d.Format(DisplayDateLayout)
}

// Total is the footer line under the list.
func Total(n int) string {
	if n == 1 {
		return "Total: 1 compte"
	}
	return fmt.Sprintf("Total: %d comptes", n)
}
