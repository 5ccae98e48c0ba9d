package notify

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"

	"spiceexport/internal/models"
)

var printer = message.NewPrinter(language.MustParse("en-IN"))

var currencySymbols = map[string]string{
	"INR": "₹",
	"USD": "$",
	"EUR": "€",
	"GBP": "£",
}

// FormatMoney renders amount with two decimals and locale grouping, e.g. "₹5,200.00".
func FormatMoney(currency string, amount decimal.Decimal) string {
	f, _ := amount.Round(2).Float64()
	formatted := printer.Sprintf("%v", number.Decimal(f, number.MinFractionDigits(2), number.MaxFractionDigits(2)))
	if sym, ok := currencySymbols[strings.ToUpper(currency)]; ok {
		return sym + formatted
	}
	return strings.ToUpper(currency) + " " + formatted
}

// FormatDate renders a delivery date in loc.
func FormatDate(t *time.Time, loc *time.Location) string {
	if t == nil {
		return "to be confirmed"
	}
	if loc == nil {
		loc = time.UTC
	}
	return t.In(loc).Format("Mon, 02 Jan 2006")
}

func formatItems(items []models.LineItem, currency string) string {
	var b strings.Builder
	for _, li := range items {
		name := li.Name
		if name == "" {
			name = li.ProductID
		}
		b.WriteString("  - ")
		b.WriteString(name)
		b.WriteString(": ")
		b.WriteString(li.Quantity.String())
		b.WriteString(" ")
		b.WriteString(string(li.Unit))
		if li.UnitPrice != nil && li.LineTotal != nil {
			b.WriteString(" @ ")
			b.WriteString(FormatMoney(currency, *li.UnitPrice))
			b.WriteString("/")
			b.WriteString(string(li.Unit))
			b.WriteString(" = ")
			b.WriteString(FormatMoney(currency, *li.LineTotal))
		}
		b.WriteString("\n")
	}
	return b.String()
}
