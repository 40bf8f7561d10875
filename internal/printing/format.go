// Package printing renders the documents a store prints: cash closing
// reports and product labels, formatted for the Brazilian locale.
package printing

import (
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

const (
	dateLayout     = "02/01/2006"
	dateTimeLayout = "02/01/2006 15:04"
)

var brPrinter = message.NewPrinter(language.BrazilianPortuguese)

// Currency formats v as Brazilian reais, e.g. "R$ 1.234,56".
func Currency(v decimal.Decimal) string {
	f, _ := v.Round(2).Float64()
	return brPrinter.Sprintf("R$ %.2f", f)
}

// Date formats t as DD/MM/YYYY.
func Date(t time.Time) string {
	return t.Format(dateLayout)
}

// DateTime formats t as DD/MM/YYYY HH:MM.
func DateTime(t time.Time) string {
	return t.Format(dateTimeLayout)
}
