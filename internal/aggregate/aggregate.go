// Package aggregate computes report values from fetched sales.
//
// Every function is pure: records are never mutated and empty input
// always yields a zero-valued result. Intervals are half-open unless
// stated otherwise.
package aggregate

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/lucacel82/luccacell/internal/sales"
)

// Summary is the count and line total of a set of sales.
type Summary struct {
	Count int             `json:"count"`
	Items int             `json:"items"`
	Total decimal.Decimal `json:"total"`
}

// Summarize totals every record.
func Summarize(records []*sales.Sale) Summary {
	s := Summary{Total: decimal.Zero}
	for _, r := range records {
		s.Count++
		s.Items += r.Quantity
		s.Total = s.Total.Add(r.LineTotal())
	}
	return s
}

// Filter returns the records inside r, preserving order.
func Filter(records []*sales.Sale, r Range) []*sales.Sale {
	out := make([]*sales.Sale, 0, len(records))
	for _, rec := range records {
		if r.Contains(rec.OccurredAt) {
			out = append(out, rec)
		}
	}
	return out
}

// TotalFor sums line totals over start <= occurredAt < end.
func TotalFor(records []*sales.Sale, start, end time.Time) decimal.Decimal {
	total := decimal.Zero
	r := Range{Start: start, End: end}
	for _, rec := range records {
		if r.Contains(rec.OccurredAt) {
			total = total.Add(rec.LineTotal())
		}
	}
	return total
}

// CountFor counts records over start <= occurredAt < end.
func CountFor(records []*sales.Sale, start, end time.Time) int {
	n := 0
	r := Range{Start: start, End: end}
	for _, rec := range records {
		if r.Contains(rec.OccurredAt) {
			n++
		}
	}
	return n
}
