package aggregate

import "github.com/shopspring/decimal"

var hundred = decimal.NewFromInt(100)

// Comparison is a period-over-period result. PercentChange is not rounded.
type Comparison struct {
	Current       decimal.Decimal `json:"current"`
	Previous      decimal.Decimal `json:"previous"`
	PercentChange decimal.Decimal `json:"percent_change"`
	IsPositive    bool            `json:"is_positive"`
}

// Compare computes the percent change from previous to current.
// A zero baseline counts as a 100% increase when current is positive.
func Compare(current, previous decimal.Decimal) Comparison {
	change := decimal.Zero
	switch {
	case previous.IsPositive():
		change = current.Sub(previous).Div(previous).Mul(hundred)
	case current.IsPositive():
		change = hundred
	}
	return Comparison{
		Current:       current,
		Previous:      previous,
		PercentChange: change,
		IsPositive:    !change.IsNegative(),
	}
}
