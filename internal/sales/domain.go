package sales

import (
	"time"

	"github.com/shopspring/decimal"
)

// Sale represents one completed transaction line.
type Sale struct {
	ID          string          `json:"id" db:"id"`
	OwnerID     string          `json:"owner_id" db:"owner_id"`
	ProductName string          `json:"product_name" db:"product_name"`
	Quantity    int             `json:"quantity" db:"quantity"`
	UnitValue   decimal.Decimal `json:"unit_value" db:"unit_value"`
	OccurredAt  time.Time       `json:"occurred_at" db:"occurred_at"`
	UpdatedAt   time.Time       `json:"updated_at" db:"updated_at"`
	Version     int             `json:"version" db:"version"`
}

// LineTotal is quantity × unit value.
func (s *Sale) LineTotal() decimal.Decimal {
	return s.UnitValue.Mul(decimal.NewFromInt(int64(s.Quantity)))
}

// SaleInput carries the client-supplied fields of a new sale.
type SaleInput struct {
	ProductName string
	Quantity    int
	UnitValue   decimal.Decimal
}

// SalePatch carries an edit; nil fields are left unchanged.
// The timestamp and owner are not editable.
type SalePatch struct {
	ProductName *string
	Quantity    *int
	UnitValue   *decimal.Decimal
}

// Range bounds a listing by occurrence time. Both bounds are inclusive;
// a nil bound is unbounded.
type Range struct {
	From *time.Time
	To   *time.Time
}

// Between returns a range with both bounds set.
func Between(from, to time.Time) Range {
	return Range{From: &from, To: &to}
}

// Since returns a range open at the upper end.
func Since(from time.Time) Range {
	return Range{From: &from}
}

// Includes reports whether t falls within the range.
func (r Range) Includes(t time.Time) bool {
	if r.From != nil && t.Before(*r.From) {
		return false
	}
	if r.To != nil && t.After(*r.To) {
		return false
	}
	return true
}

// SalesMetadata summarizes a listing.
type SalesMetadata struct {
	Quantity    int             `json:"quantity"`
	Items       int             `json:"items"`
	TotalAmount decimal.Decimal `json:"total_amount"`
}
