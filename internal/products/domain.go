// Package products manages the product catalogue used to pre-fill sales
// and print labels.
package products

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product is a catalogue entry.
type Product struct {
	ID        string          `json:"id" db:"id"`
	OwnerID   string          `json:"owner_id" db:"owner_id"`
	Name      string          `json:"name" db:"name"`
	Price     decimal.Decimal `json:"price" db:"price"`
	Stock     int             `json:"stock" db:"stock"`
	Barcode   *string         `json:"barcode" db:"barcode"` // Nullable
	CreatedAt time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt time.Time       `json:"updated_at" db:"updated_at"`
}

// BarcodeValue returns the barcode or "" when the product has none.
func (p *Product) BarcodeValue() string {
	if p.Barcode == nil {
		return ""
	}
	return *p.Barcode
}

// ProductInput carries the fields of a new product.
type ProductInput struct {
	Name    string
	Price   decimal.Decimal
	Stock   int
	Barcode string
}

// ProductPatch carries a partial update; nil fields are left unchanged.
// An empty Barcode clears it.
type ProductPatch struct {
	Name    *string
	Price   *decimal.Decimal
	Stock   *int
	Barcode *string
}
