package aggregate

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/lucacel82/luccacell/internal/sales"
)

// DefaultTopLimit is used when TopProducts gets a non-positive limit.
const DefaultTopLimit = 5

// ProductTotal is the ranking entry of one product name.
type ProductTotal struct {
	Name  string          `json:"name"`
	Value decimal.Decimal `json:"value"`
	Count int             `json:"count"`
}

// TopProducts groups records by exact product name and returns the limit
// highest by value. Ties keep first-seen order.
func TopProducts(records []*sales.Sale, limit int) []ProductTotal {
	if limit <= 0 {
		limit = DefaultTopLimit
	}

	groups := make([]ProductTotal, 0)
	index := make(map[string]int)
	for _, rec := range records {
		i, ok := index[rec.ProductName]
		if !ok {
			i = len(groups)
			index[rec.ProductName] = i
			groups = append(groups, ProductTotal{Name: rec.ProductName, Value: decimal.Zero})
		}
		groups[i].Value = groups[i].Value.Add(rec.LineTotal())
		groups[i].Count += rec.Quantity
	}

	sort.SliceStable(groups, func(i, j int) bool {
		return groups[i].Value.GreaterThan(groups[j].Value)
	})

	if len(groups) > limit {
		groups = groups[:limit]
	}
	return groups
}
