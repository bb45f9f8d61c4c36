package analytics

import (
	"strings"

	"github.com/shopspring/decimal"
)

// DefaultCostRatio is the fraction of price assumed as unit cost when a
// product has no recorded cost.
var DefaultCostRatio = decimal.NewFromFloat(0.7)

const (
	// UncategorizedKey buckets products without a usable category id.
	UncategorizedKey = "uncategorized"
	// UnknownBrand buckets products without a brand.
	UnknownBrand = "Unknown"
)

// Product is a catalog entry.
type Product struct {
	ID         string           `json:"id"`
	Name       string           `json:"name"`
	SKU        string           `json:"sku"`
	CategoryID string           `json:"category_id"`
	Brand      string           `json:"brand"`
	Price      decimal.Decimal  `json:"price"`
	CostPrice  *decimal.Decimal `json:"cost_price,omitempty"`
	Stock      int64            `json:"stock"`
	Active     bool             `json:"active"`
}

// UnitCost returns the recorded cost, or price times ratio when absent.
func (p Product) UnitCost(ratio decimal.Decimal) decimal.Decimal {
	if p.CostPrice != nil {
		return *p.CostPrice
	}
	return p.Price.Mul(ratio)
}

// CategoryKey returns the normalized category bucket.
func (p Product) CategoryKey() string {
	c := strings.TrimSpace(p.CategoryID)
	switch c {
	case "", "undefined", "null":
		return UncategorizedKey
	}
	return c
}

// BrandKey returns the brand bucket.
func (p Product) BrandKey() string {
	b := strings.TrimSpace(p.Brand)
	if b == "" {
		return UnknownBrand
	}
	return b
}

// ProductIndex maps product ids to products.
type ProductIndex map[string]*Product

// IndexProducts builds a lookup over a catalog snapshot.
func IndexProducts(products []Product) ProductIndex {
	idx := make(ProductIndex, len(products))
	for i := range products {
		idx[products[i].ID] = &products[i]
	}
	return idx
}
