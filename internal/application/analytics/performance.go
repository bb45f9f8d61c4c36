package analytics

import (
	"sort"

	"github.com/GrupoEuro/SmartEC-sub000/internal/domain/analytics"
	"github.com/shopspring/decimal"
)

// ProductPerformance scores every product sold in the aggregate's period.
// Turnover is units over average stock, estimated as the mean of the opening
// (stock + units) and closing (stock) levels. GMROI is gross profit over the
// cost value of current stock. ABC classes rank the period's own revenue.
func (a *PeriodAggregate) ProductPerformance(costRatio decimal.Decimal) []analytics.ProductPerformance {
	revenue := make(map[string]decimal.Decimal, len(a.Products))
	sold := make([]analytics.Product, 0, len(a.Products))
	for id, b := range a.Products {
		if p := a.index[id]; p != nil {
			revenue[id] = b.Revenue
			sold = append(sold, *p)
		}
	}
	abcItems, _ := ClassifyProductsABC(sold, revenue)
	classes := make(map[string]analytics.ABCClass, len(abcItems))
	for _, it := range abcItems {
		classes[it.ProductID] = it.Class
	}

	out := make([]analytics.ProductPerformance, 0, len(sold))
	for _, p := range sold {
		b := a.Products[p.ID]
		profit := b.Profit()
		perf := analytics.ProductPerformance{
			ProductID:   p.ID,
			Name:        p.Name,
			SKU:         p.SKU,
			CategoryID:  p.CategoryKey(),
			Brand:       p.BrandKey(),
			Revenue:     b.Revenue,
			Cost:        b.Cost,
			GrossProfit: profit,
			Margin:      percentOf(profit, b.Revenue),
			UnitsSold:   b.Units,
			Stock:       p.Stock,
			Growth:      ProductGrowth(b.Revenue, a.PreviousProducts[p.ID]),
			ABC:         classes[p.ID],
		}

		stock := float64(max(p.Stock, 0))
		if avgStock := (stock + stock + float64(b.Units)) / 2; avgStock > 0 {
			perf.Turnover = float64(b.Units) / avgStock
		}
		stockValue := p.UnitCost(costRatio).Mul(decimal.NewFromFloat(stock))
		if stockValue.IsPositive() {
			perf.GMROI = profit.Div(stockValue).InexactFloat64()
		}
		out = append(out, perf)
	}

	sort.Slice(out, func(i, j int) bool {
		if c := out[i].Revenue.Cmp(out[j].Revenue); c != 0 {
			return c > 0
		}
		return out[i].ProductID < out[j].ProductID
	})
	return out
}
