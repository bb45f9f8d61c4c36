package analytics

import (
	"math"
	"sort"

	"github.com/GrupoEuro/SmartEC-sub000/internal/domain/analytics"
	"github.com/shopspring/decimal"
)

// Bubble radius bounds for the matrix chart
const (
	minBubbleRadius = 5.0
	maxBubbleRadius = 40.0
)

// ProductGrowth returns the growth percent of a product against its prior
// revenue. A product with no prior revenue and current sales grows exactly
// 100%.
func ProductGrowth(current, previous decimal.Decimal) float64 {
	if previous.IsZero() {
		if current.IsPositive() {
			return 100
		}
		return 0
	}
	return current.Sub(previous).Div(previous).Mul(hundred).InexactFloat64()
}

// BubbleRadius scales revenue to a bounded, area-proportional radius.
func BubbleRadius(revenue decimal.Decimal) float64 {
	r := math.Sqrt(math.Max(revenue.InexactFloat64(), 0)) / 5
	return math.Min(maxBubbleRadius, math.Max(minBubbleRadius, r))
}

// BostonMatrix places every product with current revenue on the growth/share
// matrix. Relative share compares a product to the average selling product
// of its own category.
func (a *PeriodAggregate) BostonMatrix() []analytics.BostonPoint {
	sellers := make(map[string]int)
	for id, b := range a.Products {
		if !b.Revenue.IsPositive() {
			continue
		}
		if p := a.index[id]; p != nil {
			sellers[p.CategoryKey()]++
		}
	}

	points := make([]analytics.BostonPoint, 0, len(a.Products))
	for id, b := range a.Products {
		p := a.index[id]
		if p == nil || !b.Revenue.IsPositive() {
			continue
		}
		category := p.CategoryKey()

		share := 0.0
		if cat := a.Categories[category]; cat != nil && cat.Revenue.IsPositive() {
			avg := cat.Revenue.Div(decimal.NewFromInt(int64(sellers[category])))
			share = b.Revenue.Div(avg).InexactFloat64()
		}
		growth := ProductGrowth(b.Revenue, a.PreviousProducts[id])

		points = append(points, analytics.BostonPoint{
			ProductID:     id,
			Name:          p.Name,
			CategoryID:    category,
			Revenue:       b.Revenue,
			RelativeShare: share,
			Growth:        growth,
			Radius:        BubbleRadius(b.Revenue),
			Quadrant:      analytics.ClassifyQuadrant(growth, share),
		})
	}

	sort.Slice(points, func(i, j int) bool {
		if c := points[i].Revenue.Cmp(points[j].Revenue); c != 0 {
			return c > 0
		}
		return points[i].ProductID < points[j].ProductID
	})
	return points
}
