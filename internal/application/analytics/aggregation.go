package analytics

import (
	"sort"

	"github.com/GrupoEuro/SmartEC-sub000/internal/domain/analytics"
	"github.com/shopspring/decimal"
)

// TopN is the number of rows kept in each breakdown before folding the
// remainder into an "other" row.
const TopN = 10

var hundred = decimal.NewFromInt(100)

// Bucket accumulates revenue, cost and units for one grouping key
type Bucket struct {
	Revenue decimal.Decimal
	Cost    decimal.Decimal
	Units   int64
}

func (b *Bucket) add(revenue, cost decimal.Decimal, units int64) {
	b.Revenue = b.Revenue.Add(revenue)
	b.Cost = b.Cost.Add(cost)
	b.Units += units
}

// Profit returns revenue minus cost.
func (b *Bucket) Profit() decimal.Decimal {
	return b.Revenue.Sub(b.Cost)
}

// PeriodAggregate is the output of one pass over the orders of a period and
// its prior comparable period.
type PeriodAggregate struct {
	Current  analytics.DateRange
	Previous analytics.DateRange

	Revenue decimal.Decimal
	Cost    decimal.Decimal
	Orders  int

	PreviousRevenue decimal.Decimal
	PreviousOrders  int

	Categories map[string]*Bucket
	Brands     map[string]*Bucket
	Products   map[string]*Bucket

	// PreviousProducts is the per-product revenue baseline for growth
	PreviousProducts map[string]decimal.Decimal

	// SkippedItems counts current-period lines whose product is unknown
	SkippedItems int

	index analytics.ProductIndex
}

func bucketFor(m map[string]*Bucket, key string) *Bucket {
	b, ok := m[key]
	if !ok {
		b = &Bucket{}
		m[key] = b
	}
	return b
}

// Aggregate makes a single pass over orders, bucketing each one into the
// current period, the prior equal-length period, or neither. Only sale
// orders count. Lines referencing a product missing from idx contribute to
// nothing.
func Aggregate(orders []analytics.Order, idx analytics.ProductIndex, current analytics.DateRange, costRatio decimal.Decimal) *PeriodAggregate {
	previous := current.Previous()
	agg := &PeriodAggregate{
		Current:          current,
		Previous:         previous,
		Categories:       make(map[string]*Bucket),
		Brands:           make(map[string]*Bucket),
		Products:         make(map[string]*Bucket),
		PreviousProducts: make(map[string]decimal.Decimal),
		index:            idx,
	}

	prevStart := previous.Start.UnixMilli()
	curStart := current.Start.UnixMilli()
	curEnd := current.End.UnixMilli()

	for i := range orders {
		o := &orders[i]
		if !o.CountsAsSale() {
			continue
		}
		ts := o.CreatedAt.UnixMilli()

		switch {
		case ts >= curStart && ts < curEnd:
			agg.Orders++
			for _, item := range o.Items {
				p, ok := idx[item.ProductID]
				if !ok {
					agg.SkippedItems++
					continue
				}
				revenue := item.Revenue()
				cost := p.UnitCost(costRatio).Mul(decimal.NewFromInt(item.Quantity))

				agg.Revenue = agg.Revenue.Add(revenue)
				agg.Cost = agg.Cost.Add(cost)
				bucketFor(agg.Categories, p.CategoryKey()).add(revenue, cost, item.Quantity)
				bucketFor(agg.Brands, p.BrandKey()).add(revenue, cost, item.Quantity)
				bucketFor(agg.Products, p.ID).add(revenue, cost, item.Quantity)
			}

		case ts >= prevStart && ts < curStart:
			agg.PreviousOrders++
			for _, item := range o.Items {
				if _, ok := idx[item.ProductID]; !ok {
					continue
				}
				revenue := item.Revenue()
				agg.PreviousRevenue = agg.PreviousRevenue.Add(revenue)
				agg.PreviousProducts[item.ProductID] = agg.PreviousProducts[item.ProductID].Add(revenue)
			}
		}
	}
	return agg
}

// Profit returns current-period gross profit.
func (a *PeriodAggregate) Profit() decimal.Decimal {
	return a.Revenue.Sub(a.Cost)
}

// Product looks up a product in the catalog the aggregate was built from.
func (a *PeriodAggregate) Product(id string) *analytics.Product {
	return a.index[id]
}

// percentOf returns part/whole*100, or zero when whole is zero.
func percentOf(part, whole decimal.Decimal) decimal.Decimal {
	if whole.IsZero() {
		return decimal.Zero
	}
	return part.Div(whole).Mul(hundred)
}

// GrowthPercent is (current-previous)/previous*100, zero without a baseline.
func GrowthPercent(current, previous decimal.Decimal) decimal.Decimal {
	if previous.IsZero() {
		return decimal.Zero
	}
	return current.Sub(previous).Div(previous).Mul(hundred)
}

func newEntry(key, name string, b *Bucket, total decimal.Decimal) analytics.BreakdownEntry {
	profit := b.Profit()
	return analytics.BreakdownEntry{
		Key:        key,
		Name:       name,
		Revenue:    b.Revenue,
		Cost:       b.Cost,
		Profit:     profit,
		Margin:     percentOf(profit, b.Revenue),
		Percentage: percentOf(b.Revenue, total),
		Units:      b.Units,
	}
}

type entryLess func(a, b analytics.BreakdownEntry) bool

func byRevenue(a, b analytics.BreakdownEntry) bool {
	if c := a.Revenue.Cmp(b.Revenue); c != 0 {
		return c > 0
	}
	return a.Key < b.Key
}

func byMargin(a, b analytics.BreakdownEntry) bool {
	if c := a.Margin.Cmp(b.Margin); c != 0 {
		return c > 0
	}
	return byRevenue(a, b)
}

// breakdown sorts buckets and keeps the first limit rows. Anything beyond is
// folded into a single "other" row so the rows always sum to the total.
func breakdown(buckets map[string]*Bucket, name func(key string) string, total decimal.Decimal, less entryLess, limit int) []analytics.BreakdownEntry {
	entries := make([]analytics.BreakdownEntry, 0, len(buckets))
	for key, b := range buckets {
		entries = append(entries, newEntry(key, name(key), b, total))
	}
	sort.Slice(entries, func(i, j int) bool { return less(entries[i], entries[j]) })

	if len(entries) <= limit {
		return entries
	}

	rest := &Bucket{}
	for _, e := range entries[limit:] {
		rest.add(e.Revenue, e.Cost, e.Units)
	}
	out := append(entries[:limit:limit], newEntry(analytics.OtherKey, "Other", rest, total))
	return out
}

func keyName(key string) string { return key }

func (a *PeriodAggregate) productName(id string) string {
	if p := a.index[id]; p != nil {
		return p.Name
	}
	return id
}

// RevenueMetrics derives the revenue report from the aggregate.
func (a *PeriodAggregate) RevenueMetrics() analytics.RevenueMetrics {
	aov := decimal.Zero
	if a.Orders > 0 {
		aov = a.Revenue.Div(decimal.NewFromInt(int64(a.Orders)))
	}
	return analytics.RevenueMetrics{
		TotalRevenue:      a.Revenue,
		PreviousRevenue:   a.PreviousRevenue,
		GrowthAmount:      a.Revenue.Sub(a.PreviousRevenue),
		GrowthPercent:     GrowthPercent(a.Revenue, a.PreviousRevenue),
		OrderCount:        a.Orders,
		PreviousOrders:    a.PreviousOrders,
		AverageOrderValue: aov,
		ByCategory:        breakdown(a.Categories, keyName, a.Revenue, byRevenue, TopN),
		ByBrand:           breakdown(a.Brands, keyName, a.Revenue, byRevenue, TopN),
		ByProduct:         breakdown(a.Products, a.productName, a.Revenue, byRevenue, TopN),
		SkippedItems:      a.SkippedItems,
	}
}

// MarginMetrics derives the margin report from the aggregate.
func (a *PeriodAggregate) MarginMetrics() analytics.MarginMetrics {
	profit := a.Profit()
	return analytics.MarginMetrics{
		TotalRevenue: a.Revenue,
		TotalCost:    a.Cost,
		GrossProfit:  profit,
		GrossMargin:  percentOf(profit, a.Revenue),
		ByCategory:   breakdown(a.Categories, keyName, a.Revenue, byMargin, TopN),
		ByBrand:      breakdown(a.Brands, keyName, a.Revenue, byMargin, TopN),
		ByProduct:    breakdown(a.Products, a.productName, a.Revenue, byMargin, TopN),
	}
}

// Profitability ranks every product sold in the period by gross profit.
// Contribution is a share of the summed product profit and is zero when that
// sum is not positive.
func (a *PeriodAggregate) Profitability() []analytics.ProfitabilityEntry {
	totalProfit := decimal.Zero
	for _, b := range a.Products {
		totalProfit = totalProfit.Add(b.Profit())
	}

	out := make([]analytics.ProfitabilityEntry, 0, len(a.Products))
	for id, b := range a.Products {
		profit := b.Profit()
		e := analytics.ProfitabilityEntry{
			ProductID:     id,
			Revenue:       b.Revenue,
			Cost:          b.Cost,
			GrossProfit:   profit,
			Units:         b.Units,
			ProfitPerUnit: decimal.Zero,
			Contribution:  decimal.Zero,
		}
		if p := a.index[id]; p != nil {
			e.Name = p.Name
			e.SKU = p.SKU
		}
		if b.Units > 0 {
			e.ProfitPerUnit = profit.Div(decimal.NewFromInt(b.Units))
		}
		if totalProfit.IsPositive() {
			e.Contribution = profit.Div(totalProfit).Mul(hundred)
		}
		out = append(out, e)
	}

	sort.Slice(out, func(i, j int) bool {
		if c := out[i].GrossProfit.Cmp(out[j].GrossProfit); c != 0 {
			return c > 0
		}
		return out[i].ProductID < out[j].ProductID
	})
	for i := range out {
		out[i].Rank = i + 1
	}
	return out
}
