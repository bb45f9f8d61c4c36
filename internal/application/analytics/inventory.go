package analytics

import (
	"math"
	"sort"
	"time"

	"github.com/GrupoEuro/SmartEC-sub000/internal/domain/analytics"
	"github.com/shopspring/decimal"
)

const (
	// minMovingVelocity is the daily velocity under which a product is
	// treated as not moving.
	minMovingVelocity = 0.1
	// stockoutHorizonDays bounds how far ahead a stockout date is projected.
	stockoutHorizonDays = 365
	// imminentStockoutDays is the days-remaining cutoff for predicted stockouts.
	imminentStockoutDays = 7

	regressionWeight = 0.6
	recentMeanWeight = 0.4
	recentMeanDays   = 7
)

// InventoryInput is everything the inventory report reads
type InventoryInput struct {
	Products     []analytics.Product
	Orders       []analytics.Order
	Period       analytics.DateRange
	Policy       analytics.ReorderPolicy
	CostRatio    decimal.Decimal
	VelocityDays int
	ABCDays      int
}

// Window returns the order window the report needs: the period plus the
// trailing velocity and ABC windows ending at the period end.
func (in InventoryInput) Window() analytics.DateRange {
	w := in.Period
	for _, days := range []int{in.VelocityDays, in.ABCDays} {
		if t := analytics.TrailingDays(in.Period.End, days); t.Start.Before(w.Start) {
			w.Start = t.Start
		}
	}
	return w
}

// EstimateVelocity blends a regression forecast of the next day with the
// mean of the last seven days. A negative forecast is replaced by the mean.
func EstimateVelocity(daily []float64) float64 {
	if len(daily) == 0 {
		return 0
	}

	recent := daily[max(0, len(daily)-recentMeanDays):]
	mean := 0.0
	for _, v := range recent {
		mean += v
	}
	mean /= float64(len(recent))

	predicted := mean
	if reg, err := FitOLS(daily); err == nil {
		predicted = reg.Predict(float64(len(daily)))
	}
	if predicted < 0 {
		predicted = mean
	}
	return math.Max(0, regressionWeight*predicted+recentMeanWeight*mean)
}

// DaysRemaining is stock/velocity for moving products, zero when out of
// stock, and NoStockoutDays otherwise.
func DaysRemaining(stock int64, velocity float64) float64 {
	switch {
	case stock <= 0:
		return 0
	case velocity > minMovingVelocity:
		return float64(stock) / velocity
	default:
		return analytics.NoStockoutDays
	}
}

// Restock builds the suggestion for one product.
func Restock(p analytics.Product, velocity float64, today time.Time, policy analytics.ReorderPolicy) analytics.RestockSuggestion {
	days := DaysRemaining(p.Stock, velocity)
	s := analytics.RestockSuggestion{
		ProductID:     p.ID,
		Name:          p.Name,
		SKU:           p.SKU,
		CurrentStock:  p.Stock,
		DailyVelocity: velocity,
		DaysRemaining: days,
		Priority:      policy.PriorityFor(p.Stock, days),
	}
	if days < stockoutHorizonDays {
		date := analytics.StartOfDay(today).AddDate(0, 0, int(math.Round(days)))
		s.StockoutDate = &date
	}
	target := velocity * float64(policy.CoverDays())
	if gap := target - float64(p.Stock); gap > 0 {
		s.ReorderQuantity = int64(math.Ceil(gap))
	}
	return s
}

// SortRestock orders suggestions by priority, then fewest days remaining.
func SortRestock(s []analytics.RestockSuggestion) {
	sort.Slice(s, func(i, j int) bool {
		if ri, rj := s[i].Priority.Rank(), s[j].Priority.Rank(); ri != rj {
			return ri < rj
		}
		if s[i].DaysRemaining != s[j].DaysRemaining {
			return s[i].DaysRemaining < s[j].DaysRemaining
		}
		return s[i].ProductID < s[j].ProductID
	})
}

// DailyUnits returns per-product units sold per day of window.
func DailyUnits(orders []analytics.Order, window analytics.DateRange) map[string][]float64 {
	days := window.Days()
	startMs := window.Start.UnixMilli()
	endMs := window.End.UnixMilli()
	const dayMs = int64(24 * time.Hour / time.Millisecond)

	out := make(map[string][]float64)
	for i := range orders {
		o := &orders[i]
		if !o.CountsAsSale() {
			continue
		}
		ts := o.CreatedAt.UnixMilli()
		if ts < startMs || ts >= endMs {
			continue
		}
		idx := min(int((ts-startMs)/dayMs), days-1)
		for _, item := range o.Items {
			series, ok := out[item.ProductID]
			if !ok {
				series = make([]float64, days)
				out[item.ProductID] = series
			}
			series[idx] += float64(item.Quantity)
		}
	}
	return out
}

// Velocities estimates the daily velocity of every catalog product.
func Velocities(products []analytics.Product, orders []analytics.Order, window analytics.DateRange) map[string]float64 {
	daily := DailyUnits(orders, window)
	empty := make([]float64, window.Days())
	out := make(map[string]float64, len(products))
	for _, p := range products {
		series, ok := daily[p.ID]
		if !ok {
			series = empty
		}
		out[p.ID] = EstimateVelocity(series)
	}
	return out
}

// RestockSuggestions returns every active product that needs attention,
// most urgent first.
func RestockSuggestions(products []analytics.Product, velocities map[string]float64, today time.Time, policy analytics.ReorderPolicy) []analytics.RestockSuggestion {
	out := make([]analytics.RestockSuggestion, 0)
	for _, p := range products {
		if !p.Active {
			continue
		}
		s := Restock(p, velocities[p.ID], today, policy)
		if s.Priority == analytics.PriorityOK {
			continue
		}
		out = append(out, s)
	}
	SortRestock(out)
	return out
}

// ClassifyProductsABC ranks products by revenue and assigns A/B/C from the
// cumulative share held by the products ranked above each one.
func ClassifyProductsABC(products []analytics.Product, revenue map[string]decimal.Decimal) ([]analytics.ABCItem, []analytics.ABCSummary) {
	total := decimal.Zero
	items := make([]analytics.ABCItem, 0, len(products))
	for _, p := range products {
		r := revenue[p.ID]
		total = total.Add(r)
		items = append(items, analytics.ABCItem{ProductID: p.ID, Name: p.Name, Revenue: r})
	}
	sort.Slice(items, func(i, j int) bool {
		if c := items[i].Revenue.Cmp(items[j].Revenue); c != 0 {
			return c > 0
		}
		return items[i].ProductID < items[j].ProductID
	})

	summaries := map[analytics.ABCClass]*analytics.ABCSummary{
		analytics.ClassA: {Class: analytics.ClassA},
		analytics.ClassB: {Class: analytics.ClassB},
		analytics.ClassC: {Class: analytics.ClassC},
	}
	cumulative := decimal.Zero
	for i := range items {
		shareBefore := 0.0
		if total.IsPositive() {
			shareBefore = cumulative.Div(total).InexactFloat64()
		}
		cumulative = cumulative.Add(items[i].Revenue)
		items[i].CumulativeShare = percentOf(cumulative, total).InexactFloat64()
		items[i].Class = analytics.ClassifyABC(shareBefore, items[i].Revenue.InexactFloat64())

		s := summaries[items[i].Class]
		s.Products++
		s.Revenue = s.Revenue.Add(items[i].Revenue)
	}

	out := make([]analytics.ABCSummary, 0, 3)
	for _, class := range []analytics.ABCClass{analytics.ClassA, analytics.ClassB, analytics.ClassC} {
		s := summaries[class]
		s.RevenueShare = percentOf(s.Revenue, total)
		out = append(out, *s)
	}
	return items, out
}

// InventoryReport computes portfolio inventory health. ABC, GMROI and
// turnover read the trailing ABC window; sell-through reads the period;
// velocities read the trailing velocity window. All windows end at the
// period end.
func InventoryReport(in InventoryInput) analytics.InventoryMetrics {
	end := in.Period.End
	abcWindow := analytics.TrailingDays(end, in.ABCDays)
	velocityWindow := analytics.TrailingDays(end, in.VelocityDays)
	idx := analytics.IndexProducts(in.Products)

	abcRevenue := make(map[string]decimal.Decimal)
	windowRevenue, windowCOGS := decimal.Zero, decimal.Zero
	var periodUnits int64

	for i := range in.Orders {
		o := &in.Orders[i]
		if !o.CountsAsSale() {
			continue
		}
		inABC := abcWindow.Contains(o.CreatedAt)
		inPeriod := in.Period.Contains(o.CreatedAt)
		if !inABC && !inPeriod {
			continue
		}
		for _, item := range o.Items {
			p, ok := idx[item.ProductID]
			if !ok {
				continue
			}
			if inABC {
				rev := item.Revenue()
				abcRevenue[p.ID] = abcRevenue[p.ID].Add(rev)
				windowRevenue = windowRevenue.Add(rev)
				windowCOGS = windowCOGS.Add(p.UnitCost(in.CostRatio).Mul(decimal.NewFromInt(item.Quantity)))
			}
			if inPeriod {
				periodUnits += item.Quantity
			}
		}
	}

	velocities := Velocities(in.Products, in.Orders, velocityWindow)
	m := analytics.InventoryMetrics{
		Range:                in.Period,
		TotalProducts:        len(in.Products),
		InventoryValue:       decimal.Zero,
		RetailValue:          decimal.Zero,
		PotentialLostRevenue: decimal.Zero,
		WindowRevenue:        windowRevenue,
		WindowCOGS:           windowCOGS,
	}

	for _, p := range in.Products {
		if p.Stock > 0 {
			units := decimal.NewFromInt(p.Stock)
			m.TotalUnits += p.Stock
			m.InventoryValue = m.InventoryValue.Add(p.UnitCost(in.CostRatio).Mul(units))
			m.RetailValue = m.RetailValue.Add(p.Price.Mul(units))
		}
		v := velocities[p.ID]
		// Stockouts count whether or not the product is still listed.
		if p.Stock <= 0 {
			m.OutOfStock++
			m.PotentialLostRevenue = m.PotentialLostRevenue.Add(p.Price.Mul(decimal.NewFromFloat(v)))
		}
		if !p.Active {
			continue
		}
		m.ActiveProducts++
		if p.Stock <= 0 {
			continue
		}
		days := DaysRemaining(p.Stock, v)
		if v > minMovingVelocity && days < imminentStockoutDays {
			m.PredictedStockouts++
		}
		switch in.Policy.PriorityFor(p.Stock, days) {
		case analytics.PriorityCritical, analytics.PriorityHigh:
			m.LowStock++
		}
	}

	if m.InventoryValue.IsPositive() {
		m.GMROI = windowRevenue.Sub(windowCOGS).Div(m.InventoryValue).InexactFloat64()
		annualized := windowCOGS.Mul(decimal.NewFromInt(365)).Div(decimal.NewFromInt(int64(abcWindow.Days())))
		m.TurnoverRate = annualized.Div(m.InventoryValue).InexactFloat64()
	}
	if denom := periodUnits + m.TotalUnits; denom > 0 {
		m.SellThrough = float64(periodUnits) / float64(denom) * 100
	}

	m.ABCItems, m.ABC = ClassifyProductsABC(in.Products, abcRevenue)
	m.Restock = RestockSuggestions(in.Products, velocities, end, in.Policy)
	return m
}
