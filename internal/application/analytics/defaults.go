package analytics

import (
	"time"

	"github.com/GrupoEuro/SmartEC-sub000/internal/domain/analytics"
	"github.com/shopspring/decimal"
)

// Fallback results returned by the report entry points when the record store
// fails. Every field is populated and every slice is empty, not nil.

func emptyRevenueMetrics() analytics.RevenueMetrics {
	return analytics.RevenueMetrics{
		TotalRevenue:      decimal.Zero,
		PreviousRevenue:   decimal.Zero,
		GrowthAmount:      decimal.Zero,
		GrowthPercent:     decimal.Zero,
		AverageOrderValue: decimal.Zero,
		ByCategory:        []analytics.BreakdownEntry{},
		ByBrand:           []analytics.BreakdownEntry{},
		ByProduct:         []analytics.BreakdownEntry{},
	}
}

// DefaultRevenueReport is the zero revenue and margin report for r.
func DefaultRevenueReport(r analytics.DateRange) analytics.RevenueReport {
	return analytics.RevenueReport{
		Range:   r,
		Revenue: emptyRevenueMetrics(),
		Margin: analytics.MarginMetrics{
			TotalRevenue: decimal.Zero,
			TotalCost:    decimal.Zero,
			GrossProfit:  decimal.Zero,
			GrossMargin:  decimal.Zero,
			ByCategory:   []analytics.BreakdownEntry{},
			ByBrand:      []analytics.BreakdownEntry{},
			ByProduct:    []analytics.BreakdownEntry{},
		},
		Profitability: []analytics.ProfitabilityEntry{},
		BostonMatrix:  []analytics.BostonPoint{},
	}
}

// DefaultForecast is a flat, empty forecast.
func DefaultForecast(historyDays, forecastDays int) analytics.Forecast {
	return analytics.Forecast{
		HistoryDays:  historyDays,
		ForecastDays: forecastDays,
		Regression:   analytics.Regression{RSquared: 1},
		Trend:        analytics.TrendFlat,
		Points:       []analytics.ForecastPoint{},
	}
}

func emptyABC() []analytics.ABCSummary {
	out := make([]analytics.ABCSummary, 0, 3)
	for _, c := range []analytics.ABCClass{analytics.ClassA, analytics.ClassB, analytics.ClassC} {
		out = append(out, analytics.ABCSummary{Class: c, Revenue: decimal.Zero, RevenueShare: decimal.Zero})
	}
	return out
}

// DefaultInventoryMetrics is the empty inventory report for r.
func DefaultInventoryMetrics(r analytics.DateRange) analytics.InventoryMetrics {
	return analytics.InventoryMetrics{
		Range:                r,
		InventoryValue:       decimal.Zero,
		RetailValue:          decimal.Zero,
		PotentialLostRevenue: decimal.Zero,
		WindowRevenue:        decimal.Zero,
		WindowCOGS:           decimal.Zero,
		ABC:                  emptyABC(),
		ABCItems:             []analytics.ABCItem{},
		Restock:              []analytics.RestockSuggestion{},
	}
}

// DefaultCustomerSegments lists every segment with zero customers.
func DefaultCustomerSegments() []analytics.CustomerSegment {
	return SegmentSummary(nil)
}

// DefaultBriefing reports an unknown health grade with no insights.
func DefaultBriefing(r analytics.DateRange, now time.Time) analytics.Briefing {
	return analytics.Briefing{
		Range:       r,
		Grade:       analytics.HealthUnknown,
		Insights:    []analytics.Insight{},
		GeneratedAt: now,
	}
}
