package analytics

import (
	"testing"

	"github.com/GrupoEuro/SmartEC-sub000/internal/domain/analytics"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func briefingInput(t *testing.T, growth, margin int64) BriefingInput {
	t.Helper()
	r := mustRange(t, midnight(2024, 5, 1), midnight(2024, 6, 1))
	report := DefaultRevenueReport(r)
	report.Revenue.GrowthPercent = dec(growth)
	report.Margin.TotalRevenue = dec(1000)
	report.Margin.GrossMargin = dec(margin)
	return BriefingInput{
		Range:     r,
		Revenue:   report,
		Inventory: DefaultInventoryMetrics(r),
		Segments:  DefaultCustomerSegments(),
		Forecast:  DefaultForecast(30, 7),
		Now:       at(2024, 6, 1),
	}
}

func withSegments(in BriefingInput, counts map[analytics.Segment]int) BriefingInput {
	segs := make([]analytics.CustomerSegment, 0, len(analytics.AllSegments))
	for _, s := range analytics.AllSegments {
		segs = append(segs, analytics.CustomerSegment{Segment: s, Customers: counts[s]})
	}
	in.Segments = segs
	return in
}

func TestSynthesizeBriefing_Healthy(t *testing.T) {
	in := briefingInput(t, 15, 50)
	in.Forecast.Trend = analytics.TrendUp
	in = withSegments(in, map[analytics.Segment]int{
		analytics.SegmentChampions: 3,
		analytics.SegmentLoyal:     7,
	})

	b := SynthesizeBriefing(in)

	assert.Equal(t, 100, b.HealthScore)
	assert.Equal(t, analytics.HealthHealthy, b.Grade)
	require.Len(t, b.Insights, 3)
	for _, ins := range b.Insights {
		assert.Equal(t, InsightOpportunity, ins.Kind)
		assert.Equal(t, analytics.PriorityLow, ins.Priority)
	}
	assert.Equal(t, in.Now, b.GeneratedAt)
}

func TestSynthesizeBriefing_Distressed(t *testing.T) {
	in := briefingInput(t, -20, 15)
	in.Inventory.PredictedStockouts = 5
	in.Inventory.OutOfStock = 2
	in.Inventory.PotentialLostRevenue = decimal.RequireFromString("42.5")
	in.Forecast.Trend = analytics.TrendDown
	in = withSegments(in, map[analytics.Segment]int{
		analytics.SegmentAtRisk: 3,
		analytics.SegmentLost:   1,
		analytics.SegmentLoyal:  6,
	})

	b := SynthesizeBriefing(in)

	// 100 - 20 - 15 - 20 - 10 - 15 - 10
	assert.Equal(t, 10, b.HealthScore)
	assert.Equal(t, analytics.HealthCritical, b.Grade)
	require.Len(t, b.Insights, MaxInsights)

	for i := 1; i < len(b.Insights); i++ {
		assert.LessOrEqual(t, b.Insights[i-1].Priority.Rank(), b.Insights[i].Priority.Rank())
	}
	assert.Equal(t, analytics.PriorityHigh, b.Insights[0].Priority)
	assert.Equal(t, InsightRevenue, b.Insights[0].Kind)
	assert.Equal(t, analytics.PriorityMedium, b.Insights[4].Priority)
}

func TestSynthesizeBriefing_Watch(t *testing.T) {
	in := briefingInput(t, -5, 30)
	in.Forecast.Trend = analytics.TrendDown

	b := SynthesizeBriefing(in)

	// 100 - 10 - 5 - 10
	assert.Equal(t, 75, b.HealthScore)
	assert.Equal(t, analytics.HealthWatch, b.Grade)
	require.Len(t, b.Insights, 3)
	assert.Equal(t, analytics.PriorityLow, b.Insights[2].Priority)
}

func TestSynthesizeBriefing_NoSales(t *testing.T) {
	r := mustRange(t, midnight(2024, 5, 1), midnight(2024, 6, 1))
	b := SynthesizeBriefing(BriefingInput{
		Range:     r,
		Revenue:   DefaultRevenueReport(r),
		Inventory: DefaultInventoryMetrics(r),
		Segments:  DefaultCustomerSegments(),
		Forecast:  DefaultForecast(30, 7),
	})

	assert.Equal(t, 100, b.HealthScore)
	assert.NotNil(t, b.Insights)
	assert.Empty(t, b.Insights)
}

func TestGradeFor(t *testing.T) {
	assert.Equal(t, analytics.HealthHealthy, analytics.GradeFor(80))
	assert.Equal(t, analytics.HealthWatch, analytics.GradeFor(79))
	assert.Equal(t, analytics.HealthWatch, analytics.GradeFor(60))
	assert.Equal(t, analytics.HealthCritical, analytics.GradeFor(59))
}
