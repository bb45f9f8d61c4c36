package analytics

import (
	"fmt"
	"sort"
	"time"

	"github.com/GrupoEuro/SmartEC-sub000/internal/domain/analytics"
)

// MaxInsights caps the briefing insight list.
const MaxInsights = 5

// Insight kinds
const (
	InsightRevenue     = "revenue"
	InsightMargin      = "margin"
	InsightInventory   = "inventory"
	InsightCustomers   = "customers"
	InsightForecast    = "forecast"
	InsightOpportunity = "opportunity"
)

// BriefingInput is the set of reports a briefing is synthesized from
type BriefingInput struct {
	Range     analytics.DateRange
	Revenue   analytics.RevenueReport
	Inventory analytics.InventoryMetrics
	Segments  []analytics.CustomerSegment
	Forecast  analytics.Forecast
	Now       time.Time
}

type scorer struct {
	score    int
	insights []analytics.Insight
}

func (s *scorer) deduct(points int, kind string, priority analytics.Priority, metric float64, title, detail string) {
	s.score -= points
	s.insights = append(s.insights, analytics.Insight{
		Kind:     kind,
		Priority: priority,
		Title:    title,
		Detail:   detail,
		Metric:   metric,
		Impact:   float64(points),
	})
}

func (s *scorer) opportunity(metric float64, title, detail string) {
	s.insights = append(s.insights, analytics.Insight{
		Kind:     InsightOpportunity,
		Priority: analytics.PriorityLow,
		Title:    title,
		Detail:   detail,
		Metric:   metric,
	})
}

// SynthesizeBriefing scores overall health from 100 down and lists the most
// important findings.
func SynthesizeBriefing(in BriefingInput) analytics.Briefing {
	s := &scorer{score: 100, insights: make([]analytics.Insight, 0)}

	rev := in.Revenue.Revenue
	growth := rev.GrowthPercent.InexactFloat64()
	switch {
	case growth < -10:
		s.deduct(20, InsightRevenue, analytics.PriorityHigh, growth,
			"Revenue is falling",
			fmt.Sprintf("Revenue is down %.1f%% against the previous period", -growth))
	case growth < 0:
		s.deduct(10, InsightRevenue, analytics.PriorityMedium, growth,
			"Revenue is slipping",
			fmt.Sprintf("Revenue is down %.1f%% against the previous period", -growth))
	case growth > 10:
		s.opportunity(growth, "Revenue is growing",
			fmt.Sprintf("Revenue is up %.1f%% against the previous period", growth))
	}

	margin := in.Revenue.Margin
	if margin.TotalRevenue.IsPositive() {
		gm := margin.GrossMargin.InexactFloat64()
		switch {
		case gm < 20:
			s.deduct(15, InsightMargin, analytics.PriorityHigh, gm,
				"Gross margin is thin",
				fmt.Sprintf("Gross margin is %.1f%%, below 20%%", gm))
		case gm < 35:
			s.deduct(5, InsightMargin, analytics.PriorityLow, gm,
				"Gross margin below target",
				fmt.Sprintf("Gross margin is %.1f%%, below 35%%", gm))
		}
	}

	inv := in.Inventory
	if n := inv.PredictedStockouts; n > 0 {
		s.deduct(min(20, 5*n), InsightInventory, analytics.PriorityHigh, float64(n),
			"Stockouts expected this week",
			fmt.Sprintf("%d products will run out of stock within 7 days", n))
	}
	if lost := inv.PotentialLostRevenue; lost.IsPositive() {
		s.deduct(10, InsightInventory, analytics.PriorityMedium, lost.InexactFloat64(),
			"Out-of-stock products are losing sales",
			fmt.Sprintf("%d products are out of stock, about %s in sales lost per day", inv.OutOfStock, lost.StringFixed(2)))
	}

	customers, atRisk, champions := 0, 0, 0
	for _, seg := range in.Segments {
		customers += seg.Customers
		switch seg.Segment {
		case analytics.SegmentAtRisk, analytics.SegmentLost:
			atRisk += seg.Customers
		case analytics.SegmentChampions:
			champions += seg.Customers
		}
	}
	if customers > 0 {
		riskShare := float64(atRisk) / float64(customers) * 100
		if riskShare > 30 {
			s.deduct(15, InsightCustomers, analytics.PriorityHigh, riskShare,
				"Customers are drifting away",
				fmt.Sprintf("%.1f%% of customers are at risk or lost", riskShare))
		}
		if championShare := float64(champions) / float64(customers) * 100; championShare >= 20 {
			s.opportunity(championShare, "Strong champion base",
				fmt.Sprintf("%.1f%% of customers are champions", championShare))
		}
	}

	switch in.Forecast.Trend {
	case analytics.TrendDown:
		s.deduct(10, InsightForecast, analytics.PriorityMedium, in.Forecast.Regression.Slope,
			"Revenue trend is declining",
			"The daily revenue forecast is trending down")
	case analytics.TrendUp:
		s.opportunity(in.Forecast.Regression.Slope, "Revenue trend is rising",
			"The daily revenue forecast is trending up")
	}

	sort.SliceStable(s.insights, func(i, j int) bool {
		a, b := s.insights[i], s.insights[j]
		if ra, rb := a.Priority.Rank(), b.Priority.Rank(); ra != rb {
			return ra < rb
		}
		return a.Impact > b.Impact
	})
	if len(s.insights) > MaxInsights {
		s.insights = s.insights[:MaxInsights]
	}

	score := max(0, min(100, s.score))
	return analytics.Briefing{
		Range:       in.Range,
		HealthScore: score,
		Grade:       analytics.GradeFor(score),
		Insights:    s.insights,
		GeneratedAt: in.Now,
	}
}
