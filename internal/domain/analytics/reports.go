package analytics

import (
	"time"

	"github.com/shopspring/decimal"
)

// OtherKey is the breakdown bucket that folds entries beyond the top N.
const OtherKey = "other"

// BreakdownEntry is one row of a revenue or margin breakdown
type BreakdownEntry struct {
	Key        string          `json:"key"`
	Name       string          `json:"name,omitempty"`
	Revenue    decimal.Decimal `json:"revenue"`
	Cost       decimal.Decimal `json:"cost"`
	Profit     decimal.Decimal `json:"profit"`
	Margin     decimal.Decimal `json:"margin"`     // Profit / Revenue * 100
	Percentage decimal.Decimal `json:"percentage"` // Revenue / total revenue * 100
	Units      int64           `json:"units,omitempty"`
}

// RevenueMetrics summarizes revenue for a period against the prior period
type RevenueMetrics struct {
	TotalRevenue      decimal.Decimal  `json:"total_revenue"`
	PreviousRevenue   decimal.Decimal  `json:"previous_revenue"`
	GrowthAmount      decimal.Decimal  `json:"growth_amount"`
	GrowthPercent     decimal.Decimal  `json:"growth_percent"`
	OrderCount        int              `json:"order_count"`
	PreviousOrders    int              `json:"previous_orders"`
	AverageOrderValue decimal.Decimal  `json:"average_order_value"`
	ByCategory        []BreakdownEntry `json:"by_category"`
	ByBrand           []BreakdownEntry `json:"by_brand"`
	ByProduct         []BreakdownEntry `json:"by_product"`
	SkippedItems      int              `json:"skipped_items"` // Line items with an unknown product
}

// MarginMetrics summarizes gross margin for a period
type MarginMetrics struct {
	TotalRevenue decimal.Decimal  `json:"total_revenue"`
	TotalCost    decimal.Decimal  `json:"total_cost"`
	GrossProfit  decimal.Decimal  `json:"gross_profit"`
	GrossMargin  decimal.Decimal  `json:"gross_margin"`
	ByCategory   []BreakdownEntry `json:"by_category"`
	ByBrand      []BreakdownEntry `json:"by_brand"`
	ByProduct    []BreakdownEntry `json:"by_product"`
}

// ProfitabilityEntry ranks one product by gross profit
type ProfitabilityEntry struct {
	Rank          int             `json:"rank"`
	ProductID     string          `json:"product_id"`
	Name          string          `json:"name"`
	SKU           string          `json:"sku"`
	Revenue       decimal.Decimal `json:"revenue"`
	Cost          decimal.Decimal `json:"cost"`
	GrossProfit   decimal.Decimal `json:"gross_profit"`
	Units         int64           `json:"units"`
	ProfitPerUnit decimal.Decimal `json:"profit_per_unit"`
	Contribution  decimal.Decimal `json:"contribution"` // Percentage of total profit
}

// BostonPoint is one product placed on the growth/share matrix
type BostonPoint struct {
	ProductID     string          `json:"product_id"`
	Name          string          `json:"name"`
	CategoryID    string          `json:"category_id"`
	Revenue       decimal.Decimal `json:"revenue"`
	RelativeShare float64         `json:"relative_share"` // x
	Growth        float64         `json:"growth"`         // y, percent
	Radius        float64         `json:"radius"`
	Quadrant      Quadrant        `json:"quadrant"`
}

// RevenueReport is the result of the revenue and margin entry point
type RevenueReport struct {
	Range         DateRange            `json:"range"`
	Revenue       RevenueMetrics       `json:"revenue"`
	Margin        MarginMetrics        `json:"margin"`
	Profitability []ProfitabilityEntry `json:"profitability"`
	BostonMatrix  []BostonPoint        `json:"boston_matrix"`
}

// Regression is an ordinary least squares fit over (index, value) pairs
type Regression struct {
	Slope         float64 `json:"slope"`
	Intercept     float64 `json:"intercept"`
	RSquared      float64 `json:"r_squared"`
	StandardError float64 `json:"standard_error"` // RMS residual
	N             int     `json:"n"`
}

// Predict evaluates the fitted line at x.
func (r Regression) Predict(x float64) float64 {
	return r.Slope*x + r.Intercept
}

// ForecastPoint is one period of a forecast. Actual is nil for future periods.
type ForecastPoint struct {
	Label     string    `json:"label"`
	Date      time.Time `json:"date"`
	Actual    *float64  `json:"actual,omitempty"`
	Predicted float64   `json:"predicted"`
	Lower     float64   `json:"lower"`
	Upper     float64   `json:"upper"`
}

// Forecast is a daily revenue forecast with the fit it was built from
type Forecast struct {
	HistoryDays  int             `json:"history_days"`
	ForecastDays int             `json:"forecast_days"`
	Regression   Regression      `json:"regression"`
	Trend        Trend           `json:"trend"`
	Points       []ForecastPoint `json:"points"`
}

// RestockSuggestion is the replenishment recommendation for one product
type RestockSuggestion struct {
	ProductID       string     `json:"product_id"`
	Name            string     `json:"name"`
	SKU             string     `json:"sku"`
	CurrentStock    int64      `json:"current_stock"`
	DailyVelocity   float64    `json:"daily_velocity"`
	DaysRemaining   float64    `json:"days_remaining"`
	StockoutDate    *time.Time `json:"stockout_date,omitempty"`
	ReorderQuantity int64      `json:"reorder_quantity"`
	Priority        Priority   `json:"priority"`
}

// ABCItem is one product's revenue-contribution class
type ABCItem struct {
	ProductID       string          `json:"product_id"`
	Name            string          `json:"name"`
	Revenue         decimal.Decimal `json:"revenue"`
	CumulativeShare float64         `json:"cumulative_share"` // Percent, including this product
	Class           ABCClass        `json:"class"`
}

// ABCSummary aggregates one ABC class
type ABCSummary struct {
	Class        ABCClass        `json:"class"`
	Products     int             `json:"products"`
	Revenue      decimal.Decimal `json:"revenue"`
	RevenueShare decimal.Decimal `json:"revenue_share"`
}

// InventoryMetrics is the portfolio-level inventory health report
type InventoryMetrics struct {
	Range                DateRange           `json:"range"`
	TotalProducts        int                 `json:"total_products"`
	ActiveProducts       int                 `json:"active_products"`
	TotalUnits           int64               `json:"total_units"`
	InventoryValue       decimal.Decimal     `json:"inventory_value"` // At cost
	RetailValue          decimal.Decimal     `json:"retail_value"`
	OutOfStock           int                 `json:"out_of_stock"`
	LowStock             int                 `json:"low_stock"`
	PredictedStockouts   int                 `json:"predicted_stockouts"`
	PotentialLostRevenue decimal.Decimal     `json:"potential_lost_revenue"` // Per day
	WindowRevenue        decimal.Decimal     `json:"window_revenue"`
	WindowCOGS           decimal.Decimal     `json:"window_cogs"`
	GMROI                float64             `json:"gmroi"`
	TurnoverRate         float64             `json:"turnover_rate"` // Annualized
	SellThrough          float64             `json:"sell_through"`
	ABC                  []ABCSummary        `json:"abc"`
	ABCItems             []ABCItem           `json:"abc_items"`
	Restock              []RestockSuggestion `json:"restock"`
}

// ProductPerformance is the per-product scorecard for a period
type ProductPerformance struct {
	ProductID   string          `json:"product_id"`
	Name        string          `json:"name"`
	SKU         string          `json:"sku"`
	CategoryID  string          `json:"category_id"`
	Brand       string          `json:"brand"`
	Revenue     decimal.Decimal `json:"revenue"`
	Cost        decimal.Decimal `json:"cost"`
	GrossProfit decimal.Decimal `json:"gross_profit"`
	Margin      decimal.Decimal `json:"margin"`
	UnitsSold   int64           `json:"units_sold"`
	Stock       int64           `json:"stock"`
	Turnover    float64         `json:"turnover"`
	GMROI       float64         `json:"gmroi"`
	Growth      float64         `json:"growth"`
	ABC         ABCClass        `json:"abc"`
}

// CustomerProfile is the RFM and churn view of one customer
type CustomerProfile struct {
	CustomerID           string          `json:"customer_id"`
	Email                string          `json:"email"`
	Name                 string          `json:"name"`
	TotalSpent           decimal.Decimal `json:"total_spent"`
	OrderCount           int             `json:"order_count"`
	FirstOrder           time.Time       `json:"first_order"`
	LastOrder            time.Time       `json:"last_order"`
	DaysSinceLast        int             `json:"days_since_last"`
	AvgInterPurchaseDays float64         `json:"avg_inter_purchase_days"`
	Recency              int             `json:"recency"`
	Frequency            int             `json:"frequency"`
	Monetary             int             `json:"monetary"`
	ChurnRisk            float64         `json:"churn_risk"`
	Segment              Segment         `json:"segment"`
}

// CustomerSegment aggregates the customers of one RFM segment
type CustomerSegment struct {
	Segment       Segment         `json:"segment"`
	Customers     int             `json:"customers"`
	Percentage    decimal.Decimal `json:"percentage"`
	TotalSpent    decimal.Decimal `json:"total_spent"`
	AverageSpend  decimal.Decimal `json:"average_spend"`
	AverageOrders float64         `json:"average_orders"`
}

// Cohort is the retention curve of customers acquired in one month.
// Retention[0] is always 100 for a non-empty cohort.
type Cohort struct {
	Month     string    `json:"month"`
	Start     time.Time `json:"start"`
	Size      int       `json:"size"`
	Retention []float64 `json:"retention"`
}

// ChannelStats is a customer's activity on one channel
type ChannelStats struct {
	Channel Channel         `json:"channel"`
	Orders  int             `json:"orders"`
	Spent   decimal.Decimal `json:"spent"`
}

// UnifiedCustomer merges customer identities that share a normalized email
type UnifiedCustomer struct {
	Email       string          `json:"email"`
	Name        string          `json:"name"`
	CustomerIDs []string        `json:"customer_ids"`
	Channels    []Channel       `json:"channels"`
	TotalSpent  decimal.Decimal `json:"total_spent"`
	OrderCount  int             `json:"order_count"`
	ByChannel   []ChannelStats  `json:"by_channel"`
	FirstOrder  time.Time       `json:"first_order"`
	LastOrder   time.Time       `json:"last_order"`
}

// Insight is one prioritized briefing item
type Insight struct {
	Kind     string   `json:"kind"` // revenue, margin, inventory, customers, forecast, opportunity
	Priority Priority `json:"priority"`
	Title    string   `json:"title"`
	Detail   string   `json:"detail"`
	Metric   float64  `json:"metric"`
	Impact   float64  `json:"-"`
}

// HealthGrade buckets the briefing health score
type HealthGrade string

// Health grades
const (
	HealthHealthy  HealthGrade = "healthy"
	HealthWatch    HealthGrade = "watch"
	HealthCritical HealthGrade = "critical"
	// HealthUnknown is reported when the briefing could not be computed
	HealthUnknown HealthGrade = "unknown"
)

// GradeFor maps a 0..100 health score to a grade.
func GradeFor(score int) HealthGrade {
	switch {
	case score >= 80:
		return HealthHealthy
	case score >= 60:
		return HealthWatch
	default:
		return HealthCritical
	}
}

// Briefing is the synthesized executive summary for a period
type Briefing struct {
	Range       DateRange   `json:"range"`
	HealthScore int         `json:"health_score"`
	Grade       HealthGrade `json:"grade"`
	Insights    []Insight   `json:"insights"`
	GeneratedAt time.Time   `json:"generated_at"`
}
