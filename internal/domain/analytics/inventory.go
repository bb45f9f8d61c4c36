package analytics

// Priority is the urgency tier of a restock suggestion.
type Priority string

// Restock priorities
const (
	PriorityCritical Priority = "CRITICAL"
	PriorityHigh     Priority = "HIGH"
	PriorityMedium   Priority = "MEDIUM"
	PriorityLow      Priority = "LOW"
	PriorityOK       Priority = "OK"
)

// Rank orders priorities, most urgent first.
func (p Priority) Rank() int {
	switch p {
	case PriorityCritical:
		return 0
	case PriorityHigh:
		return 1
	case PriorityMedium:
		return 2
	case PriorityLow:
		return 3
	default:
		return 4
	}
}

// NoStockoutDays is the days-remaining sentinel for products that are not
// moving fast enough to ever run out.
const NoStockoutDays = 999

// ReorderPolicy holds replenishment lead times in days.
type ReorderPolicy struct {
	LeadTimeDays    int
	OrderCycleDays  int
	SafetyStockDays int
}

// DefaultReorderPolicy is 5 days lead, 14 days cycle, 7 days safety stock.
func DefaultReorderPolicy() ReorderPolicy {
	return ReorderPolicy{LeadTimeDays: 5, OrderCycleDays: 14, SafetyStockDays: 7}
}

// CoverDays is the number of days of demand a reorder should cover.
func (p ReorderPolicy) CoverDays() int {
	return p.LeadTimeDays + p.OrderCycleDays + p.SafetyStockDays
}

// PriorityFor maps stock and days remaining to a tier.
func (p ReorderPolicy) PriorityFor(stock int64, daysRemaining float64) Priority {
	lead := float64(p.LeadTimeDays)
	switch {
	case stock <= 0:
		return PriorityCritical
	case daysRemaining <= lead:
		return PriorityCritical
	case daysRemaining <= lead+3:
		return PriorityHigh
	case daysRemaining <= lead+7:
		return PriorityMedium
	case daysRemaining <= lead+14:
		return PriorityLow
	default:
		return PriorityOK
	}
}

// ABCClass is a revenue-contribution class.
type ABCClass string

// ABC classes
const (
	ClassA ABCClass = "A"
	ClassB ABCClass = "B"
	ClassC ABCClass = "C"
)

// ClassifyABC assigns a class from the cumulative revenue share held by
// higher-ranked products (0..1). Zero-revenue products are always C.
func ClassifyABC(cumulativeShareBefore float64, revenue float64) ABCClass {
	switch {
	case revenue <= 0:
		return ClassC
	case cumulativeShareBefore < 0.80:
		return ClassA
	case cumulativeShareBefore < 0.95:
		return ClassB
	default:
		return ClassC
	}
}

// Quadrant is a Boston matrix quadrant.
type Quadrant string

// Boston matrix quadrants
const (
	QuadrantStars     Quadrant = "stars"
	QuadrantCows      Quadrant = "cows"
	QuadrantQuestions Quadrant = "questions"
	QuadrantDogs      Quadrant = "dogs"
)

// Boston matrix thresholds
const (
	HighGrowthPercent = 10.0
	HighRelativeShare = 1.0
)

// ClassifyQuadrant assigns a quadrant from growth % and relative share.
func ClassifyQuadrant(growth, share float64) Quadrant {
	highGrowth := growth >= HighGrowthPercent
	highShare := share >= HighRelativeShare
	switch {
	case highGrowth && highShare:
		return QuadrantStars
	case highShare:
		return QuadrantCows
	case highGrowth:
		return QuadrantQuestions
	default:
		return QuadrantDogs
	}
}

// Trend is the direction of a fitted series.
type Trend string

// Trends
const (
	TrendUp   Trend = "UP"
	TrendDown Trend = "DOWN"
	TrendFlat Trend = "FLAT"
)

// DefaultTrendThreshold is the absolute slope under which a series is flat.
const DefaultTrendThreshold = 0.05

// ClassifyTrend maps a regression slope to a direction.
func ClassifyTrend(slope, threshold float64) Trend {
	switch {
	case slope > threshold:
		return TrendUp
	case slope < -threshold:
		return TrendDown
	default:
		return TrendFlat
	}
}
