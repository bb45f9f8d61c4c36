package analytics

import "math"

// Segment is an RFM customer segment label.
type Segment string

// Customer segments
const (
	SegmentChampions Segment = "Champions"
	SegmentLoyal     Segment = "Loyal"
	SegmentAtRisk    Segment = "At Risk"
	SegmentLost      Segment = "Lost"
	SegmentPotential Segment = "Potential"
	SegmentNew       Segment = "New"
)

// AllSegments lists segments in display order.
var AllSegments = []Segment{
	SegmentChampions, SegmentLoyal, SegmentPotential, SegmentNew, SegmentAtRisk, SegmentLost,
}

// RecencyScore buckets days since the last order into 1..5.
func RecencyScore(daysSinceLast int) int {
	switch {
	case daysSinceLast > 365:
		return 1
	case daysSinceLast > 180:
		return 2
	case daysSinceLast > 90:
		return 3
	case daysSinceLast > 30:
		return 4
	default:
		return 5
	}
}

// FrequencyScore buckets an order count into 1..5.
func FrequencyScore(orders int) int {
	switch {
	case orders >= 20:
		return 5
	case orders >= 10:
		return 4
	case orders >= 5:
		return 3
	case orders >= 2:
		return 2
	default:
		return 1
	}
}

// MonetaryScore buckets lifetime spend into 1..5.
func MonetaryScore(spent float64) int {
	switch {
	case spent >= 10000:
		return 5
	case spent >= 5000:
		return 4
	case spent >= 2000:
		return 3
	case spent >= 500:
		return 2
	default:
		return 1
	}
}

// ClassifySegment assigns a segment from RFM scores. Rules are evaluated in
// priority order; the fall-through splits first-time recent buyers (New)
// from everyone else (Potential).
func ClassifySegment(r, f, m int) Segment {
	sum := r + f + m
	switch {
	case sum >= 13:
		return SegmentChampions
	case sum >= 10 && f >= 3:
		return SegmentLoyal
	case r <= 2:
		return SegmentLost
	case r == 3 && f >= 3:
		return SegmentAtRisk
	case f == 1 && r >= 4:
		return SegmentNew
	default:
		return SegmentPotential
	}
}

// ChurnRisk estimates 0..100 churn intensity. Single-purchase customers are
// scored on absolute inactivity; repeat customers on inactivity relative to
// their own purchase rhythm (floored at 30 days).
func ChurnRisk(orderCount int, daysSinceLast, avgInterPurchaseDays float64) float64 {
	if orderCount <= 1 {
		switch {
		case daysSinceLast > 90:
			return 80
		case daysSinceLast > 60:
			return 50
		default:
			return 20
		}
	}
	return math.Min(100, 33*daysSinceLast/math.Max(avgInterPurchaseDays, 30))
}
