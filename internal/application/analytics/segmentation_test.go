package analytics

import (
	"testing"
	"time"

	"github.com/GrupoEuro/SmartEC-sub000/internal/domain/analytics"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func customerOrder(id, email string, createdAt time.Time, total int64) analytics.Order {
	return analytics.Order{
		ID:        id + "-" + createdAt.Format(time.RFC3339),
		CreatedAt: createdAt,
		Status:    analytics.OrderStatusDelivered,
		Channel:   analytics.ChannelWeb,
		Total:     dec(total),
		Customer:  analytics.CustomerRef{ID: id, Email: email, Name: "Customer " + id},
	}
}

func TestCustomerProfiles(t *testing.T) {
	asOf := at(2024, 6, 1)
	var orders []analytics.Order
	for k := 0; k < 25; k++ {
		orders = append(orders, customerOrder("champ", "champ@example.com", at(2024, 5, 31).AddDate(0, 0, -5*k), 2000))
	}
	orders = append(orders,
		customerOrder("drifter", "drifter@example.com", at(2024, 2, 15), 100),
		customerOrder("fresh", "fresh@example.com", at(2024, 5, 22), 50),
	)

	profiles := CustomerProfiles(orders, asOf)
	require.Len(t, profiles, 3)

	champ := profiles[0]
	assert.Equal(t, "champ", champ.CustomerID)
	assertDecimal(t, "50000", champ.TotalSpent)
	assert.Equal(t, 25, champ.OrderCount)
	assert.Equal(t, 1, champ.DaysSinceLast)
	assert.Equal(t, [3]int{5, 5, 5}, [3]int{champ.Recency, champ.Frequency, champ.Monetary})
	assert.Equal(t, analytics.SegmentChampions, champ.Segment)
	assert.InDelta(t, 5.0, champ.AvgInterPurchaseDays, 1e-9)
	assert.InDelta(t, 1.1, champ.ChurnRisk, 1e-9)

	drifter := profiles[1]
	assert.Equal(t, "drifter", drifter.CustomerID)
	assert.Equal(t, 3, drifter.Recency)
	assert.Equal(t, analytics.SegmentPotential, drifter.Segment)
	assert.Equal(t, 80.0, drifter.ChurnRisk)

	fresh := profiles[2]
	assert.Equal(t, analytics.SegmentNew, fresh.Segment)
	assert.Equal(t, 20.0, fresh.ChurnRisk)
	assert.Equal(t, "fresh@example.com", fresh.Email)
}

func TestCustomerProfiles_IdentityFallsBackToEmail(t *testing.T) {
	orders := []analytics.Order{
		customerOrder("", "Guest@Example.com ", at(2024, 5, 1), 10),
		customerOrder("", "guest@example.com", at(2024, 5, 2), 10),
		customerOrder("", "", at(2024, 5, 3), 10),
	}
	profiles := CustomerProfiles(orders, at(2024, 6, 1))

	require.Len(t, profiles, 1)
	assert.Equal(t, "guest@example.com", profiles[0].CustomerID)
	assert.Equal(t, 2, profiles[0].OrderCount)
}

func TestSegmentSummary(t *testing.T) {
	profiles := []analytics.CustomerProfile{
		{CustomerID: "a", Segment: analytics.SegmentChampions, TotalSpent: dec(900), OrderCount: 30},
		{CustomerID: "b", Segment: analytics.SegmentChampions, TotalSpent: dec(100), OrderCount: 20},
		{CustomerID: "c", Segment: analytics.SegmentLost, TotalSpent: dec(50), OrderCount: 1},
		{CustomerID: "d", Segment: analytics.SegmentNew, TotalSpent: dec(50), OrderCount: 1},
	}
	out := SegmentSummary(profiles)
	require.Len(t, out, len(analytics.AllSegments))

	bySegment := make(map[analytics.Segment]analytics.CustomerSegment)
	total := decimal.Zero
	for _, s := range out {
		bySegment[s.Segment] = s
		total = total.Add(s.Percentage)
	}
	assertDecimal(t, "100", total)

	champs := bySegment[analytics.SegmentChampions]
	assert.Equal(t, 2, champs.Customers)
	assertDecimal(t, "50", champs.Percentage)
	assertDecimal(t, "500", champs.AverageSpend)
	assert.Equal(t, 25.0, champs.AverageOrders)

	loyal := bySegment[analytics.SegmentLoyal]
	assert.Zero(t, loyal.Customers)
	assert.True(t, loyal.AverageSpend.IsZero())
}

func TestSegmentSummary_Empty(t *testing.T) {
	out := SegmentSummary(nil)
	require.Len(t, out, len(analytics.AllSegments))
	for _, s := range out {
		assert.Zero(t, s.Customers)
		assert.True(t, s.Percentage.IsZero())
	}
}

func TestCohorts(t *testing.T) {
	cancelled := customerOrder("c4", "", at(2024, 3, 2), 10)
	cancelled.Status = analytics.OrderStatusCancelled
	orders := []analytics.Order{
		customerOrder("c1", "", at(2024, 1, 10), 10),
		customerOrder("c1", "", at(2024, 3, 5), 10),
		customerOrder("c2", "", at(2024, 1, 20), 10),
		customerOrder("c2", "", at(2024, 2, 10), 10),
		customerOrder("c3", "", at(2024, 2, 20), 10),
		cancelled,
	}

	cohorts := Cohorts(orders, at(2024, 3, 15), 3)
	require.Len(t, cohorts, 2)

	jan := cohorts[0]
	assert.Equal(t, "2024-01", jan.Month)
	assert.Equal(t, midnight(2024, 1, 1), jan.Start)
	assert.Equal(t, 2, jan.Size)
	assert.Equal(t, []float64{100, 50, 50}, jan.Retention)

	feb := cohorts[1]
	assert.Equal(t, "2024-02", feb.Month)
	assert.Equal(t, 1, feb.Size)
	assert.Equal(t, []float64{100, 0}, feb.Retention)
}

func TestCohorts_OutsideWindow(t *testing.T) {
	orders := []analytics.Order{customerOrder("c1", "", at(2023, 6, 10), 10)}
	assert.Empty(t, Cohorts(orders, at(2024, 3, 15), 3))
}

func TestCohorts_ReturningCustomerKeepsOriginalMonth(t *testing.T) {
	orders := []analytics.Order{
		customerOrder("c1", "", at(2022, 9, 10), 10),
		customerOrder("c1", "", at(2024, 3, 5), 10),
		customerOrder("c2", "", at(2024, 3, 8), 10),
	}

	cohorts := Cohorts(orders, at(2024, 3, 15), 1)
	require.Len(t, cohorts, 1)
	assert.Equal(t, "2024-03", cohorts[0].Month)
	assert.Equal(t, 1, cohorts[0].Size, "only c2 was acquired in March")
}

func TestUnifyCustomers(t *testing.T) {
	web := customerOrder("u1", "Ana@X.com", at(2024, 5, 1), 100)
	pos := customerOrder("", " ana@x.com ", at(2024, 5, 3), 50)
	pos.Channel = analytics.ChannelPOS
	amazon := customerOrder("u2", "", at(2024, 5, 2), 30)
	amazon.Channel = analytics.ChannelAmazonFBA
	anonymous := customerOrder("", "", at(2024, 5, 4), 999)

	out := UnifyCustomers([]analytics.Order{web, pos, amazon, anonymous})
	require.Len(t, out, 2)

	ana := out[0]
	assert.Equal(t, "ana@x.com", ana.Email)
	assertDecimal(t, "150", ana.TotalSpent)
	assert.Equal(t, 2, ana.OrderCount)
	assert.Equal(t, []string{"u1"}, ana.CustomerIDs)
	assert.Equal(t, []analytics.Channel{analytics.ChannelPOS, analytics.ChannelWeb}, ana.Channels)
	require.Len(t, ana.ByChannel, 2)
	assert.Equal(t, 1, ana.ByChannel[0].Orders)
	assertDecimal(t, "50", ana.ByChannel[0].Spent)
	assert.Equal(t, at(2024, 5, 1), ana.FirstOrder)
	assert.Equal(t, at(2024, 5, 3), ana.LastOrder)

	byID := out[1]
	assert.Empty(t, byID.Email)
	assert.Equal(t, []string{"u2"}, byID.CustomerIDs)
	assert.Equal(t, []analytics.Channel{analytics.ChannelAmazonFBA}, byID.Channels)
}
