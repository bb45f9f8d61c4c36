package analytics

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOrderItem_Revenue(t *testing.T) {
	item := OrderItem{ProductID: "P1", UnitPrice: decimal.NewFromInt(50), Quantity: 2}
	assert.True(t, decimal.NewFromInt(100).Equal(item.Revenue()))

	sub := decimal.RequireFromString("95.50")
	item.Subtotal = &sub
	assert.True(t, sub.Equal(item.Revenue()))
}

func TestOrderStatus_IsRevenue(t *testing.T) {
	assert.True(t, OrderStatusDelivered.IsRevenue())
	assert.True(t, ParseOrderStatus(" Pending ").IsRevenue())
	assert.False(t, ParseOrderStatus("CANCELLED").IsRevenue())
	assert.False(t, OrderStatusRefunded.IsRevenue())
}

func TestCustomerRef_IdentityKey(t *testing.T) {
	assert.Equal(t, "c-1", CustomerRef{ID: "c-1", Email: "A@b.com"}.IdentityKey())
	assert.Equal(t, "a@b.com", CustomerRef{Email: "  A@B.com "}.IdentityKey())
}

func TestNormalizeEmail(t *testing.T) {
	assert.Equal(t, "ana@example.com", NormalizeEmail("Ana@Example.COM"))
	assert.Equal(t, "ana@example.com", NormalizeEmail("\uff21na@example.com"), "full-width A")
	assert.Equal(t, "strasse@example.com", NormalizeEmail("STRASSE@example.com"))
	assert.Equal(t, NormalizeEmail("straße@example.com"), NormalizeEmail("STRASSE@example.com"))
	assert.Empty(t, NormalizeEmail("   "))
}

func TestProduct_Keys(t *testing.T) {
	for _, c := range []string{"", "undefined", "null", "  "} {
		assert.Equal(t, UncategorizedKey, Product{CategoryID: c}.CategoryKey())
	}
	assert.Equal(t, "tires", Product{CategoryID: "tires"}.CategoryKey())
	assert.Equal(t, UnknownBrand, Product{}.BrandKey())
	assert.Equal(t, "Acme", Product{Brand: "Acme"}.BrandKey())
}

func TestProduct_UnitCost(t *testing.T) {
	p := Product{Price: decimal.NewFromInt(100)}
	assert.True(t, decimal.NewFromInt(70).Equal(p.UnitCost(DefaultCostRatio)))

	cost := decimal.NewFromInt(20)
	p.CostPrice = &cost
	assert.True(t, cost.Equal(p.UnitCost(DefaultCostRatio)))
}

func TestDateRange(t *testing.T) {
	start := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 3, 31, 0, 0, 0, 0, time.UTC)

	r, err := NewDateRange(start, end)
	require.NoError(t, err)
	assert.Equal(t, 30, r.Days())

	prev := r.Previous()
	assert.Equal(t, start.AddDate(0, 0, -30), prev.Start)
	assert.Equal(t, start, prev.End)
	assert.Equal(t, prev.Start, r.Extended().Start)

	assert.True(t, r.Contains(start))
	assert.False(t, r.Contains(end))
	assert.True(t, r.Extended().Covers(r))
	assert.False(t, r.Covers(r.Extended()))

	_, err = NewDateRange(end, start)
	assert.True(t, errors.Is(err, ErrInvalidRange))
}

func TestOrderFilter_Matches(t *testing.T) {
	r := DateRange{
		Start: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		End:   time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC),
	}
	o := Order{CreatedAt: time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC), Status: OrderStatusShipped}

	assert.True(t, OrderFilter{}.Matches(o))
	assert.True(t, OrderFilter{Range: &r}.Matches(o))
	assert.True(t, OrderFilter{Statuses: []OrderStatus{OrderStatusShipped}}.Matches(o))
	assert.False(t, OrderFilter{Statuses: []OrderStatus{OrderStatusPending}}.Matches(o))

	o.CreatedAt = r.End
	assert.False(t, OrderFilter{Range: &r}.Matches(o))
}

func TestMonthsBetween(t *testing.T) {
	a := time.Date(2023, 11, 20, 0, 0, 0, 0, time.UTC)
	b := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, 3, MonthsBetween(a, b))
	assert.Equal(t, 0, MonthsBetween(a, a))
}
