package analytics

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/GrupoEuro/SmartEC-sub000/internal/domain/analytics"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func at(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 12, 0, 0, 0, time.UTC)
}

func midnight(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func dec(v int64) decimal.Decimal {
	return decimal.NewFromInt(v)
}

func ptr(d decimal.Decimal) *decimal.Decimal {
	return &d
}

func assertDecimal(t *testing.T, want string, got decimal.Decimal, msgAndArgs ...any) {
	t.Helper()
	assert.True(t, decimal.RequireFromString(want).Equal(got),
		append([]any{"want %s, got %s", want, got.String()}, msgAndArgs...)...)
}

func product(id, category, brand string, price, cost int64, stock int64) analytics.Product {
	p := analytics.Product{
		ID:         id,
		Name:       "Product " + id,
		SKU:        "SKU-" + id,
		CategoryID: category,
		Brand:      brand,
		Price:      dec(price),
		Stock:      stock,
		Active:     true,
	}
	if cost >= 0 {
		p.CostPrice = ptr(dec(cost))
	}
	return p
}

func sale(id string, createdAt time.Time, items ...analytics.OrderItem) analytics.Order {
	total := decimal.Zero
	for _, it := range items {
		total = total.Add(it.Revenue())
	}
	return analytics.Order{
		ID:        id,
		CreatedAt: createdAt,
		Status:    analytics.OrderStatusDelivered,
		Channel:   analytics.ChannelWeb,
		Total:     total,
		Items:     items,
	}
}

func line(productID string, price, qty int64) analytics.OrderItem {
	return analytics.OrderItem{ProductID: productID, UnitPrice: dec(price), Quantity: qty}
}

func mustRange(t *testing.T, start, end time.Time) analytics.DateRange {
	t.Helper()
	r, err := analytics.NewDateRange(start, end)
	if err != nil {
		t.Fatalf("invalid range: %v", err)
	}
	return r
}

// memStore is an in-memory RecordStore with call counters and a failure switch.
type memStore struct {
	mu         sync.Mutex
	orders     []analytics.Order
	products   []analytics.Product
	fail       atomic.Bool
	orderCalls atomic.Int32
	prodCalls  atomic.Int32
}

func (s *memStore) QueryOrders(ctx context.Context, filter analytics.OrderFilter) ([]analytics.Order, error) {
	s.orderCalls.Add(1)
	if s.fail.Load() {
		return nil, errors.New("store unavailable")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]analytics.Order, 0, len(s.orders))
	for _, o := range s.orders {
		if filter.Matches(o) {
			out = append(out, o)
		}
	}
	return out, nil
}

func (s *memStore) QueryProducts(ctx context.Context) ([]analytics.Product, error) {
	s.prodCalls.Add(1)
	if s.fail.Load() {
		return nil, errors.New("store unavailable")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]analytics.Product(nil), s.products...), nil
}

func (s *memStore) addOrders(orders ...analytics.Order) {
	s.mu.Lock()
	s.orders = append(s.orders, orders...)
	s.mu.Unlock()
}

// testClock is a settable time source.
type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}
