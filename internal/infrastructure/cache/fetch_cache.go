package cache

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/GrupoEuro/SmartEC-sub000/internal/domain/analytics"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

const productsFlightKey = "products"

// FetchHook observes every real store query made by a FetchCache.
type FetchHook func(ctx context.Context, kind string, elapsed time.Duration, err error)

// orderSnapshot is the order set fetched for one window
type orderSnapshot struct {
	window analytics.DateRange
	orders []analytics.Order
}

// FetchCache holds the most recent order and product snapshots read from the
// record store and coalesces concurrent identical bulk reads into a single
// query. Failures reach every waiter of the failed query and are never
// cached, so the next call retries.
type FetchCache struct {
	store  analytics.RecordStore
	flight singleflight.Group
	logger *zap.Logger
	hook   FetchHook

	mu       sync.RWMutex
	orders   *orderSnapshot
	products []analytics.Product
	loaded   bool

	orderFetches   atomic.Int64
	productFetches atomic.Int64
}

// FetchCacheOption configures a FetchCache
type FetchCacheOption func(*FetchCache)

// WithFetchLogger sets the logger
func WithFetchLogger(logger *zap.Logger) FetchCacheOption {
	return func(c *FetchCache) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithFetchHook registers an observer for store queries
func WithFetchHook(hook FetchHook) FetchCacheOption {
	return func(c *FetchCache) {
		c.hook = hook
	}
}

// NewFetchCache creates a FetchCache over store.
func NewFetchCache(store analytics.RecordStore, opts ...FetchCacheOption) *FetchCache {
	c := &FetchCache{
		store:  store,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// EnsureOrders makes sure the orders for window are loaded and returns them.
// A snapshot for the exact window, or one covering it, is reused without a
// query. The returned slice is the caller's view; later calls for other
// windows replace the shared snapshot but never mutate a returned slice.
func (c *FetchCache) EnsureOrders(ctx context.Context, window analytics.DateRange) ([]analytics.Order, error) {
	if orders, ok := c.cachedOrders(window); ok {
		return orders, nil
	}

	key := "orders:" + window.Key()
	ch := c.flight.DoChan(key, func() (any, error) {
		fetchCtx := context.WithoutCancel(ctx)
		start := time.Now()
		orders, err := c.store.QueryOrders(fetchCtx, analytics.OrderFilter{Range: &window})
		c.orderFetches.Add(1)
		c.observe(fetchCtx, "orders", time.Since(start), err)
		if err != nil {
			c.logger.Error("Order fetch failed",
				zap.String("window", window.String()),
				zap.Error(err))
			return nil, fmt.Errorf("%w: %v", analytics.ErrUpstreamFetch, err)
		}

		c.mu.Lock()
		c.orders = &orderSnapshot{window: window, orders: orders}
		c.mu.Unlock()

		c.logger.Debug("Order snapshot loaded",
			zap.String("window", window.String()),
			zap.Int("orders", len(orders)))
		return orders, nil
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.([]analytics.Order), nil
	}
}

func (c *FetchCache) cachedOrders(window analytics.DateRange) ([]analytics.Order, bool) {
	c.mu.RLock()
	snap := c.orders
	c.mu.RUnlock()

	if snap == nil {
		return nil, false
	}
	if snap.window == window {
		return snap.orders, true
	}
	if !snap.window.Covers(window) {
		return nil, false
	}

	subset := make([]analytics.Order, 0, len(snap.orders))
	for _, o := range snap.orders {
		if window.Contains(o.CreatedAt) {
			subset = append(subset, o)
		}
	}
	return subset, true
}

// EnsureProducts loads the catalog once and returns it.
func (c *FetchCache) EnsureProducts(ctx context.Context) ([]analytics.Product, error) {
	c.mu.RLock()
	products, loaded := c.products, c.loaded
	c.mu.RUnlock()
	if loaded {
		return products, nil
	}

	ch := c.flight.DoChan(productsFlightKey, func() (any, error) {
		fetchCtx := context.WithoutCancel(ctx)
		start := time.Now()
		products, err := c.store.QueryProducts(fetchCtx)
		c.productFetches.Add(1)
		c.observe(fetchCtx, "products", time.Since(start), err)
		if err != nil {
			c.logger.Error("Product fetch failed", zap.Error(err))
			return nil, fmt.Errorf("%w: %v", analytics.ErrUpstreamFetch, err)
		}

		c.mu.Lock()
		c.products = products
		c.loaded = true
		c.mu.Unlock()
		return products, nil
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.([]analytics.Product), nil
	}
}

// Orders returns the current order snapshot without blocking.
func (c *FetchCache) Orders() []analytics.Order {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.orders == nil {
		return nil
	}
	return c.orders.orders
}

// Products returns the current catalog snapshot without blocking.
func (c *FetchCache) Products() []analytics.Product {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.products
}

// Invalidate drops both snapshots. In-flight queries still complete and
// repopulate.
func (c *FetchCache) Invalidate() {
	c.mu.Lock()
	c.orders = nil
	c.products = nil
	c.loaded = false
	c.mu.Unlock()
}

// FetchCounts returns how many store queries have been issued.
func (c *FetchCache) FetchCounts() (orders, products int64) {
	return c.orderFetches.Load(), c.productFetches.Load()
}

func (c *FetchCache) observe(ctx context.Context, kind string, elapsed time.Duration, err error) {
	if c.hook != nil {
		c.hook(ctx, kind, elapsed, err)
	}
}
