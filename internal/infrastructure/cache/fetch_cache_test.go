package cache

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/GrupoEuro/SmartEC-sub000/internal/domain/analytics"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

// blockingStore is a RecordStore whose queries wait on release.
type blockingStore struct {
	release     chan struct{}
	started     chan struct{}
	orderCalls  atomic.Int32
	productCall atomic.Int32
	failNext    atomic.Bool
	orders      []analytics.Order
}

func newBlockingStore(orders []analytics.Order) *blockingStore {
	return &blockingStore{
		release: make(chan struct{}),
		started: make(chan struct{}, 16),
		orders:  orders,
	}
}

func (s *blockingStore) QueryOrders(ctx context.Context, filter analytics.OrderFilter) ([]analytics.Order, error) {
	s.orderCalls.Add(1)
	s.started <- struct{}{}
	<-s.release
	if s.failNext.CompareAndSwap(true, false) {
		return nil, errors.New("connection refused")
	}
	var out []analytics.Order
	for _, o := range s.orders {
		if filter.Matches(o) {
			out = append(out, o)
		}
	}
	return out, nil
}

func (s *blockingStore) QueryProducts(ctx context.Context) ([]analytics.Product, error) {
	s.productCall.Add(1)
	return []analytics.Product{{ID: "P1"}}, nil
}

func testWindow() analytics.DateRange {
	return analytics.DateRange{
		Start: time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC),
		End:   time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC),
	}
}

func TestFetchCache_CoalescesConcurrentIdenticalRequests(t *testing.T) {
	store := newBlockingStore([]analytics.Order{
		{ID: "o1", CreatedAt: time.Date(2024, 5, 3, 0, 0, 0, 0, time.UTC)},
	})
	c := NewFetchCache(store, WithFetchLogger(zaptest.NewLogger(t)))
	window := testWindow()

	var wg sync.WaitGroup
	results := make([][]analytics.Order, 2)
	errs := make([]error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = c.EnsureOrders(context.Background(), window)
		}(i)
	}

	<-store.started
	time.Sleep(20 * time.Millisecond)
	close(store.release)
	wg.Wait()

	require.NoError(t, errs[0])
	require.NoError(t, errs[1])
	assert.Len(t, results[0], 1)
	assert.Len(t, results[1], 1)
	assert.Equal(t, int32(1), store.orderCalls.Load())

	orders, _ := c.FetchCounts()
	assert.Equal(t, int64(1), orders)
	assert.Len(t, c.Orders(), 1)
}

func TestFetchCache_ReusesExactAndCoveringSnapshot(t *testing.T) {
	store := newBlockingStore([]analytics.Order{
		{ID: "early", CreatedAt: time.Date(2024, 5, 2, 0, 0, 0, 0, time.UTC)},
		{ID: "late", CreatedAt: time.Date(2024, 5, 20, 0, 0, 0, 0, time.UTC)},
	})
	close(store.release)
	c := NewFetchCache(store)
	window := testWindow()

	_, err := c.EnsureOrders(context.Background(), window)
	require.NoError(t, err)
	_, err = c.EnsureOrders(context.Background(), window)
	require.NoError(t, err)

	inner := analytics.DateRange{Start: time.Date(2024, 5, 10, 0, 0, 0, 0, time.UTC), End: window.End}
	sub, err := c.EnsureOrders(context.Background(), inner)
	require.NoError(t, err)
	require.Len(t, sub, 1)
	assert.Equal(t, "late", sub[0].ID)

	assert.Equal(t, int32(1), store.orderCalls.Load())
}

func TestFetchCache_FailurePropagatesAndAllowsRetry(t *testing.T) {
	store := newBlockingStore(nil)
	store.failNext.Store(true)
	c := NewFetchCache(store)
	window := testWindow()

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = c.EnsureOrders(context.Background(), window)
		}(i)
	}
	<-store.started
	time.Sleep(20 * time.Millisecond)
	store.release <- struct{}{}
	wg.Wait()

	for _, err := range errs {
		require.Error(t, err)
		assert.True(t, errors.Is(err, analytics.ErrUpstreamFetch))
	}
	assert.Nil(t, c.Orders())

	close(store.release)
	_, err := c.EnsureOrders(context.Background(), window)
	require.NoError(t, err)
	assert.Equal(t, int32(2), store.orderCalls.Load())
}

func TestFetchCache_CancelledWaiterDoesNotAbortFetch(t *testing.T) {
	store := newBlockingStore([]analytics.Order{
		{ID: "o1", CreatedAt: time.Date(2024, 5, 3, 0, 0, 0, 0, time.UTC)},
	})
	c := NewFetchCache(store)
	window := testWindow()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		_, err := c.EnsureOrders(ctx, window)
		done <- err
	}()

	<-store.started
	cancel()
	assert.ErrorIs(t, <-done, context.Canceled)

	close(store.release)
	orders, err := c.EnsureOrders(context.Background(), window)
	require.NoError(t, err)
	assert.Len(t, orders, 1)
	assert.Equal(t, int32(1), store.orderCalls.Load())
}

func TestFetchCache_ProductsLoadedOnceUntilInvalidated(t *testing.T) {
	store := newBlockingStore(nil)
	var hookCalls atomic.Int32
	c := NewFetchCache(store, WithFetchHook(func(ctx context.Context, kind string, elapsed time.Duration, err error) {
		hookCalls.Add(1)
		assert.Equal(t, "products", kind)
	}))

	for i := 0; i < 3; i++ {
		products, err := c.EnsureProducts(context.Background())
		require.NoError(t, err)
		assert.Len(t, products, 1)
	}
	assert.Equal(t, int32(1), store.productCall.Load())

	c.Invalidate()
	assert.Nil(t, c.Products())

	_, err := c.EnsureProducts(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int32(2), store.productCall.Load())
	assert.Equal(t, int32(2), hookCalls.Load())
}
