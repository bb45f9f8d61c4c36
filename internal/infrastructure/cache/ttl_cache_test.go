package cache

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/GrupoEuro/SmartEC-sub000/internal/domain/analytics"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func TestNewKey(t *testing.T) {
	t.Run("separator prevents concatenation collisions", func(t *testing.T) {
		assert.NotEqual(t, NewKey("op", "a", "bc"), NewKey("op", "ab", "c"))
	})

	t.Run("times compare by instant", func(t *testing.T) {
		utc := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
		local := utc.In(time.FixedZone("X", 3600))
		assert.Equal(t, NewKey("op", utc), NewKey("op", local))
	})

	t.Run("date ranges use their canonical key", func(t *testing.T) {
		r := testWindow()
		assert.Equal(t, NewKey("revenue", r), NewKey("revenue", analytics.DateRange{Start: r.Start, End: r.End}))
		assert.NotEqual(t, NewKey("revenue", r), NewKey("margin", r))
	})

	t.Run("string form", func(t *testing.T) {
		assert.Equal(t, `forecast(30,"x")`, NewKey("forecast", 30, "x").String())
	})
}

func TestTTLCache_Expiry(t *testing.T) {
	clock := &fakeClock{now: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	c := NewTTLCache[int]("test", WithClock(clock.Now))
	key := NewKey("op", 1)

	c.Set(key, 42)

	clock.Advance(DefaultTTL - time.Millisecond)
	v, ok := c.Get(key)
	require.True(t, ok)
	assert.Equal(t, 42, v)

	clock.Advance(time.Millisecond)
	_, ok = c.Get(key)
	assert.False(t, ok, "entry must not be served at exactly ttl")
	assert.Equal(t, 0, c.Len())

	hits, misses := c.Stats()
	assert.Equal(t, int64(1), hits)
	assert.Equal(t, int64(1), misses)
}

func TestTTLCache_ClearAndPrune(t *testing.T) {
	clock := &fakeClock{now: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	c := NewTTLCache[string]("test", WithClock(clock.Now), WithTTL(time.Minute))

	c.Set(NewKey("a"), "1")
	clock.Advance(30 * time.Second)
	c.Set(NewKey("b"), "2")
	clock.Advance(31 * time.Second)

	assert.Equal(t, 1, c.Prune())
	assert.Equal(t, 1, c.Len())

	c.Clear(context.Background())
	assert.Equal(t, 0, c.Len())
	_, ok := c.Get(NewKey("b"))
	assert.False(t, ok)
}

func TestTTLCache_GetOrLoad(t *testing.T) {
	c := NewTTLCache[int]("test")
	key := NewKey("op")
	calls := 0
	load := func(ctx context.Context) (int, error) {
		calls++
		return 7, nil
	}

	v, hit, err := c.GetOrLoad(context.Background(), key, load)
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Equal(t, 7, v)

	v, hit, err = c.GetOrLoad(context.Background(), key, load)
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, 7, v)
	assert.Equal(t, 1, calls)
}

func TestTTLCache_GetOrLoadErrorIsNotCached(t *testing.T) {
	c := NewTTLCache[int]("test")
	key := NewKey("op")
	boom := errors.New("boom")

	_, _, err := c.GetOrLoad(context.Background(), key, func(ctx context.Context) (int, error) {
		return 0, boom
	})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 0, c.Len())
}

// memoryResultStore is an in-process ResultStore used to exercise the L2 path.
type memoryResultStore struct {
	mu      sync.Mutex
	entries map[string]memoryResult
}

type memoryResult struct {
	value    int
	storedAt time.Time
}

func newMemoryResultStore() *memoryResultStore {
	return &memoryResultStore{entries: make(map[string]memoryResult)}
}

func (s *memoryResultStore) Get(ctx context.Context, ns string, key Key, dst any) (time.Time, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[ns+key.String()]
	if !ok {
		return time.Time{}, false, nil
	}
	*(dst.(*int)) = e.value
	return e.storedAt, true, nil
}

func (s *memoryResultStore) Set(ctx context.Context, ns string, key Key, value any, storedAt time.Time, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[ns+key.String()] = memoryResult{value: value.(int), storedAt: storedAt}
	return nil
}

func (s *memoryResultStore) Clear(ctx context.Context, ns string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = make(map[string]memoryResult)
	return nil
}

func TestTTLCache_SharedResultStore(t *testing.T) {
	clock := &fakeClock{now: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	l2 := newMemoryResultStore()
	first := NewTTLCache[int]("revenue", WithClock(clock.Now), WithResultStore(l2))
	second := NewTTLCache[int]("revenue", WithClock(clock.Now), WithResultStore(l2))
	key := NewKey("op")

	_, _, err := first.GetOrLoad(context.Background(), key, func(ctx context.Context) (int, error) { return 99, nil })
	require.NoError(t, err)

	clock.Advance(time.Minute)
	v, hit, err := second.GetOrLoad(context.Background(), key, func(ctx context.Context) (int, error) {
		t.Fatal("second instance must reuse the shared result")
		return 0, nil
	})
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, 99, v)

	clock.Advance(DefaultTTL)
	v, hit, err = second.GetOrLoad(context.Background(), key, func(ctx context.Context) (int, error) { return 100, nil })
	require.NoError(t, err)
	assert.False(t, hit, "shared entry keeps its original store time")
	assert.Equal(t, 100, v)

	second.Clear(context.Background())
	_, found, _ := l2.Get(context.Background(), "revenue", key, new(int))
	assert.False(t, found)
}
