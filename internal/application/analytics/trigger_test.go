package analytics

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/GrupoEuro/SmartEC-sub000/internal/domain/analytics"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type published struct {
	rng analytics.DateRange
	val string
}

func TestRecomputer_DeliversOnlyLatest(t *testing.T) {
	first := mustRange(t, midnight(2024, 5, 1), midnight(2024, 6, 1))
	second := mustRange(t, midnight(2024, 4, 1), midnight(2024, 6, 1))

	started := make(chan struct{})
	release := make(chan struct{})
	firstCancelled := make(chan struct{})

	compute := func(ctx context.Context, r analytics.DateRange) (string, error) {
		if r == first {
			close(started)
			<-ctx.Done()
			close(firstCancelled)
			// Finish late regardless of cancellation
			<-release
			return "stale", nil
		}
		return "fresh", nil
	}

	var (
		mu  sync.Mutex
		got []published
	)
	done := make(chan struct{}, 2)
	publish := func(r analytics.DateRange, v string, err error) {
		mu.Lock()
		got = append(got, published{rng: r, val: v})
		mu.Unlock()
		done <- struct{}{}
	}
	var superseded []analytics.DateRange
	hook := WithSupersededHook[string](func(r analytics.DateRange) {
		superseded = append(superseded, r)
	})

	rc := NewRecomputer[string](context.Background(), compute, publish, hook)

	g1 := rc.Trigger(first)
	<-started
	g2 := rc.Trigger(second)
	assert.Greater(t, g2, g1)

	select {
	case <-firstCancelled:
	case <-time.After(time.Second):
		t.Fatal("superseded task was not cancelled")
	}
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("latest result was not published")
	}

	close(release)
	rc.Wait()

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, got, 1)
	assert.Equal(t, second, got[0].rng)
	assert.Equal(t, "fresh", got[0].val)
	assert.Equal(t, []analytics.DateRange{first}, superseded)
}

func TestRecomputer_CloseDropsPending(t *testing.T) {
	r := mustRange(t, midnight(2024, 5, 1), midnight(2024, 6, 1))
	started := make(chan struct{})

	compute := func(ctx context.Context, _ analytics.DateRange) (int, error) {
		close(started)
		<-ctx.Done()
		return 0, ctx.Err()
	}
	publishedCount := 0
	publish := func(analytics.DateRange, int, error) { publishedCount++ }

	rc := NewRecomputer[int](context.Background(), compute, publish)
	rc.Trigger(r)
	<-started
	rc.Close()

	assert.Zero(t, publishedCount)
	assert.Zero(t, rc.Trigger(r))
}

func TestRecomputer_PublishesErrors(t *testing.T) {
	r := mustRange(t, midnight(2024, 5, 1), midnight(2024, 6, 1))
	compute := func(ctx context.Context, _ analytics.DateRange) (int, error) {
		return 0, analytics.ErrUpstreamFetch
	}
	var gotErr error
	publish := func(_ analytics.DateRange, _ int, err error) { gotErr = err }

	rc := NewRecomputer[int](context.Background(), compute, publish)
	rc.Trigger(r)
	rc.Wait()

	assert.ErrorIs(t, gotErr, analytics.ErrUpstreamFetch)
}

func TestRecomputer_PublishCanTrigger(t *testing.T) {
	may := mustRange(t, midnight(2024, 5, 1), midnight(2024, 6, 1))
	june := mustRange(t, midnight(2024, 6, 1), midnight(2024, 7, 1))

	var (
		mu   sync.Mutex
		got  []analytics.DateRange
		rc   *Recomputer[int]
		done = make(chan struct{})
	)
	compute := func(ctx context.Context, r analytics.DateRange) (int, error) {
		return r.Days(), nil
	}
	publish := func(r analytics.DateRange, v int, err error) {
		mu.Lock()
		got = append(got, r)
		n := len(got)
		mu.Unlock()
		if n == 1 {
			rc.Trigger(june)
			return
		}
		close(done)
	}
	rc = NewRecomputer(context.Background(), compute, publish)
	defer rc.Close()

	rc.Trigger(may)

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("follow-up trigger from publish did not complete")
	}
	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []analytics.DateRange{may, june}, got)
}
