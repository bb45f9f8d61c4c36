package telemetry

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/metric"
)

// AnalyticsMetrics records engine activity: store queries, memo cache
// effectiveness, report latency, fallbacks and superseded recomputations.
type AnalyticsMetrics struct {
	fetchTotal      *Counter
	fetchDuration   *Histogram
	cacheHits       *Counter
	cacheMisses     *Counter
	computeDuration *Histogram
	fallbackTotal   *Counter
	supersededTotal *Counter
}

// NewAnalyticsMetrics registers the instruments on meter.
func NewAnalyticsMetrics(meter metric.Meter) (*AnalyticsMetrics, error) {
	if meter == nil {
		return nil, ErrMeterNil
	}

	m := &AnalyticsMetrics{}
	var err error
	if m.fetchTotal, err = NewCounter(meter, "analytics_store_fetch_total", "Record store bulk queries", "{query}"); err != nil {
		return nil, err
	}
	if m.fetchDuration, err = NewHistogram(meter, "analytics_store_fetch_duration_seconds", "Record store query latency", "s", ComputeDurationBuckets...); err != nil {
		return nil, err
	}
	if m.cacheHits, err = NewCounter(meter, "analytics_cache_hits_total", "Memoized report hits", "{hit}"); err != nil {
		return nil, err
	}
	if m.cacheMisses, err = NewCounter(meter, "analytics_cache_misses_total", "Memoized report misses", "{miss}"); err != nil {
		return nil, err
	}
	if m.computeDuration, err = NewHistogram(meter, "analytics_compute_duration_seconds", "Report computation latency", "s", ComputeDurationBuckets...); err != nil {
		return nil, err
	}
	if m.fallbackTotal, err = NewCounter(meter, "analytics_fallback_total", "Reports served as zero-valued defaults", "{report}"); err != nil {
		return nil, err
	}
	if m.supersededTotal, err = NewCounter(meter, "analytics_superseded_total", "Recomputations discarded by a newer request", "{task}"); err != nil {
		return nil, err
	}
	return m, nil
}

func outcome(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

// RecordFetch records one store query.
func (m *AnalyticsMetrics) RecordFetch(ctx context.Context, kind string, elapsed time.Duration, err error) {
	if m == nil {
		return
	}
	m.fetchTotal.Inc(ctx, AttrFetchKind.String(kind), AttrOutcome.String(outcome(err)))
	m.fetchDuration.RecordDuration(ctx, elapsed, AttrFetchKind.String(kind))
}

// RecordCache records a memo cache lookup.
func (m *AnalyticsMetrics) RecordCache(ctx context.Context, operation string, hit bool) {
	if m == nil {
		return
	}
	if hit {
		m.cacheHits.Inc(ctx, AttrOperation.String(operation))
		return
	}
	m.cacheMisses.Inc(ctx, AttrOperation.String(operation))
}

// RecordCompute records the latency of a report computation.
func (m *AnalyticsMetrics) RecordCompute(ctx context.Context, operation string, elapsed time.Duration, err error) {
	if m == nil {
		return
	}
	m.computeDuration.RecordDuration(ctx, elapsed, AttrOperation.String(operation), AttrOutcome.String(outcome(err)))
}

// RecordFallback records a report replaced by its default.
func (m *AnalyticsMetrics) RecordFallback(ctx context.Context, operation string) {
	if m == nil {
		return
	}
	m.fallbackTotal.Inc(ctx, AttrOperation.String(operation))
}

// RecordSuperseded records a discarded recomputation.
func (m *AnalyticsMetrics) RecordSuperseded(ctx context.Context, operation string) {
	if m == nil {
		return
	}
	m.supersededTotal.Inc(ctx, AttrOperation.String(operation))
}
