package analytics

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/GrupoEuro/SmartEC-sub000/internal/domain/analytics"
	"github.com/GrupoEuro/SmartEC-sub000/internal/infrastructure/cache"
	"github.com/GrupoEuro/SmartEC-sub000/internal/infrastructure/logger"
	"github.com/GrupoEuro/SmartEC-sub000/internal/infrastructure/telemetry"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Report operation names, used as cache namespaces, span names and metric
// attributes.
const (
	OpRevenueAndMargin   = "revenue_and_margin"
	OpForecast           = "forecast"
	OpInventoryMetrics   = "inventory_metrics"
	OpRestockSuggestions = "restock_suggestions"
	OpProductPerformance = "product_performance"
	OpCustomerSegments   = "customer_segments"
	OpCustomerProfiles   = "customer_profiles"
	OpUnifiedCustomers   = "unified_customers"
	OpCohorts            = "cohorts"
	OpBriefing           = "briefing"
)

// Parameter limits
const (
	MaxHistoryDays  = 730
	MaxForecastDays = 365
	MaxMonthsBack   = 36

	briefingHistoryDays  = 30
	briefingForecastDays = 7
)

// Config holds the tunable constants of the engine
type Config struct {
	CacheTTL            time.Duration
	CostRatio           decimal.Decimal
	Policy              analytics.ReorderPolicy
	VelocityHistoryDays int
	ABCWindowDays       int
	TrendThreshold      float64
}

// DefaultConfig returns the standard engine settings.
func DefaultConfig() Config {
	return Config{
		CacheTTL:            cache.DefaultTTL,
		CostRatio:           analytics.DefaultCostRatio,
		Policy:              analytics.DefaultReorderPolicy(),
		VelocityHistoryDays: 30,
		ABCWindowDays:       90,
		TrendThreshold:      analytics.DefaultTrendThreshold,
	}
}

// Service exposes the analytics report entry points. Every report is
// memoized per (operation, parameters) for the cache TTL. When the record
// store fails a report resolves to its zero-valued default instead of an
// error; errors are returned only for invalid arguments and cancellation.
type Service struct {
	fetch   *cache.FetchCache
	cfg     Config
	now     func() time.Time
	logger  *zap.Logger
	metrics *telemetry.AnalyticsMetrics

	revenue     *cache.TTLCache[analytics.RevenueReport]
	forecast    *cache.TTLCache[analytics.Forecast]
	inventory   *cache.TTLCache[analytics.InventoryMetrics]
	restock     *cache.TTLCache[[]analytics.RestockSuggestion]
	performance *cache.TTLCache[[]analytics.ProductPerformance]
	segments    *cache.TTLCache[[]analytics.CustomerSegment]
	profiles    *cache.TTLCache[[]analytics.CustomerProfile]
	unified     *cache.TTLCache[[]analytics.UnifiedCustomer]
	cohorts     *cache.TTLCache[[]analytics.Cohort]
	briefing    *cache.TTLCache[analytics.Briefing]

	clearers []func(ctx context.Context)
	pruners  []func() int
}

type serviceOptions struct {
	now     func() time.Time
	logger  *zap.Logger
	metrics *telemetry.AnalyticsMetrics
	l2      cache.ResultStore
}

// Option configures a Service
type Option func(*serviceOptions)

// WithClock sets the time source used for "today" and cache expiry.
func WithClock(now func() time.Time) Option {
	return func(o *serviceOptions) {
		if now != nil {
			o.now = now
		}
	}
}

// WithLogger sets the logger
func WithLogger(l *zap.Logger) Option {
	return func(o *serviceOptions) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithMetrics sets the metrics recorder
func WithMetrics(m *telemetry.AnalyticsMetrics) Option {
	return func(o *serviceOptions) {
		o.metrics = m
	}
}

// WithResultStore shares memoized reports through a second-level store.
func WithResultStore(store cache.ResultStore) Option {
	return func(o *serviceOptions) {
		o.l2 = store
	}
}

func newReportCache[V any](s *Service, name string, o serviceOptions) *cache.TTLCache[V] {
	opts := []cache.TTLCacheOption{
		cache.WithTTL(s.cfg.CacheTTL),
		cache.WithClock(o.now),
		cache.WithTTLLogger(o.logger),
	}
	if o.l2 != nil {
		opts = append(opts, cache.WithResultStore(o.l2))
	}
	c := cache.NewTTLCache[V](name, opts...)
	s.clearers = append(s.clearers, c.Clear)
	s.pruners = append(s.pruners, c.Prune)
	return c
}

// NewService creates the analytics service over a shared fetch cache.
func NewService(fetch *cache.FetchCache, cfg Config, opts ...Option) *Service {
	o := serviceOptions{now: time.Now, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(&o)
	}
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = cache.DefaultTTL
	}

	s := &Service{
		fetch:   fetch,
		cfg:     cfg,
		now:     o.now,
		logger:  o.logger,
		metrics: o.metrics,
	}
	s.revenue = newReportCache[analytics.RevenueReport](s, OpRevenueAndMargin, o)
	s.forecast = newReportCache[analytics.Forecast](s, OpForecast, o)
	s.inventory = newReportCache[analytics.InventoryMetrics](s, OpInventoryMetrics, o)
	s.restock = newReportCache[[]analytics.RestockSuggestion](s, OpRestockSuggestions, o)
	s.performance = newReportCache[[]analytics.ProductPerformance](s, OpProductPerformance, o)
	s.segments = newReportCache[[]analytics.CustomerSegment](s, OpCustomerSegments, o)
	s.profiles = newReportCache[[]analytics.CustomerProfile](s, OpCustomerProfiles, o)
	s.unified = newReportCache[[]analytics.UnifiedCustomer](s, OpUnifiedCustomers, o)
	s.cohorts = newReportCache[[]analytics.Cohort](s, OpCohorts, o)
	s.briefing = newReportCache[analytics.Briefing](s, OpBriefing, o)
	return s
}

// reportCall describes one memoized report computation
type reportCall[T any] struct {
	op       string
	cache    *cache.TTLCache[T]
	key      cache.Key
	fields   []zap.Field
	fallback func() T
	compute  func(ctx context.Context) (T, error)
}

// runReport serves a report from cache or computes it. Failures other than
// cancellation are logged and replaced by the fallback; nothing is cached
// for a failed computation.
func runReport[T any](ctx context.Context, s *Service, c reportCall[T]) (T, error) {
	ctx, span := telemetry.StartSpan(ctx, "analytics."+c.op, telemetry.AttrOperation.String(c.op))
	defer span.End()

	compute := func(ctx context.Context) (v T, err error) {
		telemetry.WithOperationLabel(ctx, c.op, func(ctx context.Context) {
			v, err = c.compute(ctx)
		})
		return v, err
	}

	start := time.Now()
	v, hit, err := c.cache.GetOrLoad(ctx, c.key, compute)
	s.metrics.RecordCache(ctx, c.op, hit)
	if !hit {
		s.metrics.RecordCompute(ctx, c.op, time.Since(start), err)
	}
	if err == nil {
		return v, nil
	}

	if ctxErr := ctx.Err(); ctxErr != nil {
		var zero T
		return zero, ctxErr
	}

	telemetry.RecordError(span, err)
	s.metrics.RecordFallback(ctx, c.op)
	fields := append([]zap.Field{zap.String("operation", c.op), zap.Error(err)}, c.fields...)
	logger.WithLogger(ctx, s.logger).Error("Report computation failed, serving default", fields...)
	return c.fallback(), nil
}

func rangeFields(r analytics.DateRange) []zap.Field {
	return []zap.Field{
		zap.Time("start", r.Start),
		zap.Time("end", r.End),
	}
}

// snapshot loads orders for window and the product catalog concurrently.
func (s *Service) snapshot(ctx context.Context, window analytics.DateRange) ([]analytics.Order, []analytics.Product, error) {
	var (
		orders   []analytics.Order
		products []analytics.Product
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		orders, err = s.fetch.EnsureOrders(gctx, window)
		return err
	})
	g.Go(func() error {
		var err error
		products, err = s.fetch.EnsureProducts(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	return orders, products, nil
}

// today is the exclusive end of the last complete day.
func (s *Service) today() time.Time {
	return analytics.StartOfDay(s.now())
}

// aggregate runs the single-pass aggregation for r and its prior period.
func (s *Service) aggregate(ctx context.Context, r analytics.DateRange) (*PeriodAggregate, error) {
	orders, products, err := s.snapshot(ctx, r.Extended())
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return Aggregate(orders, analytics.IndexProducts(products), r, s.cfg.CostRatio), nil
}

// GetRevenueAndMargin returns revenue, margin, profitability and the Boston
// matrix for [start, end) compared with the preceding period.
func (s *Service) GetRevenueAndMargin(ctx context.Context, start, end time.Time) (analytics.RevenueReport, error) {
	r, err := analytics.NewDateRange(start, end)
	if err != nil {
		return analytics.RevenueReport{}, err
	}
	return runReport(ctx, s, reportCall[analytics.RevenueReport]{
		op:       OpRevenueAndMargin,
		cache:    s.revenue,
		key:      cache.NewKey(OpRevenueAndMargin, r),
		fields:   rangeFields(r),
		fallback: func() analytics.RevenueReport { return DefaultRevenueReport(r) },
		compute: func(ctx context.Context) (analytics.RevenueReport, error) {
			agg, err := s.aggregate(ctx, r)
			if err != nil {
				return analytics.RevenueReport{}, err
			}
			report := analytics.RevenueReport{
				Range:         r,
				Revenue:       agg.RevenueMetrics(),
				Margin:        agg.MarginMetrics(),
				Profitability: agg.Profitability(),
			}
			if err := ctx.Err(); err != nil {
				return analytics.RevenueReport{}, err
			}
			report.BostonMatrix = agg.BostonMatrix()
			return report, nil
		},
	})
}

// GetForecast fits the last historyDays complete days of revenue and
// projects forecastDays ahead.
func (s *Service) GetForecast(ctx context.Context, historyDays, forecastDays int) (analytics.Forecast, error) {
	if historyDays < 1 || historyDays > MaxHistoryDays || forecastDays < 0 || forecastDays > MaxForecastDays {
		return analytics.Forecast{}, fmt.Errorf("%w: history_days=%d forecast_days=%d", analytics.ErrInvalidParameter, historyDays, forecastDays)
	}
	window := analytics.TrailingDays(s.today(), historyDays)
	return runReport(ctx, s, reportCall[analytics.Forecast]{
		op:       OpForecast,
		cache:    s.forecast,
		key:      cache.NewKey(OpForecast, window, forecastDays),
		fields:   append(rangeFields(window), zap.Int("forecast_days", forecastDays)),
		fallback: func() analytics.Forecast { return DefaultForecast(historyDays, forecastDays) },
		compute: func(ctx context.Context) (analytics.Forecast, error) {
			orders, err := s.fetch.EnsureOrders(ctx, window)
			if err != nil {
				return analytics.Forecast{}, err
			}
			return RevenueForecast(DailyRevenue(orders, window), window, forecastDays, s.cfg.TrendThreshold), nil
		},
	})
}

func (s *Service) inventoryInput(r analytics.DateRange) InventoryInput {
	return InventoryInput{
		Period:       r,
		Policy:       s.cfg.Policy,
		CostRatio:    s.cfg.CostRatio,
		VelocityDays: s.cfg.VelocityHistoryDays,
		ABCDays:      s.cfg.ABCWindowDays,
	}
}

// GetInventoryMetrics returns portfolio inventory health for [start, end).
func (s *Service) GetInventoryMetrics(ctx context.Context, start, end time.Time) (analytics.InventoryMetrics, error) {
	r, err := analytics.NewDateRange(start, end)
	if err != nil {
		return analytics.InventoryMetrics{}, err
	}
	return runReport(ctx, s, reportCall[analytics.InventoryMetrics]{
		op:       OpInventoryMetrics,
		cache:    s.inventory,
		key:      cache.NewKey(OpInventoryMetrics, r),
		fields:   rangeFields(r),
		fallback: func() analytics.InventoryMetrics { return DefaultInventoryMetrics(r) },
		compute: func(ctx context.Context) (analytics.InventoryMetrics, error) {
			in := s.inventoryInput(r)
			orders, products, err := s.snapshot(ctx, in.Window())
			if err != nil {
				return analytics.InventoryMetrics{}, err
			}
			if err := ctx.Err(); err != nil {
				return analytics.InventoryMetrics{}, err
			}
			in.Orders = orders
			in.Products = products
			return InventoryReport(in), nil
		},
	})
}

// GetRestockSuggestions returns the products needing replenishment as of
// end, most urgent first. An end inside a day is rounded up to the next
// midnight so every request made during that day shares one result.
func (s *Service) GetRestockSuggestions(ctx context.Context, end time.Time) ([]analytics.RestockSuggestion, error) {
	end = endOfDay(end)
	window := analytics.TrailingDays(end, s.cfg.VelocityHistoryDays)
	return runReport(ctx, s, reportCall[[]analytics.RestockSuggestion]{
		op:       OpRestockSuggestions,
		cache:    s.restock,
		key:      cache.NewKey(OpRestockSuggestions, end),
		fields:   rangeFields(window),
		fallback: func() []analytics.RestockSuggestion { return []analytics.RestockSuggestion{} },
		compute: func(ctx context.Context) ([]analytics.RestockSuggestion, error) {
			orders, products, err := s.snapshot(ctx, window)
			if err != nil {
				return nil, err
			}
			velocities := Velocities(products, orders, window)
			return RestockSuggestions(products, velocities, end, s.cfg.Policy), nil
		},
	})
}

// endOfDay maps t to the following midnight unless t already is one.
func endOfDay(t time.Time) time.Time {
	day := analytics.StartOfDay(t)
	if day.Equal(t) {
		return t
	}
	return day.AddDate(0, 0, 1)
}

// GetProductPerformance returns the per-product scorecard for [start, end).
func (s *Service) GetProductPerformance(ctx context.Context, start, end time.Time) ([]analytics.ProductPerformance, error) {
	r, err := analytics.NewDateRange(start, end)
	if err != nil {
		return nil, err
	}
	return runReport(ctx, s, reportCall[[]analytics.ProductPerformance]{
		op:       OpProductPerformance,
		cache:    s.performance,
		key:      cache.NewKey(OpProductPerformance, r),
		fields:   rangeFields(r),
		fallback: func() []analytics.ProductPerformance { return []analytics.ProductPerformance{} },
		compute: func(ctx context.Context) ([]analytics.ProductPerformance, error) {
			agg, err := s.aggregate(ctx, r)
			if err != nil {
				return nil, err
			}
			return agg.ProductPerformance(s.cfg.CostRatio), nil
		},
	})
}

func (s *Service) customerProfiles(ctx context.Context, r analytics.DateRange) ([]analytics.CustomerProfile, error) {
	orders, err := s.fetch.EnsureOrders(ctx, r)
	if err != nil {
		return nil, err
	}
	return CustomerProfiles(orders, r.End), nil
}

// GetCustomerSegments returns RFM segment sizes for customers who ordered in
// [start, end), scored as of end.
func (s *Service) GetCustomerSegments(ctx context.Context, start, end time.Time) ([]analytics.CustomerSegment, error) {
	r, err := analytics.NewDateRange(start, end)
	if err != nil {
		return nil, err
	}
	return runReport(ctx, s, reportCall[[]analytics.CustomerSegment]{
		op:       OpCustomerSegments,
		cache:    s.segments,
		key:      cache.NewKey(OpCustomerSegments, r),
		fields:   rangeFields(r),
		fallback: DefaultCustomerSegments,
		compute: func(ctx context.Context) ([]analytics.CustomerSegment, error) {
			profiles, err := s.customerProfiles(ctx, r)
			if err != nil {
				return nil, err
			}
			return SegmentSummary(profiles), nil
		},
	})
}

// GetCustomerProfiles returns the per-customer RFM and churn view.
func (s *Service) GetCustomerProfiles(ctx context.Context, start, end time.Time) ([]analytics.CustomerProfile, error) {
	r, err := analytics.NewDateRange(start, end)
	if err != nil {
		return nil, err
	}
	return runReport(ctx, s, reportCall[[]analytics.CustomerProfile]{
		op:       OpCustomerProfiles,
		cache:    s.profiles,
		key:      cache.NewKey(OpCustomerProfiles, r),
		fields:   rangeFields(r),
		fallback: func() []analytics.CustomerProfile { return []analytics.CustomerProfile{} },
		compute: func(ctx context.Context) ([]analytics.CustomerProfile, error) {
			return s.customerProfiles(ctx, r)
		},
	})
}

// GetUnifiedCustomers merges customer identities across channels.
func (s *Service) GetUnifiedCustomers(ctx context.Context, start, end time.Time) ([]analytics.UnifiedCustomer, error) {
	r, err := analytics.NewDateRange(start, end)
	if err != nil {
		return nil, err
	}
	return runReport(ctx, s, reportCall[[]analytics.UnifiedCustomer]{
		op:       OpUnifiedCustomers,
		cache:    s.unified,
		key:      cache.NewKey(OpUnifiedCustomers, r),
		fields:   rangeFields(r),
		fallback: func() []analytics.UnifiedCustomer { return []analytics.UnifiedCustomer{} },
		compute: func(ctx context.Context) ([]analytics.UnifiedCustomer, error) {
			orders, err := s.fetch.EnsureOrders(ctx, r)
			if err != nil {
				return nil, err
			}
			return UnifyCustomers(orders), nil
		},
	})
}

// cohortWindow spans monthsBack calendar months through the end of today.
func (s *Service) cohortWindow(monthsBack int) analytics.DateRange {
	now := s.now()
	return analytics.DateRange{
		Start: analytics.StartOfMonth(now).AddDate(0, -(monthsBack - 1), 0),
		End:   analytics.StartOfDay(now).AddDate(0, 0, 1),
	}
}

// GetCohorts returns monthly acquisition cohorts for the last monthsBack
// months, including the current one.
func (s *Service) GetCohorts(ctx context.Context, monthsBack int) ([]analytics.Cohort, error) {
	if monthsBack < 1 || monthsBack > MaxMonthsBack {
		return nil, fmt.Errorf("%w: months_back=%d", analytics.ErrInvalidParameter, monthsBack)
	}
	window := s.cohortWindow(monthsBack)
	return runReport(ctx, s, reportCall[[]analytics.Cohort]{
		op:       OpCohorts,
		cache:    s.cohorts,
		key:      cache.NewKey(OpCohorts, monthsBack, window),
		fields:   append(rangeFields(window), zap.Int("months_back", monthsBack)),
		fallback: func() []analytics.Cohort { return []analytics.Cohort{} },
		compute: func(ctx context.Context) ([]analytics.Cohort, error) {
			// Acquisition month needs each customer's first order ever.
			history := analytics.DateRange{Start: analytics.HistoryStart, End: window.End}
			orders, err := s.fetch.EnsureOrders(ctx, history)
			if err != nil {
				return nil, err
			}
			return Cohorts(orders, s.now(), monthsBack), nil
		},
	})
}

// coveringWindow returns the smallest range containing every window.
func coveringWindow(windows ...analytics.DateRange) analytics.DateRange {
	out := windows[0]
	for _, w := range windows[1:] {
		if w.Start.Before(out.Start) {
			out.Start = w.Start
		}
		if w.End.After(out.End) {
			out.End = w.End
		}
	}
	return out
}

// prefetch loads one snapshot wide enough for every report of r, so the
// reports that follow are served from it without further queries.
func (s *Service) prefetch(ctx context.Context, r analytics.DateRange) error {
	window := coveringWindow(
		r.Extended(),
		s.inventoryInput(r).Window(),
		analytics.TrailingDays(s.today(), briefingHistoryDays),
	)
	_, _, err := s.snapshot(ctx, window)
	return err
}

// GetBriefing synthesizes a health score and prioritized insights for
// [start, end).
func (s *Service) GetBriefing(ctx context.Context, start, end time.Time) (analytics.Briefing, error) {
	r, err := analytics.NewDateRange(start, end)
	if err != nil {
		return analytics.Briefing{}, err
	}
	return runReport(ctx, s, reportCall[analytics.Briefing]{
		op:       OpBriefing,
		cache:    s.briefing,
		key:      cache.NewKey(OpBriefing, r),
		fields:   rangeFields(r),
		fallback: func() analytics.Briefing { return DefaultBriefing(r, s.now()) },
		compute: func(ctx context.Context) (analytics.Briefing, error) {
			// Sub-reports fall back to defaults on their own, which would
			// grade an unreachable store as healthy.
			if err := s.prefetch(ctx, r); err != nil {
				return analytics.Briefing{}, err
			}

			in := BriefingInput{Range: r, Now: s.now()}
			g, gctx := errgroup.WithContext(ctx)
			g.Go(func() (err error) {
				in.Revenue, err = s.GetRevenueAndMargin(gctx, r.Start, r.End)
				return err
			})
			g.Go(func() (err error) {
				in.Inventory, err = s.GetInventoryMetrics(gctx, r.Start, r.End)
				return err
			})
			g.Go(func() (err error) {
				in.Segments, err = s.GetCustomerSegments(gctx, r.Start, r.End)
				return err
			})
			g.Go(func() (err error) {
				in.Forecast, err = s.GetForecast(gctx, briefingHistoryDays, briefingForecastDays)
				return err
			})
			if err := g.Wait(); err != nil {
				return analytics.Briefing{}, err
			}
			return SynthesizeBriefing(in), nil
		},
	})
}

// RefreshCaches drops every memoized report and the fetched snapshots.
func (s *Service) RefreshCaches(ctx context.Context) {
	for _, clearFn := range s.clearers {
		clearFn(ctx)
	}
	s.fetch.Invalidate()
	logger.WithLogger(ctx, s.logger).Info("Analytics caches cleared")
}

// PruneCaches drops expired report entries and returns how many were removed.
func (s *Service) PruneCaches() int {
	removed := 0
	for _, prune := range s.pruners {
		removed += prune()
	}
	return removed
}

// Warm computes every report for [start, end) so later requests hit the
// cache. It fails when the record store cannot be read.
func (s *Service) Warm(ctx context.Context, start, end time.Time) error {
	r, err := analytics.NewDateRange(start, end)
	if err != nil {
		return err
	}
	if err := s.prefetch(ctx, r); err != nil {
		return fmt.Errorf("warm %s: %w", r, err)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { _, err := s.GetBriefing(gctx, start, end); return err })
	g.Go(func() error { _, err := s.GetProductPerformance(gctx, start, end); return err })
	g.Go(func() error { _, err := s.GetCustomerProfiles(gctx, start, end); return err })
	g.Go(func() error { _, err := s.GetUnifiedCustomers(gctx, start, end); return err })
	g.Go(func() error { _, err := s.GetRestockSuggestions(gctx, end); return err })
	g.Go(func() error { _, err := s.GetCohorts(gctx, CohortMonths); return err })
	if err := g.Wait(); err != nil {
		return err
	}

	logger.WithLogger(ctx, s.logger).Info("Analytics caches warmed", rangeFields(r)...)
	return nil
}

// IsUpstreamFailure reports whether err came from the record store.
func IsUpstreamFailure(err error) bool {
	return errors.Is(err, analytics.ErrUpstreamFetch)
}
