package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/GrupoEuro/SmartEC-sub000/internal/domain/analytics"
	"github.com/GrupoEuro/SmartEC-sub000/internal/interfaces/http/dto"
	"github.com/GrupoEuro/SmartEC-sub000/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
	middleware.SetupValidator()
}

type call struct {
	op           string
	start, end   time.Time
	history      int
	forecastDays int
	monthsBack   int
}

// fakeService records the arguments of each call and returns err when set.
type fakeService struct {
	calls []call
	err   error
}

func (f *fakeService) record(c call) { f.calls = append(f.calls, c) }

func (f *fakeService) GetRevenueAndMargin(_ context.Context, start, end time.Time) (analytics.RevenueReport, error) {
	f.record(call{op: "revenue", start: start, end: end})
	if f.err != nil {
		return analytics.RevenueReport{}, f.err
	}
	return analytics.RevenueReport{
		Range:   analytics.DateRange{Start: start, End: end},
		Revenue: analytics.RevenueMetrics{TotalRevenue: decimal.NewFromInt(100), OrderCount: 2},
	}, nil
}

func (f *fakeService) GetForecast(_ context.Context, historyDays, forecastDays int) (analytics.Forecast, error) {
	f.record(call{op: "forecast", history: historyDays, forecastDays: forecastDays})
	return analytics.Forecast{HistoryDays: historyDays, ForecastDays: forecastDays, Trend: analytics.TrendFlat}, f.err
}

func (f *fakeService) GetInventoryMetrics(_ context.Context, start, end time.Time) (analytics.InventoryMetrics, error) {
	f.record(call{op: "inventory", start: start, end: end})
	return analytics.InventoryMetrics{}, f.err
}

func (f *fakeService) GetRestockSuggestions(_ context.Context, end time.Time) ([]analytics.RestockSuggestion, error) {
	f.record(call{op: "restock", end: end})
	return []analytics.RestockSuggestion{}, f.err
}

func (f *fakeService) GetProductPerformance(_ context.Context, start, end time.Time) ([]analytics.ProductPerformance, error) {
	f.record(call{op: "products", start: start, end: end})
	return []analytics.ProductPerformance{}, f.err
}

func (f *fakeService) GetCustomerSegments(_ context.Context, start, end time.Time) ([]analytics.CustomerSegment, error) {
	f.record(call{op: "segments", start: start, end: end})
	return []analytics.CustomerSegment{}, f.err
}

func (f *fakeService) GetCustomerProfiles(_ context.Context, start, end time.Time) ([]analytics.CustomerProfile, error) {
	f.record(call{op: "customers", start: start, end: end})
	return []analytics.CustomerProfile{}, f.err
}

func (f *fakeService) GetUnifiedCustomers(_ context.Context, start, end time.Time) ([]analytics.UnifiedCustomer, error) {
	f.record(call{op: "unified", start: start, end: end})
	return []analytics.UnifiedCustomer{}, f.err
}

func (f *fakeService) GetCohorts(_ context.Context, monthsBack int) ([]analytics.Cohort, error) {
	f.record(call{op: "cohorts", monthsBack: monthsBack})
	return []analytics.Cohort{}, f.err
}

func (f *fakeService) GetBriefing(_ context.Context, start, end time.Time) (analytics.Briefing, error) {
	f.record(call{op: "briefing", start: start, end: end})
	return analytics.Briefing{}, f.err
}

func (f *fakeService) RefreshCaches(context.Context) {
	f.record(call{op: "refresh"})
}

var fixedNow = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

func setupAnalytics(svc *fakeService) *gin.Engine {
	h := NewAnalyticsHandler(svc)
	h.now = func() time.Time { return fixedNow }

	engine := gin.New()
	engine.Use(middleware.RequestID())
	g := engine.Group("/analytics")
	g.GET("/revenue", h.GetRevenue)
	g.GET("/forecast", h.GetForecast)
	g.GET("/inventory", h.GetInventory)
	g.GET("/restock", h.GetRestock)
	g.GET("/products", h.GetProducts)
	g.GET("/segments", h.GetSegments)
	g.GET("/customers", h.GetCustomers)
	g.GET("/unified-customers", h.GetUnifiedCustomers)
	g.GET("/cohorts", h.GetCohorts)
	g.GET("/briefing", h.GetBriefing)
	g.POST("/refresh", h.Refresh)
	return engine
}

func serve(engine *gin.Engine, method, target string) (*httptest.ResponseRecorder, dto.Response) {
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(method, target, nil))
	var resp dto.Response
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	return w, resp
}

func TestGetRevenue(t *testing.T) {
	svc := &fakeService{}
	engine := setupAnalytics(svc)

	w, resp := serve(engine, http.MethodGet, "/analytics/revenue?start_date=2024-05-01&end_date=2024-05-31")

	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, resp.Success)
	require.Len(t, svc.calls, 1)
	assert.Equal(t, time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC), svc.calls[0].start)
	assert.Equal(t, time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC), svc.calls[0].end, "end_date is inclusive")

	data, ok := resp.Data.(map[string]any)
	require.True(t, ok)
	revenue := data["revenue"].(map[string]any)
	assert.Equal(t, "100", revenue["total_revenue"])
	assert.EqualValues(t, 2, revenue["order_count"])
}

func TestRangeEndpointsValidateDates(t *testing.T) {
	tests := []struct {
		name    string
		query   string
		message string
	}{
		{"missing dates", "", "start_date: This field is required"},
		{"bad start", "?start_date=05/01/2024&end_date=2024-05-31", "start_date: Invalid date format"},
		{"bad end", "?start_date=2024-05-01&end_date=tomorrow", "end_date: Invalid date format"},
		{"inverted", "?start_date=2024-05-31&end_date=2024-05-01", "end_date: Must not be before start_date"},
	}

	paths := []string{"revenue", "inventory", "products", "segments", "customers", "unified-customers", "briefing"}
	for _, path := range paths {
		for _, tt := range tests {
			t.Run(path+"/"+tt.name, func(t *testing.T) {
				svc := &fakeService{}
				w, resp := serve(setupAnalytics(svc), http.MethodGet, "/analytics/"+path+tt.query)

				assert.Equal(t, http.StatusBadRequest, w.Code)
				assert.False(t, resp.Success)
				require.NotNil(t, resp.Error)
				assert.Equal(t, dto.ErrCodeBadRequest, resp.Error.Code)
				assert.Contains(t, resp.Error.Message, tt.message)
				assert.NotEmpty(t, resp.Error.RequestID)
				assert.Empty(t, svc.calls)
			})
		}
	}
}

func TestSingleDayRange(t *testing.T) {
	svc := &fakeService{}
	w, _ := serve(setupAnalytics(svc), http.MethodGet, "/analytics/briefing?start_date=2024-05-01&end_date=2024-05-01")

	require.Equal(t, http.StatusOK, w.Code)
	require.Len(t, svc.calls, 1)
	assert.Equal(t, 24*time.Hour, svc.calls[0].end.Sub(svc.calls[0].start))
}

func TestRangeEndpointsDispatch(t *testing.T) {
	routes := map[string]string{
		"inventory":         "inventory",
		"products":          "products",
		"segments":          "segments",
		"customers":         "customers",
		"unified-customers": "unified",
		"briefing":          "briefing",
	}
	for path, op := range routes {
		t.Run(path, func(t *testing.T) {
			svc := &fakeService{}
			w, resp := serve(setupAnalytics(svc), http.MethodGet, "/analytics/"+path+"?start_date=2024-05-01&end_date=2024-05-31")

			assert.Equal(t, http.StatusOK, w.Code)
			assert.True(t, resp.Success)
			require.Len(t, svc.calls, 1)
			assert.Equal(t, op, svc.calls[0].op)
		})
	}
}

func TestGetForecast(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		svc := &fakeService{}
		w, _ := serve(setupAnalytics(svc), http.MethodGet, "/analytics/forecast")

		require.Equal(t, http.StatusOK, w.Code)
		require.Len(t, svc.calls, 1)
		assert.Equal(t, 30, svc.calls[0].history)
		assert.Equal(t, 7, svc.calls[0].forecastDays)
	})

	t.Run("explicit", func(t *testing.T) {
		svc := &fakeService{}
		w, _ := serve(setupAnalytics(svc), http.MethodGet, "/analytics/forecast?history_days=90&forecast_days=14")

		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, 90, svc.calls[0].history)
		assert.Equal(t, 14, svc.calls[0].forecastDays)
	})

	t.Run("out of bounds", func(t *testing.T) {
		svc := &fakeService{}
		w, resp := serve(setupAnalytics(svc), http.MethodGet, "/analytics/forecast?history_days=1000")

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, resp.Error.Message, "history_days: Must be at most 730")
		assert.Empty(t, svc.calls)
	})

	t.Run("not a number", func(t *testing.T) {
		svc := &fakeService{}
		w, _ := serve(setupAnalytics(svc), http.MethodGet, "/analytics/forecast?forecast_days=week")

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Empty(t, svc.calls)
	})
}

func TestGetRestock(t *testing.T) {
	t.Run("defaults to end of today", func(t *testing.T) {
		svc := &fakeService{}
		w, _ := serve(setupAnalytics(svc), http.MethodGet, "/analytics/restock")

		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, time.Date(2024, 6, 2, 0, 0, 0, 0, time.UTC), svc.calls[0].end)
	})

	t.Run("end of given day", func(t *testing.T) {
		svc := &fakeService{}
		w, _ := serve(setupAnalytics(svc), http.MethodGet, "/analytics/restock?end_date=2024-05-15")

		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, time.Date(2024, 5, 16, 0, 0, 0, 0, time.UTC), svc.calls[0].end)
	})

	t.Run("bad date", func(t *testing.T) {
		svc := &fakeService{}
		w, _ := serve(setupAnalytics(svc), http.MethodGet, "/analytics/restock?end_date=15-05-2024")

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Empty(t, svc.calls)
	})
}

func TestGetCohorts(t *testing.T) {
	svc := &fakeService{}
	engine := setupAnalytics(svc)

	w, _ := serve(engine, http.MethodGet, "/analytics/cohorts")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 12, svc.calls[0].monthsBack)

	w, _ = serve(engine, http.MethodGet, "/analytics/cohorts?months_back=6")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 6, svc.calls[1].monthsBack)

	w, _ = serve(engine, http.MethodGet, "/analytics/cohorts?months_back=0")
	require.Equal(t, http.StatusOK, w.Code, "zero selects the default")
	assert.Equal(t, 12, svc.calls[2].monthsBack)

	w, _ = serve(engine, http.MethodGet, "/analytics/cohorts?months_back=37")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Len(t, svc.calls, 3)
}

func TestRefresh(t *testing.T) {
	svc := &fakeService{}
	w, resp := serve(setupAnalytics(svc), http.MethodPost, "/analytics/refresh")

	require.Equal(t, http.StatusOK, w.Code)
	require.Len(t, svc.calls, 1)
	assert.Equal(t, "refresh", svc.calls[0].op)
	data := resp.Data.(map[string]any)
	assert.Equal(t, "2024-06-01T12:00:00Z", data["timestamp"])
}

func TestServiceErrorsMapToStatus(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"invalid range", fmt.Errorf("%w: empty", analytics.ErrInvalidRange), http.StatusBadRequest, dto.ErrCodeInvalidRange},
		{"invalid parameter", fmt.Errorf("%w: history_days=0", analytics.ErrInvalidParameter), http.StatusBadRequest, dto.ErrCodeInvalidParameter},
		{"upstream", fmt.Errorf("%w: timeout", analytics.ErrUpstreamFetch), http.StatusBadGateway, dto.ErrCodeUpstreamFetch},
		{"canceled", context.Canceled, dto.StatusClientClosedRequest, dto.ErrCodeCanceled},
		{"unknown", fmt.Errorf("boom"), http.StatusInternalServerError, dto.ErrCodeInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &fakeService{err: tt.err}
			w, resp := serve(setupAnalytics(svc), http.MethodGet, "/analytics/revenue?start_date=2024-05-01&end_date=2024-05-31")

			assert.Equal(t, tt.status, w.Code)
			require.NotNil(t, resp.Error)
			assert.Equal(t, tt.code, resp.Error.Code)
		})
	}
}
