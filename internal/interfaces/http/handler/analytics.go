package handler

import (
	"context"
	"errors"
	"time"

	"github.com/GrupoEuro/SmartEC-sub000/internal/domain/analytics"
	"github.com/GrupoEuro/SmartEC-sub000/internal/interfaces/http/dto"
	"github.com/GrupoEuro/SmartEC-sub000/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
)

const (
	dateLayout          = "2006-01-02"
	defaultHistoryDays  = 30
	defaultForecastDays = 7
	defaultMonthsBack   = 12
)

// AnalyticsService is the report surface the handler exposes
type AnalyticsService interface {
	GetRevenueAndMargin(ctx context.Context, start, end time.Time) (analytics.RevenueReport, error)
	GetForecast(ctx context.Context, historyDays, forecastDays int) (analytics.Forecast, error)
	GetInventoryMetrics(ctx context.Context, start, end time.Time) (analytics.InventoryMetrics, error)
	GetRestockSuggestions(ctx context.Context, end time.Time) ([]analytics.RestockSuggestion, error)
	GetProductPerformance(ctx context.Context, start, end time.Time) ([]analytics.ProductPerformance, error)
	GetCustomerSegments(ctx context.Context, start, end time.Time) ([]analytics.CustomerSegment, error)
	GetCustomerProfiles(ctx context.Context, start, end time.Time) ([]analytics.CustomerProfile, error)
	GetUnifiedCustomers(ctx context.Context, start, end time.Time) ([]analytics.UnifiedCustomer, error)
	GetCohorts(ctx context.Context, monthsBack int) ([]analytics.Cohort, error)
	GetBriefing(ctx context.Context, start, end time.Time) (analytics.Briefing, error)
	RefreshCaches(ctx context.Context)
}

// AnalyticsHandler handles analytics report endpoints
type AnalyticsHandler struct {
	BaseHandler
	service AnalyticsService
	now     func() time.Time
}

// NewAnalyticsHandler creates a new AnalyticsHandler
func NewAnalyticsHandler(service AnalyticsService) *AnalyticsHandler {
	return &AnalyticsHandler{
		service: service,
		now:     time.Now,
	}
}

// rangeReport serves a report computed over the [start_date, end_date] query.
func rangeReport[T any](h *AnalyticsHandler, compute func(ctx context.Context, start, end time.Time) (T, error)) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req dto.DateRangeRequest
		if err := c.ShouldBindQuery(&req); err != nil {
			h.BadRequest(c, middleware.ValidationMessage(err))
			return
		}

		start, end, err := parseDateRange(req)
		if err != nil {
			h.BadRequest(c, err.Error())
			return
		}

		result, err := compute(c.Request.Context(), start, end)
		if err != nil {
			h.HandleError(c, err)
			return
		}
		h.Success(c, result)
	}
}

// parseDateRange maps inclusive calendar days to the half-open range
// [start 00:00, day after end 00:00).
func parseDateRange(req dto.DateRangeRequest) (time.Time, time.Time, error) {
	start, err := time.Parse(dateLayout, req.StartDate)
	if err != nil {
		return time.Time{}, time.Time{}, errors.New("start_date: Invalid date format, expected YYYY-MM-DD")
	}
	end, err := time.Parse(dateLayout, req.EndDate)
	if err != nil {
		return time.Time{}, time.Time{}, errors.New("end_date: Invalid date format, expected YYYY-MM-DD")
	}
	if end.Before(start) {
		return time.Time{}, time.Time{}, errors.New("end_date: Must not be before start_date")
	}
	return start, end.AddDate(0, 0, 1), nil
}

// GetRevenue godoc
// @Summary      Get revenue and margin
// @Description  Revenue, cost, profit and margin for the period with category and brand breakdowns
// @Tags         analytics
// @Produce      json
// @Param        start_date query string true "Start date (YYYY-MM-DD)"
// @Param        end_date query string true "End date, inclusive (YYYY-MM-DD)"
// @Success      200 {object} dto.Response{data=analytics.RevenueReport}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /analytics/revenue [get]
func (h *AnalyticsHandler) GetRevenue(c *gin.Context) {
	rangeReport(h, h.service.GetRevenueAndMargin)(c)
}

// GetForecast godoc
// @Summary      Get revenue forecast
// @Tags         analytics
// @Produce      json
// @Param        history_days query int false "Days of history to fit (default 30)"
// @Param        forecast_days query int false "Days to project (default 7)"
// @Success      200 {object} dto.Response{data=analytics.Forecast}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /analytics/forecast [get]
func (h *AnalyticsHandler) GetForecast(c *gin.Context) {
	var req dto.ForecastRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		h.BadRequest(c, middleware.ValidationMessage(err))
		return
	}
	if req.HistoryDays == 0 {
		req.HistoryDays = defaultHistoryDays
	}
	if req.ForecastDays == 0 {
		req.ForecastDays = defaultForecastDays
	}

	forecast, err := h.service.GetForecast(c.Request.Context(), req.HistoryDays, req.ForecastDays)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, forecast)
}

// GetInventory godoc
// @Summary      Get inventory metrics
// @Tags         analytics
// @Produce      json
// @Param        start_date query string true "Start date (YYYY-MM-DD)"
// @Param        end_date query string true "End date, inclusive (YYYY-MM-DD)"
// @Success      200 {object} dto.Response{data=analytics.InventoryMetrics}
// @Router       /analytics/inventory [get]
func (h *AnalyticsHandler) GetInventory(c *gin.Context) {
	rangeReport(h, h.service.GetInventoryMetrics)(c)
}

// GetRestock godoc
// @Summary      Get restock suggestions
// @Description  Products needing replenishment as of end_date (default today), most urgent first
// @Tags         analytics
// @Produce      json
// @Param        end_date query string false "As-of date (YYYY-MM-DD)"
// @Success      200 {object} dto.Response{data=[]analytics.RestockSuggestion}
// @Router       /analytics/restock [get]
func (h *AnalyticsHandler) GetRestock(c *gin.Context) {
	var req dto.RestockRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		h.BadRequest(c, middleware.ValidationMessage(err))
		return
	}

	end := analytics.StartOfDay(h.now()).AddDate(0, 0, 1)
	if req.EndDate != "" {
		day, err := time.Parse(dateLayout, req.EndDate)
		if err != nil {
			h.BadRequest(c, "end_date: Invalid date format, expected YYYY-MM-DD")
			return
		}
		end = day.AddDate(0, 0, 1)
	}

	suggestions, err := h.service.GetRestockSuggestions(c.Request.Context(), end)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, suggestions)
}

// GetProducts godoc
// @Summary      Get product performance
// @Tags         analytics
// @Produce      json
// @Param        start_date query string true "Start date (YYYY-MM-DD)"
// @Param        end_date query string true "End date, inclusive (YYYY-MM-DD)"
// @Success      200 {object} dto.Response{data=[]analytics.ProductPerformance}
// @Router       /analytics/products [get]
func (h *AnalyticsHandler) GetProducts(c *gin.Context) {
	rangeReport(h, h.service.GetProductPerformance)(c)
}

// GetSegments godoc
// @Summary      Get customer segment summary
// @Tags         analytics
// @Produce      json
// @Param        start_date query string true "Start date (YYYY-MM-DD)"
// @Param        end_date query string true "End date, inclusive (YYYY-MM-DD)"
// @Success      200 {object} dto.Response{data=[]analytics.CustomerSegment}
// @Router       /analytics/segments [get]
func (h *AnalyticsHandler) GetSegments(c *gin.Context) {
	rangeReport(h, h.service.GetCustomerSegments)(c)
}

// GetCustomers godoc
// @Summary      Get customer RFM profiles
// @Tags         analytics
// @Produce      json
// @Param        start_date query string true "Start date (YYYY-MM-DD)"
// @Param        end_date query string true "End date, inclusive (YYYY-MM-DD)"
// @Success      200 {object} dto.Response{data=[]analytics.CustomerProfile}
// @Router       /analytics/customers [get]
func (h *AnalyticsHandler) GetCustomers(c *gin.Context) {
	rangeReport(h, h.service.GetCustomerProfiles)(c)
}

// GetUnifiedCustomers godoc
// @Summary      Get cross-channel customer identities
// @Tags         analytics
// @Produce      json
// @Param        start_date query string true "Start date (YYYY-MM-DD)"
// @Param        end_date query string true "End date, inclusive (YYYY-MM-DD)"
// @Success      200 {object} dto.Response{data=[]analytics.UnifiedCustomer}
// @Router       /analytics/unified-customers [get]
func (h *AnalyticsHandler) GetUnifiedCustomers(c *gin.Context) {
	rangeReport(h, h.service.GetUnifiedCustomers)(c)
}

// GetCohorts godoc
// @Summary      Get monthly acquisition cohorts
// @Tags         analytics
// @Produce      json
// @Param        months_back query int false "Months of cohorts, including the current one (default 12)"
// @Success      200 {object} dto.Response{data=[]analytics.Cohort}
// @Router       /analytics/cohorts [get]
func (h *AnalyticsHandler) GetCohorts(c *gin.Context) {
	var req dto.CohortRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		h.BadRequest(c, middleware.ValidationMessage(err))
		return
	}
	if req.MonthsBack == 0 {
		req.MonthsBack = defaultMonthsBack
	}

	cohorts, err := h.service.GetCohorts(c.Request.Context(), req.MonthsBack)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, cohorts)
}

// GetBriefing godoc
// @Summary      Get the executive briefing
// @Description  Health score and up to five prioritized insights for the period
// @Tags         analytics
// @Produce      json
// @Param        start_date query string true "Start date (YYYY-MM-DD)"
// @Param        end_date query string true "End date, inclusive (YYYY-MM-DD)"
// @Success      200 {object} dto.Response{data=analytics.Briefing}
// @Router       /analytics/briefing [get]
func (h *AnalyticsHandler) GetBriefing(c *gin.Context) {
	rangeReport(h, h.service.GetBriefing)(c)
}

// Refresh godoc
// @Summary      Drop cached reports and snapshots
// @Tags         analytics
// @Produce      json
// @Success      200 {object} dto.Response{data=dto.RefreshResponse}
// @Router       /analytics/refresh [post]
func (h *AnalyticsHandler) Refresh(c *gin.Context) {
	h.service.RefreshCaches(c.Request.Context())
	h.Success(c, dto.RefreshResponse{
		Message:   "Analytics caches cleared",
		Timestamp: h.now().UTC().Format(time.RFC3339),
	})
}
