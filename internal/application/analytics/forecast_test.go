package analytics

import (
	"testing"

	"github.com/GrupoEuro/SmartEC-sub000/internal/domain/analytics"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFitOLS(t *testing.T) {
	t.Run("perfect line", func(t *testing.T) {
		values := make([]float64, 10)
		for i := range values {
			values[i] = 3*float64(i) + 2
		}
		reg, err := FitOLS(values)
		require.NoError(t, err)
		assert.InDelta(t, 3.0, reg.Slope, 1e-9)
		assert.InDelta(t, 2.0, reg.Intercept, 1e-9)
		assert.InDelta(t, 1.0, reg.RSquared, 1e-9)
		assert.InDelta(t, 0.0, reg.StandardError, 1e-9)
		assert.Equal(t, 10, reg.N)
		assert.InDelta(t, 32.0, reg.Predict(10), 1e-9)
	})

	t.Run("flat series", func(t *testing.T) {
		reg, err := FitOLS([]float64{4, 4, 4, 4})
		require.NoError(t, err)
		assert.Equal(t, 0.0, reg.Slope)
		assert.Equal(t, 4.0, reg.Intercept)
		assert.Equal(t, 1.0, reg.RSquared)
	})

	t.Run("single value", func(t *testing.T) {
		reg, err := FitOLS([]float64{7})
		require.NoError(t, err)
		assert.Equal(t, 7.0, reg.Intercept)
		assert.Equal(t, 1.0, reg.RSquared)
	})

	t.Run("empty", func(t *testing.T) {
		_, err := FitOLS(nil)
		assert.ErrorIs(t, err, analytics.ErrDegenerateInput)
	})

	t.Run("noisy", func(t *testing.T) {
		reg, err := FitOLS([]float64{1, 3, 2, 4})
		require.NoError(t, err)
		assert.InDelta(t, 0.8, reg.Slope, 1e-9)
		assert.InDelta(t, 1.3, reg.Intercept, 1e-9)
		assert.InDelta(t, 0.64, reg.RSquared, 1e-9)
		assert.Greater(t, reg.StandardError, 0.0)
	})
}

func TestDailyRevenue(t *testing.T) {
	window := mustRange(t, midnight(2024, 5, 1), midnight(2024, 5, 4))
	cancelled := sale("x", at(2024, 5, 2), line("P1", 1000, 1))
	cancelled.Status = analytics.OrderStatusCancelled

	noTotal := sale("o3", at(2024, 5, 3), line("P1", 5, 2))
	noTotal.Total = dec(0)

	orders := []analytics.Order{
		sale("o1", at(2024, 5, 1), line("P1", 10, 1)),
		sale("o2", at(2024, 5, 1), line("P1", 15, 1)),
		cancelled,
		noTotal,
		sale("late", at(2024, 5, 4), line("P1", 99, 1)),
	}

	assert.Equal(t, []float64{25, 0, 10}, DailyRevenue(orders, window))
}

func TestRevenueForecast(t *testing.T) {
	window := mustRange(t, midnight(2024, 5, 1), midnight(2024, 5, 6))
	history := []float64{10, 8, 6, 4, 2}

	f := RevenueForecast(history, window, 3, analytics.DefaultTrendThreshold)

	assert.Equal(t, 5, f.HistoryDays)
	assert.Equal(t, 3, f.ForecastDays)
	assert.Equal(t, analytics.TrendDown, f.Trend)
	assert.InDelta(t, -2.0, f.Regression.Slope, 1e-9)
	require.Len(t, f.Points, 8)

	first := f.Points[0]
	require.NotNil(t, first.Actual)
	assert.Equal(t, 10.0, *first.Actual)
	assert.Equal(t, "2024-05-01", first.Label)

	future := f.Points[5]
	assert.Nil(t, future.Actual)
	assert.Equal(t, "2024-05-06", future.Label)
	assert.InDelta(t, 0.0, future.Predicted, 1e-9)

	// Predictions and lower bounds are floored, upper bounds are not
	last := f.Points[7]
	assert.Equal(t, 0.0, last.Predicted)
	assert.Equal(t, 0.0, last.Lower)
	assert.InDelta(t, -4.0, last.Upper, 1e-9)

	for _, p := range f.Points {
		assert.GreaterOrEqual(t, p.Predicted, 0.0)
		assert.GreaterOrEqual(t, p.Lower, 0.0)
		assert.LessOrEqual(t, p.Lower, p.Predicted)
	}
}

func TestRevenueForecast_ConfidenceBand(t *testing.T) {
	window := mustRange(t, midnight(2024, 5, 1), midnight(2024, 5, 5))
	f := RevenueForecast([]float64{100, 120, 100, 120}, window, 1, analytics.DefaultTrendThreshold)

	margin := confidenceZ * f.Regression.StandardError
	require.Greater(t, margin, 0.0)
	for _, p := range f.Points {
		assert.InDelta(t, p.Predicted+margin, p.Upper, 1e-9)
		assert.InDelta(t, p.Predicted-margin, p.Lower, 1e-9)
	}
}

func TestRevenueForecast_EmptyHistory(t *testing.T) {
	window := mustRange(t, midnight(2024, 5, 1), midnight(2024, 5, 2))
	f := RevenueForecast(nil, window, 2, analytics.DefaultTrendThreshold)

	assert.Equal(t, analytics.TrendFlat, f.Trend)
	require.Len(t, f.Points, 2)
	assert.Equal(t, 0.0, f.Points[0].Predicted)
}
