package analytics

import (
	"math"
	"time"

	"github.com/GrupoEuro/SmartEC-sub000/internal/domain/analytics"
)

// confidenceZ is the two-sided 95% normal quantile.
const confidenceZ = 1.96

const dateLabel = "2006-01-02"

// FitOLS fits y = slope*x + intercept over x = 0..n-1. R² is 1 for a flat
// series. The standard error is the RMS residual of the fit.
func FitOLS(values []float64) (analytics.Regression, error) {
	n := len(values)
	if n == 0 {
		return analytics.Regression{}, analytics.ErrDegenerateInput
	}
	if n == 1 {
		return analytics.Regression{Intercept: values[0], RSquared: 1, N: 1}, nil
	}

	var sumX, sumY, sumXY, sumXX float64
	for i, y := range values {
		x := float64(i)
		sumX += x
		sumY += y
		sumXY += x * y
		sumXX += x * x
	}
	fn := float64(n)
	denom := fn*sumXX - sumX*sumX
	slope := 0.0
	if denom != 0 {
		slope = (fn*sumXY - sumX*sumY) / denom
	}
	intercept := (sumY - slope*sumX) / fn

	mean := sumY / fn
	var ssRes, ssTot float64
	for i, y := range values {
		pred := slope*float64(i) + intercept
		ssRes += (y - pred) * (y - pred)
		ssTot += (y - mean) * (y - mean)
	}
	r2 := 1.0
	if ssTot != 0 {
		r2 = 1 - ssRes/ssTot
	}

	return analytics.Regression{
		Slope:         slope,
		Intercept:     intercept,
		RSquared:      r2,
		StandardError: math.Sqrt(ssRes / fn),
		N:             n,
	}, nil
}

// DailyRevenue buckets sale-order revenue into one value per day of window.
// Orders are summed by Amount so unresolved lines still count toward the
// day's takings.
func DailyRevenue(orders []analytics.Order, window analytics.DateRange) []float64 {
	days := window.Days()
	series := make([]float64, days)
	startMs := window.Start.UnixMilli()
	endMs := window.End.UnixMilli()
	const dayMs = int64(24 * time.Hour / time.Millisecond)

	for i := range orders {
		o := &orders[i]
		if !o.CountsAsSale() {
			continue
		}
		ts := o.CreatedAt.UnixMilli()
		if ts < startMs || ts >= endMs {
			continue
		}
		idx := int((ts - startMs) / dayMs)
		if idx >= days {
			idx = days - 1
		}
		series[idx] += o.Amount().InexactFloat64()
	}
	return series
}

// RevenueForecast fits the daily history and extends it forecastDays past
// the end of the window. Predictions and lower bounds are floored at zero.
func RevenueForecast(history []float64, window analytics.DateRange, forecastDays int, trendThreshold float64) analytics.Forecast {
	out := analytics.Forecast{
		HistoryDays:  len(history),
		ForecastDays: forecastDays,
		Trend:        analytics.TrendFlat,
		Points:       make([]analytics.ForecastPoint, 0, len(history)+forecastDays),
	}

	reg, err := FitOLS(history)
	if err != nil {
		reg = analytics.Regression{RSquared: 1}
	}
	out.Regression = reg
	out.Trend = analytics.ClassifyTrend(reg.Slope, trendThreshold)

	margin := confidenceZ * reg.StandardError
	point := func(i int) analytics.ForecastPoint {
		date := window.Start.AddDate(0, 0, i)
		predicted := reg.Predict(float64(i))
		return analytics.ForecastPoint{
			Label:     date.Format(dateLabel),
			Date:      date,
			Predicted: math.Max(0, predicted),
			Lower:     math.Max(0, predicted-margin),
			Upper:     predicted + margin,
		}
	}

	for i, v := range history {
		p := point(i)
		actual := v
		p.Actual = &actual
		out.Points = append(out.Points, p)
	}
	for i := len(history); i < len(history)+forecastDays; i++ {
		out.Points = append(out.Points, point(i))
	}
	return out
}
