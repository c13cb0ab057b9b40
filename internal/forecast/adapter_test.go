package forecast

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/predichain/backend-go/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// constantUsage builds n days of steady consumption ending at end.
func constantUsage(material string, end time.Time, n int, perDay float64) []domain.DailyUsage {
	out := make([]domain.DailyUsage, 0, n)
	for i := n - 1; i >= 0; i-- {
		out = append(out, domain.DailyUsage{
			Material:     material,
			Date:         end.AddDate(0, 0, -i),
			QuantityUsed: perDay,
		})
	}
	return out
}

func TestForecastConstantSeries(t *testing.T) {
	adapter := NewAdapter(NewLinearForecaster())
	daily := constantUsage("cement", day(2025, time.May, 31), 60, 100)

	result, err := adapter.Forecast(context.Background(), daily, "cement", 1)
	require.NoError(t, err)

	assert.False(t, result.UsedProxySeries)
	assert.Equal(t, "cement", result.Material)
	assert.Equal(t, day(2025, time.May, 31), result.LastHistoryDate)

	require.Len(t, result.Monthly, 1)
	mf := result.Monthly[0]
	assert.Equal(t, day(2025, time.June, 1), mf.MonthStart)
	// June has 30 days at a steady 100/day.
	assert.InDelta(t, 3000, mf.Yhat, 1.0)
	assert.LessOrEqual(t, mf.YhatLower, mf.Yhat)
	assert.GreaterOrEqual(t, mf.YhatUpper, mf.Yhat)
}

func TestForecastProxyFallbackWhenMaterialMissing(t *testing.T) {
	adapter := NewAdapter(NewLinearForecaster())
	daily := constantUsage("cement", day(2025, time.May, 31), 30, 50)

	result, err := adapter.Forecast(context.Background(), daily, "steel", 1)
	require.NoError(t, err)

	assert.True(t, result.UsedProxySeries)
	assert.Equal(t, "steel", result.Material)
	require.NotEmpty(t, result.Monthly)
	assert.Equal(t, "steel", result.Monthly[0].Material)
}

func TestForecastInsufficientHistory(t *testing.T) {
	adapter := NewAdapter(NewLinearForecaster())
	daily := constantUsage("cement", day(2025, time.May, 31), 2, 50)

	_, err := adapter.Forecast(context.Background(), daily, "cement", 1)
	require.Error(t, err)

	var fcErr *domain.ForecastError
	require.True(t, errors.As(err, &fcErr))
	assert.Equal(t, "cement", fcErr.Material)
}

func TestForecastDefaultHorizon(t *testing.T) {
	adapter := NewAdapter(NewLinearForecaster())
	daily := constantUsage("cement", day(2025, time.May, 31), 90, 10)

	result, err := adapter.Forecast(context.Background(), daily, "cement", 0)
	require.NoError(t, err)
	assert.Len(t, result.Monthly, 6)
}

func TestResampleMonthlySumsPointsAndAveragesBounds(t *testing.T) {
	lastHistoryMonth := day(2025, time.May, 1)

	var preds []DailyPrediction
	for d := day(2025, time.June, 1); d.Month() == time.June; d = d.AddDate(0, 0, 1) {
		preds = append(preds, DailyPrediction{Date: d, Yhat: 10, YhatLower: 4, YhatUpper: 16})
	}

	monthly := ResampleMonthly(preds, "cement", lastHistoryMonth, 1)
	require.Len(t, monthly, 1)

	// 30 days: point estimates sum to 300 while the bounds stay daily-scale.
	assert.InDelta(t, 300, monthly[0].Yhat, 1e-9)
	assert.InDelta(t, 4, monthly[0].YhatLower, 1e-9)
	assert.InDelta(t, 16, monthly[0].YhatUpper, 1e-9)
}

func TestResampleMonthlyClampsNegativeTotals(t *testing.T) {
	lastHistoryMonth := day(2025, time.May, 1)
	preds := []DailyPrediction{
		{Date: day(2025, time.June, 1), Yhat: -40, YhatLower: -60, YhatUpper: -20},
		{Date: day(2025, time.June, 2), Yhat: -40, YhatLower: -60, YhatUpper: -20},
	}

	monthly := ResampleMonthly(preds, "cement", lastHistoryMonth, 1)
	require.Len(t, monthly, 1)
	assert.Equal(t, 0.0, monthly[0].Yhat)
	// Bounds are reported as-is; only the point estimate is clamped.
	assert.InDelta(t, -60, monthly[0].YhatLower, 1e-9)
}

func TestResampleMonthlySkipsHistoryMonthsAndCapsHorizon(t *testing.T) {
	lastHistoryMonth := day(2025, time.May, 1)
	preds := []DailyPrediction{
		{Date: day(2025, time.May, 30), Yhat: 5},  // inside history month
		{Date: day(2025, time.June, 3), Yhat: 5},  // month 1
		{Date: day(2025, time.July, 3), Yhat: 5},  // month 2
		{Date: day(2025, time.August, 3), Yhat: 5}, // beyond horizon
	}

	monthly := ResampleMonthly(preds, "cement", lastHistoryMonth, 2)
	require.Len(t, monthly, 2)
	assert.Equal(t, day(2025, time.June, 1), monthly[0].MonthStart)
	assert.Equal(t, day(2025, time.July, 1), monthly[1].MonthStart)
}

func TestLinearForecasterLearnsWeeklyShape(t *testing.T) {
	// Weekdays at 100, weekends at 20, over eight weeks.
	var history []TrainingPoint
	start := day(2025, time.March, 3) // a Monday
	for i := 0; i < 56; i++ {
		d := start.AddDate(0, 0, i)
		v := 100.0
		if wd := d.Weekday(); wd == time.Saturday || wd == time.Sunday {
			v = 20.0
		}
		history = append(history, TrainingPoint{Date: d, Value: v})
	}

	future := []FuturePoint{
		{Date: day(2025, time.April, 28)}, // Monday
		{Date: day(2025, time.May, 3)},    // Saturday
	}

	preds, err := NewLinearForecaster().FitPredict(context.Background(), history, future)
	require.NoError(t, err)
	require.Len(t, preds, 2)

	assert.InDelta(t, 100, preds[0].Yhat, 2.0)
	assert.InDelta(t, 20, preds[1].Yhat, 2.0)
}

func TestLinearForecasterRejectsShortHistory(t *testing.T) {
	history := []TrainingPoint{
		{Date: day(2025, time.March, 3), Value: 1},
		{Date: day(2025, time.March, 4), Value: 2},
	}
	_, err := NewLinearForecaster().FitPredict(context.Background(), history, nil)
	require.Error(t, err)
}
