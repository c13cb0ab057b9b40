package forecast

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/predichain/backend-go/internal/domain"
	"github.com/rs/zerolog/log"
)

// minHistoryPoints is the smallest history the oracle is asked to fit.
const minHistoryPoints = 3

// Result is a monthly forecast for one material.
type Result struct {
	Material string                   `json:"material"`
	Monthly  []domain.MonthlyForecast `json:"monthly"`
	// UsedProxySeries is set when no rows matched the requested material and
	// the whole normalized series was used as a proxy instead. This changes
	// forecast semantics materially and must stay visible to callers.
	UsedProxySeries bool      `json:"used_proxy_series"`
	LastHistoryDate time.Time `json:"last_history_date"`
}

// Adapter turns normalized daily usage into a monthly demand forecast by
// driving a Forecaster oracle and resampling its daily output.
type Adapter struct {
	forecaster Forecaster
}

func NewAdapter(f Forecaster) *Adapter {
	return &Adapter{forecaster: f}
}

// Forecast predicts demand for the given material over horizonMonths calendar
// months following the last historical month.
//
// Resampling policy: within each month the daily point estimates are summed
// (consumption accumulates) while the daily bounds are averaged (they measure
// dispersion, and summing them would overstate uncertainty growth). Negative
// monthly point estimates are clamped to zero here, once, so no consumer has
// to repeat it.
func (a *Adapter) Forecast(ctx context.Context, daily []domain.DailyUsage, material string, horizonMonths int) (*Result, error) {
	if horizonMonths <= 0 {
		horizonMonths = 6
	}

	key := strings.ToLower(strings.TrimSpace(material))

	selected := make([]domain.DailyUsage, 0, len(daily))
	for _, d := range daily {
		if d.Material == key {
			selected = append(selected, d)
		}
	}

	usedProxy := false
	if len(selected) == 0 {
		// Better a rough answer than none: fall back to the whole series as
		// a generic proxy tagged with the requested material.
		usedProxy = true
		selected = append(selected, daily...)
		log.Warn().Str("material", key).Msg("forecast: no history for material, using whole-series proxy")
	}

	if len(selected) < minHistoryPoints {
		return nil, &domain.ForecastError{Material: key, Reason: "insufficient history to fit a forecast"}
	}

	history := make([]TrainingPoint, 0, len(selected))
	regressorMeans := make([]float64, 6)
	var lastDate time.Time
	for _, d := range selected {
		regs := regressorVector(d.Regressors)
		for i, v := range regs {
			regressorMeans[i] += v
		}
		history = append(history, TrainingPoint{Date: d.Date, Value: d.QuantityUsed, Regressors: regs})
		if d.Date.After(lastDate) {
			lastDate = d.Date
		}
	}
	for i := range regressorMeans {
		regressorMeans[i] /= float64(len(selected))
	}
	sort.Slice(history, func(i, j int) bool { return history[i].Date.Before(history[j].Date) })

	// Future calendar runs from the day after the last observation through the
	// end of the last forecast month, so every retained month is fully
	// covered. Future regressors are held at their historical mean; this
	// understates variance for volatile regressors and is a documented
	// simplification.
	lastMonth := monthStart(lastDate)
	horizonEnd := lastMonth.AddDate(0, horizonMonths+1, 0).AddDate(0, 0, -1)
	future := make([]FuturePoint, 0)
	for d := lastDate.AddDate(0, 0, 1); !d.After(horizonEnd); d = d.AddDate(0, 0, 1) {
		future = append(future, FuturePoint{Date: d, Regressors: regressorMeans})
	}

	preds, err := a.forecaster.FitPredict(ctx, history, future)
	if err != nil {
		return nil, &domain.ForecastError{Material: key, Reason: err.Error()}
	}

	monthly := ResampleMonthly(preds, key, lastMonth, horizonMonths)

	return &Result{
		Material:        key,
		Monthly:         monthly,
		UsedProxySeries: usedProxy,
		LastHistoryDate: lastDate,
	}, nil
}

// ResampleMonthly buckets daily predictions by calendar month, summing the
// point estimates and averaging the bounds, keeping only months strictly
// after lastHistoryMonth, at most horizonMonths of them.
func ResampleMonthly(preds []DailyPrediction, material string, lastHistoryMonth time.Time, horizonMonths int) []domain.MonthlyForecast {
	type bucket struct {
		yhatSum  float64
		lowerSum float64
		upperSum float64
		days     int
	}

	buckets := make(map[time.Time]*bucket)
	for _, p := range preds {
		m := monthStart(p.Date)
		if !m.After(lastHistoryMonth) {
			continue
		}
		b, ok := buckets[m]
		if !ok {
			b = &bucket{}
			buckets[m] = b
		}
		b.yhatSum += p.Yhat
		b.lowerSum += p.YhatLower
		b.upperSum += p.YhatUpper
		b.days++
	}

	months := make([]time.Time, 0, len(buckets))
	for m := range buckets {
		months = append(months, m)
	}
	sort.Slice(months, func(i, j int) bool { return months[i].Before(months[j]) })
	if len(months) > horizonMonths {
		months = months[:horizonMonths]
	}

	out := make([]domain.MonthlyForecast, 0, len(months))
	for _, m := range months {
		b := buckets[m]
		yhat := b.yhatSum
		if yhat < 0 {
			yhat = 0
		}
		out = append(out, domain.MonthlyForecast{
			Material:   material,
			MonthStart: m,
			Yhat:       yhat,
			YhatLower:  b.lowerSum / float64(b.days),
			YhatUpper:  b.upperSum / float64(b.days),
		})
	}
	return out
}

func regressorVector(r domain.Regressors) []float64 {
	return []float64{
		r.WeatherCondition,
		r.RegionalRiskLevel,
		r.DeliveryDelays,
		r.AvgDeliveryTimeDays,
		r.ContractorTeamSize,
		r.ShiftWorkHours,
	}
}

func monthStart(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
}
