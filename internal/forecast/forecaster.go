package forecast

import (
	"context"
	"time"
)

// TrainingPoint is one observed day of demand plus its regressor vector.
type TrainingPoint struct {
	Date       time.Time
	Value      float64
	Regressors []float64
}

// FuturePoint is a day to predict, with the regressor values assumed for it.
type FuturePoint struct {
	Date       time.Time
	Regressors []float64
}

// DailyPrediction is the oracle's estimate for a single future day.
type DailyPrediction struct {
	Date      time.Time
	Yhat      float64
	YhatLower float64
	YhatUpper float64
}

// Forecaster is the black-box time-series oracle. Implementations fit the
// supplied history and predict every requested future day. The point estimate
// is not guaranteed non-negative; the adapter clamps it.
type Forecaster interface {
	FitPredict(ctx context.Context, history []TrainingPoint, future []FuturePoint) ([]DailyPrediction, error)
}
