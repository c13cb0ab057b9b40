package forecast

import (
	"context"
	"fmt"
	"math"
	"time"
)

// LinearForecaster is the default oracle: a ridge-regularized least-squares
// fit over intercept, linear trend, day-of-week dummies, and the regressor
// vector. Bounds are the point estimate ± 1.96 residual standard deviations.
type LinearForecaster struct {
	// Ridge is the regularization strength. The tiny default keeps the
	// normal equations solvable when regressor columns are constant.
	Ridge float64
}

func NewLinearForecaster() *LinearForecaster {
	return &LinearForecaster{Ridge: 1e-6}
}

func (f *LinearForecaster) FitPredict(ctx context.Context, history []TrainingPoint, future []FuturePoint) ([]DailyPrediction, error) {
	if len(history) < minHistoryPoints {
		return nil, fmt.Errorf("need at least %d observations, got %d", minHistoryPoints, len(history))
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	origin := history[0].Date
	nRegs := len(history[0].Regressors)
	p := 2 + 6 + nRegs // intercept, trend, Mon..Sat dummies, regressors

	featuresFor := func(date time.Time, regs []float64) []float64 {
		x := make([]float64, p)
		x[0] = 1
		x[1] = date.Sub(origin).Hours() / 24
		if wd := int(date.Weekday()); wd >= 1 { // Sunday is the baseline
			x[1+wd] = 1
		}
		for i := 0; i < nRegs; i++ {
			x[8+i] = regs[i]
		}
		return x
	}

	// Accumulate the normal equations X'X beta = X'y.
	xtx := make([][]float64, p)
	for i := range xtx {
		xtx[i] = make([]float64, p)
	}
	xty := make([]float64, p)
	for _, h := range history {
		if len(h.Regressors) != nRegs {
			return nil, fmt.Errorf("inconsistent regressor width: %d vs %d", len(h.Regressors), nRegs)
		}
		x := featuresFor(h.Date, h.Regressors)
		for i := 0; i < p; i++ {
			for j := 0; j < p; j++ {
				xtx[i][j] += x[i] * x[j]
			}
			xty[i] += x[i] * h.Value
		}
	}

	ridge := f.Ridge
	if ridge <= 0 {
		ridge = 1e-6
	}
	for i := 0; i < p; i++ {
		xtx[i][i] += ridge
	}

	beta, err := solve(xtx, xty)
	if err != nil {
		return nil, fmt.Errorf("fit failed: %w", err)
	}

	// Residual spread on the training window drives the bounds.
	var sse float64
	for _, h := range history {
		x := featuresFor(h.Date, h.Regressors)
		sse += square(h.Value - dot(x, beta))
	}
	sigma := math.Sqrt(sse / float64(len(history)))
	margin := 1.96 * sigma

	preds := make([]DailyPrediction, 0, len(future))
	for _, fp := range future {
		regs := fp.Regressors
		if len(regs) != nRegs {
			regs = make([]float64, nRegs)
		}
		yhat := dot(featuresFor(fp.Date, regs), beta)
		preds = append(preds, DailyPrediction{
			Date:      fp.Date,
			Yhat:      yhat,
			YhatLower: yhat - margin,
			YhatUpper: yhat + margin,
		})
	}
	return preds, nil
}

// solve performs Gaussian elimination with partial pivoting on a copy of the
// inputs.
func solve(a [][]float64, b []float64) ([]float64, error) {
	n := len(a)
	m := make([][]float64, n)
	for i := range a {
		m[i] = append(append([]float64(nil), a[i]...), b[i])
	}

	for col := 0; col < n; col++ {
		pivot := col
		for row := col + 1; row < n; row++ {
			if math.Abs(m[row][col]) > math.Abs(m[pivot][col]) {
				pivot = row
			}
		}
		if math.Abs(m[pivot][col]) < 1e-12 {
			return nil, fmt.Errorf("singular design matrix")
		}
		m[col], m[pivot] = m[pivot], m[col]

		for row := col + 1; row < n; row++ {
			factor := m[row][col] / m[col][col]
			for k := col; k <= n; k++ {
				m[row][k] -= factor * m[col][k]
			}
		}
	}

	x := make([]float64, n)
	for row := n - 1; row >= 0; row-- {
		sum := m[row][n]
		for k := row + 1; k < n; k++ {
			sum -= m[row][k] * x[k]
		}
		x[row] = sum / m[row][row]
	}
	return x, nil
}

func dot(a, b []float64) float64 {
	var s float64
	for i := range a {
		s += a[i] * b[i]
	}
	return s
}

func square(v float64) float64 { return v * v }
