// Package forecast holds baseline one-step-ahead forecasters for table
// columns and the accuracy metrics used to compare them.
package forecast

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/stat"
)

// Forecaster predicts the value following a lookback window
type Forecaster interface {
	Predict(window []float64) float64
}

// Naive predicts the last observed value
type Naive struct{}

func (Naive) Predict(window []float64) float64 {
	if len(window) == 0 {
		return 0
	}
	return window[len(window)-1]
}

// MovingAverage predicts the mean of the window
type MovingAverage struct{}

func (MovingAverage) Predict(window []float64) float64 {
	if len(window) == 0 {
		return 0
	}
	return stat.Mean(window, nil)
}

// SeasonalNaive predicts the value observed one period earlier. Windows
// shorter than the period fall back to the last value.
type SeasonalNaive struct {
	Period int
}

func (s SeasonalNaive) Predict(window []float64) float64 {
	if s.Period <= 0 || len(window) < s.Period {
		return Naive{}.Predict(window)
	}
	return window[len(window)-s.Period]
}

// ExponentialSmoothing predicts the simple exponentially smoothed level of
// the window.
type ExponentialSmoothing struct {
	Alpha float64
}

func (e ExponentialSmoothing) Predict(window []float64) float64 {
	if len(window) == 0 {
		return 0
	}
	level := window[0]
	for _, v := range window[1:] {
		level = e.Alpha*v + (1-e.Alpha)*level
	}
	return level
}

// Windows splits series into lookback windows of length size and the value
// that follows each window.
func Windows(series []float64, size int) ([][]float64, []float64) {
	if size <= 0 || len(series) <= size {
		return nil, nil
	}

	n := len(series) - size
	x := make([][]float64, n)
	y := make([]float64, n)
	for i := 0; i < n; i++ {
		x[i] = series[i : i+size]
		y[i] = series[i+size]
	}
	return x, y
}

// Result is the outcome of evaluating a forecaster on a series
type Result struct {
	Start       int
	Predictions []float64
	MAPE        float64
	RMSE        float64
}

// ErrSeriesTooShort is returned when a series cannot be split for evaluation
var ErrSeriesTooShort = errors.New("series too short")

// Evaluate predicts every value of the second half of series one step ahead
// from the preceding lookback values (at most window of them) and scores
// the predictions.
func Evaluate(series []float64, f Forecaster, window int) (Result, error) {
	if len(series) < 2 {
		return Result{}, fmt.Errorf("%w: need at least 2 values, got %d", ErrSeriesTooShort, len(series))
	}
	if window <= 0 {
		return Result{}, fmt.Errorf("window must be greater than 0")
	}

	start := len(series) / 2
	windows, _ := Windows(series, window)
	preds := make([]float64, 0, len(series)-start)
	for i := start; i < len(series); i++ {
		// early values only have a partial lookback
		lookback := series[:i]
		if i >= window {
			lookback = windows[i-window]
		}
		preds = append(preds, f.Predict(lookback))
	}

	actual := series[start:]
	mape, err := MAPE(actual, preds)
	if err != nil {
		return Result{}, err
	}
	rmse, err := RMSE(actual, preds)
	if err != nil {
		return Result{}, err
	}

	return Result{Start: start, Predictions: preds, MAPE: mape, RMSE: rmse}, nil
}
