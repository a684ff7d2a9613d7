package forecast

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

func checkPair(actual, predicted []float64) error {
	if len(actual) != len(predicted) {
		return fmt.Errorf("length mismatch: %d actual, %d predicted", len(actual), len(predicted))
	}
	if len(actual) == 0 {
		return fmt.Errorf("%w: no values to score", ErrSeriesTooShort)
	}
	return nil
}

// MAPE returns the mean absolute percentage error as a fraction. Actual
// values of zero are divided by machine epsilon instead.
func MAPE(actual, predicted []float64) (float64, error) {
	if err := checkPair(actual, predicted); err != nil {
		return 0, err
	}

	errs := make([]float64, len(actual))
	for i := range actual {
		errs[i] = math.Abs(actual[i]-predicted[i]) / math.Max(math.Abs(actual[i]), epsilon)
	}
	return stat.Mean(errs, nil), nil
}

// RMSE returns the root mean squared error
func RMSE(actual, predicted []float64) (float64, error) {
	if err := checkPair(actual, predicted); err != nil {
		return 0, err
	}

	diff := make([]float64, len(actual))
	floats.SubTo(diff, actual, predicted)
	return math.Sqrt(floats.Dot(diff, diff) / float64(len(diff))), nil
}

// SuccessRate returns the share of true flags
func SuccessRate(flags []bool) float64 {
	if len(flags) == 0 {
		return 0
	}
	ok := 0
	for _, f := range flags {
		if f {
			ok++
		}
	}
	return float64(ok) / float64(len(flags))
}

// DiscountedReward returns the sum of rewards discounted by gamma per step
func DiscountedReward(rewards []float64, gamma float64) float64 {
	total := 0.0
	discount := 1.0
	for _, r := range rewards {
		total += discount * r
		discount *= gamma
	}
	return total
}

// epsilon matches float64 machine epsilon
var epsilon = math.Nextafter(1, 2) - 1
