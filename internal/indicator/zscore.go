package indicator

import (
	"math"

	"github.com/rxtech-lab/argo-signal/pkg/errors"
	"github.com/shopspring/decimal"
)

// ZScore returns how many population standard deviations x lies from the mean of values.
// A flat window has no deviation and yields 0. Non-finite inputs are rejected.
func ZScore(values []float64, x float64) (float64, error) {
	if len(values) == 0 {
		return 0, errors.New(errors.ErrCodeInsufficientData, "z-score needs at least one value")
	}

	if err := checkFinite("z-score", append([]float64{x}, values...)...); err != nil {
		return 0, err
	}

	n := decimal.NewFromInt(int64(len(values)))
	sum := decimal.Zero

	for _, v := range values {
		sum = sum.Add(decimal.NewFromFloat(v))
	}

	mean := sum.Div(n)
	squares := decimal.Zero

	for _, v := range values {
		diff := decimal.NewFromFloat(v).Sub(mean)
		squares = squares.Add(diff.Mul(diff))
	}

	stddev := math.Sqrt(squares.Div(n).InexactFloat64())
	if stddev == 0 {
		return 0, nil
	}

	return decimal.NewFromFloat(x).Sub(mean).InexactFloat64() / stddev, nil
}
