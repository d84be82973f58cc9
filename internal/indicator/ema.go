package indicator

import (
	"github.com/rxtech-lab/argo-signal/pkg/errors"
)

// EMA is a rolling exponential moving average. It is seeded with the simple average of the
// first period values and then follows EMA = v*alpha + EMA*(1-alpha) with alpha = 2/(period+1),
// which matches pandas ewm(span=period, adjust=False) after the seed.
type EMA struct {
	period int
	alpha  float64
	seed   float64
	count  int
	value  float64
}

// NewEMA creates an exponential moving average of the given period.
func NewEMA(period int) (*EMA, error) {
	if period <= 0 {
		return nil, errors.Newf(errors.ErrCodeInvalidPeriod, "period must be a positive integer, got %d", period)
	}

	return &EMA{
		period: period,
		alpha:  2.0 / float64(period+1),
	}, nil
}

// Period returns the span of the average.
func (e *EMA) Period() int {
	return e.period
}

// Update feeds v and returns the current average and whether period values have been seen.
// Before that the average is the simple mean of the values so far.
func (e *EMA) Update(v float64) (float64, bool, error) {
	if err := checkFinite("EMA", v); err != nil {
		return e.value, e.Ready(), err
	}

	if e.count < e.period {
		e.seed += v
		e.count++
		e.value = e.seed / float64(e.count)

		return e.value, e.Ready(), nil
	}

	e.value = v*e.alpha + e.value*(1-e.alpha)

	return e.value, true, nil
}

// Value returns the current average, or 0 before the first update.
func (e *EMA) Value() float64 {
	return e.value
}

func (e *EMA) Ready() bool {
	return e.count >= e.period
}

func (e *EMA) Reset() {
	e.seed = 0
	e.count = 0
	e.value = 0
}
