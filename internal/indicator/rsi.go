package indicator

import (
	"github.com/rxtech-lab/argo-signal/pkg/errors"
)

// RSI is a rolling relative strength index with Wilder smoothing. The first average gain and
// loss are the simple means of the first period changes; later ones are
// avg = (avg*(period-1) + change) / period.
type RSI struct {
	period    int
	prev      float64
	hasPrev   bool
	changes   int
	avgGain   float64
	avgLoss   float64
	lastValue float64
}

// NewRSI creates a relative strength index over period price changes.
func NewRSI(period int) (*RSI, error) {
	if period <= 0 {
		return nil, errors.Newf(errors.ErrCodeInvalidPeriod, "period must be a positive integer, got %d", period)
	}

	return &RSI{period: period}, nil
}

func (r *RSI) Period() int {
	return r.period
}

// Update feeds a close and returns the RSI and whether period changes have been seen.
// A window without losses yields 100.
func (r *RSI) Update(price float64) (float64, bool, error) {
	if err := checkFinite("RSI", price); err != nil {
		return r.lastValue, r.Ready(), err
	}

	if !r.hasPrev {
		r.prev, r.hasPrev = price, true

		return 0, false, nil
	}

	change := price - r.prev
	r.prev = price

	gain, loss := 0.0, 0.0
	if change > 0 {
		gain = change
	} else {
		loss = -change
	}

	period := float64(r.period)

	if r.changes < r.period {
		r.avgGain += gain / period
		r.avgLoss += loss / period
		r.changes++

		if r.changes < r.period {
			return 0, false, nil
		}
	} else {
		r.avgGain = (r.avgGain*(period-1) + gain) / period
		r.avgLoss = (r.avgLoss*(period-1) + loss) / period
	}

	if r.avgLoss == 0 {
		r.lastValue = 100
	} else {
		r.lastValue = 100 - 100/(1+r.avgGain/r.avgLoss)
	}

	return r.lastValue, true, nil
}

// Value returns the last computed RSI, or 0 before it is ready.
func (r *RSI) Value() float64 {
	return r.lastValue
}

func (r *RSI) Ready() bool {
	return r.changes >= r.period
}

func (r *RSI) Reset() {
	*r = RSI{period: r.period}
}
