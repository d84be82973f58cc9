package indicator

import (
	"github.com/rxtech-lab/argo-signal/pkg/errors"
	"github.com/shopspring/decimal"
)

// MovingAverage is a rolling simple moving average over the last period values.
// Sums are kept in decimal so that adding and evicting values does not drift.
type MovingAverage struct {
	period int
	window []decimal.Decimal
	next   int
	count  int
	sum    decimal.Decimal
}

// NewMovingAverage creates a rolling simple moving average of the given period.
func NewMovingAverage(period int) (*MovingAverage, error) {
	if period <= 0 {
		return nil, errors.Newf(errors.ErrCodeInvalidPeriod, "period must be a positive integer, got %d", period)
	}

	return &MovingAverage{
		period: period,
		window: make([]decimal.Decimal, period),
		sum:    decimal.Zero,
	}, nil
}

// Period returns the window length.
func (m *MovingAverage) Period() int {
	return m.period
}

// Update pushes v into the window and returns the average and whether the window is full.
// A non-finite v is rejected and leaves the window unchanged.
func (m *MovingAverage) Update(v float64) (float64, bool, error) {
	if err := checkFinite("moving average", v); err != nil {
		return m.Value(), m.Ready(), err
	}

	value := decimal.NewFromFloat(v)

	if m.count == m.period {
		m.sum = m.sum.Sub(m.window[m.next])
	} else {
		m.count++
	}

	m.window[m.next] = value
	m.sum = m.sum.Add(value)
	m.next = (m.next + 1) % m.period

	return m.Value(), m.Ready(), nil
}

// Value returns the average of the values seen so far, or 0 before the first update.
func (m *MovingAverage) Value() float64 {
	if m.count == 0 {
		return 0
	}

	return m.sum.Div(decimal.NewFromInt(int64(m.count))).InexactFloat64()
}

// Ready reports whether period values have been seen.
func (m *MovingAverage) Ready() bool {
	return m.count == m.period
}

// Reset empties the window.
func (m *MovingAverage) Reset() {
	for i := range m.window {
		m.window[i] = decimal.Zero
	}

	m.next = 0
	m.count = 0
	m.sum = decimal.Zero
}
