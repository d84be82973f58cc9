package strategy

import (
	"math"
	"time"

	"github.com/rxtech-lab/argo-signal/internal/types"
	"github.com/rxtech-lab/argo-signal/pkg/errors"
)

// Guard wraps a strategy and checks every call against the dispatch contract:
// ts equals the bar time, bars belong to the bound symbol and arrive in strictly
// increasing time, and every returned signal carries ts and the bound symbol.
// A released guard refuses further calls.
type Guard struct {
	inner    Strategy
	last     time.Time
	started  bool
	released bool
}

// NewGuard wraps s. A guard passed to NewGuard is returned unchanged.
func NewGuard(s Strategy) *Guard {
	if g, ok := s.(*Guard); ok {
		return g
	}

	return &Guard{inner: s}
}

// Name implements Strategy.
func (g *Guard) Name() string {
	return g.inner.Name()
}

// Symbol implements Strategy.
func (g *Guard) Symbol() string {
	return g.inner.Symbol()
}

// Inner returns the wrapped strategy.
func (g *Guard) Inner() Strategy {
	return g.inner
}

// Released reports whether Release has been called.
func (g *Guard) Released() bool {
	return g.released
}

// OnBar implements Strategy.
func (g *Guard) OnBar(ts time.Time, bar types.MarketData) ([]types.Signal, error) {
	if g.released {
		return nil, errors.Newf(errors.ErrCodeStrategyReleased, "strategy %s for %s has been released", g.Name(), g.Symbol())
	}

	if !ts.Equal(bar.Time) {
		return nil, errors.Newf(errors.ErrCodeTimestampMismatch, "timestamp %s does not match bar time %s", ts, bar.Time)
	}

	if bar.Symbol != "" && bar.Symbol != g.Symbol() {
		return nil, errors.Newf(errors.ErrCodeInvalidBinding, "bar for %s sent to strategy bound to %s", bar.Symbol, g.Symbol())
	}

	if err := checkBarValues(bar); err != nil {
		return nil, err
	}

	if g.started && !ts.After(g.last) {
		return nil, errors.Newf(errors.ErrCodeOutOfOrderBar, "bar at %s is not after previous bar at %s", ts, g.last)
	}

	g.last = ts
	g.started = true

	signals, err := g.inner.OnBar(ts, bar)
	if err != nil {
		return nil, err
	}

	for i, signal := range signals {
		if err := g.check(ts, signal); err != nil {
			return nil, errors.Wrapf(errors.ErrCodeSignalMismatch, err, "signal %d of %s", i, g.Name())
		}
	}

	return signals, nil
}

func (g *Guard) check(ts time.Time, signal types.Signal) error {
	if !signal.Time.Equal(ts) {
		return errors.Newf(errors.ErrCodeSignalMismatch, "signal time %s differs from bar time %s", signal.Time, ts)
	}

	if signal.Symbol != g.Symbol() {
		return errors.Newf(errors.ErrCodeSignalMismatch, "signal symbol %q differs from bound symbol %q", signal.Symbol, g.Symbol())
	}

	if !signal.Type.IsValid() {
		return errors.Newf(errors.ErrCodeSignalMismatch, "invalid signal type %q", signal.Type)
	}

	if math.IsNaN(signal.Strength) || math.IsInf(signal.Strength, 0) {
		return errors.Newf(errors.ErrCodeSignalMismatch, "signal strength %v is not finite", signal.Strength)
	}

	return nil
}

func checkBarValues(bar types.MarketData) error {
	fields := [...]struct {
		name  string
		value float64
	}{
		{"open", bar.Open},
		{"high", bar.High},
		{"low", bar.Low},
		{"close", bar.Close},
		{"volume", bar.Volume},
	}

	for _, field := range fields {
		if math.IsNaN(field.value) || math.IsInf(field.value, 0) {
			return errors.Newf(errors.ErrCodeInvalidParameter, "bar at %s has non-finite %s %v", bar.Time, field.name, field.value)
		}
	}

	return nil
}

// Release marks the instance released and notifies the wrapped strategy once.
func (g *Guard) Release() {
	if g.released {
		return
	}

	g.released = true

	if r, ok := g.inner.(Releaser); ok {
		r.Release()
	}
}
