// Package dispatch routes bars to the strategy instances bound to their symbol and publishes
// the resulting market and signal events.
package dispatch

import (
	"context"
	"time"

	"github.com/rxtech-lab/argo-signal/internal/event"
	"github.com/rxtech-lab/argo-signal/internal/logger"
	"github.com/rxtech-lab/argo-signal/internal/strategy"
	"github.com/rxtech-lab/argo-signal/internal/types"
	"github.com/rxtech-lab/argo-signal/pkg/errors"
	"go.uber.org/zap"
)

// Cursor is advanced to each bar before the strategies bound to its symbol see it.
type Cursor interface {
	Advance(symbol string, t time.Time) error
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithCursor makes the dispatcher advance c to every bar it dispatches. Use it when bars are
// fed from a source that does not move the reader's cursor itself.
func WithCursor(c Cursor) Option {
	return func(d *Dispatcher) {
		d.cursor = c
	}
}

// Stats counts what a dispatcher has processed.
type Stats struct {
	Bars      int
	Signals   int
	Instances int
}

// Dispatcher invokes strategy instances once per bar of their symbol, in the order they were
// added. It is not safe for concurrent use.
type Dispatcher struct {
	sink      event.Sink
	logger    *logger.Logger
	cursor    Cursor
	bySymbol  map[string][]*strategy.Guard
	instances []*strategy.Guard
	stats     Stats
	closed    bool
}

func NewDispatcher(sink event.Sink, log *logger.Logger, opts ...Option) *Dispatcher {
	if log == nil {
		log = logger.NewNopLogger()
	}

	d := &Dispatcher{
		sink:     sink,
		logger:   log,
		bySymbol: make(map[string][]*strategy.Guard),
	}

	for _, opt := range opts {
		opt(d)
	}

	return d
}

// Add registers an instance. It is wrapped in a strategy.Guard unless it already is one.
func (d *Dispatcher) Add(s strategy.Strategy) error {
	if d.closed {
		return errors.New(errors.ErrCodeStrategyReleased, "dispatcher is closed")
	}

	if s == nil {
		return errors.New(errors.ErrCodeInvalidParameter, "strategy cannot be nil")
	}

	guard := strategy.NewGuard(s)

	for _, existing := range d.instances {
		if existing == guard {
			return errors.Newf(errors.ErrCodeInvalidParameter, "strategy %s for %s is already added", guard.Name(), guard.Symbol())
		}
	}

	d.instances = append(d.instances, guard)
	d.bySymbol[guard.Symbol()] = append(d.bySymbol[guard.Symbol()], guard)
	d.stats.Instances++

	d.logger.Debug("Strategy added",
		zap.String("strategy", guard.Name()),
		zap.String("symbol", guard.Symbol()),
	)

	return nil
}

// Symbols returns the symbols that have at least one instance, in the order they were first added.
func (d *Dispatcher) Symbols() []string {
	seen := make(map[string]bool, len(d.bySymbol))
	symbols := make([]string, 0, len(d.bySymbol))

	for _, instance := range d.instances {
		if !seen[instance.Symbol()] {
			seen[instance.Symbol()] = true
			symbols = append(symbols, instance.Symbol())
		}
	}

	return symbols
}

// OnBar publishes a market event for bar, then runs every instance bound to bar.Symbol and
// publishes their signals in emission order. The first failure stops the bar and names the
// binding that failed.
func (d *Dispatcher) OnBar(bar types.MarketData) error {
	if d.closed {
		return errors.New(errors.ErrCodeStrategyReleased, "dispatcher is closed")
	}

	if d.cursor != nil {
		if err := d.cursor.Advance(bar.Symbol, bar.Time); err != nil {
			return err
		}
	}

	if err := d.sink.Publish(event.NewMarketEvent(bar)); err != nil {
		return err
	}

	d.stats.Bars++

	for _, instance := range d.bySymbol[bar.Symbol] {
		signals, err := instance.OnBar(bar.Time, bar)
		if err != nil {
			d.logger.Error("Strategy failed",
				zap.String("strategy", instance.Name()),
				zap.String("symbol", instance.Symbol()),
				zap.Time("time", bar.Time),
				zap.Error(err),
			)

			return errors.NewBindingError(instance.Name(), instance.Symbol(), err)
		}

		if len(signals) == 0 {
			continue
		}

		events := make([]event.Event, len(signals))
		for i, signal := range signals {
			events[i] = event.NewSignalEvent(signal)
		}

		if err := d.sink.Publish(events...); err != nil {
			return err
		}

		d.stats.Signals += len(signals)

		d.logger.Debug("Signals emitted",
			zap.String("strategy", instance.Name()),
			zap.String("symbol", instance.Symbol()),
			zap.Time("time", bar.Time),
			zap.Int("count", len(signals)),
		)
	}

	return nil
}

// Replay dispatches every bar of the iterator in order. ctx is checked before each bar.
// onProgress, when not nil, is called after each dispatched bar.
func (d *Dispatcher) Replay(ctx context.Context, bars func(yield func(types.MarketData, error) bool), onProgress func(processed int, bar types.MarketData)) error {
	processed := 0

	for bar, err := range bars {
		if err != nil {
			return errors.Wrap(errors.ErrCodeQueryFailed, "failed to read bar", err)
		}

		if err := ctx.Err(); err != nil {
			return err
		}

		if err := d.OnBar(bar); err != nil {
			return err
		}

		processed++

		if onProgress != nil {
			onProgress(processed, bar)
		}
	}

	d.logger.Info("Replay finished",
		zap.Int("bars", d.stats.Bars),
		zap.Int("signals", d.stats.Signals),
	)

	return nil
}

// Stats returns what has been processed so far.
func (d *Dispatcher) Stats() Stats {
	return d.stats
}

// Close releases every instance. The dispatcher accepts no further calls.
func (d *Dispatcher) Close() {
	if d.closed {
		return
	}

	d.closed = true

	for _, instance := range d.instances {
		instance.Release()
	}

	d.logger.Debug("Dispatcher closed", zap.Int("released", len(d.instances)))
}
