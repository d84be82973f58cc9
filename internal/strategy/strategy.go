// Package strategy defines the contract between the bar dispatcher and the strategies it drives.
//
// A strategy instance is bound to exactly one symbol and one read-only BarReader when it is
// constructed and is never rebound. The dispatcher calls OnBar once per bar of that symbol in
// strictly increasing time order. OnBar returns the signals produced for the bar, in emission
// order, all stamped with the bar's timestamp and the bound symbol. Construction publishes
// nothing.
//
// Concrete strategies embed Base, built with NewBase, and implement OnBar:
//
//	type MyStrategy struct {
//		strategy.Base
//	}
//
//	func (s *MyStrategy) OnBar(ts time.Time, bar types.MarketData) ([]types.Signal, error) {
//		if bar.Close > bar.Open {
//			return []types.Signal{s.Long(ts, "close above open")}, nil
//		}
//
//		return nil, nil
//	}
package strategy

import (
	"strings"
	"time"

	"github.com/rxtech-lab/argo-signal/internal/datasource"
	"github.com/rxtech-lab/argo-signal/internal/types"
	"github.com/rxtech-lab/argo-signal/pkg/errors"
)

// Strategy is a signal generator bound to one symbol.
type Strategy interface {
	// Name returns the name of the strategy
	Name() string
	// Symbol returns the symbol the instance is bound to
	Symbol() string
	// OnBar is called once per bar of the bound symbol. ts is the bar's timestamp.
	OnBar(ts time.Time, bar types.MarketData) ([]types.Signal, error)
}

// Releaser is implemented by strategies that hold resources. Release is called once at teardown.
type Releaser interface {
	Release()
}

// Base holds the binding of a strategy instance. It is meant to be embedded.
type Base struct {
	name   string
	symbol string
	bars   datasource.BarReader
}

// NewBase validates and creates a binding of a strategy to symbol and bars.
// The symbol is taken as given: blank symbols and symbols with surrounding whitespace
// are rejected rather than trimmed.
func NewBase(name string, symbol string, bars datasource.BarReader) (Base, error) {
	if strings.TrimSpace(symbol) == "" {
		return Base{}, errors.Newf(errors.ErrCodeInvalidBinding, "strategy %s requires a non-empty symbol", name)
	}

	if strings.TrimSpace(symbol) != symbol {
		return Base{}, errors.Newf(errors.ErrCodeInvalidBinding, "symbol %q has surrounding whitespace", symbol)
	}

	if bars == nil {
		return Base{}, errors.Newf(errors.ErrCodeInvalidBinding, "strategy %s requires a data source", name)
	}

	if !bars.HasSymbol(symbol) {
		return Base{}, errors.Newf(errors.ErrCodeInvalidBinding, "symbol %q is not served by the data source", symbol)
	}

	return Base{
		name:   name,
		symbol: symbol,
		bars:   bars,
	}, nil
}

// Name implements Strategy.
func (b Base) Name() string {
	return b.name
}

// Symbol implements Strategy.
func (b Base) Symbol() string {
	return b.symbol
}

// Bars returns the read-only view of the data source.
func (b Base) Bars() datasource.BarReader {
	return b.bars
}

// NewSignal creates a signal stamped with ts and the bound symbol.
func (b Base) NewSignal(ts time.Time, signalType types.SignalType, strength float64, reason string) types.Signal {
	return types.Signal{
		Time:     ts,
		Type:     signalType,
		Strength: strength,
		Symbol:   b.symbol,
		Name:     b.name,
		Reason:   reason,
	}
}

// Long creates a long signal with the default strength.
func (b Base) Long(ts time.Time, reason string) types.Signal {
	return b.NewSignal(ts, types.SignalTypeLong, types.DefaultSignalStrength, reason)
}

// Short creates a short signal with the default strength.
func (b Base) Short(ts time.Time, reason string) types.Signal {
	return b.NewSignal(ts, types.SignalTypeShort, types.DefaultSignalStrength, reason)
}

// Exit creates an exit signal with the default strength.
func (b Base) Exit(ts time.Time, reason string) types.Signal {
	return b.NewSignal(ts, types.SignalTypeExit, types.DefaultSignalStrength, reason)
}

// UnimplementedStrategy is a strategy without bar handling. Its OnBar always fails with
// ErrCodeNotImplemented. Strategies that embed it and do not define OnBar fail the same way.
type UnimplementedStrategy struct {
	Base
}

// NewUnimplementedStrategy binds an UnimplementedStrategy to symbol.
func NewUnimplementedStrategy(symbol string, bars datasource.BarReader) (*UnimplementedStrategy, error) {
	base, err := NewBase("unimplemented", symbol, bars)
	if err != nil {
		return nil, err
	}

	return &UnimplementedStrategy{Base: base}, nil
}

// OnBar implements Strategy.
func (u *UnimplementedStrategy) OnBar(_ time.Time, _ types.MarketData) ([]types.Signal, error) {
	return nil, errors.Newf(errors.ErrCodeNotImplemented, "strategy %s does not implement OnBar", u.Name())
}
