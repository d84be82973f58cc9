// Package builtin contains the strategies shipped with argo-signal.
package builtin

import (
	"github.com/rxtech-lab/argo-signal/internal/strategy"
)

const (
	BuyAndHoldName         = "buy_and_hold"
	CloseAboveOpenName     = "close_above_open"
	ConsecutiveCandlesName = "consecutive_candles"
	SMACrossoverName       = "sma_crossover"
	EMACrossoverName       = "ema_crossover"
	RSIName                = "rsi"
	MeanReversionName      = "mean_reversion"
)

// Register adds every builtin strategy to r.
func Register(r *strategy.Registry) error {
	entries := []struct {
		name        string
		constructor strategy.Constructor
		prototype   any
	}{
		{BuyAndHoldName, NewBuyAndHold, nil},
		{CloseAboveOpenName, NewCloseAboveOpen, nil},
		{ConsecutiveCandlesName, NewConsecutiveCandles, ConsecutiveCandlesConfig{}},
		{SMACrossoverName, NewSMACrossover, SMACrossoverConfig{}},
		{EMACrossoverName, NewEMACrossover, EMACrossoverConfig{}},
		{RSIName, NewRSIStrategy, RSIConfig{}},
		{MeanReversionName, NewMeanReversion, MeanReversionConfig{}},
	}

	for _, entry := range entries {
		if err := r.Register(entry.name, entry.constructor, entry.prototype); err != nil {
			return err
		}
	}

	return nil
}

// NewRegistry returns a registry holding every builtin strategy.
func NewRegistry() *strategy.Registry {
	r := strategy.NewRegistry()
	// names are distinct constants, registration cannot fail
	_ = Register(r)

	return r
}
