package builtin

import (
	"fmt"
	"time"

	"github.com/rxtech-lab/argo-signal/internal/datasource"
	"github.com/rxtech-lab/argo-signal/internal/indicator"
	"github.com/rxtech-lab/argo-signal/internal/strategy"
	"github.com/rxtech-lab/argo-signal/internal/types"
	"github.com/rxtech-lab/argo-signal/pkg/errors"
)

type RSIConfig struct {
	Period         int     `yaml:"period" validate:"min=2" jsonschema:"title=Period,description=Number of price changes the RSI is smoothed over,minimum=2,default=14"`
	LowerThreshold float64 `yaml:"lower_threshold" validate:"gt=0,ltfield=UpperThreshold" jsonschema:"title=Lower Threshold,description=RSI below this value is oversold,default=30"`
	UpperThreshold float64 `yaml:"upper_threshold" validate:"lt=100" jsonschema:"title=Upper Threshold,description=RSI above this value is overbought,default=70"`
}

type rsiZone int

const (
	zoneNeutral rsiZone = iota
	zoneOversold
	zoneOverbought
)

// RSIStrategy emits long when the RSI enters the oversold zone and short when it enters the
// overbought zone. Staying inside a zone emits nothing.
type RSIStrategy struct {
	strategy.Base
	config RSIConfig
	rsi    *indicator.RSI
	zone   rsiZone
}

func NewRSIStrategy(symbol string, bars datasource.BarReader, config string) (strategy.Strategy, error) {
	cfg := RSIConfig{Period: 14, LowerThreshold: 30, UpperThreshold: 70}
	if err := strategy.DecodeConfig(config, &cfg); err != nil {
		return nil, err
	}

	base, err := strategy.NewBase(RSIName, symbol, bars)
	if err != nil {
		return nil, err
	}

	rsi, err := indicator.NewRSI(cfg.Period)
	if err != nil {
		return nil, err
	}

	return &RSIStrategy{
		Base:   base,
		config: cfg,
		rsi:    rsi,
	}, nil
}

// OnBar implements strategy.Strategy.
func (s *RSIStrategy) OnBar(ts time.Time, bar types.MarketData) ([]types.Signal, error) {
	value, ready, err := s.rsi.Update(bar.Close)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrCodeStrategyRuntimeError, err, "bad close at %s", ts)
	}

	if !ready {
		return nil, nil
	}

	zone := zoneNeutral

	switch {
	case value < s.config.LowerThreshold:
		zone = zoneOversold
	case value > s.config.UpperThreshold:
		zone = zoneOverbought
	}

	entered := zone != s.zone
	s.zone = zone

	if !entered {
		return nil, nil
	}

	switch zone {
	case zoneOversold:
		return []types.Signal{s.Long(ts, fmt.Sprintf("RSI oversold (value=%.2f)", value))}, nil
	case zoneOverbought:
		return []types.Signal{s.Short(ts, fmt.Sprintf("RSI overbought (value=%.2f)", value))}, nil
	default:
		return nil, nil
	}
}
