package builtin

import (
	"fmt"
	"time"

	"github.com/rxtech-lab/argo-signal/internal/datasource"
	"github.com/rxtech-lab/argo-signal/internal/strategy"
	"github.com/rxtech-lab/argo-signal/internal/types"
)

type ConsecutiveCandlesConfig struct {
	Count int `yaml:"count" validate:"min=2" jsonschema:"title=Count,description=Number of consecutive candles in the same direction,minimum=2,default=2"`
}

// ConsecutiveCandles goes long after Count consecutive up candles and exits after Count
// consecutive down candles.
type ConsecutiveCandles struct {
	strategy.Base
	config ConsecutiveCandlesConfig
	ups    int
	downs  int
	open   bool
}

func NewConsecutiveCandles(symbol string, bars datasource.BarReader, config string) (strategy.Strategy, error) {
	cfg := ConsecutiveCandlesConfig{Count: 2}
	if err := strategy.DecodeConfig(config, &cfg); err != nil {
		return nil, err
	}

	base, err := strategy.NewBase(ConsecutiveCandlesName, symbol, bars)
	if err != nil {
		return nil, err
	}

	return &ConsecutiveCandles{Base: base, config: cfg}, nil
}

// OnBar implements strategy.Strategy.
func (s *ConsecutiveCandles) OnBar(ts time.Time, bar types.MarketData) ([]types.Signal, error) {
	switch {
	case bar.Close > bar.Open:
		s.ups++
		s.downs = 0
	case bar.Close < bar.Open:
		s.downs++
		s.ups = 0
	default:
		s.ups, s.downs = 0, 0
	}

	if !s.open && s.ups >= s.config.Count {
		s.open = true

		return []types.Signal{s.Long(ts, fmt.Sprintf("%d consecutive up candles", s.ups))}, nil
	}

	if s.open && s.downs >= s.config.Count {
		s.open = false

		return []types.Signal{s.Exit(ts, fmt.Sprintf("%d consecutive down candles", s.downs))}, nil
	}

	return nil, nil
}
