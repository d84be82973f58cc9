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

type EMACrossoverConfig struct {
	FastPeriod int `yaml:"fast_period" validate:"min=1" jsonschema:"title=Fast Period,description=The span of the fast exponential moving average,minimum=1,default=12"`
	SlowPeriod int `yaml:"slow_period" validate:"gtfield=FastPeriod" jsonschema:"title=Slow Period,description=The span of the slow exponential moving average,minimum=2,default=26"`
}

// EMACrossover goes long when the fast EMA of the close crosses above the slow one and exits
// when it crosses back below.
type EMACrossover struct {
	strategy.Base
	config   EMACrossoverConfig
	fast     *indicator.EMA
	slow     *indicator.EMA
	prevDiff float64
	hasPrev  bool
}

func NewEMACrossover(symbol string, bars datasource.BarReader, config string) (strategy.Strategy, error) {
	cfg := EMACrossoverConfig{FastPeriod: 12, SlowPeriod: 26}
	if err := strategy.DecodeConfig(config, &cfg); err != nil {
		return nil, err
	}

	base, err := strategy.NewBase(EMACrossoverName, symbol, bars)
	if err != nil {
		return nil, err
	}

	fast, err := indicator.NewEMA(cfg.FastPeriod)
	if err != nil {
		return nil, err
	}

	slow, err := indicator.NewEMA(cfg.SlowPeriod)
	if err != nil {
		return nil, err
	}

	return &EMACrossover{
		Base:   base,
		config: cfg,
		fast:   fast,
		slow:   slow,
	}, nil
}

// OnBar implements strategy.Strategy.
func (s *EMACrossover) OnBar(ts time.Time, bar types.MarketData) ([]types.Signal, error) {
	fastValue, _, err := s.fast.Update(bar.Close)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrCodeStrategyRuntimeError, err, "bad close at %s", ts)
	}

	slowValue, ready, err := s.slow.Update(bar.Close)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrCodeStrategyRuntimeError, err, "bad close at %s", ts)
	}

	if !ready {
		return nil, nil
	}

	diff := fastValue - slowValue
	prev, hasPrev := s.prevDiff, s.hasPrev
	s.prevDiff, s.hasPrev = diff, true

	if !hasPrev {
		return nil, nil
	}

	switch {
	case prev <= 0 && diff > 0:
		return []types.Signal{s.Long(ts, fmt.Sprintf("EMA(%d) %.4f crossed above EMA(%d) %.4f",
			s.config.FastPeriod, fastValue, s.config.SlowPeriod, slowValue))}, nil
	case prev >= 0 && diff < 0:
		return []types.Signal{s.Exit(ts, fmt.Sprintf("EMA(%d) %.4f crossed below EMA(%d) %.4f",
			s.config.FastPeriod, fastValue, s.config.SlowPeriod, slowValue))}, nil
	default:
		return nil, nil
	}
}
