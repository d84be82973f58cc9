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

type SMACrossoverConfig struct {
	ShortPeriod int `yaml:"short_period" validate:"min=1" jsonschema:"title=Short Period,description=The period for the short moving average,minimum=1,default=5"`
	LongPeriod  int `yaml:"long_period" validate:"gtfield=ShortPeriod" jsonschema:"title=Long Period,description=The period for the long moving average,minimum=2,default=20"`
}

// SMACrossover goes long when the short moving average of the close crosses above the long one
// and exits when it crosses back below.
type SMACrossover struct {
	strategy.Base
	config   SMACrossoverConfig
	short    *indicator.MovingAverage
	long     *indicator.MovingAverage
	prevDiff float64
	hasPrev  bool
}

func NewSMACrossover(symbol string, bars datasource.BarReader, config string) (strategy.Strategy, error) {
	cfg := SMACrossoverConfig{ShortPeriod: 5, LongPeriod: 20}
	if err := strategy.DecodeConfig(config, &cfg); err != nil {
		return nil, err
	}

	base, err := strategy.NewBase(SMACrossoverName, symbol, bars)
	if err != nil {
		return nil, err
	}

	short, err := indicator.NewMovingAverage(cfg.ShortPeriod)
	if err != nil {
		return nil, err
	}

	long, err := indicator.NewMovingAverage(cfg.LongPeriod)
	if err != nil {
		return nil, err
	}

	return &SMACrossover{
		Base:   base,
		config: cfg,
		short:  short,
		long:   long,
	}, nil
}

// OnBar implements strategy.Strategy.
func (s *SMACrossover) OnBar(ts time.Time, bar types.MarketData) ([]types.Signal, error) {
	shortValue, _, err := s.short.Update(bar.Close)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrCodeStrategyRuntimeError, err, "bad close at %s", ts)
	}

	longValue, ready, err := s.long.Update(bar.Close)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrCodeStrategyRuntimeError, err, "bad close at %s", ts)
	}

	if !ready {
		return nil, nil
	}

	diff := shortValue - longValue
	prev, hasPrev := s.prevDiff, s.hasPrev
	s.prevDiff, s.hasPrev = diff, true

	if !hasPrev {
		return nil, nil
	}

	switch {
	case prev <= 0 && diff > 0:
		return []types.Signal{s.Long(ts, fmt.Sprintf("SMA(%d) %.4f crossed above SMA(%d) %.4f",
			s.config.ShortPeriod, shortValue, s.config.LongPeriod, longValue))}, nil
	case prev >= 0 && diff < 0:
		return []types.Signal{s.Exit(ts, fmt.Sprintf("SMA(%d) %.4f crossed below SMA(%d) %.4f",
			s.config.ShortPeriod, shortValue, s.config.LongPeriod, longValue))}, nil
	default:
		return nil, nil
	}
}
