package builtin

import (
	"fmt"
	"math"
	"time"

	"github.com/rxtech-lab/argo-signal/internal/datasource"
	"github.com/rxtech-lab/argo-signal/internal/indicator"
	"github.com/rxtech-lab/argo-signal/internal/strategy"
	"github.com/rxtech-lab/argo-signal/internal/types"
	"github.com/rxtech-lab/argo-signal/pkg/errors"
)

type MeanReversionConfig struct {
	Lookback      int     `yaml:"lookback" validate:"min=2" jsonschema:"title=Lookback,description=Number of bars in the z-score window including the current one,minimum=2,default=20"`
	Threshold     float64 `yaml:"threshold" validate:"gt=0" jsonschema:"title=Threshold,description=Absolute z-score that opens a position,default=2"`
	ExitThreshold float64 `yaml:"exit_threshold" validate:"gte=0,ltfield=Threshold" jsonschema:"title=Exit Threshold,description=Absolute z-score under which an open position is exited,default=0.5"`
}

type side int

const (
	sideFlat side = iota
	sideLong
	sideShort
)

// MeanReversion trades the z-score of the close over the last Lookback bars read from the
// data source: long below -Threshold, short above Threshold, exit once the z-score is back
// inside ExitThreshold. Entry strength is the absolute z-score.
type MeanReversion struct {
	strategy.Base
	config   MeanReversionConfig
	position side
}

func NewMeanReversion(symbol string, bars datasource.BarReader, config string) (strategy.Strategy, error) {
	cfg := MeanReversionConfig{Lookback: 20, Threshold: 2, ExitThreshold: 0.5}
	if err := strategy.DecodeConfig(config, &cfg); err != nil {
		return nil, err
	}

	base, err := strategy.NewBase(MeanReversionName, symbol, bars)
	if err != nil {
		return nil, err
	}

	return &MeanReversion{Base: base, config: cfg}, nil
}

// OnBar implements strategy.Strategy.
func (s *MeanReversion) OnBar(ts time.Time, bar types.MarketData) ([]types.Signal, error) {
	window, err := s.Bars().PreviousBars(s.Symbol(), s.config.Lookback)
	if err != nil {
		if errors.IsInsufficientDataError(err) {
			return nil, nil
		}

		return nil, errors.Wrapf(errors.ErrCodeStrategyRuntimeError, err, "failed to read %d bars of %s", s.config.Lookback, s.Symbol())
	}

	closes := make([]float64, len(window))
	for i, b := range window {
		closes[i] = b.Close
	}

	z, err := indicator.ZScore(closes, bar.Close)
	if err != nil {
		return nil, err
	}

	reason := fmt.Sprintf("z-score %.4f over %d bars", z, s.config.Lookback)

	switch s.position {
	case sideFlat:
		if z < -s.config.Threshold {
			s.position = sideLong

			return []types.Signal{s.NewSignal(ts, types.SignalTypeLong, math.Abs(z), reason)}, nil
		}

		if z > s.config.Threshold {
			s.position = sideShort

			return []types.Signal{s.NewSignal(ts, types.SignalTypeShort, math.Abs(z), reason)}, nil
		}
	case sideLong, sideShort:
		if math.Abs(z) < s.config.ExitThreshold {
			s.position = sideFlat

			return []types.Signal{s.Exit(ts, reason)}, nil
		}
	}

	return nil, nil
}
