package builtin

import (
	"time"

	"github.com/rxtech-lab/argo-signal/internal/datasource"
	"github.com/rxtech-lab/argo-signal/internal/strategy"
	"github.com/rxtech-lab/argo-signal/internal/types"
)

// CloseAboveOpen goes long on every bar that closes above its open.
type CloseAboveOpen struct {
	strategy.Base
}

func NewCloseAboveOpen(symbol string, bars datasource.BarReader, _ string) (strategy.Strategy, error) {
	base, err := strategy.NewBase(CloseAboveOpenName, symbol, bars)
	if err != nil {
		return nil, err
	}

	return &CloseAboveOpen{Base: base}, nil
}

// OnBar implements strategy.Strategy.
func (s *CloseAboveOpen) OnBar(ts time.Time, bar types.MarketData) ([]types.Signal, error) {
	if bar.Close > bar.Open {
		return []types.Signal{s.Long(ts, "close above open")}, nil
	}

	return nil, nil
}
