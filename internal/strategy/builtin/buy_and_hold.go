package builtin

import (
	"time"

	"github.com/rxtech-lab/argo-signal/internal/datasource"
	"github.com/rxtech-lab/argo-signal/internal/strategy"
	"github.com/rxtech-lab/argo-signal/internal/types"
)

// BuyAndHold goes long on the first bar it sees and emits nothing afterwards.
// It is the benchmark other strategies are compared against.
type BuyAndHold struct {
	strategy.Base
	bought bool
}

func NewBuyAndHold(symbol string, bars datasource.BarReader, _ string) (strategy.Strategy, error) {
	base, err := strategy.NewBase(BuyAndHoldName, symbol, bars)
	if err != nil {
		return nil, err
	}

	return &BuyAndHold{Base: base}, nil
}

// OnBar implements strategy.Strategy.
func (s *BuyAndHold) OnBar(ts time.Time, _ types.MarketData) ([]types.Signal, error) {
	if s.bought {
		return nil, nil
	}

	s.bought = true

	return []types.Signal{s.Long(ts, "buy and hold")}, nil
}
