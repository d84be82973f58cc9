package types

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
)

type MarketTestSuite struct {
	suite.Suite
}

func TestMarketSuite(t *testing.T) {
	suite.Run(t, new(MarketTestSuite))
}

func (suite *MarketTestSuite) TestMarketDataZeroValues() {
	data := MarketData{}

	suite.Empty(data.Symbol)
	suite.True(data.Time.IsZero())
	suite.False(data.HasValidPrices())
}

func (suite *MarketTestSuite) TestHasValidPrices() {
	bar := MarketData{
		Symbol: "RELIANCE.NS",
		Time:   time.Date(2023, 6, 15, 0, 0, 0, 0, time.UTC),
		Open:   2500,
		High:   2550,
		Low:    2480,
		Close:  2530,
		Volume: 1_000_000,
	}
	suite.True(bar.HasValidPrices())

	nan := bar
	nan.Close = math.NaN()
	suite.False(nan.HasValidPrices())

	inf := bar
	inf.High = math.Inf(1)
	suite.False(inf.HasValidPrices())

	zero := bar
	zero.Low = 0
	suite.False(zero.HasValidPrices())
}

func (suite *MarketTestSuite) TestPassedByValue() {
	bar := MarketData{Symbol: "SPY", Close: 450}
	mutate := func(m MarketData) { m.Close = 0 }
	mutate(bar)

	suite.Equal(450.0, bar.Close)
}
