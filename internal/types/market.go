package types

import (
	"math"
	"time"
)

// MarketData is one time-bucketed OHLCV observation for a symbol.
// It is passed by value so a strategy can never mutate the data source's copy.
type MarketData struct {
	Id     string    `csv:"id" json:"id"`
	Symbol string    `csv:"symbol" json:"symbol"`
	Time   time.Time `csv:"time" json:"time"`
	Open   float64   `csv:"open" json:"open"`
	High   float64   `csv:"high" json:"high"`
	Low    float64   `csv:"low" json:"low"`
	Close  float64   `csv:"close" json:"close"`
	Volume float64   `csv:"volume" json:"volume"`
}

// HasValidPrices reports whether every price field is a finite positive number.
func (m MarketData) HasValidPrices() bool {
	for _, p := range [...]float64{m.Open, m.High, m.Low, m.Close} {
		if math.IsNaN(p) || math.IsInf(p, 0) || p <= 0 {
			return false
		}
	}

	return true
}
