package mocks

import (
	"math"
	"math/rand/v2"
	"time"

	"github.com/rxtech-lab/argo-signal/internal/types"
)

// DataGenerator produces seeded bar series for tests. The same seed and config always
// yield the same bars.
type DataGenerator struct {
	rng *rand.Rand
}

func NewDataGenerator(seed uint64) *DataGenerator {
	return &DataGenerator{
		rng: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
	}
}

// GeneratorConfig configures a generated series.
type GeneratorConfig struct {
	Symbol    string
	StartTime time.Time
	Interval  time.Duration
	Count     int
	// InitialPrice is the open of the first bar
	InitialPrice float64
	// Volatility is the standard deviation of the per-bar return (0.01 = 1%)
	Volatility float64
	// Drift is the mean per-bar return
	Drift float64
	// VolumeBase is the average volume per bar
	VolumeBase float64
}

// DefaultConfig returns one year of daily bars.
func DefaultConfig() GeneratorConfig {
	return GeneratorConfig{
		Symbol:       "TEST",
		StartTime:    time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC),
		Interval:     24 * time.Hour,
		Count:        252,
		InitialPrice: 100,
		Volatility:   0.015,
		Drift:        0.0002,
		VolumeBase:   1_000_000,
	}
}

// Generate creates bars following a geometric Brownian motion. Each bar opens at the
// previous close.
func (g *DataGenerator) Generate(config GeneratorConfig) []types.MarketData {
	bars := make([]types.MarketData, config.Count)
	price := config.InitialPrice
	ts := config.StartTime

	for i := range bars {
		open := price
		shock := config.Volatility * g.rng.NormFloat64()
		closePrice := open * math.Exp(config.Drift-config.Volatility*config.Volatility/2+shock)

		wick := config.Volatility * open / 2
		high := math.Max(open, closePrice) + g.rng.Float64()*wick
		low := math.Min(open, closePrice) - g.rng.Float64()*wick

		if low <= 0 {
			low = math.Min(open, closePrice) / 2
		}

		bars[i] = types.MarketData{
			Symbol: config.Symbol,
			Time:   ts,
			Open:   round(open, 4),
			High:   round(high, 4),
			Low:    round(low, 4),
			Close:  round(closePrice, 4),
			Volume: round(config.VolumeBase*(0.5+g.rng.Float64()), 0),
		}

		price = closePrice
		ts = ts.Add(config.Interval)
	}

	return bars
}

// GenerateMultiSymbol generates one series per symbol on the same timestamps, each starting
// from a slightly different price.
func (g *DataGenerator) GenerateMultiSymbol(symbols []string, base GeneratorConfig) []types.MarketData {
	var bars []types.MarketData

	for _, symbol := range symbols {
		config := base
		config.Symbol = symbol
		config.InitialPrice = base.InitialPrice * (0.8 + g.rng.Float64()*0.4)

		bars = append(bars, g.Generate(config)...)
	}

	return bars
}

func round(v float64, decimals int) float64 {
	pow := math.Pow(10, float64(decimals))

	return math.Round(v*pow) / pow
}
