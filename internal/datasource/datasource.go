package datasource

import (
	"time"

	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-signal/internal/types"
)

// DataSource loads bars from storage. It is owned by the run driver, never by a strategy.
type DataSource interface {
	// Initialize loads the given CSV or Parquet files into the data source
	Initialize(paths ...string) error
	// ReadAll yields every bar in [start, end] ordered by time, then symbol
	ReadAll(start optional.Option[time.Time], end optional.Option[time.Time]) func(yield func(types.MarketData, error) bool)
	// Count returns the number of bars in [start, end]
	Count(start optional.Option[time.Time], end optional.Option[time.Time]) (int, error)
	// Symbols returns the distinct symbols, sorted
	Symbols() ([]string, error)
	// Close closes the data source and releases any resources
	Close() error
}

// BarReader is the read-only view of the data source handed to strategies at construction.
// Implementations must never return a bar later than the bar currently being processed.
type BarReader interface {
	// HasSymbol reports whether the reader can serve bars for symbol
	HasSymbol(symbol string) bool
	// LatestBar returns the bar currently being processed for symbol
	LatestBar(symbol string) (types.MarketData, error)
	// BarAt returns the latest bar with a timestamp at or before at
	BarAt(symbol string, at time.Time) (types.MarketData, error)
	// PreviousBars returns the count bars ending at the current bar, oldest first
	PreviousBars(symbol string, count int) ([]types.MarketData, error)
}
