package writer

import "github.com/rxtech-lab/argo-signal/internal/types"

// MarketDataWriter persists downloaded bars.
type MarketDataWriter interface {
	// Initialize prepares the writer to accept bars.
	Initialize() error
	// Write stores a single bar.
	Write(data types.MarketData) error
	// Finalize flushes all stored bars and returns the path of the written file.
	Finalize() (outputPath string, err error)
	// Close releases the resources held by the writer. It is safe to call after Finalize.
	Close() error
	// GetOutputPath returns the path the writer produces.
	GetOutputPath() string
}
