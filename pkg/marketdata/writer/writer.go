package writer

import (
	"github.com/rxtech-lab/argo-crossover/internal/types"
)

// MarketDataWriter defines the interface for writing candles to a destination.
type MarketDataWriter interface {
	// Initialize sets up the writer, potentially creating tables or files.
	Initialize() error
	// Write persists a single candle of symbol.
	Write(symbol string, candle types.Candle) error
	// Finalize completes the writing process (e.g., commits transactions, exports files).
	Finalize() (outputPath string, err error)
	// Close releases any resources held by the writer.
	Close() error
	// GetOutputPath returns the configured output file path.
	GetOutputPath() string
}
